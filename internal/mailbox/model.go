// Package mailbox implements the rendezvous server: nameplates pointing to
// mailboxes, each mailbox an append-only two-sided message log, reachable
// over a WebSocket JSON protocol.
package mailbox

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"securebeam.eu/securebeam/internal/werr"
)

// nameplateSpace bounds the decimal-digit id space nameplates are drawn
// from, per §4.4's "e.g. 1-999 decimal digits".
const nameplateSpace = 999

// DefaultSessionTTL is how long after its creation a nameplate or mailbox
// expires and becomes eligible for the expiry sweep. Activity does not
// extend it.
const DefaultSessionTTL = 300 * time.Second

// ExpirySweepInterval is how often the background sweep runs.
const ExpirySweepInterval = 60 * time.Second

// Message is one entry in a mailbox's log.
type Message struct {
	ID      uint64
	Side    string
	Phase   string
	Body    string // hex-encoded
	AddedAt time.Time
}

// Nameplate points at a mailbox and tracks which sides have claimed it.
type Nameplate struct {
	ID        string
	MailboxID string
	claimedBy map[string]bool
	createdAt time.Time
	expiresAt time.Time
}

func newNameplate(id, mailboxID string, ttl time.Duration) *Nameplate {
	now := time.Now()
	return &Nameplate{
		ID:        id,
		MailboxID: mailboxID,
		claimedBy: make(map[string]bool),
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
}

func (n *Nameplate) isExpired() bool { return time.Now().After(n.expiresAt) }

func (n *Nameplate) claim(side string) bool {
	if n.claimedBy[side] {
		return true
	}
	if len(n.claimedBy) >= 2 {
		return false
	}
	n.claimedBy[side] = true
	return true
}

func (n *Nameplate) release(side string) {
	delete(n.claimedBy, side)
}

func (n *Nameplate) canRelease() bool { return len(n.claimedBy) == 0 }

// Mailbox is an append-only message log shared by at most two sides.
type Mailbox struct {
	ID            string
	Appid         string
	openedBy      map[string]bool
	messages      []Message
	nextMessageID uint64
	createdAt     time.Time
	expiresAt     time.Time
	closed        bool
}

func newMailbox(appid string, ttl time.Duration) *Mailbox {
	now := time.Now()
	return &Mailbox{
		ID:            uuid.NewString(),
		Appid:         appid,
		openedBy:      make(map[string]bool),
		nextMessageID: 1,
		createdAt:     now,
		expiresAt:     now.Add(ttl),
	}
}

func (m *Mailbox) isExpired() bool { return time.Now().After(m.expiresAt) }

func (m *Mailbox) open(side string) bool {
	if m.openedBy[side] {
		return true
	}
	if m.closed || len(m.openedBy) >= 2 {
		return false
	}
	m.openedBy[side] = true
	return true
}

func (m *Mailbox) isOpenedBy(side string) bool { return m.openedBy[side] }

func (m *Mailbox) addMessage(side, phase, body string) Message {
	msg := Message{ID: m.nextMessageID, Side: side, Phase: phase, Body: body, AddedAt: time.Now()}
	m.nextMessageID++
	m.messages = append(m.messages, msg)
	return msg
}

// messagesForPeer returns every stored message not sent by side, in
// ascending id order, for replay when a peer opens the mailbox late.
func (m *Mailbox) messagesForPeer(side string) []Message {
	var out []Message
	for _, msg := range m.messages {
		if msg.Side != side {
			out = append(out, msg)
		}
	}
	return out
}

func (m *Mailbox) close(side string) {
	delete(m.openedBy, side)
	if len(m.openedBy) == 0 {
		m.closed = true
	}
}

func (m *Mailbox) canDelete() bool { return m.closed || m.isExpired() }

// Hub owns every nameplate and mailbox on the server, guarded by a single
// RWMutex; all operations are expected to be short, matching the
// coarse-lock policy in SPEC_FULL.md's concurrency model.
type Hub struct {
	mu         sync.RWMutex
	nameplates map[string]*Nameplate
	mailboxes  map[string]*Mailbox
	ttl        time.Duration
	metrics    *Metrics
}

// NewHub creates an empty Hub with the given nameplate/mailbox TTL.
func NewHub(ttl time.Duration, metrics *Metrics) *Hub {
	return &Hub{
		nameplates: make(map[string]*Nameplate),
		mailboxes:  make(map[string]*Mailbox),
		ttl:        ttl,
		metrics:    metrics,
	}
}

// Allocate draws an unused nameplate id, creates a mailbox bound to appid,
// links the two, and returns the nameplate id.
func (h *Hub) Allocate(appid string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id, ok := h.freeNameplateLocked()
	if !ok {
		return "", werr.New(werr.Protocol, "no nameplates available")
	}
	mb := newMailbox(appid, h.ttl)
	h.mailboxes[mb.ID] = mb
	h.nameplates[id] = newNameplate(id, mb.ID, h.ttl)
	if h.metrics != nil {
		h.metrics.NameplatesAllocated.Inc()
	}
	return id, nil
}

func (h *Hub) freeNameplateLocked() (string, bool) {
	for i := 0; i < 64; i++ {
		id := randNameplateID()
		if _, exists := h.nameplates[id]; !exists {
			return id, true
		}
	}
	return "", false
}

func randNameplateID() string {
	n := rand.Intn(nameplateSpace) + 1
	return itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := make([]byte, 0, 4)
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// Claim adds side to the claim set of nameplate id, creating the
// nameplate (and a fresh mailbox) lazily if it does not yet exist, so a
// receiver can claim a code before the sender's allocate arrives by way of
// some other side channel. It returns the linked mailbox id.
func (h *Hub) Claim(id, appid, side string) (mailboxID string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	np, ok := h.nameplates[id]
	if !ok || np.isExpired() {
		mb := newMailbox(appid, h.ttl)
		h.mailboxes[mb.ID] = mb
		np = newNameplate(id, mb.ID, h.ttl)
		h.nameplates[id] = np
	}
	if !np.claim(side) {
		return "", werr.New(werr.Protocol, "nameplate already claimed by two sides")
	}
	return np.MailboxID, nil
}

// Release removes side from nameplate id's claim set, deleting the
// nameplate once nobody holds it.
func (h *Hub) Release(id, side string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	np, ok := h.nameplates[id]
	if !ok {
		return
	}
	np.release(side)
	if np.canRelease() {
		delete(h.nameplates, id)
	}
}

// Open admits side to mailbox id (at most two sides) and returns every
// stored message from the other side, in order, for replay.
func (h *Hub) Open(mailboxID, side string) ([]Message, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	mb, ok := h.mailboxes[mailboxID]
	if !ok {
		return nil, werr.ErrSessionNotFound
	}
	if mb.isExpired() {
		return nil, werr.ErrSessionExpired
	}
	if !mb.open(side) {
		return nil, werr.New(werr.Protocol, "mailbox already opened by two sides")
	}
	if h.metrics != nil {
		h.metrics.MailboxesOpen.Inc()
	}
	return mb.messagesForPeer(side), nil
}

// Add appends a message to mailbox id on behalf of side and returns it
// along with the list of other sides currently open on the mailbox, to
// whom it should be broadcast.
func (h *Hub) Add(mailboxID, side, phase, body string) (Message, []string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	mb, ok := h.mailboxes[mailboxID]
	if !ok {
		return Message{}, nil, werr.ErrSessionNotFound
	}
	if !mb.isOpenedBy(side) {
		return Message{}, nil, werr.New(werr.Protocol, "add called before open")
	}
	msg := mb.addMessage(side, phase, body)
	var peers []string
	for s := range mb.openedBy {
		if s != side {
			peers = append(peers, s)
		}
	}
	if h.metrics != nil {
		h.metrics.MessagesRelayed.Inc()
	}
	return msg, peers, nil
}

// CloseMailbox removes side from mailbox id, marking it deletable once
// empty.
func (h *Hub) CloseMailbox(mailboxID, side string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	mb, ok := h.mailboxes[mailboxID]
	if !ok {
		return
	}
	mb.close(side)
	if mb.canDelete() {
		delete(h.mailboxes, mailboxID)
		if h.metrics != nil {
			h.metrics.MailboxesClosed.Inc()
		}
	}
}

// Sweep deletes every expired nameplate and every deletable mailbox. It is
// meant to be called periodically (ExpirySweepInterval) from a background
// goroutine.
func (h *Hub) Sweep() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, np := range h.nameplates {
		if np.isExpired() {
			delete(h.nameplates, id)
		}
	}
	for id, mb := range h.mailboxes {
		if mb.canDelete() {
			delete(h.mailboxes, id)
			if h.metrics != nil {
				h.metrics.MailboxesClosed.Inc()
			}
		}
	}
}
