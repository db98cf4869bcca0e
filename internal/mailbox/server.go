package mailbox

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"nhooyr.io/websocket"
)

// clientState is a client connection's position in the per-client state
// machine: Unbound -> Bound -> (Allocated|Claimed) -> MailboxOpen -> Closed.
type clientState int

const (
	stateUnbound clientState = iota
	stateBound
	stateHasMailbox
	stateMailboxOpen
	stateClosed
)

// Server is the mailbox rendezvous HTTP/WebSocket handler.
type Server struct {
	hub      *Hub
	registry *registry
	metrics  *Metrics
}

// NewServer creates a Server backed by a fresh Hub with the given session
// TTL.
func NewServer(ttl time.Duration, metrics *Metrics) *Server {
	return &Server{
		hub:      NewHub(ttl, metrics),
		registry: newRegistry(),
		metrics:  metrics,
	}
}

// Sweep runs one expiry pass over the underlying hub. Call this
// periodically (e.g. every ExpirySweepInterval) from a background
// goroutine.
func (s *Server) Sweep() { s.hub.Sweep() }

// ServeHTTP upgrades the request to a WebSocket and runs the per-client
// protocol state machine until the connection closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// There is no user state to protect against CSRF here: every
		// session is ephemeral and keyed by a one-time code.
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Println("mailbox: accept:", err)
		return
	}
	if s.metrics != nil {
		s.metrics.ClientsConnected.Inc()
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	c := &clientConn{
		server: s,
		ws:     conn,
		state:  stateUnbound,
		out:    make(chan serverMessage, 16),
	}
	c.run(r.Context())
}

// clientConn holds one WebSocket connection's state-machine position and
// bookkeeping. It is not shared between goroutines except via the out
// channel.
type clientConn struct {
	server *Server
	ws     *websocket.Conn
	out    chan serverMessage

	state     clientState
	appid     string
	side      string
	nameplate string
	mailboxID string
}

func (c *clientConn) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writeLoop(ctx)

	c.send(welcomeMessage())

	for {
		_, data, err := c.ws.Read(ctx)
		if err != nil {
			c.cleanup()
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.send(errorMessage("invalid json", ""))
			c.recordError()
			continue
		}
		if !c.handle(msg) {
			c.cleanup()
			return
		}
	}
}

func (c *clientConn) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.out:
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			if err := c.ws.Write(ctx, websocket.MessageText, data); err != nil {
				return
			}
		}
	}
}

func (c *clientConn) send(msg serverMessage) {
	select {
	case c.out <- msg:
	default:
	}
}

func (c *clientConn) recordError() {
	if c.server.metrics != nil {
		c.server.metrics.Errors.Inc()
	}
}

// handle dispatches one client message and returns false if the
// connection should be torn down (none of the protocol messages currently
// require this, but a transport-level close does).
func (c *clientConn) handle(msg clientMessage) bool {
	switch msg.Type {
	case "bind":
		c.appid = msg.Appid
		c.side = msg.Side
		c.state = stateBound
		c.send(ackMessage())

	case "list":
		if c.state < stateBound {
			c.send(errorMessage("bind before list", msg.Type))
			c.recordError()
			return true
		}
		c.send(serverMessage{Type: "nameplates", Nameplates: []string{}})

	case "allocate":
		if c.state < stateBound {
			c.send(errorMessage("bind before allocate", msg.Type))
			c.recordError()
			return true
		}
		id, err := c.server.hub.Allocate(c.appid)
		if err != nil {
			c.send(errorMessage(err.Error(), msg.Type))
			c.recordError()
			return true
		}
		c.nameplate = id
		c.send(allocatedMessage(id))

	case "claim":
		if c.state < stateBound {
			c.send(errorMessage("bind before claim", msg.Type))
			c.recordError()
			return true
		}
		mailboxID, err := c.server.hub.Claim(msg.Nameplate, c.appid, c.side)
		if err != nil {
			c.send(errorMessage(err.Error(), msg.Type))
			c.recordError()
			return true
		}
		c.nameplate = msg.Nameplate
		c.mailboxID = mailboxID
		c.state = stateHasMailbox
		c.send(claimedMessage(mailboxID))

	case "release":
		if c.nameplate != "" {
			c.server.hub.Release(c.nameplate, c.side)
			c.nameplate = ""
		}
		c.send(releasedMessage())

	case "open":
		if c.state < stateBound {
			c.send(errorMessage("bind before open", msg.Type))
			c.recordError()
			return true
		}
		mailboxID := msg.Mailbox
		if mailboxID == "" {
			mailboxID = c.mailboxID
		}
		replay, err := c.server.hub.Open(mailboxID, c.side)
		if err != nil {
			c.send(errorMessage(err.Error(), msg.Type))
			c.recordError()
			return true
		}
		c.mailboxID = mailboxID
		c.state = stateMailboxOpen
		c.server.registry.register(c.mailboxID, c.side, c.out)
		for _, m := range replay {
			c.send(messageMessage(m))
		}

	case "add":
		if c.state != stateMailboxOpen {
			c.send(errorMessage("open before add", msg.Type))
			c.recordError()
			return true
		}
		added, peers, err := c.server.hub.Add(c.mailboxID, c.side, msg.Phase, msg.Body)
		if err != nil {
			c.send(errorMessage(err.Error(), msg.Type))
			c.recordError()
			return true
		}
		for _, peer := range peers {
			c.server.registry.deliver(c.mailboxID, peer, messageMessage(added))
		}
		c.send(ackMessage())

	case "close":
		mailboxID := msg.Mailbox
		if mailboxID == "" {
			mailboxID = c.mailboxID
		}
		if mailboxID != "" {
			c.server.registry.unregister(mailboxID, c.side)
			c.server.hub.CloseMailbox(mailboxID, c.side)
		}
		if c.nameplate != "" {
			c.server.hub.Release(c.nameplate, c.side)
		}
		c.state = stateClosed
		c.send(closedMessage())

	case "ping":
		c.send(pongMessage(msg.N))

	default:
		c.send(errorMessage("unknown message type", msg.Type))
		c.recordError()
	}
	return true
}

// cleanup runs when the underlying WebSocket drops, releasing whatever
// nameplate/mailbox claim this side still held.
func (c *clientConn) cleanup() {
	if c.mailboxID != "" {
		c.server.registry.unregister(c.mailboxID, c.side)
		c.server.hub.CloseMailbox(c.mailboxID, c.side)
	}
	if c.nameplate != "" {
		c.server.hub.Release(c.nameplate, c.side)
	}
}
