package wormhole

import (
	"context"
	"encoding/hex"
	"encoding/json"

	"nhooyr.io/websocket"

	"securebeam.eu/securebeam/internal/werr"
)

// clientMsg is the wire shape of a client-to-server mailbox message, §4.4.
type clientMsg struct {
	Type      string `json:"type"`
	Appid     string `json:"appid,omitempty"`
	Side      string `json:"side,omitempty"`
	Nameplate string `json:"nameplate,omitempty"`
	Mailbox   string `json:"mailbox,omitempty"`
	Phase     string `json:"phase,omitempty"`
	Body      string `json:"body,omitempty"`
	Mood      string `json:"mood,omitempty"`
	N         int    `json:"n,omitempty"`
}

// serverMsg is the wire shape of a server-to-client mailbox message, §4.4.
type serverMsg struct {
	Type          string   `json:"type"`
	Motd          string   `json:"motd,omitempty"`
	ServerVersion string   `json:"server_version,omitempty"`
	Nameplates    []string `json:"nameplates,omitempty"`
	Nameplate     string   `json:"nameplate,omitempty"`
	Mailbox       string   `json:"mailbox,omitempty"`
	Side          string   `json:"side,omitempty"`
	Phase         string   `json:"phase,omitempty"`
	Body          string   `json:"body,omitempty"`
	ID            uint64   `json:"id,omitempty"`
	N             int      `json:"n,omitempty"`
	Error         string   `json:"error,omitempty"`
	Orig          string   `json:"orig,omitempty"`
}

// rendezvousClient is one side's connection to the mailbox server. Reading
// is done by a single background goroutine so synchronous command replies
// (ack, allocated, claimed, ...) and asynchronously broadcast phase
// messages can both be waited on without racing each other on the
// underlying WebSocket.
type rendezvousClient struct {
	ws *websocket.Conn

	appid string
	side  string

	replies chan serverMsg
	msgs    chan serverMsg
	readErr chan error
}

func dialRendezvous(ctx context.Context, mailboxURL, appid, side string) (*rendezvousClient, error) {
	ws, _, err := websocket.Dial(ctx, mailboxURL, nil)
	if err != nil {
		return nil, werr.Wrap(werr.Connection, "could not dial mailbox server", err)
	}
	c := &rendezvousClient{
		ws:      ws,
		appid:   appid,
		side:    side,
		replies: make(chan serverMsg, 1),
		msgs:    make(chan serverMsg, 16),
		readErr: make(chan error, 1),
	}
	go c.readLoop()

	welcome, err := c.waitReply(ctx)
	if err != nil {
		return nil, err
	}
	if welcome.Type != "welcome" {
		return nil, werr.New(werr.Protocol, "mailbox server did not send a welcome message")
	}
	return c, nil
}

func (c *rendezvousClient) readLoop() {
	for {
		_, data, err := c.ws.Read(context.Background())
		if err != nil {
			c.readErr <- err
			close(c.replies)
			close(c.msgs)
			return
		}
		var m serverMsg
		if err := json.Unmarshal(data, &m); err != nil {
			continue
		}
		if m.Type == "message" {
			c.msgs <- m
			continue
		}
		c.replies <- m
	}
}

func (c *rendezvousClient) waitReply(ctx context.Context) (serverMsg, error) {
	select {
	case m, ok := <-c.replies:
		if !ok {
			return serverMsg{}, werr.Wrap(werr.Connection, "mailbox connection closed", <-c.readErr)
		}
		if m.Type == "error" {
			return serverMsg{}, werr.New(werr.Protocol, "mailbox error: "+m.Error)
		}
		return m, nil
	case err := <-c.readErr:
		return serverMsg{}, werr.Wrap(werr.Connection, "mailbox read failed", err)
	case <-ctx.Done():
		return serverMsg{}, ctx.Err()
	}
}

// waitMessage blocks for the next broadcast or replayed phase message.
func (c *rendezvousClient) waitMessage(ctx context.Context) (serverMsg, error) {
	select {
	case m, ok := <-c.msgs:
		if !ok {
			return serverMsg{}, werr.Wrap(werr.Connection, "mailbox connection closed", <-c.readErr)
		}
		return m, nil
	case err := <-c.readErr:
		return serverMsg{}, werr.Wrap(werr.Connection, "mailbox read failed", err)
	case <-ctx.Done():
		return serverMsg{}, ctx.Err()
	}
}

func (c *rendezvousClient) send(ctx context.Context, m clientMsg) error {
	data, err := json.Marshal(m)
	if err != nil {
		return werr.Wrap(werr.Protocol, "could not marshal mailbox message", err)
	}
	if err := c.ws.Write(ctx, websocket.MessageText, data); err != nil {
		return werr.Wrap(werr.Connection, "could not write to mailbox", err)
	}
	return nil
}

func (c *rendezvousClient) bind(ctx context.Context) error {
	if err := c.send(ctx, clientMsg{Type: "bind", Appid: c.appid, Side: c.side}); err != nil {
		return err
	}
	_, err := c.waitReply(ctx)
	return err
}

func (c *rendezvousClient) allocate(ctx context.Context) (string, error) {
	if err := c.send(ctx, clientMsg{Type: "allocate"}); err != nil {
		return "", err
	}
	reply, err := c.waitReply(ctx)
	if err != nil {
		return "", err
	}
	return reply.Nameplate, nil
}

func (c *rendezvousClient) claim(ctx context.Context, nameplate string) (string, error) {
	if err := c.send(ctx, clientMsg{Type: "claim", Nameplate: nameplate}); err != nil {
		return "", err
	}
	reply, err := c.waitReply(ctx)
	if err != nil {
		return "", err
	}
	return reply.Mailbox, nil
}

// open admits this side to mailboxID. The server does not acknowledge
// open directly (see internal/mailbox's handler): any reply is a replayed
// phase message, which the caller collects via waitMessage.
func (c *rendezvousClient) open(ctx context.Context, mailboxID string) error {
	return c.send(ctx, clientMsg{Type: "open", Mailbox: mailboxID})
}

// addPhase appends a phase message with a hex-encoded body and waits for
// the server's ack.
func (c *rendezvousClient) addPhase(ctx context.Context, phase string, body []byte) error {
	if err := c.send(ctx, clientMsg{Type: "add", Phase: phase, Body: hex.EncodeToString(body)}); err != nil {
		return err
	}
	_, err := c.waitReply(ctx)
	return err
}

// waitPhase blocks until a message for phase from a side other than our
// own arrives, either replayed on open or broadcast on the peer's add.
func (c *rendezvousClient) waitPhase(ctx context.Context, phase string) ([]byte, error) {
	for {
		m, err := c.waitMessage(ctx)
		if err != nil {
			return nil, err
		}
		if m.Phase != phase {
			continue
		}
		body, err := hex.DecodeString(m.Body)
		if err != nil {
			return nil, werr.Wrap(werr.Protocol, "malformed phase message body", err)
		}
		return body, nil
	}
}

func (c *rendezvousClient) closeMailbox(ctx context.Context, mailboxID string) error {
	if err := c.send(ctx, clientMsg{Type: "close", Mailbox: mailboxID}); err != nil {
		return err
	}
	_, err := c.waitReply(ctx)
	return err
}

func (c *rendezvousClient) disconnect() error {
	return c.ws.Close(websocket.StatusNormalClosure, "done")
}
