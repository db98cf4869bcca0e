package mailbox

// ServerVersion is reported in the welcome message so clients can detect
// an incompatible server.
const ServerVersion = "1"

// clientMessage is the union of every message shape a client may send,
// discriminated by Type. Only the fields relevant to Type are populated.
type clientMessage struct {
	Type      string `json:"type"`
	Appid     string `json:"appid,omitempty"`
	Side      string `json:"side,omitempty"`
	Nameplate string `json:"nameplate,omitempty"`
	Mailbox   string `json:"mailbox,omitempty"`
	Phase     string `json:"phase,omitempty"`
	Body      string `json:"body,omitempty"`
	Mood      string `json:"mood,omitempty"`
	N         int64  `json:"n,omitempty"`
}

// serverMessage is the union of every message shape the server may send.
type serverMessage struct {
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
	N             int64    `json:"n,omitempty"`
	Error         string   `json:"error,omitempty"`
	Orig          string   `json:"orig,omitempty"`
}

func welcomeMessage() serverMessage {
	return serverMessage{Type: "welcome", ServerVersion: ServerVersion}
}

func ackMessage() serverMessage { return serverMessage{Type: "ack"} }

func allocatedMessage(nameplate string) serverMessage {
	return serverMessage{Type: "allocated", Nameplate: nameplate}
}

func claimedMessage(mailbox string) serverMessage {
	return serverMessage{Type: "claimed", Mailbox: mailbox}
}

func releasedMessage() serverMessage { return serverMessage{Type: "released"} }

func closedMessage() serverMessage { return serverMessage{Type: "closed"} }

func pongMessage(n int64) serverMessage { return serverMessage{Type: "pong", N: n} }

func messageMessage(m Message) serverMessage {
	return serverMessage{Type: "message", Side: m.Side, Phase: m.Phase, Body: m.Body, ID: m.ID}
}

func errorMessage(reason, orig string) serverMessage {
	return serverMessage{Type: "error", Error: reason, Orig: orig}
}
