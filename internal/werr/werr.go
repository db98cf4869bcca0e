// Package werr implements the error taxonomy shared by every SecureBeam
// component: the mailbox server, the transit relay, and the peer session
// engine all report failures using the same small set of kinds so callers
// can branch on errors.Is/errors.As instead of parsing strings.
package werr

import "errors"

// Kind classifies an Error into one of the taxonomy's buckets.
type Kind int

const (
	// Connection covers TCP/WebSocket connect, read, write failures and
	// dial/handshake timeouts.
	Connection Kind = iota
	// Protocol covers malformed JSON, wrong message for the current state,
	// bad handshake strings, and oversized frames.
	Protocol
	// Crypto covers PAKE verification, SecretBox open, and HKDF failures.
	Crypto
	// Transfer covers size limits, size mismatches, hash mismatches, and
	// compression/archive failures.
	Transfer
	// Io covers filesystem errors: read, write, metadata, mkdir, canonicalize.
	Io
)

func (k Kind) String() string {
	switch k {
	case Connection:
		return "connection"
	case Protocol:
		return "protocol"
	case Crypto:
		return "crypto"
	case Transfer:
		return "transfer"
	case Io:
		return "io"
	default:
		return "unknown"
	}
}

// Error is a Kind-tagged error that wraps an underlying cause while keeping
// a generic, caller-safe message for anything that might cross a peer
// boundary. Detailed strings stay in Err and are logged, never echoed to a
// remote peer.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error of the given kind with a static message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap builds an Error of the given kind around an existing error.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Is reports whether err, or any error it wraps, is an *Error of the given
// kind, so callers can write werr.Is(err, werr.Crypto) instead of
// unwrapping with errors.As and comparing Kind fields themselves.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Named session errors. These are sentinels rather than Kind-tagged
// because callers need to match them exactly with errors.Is, independent
// of any wrapping message.
var (
	// ErrSessionNotFound is returned when a nameplate or mailbox referenced
	// by id does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired is returned when a nameplate or mailbox's TTL has
	// elapsed.
	ErrSessionExpired = errors.New("session expired")
	// ErrPeerDisconnected is returned when the remote side closes its
	// connection mid-session.
	ErrPeerDisconnected = errors.New("peer disconnected")
	// ErrWrongCode is returned when PAKE completes but the derived keys do
	// not match, surfaced at the point the mismatch is detected (the first
	// SecretBox frame that fails to open).
	ErrWrongCode = errors.New("authentication failed")
)
