// Package crypto implements the cryptographic core of a SecureBeam
// session: password-authenticated key exchange, the HKDF-SHA256 key
// schedule, and SecretBox authenticated encryption.
//
// The PAKE here is specified elsewhere as "SPAKE2 on Ed25519". No verified
// Go implementation of SPAKE2-on-Ed25519 exists in this codebase's
// dependency set; filippo.io/cpace (a balanced PAKE on ristretto255) fills
// the same architectural role — a password goes in, a 32-byte shared
// secret comes out, identically on both sides iff the passwords match. See
// DESIGN.md for the substitution rationale.
package crypto

import (
	"fmt"

	"filippo.io/cpace"
)

// PakeState is the state of a Pake exchange, mirroring the source design's
// discriminated union: Ready -> WaitingForPeer -> Completed | Failed.
type PakeState int

const (
	PakeReady PakeState = iota
	PakeWaitingForPeer
	PakeCompleted
	PakeFailed
)

// Pake drives one side of a symmetric password-authenticated key exchange.
// Both the initiator and the responder use the identical Start/Finish
// shape; there is no distinguished "server" role.
type Pake struct {
	state  PakeState
	finish func(peerMsg []byte) ([]byte, error)
	pass   string
}

// NewPake creates a Pake ready to Start with the given password. The
// password is the full wormhole code (nameplate and all) — see
// WormholeCode in SPEC_FULL.md.
func NewPake(password string) *Pake {
	return &Pake{state: PakeReady, pass: password}
}

// Start produces this side's public message. It may only be called once,
// from the Ready state.
func (p *Pake) Start() ([]byte, error) {
	if p.state != PakeReady {
		return nil, fmt.Errorf("pake: start called in state %d, want Ready", p.state)
	}
	msg, session, err := cpace.Start(p.pass, cpace.NewContextInfo("", "", nil))
	if err != nil {
		p.state = PakeFailed
		return nil, err
	}
	p.finish = session.Finish
	p.state = PakeWaitingForPeer
	return msg, nil
}

// Finish consumes the peer's public message and returns the shared
// secret. It may only be called once, after Start, from the
// WaitingForPeer state.
//
// A wrong password does not make Finish fail: it returns a 32-byte key
// that simply does not match the peer's. The mismatch is only observable
// later, when the first SecretBox frame keyed by a derived key fails to
// open — this is the intended failure channel (see werr.ErrWrongCode).
func (p *Pake) Finish(peerMsg []byte) ([]byte, error) {
	if p.state != PakeWaitingForPeer {
		return nil, fmt.Errorf("pake: finish called in state %d, want WaitingForPeer", p.state)
	}
	key, err := p.finish(peerMsg)
	if err != nil {
		p.state = PakeFailed
		return nil, err
	}
	p.state = PakeCompleted
	return key, nil
}

// Exchange is the symmetric one-shot form used by a side that already has
// the peer's message in hand (e.g. a receiver that received the sender's
// pake phase message on mailbox open before sending its own). It combines
// Start and Finish into a single round: it still produces its own public
// message but also finishes immediately against peerMsg.
func Exchange(password string, peerMsg []byte) (ourMsg, key []byte, err error) {
	ourMsg, key, err = cpace.Exchange(password, cpace.NewContextInfo("", "", nil), peerMsg)
	return ourMsg, key, err
}

// State reports the current PakeState, mostly useful for tests asserting
// the state machine never allows an operation out of order.
func (p *Pake) State() PakeState { return p.state }
