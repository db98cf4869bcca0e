package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"io"

	"golang.org/x/crypto/hkdf"
)

// KeySize is the length in bytes of every derived key this package
// produces: shared secrets, transit keys, and verifiers are all 32 bytes.
const KeySize = 32

// Purpose names the context a derived key is for. Two keys derived from
// the same shared secret but different purposes are independent.
type Purpose struct {
	kind  purposeKind
	side  string
	phase string
}

type purposeKind int

const (
	purposeVerifier purposeKind = iota
	purposePhase
	purposeTransit
)

// VerifierPurpose derives the out-of-band MITM-detection verifier.
var VerifierPurpose = Purpose{kind: purposeVerifier}

// TransitPurpose derives the transit channel's encryption key.
var TransitPurpose = Purpose{kind: purposeTransit}

// PhasePurpose derives the key for a single mailbox phase message, tied to
// the sending side's id and the phase name so that a recorded message from
// one phase can never be replayed as another.
func PhasePurpose(side, phase string) Purpose {
	return Purpose{kind: purposePhase, side: side, phase: phase}
}

// info returns the HKDF info string for this purpose, matching the wire
// format of the source design exactly:
//
//	Verifier -> "wormhole:verifier"
//	Transit  -> "transit:key"
//	Phase    -> "wormhole:phase:" + hex(sha256(side)) + ":" + hex(sha256(phase))
func (p Purpose) info() []byte {
	switch p.kind {
	case purposeVerifier:
		return []byte("wormhole:verifier")
	case purposeTransit:
		return []byte("transit:key")
	case purposePhase:
		sideHash := sha256.Sum256([]byte(p.side))
		phaseHash := sha256.Sum256([]byte(p.phase))
		s := "wormhole:phase:" + hex.EncodeToString(sideHash[:]) + ":" + hex.EncodeToString(phaseHash[:])
		return []byte(s)
	default:
		panic("crypto: unknown purpose kind")
	}
}

// DeriveKey expands sharedKey into length bytes of key material scoped to
// purpose via HKDF-SHA256 with no salt. Same (sharedKey, purpose, length)
// always yields the same output.
func DeriveKey(sharedKey []byte, purpose Purpose, length int) ([]byte, error) {
	info := purpose.info()
	out := make([]byte, length)
	r := hkdf.New(sha256.New, sharedKey, nil, info)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	// The info buffer may encode context (side/phase hashes); it carries no
	// secret material but we zero it anyway to match the source design's
	// discipline of not leaving derivation context lying around.
	zero(info)
	return out, nil
}

// DerivePhaseKey is DeriveKey specialized to a 32-byte phase key.
func DerivePhaseKey(sharedKey []byte, side, phase string) ([KeySize]byte, error) {
	var out [KeySize]byte
	key, err := DeriveKey(sharedKey, PhasePurpose(side, phase), KeySize)
	if err != nil {
		return out, err
	}
	copy(out[:], key)
	return out, nil
}

// DeriveTransitKey is DeriveKey specialized to the 32-byte transit key.
func DeriveTransitKey(sharedKey []byte) ([KeySize]byte, error) {
	var out [KeySize]byte
	key, err := DeriveKey(sharedKey, TransitPurpose, KeySize)
	if err != nil {
		return out, err
	}
	copy(out[:], key)
	return out, nil
}

// DeriveVerifier is DeriveKey specialized to the 32-byte MITM-detection
// verifier.
func DeriveVerifier(sharedKey []byte) ([KeySize]byte, error) {
	var out [KeySize]byte
	key, err := DeriveKey(sharedKey, VerifierPurpose, KeySize)
	if err != nil {
		return out, err
	}
	copy(out[:], key)
	return out, nil
}

// FormatVerifier renders a verifier as 4 groups of 8 hex chars
// (35 characters total) for display and out-of-band comparison.
func FormatVerifier(v [KeySize]byte) string {
	h := hex.EncodeToString(v[:16])
	return h[0:8] + "-" + h[8:16] + "-" + h[16:24] + "-" + h[24:32]
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
