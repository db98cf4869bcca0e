package wormhole

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"securebeam.eu/securebeam/internal/werr"
	"securebeam.eu/securebeam/wordlist"
)

// DefaultAppID is the appid bound into every mailbox this package creates
// or claims.
const DefaultAppID = "securebeam.eu/file-transfer"

// passwordWords is the number of word-encoded random bytes appended to the
// nameplate to form a generated code, e.g. 2 words as in "42-aloe-aloft".
const passwordWords = 2

// NewSide generates a random opaque side identifier: 16 hex characters (8
// random bytes), unique enough that two peers in the same mailbox
// practically never collide.
func NewSide() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", werr.Wrap(werr.Crypto, "could not generate side id", err)
	}
	return hex.EncodeToString(b[:]), nil
}

// NameplateOf returns the first hyphen-separated part of a wormhole code,
// validating the minimum three-part syntax from §6: "at least three
// hyphen-separated parts".
func NameplateOf(code string) (string, error) {
	parts := strings.Split(code, "-")
	if len(parts) < 3 {
		return "", werr.New(werr.Protocol, "wormhole code must have at least 3 hyphen-separated parts")
	}
	return parts[0], nil
}

// GenerateCode builds a human-readable code for a nameplate the mailbox
// server has already allocated, appending random word-encoded password
// bytes. The full returned string, nameplate included, is the PAKE
// password both sides use.
func GenerateCode(nameplate string) (string, error) {
	pass := make([]byte, passwordWords)
	if _, err := rand.Read(pass); err != nil {
		return "", werr.Wrap(werr.Crypto, "could not generate code password", err)
	}
	return wordlist.EncodeNameplate(nameplate, pass), nil
}
