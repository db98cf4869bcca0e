package transfer

import (
	"crypto/sha256"
	"encoding/hex"

	"securebeam.eu/securebeam/internal/crypto"
)

// ComputeHash returns the hex-encoded SHA-256 of data, used as the
// pre-compression integrity hash carried in a FileMetadata offer.
func ComputeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// VerifyHash reports whether data's SHA-256 matches the hex-encoded
// expected hash, using a constant-time comparison of the digest bytes.
func VerifyHash(data []byte, expectedHex string) bool {
	expected, err := hex.DecodeString(expectedHex)
	if err != nil {
		return false
	}
	sum := sha256.Sum256(data)
	return crypto.Equal(sum[:], expected)
}
