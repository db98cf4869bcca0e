package crypto

import "crypto/subtle"

// Equal does a constant-time comparison of two byte slices, used for
// verifier and hash comparisons so that timing does not leak how many
// leading bytes matched.
func Equal(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
