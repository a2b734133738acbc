package common

import (
	"crypto/rand"
	"encoding/base64"
)

// MakeRandURLString returns size random bytes encoded as unpadded URL-safe
// base64. 32 bytes give a 43-character token.
func MakeRandURLString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// WipeByteArray zeroes b in place. Nil is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
