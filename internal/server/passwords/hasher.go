// Package passwords hashes and verifies user passwords. The password is
// first keyed with a server-side pepper (HMAC-SHA256), then hashed with
// bcrypt, which also keeps long passwords under bcrypt's 72-byte limit.
package passwords

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

type Hasher struct {
	pepper []byte
	cost   int
}

// NewHasher returns a Hasher. cost 0 means bcrypt.DefaultCost.
func NewHasher(pepper string, cost int) *Hasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{pepper: []byte(pepper), cost: cost}
}

func (h *Hasher) digest(password string) []byte {
	mac := hmac.New(sha256.New, h.pepper)
	mac.Write([]byte(password))
	sum := mac.Sum(nil)
	out := make([]byte, base64.RawStdEncoding.EncodedLen(len(sum)))
	base64.RawStdEncoding.Encode(out, sum)
	return out
}

func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("passwords: empty password")
	}
	hash, err := bcrypt.GenerateFromPassword(h.digest(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether password matches hash. Malformed hashes never
// match.
func (h *Hasher) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), h.digest(password)) == nil
}
