package models

import "time"

// RefreshToken is a persisted refresh token record. Revoked only ever goes
// from false to true; records are never deleted.
type RefreshToken struct {
	ID        int64
	Token     string
	UserID    int64
	Username  string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}

// IsValid reports whether the token can still be exchanged at now.
func (t *RefreshToken) IsValid(now time.Time) bool {
	return !t.Revoked && t.ExpiresAt.UTC().After(now.UTC())
}
