// Package models holds the records persisted by the server repositories.
package models

import "time"

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Nickname     *string
	Email        *string
	AvatarURL    *string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProfileUpdate lists the fields a user may change about themselves. Nil
// fields are left untouched.
type ProfileUpdate struct {
	Nickname  *string
	Email     *string
	AvatarURL *string
}

// IsEmpty reports whether the update changes nothing.
func (p ProfileUpdate) IsEmpty() bool {
	return p.Nickname == nil && p.Email == nil && p.AvatarURL == nil
}
