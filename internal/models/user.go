package models

import "time"

// User captures application-facing fields for an authenticated identity.
// PasswordHash is never serialized and is only populated by explicit
// with-hash store lookups.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// WithoutHash returns a copy safe to hand back from default reads.
func (u User) WithoutHash() User {
	u.PasswordHash = ""
	return u
}
