package domain

import "time"

// User models a registered account. PasswordHash never leaves the process.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the authenticated subject resolved from a bearer token.
type Identity struct {
	UserID int64
	Email  string
}

// Identity returns the token subject for u.
func (u *User) Identity() Identity {
	return Identity{UserID: u.ID, Email: u.Email}
}
