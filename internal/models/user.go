package models

import "time"

// User represents a user account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID   int64
	Username string
}

// Identity returns the identity record for u.
func (u *User) Identity() Identity {
	return Identity{UserID: u.ID, Username: u.Username}
}

// Owns reports whether the identity owns the transaction.
func (i Identity) Owns(t *Transaction) bool {
	return t != nil && i.UserID != 0 && t.UserID == i.UserID
}

// Session represents a user session.
type Session struct {
	Token        string    `json:"token"`
	UserID       int64     `json:"user_id"`
	ExpiresAt    time.Time `json:"expires_at"`
	LastActivity time.Time `json:"last_activity"`
}
