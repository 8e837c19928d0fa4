package models

import "time"

// RefreshToken is stored by the sha256 hash of the token handed to the client.
type RefreshToken struct {
	UserID    string
	TokenHash string
	Expires   time.Time
	CreatedAt time.Time
}

// ResetToken authorizes one password reset. Like refresh tokens, only the
// hash is stored.
type ResetToken struct {
	UserID    string
	TokenHash string
	Expires   time.Time
	CreatedAt time.Time
}
