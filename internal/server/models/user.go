// Package models defines server-side records that never leave the server
// as is: users with their credentials and the opaque tokens issued to them.
package models

import (
	"time"

	shared "github.com/dmitrijs2005/gophchat/internal/models"
)

type User struct {
	ID          string
	Email       string
	DisplayName string
	Salt        []byte
	Verifier    []byte
	CreatedAt   time.Time
}

// Public strips credentials.
func (u *User) Public() shared.User {
	return shared.User{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName, CreatedAt: u.CreatedAt}
}
