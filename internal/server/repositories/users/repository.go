// Package users declares the storage contract for user accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophchat/internal/server/models"
)

type Repository interface {
	// Create inserts the user and fills in ID and CreatedAt.
	// A duplicate email yields common.ErrAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// UpdateCredentials replaces salt and verifier after a password reset.
	UpdateCredentials(ctx context.Context, id string, salt, verifier []byte) error
}
