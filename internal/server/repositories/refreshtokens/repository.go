// Package refreshtokens stores the refresh tokens issued at login. Tokens
// are keyed by their sha256 hash; the raw value only exists on the client.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/server/models"
)

type Repository interface {
	// Create stores tokenHash for userID, valid until now+validity.
	Create(ctx context.Context, userID string, tokenHash string, validity time.Duration) error

	// Find returns common.ErrNotFound when the token is unknown.
	Find(ctx context.Context, tokenHash string) (*models.RefreshToken, error)

	// Delete is a no-op for unknown tokens.
	Delete(ctx context.Context, tokenHash string) error

	// DeleteByUser revokes every session of a user.
	DeleteByUser(ctx context.Context, userID string) error
}
