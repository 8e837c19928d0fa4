// Package resettokens stores single-use password reset tokens by hash.
package resettokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, userID string, tokenHash string, validity time.Duration) error
	Find(ctx context.Context, tokenHash string) (*models.ResetToken, error)
	Delete(ctx context.Context, tokenHash string) error
	// DeleteByUser drops outstanding tokens, e.g. before issuing a new one.
	DeleteByUser(ctx context.Context, userID string) error
}
