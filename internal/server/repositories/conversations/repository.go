// Package conversations persists conversation rows together with their
// denormalized last-message preview.
package conversations

import (
	"context"

	"github.com/dmitrijs2005/gophchat/internal/models"
)

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	Title    *string
	FolderID *string
}

type Repository interface {
	Create(ctx context.Context, c *models.Conversation) error
	Get(ctx context.Context, userID, id string) (*models.Conversation, error)
	// List returns the user's conversations newest first. An empty folderID
	// lists all folders.
	List(ctx context.Context, userID, folderID string) ([]models.Conversation, error)
	Update(ctx context.Context, userID, id string, p Patch) (*models.Conversation, error)
	// Touch records the latest message and bumps updated_at to its time.
	Touch(ctx context.Context, userID, id string, preview models.MessagePreview) (*models.Conversation, error)
	Delete(ctx context.Context, userID, id string) error
	IDsByFolder(ctx context.Context, userID, folderID string) ([]string, error)
}
