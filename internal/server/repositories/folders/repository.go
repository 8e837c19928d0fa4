// Package folders persists the per-user folder list.
package folders

import (
	"context"

	"github.com/dmitrijs2005/gophchat/internal/models"
)

type Repository interface {
	// Create inserts f, generating an id when f.ID is empty.
	Create(ctx context.Context, f *models.Folder) error
	// Get returns common.ErrNotFound for folders of other users.
	Get(ctx context.Context, userID, id string) (*models.Folder, error)
	List(ctx context.Context, userID string) ([]models.Folder, error)
	GetDefault(ctx context.Context, userID string) (*models.Folder, error)
	Rename(ctx context.Context, userID, id, name string) (*models.Folder, error)
	Delete(ctx context.Context, userID, id string) error
}
