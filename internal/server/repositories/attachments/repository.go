// Package attachments persists file references of messages. The files
// themselves live in object storage under StoragePath.
package attachments

import (
	"context"

	"github.com/dmitrijs2005/gophchat/internal/models"
)

type Repository interface {
	Create(ctx context.Context, userID string, a *models.Attachment) error
	Get(ctx context.Context, userID, id string) (*models.Attachment, error)
	ListByConversation(ctx context.Context, userID, conversationID string) ([]models.Attachment, error)
	// MarkUploaded flips a pending attachment to uploaded.
	MarkUploaded(ctx context.Context, userID, id string) (*models.Attachment, error)
	StoragePathsByConversation(ctx context.Context, userID, conversationID string) ([]string, error)
	StoragePathsByFolder(ctx context.Context, userID, folderID string) ([]string, error)
}
