// Package messages persists conversation turns. Content is stored as a
// tagged JSON envelope so both plain and rich text round-trip.
package messages

import (
	"context"

	"github.com/dmitrijs2005/gophchat/internal/models"
)

type Repository interface {
	Create(ctx context.Context, userID string, m *models.Message) error
	Get(ctx context.Context, userID, id string) (*models.Message, error)
	// List returns the messages of a conversation oldest first, without
	// attachments.
	List(ctx context.Context, userID, conversationID string) ([]models.Message, error)
}
