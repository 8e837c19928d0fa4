package models

import (
	"sort"
	"time"
)

// MessagePreview is the denormalized copy of a conversation's latest message.
type MessagePreview struct {
	Content   string    `json:"content"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type Conversation struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	FolderID    string          `json:"folder_id"`
	Title       string          `json:"title"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	LastMessage *MessagePreview `json:"last_message,omitempty"`
}

// Timestamp is the instant used for grouping and ordering: the last update,
// or the creation time for conversations never updated.
func (c Conversation) Timestamp() time.Time {
	if c.UpdatedAt.IsZero() {
		return c.CreatedAt
	}
	return c.UpdatedAt
}

// SortConversations orders newest first; ties are broken by id so the order
// is stable across refetches.
func SortConversations(convs []Conversation) {
	sort.SliceStable(convs, func(i, j int) bool {
		ti, tj := convs[i].Timestamp(), convs[j].Timestamp()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return convs[i].ID < convs[j].ID
	})
}
