package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

type Message struct {
	ID             string       `json:"id"`
	ConversationID string       `json:"conversation_id"`
	Role           Role         `json:"role"`
	Content        Content      `json:"-"`
	CreatedAt      time.Time    `json:"created_at"`
	Attachments    []Attachment `json:"attachments,omitempty"`
}

type messageJSON struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversation_id"`
	Role           Role            `json:"role"`
	Content        ContentEnvelope `json:"content"`
	CreatedAt      time.Time       `json:"created_at"`
	Attachments    []Attachment    `json:"attachments,omitempty"`
}

func (m Message) MarshalJSON() ([]byte, error) {
	env, err := Wrap(m.Content)
	if err != nil {
		return nil, err
	}
	return json.Marshal(messageJSON{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Role:           m.Role,
		Content:        env,
		CreatedAt:      m.CreatedAt,
		Attachments:    m.Attachments,
	})
}

func (m *Message) UnmarshalJSON(b []byte) error {
	var raw messageJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	content, err := raw.Content.Unwrap()
	if err != nil {
		return fmt.Errorf("message %s: %w", raw.ID, err)
	}
	*m = Message{
		ID:             raw.ID,
		ConversationID: raw.ConversationID,
		Role:           raw.Role,
		Content:        content,
		CreatedAt:      raw.CreatedAt,
		Attachments:    raw.Attachments,
	}
	return nil
}

// Preview builds the denormalized preview stored on the conversation.
func (m Message) Preview(limit int) MessagePreview {
	text := ""
	if m.Content != nil {
		text = m.Content.PlainText()
	}
	r := []rune(text)
	if len(r) > limit {
		text = string(r[:limit])
	}
	return MessagePreview{Content: text, Role: m.Role, CreatedAt: m.CreatedAt}
}

// SortMessages orders messages oldest first, ties broken by id.
func SortMessages(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if !msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
		}
		return msgs[i].ID < msgs[j].ID
	})
}
