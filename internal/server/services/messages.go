package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/dbx"
	"github.com/dmitrijs2005/gophchat/internal/models"
)

// AddedMessage is the result of storing a message: the message itself, the
// conversation with its refreshed preview, and upload tasks for its files.
type AddedMessage struct {
	Message      models.Message
	Conversation models.Conversation
	Uploads      []UploadTask
}

// ListMessages returns the messages of a conversation oldest first, with
// attachments and download URLs filled in.
func (s *ChatService) ListMessages(ctx context.Context, userID, conversationID string) ([]models.Message, error) {
	if _, err := s.repomanager.Conversations(s.db).Get(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	return s.history(ctx, userID, conversationID)
}

func (s *ChatService) history(ctx context.Context, userID, conversationID string) ([]models.Message, error) {
	msgs, err := s.repomanager.Messages(s.db).List(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	atts, err := s.repomanager.Attachments(s.db).ListByConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	s.files.withDownloadURLs(ctx, atts)

	byMessage := make(map[string][]models.Attachment, len(atts))
	for _, a := range atts {
		byMessage[a.MessageID] = append(byMessage[a.MessageID], a)
	}
	for i := range msgs {
		msgs[i].Attachments = byMessage[msgs[i].ID]
	}
	models.SortMessages(msgs)
	return msgs, nil
}

// AddMessage stores a message with its declared files and returns presigned
// upload URLs for them. Attachments stay pending until MarkUploaded.
func (s *ChatService) AddMessage(ctx context.Context, userID, conversationID string, role models.Role, content models.Content, files []FileSpec) (*AddedMessage, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", common.ErrValidation, role)
	}
	if content == nil {
		content = models.Text("")
	}
	if common.IsBlank(content.PlainText()) && len(files) == 0 {
		return nil, fmt.Errorf("%w: message is empty", common.ErrValidation)
	}

	conv, err := s.repomanager.Conversations(s.db).Get(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	out, err := s.storeMessage(ctx, userID, conv, role, content, files)
	if err != nil {
		return nil, err
	}
	s.logger.Debug(ctx, "message added", "conversation_id", conversationID, "role", role, "files", len(files))
	return out, nil
}

func (s *ChatService) storeMessage(ctx context.Context, userID string, conv *models.Conversation, role models.Role, content models.Content, files []FileSpec) (*AddedMessage, error) {
	return dbx.WithTxValue(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*AddedMessage, error) {
		msg := &models.Message{ConversationID: conv.ID, Role: role, Content: content}
		if err := s.repomanager.Messages(tx).Create(ctx, userID, msg); err != nil {
			return nil, fmt.Errorf("error creating message: %w", err)
		}

		names := uniqueFileNames(files)
		var uploads []UploadTask
		for i, f := range files {
			a := &models.Attachment{
				MessageID:   msg.ID,
				FileName:    names[i],
				ContentType: f.ContentType,
				Size:        f.Size,
				StoragePath: models.AttachmentPath(userID, conv.FolderID, conv.ID, msg.ID, names[i]),
				Status:      models.AttachmentPending,
			}
			if err := s.repomanager.Attachments(tx).Create(ctx, userID, a); err != nil {
				return nil, fmt.Errorf("error creating attachment: %w", err)
			}
			task, err := s.files.presignUpload(ctx, *a)
			if err != nil {
				return nil, fmt.Errorf("error presigning upload: %w", err)
			}
			msg.Attachments = append(msg.Attachments, *a)
			uploads = append(uploads, task)
		}

		updated, err := s.repomanager.Conversations(tx).Touch(ctx, userID, conv.ID, msg.Preview(common.PreviewLength))
		if err != nil {
			return nil, fmt.Errorf("error updating conversation: %w", err)
		}
		return &AddedMessage{Message: *msg, Conversation: *updated, Uploads: uploads}, nil
	})
}

// GenerateReply asks the assistant to answer the conversation and stores
// the answer as an assistant message.
func (s *ChatService) GenerateReply(ctx context.Context, userID, conversationID string) (*AddedMessage, error) {
	conv, err := s.repomanager.Conversations(s.db).Get(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	history, err := s.history(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	reply, err := s.responder.Reply(ctx, history)
	if err != nil {
		return nil, fmt.Errorf("error generating reply: %w", err)
	}

	return s.storeMessage(ctx, userID, conv, models.RoleAssistant, reply, nil)
}
