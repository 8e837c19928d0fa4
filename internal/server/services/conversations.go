package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/dbx"
	"github.com/dmitrijs2005/gophchat/internal/models"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/conversations"
)

// ListConversations lists one folder, or all folders when folderID is empty.
func (s *ChatService) ListConversations(ctx context.Context, userID, folderID string) ([]models.Conversation, error) {
	if folderID != "" {
		if _, err := s.repomanager.Folders(s.db).Get(ctx, userID, folderID); err != nil {
			return nil, err
		}
	}
	convs, err := s.repomanager.Conversations(s.db).List(ctx, userID, folderID)
	if err != nil {
		return nil, err
	}
	models.SortConversations(convs)
	return convs, nil
}

func (s *ChatService) CreateConversation(ctx context.Context, userID, folderID, title string) (*models.Conversation, error) {
	f, err := s.resolveFolder(ctx, userID, folderID)
	if err != nil {
		return nil, err
	}
	if common.IsBlank(title) {
		title = common.NewChatTitle
	}
	c := &models.Conversation{UserID: userID, FolderID: f.ID, Title: strings.TrimSpace(title)}
	if err := s.repomanager.Conversations(s.db).Create(ctx, c); err != nil {
		return nil, fmt.Errorf("error creating conversation: %w", err)
	}
	return c, nil
}

// UpdateConversation merges a new title and/or folder into the conversation.
// A move is a single-row update, so the conversation is never in two
// folders or none.
func (s *ChatService) UpdateConversation(ctx context.Context, userID, conversationID string, title, folderID *string) (*models.Conversation, error) {
	var p conversations.Patch
	if title != nil {
		if common.IsBlank(*title) {
			return nil, fmt.Errorf("%w: title must not be empty", common.ErrValidation)
		}
		t := strings.TrimSpace(*title)
		p.Title = &t
	}
	if folderID != nil {
		if _, err := s.repomanager.Folders(s.db).Get(ctx, userID, *folderID); err != nil {
			return nil, err
		}
		p.FolderID = folderID
	}

	repo := s.repomanager.Conversations(s.db)
	if p.Title == nil && p.FolderID == nil {
		return repo.Get(ctx, userID, conversationID)
	}
	return repo.Update(ctx, userID, conversationID, p)
}

// DeleteConversation removes the conversation with its messages and
// attachments, then the stored files.
func (s *ChatService) DeleteConversation(ctx context.Context, userID, conversationID string) error {
	var paths []string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if paths, err = s.repomanager.Attachments(tx).StoragePathsByConversation(ctx, userID, conversationID); err != nil {
			return err
		}
		return s.repomanager.Conversations(tx).Delete(ctx, userID, conversationID)
	})
	if err != nil {
		return fmt.Errorf("error deleting conversation: %w", err)
	}
	if err := s.files.RemoveObjects(ctx, paths); err != nil {
		s.logger.Warn(ctx, "stored files left behind", "conversation_id", conversationID, "error", err)
	}
	return nil
}
