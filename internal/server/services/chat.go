package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/dbx"
	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/models"
	"github.com/dmitrijs2005/gophchat/internal/server/assistant"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/repomanager"
)

// ChatService owns folders, conversations and messages. Every call is
// scoped by the authenticated user id; rows of other users are reported as
// common.ErrNotFound.
type ChatService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	files       *FileService
	responder   assistant.Responder
	logger      logging.Logger
}

func NewChatService(db *sql.DB, m repomanager.RepositoryManager, files *FileService, responder assistant.Responder, logger logging.Logger) *ChatService {
	return &ChatService{
		db:          db,
		repomanager: m,
		files:       files,
		responder:   responder,
		logger:      logger,
	}
}

func folderName(name string) string {
	if common.IsBlank(name) {
		return common.UntitledFolderName
	}
	return strings.TrimSpace(name)
}

func (s *ChatService) ListFolders(ctx context.Context, userID string) ([]models.Folder, error) {
	folders, err := s.repomanager.Folders(s.db).List(ctx, userID)
	if err != nil {
		return nil, err
	}
	models.SortFolders(folders)
	return folders, nil
}

func (s *ChatService) CreateFolder(ctx context.Context, userID, name string) (*models.Folder, error) {
	f := &models.Folder{UserID: userID, Name: folderName(name), Kind: models.FolderKindUser}
	if err := s.repomanager.Folders(s.db).Create(ctx, f); err != nil {
		return nil, fmt.Errorf("error creating folder: %w", err)
	}
	return f, nil
}

func (s *ChatService) RenameFolder(ctx context.Context, userID, folderID, name string) (*models.Folder, error) {
	return s.repomanager.Folders(s.db).Rename(ctx, userID, folderID, folderName(name))
}

// DeleteFolder removes the folder with all its conversations, messages and
// attachment rows in one transaction, then deletes the stored files. The
// default folder cannot be deleted.
func (s *ChatService) DeleteFolder(ctx context.Context, userID, folderID string) ([]string, error) {
	f, err := s.repomanager.Folders(s.db).Get(ctx, userID, folderID)
	if err != nil {
		return nil, err
	}
	if f.IsDefault() {
		return nil, fmt.Errorf("%w: the default folder cannot be deleted", common.ErrValidation)
	}

	var paths, convIDs []string
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if paths, err = s.repomanager.Attachments(tx).StoragePathsByFolder(ctx, userID, folderID); err != nil {
			return err
		}
		if convIDs, err = s.repomanager.Conversations(tx).IDsByFolder(ctx, userID, folderID); err != nil {
			return err
		}
		return s.repomanager.Folders(tx).Delete(ctx, userID, folderID)
	})
	if err != nil {
		return nil, fmt.Errorf("error deleting folder: %w", err)
	}

	if err := s.files.RemoveObjects(ctx, paths); err != nil {
		s.logger.Warn(ctx, "stored files left behind", "folder_id", folderID, "error", err)
	}
	s.logger.Info(ctx, "folder deleted", "folder_id", folderID, "conversations", len(convIDs), "files", len(paths))
	if convIDs == nil {
		convIDs = []string{}
	}
	return convIDs, nil
}

// resolveFolder returns the folder new conversations go to: the given one,
// or the user's default folder when folderID is empty.
func (s *ChatService) resolveFolder(ctx context.Context, userID, folderID string) (*models.Folder, error) {
	repo := s.repomanager.Folders(s.db)
	if folderID == "" {
		f, err := repo.GetDefault(ctx, userID)
		if errors.Is(err, common.ErrNotFound) {
			return s.ensureDefaultFolder(ctx, userID)
		}
		return f, err
	}
	return repo.Get(ctx, userID, folderID)
}

// ensureDefaultFolder recreates a missing default folder. A concurrent
// create losing the unique index race falls back to reading the winner.
func (s *ChatService) ensureDefaultFolder(ctx context.Context, userID string) (*models.Folder, error) {
	repo := s.repomanager.Folders(s.db)
	f := &models.Folder{UserID: userID, Name: common.DefaultFolderName, Kind: models.FolderKindDefault}
	err := repo.Create(ctx, f)
	if errors.Is(err, common.ErrAlreadyExists) {
		return repo.GetDefault(ctx, userID)
	}
	if err != nil {
		return nil, err
	}
	s.logger.Warn(ctx, "default folder was missing, recreated", "user_id", userID)
	return f, nil
}
