package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/models"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophchat/internal/server/storage"
)

// FileSpec declares a file the client is about to upload with a message.
type FileSpec struct {
	FileName    string
	ContentType string
	Size        int64
}

// UploadTask is a presigned PUT for one declared file.
type UploadTask struct {
	AttachmentID string
	FileName     string
	ContentType  string
	UploadURL    string
}

// FileService handles the object storage side of attachments.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	storage     storage.Storage
	logger      logging.Logger
}

func NewFileService(db *sql.DB, m repomanager.RepositoryManager, st storage.Storage, logger logging.Logger) *FileService {
	return &FileService{db: db, repomanager: m, storage: st, logger: logger}
}

// sanitizeFileName keeps the base name only, so a name cannot escape its
// message prefix.
func sanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == ".." || name == "" {
		return "file"
	}
	return name
}

// uniqueFileNames sanitizes names and disambiguates duplicates within one
// message: "a.png", "a (2).png".
func uniqueFileNames(files []FileSpec) []string {
	seen := make(map[string]int, len(files))
	out := make([]string, len(files))
	for i, f := range files {
		name := sanitizeFileName(f.FileName)
		seen[name]++
		if n := seen[name]; n > 1 {
			ext := path.Ext(name)
			name = fmt.Sprintf("%s (%d)%s", strings.TrimSuffix(name, ext), n, ext)
		}
		out[i] = name
	}
	return out
}

func (s *FileService) presignUpload(ctx context.Context, a models.Attachment) (UploadTask, error) {
	url, err := s.storage.PresignPut(ctx, a.StoragePath, a.ContentType)
	if err != nil {
		return UploadTask{}, err
	}
	return UploadTask{AttachmentID: a.ID, FileName: a.FileName, ContentType: a.ContentType, UploadURL: url}, nil
}

// withDownloadURLs fills DownloadURL of uploaded attachments. A failing
// presign leaves the URL empty.
func (s *FileService) withDownloadURLs(ctx context.Context, atts []models.Attachment) {
	for i := range atts {
		if atts[i].Status != models.AttachmentUploaded {
			continue
		}
		url, err := s.storage.PresignGet(ctx, atts[i].StoragePath)
		if err != nil {
			s.logger.Warn(ctx, "presign download failed", "attachment_id", atts[i].ID, "error", err)
			continue
		}
		atts[i].DownloadURL = url
	}
}

// MarkUploaded records that the client finished the PUT of an attachment.
func (s *FileService) MarkUploaded(ctx context.Context, userID, attachmentID string) (*models.Attachment, error) {
	a, err := s.repomanager.Attachments(s.db).MarkUploaded(ctx, userID, attachmentID)
	if err != nil {
		return nil, err
	}
	atts := []models.Attachment{*a}
	s.withDownloadURLs(ctx, atts)
	return &atts[0], nil
}

// ListConversationFiles lists the stored objects of a conversation. The
// prefixes come from the stored attachment paths, so files are found even
// after the conversation moved to another folder.
func (s *FileService) ListConversationFiles(ctx context.Context, userID, conversationID string) ([]models.FileEntry, error) {
	if _, err := s.repomanager.Conversations(s.db).Get(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	paths, err := s.repomanager.Attachments(s.db).StoragePathsByConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	prefixes := map[string]struct{}{}
	for _, p := range paths {
		prefixes[path.Dir(p)+"/"] = struct{}{}
	}

	out := []models.FileEntry{}
	for prefix := range prefixes {
		entries, err := s.storage.List(ctx, prefix)
		if err != nil {
			return nil, fmt.Errorf("error listing files: %w", err)
		}
		for _, e := range entries {
			if url, err := s.storage.PresignGet(ctx, e.Path); err == nil {
				e.DownloadURL = url
			}
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// RemoveObjects deletes every path, continuing past failures. Failures are
// returned joined, each wrapping common.ErrOrphanData.
func (s *FileService) RemoveObjects(ctx context.Context, paths []string) error {
	var errs []error
	for _, p := range paths {
		if err := s.storage.Delete(ctx, p); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %v", common.ErrOrphanData, p, err))
		}
	}
	return errors.Join(errs...)
}
