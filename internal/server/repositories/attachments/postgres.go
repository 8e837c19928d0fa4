package attachments

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/dbx"
	"github.com/dmitrijs2005/gophchat/internal/models"
	"github.com/google/uuid"
)

const attachmentColumns = `a.id, a.message_id, a.file_name, a.content_type, a.size, a.storage_path, a.status, a.created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAttachment(s scanner) (*models.Attachment, error) {
	var a models.Attachment
	var status string
	if err := s.Scan(&a.ID, &a.MessageID, &a.FileName, &a.ContentType, &a.Size, &a.StoragePath, &status, &a.CreatedAt); err != nil {
		return nil, dbx.MapError(err)
	}
	a.Status = models.AttachmentStatus(status)
	return &a, nil
}

func (r *PostgresRepository) Create(ctx context.Context, userID string, a *models.Attachment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = models.AttachmentPending
	}
	a.CreatedAt = time.Now().UTC()
	query := `
		INSERT INTO attachments (id, message_id, user_id, file_name, content_type, size, storage_path, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query, a.ID, a.MessageID, userID, a.FileName, a.ContentType, a.Size, a.StoragePath, string(a.Status), a.CreatedAt)
	return dbx.MapError(err)
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (*models.Attachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM attachments a WHERE a.id = $1 AND a.user_id = $2`
	return scanAttachment(r.db.QueryRowContext(ctx, query, id, userID))
}

func (r *PostgresRepository) ListByConversation(ctx context.Context, userID, conversationID string) ([]models.Attachment, error) {
	query := `
		SELECT ` + attachmentColumns + `
		FROM attachments a
		JOIN messages m ON m.id = a.message_id
		WHERE m.conversation_id = $1 AND a.user_id = $2
		ORDER BY a.created_at, a.id
	`
	rows, err := r.db.QueryContext(ctx, query, conversationID, userID)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	defer rows.Close()

	out := []models.Attachment{}
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.MapError(err)
	}
	return out, nil
}

func (r *PostgresRepository) MarkUploaded(ctx context.Context, userID, id string) (*models.Attachment, error) {
	query := `
		UPDATE attachments a SET status = 'uploaded'
		WHERE a.id = $1 AND a.user_id = $2
		RETURNING ` + attachmentColumns
	return scanAttachment(r.db.QueryRowContext(ctx, query, id, userID))
}

func (r *PostgresRepository) StoragePathsByConversation(ctx context.Context, userID, conversationID string) ([]string, error) {
	query := `
		SELECT a.storage_path
		FROM attachments a
		JOIN messages m ON m.id = a.message_id
		WHERE m.conversation_id = $1 AND a.user_id = $2
	`
	return r.paths(ctx, query, conversationID, userID)
}

func (r *PostgresRepository) StoragePathsByFolder(ctx context.Context, userID, folderID string) ([]string, error) {
	query := `
		SELECT a.storage_path
		FROM attachments a
		JOIN messages m ON m.id = a.message_id
		JOIN conversations c ON c.id = m.conversation_id
		WHERE c.folder_id = $1 AND a.user_id = $2
	`
	return r.paths(ctx, query, folderID, userID)
}

func (r *PostgresRepository) paths(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, dbx.MapError(err)
		}
		out = append(out, p)
	}
	return out, dbx.MapError(rows.Err())
}
