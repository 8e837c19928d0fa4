package conversations

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/dbx"
	"github.com/dmitrijs2005/gophchat/internal/models"
	"github.com/google/uuid"
)

const conversationColumns = `id, user_id, folder_id, title, last_message_content, last_message_role, last_message_at, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanConversation(s scanner) (*models.Conversation, error) {
	var (
		c       models.Conversation
		content sql.NullString
		role    sql.NullString
		at      sql.NullTime
	)
	if err := s.Scan(&c.ID, &c.UserID, &c.FolderID, &c.Title, &content, &role, &at, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if at.Valid {
		c.LastMessage = &models.MessagePreview{
			Content:   content.String,
			Role:      models.Role(role.String),
			CreatedAt: at.Time,
		}
	}
	return &c, nil
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Conversation) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	query := `
		INSERT INTO conversations (id, user_id, folder_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`
	if _, err := r.db.ExecContext(ctx, query, c.ID, c.UserID, c.FolderID, c.Title, now); err != nil {
		return dbx.MapError(err)
	}
	c.CreatedAt, c.UpdatedAt = now, now
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1 AND user_id = $2`
	c, err := scanConversation(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		return nil, dbx.MapError(err)
	}
	return c, nil
}

func (r *PostgresRepository) List(ctx context.Context, userID, folderID string) ([]models.Conversation, error) {
	query := `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE user_id = $1 AND ($2 = '' OR folder_id::text = $2)
		ORDER BY updated_at DESC, id
	`
	rows, err := r.db.QueryContext(ctx, query, userID, folderID)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	defer rows.Close()

	out := []models.Conversation{}
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, dbx.MapError(err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.MapError(err)
	}
	return out, nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func (r *PostgresRepository) Update(ctx context.Context, userID, id string, p Patch) (*models.Conversation, error) {
	query := `
		UPDATE conversations
		SET title = COALESCE($3, title),
			folder_id = COALESCE($4::uuid, folder_id),
			updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + conversationColumns
	c, err := scanConversation(r.db.QueryRowContext(ctx, query, id, userID, nullable(p.Title), nullable(p.FolderID)))
	if err != nil {
		return nil, dbx.MapError(err)
	}
	return c, nil
}

func (r *PostgresRepository) Touch(ctx context.Context, userID, id string, preview models.MessagePreview) (*models.Conversation, error) {
	query := `
		UPDATE conversations
		SET last_message_content = $3,
			last_message_role = $4,
			last_message_at = $5,
			updated_at = $5
		WHERE id = $1 AND user_id = $2
		RETURNING ` + conversationColumns
	c, err := scanConversation(r.db.QueryRowContext(ctx, query, id, userID, preview.Content, string(preview.Role), preview.CreatedAt))
	if err != nil {
		return nil, dbx.MapError(err)
	}
	return c, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return dbx.MapError(err)
	}
	return dbx.CheckAffected(res)
}

func (r *PostgresRepository) IDsByFolder(ctx context.Context, userID, folderID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM conversations WHERE user_id = $1 AND folder_id = $2 ORDER BY id`, userID, folderID)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, dbx.MapError(err)
		}
		ids = append(ids, id)
	}
	return ids, dbx.MapError(rows.Err())
}
