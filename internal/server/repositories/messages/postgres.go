package messages

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/dbx"
	"github.com/dmitrijs2005/gophchat/internal/models"
	"github.com/google/uuid"
)

const messageColumns = `id, conversation_id, role, content_type, content, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(s scanner) (*models.Message, error) {
	var (
		m    models.Message
		role string
		env  models.ContentEnvelope
		data []byte
	)
	if err := s.Scan(&m.ID, &m.ConversationID, &role, &env.Type, &data, &m.CreatedAt); err != nil {
		return nil, dbx.MapError(err)
	}
	env.Data = data
	content, err := env.Unwrap()
	if err != nil {
		return nil, fmt.Errorf("message %s: %w", m.ID, err)
	}
	m.Role = models.Role(role)
	m.Content = content
	return &m, nil
}

func (r *PostgresRepository) Create(ctx context.Context, userID string, m *models.Message) error {
	env, err := models.Wrap(m.Content)
	if err != nil {
		return err
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO messages (id, conversation_id, user_id, role, content_type, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.ExecContext(ctx, query, m.ID, m.ConversationID, userID, string(m.Role), string(env.Type), string(env.Data), m.CreatedAt)
	return dbx.MapError(err)
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (*models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1 AND user_id = $2`
	return scanMessage(r.db.QueryRowContext(ctx, query, id, userID))
}

func (r *PostgresRepository) List(ctx context.Context, userID, conversationID string) ([]models.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE conversation_id = $1 AND user_id = $2
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, conversationID, userID)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	defer rows.Close()

	out := []models.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.MapError(err)
	}
	return out, nil
}
