package folders

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/dbx"
	"github.com/dmitrijs2005/gophchat/internal/models"
	"github.com/google/uuid"
)

const folderColumns = `id, user_id, name, kind, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFolder(s scanner) (*models.Folder, error) {
	var f models.Folder
	var kind string
	if err := s.Scan(&f.ID, &f.UserID, &f.Name, &kind, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	f.Kind = models.FolderKind(kind)
	return &f, nil
}

func (r *PostgresRepository) Create(ctx context.Context, f *models.Folder) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.Kind == "" {
		f.Kind = models.FolderKindUser
	}
	now := time.Now().UTC()
	query := `
		INSERT INTO folders (id, user_id, name, kind, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`
	if _, err := r.db.ExecContext(ctx, query, f.ID, f.UserID, f.Name, string(f.Kind), now); err != nil {
		return dbx.MapError(err)
	}
	f.CreatedAt, f.UpdatedAt = now, now
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (*models.Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders WHERE id = $1 AND user_id = $2`
	f, err := scanFolder(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		return nil, dbx.MapError(err)
	}
	return f, nil
}

func (r *PostgresRepository) GetDefault(ctx context.Context, userID string) (*models.Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders WHERE user_id = $1 AND kind = 'default'`
	f, err := scanFolder(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		return nil, dbx.MapError(err)
	}
	return f, nil
}

func (r *PostgresRepository) List(ctx context.Context, userID string) ([]models.Folder, error) {
	query := `
		SELECT ` + folderColumns + `
		FROM folders
		WHERE user_id = $1
		ORDER BY kind = 'default' DESC, created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	defer rows.Close()

	out := []models.Folder{}
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, dbx.MapError(err)
		}
		out = append(out, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.MapError(err)
	}
	return out, nil
}

func (r *PostgresRepository) Rename(ctx context.Context, userID, id, name string) (*models.Folder, error) {
	query := `
		UPDATE folders SET name = $3, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + folderColumns
	f, err := scanFolder(r.db.QueryRowContext(ctx, query, id, userID, name))
	if err != nil {
		return nil, dbx.MapError(err)
	}
	return f, nil
}

// Delete removes the folder row; conversations go with it via ON DELETE
// CASCADE.
func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM folders WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return dbx.MapError(err)
	}
	return dbx.CheckAffected(res)
}
