package resettokens

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/stretchr/testify/require"
)

func TestPostgresRepository(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)
	ctx := context.Background()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+reset_tokens`).
		WithArgs("u1", "h1", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Create(ctx, "u1", "h1", 15*time.Minute))

	exp := time.Now().Add(15 * time.Minute)
	mock.ExpectQuery(`(?s)^SELECT\s+user_id,\s*expires_at,\s*created_at\s+FROM\s+reset_tokens\s+WHERE\s+token_hash\s*=\s*\$1$`).
		WithArgs("h1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "created_at"}).AddRow("u1", exp, time.Now()))
	got, err := repo.Find(ctx, "h1")
	require.NoError(t, err)
	require.Equal(t, "u1", got.UserID)

	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+reset_tokens`).WithArgs("h2").WillReturnError(sql.ErrNoRows)
	_, err = repo.Find(ctx, "h2")
	require.ErrorIs(t, err, common.ErrNotFound)

	mock.ExpectExec(`^DELETE FROM reset_tokens WHERE token_hash = \$1$`).WithArgs("h1").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(ctx, "h1"))

	mock.ExpectExec(`^DELETE FROM reset_tokens WHERE user_id = \$1$`).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, repo.DeleteByUser(ctx, "u1"))

	require.NoError(t, mock.ExpectationsWereMet())
}
