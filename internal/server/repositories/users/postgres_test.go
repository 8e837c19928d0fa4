package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const insertQ = `(?s)^INSERT\s+INTO\s+users\s*\(email,\s*display_name,\s*salt,\s*verifier\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+id,\s*created_at$`

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(insertQ).
		WithArgs("alice@example.com", "Alice", []byte("salt"), []byte("verifier")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("42", now))

	u := &models.User{Email: "alice@example.com", DisplayName: "Alice", Salt: []byte("salt"), Verifier: []byte("verifier")}
	got, err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	require.Equal(t, "42", got.ID)
	require.Equal(t, "alice@example.com", got.Email)
	require.True(t, now.Equal(got.CreatedAt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WithArgs("alice@example.com", "", []byte("salt"), []byte("verifier")).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Email: "alice@example.com", Salt: []byte("salt"), Verifier: []byte("verifier")})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := repo.Create(context.Background(), &models.User{Email: "alice@example.com"})
	require.ErrorIs(t, err, common.ErrAlreadyExists)
}

func TestGetByEmail(t *testing.T) {
	q := `(?s)^SELECT\s+id,\s*email,\s*display_name,\s*salt,\s*verifier,\s*created_at\s+FROM\s+users\s+WHERE\s+email\s*=\s*\$1$`

	t.Run("found", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		rows := sqlmock.NewRows([]string{"id", "email", "display_name", "salt", "verifier", "created_at"}).
			AddRow("u-1", "alice@example.com", "Alice", []byte("salt"), []byte("ver"), time.Now())
		mock.ExpectQuery(q).WithArgs("alice@example.com").WillReturnRows(rows)

		got, err := repo.GetByEmail(context.Background(), "alice@example.com")
		require.NoError(t, err)
		require.Equal(t, "u-1", got.ID)
		require.Equal(t, []byte("ver"), got.Verifier)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(q).WithArgs("ghost@example.com").WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByEmail(context.Background(), "ghost@example.com")
		require.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestGetByID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`
	rows := sqlmock.NewRows([]string{"id", "email", "display_name", "salt", "verifier", "created_at"}).
		AddRow("u-1", "alice@example.com", "", []byte("salt"), []byte("ver"), time.Now())
	mock.ExpectQuery(q).WithArgs("u-1").WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), "u-1")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", got.Email)
	require.Equal(t, "alice@example.com", got.Public().Name())
}

func TestUpdateCredentials(t *testing.T) {
	q := `(?s)^UPDATE\s+users\s+SET\s+salt\s*=\s*\$2,\s*verifier\s*=\s*\$3\s+WHERE\s+id\s*=\s*\$1$`

	t.Run("updated", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectExec(q).WithArgs("u-1", []byte("s2"), []byte("v2")).WillReturnResult(sqlmock.NewResult(0, 1))
		require.NoError(t, repo.UpdateCredentials(context.Background(), "u-1", []byte("s2"), []byte("v2")))
	})

	t.Run("missing user", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectExec(q).WillReturnResult(sqlmock.NewResult(0, 0))
		require.ErrorIs(t, repo.UpdateCredentials(context.Background(), "u-x", nil, nil), common.ErrNotFound)
	})
}
