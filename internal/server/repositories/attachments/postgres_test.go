package attachments

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/models"
	"github.com/stretchr/testify/require"
)

var cols = []string{"id", "message_id", "file_name", "content_type", "size", "storage_path", "status", "created_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCreate_DefaultsToPending(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+attachments`).
		WithArgs(sqlmock.AnyArg(), "m1", "u1", "a.png", "image/png", int64(42), "p/a.png", "pending", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	a := &models.Attachment{MessageID: "m1", FileName: "a.png", ContentType: "image/png", Size: 42, StoragePath: "p/a.png"}
	require.NoError(t, repo.Create(context.Background(), "u1", a))
	require.Equal(t, models.AttachmentPending, a.Status)
	require.NotEmpty(t, a.ID)
}

func TestListByConversation(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`(?s)FROM attachments a JOIN messages m ON m.id = a.message_id WHERE m.conversation_id = \$1 AND a.user_id = \$2`).
		WithArgs("c1", "u1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("a1", "m1", "a.png", "image/png", int64(42), "p/a.png", "uploaded", now).
			AddRow("a2", "m1", "b.pdf", "application/pdf", int64(7), "p/b.pdf", "pending", now))

	got, err := repo.ListByConversation(context.Background(), "u1", "c1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, models.AttachmentUploaded, got[0].Status)
	require.Equal(t, int64(7), got[1].Size)
}

func TestMarkUploaded(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`(?s)^UPDATE attachments a SET status = 'uploaded' WHERE a.id = \$1 AND a.user_id = \$2`).
		WithArgs("a1", "u1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("a1", "m1", "a.png", "image/png", int64(42), "p/a.png", "uploaded", now))

	a, err := repo.MarkUploaded(context.Background(), "u1", "a1")
	require.NoError(t, err)
	require.Equal(t, models.AttachmentUploaded, a.Status)

	mock.ExpectQuery(`^UPDATE attachments`).WithArgs("a9", "u1").WillReturnError(sql.ErrNoRows)
	_, err = repo.MarkUploaded(context.Background(), "u1", "a9")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestStoragePaths(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)SELECT a.storage_path .* JOIN conversations c ON c.id = m.conversation_id WHERE c.folder_id = \$1`).
		WithArgs("f1", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"storage_path"}).AddRow("p/1").AddRow("p/2"))
	got, err := repo.StoragePathsByFolder(context.Background(), "u1", "f1")
	require.NoError(t, err)
	require.Equal(t, []string{"p/1", "p/2"}, got)

	mock.ExpectQuery(`(?s)SELECT a.storage_path .* WHERE m.conversation_id = \$1`).
		WithArgs("c1", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"storage_path"}))
	got, err = repo.StoragePathsByConversation(context.Background(), "u1", "c1")
	require.NoError(t, err)
	require.Empty(t, got)

	require.NoError(t, mock.ExpectationsWereMet())
}
