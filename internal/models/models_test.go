package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSortFolders_DefaultFirstThenOldest(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	folders := []Folder{
		{ID: "b", Kind: FolderKindUser, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "a", Kind: FolderKindUser, CreatedAt: base.Add(1 * time.Hour)},
		{ID: "d", Kind: FolderKindDefault, CreatedAt: base.Add(3 * time.Hour)},
	}

	SortFolders(folders)

	got := []string{folders[0].ID, folders[1].ID, folders[2].ID}
	assert.Equal(t, []string{"d", "a", "b"}, got)
}

func TestSortConversations_NewestFirstStable(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	convs := []Conversation{
		{ID: "old", CreatedAt: base},
		{ID: "y", UpdatedAt: base.Add(time.Hour)},
		{ID: "x", UpdatedAt: base.Add(time.Hour)},
		{ID: "new", CreatedAt: base, UpdatedAt: base.Add(2 * time.Hour)},
	}

	SortConversations(convs)

	got := []string{convs[0].ID, convs[1].ID, convs[2].ID, convs[3].ID}
	assert.Equal(t, []string{"new", "x", "y", "old"}, got)
}

func TestSortMessages_Ascending(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	msgs := []Message{
		{ID: "2", CreatedAt: base.Add(time.Minute)},
		{ID: "1", CreatedAt: base},
		{ID: "0", CreatedAt: base},
	}
	SortMessages(msgs)
	assert.Equal(t, "0", msgs[0].ID)
	assert.Equal(t, "1", msgs[1].ID)
	assert.Equal(t, "2", msgs[2].ID)
}

func TestAttachmentPath(t *testing.T) {
	assert.Equal(t,
		"user_uploads/u1/folders/f1/conversations/c1/m1/report.pdf",
		AttachmentPath("u1", "f1", "c1", "m1", "report.pdf"))
	assert.Equal(t, "user_uploads/u1/folders/f1/conversations/c1", ConversationPrefix("u1", "f1", "c1"))
}

func TestUser_Name(t *testing.T) {
	assert.Equal(t, "Ann", User{DisplayName: "Ann", Email: "a@x"}.Name())
	assert.Equal(t, "a@x", User{Email: "a@x"}.Name())
}
