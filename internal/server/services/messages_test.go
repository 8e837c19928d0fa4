package services

import (
	"context"
	"strings"
	"testing"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMessage_Validation(t *testing.T) {
	h := newHarness(t)
	uid := h.signup(t, "alice@example.com")
	c, err := h.chat.CreateConversation(context.Background(), uid, "", "")
	require.NoError(t, err)

	tests := []struct {
		name    string
		role    models.Role
		content models.Content
	}{
		{name: "unknown role", role: "system", content: models.Text("x")},
		{name: "empty text", role: models.RoleUser, content: models.Text("   ")},
		{name: "nil content", role: models.RoleUser},
		{name: "empty rich", role: models.RoleUser, content: models.Rich{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.chat.AddMessage(context.Background(), uid, c.ID, tc.role, tc.content, nil)
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}

	_, err = h.chat.AddMessage(context.Background(), uid, "missing", models.RoleUser, models.Text("x"), nil)
	assert.ErrorIs(t, err, common.ErrNotFound)
	require.NoError(t, h.mock.ExpectationsWereMet())
}

func TestAddMessage_WithFiles(t *testing.T) {
	h := newHarness(t)
	uid := h.signup(t, "alice@example.com")
	c, err := h.chat.CreateConversation(context.Background(), uid, "", "")
	require.NoError(t, err)

	h.expectTx(true)
	added, err := h.chat.AddMessage(context.Background(), uid, c.ID, models.RoleUser, models.Text("two pics"), []FileSpec{
		{FileName: "a.png", ContentType: "image/png", Size: 10},
		{FileName: "../../a.png", ContentType: "image/png", Size: 20},
	})
	require.NoError(t, err)

	require.Len(t, added.Message.Attachments, 2)
	require.Len(t, added.Uploads, 2)
	prefix := models.MessagePrefix(uid, c.FolderID, c.ID, added.Message.ID)
	assert.Equal(t, prefix+"/a.png", added.Message.Attachments[0].StoragePath)
	assert.Equal(t, prefix+"/a (2).png", added.Message.Attachments[1].StoragePath)
	for i, a := range added.Message.Attachments {
		assert.Equal(t, models.AttachmentPending, a.Status)
		assert.Equal(t, a.ID, added.Uploads[i].AttachmentID)
		assert.Equal(t, "put://"+a.StoragePath, added.Uploads[i].UploadURL)
	}

	require.NotNil(t, added.Conversation.LastMessage)
	assert.Equal(t, "two pics", added.Conversation.LastMessage.Content)
	assert.Equal(t, models.RoleUser, added.Conversation.LastMessage.Role)
	require.NoError(t, h.mock.ExpectationsWereMet())
}

func TestAddMessage_PresignErrRollsBack(t *testing.T) {
	h := newHarness(t)
	uid := h.signup(t, "alice@example.com")
	c, err := h.chat.CreateConversation(context.Background(), uid, "", "")
	require.NoError(t, err)
	h.storage.presignErr = errBoom{}

	h.expectTx(false)
	_, err = h.chat.AddMessage(context.Background(), uid, c.ID, models.RoleUser, models.Text("x"),
		[]FileSpec{{FileName: "a.png"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error presigning upload")
	require.NoError(t, h.mock.ExpectationsWereMet())
}

func TestAddMessage_PreviewIsTruncated(t *testing.T) {
	h := newHarness(t)
	uid := h.signup(t, "alice@example.com")
	c, err := h.chat.CreateConversation(context.Background(), uid, "", "")
	require.NoError(t, err)

	h.expectTx(true)
	added, err := h.chat.AddMessage(context.Background(), uid, c.ID, models.RoleUser,
		models.Text(strings.Repeat("x", 250)), nil)
	require.NoError(t, err)
	assert.Len(t, added.Conversation.LastMessage.Content, common.PreviewLength)
}

func TestListMessages_AttachmentsAndOrder(t *testing.T) {
	h := newHarness(t)
	uid := h.signup(t, "alice@example.com")
	ctx := context.Background()
	c, err := h.chat.CreateConversation(ctx, uid, "", "")
	require.NoError(t, err)

	h.expectTx(true)
	first, err := h.chat.AddMessage(ctx, uid, c.ID, models.RoleUser, models.Text("one"),
		[]FileSpec{{FileName: "a.txt", ContentType: "text/plain", Size: 1}})
	require.NoError(t, err)
	h.expectTx(true)
	_, err = h.chat.AddMessage(ctx, uid, c.ID, models.RoleUser, models.Text("two"), nil)
	require.NoError(t, err)

	_, err = h.files.MarkUploaded(ctx, uid, first.Uploads[0].AttachmentID)
	require.NoError(t, err)

	msgs, err := h.chat.ListMessages(ctx, uid, c.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, models.Text("one"), msgs[0].Content)
	assert.Equal(t, models.Text("two"), msgs[1].Content)
	require.Len(t, msgs[0].Attachments, 1)
	att := msgs[0].Attachments[0]
	assert.Equal(t, models.AttachmentUploaded, att.Status)
	assert.Equal(t, "get://"+att.StoragePath, att.DownloadURL)
	assert.Empty(t, msgs[1].Attachments)

	other := h.signup(t, "bob@example.com")
	_, err = h.chat.ListMessages(ctx, other, c.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGenerateReply(t *testing.T) {
	h := newHarness(t)
	uid := h.signup(t, "alice@example.com")
	ctx := context.Background()
	c, err := h.chat.CreateConversation(ctx, uid, "", "")
	require.NoError(t, err)

	h.expectTx(true)
	_, err = h.chat.AddMessage(ctx, uid, c.ID, models.RoleUser, models.Text("Hello"), nil)
	require.NoError(t, err)

	h.expectTx(true)
	reply, err := h.chat.GenerateReply(ctx, uid, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAssistant, reply.Message.Role)
	assert.Equal(t, models.Text("Hi there!"), reply.Message.Content)
	assert.Equal(t, "Hi there!", reply.Conversation.LastMessage.Content)
	assert.Equal(t, models.RoleAssistant, reply.Conversation.LastMessage.Role)

	require.Len(t, h.reply.history, 1)
	assert.Equal(t, models.Text("Hello"), h.reply.history[0].Content)

	msgs, err := h.chat.ListMessages(ctx, uid, c.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
	require.NoError(t, h.mock.ExpectationsWereMet())
}

func TestGenerateReply_ResponderErrStoresNothing(t *testing.T) {
	h := newHarness(t)
	uid := h.signup(t, "alice@example.com")
	c, err := h.chat.CreateConversation(context.Background(), uid, "", "")
	require.NoError(t, err)
	h.reply.err = errBoom{}

	_, err = h.chat.GenerateReply(context.Background(), uid, c.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error generating reply")
	assert.Empty(t, h.mem.msgs)
}
