package store

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessage_PatchesPreviewAndTranscript(t *testing.T) {
	s, _ := newLoaded(t)
	ctx := context.Background()
	c, err := s.CreateConversation(ctx, defaultFolder(t, s).ID, "chat")
	require.NoError(t, err)
	_, err = s.LoadMessages(ctx, c.ID)
	require.NoError(t, err)

	msg, err := s.SendMessage(ctx, c.ID, "Hello", nil)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, msg.Role)
	assert.Equal(t, models.Text("Hello"), msg.Content)

	got, _ := s.Conversation(c.ID)
	require.NotNil(t, got.LastMessage)
	assert.Equal(t, "Hello", got.LastMessage.Content)
	assert.True(t, got.UpdatedAt.After(c.UpdatedAt))

	require.Len(t, s.Messages(c.ID), 1)
}

func TestSendMessage_Validation(t *testing.T) {
	s, b := newLoaded(t)
	ctx := context.Background()
	c, err := s.CreateConversation(ctx, defaultFolder(t, s).ID, "chat")
	require.NoError(t, err)

	_, err = s.SendMessage(ctx, c.ID, "   ", nil)
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = s.SendMessage(ctx, "missing", "hi", nil)
	require.ErrorIs(t, err, common.ErrNotFound)

	assert.Zero(t, b.Calls("AddMessage"))
}

func TestSendMessage_UploadsAndBackfills(t *testing.T) {
	s, b := newLoaded(t)
	ctx := context.Background()
	c, err := s.CreateConversation(ctx, defaultFolder(t, s).ID, "chat")
	require.NoError(t, err)
	_, err = s.LoadMessages(ctx, c.ID)
	require.NoError(t, err)

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	msg, err := s.SendMessage(ctx, c.ID, "see attached", []File{
		{Name: "shot.png", Data: png},
		{Name: "notes.txt", ContentType: "text/plain", Data: []byte("notes")},
	})
	require.NoError(t, err)
	require.Len(t, msg.Attachments, 2)

	assert.Equal(t, "image/png", msg.Attachments[0].ContentType)
	assert.Equal(t, "text/plain", msg.Attachments[1].ContentType)
	for _, a := range msg.Attachments {
		assert.Equal(t, models.AttachmentUploaded, a.Status)
		assert.NotEmpty(t, a.DownloadURL)
	}
	assert.Equal(t, png, b.Uploaded(msg.Attachments[0].ID))

	cached := s.Messages(c.ID)
	require.Len(t, cached, 1)
	assert.Equal(t, models.AttachmentUploaded, cached[0].Attachments[1].Status)
}

func TestSendMessage_UploadFailureKeepsMessage(t *testing.T) {
	s, b := newLoaded(t)
	ctx := context.Background()
	c, err := s.CreateConversation(ctx, defaultFolder(t, s).ID, "chat")
	require.NoError(t, err)
	_, err = s.LoadMessages(ctx, c.ID)
	require.NoError(t, err)

	b.SetFail("Upload", errors.New("storage down"))
	msg, err := s.SendMessage(ctx, c.ID, "file", []File{{Name: "a.bin", Data: []byte{1, 2}}})
	require.ErrorIs(t, err, common.ErrBackend)
	require.ErrorContains(t, err, "upload a.bin")

	assert.NotEmpty(t, msg.ID)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, models.AttachmentPending, msg.Attachments[0].Status)
	assert.Len(t, s.Messages(c.ID), 1)
}

func TestSendMessage_BackendFailureLeavesMemory(t *testing.T) {
	s, b := newLoaded(t)
	ctx := context.Background()
	c, err := s.CreateConversation(ctx, defaultFolder(t, s).ID, "chat")
	require.NoError(t, err)
	_, err = s.LoadMessages(ctx, c.ID)
	require.NoError(t, err)
	v := s.Version()

	b.SetFail("AddMessage", errors.New("boom"))
	_, err = s.SendMessage(ctx, c.ID, "Hello", nil)
	require.ErrorIs(t, err, common.ErrBackend)
	assert.Empty(t, s.Messages(c.ID))
	assert.Equal(t, v, s.Version())
}

func TestRequestReply(t *testing.T) {
	s, _ := newLoaded(t)
	ctx := context.Background()
	c, err := s.CreateConversation(ctx, defaultFolder(t, s).ID, "chat")
	require.NoError(t, err)
	_, err = s.LoadMessages(ctx, c.ID)
	require.NoError(t, err)

	_, err = s.SendMessage(ctx, c.ID, "Hello", nil)
	require.NoError(t, err)
	reply, err := s.RequestReply(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAssistant, reply.Role)
	assert.Equal(t, "You said: Hello", reply.Content.PlainText())

	msgs := s.Messages(c.ID)
	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleUser, msgs[0].Role)
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)

	got, _ := s.Conversation(c.ID)
	assert.Equal(t, models.RoleAssistant, got.LastMessage.Role)
}

func TestLoadMessages(t *testing.T) {
	s, b := newLoaded(t)
	ctx := context.Background()
	c, err := s.CreateConversation(ctx, defaultFolder(t, s).ID, "chat")
	require.NoError(t, err)
	_, err = b.AddMessage(ctx, c.ID, models.RoleUser, models.Text("one"), nil)
	require.NoError(t, err)
	_, err = b.AddMessage(ctx, c.ID, models.RoleAssistant, models.Text("two"), nil)
	require.NoError(t, err)

	msgs, err := s.LoadMessages(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "one", msgs[0].Content.PlainText())
	assert.Equal(t, msgs, s.Messages(c.ID))
	assert.Nil(t, s.Messages("other"))

	_, err = s.LoadMessages(ctx, "missing")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestLoadMessages_LocalPatchWins(t *testing.T) {
	s, b := newLoaded(t)
	ctx := context.Background()
	c, err := s.CreateConversation(ctx, defaultFolder(t, s).ID, "chat")
	require.NoError(t, err)
	_, err = s.LoadMessages(ctx, c.ID)
	require.NoError(t, err)

	b.SetBefore("ListMessages", func() {
		b.SetBefore("ListMessages", nil)
		_, err := s.SendMessage(ctx, c.ID, "sent meanwhile", nil)
		require.NoError(t, err)
		_, err = b.AddMessage(ctx, c.ID, models.RoleUser, models.Text("remote only"), nil)
		require.NoError(t, err)
	})

	msgs, err := s.LoadMessages(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "sent meanwhile", msgs[0].Content.PlainText())
}
