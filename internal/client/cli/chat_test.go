package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/gophchat/internal/client/authgate"
	"github.com/dmitrijs2005/gophchat/internal/client/client/clienttest"
	"github.com/dmitrijs2005/gophchat/internal/client/sidebar"
	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// signedIn returns an App with an open session.
func signedIn(t *testing.T) (*App, *clienttest.Backend, *bytes.Buffer, *authgate.Session) {
	t.Helper()
	a, b, out := newTestApp(t, "")
	s, err := a.gate.Signup(context.Background(), "ann@example.com", "pw", "Ann")
	require.NoError(t, err)
	return a, b, out, s
}

func folderNamed(t *testing.T, s *authgate.Session, name string) models.Folder {
	t.Helper()
	for _, f := range s.Store.Folders() {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("folder %q not found", name)
	return models.Folder{}
}

func TestChat_EndToEnd(t *testing.T) {
	ctx := context.Background()
	a, _, out, s := signedIn(t)

	require.NoError(t, a.CreateFolder(ctx, []string{"Work"}))
	work := folderNamed(t, s, "Work")

	require.NoError(t, a.OpenFolder(ctx, []string{work.ID}))
	assert.Contains(t, out.String(), "> [-] Work")
	assert.Contains(t, out.String(), "(no conversations)")

	require.NoError(t, a.NewChat(ctx, []string{"Kickoff"}))
	assert.Equal(t, sidebar.ConversationActive, s.Sidebar.State())

	out.Reset()
	require.NoError(t, a.Say(ctx, []string{"Hello"}))
	assert.Contains(t, out.String(), "[user]")
	assert.Contains(t, out.String(), "Hello")
	assert.Contains(t, out.String(), "[assistant]")
	assert.Contains(t, out.String(), "You said: Hello")

	out.Reset()
	require.NoError(t, a.Show(ctx))
	transcriptText := out.String()
	assert.Less(t, strings.Index(transcriptText, "[user]"), strings.Index(transcriptText, "[assistant]"))

	out.Reset()
	require.NoError(t, a.List(ctx))
	assert.Contains(t, out.String(), "Kickoff")

	require.NoError(t, a.DeleteFolder(ctx, []string{work.ID}))
	assert.Equal(t, sidebar.NoFolderSelected, s.Sidebar.State())

	out.Reset()
	require.NoError(t, a.Show(ctx))
	assert.Contains(t, out.String(), "No conversation is open")
}

func TestChat_SayReadsMultilineWhenNoArgs(t *testing.T) {
	ctx := context.Background()
	a, _, out, s := signedIn(t)
	require.NoError(t, a.NewChat(ctx, nil))

	a.reader = bufio.NewReader(strings.NewReader("line one\nline two\n\n"))
	require.NoError(t, a.Say(ctx, nil))

	msgs := s.Store.Messages(s.Sidebar.SelectedConversation())
	require.Len(t, msgs, 2)
	assert.Equal(t, models.Text("line one\nline two"), msgs[0].Content)
	assert.Contains(t, out.String(), "New chat")
}

func TestChat_ErrorsShowBanner(t *testing.T) {
	ctx := context.Background()
	a, b, out, s := signedIn(t)
	def, ok := s.Store.DefaultFolder()
	require.True(t, ok)

	err := a.DeleteFolder(ctx, []string{def.ID})
	require.ErrorIs(t, err, common.ErrValidation)
	assert.Contains(t, out.String(), "! ")
	assert.Contains(t, out.String(), "default folder cannot be deleted")
	assert.Empty(t, s.Sidebar.Error(), "banner is dismissed after printing")

	out.Reset()
	b.SetFail("CreateFolder", io.ErrUnexpectedEOF)
	err = a.CreateFolder(ctx, []string{"Work"})
	require.ErrorIs(t, err, common.ErrBackend)
	assert.Contains(t, out.String(), "Failed to create folder. Please try again.")

	out.Reset()
	err = a.Say(ctx, []string{"hi"})
	require.Error(t, err)
	assert.Contains(t, out.String(), "no conversation selected")
}

func TestChat_Usage(t *testing.T) {
	ctx := context.Background()
	a, b, out, _ := signedIn(t)
	calls := b.TotalCalls()

	cases := []struct {
		name string
		run  func() error
		want string
	}{
		{"mkdir", func() error { return a.CreateFolder(ctx, nil) }, "mkdir <name>"},
		{"renamedir", func() error { return a.RenameFolder(ctx, []string{"f"}) }, "renamedir"},
		{"rmdir", func() error { return a.DeleteFolder(ctx, nil) }, "rmdir <folder-id>"},
		{"cd", func() error { return a.OpenFolder(ctx, nil) }, "cd <folder-id>"},
		{"toggle", func() error { return a.ToggleFolder(ctx, nil) }, "toggle"},
		{"open", func() error { return a.OpenChat(ctx, nil) }, "open"},
		{"rename", func() error { return a.RenameChat(ctx, []string{"c"}) }, "rename"},
		{"rm", func() error { return a.DeleteChat(ctx, nil) }, "rm"},
		{"mv", func() error { return a.MoveChat(ctx, []string{"c"}) }, "mv"},
		{"attach", func() error { return a.Attach(ctx, nil) }, "attach"},
		{"download", func() error { return a.Download(ctx, []string{"zero"}) }, "download <n>"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out.Reset()
			err := tc.run()
			require.ErrorIs(t, err, common.ErrValidation)
			assert.Contains(t, out.String(), "Usage: "+tc.want)
		})
	}
	assert.Equal(t, calls, b.TotalCalls())
}

func TestChat_RenameMoveDelete(t *testing.T) {
	ctx := context.Background()
	a, _, _, s := signedIn(t)

	require.NoError(t, a.CreateFolder(ctx, []string{"Archive"}))
	archive := folderNamed(t, s, "Archive")
	require.NoError(t, a.RenameFolder(ctx, []string{archive.ID, "Old", "stuff"}))
	assert.Equal(t, "Old stuff", folderNamed(t, s, "Old stuff").Name)

	require.NoError(t, a.NewChat(ctx, []string{"Draft"}))
	convID := s.Sidebar.SelectedConversation()

	require.NoError(t, a.RenameChat(ctx, []string{convID, "Final", "draft"}))
	c, ok := s.Store.Conversation(convID)
	require.True(t, ok)
	assert.Equal(t, "Final draft", c.Title)

	require.NoError(t, a.MoveChat(ctx, []string{convID, archive.ID}))
	folderID, ok := s.Store.FolderOf(convID)
	require.True(t, ok)
	assert.Equal(t, archive.ID, folderID)

	require.NoError(t, a.ToggleFolder(ctx, []string{archive.ID}))
	for _, f := range s.Sidebar.View().Folders {
		assert.Equal(t, f.ID != archive.ID, f.Expanded, f.Name)
	}

	require.NoError(t, a.OpenChat(ctx, []string{convID}))
	require.NoError(t, a.DeleteChat(ctx, []string{convID}))
	_, ok = s.Store.Conversation(convID)
	assert.False(t, ok)
}

func TestChat_AttachFilesAndDownload(t *testing.T) {
	ctx := context.Background()
	a, b, out, s := signedIn(t)
	require.NoError(t, a.NewChat(ctx, []string{"Docs"}))

	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("meeting notes"), 0o600))

	a.reader = bufio.NewReader(strings.NewReader("see attached\n\n"))
	require.NoError(t, a.Attach(ctx, []string{path}))

	msgs := s.Store.Messages(s.Sidebar.SelectedConversation())
	require.Len(t, msgs, 2)
	require.Len(t, msgs[0].Attachments, 1)
	att := msgs[0].Attachments[0]
	assert.Equal(t, models.AttachmentUploaded, att.Status)
	assert.Equal(t, "meeting notes", string(b.Uploaded(att.ID)))
	assert.Contains(t, out.String(), "notes.txt")

	out.Reset()
	require.NoError(t, a.Files(ctx))
	assert.Contains(t, out.String(), " 1  notes.txt")

	a.httpClient = &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Status:     "200 OK",
			Body:       io.NopCloser(strings.NewReader("meeting notes")),
			Request:    r,
		}, nil
	})}
	work := t.TempDir()
	t.Chdir(work)

	require.NoError(t, a.Download(ctx, []string{"1"}))
	got, err := os.ReadFile(filepath.Join(work, downloadDir, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "meeting notes", string(got))

	err = a.Download(ctx, []string{"2"})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestChat_AttachMissingFile(t *testing.T) {
	ctx := context.Background()
	a, b, out, _ := signedIn(t)
	require.NoError(t, a.NewChat(ctx, nil))
	calls := b.Calls("AddMessage")

	err := a.Attach(ctx, []string{filepath.Join(t.TempDir(), "nope.bin")})
	require.Error(t, err)
	assert.Contains(t, out.String(), "nope.bin")
	assert.Equal(t, calls, b.Calls("AddMessage"))
}

func TestChat_FilesNeedsOpenConversation(t *testing.T) {
	a, _, out, _ := signedIn(t)

	require.Error(t, a.Files(context.Background()))
	assert.Contains(t, out.String(), "no conversation is open")
}

func TestChat_Sync(t *testing.T) {
	ctx := context.Background()
	a, b, out, _ := signedIn(t)

	_, err := b.CreateFolder(ctx, "From phone")
	require.NoError(t, err)

	require.NoError(t, a.Sync(ctx))
	assert.Contains(t, out.String(), "From phone")
}

func TestChat_Reply(t *testing.T) {
	ctx := context.Background()
	a, b, out, _ := signedIn(t)
	require.NoError(t, a.NewChat(ctx, nil))
	require.NoError(t, a.Say(ctx, []string{"ping"}))

	b.SetReply(models.Text("pong again"))
	out.Reset()
	require.NoError(t, a.Reply(ctx))
	assert.Contains(t, out.String(), "pong again")
	assert.NotContains(t, out.String(), "[user]")
}
