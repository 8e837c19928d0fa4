// Package clienttest provides an in-memory client.Backend for tests. It
// follows the server's rules: a default folder per user, cascade deletes,
// conversation previews and the echo assistant.
package clienttest

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/client/client"
	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/models"
)

var _ client.Backend = (*Backend)(nil)

// Start is the first timestamp handed out by the backend clock.
var Start = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

type account struct {
	user     models.User
	salt     []byte
	verifier []byte
}

type Backend struct {
	mu sync.Mutex

	fail   map[string]error
	before map[string]func()
	reply  models.Content

	calls    map[string]int
	seq      int
	clock    time.Time
	accounts map[string]*account // by email
	current  string              // signed in user id
	resets   map[string]string   // token -> email

	folders     map[string]models.Folder
	convs       map[string]models.Conversation
	messages    map[string][]models.Message // by conversation
	attachments map[string]*models.Attachment
	uploaded    map[string][]byte // by attachment id
}

func New() *Backend {
	return &Backend{
		fail:        map[string]error{},
		before:      map[string]func(){},
		calls:       map[string]int{},
		clock:       Start,
		accounts:    map[string]*account{},
		resets:      map[string]string{},
		folders:     map[string]models.Folder{},
		convs:       map[string]models.Conversation{},
		messages:    map[string][]models.Message{},
		attachments: map[string]*models.Attachment{},
		uploaded:    map[string][]byte{},
	}
}

// SetFail makes method return err wrapped in common.ErrBackend. A nil err
// clears the failure.
func (b *Backend) SetFail(method string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.fail, method)
		return
	}
	b.fail[method] = err
}

// SetBefore runs fn ahead of every call to method, outside the backend
// lock, so fn may call the backend itself.
func (b *Backend) SetBefore(method string, fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.before[method] = fn
}

// SetReply fixes the assistant answer. By default the assistant echoes the
// last user message.
func (b *Backend) SetReply(c models.Content) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reply = c
}

// Calls reports how many times method was invoked.
func (b *Backend) Calls(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method]
}

// TotalCalls counts every invocation.
func (b *Backend) TotalCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		n += c
	}
	return n
}

// Uploaded returns the bytes received for an attachment.
func (b *Backend) Uploaded(attachmentID string) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.uploaded[attachmentID]
}

// ResetToken returns the last reset token mailed to email.
func (b *Backend) ResetToken(email string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	for tok, e := range b.resets {
		if e == email {
			return tok
		}
	}
	return ""
}

// SeedUser creates a signed in user with a default folder and returns it.
func (b *Backend) SeedUser(email string) models.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	u := b.registerLocked(email, "", nil, nil)
	b.current = u.ID
	return u
}

// SeedConversation stores c as is, for tests that need exact timestamps.
func (b *Backend) SeedConversation(c models.Conversation) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c.UserID == "" {
		c.UserID = b.current
	}
	b.convs[c.ID] = c
}

// enter records the call, runs the hook and returns the configured failure.
func (b *Backend) enter(method string) error {
	b.mu.Lock()
	b.calls[method]++
	hook := b.before[method]
	err := b.fail[method]
	b.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrBackend, err)
	}
	return nil
}

func backendErr(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", common.ErrBackend, sentinel, fmt.Sprintf(format, args...))
}

func (b *Backend) nextID(prefix string) string {
	b.seq++
	return fmt.Sprintf("%s-%d", prefix, b.seq)
}

func (b *Backend) now() time.Time {
	t := b.clock
	b.clock = b.clock.Add(time.Second)
	return t
}

func (b *Backend) authLocked() error {
	if b.current == "" {
		return backendErr(common.ErrUnauthorized, "not signed in")
	}
	return nil
}

func (b *Backend) registerLocked(email, displayName string, salt, verifier []byte) models.User {
	u := models.User{ID: b.nextID("user"), Email: email, DisplayName: displayName, CreatedAt: b.now()}
	b.accounts[email] = &account{user: u, salt: salt, verifier: verifier}
	ts := b.now()
	f := models.Folder{
		ID:        b.nextID("folder"),
		UserID:    u.ID,
		Name:      common.DefaultFolderName,
		Kind:      models.FolderKindDefault,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	b.folders[f.ID] = f
	return u
}

func (b *Backend) Ping(ctx context.Context) error {
	return b.enter("Ping")
}

func (b *Backend) Close() error {
	return nil
}

func (b *Backend) Register(ctx context.Context, email, displayName string, salt, verifier []byte) (*models.User, error) {
	if err := b.enter("Register"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.accounts[email]; ok {
		return nil, backendErr(common.ErrAlreadyExists, "user %s", email)
	}
	u := b.registerLocked(email, displayName, salt, verifier)
	return &u, nil
}

func (b *Backend) GetSalt(ctx context.Context, email string) ([]byte, error) {
	if err := b.enter("GetSalt"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if a, ok := b.accounts[email]; ok {
		return a.salt, nil
	}
	return []byte("fake-salt-" + email), nil
}

func (b *Backend) Login(ctx context.Context, email string, verifier []byte) (*models.User, error) {
	if err := b.enter("Login"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.accounts[email]
	if !ok || !bytes.Equal(a.verifier, verifier) {
		return nil, backendErr(common.ErrUnauthorized, "bad credentials")
	}
	b.current = a.user.ID
	u := a.user
	return &u, nil
}

func (b *Backend) Restore(ctx context.Context) (*models.User, error) {
	if err := b.enter("Restore"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, a := range b.accounts {
		if a.user.ID == b.current {
			u := a.user
			return &u, nil
		}
	}
	return nil, fmt.Errorf("%w: no saved session", common.ErrUnauthorized)
}

func (b *Backend) Logout(ctx context.Context) error {
	if err := b.enter("Logout"); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = ""
	return nil
}

func (b *Backend) RequestPasswordReset(ctx context.Context, email string) error {
	if err := b.enter("RequestPasswordReset"); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.accounts[email]; ok {
		b.resets[b.nextID("reset")] = email
	}
	return nil
}

func (b *Backend) ResetPassword(ctx context.Context, token string, salt, verifier []byte) error {
	if err := b.enter("ResetPassword"); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	email, ok := b.resets[token]
	if !ok {
		return backendErr(common.ErrInvalidToken, "reset token")
	}
	delete(b.resets, token)
	a := b.accounts[email]
	a.salt, a.verifier = salt, verifier
	return nil
}

func (b *Backend) folderLocked(id string) (models.Folder, error) {
	f, ok := b.folders[id]
	if !ok || f.UserID != b.current {
		return models.Folder{}, backendErr(common.ErrNotFound, "folder %s", id)
	}
	return f, nil
}

func (b *Backend) convLocked(id string) (models.Conversation, error) {
	c, ok := b.convs[id]
	if !ok || c.UserID != b.current {
		return models.Conversation{}, backendErr(common.ErrNotFound, "conversation %s", id)
	}
	return c, nil
}

func (b *Backend) ListFolders(ctx context.Context) ([]models.Folder, error) {
	if err := b.enter("ListFolders"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.authLocked(); err != nil {
		return nil, err
	}
	var out []models.Folder
	for _, f := range b.folders {
		if f.UserID == b.current {
			out = append(out, f)
		}
	}
	models.SortFolders(out)
	return out, nil
}

func (b *Backend) CreateFolder(ctx context.Context, name string) (*models.Folder, error) {
	if err := b.enter("CreateFolder"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.authLocked(); err != nil {
		return nil, err
	}
	if common.IsBlank(name) {
		name = common.UntitledFolderName
	}
	ts := b.now()
	f := models.Folder{ID: b.nextID("folder"), UserID: b.current, Name: name, Kind: models.FolderKindUser, CreatedAt: ts, UpdatedAt: ts}
	b.folders[f.ID] = f
	return &f, nil
}

func (b *Backend) RenameFolder(ctx context.Context, id, name string) (*models.Folder, error) {
	if err := b.enter("RenameFolder"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	f, err := b.folderLocked(id)
	if err != nil {
		return nil, err
	}
	f.Name = name
	f.UpdatedAt = b.now()
	b.folders[id] = f
	return &f, nil
}

func (b *Backend) DeleteFolder(ctx context.Context, id string) ([]string, error) {
	if err := b.enter("DeleteFolder"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	f, err := b.folderLocked(id)
	if err != nil {
		return nil, err
	}
	if f.IsDefault() {
		return nil, backendErr(common.ErrValidation, "the default folder cannot be deleted")
	}
	var removed []string
	for cid, c := range b.convs {
		if c.FolderID == id {
			b.deleteConvLocked(cid)
			removed = append(removed, cid)
		}
	}
	slices.Sort(removed)
	delete(b.folders, id)
	return removed, nil
}

func (b *Backend) deleteConvLocked(id string) {
	for _, m := range b.messages[id] {
		for _, a := range m.Attachments {
			delete(b.attachments, a.ID)
			delete(b.uploaded, a.ID)
		}
	}
	delete(b.messages, id)
	delete(b.convs, id)
}

func (b *Backend) ListConversations(ctx context.Context, folderID string) ([]models.Conversation, error) {
	if err := b.enter("ListConversations"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.authLocked(); err != nil {
		return nil, err
	}
	var out []models.Conversation
	for _, c := range b.convs {
		if c.UserID == b.current && (folderID == "" || c.FolderID == folderID) {
			out = append(out, c)
		}
	}
	models.SortConversations(out)
	return out, nil
}

func (b *Backend) CreateConversation(ctx context.Context, folderID, title string) (*models.Conversation, error) {
	if err := b.enter("CreateConversation"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.folderLocked(folderID); err != nil {
		return nil, err
	}
	if common.IsBlank(title) {
		title = common.NewChatTitle
	}
	ts := b.now()
	c := models.Conversation{ID: b.nextID("conv"), UserID: b.current, FolderID: folderID, Title: title, CreatedAt: ts, UpdatedAt: ts}
	b.convs[c.ID] = c
	return &c, nil
}

func (b *Backend) UpdateConversation(ctx context.Context, id string, title, folderID *string) (*models.Conversation, error) {
	if err := b.enter("UpdateConversation"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	c, err := b.convLocked(id)
	if err != nil {
		return nil, err
	}
	if title != nil {
		if common.IsBlank(*title) {
			return nil, backendErr(common.ErrValidation, "title must not be empty")
		}
		c.Title = *title
	}
	if folderID != nil {
		if _, err := b.folderLocked(*folderID); err != nil {
			return nil, err
		}
		c.FolderID = *folderID
	}
	c.UpdatedAt = b.now()
	b.convs[id] = c
	return &c, nil
}

func (b *Backend) DeleteConversation(ctx context.Context, id string) error {
	if err := b.enter("DeleteConversation"); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.convLocked(id); err != nil {
		return err
	}
	b.deleteConvLocked(id)
	return nil
}

func (b *Backend) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	if err := b.enter("ListMessages"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.convLocked(conversationID); err != nil {
		return nil, err
	}
	out := make([]models.Message, 0, len(b.messages[conversationID]))
	for _, m := range b.messages[conversationID] {
		m.Attachments = slices.Clone(m.Attachments)
		for i, a := range m.Attachments {
			if cur, ok := b.attachments[a.ID]; ok {
				m.Attachments[i] = *cur
			}
		}
		out = append(out, m)
	}
	return out, nil
}

func (b *Backend) addLocked(c models.Conversation, role models.Role, content models.Content, files []client.FileSpec) *client.MessageResult {
	msg := models.Message{ID: b.nextID("msg"), ConversationID: c.ID, Role: role, Content: content, CreatedAt: b.now()}

	var uploads []client.UploadTask
	for _, f := range files {
		a := models.Attachment{
			ID:          b.nextID("att"),
			MessageID:   msg.ID,
			FileName:    f.FileName,
			ContentType: f.ContentType,
			Size:        f.Size,
			StoragePath: models.AttachmentPath(c.UserID, c.FolderID, c.ID, msg.ID, f.FileName),
			Status:      models.AttachmentPending,
			CreatedAt:   msg.CreatedAt,
		}
		b.attachments[a.ID] = &a
		msg.Attachments = append(msg.Attachments, a)
		uploads = append(uploads, client.UploadTask{
			AttachmentID: a.ID,
			FileName:     a.FileName,
			ContentType:  a.ContentType,
			UploadURL:    "mem://" + a.StoragePath,
		})
	}
	b.messages[c.ID] = append(b.messages[c.ID], msg)

	preview := msg.Preview(common.PreviewLength)
	c.LastMessage = &preview
	c.UpdatedAt = msg.CreatedAt
	b.convs[c.ID] = c

	return &client.MessageResult{Message: msg, Conversation: c, Uploads: uploads}
}

func (b *Backend) AddMessage(ctx context.Context, conversationID string, role models.Role, content models.Content, files []client.FileSpec) (*client.MessageResult, error) {
	if err := b.enter("AddMessage"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	c, err := b.convLocked(conversationID)
	if err != nil {
		return nil, err
	}
	if (content == nil || common.IsBlank(content.PlainText())) && len(files) == 0 {
		return nil, backendErr(common.ErrValidation, "message is empty")
	}
	return b.addLocked(c, role, content, files), nil
}

func (b *Backend) GenerateReply(ctx context.Context, conversationID string) (*client.MessageResult, error) {
	if err := b.enter("GenerateReply"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	c, err := b.convLocked(conversationID)
	if err != nil {
		return nil, err
	}

	reply := b.reply
	if reply == nil {
		last := ""
		for _, m := range b.messages[conversationID] {
			if m.Role == models.RoleUser {
				last = m.Content.PlainText()
			}
		}
		reply = models.Text("You said: " + last)
	}
	return b.addLocked(c, models.RoleAssistant, reply, nil), nil
}

func (b *Backend) Upload(ctx context.Context, task client.UploadTask, data []byte) (*models.Attachment, error) {
	if err := b.enter("Upload"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.attachments[task.AttachmentID]
	if !ok {
		return nil, backendErr(common.ErrNotFound, "attachment %s", task.AttachmentID)
	}
	b.uploaded[a.ID] = slices.Clone(data)
	a.Status = models.AttachmentUploaded
	a.DownloadURL = "mem://" + a.StoragePath + "?download"
	out := *a
	return &out, nil
}

func (b *Backend) ConversationFiles(ctx context.Context, conversationID string) ([]models.FileEntry, error) {
	if err := b.enter("ConversationFiles"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.convLocked(conversationID); err != nil {
		return nil, err
	}
	var out []models.FileEntry
	for _, m := range b.messages[conversationID] {
		for _, a := range m.Attachments {
			data, ok := b.uploaded[a.ID]
			if !ok {
				continue
			}
			cur := b.attachments[a.ID]
			out = append(out, models.FileEntry{
				Path:         cur.StoragePath,
				Name:         cur.FileName,
				Size:         int64(len(data)),
				LastModified: cur.CreatedAt,
				DownloadURL:  cur.DownloadURL,
			})
		}
	}
	slices.SortFunc(out, func(x, y models.FileEntry) int { return strings.Compare(x.Path, y.Path) })
	return out, nil
}
