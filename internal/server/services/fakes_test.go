package services

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/dbx"
	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/models"
	"github.com/dmitrijs2005/gophchat/internal/server/assistant"
	"github.com/dmitrijs2005/gophchat/internal/server/config"
	smodels "github.com/dmitrijs2005/gophchat/internal/server/models"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/attachments"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/conversations"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/folders"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/messages"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/resettokens"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// memDB is an in-memory stand-in for the Postgres repositories. It ignores
// the DBTX it is handed; transactions are observed through sqlmock instead.
type memDB struct {
	mu sync.Mutex

	users   map[string]*smodels.User
	refresh map[string]smodels.RefreshToken
	reset   map[string]smodels.ResetToken
	folders map[string]models.Folder
	convs   map[string]models.Conversation
	msgs    map[string]storedMessage
	atts    map[string]storedAttachment

	// fail makes the named operation ("folders.Delete") return the error.
	fail map[string]error
	tick time.Time
}

type storedMessage struct {
	userID string
	msg    models.Message
}

type storedAttachment struct {
	userID string
	att    models.Attachment
}

func newMemDB() *memDB {
	return &memDB{
		users:   map[string]*smodels.User{},
		refresh: map[string]smodels.RefreshToken{},
		reset:   map[string]smodels.ResetToken{},
		folders: map[string]models.Folder{},
		convs:   map[string]models.Conversation{},
		msgs:    map[string]storedMessage{},
		atts:    map[string]storedAttachment{},
		fail:    map[string]error{},
		tick:    time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

// now returns strictly increasing timestamps so ordering is deterministic.
func (m *memDB) now() time.Time {
	m.tick = m.tick.Add(time.Second)
	return m.tick
}

func (m *memDB) failed(op string) error {
	return m.fail[op]
}

type memRepoManager struct{ db *memDB }

func (r *memRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (r *memRepoManager) Users(dbx.DBTX) users.Repository              { return memUsers{r.db} }
func (r *memRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return memRefresh{r.db}
}
func (r *memRepoManager) ResetTokens(dbx.DBTX) resettokens.Repository { return memReset{r.db} }
func (r *memRepoManager) Folders(dbx.DBTX) folders.Repository         { return memFolders{r.db} }
func (r *memRepoManager) Conversations(dbx.DBTX) conversations.Repository {
	return memConversations{r.db}
}
func (r *memRepoManager) Messages(dbx.DBTX) messages.Repository       { return memMessages{r.db} }
func (r *memRepoManager) Attachments(dbx.DBTX) attachments.Repository { return memAttachments{r.db} }

// users

type memUsers struct{ *memDB }

func (m memUsers) Create(ctx context.Context, u *smodels.User) (*smodels.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failed("users.Create"); err != nil {
		return nil, err
	}
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return nil, common.ErrAlreadyExists
		}
	}
	cp := *u
	cp.ID = uuid.NewString()
	cp.CreatedAt = m.now()
	m.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m memUsers) GetByEmail(ctx context.Context, email string) (*smodels.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failed("users.GetByEmail"); err != nil {
		return nil, err
	}
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m memUsers) GetByID(ctx context.Context, id string) (*smodels.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m memUsers) UpdateCredentials(ctx context.Context, id string, salt, verifier []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failed("users.UpdateCredentials"); err != nil {
		return err
	}
	u, ok := m.users[id]
	if !ok {
		return common.ErrNotFound
	}
	u.Salt, u.Verifier = salt, verifier
	return nil
}

// refresh tokens

type memRefresh struct{ *memDB }

func (m memRefresh) Create(ctx context.Context, userID, hash string, validity time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failed("refresh.Create"); err != nil {
		return err
	}
	m.refresh[hash] = smodels.RefreshToken{UserID: userID, TokenHash: hash, Expires: time.Now().Add(validity)}
	return nil
}

func (m memRefresh) Find(ctx context.Context, hash string) (*smodels.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.refresh[hash]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &t, nil
}

func (m memRefresh) Delete(ctx context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failed("refresh.Delete"); err != nil {
		return err
	}
	delete(m.refresh, hash)
	return nil
}

func (m memRefresh) DeleteByUser(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for h, t := range m.refresh {
		if t.UserID == userID {
			delete(m.refresh, h)
		}
	}
	return nil
}

// reset tokens

type memReset struct{ *memDB }

func (m memReset) Create(ctx context.Context, userID, hash string, validity time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset[hash] = smodels.ResetToken{UserID: userID, TokenHash: hash, Expires: time.Now().Add(validity)}
	return nil
}

func (m memReset) Find(ctx context.Context, hash string) (*smodels.ResetToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.reset[hash]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &t, nil
}

func (m memReset) Delete(ctx context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reset, hash)
	return nil
}

func (m memReset) DeleteByUser(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for h, t := range m.reset {
		if t.UserID == userID {
			delete(m.reset, h)
		}
	}
	return nil
}

// folders

type memFolders struct{ *memDB }

func (m memFolders) Create(ctx context.Context, f *models.Folder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failed("folders.Create"); err != nil {
		return err
	}
	if f.Kind == models.FolderKindDefault {
		for _, existing := range m.folders {
			if existing.UserID == f.UserID && existing.IsDefault() {
				return common.ErrAlreadyExists
			}
		}
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	now := m.now()
	f.CreatedAt, f.UpdatedAt = now, now
	m.folders[f.ID] = *f
	return nil
}

func (m memFolders) Get(ctx context.Context, userID, id string) (*models.Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.folders[id]
	if !ok || f.UserID != userID {
		return nil, common.ErrNotFound
	}
	return &f, nil
}

func (m memFolders) List(ctx context.Context, userID string) ([]models.Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failed("folders.List"); err != nil {
		return nil, err
	}
	out := []models.Folder{}
	for _, f := range m.folders {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m memFolders) GetDefault(ctx context.Context, userID string) (*models.Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.folders {
		if f.UserID == userID && f.IsDefault() {
			return &f, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m memFolders) Rename(ctx context.Context, userID, id, name string) (*models.Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.folders[id]
	if !ok || f.UserID != userID {
		return nil, common.ErrNotFound
	}
	f.Name = name
	f.UpdatedAt = m.now()
	m.folders[id] = f
	return &f, nil
}

// Delete cascades like the foreign keys do.
func (m memFolders) Delete(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failed("folders.Delete"); err != nil {
		return err
	}
	f, ok := m.folders[id]
	if !ok || f.UserID != userID {
		return common.ErrNotFound
	}
	delete(m.folders, id)
	for cid, c := range m.convs {
		if c.FolderID == id {
			m.deleteConversationLocked(cid)
		}
	}
	return nil
}

func (m *memDB) deleteConversationLocked(id string) {
	delete(m.convs, id)
	for mid, sm := range m.msgs {
		if sm.msg.ConversationID != id {
			continue
		}
		delete(m.msgs, mid)
		for aid, sa := range m.atts {
			if sa.att.MessageID == mid {
				delete(m.atts, aid)
			}
		}
	}
}

// conversations

type memConversations struct{ *memDB }

func (m memConversations) Create(ctx context.Context, c *models.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := m.now()
	c.CreatedAt, c.UpdatedAt = now, now
	m.convs[c.ID] = *c
	return nil
}

func (m memConversations) Get(ctx context.Context, userID, id string) (*models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.convs[id]
	if !ok || c.UserID != userID {
		return nil, common.ErrNotFound
	}
	return &c, nil
}

func (m memConversations) List(ctx context.Context, userID, folderID string) ([]models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Conversation{}
	for _, c := range m.convs {
		if c.UserID == userID && (folderID == "" || c.FolderID == folderID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m memConversations) Update(ctx context.Context, userID, id string, p conversations.Patch) (*models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.convs[id]
	if !ok || c.UserID != userID {
		return nil, common.ErrNotFound
	}
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.FolderID != nil {
		c.FolderID = *p.FolderID
	}
	c.UpdatedAt = m.now()
	m.convs[id] = c
	return &c, nil
}

func (m memConversations) Touch(ctx context.Context, userID, id string, preview models.MessagePreview) (*models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.convs[id]
	if !ok || c.UserID != userID {
		return nil, common.ErrNotFound
	}
	p := preview
	c.LastMessage = &p
	c.UpdatedAt = preview.CreatedAt
	m.convs[id] = c
	return &c, nil
}

func (m memConversations) Delete(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.convs[id]
	if !ok || c.UserID != userID {
		return common.ErrNotFound
	}
	m.deleteConversationLocked(id)
	return nil
}

func (m memConversations) IDsByFolder(ctx context.Context, userID, folderID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, c := range m.convs {
		if c.UserID == userID && c.FolderID == folderID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// messages

type memMessages struct{ *memDB }

func (m memMessages) Create(ctx context.Context, userID string, msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failed("messages.Create"); err != nil {
		return err
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.CreatedAt = m.now()
	stored := *msg
	stored.Attachments = nil
	m.msgs[msg.ID] = storedMessage{userID: userID, msg: stored}
	return nil
}

func (m memMessages) Get(ctx context.Context, userID, id string) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sm, ok := m.msgs[id]
	if !ok || sm.userID != userID {
		return nil, common.ErrNotFound
	}
	return &sm.msg, nil
}

func (m memMessages) List(ctx context.Context, userID, conversationID string) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Message{}
	for _, sm := range m.msgs {
		if sm.userID == userID && sm.msg.ConversationID == conversationID {
			out = append(out, sm.msg)
		}
	}
	return out, nil
}

// attachments

type memAttachments struct{ *memDB }

func (m memAttachments) Create(ctx context.Context, userID string, a *models.Attachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = m.now()
	m.atts[a.ID] = storedAttachment{userID: userID, att: *a}
	return nil
}

func (m memAttachments) Get(ctx context.Context, userID, id string) (*models.Attachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sa, ok := m.atts[id]
	if !ok || sa.userID != userID {
		return nil, common.ErrNotFound
	}
	return &sa.att, nil
}

func (m memAttachments) ListByConversation(ctx context.Context, userID, conversationID string) ([]models.Attachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Attachment{}
	for _, sa := range m.atts {
		if sa.userID == userID && m.msgs[sa.att.MessageID].msg.ConversationID == conversationID {
			out = append(out, sa.att)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m memAttachments) MarkUploaded(ctx context.Context, userID, id string) (*models.Attachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sa, ok := m.atts[id]
	if !ok || sa.userID != userID {
		return nil, common.ErrNotFound
	}
	sa.att.Status = models.AttachmentUploaded
	m.atts[id] = sa
	return &sa.att, nil
}

func (m memAttachments) StoragePathsByConversation(ctx context.Context, userID, conversationID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, sa := range m.atts {
		if sa.userID == userID && m.msgs[sa.att.MessageID].msg.ConversationID == conversationID {
			out = append(out, sa.att.StoragePath)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m memAttachments) StoragePathsByFolder(ctx context.Context, userID, folderID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, sa := range m.atts {
		conv := m.convs[m.msgs[sa.att.MessageID].msg.ConversationID]
		if sa.userID == userID && conv.FolderID == folderID {
			out = append(out, sa.att.StoragePath)
		}
	}
	sort.Strings(out)
	return out, nil
}

// memStorage fakes the S3 object store.
type memStorage struct {
	mu         sync.Mutex
	objects    map[string]int64
	deleted    []string
	deleteErr  map[string]error
	presignErr error
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string]int64{}, deleteErr: map[string]error{}}
}

func (s *memStorage) put(key string, size int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = size
}

func (s *memStorage) PresignPut(ctx context.Context, key, contentType string) (string, error) {
	if s.presignErr != nil {
		return "", s.presignErr
	}
	return "put://" + key, nil
}

func (s *memStorage) PresignGet(ctx context.Context, key string) (string, error) {
	if s.presignErr != nil {
		return "", s.presignErr
	}
	return "get://" + key, nil
}

func (s *memStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.deleteErr[key]; err != nil {
		return err
	}
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *memStorage) List(ctx context.Context, prefix string) ([]models.FileEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.FileEntry
	for k, size := range s.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, models.FileEntry{Path: k, Name: k[strings.LastIndex(k, "/")+1:], Size: size})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// fakeMailer records reset tokens instead of mailing them.
type fakeMailer struct {
	mu     sync.Mutex
	tokens map[string]string
	err    error
}

func (f *fakeMailer) SendPasswordReset(ctx context.Context, to, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.tokens == nil {
		f.tokens = map[string]string{}
	}
	f.tokens[to] = token
	return nil
}

type stubResponder struct {
	reply   models.Content
	err     error
	history []models.Message
}

func (s *stubResponder) Reply(ctx context.Context, history []models.Message) (models.Content, error) {
	s.history = history
	return s.reply, s.err
}

var _ assistant.Responder = (*stubResponder)(nil)

// harness wires services over the fakes.
type harness struct {
	db      *sql.DB
	mock    sqlmock.Sqlmock
	mem     *memDB
	storage *memStorage
	mailer  *fakeMailer
	users   *UserService
	files   *FileService
	chat    *ChatService
	reply   *stubResponder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	h := &harness{
		db:      db,
		mock:    mock,
		mem:     newMemDB(),
		storage: newMemStorage(),
		mailer:  &fakeMailer{},
		reply:   &stubResponder{reply: models.Text("Hi there!")},
	}
	rm := &memRepoManager{db: h.mem}
	cfg := &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
		ResetTokenValidityDuration:   time.Hour,
	}
	h.users = NewUserService(db, rm, h.mailer, cfg, logging.Nop())
	h.files = NewFileService(db, rm, h.storage, logging.Nop())
	h.chat = NewChatService(db, rm, h.files, h.reply, logging.Nop())
	return h
}

// expectTx registers one transaction that commits, or rolls back.
func (h *harness) expectTx(commit bool) {
	h.mock.ExpectBegin()
	if commit {
		h.mock.ExpectCommit()
	} else {
		h.mock.ExpectRollback()
	}
}

// signup registers a user through the service and returns its id.
func (h *harness) signup(t *testing.T, email string) string {
	t.Helper()
	h.expectTx(true)
	u, err := h.users.Register(context.Background(), email, "", []byte("salt"), []byte("verifier"))
	require.NoError(t, err)
	return u.ID
}

func (h *harness) defaultFolder(t *testing.T, userID string) models.Folder {
	t.Helper()
	f, err := memFolders{h.mem}.GetDefault(context.Background(), userID)
	require.NoError(t, err)
	return *f
}
