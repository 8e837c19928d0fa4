package client

import (
	"context"

	"github.com/dmitrijs2005/gophchat/internal/chatapi"
	"github.com/dmitrijs2005/gophchat/internal/models"
)

type (
	FileSpec   = chatapi.FileSpec
	UploadTask = chatapi.UploadTask
)

// MessageResult is what the backend returns for a new message: the stored
// message, its conversation with the refreshed preview, and one upload task
// per declared file.
type MessageResult struct {
	Message      models.Message
	Conversation models.Conversation
	Uploads      []UploadTask
}

// Auth is the account side of the backend. Passwords never cross it; the
// caller derives the verifier.
type Auth interface {
	Register(ctx context.Context, email, displayName string, salt, verifier []byte) (*models.User, error)
	GetSalt(ctx context.Context, email string) ([]byte, error)
	Login(ctx context.Context, email string, verifier []byte) (*models.User, error)
	// Restore resumes the session kept in the token store.
	Restore(ctx context.Context) (*models.User, error)
	Logout(ctx context.Context) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token string, salt, verifier []byte) error
}

// Documents is the folder, conversation and message store of the signed in
// user.
type Documents interface {
	ListFolders(ctx context.Context) ([]models.Folder, error)
	CreateFolder(ctx context.Context, name string) (*models.Folder, error)
	RenameFolder(ctx context.Context, id, name string) (*models.Folder, error)
	DeleteFolder(ctx context.Context, id string) ([]string, error)

	// ListConversations lists one folder, or all conversations when
	// folderID is empty.
	ListConversations(ctx context.Context, folderID string) ([]models.Conversation, error)
	CreateConversation(ctx context.Context, folderID, title string) (*models.Conversation, error)
	// UpdateConversation merges the non-nil fields.
	UpdateConversation(ctx context.Context, id string, title, folderID *string) (*models.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error

	ListMessages(ctx context.Context, conversationID string) ([]models.Message, error)
	AddMessage(ctx context.Context, conversationID string, role models.Role, content models.Content, files []FileSpec) (*MessageResult, error)
	GenerateReply(ctx context.Context, conversationID string) (*MessageResult, error)
}

// Objects moves attachment bytes to and from object storage.
type Objects interface {
	// Upload sends data to the presigned URL of task and returns the
	// attachment once the backend has marked it uploaded.
	Upload(ctx context.Context, task UploadTask, data []byte) (*models.Attachment, error)
	ConversationFiles(ctx context.Context, conversationID string) ([]models.FileEntry, error)
}

// Backend bundles every capability the client needs.
type Backend interface {
	Auth
	Documents
	Objects
	Ping(ctx context.Context) error
	Close() error
}

// TokenStore persists the refresh token between runs.
// metadata.Repository satisfies it.
type TokenStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// RefreshTokenKey is the TokenStore key of the refresh token.
const RefreshTokenKey = "refresh_token"
