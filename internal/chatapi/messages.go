package chatapi

import "github.com/dmitrijs2005/gophchat/internal/models"

type Empty struct{}

type PingResponse struct {
	Status string `json:"status"`
}

// Auth

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Salt        []byte `json:"salt"`
	Verifier    []byte `json:"verifier"`
}

type UserResponse struct {
	User models.User `json:"user"`
}

type GetSaltRequest struct {
	Email string `json:"email"`
}

type GetSaltResponse struct {
	Salt []byte `json:"salt"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Verifier []byte `json:"verifier"`
}

type LoginResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         models.User `json:"user"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RequestPasswordResetRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Salt     []byte `json:"salt"`
	Verifier []byte `json:"verifier"`
}

// Folders

type ListFoldersResponse struct {
	Folders []models.Folder `json:"folders"`
}

type CreateFolderRequest struct {
	Name string `json:"name"`
}

type RenameFolderRequest struct {
	FolderID string `json:"folder_id"`
	Name     string `json:"name"`
}

type FolderResponse struct {
	Folder models.Folder `json:"folder"`
}

type DeleteFolderRequest struct {
	FolderID string `json:"folder_id"`
}

type DeleteFolderResponse struct {
	DeletedConversationIDs []string `json:"deleted_conversation_ids"`
}

// Conversations

// ListConversationsRequest lists one folder, or every conversation of the
// user when FolderID is empty.
type ListConversationsRequest struct {
	FolderID string `json:"folder_id,omitempty"`
}

type ListConversationsResponse struct {
	Conversations []models.Conversation `json:"conversations"`
}

type CreateConversationRequest struct {
	FolderID string `json:"folder_id"`
	Title    string `json:"title"`
}

// UpdateConversationRequest is a partial update: nil fields are left as is.
type UpdateConversationRequest struct {
	ConversationID string  `json:"conversation_id"`
	Title          *string `json:"title,omitempty"`
	FolderID       *string `json:"folder_id,omitempty"`
}

type ConversationResponse struct {
	Conversation models.Conversation `json:"conversation"`
}

type DeleteConversationRequest struct {
	ConversationID string `json:"conversation_id"`
}

// Messages

type ListMessagesRequest struct {
	ConversationID string `json:"conversation_id"`
}

type ListMessagesResponse struct {
	Messages []models.Message `json:"messages"`
}

// FileSpec declares a file that will be uploaded with a message.
type FileSpec struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type AddMessageRequest struct {
	ConversationID string                 `json:"conversation_id"`
	Role           models.Role            `json:"role"`
	Content        models.ContentEnvelope `json:"content"`
	Files          []FileSpec             `json:"files,omitempty"`
}

// UploadTask tells the client where to PUT the bytes of one attachment.
type UploadTask struct {
	AttachmentID string `json:"attachment_id"`
	FileName     string `json:"file_name"`
	ContentType  string `json:"content_type"`
	UploadURL    string `json:"upload_url"`
}

type MessageResponse struct {
	Message      models.Message      `json:"message"`
	Conversation models.Conversation `json:"conversation"`
	Uploads      []UploadTask        `json:"uploads,omitempty"`
}

type MarkAttachmentUploadedRequest struct {
	AttachmentID string `json:"attachment_id"`
}

type AttachmentResponse struct {
	Attachment models.Attachment `json:"attachment"`
}

type GenerateReplyRequest struct {
	ConversationID string `json:"conversation_id"`
}

type ListConversationFilesRequest struct {
	ConversationID string `json:"conversation_id"`
}

type ListConversationFilesResponse struct {
	Files []models.FileEntry `json:"files"`
}
