package models

import (
	"fmt"
	"time"
)

type AttachmentStatus string

const (
	AttachmentPending  AttachmentStatus = "pending"
	AttachmentUploaded AttachmentStatus = "uploaded"
)

// Attachment references a file uploaded together with a message. The
// download URL is short-lived and filled in when messages are read.
type Attachment struct {
	ID          string           `json:"id"`
	MessageID   string           `json:"message_id"`
	FileName    string           `json:"file_name"`
	ContentType string           `json:"content_type"`
	Size        int64            `json:"size"`
	StoragePath string           `json:"storage_path"`
	Status      AttachmentStatus `json:"status"`
	DownloadURL string           `json:"download_url,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// FileEntry is one object found under a storage prefix.
type FileEntry struct {
	Path         string    `json:"path"`
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
	DownloadURL  string    `json:"download_url,omitempty"`
}

// AttachmentPath is the object storage key of an uploaded file.
func AttachmentPath(userID, folderID, conversationID, messageID, fileName string) string {
	return fmt.Sprintf("%s/%s", MessagePrefix(userID, folderID, conversationID, messageID), fileName)
}

// MessagePrefix is the storage prefix holding one message's files.
func MessagePrefix(userID, folderID, conversationID, messageID string) string {
	return fmt.Sprintf("%s/%s", ConversationPrefix(userID, folderID, conversationID), messageID)
}

// ConversationPrefix is the storage prefix holding all files of a conversation.
func ConversationPrefix(userID, folderID, conversationID string) string {
	return fmt.Sprintf("user_uploads/%s/folders/%s/conversations/%s", userID, folderID, conversationID)
}
