// Package common contains shared constants and sentinel errors used across
// gophchat components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

const (
	// DefaultFolderName is the name of the folder every new user gets.
	DefaultFolderName = "Default"
	// UntitledFolderName replaces an empty folder name on the backend.
	UntitledFolderName = "Untitled Folder"
	// NewChatTitle is used for conversations created without a title.
	NewChatTitle = "New chat"
	// PreviewLength caps the denormalized last message preview, in runes.
	PreviewLength = 100
)
