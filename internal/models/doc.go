// Package models holds the domain types shared by the gophchat client and
// server: users, folders, conversations, messages and their attachments.
//
// Ownership is strictly hierarchical. A user owns folders, a folder owns
// conversations, a conversation owns messages, and a message owns its
// attachments. Every conversation references exactly one folder.
//
// Message content is a closed set of variants (Text and Rich). It travels
// and is stored as a ContentEnvelope so new renderers can switch over the
// concrete type exhaustively.
package models
