// Package store caches the folders, conversations and loaded transcript of
// one signed in user.
//
// Every mutation writes through the backend first; memory is patched only
// when the call succeeds, and each patch bumps a monotonic version. A full
// refetch (Load, Reconcile) remembers the version it started at and drops
// its snapshot if any local mutation landed in the meantime, so a slow
// refetch never overwrites newer local state.
package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/dmitrijs2005/gophchat/internal/client/client"
	"github.com/dmitrijs2005/gophchat/internal/client/foldertree"
	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/models"
)

// Store is safe for concurrent use.
type Store struct {
	docs    client.Documents
	objects client.Objects
	logger  logging.Logger

	mu            sync.Mutex
	version       uint64
	folders       map[string]models.Folder
	conversations map[string]models.Conversation
	tree          *foldertree.Tree
	loadedID      string
	messages      []models.Message
}

func New(docs client.Documents, objects client.Objects, logger logging.Logger) *Store {
	s := &Store{
		docs:    docs,
		objects: objects,
		logger:  logger.With("module", "store"),
	}
	s.resetLocked()
	return s
}

func (s *Store) resetLocked() {
	s.folders = make(map[string]models.Folder)
	s.conversations = make(map[string]models.Conversation)
	s.tree = foldertree.New()
	s.loadedID = ""
	s.messages = nil
}

// Version grows with every successful local mutation.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

func (s *Store) bumpLocked() {
	s.version++
}

// Clear drops every cached value.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	s.bumpLocked()
}

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", common.ErrNotFound, kind, id)
}

// putConversationLocked stores c and files it under its folder.
// Conversations of folders the store does not know are kept out of the
// tree until the next reconcile brings the folder in.
func (s *Store) putConversationLocked(ctx context.Context, c models.Conversation) {
	s.conversations[c.ID] = c
	if !s.tree.HasFolder(c.FolderID) {
		s.tree.RemoveConversation(c.ID)
		s.logger.Warn(ctx, "conversation in unknown folder",
			"conversation_id", c.ID, "folder_id", c.FolderID, "error", common.ErrOrphanData)
		return
	}
	if err := s.tree.AddConversation(c.ID, c.FolderID); err != nil {
		s.logger.Warn(ctx, "failed to place conversation", "conversation_id", c.ID, "error", err)
	}
}

func (s *Store) removeConversationLocked(id string) {
	delete(s.conversations, id)
	s.tree.RemoveConversation(id)
	if s.loadedID == id {
		s.loadedID = ""
		s.messages = nil
	}
}

// Folders returns the folders in display order.
func (s *Store) Folders() []models.Folder {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Folder, 0, len(s.folders))
	for _, f := range s.folders {
		out = append(out, f)
	}
	models.SortFolders(out)
	return out
}

func (s *Store) Folder(id string) (models.Folder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.folders[id]
	return f, ok
}

// DefaultFolder returns the user's default folder when it is loaded.
func (s *Store) DefaultFolder() (models.Folder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.folders {
		if f.IsDefault() {
			return f, true
		}
	}
	return models.Folder{}, false
}

// ConversationsIn returns the conversations of folderID in tree order. The
// caller sorts for display.
func (s *Store) ConversationsIn(folderID string) []models.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.tree.ConversationsOf(folderID)
	out := make([]models.Conversation, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.conversations[id])
	}
	return out
}

func (s *Store) ConversationCount(folderID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tree.ConversationsOf(folderID))
}

func (s *Store) Conversation(id string) (models.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[id]
	return c, ok
}

// FolderOf reports the folder that currently holds conversation id.
func (s *Store) FolderOf(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.FolderOf(id)
}

// Messages returns the cached transcript of conversationID, or nil when a
// different conversation is loaded.
func (s *Store) Messages(conversationID string) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadedID != conversationID {
		return nil
	}
	return slices.Clone(s.messages)
}

func (s *Store) CreateFolder(ctx context.Context, name string) (models.Folder, error) {
	f, err := s.docs.CreateFolder(ctx, name)
	if err != nil {
		return models.Folder{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.folders[f.ID] = *f
	s.tree.AddFolder(f.ID)
	s.bumpLocked()
	return *f, nil
}

func (s *Store) RenameFolder(ctx context.Context, id, name string) (models.Folder, error) {
	if _, ok := s.Folder(id); !ok {
		return models.Folder{}, notFound("folder", id)
	}

	f, err := s.docs.RenameFolder(ctx, id, name)
	if err != nil {
		return models.Folder{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.folders[f.ID] = *f
	s.bumpLocked()
	return *f, nil
}

// DeleteFolder removes the folder and, with it, all of its conversations.
// It returns the ids of the conversations that went away.
func (s *Store) DeleteFolder(ctx context.Context, id string) ([]string, error) {
	if _, ok := s.Folder(id); !ok {
		return nil, notFound("folder", id)
	}

	removed, err := s.docs.DeleteFolder(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	local, err := s.tree.RemoveFolder(id)
	if err != nil {
		s.logger.Warn(ctx, "folder vanished during delete", "folder_id", id, "error", err)
	}
	for _, c := range local {
		if !slices.Contains(removed, c) {
			removed = append(removed, c)
		}
	}
	for _, c := range removed {
		s.removeConversationLocked(c)
	}
	delete(s.folders, id)
	s.bumpLocked()
	return removed, nil
}

func (s *Store) CreateConversation(ctx context.Context, folderID, title string) (models.Conversation, error) {
	if _, ok := s.Folder(folderID); !ok {
		return models.Conversation{}, notFound("folder", folderID)
	}

	c, err := s.docs.CreateConversation(ctx, folderID, title)
	if err != nil {
		return models.Conversation{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.putConversationLocked(ctx, *c)
	s.bumpLocked()
	return *c, nil
}

func (s *Store) RenameConversation(ctx context.Context, id, title string) (models.Conversation, error) {
	if _, ok := s.Conversation(id); !ok {
		return models.Conversation{}, notFound("conversation", id)
	}

	c, err := s.docs.UpdateConversation(ctx, id, &title, nil)
	if err != nil {
		return models.Conversation{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.putConversationLocked(ctx, *c)
	s.bumpLocked()
	return *c, nil
}

// MoveConversation reassigns conversation id to folderID. Moving into the
// folder that already holds it makes no backend call.
func (s *Store) MoveConversation(ctx context.Context, id, folderID string) (models.Conversation, error) {
	conv, ok := s.Conversation(id)
	if !ok {
		return models.Conversation{}, notFound("conversation", id)
	}
	if _, ok := s.Folder(folderID); !ok {
		return models.Conversation{}, notFound("folder", folderID)
	}
	if current, ok := s.FolderOf(id); ok && current == folderID {
		return conv, nil
	}

	c, err := s.docs.UpdateConversation(ctx, id, nil, &folderID)
	if err != nil {
		return models.Conversation{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[c.ID] = *c
	if err := s.tree.Assign(c.ID, c.FolderID); err != nil {
		// The folder went away while the call was in flight.
		s.putConversationLocked(ctx, *c)
	}
	s.bumpLocked()
	return *c, nil
}

func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	if _, ok := s.Conversation(id); !ok {
		return notFound("conversation", id)
	}

	if err := s.docs.DeleteConversation(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeConversationLocked(id)
	s.bumpLocked()
	return nil
}

// ConversationFiles lists every stored object of a conversation.
func (s *Store) ConversationFiles(ctx context.Context, conversationID string) ([]models.FileEntry, error) {
	if _, ok := s.Conversation(conversationID); !ok {
		return nil, notFound("conversation", conversationID)
	}
	return s.objects.ConversationFiles(ctx, conversationID)
}
