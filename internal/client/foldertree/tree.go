// Package foldertree keeps the in-memory assignment of conversations to
// folders. Every conversation known to a Tree belongs to exactly one known
// folder; moves swap membership in a single step.
package foldertree

import (
	"fmt"
	"slices"

	"github.com/dmitrijs2005/gophchat/internal/common"
)

// Tree is not safe for concurrent use; its owner serializes access.
type Tree struct {
	folders  []string
	members  map[string][]string // folder id -> conversation ids, insertion order
	folderOf map[string]string   // conversation id -> folder id
}

func New() *Tree {
	return &Tree{
		members:  make(map[string][]string),
		folderOf: make(map[string]string),
	}
}

// AddFolder registers an empty folder. Adding a known folder is a no-op.
func (t *Tree) AddFolder(id string) {
	if _, ok := t.members[id]; ok {
		return
	}
	t.folders = append(t.folders, id)
	t.members[id] = nil
}

func (t *Tree) HasFolder(id string) bool {
	_, ok := t.members[id]
	return ok
}

// Folders returns folder ids in the order they were added.
func (t *Tree) Folders() []string {
	return slices.Clone(t.folders)
}

// AddConversation places a new conversation into folderID. A conversation
// that is already known is moved instead.
func (t *Tree) AddConversation(convID, folderID string) error {
	if !t.HasFolder(folderID) {
		return fmt.Errorf("%w: folder %s", common.ErrNotFound, folderID)
	}
	if _, ok := t.folderOf[convID]; ok {
		return t.Assign(convID, folderID)
	}
	t.members[folderID] = append(t.members[folderID], convID)
	t.folderOf[convID] = folderID
	return nil
}

// Assign moves convID into folderID. Assigning a conversation to the folder
// it is already in changes nothing.
func (t *Tree) Assign(convID, folderID string) error {
	if !t.HasFolder(folderID) {
		return fmt.Errorf("%w: folder %s", common.ErrNotFound, folderID)
	}
	current, ok := t.folderOf[convID]
	if !ok {
		return fmt.Errorf("%w: conversation %s", common.ErrNotFound, convID)
	}
	if current == folderID {
		return nil
	}

	t.members[current] = remove(t.members[current], convID)
	t.members[folderID] = append(t.members[folderID], convID)
	t.folderOf[convID] = folderID
	return nil
}

// ConversationsOf lists the conversations of folderID in insertion order.
// Unknown folders yield nil.
func (t *Tree) ConversationsOf(folderID string) []string {
	return slices.Clone(t.members[folderID])
}

// FolderOf reports the folder holding convID.
func (t *Tree) FolderOf(convID string) (string, bool) {
	f, ok := t.folderOf[convID]
	return f, ok
}

func (t *Tree) RemoveConversation(convID string) {
	folderID, ok := t.folderOf[convID]
	if !ok {
		return
	}
	t.members[folderID] = remove(t.members[folderID], convID)
	delete(t.folderOf, convID)
}

// RemoveFolder drops folderID together with its conversations and returns
// the ids of the conversations removed.
func (t *Tree) RemoveFolder(folderID string) ([]string, error) {
	convs, ok := t.members[folderID]
	if !ok {
		return nil, fmt.Errorf("%w: folder %s", common.ErrNotFound, folderID)
	}
	for _, c := range convs {
		delete(t.folderOf, c)
	}
	delete(t.members, folderID)
	t.folders = remove(t.folders, folderID)
	return convs, nil
}

// Len is the number of conversations in the tree.
func (t *Tree) Len() int {
	return len(t.folderOf)
}

func remove(s []string, v string) []string {
	i := slices.Index(s, v)
	if i < 0 {
		return s
	}
	return slices.Delete(s, i, i+1)
}
