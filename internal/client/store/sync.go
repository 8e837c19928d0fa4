package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/models"
)

type snapshot struct {
	folders       []models.Folder
	conversations []models.Conversation
}

func (s *Store) fetch(ctx context.Context) (*snapshot, error) {
	folders, err := s.docs.ListFolders(ctx)
	if err != nil {
		return nil, err
	}
	convs, err := s.docs.ListConversations(ctx, "")
	if err != nil {
		return nil, err
	}
	return &snapshot{folders: folders, conversations: convs}, nil
}

// applyLocked replaces folders and conversations with snap. The loaded
// transcript survives unless its conversation is gone.
func (s *Store) applyLocked(ctx context.Context, snap *snapshot) {
	loadedID, messages := s.loadedID, s.messages
	s.resetLocked()

	models.SortFolders(snap.folders)
	for _, f := range snap.folders {
		s.folders[f.ID] = f
		s.tree.AddFolder(f.ID)
	}

	models.SortConversations(snap.conversations)
	for _, c := range snap.conversations {
		s.putConversationLocked(ctx, c)
	}

	if _, ok := s.conversations[loadedID]; ok {
		s.loadedID, s.messages = loadedID, messages
	}
}

// Reconcile refetches folders and conversations and applies them unless a
// local mutation happened during the fetch. It reports whether the
// snapshot was applied.
func (s *Store) Reconcile(ctx context.Context) (bool, error) {
	v := s.Version()

	snap, err := s.fetch(ctx)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version != v {
		s.logger.Debug(ctx, "stale snapshot dropped", "started_at", v, "now", s.version)
		return false, nil
	}
	s.applyLocked(ctx, snap)
	return true, nil
}

// Load fills the store for a new session.
func (s *Store) Load(ctx context.Context) error {
	applied, err := s.Reconcile(ctx)
	if err != nil {
		return err
	}
	if !applied {
		return fmt.Errorf("%w: store changed while loading", common.ErrVersionConflict)
	}
	s.logger.Debug(ctx, "store loaded", "folders", len(s.Folders()))
	return nil
}

// StartReconciler runs Reconcile every interval until ctx is cancelled or
// the returned stop function is called. stop waits for the loop to exit.
func (s *Store) StartReconciler(ctx context.Context, interval time.Duration) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := s.Reconcile(ctx); err != nil && ctx.Err() == nil {
					s.logger.Warn(ctx, "reconcile failed", "error", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			wg.Wait()
		})
	}
}
