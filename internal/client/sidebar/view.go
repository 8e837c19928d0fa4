package sidebar

import (
	"slices"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/client/datebucket"
	"github.com/dmitrijs2005/gophchat/internal/models"
)

type FolderView struct {
	ID       string
	Name     string
	Default  bool
	Count    int
	Expanded bool
	Selected bool
}

type ConversationView struct {
	ID        string
	Title     string
	Preview   string
	Timestamp time.Time
	Selected  bool
}

// Group is one date bucket of the selected folder.
type Group struct {
	Label         string
	Conversations []ConversationView
}

// View is the render model of the sidebar.
type View struct {
	State   State
	Folders []FolderView
	Groups  []Group
	Error   string
}

// groupConversations buckets convs relative to now. Groups come in display
// order, items newest first; empty groups never appear.
func groupConversations(convs []models.Conversation, now time.Time, selectedID string) []Group {
	models.SortConversations(convs)

	type bucketed struct {
		bucket datebucket.Bucket
		items  []ConversationView
	}
	var groups []*bucketed
	index := make(map[string]*bucketed)

	for _, c := range convs {
		b := datebucket.For(c.Timestamp(), now)
		g, ok := index[b.Label]
		if !ok {
			g = &bucketed{bucket: b}
			index[b.Label] = g
			groups = append(groups, g)
		}
		g.items = append(g.items, conversationView(c, selectedID))
	}

	slices.SortStableFunc(groups, func(a, b *bucketed) int {
		switch {
		case datebucket.Less(a.bucket, b.bucket):
			return -1
		case datebucket.Less(b.bucket, a.bucket):
			return 1
		}
		return 0
	})

	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		out = append(out, Group{Label: g.bucket.Label, Conversations: g.items})
	}
	return out
}

func conversationView(c models.Conversation, selectedID string) ConversationView {
	v := ConversationView{
		ID:        c.ID,
		Title:     c.Title,
		Timestamp: c.Timestamp(),
		Selected:  c.ID == selectedID,
	}
	if c.LastMessage != nil {
		v.Preview = c.LastMessage.Content
	}
	return v
}
