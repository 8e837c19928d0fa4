// Package sidebar drives the folder and conversation list of a signed in
// user: selection, grouping by date, drag and drop, and the error banner.
//
// Every failure is logged, stored as the banner text and returned. None of
// them is fatal; the user may simply retry.
package sidebar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/client/store"
	"github.com/dmitrijs2005/gophchat/internal/client/transcript"
	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/models"
)

// Controller is not safe for concurrent use. The store it reads from may be
// refreshed in the background.
type Controller struct {
	store  *store.Store
	logger logging.Logger
	now    func() time.Time

	state          State
	folderID       string
	conversationID string
	collapsed      map[string]bool
	banner         string
}

type Option func(*Controller)

// WithClock replaces time.Now for date grouping.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New returns a controller for a freshly signed in user, with nothing
// selected.
func New(st *store.Store, logger logging.Logger, opts ...Option) *Controller {
	c := &Controller{
		store:     st,
		logger:    logger.With("module", "sidebar"),
		now:       time.Now,
		state:     NoFolderSelected,
		collapsed: make(map[string]bool),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) SelectedFolder() string {
	return c.folderID
}

func (c *Controller) SelectedConversation() string {
	return c.conversationID
}

// Error is the banner text, empty when there is nothing to show.
func (c *Controller) Error() string {
	return c.banner
}

func (c *Controller) DismissError() {
	c.banner = ""
}

// Close ends the session of the controller.
func (c *Controller) Close() {
	c.state = NoUserSelected
	c.folderID = ""
	c.conversationID = ""
	c.collapsed = make(map[string]bool)
}

// fail records err for the banner. Backend failures get a generic retry
// message; validation and not-found errors are shown as they are.
func (c *Controller) fail(ctx context.Context, op string, err error) error {
	c.logger.Error(ctx, "operation failed", "op", op, "error", err)

	c.banner = fmt.Sprintf("Failed to %s. Please try again.", op)
	if !errors.Is(err, common.ErrBackend) &&
		(errors.Is(err, common.ErrValidation) || errors.Is(err, common.ErrNotFound)) {
		c.banner = err.Error()
	}
	return err
}

func (c *Controller) active() error {
	if c.state == NoUserSelected {
		return fmt.Errorf("%w: not signed in", common.ErrUnauthorized)
	}
	return nil
}

func requireName(what, s string) error {
	if common.IsBlank(s) {
		return fmt.Errorf("%w: %s must not be empty", common.ErrValidation, what)
	}
	return nil
}

func (c *Controller) selectFolder(id string) {
	c.state = FolderSelectedNoConversation
	c.folderID = id
	c.conversationID = ""
	delete(c.collapsed, id)
}

func (c *Controller) clearSelection() {
	c.state = NoFolderSelected
	c.folderID = ""
	c.conversationID = ""
}

// SelectFolder selects folder id and clears the conversation selection.
func (c *Controller) SelectFolder(ctx context.Context, id string) error {
	const op = "select folder"
	if err := c.active(); err != nil {
		return c.fail(ctx, op, err)
	}
	if _, ok := c.store.Folder(id); !ok {
		return c.fail(ctx, op, fmt.Errorf("%w: folder %s", common.ErrNotFound, id))
	}
	c.selectFolder(id)
	return nil
}

// SelectConversation loads the transcript of id and makes it active.
func (c *Controller) SelectConversation(ctx context.Context, id string) error {
	const op = "load conversation"
	if err := c.active(); err != nil {
		return c.fail(ctx, op, err)
	}
	conv, ok := c.store.Conversation(id)
	if !ok {
		return c.fail(ctx, op, fmt.Errorf("%w: conversation %s", common.ErrNotFound, id))
	}
	if _, err := c.store.LoadMessages(ctx, id); err != nil {
		return c.fail(ctx, op, err)
	}

	folderID := conv.FolderID
	if f, ok := c.store.FolderOf(id); ok {
		folderID = f
	}
	c.selectFolder(folderID)
	c.state = ConversationActive
	c.conversationID = id
	return nil
}

// CreateFolder rejects blank names before any backend call.
func (c *Controller) CreateFolder(ctx context.Context, name string) (models.Folder, error) {
	const op = "create folder"
	if err := c.active(); err != nil {
		return models.Folder{}, c.fail(ctx, op, err)
	}
	if err := requireName("folder name", name); err != nil {
		return models.Folder{}, c.fail(ctx, op, err)
	}

	f, err := c.store.CreateFolder(ctx, strings.TrimSpace(name))
	if err != nil {
		return models.Folder{}, c.fail(ctx, op, err)
	}
	c.logger.Debug(ctx, "folder created", "folder_id", f.ID)
	return f, nil
}

func (c *Controller) RenameFolder(ctx context.Context, id, name string) error {
	const op = "rename folder"
	if err := c.active(); err != nil {
		return c.fail(ctx, op, err)
	}
	if err := requireName("folder name", name); err != nil {
		return c.fail(ctx, op, err)
	}
	if _, err := c.store.RenameFolder(ctx, id, strings.TrimSpace(name)); err != nil {
		return c.fail(ctx, op, err)
	}
	return nil
}

// DeleteFolder removes the folder with its conversations. Deleting the
// selected folder resets the selection.
func (c *Controller) DeleteFolder(ctx context.Context, id string) error {
	const op = "delete folder"
	if err := c.active(); err != nil {
		return c.fail(ctx, op, err)
	}
	f, ok := c.store.Folder(id)
	if !ok {
		return c.fail(ctx, op, fmt.Errorf("%w: folder %s", common.ErrNotFound, id))
	}
	if f.IsDefault() {
		return c.fail(ctx, op, fmt.Errorf("%w: the default folder cannot be deleted", common.ErrValidation))
	}

	removed, err := c.store.DeleteFolder(ctx, id)
	if err != nil {
		return c.fail(ctx, op, err)
	}
	c.logger.Debug(ctx, "folder deleted", "folder_id", id, "conversations", len(removed))

	delete(c.collapsed, id)
	if c.folderID == id {
		c.clearSelection()
	}
	return nil
}

// CreateConversation creates a conversation in the selected folder, or in
// the default folder when none is selected, and selects it.
func (c *Controller) CreateConversation(ctx context.Context, title string) (models.Conversation, error) {
	const op = "create conversation"
	if err := c.active(); err != nil {
		return models.Conversation{}, c.fail(ctx, op, err)
	}

	folderID := c.folderID
	if folderID == "" {
		def, ok := c.store.DefaultFolder()
		if !ok {
			return models.Conversation{}, c.fail(ctx, op, fmt.Errorf("%w: default folder", common.ErrNotFound))
		}
		folderID = def.ID
	}

	conv, err := c.store.CreateConversation(ctx, folderID, strings.TrimSpace(title))
	if err != nil {
		return models.Conversation{}, c.fail(ctx, op, err)
	}
	if err := c.SelectConversation(ctx, conv.ID); err != nil {
		return conv, err
	}
	return conv, nil
}

func (c *Controller) RenameConversation(ctx context.Context, id, title string) error {
	const op = "rename conversation"
	if err := c.active(); err != nil {
		return c.fail(ctx, op, err)
	}
	if err := requireName("title", title); err != nil {
		return c.fail(ctx, op, err)
	}
	if _, err := c.store.RenameConversation(ctx, id, strings.TrimSpace(title)); err != nil {
		return c.fail(ctx, op, err)
	}
	return nil
}

// DeleteConversation removes the conversation. Deleting the active one
// keeps its folder selected.
func (c *Controller) DeleteConversation(ctx context.Context, id string) error {
	const op = "delete conversation"
	if err := c.active(); err != nil {
		return c.fail(ctx, op, err)
	}
	if err := c.store.DeleteConversation(ctx, id); err != nil {
		return c.fail(ctx, op, err)
	}
	if c.conversationID == id {
		c.state = FolderSelectedNoConversation
		c.conversationID = ""
	}
	return nil
}

// ToggleFolder collapses or expands a folder.
func (c *Controller) ToggleFolder(ctx context.Context, id string) error {
	if _, ok := c.store.Folder(id); !ok {
		return c.fail(ctx, "toggle folder", fmt.Errorf("%w: folder %s", common.ErrNotFound, id))
	}
	c.collapsed[id] = !c.collapsed[id]
	return nil
}

// Drop handles a drag and drop. Only a conversation dropped on a folder
// does anything: the conversation moves there.
func (c *Controller) Drop(ctx context.Context, dragged, target Item) error {
	if dragged.Kind != ItemConversation || target.Kind != ItemFolder {
		return nil
	}
	const op = "move conversation"
	if err := c.active(); err != nil {
		return c.fail(ctx, op, err)
	}
	if _, err := c.store.MoveConversation(ctx, dragged.ID, target.ID); err != nil {
		return c.fail(ctx, op, err)
	}
	if c.conversationID == dragged.ID {
		c.folderID = target.ID
	}
	return nil
}

// SendMessage sends text and files to the active conversation. Upload
// failures are reported after the message itself was stored.
func (c *Controller) SendMessage(ctx context.Context, text string, files []store.File) (models.Message, error) {
	const op = "send message"
	if c.state != ConversationActive {
		return models.Message{}, c.fail(ctx, op, fmt.Errorf("%w: no conversation selected", common.ErrValidation))
	}
	msg, err := c.store.SendMessage(ctx, c.conversationID, text, files)
	if err != nil && msg.ID != "" {
		// stored already; a retry would post the message twice
		c.logger.Warn(ctx, "attachments not uploaded", "conversation", c.conversationID, "error", err)
		c.banner = "Message sent, but some attachments failed to upload."
		return msg, err
	}
	if err != nil {
		return msg, c.fail(ctx, op, err)
	}
	return msg, nil
}

// RequestReply asks the assistant to answer the active conversation.
func (c *Controller) RequestReply(ctx context.Context) (models.Message, error) {
	const op = "get a reply"
	if c.state != ConversationActive {
		return models.Message{}, c.fail(ctx, op, fmt.Errorf("%w: no conversation selected", common.ErrValidation))
	}
	msg, err := c.store.RequestReply(ctx, c.conversationID)
	if err != nil {
		return models.Message{}, c.fail(ctx, op, err)
	}
	return msg, nil
}

// syncSelection drops selections that a background refresh removed.
func (c *Controller) syncSelection() {
	if c.folderID != "" {
		if _, ok := c.store.Folder(c.folderID); !ok {
			c.clearSelection()
			return
		}
	}
	if c.conversationID != "" {
		if _, ok := c.store.Conversation(c.conversationID); !ok {
			c.state = FolderSelectedNoConversation
			c.conversationID = ""
		}
	}
}

// View builds the render model.
func (c *Controller) View() View {
	if c.state == NoUserSelected {
		return View{State: c.state, Error: c.banner}
	}
	c.syncSelection()

	v := View{State: c.state, Error: c.banner}
	for _, f := range c.store.Folders() {
		v.Folders = append(v.Folders, FolderView{
			ID:       f.ID,
			Name:     f.Name,
			Default:  f.IsDefault(),
			Count:    c.store.ConversationCount(f.ID),
			Expanded: !c.collapsed[f.ID],
			Selected: f.ID == c.folderID,
		})
	}

	if c.folderID != "" && !c.collapsed[c.folderID] {
		v.Groups = groupConversations(c.store.ConversationsIn(c.folderID), c.now(), c.conversationID)
	}
	return v
}

// Transcript projects the active conversation, or returns nil when none is
// active.
func (c *Controller) Transcript() []transcript.Turn {
	if c.state != ConversationActive {
		return nil
	}
	return transcript.Project(c.store.Messages(c.conversationID))
}
