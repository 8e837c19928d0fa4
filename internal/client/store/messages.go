package store

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/gophchat/internal/client/client"
	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/models"
	"github.com/gabriel-vasile/mimetype"
)

// File is an attachment to send with a message.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// fileSpec declares f to the backend, sniffing the content type when the
// caller did not set one.
func (f File) fileSpec() client.FileSpec {
	ct := f.ContentType
	if ct == "" {
		ct = mimetype.Detect(f.Data).String()
	}
	return client.FileSpec{FileName: f.Name, ContentType: ct, Size: int64(len(f.Data))}
}

// LoadMessages fetches the transcript of conversationID and makes it the
// loaded one. If the same transcript was patched locally while the fetch
// was in flight, the local copy wins.
func (s *Store) LoadMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	if _, ok := s.Conversation(conversationID); !ok {
		return nil, notFound("conversation", conversationID)
	}

	v := s.Version()
	msgs, err := s.docs.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	models.SortMessages(msgs)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version != v && s.loadedID == conversationID {
		s.logger.Debug(ctx, "stale transcript dropped", "conversation_id", conversationID)
		return slices.Clone(s.messages), nil
	}
	s.loadedID = conversationID
	s.messages = msgs
	return slices.Clone(msgs), nil
}

// SendMessage stores a user message and uploads its files. The message is
// returned even when some uploads fail; those failures are joined into the
// error and the attachments stay pending.
func (s *Store) SendMessage(ctx context.Context, conversationID, text string, files []File) (models.Message, error) {
	if common.IsBlank(text) && len(files) == 0 {
		return models.Message{}, fmt.Errorf("%w: message is empty", common.ErrValidation)
	}
	if _, ok := s.Conversation(conversationID); !ok {
		return models.Message{}, notFound("conversation", conversationID)
	}

	specs := make([]client.FileSpec, 0, len(files))
	for _, f := range files {
		specs = append(specs, f.fileSpec())
	}

	res, err := s.docs.AddMessage(ctx, conversationID, models.RoleUser, models.Text(text), specs)
	if err != nil {
		return models.Message{}, err
	}
	s.applyMessage(ctx, res)

	msg := res.Message
	var failed []error
	for i, task := range res.Uploads {
		if i >= len(files) {
			break
		}
		att, err := s.objects.Upload(ctx, task, files[i].Data)
		if err != nil {
			s.logger.Warn(ctx, "attachment upload failed", "file", task.FileName, "error", err)
			failed = append(failed, fmt.Errorf("upload %s: %w", task.FileName, err))
			continue
		}
		msg = s.backfill(msg, *att)
	}
	return msg, errors.Join(failed...)
}

// RequestReply asks the assistant to answer the conversation.
func (s *Store) RequestReply(ctx context.Context, conversationID string) (models.Message, error) {
	if _, ok := s.Conversation(conversationID); !ok {
		return models.Message{}, notFound("conversation", conversationID)
	}

	res, err := s.docs.GenerateReply(ctx, conversationID)
	if err != nil {
		return models.Message{}, err
	}
	s.applyMessage(ctx, res)
	return res.Message, nil
}

// applyMessage patches the conversation preview and appends the message
// to the loaded transcript.
func (s *Store) applyMessage(ctx context.Context, res *client.MessageResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[res.Conversation.ID]; ok {
		s.putConversationLocked(ctx, res.Conversation)
	}
	if s.loadedID == res.Message.ConversationID {
		s.messages = append(s.messages, res.Message)
		models.SortMessages(s.messages)
	}
	s.bumpLocked()
}

// backfill replaces the pending attachment of msg with its uploaded form,
// in the returned copy and in the loaded transcript.
func (s *Store) backfill(msg models.Message, att models.Attachment) models.Message {
	msg.Attachments = replaceAttachment(msg.Attachments, att)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == msg.ID {
			s.messages[i].Attachments = replaceAttachment(s.messages[i].Attachments, att)
		}
	}
	s.bumpLocked()
	return msg
}

func replaceAttachment(list []models.Attachment, att models.Attachment) []models.Attachment {
	out := slices.Clone(list)
	for i := range out {
		if out[i].ID == att.ID {
			out[i] = att
			return out
		}
	}
	return append(out, att)
}
