// Package assistant produces the assistant side of a conversation.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/models"
	"github.com/sashabaranov/go-openai"
)

// ErrEmptyReply is returned when the model answers without any choice.
var ErrEmptyReply = errors.New("assistant returned no reply")

// Responder answers the conversation given its full history, oldest first.
type Responder interface {
	Reply(ctx context.Context, history []models.Message) (models.Content, error)
}

type Config struct {
	APIKey       string
	Model        string
	BaseURL      string
	MaxTokens    int
	SystemPrompt string
}

const defaultSystemPrompt = "You are a helpful assistant. Answer concisely."

// New returns an OpenAI backed responder, or Echo when no API key is set.
func New(cfg Config, logger logging.Logger) Responder {
	if cfg.APIKey == "" {
		return Echo{}
	}
	return NewOpenAIResponder(cfg, logger)
}

type OpenAIResponder struct {
	client    *openai.Client
	model     string
	maxTokens int
	system    string
	logger    logging.Logger
}

func NewOpenAIResponder(cfg Config, logger logging.Logger) *OpenAIResponder {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	system := cfg.SystemPrompt
	if system == "" {
		system = defaultSystemPrompt
	}
	return &OpenAIResponder{
		client:    openai.NewClientWithConfig(oc),
		model:     model,
		maxTokens: cfg.MaxTokens,
		system:    system,
		logger:    logger,
	}
}

func (r *OpenAIResponder) Reply(ctx context.Context, history []models.Message) (models.Content, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: r.system})
	for _, m := range history {
		msgs = append(msgs, toChatMessage(m))
	}

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     r.model,
		Messages:  msgs,
		MaxTokens: r.maxTokens,
	})
	if err != nil {
		r.logger.Error(ctx, "chat completion failed", "model", r.model, "error", err)
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyReply
	}

	r.logger.Debug(ctx, "chat completion", "model", r.model, "total_tokens", resp.Usage.TotalTokens)
	return models.Text(strings.TrimSpace(resp.Choices[0].Message.Content)), nil
}

func toChatMessage(m models.Message) openai.ChatCompletionMessage {
	role := openai.ChatMessageRoleUser
	if m.Role == models.RoleAssistant {
		role = openai.ChatMessageRoleAssistant
	}
	text := ""
	if m.Content != nil {
		text = m.Content.PlainText()
	}
	for _, a := range m.Attachments {
		text += fmt.Sprintf("\n[attached file: %s, %s]", a.FileName, a.ContentType)
	}
	return openai.ChatCompletionMessage{Role: role, Content: text}
}

// Echo repeats the last user message. It stands in for the model when no
// API key is configured.
type Echo struct{}

func (Echo) Reply(_ context.Context, history []models.Message) (models.Content, error) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == models.RoleUser && history[i].Content != nil {
			return models.Text("You said: " + history[i].Content.PlainText()), nil
		}
	}
	return models.Text("You said: "), nil
}
