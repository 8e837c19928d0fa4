package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ContentType tags the variant stored inside a ContentEnvelope.
type ContentType string

const (
	ContentTypeText ContentType = "text"
	ContentTypeRich ContentType = "rich"
)

var ErrUnknownContentType = errors.New("unknown content type")

// Content is the body of a message. It is implemented only by Text and
// Rich; renderers type-switch over these two.
type Content interface {
	Type() ContentType
	// PlainText flattens the content for previews and prompts.
	PlainText() string
	isContent()
}

// Text is plain message text.
type Text string

func (Text) Type() ContentType { return ContentTypeText }

func (t Text) PlainText() string { return string(t) }

func (Text) isContent() {}

// NodeKind names the element a rich content node represents.
type NodeKind string

const (
	NodeParagraph NodeKind = "paragraph"
	NodeHeading   NodeKind = "heading"
	NodeList      NodeKind = "list"
	NodeListItem  NodeKind = "item"
	NodeCode      NodeKind = "code"
	NodeQuote     NodeKind = "quote"
	NodeText      NodeKind = "text"
	NodeEmphasis  NodeKind = "emphasis"
	NodeStrong    NodeKind = "strong"
	NodeLink      NodeKind = "link"
)

// Node is one element of a rich content tree. Leaf kinds (text, code) carry
// Text; containers carry Children.
type Node struct {
	Kind     NodeKind `json:"kind"`
	Text     string   `json:"text,omitempty"`
	Href     string   `json:"href,omitempty"`
	Level    int      `json:"level,omitempty"`
	Ordered  bool     `json:"ordered,omitempty"`
	Children []Node   `json:"children,omitempty"`
}

// Rich is structured markup: a sequence of block nodes.
type Rich struct {
	Blocks []Node `json:"blocks"`
}

func (Rich) Type() ContentType { return ContentTypeRich }

func (Rich) isContent() {}

func (r Rich) PlainText() string {
	parts := make([]string, 0, len(r.Blocks))
	for _, b := range r.Blocks {
		if s := strings.TrimSpace(b.PlainText()); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

// PlainText concatenates the text of n and all its descendants.
func (n Node) PlainText() string {
	var sb strings.Builder
	n.writeText(&sb)
	return sb.String()
}

func (n Node) writeText(sb *strings.Builder) {
	sb.WriteString(n.Text)
	for i, c := range n.Children {
		if n.Kind == NodeList && i > 0 {
			sb.WriteString("\n")
		}
		c.writeText(sb)
	}
}

// ContentEnvelope is the wire and storage form of Content.
type ContentEnvelope struct {
	Type ContentType     `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Wrap encodes c into an envelope. A nil Content becomes empty text.
func Wrap(c Content) (ContentEnvelope, error) {
	if c == nil {
		c = Text("")
	}
	b, err := json.Marshal(c)
	if err != nil {
		return ContentEnvelope{}, err
	}
	return ContentEnvelope{Type: c.Type(), Data: b}, nil
}

// Unwrap decodes the envelope back into its concrete variant.
func (e ContentEnvelope) Unwrap() (Content, error) {
	switch e.Type {
	case ContentTypeText:
		var s string
		if len(e.Data) == 0 {
			return Text(""), nil
		}
		if err := json.Unmarshal(e.Data, &s); err != nil {
			return nil, err
		}
		return Text(s), nil
	case ContentTypeRich:
		var r Rich
		if err := json.Unmarshal(e.Data, &r); err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownContentType, e.Type)
	}
}
