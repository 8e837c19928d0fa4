package transcript

import (
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/gophchat/internal/models"
)

const timeLayout = "2006-01-02 15:04"

// Write renders turns as plain text.
func Write(w io.Writer, turns []Turn) error {
	var sb strings.Builder
	for i, t := range turns {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("[" + string(t.Role) + "]")
		if !t.CreatedAt.IsZero() {
			sb.WriteString(" " + t.CreatedAt.Local().Format(timeLayout))
		}
		sb.WriteString("\n")

		body, err := renderContent(t.Content)
		if err != nil {
			return fmt.Errorf("message %s: %w", t.ID, err)
		}
		if body != "" {
			sb.WriteString(body)
			sb.WriteString("\n")
		}

		for _, a := range t.Attachments {
			fmt.Fprintf(&sb, "  + %s (%s, %s)", a.Name, a.Size, a.Kind)
			switch {
			case a.Pending:
				sb.WriteString(" uploading")
			case a.URL != "":
				sb.WriteString(" " + a.URL)
			}
			sb.WriteString("\n")
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func renderContent(c models.Content) (string, error) {
	switch c := c.(type) {
	case nil:
		return "", nil
	case models.Text:
		return string(c), nil
	case models.Rich:
		blocks := make([]string, 0, len(c.Blocks))
		for _, n := range c.Blocks {
			s, err := renderBlock(n)
			if err != nil {
				return "", err
			}
			blocks = append(blocks, s)
		}
		return strings.Join(blocks, "\n\n"), nil
	default:
		return "", fmt.Errorf("%w: %T", models.ErrUnknownContentType, c)
	}
}

func renderBlock(n models.Node) (string, error) {
	switch n.Kind {
	case models.NodeParagraph:
		return renderInline(n.Children)
	case models.NodeHeading:
		level := max(n.Level, 1)
		s, err := renderInline(n.Children)
		return strings.Repeat("#", level) + " " + s, err
	case models.NodeList:
		lines := make([]string, 0, len(n.Children))
		for i, item := range n.Children {
			s, err := renderBlock(item)
			if err != nil {
				return "", err
			}
			marker := "-"
			if n.Ordered {
				marker = fmt.Sprintf("%d.", i+1)
			}
			lines = append(lines, marker+" "+s)
		}
		return strings.Join(lines, "\n"), nil
	case models.NodeListItem:
		return renderInline(n.Children)
	case models.NodeCode:
		return indent(n.Text, "    "), nil
	case models.NodeQuote:
		parts := make([]string, 0, len(n.Children))
		for _, c := range n.Children {
			s, err := renderBlock(c)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return indent(strings.Join(parts, "\n"), "> "), nil
	case models.NodeText, models.NodeEmphasis, models.NodeStrong, models.NodeLink:
		return renderInline([]models.Node{n})
	default:
		return "", fmt.Errorf("unknown node kind %q", n.Kind)
	}
}

func renderInline(nodes []models.Node) (string, error) {
	var sb strings.Builder
	for _, n := range nodes {
		switch n.Kind {
		case models.NodeText:
			sb.WriteString(n.Text)
		case models.NodeEmphasis, models.NodeStrong:
			mark := "*"
			if n.Kind == models.NodeStrong {
				mark = "**"
			}
			inner, err := renderInline(withText(n))
			if err != nil {
				return "", err
			}
			sb.WriteString(mark + inner + mark)
		case models.NodeLink:
			inner, err := renderInline(withText(n))
			if err != nil {
				return "", err
			}
			if inner == "" {
				inner = n.Href
			}
			sb.WriteString(inner)
			if n.Href != "" && inner != n.Href {
				sb.WriteString(" (" + n.Href + ")")
			}
		case models.NodeCode:
			sb.WriteString("`" + n.Text + "`")
		case models.NodeParagraph, models.NodeHeading, models.NodeList, models.NodeListItem, models.NodeQuote:
			s, err := renderBlock(n)
			if err != nil {
				return "", err
			}
			sb.WriteString(s)
		default:
			return "", fmt.Errorf("unknown node kind %q", n.Kind)
		}
	}
	return sb.String(), nil
}

// withText treats the Text of a container node as its first child.
func withText(n models.Node) []models.Node {
	if n.Text == "" {
		return n.Children
	}
	return append([]models.Node{{Kind: models.NodeText, Text: n.Text}}, n.Children...)
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
