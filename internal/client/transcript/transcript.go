// Package transcript projects the messages of the active conversation into
// display turns and renders them as text. It holds no state.
package transcript

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/models"
)

// Placeholder is the assistant turn shown for an empty conversation.
const Placeholder = "Hello! Ask me anything to get started."

// Kind is the coarse category of an attachment.
type Kind string

const (
	KindImage    Kind = "image"
	KindPDF      Kind = "pdf"
	KindDocument Kind = "document"
	KindFile     Kind = "file"
)

type AttachmentView struct {
	Name    string
	Size    string
	Kind    Kind
	URL     string
	Pending bool
}

// Turn is one rendered message.
type Turn struct {
	ID          string
	Role        models.Role
	Content     models.Content
	CreatedAt   time.Time
	Attachments []AttachmentView
	// Placeholder marks the synthetic greeting of an empty conversation.
	Placeholder bool
}

// Project orders messages oldest first, ties broken by id, and attaches
// their files. An empty input yields the placeholder turn.
func Project(msgs []models.Message) []Turn {
	if len(msgs) == 0 {
		return []Turn{{Role: models.RoleAssistant, Content: models.Text(Placeholder), Placeholder: true}}
	}

	sorted := make([]models.Message, len(msgs))
	copy(sorted, msgs)
	models.SortMessages(sorted)

	turns := make([]Turn, 0, len(sorted))
	for _, m := range sorted {
		t := Turn{ID: m.ID, Role: m.Role, Content: m.Content, CreatedAt: m.CreatedAt}
		for _, a := range m.Attachments {
			t.Attachments = append(t.Attachments, AttachmentView{
				Name:    a.FileName,
				Size:    FormatSize(a.Size),
				Kind:    KindOf(a.ContentType),
				URL:     a.DownloadURL,
				Pending: a.Status != models.AttachmentUploaded,
			})
		}
		turns = append(turns, t)
	}
	return turns
}

// FormatSize prints n bytes as "N B", "N KB" or "N.N MB".
func FormatSize(n int64) string {
	const (
		kb = 1024
		mb = 1024 * kb
	)
	switch {
	case n < kb:
		return fmt.Sprintf("%d B", n)
	case n < mb:
		return fmt.Sprintf("%d KB", int64(math.Round(float64(n)/kb)))
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/mb)
	}
}

// KindOf classifies a MIME type. Parameters such as charset are ignored.
func KindOf(contentType string) Kind {
	ct, _, _ := strings.Cut(contentType, ";")
	ct = strings.ToLower(strings.TrimSpace(ct))

	switch {
	case strings.HasPrefix(ct, "image/"):
		return KindImage
	case ct == "application/pdf":
		return KindPDF
	case strings.HasPrefix(ct, "text/"),
		strings.Contains(ct, "msword"),
		strings.Contains(ct, "officedocument"):
		return KindDocument
	default:
		return KindFile
	}
}
