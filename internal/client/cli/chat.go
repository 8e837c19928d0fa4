package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gophchat/internal/client/authgate"
	"github.com/dmitrijs2005/gophchat/internal/client/sidebar"
	"github.com/dmitrijs2005/gophchat/internal/client/store"
	"github.com/dmitrijs2005/gophchat/internal/client/transcript"
	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/filex"
	"github.com/dmitrijs2005/gophchat/internal/netx"
)

const (
	downloadDir   = "downloads"
	downloadLimit = 50 << 20
)

// usage reports a command invoked with missing arguments.
func (a *App) usage(text string) error {
	a.println("Usage:", text)
	return fmt.Errorf("%w: usage: %s", common.ErrValidation, text)
}

// report prints the sidebar banner for err, or err itself when the failure
// happened outside the sidebar.
func (a *App) report(s *authgate.Session, err error) error {
	if err == nil {
		return nil
	}
	if banner := s.Sidebar.Error(); banner != "" {
		a.println("!", banner)
		s.Sidebar.DismissError()
		return err
	}
	a.println("!", err)
	return err
}

// withSession runs fn against the open session and reports its error.
func (a *App) withSession(fn func(s *authgate.Session) error) error {
	s, err := a.session()
	if err != nil {
		a.println(err)
		return err
	}
	return a.report(s, fn(s))
}

func (a *App) List(ctx context.Context) error {
	return a.withSession(func(s *authgate.Session) error {
		writeView(a.out, s.Sidebar.View())
		return nil
	})
}

func (a *App) CreateFolder(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.usage("mkdir <name>")
	}
	return a.withSession(func(s *authgate.Session) error {
		f, err := s.Sidebar.CreateFolder(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		a.printf("Folder %q created (%s)\n", f.Name, f.ID)
		return nil
	})
}

func (a *App) RenameFolder(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return a.usage("renamedir <folder-id> <name>")
	}
	return a.withSession(func(s *authgate.Session) error {
		return s.Sidebar.RenameFolder(ctx, args[0], strings.Join(args[1:], " "))
	})
}

func (a *App) DeleteFolder(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usage("rmdir <folder-id>")
	}
	return a.withSession(func(s *authgate.Session) error {
		if err := s.Sidebar.DeleteFolder(ctx, args[0]); err != nil {
			return err
		}
		a.println("Folder deleted")
		return nil
	})
}

// OpenFolder selects a folder and lists its conversations.
func (a *App) OpenFolder(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usage("cd <folder-id>")
	}
	return a.withSession(func(s *authgate.Session) error {
		if err := s.Sidebar.SelectFolder(ctx, args[0]); err != nil {
			return err
		}
		writeView(a.out, s.Sidebar.View())
		return nil
	})
}

func (a *App) ToggleFolder(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usage("toggle <folder-id>")
	}
	return a.withSession(func(s *authgate.Session) error {
		return s.Sidebar.ToggleFolder(ctx, args[0])
	})
}

// NewChat creates a conversation in the selected folder and opens it.
func (a *App) NewChat(ctx context.Context, args []string) error {
	return a.withSession(func(s *authgate.Session) error {
		c, err := s.Sidebar.CreateConversation(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		a.printf("Conversation %q created (%s)\n", c.Title, c.ID)
		return nil
	})
}

// OpenChat selects a conversation and prints its transcript.
func (a *App) OpenChat(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usage("open <conversation-id>")
	}
	return a.withSession(func(s *authgate.Session) error {
		if err := s.Sidebar.SelectConversation(ctx, args[0]); err != nil {
			return err
		}
		return transcript.Write(a.out, s.Sidebar.Transcript())
	})
}

func (a *App) RenameChat(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return a.usage("rename <conversation-id> <title>")
	}
	return a.withSession(func(s *authgate.Session) error {
		return s.Sidebar.RenameConversation(ctx, args[0], strings.Join(args[1:], " "))
	})
}

func (a *App) DeleteChat(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usage("rm <conversation-id>")
	}
	return a.withSession(func(s *authgate.Session) error {
		return s.Sidebar.DeleteConversation(ctx, args[0])
	})
}

// MoveChat drops a conversation onto a folder.
func (a *App) MoveChat(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return a.usage("mv <conversation-id> <folder-id>")
	}
	return a.withSession(func(s *authgate.Session) error {
		return s.Sidebar.Drop(ctx, sidebar.ConversationItem(args[0]), sidebar.FolderItem(args[1]))
	})
}

// Say sends a message to the open conversation and prints the reply. With
// no arguments the message is read as multiple lines.
func (a *App) Say(ctx context.Context, args []string) error {
	text := strings.Join(args, " ")
	if text == "" {
		var err error
		if text, err = GetMultiline(a.reader, "Message", a.out); err != nil {
			return err
		}
	}
	return a.send(ctx, text, nil)
}

// Attach sends the named files, with an optional message, to the open
// conversation.
func (a *App) Attach(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.usage("attach <path>...")
	}

	files := make([]store.File, 0, len(args))
	for _, p := range args {
		data, err := os.ReadFile(p)
		if err != nil {
			a.println("!", err)
			return err
		}
		files = append(files, store.File{Name: filepath.Base(p), Data: data})
	}

	text, err := GetMultiline(a.reader, "Message (optional)", a.out)
	if err != nil {
		return err
	}
	return a.send(ctx, text, files)
}

func (a *App) send(ctx context.Context, text string, files []store.File) error {
	return a.withSession(func(s *authgate.Session) error {
		msg, err := s.Sidebar.SendMessage(ctx, text, files)
		if err != nil && msg.ID == "" {
			return err
		}
		if err != nil {
			// the message exists; only some uploads failed
			s.Sidebar.DismissError()
			a.println("! Some files were not uploaded:", err)
		}
		if _, err := s.Sidebar.RequestReply(ctx); err != nil {
			return err
		}
		return transcript.Write(a.out, lastTurns(s.Sidebar.Transcript(), 2))
	})
}

// Reply asks the assistant to answer the open conversation again.
func (a *App) Reply(ctx context.Context) error {
	return a.withSession(func(s *authgate.Session) error {
		if _, err := s.Sidebar.RequestReply(ctx); err != nil {
			return err
		}
		return transcript.Write(a.out, lastTurns(s.Sidebar.Transcript(), 1))
	})
}

func (a *App) Show(ctx context.Context) error {
	return a.withSession(func(s *authgate.Session) error {
		turns := s.Sidebar.Transcript()
		if turns == nil {
			a.println("No conversation is open")
			return nil
		}
		return transcript.Write(a.out, turns)
	})
}

func lastTurns(turns []transcript.Turn, n int) []transcript.Turn {
	if len(turns) > n {
		return turns[len(turns)-n:]
	}
	return turns
}

// Files lists the uploaded files of the open conversation.
func (a *App) Files(ctx context.Context) error {
	return a.withSession(func(s *authgate.Session) error {
		id := s.Sidebar.SelectedConversation()
		if s.Sidebar.State() != sidebar.ConversationActive {
			return errors.New("no conversation is open")
		}
		entries, err := s.Store.ConversationFiles(ctx, id)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			a.println("No files")
			return nil
		}
		for i, e := range entries {
			a.printf("%2d  %-30s %10s  %s\n", i+1, e.Name, transcript.FormatSize(e.Size), e.LastModified.Format("2006-01-02 15:04"))
		}
		return nil
	})
}

// Download saves file number n of Files into the downloads directory.
func (a *App) Download(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usage("download <n>")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return a.usage("download <n>")
	}

	return a.withSession(func(s *authgate.Session) error {
		if s.Sidebar.State() != sidebar.ConversationActive {
			return errors.New("no conversation is open")
		}
		entries, err := s.Store.ConversationFiles(ctx, s.Sidebar.SelectedConversation())
		if err != nil {
			return err
		}
		if n > len(entries) {
			return fmt.Errorf("%w: file %d", common.ErrNotFound, n)
		}
		e := entries[n-1]

		data, err := netx.DownloadFromURL(ctx, a.httpClient, e.DownloadURL, downloadLimit)
		if err != nil {
			return err
		}
		dir, err := filex.EnsureSubDir(downloadDir)
		if err != nil {
			return err
		}
		path, err := filex.SaveUnique(dir, e.Name, data)
		if err != nil {
			return err
		}
		a.println("Saved", path)
		return nil
	})
}

// Sync refetches folders and conversations from the server.
func (a *App) Sync(ctx context.Context) error {
	return a.withSession(func(s *authgate.Session) error {
		applied, err := s.Store.Reconcile(ctx)
		if err != nil {
			return err
		}
		if !applied {
			a.println("Local changes landed during sync, try again")
			return nil
		}
		writeView(a.out, s.Sidebar.View())
		return nil
	})
}
