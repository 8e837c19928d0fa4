package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	ResetPassword(ctx context.Context) error

	List(ctx context.Context) error
	CreateFolder(ctx context.Context, args []string) error
	RenameFolder(ctx context.Context, args []string) error
	DeleteFolder(ctx context.Context, args []string) error
	OpenFolder(ctx context.Context, args []string) error
	ToggleFolder(ctx context.Context, args []string) error

	NewChat(ctx context.Context, args []string) error
	OpenChat(ctx context.Context, args []string) error
	RenameChat(ctx context.Context, args []string) error
	DeleteChat(ctx context.Context, args []string) error
	MoveChat(ctx context.Context, args []string) error

	Say(ctx context.Context, args []string) error
	Attach(ctx context.Context, args []string) error
	Reply(ctx context.Context) error
	Show(ctx context.Context) error
	Files(ctx context.Context) error
	Download(ctx context.Context, args []string) error
	Sync(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: register, login, reset, exit"
	helpLoggedIn  = "Available commands: (l)ist, mkdir, renamedir, rmdir, cd, toggle, new, open, rename, rm, mv, say, attach, reply, show, files, download, sync, logout, exit"
)

// runREPL starts a simple read-eval-print loop for the gophchat CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on a with the remaining tokens as arguments. The
// loop exits on EOF or when the user types "exit" or "quit".
//
//	Not logged in:
//	  help | register | login | reset | exit
//
//	Logged in:
//	  list                          show folders and the selected folder's chats
//	  mkdir <name>                  create a folder
//	  renamedir <folder-id> <name>  rename a folder
//	  rmdir <folder-id>             delete a folder and its chats
//	  cd <folder-id>                select a folder
//	  toggle <folder-id>            collapse or expand a folder
//	  new [title]                   start a chat in the selected folder
//	  open <conversation-id>        open a chat
//	  rename <conversation-id> <t>  rename a chat
//	  rm <conversation-id>          delete a chat
//	  mv <conversation-id> <f-id>   move a chat to another folder
//	  say [text]                    send a message and print the reply
//	  attach <path>...              send files
//	  reply                         ask for another reply
//	  show                          print the open chat
//	  files | download <n>          list or fetch the chat's files
//	  sync                          refetch from the server
//	  logout
//
// Handlers print their own errors, so errors are not reported here.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("gchat %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "exit", "quit":
			printlnFn("Bye!")
			return
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}
			continue
		}

		if !a.isLoggedIn() {
			switch cmd {
			case "register":
				_ = a.Register(ctx)
			case "login":
				_ = a.Login(ctx)
			case "reset":
				_ = a.ResetPassword(ctx)
			default:
				printlnFn("Unknown command:", cmd)
			}
			continue
		}

		switch cmd {
		case "l", "list":
			_ = a.List(ctx)
		case "mkdir":
			_ = a.CreateFolder(ctx, args)
		case "renamedir":
			_ = a.RenameFolder(ctx, args)
		case "rmdir":
			_ = a.DeleteFolder(ctx, args)
		case "cd":
			_ = a.OpenFolder(ctx, args)
		case "toggle":
			_ = a.ToggleFolder(ctx, args)
		case "new":
			_ = a.NewChat(ctx, args)
		case "open":
			_ = a.OpenChat(ctx, args)
		case "rename":
			_ = a.RenameChat(ctx, args)
		case "rm":
			_ = a.DeleteChat(ctx, args)
		case "mv":
			_ = a.MoveChat(ctx, args)
		case "say":
			_ = a.Say(ctx, args)
		case "attach":
			_ = a.Attach(ctx, args)
		case "reply":
			_ = a.Reply(ctx)
		case "show":
			_ = a.Show(ctx)
		case "files":
			_ = a.Files(ctx)
		case "download":
			_ = a.Download(ctx, args)
		case "sync":
			_ = a.Sync(ctx)
		case "logout":
			_ = a.Logout(ctx)
		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
