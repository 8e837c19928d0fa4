package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/client/authgate"
	"github.com/dmitrijs2005/gophchat/internal/client/client"
	"github.com/dmitrijs2005/gophchat/internal/client/config"
	"github.com/dmitrijs2005/gophchat/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/models"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

var errNotLoggedIn = fmt.Errorf("%w: please login first", common.ErrUnauthorized)

type App struct {
	config     *config.Config
	logger     logging.Logger
	backend    client.Backend
	gate       *authgate.Gate
	httpClient *http.Client
	closers    []func() error
	reader     *bufio.Reader
	out        io.Writer

	mu   sync.Mutex
	mode Mode
}

// NewApp opens the local database, connects to the server and prepares the
// auth gate. The saved session, if any, is restored by Run.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	api, err := client.NewGRPCClient(c.ServerEndpointAddr, metadata.NewSQLiteRepository(db))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect %s: %w", c.ServerEndpointAddr, err)
	}

	a := newApp(c, api, logger, os.Stdin, os.Stdout)
	a.closers = append(a.closers, db.Close)
	return a, nil
}

func newApp(c *config.Config, backend client.Backend, logger logging.Logger, in io.Reader, out io.Writer) *App {
	gate := authgate.New(backend, backend, backend, logger,
		authgate.WithReconcileInterval(c.ReconcileInterval))

	return &App{
		config:     c,
		logger:     logger.With("module", "cli"),
		backend:    backend,
		gate:       gate,
		httpClient: http.DefaultClient,
		reader:     bufio.NewReader(in),
		out:        out,
	}
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.printf("Switched to %s mode\n", mode)
	}
}

func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) isLoggedIn() bool {
	return a.gate.CurrentUser() != nil
}

func (a *App) session() (*authgate.Session, error) {
	s := a.gate.Session()
	if s == nil {
		return nil, errNotLoggedIn
	}
	return s, nil
}

// Run restores the saved session, starts the connectivity watcher and
// blocks in the REPL until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	a.println("Welcome to gophchat (type 'help' for commands)")

	unsubscribe := a.gate.OnAuthStateChange(func(u *models.User) {
		if u != nil {
			a.logger.Debug(ctx, "auth state changed", "user_id", u.ID)
		}
	})
	defer unsubscribe()

	if s, err := a.gate.Restore(ctx); err == nil {
		a.printf("Welcome back, %s\n", s.User.Name())
	} else if !errors.Is(err, common.ErrUnauthorized) {
		a.logger.Warn(ctx, "restore session", "error", err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.StartOnlineStatusWatcher(watchCtx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader)
}

// Close stops the session without signing out, so the next run can
// restore it.
func (a *App) Close() {
	if s := a.gate.Session(); s != nil {
		s.Dispose()
	}
	errs := []error{a.backend.Close()}
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn(context.Background(), "close", "error", err)
	}
}

func (a *App) getStatus() string {
	s := ""
	if u := a.gate.CurrentUser(); u != nil {
		s = u.Name() + " "
	}
	if m := a.Mode(); m != "" {
		s = s + string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := a.backend.Ping(ctx); err != nil {
		a.logger.Debug(ctx, "ping failed", "error", err)
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}
