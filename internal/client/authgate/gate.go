// Package authgate owns the sign-in state of the client. A successful
// login, signup or restore opens a Session; logout disposes it. Listeners
// registered with OnAuthStateChange hear about every transition.
//
// Passwords never leave the package: they are turned into an argon2id
// based verifier with the user's salt before any backend call.
package authgate

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/client/client"
	"github.com/dmitrijs2005/gophchat/internal/client/sidebar"
	"github.com/dmitrijs2005/gophchat/internal/client/store"
	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/cryptox"
	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/models"
)

// UserError is a validation failure worded for the user.
type UserError struct {
	Msg string
}

func (e *UserError) Error() string { return e.Msg }

func (e *UserError) Unwrap() error { return common.ErrValidation }

var (
	ErrMissingCredentials = &UserError{Msg: "Please enter both email and password"}
	ErrMissingEmail       = &UserError{Msg: "Please enter your email"}
	ErrMissingResetData   = &UserError{Msg: "Please enter the reset token and a new password"}
)

// Listener receives the signed in user, or nil after sign-out.
type Listener func(user *models.User)

type Option func(*Gate)

// WithReconcileInterval refreshes the session store in the background at
// the given interval. Zero disables it.
func WithReconcileInterval(d time.Duration) Option {
	return func(g *Gate) { g.reconcileEvery = d }
}

// WithSidebarOptions passes options to every session's controller.
func WithSidebarOptions(opts ...sidebar.Option) Option {
	return func(g *Gate) { g.sidebarOpts = append(g.sidebarOpts, opts...) }
}

type Gate struct {
	auth    client.Auth
	docs    client.Documents
	objects client.Objects
	logger  logging.Logger

	reconcileEvery time.Duration
	sidebarOpts    []sidebar.Option

	mu        sync.Mutex
	session   *Session
	listeners map[int]Listener
	nextID    int
}

func New(auth client.Auth, docs client.Documents, objects client.Objects, logger logging.Logger, opts ...Option) *Gate {
	g := &Gate{
		auth:      auth,
		docs:      docs,
		objects:   objects,
		logger:    logger.With("module", "authgate"),
		listeners: make(map[int]Listener),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// CurrentUser returns the signed in user or nil.
func (g *Gate) CurrentUser() *models.User {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session == nil {
		return nil
	}
	u := g.session.User
	return &u
}

// Session returns the open session or nil.
func (g *Gate) Session() *Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session
}

// OnAuthStateChange calls cb right away with the current user and then on
// every sign-in and sign-out, until the returned function is called.
func (g *Gate) OnAuthStateChange(cb Listener) (unsubscribe func()) {
	g.mu.Lock()
	id := g.nextID
	g.nextID++
	g.listeners[id] = cb
	g.mu.Unlock()

	cb(g.CurrentUser())

	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.listeners, id)
	}
}

func (g *Gate) notify(user *models.User) {
	g.mu.Lock()
	ls := make([]Listener, 0, len(g.listeners))
	for id := 0; id < g.nextID; id++ {
		if l, ok := g.listeners[id]; ok {
			ls = append(ls, l)
		}
	}
	g.mu.Unlock()

	for _, l := range ls {
		l(user)
	}
}

// open replaces any previous session with one for user.
func (g *Gate) open(ctx context.Context, user models.User) *Session {
	st := store.New(g.docs, g.objects, g.logger)
	if err := st.Load(ctx); err != nil {
		g.logger.Warn(ctx, "initial load failed", "user_id", user.ID, "error", err)
	}

	s := &Session{
		User:    user,
		Store:   st,
		Sidebar: sidebar.New(st, g.logger, g.sidebarOpts...),
	}
	if g.reconcileEvery > 0 {
		s.stop = st.StartReconciler(context.WithoutCancel(ctx), g.reconcileEvery)
	}

	g.mu.Lock()
	prev := g.session
	g.session = s
	g.mu.Unlock()

	if prev != nil {
		prev.Dispose()
	}
	g.logger.Info(ctx, "signed in", "user_id", user.ID)
	u := user
	g.notify(&u)
	return s
}

func (g *Gate) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	salt, err := g.auth.GetSalt(ctx, email)
	if err != nil {
		return nil, err
	}
	user, err := g.auth.Login(ctx, email, cryptox.PasswordVerifier(password, salt))
	if err != nil {
		return nil, err
	}
	return g.open(ctx, *user), nil
}

// Signup registers a new account and signs it in.
func (g *Gate) Signup(ctx context.Context, email, password, displayName string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	salt := cryptox.NewSalt()
	verifier := cryptox.PasswordVerifier(password, salt)
	if _, err := g.auth.Register(ctx, email, strings.TrimSpace(displayName), salt, verifier); err != nil {
		return nil, err
	}

	user, err := g.auth.Login(ctx, email, verifier)
	if err != nil {
		return nil, err
	}
	return g.open(ctx, *user), nil
}

// Restore resumes the session saved by an earlier run.
func (g *Gate) Restore(ctx context.Context) (*Session, error) {
	user, err := g.auth.Restore(ctx)
	if err != nil {
		return nil, err
	}
	return g.open(ctx, *user), nil
}

// Logout signs out locally even when the backend call fails; that failure
// is returned.
func (g *Gate) Logout(ctx context.Context) error {
	g.mu.Lock()
	s := g.session
	g.session = nil
	g.mu.Unlock()

	if s == nil {
		return nil
	}

	err := g.auth.Logout(ctx)
	if err != nil {
		g.logger.Warn(ctx, "backend logout failed", "error", err)
	}
	s.Dispose()
	g.logger.Info(ctx, "signed out", "user_id", s.User.ID)
	g.notify(nil)
	return err
}

// ResetPassword asks the backend to mail a reset token.
func (g *Gate) ResetPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrMissingEmail
	}
	return g.auth.RequestPasswordReset(ctx, email)
}

// ConfirmPasswordReset sets a new password using a mailed token.
func (g *Gate) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" || newPassword == "" {
		return ErrMissingResetData
	}
	salt := cryptox.NewSalt()
	return g.auth.ResetPassword(ctx, token, salt, cryptox.PasswordVerifier(newPassword, salt))
}
