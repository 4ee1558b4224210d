// Package session holds the signed-in user and pending notifications of
// one console visitor or CLI invocation, and decides which routes they
// may see.
package session

import (
	"context"
	"errors"
	"jobdash/internal/api"
	"jobdash/internal/logger"
	"jobdash/internal/model"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Auth interface {
	Me(ctx context.Context) (model.Me, error)
	Login(ctx context.Context, creds model.Credentials) (*model.User, error)
	Register(ctx context.Context, creds model.Credentials) (*model.User, error)
	Logout(ctx context.Context) error
}

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

type Toast struct {
	ID        string
	Level     Level
	Message   string
	CreatedAt time.Time
}

var ErrMissingCredentials = errors.New("email and password are required")

type App struct {
	auth Auth

	mu     sync.Mutex
	user   *model.User
	toasts []Toast
}

func New(auth Auth) *App {
	return &App{auth: auth}
}

// Init asks the backend who is signed in. Any failure, including an
// unreachable backend, leaves the App signed out.
func (a *App) Init(ctx context.Context) {
	me, err := a.auth.Me(ctx)
	if err != nil {
		logger.Log.Debug("session check failed, treating as signed out", zap.Error(err))
		a.setUser(nil)
		return
	}

	if !me.Authenticated {
		a.setUser(nil)
		return
	}

	role := me.Role
	if role == "" {
		role = model.RoleUser
	}
	a.setUser(&model.User{ID: me.ID, Email: me.Email, Role: role})
}

func (a *App) User() *model.User {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.user == nil {
		return nil
	}
	u := *a.user
	return &u
}

func (a *App) setUser(u *model.User) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.user = u
}

func (a *App) Login(ctx context.Context, creds model.Credentials) error {
	return a.signIn(ctx, creds, a.auth.Login, "Signed in as ")
}

func (a *App) Register(ctx context.Context, creds model.Credentials) error {
	return a.signIn(ctx, creds, a.auth.Register, "Account created for ")
}

func (a *App) signIn(ctx context.Context, creds model.Credentials, call func(context.Context, model.Credentials) (*model.User, error), welcome string) error {
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Email == "" || creds.Password == "" {
		a.Notify(LevelError, ErrMissingCredentials.Error())
		return ErrMissingCredentials
	}

	u, err := call(ctx, creds)
	if err != nil {
		msg := api.Message(err)
		if errors.Is(err, api.ErrEmailTaken) {
			msg = "An account with that email already exists"
		}
		a.Notify(LevelError, msg)
		return err
	}

	a.setUser(u)
	a.Notify(LevelSuccess, welcome+u.Email)
	return nil
}

// Logout always ends the local session, even when the backend call fails.
func (a *App) Logout(ctx context.Context) error {
	err := a.auth.Logout(ctx)
	a.setUser(nil)

	if err != nil {
		a.Notify(LevelError, "Sign-out request failed: "+api.Message(err))
		return err
	}
	a.Notify(LevelInfo, "Signed out")
	return nil
}

func (a *App) Notify(level Level, msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.toasts = append(a.toasts, Toast{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   msg,
		CreatedAt: time.Now(),
	})
}

// Toasts returns pending notifications and clears them.
func (a *App) Toasts() []Toast {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := slices.Clone(a.toasts)
	a.toasts = nil
	return out
}
