package session

import (
	"context"
	"errors"
	"fmt"
	"jobdash/internal/api"
	"jobdash/internal/model"
	"net/http"
	"testing"
)

type stubAuth struct {
	me        model.Me
	meErr     error
	loginErr  error
	logoutErr error
	role      model.Role
}

func (s *stubAuth) Me(ctx context.Context) (model.Me, error) { return s.me, s.meErr }

func (s *stubAuth) Login(ctx context.Context, c model.Credentials) (*model.User, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &model.User{ID: 1, Email: c.Email, Role: s.role}, nil
}

func (s *stubAuth) Register(ctx context.Context, c model.Credentials) (*model.User, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &model.User{ID: 2, Email: c.Email, Role: model.RoleUser}, nil
}

func (s *stubAuth) Logout(ctx context.Context) error { return s.logoutErr }

func TestInitUnauthenticated(t *testing.T) {
	app := New(&stubAuth{me: model.Me{Authenticated: false}})
	app.Init(context.Background())

	if app.User() != nil {
		t.Fatal("expected no session user")
	}
	if got := Resolve(RouteJobs, app.User()); got != RouteLogin {
		t.Fatalf("/jobs redirect = %q, want /login", got)
	}
}

func TestInitFailureMeansSignedOut(t *testing.T) {
	app := New(&stubAuth{meErr: &api.StatusError{Method: "GET", Path: "/auth/me", Code: http.StatusUnauthorized}})
	app.Init(context.Background())

	if app.User() != nil {
		t.Fatal("a failed session check should leave the app signed out")
	}
	if toasts := app.Toasts(); len(toasts) != 0 {
		t.Fatalf("failed session check should not notify, got %+v", toasts)
	}
}

func TestInitAuthenticated(t *testing.T) {
	app := New(&stubAuth{me: model.Me{Authenticated: true, ID: 7, Email: "a@b.c", Role: model.RoleAdmin}})
	app.Init(context.Background())

	u := app.User()
	if u == nil || u.Email != "a@b.c" || !u.IsAdmin() {
		t.Fatalf("user = %+v", u)
	}
}

func TestLoginAndLogout(t *testing.T) {
	auth := &stubAuth{role: model.RoleUser}
	app := New(auth)

	if err := app.Login(context.Background(), model.Credentials{Email: " me@x.io ", Password: "pw"}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if u := app.User(); u == nil || u.Email != "me@x.io" {
		t.Fatalf("user = %+v", u)
	}
	toasts := app.Toasts()
	if len(toasts) != 1 || toasts[0].Level != LevelSuccess || toasts[0].ID == "" {
		t.Fatalf("toasts = %+v", toasts)
	}
	if again := app.Toasts(); len(again) != 0 {
		t.Fatal("toasts should be cleared once read")
	}

	auth.logoutErr = errors.New("boom")
	if err := app.Logout(context.Background()); err == nil {
		t.Fatal("expected logout error to surface")
	}
	if app.User() != nil {
		t.Fatal("logout must clear the user even on failure")
	}
}

func TestLoginValidation(t *testing.T) {
	app := New(&stubAuth{})
	err := app.Login(context.Background(), model.Credentials{Email: "", Password: "x"})
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("err = %v, want ErrMissingCredentials", err)
	}
}

func TestRegisterConflict(t *testing.T) {
	app := New(&stubAuth{loginErr: fmt.Errorf("%w: a@b.c", api.ErrEmailTaken)})
	err := app.Register(context.Background(), model.Credentials{Email: "a@b.c", Password: "pw"})
	if !errors.Is(err, api.ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
	toasts := app.Toasts()
	if len(toasts) != 1 || toasts[0].Message != "An account with that email already exists" {
		t.Fatalf("toasts = %+v", toasts)
	}
}

func TestResolve(t *testing.T) {
	user := &model.User{Email: "u@x", Role: model.RoleUser}
	admin := &model.User{Email: "a@x", Role: model.RoleAdmin}

	tests := []struct {
		path string
		user *model.User
		want string
	}{
		{"/", nil, ""},
		{"/login", nil, ""},
		{"/login", user, "/jobs"},
		{"/jobs", nil, "/login"},
		{"/jobs", user, ""},
		{"/jobs/", user, ""},
		{"/jobs/state", nil, "/login"},
		{"/admin/scrape", nil, "/login"},
		{"/admin/scrape", user, "/"},
		{"/admin/scrape", admin, ""},
		{"/admin/runs/123/logs", admin, ""},
		{"/admin/runs/123/logs", user, "/"},
		{"/admin/users", admin, ""},
		{"/admin", admin, "/"},
		{"/nope", admin, "/"},
		{"/jobsearch", user, "/"},
	}
	for _, tt := range tests {
		if got := Resolve(tt.path, tt.user); got != tt.want {
			t.Fatalf("Resolve(%q, %v) = %q, want %q", tt.path, tt.user, got, tt.want)
		}
	}
}
