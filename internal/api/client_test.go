package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"jobdash/internal/model"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, 5*time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNewRejectsBadURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:8000", "://x"} {
		if _, err := New(raw, time.Second); err == nil {
			t.Fatalf("New(%q) should fail", raw)
		}
	}
}

func TestListJobsQuery(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/jobs" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		_, _ = io.WriteString(w, `[{"Position Title":"Engineer","Vendor":"BAE","n":3}]`)
	}))

	recs, err := c.ListJobs(context.Background(), model.JobQuery{
		Limit:  50,
		Offset: 100,
		Filter: model.Filter{Vendor: "BAE", SearchTerm: "radar eng", Since: "2024-02-01"},
	})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if gotQuery != "limit=50&offset=100&q=radar+eng&since=2024-02-01&vendor=BAE" {
		t.Fatalf("query = %q", gotQuery)
	}
	if len(recs) != 1 || recs[0].Title() != "Engineer" || recs[0].Company() != "BAE" {
		t.Fatalf("records = %+v", recs)
	}
}

func TestMalformedPayloadIsEmpty(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"unexpected":"object"}`)
	}))

	recs, err := c.ListJobs(context.Background(), model.JobQuery{Limit: 50})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("records = %v, want empty", recs)
	}

	runs, err := c.ListRuns(context.Background())
	if err != nil || len(runs) != 0 {
		t.Fatalf("runs = %v err = %v", runs, err)
	}
}

func TestStatusErrorCarriesBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error": "not found"}`)
	}))

	_, err := c.GetJob(context.Background(), "BAE", "abc/1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	se, ok := errors.AsType[*StatusError](err)
	if !ok || se.Code != http.StatusNotFound || !strings.Contains(se.Body, "not found") {
		t.Fatalf("status error = %+v", se)
	}
	if got := Message(err); got != "HTTP 404: not found" {
		t.Fatalf("message = %q", got)
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c, err := New(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.Health(context.Background())
	if _, ok := errors.AsType[*TransportError](err); !ok {
		t.Fatalf("err = %v, want TransportError", err)
	}
	if StatusCode(err) != 0 {
		t.Fatal("transport errors carry no status")
	}
}

func TestVendorsSortedDistinct(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"Vendor":"RTX","n":9},{"Vendor":"bae","n":4},{"Vendor":"Boeing","n":12},{"Vendor":"RTX","n":1},{"Vendor":"","n":2}]`)
	}))

	names, err := c.Vendors(context.Background())
	if err != nil {
		t.Fatalf("Vendors: %v", err)
	}
	if want := []string{"bae", "Boeing", "RTX"}; !slices.Equal(names, want) {
		t.Fatalf("vendors = %v, want %v", names, want)
	}
}

func TestCSRFHeaderEchoesCookie(t *testing.T) {
	var headers []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = append(headers, r.Header.Get(CSRFHeader))
		switch r.URL.Path {
		case "/auth/login":
			http.SetCookie(w, &http.Cookie{Name: CSRFCookie, Value: "tok123", Path: "/"})
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "s1", Path: "/"})
			_, _ = io.WriteString(w, `{"id":1,"email":"a@b.c","role":"admin"}`)
		case "/auth/logout":
			if ck, err := r.Cookie("session"); err != nil || ck.Value != "s1" {
				t.Errorf("session cookie not sent on logout")
			}
			w.WriteHeader(http.StatusNoContent)
		}
	}))

	u, err := c.Login(context.Background(), model.Credentials{Email: "a@b.c", Password: "pw"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !u.IsAdmin() {
		t.Fatalf("user = %+v", u)
	}
	if err := c.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if !slices.Equal(headers, []string{"", "tok123"}) {
		t.Fatalf("csrf headers = %q", headers)
	}
}

func TestRegisterConflict(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"error":"exists"}`)
	}))

	_, err := c.Register(context.Background(), model.Credentials{Email: "a@b.c", Password: "pw"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
}

func TestStartRun(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "run_id", status: http.StatusOK, body: `{"run_id":"20240101","status":"queued"}`, want: "20240101"},
		{name: "id", status: http.StatusCreated, body: `{"id":42}`, want: "42"},
		{name: "large numeric id", status: http.StatusOK, body: `{"run_id":12345678}`, want: "12345678"},
		{name: "no content", status: http.StatusNoContent, want: ""},
	}
	for _, tt := range tests {
		var payload map[string]any
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&payload)
			w.WriteHeader(tt.status)
			_, _ = io.WriteString(w, tt.body)
		}))

		id, err := c.StartRun(context.Background(), model.RunRequest{
			Scrapers: []string{"bae", "rtx"},
			DBMode:   model.DBModeFull,
			Limit:    new(10),
		})
		if err != nil {
			t.Fatalf("%s: StartRun: %v", tt.name, err)
		}
		if id != tt.want {
			t.Fatalf("%s: id = %q, want %q", tt.name, id, tt.want)
		}
		if payload["db_mode"] != "full" || payload["limit"] != float64(10) || payload["combine_full"] != false {
			t.Fatalf("%s: payload = %v", tt.name, payload)
		}
		if _, ok := payload["since"]; ok {
			t.Fatalf("%s: empty since should be omitted", tt.name)
		}
	}
}

func TestListRunsAcceptsNumericIDs(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[
			{"id":42,"status":"running","created_at":"2024-01-01T00:00:00","args":{}},
			{"id":"r7","status":"done","created_at":"2024-01-01T00:00:00"},
			{"status":"queued"}
		]`)
	}))

	list, err := c.ListRuns(context.Background())
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("runs = %d, want 3", len(list))
	}
	if list[0].ID != "42" || list[0].Status != model.RunRunning {
		t.Fatalf("first run = %+v", list[0])
	}
	if list[1].ID != "r7" || list[2].ID != "" {
		t.Fatalf("ids = %q, %q", list[1].ID, list[2].ID)
	}
}

func TestStartRunValidates(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("invalid request reached the backend")
	}))

	_, err := c.StartRun(context.Background(), model.RunRequest{Scrapers: []string{"bae"}, DBMode: "partial"})
	if !errors.Is(err, model.ErrInvalidRun) {
		t.Fatalf("err = %v, want ErrInvalidRun", err)
	}
}

func TestRunLogsPlainText(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/runs/abc/logs" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "starting bae\ndone\n")
	}))

	text, err := c.RunLogs(context.Background(), "abc")
	if err != nil {
		t.Fatalf("RunLogs: %v", err)
	}
	if text != "starting bae\ndone\n" {
		t.Fatalf("logs = %q", text)
	}
}

func TestMe(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"authenticated": false}`)
	}))

	me, err := c.Me(context.Background())
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if me.Authenticated {
		t.Fatal("expected unauthenticated")
	}
}
