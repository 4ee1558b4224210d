package repository

import (
	"errors"
	"jobdash/internal/db"
	"jobdash/internal/model"
	"net/http"
	"path/filepath"
	"testing"
	"time"
)

func setupDB(t *testing.T) {
	t.Helper()
	if err := db.Init(filepath.Join(t.TempDir(), "test.db")); err != nil {
		t.Fatalf("db.Init: %v", err)
	}
}

func TestCookieReplaceAndLoad(t *testing.T) {
	setupDB(t)
	repo := NewCookieRepository()
	const base = "http://api.local"

	err := repo.Replace(base, []*http.Cookie{
		{Name: "session", Value: "s1"},
		{Name: "csrf_token", Value: "c1"},
		{Name: "old", Value: "x", Expires: time.Now().Add(-time.Hour)},
	})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}

	got, err := repo.Load(base)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("loaded %d cookies, want 2 (expired skipped)", len(got))
	}

	if err := repo.Replace(base, []*http.Cookie{{Name: "session", Value: "s2"}}); err != nil {
		t.Fatalf("second Replace: %v", err)
	}

	got, _ = repo.Load(base)
	if len(got) != 1 || got[0].Value != "s2" {
		t.Fatalf("after replace = %+v, want only session=s2", got)
	}

	other, _ := repo.Load("http://other.local")
	if len(other) != 0 {
		t.Fatalf("cookies leaked across base urls: %+v", other)
	}

	if err := repo.Clear(base); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	got, _ = repo.Load(base)
	if len(got) != 0 {
		t.Fatalf("after Clear = %+v", got)
	}
}

func TestTriggerHistory(t *testing.T) {
	setupDB(t)
	repo := NewTriggerRepository()
	req := model.RunRequest{Scrapers: []string{"bae", "rtx"}, DBMode: model.DBModeMin}

	if err := repo.Save("r1", req, model.TriggerManual, "a@x", nil); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if err := repo.Save("", req, model.TriggerSchedule, "svc@x", errors.New("HTTP 403: forbidden")); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if err := repo.Save("r3", req, model.TriggerManual, "a@x", nil); err != nil {
		t.Fatal(err)
	}

	recent, err := repo.GetRecent(2)
	if err != nil {
		t.Fatalf("GetRecent: %v", err)
	}
	if len(recent) != 2 || recent[0].RunID != "r3" || recent[1].Source != model.TriggerSchedule {
		t.Fatalf("recent = %+v", recent)
	}
	if recent[0].Scrapers != "bae,rtx" {
		t.Fatalf("scrapers = %q", recent[0].Scrapers)
	}

	failed, err := repo.GetFailed()
	if err != nil {
		t.Fatalf("GetFailed: %v", err)
	}
	if len(failed) != 1 || failed[0].ErrMsg != "HTTP 403: forbidden" {
		t.Fatalf("failed = %+v", failed)
	}
}
