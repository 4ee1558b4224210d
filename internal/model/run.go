package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type RunStatus string

const (
	RunQueued    RunStatus = "queued"
	RunRunning   RunStatus = "running"
	RunDone      RunStatus = "done"
	RunError     RunStatus = "error"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

type Run struct {
	ID        string         `json:"id"`
	CreatedAt string         `json:"created_at"`
	Status    RunStatus      `json:"status"`
	Args      map[string]any `json:"args"`
	Logfile   string         `json:"logfile,omitempty"`
}

// UnmarshalJSON accepts a string or numeric id.
func (r *Run) UnmarshalJSON(b []byte) error {
	type plain Run
	aux := struct {
		*plain
		ID any `json:"id"`
	}{plain: (*plain)(r)}

	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	r.ID = IDString(aux.ID)
	return nil
}

// IDString renders an opaque backend id. Whole numbers have no
// fractional part or exponent.
func IDString(v any) string {
	return stringify(v)
}

func (r Run) Created() time.Time {
	return ParseDate(r.CreatedAt)
}

type DBMode string

const (
	DBModeMin  DBMode = "min"
	DBModeFull DBMode = "full"
)

var ErrInvalidRun = errors.New("invalid run request")

// RunRequest is the body of POST /runs.
type RunRequest struct {
	Scrapers    []string `json:"scrapers"`
	DBMode      DBMode   `json:"db_mode"`
	CombineFull bool     `json:"combine_full"`
	Limit       *int     `json:"limit,omitempty"`
	Since       string   `json:"since,omitempty"`
	Workers     *int     `json:"workers,omitempty"`
}

func (r RunRequest) Validate() error {
	if len(r.Scrapers) == 0 {
		return fmt.Errorf("%w: at least one scraper is required", ErrInvalidRun)
	}
	if r.DBMode != DBModeMin && r.DBMode != DBModeFull {
		return fmt.Errorf("%w: db_mode must be min or full, got %q", ErrInvalidRun, r.DBMode)
	}
	if r.Limit != nil && *r.Limit <= 0 {
		return fmt.Errorf("%w: limit must be positive", ErrInvalidRun)
	}
	if r.Workers != nil && *r.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive", ErrInvalidRun)
	}
	if r.Since != "" {
		if _, err := time.Parse("2006-01-02", r.Since); err != nil {
			return fmt.Errorf("%w: since must be YYYY-MM-DD, got %q", ErrInvalidRun, r.Since)
		}
	}
	return nil
}
