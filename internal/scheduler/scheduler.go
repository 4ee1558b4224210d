// Package scheduler starts scrape runs on cron schedules from the config.
package scheduler

import (
	"context"
	"fmt"
	"jobdash/internal/config"
	"jobdash/internal/logger"
	"jobdash/internal/model"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Backend interface {
	Login(ctx context.Context, creds model.Credentials) (*model.User, error)
	StartRun(ctx context.Context, req model.RunRequest) (string, error)
}

type TriggerStore interface {
	Save(runID string, req model.RunRequest, source model.TriggerSource, actor string, runErr error) error
}

// Scheduler wraps robfig/cron. Entries can be replaced at runtime when
// the config file changes.
type Scheduler struct {
	cron     *cron.Cron
	backend  Backend
	creds    model.Credentials
	triggers TriggerStore
	timeout  time.Duration
	now      func() time.Time

	mu      sync.Mutex
	entries []cron.EntryID
}

func New(backend Backend, creds model.Credentials, triggers TriggerStore, timeout time.Duration) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLogger(cron.PrintfLogger(zap.NewStdLog(logger.Log)))),
		backend:  backend,
		creds:    creds,
		triggers: triggers,
		timeout:  timeout,
		now:      time.Now,
	}
}

// Apply replaces all scheduled entries. Nothing changes if any spec is
// invalid.
func (s *Scheduler) Apply(schedules []config.Schedule) error {
	for i, sc := range schedules {
		if _, err := cron.ParseStandard(sc.Spec); err != nil {
			return fmt.Errorf("schedules[%d]: invalid spec %q: %w", i, sc.Spec, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.entries {
		s.cron.Remove(id)
	}
	s.entries = s.entries[:0]

	for _, sc := range schedules {
		id, err := s.cron.AddFunc(sc.Spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()
			_, _ = s.Fire(ctx, sc)
		})
		if err != nil {
			return fmt.Errorf("cron.AddFunc: %w", err)
		}
		s.entries = append(s.entries, id)
	}

	logger.Log.Info("scrape schedules applied", zap.Int("count", len(schedules)))
	return nil
}

func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Fire signs in with the service account and starts one run for sc.
func (s *Scheduler) Fire(ctx context.Context, sc config.Schedule) (string, error) {
	req := s.request(sc)

	if s.creds.Email != "" {
		if _, err := s.backend.Login(ctx, s.creds); err != nil {
			err = fmt.Errorf("service login failed: %w", err)
			s.record("", req, err)
			logger.Log.Error("scheduled scrape skipped", zap.Error(err))
			return "", err
		}
	}

	id, err := s.backend.StartRun(ctx, req)
	s.record(id, req, err)
	if err != nil {
		logger.Log.Error("scheduled scrape failed",
			zap.Strings("scrapers", req.Scrapers),
			zap.Error(err))
		return "", err
	}

	logger.Log.Info("scheduled scrape started",
		zap.String("run_id", id),
		zap.String("spec", sc.Spec),
		zap.Strings("scrapers", req.Scrapers))
	return id, nil
}

func (s *Scheduler) request(sc config.Schedule) model.RunRequest {
	req := model.RunRequest{
		Scrapers:    sc.Scrapers,
		DBMode:      model.DBMode(sc.DBMode),
		CombineFull: sc.CombineFull,
	}
	if req.DBMode == "" {
		req.DBMode = model.DBModeMin
	}
	if sc.Limit > 0 {
		req.Limit = new(sc.Limit)
	}
	if sc.Workers > 0 {
		req.Workers = new(sc.Workers)
	}
	if sc.SinceDays > 0 {
		req.Since = s.now().AddDate(0, 0, -sc.SinceDays).Format("2006-01-02")
	}
	return req
}

func (s *Scheduler) record(id string, req model.RunRequest, runErr error) {
	if s.triggers == nil {
		return
	}
	if err := s.triggers.Save(id, req, model.TriggerSchedule, s.creds.Email, runErr); err != nil {
		logger.Log.Warn("failed to record scheduled trigger", zap.Error(err))
	}
}
