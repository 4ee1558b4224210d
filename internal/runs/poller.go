// Package runs keeps the list of scrape runs fresh while any of them is
// still running, and fetches run logs on demand.
package runs

import (
	"context"
	"jobdash/internal/api"
	"jobdash/internal/logger"
	"jobdash/internal/model"
	"jobdash/internal/schedule"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
)

const DefaultInterval = 5 * time.Second

type Backend interface {
	ListRuns(ctx context.Context) ([]model.Run, error)
	RunLogs(ctx context.Context, id string) (string, error)
	StartRun(ctx context.Context, req model.RunRequest) (string, error)
}

type Snapshot struct {
	Runs         []model.Run
	HasActiveRun bool
	Err          string
	LastRefresh  time.Time
	Polling      bool

	Selected    string
	Logs        string
	LogsErr     string
	LogsLoading bool
}

type Poller struct {
	backend  Backend
	interval time.Duration

	mu          sync.Mutex
	ctx         context.Context
	started     bool
	timer       *schedule.Task
	gen         uint64
	runs        []model.Run
	active      bool
	errMsg      string
	lastRefresh time.Time

	selected    string
	logs        string
	logsErr     string
	logsLoading bool
	logsGen     uint64
}

func New(backend Backend, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{backend: backend, interval: interval, ctx: context.Background()}
}

// Start refreshes once and keeps polling for as long as a run is active.
// ctx bounds the scheduled refreshes.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	p.ctx = ctx
	p.started = true
	p.mu.Unlock()

	return p.Refresh(ctx)
}

// Stop clears any pending refresh. A stopped poller can be started again.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.started = false
	p.timer.Cancel()
	p.timer = nil
}

// Kick refreshes now with the poller's own context. It is how a newly
// started run gets noticed without waiting for a tick.
func (p *Poller) Kick() error {
	p.mu.Lock()
	ctx := p.ctx
	p.mu.Unlock()

	return p.Refresh(ctx)
}

// Refresh replaces the run list with the backend's and reschedules the
// next poll. On failure the previous list is kept.
func (p *Poller) Refresh(ctx context.Context) error {
	p.mu.Lock()
	p.gen++
	gen := p.gen
	p.mu.Unlock()

	list, err := p.backend.ListRuns(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()

	if gen == p.gen {
		if err != nil {
			p.errMsg = api.Message(err)
			logger.Log.Warn("run list refresh failed", zap.Error(err))
		} else {
			p.runs = list
			p.active = hasActiveRun(list)
			p.errMsg = ""
			p.lastRefresh = time.Now()
		}
	}

	p.rescheduleLocked()
	return err
}

func (p *Poller) rescheduleLocked() {
	p.timer.Cancel()
	p.timer = nil

	if !p.started || !p.active {
		return
	}
	if p.ctx.Err() != nil {
		return
	}

	p.timer = schedule.After(p.interval, p.tick)
}

func (p *Poller) tick() {
	p.mu.Lock()
	ctx := p.ctx
	started := p.started
	p.mu.Unlock()

	if !started || ctx.Err() != nil {
		return
	}

	if err := p.Refresh(ctx); err != nil {
		logger.Log.Debug("scheduled run refresh failed", zap.Error(err))
	}
}

func hasActiveRun(list []model.Run) bool {
	return slices.ContainsFunc(list, func(r model.Run) bool {
		return r.Status == model.RunRunning
	})
}

func (p *Poller) HasActiveRun() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

func (p *Poller) Polling() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timer != nil
}

func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Snapshot{
		Runs:         slices.Clone(p.runs),
		HasActiveRun: p.active,
		Err:          p.errMsg,
		LastRefresh:  p.lastRefresh,
		Polling:      p.timer != nil,
		Selected:     p.selected,
		Logs:         p.logs,
		LogsErr:      p.logsErr,
		LogsLoading:  p.logsLoading,
	}
}

// Select fetches the plain-text log of run id. A later Select wins over
// an earlier one still in flight.
func (p *Poller) Select(ctx context.Context, id string) (string, error) {
	p.mu.Lock()
	p.logsGen++
	gen := p.logsGen
	p.selected = id
	p.logs = ""
	p.logsErr = ""
	p.logsLoading = true
	p.mu.Unlock()

	text, err := p.backend.RunLogs(ctx, id)

	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.logsGen {
		return text, err
	}

	p.logsLoading = false
	if err != nil {
		p.logsErr = api.Message(err)
		return "", err
	}
	p.logs = text
	return text, nil
}

// StartRun submits a scrape and refreshes so the new run starts polling.
func (p *Poller) StartRun(ctx context.Context, req model.RunRequest) (string, error) {
	id, err := p.backend.StartRun(ctx, req)
	if err != nil {
		return "", err
	}

	logger.Log.Info("scrape run started",
		zap.String("run_id", id),
		zap.Strings("scrapers", req.Scrapers),
		zap.String("db_mode", string(req.DBMode)))

	if err := p.Refresh(ctx); err != nil {
		logger.Log.Warn("refresh after starting run failed", zap.Error(err))
	}
	return id, nil
}
