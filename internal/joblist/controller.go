// Package joblist keeps one page of scraped job postings consistent with
// the active filters, page index and sort order.
//
// Every filter or page change starts a fetch against the backend. Each
// fetch carries the generation current when it started; a completion
// whose generation has since been superseded is dropped, so a slow
// response can never overwrite the result of a newer trigger. The
// underlying request is left to finish on its own.
package joblist

import (
	"context"
	"errors"
	"jobdash/internal/api"
	"jobdash/internal/logger"
	"jobdash/internal/model"
	"sync"

	"go.uber.org/zap"
)

var ErrPageMove = errors.New("page move not allowed")

type Fetcher interface {
	ListJobs(ctx context.Context, q model.JobQuery) ([]model.JobRecord, error)
}

// State is a snapshot of the controller.
type State struct {
	Filter    model.Filter
	Page      int
	Sort      model.Sort
	Records   []model.JobRecord
	Loading   bool
	Err       string
	CanGoPrev bool
	CanGoNext bool
}

type Controller struct {
	ctx     context.Context
	fetcher Fetcher

	mu      sync.Mutex
	filter  model.Filter
	page    int
	sort    model.Sort
	raw     []model.JobRecord
	view    []model.JobRecord
	loading bool
	errMsg  string
	// rows returned by the latest applied fetch; -1 until one succeeds
	lastCount int
	gen       uint64
	idle      chan struct{}
}

// New returns an idle controller. ctx bounds every fetch it issues.
func New(ctx context.Context, fetcher Fetcher) *Controller {
	idle := make(chan struct{})
	close(idle)

	return &Controller{
		ctx:       ctx,
		fetcher:   fetcher,
		sort:      model.DefaultSort,
		lastCount: -1,
		idle:      idle,
	}
}

// Refresh re-fetches the current page with the current filters.
func (c *Controller) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startFetchLocked()
}

// SetFilters merges the patch, resets to the first page and fetches.
func (c *Controller) SetFilters(p model.FilterPatch) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.filter = c.filter.Apply(p)
	c.page = 0
	c.startFetchLocked()
}

// SetPage moves one page back (delta -1) or forward (delta +1).
func (c *Controller) SetPage(delta int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case delta == -1 && c.canGoPrevLocked():
	case delta == 1 && c.canGoNextLocked():
	default:
		return ErrPageMove
	}

	c.page += delta
	c.startFetchLocked()
	return nil
}

// SetSort toggles the direction of the active field or switches to a new
// field with its default direction. The loaded page is re-sorted in place;
// nothing is fetched.
func (c *Controller) SetSort(field model.SortField) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sort.Field == field {
		c.sort.Direction = c.sort.Direction.Flip()
	} else {
		c.sort = model.Sort{Field: field, Direction: field.DefaultDirection()}
	}
	c.view = sortRecords(c.raw, c.sort)
}

func (c *Controller) CanGoPrev() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canGoPrevLocked()
}

func (c *Controller) CanGoNext() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canGoNextLocked()
}

func (c *Controller) canGoPrevLocked() bool {
	return c.page > 0 && !c.loading
}

func (c *Controller) canGoNextLocked() bool {
	return c.lastCount == model.PageSize && !c.loading
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return State{
		Filter:    c.filter,
		Page:      c.page,
		Sort:      c.sort,
		Records:   append([]model.JobRecord(nil), c.view...),
		Loading:   c.loading,
		Err:       c.errMsg,
		CanGoPrev: c.canGoPrevLocked(),
		CanGoNext: c.canGoNextLocked(),
	}
}

// Wait blocks until no fetch is outstanding or ctx is done.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	idle := c.idle
	c.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) startFetchLocked() {
	c.gen++
	gen := c.gen

	if !c.loading {
		c.idle = make(chan struct{})
	}
	c.loading = true
	c.errMsg = ""
	c.raw = nil
	c.view = nil
	c.lastCount = -1

	q := model.JobQuery{
		Limit:  model.PageSize,
		Offset: c.page * model.PageSize,
		Filter: c.filter,
	}

	go func() {
		recs, err := c.fetcher.ListJobs(c.ctx, q)
		c.finish(gen, q, recs, err)
	}()
}

func (c *Controller) finish(gen uint64, q model.JobQuery, recs []model.JobRecord, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		logger.Log.Debug("dropping stale job list result",
			zap.Uint64("gen", gen),
			zap.Uint64("current", c.gen),
			zap.Int("offset", q.Offset))
		return
	}

	c.loading = false
	close(c.idle)

	if err != nil {
		c.errMsg = api.Message(err)
		logger.Log.Warn("job list fetch failed",
			zap.Int("offset", q.Offset),
			zap.Error(err))
		return
	}

	c.raw = recs
	c.view = sortRecords(recs, c.sort)
	c.lastCount = len(recs)
}
