package console

import (
	"context"
	"jobdash/internal/api"
	"jobdash/internal/joblist"
	"jobdash/internal/runs"
	"jobdash/internal/session"
	"sync"
	"time"
)

// visitor is one browser session of the console. It owns its own
// backend client, so backend cookies never leak between visitors.
type visitor struct {
	id     string
	client *api.Client
	app    *session.App
	jobs   *joblist.Controller
	search *joblist.SearchBox
	runs   *runs.Poller
	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	lastSeen    time.Time
	jobsLoaded  bool
	runsStarted bool
	vendors     []string
}

func newVisitor(id string, opts Options) (*visitor, error) {
	client, err := api.New(opts.APIURL, opts.RequestTimeout)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	jobs := joblist.New(ctx, client)

	return &visitor{
		id:       id,
		client:   client,
		app:      session.New(client),
		jobs:     jobs,
		search:   joblist.NewSearchBox(jobs, opts.SearchDebounce),
		runs:     runs.New(client, opts.PollInterval),
		ctx:      ctx,
		cancel:   cancel,
		lastSeen: time.Now(),
	}, nil
}

func (v *visitor) touch(now time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lastSeen = now
}

func (v *visitor) idleSince(now time.Time) time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return now.Sub(v.lastSeen)
}

// firstJobsVisit reports true exactly once.
func (v *visitor) firstJobsVisit() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	first := !v.jobsLoaded
	v.jobsLoaded = true
	return first
}

func (v *visitor) firstRunsVisit() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	first := !v.runsStarted
	v.runsStarted = true
	return first
}

func (v *visitor) cachedVendors(ctx context.Context) []string {
	v.mu.Lock()
	cached := v.vendors
	v.mu.Unlock()
	if cached != nil {
		return cached
	}

	names, err := v.client.Vendors(ctx)
	if err != nil {
		return nil
	}

	v.mu.Lock()
	v.vendors = names
	v.mu.Unlock()
	return names
}

func (v *visitor) close() {
	v.search.Close()
	v.runs.Stop()
	v.cancel()
}
