// Package console serves the browser admin console. Each visitor gets
// a job list controller, a run poller and a session of its own; pages are
// rendered on the server from their state.
package console

import (
	"context"
	"errors"
	"jobdash/internal/logger"
	"jobdash/internal/model"
	"jobdash/internal/runs"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const (
	visitorCookie = "jobdash_sid"
	visitorKey    = "visitor"
	csrfField     = "_csrf"
)

type Options struct {
	APIURL         string
	Listen         string
	RequestTimeout time.Duration
	PollInterval   time.Duration
	SearchDebounce time.Duration
	SessionTTL     time.Duration
}

type TriggerStore interface {
	Save(runID string, req model.RunRequest, source model.TriggerSource, actor string, runErr error) error
	GetRecent(limit int) ([]model.Trigger, error)
}

type Server struct {
	echo     *echo.Echo
	opts     Options
	triggers TriggerStore

	mu       sync.Mutex
	visitors map[string]*visitor
	stopCh   chan struct{}
}

// NewServer builds the console. triggers may be nil, in which case runs
// started from the console are not recorded locally.
func NewServer(opts Options, triggers TriggerStore) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = runs.DefaultInterval
	}
	if opts.SearchDebounce <= 0 {
		opts.SearchDebounce = 300 * time.Millisecond
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = newRenderer()
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				logger.Log.Warn("console request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Log.Debug("console request", fields...)
			return nil
		},
	}))
	e.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "form:" + csrfField,
		CookieName:     csrfField,
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSameSite: http.SameSiteLaxMode,
	}))

	s := &Server{
		echo:     e,
		opts:     opts,
		triggers: triggers,
		visitors: make(map[string]*visitor),
		stopCh:   make(chan struct{}),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Session actions
	s.echo.POST("/logout", s.handleLogout, s.visit)
	s.echo.POST("/register", s.handleRegister, s.visit)

	// Pages, each behind route gating
	gated := []echo.MiddlewareFunc{s.visit, s.gate}
	s.echo.GET("/", s.handleHome, gated...)
	s.echo.GET("/login", s.handleLoginPage, gated...)
	s.echo.POST("/login", s.handleLogin, gated...)
	s.echo.GET("/jobs", s.handleJobs, gated...)
	s.echo.GET("/jobs/search", s.handleSearch, gated...)
	s.echo.GET("/jobs/state", s.handleJobsState, gated...)
	s.echo.GET("/admin/scrape", s.handleScrapePage, gated...)
	s.echo.POST("/admin/scrape", s.handleScrape, gated...)
	s.echo.GET("/admin/runs", s.handleRuns, gated...)
	s.echo.GET("/admin/runs/:id/logs", s.handleRunLogs, gated...)
	s.echo.GET("/admin/users", s.handleUsers, gated...)

	s.echo.RouteNotFound("/*", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/")
	})
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until the listener fails or Stop is called.
func (s *Server) Run() error {
	go s.sweepLoop()

	logger.Log.Info("console started",
		zap.String("addr", s.opts.Listen),
		zap.String("api", s.opts.APIURL))

	if err := s.echo.Start(s.opts.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	close(s.stopCh)

	s.mu.Lock()
	for id, v := range s.visitors {
		v.close()
		delete(s.visitors, id)
	}
	s.mu.Unlock()

	return s.echo.Shutdown(ctx)
}

func (s *Server) sweepLoop() {
	if s.opts.SessionTTL <= 0 {
		return
	}

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case now := <-ticker.C:
			s.sweep(now)
		}
	}
}

// sweep drops visitors idle for longer than the session TTL and stops
// their timers.
func (s *Server) sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, v := range s.visitors {
		if v.idleSince(now) > s.opts.SessionTTL {
			v.close()
			delete(s.visitors, id)
			n++
		}
	}
	if n > 0 {
		logger.Log.Debug("expired console sessions", zap.Int("count", n))
	}
	return n
}

// visit attaches the caller's visitor, creating one and validating its
// backend session on first contact.
func (s *Server) visit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		var id string
		if ck, err := c.Cookie(visitorCookie); err == nil {
			id = ck.Value
		}

		s.mu.Lock()
		v, ok := s.visitors[id]
		s.mu.Unlock()

		if !ok {
			var err error
			v, err = newVisitor(uuid.NewString(), s.opts)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}
			v.app.Init(c.Request().Context())

			s.mu.Lock()
			s.visitors[v.id] = v
			s.mu.Unlock()

			setVisitorCookie(c, v.id)
		}

		v.touch(time.Now())
		c.Set(visitorKey, v)
		return next(c)
	}
}

// renew swaps old for a signed-out visitor with fresh state and stops
// everything old owned.
func (s *Server) renew(c echo.Context, old *visitor) (*visitor, error) {
	v, err := newVisitor(uuid.NewString(), s.opts)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	delete(s.visitors, old.id)
	s.visitors[v.id] = v
	s.mu.Unlock()

	old.close()
	setVisitorCookie(c, v.id)
	c.Set(visitorKey, v)
	return v, nil
}

func setVisitorCookie(c echo.Context, id string) {
	c.SetCookie(&http.Cookie{
		Name:     visitorCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) gate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		v := visitorOf(c)
		if to := resolve(c.Request().URL.Path, v); to != "" {
			return c.Redirect(http.StatusFound, to)
		}
		return next(c)
	}
}

func visitorOf(c echo.Context) *visitor {
	return c.Get(visitorKey).(*visitor)
}

func (s *Server) visitorCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visitors)
}
