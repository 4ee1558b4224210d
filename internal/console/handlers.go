package console

import (
	"context"
	"errors"
	"fmt"
	"jobdash/internal/api"
	"jobdash/internal/joblist"
	"jobdash/internal/logger"
	"jobdash/internal/model"
	"jobdash/internal/runs"
	"jobdash/internal/session"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type page struct {
	Title     string
	Path      string
	User      *model.User
	Toasts    []session.Toast
	CSRF      string
	AutoRenew int
	Data      any
}

func resolve(path string, v *visitor) string {
	return session.Resolve(path, v.app.User())
}

func (s *Server) render(c echo.Context, name, title string, data any) error {
	v := visitorOf(c)
	csrf, _ := c.Get("csrf").(string)

	return c.Render(http.StatusOK, name, page{
		Title:  title,
		Path:   c.Request().URL.Path,
		User:   v.app.User(),
		Toasts: v.app.Toasts(),
		CSRF:   csrf,
		Data:   data,
	})
}

func (s *Server) requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), s.opts.RequestTimeout)
}

type homeView struct {
	Health    map[string]any
	HealthErr string
	Vendors   []string
}

func (s *Server) handleHome(c echo.Context) error {
	v := visitorOf(c)
	ctx, cancel := s.requestCtx(c)
	defer cancel()

	var view homeView
	health, err := v.client.Health(ctx)
	if err != nil {
		view.HealthErr = api.Message(err)
	} else {
		view.Health = health
		view.Vendors = v.cachedVendors(ctx)
	}

	return s.render(c, "home", "Overview", view)
}

func (s *Server) handleLoginPage(c echo.Context) error {
	return s.render(c, "login", "Sign in", nil)
}

func credentials(c echo.Context) model.Credentials {
	return model.Credentials{
		Email:    c.FormValue("email"),
		Password: c.FormValue("password"),
	}
}

func (s *Server) handleLogin(c echo.Context) error {
	v := visitorOf(c)
	ctx, cancel := s.requestCtx(c)
	defer cancel()

	if err := v.app.Login(ctx, credentials(c)); err != nil {
		return c.Redirect(http.StatusSeeOther, session.RouteLogin)
	}
	return c.Redirect(http.StatusSeeOther, session.RouteJobs)
}

func (s *Server) handleRegister(c echo.Context) error {
	v := visitorOf(c)
	ctx, cancel := s.requestCtx(c)
	defer cancel()

	if err := v.app.Register(ctx, credentials(c)); err != nil {
		return c.Redirect(http.StatusSeeOther, session.RouteLogin)
	}
	return c.Redirect(http.StatusSeeOther, session.RouteJobs)
}

func (s *Server) handleLogout(c echo.Context) error {
	v := visitorOf(c)
	ctx, cancel := s.requestCtx(c)
	defer cancel()

	if err := v.app.Logout(ctx); err != nil {
		logger.Log.Warn("backend logout failed", zap.Error(err))
	}

	// the next user of this browser starts from a clean list and poller
	fresh, err := s.renew(c, v)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	for _, toast := range v.app.Toasts() {
		fresh.app.Notify(toast.Level, toast.Message)
	}
	return c.Redirect(http.StatusSeeOther, session.RouteLogin)
}

type jobRow struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Date        string `json:"date"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

type jobsView struct {
	Vendor        string   `json:"vendor"`
	SearchTerm    string   `json:"q"`
	Since         string   `json:"since"`
	Page          int      `json:"page"`
	SortField     string   `json:"sort"`
	SortDirection string   `json:"direction"`
	Rows          []jobRow `json:"rows"`
	Loading       bool     `json:"loading"`
	Err           string   `json:"error,omitempty"`
	CanGoPrev     bool     `json:"can_go_prev"`
	CanGoNext     bool     `json:"can_go_next"`
	SearchPending bool     `json:"search_pending"`
	Vendors       []string `json:"-"`
	Placeholders  []int    `json:"-"`
}

func newJobsView(st joblist.State, searchPending bool) jobsView {
	view := jobsView{
		Vendor:        st.Filter.Vendor,
		SearchTerm:    st.Filter.SearchTerm,
		Since:         st.Filter.Since,
		Page:          st.Page,
		SortField:     string(st.Sort.Field),
		SortDirection: string(st.Sort.Direction),
		Rows:          make([]jobRow, 0, len(st.Records)),
		Loading:       st.Loading,
		Err:           st.Err,
		CanGoPrev:     st.CanGoPrev,
		CanGoNext:     st.CanGoNext,
		SearchPending: searchPending,
	}
	for _, r := range st.Records {
		view.Rows = append(view.Rows, jobRow{
			Key:         r.Key(),
			Title:       r.Title(),
			Company:     r.Company(),
			Location:    r.Location(),
			Date:        r.Date(),
			URL:         r.URL(),
			Description: r.Description(),
		})
	}
	if st.Loading {
		view.Placeholders = make([]int, 8)
	}
	return view
}

// filterPatch builds a patch from the query parameters that are present
// and differ from the current filter.
func filterPatch(c echo.Context, cur model.Filter) (model.FilterPatch, bool) {
	var p model.FilterPatch
	changed := false
	q := c.QueryParams()

	set := func(key, current string, dst **string) {
		if !q.Has(key) {
			return
		}
		val := strings.TrimSpace(q.Get(key))
		if val == current {
			return
		}
		*dst = &val
		changed = true
	}
	set("vendor", cur.Vendor, &p.Vendor)
	set("q", cur.SearchTerm, &p.SearchTerm)
	set("since", cur.Since, &p.Since)
	return p, changed
}

func (s *Server) handleJobs(c echo.Context) error {
	v := visitorOf(c)

	if field := c.QueryParam("sort"); field != "" {
		f, err := model.ParseSortField(field)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		v.jobs.SetSort(f)
		return c.Redirect(http.StatusSeeOther, session.RouteJobs)
	}

	if move := c.QueryParam("page"); move != "" {
		var delta int
		switch move {
		case "next":
			delta = 1
		case "prev":
			delta = -1
		default:
			return echo.NewHTTPError(http.StatusBadRequest, "page must be next or prev")
		}
		if err := v.jobs.SetPage(delta); errors.Is(err, joblist.ErrPageMove) {
			v.app.Notify(session.LevelInfo, "No "+move+" page")
		}
		return c.Redirect(http.StatusSeeOther, session.RouteJobs)
	}

	first := v.firstJobsVisit()
	if p, changed := filterPatch(c, v.jobs.State().Filter); changed {
		v.jobs.SetFilters(p)
	} else if first {
		v.jobs.Refresh()
	}

	ctx, cancel := s.requestCtx(c)
	defer cancel()
	_ = v.jobs.Wait(ctx)

	view := newJobsView(v.jobs.State(), v.search.Pending())
	view.Vendors = v.cachedVendors(ctx)
	return s.render(c, "jobs", "Jobs", view)
}

func (s *Server) handleSearch(c echo.Context) error {
	v := visitorOf(c)
	v.search.Type(strings.TrimSpace(c.QueryParam("q")))
	return c.JSON(http.StatusAccepted, map[string]bool{"pending": true})
}

func (s *Server) handleJobsState(c echo.Context) error {
	v := visitorOf(c)
	return c.JSON(http.StatusOK, newJobsView(v.jobs.State(), v.search.Pending()))
}

func (s *Server) handleScrapePage(c echo.Context) error {
	return s.render(c, "scrape", "Start scrape", nil)
}

func parseRunRequest(c echo.Context) (model.RunRequest, error) {
	req := model.RunRequest{
		DBMode:      model.DBMode(c.FormValue("db_mode")),
		CombineFull: c.FormValue("combine_full") != "",
		Since:       strings.TrimSpace(c.FormValue("since")),
	}
	for _, name := range strings.FieldsFunc(c.FormValue("scrapers"), func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n'
	}) {
		req.Scrapers = append(req.Scrapers, strings.ToLower(name))
	}

	optInt := func(key string) (*int, error) {
		raw := strings.TrimSpace(c.FormValue(key))
		if raw == "" {
			return nil, nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be a number", model.ErrInvalidRun, key)
		}
		return &n, nil
	}

	var err error
	if req.Limit, err = optInt("limit"); err != nil {
		return req, err
	}
	if req.Workers, err = optInt("workers"); err != nil {
		return req, err
	}
	return req, req.Validate()
}

func (s *Server) handleScrape(c echo.Context) error {
	v := visitorOf(c)

	req, err := parseRunRequest(c)
	if err != nil {
		v.app.Notify(session.LevelError, err.Error())
		return c.Redirect(http.StatusSeeOther, session.RouteScrape)
	}

	ctx, cancel := s.requestCtx(c)
	defer cancel()

	if v.firstRunsVisit() {
		// the poller must be started for the new run to be polled
		_ = v.runs.Start(v.ctx)
	}

	id, err := v.runs.StartRun(ctx, req)
	s.recordTrigger(id, req, v.app.User(), err)
	if err != nil {
		v.app.Notify(session.LevelError, "Could not start run: "+api.Message(err))
		return c.Redirect(http.StatusSeeOther, session.RouteScrape)
	}

	msg := "Run started"
	if id != "" {
		msg += ": " + id
	}
	v.app.Notify(session.LevelSuccess, msg)
	return c.Redirect(http.StatusSeeOther, session.RouteRuns)
}

func (s *Server) recordTrigger(id string, req model.RunRequest, u *model.User, runErr error) {
	if s.triggers == nil {
		return
	}
	actor := ""
	if u != nil {
		actor = u.Email
	}
	if err := s.triggers.Save(id, req, model.TriggerManual, actor, runErr); err != nil {
		logger.Log.Warn("failed to record trigger", zap.Error(err))
	}
}

type runsView struct {
	runs.Snapshot
	Triggers []model.Trigger
}

func (s *Server) handleRuns(c echo.Context) error {
	v := visitorOf(c)

	if v.firstRunsVisit() {
		_ = v.runs.Start(v.ctx)
	} else {
		_ = v.runs.Kick()
	}

	view := runsView{Snapshot: v.runs.Snapshot()}
	if s.triggers != nil {
		if recent, err := s.triggers.GetRecent(10); err == nil {
			view.Triggers = recent
		}
	}
	return s.renderRuns(c, view)
}

func (s *Server) renderRuns(c echo.Context, view runsView) error {
	v := visitorOf(c)
	csrf, _ := c.Get("csrf").(string)

	p := page{
		Title:  "Runs",
		Path:   c.Request().URL.Path,
		User:   v.app.User(),
		Toasts: v.app.Toasts(),
		CSRF:   csrf,
		Data:   view,
	}
	if view.HasActiveRun {
		p.AutoRenew = int(s.opts.PollInterval.Seconds())
		if p.AutoRenew < 1 {
			p.AutoRenew = 1
		}
	}
	return c.Render(http.StatusOK, "runs", p)
}

func (s *Server) handleRunLogs(c echo.Context) error {
	v := visitorOf(c)
	ctx, cancel := s.requestCtx(c)
	defer cancel()

	id := c.Param("id")
	text, err := v.runs.Select(ctx, id)
	if c.QueryParam("raw") != "" {
		if err != nil {
			code := api.StatusCode(err)
			if code == 0 {
				code = http.StatusBadGateway
			}
			return c.String(code, api.Message(err))
		}
		return c.String(http.StatusOK, text)
	}

	return s.render(c, "logs", "Run "+id, v.runs.Snapshot())
}

type usersView struct {
	Users []model.AdminUser
	Err   string
}

func (s *Server) handleUsers(c echo.Context) error {
	v := visitorOf(c)
	ctx, cancel := s.requestCtx(c)
	defer cancel()

	var view usersView
	users, err := v.client.ListUsers(ctx)
	if err != nil {
		view.Err = api.Message(err)
	} else {
		view.Users = users
	}
	return s.render(c, "users", "Users", view)
}
