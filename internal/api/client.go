package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"jobdash/internal/logger"
	"jobdash/internal/model"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

const (
	CSRFCookie = "csrf_token"
	CSRFHeader = "X-CSRFToken"
)

// Client talks to the scraping backend. Each Client owns a cookie jar,
// so one Client corresponds to one backend session.
type Client struct {
	base *url.URL
	http *http.Client
}

func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api url %q: scheme and host required", baseURL)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Client{
		base: u,
		http: &http.Client{Timeout: timeout, Jar: jar},
	}, nil
}

func (c *Client) BaseURL() string {
	return c.base.String()
}

func (c *Client) Cookies() []*http.Cookie {
	return c.http.Jar.Cookies(c.base)
}

func (c *Client) SetCookies(cookies []*http.Cookie) {
	c.http.Jar.SetCookies(c.base, cookies)
}

func (c *Client) csrfToken() string {
	for _, ck := range c.http.Jar.Cookies(c.base) {
		if ck.Name == CSRFCookie {
			return ck.Value
		}
	}
	return ""
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any) (*http.Response, error) {
	// path arrives already escaped
	u := *c.base
	u.RawPath = c.base.EscapedPath() + path
	unescaped, err := url.PathUnescape(u.RawPath)
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", path, err)
	}
	u.Path = unescaped
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s %s body: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s %s: %w", method, path, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if tok := c.csrfToken(); tok != "" {
		req.Header.Set(CSRFHeader, tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return nil, &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: string(text)}
	}

	logger.Log.Debug("backend request",
		zap.String("method", method),
		zap.String("url", u.String()),
		zap.Int("status", resp.StatusCode))

	return resp, nil
}

// getJSON decodes the response into out. A body of the wrong shape is
// logged and leaves out untouched, which callers treat as empty.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	decodeLoose(resp.Body, path, out)
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) (int, error) {
	resp, err := c.do(ctx, http.MethodPost, path, nil, payload)
	if err != nil {
		return 0, err
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if out != nil && resp.StatusCode != http.StatusNoContent {
		decodeLoose(resp.Body, path, out)
	}
	return resp.StatusCode, nil
}

func decodeLoose(r io.Reader, path string, out any) {
	target := reflect.ValueOf(out).Elem()
	tmp := reflect.New(target.Type())
	if err := json.NewDecoder(r).Decode(tmp.Interface()); err != nil {
		if err != io.EOF {
			logger.Log.Debug("unexpected payload shape",
				zap.String("path", path),
				zap.Error(err))
		}
		return
	}
	target.Set(tmp.Elem())
}

func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	out := map[string]any{}
	if err := c.getJSON(ctx, "/health", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Vendors returns the distinct vendor names, sorted alphabetically.
func (c *Client) Vendors(ctx context.Context) ([]string, error) {
	var rows []model.Vendor
	if err := c.getJSON(ctx, "/vendors", nil, &rows); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(rows))
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.Vendor == "" || seen[r.Vendor] {
			continue
		}
		seen[r.Vendor] = true
		names = append(names, r.Vendor)
	}
	slices.SortFunc(names, func(a, b string) int {
		if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return names, nil
}

func JobsQuery(q model.JobQuery) url.Values {
	v := url.Values{}
	v.Set("limit", strconv.Itoa(q.Limit))
	v.Set("offset", strconv.Itoa(q.Offset))
	if q.Filter.Vendor != "" {
		v.Set("vendor", q.Filter.Vendor)
	}
	if q.Filter.SearchTerm != "" {
		v.Set("q", q.Filter.SearchTerm)
	}
	if q.Filter.Since != "" {
		v.Set("since", q.Filter.Since)
	}
	return v
}

func (c *Client) ListJobs(ctx context.Context, q model.JobQuery) ([]model.JobRecord, error) {
	var rows []model.JobRecord
	if err := c.getJSON(ctx, "/jobs", JobsQuery(q), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) GetJob(ctx context.Context, vendor, key string) (model.JobRecord, error) {
	path := "/jobs/" + url.PathEscape(vendor) + "/" + url.PathEscape(key)
	rec := model.JobRecord{}
	if err := c.getJSON(ctx, path, nil, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// StartRun returns the backend's run id, which is empty on a 204 reply.
func (c *Client) StartRun(ctx context.Context, req model.RunRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	var out struct {
		RunID any `json:"run_id"`
		ID    any `json:"id"`
	}
	if _, err := c.postJSON(ctx, "/runs", req, &out); err != nil {
		return "", err
	}

	for _, v := range []any{out.RunID, out.ID} {
		if id := model.IDString(v); id != "" {
			return id, nil
		}
	}
	return "", nil
}

func (c *Client) ListRuns(ctx context.Context) ([]model.Run, error) {
	var runs []model.Run
	if err := c.getJSON(ctx, "/runs", nil, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

func (c *Client) RunLogs(ctx context.Context, id string) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/runs/"+url.PathEscape(id)+"/logs", nil, nil)
	if err != nil {
		return "", err
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read logs of run %s: %w", id, err)
	}
	return string(text), nil
}

func (c *Client) Metrics(ctx context.Context) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/metrics", nil, nil)
	if err != nil {
		return "", err
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read metrics: %w", err)
	}
	return string(text), nil
}

func (c *Client) ListUsers(ctx context.Context) ([]model.AdminUser, error) {
	var users []model.AdminUser
	if err := c.getJSON(ctx, "/admin/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) Login(ctx context.Context, creds model.Credentials) (*model.User, error) {
	return c.authenticate(ctx, "/auth/login", creds)
}

func (c *Client) Register(ctx context.Context, creds model.Credentials) (*model.User, error) {
	u, err := c.authenticate(ctx, "/auth/register", creds)
	if StatusCode(err) == http.StatusConflict {
		return nil, fmt.Errorf("%w: %s", ErrEmailTaken, creds.Email)
	}
	return u, err
}

func (c *Client) authenticate(ctx context.Context, path string, creds model.Credentials) (*model.User, error) {
	var u model.User
	if _, err := c.postJSON(ctx, path, creds, &u); err != nil {
		return nil, err
	}
	if u.Email == "" {
		u.Email = creds.Email
	}
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	return &u, nil
}

func (c *Client) Logout(ctx context.Context) error {
	_, err := c.postJSON(ctx, "/auth/logout", nil, nil)
	return err
}

func (c *Client) Me(ctx context.Context) (model.Me, error) {
	var me model.Me
	err := c.getJSON(ctx, "/auth/me", nil, &me)
	return me, err
}
