// Package rest is the HTTP client for the project-management API. Client
// attaches the session's bearer token to every request and recovers once
// from an expired token by refreshing it through the HTTP-only cookie.
package rest

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/pmdesk/pmdesk/internal/api/metrics"
	"github.com/pmdesk/pmdesk/internal/core/domain"
	"github.com/pmdesk/pmdesk/internal/core/ports"
)

const (
	refreshPath    = "/auth/refresh"
	refreshTimeout = 30 * time.Second
	maxErrorBody   = 1 << 20
	userAgent      = "pmdesk"
)

type Option func(*Client)

// WithHTTPClient replaces the underlying client. Its Jar, if any, is kept
// unless WithJar is also given.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithJar sets the cookie jar that carries the refresh cookie.
func WithJar(jar http.CookieJar) Option {
	return func(c *Client) { c.jar = jar }
}

// WithRateLimit caps outgoing requests; a zero limit disables it.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithTimeout bounds every call including its refresh and retry. Zero means
// no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithNavigator is told to show the login screen when a refresh fails.
func WithNavigator(n ports.Navigator) Option {
	return func(c *Client) { c.nav = n }
}

type Client struct {
	base    *url.URL
	http    *http.Client
	jar     http.CookieJar
	tokens  ports.TokenStore
	nav     ports.Navigator
	limiter *rate.Limiter
	timeout time.Duration
	log     zerolog.Logger

	refreshes singleflight.Group
}

// New builds a client for the API rooted at baseURL (which includes the
// /api prefix).
func New(baseURL string, tokens ports.TokenStore, log zerolog.Logger, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("rest: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("rest: base url %q must be http or https", baseURL)
	}
	c := &Client{base: base, tokens: tokens, log: log}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.jar != nil {
		hc := *c.http
		hc.Jar = c.jar
		c.http = &hc
	}
	return c, nil
}

// BaseURL is the API root the client talks to.
func (c *Client) BaseURL() *url.URL {
	u := *c.base
	return &u
}

// CallOption adjusts a single call.
type CallOption func(*request)

// WithBearer sends token instead of the session's current one. An empty
// token keeps the session's.
func WithBearer(token string) CallOption {
	return func(r *request) {
		if token != "" {
			r.bearer = &token
		}
	}
}

// WithQuery adds query parameters.
func WithQuery(q url.Values) CallOption {
	return func(r *request) { r.query = q }
}

type request struct {
	method    string
	path      string
	query     url.Values
	body      any
	multipart *filePart
	bearer    *string
	anonymous bool
	noRefresh bool
}

type filePart struct {
	field    string
	filename string
	content  []byte
}

// Do sends a JSON request and decodes the JSON answer into out, which may
// be nil.
func (c *Client) Do(ctx context.Context, method, path string, in, out any, opts ...CallOption) error {
	r := &request{method: method, path: path, body: in}
	for _, opt := range opts {
		opt(r)
	}
	return c.do(ctx, r, out)
}

// Upload posts r as the multipart field "file".
func (c *Client) Upload(ctx context.Context, path, filename string, r io.Reader, out any, opts ...CallOption) error {
	content, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read %s: %w", filename, err)
	}
	req := &request{method: http.MethodPost, path: path, multipart: &filePart{field: "file", filename: filename, content: content}}
	for _, opt := range opts {
		opt(req)
	}
	return c.do(ctx, req, out)
}

func (c *Client) do(ctx context.Context, r *request, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	token := ""
	switch {
	case r.anonymous:
	case r.bearer != nil:
		token = *r.bearer
	default:
		token = c.tokens.Token()
	}

	resp, err := c.send(ctx, r, token)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && !r.noRefresh {
		drain(resp)
		fresh, err := c.refresh(ctx)
		if err != nil {
			return fmt.Errorf("%s %s: %w", r.method, r.path, err)
		}
		// One retry only: a second 401 is returned as is.
		resp, err = c.send(ctx, r, fresh)
		if err != nil {
			return err
		}
	}
	defer drain(resp)
	return decode(resp, out)
}

// refresh obtains a new access token using the refresh cookie. Concurrent
// callers share one round trip, which runs detached from any single
// caller: a caller giving up only abandons its own wait. When the refresh
// itself fails the session is cleared and the user is sent to the login
// screen.
func (c *Client) refresh(ctx context.Context) (string, error) {
	done := c.refreshes.DoChan("refresh", func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cmp.Or(c.timeout, refreshTimeout))
		defer cancel()

		c.log.Debug().Msg("access token rejected, refreshing")
		var out struct {
			Token string `json:"token"`
		}
		req := &request{method: http.MethodPost, path: refreshPath, body: struct{}{}, anonymous: true, noRefresh: true}
		err := c.do(rctx, req, &out)
		if err == nil && out.Token == "" {
			err = fmt.Errorf("%w: refresh returned no token", domain.ErrInvalidToken)
		}
		if err == nil {
			err = c.tokens.SetToken(rctx, out.Token)
		}
		if err != nil {
			metrics.TokenRefreshTotal.WithLabelValues("failure").Inc()
			c.expire(rctx, err)
			return "", err
		}
		metrics.TokenRefreshTotal.WithLabelValues("success").Inc()
		c.log.Info().Msg("access token refreshed")
		return out.Token, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		if res.Err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrSessionExpired, res.Err)
		}
		return res.Val.(string), nil
	}
}

// Refresh forces a token refresh.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	return c.refresh(ctx)
}

func (c *Client) expire(ctx context.Context, cause error) {
	c.log.Warn().Err(cause).Msg("token refresh failed, signing out")
	ctx = context.WithoutCancel(ctx)
	if err := c.tokens.SetToken(ctx, ""); err != nil {
		c.log.Error().Err(err).Msg("clearing token failed")
	}
	if err := c.tokens.SetUser(ctx, nil); err != nil {
		c.log.Error().Err(err).Msg("clearing user failed")
	}
	if c.nav != nil {
		c.nav.RedirectToLogin("session expired")
	}
}

func (c *Client) send(ctx context.Context, r *request, token string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s %s: %w", r.method, r.path, err)
		}
	}

	req, err := c.newRequest(ctx, r, token)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.RequestDuration.WithLabelValues(r.method).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RequestsTotal.WithLabelValues(r.method, "error").Inc()
		return nil, fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	metrics.RequestsTotal.WithLabelValues(r.method, strconv.Itoa(resp.StatusCode)).Inc()
	c.log.Debug().
		Str("method", r.method).
		Str("path", r.path).
		Int("status", resp.StatusCode).
		Str("request_id", req.Header.Get("X-Request-ID")).
		Dur("took", time.Since(start)).
		Msg("api call")
	return resp, nil
}

// newRequest builds a fresh *http.Request for each attempt so the body can
// be sent again on retry.
func (c *Client) newRequest(ctx context.Context, r *request, token string) (*http.Request, error) {
	u := c.base.JoinPath(r.path)
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case r.multipart != nil:
		buf := &bytes.Buffer{}
		mw := multipart.NewWriter(buf)
		fw, err := mw.CreateFormFile(r.multipart.field, r.multipart.filename)
		if err != nil {
			return nil, fmt.Errorf("build upload: %w", err)
		}
		if _, err := fw.Write(r.multipart.content); err != nil {
			return nil, fmt.Errorf("build upload: %w", err)
		}
		if err := mw.Close(); err != nil {
			return nil, fmt.Errorf("build upload: %w", err)
		}
		body, contentType = buf, mw.FormDataContentType()
	case r.body != nil:
		raw, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", r.method, r.path, err)
		}
		body, contentType = bytes.NewReader(raw), "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", r.method, r.path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func decode(resp *http.Response, out any) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return newAPIError(resp.StatusCode, body)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	// Some endpoints answer with plain text.
	if s, ok := out.(*string); ok && !json.Valid(raw) {
		*s = string(raw)
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()
}

// IsAPIError reports whether err carries an API answer with the given status.
func IsAPIError(err error, status int) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.StatusCode == status
}
