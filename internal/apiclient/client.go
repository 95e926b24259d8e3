// Package apiclient is the HTTP client for the studio API. It owns the cookie
// session, the single-flight credential refresh and response normalization.
package apiclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fjmerc/studiodesk/internal/apierr"
	"github.com/fjmerc/studiodesk/internal/device"
	"github.com/fjmerc/studiodesk/internal/metrics"
	"github.com/fjmerc/studiodesk/internal/upload"
)

const (
	refreshPathPrefix = "/v3/auth/refresh-token/"
	defaultUserAgent  = "studiodesk"
	maxResponseBody   = 32 << 20
)

// TerminationReason says why a session was ended by the client.
type TerminationReason string

const (
	// ReasonForbidden is used when a request is rejected with 403.
	ReasonForbidden TerminationReason = "forbidden"
	// ReasonRefreshFailed is used when the credential refresh fails.
	ReasonRefreshFailed TerminationReason = "refresh_failed"
	// ReasonRetryRejected is used when a request fails again after a successful refresh.
	ReasonRetryRejected TerminationReason = "retry_rejected"
)

// SessionHandler is called after the client has cleared the session, so the
// caller can send the user back to sign in.
type SessionHandler func(reason TerminationReason)

// Config configures a Client.
type Config struct {
	// BaseURL is the API root, e.g. "https://studio.example.com/api".
	BaseURL string
	// Device scopes refresh and logout calls. An ephemeral identity is used when nil.
	Device *device.Identity
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Sessions is notified when the session is terminated.
	Sessions SessionHandler
	// PageBase selects the page numbering used for pagination flags.
	PageBase PageBase
	// HTTPClient is copied; its Jar is always replaced by the session jar.
	HTTPClient *http.Client
}

// Option adjusts a Client after Config is applied.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.baseHTTP = hc }
}

// WithSleep replaces the backoff sleep.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = sleep }
}

// WithClock replaces the clock used for progress estimates.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithPageBase sets the page numbering.
func WithPageBase(base PageBase) Option {
	return func(c *Client) { c.pageBase = base }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithTracker registers every retrying upload with t.
func WithTracker(t *upload.Tracker) Option {
	return func(c *Client) { c.tracker = t }
}

// Client is the API client. It is safe for concurrent use.
type Client struct {
	baseURL   string
	device    *device.Identity
	logger    *slog.Logger
	sessions  SessionHandler
	pageBase  PageBase
	userAgent string
	tracker   *upload.Tracker

	baseHTTP   *http.Client
	httpClient *http.Client
	jar        *sessionJar
	refresh    *RefreshState

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// New creates a client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("base URL must be a valid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errors.New("base URL must use http or https protocol")
	}
	if parsed.Host == "" {
		return nil, errors.New("base URL must include a host")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	identity := cfg.Device
	if identity == nil {
		identity = device.NewIdentity(nil, logger)
	}

	jar, err := newSessionJar()
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		device:    identity,
		logger:    logger,
		sessions:  cfg.Sessions,
		pageBase:  cfg.PageBase,
		userAgent: defaultUserAgent,
		baseHTTP:  cfg.HTTPClient,
		jar:       jar,
		refresh:   NewRefreshState(),
		sleep:     sleepWithTimer,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	var hc http.Client
	if c.baseHTTP != nil {
		hc = *c.baseHTTP
	}
	// Deadlines are per request, see request.timeout.
	hc.Timeout = 0
	hc.Jar = c.jar
	hc.Transport = metrics.NewTransport(hc.Transport)
	c.httpClient = &hc

	return c, nil
}

// String describes the client. No credentials are held in memory.
func (c *Client) String() string {
	return fmt.Sprintf("StudioClient(baseURL=%q, refresh=%s)", c.baseURL, c.refresh.State())
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Device returns the identity used for refresh and logout.
func (c *Client) Device() *device.Identity {
	return c.device
}

// PageBase returns the page numbering used for pagination.
func (c *Client) PageBase() PageBase {
	return c.pageBase
}

// RefreshState returns the client's refresh state.
func (c *Client) RefreshState() State {
	return c.refresh.State()
}

// ClearSession drops session cookies and the device id. Used after logout.
func (c *Client) ClearSession() {
	c.jar.Reset()
	c.device.Clear()
}

// request is one logical API call. body is called for every send so retried
// requests never reuse a consumed reader.
type request struct {
	method  string
	path    string
	query   url.Values
	body    func() (io.ReadCloser, int64, string, error)
	timeout time.Duration

	// retried is set once the request has been resent after a refresh.
	retried bool
}

// response is a successful (< 400) HTTP response.
type response struct {
	statusCode int
	body       []byte
}

// do sends req and runs the refresh state machine on 401 and 403.
func (c *Client) do(ctx context.Context, req *request) (*response, error) {
	resp, err := c.send(ctx, req)
	if err == nil || isRefreshPath(req.path) {
		return resp, err
	}

	switch apierr.StatusCode(err) {
	case http.StatusForbidden:
		c.terminate(ReasonForbidden)
		return nil, err

	case http.StatusUnauthorized:
		if req.retried {
			return nil, err
		}
		if rerr := c.refresh.Do(ctx, c.refreshSession); rerr != nil {
			if ctx.Err() != nil {
				return nil, apierr.FromError(ctx.Err())
			}
			c.logger.Debug("request failed after refresh failure",
				"method", req.method,
				"path", req.path,
				"error", rerr,
			)
			return nil, err
		}

		// One refresh per request: any failure of the resend ends the session.
		req.retried = true
		resp, err = c.send(ctx, req)
		if err != nil && ctx.Err() == nil {
			c.terminate(ReasonRetryRejected)
		}
		return resp, err
	}

	return nil, err
}

// send performs exactly one HTTP exchange.
func (c *Client) send(ctx context.Context, req *request) (*response, error) {
	timeout := req.timeout
	if timeout <= 0 {
		timeout = upload.DefaultRequestTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reqURL := c.baseURL + req.path
	if len(req.query) > 0 {
		reqURL += "?" + req.query.Encode()
	}

	var (
		body          io.ReadCloser
		contentLength int64 = -1
		contentType   string
	)
	if req.body != nil {
		var err error
		body, contentLength, contentType, err = req.body()
		if err != nil {
			return nil, fmt.Errorf("building request body: %w", err)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, reqURL, body)
	if err != nil {
		if body != nil {
			body.Close()
		}
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil && contentLength >= 0 {
		httpReq.ContentLength = contentLength
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		te := apierr.FromError(err)
		c.logger.Debug("request failed",
			"method", req.method,
			"path", req.path,
			"code", te.Code,
			"error", err,
		)
		return nil, te
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, apierr.FromError(err)
	}

	c.logger.Debug("request completed",
		"method", req.method,
		"path", req.path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"retried", req.retried,
	)

	if resp.StatusCode >= 400 {
		return nil, apierr.FromResponse(resp.StatusCode, data)
	}
	return &response{statusCode: resp.StatusCode, body: data}, nil
}

// refreshSession calls the refresh endpoint. It runs once per refresh cycle
// no matter how many requests are waiting on it.
func (c *Client) refreshSession(ctx context.Context) error {
	c.logger.Warn("session expired, refreshing credentials")

	_, err := c.send(ctx, &request{
		method: http.MethodPost,
		path:   refreshPathPrefix + url.PathEscape(c.device.ID()),
	})
	if err != nil {
		metrics.TokenRefreshTotal.WithLabelValues("failure").Inc()
		c.logger.Warn("credential refresh failed", "error", err)
		c.terminate(ReasonRefreshFailed)
		return err
	}

	metrics.TokenRefreshTotal.WithLabelValues("success").Inc()
	c.logger.Info("credentials refreshed")
	return nil
}

// terminate clears client session state and notifies the session handler.
func (c *Client) terminate(reason TerminationReason) {
	c.jar.Reset()
	metrics.SessionTerminationsTotal.WithLabelValues(string(reason)).Inc()
	c.logger.Error("session terminated", "reason", string(reason))

	if c.sessions != nil {
		c.sessions(reason)
	}
}

func isRefreshPath(path string) bool {
	return strings.HasPrefix(path, refreshPathPrefix)
}

// sleepWithTimer waits for d or until ctx is done.
func sleepWithTimer(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
