package apiclient

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fjmerc/studiodesk/internal/apierr"
	"github.com/fjmerc/studiodesk/internal/metrics"
	"github.com/fjmerc/studiodesk/internal/progress"
	"github.com/fjmerc/studiodesk/internal/upload"
)

// Retry defaults.
const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = time.Second

	// NoRetries as MaxRetries sends exactly one attempt.
	NoRetries = -1
)

// RetryOptions controls the attempt loop of PostWithRetry and PutWithRetry.
type RetryOptions struct {
	// MaxRetries is the number of retries after the first attempt.
	// The zero value means DefaultMaxRetries, not zero retries: use
	// NoRetries (or any negative value) for a single attempt.
	MaxRetries int
	// RetryDelay is the base backoff. The wait before retry k is RetryDelay*2^(k-1).
	RetryDelay time.Duration
	// IsFileUpload sizes the timeout from the form's file bytes.
	IsFileUpload bool
}

func (o RetryOptions) withDefaults() RetryOptions {
	switch {
	case o.MaxRetries == 0:
		o.MaxRetries = DefaultMaxRetries
	case o.MaxRetries < 0:
		o.MaxRetries = 0
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	return o
}

// backoff returns the wait before the given retry (1-based).
func (o RetryOptions) backoff(retry int) time.Duration {
	return o.RetryDelay << (retry - 1)
}

// TransportOptions are per-call transport settings.
type TransportOptions struct {
	// Timeout overrides the computed per-attempt timeout.
	Timeout time.Duration
	// OnUploadProgress is called as body bytes are sent. It runs on the
	// transport's writer goroutine and must not block.
	OnUploadProgress func(UploadProgress)
}

// UploadProgress is one progress report for a multipart send.
type UploadProgress struct {
	Loaded        int64
	Total         int64
	Percentage    int
	Speed         string
	EstimatedTime string
	Attempt       int
}

// PostWithRetry sends form as multipart/form-data, retrying transient failures
// with exponential backoff.
func PostWithRetry[T any](ctx context.Context, c *Client, path string, form *Form, retry RetryOptions, opts TransportOptions) Envelope[T] {
	return sendWithRetry[T](ctx, c, http.MethodPost, path, form, retry, opts)
}

// PutWithRetry is PostWithRetry with PUT.
func PutWithRetry[T any](ctx context.Context, c *Client, path string, form *Form, retry RetryOptions, opts TransportOptions) Envelope[T] {
	return sendWithRetry[T](ctx, c, http.MethodPut, path, form, retry, opts)
}

func sendWithRetry[T any](ctx context.Context, c *Client, method, path string, form *Form, retry RetryOptions, opts TransportOptions) Envelope[T] {
	if form == nil {
		form = NewForm()
	}
	retry = retry.withDefaults()

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = upload.ComputeTimeout(form.FileBytes(), retry.IsFileUpload)
	}

	if c.tracker != nil {
		id := uuid.NewString()
		if !c.tracker.Start(id, uploadLabel(form), form.FileBytes()) {
			return Failure[T](http.StatusServiceUnavailable, "Uploads are disabled while shutting down")
		}
		defer c.tracker.Finish(id)
	}

	tracked := &trackedSession{session: progress.NewSession(c.now())}
	req := &request{
		method:  method,
		path:    path,
		timeout: timeout,
		body:    c.progressBody(form, tracked, opts.OnUploadProgress),
	}

	var (
		lastErr  error
		attempts int
	)
	for attempt := 0; attempt <= retry.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := retry.backoff(attempt)
			c.logger.Warn("retrying request",
				"method", method,
				"path", path,
				"attempt", attempt+1,
				"delay", delay,
				"error", lastErr,
			)
			if err := c.sleep(ctx, delay); err != nil {
				lastErr = apierr.FromError(err)
				break
			}
		}

		attempts = tracked.reset(c.now())
		req.retried = false

		resp, err := c.do(ctx, req)
		if err == nil {
			metrics.UploadAttemptsTotal.WithLabelValues("success").Inc()
			return decodeEnvelope[T](resp.statusCode, resp.body, c.pageBase)
		}
		lastErr = err

		if !upload.IsRetryable(err) || attempt == retry.MaxRetries {
			break
		}
		metrics.UploadAttemptsTotal.WithLabelValues("retry").Inc()
	}

	metrics.UploadAttemptsTotal.WithLabelValues("failure").Inc()
	c.logger.Warn("request failed",
		"method", method,
		"path", path,
		"attempts", attempts,
		"error", lastErr,
	)
	return failureEnvelope[T](lastErr)
}

// progressBody wraps the form body so every read feeds the session and the callback.
func (c *Client) progressBody(form *Form, tracked *trackedSession, onProgress func(UploadProgress)) func() (io.ReadCloser, int64, string, error) {
	return func() (io.ReadCloser, int64, string, error) {
		body, length, contentType, err := form.body()
		if err != nil {
			return nil, 0, "", err
		}

		// A resend within the same attempt (after a refresh) starts from zero.
		tracked.rewind(c.now())

		var sent int64
		pr := &progressReader{
			ReadCloser: body,
			onProgress: func(loaded int64) {
				metrics.UploadBytesTotal.Add(float64(loaded - sent))
				sent = loaded

				if onProgress == nil {
					return
				}
				est, attempt := tracked.update(progress.Sample{Loaded: loaded, Total: length}, c.now())
				onProgress(UploadProgress{
					Loaded:        loaded,
					Total:         length,
					Percentage:    progress.Percentage(loaded, length),
					Speed:         est.Speed,
					EstimatedTime: est.EstimatedTime,
					Attempt:       attempt,
				})
			},
		}
		return pr, length, contentType, nil
	}
}

// trackedSession guards a progress session. The transport may still be
// writing an abandoned body while the next attempt starts.
type trackedSession struct {
	mu      sync.Mutex
	session *progress.Session
}

func (t *trackedSession) reset(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.session.Reset(now)
	return t.session.Attempt
}

func (t *trackedSession) rewind(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.session.Rewind(now)
}

func (t *trackedSession) update(sample progress.Sample, now time.Time) (progress.Estimate, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session.Update(sample, now), t.session.Attempt
}

func uploadLabel(form *Form) string {
	files := form.Files()
	switch len(files) {
	case 0:
		return "form"
	case 1:
		return files[0].Name
	default:
		return files[0].Name + " (+more)"
	}
}
