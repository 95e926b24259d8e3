package apiclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// recordedSleep captures backoff delays without waiting.
type recordedSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordedSleep) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func memoryFile(field, name, contentType string, content []byte) FormFile {
	return FormFile{
		Field:       field,
		Name:        name,
		Size:        int64(len(content)),
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(content)), nil
		},
	}
}

func TestPostWithRetryBackoff(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		io.Copy(io.Discard, r.Body)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"success": false, "message": "Storage unavailable"})
	}))
	defer server.Close()

	sleeper := &recordedSleep{}
	c, _ := newTestClient(t, server, WithSleep(sleeper.sleep))

	form := NewForm().AddFile(memoryFile("logo", "logo.png", "image/png", []byte("png-bytes")))
	env := PostWithRetry[category](context.Background(), c, "/v3/clients/1/logo", form,
		RetryOptions{MaxRetries: 3, RetryDelay: 100 * time.Millisecond, IsFileUpload: true}, TransportOptions{})

	if env.Success || env.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("got %+v, want 503 failure", env)
	}
	if env.Message != "Storage unavailable" {
		t.Errorf("Message = %q", env.Message)
	}
	if got := attempts.Load(); got != 4 {
		t.Errorf("attempts = %d, want 4", got)
	}

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}
	if len(sleeper.delays) != len(want) {
		t.Fatalf("delays = %v, want %v", sleeper.delays, want)
	}
	for i := range want {
		if sleeper.delays[i] != want[i] {
			t.Errorf("delay %d = %v, want %v", i+1, sleeper.delays[i], want[i])
		}
	}
}

func TestPostWithRetryZeroValueVersusNoRetries(t *testing.T) {
	tests := []struct {
		name         string
		maxRetries   int
		wantAttempts int32
	}{
		{"zero value uses default", 0, DefaultMaxRetries + 1},
		{"no retries", NoRetries, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts.Add(1)
				io.Copy(io.Discard, r.Body)
				writeJSON(w, http.StatusServiceUnavailable, map[string]any{"success": false})
			}))
			defer server.Close()

			sleeper := &recordedSleep{}
			c, _ := newTestClient(t, server, WithSleep(sleeper.sleep))

			form := NewForm().AddFile(memoryFile("logo", "logo.png", "image/png", []byte("png-bytes")))
			PostWithRetry[category](context.Background(), c, "/v3/clients/1/logo", form,
				RetryOptions{MaxRetries: tt.maxRetries, RetryDelay: time.Millisecond}, TransportOptions{})

			if got := attempts.Load(); got != tt.wantAttempts {
				t.Errorf("attempts = %d, want %d", got, tt.wantAttempts)
			}
		})
	}
}

func TestPostWithRetryStopsOnClientError(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		io.Copy(io.Discard, r.Body)
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"success": false,
			"message": "Invalid image",
			"errors":  []map[string]any{{"field": "image", "message": "unsupported format"}},
		})
	}))
	defer server.Close()

	sleeper := &recordedSleep{}
	c, _ := newTestClient(t, server, WithSleep(sleeper.sleep))

	form := NewForm().AddFile(memoryFile("image", "a.png", "image/png", []byte("x")))
	env := PutWithRetry[category](context.Background(), c, "/v3/reviews/1/image", form, RetryOptions{}, TransportOptions{})

	if env.Success || env.StatusCode != http.StatusUnprocessableEntity || len(env.Errors) != 1 {
		t.Errorf("got %+v", env)
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
	if len(sleeper.delays) != 0 {
		t.Errorf("slept %v, want no backoff", sleeper.delays)
	}
}

func TestPostWithRetryRecovers(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)

		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("attempt %d: parse multipart: %v", n, err)
			return
		}
		file, header, err := r.FormFile("media")
		if err != nil {
			t.Errorf("attempt %d: form file: %v", n, err)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)

		// Every attempt must carry the whole payload.
		if string(data) != "frame-data" || header.Filename != "clip.mp4" {
			t.Errorf("attempt %d: got %q (%s)", n, data, header.Filename)
		}
		if got := r.FormValue("title"); got != "Launch" {
			t.Errorf("attempt %d: title = %q", n, got)
		}

		if n < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusCreated, ok(category{ID: 3, Name: "Launch"}))
	}))
	defer server.Close()

	sleeper := &recordedSleep{}
	c, _ := newTestClient(t, server, WithSleep(sleeper.sleep))

	var (
		mu      sync.Mutex
		reports []UploadProgress
	)
	form := NewForm().AddField("title", "Launch").
		AddFile(memoryFile("media", "clip.mp4", "video/mp4", []byte("frame-data")))

	env := PostWithRetry[category](context.Background(), c, "/v3/works/3/media", form,
		RetryOptions{IsFileUpload: true},
		TransportOptions{OnUploadProgress: func(p UploadProgress) {
			mu.Lock()
			reports = append(reports, p)
			mu.Unlock()
		}})

	if !env.Success || env.Data.ID != 3 {
		t.Fatalf("got %+v", env)
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(reports) == 0 {
		t.Fatal("no progress reports")
	}
	last := reports[len(reports)-1]
	if last.Attempt != 3 {
		t.Errorf("last report attempt = %d, want 3", last.Attempt)
	}
	if last.Loaded != last.Total || last.Percentage != 100 {
		t.Errorf("last report = %+v, want complete", last)
	}
	for _, p := range reports {
		if p.Total <= form.FileBytes() {
			t.Errorf("Total %d should include multipart framing", p.Total)
			break
		}
	}
}

func TestPostWithRetryRefreshesMidUpload(t *testing.T) {
	var (
		refreshed atomic.Bool
		uploads   atomic.Int32
		refreshes atomic.Int32
	)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v3/auth/refresh-token/{deviceId}", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		refreshed.Store(true)
		writeJSON(w, http.StatusOK, ok(nil))
	})
	mux.HandleFunc("/api/v3/works/1/galleries", func(w http.ResponseWriter, r *http.Request) {
		uploads.Add(1)
		body, _ := io.ReadAll(r.Body)
		if !bytes.Contains(body, []byte("gallery-image")) {
			t.Error("resent body missing file content")
		}
		if !refreshed.Load() {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false})
			return
		}
		writeJSON(w, http.StatusOK, ok([]category{}))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	sleeper := &recordedSleep{}
	c, term := newTestClient(t, server, WithSleep(sleeper.sleep))

	form := NewForm().AddFile(memoryFile("images", "g.jpg", "image/jpeg", []byte("gallery-image")))
	env := PostWithRetry[[]category](context.Background(), c, "/v3/works/1/galleries", form, RetryOptions{}, TransportOptions{})

	if !env.Success {
		t.Fatalf("got %+v", env)
	}
	if refreshes.Load() != 1 || uploads.Load() != 2 {
		t.Errorf("refreshes = %d, uploads = %d, want 1, 2", refreshes.Load(), uploads.Load())
	}
	if len(sleeper.delays) != 0 {
		t.Errorf("refresh retry should not back off, slept %v", sleeper.delays)
	}
	if len(term.list()) != 0 {
		t.Errorf("unexpected terminations: %v", term.list())
	}
}

func TestPostWithRetryCanceledDuringBackoff(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c, _ := newTestClient(t, server, WithSleep(func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}))

	env := PostWithRetry[category](ctx, c, "/v3/works/1/media", NewForm().AddField("k", "v"), RetryOptions{}, TransportOptions{})
	if env.Success {
		t.Fatal("expected failure")
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
	if !strings.Contains(strings.ToLower(env.Message), "cancel") {
		t.Errorf("Message = %q, want cancellation", env.Message)
	}
}

func TestRetryOptionsDefaults(t *testing.T) {
	tests := []struct {
		in          RetryOptions
		wantRetries int
		wantDelay   time.Duration
	}{
		{RetryOptions{}, DefaultMaxRetries, DefaultRetryDelay},
		{RetryOptions{MaxRetries: -1}, 0, DefaultRetryDelay},
		{RetryOptions{MaxRetries: NoRetries}, 0, DefaultRetryDelay},
		{RetryOptions{MaxRetries: 5, RetryDelay: 50 * time.Millisecond}, 5, 50 * time.Millisecond},
	}

	for _, tt := range tests {
		got := tt.in.withDefaults()
		if got.MaxRetries != tt.wantRetries || got.RetryDelay != tt.wantDelay {
			t.Errorf("withDefaults(%+v) = %+v", tt.in, got)
		}
	}

	opts := RetryOptions{RetryDelay: time.Second}
	for k, want := range []time.Duration{time.Second, 2 * time.Second, 4 * time.Second} {
		if got := opts.backoff(k + 1); got != want {
			t.Errorf("backoff(%d) = %v, want %v", k+1, got, want)
		}
	}
}

func TestFormBodyLength(t *testing.T) {
	form := NewForm().AddField("caption", "Sunset").
		AddFile(memoryFile("image", `bad"name.png`, "image/png", []byte("0123456789")))

	body, length, contentType, err := form.body()
	if err != nil {
		t.Fatalf("body: %v", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if int64(len(data)) != length {
		t.Errorf("length = %d, actual %d", length, len(data))
	}
	if !strings.HasPrefix(contentType, "multipart/form-data; boundary=") {
		t.Errorf("contentType = %q", contentType)
	}
	if !bytes.Contains(data, []byte("0123456789")) || !bytes.Contains(data, []byte("Sunset")) {
		t.Error("body missing parts")
	}
	if bytes.Contains(data, []byte(`bad"name`)) {
		t.Error("filename not sanitized")
	}
}
