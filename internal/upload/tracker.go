package upload

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Tracker tracks in-flight uploads so the CLI can wait for them on interrupt.
type Tracker struct {
	mu           sync.RWMutex
	active       map[string]*ActiveUpload
	wg           sync.WaitGroup
	shuttingDown atomic.Bool
	shutdownCh   chan struct{}
	logger       *slog.Logger
}

// ActiveUpload is an upload registered with a Tracker.
type ActiveUpload struct {
	ID        string
	StartTime time.Time
	Filename  string
	Size      int64
}

// NewTracker creates an empty Tracker.
func NewTracker(logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		active:     make(map[string]*ActiveUpload),
		shutdownCh: make(chan struct{}),
		logger:     logger,
	}
}

// Start registers an upload. It returns false once shutdown has begun.
func (t *Tracker) Start(id, filename string, size int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Checked under the lock so Wait never misses an upload.
	if t.shuttingDown.Load() {
		return false
	}

	t.active[id] = &ActiveUpload{
		ID:        id,
		StartTime: time.Now(),
		Filename:  filename,
		Size:      size,
	}
	t.wg.Add(1)

	t.logger.Debug("upload started",
		"upload_id", id,
		"filename", filename,
		"size", size,
		"active_uploads", len(t.active),
	)
	return true
}

// Finish marks an upload as settled, successfully or not.
func (t *Tracker) Finish(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	u, exists := t.active[id]
	if !exists {
		t.logger.Warn("Finish called for unknown upload", "upload_id", id)
		return
	}

	delete(t.active, id)
	t.wg.Done()

	t.logger.Debug("upload finished",
		"upload_id", id,
		"duration", time.Since(u.StartTime),
		"active_uploads", len(t.active),
	)
}

// Active returns a snapshot of in-flight uploads.
func (t *Tracker) Active() []ActiveUpload {
	t.mu.RLock()
	defer t.mu.RUnlock()

	uploads := make([]ActiveUpload, 0, len(t.active))
	for _, u := range t.active {
		uploads = append(uploads, *u)
	}
	return uploads
}

// Totals returns the number and combined size of in-flight uploads.
func (t *Tracker) Totals() (count int, bytes int64) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, u := range t.active {
		bytes += u.Size
	}
	return len(t.active), bytes
}

// ShutdownCh is closed when shutdown begins.
func (t *Tracker) ShutdownCh() <-chan struct{} {
	return t.shutdownCh
}

// BeginShutdown stops accepting new uploads.
func (t *Tracker) BeginShutdown() {
	if t.shuttingDown.CompareAndSwap(false, true) {
		close(t.shutdownCh)
		t.logger.Info("upload tracker: shutdown initiated, rejecting new uploads",
			"active_uploads", len(t.Active()),
		)
	}
}

// Wait begins shutdown and blocks until every upload finishes or ctx is done.
// It reports whether all uploads finished.
func (t *Tracker) Wait(ctx context.Context) bool {
	t.BeginShutdown()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("upload tracker: all uploads completed")
		return true
	case <-ctx.Done():
		for _, u := range t.Active() {
			t.logger.Warn("upload tracker: abandoned upload",
				"upload_id", u.ID,
				"filename", u.Filename,
				"duration", time.Since(u.StartTime),
			)
		}
		return false
	}
}
