// Package progress computes transfer speed and time-remaining estimates for uploads.
package progress

import (
	"fmt"
	"time"
)

// Calculating is reported while there is not enough data for an estimate.
const Calculating = "Calculating..."

const (
	bytesPerKB = 1024
	bytesPerMB = 1024 * 1024
)

// Sample is a single progress report from the transport.
type Sample struct {
	// Loaded is the number of bytes sent so far.
	Loaded int64
	// Total is the number of bytes to send.
	Total int64
}

// Estimate is the rendered speed and remaining time for a sample.
type Estimate struct {
	Speed         string
	EstimatedTime string
}

// Session holds the state of one upload attempt sequence. It lives only for
// the duration of the call that created it.
type Session struct {
	StartTime        time.Time
	LastProgressTime time.Time
	LastLoaded       int64
	Attempt          int
}

// NewSession starts a session at now.
func NewSession(now time.Time) *Session {
	return &Session{
		StartTime:        now,
		LastProgressTime: now,
	}
}

// Reset rewinds the byte counter for a new attempt. Each attempt resends the
// whole payload, so the previous attempt's bytes no longer count.
func (s *Session) Reset(now time.Time) {
	s.Rewind(now)
	s.Attempt++
}

// Rewind restarts the byte counter without starting a new attempt, for a body
// that is resent within the same attempt.
func (s *Session) Rewind(now time.Time) {
	s.LastProgressTime = now
	s.LastLoaded = 0
}

// Update computes the estimate for sample and advances the session.
//
// The rate is measured over the last interval only, so it reacts quickly to
// throughput changes and jitters accordingly.
func (s *Session) Update(sample Sample, now time.Time) Estimate {
	elapsedMs := now.Sub(s.LastProgressTime).Milliseconds()
	deltaBytes := sample.Loaded - s.LastLoaded

	if elapsedMs <= 0 || deltaBytes <= 0 {
		return Estimate{Speed: Calculating, EstimatedTime: Calculating}
	}

	bytesPerSecond := float64(deltaBytes) * 1000 / float64(elapsedMs)

	s.LastProgressTime = now
	s.LastLoaded = sample.Loaded

	remaining := sample.Total - sample.Loaded
	if remaining < 0 {
		remaining = 0
	}
	// remaining / (delta/elapsed) in ms, kept in integers to avoid rounding drift.
	secondsLeft := remaining * elapsedMs / deltaBytes / 1000

	return Estimate{
		Speed:         FormatSpeed(bytesPerSecond),
		EstimatedTime: FormatDuration(secondsLeft),
	}
}

// FormatSpeed renders a bytes-per-second rate as "X.X MB/s" or "X.X KB/s".
func FormatSpeed(bytesPerSecond float64) string {
	if bytesPerSecond >= bytesPerMB {
		return fmt.Sprintf("%.1f MB/s", bytesPerSecond/bytesPerMB)
	}
	return fmt.Sprintf("%.1f KB/s", bytesPerSecond/bytesPerKB)
}

// FormatDuration renders seconds as "Ns", "Mm Ss" or "Hh Mm".
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
	default:
		return fmt.Sprintf("%dh %dm", seconds/3600, (seconds%3600)/60)
	}
}

// Percentage returns loaded/total as an integer in [0, 100].
func Percentage(loaded, total int64) int {
	if total <= 0 || loaded <= 0 {
		return 0
	}
	if loaded >= total {
		return 100
	}
	return int(float64(loaded) / float64(total) * 100)
}

// FormatBytes renders a byte count using binary units ("1.5 MB").
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
