package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Transport instruments an http.RoundTripper with request metrics
type Transport struct {
	Base http.RoundTripper
}

// NewTransport wraps base (http.DefaultTransport when nil)
func NewTransport(base http.RoundTripper) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Base: base}
}

// RoundTrip records duration and outcome for every request
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	resp, err := t.Base.RoundTrip(req)

	// Record metrics
	duration := time.Since(start).Seconds()
	path := NormalizePath(req.URL.Path)
	status := "error"
	if err == nil {
		status = strconv.Itoa(resp.StatusCode)
	}

	RequestDuration.WithLabelValues(req.Method, path).Observe(duration)
	RequestsTotal.WithLabelValues(req.Method, path, status).Inc()

	return resp, err
}

// NormalizePath normalizes URL paths for metric labels to avoid cardinality explosion.
// Everything before the /v3/ version segment is dropped and identifier segments
// (numbers, UUIDs, the device id after refresh-token/logout) become ":id".
func NormalizePath(path string) string {
	idx := strings.Index(path, "/v3/")
	if idx < 0 {
		return "/other"
	}

	segments := strings.Split(strings.Trim(path[idx:], "/"), "/")
	for i, seg := range segments {
		switch {
		case i > 0 && (segments[i-1] == "refresh-token" || segments[i-1] == "logout"):
			segments[i] = ":id"
		case isIdentifier(seg):
			segments[i] = ":id"
		}
	}
	return "/" + strings.Join(segments, "/")
}

func isIdentifier(seg string) bool {
	if seg == "" {
		return false
	}
	if _, err := strconv.ParseInt(seg, 10, 64); err == nil {
		return true
	}
	// UUID shape: 36 chars with dashes at fixed offsets
	if len(seg) == 36 && seg[8] == '-' && seg[13] == '-' && seg[18] == '-' && seg[23] == '-' {
		return true
	}
	return false
}
