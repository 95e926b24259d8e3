// Package upload holds the pure policy functions shared by every upload path:
// file validation, timeout sizing and retry classification.
package upload

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/fjmerc/studiodesk/internal/apierr"
)

// Timeout bounds.
const (
	DefaultRequestTimeout = 5 * time.Minute
	MinUploadTimeout      = 2 * time.Minute
	MaxUploadTimeout      = 30 * time.Minute

	// uploadTimeoutPerStep is added for every uploadTimeoutStep bytes of payload.
	uploadTimeoutPerStep = time.Minute
	uploadTimeoutStep    = 10 * bytesPerMB

	bytesPerMB = 1024 * 1024
)

// FileInfo describes a file about to be uploaded.
type FileInfo struct {
	// Name is the file name including its extension.
	Name string
	// Size is the size in bytes.
	Size int64
	// MimeType is the declared or sniffed content type.
	MimeType string
	// Path is the location on disk, if the file came from disk.
	Path string
}

// Rules configures ValidateFile. An empty allow-list disables that check.
type Rules struct {
	MaxSize             int64
	AllowedMIMEPrefixes []string
	AllowedExtensions   []string
}

// Validation is the outcome of ValidateFile.
type Validation struct {
	IsValid bool
	Error   string
}

// Presets used by the resource clients.
var (
	ImageRules = Rules{
		MaxSize:             5 * bytesPerMB,
		AllowedMIMEPrefixes: []string{"image/"},
		AllowedExtensions:   []string{".jpg", ".jpeg", ".png", ".webp", ".gif", ".svg"},
	}
	MediaRules = Rules{
		MaxSize:             100 * bytesPerMB,
		AllowedMIMEPrefixes: []string{"image/", "video/"},
		AllowedExtensions:   []string{".jpg", ".jpeg", ".png", ".webp", ".gif", ".svg", ".mp4", ".webm", ".mov"},
	}
)

// ValidateFile checks file against rules. All configured checks must pass.
func ValidateFile(file FileInfo, rules Rules) Validation {
	if rules.MaxSize > 0 && file.Size > rules.MaxSize {
		return Validation{Error: fmt.Sprintf("File size exceeds %s limit", formatMB(rules.MaxSize))}
	}

	if len(rules.AllowedMIMEPrefixes) > 0 {
		mimeType := strings.ToLower(strings.TrimSpace(file.MimeType))
		allowed := false
		for _, prefix := range rules.AllowedMIMEPrefixes {
			if prefix != "" && strings.HasPrefix(mimeType, strings.ToLower(prefix)) {
				allowed = true
				break
			}
		}
		if !allowed {
			return Validation{Error: fmt.Sprintf("File type %q is not allowed. Allowed types: %s",
				file.MimeType, strings.Join(rules.AllowedMIMEPrefixes, ", "))}
		}
	}

	if len(rules.AllowedExtensions) > 0 {
		ext := FileExtension(file.Name)
		allowed := false
		for _, candidate := range rules.AllowedExtensions {
			if ext != "" && ext == normalizeExtension(candidate) {
				allowed = true
				break
			}
		}
		if !allowed {
			return Validation{Error: fmt.Sprintf("File extension %q is not allowed. Allowed extensions: %s",
				ext, strings.Join(rules.AllowedExtensions, ", "))}
		}
	}

	return Validation{IsValid: true}
}

// FileExtension returns the file extension in lowercase, including the dot.
func FileExtension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

func normalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func formatMB(n int64) string {
	if n%bytesPerMB == 0 {
		return fmt.Sprintf("%d MB", n/bytesPerMB)
	}
	return fmt.Sprintf("%.1f MB", float64(n)/bytesPerMB)
}

// ComputeTimeout returns the request timeout for a payload. Plain calls get the
// default; file uploads get a base plus a minute per 10 MB, clamped to
// [MinUploadTimeout, MaxUploadTimeout].
func ComputeTimeout(payloadBytes int64, isFileUpload bool) time.Duration {
	if !isFileUpload {
		return DefaultRequestTimeout
	}
	if payloadBytes < 0 {
		payloadBytes = 0
	}

	// Cap before multiplying; anything past this is clamped anyway.
	const saturation = int64(MaxUploadTimeout/uploadTimeoutPerStep) * uploadTimeoutStep
	if payloadBytes > saturation {
		payloadBytes = saturation
	}

	extraMs := payloadBytes * uploadTimeoutPerStep.Milliseconds() / uploadTimeoutStep
	timeout := MinUploadTimeout + time.Duration(extraMs)*time.Millisecond

	if timeout < MinUploadTimeout {
		return MinUploadTimeout
	}
	if timeout > MaxUploadTimeout {
		return MaxUploadTimeout
	}
	return timeout
}

// IsRetryable reports whether a failed call may succeed if sent again.
// Authentication failures and other client errors are never retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	te := apierr.FromError(err)
	if !te.HasResponse() {
		return te.Code != apierr.CodeCanceled && !errors.Is(te, apierr.ErrCanceled)
	}

	switch status := te.StatusCode; {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return false
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
		return true
	case status >= 500:
		return true
	default:
		return false
	}
}
