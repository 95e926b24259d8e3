// Package apierr defines the typed errors produced at the HTTP transport boundary.
package apierr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// Standard errors carried by a TransportError.
var (
	// ErrValidation indicates the server rejected the input (400, 422).
	ErrValidation = errors.New("validation error")
	// ErrAuthentication indicates an expired or missing session (401).
	ErrAuthentication = errors.New("authentication required")
	// ErrForbidden indicates the session may not perform the call (403).
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound indicates the requested resource was not found.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a conflicting resource state (409).
	ErrConflict = errors.New("conflict")
	// ErrRateLimit indicates too many requests.
	ErrRateLimit = errors.New("rate limit exceeded")
	// ErrServer indicates a 5xx response.
	ErrServer = errors.New("server error")
	// ErrNetwork indicates no response was received.
	ErrNetwork = errors.New("network error")
	// ErrTimeout indicates the request or the server timed out.
	ErrTimeout = errors.New("request timeout")
	// ErrCanceled indicates the caller canceled the request.
	ErrCanceled = errors.New("request canceled")
)

// Network failure codes attached to a TransportError when no response was received.
const (
	CodeConnReset    = "ECONNRESET"
	CodeConnRefused  = "ECONNREFUSED"
	CodeConnAborted  = "ECONNABORTED"
	CodeNotFound     = "ENOTFOUND"
	CodeTimedOut     = "ETIMEDOUT"
	CodeNetwork      = "ERR_NETWORK"
	CodeCanceled     = "ERR_CANCELED"
	defaultErrorBody = 8192
)

// TransportError is the single error type returned by the transport adapter.
// StatusCode is zero when the server never answered.
type TransportError struct {
	// StatusCode is the HTTP status code, or 0 for network failures.
	StatusCode int
	// Code is the network failure code (empty when a response was received).
	Code string
	// Message is a human-readable, sanitized description.
	Message string
	// Body holds up to 8 KiB of the raw response body, if any.
	Body []byte
	// Err is the standard error this failure maps to.
	Err error

	cause error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	switch {
	case e.StatusCode > 0:
		return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
	case e.Code != "":
		return fmt.Sprintf("%s (%s)", e.Message, e.Code)
	default:
		return e.Message
	}
}

// Unwrap exposes both the standard error and the underlying cause.
func (e *TransportError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.cause != nil {
		errs = append(errs, e.cause)
	}
	return errs
}

// HasResponse reports whether the server answered at all.
func (e *TransportError) HasResponse() bool {
	return e.StatusCode > 0
}

// FromResponse builds a TransportError from an HTTP status and response body.
// The message is taken from the body's "message" (or "error") field when present.
func FromResponse(statusCode int, body []byte) *TransportError {
	if len(body) > defaultErrorBody {
		body = body[:defaultErrorBody]
	}

	message := messageFromBody(body)
	if message == "" {
		message = http.StatusText(statusCode)
	}
	if message == "" {
		message = "request failed"
	}

	return &TransportError{
		StatusCode: statusCode,
		Message:    sanitizeErrorMessage(message),
		Body:       body,
		Err:        sentinelForStatus(statusCode),
	}
}

// FromError classifies a failure that happened before any response was read.
// An existing TransportError is returned unchanged.
func FromError(err error) *TransportError {
	if err == nil {
		return nil
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te
	}

	code, sentinel, message := classify(err)
	return &TransportError{
		Code:    code,
		Message: message,
		Err:     sentinel,
		cause:   err,
	}
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var te *TransportError
	if errors.As(err, &te) {
		return te.StatusCode
	}
	return 0
}

func classify(err error) (code string, sentinel error, message string) {
	var dnsErr *net.DNSError
	var netErr net.Error

	switch {
	case errors.Is(err, context.Canceled):
		return CodeCanceled, ErrCanceled, "request canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return CodeTimedOut, ErrTimeout, "request timed out"
	case errors.As(err, &dnsErr):
		if dnsErr.IsTimeout {
			return CodeTimedOut, ErrTimeout, "DNS lookup timed out"
		}
		return CodeNotFound, ErrNetwork, "host not found"
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return CodeConnReset, ErrNetwork, "connection reset"
	case errors.Is(err, syscall.ECONNREFUSED):
		return CodeConnRefused, ErrNetwork, "connection refused"
	case errors.Is(err, syscall.ECONNABORTED), errors.Is(err, syscall.EPIPE):
		return CodeConnAborted, ErrNetwork, "connection aborted"
	case errors.As(err, &netErr) && netErr.Timeout():
		return CodeTimedOut, ErrTimeout, "request timed out"
	default:
		return CodeNetwork, ErrNetwork, "network error"
	}
}

func sentinelForStatus(statusCode int) error {
	switch {
	case statusCode == http.StatusBadRequest, statusCode == http.StatusUnprocessableEntity:
		return ErrValidation
	case statusCode == http.StatusUnauthorized:
		return ErrAuthentication
	case statusCode == http.StatusForbidden:
		return ErrForbidden
	case statusCode == http.StatusNotFound:
		return ErrNotFound
	case statusCode == http.StatusRequestTimeout:
		return ErrTimeout
	case statusCode == http.StatusConflict:
		return ErrConflict
	case statusCode == http.StatusTooManyRequests:
		return ErrRateLimit
	case statusCode >= 500:
		return ErrServer
	}
	return nil
}

func messageFromBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

// sanitizeErrorMessage hides server messages that echo credentials.
func sanitizeErrorMessage(msg string) string {
	sensitivePatterns := []string{
		"token",
		"secret",
		"authorization",
		"cookie",
		"credential",
	}

	lowerMsg := strings.ToLower(msg)
	for _, pattern := range sensitivePatterns {
		if strings.Contains(lowerMsg, pattern) {
			return "request failed"
		}
	}

	return msg
}
