package apiclient

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjmerc/studiodesk/internal/apierr"
)

// DefaultErrorMessage is reported when a failure carries no usable message.
const DefaultErrorMessage = "An unexpected error occurred"

// Envelope is the response shape every API call returns.
// A body without "success" decodes as a failure.
type Envelope[T any] struct {
	Success    bool            `json:"success"`
	Data       T               `json:"data"`
	Message    string          `json:"message,omitempty"`
	StatusCode int             `json:"statusCode,omitempty"`
	Errors     []FieldError    `json:"errors,omitempty"`
	Pagination *PaginationInfo `json:"pagination,omitempty"`
	Timestamp  string          `json:"timestamp,omitempty"`
}

// FieldError is a field-level validation failure.
type FieldError struct {
	Field         string `json:"field"`
	Message       string `json:"message"`
	RejectedValue any    `json:"rejectedValue,omitempty"`
}

// PaginationInfo describes one page of a list response.
type PaginationInfo struct {
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	HasNext       bool  `json:"hasNext"`
	HasPrevious   bool  `json:"hasPrevious"`
}

// PageBase selects how page numbers are counted.
type PageBase int

const (
	// OneBased treats the first page as 1. This is the default.
	OneBased PageBase = iota
	// ZeroBased treats the first page as 0.
	ZeroBased
)

func (b PageBase) String() string {
	if b == ZeroBased {
		return "zero-based"
	}
	return "one-based"
}

// ComputePagination derives the page count and navigation flags from page,
// size and totalElements. Server-supplied derived fields are never trusted.
func ComputePagination(page, size int, totalElements int64, base PageBase) PaginationInfo {
	info := PaginationInfo{
		Page:          page,
		Size:          size,
		TotalElements: totalElements,
	}
	if size > 0 && totalElements > 0 {
		info.TotalPages = int((totalElements + int64(size) - 1) / int64(size))
	}

	switch base {
	case ZeroBased:
		info.HasNext = page+1 < info.TotalPages
		info.HasPrevious = page > 0
	default:
		info.HasNext = page < info.TotalPages
		info.HasPrevious = page > 1
	}
	return info
}

// Failure returns a failed envelope with the given status and message.
func Failure[T any](statusCode int, message string, fieldErrors ...FieldError) Envelope[T] {
	if message == "" {
		message = DefaultErrorMessage
	}
	if statusCode == 0 {
		statusCode = http.StatusInternalServerError
	}
	return Envelope[T]{
		Success:    false,
		Message:    message,
		StatusCode: statusCode,
		Errors:     fieldErrors,
	}
}

// decodeEnvelope turns a successful response body into an envelope.
func decodeEnvelope[T any](statusCode int, body []byte, base PageBase) Envelope[T] {
	if len(body) == 0 {
		// 204 and friends carry no envelope.
		return Envelope[T]{Success: true, StatusCode: statusCode}
	}

	var env Envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return Failure[T](http.StatusInternalServerError, DefaultErrorMessage)
	}
	if env.StatusCode == 0 {
		env.StatusCode = statusCode
	}
	if !env.Success && env.Message == "" {
		env.Message = DefaultErrorMessage
	}
	if env.Pagination != nil {
		p := ComputePagination(env.Pagination.Page, env.Pagination.Size, env.Pagination.TotalElements, base)
		env.Pagination = &p
	}
	return env
}

// failureEnvelope normalizes any error into a failed envelope.
func failureEnvelope[T any](err error) Envelope[T] {
	env := Failure[T](http.StatusInternalServerError, DefaultErrorMessage)

	var te *apierr.TransportError
	if !errors.As(err, &te) {
		return env
	}
	if te.Message != "" {
		env.Message = te.Message
	}
	if te.StatusCode > 0 {
		env.StatusCode = te.StatusCode
	}

	// Validation failures carry field errors in the body.
	if len(te.Body) > 0 {
		var body struct {
			Errors    []FieldError `json:"errors"`
			Timestamp string       `json:"timestamp"`
		}
		if json.Unmarshal(te.Body, &body) == nil {
			env.Errors = body.Errors
			env.Timestamp = body.Timestamp
		}
	}
	return env
}
