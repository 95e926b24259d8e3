package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
)

// Get sends a GET and normalizes the result. It never returns a Go error;
// inspect Envelope.Success.
func Get[T any](ctx context.Context, c *Client, path string, query url.Values) Envelope[T] {
	return call[T](ctx, c, &request{method: http.MethodGet, path: path, query: query})
}

// Post sends payload as JSON. A nil payload sends no body.
func Post[T any](ctx context.Context, c *Client, path string, payload any) Envelope[T] {
	return callJSON[T](ctx, c, http.MethodPost, path, payload)
}

// Put sends payload as JSON.
func Put[T any](ctx context.Context, c *Client, path string, payload any) Envelope[T] {
	return callJSON[T](ctx, c, http.MethodPut, path, payload)
}

// Patch sends payload as JSON.
func Patch[T any](ctx context.Context, c *Client, path string, payload any) Envelope[T] {
	return callJSON[T](ctx, c, http.MethodPatch, path, payload)
}

// Delete sends a DELETE.
func Delete[T any](ctx context.Context, c *Client, path string) Envelope[T] {
	return call[T](ctx, c, &request{method: http.MethodDelete, path: path})
}

func callJSON[T any](ctx context.Context, c *Client, method, path string, payload any) Envelope[T] {
	req := &request{method: method, path: path}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			c.logger.Error("failed to encode request body", "method", method, "path", path, "error", err)
			return Failure[T](http.StatusInternalServerError, DefaultErrorMessage)
		}
		req.body = func() (io.ReadCloser, int64, string, error) {
			return io.NopCloser(bytes.NewReader(data)), int64(len(data)), "application/json", nil
		}
	}
	return call[T](ctx, c, req)
}

func call[T any](ctx context.Context, c *Client, req *request) Envelope[T] {
	resp, err := c.do(ctx, req)
	if err != nil {
		return failureEnvelope[T](err)
	}
	return decodeEnvelope[T](resp.statusCode, resp.body, c.pageBase)
}
