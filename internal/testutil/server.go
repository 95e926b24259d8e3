package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// RecordedFile is a file part received by FakeAPI.
type RecordedFile struct {
	Field string
	Name  string
	Size  int64
}

// RecordedRequest is a request received by FakeAPI.
type RecordedRequest struct {
	Method      string
	Path        string
	Query       string
	ContentType string
	Body        []byte // raw body for non-multipart requests
	Fields      map[string]string
	Files       []RecordedFile
}

// FakeAPI is an httptest server that records every request and routes it
// through a ServeMux. Patterns are relative to the API root "/api".
type FakeAPI struct {
	Server *httptest.Server

	t        *testing.T
	mux      *http.ServeMux
	mu       sync.Mutex
	requests []RecordedRequest
}

// NewFakeAPI starts a fake API. It is closed when the test completes.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()

	f := &FakeAPI{t: t, mux: http.NewServeMux()}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// BaseURL is the API root to hand to the client.
func (f *FakeAPI) BaseURL() string {
	return f.Server.URL + "/api"
}

// Handle registers handler for pattern, e.g. "GET /v3/categories".
func (f *FakeAPI) Handle(pattern string, handler http.HandlerFunc) {
	method, path, ok := strings.Cut(pattern, " ")
	if !ok {
		path, method = method, ""
	}
	if method != "" {
		method += " "
	}
	f.mux.HandleFunc(method+"/api"+path, handler)
}

// Requests returns a copy of the recorded requests.
func (f *FakeAPI) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.requests...)
}

// Count returns how many recorded requests hit path (any method).
func (f *FakeAPI) Count(path string) int {
	n := 0
	for _, r := range f.Requests() {
		if r.Path == "/api"+path {
			n++
		}
	}
	return n
}

func (f *FakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	rec := RecordedRequest{
		Method:      r.Method,
		Path:        r.URL.Path,
		Query:       r.URL.RawQuery,
		ContentType: r.Header.Get("Content-Type"),
	}

	mediaType, _, _ := mime.ParseMediaType(rec.ContentType)
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			f.t.Errorf("fake api: parse multipart: %v", err)
		} else {
			rec.Fields = make(map[string]string)
			for k, v := range r.MultipartForm.Value {
				rec.Fields[k] = v[0]
			}
			for field, headers := range r.MultipartForm.File {
				for _, h := range headers {
					rec.Files = append(rec.Files, RecordedFile{Field: field, Name: h.Filename, Size: h.Size})
				}
			}
		}
	} else {
		body, _ := io.ReadAll(r.Body)
		rec.Body = body
		r.Body = io.NopCloser(bytes.NewReader(body))
	}

	f.mu.Lock()
	f.requests = append(f.requests, rec)
	f.mu.Unlock()

	f.mux.ServeHTTP(w, r)
}

// WriteJSON writes v as a JSON response.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// OK writes a success envelope around data.
func OK(data any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
	}
}

// Page writes a success envelope with pagination fields.
func Page(data any, page, size int, totalElements int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    data,
			"pagination": map[string]any{
				"page":          page,
				"size":          size,
				"totalElements": totalElements,
			},
		})
	}
}

// Fail writes a failure envelope.
func Fail(status int, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, status, map[string]any{"success": false, "message": message, "statusCode": status})
	}
}
