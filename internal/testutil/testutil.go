package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fjmerc/studiodesk/internal/upload"
)

// PNG is the smallest valid PNG header; mimetype sniffs it as image/png.
var PNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

// MP4 is an ISO BMFF header sniffed as video/mp4.
var MP4 = []byte("\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42isom\x00\x00\x00\x08free")

// CreateTestFile writes content to name inside a per-test temp directory and
// returns its path. The directory is removed when the test completes.
func CreateTestFile(t *testing.T, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

// CreateUploadFile writes a test file and stats it for upload.
func CreateUploadFile(t *testing.T, name string, content []byte) upload.FileInfo {
	t.Helper()

	info, err := upload.StatFile(CreateTestFile(t, name, content))
	if err != nil {
		t.Fatalf("failed to stat test file: %v", err)
	}
	return info
}

// AssertNoError fails the test if err is not nil
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil
func AssertError(t *testing.T, err error) {
	t.Helper()

	if err == nil {
		t.Fatal("expected error but got nil")
	}
}

// AssertEqual fails the test if got != want
func AssertEqual(t *testing.T, got, want interface{}) {
	t.Helper()

	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

// AssertContains fails the test if haystack doesn't contain needle
func AssertContains(t *testing.T, haystack, needle string) {
	t.Helper()

	if !bytes.Contains([]byte(haystack), []byte(needle)) {
		t.Errorf("expected %q to contain %q", haystack, needle)
	}
}

// AssertNotContains fails the test if haystack contains needle
func AssertNotContains(t *testing.T, haystack, needle string) {
	t.Helper()

	if bytes.Contains([]byte(haystack), []byte(needle)) {
		t.Errorf("expected %q to not contain %q", haystack, needle)
	}
}
