package upload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/gabriel-vasile/mimetype"
)

// DetectMIME sniffs the content type of r. Parameters such as charset are dropped.
func DetectMIME(r io.Reader) (string, error) {
	mtype, err := mimetype.DetectReader(r)
	if err != nil {
		return "", fmt.Errorf("detecting content type: %w", err)
	}
	return baseMIME(mtype.String()), nil
}

// DetectFileMIME sniffs the content type of the file at path.
func DetectFileMIME(path string) (string, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("detecting content type: %w", err)
	}
	return baseMIME(mtype.String()), nil
}

// StatFile builds a FileInfo for the file at path, sniffing its content type.
func StatFile(path string) (FileInfo, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return FileInfo{}, fmt.Errorf("resolving path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return FileInfo{}, fmt.Errorf("getting file info: %w", err)
	}
	if info.IsDir() {
		return FileInfo{}, fmt.Errorf("%s is a directory", path)
	}

	mimeType, err := DetectFileMIME(absPath)
	if err != nil {
		return FileInfo{}, err
	}

	return FileInfo{
		Name:     filepath.Base(absPath),
		Size:     info.Size(),
		MimeType: mimeType,
		Path:     absPath,
	}, nil
}

// SanitizeFilename strips characters that would break a multipart
// Content-Disposition header or leak path components.
func SanitizeFilename(filename string) string {
	if filename == "" {
		return "upload"
	}

	filename = filepath.Base(filename)

	var sanitized strings.Builder
	sanitized.Grow(len(filename))

	for _, r := range filename {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' || r == '.' {
			sanitized.WriteRune(r)
		} else {
			sanitized.WriteRune('_')
		}
	}

	result := strings.Trim(sanitized.String(), " .")
	if result == "" || strings.Trim(result, ".") == "" {
		return "upload"
	}

	if len(result) > 255 {
		ext := filepath.Ext(result)
		if len(ext) > 0 && len(ext) < 20 {
			result = result[:255-len(ext)] + ext
		} else {
			result = result[:255]
		}
	}

	return result
}

func baseMIME(s string) string {
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
