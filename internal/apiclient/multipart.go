package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"strings"

	"github.com/fjmerc/studiodesk/internal/upload"
)

// Form is a multipart/form-data payload. The body is rebuilt for every send so
// each attempt streams the files from the start.
type Form struct {
	parts []formPart
}

// FormFile is a file part of a Form.
type FormFile struct {
	Field       string
	Name        string
	Size        int64
	ContentType string
	// Open returns a fresh reader over the file content.
	Open func() (io.ReadCloser, error)
}

type formPart struct {
	header textproto.MIMEHeader
	value  []byte
	file   *FormFile
}

// NewForm returns an empty form.
func NewForm() *Form {
	return &Form{}
}

// AddField adds a plain text field.
func (f *Form) AddField(name, value string) *Form {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"`, escapeQuotes(name)))
	f.parts = append(f.parts, formPart{header: h, value: []byte(value)})
	return f
}

// AddJSON adds a field holding v encoded as JSON with an application/json part type.
func (f *Form) AddJSON(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"`, escapeQuotes(name)))
	h.Set("Content-Type", "application/json")
	f.parts = append(f.parts, formPart{header: h, value: data})
	return nil
}

// AddFile adds a file part. Open is called once per send.
func (f *Form) AddFile(file FormFile) *Form {
	file.Name = upload.SanitizeFilename(file.Name)
	if file.ContentType == "" {
		file.ContentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		escapeQuotes(file.Field), escapeQuotes(file.Name)))
	h.Set("Content-Type", file.ContentType)
	f.parts = append(f.parts, formPart{header: h, file: &file})
	return f
}

// AddPath adds the file at path under field.
func (f *Form) AddPath(field string, info upload.FileInfo) *Form {
	path := info.Path
	return f.AddFile(FormFile{
		Field:       field,
		Name:        info.Name,
		Size:        info.Size,
		ContentType: info.MimeType,
		Open:        func() (io.ReadCloser, error) { return os.Open(path) },
	})
}

// Files returns the file parts.
func (f *Form) Files() []FormFile {
	var files []FormFile
	for _, p := range f.parts {
		if p.file != nil {
			files = append(files, *p.file)
		}
	}
	return files
}

// FileBytes is the combined size of all file parts.
func (f *Form) FileBytes() int64 {
	var total int64
	for _, p := range f.parts {
		if p.file != nil {
			total += p.file.Size
		}
	}
	return total
}

// body builds a fresh streaming body. Part headers are rendered up front so
// the exact content length is known before any file is read.
func (f *Form) body() (io.ReadCloser, int64, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	var (
		readers []io.Reader
		files   []*lazyFile
		length  int64
	)
	flush := func() {
		if buf.Len() == 0 {
			return
		}
		chunk := bytes.Clone(buf.Bytes())
		buf.Reset()
		readers = append(readers, bytes.NewReader(chunk))
		length += int64(len(chunk))
	}

	for _, p := range f.parts {
		w, err := mw.CreatePart(p.header)
		if err != nil {
			return nil, 0, "", fmt.Errorf("creating form part: %w", err)
		}
		if p.file == nil {
			if _, err := w.Write(p.value); err != nil {
				return nil, 0, "", fmt.Errorf("writing form field: %w", err)
			}
			continue
		}

		flush()
		lf := &lazyFile{open: p.file.Open, name: p.file.Name}
		files = append(files, lf)
		readers = append(readers, lf)
		length += p.file.Size
	}
	if err := mw.Close(); err != nil {
		return nil, 0, "", fmt.Errorf("closing multipart writer: %w", err)
	}
	flush()

	return &formBody{Reader: io.MultiReader(readers...), files: files}, length, mw.FormDataContentType(), nil
}

// formBody closes every file it opened.
type formBody struct {
	io.Reader
	files []*lazyFile
}

func (b *formBody) Close() error {
	var errs []error
	for _, f := range b.files {
		errs = append(errs, f.Close())
	}
	return errors.Join(errs...)
}

// lazyFile opens its file on first read so a body holds no descriptors until sent.
type lazyFile struct {
	open func() (io.ReadCloser, error)
	name string
	rc   io.ReadCloser
}

func (l *lazyFile) Read(p []byte) (int, error) {
	if l.rc == nil {
		rc, err := l.open()
		if err != nil {
			return 0, fmt.Errorf("opening %s: %w", l.name, err)
		}
		l.rc = rc
	}
	return l.rc.Read(p)
}

func (l *lazyFile) Close() error {
	if l.rc == nil {
		return nil
	}
	return l.rc.Close()
}

// progressReader reports cumulative bytes read.
type progressReader struct {
	io.ReadCloser
	read       int64
	onProgress func(int64)
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.ReadCloser.Read(p)
	if n > 0 {
		pr.read += int64(n)
		if pr.onProgress != nil {
			pr.onProgress(pr.read)
		}
	}
	return n, err
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
