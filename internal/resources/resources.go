// Package resources maps studio domain calls onto API requests. Every method
// returns an Envelope; none returns a Go error.
package resources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fjmerc/studiodesk/internal/apiclient"
	"github.com/fjmerc/studiodesk/internal/models"
	"github.com/fjmerc/studiodesk/internal/upload"
)

// Raw is the data type of calls whose payload callers ignore.
type Raw = json.RawMessage

// ProgressFunc receives upload progress reports.
type ProgressFunc = func(apiclient.UploadProgress)

// PageQuery selects one page of a list.
type PageQuery struct {
	Page   int
	Size   int
	Sort   string // e.g. "createdAt,desc"
	Search string
}

// Values encodes q for a one-based API. Zero fields are omitted.
func (q PageQuery) Values() url.Values {
	return q.ValuesFor(apiclient.OneBased)
}

// ValuesFor encodes q for the given page numbering. A zero-based API always
// gets the page so that page 0 can be requested explicitly.
func (q PageQuery) ValuesFor(base apiclient.PageBase) url.Values {
	v := url.Values{}
	if q.Page > 0 || (base == apiclient.ZeroBased && q.Page == 0) {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Size > 0 {
		v.Set("size", strconv.Itoa(q.Size))
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}

// API groups every resource client.
type API struct {
	Auth       *Auth
	Categories *Categories
	Services   *Services
	Clients    *Clients
	Reviews    *Reviews
	Contacts   *Contacts
	Works      *Works
	Galleries  *Galleries
	Socials    *Socials
	Profile    *Profile
	Settings   *Settings
}

// Option configures New.
type Option func(*uploader)

// WithRetry sets the retry policy used by file uploads.
func WithRetry(retry apiclient.RetryOptions) Option {
	return func(u *uploader) {
		u.retry = retry
		u.retry.IsFileUpload = true
	}
}

// New builds every resource client on top of c.
func New(c *apiclient.Client, opts ...Option) *API {
	up := &uploader{c: c, retry: apiclient.RetryOptions{IsFileUpload: true}}
	for _, opt := range opts {
		opt(up)
	}

	return &API{
		Auth:       &Auth{c: c},
		Categories: &Categories{collection: newCollection[models.Category](c, "/v3/categories")},
		Services:   &Services{collection: newCollection[models.Service](c, "/v3/services")},
		Clients:    &Clients{collection: newCollection[models.Client](c, "/v3/clients"), up: up},
		Reviews:    &Reviews{collection: newCollection[models.Review](c, "/v3/reviews"), up: up},
		Contacts:   &Contacts{collection: newCollection[models.Contact](c, "/v3/contacts")},
		Works:      &Works{collection: newCollection[models.Work](c, "/v3/works"), up: up},
		Galleries:  &Galleries{c: c, up: up},
		Socials:    &Socials{collection: newCollection[models.SocialLink](c, "/v3/social-links")},
		Profile:    &Profile{c: c, up: up},
		Settings:   &Settings{c: c},
	}
}

// collection is the CRUD surface shared by list resources.
type collection[T any] struct {
	c    *apiclient.Client
	base string
}

func newCollection[T any](c *apiclient.Client, base string) collection[T] {
	return collection[T]{c: c, base: base}
}

// List returns one page.
func (col collection[T]) List(ctx context.Context, q PageQuery) apiclient.Envelope[[]T] {
	return apiclient.Get[[]T](ctx, col.c, col.base, q.ValuesFor(col.c.PageBase()))
}

// Get returns one item.
func (col collection[T]) Get(ctx context.Context, id int64) apiclient.Envelope[T] {
	return apiclient.Get[T](ctx, col.c, col.path(id), nil)
}

// Create creates an item from payload.
func (col collection[T]) Create(ctx context.Context, payload any) apiclient.Envelope[T] {
	return apiclient.Post[T](ctx, col.c, col.base, payload)
}

// Update replaces an item with payload.
func (col collection[T]) Update(ctx context.Context, id int64, payload any) apiclient.Envelope[T] {
	return apiclient.Put[T](ctx, col.c, col.path(id), payload)
}

// Delete removes an item.
func (col collection[T]) Delete(ctx context.Context, id int64) apiclient.Envelope[Raw] {
	return apiclient.Delete[Raw](ctx, col.c, col.path(id))
}

func (col collection[T]) path(id int64, suffix ...string) string {
	p := col.base + "/" + strconv.FormatInt(id, 10)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

// uploader validates files and sends them with the retrying multipart call.
type uploader struct {
	c     *apiclient.Client
	retry apiclient.RetryOptions
}

type uploadCall struct {
	method     string
	path       string
	field      string
	files      []upload.FileInfo
	rules      upload.Rules
	onProgress ProgressFunc
	// fields adds non-file parts.
	fields func(*apiclient.Form) error
}

func send[T any](ctx context.Context, up *uploader, call uploadCall) apiclient.Envelope[T] {
	if len(call.files) == 0 {
		msg := "At least one file is required"
		return apiclient.Failure[T](http.StatusBadRequest, msg,
			apiclient.FieldError{Field: call.field, Message: msg})
	}

	// Nothing is sent unless every file passes.
	for _, f := range call.files {
		if v := upload.ValidateFile(f, call.rules); !v.IsValid {
			return apiclient.Failure[T](http.StatusBadRequest, v.Error,
				apiclient.FieldError{Field: call.field, Message: v.Error, RejectedValue: f.Name})
		}
	}

	form := apiclient.NewForm()
	if call.fields != nil {
		if err := call.fields(form); err != nil {
			return apiclient.Failure[T](http.StatusBadRequest, err.Error())
		}
	}
	for _, f := range call.files {
		form.AddPath(call.field, f)
	}

	opts := apiclient.TransportOptions{OnUploadProgress: call.onProgress}
	if call.method == http.MethodPut {
		return apiclient.PutWithRetry[T](ctx, up.c, call.path, form, up.retry, opts)
	}
	return apiclient.PostWithRetry[T](ctx, up.c, call.path, form, up.retry, opts)
}
