package resources

import (
	"context"
	"net/http"

	"github.com/fjmerc/studiodesk/internal/apiclient"
	"github.com/fjmerc/studiodesk/internal/models"
	"github.com/fjmerc/studiodesk/internal/upload"
)

// Clients manages the customer logo wall.
type Clients struct {
	collection[models.Client]
	up *uploader
}

// UploadLogo replaces a client's logo.
func (r *Clients) UploadLogo(ctx context.Context, id int64, file upload.FileInfo, onProgress ProgressFunc) apiclient.Envelope[models.Client] {
	return send[models.Client](ctx, r.up, uploadCall{
		method:     http.MethodPost,
		path:       r.path(id, "logo"),
		field:      "logo",
		files:      []upload.FileInfo{file},
		rules:      upload.ImageRules,
		onProgress: onProgress,
	})
}

// Reviews manages testimonials.
type Reviews struct {
	collection[models.Review]
	up *uploader
}

// UploadImage sets the reviewer photo.
func (r *Reviews) UploadImage(ctx context.Context, id int64, file upload.FileInfo, onProgress ProgressFunc) apiclient.Envelope[models.Review] {
	return send[models.Review](ctx, r.up, uploadCall{
		method:     http.MethodPost,
		path:       r.path(id, "image"),
		field:      "image",
		files:      []upload.FileInfo{file},
		rules:      upload.ImageRules,
		onProgress: onProgress,
	})
}

// SetPublished shows or hides a review on the public site.
func (r *Reviews) SetPublished(ctx context.Context, id int64, published bool) apiclient.Envelope[models.Review] {
	return apiclient.Patch[models.Review](ctx, r.c, r.path(id, "publish"), models.PublishRequest{Published: published})
}

// Contacts manages contact-form messages.
type Contacts struct {
	collection[models.Contact]
}

// MarkRead flags a message as read.
func (r *Contacts) MarkRead(ctx context.Context, id int64) apiclient.Envelope[models.Contact] {
	return apiclient.Patch[models.Contact](ctx, r.c, r.path(id, "read"), nil)
}

// Reply emails a reply to the sender.
func (r *Contacts) Reply(ctx context.Context, id int64, reply models.ContactReply) apiclient.Envelope[models.Contact] {
	return apiclient.Post[models.Contact](ctx, r.c, r.path(id, "reply"), reply)
}
