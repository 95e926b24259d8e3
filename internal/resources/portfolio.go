package resources

import (
	"context"
	"net/http"
	"strconv"

	"github.com/fjmerc/studiodesk/internal/apiclient"
	"github.com/fjmerc/studiodesk/internal/models"
	"github.com/fjmerc/studiodesk/internal/upload"
)

// Works manages portfolio entries.
type Works struct {
	collection[models.Work]
	up *uploader
}

// CreateWithMedia creates a work and its media in one multipart request.
// The work is sent as a JSON part named "data".
func (r *Works) CreateWithMedia(ctx context.Context, work models.WorkRequest, files []upload.FileInfo, onProgress ProgressFunc) apiclient.Envelope[models.Work] {
	return send[models.Work](ctx, r.up, uploadCall{
		method:     http.MethodPost,
		path:       r.base,
		field:      "media",
		files:      files,
		rules:      upload.MediaRules,
		onProgress: onProgress,
		fields: func(form *apiclient.Form) error {
			return form.AddJSON("data", work)
		},
	})
}

// UploadMedia adds media files to an existing work.
func (r *Works) UploadMedia(ctx context.Context, id int64, files []upload.FileInfo, onProgress ProgressFunc) apiclient.Envelope[models.Work] {
	return send[models.Work](ctx, r.up, uploadCall{
		method:     http.MethodPost,
		path:       r.path(id, "media"),
		field:      "media",
		files:      files,
		rules:      upload.MediaRules,
		onProgress: onProgress,
	})
}

// Galleries manages the image gallery of a work.
type Galleries struct {
	c  *apiclient.Client
	up *uploader
}

func galleryPath(workID int64) string {
	return "/v3/works/" + strconv.FormatInt(workID, 10) + "/galleries"
}

// List returns a work's gallery images in display order.
func (r *Galleries) List(ctx context.Context, workID int64) apiclient.Envelope[[]models.GalleryImage] {
	return apiclient.Get[[]models.GalleryImage](ctx, r.c, galleryPath(workID), nil)
}

// Upload appends images to a work's gallery.
func (r *Galleries) Upload(ctx context.Context, workID int64, files []upload.FileInfo, onProgress ProgressFunc) apiclient.Envelope[[]models.GalleryImage] {
	return send[[]models.GalleryImage](ctx, r.up, uploadCall{
		method:     http.MethodPost,
		path:       galleryPath(workID),
		field:      "images",
		files:      files,
		rules:      upload.ImageRules,
		onProgress: onProgress,
	})
}

// DeleteImage removes one image from a work's gallery.
func (r *Galleries) DeleteImage(ctx context.Context, workID, imageID int64) apiclient.Envelope[Raw] {
	return apiclient.Delete[Raw](ctx, r.c, galleryPath(workID)+"/"+strconv.FormatInt(imageID, 10))
}
