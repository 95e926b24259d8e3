package resources

import (
	"context"
	"strconv"

	"github.com/fjmerc/studiodesk/internal/apiclient"
	"github.com/fjmerc/studiodesk/internal/models"
)

// Categories manages service categories.
type Categories struct {
	collection[models.Category]
}

// Reorder sets the display order; ids lists every category in its new position.
func (r *Categories) Reorder(ctx context.Context, ids []int64) apiclient.Envelope[[]models.Category] {
	return apiclient.Put[[]models.Category](ctx, r.c, r.base+"/reorder", models.ReorderRequest{IDs: ids})
}

// Services manages the studio's offerings.
type Services struct {
	collection[models.Service]
}

// ListByCategory lists the services of one category.
func (r *Services) ListByCategory(ctx context.Context, categoryID int64, q PageQuery) apiclient.Envelope[[]models.Service] {
	values := q.ValuesFor(r.c.PageBase())
	values.Set("categoryId", strconv.FormatInt(categoryID, 10))
	return apiclient.Get[[]models.Service](ctx, r.c, r.base, values)
}

// Socials manages social profile links.
type Socials struct {
	collection[models.SocialLink]
}
