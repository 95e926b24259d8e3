package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fjmerc/studiodesk/internal/apiclient"
	"github.com/fjmerc/studiodesk/internal/models"
	"github.com/fjmerc/studiodesk/internal/resources"
)

// table describes how one resource is listed.
type table[T any] struct {
	use     string
	short   string
	headers []string
	list    func(ctx context.Context, q resources.PageQuery) apiclient.Envelope[[]T]
	row     func(T) []string
}

func listCmds(a *app) []*cobra.Command {
	return []*cobra.Command{
		resourceCmd(a, table[models.Category]{
			use:     "categories",
			short:   "Service categories",
			headers: []string{"ID", "NAME", "POSITION", "ACTIVE"},
			list:    func(ctx context.Context, q resources.PageQuery) apiclient.Envelope[[]models.Category] { return a.api.Categories.List(ctx, q) },
			row: func(c models.Category) []string {
				return []string{id(c.ID), c.Name, strconv.Itoa(c.Position), yesNo(c.Active)}
			},
		}),
		resourceCmd(a, table[models.Service]{
			use:     "services",
			short:   "Services offered by the studio",
			headers: []string{"ID", "NAME", "CATEGORY", "PRICE", "FEATURED"},
			list:    func(ctx context.Context, q resources.PageQuery) apiclient.Envelope[[]models.Service] { return a.api.Services.List(ctx, q) },
			row: func(s models.Service) []string {
				return []string{id(s.ID), s.Name, s.CategoryName, fmt.Sprintf("%.2f %s", s.Price, s.Currency), yesNo(s.Featured)}
			},
		}),
		resourceCmd(a, table[models.Client]{
			use:     "clients",
			short:   "Clients shown on the site",
			headers: []string{"ID", "NAME", "WEBSITE", "LOGO"},
			list:    func(ctx context.Context, q resources.PageQuery) apiclient.Envelope[[]models.Client] { return a.api.Clients.List(ctx, q) },
			row: func(c models.Client) []string {
				return []string{id(c.ID), c.Name, c.Website, c.LogoURL}
			},
		}),
		resourceCmd(a, table[models.Review]{
			use:     "reviews",
			short:   "Customer reviews",
			headers: []string{"ID", "AUTHOR", "RATING", "PUBLISHED"},
			list:    func(ctx context.Context, q resources.PageQuery) apiclient.Envelope[[]models.Review] { return a.api.Reviews.List(ctx, q) },
			row: func(r models.Review) []string {
				return []string{id(r.ID), r.AuthorName, strconv.Itoa(r.Rating), yesNo(r.Published)}
			},
		}),
		resourceCmd(a, table[models.Contact]{
			use:     "contacts",
			short:   "Contact form messages",
			headers: []string{"ID", "FROM", "SUBJECT", "READ"},
			list:    func(ctx context.Context, q resources.PageQuery) apiclient.Envelope[[]models.Contact] { return a.api.Contacts.List(ctx, q) },
			row: func(c models.Contact) []string {
				return []string{id(c.ID), fmt.Sprintf("%s <%s>", c.Name, c.Email), c.Subject, yesNo(c.Read)}
			},
		}),
		resourceCmd(a, table[models.Work]{
			use:     "works",
			short:   "Portfolio works",
			headers: []string{"ID", "TITLE", "MEDIA", "PUBLISHED"},
			list:    func(ctx context.Context, q resources.PageQuery) apiclient.Envelope[[]models.Work] { return a.api.Works.List(ctx, q) },
			row: func(w models.Work) []string {
				return []string{id(w.ID), w.Title, strconv.Itoa(len(w.Media)), yesNo(w.Published)}
			},
		}),
		resourceCmd(a, table[models.SocialLink]{
			use:     "socials",
			short:   "Social profile links",
			headers: []string{"ID", "PLATFORM", "URL"},
			list:    func(ctx context.Context, q resources.PageQuery) apiclient.Envelope[[]models.SocialLink] { return a.api.Socials.List(ctx, q) },
			row: func(s models.SocialLink) []string {
				return []string{id(s.ID), s.Platform, s.URL}
			},
		}),
	}
}

// resourceCmd builds "<resource> list" for t. Upload subcommands are attached
// to the same parent by addUploadCmds.
func resourceCmd[T any](a *app, t table[T]) *cobra.Command {
	parent := &cobra.Command{
		Use:   t.use,
		Short: t.short,
	}

	var q resources.PageQuery
	list := &cobra.Command{
		Use:   "list",
		Short: "List " + t.use,
		Long: fmt.Sprintf(`List %s one page at a time.

Examples:
  studiodesk %s list
  studiodesk %s list --page 2 --size 50 --sort createdAt,desc`, t.use, t.use, t.use),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env := t.list(cmd.Context(), q)
			if err := envelopeError(env); err != nil {
				return err
			}

			if len(env.Data) == 0 {
				fmt.Fprintf(a.stdout, "No %s found.\n", t.use)
				return nil
			}

			w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, strings.Join(t.headers, "\t"))
			for _, item := range env.Data {
				fmt.Fprintln(w, strings.Join(t.row(item), "\t"))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if p := env.Pagination; p != nil {
				fmt.Fprintln(a.stdout, paginationLine(*p))
			}
			return nil
		},
	}
	list.Flags().IntVarP(&q.Page, "page", "p", 0, "Page number (server default when unset)")
	list.Flags().IntVarP(&q.Size, "size", "n", 0, "Page size")
	list.Flags().StringVar(&q.Sort, "sort", "", "Sort expression, e.g. createdAt,desc")
	list.Flags().StringVarP(&q.Search, "search", "s", "", "Search text")

	parent.AddCommand(list)
	return parent
}

func paginationLine(p apiclient.PaginationInfo) string {
	line := fmt.Sprintf("Page %d of %d (%d total)", p.Page, p.TotalPages, p.TotalElements)
	var nav []string
	if p.HasPrevious {
		nav = append(nav, "previous")
	}
	if p.HasNext {
		nav = append(nav, "next")
	}
	if len(nav) > 0 {
		line += " [" + strings.Join(nav, ", ") + "]"
	}
	return line
}

func id(n int64) string { return strconv.FormatInt(n, 10) }

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
