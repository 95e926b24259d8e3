package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/fjmerc/studiodesk/internal/apiclient"
	"github.com/fjmerc/studiodesk/internal/models"
	"github.com/fjmerc/studiodesk/internal/progress"
	"github.com/fjmerc/studiodesk/internal/resources"
	"github.com/fjmerc/studiodesk/internal/upload"
)

// uploadFunc sends files for the record with the given id and returns a
// one-line summary of the result.
type uploadFunc func(ctx context.Context, id int64, files []upload.FileInfo, onProgress resources.ProgressFunc) (string, error)

func addUploadCmds(rootCmd *cobra.Command, a *app) {
	parents := map[string]*cobra.Command{}
	for _, cmd := range rootCmd.Commands() {
		parents[cmd.Name()] = cmd
	}

	parents["clients"].AddCommand(uploadCmd(a, "upload-logo <client-id> <file>", "Replace a client's logo", false,
		func(ctx context.Context, id int64, files []upload.FileInfo, onProgress resources.ProgressFunc) (string, error) {
			env := a.api.Clients.UploadLogo(ctx, id, files[0], onProgress)
			if err := envelopeError(env); err != nil {
				return "", err
			}
			return "Logo: " + env.Data.LogoURL, nil
		}))

	parents["reviews"].AddCommand(uploadCmd(a, "upload-image <review-id> <file>", "Attach an image to a review", false,
		func(ctx context.Context, id int64, files []upload.FileInfo, onProgress resources.ProgressFunc) (string, error) {
			env := a.api.Reviews.UploadImage(ctx, id, files[0], onProgress)
			if err := envelopeError(env); err != nil {
				return "", err
			}
			return "Image: " + env.Data.ImageURL, nil
		}))

	parents["works"].AddCommand(uploadCmd(a, "upload-media <work-id> <file>...", "Add images or videos to a work", true,
		func(ctx context.Context, id int64, files []upload.FileInfo, onProgress resources.ProgressFunc) (string, error) {
			env := a.api.Works.UploadMedia(ctx, id, files, onProgress)
			if err := envelopeError(env); err != nil {
				return "", err
			}
			return fmt.Sprintf("Work %d now has %d media item(s)", env.Data.ID, len(env.Data.Media)), nil
		}))

	galleries := &cobra.Command{
		Use:   "galleries",
		Short: "Gallery images attached to works",
	}
	galleries.AddCommand(galleryListCmd(a))
	galleries.AddCommand(uploadCmd(a, "upload <work-id> <file>...", "Add images to a work's gallery", true,
		func(ctx context.Context, id int64, files []upload.FileInfo, onProgress resources.ProgressFunc) (string, error) {
			env := a.api.Galleries.Upload(ctx, id, files, onProgress)
			if err := envelopeError(env); err != nil {
				return "", err
			}
			return fmt.Sprintf("Added %d image(s)", len(env.Data)), nil
		}))
	rootCmd.AddCommand(galleries)
}

func uploadCmd(a *app, use, short string, multiple bool, send uploadFunc) *cobra.Command {
	var noProgress bool

	args := cobra.ExactArgs(2)
	if multiple {
		args = cobra.MinimumNArgs(2)
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			files := make([]upload.FileInfo, 0, len(args)-1)
			var total int64
			for _, path := range args[1:] {
				info, err := upload.StatFile(path)
				if err != nil {
					return err
				}
				files = append(files, info)
				total += info.Size
			}

			fmt.Fprintf(a.stdout, "Uploading %d file(s) (%s)\n", len(files), progress.FormatBytes(total))

			var onProgress resources.ProgressFunc
			var bar *progressPrinter
			if !noProgress {
				bar = newProgressPrinter(a.stderr)
				onProgress = bar.print
			}

			summary, err := send(cmd.Context(), id, files, onProgress)
			if bar != nil {
				bar.done()
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(a.stdout, "Upload successful!")
			fmt.Fprintln(a.stdout, summary)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable progress output")

	return cmd
}

func galleryListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <work-id>",
		Short: "List a work's gallery images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workID, err := parseID(args[0])
			if err != nil {
				return err
			}
			env := a.api.Galleries.List(cmd.Context(), workID)
			if err := envelopeError(env); err != nil {
				return err
			}
			if len(env.Data) == 0 {
				fmt.Fprintln(a.stdout, "No gallery images found.")
				return nil
			}
			for _, img := range env.Data {
				fmt.Fprintln(a.stdout, galleryLine(img))
			}
			return nil
		},
	}
}

func galleryLine(img models.GalleryImage) string {
	line := fmt.Sprintf("%-6d %s", img.ID, img.URL)
	if img.Caption != "" {
		line += "  " + img.Caption
	}
	return line
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", s)
	}
	return id, nil
}

// progressPrinter renders upload progress. Terminals get a redrawn bar,
// anything else gets a line per 10% step or retry.
type progressPrinter struct {
	mu          sync.Mutex
	w           io.Writer
	tty         bool
	lastPercent int
	lastAttempt int
	drawn       bool
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	p := &progressPrinter{w: w, lastPercent: -1}
	if f, ok := w.(*os.File); ok {
		p.tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return p
}

func (p *progressPrinter) print(u apiclient.UploadProgress) {
	p.mu.Lock()
	defer p.mu.Unlock()

	line := progressLine(u)
	if p.tty {
		fmt.Fprintf(p.w, "\r%s\033[K", line)
		p.drawn = true
		return
	}

	step := u.Percentage / 10
	if step == p.lastPercent && u.Attempt == p.lastAttempt {
		return
	}
	p.lastPercent = step
	p.lastAttempt = u.Attempt
	fmt.Fprintln(p.w, line)
}

func (p *progressPrinter) done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.drawn {
		fmt.Fprintln(p.w) // Clear progress line
	}
}

func progressLine(u apiclient.UploadProgress) string {
	line := fmt.Sprintf("%s %3d%% (%s/%s) %s ETA %s",
		progressBar(u.Percentage),
		u.Percentage,
		progress.FormatBytes(u.Loaded),
		progress.FormatBytes(u.Total),
		u.Speed,
		u.EstimatedTime,
	)
	if u.Attempt > 1 {
		line += fmt.Sprintf(" [attempt %d]", u.Attempt)
	}
	return line
}

func progressBar(percentage int) string {
	width := 30
	filled := percentage * width / 100
	empty := width - filled
	return fmt.Sprintf("[%s%s]", strings.Repeat("█", filled), strings.Repeat("░", empty))
}
