package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/enowx/forger/pkg/batch"
	"github.com/enowx/forger/pkg/catalog"
	"github.com/enowx/forger/pkg/convert"
	"github.com/enowx/forger/pkg/delivery"
	ferrors "github.com/enowx/forger/pkg/errors"
	"github.com/enowx/forger/pkg/settings"
)

// downloadOpts holds the flags shared by the download commands. Zero
// values fall back to the persisted settings.
type downloadOpts struct {
	format  string
	size    int
	out     string
	color   string
	browser bool
}

func (o *downloadOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.format, "format", "f", "", "svg, png or jpeg (default from settings)")
	cmd.Flags().IntVarP(&o.size, "size", "s", 0, "raster edge length in pixels (default from settings)")
	cmd.Flags().StringVarP(&o.out, "out", "o", "", "destination directory (default from settings)")
	cmd.Flags().StringVar(&o.color, "color", "", "recolor monochrome icons, e.g. #ff0000")
	cmd.Flags().BoolVar(&o.browser, "browser", false, "offer files as browser downloads instead of saving to ~/Downloads")
}

// resolve merges flags over settings.
func (o *downloadOpts) resolve(s settings.Settings) (convert.Format, int, string, error) {
	name := o.format
	if name == "" {
		name = s.DefaultIconFormat
	}
	format, err := convert.ParseFormat(name)
	if err != nil {
		return "", 0, "", ferrors.Wrap(ferrors.ErrCodeInvalidFormat, err, "format %q", name)
	}
	size := o.size
	if size == 0 {
		size = s.DefaultIconSize
	}
	if format.Raster() {
		if err := ferrors.ValidateSize(size); err != nil {
			return "", 0, "", err
		}
	}
	dir := o.out
	if dir == "" {
		dir = s.DownloadPath
	}
	return format, size, dir, nil
}

// fallback returns the delivery fallback for o and a function waiting for
// browser downloads to be fetched.
func (o *downloadOpts) fallback(ctx context.Context, c *CLI) (delivery.Fallback, func(), error) {
	if !o.browser {
		return delivery.DirFallback{Dir: delivery.DefaultDownloadsDir()}, func() {}, nil
	}
	srv := delivery.NewDownloadServer(delivery.WithServerLogger(c.Logger))
	if err := srv.Start(c.cfg.DownloadAddr); err != nil {
		return nil, nil, err
	}
	wait := func() {
		defer shutdown(srv)
		waitForOffers(ctx, srv)
	}
	return srv, wait, nil
}

// waitForOffers blocks until every offer was fetched, expired or ctx ended.
func waitForOffers(ctx context.Context, srv *delivery.DownloadServer) {
	if srv.Pending() == 0 {
		return
	}
	printInfo("Waiting for %d browser downloads (Ctrl+C to stop)", srv.Pending())
	printDetail("Index: %s/downloads/", srv.BaseURL())
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for srv.Pending() > 0 {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func shutdown(srv *delivery.DownloadServer) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
}

// parseIconArgs accepts "prefix:name" or "prefix name".
func parseIconArgs(args []string) (catalog.Identifier, error) {
	var id catalog.Identifier
	if len(args) == 2 {
		id = catalog.Identifier{Prefix: args[0], Name: args[1]}
	} else {
		id = catalog.ParseIdentifier(args[0])
	}
	if err := ferrors.ValidatePrefix(id.Prefix); err != nil {
		return id, err
	}
	if err := ferrors.ValidateIconName(id.Name); err != nil {
		return id, err
	}
	return id, nil
}

// =============================================================================
// download
// =============================================================================

func (c *CLI) downloadCommand() *cobra.Command {
	var opts downloadOpts

	cmd := &cobra.Command{
		Use:   "download <prefix:name | prefix name>",
		Short: "Download one icon",
		Example: `  forger download mdi:home
  forger download mdi home --format png --size 256 --out ./icons
  forger download logos:go --format jpeg --browser`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIconArgs(args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := c.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			format, size, dir, err := opts.resolve(a.settings.Get())
			if err != nil {
				return err
			}
			fallback, wait, err := opts.fallback(ctx, c)
			if err != nil {
				return err
			}
			defer wait()

			res, err := a.downloader(dir, opts.color, fallback).DownloadIcon(ctx, id.Prefix, id.Name, format, size)
			if err != nil {
				return classify(err, id.String())
			}
			printDelivery(batch.Filename(id.Prefix, id.Name, format), res)
			return nil
		},
	}

	opts.register(cmd)
	return cmd
}

func printDelivery(filename string, res delivery.Delivery) {
	if res.Method == delivery.MethodFallback {
		printWarning("Offered %s for download", filename)
	} else {
		printSuccess("Saved %s", filename)
	}
	printFile(res.Location)
}

// =============================================================================
// download-collection
// =============================================================================

func (c *CLI) downloadCollectionCommand() *cobra.Command {
	var opts downloadOpts

	cmd := &cobra.Command{
		Use:   "download-collection <prefix>",
		Short: fmt.Sprintf("Download the first %d icons of a collection", batch.MaxIcons),
		Long: fmt.Sprintf(`Download the first %d icons of a collection in batches of %d.

Icons inside a batch are fetched concurrently; batches are spaced %s apart.
Failed icons are listed at the end and do not stop the run.`, batch.MaxIcons, batch.BatchSize, batch.BatchDelay),
		Example: "  forger download-collection tabler --format png --size 128 --out ./tabler",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := args[0]
			if err := ferrors.ValidatePrefix(prefix); err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := c.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			format, size, dir, err := opts.resolve(a.settings.Get())
			if err != nil {
				return err
			}
			fallback, wait, err := opts.fallback(ctx, c)
			if err != nil {
				return err
			}
			defer wait()

			prog := newProgress(c.Logger)
			spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Downloading %s...", prefix))
			spinner.Start()
			d := a.downloader(dir, opts.color, fallback)
			report, err := d.DownloadCollection(ctx, prefix, format, size)
			spinner.Stop()
			if report != nil && report.Batches > 0 {
				printReport(report)
				prog.done("collection downloaded", "collection", prefix, "batches", report.Batches)
			}
			if err != nil {
				return classify(err, prefix)
			}
			if len(report.Failed) > 0 {
				return fmt.Errorf("%d of %d icons failed", len(report.Failed), report.Processed)
			}
			return nil
		},
	}

	opts.register(cmd)
	return cmd
}

func printReport(r *batch.Report) {
	summary := formatCounts(
		countPart{len(r.Delivered), "delivered"},
		countPart{len(r.Failed), "failed"},
	)
	if len(r.Failed) == 0 {
		printSuccess("%s: %s", r.Prefix, summary)
	} else {
		printError("%s: %s", r.Prefix, summary)
	}

	fallback := 0
	for _, item := range r.Delivered {
		if item.Delivery.Method == delivery.MethodFallback {
			fallback++
		}
	}
	if len(r.Delivered) > 0 {
		first := r.Delivered[0].Delivery.Location
		printDetail("%d files, first at %s", len(r.Delivered), first)
	}
	if fallback > 0 {
		printWarning("%d files went through the download fallback", fallback)
	}
	if r.Truncated > 0 {
		printWarning("Collection has %d icons; only the first %d were downloaded (%d skipped)",
			r.Total, r.Processed, r.Truncated)
	}
	for _, f := range r.Failed {
		printDetail("%s %s (%s): %v", iconError, f.Name, f.Stage, failureCause(f.Err))
	}
}

func failureCause(err error) string {
	var convErr *convert.ConversionError
	if errors.As(err, &convErr) {
		return "conversion failed: " + convErr.Err.Error()
	}
	var delErr *delivery.DeliveryError
	if errors.As(err, &delErr) {
		return delErr.Error()
	}
	if errors.Is(err, catalog.ErrNotFound) {
		return "not found in catalog"
	}
	return err.Error()
}
