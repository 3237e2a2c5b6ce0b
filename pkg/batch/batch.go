// Package batch downloads single icons and whole collections.
//
// [Downloader.DownloadCollection] fetches a collection's full icon list,
// keeps the first [MaxIcons] and processes them in batches of [BatchSize].
// Icons inside a batch run concurrently; the next batch starts only after
// the whole batch settled and a [BatchDelay] pause. A failing icon never
// stops its siblings: failures are collected in the [Report] together with
// the number of icons skipped by the cap.
package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/enowx/forger/pkg/convert"
	"github.com/enowx/forger/pkg/delivery"
	"github.com/enowx/forger/pkg/discovery"
	"github.com/enowx/forger/pkg/observability"
)

// Collection download limits.
const (
	BatchSize  = 10
	MaxIcons   = 50
	BatchDelay = 500 * time.Millisecond
)

// Pipeline stages reported in [Failure.Stage].
const (
	StageFetch   = "fetch"
	StageConvert = "convert"
	StageDeliver = "deliver"
)

// Source provides full collection icon lists. *discovery.Service
// implements it.
type Source interface {
	FetchAllCollectionIcons(ctx context.Context, prefix string) ([]string, discovery.Outcome)
}

// SVGSource fetches vector sources. *catalog.Client implements it.
type SVGSource interface {
	SVG(ctx context.Context, prefix, name, color string) (string, error)
}

// Rasterizer converts vector sources. *convert.Converter implements it.
type Rasterizer interface {
	Rasterize(ctx context.Context, svg string, size int, format convert.Format) ([]byte, error)
}

// Deliverer delivers files. *delivery.Resolver implements it.
type Deliverer interface {
	Deliver(ctx context.Context, dir, filename string, payload []byte) (delivery.Delivery, error)
}

// Item is a delivered icon.
type Item struct {
	Name     string
	Delivery delivery.Delivery
}

// Failure is an icon that could not be produced or delivered.
type Failure struct {
	Name  string
	Stage string
	Err   error
}

// Report summarizes a collection download.
type Report struct {
	Prefix    string
	Format    convert.Format
	Total     int // icons in the collection
	Processed int // icons attempted, at most MaxIcons
	Truncated int // icons skipped because of the cap
	Batches   int
	Delivered []Item
	Failed    []Failure
	Duration  time.Duration
}

// Downloader runs icon downloads.
type Downloader struct {
	source  Source
	svgs    SVGSource
	raster  Rasterizer
	deliver Deliverer

	destination func() string
	color       string
	batchSize   int
	maxIcons    int
	delay       time.Duration
	notify      func(Report)
	logger      *log.Logger
}

// Option configures a [Downloader].
type Option func(*Downloader)

// WithDestination sets the function returning the target directory,
// consulted once per download. An empty result means the fallback.
func WithDestination(dir func() string) Option {
	return func(d *Downloader) { d.destination = dir }
}

// WithColor requests icons recolored by the catalog.
func WithColor(color string) Option {
	return func(d *Downloader) { d.color = color }
}

// WithBatchSize overrides [BatchSize].
func WithBatchSize(n int) Option {
	return func(d *Downloader) {
		if n > 0 {
			d.batchSize = n
		}
	}
}

// WithMaxIcons overrides [MaxIcons].
func WithMaxIcons(n int) Option {
	return func(d *Downloader) {
		if n > 0 {
			d.maxIcons = n
		}
	}
}

// WithBatchDelay overrides [BatchDelay].
func WithBatchDelay(delay time.Duration) Option {
	return func(d *Downloader) { d.delay = delay }
}

// WithNotify registers a function called with the final report of every
// collection download.
func WithNotify(fn func(Report)) Option {
	return func(d *Downloader) { d.notify = fn }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(d *Downloader) {
		if l != nil {
			d.logger = l
		}
	}
}

// New creates a downloader.
func New(source Source, svgs SVGSource, raster Rasterizer, deliver Deliverer, opts ...Option) *Downloader {
	d := &Downloader{
		source:      source,
		svgs:        svgs,
		raster:      raster,
		deliver:     deliver,
		destination: func() string { return "" },
		batchSize:   BatchSize,
		maxIcons:    MaxIcons,
		delay:       BatchDelay,
		logger:      log.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Filename returns the file name used for an icon.
func Filename(prefix, name string, format convert.Format) string {
	return fmt.Sprintf("%s-%s.%s", prefix, name, format.Ext())
}

// DownloadIcon fetches one icon, rasterizes it unless format is svg, and
// delivers it.
func (d *Downloader) DownloadIcon(ctx context.Context, prefix, name string, format convert.Format, size int) (delivery.Delivery, error) {
	res, stage, err := d.download(ctx, d.destination(), prefix, name, format, size)
	if err != nil {
		return delivery.Delivery{}, fmt.Errorf("%s %s:%s: %w", stage, prefix, name, err)
	}
	return res, nil
}

func (d *Downloader) download(ctx context.Context, dir, prefix, name string, format convert.Format, size int) (delivery.Delivery, string, error) {
	fail := func(stage string, err error) (delivery.Delivery, string, error) {
		observability.Download().OnIconFailed(ctx, string(format), stage, err)
		return delivery.Delivery{}, stage, err
	}

	svg, err := d.svgs.SVG(ctx, prefix, name, d.color)
	if err != nil {
		return fail(StageFetch, err)
	}

	payload := []byte(svg)
	if format.Raster() {
		if payload, err = d.raster.Rasterize(ctx, svg, size, format); err != nil {
			return fail(StageConvert, err)
		}
	} else if format != convert.FormatSVG {
		return fail(StageConvert, fmt.Errorf("%w: %q", convert.ErrUnsupportedFormat, format))
	}

	res, err := d.deliver.Deliver(ctx, dir, Filename(prefix, name, format), payload)
	if err != nil {
		return fail(StageDeliver, err)
	}
	observability.Download().OnIconDelivered(ctx, string(format), res.Method.String(), len(payload))
	return res, "", nil
}

// DownloadCollection downloads the first icons of a collection in paced
// batches. It fails only when the icon list cannot be fetched or ctx ends;
// per-icon failures are reported in [Report.Failed].
func (d *Downloader) DownloadCollection(ctx context.Context, prefix string, format convert.Format, size int) (*Report, error) {
	start := time.Now()
	report := &Report{Prefix: prefix, Format: format}

	icons, out := d.source.FetchAllCollectionIcons(ctx, prefix)
	switch out.Status {
	case discovery.StatusFailed, discovery.StatusCanceled:
		return report, fmt.Errorf("fetch icons of %s: %w", prefix, out.Err)
	}

	report.Total = len(icons)
	if len(icons) > d.maxIcons {
		report.Truncated = len(icons) - d.maxIcons
		icons = icons[:d.maxIcons]
		d.logger.Warn("collection truncated", "collection", prefix, "limit", d.maxIcons, "skipped", report.Truncated)
	}

	dir := d.destination()
	var runErr error
	for lo := 0; lo < len(icons); lo += d.batchSize {
		if lo > 0 {
			if err := sleep(ctx, d.delay); err != nil {
				runErr = err
				break
			}
		}
		hi := min(lo+d.batchSize, len(icons))
		d.runBatch(ctx, report, dir, prefix, icons[lo:hi], format, size)
		d.logger.Debug("batch done", "collection", prefix, "batch", report.Batches, "processed", report.Processed)
	}

	report.Duration = time.Since(start)
	observability.Download().OnBatchComplete(ctx, prefix, len(report.Delivered), len(report.Failed), report.Truncated, report.Duration)
	if d.notify != nil {
		d.notify(*report)
	}
	return report, runErr
}

func (d *Downloader) runBatch(ctx context.Context, report *Report, dir, prefix string, names []string, format convert.Format, size int) {
	type result struct {
		res   delivery.Delivery
		stage string
		err   error
	}
	results := make([]result, len(names))

	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			res, stage, err := d.download(ctx, dir, prefix, name, format, size)
			results[i] = result{res: res, stage: stage, err: err}
			return nil
		})
	}
	_ = g.Wait()

	report.Batches++
	report.Processed += len(names)
	for i, r := range results {
		if r.err != nil {
			d.logger.Warn("icon download failed", "icon", prefix+":"+names[i], "stage", r.stage, "err", r.err)
			report.Failed = append(report.Failed, Failure{Name: names[i], Stage: r.stage, Err: r.err})
			continue
		}
		report.Delivered = append(report.Delivered, Item{Name: names[i], Delivery: r.res})
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
