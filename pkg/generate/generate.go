// Package generate runs icon-set generation across many templates.
//
// An [Orchestrator] invokes a [Runner] once per template, strictly in input
// order, and folds the runner's progress and completion events into one
// [Progress] value that observers can poll or subscribe to. When the last
// template finished it returns a combined [Result]:
//
//	bus := generate.NewBus(logger)
//	runner := local.New(bus, logger)
//	orch := generate.New(runner, bus, logger)
//	defer orch.Close()
//
//	res, err := orch.GenerateAll(ctx, image, outDir, templates)
package generate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/enowx/forger/pkg/events"
	"github.com/enowx/forger/pkg/observability"
)

var (
	// ErrBusy is returned by GenerateAll while another run is active.
	ErrBusy = errors.New("generation already running")

	// ErrClosed is returned by GenerateAll after Close.
	ErrClosed = errors.New("orchestrator closed")
)

// TaskFailure is the failed icon name used when a job could not run at all.
const TaskFailure = "task"

// TemplateSeparator joins template ids in a combined result.
const TemplateSeparator = ", "

// Runner executes one generation job. Implementations emit progress and
// completion events while Generate runs; a Generate call that returns an
// error emits no completion event.
type Runner interface {
	Generate(ctx context.Context, req Request) (Result, error)
	DefaultOutputPath(ctx context.Context) (string, error)
	OpenFolder(ctx context.Context, path string) error
}

// Orchestrator aggregates multi-template runs.
type Orchestrator struct {
	runner Runner
	logger *log.Logger

	mu       sync.Mutex
	progress Progress
	running  bool
	closed   bool

	updates   *events.Broadcaster[Progress]
	unsubs    []func()
	closeOnce sync.Once
}

// New creates an orchestrator and subscribes it to evts right away.
// A nil logger means log.Default().
func New(runner Runner, evts Events, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}
	o := &Orchestrator{
		runner:  runner,
		logger:  logger,
		updates: events.NewBroadcaster[Progress](),
	}
	o.unsubs = []func(){
		evts.OnProgress(o.handleProgress),
		evts.OnComplete(o.handleComplete),
	}
	return o
}

// Progress returns a snapshot of the current run state.
func (o *Orchestrator) Progress() Progress {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.progress.Clone()
}

// Subscribe returns a channel of progress snapshots and a cancel function.
func (o *Orchestrator) Subscribe() (<-chan Progress, func()) {
	return o.updates.Subscribe()
}

// Close removes the event subscriptions and closes subscriber channels.
// It is safe to call more than once.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		o.mu.Lock()
		o.closed = true
		o.mu.Unlock()
		for _, unsub := range o.unsubs {
			unsub()
		}
		o.updates.Close()
	})
}

// GenerateAll generates every template into outputPath/<template id>. It
// returns the combined result; err is non-nil only when the run could not
// start or ctx ended between templates.
func (o *Orchestrator) GenerateAll(ctx context.Context, image, outputPath string, templates []Template) (Result, error) {
	o.mu.Lock()
	switch {
	case o.closed:
		o.mu.Unlock()
		return Result{}, ErrClosed
	case o.running:
		o.mu.Unlock()
		return Result{}, ErrBusy
	}
	o.running = true
	o.progress = Progress{IsGenerating: true, CompletedTemplates: []string{}, Results: []Result{}}
	o.publishLocked()
	o.mu.Unlock()

	results := make([]Result, 0, len(templates))
	var runErr error
	for _, tpl := range templates {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		results = append(results, o.runTemplate(ctx, image, outputPath, tpl))
	}

	combined := combine(outputPath, templates[:len(results)], results)

	o.mu.Lock()
	o.progress.IsGenerating = false
	o.running = false
	o.publishLocked()
	o.mu.Unlock()

	o.logger.Info("generation finished", "templates", len(results), "generated", len(combined.Generated),
		"failed", len(combined.Failed), "success", combined.Success)
	return combined, runErr
}

func (o *Orchestrator) runTemplate(ctx context.Context, image, outputPath string, tpl Template) Result {
	start := time.Now()
	observability.Generate().OnTemplateStart(ctx, tpl.ID, len(tpl.Icons))
	o.logger.Info("generating template", "template", tpl.ID, "icons", len(tpl.Icons))

	res, err := o.runner.Generate(ctx, Request{
		ImageData:    image,
		OutputPath:   outputPath,
		Icons:        tpl.Icons,
		TemplateName: tpl.ID,
	})
	if err != nil {
		o.logger.Warn("template job failed", "template", tpl.ID, "err", err)
		res = Result{
			Failed:       []FailedIcon{{Name: TaskFailure, Error: err.Error()}},
			OutputPath:   outputPath,
			TemplateName: tpl.ID,
		}
		o.handleComplete(res)
	}

	observability.Generate().OnTemplateComplete(ctx, tpl.ID, len(res.Generated), len(res.Failed), time.Since(start))
	return res
}

func (o *Orchestrator) handleProgress(ev ProgressEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.progress.IsGenerating {
		return
	}
	o.progress.CurrentTemplate = ev.TemplateName
	o.progress.CurrentIcon = ev.CurrentIcon
	o.progress.Current = ev.Current
	o.progress.Total = ev.Total
	o.publishLocked()
}

func (o *Orchestrator) handleComplete(r Result) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.progress.IsGenerating {
		return
	}
	o.progress.CompletedTemplates = append(o.progress.CompletedTemplates, r.TemplateName)
	o.progress.Results = append(o.progress.Results, r.clone())
	o.publishLocked()
}

func (o *Orchestrator) publishLocked() {
	if !o.closed {
		o.updates.Publish(o.progress.Clone())
	}
}

func combine(outputPath string, templates []Template, results []Result) Result {
	combined := Result{
		Success:    true,
		Generated:  []string{},
		Failed:     []FailedIcon{},
		OutputPath: outputPath,
	}
	ids := make([]string, len(templates))
	for i, r := range results {
		ids[i] = templates[i].ID
		combined.Success = combined.Success && r.Success
		combined.Generated = append(combined.Generated, r.Generated...)
		combined.Failed = append(combined.Failed, r.Failed...)
	}
	combined.TemplateName = strings.Join(ids, TemplateSeparator)
	return combined
}
