package generate

import (
	"github.com/charmbracelet/log"

	"github.com/enowx/forger/pkg/events"
)

// Event names emitted by job runners.
const (
	EventProgress = "generate-progress"
	EventComplete = "generate-complete"
)

// Events is the subscription side of job events. Each method returns a
// function that removes the handler.
type Events interface {
	OnProgress(fn func(ProgressEvent)) (unsubscribe func())
	OnComplete(fn func(Result)) (unsubscribe func())
}

// Emitter is the publishing side of job events.
type Emitter interface {
	EmitProgress(ev ProgressEvent)
	EmitComplete(r Result)
}

// Bus implements [Events] and [Emitter] in process. Handlers run
// synchronously on the emitting goroutine.
type Bus struct {
	progress *events.Topic[ProgressEvent]
	complete *events.Topic[Result]
	logger   *log.Logger
}

// NewBus creates a bus. A nil logger means log.Default().
func NewBus(logger *log.Logger) *Bus {
	if logger == nil {
		logger = log.Default()
	}
	return &Bus{
		progress: events.NewTopic[ProgressEvent](),
		complete: events.NewTopic[Result](),
		logger:   logger,
	}
}

func (b *Bus) OnProgress(fn func(ProgressEvent)) func() { return b.progress.Subscribe(fn) }
func (b *Bus) OnComplete(fn func(Result)) func()        { return b.complete.Subscribe(fn) }

func (b *Bus) EmitProgress(ev ProgressEvent) {
	b.logger.Debug("emit", "event", EventProgress, "template", ev.TemplateName, "icon", ev.CurrentIcon, "current", ev.Current, "total", ev.Total)
	b.progress.Publish(ev)
}

func (b *Bus) EmitComplete(r Result) {
	b.logger.Debug("emit", "event", EventComplete, "template", r.TemplateName, "generated", len(r.Generated), "failed", len(r.Failed))
	b.complete.Publish(r)
}

// Subscribers returns the number of progress and completion handlers.
func (b *Bus) Subscribers() (progress, complete int) {
	return b.progress.Count(), b.complete.Count()
}
