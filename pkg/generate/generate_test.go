package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

// fakeRunner emits one progress event per icon, then a completion event.
type fakeRunner struct {
	bus     *Bus
	fail    map[string]int // template -> number of icons to fail
	errFor  map[string]error
	block   chan struct{}
	mu      sync.Mutex
	calls   []string
	started chan string
}

func (f *fakeRunner) Generate(ctx context.Context, req Request) (Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req.TemplateName)
	f.mu.Unlock()
	if f.started != nil {
		f.started <- req.TemplateName
	}
	if f.block != nil {
		<-f.block
	}
	if err := f.errFor[req.TemplateName]; err != nil {
		return Result{}, err
	}

	res := Result{Generated: []string{}, Failed: []FailedIcon{}, OutputPath: req.OutputPath, TemplateName: req.TemplateName}
	for i, icon := range req.Icons {
		f.bus.EmitProgress(ProgressEvent{TemplateName: req.TemplateName, Current: i + 1, Total: len(req.Icons), CurrentIcon: icon.Name})
		if i < f.fail[req.TemplateName] {
			res.Failed = append(res.Failed, FailedIcon{Name: icon.Name, Error: "boom"})
			continue
		}
		res.Generated = append(res.Generated, icon.Name)
	}
	res.Success = len(res.Failed) == 0
	f.bus.EmitComplete(res)
	return res, nil
}

func (f *fakeRunner) DefaultOutputPath(context.Context) (string, error) { return "/out", nil }
func (f *fakeRunner) OpenFolder(context.Context, string) error          { return nil }

func template(id string, n int) Template {
	t := Template{ID: id, Name: id}
	for i := range n {
		t.Icons = append(t.Icons, IconSize{Name: fmt.Sprintf("%s-%d.png", id, i), Width: 16, Height: 16, Format: "png"})
	}
	return t
}

func setup(runner *fakeRunner) (*Orchestrator, *Bus) {
	bus := NewBus(log.New(io.Discard))
	runner.bus = bus
	return New(runner, bus, log.New(io.Discard)), bus
}

func TestGenerateAllCombinesResults(t *testing.T) {
	runner := &fakeRunner{fail: map[string]int{"b": 1}}
	orch, _ := setup(runner)
	defer orch.Close()

	res, err := orch.GenerateAll(context.Background(), "img", "/out", []Template{template("a", 3), template("b", 1)})
	if err != nil {
		t.Fatalf("GenerateAll: %v", err)
	}
	if res.Success {
		t.Error("Success = true, want false")
	}
	if len(res.Generated) != 3 || len(res.Failed) != 1 {
		t.Errorf("generated %d failed %d, want 3 and 1", len(res.Generated), len(res.Failed))
	}
	if res.TemplateName != "a, b" {
		t.Errorf("TemplateName = %q", res.TemplateName)
	}
	if res.OutputPath != "/out" {
		t.Errorf("OutputPath = %q", res.OutputPath)
	}

	p := orch.Progress()
	if p.IsGenerating {
		t.Error("still generating after run")
	}
	if len(p.CompletedTemplates) != 2 || p.CompletedTemplates[0] != "a" || p.CompletedTemplates[1] != "b" {
		t.Errorf("CompletedTemplates = %v", p.CompletedTemplates)
	}
	if len(p.Results) != 2 {
		t.Errorf("Results = %d", len(p.Results))
	}
	if p.CurrentTemplate != "b" || p.Current != 1 || p.Total != 1 {
		t.Errorf("live fields = %q %d/%d", p.CurrentTemplate, p.Current, p.Total)
	}
}

func TestGenerateAllRunsInOrder(t *testing.T) {
	runner := &fakeRunner{}
	orch, _ := setup(runner)
	defer orch.Close()

	tpls := []Template{template("z", 1), template("a", 1), template("m", 1)}
	if _, err := orch.GenerateAll(context.Background(), "img", "/out", tpls); err != nil {
		t.Fatal(err)
	}
	want := []string{"z", "a", "m"}
	for i, id := range want {
		if runner.calls[i] != id {
			t.Fatalf("calls = %v, want %v", runner.calls, want)
		}
	}
}

func TestGenerateAllResetsProgress(t *testing.T) {
	runner := &fakeRunner{}
	orch, _ := setup(runner)
	defer orch.Close()

	ctx := context.Background()
	if _, err := orch.GenerateAll(ctx, "img", "/out", []Template{template("a", 2)}); err != nil {
		t.Fatal(err)
	}
	if _, err := orch.GenerateAll(ctx, "img", "/out", []Template{template("b", 1)}); err != nil {
		t.Fatal(err)
	}
	p := orch.Progress()
	if len(p.CompletedTemplates) != 1 || p.CompletedTemplates[0] != "b" {
		t.Errorf("CompletedTemplates = %v, want [b]", p.CompletedTemplates)
	}
}

func TestGenerateAllRunnerError(t *testing.T) {
	runner := &fakeRunner{errFor: map[string]error{"a": errors.New("runner crashed")}}
	orch, _ := setup(runner)
	defer orch.Close()

	res, err := orch.GenerateAll(context.Background(), "img", "/out", []Template{template("a", 2), template("b", 2)})
	if err != nil {
		t.Fatal(err)
	}
	if res.Success || len(res.Failed) != 1 || res.Failed[0].Name != TaskFailure {
		t.Errorf("result = %+v", res)
	}
	if len(res.Generated) != 2 {
		t.Errorf("generated = %v, second template should still run", res.Generated)
	}
	if p := orch.Progress(); len(p.CompletedTemplates) != 2 {
		t.Errorf("CompletedTemplates = %v", p.CompletedTemplates)
	}
}

func TestGenerateAllBusy(t *testing.T) {
	runner := &fakeRunner{block: make(chan struct{}), started: make(chan string, 1)}
	orch, _ := setup(runner)
	defer orch.Close()

	done := make(chan error, 1)
	go func() {
		_, err := orch.GenerateAll(context.Background(), "img", "/out", []Template{template("a", 1)})
		done <- err
	}()
	<-runner.started

	if !orch.Progress().IsGenerating {
		t.Error("IsGenerating = false during run")
	}
	if _, err := orch.GenerateAll(context.Background(), "img", "/out", []Template{template("b", 1)}); !errors.Is(err, ErrBusy) {
		t.Errorf("second run err = %v, want ErrBusy", err)
	}

	close(runner.block)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}

func TestGenerateAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := &fakeRunner{started: make(chan string, 2), block: make(chan struct{})}
	orch, _ := setup(runner)
	defer orch.Close()

	done := make(chan Result, 1)
	var runErr error
	go func() {
		res, err := orch.GenerateAll(ctx, "img", "/out", []Template{template("a", 1), template("b", 1)})
		runErr = err
		done <- res
	}()
	<-runner.started
	cancel()
	close(runner.block)

	res := <-done
	if !errors.Is(runErr, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", runErr)
	}
	if res.TemplateName != "a" {
		t.Errorf("TemplateName = %q, want only the started template", res.TemplateName)
	}
	if orch.Progress().IsGenerating {
		t.Error("still generating after cancellation")
	}
}

func TestEventsOutsideRunAreIgnored(t *testing.T) {
	runner := &fakeRunner{}
	orch, bus := setup(runner)
	defer orch.Close()

	bus.EmitProgress(ProgressEvent{TemplateName: "x", Current: 1, Total: 2})
	bus.EmitComplete(Result{TemplateName: "x"})

	p := orch.Progress()
	if p.CurrentTemplate != "" || len(p.CompletedTemplates) != 0 {
		t.Errorf("idle progress changed: %+v", p)
	}
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	runner := &fakeRunner{}
	orch, _ := setup(runner)
	defer orch.Close()

	ch, cancel := orch.Subscribe()
	defer cancel()

	if _, err := orch.GenerateAll(context.Background(), "img", "/out", []Template{template("a", 2)}); err != nil {
		t.Fatal(err)
	}

	var last Progress
	timeout := time.After(time.Second)
	for {
		select {
		case p := <-ch:
			last = p
			if !p.IsGenerating {
				if len(last.CompletedTemplates) != 1 {
					t.Errorf("final snapshot = %+v", last)
				}
				return
			}
		case <-timeout:
			t.Fatalf("no final snapshot, last = %+v", last)
		}
	}
}

func TestCloseUnsubscribesOnce(t *testing.T) {
	runner := &fakeRunner{}
	orch, bus := setup(runner)

	if p, c := bus.Subscribers(); p != 1 || c != 1 {
		t.Fatalf("subscribers = %d/%d, want 1/1", p, c)
	}
	orch.Close()
	orch.Close()
	if p, c := bus.Subscribers(); p != 0 || c != 0 {
		t.Errorf("subscribers after Close = %d/%d", p, c)
	}
	if _, err := orch.GenerateAll(context.Background(), "img", "/out", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
}

func TestProgressSnapshotIsCopy(t *testing.T) {
	runner := &fakeRunner{}
	orch, _ := setup(runner)
	defer orch.Close()

	if _, err := orch.GenerateAll(context.Background(), "img", "/out", []Template{template("a", 1)}); err != nil {
		t.Fatal(err)
	}
	p := orch.Progress()
	p.CompletedTemplates[0] = "mutated"
	p.Results[0].Generated[0] = "mutated"

	again := orch.Progress()
	if again.CompletedTemplates[0] != "a" || again.Results[0].Generated[0] != "a-0.png" {
		t.Errorf("snapshot aliases internal state: %+v", again)
	}
}
