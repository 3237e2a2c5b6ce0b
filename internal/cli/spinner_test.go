package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerRendersAndUpdates(t *testing.T) {
	var out syncBuffer
	s := newSpinnerTo(context.Background(), &out, "Fetching icons")
	s.Start()
	time.Sleep(120 * time.Millisecond)
	s.Update("Batch %d/%d", 2, 5)
	time.Sleep(120 * time.Millisecond)
	s.Stop()

	got := out.String()
	if !strings.Contains(got, "Fetching icons") || !strings.Contains(got, "Batch 2/5") {
		t.Errorf("output = %q", got)
	}
	if s.Message() != "Batch 2/5" {
		t.Errorf("Message() = %q", s.Message())
	}
}

func TestSpinnerWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	s := newSpinnerTo(ctx, &syncBuffer{}, "Testing with context...")
	s.Start()
	cancel()
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context cancellation")
	}
	s.Stop()
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinnerTo(context.Background(), &syncBuffer{}, "Testing idempotent stop...")
	s.Start()

	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopWithMessages(t *testing.T) {
	s := newSpinner("Testing success...")
	s.Start()
	s.StopWithSuccess("Done!")

	s = newSpinner("Testing error...")
	s.Start()
	s.StopWithError("Failed!")
}
