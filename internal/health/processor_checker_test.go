package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrWong99/glyphoxa/pkg/frame"
	"github.com/MrWong99/glyphoxa/pkg/processor"
)

func noopHandler(_ context.Context, _ *processor.Processor, _ frame.Frame, _ processor.Direction) error {
	return nil
}

func failingHandler(_ context.Context, _ *processor.Processor, _ frame.Frame, _ processor.Direction) error {
	return errors.New("handler failure")
}

func waitForErrors(t *testing.T, p *processor.Processor, want uint64) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if p.Metrics().Errors >= want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d errors, got %d", want, p.Metrics().Errors)
}

func TestProcessorChecker_FailsWhenNotRunning(t *testing.T) {
	p := processor.New("stt-stage", noopHandler)

	pc := ProcessorChecker{Processor: p}
	if err := pc.Checker("stt-stage").Check(context.Background()); err == nil {
		t.Fatal("expected error for constructed (not running) processor")
	}
}

func TestProcessorChecker_PassesWhenRunning(t *testing.T) {
	p := processor.New("stt-stage", noopHandler)
	ctx := context.Background()
	p.Start(ctx)
	defer p.Stop(ctx)

	pc := ProcessorChecker{Processor: p}
	if err := pc.Checker("stt-stage").Check(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestProcessorChecker_FailsAboveErrorThreshold(t *testing.T) {
	p := processor.New("stt-stage", failingHandler)
	ctx := context.Background()
	p.Start(ctx)
	defer p.Stop(ctx)

	p.Deliver(frame.NewTextFrame("one", false), processor.Downstream)
	p.Deliver(frame.NewTextFrame("two", false), processor.Downstream)
	waitForErrors(t, p, 2)

	pc := ProcessorChecker{Processor: p, MaxErrors: 1}
	if err := pc.Checker("stt-stage").Check(ctx); err == nil {
		t.Fatal("expected error above threshold")
	}
}

func TestPipelineCheckers_NamesEachProcessor(t *testing.T) {
	stt := processor.New("stt-stage", noopHandler)
	llm := processor.New("llm-stage", noopHandler)
	ctx := context.Background()
	stt.Start(ctx)
	llm.Start(ctx)
	defer stt.Stop(ctx)
	defer llm.Stop(ctx)

	checkers := PipelineCheckers([]*processor.Processor{stt, llm}, 0)
	if len(checkers) != 2 {
		t.Fatalf("got %d checkers, want 2", len(checkers))
	}
	if checkers[0].Name != "stt-stage" || checkers[1].Name != "llm-stage" {
		t.Fatalf("unexpected checker names: %q, %q", checkers[0].Name, checkers[1].Name)
	}
	for _, c := range checkers {
		if err := c.Check(ctx); err != nil {
			t.Errorf("checker %q: unexpected error: %v", c.Name, err)
		}
	}
}
