package processor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrWong99/glyphoxa/pkg/frame"
)

func collectHandler(out *[]frame.Frame) Handler {
	return func(ctx context.Context, p *Processor, f frame.Frame, dir Direction) error {
		*out = append(*out, f)
		p.Push(f, dir)
		return nil
	}
}

func waitForHandled(t *testing.T, p *Processor, n uint64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if p.Metrics().TotalHandled >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d handled frames, got %d", n, p.Metrics().TotalHandled)
}

func TestSystemFramesPreemptOrdinary(t *testing.T) {
	var order []string
	h := func(ctx context.Context, p *Processor, f frame.Frame, dir Direction) error {
		order = append(order, f.Name())
		return nil
	}
	p := New("p", h)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Queue an ordinary frame and a system frame while the scheduler is idle,
	// then start. The system (priority) frame must be handled first even
	// though the ordinary frame was queued earlier.
	p.Queue(frame.NewTextFrame("a", false))
	p.Queue(frame.NewMetricsFrame(nil))
	p.Start(ctx)
	defer p.Stop(context.Background())

	waitForHandled(t, p, 2)

	if len(order) != 2 {
		t.Fatalf("expected 2 handled frames, got %d", len(order))
	}
	if order[0] != "MetricsFrame" {
		t.Errorf("expected MetricsFrame first, got %q", order[0])
	}
	if order[1] != "TextFrame" {
		t.Errorf("expected TextFrame second, got %q", order[1])
	}
}

func TestCancelDiscardsOrdinaryQueue(t *testing.T) {
	var got []frame.Frame
	p := New("p", collectHandler(&got))
	sink := New("sink", collectHandler(&got))
	p.Link(sink)

	ctx := context.Background()
	p.Start(ctx)
	sink.Start(ctx)
	defer p.Stop(context.Background())
	defer sink.Stop(context.Background())

	p.Queue(frame.NewStartFrame(true))
	waitForHandled(t, p, 1)

	// Pause p so ordinary frames stack up before cancel arrives.
	p.paused.Store(true)
	p.Queue(frame.NewTextFrame("a", false))
	p.Queue(frame.NewTextFrame("b", false))
	if n := p.ordinary.len(); n != 2 {
		t.Fatalf("expected 2 queued ordinary frames, got %d", n)
	}

	p.Queue(frame.NewCancelFrame())
	waitForHandled(t, p, 2) // start + cancel

	if n := p.ordinary.len(); n != 0 {
		t.Errorf("expected ordinary queue discarded, got %d remaining", n)
	}

	p.paused.Store(false)
	p.Queue(frame.NewTextFrame("c", false))
	waitForHandled(t, p, 3)
}

func TestPauseResumeDeliversAllQueuedFramesInOrder(t *testing.T) {
	var got []frame.Frame
	p := New("p", collectHandler(&got))
	ctx := context.Background()
	p.Start(ctx)
	defer p.Stop(context.Background())

	p.paused.Store(true)
	p.Queue(frame.NewTextFrame("1", false))
	p.Queue(frame.NewTextFrame("2", false))
	p.Queue(frame.NewTextFrame("3", false))
	time.Sleep(10 * time.Millisecond)
	if len(got) != 0 {
		t.Fatalf("expected no frames handled while paused, got %d", len(got))
	}

	p.paused.Store(false)
	waitForHandled(t, p, 3)

	if len(got) != 3 {
		t.Fatalf("expected 3 handled frames, got %d", len(got))
	}
	for i, want := range []string{"1", "2", "3"} {
		if tf := got[i].(*frame.TextFrame); tf.Text != want {
			t.Errorf("frame %d: expected text %q, got %q", i, want, tf.Text)
		}
	}
}

func TestHandlerErrorProducesErrorFrameAndContinues(t *testing.T) {
	var sinkGot []frame.Frame
	sink := New("sink", collectHandler(&sinkGot))

	boom := errors.New("boom")
	h := func(ctx context.Context, p *Processor, f frame.Frame, dir Direction) error {
		if tf, ok := f.(*frame.TextFrame); ok && tf.Text == "boom" {
			return boom
		}
		p.Push(f, dir)
		return nil
	}
	p := New("p", h)
	p.Link(sink)

	ctx := context.Background()
	p.Start(ctx)
	sink.Start(ctx)
	defer p.Stop(context.Background())
	defer sink.Stop(context.Background())

	p.Queue(frame.NewTextFrame("boom", false))
	p.Queue(frame.NewTextFrame("after", false))
	waitForHandled(t, sink, 2)

	if len(sinkGot) != 2 {
		t.Fatalf("expected sink to receive 2 frames, got %d", len(sinkGot))
	}
	if _, isErr := sinkGot[0].(*frame.ErrorFrame); !isErr {
		t.Errorf("expected first frame at sink to be an ErrorFrame, got %T", sinkGot[0])
	}
	if got := p.Metrics().Errors; got != 1 {
		t.Errorf("expected 1 recorded error, got %d", got)
	}
}

func TestPushWithNoNeighborDropsFrame(t *testing.T) {
	p := New("p", func(ctx context.Context, p *Processor, f frame.Frame, dir Direction) error {
		p.Push(f, dir)
		return nil
	})
	ctx := context.Background()
	p.Start(ctx)
	defer p.Stop(context.Background())

	p.Queue(frame.NewTextFrame("x", false))
	waitForHandled(t, p, 1)
	// No panic, no neighbor; nothing else to assert beyond survival.
}

func TestStopForwardsThenExitsLoop(t *testing.T) {
	var got []frame.Frame
	sink := New("sink", collectHandler(&got))
	p := New("p", collectHandler(&got))
	p.Link(sink)

	ctx := context.Background()
	p.Start(ctx)
	sink.Start(ctx)

	p.Queue(frame.NewStopFrame())
	if err := p.Stop(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.State() != Stopped {
		t.Errorf("expected state Stopped, got %v", p.State())
	}

	waitForHandled(t, sink, 1)
	if err := sink.Stop(context.Background()); err != nil {
		t.Fatalf("unexpected error stopping sink: %v", err)
	}
}
