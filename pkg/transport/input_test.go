package transport

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/MrWong99/glyphoxa/pkg/frame"
	"github.com/MrWong99/glyphoxa/pkg/processor"
)

// fakeSource replays a fixed sequence of chunks, then returns io.EOF.
type fakeSource struct {
	mu     sync.Mutex
	chunks [][]byte
	i      int
}

func (s *fakeSource) ReceiveAudioFrame(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.i >= len(s.chunks) {
		return nil, io.EOF
	}
	c := s.chunks[s.i]
	s.i++
	return c, nil
}

func TestInputStageForwardsAudioAndVADTransitions(t *testing.T) {
	loud := pcmChunk(30000, 160)
	quiet := pcmChunk(0, 160)
	src := &fakeSource{chunks: [][]byte{loud, loud, loud, quiet, quiet}}

	cfg := DefaultInputConfig()
	cfg.VAD.Threshold = 0.5
	cfg.VAD.StartFrames = 3
	cfg.VAD.StopFrames = 2

	in := NewInput("input", src, cfg)

	var mu sync.Mutex
	var got []frame.Frame
	sink := processor.New("sink", func(ctx context.Context, p *processor.Processor, f frame.Frame, dir processor.Direction) error {
		mu.Lock()
		got = append(got, f)
		mu.Unlock()
		return nil
	})
	in.Processor().Link(sink)

	ctx := context.Background()
	if err := in.Processor().Setup(ctx); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	in.Processor().Start(ctx)
	sink.Start(ctx)
	defer in.Processor().Stop(context.Background())
	defer sink.Stop(context.Background())

	waitForCount(t, &mu, &got, 7) // 5 audio frames + started + stopped

	mu.Lock()
	defer mu.Unlock()
	var startedAt, stoppedAt = -1, -1
	audioCount := 0
	for i, f := range got {
		switch f.(type) {
		case *frame.UserStartedSpeakingFrame:
			startedAt = i
		case *frame.UserStoppedSpeakingFrame:
			stoppedAt = i
		case *frame.InputAudioRawFrame:
			audioCount++
		}
	}
	if audioCount != 5 {
		t.Errorf("expected 5 audio frames, got %d", audioCount)
	}
	if startedAt == -1 || stoppedAt == -1 {
		t.Fatalf("expected both speaking transitions, got started=%d stopped=%d", startedAt, stoppedAt)
	}
	if stoppedAt <= startedAt {
		t.Errorf("expected stoppedSpeaking after startedSpeaking, got started=%d stopped=%d", startedAt, stoppedAt)
	}
	// startedSpeaking fires on the 3rd loud frame, before that frame's own
	// audio data frame is pushed.
	if startedAt != 2 {
		t.Errorf("expected startedSpeaking at index 2 (before 3rd audio frame), got %d", startedAt)
	}
}

func TestInputStagePushesErrorFrameOnSourceFailure(t *testing.T) {
	errBoom := errors.New("source broke")
	src := &erroringSource{err: errBoom}
	in := NewInput("input", src, DefaultInputConfig())

	var mu sync.Mutex
	var got []frame.Frame
	sink := processor.New("sink", func(ctx context.Context, p *processor.Processor, f frame.Frame, dir processor.Direction) error {
		mu.Lock()
		got = append(got, f)
		mu.Unlock()
		return nil
	})
	in.Processor().Link(sink)

	ctx := context.Background()
	if err := in.Processor().Setup(ctx); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	in.Processor().Start(ctx)
	sink.Start(ctx)
	defer in.Processor().Stop(context.Background())
	defer sink.Stop(context.Background())

	waitForCount(t, &mu, &got, 1)

	mu.Lock()
	defer mu.Unlock()
	if _, ok := got[0].(*frame.ErrorFrame); !ok {
		t.Fatalf("expected ErrorFrame, got %T", got[0])
	}
}

type erroringSource struct{ err error }

func (s *erroringSource) ReceiveAudioFrame(ctx context.Context) ([]byte, error) {
	return nil, s.err
}

func waitForCount(t *testing.T, mu *sync.Mutex, got *[]frame.Frame, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		l := len(*got)
		mu.Unlock()
		if l >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	mu.Lock()
	l := len(*got)
	mu.Unlock()
	t.Fatalf("timed out waiting for %d frames, got %d", n, l)
}
