package transport

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrWong99/glyphoxa/pkg/frame"
	"github.com/MrWong99/glyphoxa/pkg/processor"
)

type fakeAudioSink struct {
	mu    sync.Mutex
	bytes []byte
}

func (s *fakeAudioSink) SendAudio(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bytes = append(s.bytes, chunk...)
	return nil
}

func (s *fakeAudioSink) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bytes)
}

type fakeMessageSink struct {
	mu  sync.Mutex
	got []*frame.OutboundTransportMessageFrame
}

func (s *fakeMessageSink) SendMessage(f *frame.OutboundTransportMessageFrame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, f)
	return nil
}

func TestOutputStagePacesAudioAndTracksBotSpeaking(t *testing.T) {
	audioSink := &fakeAudioSink{}
	msgSink := &fakeMessageSink{}
	cfg := OutputConfig{SampleRate: 8000, Channels: 1, ChunkSizeMs: 5} // 80 bytes/tick

	out := NewOutput("output", audioSink, msgSink, cfg)

	var mu sync.Mutex
	var got []frame.Frame
	sink := processor.New("sink", func(ctx context.Context, p *processor.Processor, f frame.Frame, dir processor.Direction) error {
		mu.Lock()
		got = append(got, f)
		mu.Unlock()
		return nil
	})
	out.Processor().Link(sink)

	ctx := context.Background()
	if err := out.Processor().Setup(ctx); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	out.Processor().Start(ctx)
	sink.Start(ctx)
	defer out.Processor().Stop(context.Background())
	defer sink.Stop(context.Background())

	payload := make([]byte, 160) // two ticks worth
	for i := range payload {
		payload[i] = byte(i)
	}

	out.Processor().Queue(frame.NewTTSStartedFrame())
	out.Processor().Queue(frame.NewTTSAudioRawFrame(payload, cfg.SampleRate, cfg.Channels))
	out.Processor().Queue(frame.NewTTSStoppedFrame())

	waitForTotal(t, audioSink, len(payload))
	if got := audioSink.total(); got != len(payload) {
		t.Fatalf("expected sink to receive %d bytes, got %d", len(payload), got)
	}

	waitForStageFrames(t, &mu, &got, 2) // BotStarted + BotStopped

	mu.Lock()
	defer mu.Unlock()
	if len(got) < 2 {
		t.Fatalf("expected at least 2 frames downstream, got %d", len(got))
	}
	if _, ok := got[0].(*frame.BotStartedSpeakingFrame); !ok {
		t.Errorf("expected first downstream frame to be BotStartedSpeakingFrame, got %T", got[0])
	}
	last := got[len(got)-1]
	if _, ok := last.(*frame.BotStoppedSpeakingFrame); !ok {
		t.Errorf("expected last downstream frame to be BotStoppedSpeakingFrame, got %T", last)
	}
}

func TestOutputStageForwardsOutboundMessages(t *testing.T) {
	audioSink := &fakeAudioSink{}
	msgSink := &fakeMessageSink{}
	out := NewOutput("output", audioSink, msgSink, DefaultOutputConfig())

	ctx := context.Background()
	if err := out.Processor().Setup(ctx); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	out.Processor().Start(ctx)
	defer out.Processor().Stop(context.Background())

	msg := frame.NewOutboundTransportMessageFrame("bot_response", []byte(`{"text":"hi"}`), false)
	out.Processor().Queue(msg)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		msgSink.mu.Lock()
		n := len(msgSink.got)
		msgSink.mu.Unlock()
		if n >= 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	msgSink.mu.Lock()
	defer msgSink.mu.Unlock()
	if len(msgSink.got) != 1 {
		t.Fatalf("expected 1 message delivered, got %d", len(msgSink.got))
	}
	if msgSink.got[0].MessageType != "bot_response" {
		t.Errorf("expected bot_response message type, got %q", msgSink.got[0].MessageType)
	}
}

func waitForTotal(t *testing.T, sink *fakeAudioSink, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if sink.total() >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d bytes, got %d", n, sink.total())
}

func waitForStageFrames(t *testing.T, mu *sync.Mutex, got *[]frame.Frame, n int) {
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
