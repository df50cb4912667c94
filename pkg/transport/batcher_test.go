package transport

import (
	"context"
	"testing"
	"time"

	"github.com/MrWong99/glyphoxa/pkg/frame"
	"github.com/MrWong99/glyphoxa/pkg/processor"
)

func TestBatcherConcatenatesOnlyWhileSpeaking(t *testing.T) {
	var got []frame.Frame
	sink := processor.New("sink", func(ctx context.Context, p *processor.Processor, f frame.Frame, dir processor.Direction) error {
		got = append(got, f)
		return nil
	})
	b := New("batcher", BatcherConfig{SampleRate: 16000, Channels: 1, PreRollFrames: 1})
	b.Processor().Link(sink)

	ctx := context.Background()
	b.Processor().Start(ctx)
	sink.Start(ctx)
	defer b.Processor().Stop(context.Background())
	defer sink.Stop(context.Background())

	b.Processor().Queue(frame.NewInputAudioRawFrame([]byte{0xAA}, 16000, 1)) // pre-roll, not speaking yet
	b.Processor().Queue(frame.NewUserStartedSpeakingFrame())
	b.Processor().Queue(frame.NewInputAudioRawFrame([]byte{0x01, 0x02}, 16000, 1))
	b.Processor().Queue(frame.NewInputAudioRawFrame([]byte{0x03, 0x04}, 16000, 1))
	b.Processor().Queue(frame.NewUserStoppedSpeakingFrame())

	waitForFrames(t, &got, 3) // started-speaking, combined audio, stopped-speaking

	if len(got) != 3 {
		t.Fatalf("expected 3 frames at sink, got %d", len(got))
	}
	if _, ok := got[0].(*frame.UserStartedSpeakingFrame); !ok {
		t.Errorf("expected frame 0 to be UserStartedSpeakingFrame, got %T", got[0])
	}
	audio, ok := got[1].(*frame.InputAudioRawFrame)
	if !ok {
		t.Fatalf("expected frame 1 to be InputAudioRawFrame, got %T", got[1])
	}
	want := []byte{0xAA, 0x01, 0x02, 0x03, 0x04}
	if string(audio.Audio) != string(want) {
		t.Errorf("expected combined audio %v, got %v", want, audio.Audio)
	}
	if _, ok := got[2].(*frame.UserStoppedSpeakingFrame); !ok {
		t.Errorf("expected frame 2 to be UserStoppedSpeakingFrame, got %T", got[2])
	}
}

func waitForFrames(t *testing.T, got *[]frame.Frame, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(*got) >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d frames, got %d", n, len(*got))
}
