// Package tts implements the generic text-to-speech processor stage
// (spec §4.D.3): turns a text frame into a TTSStartedFrame, a synthesized
// audio frame, and a TTSStoppedFrame, emitted symmetrically even on
// synthesis error.
package tts

import (
	"context"
	"strings"

	"github.com/MrWong99/glyphoxa/pkg/frame"
	"github.com/MrWong99/glyphoxa/pkg/processor"
)

// Audio is a complete synthesized utterance.
type Audio struct {
	PCM        []byte
	SampleRate int
	Channels   int
}

// Synthesizer turns text into a complete utterance of PCM audio. Adapters in
// pkg/provider/tts wrap a streaming vendor SDK (elevenlabs, coqui, ...) to
// implement this (spec §6.2: "TTS / synthesize / text / PCM audio chunks").
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (Audio, error)
}

// Stage is a processor implementing the generic TTS service contract.
type Stage struct {
	proc        *processor.Processor
	synthesizer Synthesizer
}

// New constructs a TTS Stage backed by synthesizer.
func New(name string, synthesizer Synthesizer) *Stage {
	s := &Stage{synthesizer: synthesizer}
	s.proc = processor.New(name, s.handle)
	return s
}

// Processor returns the underlying processor for linking into a pipeline.
func (s *Stage) Processor() *processor.Processor { return s.proc }

func (s *Stage) handle(ctx context.Context, p *processor.Processor, f frame.Frame, dir processor.Direction) error {
	switch v := f.(type) {
	case *frame.TranscriptionFrame, *frame.InterimTranscriptionFrame:
		p.Push(f, dir)
		return nil

	case *frame.TextFrame:
		return s.maybeSynthesize(ctx, p, v.Text, v.SkipTTS, f, dir)

	case *frame.LLMTextFrame:
		return s.maybeSynthesize(ctx, p, v.Text, v.SkipTTS, f, dir)

	default:
		p.Push(f, dir)
		return nil
	}
}

func (s *Stage) maybeSynthesize(ctx context.Context, p *processor.Processor, text string, skipTTS bool, original frame.Frame, dir processor.Direction) error {
	if skipTTS {
		p.Push(original, dir)
		return nil
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	p.Push(frame.NewTTSStartedFrame(), processor.Downstream)
	defer p.Push(frame.NewTTSStoppedFrame(), processor.Downstream)

	audio, err := s.synthesizer.Synthesize(ctx, text)
	if err != nil {
		p.PushError(err.Error(), false)
		return nil
	}
	p.Push(frame.NewTTSAudioRawFrame(audio.PCM, audio.SampleRate, audio.Channels), processor.Downstream)
	return nil
}
