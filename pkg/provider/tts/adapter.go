package tts

import (
	"context"

	stagetts "github.com/MrWong99/glyphoxa/pkg/stage/tts"
	"github.com/MrWong99/glyphoxa/pkg/types"
)

// SynthesizerAdapter wraps a Provider's streaming SynthesizeStream to
// satisfy stage/tts.Synthesizer's single-shot contract: it feeds the whole
// text as one fragment and concatenates every audio chunk the provider
// emits before returning. SampleRate and Channels describe the PCM format
// the wrapped Provider was configured to emit; the adapter has no way to
// inspect this itself, so callers must supply it (e.g. matching
// elevenlabs.WithOutputFormat or coqui.WithOutputSampleRate).
type SynthesizerAdapter struct {
	Provider   Provider
	Voice      types.VoiceProfile
	SampleRate int
	Channels   int
}

// NewSynthesizerAdapter wraps p for synthesis with voice, producing audio at
// sampleRate/channels.
func NewSynthesizerAdapter(p Provider, voice types.VoiceProfile, sampleRate, channels int) *SynthesizerAdapter {
	return &SynthesizerAdapter{Provider: p, Voice: voice, SampleRate: sampleRate, Channels: channels}
}

var _ stagetts.Synthesizer = (*SynthesizerAdapter)(nil)

// Synthesize sends text as a single fragment and collects the full audio
// stream before returning, since the stage contract wants one complete
// utterance, not an incremental channel (spec §4.D.3).
func (a *SynthesizerAdapter) Synthesize(ctx context.Context, text string) (stagetts.Audio, error) {
	textCh := make(chan string, 1)
	textCh <- text
	close(textCh)

	audioCh, err := a.Provider.SynthesizeStream(ctx, textCh, a.Voice)
	if err != nil {
		return stagetts.Audio{}, err
	}

	var pcm []byte
	for chunk := range audioCh {
		pcm = append(pcm, chunk...)
	}
	if err := ctx.Err(); err != nil {
		return stagetts.Audio{}, err
	}

	return stagetts.Audio{
		PCM:        pcm,
		SampleRate: a.SampleRate,
		Channels:   a.Channels,
	}, nil
}
