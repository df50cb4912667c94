// Package transport implements the input and output transport processors
// (spec §4.E): the generic ingress/egress contract every concrete peer
// (websocket, WebRTC, ...) plugs into, including the RMS-threshold VAD state
// machine and the optional audio-batching stage.
package transport

import (
	"context"
	"errors"
	"io"

	"github.com/MrWong99/glyphoxa/pkg/frame"
	"github.com/MrWong99/glyphoxa/pkg/processor"
)

// AudioSource supplies raw PCM audio buffers to an input transport. A
// concrete adapter (pkg/transport/ws, pkg/transport/webrtc) wraps its peer
// connection to implement this. ReceiveAudioFrame returns io.EOF when the
// peer has disconnected and no further frames will arrive.
type AudioSource interface {
	ReceiveAudioFrame(ctx context.Context) ([]byte, error)
}

// InputConfig configures an input transport's audio format and VAD.
// SampleRate/Channels is the format every frame the stage emits downstream
// declares. SourceSampleRate/SourceChannels describe the format the
// AudioSource actually produces (e.g. a WebRTC peer's Opus decoder always
// emits 48kHz mono); when either differs from SampleRate/Channels, ingress
// resamples before tagging the frame. Leave both Source fields zero to mean
// "source already matches the target format" (no conversion).
type InputConfig struct {
	SampleRate int
	Channels   int
	VAD        VADConfig

	SourceSampleRate int
	SourceChannels   int
}

// DefaultInputConfig returns the spec's documented ingress defaults.
func DefaultInputConfig() InputConfig {
	return InputConfig{SampleRate: 16000, Channels: 1, VAD: DefaultVADConfig()}
}

// InputStage is the input transport processor: it pulls audio from a
// source in the background, applies VAD, and forwards everything downstream.
type InputStage struct {
	proc *processor.Processor

	source AudioSource
	cfg    InputConfig
	vad    *vadState

	cancel context.CancelFunc
}

// InputOption configures an InputStage at construction.
type InputOption func(*InputStage)

// WithDetector overrides the default RMS detector, e.g. with an adapter
// bridging pkg/provider/vad.Engine.
func WithDetector(d Detector) InputOption {
	return func(s *InputStage) { s.vad.detector = d }
}

// NewInput constructs an input transport Stage reading from source.
func NewInput(name string, source AudioSource, cfg InputConfig, opts ...InputOption) *InputStage {
	s := &InputStage{source: source, cfg: cfg, vad: newVADState(cfg.VAD, nil)}
	for _, o := range opts {
		o(s)
	}
	s.proc = processor.New(name, s.handle,
		processor.WithSetup(s.setup),
		processor.WithCleanup(s.cleanup))
	return s
}

// Processor returns the underlying processor for linking into a pipeline.
func (s *InputStage) Processor() *processor.Processor { return s.proc }

// setup launches the ingress background task. It runs once before the
// scheduler starts (spec §4.B); frames it queues simply wait until the
// scheduler loop begins draining them.
func (s *InputStage) setup(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.ingress(runCtx)
	return nil
}

func (s *InputStage) cleanup(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// ingress repeatedly asks the source for the next buffer and deposits it on
// the stage's own queue; Queue is safe to call from this background
// goroutine, preserving the single-writer discipline of the handler loop.
func (s *InputStage) ingress(ctx context.Context) {
	for {
		chunk, err := s.source.ReceiveAudioFrame(ctx)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
				s.proc.PushError(err.Error(), false)
			}
			return
		}
		if len(chunk) == 0 {
			continue
		}
		if s.cfg.SourceSampleRate != 0 || s.cfg.SourceChannels != 0 {
			srcRate, srcChannels := s.cfg.SourceSampleRate, s.cfg.SourceChannels
			if srcRate == 0 {
				srcRate = s.cfg.SampleRate
			}
			if srcChannels == 0 {
				srcChannels = s.cfg.Channels
			}
			chunk = normalizeAudio(chunk, srcRate, srcChannels, s.cfg.SampleRate, s.cfg.Channels)
			if len(chunk) == 0 {
				continue
			}
		}
		s.proc.Queue(frame.NewInputAudioRawFrame(chunk, s.cfg.SampleRate, s.cfg.Channels))
	}
}

func (s *InputStage) handle(ctx context.Context, p *processor.Processor, f frame.Frame, dir processor.Direction) error {
	v, ok := f.(*frame.InputAudioRawFrame)
	if !ok {
		p.Push(f, dir)
		return nil
	}

	if s.cfg.VAD.Enabled {
		switch s.vad.feed(v.Audio) {
		case startedSpeaking:
			p.Push(frame.NewUserStartedSpeakingFrame(), processor.Downstream)
		case stoppedSpeaking:
			p.Push(frame.NewUserStoppedSpeakingFrame(), processor.Downstream)
		}
	}

	p.Push(f, dir)
	return nil
}
