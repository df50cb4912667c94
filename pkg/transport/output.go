package transport

import (
	"context"
	"sync"
	"time"

	"github.com/MrWong99/glyphoxa/pkg/frame"
	"github.com/MrWong99/glyphoxa/pkg/processor"
)

// AudioSink delivers one chunk of outgoing PCM audio to a peer. A concrete
// adapter (pkg/transport/ws, pkg/transport/webrtc) wraps its peer connection
// to implement this.
type AudioSink interface {
	SendAudio(chunk []byte) error
}

// MessageSink delivers an outbound control message to a peer.
type MessageSink interface {
	SendMessage(f *frame.OutboundTransportMessageFrame) error
}

// OutputConfig configures an output transport's audio format and chunking.
// SampleRate/Channels is the format TTSAudioRawFrame/OutputAudioRawFrame
// arrive in. SinkSampleRate/SinkChannels describe the format the AudioSink
// actually requires on the wire (e.g. a WebRTC peer's Opus encoder is fixed
// at 48kHz mono); when either differs from SampleRate/Channels, buffered
// audio is resampled before pacing it out. Leave both Sink fields zero to
// mean "sink already matches the stage format" (no conversion).
type OutputConfig struct {
	SampleRate  int
	Channels    int
	ChunkSizeMs int

	SinkSampleRate int
	SinkChannels   int
}

// DefaultOutputConfig returns the spec's documented egress defaults.
func DefaultOutputConfig() OutputConfig {
	return OutputConfig{SampleRate: 24000, Channels: 1, ChunkSizeMs: 20}
}

// sinkFormat returns the sample rate and channel count the audio buffer is
// actually paced out in, defaulting to SampleRate/Channels when unset.
func (c OutputConfig) sinkFormat() (rate, channels int) {
	rate, channels = c.SinkSampleRate, c.SinkChannels
	if rate == 0 {
		rate = c.SampleRate
	}
	if channels == 0 {
		channels = c.Channels
	}
	return rate, channels
}

func (c OutputConfig) chunkBytes() int {
	rate, channels := c.sinkFormat()
	// 16-bit PCM: 2 bytes/sample.
	return rate * channels * 2 * c.ChunkSizeMs / 1000
}

// OutputStage is the output transport processor: it buffers outgoing audio
// and drains it at real-time pace via a background task, tracking bot
// speaking state (spec §4.E.2).
type OutputStage struct {
	proc *processor.Processor

	audioSink   AudioSink
	messageSink MessageSink
	cfg         OutputConfig

	mu          sync.Mutex
	buffer      []byte
	ttsActive   bool
	botSpeaking bool

	cancel context.CancelFunc
}

// NewOutput constructs an output transport Stage writing to audioSink and
// messageSink.
func NewOutput(name string, audioSink AudioSink, messageSink MessageSink, cfg OutputConfig) *OutputStage {
	s := &OutputStage{audioSink: audioSink, messageSink: messageSink, cfg: cfg}
	s.proc = processor.New(name, s.handle,
		processor.WithSetup(s.setup),
		processor.WithCleanup(s.cleanup))
	return s
}

// Processor returns the underlying processor for linking into a pipeline.
func (s *OutputStage) Processor() *processor.Processor { return s.proc }

func (s *OutputStage) setup(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.drain(runCtx)
	return nil
}

func (s *OutputStage) cleanup(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

func (s *OutputStage) chunkInterval() time.Duration {
	return time.Duration(s.cfg.ChunkSizeMs) * time.Millisecond
}

// drain paces outgoing audio to real time: one chunk per tick, regardless of
// how bursty frame arrival was. Runs until the stage is torn down.
func (s *OutputStage) drain(ctx context.Context) {
	ticker := time.NewTicker(s.chunkInterval())
	defer ticker.Stop()
	chunkSize := s.cfg.chunkBytes()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		var chunk []byte
		if len(s.buffer) > 0 {
			n := chunkSize
			if n > len(s.buffer) {
				n = len(s.buffer)
			}
			chunk = s.buffer[:n]
			s.buffer = s.buffer[n:]
		}
		s.mu.Unlock()

		if chunk != nil {
			if err := s.audioSink.SendAudio(chunk); err != nil {
				s.proc.PushError(err.Error(), false)
			}
		}

		s.mu.Lock()
		shouldStop := !s.ttsActive && len(s.buffer) == 0 && s.botSpeaking
		if shouldStop {
			s.botSpeaking = false
		}
		s.mu.Unlock()

		if shouldStop {
			s.proc.Push(frame.NewBotStoppedSpeakingFrame(), processor.Downstream)
		}
	}
}

func (s *OutputStage) handle(ctx context.Context, p *processor.Processor, f frame.Frame, dir processor.Direction) error {
	switch v := f.(type) {
	case *frame.TTSStartedFrame:
		s.mu.Lock()
		s.ttsActive = true
		startSpeaking := !s.botSpeaking
		if startSpeaking {
			s.botSpeaking = true
		}
		s.mu.Unlock()
		if startSpeaking {
			p.Push(frame.NewBotStartedSpeakingFrame(), processor.Downstream)
		}
		return nil

	case *frame.TTSStoppedFrame:
		s.mu.Lock()
		s.ttsActive = false
		s.mu.Unlock()
		return nil

	case *frame.OutputAudioRawFrame:
		s.bufferAudio(p, v.Audio)
		return nil

	case *frame.TTSAudioRawFrame:
		s.bufferAudio(p, v.Audio)
		return nil

	case *frame.OutboundTransportMessageFrame:
		if err := s.messageSink.SendMessage(v); err != nil {
			p.PushError(err.Error(), false)
		}
		return nil

	default:
		p.Push(f, dir)
		return nil
	}
}

func (s *OutputStage) bufferAudio(p *processor.Processor, audio []byte) {
	if sinkRate, sinkChannels := s.cfg.sinkFormat(); sinkRate != s.cfg.SampleRate || sinkChannels != s.cfg.Channels {
		audio = normalizeAudio(audio, s.cfg.SampleRate, s.cfg.Channels, sinkRate, sinkChannels)
	}

	s.mu.Lock()
	startSpeaking := !s.botSpeaking
	if startSpeaking {
		s.botSpeaking = true
	}
	s.buffer = append(s.buffer, audio...)
	s.mu.Unlock()

	if startSpeaking {
		p.Push(frame.NewBotStartedSpeakingFrame(), processor.Downstream)
	}
}
