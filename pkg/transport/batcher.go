package transport

import (
	"context"

	"github.com/MrWong99/glyphoxa/pkg/frame"
	"github.com/MrWong99/glyphoxa/pkg/processor"
)

// BatcherConfig configures the audio-batching stage.
type BatcherConfig struct {
	SampleRate    int
	Channels      int
	PreRollFrames int // chunks retained from before speaking began
}

// DefaultBatcherConfig returns the spec's documented defaults.
func DefaultBatcherConfig() BatcherConfig {
	return BatcherConfig{SampleRate: 16000, Channels: 1, PreRollFrames: 5}
}

// BatcherStage accumulates input-audio chunks between a user-started-speaking
// and user-stopped-speaking frame and emits one concatenated input-audio
// frame on stop (spec §4.E.3). It sits between a VAD-emitting stage and a
// batch STT.
type BatcherStage struct {
	proc *processor.Processor
	cfg  BatcherConfig

	speaking bool
	buffer   [][]byte
	preRoll  [][]byte
}

// New constructs a BatcherStage.
func New(name string, cfg BatcherConfig) *BatcherStage {
	s := &BatcherStage{cfg: cfg}
	s.proc = processor.New(name, s.handle)
	return s
}

// Processor returns the underlying processor for linking into a pipeline.
func (s *BatcherStage) Processor() *processor.Processor { return s.proc }

func (s *BatcherStage) handle(ctx context.Context, p *processor.Processor, f frame.Frame, dir processor.Direction) error {
	switch v := f.(type) {
	case *frame.UserStartedSpeakingFrame:
		s.speaking = true
		s.buffer = append(s.buffer[:0], s.preRoll...)
		p.Push(f, dir)
		return nil

	case *frame.UserStoppedSpeakingFrame:
		s.speaking = false
		s.flush(p)
		p.Push(f, dir)
		return nil

	case *frame.InputAudioRawFrame:
		if s.speaking {
			s.buffer = append(s.buffer, v.Audio)
		} else {
			s.addPreRoll(v.Audio)
		}
		return nil

	default:
		p.Push(f, dir)
		return nil
	}
}

func (s *BatcherStage) addPreRoll(chunk []byte) {
	s.preRoll = append(s.preRoll, chunk)
	if over := len(s.preRoll) - s.cfg.PreRollFrames; over > 0 {
		s.preRoll = s.preRoll[over:]
	}
}

func (s *BatcherStage) flush(p *processor.Processor) {
	if len(s.buffer) == 0 {
		return
	}
	var total int
	for _, c := range s.buffer {
		total += len(c)
	}
	combined := make([]byte, 0, total)
	for _, c := range s.buffer {
		combined = append(combined, c...)
	}
	s.buffer = nil
	p.Push(frame.NewInputAudioRawFrame(combined, s.cfg.SampleRate, s.cfg.Channels), processor.Downstream)
}
