// Package stt implements the generic speech-to-text processor stage
// (spec §4.D.1): forwards raw audio to a transcription session and turns its
// partial/final results into InterimTranscriptionFrame and
// TranscriptionFrame values.
package stt

import (
	"context"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/MrWong99/glyphoxa/pkg/frame"
	"github.com/MrWong99/glyphoxa/pkg/processor"
)

// Result is a single transcription result, partial or final.
type Result struct {
	Text       string
	Timestamp  time.Duration
	Confidence float64
	Raw        any
}

// Session is an open transcription session accepting raw PCM audio and
// emitting partial and final results on separate channels, both closed when
// the session ends.
type Session interface {
	SendAudio(chunk []byte) error
	Partials() <-chan Result
	Finals() <-chan Result
	Close() error
}

// StreamConfig describes the audio format a session should expect.
type StreamConfig struct {
	SampleRate int
	Channels   int
	Language   string
}

// Transcriber opens transcription sessions. Adapters in pkg/provider/stt
// wrap a vendor SDK (whisper, deepgram, ...) to implement this; both batch
// and genuinely-streaming backends fit the same shape (spec §6.2: "STT /
// transcribe / PCM audio chunk / {text, is_final, confidence?}").
type Transcriber interface {
	StartStream(ctx context.Context, cfg StreamConfig) (Session, error)
}

// Stage is a processor implementing the generic STT service contract.
type Stage struct {
	proc *processor.Processor

	transcriber Transcriber
	cfg         StreamConfig
	session     Session

	defaultUserID atomic.Value // string
}

// Option configures a Stage at construction.
type Option func(*Stage)

// WithDefaultUserID sets the user id attached to every transcription frame
// the stage emits. Result carries no user id of its own, so no per-result
// value ever takes the place of this one.
func WithDefaultUserID(id string) Option {
	return func(s *Stage) { s.defaultUserID.Store(id) }
}

// New constructs an STT Stage backed by transcriber.
func New(name string, transcriber Transcriber, cfg StreamConfig, opts ...Option) *Stage {
	s := &Stage{transcriber: transcriber, cfg: cfg}
	s.defaultUserID.Store("")
	for _, o := range opts {
		o(s)
	}
	s.proc = processor.New(name, s.handle,
		processor.WithSetup(s.setup),
		processor.WithCleanup(s.cleanup))
	return s
}

// Processor returns the underlying processor for linking into a pipeline.
func (s *Stage) Processor() *processor.Processor { return s.proc }

func (s *Stage) setup(ctx context.Context) error {
	session, err := s.transcriber.StartStream(ctx, s.cfg)
	if err != nil {
		return err
	}
	s.session = session
	go s.drain(session.Partials(), true)
	go s.drain(session.Finals(), false)
	return nil
}

func (s *Stage) cleanup(ctx context.Context) error {
	if s.session == nil {
		return nil
	}
	return s.session.Close()
}

// drain runs for the life of the session, converting Results arriving on ch
// into transcription frames and depositing them on the stage's own queue.
// Queue is safe to call from any goroutine, which is what lets a session's
// background delivery reach the single-threaded handler loop.
func (s *Stage) drain(ch <-chan Result, interim bool) {
	for r := range ch {
		text := strings.TrimSpace(r.Text)
		if text == "" {
			continue
		}
		userID, _ := s.defaultUserID.Load().(string)
		ts := formatTimestamp(r.Timestamp)
		if interim {
			s.proc.Queue(frame.NewInterimTranscriptionFrame(text, userID, ts, r.Raw))
		} else {
			s.proc.Queue(frame.NewTranscriptionFrame(text, userID, ts, nil, r.Raw))
		}
	}
}

func formatTimestamp(d time.Duration) string {
	if d == 0 {
		return time.Now().UTC().Format(time.RFC3339Nano)
	}
	return strconv.FormatInt(d.Milliseconds(), 10)
}

func (s *Stage) handle(ctx context.Context, p *processor.Processor, f frame.Frame, dir processor.Direction) error {
	switch v := f.(type) {
	case *frame.InputAudioRawFrame:
		p.Push(f, dir)
		if s.session != nil {
			if err := s.session.SendAudio(v.Audio); err != nil {
				p.PushError(err.Error(), false)
			}
		}
		return nil
	default:
		p.Push(f, dir)
		return nil
	}
}
