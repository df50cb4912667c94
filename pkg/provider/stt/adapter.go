package stt

import (
	"context"

	stagestt "github.com/MrWong99/glyphoxa/pkg/stage/stt"
	"github.com/MrWong99/glyphoxa/pkg/types"
)

// TranscriberAdapter wraps a Provider to satisfy stage/stt.Transcriber. Both
// the streaming (deepgram) and batch-simulated (whisper) providers implement
// the same Provider/SessionHandle pair, so one adapter covers both.
type TranscriberAdapter struct {
	Provider Provider
}

// NewTranscriberAdapter wraps p.
func NewTranscriberAdapter(p Provider) *TranscriberAdapter {
	return &TranscriberAdapter{Provider: p}
}

var _ stagestt.Transcriber = (*TranscriberAdapter)(nil)

// StartStream opens a provider session and wraps it as a stage/stt.Session.
func (a *TranscriberAdapter) StartStream(ctx context.Context, cfg stagestt.StreamConfig) (stagestt.Session, error) {
	handle, err := a.Provider.StartStream(ctx, StreamConfig{
		SampleRate: cfg.SampleRate,
		Channels:   cfg.Channels,
		Language:   cfg.Language,
	})
	if err != nil {
		return nil, err
	}
	return &sessionAdapter{
		handle:   handle,
		partials: convert(handle.Partials()),
		finals:   convert(handle.Finals()),
	}, nil
}

type sessionAdapter struct {
	handle   SessionHandle
	partials <-chan stagestt.Result
	finals   <-chan stagestt.Result
}

func (s *sessionAdapter) SendAudio(chunk []byte) error  { return s.handle.SendAudio(chunk) }
func (s *sessionAdapter) Close() error                  { return s.handle.Close() }
func (s *sessionAdapter) Partials() <-chan stagestt.Result { return s.partials }
func (s *sessionAdapter) Finals() <-chan stagestt.Result   { return s.finals }

func convert(in <-chan types.Transcript) <-chan stagestt.Result {
	out := make(chan stagestt.Result)
	go func() {
		defer close(out)
		for t := range in {
			out <- stagestt.Result{
				Text:       t.Text,
				Timestamp:  t.Timestamp,
				Confidence: t.Confidence,
				Raw:        t,
			}
		}
	}()
	return out
}
