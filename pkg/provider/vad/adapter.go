package vad

import (
	"fmt"

	"github.com/MrWong99/glyphoxa/pkg/types"
)

// DetectorAdapter bridges a VAD Engine session to the narrow
// IsSpeech(chunk []byte) bool contract that pkg/transport's input stage
// consumes in place of its default RMS-threshold detector, discarding the
// probability score and the speech-start/continue/end/silence distinction
// the engine reports.
type DetectorAdapter struct {
	session SessionHandle
}

// NewDetectorAdapter creates a session on engine with cfg and wraps it.
func NewDetectorAdapter(engine Engine, cfg Config) (*DetectorAdapter, error) {
	session, err := engine.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("vad: new session: %w", err)
	}
	return &DetectorAdapter{session: session}, nil
}

// IsSpeech classifies chunk, which must match the SampleRate/FrameSizeMs the
// session was configured with. A ProcessFrame error is reported as silence
// rather than propagated, since the caller's Detector contract has no error
// return.
func (a *DetectorAdapter) IsSpeech(chunk []byte) bool {
	event, err := a.session.ProcessFrame(chunk)
	if err != nil {
		return false
	}
	return event.Type == types.VADSpeechStart || event.Type == types.VADSpeechContinue
}

// Reset clears the underlying session's accumulated state.
func (a *DetectorAdapter) Reset() {
	a.session.Reset()
}

// Close releases the underlying session.
func (a *DetectorAdapter) Close() error {
	return a.session.Close()
}
