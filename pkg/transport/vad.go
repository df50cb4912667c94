package transport

import (
	"encoding/binary"
	"math"
)

// VADConfig tunes the RMS-threshold speech detector (spec §4.E.1, §6.4).
type VADConfig struct {
	Enabled     bool
	Threshold   float64 // normalized RMS in [0, 1]
	StartFrames int     // consecutive speech frames to trigger speaking
	StopFrames  int     // consecutive silence frames to trigger not-speaking
}

// DefaultVADConfig returns the spec's documented defaults.
func DefaultVADConfig() VADConfig {
	return VADConfig{Enabled: true, Threshold: 0.01, StartFrames: 3, StopFrames: 12}
}

// Detector classifies a single PCM chunk as speech or silence. The default
// is rmsDetector; an adapter over pkg/provider/vad.Engine may be substituted
// for a model-based detector without changing the state machine below.
type Detector interface {
	IsSpeech(chunk []byte) bool
}

// rmsDetector implements the spec's default: RMS of 16-bit little-endian PCM,
// normalized to [0, 1], compared against a threshold.
type rmsDetector struct {
	threshold float64
}

func (d rmsDetector) IsSpeech(chunk []byte) bool {
	return normalizedRMS(chunk) >= d.threshold
}

func normalizedRMS(chunk []byte) float64 {
	n := len(chunk) / 2
	if n == 0 {
		return 0
	}
	var sumSquares float64
	for i := 0; i < n; i++ {
		sample := int16(binary.LittleEndian.Uint16(chunk[i*2 : i*2+2]))
		v := float64(sample) / 32768.0
		sumSquares += v * v
	}
	return math.Sqrt(sumSquares / float64(n))
}

// vadState is the two-counter speaking/not-speaking state machine (spec
// §4.E.1). It holds no reference to frames or processors so it can be
// exercised directly in tests.
type vadState struct {
	cfg      VADConfig
	detector Detector
	speaking bool
	speechN  int
	silenceN int
}

func newVADState(cfg VADConfig, d Detector) *vadState {
	if d == nil {
		d = rmsDetector{threshold: cfg.Threshold}
	}
	return &vadState{cfg: cfg, detector: d}
}

// transition is the result of feeding one chunk through the state machine.
type transition int

const (
	noTransition transition = iota
	startedSpeaking
	stoppedSpeaking
)

func (v *vadState) feed(chunk []byte) transition {
	if v.detector.IsSpeech(chunk) {
		v.speechN++
		v.silenceN = 0
	} else {
		v.silenceN++
		v.speechN = 0
	}

	if !v.speaking && v.speechN >= v.cfg.StartFrames {
		v.speaking = true
		return startedSpeaking
	}
	if v.speaking && v.silenceN >= v.cfg.StopFrames {
		v.speaking = false
		return stoppedSpeaking
	}
	return noTransition
}
