package frame

// StartFrame begins processing on a pipeline. AllowInterruptions controls
// whether downstream processors honor Cancel/Interruption frames by
// discarding their ordinary queue.
type StartFrame struct {
	Base
	AllowInterruptions bool
}

// NewStartFrame constructs a StartFrame.
func NewStartFrame(allowInterruptions bool) *StartFrame {
	return &StartFrame{
		Base:               NewBase("StartFrame", System),
		AllowInterruptions: allowInterruptions,
	}
}

// CancelFrame requests that every interruption-allowing processor downstream
// discard its ordinary queue. Unlike InterruptionFrame it conventionally
// originates from an explicit caller action rather than VAD.
type CancelFrame struct{ Base }

// NewCancelFrame constructs a CancelFrame.
func NewCancelFrame() *CancelFrame {
	return &CancelFrame{Base: NewBase("CancelFrame", System)}
}

// StopFrame requests an orderly shutdown: each processor forwards it
// downstream, then stops its own scheduler loop once the frame has been
// handled.
type StopFrame struct{ Base }

// NewStopFrame constructs a StopFrame.
func NewStopFrame() *StopFrame {
	return &StopFrame{Base: NewBase("StopFrame", System)}
}

// InterruptionFrame is pushed when a user starts speaking mid-response; at
// every interruption-allowing processor it discards the ordinary queue
// before being forwarded, silencing pending bot output.
type InterruptionFrame struct{ Base }

// NewInterruptionFrame constructs an InterruptionFrame.
func NewInterruptionFrame() *InterruptionFrame {
	return &InterruptionFrame{Base: NewBase("InterruptionFrame", System)}
}

// ErrorFrame reports a recovered handler or adapter error. Fatal frames are
// propagated but not acted on by the runtime itself.
type ErrorFrame struct {
	Base
	Error string
	Fatal bool
}

// NewErrorFrame constructs an ErrorFrame.
func NewErrorFrame(message string, fatal bool) *ErrorFrame {
	return &ErrorFrame{
		Base:  NewBase("ErrorFrame", System),
		Error: message,
		Fatal: fatal,
	}
}

// PauseProcessorFrame pauses the named or identified processor's ordinary
// queue. The priority queue continues to be drained.
type PauseProcessorFrame struct {
	Base
	Target string // processor ID or name
}

// NewPauseProcessorFrame constructs a PauseProcessorFrame.
func NewPauseProcessorFrame(target string) *PauseProcessorFrame {
	return &PauseProcessorFrame{
		Base:   NewBase("PauseProcessorFrame", System),
		Target: target,
	}
}

// ResumeProcessorFrame resumes a processor previously paused by a
// PauseProcessorFrame with a matching Target.
type ResumeProcessorFrame struct {
	Base
	Target string // processor ID or name
}

// NewResumeProcessorFrame constructs a ResumeProcessorFrame.
func NewResumeProcessorFrame(target string) *ResumeProcessorFrame {
	return &ResumeProcessorFrame{
		Base:   NewBase("ResumeProcessorFrame", System),
		Target: target,
	}
}

// MetricsFrame carries a point-in-time metrics snapshot, typically emitted
// by the runtime or an observability sidecar for a sink to consume.
type MetricsFrame struct {
	Base
	Payload map[string]any
}

// NewMetricsFrame constructs a MetricsFrame.
func NewMetricsFrame(payload map[string]any) *MetricsFrame {
	return &MetricsFrame{
		Base:    NewBase("MetricsFrame", System),
		Payload: payload,
	}
}
