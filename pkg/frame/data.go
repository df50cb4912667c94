package frame

import "time"

// InputAudioRawFrame carries raw PCM audio from a transport's ingress side.
// SampleRate and Channels are immutable for the life of the frame.
type InputAudioRawFrame struct {
	Base
	Audio      []byte
	SampleRate int
	Channels   int
}

// NewInputAudioRawFrame constructs an InputAudioRawFrame.
func NewInputAudioRawFrame(audio []byte, sampleRate, channels int) *InputAudioRawFrame {
	return &InputAudioRawFrame{
		Base:       NewBase("InputAudioRawFrame", Data),
		Audio:      audio,
		SampleRate: sampleRate,
		Channels:   channels,
	}
}

// OutputAudioRawFrame carries raw PCM audio destined for a transport's
// egress side, not produced by TTS (e.g. pre-recorded prompts).
type OutputAudioRawFrame struct {
	Base
	Audio      []byte
	SampleRate int
	Channels   int
}

// NewOutputAudioRawFrame constructs an OutputAudioRawFrame.
func NewOutputAudioRawFrame(audio []byte, sampleRate, channels int) *OutputAudioRawFrame {
	return &OutputAudioRawFrame{
		Base:       NewBase("OutputAudioRawFrame", Data),
		Audio:      audio,
		SampleRate: sampleRate,
		Channels:   channels,
	}
}

// TTSAudioRawFrame carries raw PCM audio produced by the TTS stage.
type TTSAudioRawFrame struct {
	Base
	Audio      []byte
	SampleRate int
	Channels   int
}

// NewTTSAudioRawFrame constructs a TTSAudioRawFrame.
func NewTTSAudioRawFrame(audio []byte, sampleRate, channels int) *TTSAudioRawFrame {
	return &TTSAudioRawFrame{
		Base:       NewBase("TTSAudioRawFrame", Data),
		Audio:      audio,
		SampleRate: sampleRate,
		Channels:   channels,
	}
}

// TextFrame carries plain text, typically destined for TTS unless SkipTTS
// is set.
type TextFrame struct {
	Base
	Text    string
	SkipTTS bool
}

// NewTextFrame constructs a TextFrame.
func NewTextFrame(text string, skipTTS bool) *TextFrame {
	return &TextFrame{
		Base:    NewBase("TextFrame", Data),
		Text:    text,
		SkipTTS: skipTTS,
	}
}

// LLMTextFrame carries a fragment of LLM-generated text. Distinguished from
// TextFrame so a downstream observer can tell user-authored text injection
// apart from model output; the TTS stage treats both identically.
type LLMTextFrame struct {
	Base
	Text    string
	SkipTTS bool
}

// NewLLMTextFrame constructs an LLMTextFrame.
func NewLLMTextFrame(text string, skipTTS bool) *LLMTextFrame {
	return &LLMTextFrame{
		Base:    NewBase("LLMTextFrame", Data),
		Text:    text,
		SkipTTS: skipTTS,
	}
}

// TranscriptionFrame carries a final, authoritative speech-to-text result.
type TranscriptionFrame struct {
	Base
	Text      string
	UserID    string
	Timestamp string // ISO-8601
	Language  *string
	Raw       any
}

// NewTranscriptionFrame constructs a TranscriptionFrame.
func NewTranscriptionFrame(text, userID, timestamp string, language *string, raw any) *TranscriptionFrame {
	return &TranscriptionFrame{
		Base:      NewBase("TranscriptionFrame", Data),
		Text:      text,
		UserID:    userID,
		Timestamp: timestamp,
		Language:  language,
		Raw:       raw,
	}
}

// InterimTranscriptionFrame carries a low-confidence, non-authoritative
// speech-to-text result. Shape matches TranscriptionFrame minus Language.
type InterimTranscriptionFrame struct {
	Base
	Text      string
	UserID    string
	Timestamp string // ISO-8601
	Raw       any
}

// NewInterimTranscriptionFrame constructs an InterimTranscriptionFrame.
func NewInterimTranscriptionFrame(text, userID, timestamp string, raw any) *InterimTranscriptionFrame {
	return &InterimTranscriptionFrame{
		Base:      NewBase("InterimTranscriptionFrame", Data),
		Text:      text,
		UserID:    userID,
		Timestamp: timestamp,
		Raw:       raw,
	}
}

// ImageFrame carries a still image payload.
type ImageFrame struct {
	Base
	Data   []byte
	Format string
	Width  int
	Height int
}

// NewImageFrame constructs an ImageFrame.
func NewImageFrame(data []byte, format string, width, height int) *ImageFrame {
	return &ImageFrame{
		Base:   NewBase("ImageFrame", Data),
		Data:   data,
		Format: format,
		Width:  width,
		Height: height,
	}
}

// UserStartedSpeakingFrame marks a VAD-detected speech onset.
type UserStartedSpeakingFrame struct{ Base }

// NewUserStartedSpeakingFrame constructs a UserStartedSpeakingFrame.
func NewUserStartedSpeakingFrame() *UserStartedSpeakingFrame {
	return &UserStartedSpeakingFrame{Base: NewBase("UserStartedSpeakingFrame", Data)}
}

// UserStoppedSpeakingFrame marks a VAD-detected speech offset.
type UserStoppedSpeakingFrame struct{ Base }

// NewUserStoppedSpeakingFrame constructs a UserStoppedSpeakingFrame.
func NewUserStoppedSpeakingFrame() *UserStoppedSpeakingFrame {
	return &UserStoppedSpeakingFrame{Base: NewBase("UserStoppedSpeakingFrame", Data)}
}

// BotStartedSpeakingFrame marks the output transport beginning audio
// playback.
type BotStartedSpeakingFrame struct{ Base }

// NewBotStartedSpeakingFrame constructs a BotStartedSpeakingFrame.
func NewBotStartedSpeakingFrame() *BotStartedSpeakingFrame {
	return &BotStartedSpeakingFrame{Base: NewBase("BotStartedSpeakingFrame", Data)}
}

// BotStoppedSpeakingFrame marks the output transport finishing audio
// playback.
type BotStoppedSpeakingFrame struct{ Base }

// NewBotStoppedSpeakingFrame constructs a BotStoppedSpeakingFrame.
func NewBotStoppedSpeakingFrame() *BotStoppedSpeakingFrame {
	return &BotStoppedSpeakingFrame{Base: NewBase("BotStoppedSpeakingFrame", Data)}
}

// InboundTransportMessageFrame carries a typed byte blob received from a
// peer's control channel.
type InboundTransportMessageFrame struct {
	Base
	MessageType string
	Payload     []byte
	ReceivedAt  time.Time
}

// NewInboundTransportMessageFrame constructs an InboundTransportMessageFrame.
func NewInboundTransportMessageFrame(messageType string, payload []byte) *InboundTransportMessageFrame {
	return &InboundTransportMessageFrame{
		Base:        NewBase("InboundTransportMessageFrame", Data),
		MessageType: messageType,
		Payload:     payload,
		ReceivedAt:  time.Now(),
	}
}

// OutboundTransportMessageFrame carries a typed byte blob to be sent to a
// peer's control channel. Urgent messages may be prioritized by a transport
// implementation ahead of buffered audio.
type OutboundTransportMessageFrame struct {
	Base
	MessageType string
	Payload     []byte
	Urgent      bool
}

// NewOutboundTransportMessageFrame constructs an OutboundTransportMessageFrame.
func NewOutboundTransportMessageFrame(messageType string, payload []byte, urgent bool) *OutboundTransportMessageFrame {
	return &OutboundTransportMessageFrame{
		Base:        NewBase("OutboundTransportMessageFrame", Data),
		MessageType: messageType,
		Payload:     payload,
		Urgent:      urgent,
	}
}
