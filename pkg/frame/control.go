package frame

// EndFrame marks the end of a content stream. It is forwarded downstream
// without invoking the user handler.
type EndFrame struct{ Base }

// NewEndFrame constructs an EndFrame.
func NewEndFrame() *EndFrame {
	return &EndFrame{Base: NewBase("EndFrame", Control)}
}

// TTSStartedFrame marks the beginning of a text-to-speech utterance.
type TTSStartedFrame struct{ Base }

// NewTTSStartedFrame constructs a TTSStartedFrame.
func NewTTSStartedFrame() *TTSStartedFrame {
	return &TTSStartedFrame{Base: NewBase("TTSStartedFrame", Control)}
}

// TTSStoppedFrame marks the end of a text-to-speech utterance. Always
// emitted in a pair with a preceding TTSStartedFrame, even on synthesis
// error.
type TTSStoppedFrame struct{ Base }

// NewTTSStoppedFrame constructs a TTSStoppedFrame.
func NewTTSStoppedFrame() *TTSStoppedFrame {
	return &TTSStoppedFrame{Base: NewBase("TTSStoppedFrame", Control)}
}

// LLMResponseStartFrame marks the beginning of an LLM generation cycle.
type LLMResponseStartFrame struct {
	Base
	SkipTTS bool
}

// NewLLMResponseStartFrame constructs an LLMResponseStartFrame.
func NewLLMResponseStartFrame(skipTTS bool) *LLMResponseStartFrame {
	return &LLMResponseStartFrame{
		Base:    NewBase("LLMResponseStartFrame", Control),
		SkipTTS: skipTTS,
	}
}

// LLMResponseEndFrame marks the end of an LLM generation cycle. Always
// emitted in a pair with a preceding LLMResponseStartFrame, even on
// generation error.
type LLMResponseEndFrame struct{ Base }

// NewLLMResponseEndFrame constructs an LLMResponseEndFrame.
func NewLLMResponseEndFrame() *LLMResponseEndFrame {
	return &LLMResponseEndFrame{Base: NewBase("LLMResponseEndFrame", Control)}
}

// FunctionCallFrame requests that a downstream dispatcher execute a
// function/tool call the LLM requested.
type FunctionCallFrame struct {
	Base
	CallID    string
	Name      string
	Arguments map[string]any
}

// NewFunctionCallFrame constructs a FunctionCallFrame.
func NewFunctionCallFrame(callID, name string, arguments map[string]any) *FunctionCallFrame {
	return &FunctionCallFrame{
		Base:      NewBase("FunctionCallFrame", Control),
		CallID:    callID,
		Name:      name,
		Arguments: arguments,
	}
}

// FunctionCallResultFrame carries the result of a previously requested
// function call back into the LLM stage's conversation context.
type FunctionCallResultFrame struct {
	Base
	CallID string
	Name   string
	Value  any
}

// NewFunctionCallResultFrame constructs a FunctionCallResultFrame.
func NewFunctionCallResultFrame(callID, name string, value any) *FunctionCallResultFrame {
	return &FunctionCallResultFrame{
		Base:   NewBase("FunctionCallResultFrame", Control),
		CallID: callID,
		Name:   name,
		Value:  value,
	}
}

// ToolChoice selects how the LLM stage should choose among available tools.
type ToolChoice struct {
	// Mode is one of "auto", "none", "required", or "function".
	Mode string
	// Function names a specific function when Mode == "function".
	Function string
}

// LLMSetToolsFrame replaces the tool set offered to the LLM on the next
// generate cycle.
type LLMSetToolsFrame struct {
	Base
	Tools []ToolDefinition
}

// NewLLMSetToolsFrame constructs an LLMSetToolsFrame.
func NewLLMSetToolsFrame(tools []ToolDefinition) *LLMSetToolsFrame {
	return &LLMSetToolsFrame{Base: NewBase("LLMSetToolsFrame", Control), Tools: tools}
}

// LLMSetToolChoiceFrame updates the tool-choice policy.
type LLMSetToolChoiceFrame struct {
	Base
	Choice ToolChoice
}

// NewLLMSetToolChoiceFrame constructs an LLMSetToolChoiceFrame.
func NewLLMSetToolChoiceFrame(choice ToolChoice) *LLMSetToolChoiceFrame {
	return &LLMSetToolChoiceFrame{Base: NewBase("LLMSetToolChoiceFrame", Control), Choice: choice}
}

// LLMConfigureOutputFrame updates the LLM stage's skip_tts default.
type LLMConfigureOutputFrame struct {
	Base
	SkipTTS bool
}

// NewLLMConfigureOutputFrame constructs an LLMConfigureOutputFrame.
func NewLLMConfigureOutputFrame(skipTTS bool) *LLMConfigureOutputFrame {
	return &LLMConfigureOutputFrame{Base: NewBase("LLMConfigureOutputFrame", Control), SkipTTS: skipTTS}
}

// Message is a single entry in an LLM conversation context. See spec §3.4.
type Message struct {
	// Role is one of "system", "user", "assistant", "function".
	Role string
	// Content is the message text.
	Content string
	// Name carries the function call identifier when Role == "function".
	Name string
}

// LLMMessagesAppendFrame appends messages to the LLM stage's conversation
// context. If Run is true, a generate cycle follows immediately.
type LLMMessagesAppendFrame struct {
	Base
	Messages []Message
	Run      bool
}

// NewLLMMessagesAppendFrame constructs an LLMMessagesAppendFrame.
func NewLLMMessagesAppendFrame(messages []Message, run bool) *LLMMessagesAppendFrame {
	return &LLMMessagesAppendFrame{
		Base:     NewBase("LLMMessagesAppendFrame", Control),
		Messages: messages,
		Run:      run,
	}
}

// LLMMessagesReplaceFrame replaces the LLM stage's entire conversation
// context. If Run is true, a generate cycle follows immediately.
type LLMMessagesReplaceFrame struct {
	Base
	Messages []Message
	Run      bool
}

// NewLLMMessagesReplaceFrame constructs an LLMMessagesReplaceFrame.
func NewLLMMessagesReplaceFrame(messages []Message, run bool) *LLMMessagesReplaceFrame {
	return &LLMMessagesReplaceFrame{
		Base:     NewBase("LLMMessagesReplaceFrame", Control),
		Messages: messages,
		Run:      run,
	}
}

// LLMRunFrame triggers an immediate generate cycle over the current context.
type LLMRunFrame struct{ Base }

// NewLLMRunFrame constructs an LLMRunFrame.
func NewLLMRunFrame() *LLMRunFrame {
	return &LLMRunFrame{Base: NewBase("LLMRunFrame", Control)}
}

// ToolDefinition describes a tool/function offered to the LLM.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}
