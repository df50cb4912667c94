// Package llm implements the generic language-model processor stage
// (spec §4.D.2): conversation context, tool configuration, and the
// generate cycle that turns context into a completion and dispatches its
// side effects as frames.
package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/MrWong99/glyphoxa/pkg/frame"
	"github.com/MrWong99/glyphoxa/pkg/processor"
)

// Completion is the result of a Completer call.
type Completion struct {
	Text          string
	FunctionCalls []FunctionCall
}

// FunctionCall is a single tool/function invocation the model requested.
type FunctionCall struct {
	CallID    string
	Name      string
	Arguments map[string]any
}

// Completer is the narrow contract a concrete LLM backend satisfies
// (spec §6.2: "LLM / complete / ordered messages / {text, function_calls?,
// usage?}"). Adapters in pkg/provider/llm wrap a richer streaming SDK client
// to implement this. Tools and choice carry the stage's current tool
// configuration (spec §4.D "current tool set... current tool-choice
// policy"); providers that do not support tool calling may ignore them.
type Completer interface {
	Complete(ctx context.Context, messages []frame.Message, tools []frame.ToolDefinition, choice frame.ToolChoice) (Completion, error)
}

// Stage is a processor implementing the generic LLM service contract.
type Stage struct {
	proc *processor.Processor

	completer Completer
	context   *Context

	tools      []frame.ToolDefinition
	toolChoice frame.ToolChoice
	skipTTS    bool
}

// Option configures a Stage at construction.
type Option func(*Stage)

// WithTools sets the initial tool set offered to the model.
func WithTools(tools []frame.ToolDefinition) Option {
	return func(s *Stage) { s.tools = tools }
}

// WithSkipTTS sets the stage's initial skip_tts default.
func WithSkipTTS(skip bool) Option {
	return func(s *Stage) { s.skipTTS = skip }
}

// New constructs an LLM Stage backed by completer with the given system
// prompt (may be empty) and processor name.
func New(name string, completer Completer, systemPrompt string, opts ...Option) *Stage {
	s := &Stage{
		completer:  completer,
		context:    NewContext(systemPrompt),
		toolChoice: frame.ToolChoice{Mode: "auto"},
	}
	for _, o := range opts {
		o(s)
	}
	s.proc = processor.New(name, s.handle)
	return s
}

// Processor returns the underlying processor for linking into a pipeline.
func (s *Stage) Processor() *processor.Processor { return s.proc }

// Context returns the stage's live conversation context. Exposed for
// inspection and tests; callers must not mutate it concurrently with a
// running stage.
func (s *Stage) Context() *Context { return s.context }

func (s *Stage) handle(ctx context.Context, p *processor.Processor, f frame.Frame, dir processor.Direction) error {
	switch v := f.(type) {
	case *frame.TranscriptionFrame:
		p.Push(f, dir)
		text := strings.TrimSpace(v.Text)
		if text == "" {
			return nil
		}
		s.context.Append(frame.Message{Role: "user", Content: v.Text})
		return s.generate(ctx, p)

	case *frame.LLMMessagesAppendFrame:
		for _, m := range v.Messages {
			s.context.Append(m)
		}
		if v.Run {
			return s.generate(ctx, p)
		}
		return nil

	case *frame.LLMMessagesReplaceFrame:
		s.context.Replace(v.Messages)
		if v.Run {
			return s.generate(ctx, p)
		}
		return nil

	case *frame.LLMRunFrame:
		return s.generate(ctx, p)

	case *frame.LLMSetToolsFrame:
		s.tools = v.Tools
		return nil

	case *frame.LLMSetToolChoiceFrame:
		s.toolChoice = v.Choice
		return nil

	case *frame.LLMConfigureOutputFrame:
		s.skipTTS = v.SkipTTS
		return nil

	case *frame.FunctionCallResultFrame:
		value, err := json.Marshal(v.Value)
		if err != nil {
			value = []byte(`"` + err.Error() + `"`)
		}
		s.context.Append(frame.Message{Role: "function", Name: v.CallID, Content: string(value)})
		return s.generate(ctx, p)

	default:
		p.Push(f, dir)
		return nil
	}
}

// generate runs one complete LLM generation cycle (spec §4.D.2 "Generate").
// The start/end control frame pair is emitted symmetrically even if the
// completer errors, via a deferred push.
func (s *Stage) generate(ctx context.Context, p *processor.Processor) error {
	p.Push(frame.NewLLMResponseStartFrame(s.skipTTS), processor.Downstream)
	defer p.Push(frame.NewLLMResponseEndFrame(), processor.Downstream)

	messages := s.context.Messages()
	completion, err := s.completer.Complete(ctx, messages, s.tools, s.toolChoice)
	if err != nil {
		p.PushError(err.Error(), false)
		return nil
	}

	// Function calls are emitted before the text frame so a downstream
	// dispatcher can start tool work immediately (spec §4.D.2 tie-break).
	for _, fc := range completion.FunctionCalls {
		p.Push(frame.NewFunctionCallFrame(fc.CallID, fc.Name, fc.Arguments), processor.Downstream)
	}

	if completion.Text != "" {
		s.context.Append(frame.Message{Role: "assistant", Content: completion.Text})
		p.Push(frame.NewLLMTextFrame(completion.Text, s.skipTTS), processor.Downstream)
	}

	return nil
}
