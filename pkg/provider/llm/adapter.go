package llm

import (
	"context"
	"encoding/json"

	"github.com/MrWong99/glyphoxa/pkg/frame"
	stagellm "github.com/MrWong99/glyphoxa/pkg/stage/llm"
	"github.com/MrWong99/glyphoxa/pkg/types"
)

// CompleterAdapter wraps any Provider (the teacher's richer streaming
// abstraction) to satisfy stage/llm.Completer, the narrow synchronous
// contract the LLM stage invokes (spec §6.2). This is the seam through
// which every concrete vendor adapter in this tree (openai, anyllm, ...)
// reaches the pipeline substrate without the stage depending on any one
// SDK's shape.
type CompleterAdapter struct {
	Provider Provider
}

// NewCompleterAdapter wraps p.
func NewCompleterAdapter(p Provider) *CompleterAdapter {
	return &CompleterAdapter{Provider: p}
}

var _ stagellm.Completer = (*CompleterAdapter)(nil)

// Complete converts the stage's simple message/tool shape to a
// CompletionRequest, invokes the wrapped Provider, and converts the result
// back to stage/llm.Completion.
func (a *CompleterAdapter) Complete(ctx context.Context, messages []frame.Message, tools []frame.ToolDefinition, choice frame.ToolChoice) (stagellm.Completion, error) {
	req := CompletionRequest{
		Messages: toTypesMessages(messages),
		Tools:    toTypesTools(tools),
	}
	resp, err := a.Provider.Complete(ctx, req)
	if err != nil {
		return stagellm.Completion{}, err
	}
	if resp == nil {
		return stagellm.Completion{}, nil
	}
	out := stagellm.Completion{Text: resp.Content}
	for _, tc := range resp.ToolCalls {
		out.FunctionCalls = append(out.FunctionCalls, stagellm.FunctionCall{
			CallID:    tc.ID,
			Name:      tc.Name,
			Arguments: decodeArguments(tc.Arguments),
		})
	}
	return out, nil
}

func toTypesMessages(messages []frame.Message) []types.Message {
	out := make([]types.Message, len(messages))
	for i, m := range messages {
		out[i] = types.Message{Role: m.Role, Content: m.Content, Name: m.Name}
	}
	return out
}

// decodeArguments parses a tool call's JSON-encoded argument string. A
// malformed payload yields an empty map rather than an error; the LLM, not
// the adapter, is responsible for producing valid JSON, and a dispatcher
// downstream can still detect missing expected keys.
func decodeArguments(raw string) map[string]any {
	if raw == "" {
		return nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil
	}
	return args
}

func toTypesTools(tools []frame.ToolDefinition) []types.ToolDefinition {
	if len(tools) == 0 {
		return nil
	}
	out := make([]types.ToolDefinition, len(tools))
	for i, t := range tools {
		out[i] = types.ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		}
	}
	return out
}
