package mcp

import (
	"github.com/MrWong99/glyphoxa/pkg/frame"
	"github.com/MrWong99/glyphoxa/pkg/provider/llm"
)

// ToFrameTools converts a [Host.AvailableTools] catalogue into the
// []frame.ToolDefinition shape the LLM stage (pkg/stage/llm.WithTools)
// expects. Both types carry the same three fields under different names, so
// this is a pure field copy with no loss of information.
func ToFrameTools(tools []llm.ToolDefinition) []frame.ToolDefinition {
	if len(tools) == 0 {
		return nil
	}
	out := make([]frame.ToolDefinition, len(tools))
	for i, t := range tools {
		out[i] = frame.ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		}
	}
	return out
}
