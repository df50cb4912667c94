package llm

import "github.com/MrWong99/glyphoxa/pkg/frame"

// Context is the ordered sequence of messages an LLM stage sends to its
// adapter. It is owned exclusively by the stage for the processor's
// lifetime (spec §3.4).
type Context struct {
	systemPrompt string
	messages     []frame.Message
}

// NewContext constructs a Context. If systemPrompt is non-empty it becomes
// the first message in the context.
func NewContext(systemPrompt string) *Context {
	c := &Context{systemPrompt: systemPrompt}
	if systemPrompt != "" {
		c.messages = append(c.messages, frame.Message{Role: "system", Content: systemPrompt})
	}
	return c
}

// Messages returns a copy of the current message list.
func (c *Context) Messages() []frame.Message {
	out := make([]frame.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Append adds a message to the end of the context.
func (c *Context) Append(m frame.Message) {
	c.messages = append(c.messages, m)
}

// Replace swaps the entire context for messages. If none of messages carries
// role "system" and a system prompt was configured, the system prompt is
// re-prepended (spec §3.4, §4.D.2).
func (c *Context) Replace(messages []frame.Message) {
	hasSystem := false
	for _, m := range messages {
		if m.Role == "system" {
			hasSystem = true
			break
		}
	}
	next := make([]frame.Message, 0, len(messages)+1)
	if !hasSystem && c.systemPrompt != "" {
		next = append(next, frame.Message{Role: "system", Content: c.systemPrompt})
	}
	next = append(next, messages...)
	c.messages = next
}

// SystemPrompt returns the configured system prompt, or "" if none.
func (c *Context) SystemPrompt() string { return c.systemPrompt }
