package config

import "slices"

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked; transport and
// processor topology changes require a restart and are not tracked here.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	LLMChanged    bool // pipeline.llm options changed
	TTSChanged    bool // pipeline.tts options changed
	STTChanged    bool // pipeline.stt options changed
	VADChanged    bool // pipeline.vad options changed
	BudgetChanged bool // pipeline.llm.budget_tier changed specifically
	NewBudgetTier BudgetTier
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if !equalLLM(old.Pipeline.LLM, new.Pipeline.LLM) {
		d.LLMChanged = true
	}
	if old.Pipeline.LLM.BudgetTier != new.Pipeline.LLM.BudgetTier {
		d.BudgetChanged = true
		d.NewBudgetTier = new.Pipeline.LLM.BudgetTier
	}
	if old.Pipeline.TTS != new.Pipeline.TTS {
		d.TTSChanged = true
	}
	if old.Pipeline.STT != new.Pipeline.STT {
		d.STTChanged = true
	}
	if old.Pipeline.VAD != new.Pipeline.VAD {
		d.VADChanged = true
	}

	return d
}

// equalLLM compares two [LLMConfig] values field by field since Tools is a
// slice and cannot be compared with ==.
func equalLLM(a, b LLMConfig) bool {
	return a.ModelID == b.ModelID &&
		a.SystemPrompt == b.SystemPrompt &&
		a.MaxTokens == b.MaxTokens &&
		a.Temperature == b.Temperature &&
		a.TopP == b.TopP &&
		a.FrequencyPenalty == b.FrequencyPenalty &&
		a.PresencePenalty == b.PresencePenalty &&
		a.SkipTTS == b.SkipTTS &&
		a.ToolChoice == b.ToolChoice &&
		a.BudgetTier == b.BudgetTier &&
		slices.Equal(a.Tools, b.Tools)
}
