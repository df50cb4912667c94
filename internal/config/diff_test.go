package config_test

import (
	"testing"

	"github.com/MrWong99/glyphoxa/internal/config"
)

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{
		Server:   config.ServerConfig{LogLevel: config.LogInfo},
		Pipeline: config.PipelineConfig{LLM: config.LLMConfig{ModelID: "gpt-4o"}},
	}
	d := config.Diff(cfg, cfg)
	if d.LogLevelChanged {
		t.Error("expected LogLevelChanged=false for identical configs")
	}
	if d.LLMChanged || d.TTSChanged || d.STTChanged || d.VADChanged || d.BudgetChanged {
		t.Errorf("expected no pipeline changes for identical configs, got %+v", d)
	}
}

func TestDiff_LogLevelChanged(t *testing.T) {
	t.Parallel()
	old := &config.Config{Server: config.ServerConfig{LogLevel: config.LogInfo}}
	new := &config.Config{Server: config.ServerConfig{LogLevel: config.LogDebug}}

	d := config.Diff(old, new)
	if !d.LogLevelChanged {
		t.Error("expected LogLevelChanged=true")
	}
	if d.NewLogLevel != config.LogDebug {
		t.Errorf("expected NewLogLevel=debug, got %q", d.NewLogLevel)
	}
}

func TestDiff_LLMOptionsChanged(t *testing.T) {
	t.Parallel()
	old := &config.Config{
		Pipeline: config.PipelineConfig{LLM: config.LLMConfig{Temperature: 0.5}},
	}
	new := &config.Config{
		Pipeline: config.PipelineConfig{LLM: config.LLMConfig{Temperature: 0.9}},
	}

	d := config.Diff(old, new)
	if !d.LLMChanged {
		t.Error("expected LLMChanged=true")
	}
	if d.TTSChanged || d.STTChanged || d.VADChanged {
		t.Error("expected only LLMChanged to be set")
	}
}

func TestDiff_LLMToolsChanged(t *testing.T) {
	t.Parallel()
	old := &config.Config{
		Pipeline: config.PipelineConfig{LLM: config.LLMConfig{Tools: []string{"search"}}},
	}
	new := &config.Config{
		Pipeline: config.PipelineConfig{LLM: config.LLMConfig{Tools: []string{"search", "weather"}}},
	}

	d := config.Diff(old, new)
	if !d.LLMChanged {
		t.Error("expected LLMChanged=true when the tool list grows")
	}
}

func TestDiff_BudgetTierChanged(t *testing.T) {
	t.Parallel()
	old := &config.Config{
		Pipeline: config.PipelineConfig{LLM: config.LLMConfig{BudgetTier: config.BudgetTierFast}},
	}
	new := &config.Config{
		Pipeline: config.PipelineConfig{LLM: config.LLMConfig{BudgetTier: config.BudgetTierDeep}},
	}

	d := config.Diff(old, new)
	if !d.BudgetChanged {
		t.Error("expected BudgetChanged=true")
	}
	if d.NewBudgetTier != config.BudgetTierDeep {
		t.Errorf("expected NewBudgetTier=deep, got %q", d.NewBudgetTier)
	}
	// Changing BudgetTier is itself an LLM option change.
	if !d.LLMChanged {
		t.Error("expected LLMChanged=true alongside BudgetChanged")
	}
}

func TestDiff_TTSOptionsChanged(t *testing.T) {
	t.Parallel()
	old := &config.Config{Pipeline: config.PipelineConfig{TTS: config.TTSConfig{VoiceID: "v1"}}}
	new := &config.Config{Pipeline: config.PipelineConfig{TTS: config.TTSConfig{VoiceID: "v2"}}}

	d := config.Diff(old, new)
	if !d.TTSChanged {
		t.Error("expected TTSChanged=true")
	}
}

func TestDiff_STTOptionsChanged(t *testing.T) {
	t.Parallel()
	old := &config.Config{Pipeline: config.PipelineConfig{STT: config.STTConfig{Language: "en-US"}}}
	new := &config.Config{Pipeline: config.PipelineConfig{STT: config.STTConfig{Language: "de-DE"}}}

	d := config.Diff(old, new)
	if !d.STTChanged {
		t.Error("expected STTChanged=true")
	}
}

func TestDiff_VADOptionsChanged(t *testing.T) {
	t.Parallel()
	old := &config.Config{Pipeline: config.PipelineConfig{VAD: config.VADConfig{Threshold: 0.01}}}
	new := &config.Config{Pipeline: config.PipelineConfig{VAD: config.VADConfig{Threshold: 0.05}}}

	d := config.Diff(old, new)
	if !d.VADChanged {
		t.Error("expected VADChanged=true")
	}
}

func TestDiff_MultipleChanges(t *testing.T) {
	t.Parallel()
	old := &config.Config{
		Server:   config.ServerConfig{LogLevel: config.LogInfo},
		Pipeline: config.PipelineConfig{LLM: config.LLMConfig{ModelID: "gpt-4o-mini"}},
	}
	new := &config.Config{
		Server:   config.ServerConfig{LogLevel: config.LogWarn},
		Pipeline: config.PipelineConfig{LLM: config.LLMConfig{ModelID: "gpt-4o"}},
	}

	d := config.Diff(old, new)
	if !d.LogLevelChanged {
		t.Error("expected LogLevelChanged=true")
	}
	if !d.LLMChanged {
		t.Error("expected LLMChanged=true")
	}
}
