package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/MrWong99/glyphoxa/internal/mcp"
	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm": {"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
	"stt": {"deepgram", "whisper", "whisper-native"},
	"tts": {"elevenlabs", "coqui"},
	"vad": {"silero", "rms"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("llm", cfg.Providers.LLM.Name)
	validateProviderName("stt", cfg.Providers.STT.Name)
	validateProviderName("tts", cfg.Providers.TTS.Name)
	validateProviderName("vad", cfg.Providers.VAD.Name)

	if cfg.Providers.LLM.Name == "" {
		slog.Warn("no providers.llm configured; the LLM stage will not be able to generate completions")
	}

	errs = append(errs, validatePipeline(&cfg.Pipeline)...)

	// MCP servers
	for i, srv := range cfg.MCP.Servers {
		prefix := fmt.Sprintf("mcp.servers[%d]", i)
		if srv.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}
		if srv.Transport != "" && !srv.Transport.IsValid() {
			errs = append(errs, fmt.Errorf("%s.transport %q is invalid; valid values: stdio, streamable-http", prefix, srv.Transport))
		}
		if srv.Transport == mcp.TransportStdio && srv.Command == "" {
			errs = append(errs, fmt.Errorf("%s.command is required when transport is stdio", prefix))
		}
		if srv.Transport == mcp.TransportStreamableHTTP && srv.URL == "" {
			errs = append(errs, fmt.Errorf("%s.url is required when transport is streamable-http", prefix))
		}
	}

	return errors.Join(errs...)
}

// validatePipeline checks the processor, VAD, audio port, batcher, and stage
// options recognised by spec §6.4.
func validatePipeline(p *PipelineConfig) []error {
	var errs []error

	if p.Processor.ID == "" && p.Processor != (ProcessorConfig{}) {
		errs = append(errs, errors.New("pipeline.processor.id is required"))
	}

	if p.VAD.Enabled {
		if p.VAD.Threshold < 0 || p.VAD.Threshold > 1 {
			errs = append(errs, fmt.Errorf("pipeline.vad.threshold %.3f is out of range [0, 1]", p.VAD.Threshold))
		}
		if p.VAD.StartFrames <= 0 {
			errs = append(errs, fmt.Errorf("pipeline.vad.start_frames %d must be positive", p.VAD.StartFrames))
		}
		if p.VAD.StopFrames <= 0 {
			errs = append(errs, fmt.Errorf("pipeline.vad.stop_frames %d must be positive", p.VAD.StopFrames))
		}
	}

	errs = append(errs, validateAudioPort("pipeline.input", p.Input)...)
	errs = append(errs, validateAudioPort("pipeline.output", p.Output)...)

	if p.Batcher.SampleRate < 0 {
		errs = append(errs, fmt.Errorf("pipeline.batcher.sample_rate %d must not be negative", p.Batcher.SampleRate))
	}
	if p.Batcher.Channels < 0 {
		errs = append(errs, fmt.Errorf("pipeline.batcher.channels %d must not be negative", p.Batcher.Channels))
	}
	if p.Batcher.PreRollFrames < 0 {
		errs = append(errs, fmt.Errorf("pipeline.batcher.pre_roll_frames %d must not be negative", p.Batcher.PreRollFrames))
	}

	if p.LLM.Temperature < 0 || p.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("pipeline.llm.temperature %.2f is out of range [0, 2]", p.LLM.Temperature))
	}
	if p.LLM.TopP != 0 && (p.LLM.TopP < 0 || p.LLM.TopP > 1) {
		errs = append(errs, fmt.Errorf("pipeline.llm.top_p %.2f is out of range [0, 1]", p.LLM.TopP))
	}
	if p.LLM.BudgetTier != "" && !p.LLM.BudgetTier.IsValid() {
		errs = append(errs, fmt.Errorf("pipeline.llm.budget_tier %q is invalid; valid values: fast, standard, deep", p.LLM.BudgetTier))
	}

	return errs
}

// validateAudioPort checks an ingress or egress [AudioPortConfig], skipping
// the checks entirely when the port is disabled.
func validateAudioPort(prefix string, c AudioPortConfig) []error {
	if !c.Enabled {
		return nil
	}
	var errs []error
	if c.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("%s.sample_rate %d must be positive", prefix, c.SampleRate))
	}
	if c.Channels != 1 && c.Channels != 2 {
		errs = append(errs, fmt.Errorf("%s.channels %d must be 1 or 2", prefix, c.Channels))
	}
	if c.ChunkSizeMs <= 0 {
		errs = append(errs, fmt.Errorf("%s.chunk_size_ms %d must be positive", prefix, c.ChunkSizeMs))
	}
	return errs
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
