// Package config provides the configuration schema, loader, and provider
// registry for the frame pipeline substrate.
package config

import "github.com/MrWong99/glyphoxa/internal/mcp"

// LogLevel controls log verbosity for the pipelinectl server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// BudgetTier constrains which MCP tools are offered to the LLM based on latency.
type BudgetTier string

const (
	BudgetTierFast     BudgetTier = "fast"
	BudgetTierStandard BudgetTier = "standard"
	BudgetTierDeep     BudgetTier = "deep"
)

// IsValid reports whether b is a recognised budget tier.
func (b BudgetTier) IsValid() bool {
	switch b {
	case BudgetTierFast, BudgetTierStandard, BudgetTierDeep:
		return true
	}
	return false
}

// MCPBudgetTier converts b to the [mcp.BudgetTier] enum used by the MCP host's
// tool catalogue. An empty or unrecognised value maps to [mcp.BudgetFast].
func (b BudgetTier) MCPBudgetTier() mcp.BudgetTier {
	switch b {
	case BudgetTierStandard:
		return mcp.BudgetStandard
	case BudgetTierDeep:
		return mcp.BudgetDeep
	default:
		return mcp.BudgetFast
	}
}

// Config is the root configuration structure for a pipeline deployment.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	MCP       MCPConfig       `yaml:"mcp"`
}

// ServerConfig holds network and logging settings for pipelinectl.
type ServerConfig struct {
	// ListenAddr is the TCP address the health/metrics server listens on
	// (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// ProvidersConfig declares which provider implementation to use for each
// pipeline stage. Each field selects a named provider registered in the [Registry].
type ProvidersConfig struct {
	LLM ProviderEntry `yaml:"llm"`
	STT ProviderEntry `yaml:"stt"`
	TTS ProviderEntry `yaml:"tts"`
	VAD ProviderEntry `yaml:"vad"`
}

// ProviderEntry is the common configuration block shared by all provider types.
// The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "openai", "deepgram").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g., "gpt-4o", "nova-2").
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by the
	// standard fields above. Values may be strings, numbers, booleans, or nested maps.
	Options map[string]any `yaml:"options"`
}

// PipelineConfig holds the options recognized for one pipeline instance
// (spec §6.4): processor, VAD, audio ingress/egress, audio batcher, and the
// three service stages.
type PipelineConfig struct {
	Processor ProcessorConfig `yaml:"processor"`
	VAD       VADConfig       `yaml:"vad"`
	Input     AudioPortConfig `yaml:"input"`
	Output    AudioPortConfig `yaml:"output"`
	Batcher   BatcherConfig   `yaml:"batcher"`
	LLM       LLMConfig       `yaml:"llm"`
	TTS       TTSConfig       `yaml:"tts"`
	STT       STTConfig       `yaml:"stt"`
}

// ProcessorConfig configures a single processor's identity and instrumentation.
type ProcessorConfig struct {
	ID            string `yaml:"id"`
	Name          string `yaml:"name"`
	EnableMetrics bool   `yaml:"enable_metrics"`
	EnableLogging bool   `yaml:"enable_logging"`
}

// VADConfig configures the RMS-threshold voice activity detector.
type VADConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Threshold   float64 `yaml:"threshold"`
	StartFrames int     `yaml:"start_frames"`
	StopFrames  int     `yaml:"stop_frames"`
}

// AudioPortConfig configures an audio ingress or egress transport.
type AudioPortConfig struct {
	Enabled     bool `yaml:"enabled"`
	SampleRate  int  `yaml:"sample_rate"`
	Channels    int  `yaml:"channels"`
	ChunkSizeMs int  `yaml:"chunk_size_ms"`
}

// BatcherConfig configures the audio batching stage that accumulates raw
// input audio into VAD-bounded utterances with pre-roll.
type BatcherConfig struct {
	SampleRate    int `yaml:"sample_rate"`
	Channels      int `yaml:"channels"`
	PreRollFrames int `yaml:"pre_roll_frames"`
}

// LLMConfig configures the language-model stage.
type LLMConfig struct {
	ModelID          string   `yaml:"model_id"`
	SystemPrompt     string   `yaml:"system_prompt"`
	MaxTokens        int      `yaml:"max_tokens"`
	Temperature      float64  `yaml:"temperature"`
	TopP             float64  `yaml:"top_p"`
	FrequencyPenalty float64  `yaml:"frequency_penalty"`
	PresencePenalty  float64  `yaml:"presence_penalty"`
	SkipTTS          bool     `yaml:"skip_tts"`
	Tools            []string `yaml:"tools"`
	ToolChoice       string   `yaml:"tool_choice"`

	// BudgetTier constrains which MCP tools are offered to the LLM stage.
	BudgetTier BudgetTier `yaml:"budget_tier"`
}

// TTSConfig configures the speech-synthesis stage.
type TTSConfig struct {
	VoiceID    string `yaml:"voice_id"`
	ModelID    string `yaml:"model_id"`
	Language   string `yaml:"language"`
	SampleRate int    `yaml:"sample_rate"`
	Channels   int    `yaml:"channels"`
}

// STTConfig configures the speech-recognition stage.
type STTConfig struct {
	UserID     string `yaml:"user_id"`
	Language   string `yaml:"language"`
	SampleRate int    `yaml:"sample_rate"`
}

// MCPConfig holds the list of Model Context Protocol servers to connect to.
type MCPConfig struct {
	Servers []MCPServerConfig `yaml:"servers"`
}

// MCPServerConfig describes how to connect to a single MCP tool server.
type MCPServerConfig struct {
	// Name is a unique human-readable identifier for this server (used in logs).
	Name string `yaml:"name"`

	// Transport specifies the connection mechanism.
	Transport mcp.Transport `yaml:"transport"`

	// Command is the executable (with optional arguments) launched when
	// Transport is "stdio". Ignored for streamable-http transport.
	Command string `yaml:"command"`

	// URL is the MCP endpoint address used when Transport is "streamable-http"
	// (e.g., "https://mcp.example.com/mcp"). Ignored for stdio transport.
	URL string `yaml:"url"`

	// Auth configures authentication for streamable-http servers.
	// Ignored for stdio transport (use Env for credential injection instead).
	// When nil, requests are sent without authentication.
	Auth *MCPAuthConfig `yaml:"auth"`

	// Env holds additional environment variables injected into the subprocess
	// when Transport is "stdio". May be nil.
	Env map[string]string `yaml:"env"`
}

// MCPAuthConfig configures authentication for HTTP-based MCP servers,
// following the MCP authorization specification (OAuth 2.1 Bearer tokens).
type MCPAuthConfig struct {
	// Token is a static Bearer token sent in the Authorization header of every
	// request. Mutually exclusive with the OAuth fields below.
	Token string `yaml:"token"`

	// OAuth configures OAuth 2.1 client-credentials flow for obtaining tokens
	// dynamically. When set, Token is ignored.
	OAuth *MCPOAuthConfig `yaml:"oauth"`
}

// MCPOAuthConfig configures the OAuth 2.1 client-credentials flow for
// obtaining Bearer tokens from an authorization server.
type MCPOAuthConfig struct {
	// ClientID is the OAuth 2.1 client identifier.
	ClientID string `yaml:"client_id"`

	// ClientSecret is the OAuth 2.1 client secret.
	ClientSecret string `yaml:"client_secret"`

	// TokenURL is the authorization server's token endpoint
	// (e.g., "https://auth.example.com/oauth/token").
	TokenURL string `yaml:"token_url"`

	// Scopes lists the OAuth scopes to request. May be empty.
	Scopes []string `yaml:"scopes"`
}
