// Command pipelinectl wires a frame pipeline from a YAML configuration file
// and runs it standalone, for manual smoke-testing of the substrate without a
// browser or microphone in the loop.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/MrWong99/glyphoxa/internal/config"
	"github.com/MrWong99/glyphoxa/internal/health"
	"github.com/MrWong99/glyphoxa/internal/mcp"
	"github.com/MrWong99/glyphoxa/internal/mcp/mcphost"
	"github.com/MrWong99/glyphoxa/internal/observe"
	"github.com/MrWong99/glyphoxa/internal/resilience"
	"github.com/MrWong99/glyphoxa/pkg/frame"
	"github.com/MrWong99/glyphoxa/pkg/pipeline"
	"github.com/MrWong99/glyphoxa/pkg/processor"
	"github.com/MrWong99/glyphoxa/pkg/provider/llm"
	"github.com/MrWong99/glyphoxa/pkg/provider/llm/anyllm"
	"github.com/MrWong99/glyphoxa/pkg/provider/stt"
	"github.com/MrWong99/glyphoxa/pkg/provider/stt/deepgram"
	"github.com/MrWong99/glyphoxa/pkg/provider/stt/whisper"
	"github.com/MrWong99/glyphoxa/pkg/provider/tts"
	"github.com/MrWong99/glyphoxa/pkg/provider/tts/coqui"
	"github.com/MrWong99/glyphoxa/pkg/provider/tts/elevenlabs"
	stagellm "github.com/MrWong99/glyphoxa/pkg/stage/llm"
	stagestt "github.com/MrWong99/glyphoxa/pkg/stage/stt"
	stagetts "github.com/MrWong99/glyphoxa/pkg/stage/tts"
	"github.com/MrWong99/glyphoxa/pkg/types"
)

func main() {
	var configPath string
	var smokeText string

	root := &cobra.Command{
		Use:   "pipelinectl",
		Short: "Wire and run a frame pipeline from a config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath, smokeText)
		},
	}
	root.Flags().StringVar(&configPath, "config", "config.yaml", "path to the YAML configuration file")
	root.Flags().StringVar(&smokeText, "smoke-text", "", "inject a synthetic transcription frame with this text after startup")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "pipelinectl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, smokeText string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file %q not found", configPath)
		}
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)
	slog.Info("pipelinectl starting", "config", configPath, "listen_addr", cfg.Server.ListenAddr)

	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "pipelinectl"})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(shutdownCtx)
	}()

	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	llmProvider, sttProvider, ttsProvider, err := buildProviders(cfg, reg)
	if err != nil {
		return fmt.Errorf("build providers: %w", err)
	}
	if llmProvider == nil || sttProvider == nil || ttsProvider == nil {
		return errors.New("pipeline requires llm, stt, and tts providers to all be configured")
	}

	mcpHost := mcphost.New()
	defer mcpHost.Close()
	registerMCPServers(ctx, mcpHost, cfg.MCP.Servers)
	if len(cfg.MCP.Servers) > 0 {
		if err := mcpHost.Calibrate(ctx); err != nil {
			slog.Warn("mcp calibration failed", "error", err)
		}
	}
	tools := mcp.ToFrameTools(mcpHost.AvailableTools(cfg.Pipeline.LLM.BudgetTier.MCPBudgetTier()))

	sttStage := stagestt.New("stt", stt.NewTranscriberAdapter(sttProvider), stagestt.StreamConfig{
		SampleRate: cfg.Pipeline.STT.SampleRate,
		Language:   cfg.Pipeline.STT.Language,
	}, stagestt.WithDefaultUserID(cfg.Pipeline.STT.UserID))

	llmOpts := []stagellm.Option{stagellm.WithSkipTTS(cfg.Pipeline.LLM.SkipTTS)}
	if len(tools) > 0 {
		llmOpts = append(llmOpts, stagellm.WithTools(tools))
	}
	llmStage := stagellm.New("llm", llm.NewCompleterAdapter(llmProvider), cfg.Pipeline.LLM.SystemPrompt, llmOpts...)

	ttsStage := stagetts.New("tts", tts.NewSynthesizerAdapter(
		ttsProvider,
		types.VoiceProfile{ID: cfg.Pipeline.TTS.VoiceID},
		cfg.Pipeline.TTS.SampleRate,
		cfg.Pipeline.TTS.Channels,
	))

	var pl *pipeline.Pipeline
	pl = pipeline.New(
		[]*processor.Processor{sttStage.Processor(), llmStage.Processor(), ttsStage.Processor()},
		func(f frame.Frame) { slog.Debug("upstream frame", "type", f.Type()) },
		func(f frame.Frame) { handleDownstream(ctx, pl, mcpHost, f) },
	)

	checkers := health.PipelineCheckers(pl.Stages(), 0)
	healthHandler := health.New(checkers...)

	mux := http.NewServeMux()
	healthHandler.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	srv := &http.Server{Addr: cfg.Server.ListenAddr, Handler: mux}
	if srv.Addr == "" {
		srv.Addr = ":8080"
	}
	go func() {
		slog.Info("health/metrics server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("health server error", "error", err)
		}
	}()

	if err := pl.Start(ctx); err != nil {
		return fmt.Errorf("start pipeline: %w", err)
	}

	if smokeText != "" {
		pl.Queue(frame.NewTranscriptionFrame(smokeText, cfg.Pipeline.STT.UserID, time.Now().UTC().Format(time.RFC3339), nil, nil))
		slog.Info("injected smoke-test transcription", "text", smokeText)
	}

	slog.Info("pipeline running — press Ctrl+C to shut down")
	<-ctx.Done()

	slog.Info("shutdown signal received, stopping…")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	_ = srv.Shutdown(shutdownCtx)
	if err := pl.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("stop pipeline: %w", err)
	}
	slog.Info("goodbye")
	return nil
}

// handleDownstream logs every frame reaching the pipeline's output boundary
// and dispatches any tool call the LLM stage emitted, feeding its result back
// upstream so the stage can continue the generation.
func handleDownstream(ctx context.Context, pl *pipeline.Pipeline, host mcp.Host, f frame.Frame) {
	call, ok := f.(*frame.FunctionCallFrame)
	if !ok {
		slog.Debug("downstream frame", "type", f.Type())
		return
	}

	argsJSON, err := encodeArguments(call.Arguments)
	if err != nil {
		slog.Error("encode tool arguments", "tool", call.Name, "error", err)
		return
	}

	result, err := host.ExecuteTool(ctx, call.Name, argsJSON)
	if err != nil {
		slog.Error("execute tool", "tool", call.Name, "error", err)
		return
	}

	var value any = result.Content
	if result.IsError {
		value = fmt.Sprintf("error: %s", result.Content)
	}
	pl.Push(frame.NewFunctionCallResultFrame(call.CallID, call.Name, value), processor.Upstream)
}

// encodeArguments marshals a function call's argument map to the JSON object
// string [mcp.Host.ExecuteTool] expects. A nil map encodes as "{}".
func encodeArguments(args map[string]any) (string, error) {
	if args == nil {
		args = map[string]any{}
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func registerMCPServers(ctx context.Context, host mcp.Host, servers []config.MCPServerConfig) {
	for _, s := range servers {
		err := host.RegisterServer(ctx, mcp.ServerConfig{
			Name:      s.Name,
			Transport: s.Transport,
			Command:   s.Command,
			URL:       s.URL,
			Env:       s.Env,
		})
		if err != nil {
			slog.Warn("mcp server registration failed — skipping", "server", s.Name, "error", err)
		}
	}
}

// ── Provider wiring ──────────────────────────────────────────────────────────

// registerBuiltinProviders wires the built-in provider factories into reg,
// mirroring every vendor binding shipped in pkg/provider/*.
func registerBuiltinProviders(reg *config.Registry) {
	for _, providerName := range []string{
		"openai", "anthropic", "gemini",
		"deepseek", "mistral", "groq", "llamacpp", "llamafile",
	} {
		reg.RegisterLLM(providerName, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(providerName, entry.Model, opts...)
		})
	}

	reg.RegisterLLM("ollama", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.New("ollama", entry.Model, opts...)
	})

	reg.RegisterSTT("deepgram", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []deepgram.Option
		if entry.Model != "" {
			opts = append(opts, deepgram.WithModel(entry.Model))
		}
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, deepgram.WithLanguage(lang))
		}
		return deepgram.New(entry.APIKey, opts...)
	})

	reg.RegisterSTT("whisper", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []whisper.Option
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, whisper.WithLanguage(lang))
		}
		return whisper.New(entry.BaseURL, opts...)
	})

	reg.RegisterSTT("whisper-native", func(entry config.ProviderEntry) (stt.Provider, error) {
		modelPath := entry.Model
		if modelPath == "" {
			modelPath = optString(entry.Options, "model_path")
		}
		var opts []whisper.NativeOption
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, whisper.WithNativeLanguage(lang))
		}
		return whisper.NewNative(modelPath, opts...)
	})

	reg.RegisterTTS("elevenlabs", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []elevenlabs.Option
		if entry.Model != "" {
			opts = append(opts, elevenlabs.WithModel(entry.Model))
		}
		if outputFmt := optString(entry.Options, "output_format"); outputFmt != "" {
			opts = append(opts, elevenlabs.WithOutputFormat(outputFmt))
		}
		return elevenlabs.New(entry.APIKey, opts...)
	})

	reg.RegisterTTS("coqui", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []coqui.Option
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, coqui.WithLanguage(lang))
		}
		if mode := optString(entry.Options, "api_mode"); mode != "" {
			opts = append(opts, coqui.WithAPIMode(coqui.APIMode(mode)))
		}
		return coqui.New(entry.BaseURL, opts...)
	})
}

// buildProviders instantiates the configured LLM/STT/TTS providers, wrapping
// each in a single-entry [resilience] circuit breaker so a misbehaving
// provider degrades into fast failures instead of hanging the pipeline.
// A provider kind left unconfigured or naming an unregistered implementation
// is skipped, matching the teacher's "not yet implemented" log-and-continue
// pattern; the caller decides whether the resulting nil is fatal.
func buildProviders(cfg *config.Config, reg *config.Registry) (llm.Provider, stt.Provider, tts.Provider, error) {
	var llmP llm.Provider
	if name := cfg.Providers.LLM.Name; name != "" {
		p, err := reg.CreateLLM(cfg.Providers.LLM)
		switch {
		case errors.Is(err, config.ErrProviderNotRegistered):
			slog.Warn("llm provider not registered — skipping", "name", name)
		case err != nil:
			return nil, nil, nil, fmt.Errorf("create llm provider %q: %w", name, err)
		default:
			llmP = resilience.NewLLMFallback(p, name, resilience.FallbackConfig{})
			slog.Info("provider created", "kind", "llm", "name", name)
		}
	}

	var sttP stt.Provider
	if name := cfg.Providers.STT.Name; name != "" {
		p, err := reg.CreateSTT(cfg.Providers.STT)
		switch {
		case errors.Is(err, config.ErrProviderNotRegistered):
			slog.Warn("stt provider not registered — skipping", "name", name)
		case err != nil:
			return nil, nil, nil, fmt.Errorf("create stt provider %q: %w", name, err)
		default:
			sttP = resilience.NewSTTFallback(p, name, resilience.FallbackConfig{})
			slog.Info("provider created", "kind", "stt", "name", name)
		}
	}

	var ttsP tts.Provider
	if name := cfg.Providers.TTS.Name; name != "" {
		p, err := reg.CreateTTS(cfg.Providers.TTS)
		switch {
		case errors.Is(err, config.ErrProviderNotRegistered):
			slog.Warn("tts provider not registered — skipping", "name", name)
		case err != nil:
			return nil, nil, nil, fmt.Errorf("create tts provider %q: %w", name, err)
		default:
			ttsP = resilience.NewTTSFallback(p, name, resilience.FallbackConfig{})
			slog.Info("provider created", "kind", "tts", "name", name)
		}
	}

	return llmP, sttP, ttsP, nil
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// optString extracts a string value from a provider Options map[string]any.
// Returns "" if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	v, ok := opts[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
