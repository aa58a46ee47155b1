package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"voice-relay/config"
	"voice-relay/internal/application"
	"voice-relay/internal/infra/anthropic"
	"voice-relay/internal/infra/gemini"
	"voice-relay/internal/infra/httpapi"
	"voice-relay/internal/infra/metrics"
	"voice-relay/internal/infra/openai"
	"voice-relay/internal/infra/pushover"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var (
		stt       application.SpeechToText
		extractor application.StructuredExtractor
	)
	if cfg.OpenAI.APIKey != "" {
		stt = openai.NewWhisperClient(openAIConfig(cfg))
		extractor = createExtractor(cfg, logger)
	} else {
		logger.Warn("openai.api_key not set, voice endpoints will return 500")
	}

	opts := httpapi.Options{
		Addr:           cfg.Server.Addr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		BodyLimit:      cfg.BodyLimitBytes(),
		RateLimit:      cfg.RateLimitPerMinute(),
		Development:    cfg.Server.Development,
	}

	var pipelineMetrics application.Metrics = application.NoopMetrics{}
	if cfg.MetricsEnabled() {
		collector := metrics.New()
		pipelineMetrics = collector
		opts.Observer = collector
		opts.MetricsHandler = collector.Handler()
		opts.MetricsPath = cfg.Metrics.Path
	}

	relay := application.NewRelay(stt, extractor, pipelineMetrics, logger)
	if cfg.Pushover.Enabled() {
		relay.WithNotifier(pushover.NewClient(cfg.Pushover.Token, cfg.Pushover.UserKey))
	}
	server := httpapi.NewServer(relay, opts, logger)

	if err := server.Start(ctx); err != nil {
		logger.Error("starting server", "error", err)
		os.Exit(1)
	}

	logger.Info("voice relay ready",
		"addr", cfg.Server.Addr,
		"extractor", cfg.Extractor.Provider,
		"metrics", cfg.MetricsEnabled(),
		"alerts", cfg.Pushover.Enabled(),
	)

	<-ctx.Done()
	logger.Info("shutting down")

	if err := server.Stop(); err != nil {
		logger.Error("stopping server", "error", err)
		os.Exit(1)
	}
}

func openAIConfig(cfg *config.Config) openai.Config {
	return openai.Config{
		APIKey:             cfg.OpenAI.APIKey,
		BaseURL:            cfg.OpenAI.BaseURL,
		Language:           cfg.OpenAI.Language,
		TranscriptionModel: cfg.OpenAI.TranscriptionModel,
		ChatModel:          cfg.OpenAI.ChatModel,
		UserName:           cfg.Extractor.UserName,
		Timeout:            cfg.RequestTimeout(),
	}
}

func createExtractor(cfg *config.Config, logger *slog.Logger) application.StructuredExtractor {
	switch cfg.Extractor.Provider {
	case "anthropic":
		return anthropic.NewClaudeClient(cfg.Anthropic.APIKey, cfg.Anthropic.Model, cfg.Extractor.UserName)
	case "gemini":
		return gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Extractor.UserName)
	case "openai":
		return openai.NewChatExtractor(openAIConfig(cfg), nil)
	default:
		logger.Warn("unknown extractor provider, using openai", "provider", cfg.Extractor.Provider)
		return openai.NewChatExtractor(openAIConfig(cfg), nil)
	}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
