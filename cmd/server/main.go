package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/scribeworks/meeting-audio-service/internal/config"
	"github.com/scribeworks/meeting-audio-service/internal/metrics"
	"github.com/scribeworks/meeting-audio-service/internal/platform"
	"github.com/scribeworks/meeting-audio-service/internal/server"
	"github.com/scribeworks/meeting-audio-service/internal/session"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "meeting-audio-service"
	serviceVersion    = "1.0.0"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load environment overrides from .env if present. Missing file is fine.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger based on configuration
	logger := initLogger(cfg.Logging)

	// Log service startup
	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	// Log configuration summary (without sensitive data)
	logger.Info("Configuration loaded",
		slog.String("data_dir", cfg.Storage.DataDir),
		slog.Duration("autosave_interval", cfg.Storage.GetAutosaveInterval()),
		slog.Int("sample_rate", cfg.Audio.SampleRate),
		slog.Int("segment_max_bytes", cfg.Audio.SegmentMaxBytes),
		slog.Float64("vad_threshold", float64(cfg.VAD.Threshold)),
		slog.Bool("transcription_enabled", cfg.Transcription.Enabled),
		slog.String("transcription_endpoint", cfg.Transcription.Endpoint),
		slog.String("platform_url", cfg.Platform.URL),
		slog.String("platform_codec", cfg.Platform.Codec),
		slog.String("log_level", cfg.Logging.Level),
	)

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Prometheus metrics
	appMetrics := metrics.NewMetrics()
	logger.Info("Prometheus metrics initialized")

	// Sessions connect to the platform over websocket when a URL is
	// configured; without one, audio is pushed through the API only.
	var factory session.SourceFactory
	if cfg.Platform.URL != "" {
		factory = func(handlers platform.Handlers) platform.AudioFrameSource {
			return platform.NewWSSource(cfg.Platform, cfg.Audio.SampleRate, handlers, logger)
		}
	}

	// Initialize session registry
	registry := session.NewRegistry(cfg, factory, appMetrics, logger)
	logger.Info("Session registry initialized")

	// Initialize HTTP API server (if enabled)
	var httpServer *server.HTTPServer
	if cfg.HTTP.Enabled {
		httpServer = server.NewHTTPServer(cfg.HTTP, cfg, registry, appMetrics, logger)
		logger.Info("HTTP API server initialized",
			slog.String("address", fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port)),
		)

		if err := httpServer.Start(); err != nil {
			logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully, waiting for signals...")

	// Wait for shutdown signal
	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down")
	}

	logger.Info("Starting graceful shutdown...")

	// Stop HTTP server first (stop accepting new requests)
	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Stop(shutdownCtx); err != nil {
			logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
		}
	}

	// End live sessions so recordings and final snapshots are written
	endCtx, endCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer endCancel()
	registry.EndAll(endCtx)

	logger.Info("Service stopped")
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	// Parse log level
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo // default fallback
	}

	// Configure handler options
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug, // Add source info for debug level
	}

	// Determine output destination
	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		// Assume it's a file path
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	// Create handler based on format
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	case "text", "":
		handler = slog.NewTextHandler(output, opts)
	default:
		// Default to text format
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
