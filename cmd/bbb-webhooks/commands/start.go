package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iamdhrv/bigbluebutton/internal/logger"
	"github.com/iamdhrv/bigbluebutton/internal/telemetry"
	"github.com/iamdhrv/bigbluebutton/pkg/api"
	"github.com/iamdhrv/bigbluebutton/pkg/config"
	"github.com/iamdhrv/bigbluebutton/pkg/mapping"
	"github.com/iamdhrv/bigbluebutton/pkg/metrics"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the bbb-webhooks service",
	Long: `Start the bbb-webhooks user mapping service.

On startup the service opens the configured persistent store, rebuilds the
in-memory mapping index from it, and then serves the operational HTTP API
until interrupted.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/bbb-webhooks/config.yaml.

Examples:
  # Start with default config location
  bbb-webhooks start

  # Start with custom config file
  bbb-webhooks start --config /etc/bbb-webhooks/config.yaml

  # Start with environment variable overrides
  BBB_WEBHOOKS_LOGGING_LEVEL=DEBUG bbb-webhooks start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	// Initialize the structured logger
	if err := InitLogger(cfg); err != nil {
		return err
	}

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry (if enabled)
	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "bbb-webhooks",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	// Initialize Pyroscope profiling (if enabled)
	profilingCfg := telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "bbb-webhooks",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	}
	profilingShutdown, err := telemetry.InitProfiling(profilingCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	logger.Info("Configuration loaded",
		"backend", cfg.Store.Backend,
		"key_prefix", cfg.Store.KeyPrefix,
		"log_level", cfg.Logging.Level)

	// Initialize metrics FIRST so the mapping metrics are registered when
	// the registry is created
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		logger.Info("Metrics enabled", "port", cfg.Metrics.Port)
	} else {
		logger.Info("Metrics collection disabled")
	}

	// Open the persistent store
	kv, keys, err := config.OpenStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := kv.Close(); err != nil {
			logger.Error("store close error", "error", err)
		}
	}()
	logger.Info("Store opened", "backend", cfg.Store.Backend)

	// Build the registry and rebuild the in-memory index from the store.
	// Resync must complete before the API starts answering lookups.
	registry := mapping.NewRegistry(kv, keys, metrics.NewMappingMetrics())
	if err := registry.Resync(ctx); err != nil {
		return fmt.Errorf("failed to resync mappings: %w", err)
	}
	logger.Info("Mapping index rebuilt", "mappings", len(registry.ListAll()))

	// Start the API server (and metrics server if enabled) in background
	serverDone := make(chan error, 1)
	apiServer := api.NewServer(cfg.Server, registry)
	go func() {
		serverDone <- apiServer.Start(ctx)
	}()

	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Port); err != nil {
				logger.Error("metrics server error", "error", err)
			}
		}()
	}

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Service is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()

		if err := <-serverDone; err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		logger.Info("Service stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("Service stopped")
	}

	return nil
}
