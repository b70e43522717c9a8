// Package main is the entry point for the sandstorm orchestrator — the
// control-plane process that registers agents, routes commands into sandbox
// VMs, and exposes the REST API for sandbox and command lifecycle.
//
// Startup sequence:
//  1. Parse CLI flags / environment variables
//  2. Build logger
//  3. Build the CloudProvider
//  4. Wire registries: agents, dispatcher, processes, sandboxes
//  5. Start the sweeper, reaper, gRPC server, and HTTP server
//  6. Block until SIGINT/SIGTERM, then graceful shutdown
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/habbes/sandstorm/internal/agentmanager"
	"github.com/habbes/sandstorm/internal/api"
	"github.com/habbes/sandstorm/internal/dispatch"
	"github.com/habbes/sandstorm/internal/events"
	grpcserver "github.com/habbes/sandstorm/internal/grpc"
	"github.com/habbes/sandstorm/internal/process"
	dockerprovider "github.com/habbes/sandstorm/internal/provider/docker"
	"github.com/habbes/sandstorm/internal/sandbox"
	"github.com/habbes/sandstorm/internal/types"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type config struct {
	httpAddr          string
	grpcAddr          string
	externalEndpoint  string
	provider          string
	dockerHost        string
	defaultImage      string
	heartbeatInterval time.Duration
	staleThreshold    time.Duration
	commandTimeout    time.Duration
	logLevel          string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := &config{}

	root := &cobra.Command{
		Use:   "sandstorm-orchestrator",
		Short: "Sandstorm orchestrator — control plane for sandbox VMs",
		Long: `The sandstorm orchestrator coordinates a fleet of short-lived sandbox VMs.
It registers the agents running inside them, routes command execution
requests to the right agent over a persistent stream, and exposes a REST
API for sandbox and command lifecycle.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfg)
		},
	}

	root.AddCommand(newVersionCmd())

	root.PersistentFlags().StringVar(&cfg.httpAddr, "http-addr", envOrDefault("SANDSTORM_HTTP_ADDR", "0.0.0.0:5000"), "REST API listen address")
	root.PersistentFlags().StringVar(&cfg.grpcAddr, "grpc-addr", envOrDefault("SANDSTORM_GRPC_ADDR", "0.0.0.0:5001"), "gRPC listen address for agents")
	root.PersistentFlags().StringVar(&cfg.externalEndpoint, "external-endpoint", envOrDefault("SANDSTORM_EXTERNAL_ENDPOINT", "127.0.0.1:5001"), "Orchestrator endpoint baked into VMs so agents can phone home")
	root.PersistentFlags().StringVar(&cfg.provider, "provider", envOrDefault("SANDSTORM_PROVIDER", "docker"), "CloudProvider implementation (docker)")
	root.PersistentFlags().StringVar(&cfg.dockerHost, "docker-host", envOrDefault("SANDSTORM_DOCKER_HOST", ""), "Docker daemon address for the docker provider (empty = environment default)")
	root.PersistentFlags().StringVar(&cfg.defaultImage, "default-image", envOrDefault("SANDSTORM_DEFAULT_IMAGE", "ghcr.io/habbes/sandstorm-agent:latest"), "Default sandbox image for the docker provider")
	root.PersistentFlags().DurationVar(&cfg.heartbeatInterval, "heartbeat-interval", envDurationOrDefault("SANDSTORM_HEARTBEAT_INTERVAL", types.DefaultHeartbeatInterval), "Interval agents are told to heartbeat at")
	root.PersistentFlags().DurationVar(&cfg.staleThreshold, "stale-threshold", envDurationOrDefault("SANDSTORM_STALE_THRESHOLD", types.DefaultStaleThreshold), "Heartbeat age after which an agent is excluded from dispatch")
	root.PersistentFlags().DurationVar(&cfg.commandTimeout, "command-timeout", envDurationOrDefault("SANDSTORM_COMMAND_TIMEOUT", types.DefaultCommandTimeout), "Default command execution timeout")
	root.PersistentFlags().StringVar(&cfg.logLevel, "log-level", envOrDefault("SANDSTORM_LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sandstorm-orchestrator %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func run(ctx context.Context, cfg *config) error {
	logger, err := buildLogger(cfg.logLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("starting sandstorm orchestrator",
		zap.String("version", version),
		zap.String("http_addr", cfg.httpAddr),
		zap.String("grpc_addr", cfg.grpcAddr),
		zap.String("external_endpoint", cfg.externalEndpoint),
		zap.String("provider", cfg.provider),
	)

	// --- Signal handling ---
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// --- 1. CloudProvider ---
	provider, err := buildProvider(ctx, cfg, logger)
	if err != nil {
		return err
	}

	// --- 2. Event hub ---
	hub := events.NewHub(logger)

	// --- 3. Agent registry + sweeper ---
	agents := agentmanager.New(agentmanager.Config{
		HeartbeatInterval: cfg.heartbeatInterval,
		StaleThreshold:    cfg.staleThreshold,
	}, logger)

	sweeper, err := agentmanager.NewSweeper(agents, cfg.heartbeatInterval, logger)
	if err != nil {
		return fmt.Errorf("failed to create sweeper: %w", err)
	}
	sweeper.Start(ctx)

	// --- 4. Dispatcher ---
	dispatcher := dispatch.New(agents, cfg.commandTimeout, logger)

	// --- 5. Process registry + service ---
	processes := process.NewRegistry(logger)
	processService := process.NewService(processes, dispatcher, agents, hub, logger)

	// --- 6. Sandbox registry + reaper ---
	sandboxes := sandbox.New(provider, cfg.externalEndpoint, agents, dispatcher, processes, hub, logger)

	reaper, err := sandbox.NewReaper(sandboxes, 0, logger)
	if err != nil {
		return fmt.Errorf("failed to create reaper: %w", err)
	}
	reaper.Start(ctx)

	// --- 7. gRPC server ---
	grpcSrv := grpcserver.New(agents, sandboxes, dispatcher, processes, hub, logger)

	go func() {
		if err := grpcSrv.ListenAndServe(ctx, cfg.grpcAddr); err != nil {
			logger.Error("gRPC server error", zap.Error(err))
			cancel()
		}
	}()

	// --- 8. HTTP server ---
	router := api.NewRouter(api.RouterConfig{
		Sandboxes: sandboxes,
		Processes: processService,
		Events:    hub,
		Logger:    logger,
	})

	httpSrv := &http.Server{
		Addr:    cfg.httpAddr,
		Handler: router,
		// No WriteTimeout: the events endpoint holds WebSocket connections
		// open indefinitely, and command submission is fast by design.
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.httpAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			cancel()
		}
	}()

	// --- Wait for shutdown signal ---
	<-ctx.Done()
	logger.Info("shutting down orchestrator")

	// All outstanding Executes complete with Shutdown before the servers
	// stop, so REST handlers can drain.
	dispatcher.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server graceful shutdown error", zap.Error(err))
	}

	sandboxes.Shutdown()

	logger.Info("orchestrator stopped")
	return nil
}

// buildProvider constructs the configured CloudProvider implementation.
func buildProvider(ctx context.Context, cfg *config, logger *zap.Logger) (sandbox.CloudProvider, error) {
	switch cfg.provider {
	case "docker":
		p, err := dockerprovider.New(ctx, dockerprovider.Config{
			Host:         cfg.dockerHost,
			DefaultImage: cfg.defaultImage,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create docker provider: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown provider %q (supported: docker)", cfg.provider)
	}
}

func buildLogger(level string) (*zap.Logger, error) {
	var cfg zap.Config

	switch level {
	case "debug":
		cfg = zap.NewDevelopmentConfig()
	default:
		cfg = zap.NewProductionConfig()
	}

	switch level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	return cfg.Build()
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
