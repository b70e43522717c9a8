// Package main is the entry point for the sandstorm agent — the process
// that runs inside each sandbox VM, connects back to the orchestrator, and
// executes commands on its behalf.
//
// The provisioner bakes SANDSTORM_ORCHESTRATOR and SANDSTORM_SANDBOX_ID
// into the VM's boot metadata; the agent picks them up from the environment.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/habbes/sandstorm/internal/agent/connection"
	"github.com/habbes/sandstorm/internal/agent/executor"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type config struct {
	serverAddr string
	agentID    string
	sandboxID  string
	vmID       string
	logLevel   string
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
		Use:   "sandstorm-agent",
		Short: "Sandstorm agent — in-VM command execution agent",
		Long: `The sandstorm agent runs inside a sandbox VM. It registers with the
orchestrator, holds a persistent command stream open, executes the commands
it receives, and reports results and logs back.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfg)
		},
	}

	root.AddCommand(newVersionCmd())

	root.PersistentFlags().StringVar(&cfg.serverAddr, "server-addr", envOrDefault("SANDSTORM_ORCHESTRATOR", "localhost:5001"), "Orchestrator gRPC address (host:port)")
	root.PersistentFlags().StringVar(&cfg.agentID, "agent-id", envOrDefault("SANDSTORM_AGENT_ID", ""), "Agent id (empty = generated)")
	root.PersistentFlags().StringVar(&cfg.sandboxID, "sandbox-id", envOrDefault("SANDSTORM_SANDBOX_ID", ""), "Sandbox id this agent runs inside (required)")
	root.PersistentFlags().StringVar(&cfg.vmID, "vm-id", envOrDefault("SANDSTORM_VM_ID", ""), "Provider-level VM id, if known")
	root.PersistentFlags().StringVar(&cfg.logLevel, "log-level", envOrDefault("SANDSTORM_LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sandstorm-agent %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func run(ctx context.Context, cfg *config) error {
	logger, err := buildLogger(cfg.logLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.sandboxID == "" {
		return fmt.Errorf("sandbox id is required — set --sandbox-id or SANDSTORM_SANDBOX_ID")
	}
	if cfg.agentID == "" {
		cfg.agentID = "agent-" + uuid.NewString()
	}

	logger.Info("starting sandstorm agent",
		zap.String("version", version),
		zap.String("server", cfg.serverAddr),
		zap.String("agent_id", cfg.agentID),
		zap.String("sandbox_id", cfg.sandboxID),
	)

	// --- Signal handling ---
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// --- Executor ---
	exec := executor.New(logger)

	// --- Connection manager ---
	mgr := connection.New(connection.Config{
		ServerAddr: cfg.serverAddr,
		AgentID:    cfg.agentID,
		SandboxID:  cfg.sandboxID,
		VMID:       cfg.vmID,
		Version:    version,
	}, exec, logger)

	// Run blocks until ctx is cancelled (SIGINT/SIGTERM).
	mgr.Run(ctx)

	logger.Info("sandstorm agent stopped")
	return nil
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
