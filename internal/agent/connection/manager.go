// Package connection manages the persistent gRPC session between the agent
// and the orchestrator. It handles:
//   - Registration (presenting agent/sandbox/VM identity)
//   - The heartbeat loop, at the interval returned by RegisterAgent
//   - The GetCommands loop (receiving commands, forwarding to the executor)
//   - SendCommandResult for finished commands
//   - A session-wide SendLogs stream for output lines
//   - Automatic reconnection with exponential backoff + jitter
//
// The Manager implements executor.ResultSink and executor.LogSink so the
// executor can report without knowing about gRPC.
package connection

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/habbes/sandstorm/internal/agent/executor"
	"github.com/habbes/sandstorm/internal/agent/sysinfo"
	proto "github.com/habbes/sandstorm/proto"
)

const (
	backoffInitial = 1 * time.Second
	backoffMax     = 60 * time.Second
	backoffFactor  = 2.0
	// jitterFraction adds up to ±20% random jitter to each backoff interval
	// to prevent thundering herd when many agents reconnect simultaneously.
	jitterFraction = 0.2

	// fallbackHeartbeatInterval is used if the orchestrator returns a
	// non-positive interval (it never should).
	fallbackHeartbeatInterval = 30 * time.Second
)

// Config holds everything needed to connect to the orchestrator.
type Config struct {
	// ServerAddr is the orchestrator's gRPC address (host:port).
	ServerAddr string
	// AgentID identifies this agent. Stable across reconnects.
	AgentID string
	// SandboxID is the sandbox this agent runs inside, baked into the VM's
	// boot metadata by the provisioner.
	SandboxID string
	// VMID is the provider-level VM identifier, if known.
	VMID string
	// Version is the agent binary version, sent during registration.
	Version string
}

// Manager maintains the persistent gRPC session to the orchestrator.
type Manager struct {
	cfg    Config
	exec   *executor.Executor
	logger *zap.Logger

	// mu protects client and logStream — both are replaced on reconnect.
	mu        sync.RWMutex
	client    proto.AgentServiceClient
	logStream proto.AgentService_SendLogsClient
}

// New creates a Manager. Call Run to start the connection loop.
func New(cfg Config, exec *executor.Executor, logger *zap.Logger) *Manager {
	return &Manager{
		cfg:    cfg,
		exec:   exec,
		logger: logger.Named("connection"),
	}
}

// Run starts the connection loop: connect, register, serve; on any failure
// reconnect with exponential backoff. Blocks until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	backoff := backoffInitial

	for {
		if ctx.Err() != nil {
			m.logger.Info("connection manager stopped")
			return
		}

		m.logger.Info("connecting to orchestrator", zap.String("addr", m.cfg.ServerAddr))

		if err := m.connect(ctx); err != nil {
			m.logger.Warn("session ended, reconnecting",
				zap.Error(err),
				zap.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return
			case <-time.After(jitter(backoff)):
			}
			backoff = nextBackoff(backoff)
			continue
		}

		// Clean session end (shutdown) — reset backoff for the next attempt.
		backoff = backoffInitial
	}
}

// connect establishes one session: dial → register → run loops.
// Returns when the session ends.
func (m *Manager) connect(ctx context.Context) error {
	conn, err := grpc.NewClient(
		m.cfg.ServerAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}
	defer conn.Close()

	client := proto.NewAgentServiceClient(conn)
	m.mu.Lock()
	m.client = client
	m.logStream = nil
	m.mu.Unlock()

	resp, err := client.RegisterAgent(ctx, &proto.RegisterAgentRequest{
		AgentId:      m.cfg.AgentID,
		SandboxId:    m.cfg.SandboxID,
		VmId:         m.cfg.VMID,
		AgentVersion: m.cfg.Version,
	})
	if err != nil {
		return fmt.Errorf("RegisterAgent failed: %w", err)
	}

	interval := time.Duration(resp.HeartbeatIntervalS) * time.Second
	if interval <= 0 {
		interval = fallbackHeartbeatInterval
	}

	m.logger.Info("registered with orchestrator",
		zap.String("agent_id", m.cfg.AgentID),
		zap.String("sandbox_id", m.cfg.SandboxID),
		zap.Duration("heartbeat_interval", interval),
	)

	// Heartbeats and the command stream run concurrently until one fails,
	// then the whole session is torn down and Run reconnects.
	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() { errCh <- m.heartbeatLoop(sessionCtx, client, interval) }()
	go func() { errCh <- m.commandLoop(sessionCtx, client) }()

	err = <-errCh
	if ctx.Err() != nil {
		// Graceful shutdown — not a real error.
		return nil
	}
	return err
}

// heartbeatLoop sends Heartbeat at the negotiated interval with a resource
// usage snapshot. An "unknown_agent" reply tears the session down so the
// reconnect loop re-registers.
func (m *Manager) heartbeatLoop(ctx context.Context, client proto.AgentServiceClient, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			status := proto.AgentStatus_AGENT_STATUS_READY
			if m.exec.RunningCount() > 0 {
				status = proto.AgentStatus_AGENT_STATUS_BUSY
			}

			resp, err := client.Heartbeat(ctx, &proto.HeartbeatRequest{
				AgentId:       m.cfg.AgentID,
				Status:        status,
				ResourceUsage: sysinfo.Collect(),
			})
			if err != nil {
				return fmt.Errorf("heartbeat failed: %w", err)
			}
			if !resp.Ok {
				return fmt.Errorf("orchestrator rejected heartbeat: %s", resp.Message)
			}
			m.logger.Debug("heartbeat sent", zap.String("status", status.String()))
		}
	}
}

// commandLoop opens the GetCommands stream and processes commands until the
// stream closes.
func (m *Manager) commandLoop(ctx context.Context, client proto.AgentServiceClient) error {
	stream, err := client.GetCommands(ctx, &proto.GetCommandsRequest{
		AgentId:   m.cfg.AgentID,
		SandboxId: m.cfg.SandboxID,
	})
	if err != nil {
		return fmt.Errorf("GetCommands open failed: %w", err)
	}

	m.logger.Info("command stream open")

	for {
		req, err := stream.Recv()
		if err != nil {
			return fmt.Errorf("GetCommands recv: %w", err)
		}

		switch req.Kind {
		case proto.CommandKind_COMMAND_KIND_TERMINATE:
			if !m.exec.Terminate(req.TargetProcessId) {
				m.logger.Warn("terminate for unknown command",
					zap.String("target_process_id", req.TargetProcessId),
				)
			}

		default:
			// EXEC, and any kind a newer orchestrator might send with a
			// populated command — execute rather than silently drop.
			m.exec.Start(ctx, executor.Command{
				ID:         req.CommandId,
				Command:    req.Command,
				Timeout:    time.Duration(req.TimeoutS) * time.Second,
				WorkingDir: req.WorkingDir,
				Env:        req.Env,
			}, m, m)
		}
	}
}

// SendResult implements executor.ResultSink. It reports the result via
// SendCommandResult; delivery failures are logged and dropped — the
// orchestrator's correlation will time out and the agent has nothing better
// to do with a result it cannot deliver.
func (m *Manager) SendResult(res executor.Result) {
	m.mu.RLock()
	client := m.client
	m.mu.RUnlock()

	if client == nil {
		m.logger.Warn("no active client, result lost", zap.String("command_id", res.CommandID))
		return
	}

	_, err := client.SendCommandResult(context.Background(), &proto.CommandResult{
		CommandId:  res.CommandID,
		AgentId:    m.cfg.AgentID,
		ExitCode:   int32(res.ExitCode),
		Stdout:     res.Stdout,
		Stderr:     res.Stderr,
		DurationMs: res.Duration.Milliseconds(),
		Success:    res.Success,
	})
	if err != nil {
		m.logger.Warn("failed to send command result",
			zap.String("command_id", res.CommandID),
			zap.Error(err),
		)
	}
}

// SendLog implements executor.LogSink. Lines go over a single session-wide
// SendLogs stream, opened lazily. A dead stream is dropped and reopened on
// the next line; a line that cannot be sent is discarded — logs are
// best-effort by contract.
func (m *Manager) SendLog(commandID, level, message string) {
	stream := m.ensureLogStream()
	if stream == nil {
		return
	}

	err := stream.Send(&proto.LogEntry{
		AgentId:   m.cfg.AgentID,
		ProcessId: commandID,
		Level:     levelToProto(level),
		Message:   message,
		Timestamp: timestamppb.Now(),
	})
	if err != nil {
		m.logger.Debug("log send failed, dropping stream", zap.Error(err))
		m.mu.Lock()
		m.logStream = nil
		m.mu.Unlock()
	}
}

func (m *Manager) ensureLogStream() proto.AgentService_SendLogsClient {
	m.mu.RLock()
	stream := m.logStream
	client := m.client
	m.mu.RUnlock()
	if stream != nil || client == nil {
		return stream
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.logStream != nil {
		return m.logStream
	}

	// Background context: the stream outlives individual commands and is
	// torn down with the connection itself.
	s, err := m.client.SendLogs(context.Background())
	if err != nil {
		m.logger.Debug("failed to open log stream", zap.Error(err))
		return nil
	}
	m.logStream = s
	return s
}

func levelToProto(level string) proto.LogLevel {
	switch level {
	case "debug":
		return proto.LogLevel_LOG_LEVEL_DEBUG
	case "warn":
		return proto.LogLevel_LOG_LEVEL_WARN
	case "error":
		return proto.LogLevel_LOG_LEVEL_ERROR
	default:
		return proto.LogLevel_LOG_LEVEL_INFO
	}
}

// nextBackoff returns the next backoff duration, capped at backoffMax.
func nextBackoff(current time.Duration) time.Duration {
	next := time.Duration(float64(current) * backoffFactor)
	if next > backoffMax {
		return backoffMax
	}
	return next
}

// jitter adds a random ±jitterFraction perturbation to d to avoid
// thundering herd on reconnect.
func jitter(d time.Duration) time.Duration {
	delta := float64(d) * jitterFraction
	offset := (rand.Float64()*2 - 1) * delta
	return time.Duration(float64(d) + offset)
}
