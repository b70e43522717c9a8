// Package grpc implements the gRPC server that sandbox agents connect to.
//
// It listens on a dedicated port separate from the REST API and implements
// the AgentService defined in proto/agent.proto, delegating registration and
// stream lifecycle to agentmanager, result correlation to the dispatcher,
// and log accumulation to the process registry.
//
// Transport security note: agents are expected to reach the orchestrator
// over a private network or tunnel provisioned with the VM; the listener
// itself is plaintext. Authentication of API callers is handled by a front
// layer and is out of scope here.
package grpc

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/habbes/sandstorm/internal/agentmanager"
	"github.com/habbes/sandstorm/internal/dispatch"
	"github.com/habbes/sandstorm/internal/events"
	"github.com/habbes/sandstorm/internal/metrics"
	"github.com/habbes/sandstorm/internal/process"
	"github.com/habbes/sandstorm/internal/sandbox"
	"github.com/habbes/sandstorm/internal/types"
	proto "github.com/habbes/sandstorm/proto"
)

// Server is the gRPC server handling agent connections. It wraps the
// generated UnimplementedAgentServiceServer for forward compatibility when
// new RPCs are added to the proto.
type Server struct {
	proto.UnimplementedAgentServiceServer

	agents     *agentmanager.Manager
	sandboxes  *sandbox.Registry
	dispatcher *dispatch.Dispatcher
	processes  *process.Registry
	hub        *events.Hub // may be nil
	logger     *zap.Logger
}

// New creates a Server with its dependencies.
func New(
	agents *agentmanager.Manager,
	sandboxes *sandbox.Registry,
	dispatcher *dispatch.Dispatcher,
	processes *process.Registry,
	hub *events.Hub,
	logger *zap.Logger,
) *Server {
	return &Server{
		agents:     agents,
		sandboxes:  sandboxes,
		dispatcher: dispatcher,
		processes:  processes,
		hub:        hub,
		logger:     logger.Named("grpc"),
	}
}

// ListenAndServe starts the gRPC server and blocks until ctx is cancelled or
// a fatal error occurs. On cancellation, GracefulStop drains in-flight RPCs
// — which also ends every open GetCommands stream.
func (s *Server) ListenAndServe(ctx context.Context, listenAddr string) error {
	lis, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("grpc: failed to listen on %s: %w", listenAddr, err)
	}

	grpcServer := grpc.NewServer()
	proto.RegisterAgentServiceServer(grpcServer, s)

	go func() {
		<-ctx.Done()
		s.logger.Info("grpc server shutting down gracefully")
		grpcServer.GracefulStop()
	}()

	s.logger.Info("grpc server listening", zap.String("addr", listenAddr))

	if err := grpcServer.Serve(lis); err != nil {
		return fmt.Errorf("grpc: server error: %w", err)
	}
	return nil
}

// RegisterAgent handles the initial agent registration. Overwrite semantics
// make it idempotent under retry; a re-registration displaces whatever
// stream the previous incarnation of the agent left behind.
func (s *Server) RegisterAgent(ctx context.Context, req *proto.RegisterAgentRequest) (*proto.RegisterAgentResponse, error) {
	if req.AgentId == "" || req.SandboxId == "" {
		return nil, status.Error(codes.InvalidArgument, "agent_id and sandbox_id are required")
	}

	interval := s.agents.Register(req.AgentId, req.SandboxId, req.VmId, req.AgentVersion)

	// An agent registering means the VM booted: the owning sandbox record
	// moves to Ready.
	s.sandboxes.AgentReady(req.SandboxId)

	s.hub.Publish("sandbox:"+req.SandboxId, events.Message{
		Type: events.MsgAgentStatus,
		Payload: map[string]any{
			"agentId": req.AgentId,
			"status":  string(types.AgentStatusReady),
		},
	})

	return &proto.RegisterAgentResponse{
		Ok:                 true,
		Message:            "registered",
		HeartbeatIntervalS: int32(interval / time.Second),
	}, nil
}

// Heartbeat refreshes an agent's liveness. An unknown agent gets ok=false
// with "unknown_agent" rather than an RPC error — the agent reacts by
// re-registering, so the distinction must survive transport retries.
func (s *Server) Heartbeat(ctx context.Context, req *proto.HeartbeatRequest) (*proto.HeartbeatResponse, error) {
	if req.AgentId == "" {
		return nil, status.Error(codes.InvalidArgument, "agent_id is required")
	}

	known := s.agents.Heartbeat(req.AgentId, agentStatusFromProto(req.Status), usageFromProto(req.ResourceUsage))
	if !known {
		return &proto.HeartbeatResponse{Ok: false, Message: "unknown_agent"}, nil
	}
	return &proto.HeartbeatResponse{Ok: true}, nil
}

// GetCommands opens the persistent downstream command stream. The agent
// calls this once after RegisterAgent and holds it; the method blocks until
// the stream's context is cancelled or a reconnect displaces the stream.
func (s *Server) GetCommands(req *proto.GetCommandsRequest, stream proto.AgentService_GetCommandsServer) error {
	if req.AgentId == "" {
		return status.Error(codes.InvalidArgument, "agent_id is required")
	}

	metrics.AgentsConnected.Inc()
	defer metrics.AgentsConnected.Dec()

	if err := s.agents.AttachDownstream(stream.Context(), req.AgentId, stream); err != nil {
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	return nil
}

// SendCommandResult correlates a result back to its waiter. A late result —
// one whose correlation has already timed out or been cancelled — is
// discarded but still acknowledged, keeping the agent free of retry logic.
func (s *Server) SendCommandResult(ctx context.Context, req *proto.CommandResult) (*proto.CommandResultAck, error) {
	if req.CommandId == "" {
		return nil, status.Error(codes.InvalidArgument, "command_id is required")
	}

	result := &types.CommandResult{
		ExitCode: req.ExitCode,
		Stdout:   req.Stdout,
		Stderr:   req.Stderr,
		Duration: time.Duration(req.DurationMs) * time.Millisecond,
		Success:  req.Success,
	}

	if !s.dispatcher.Complete(req.CommandId, result) {
		metrics.LateResults.Inc()
		s.logger.Debug("result arrived after correlation removed",
			zap.String("command_id", req.CommandId),
			zap.String("agent_id", req.AgentId),
		)
	}

	return &proto.CommandResultAck{Ok: true}, nil
}

// SendLogs ingests the client-streaming log feed from an agent. Entries
// tagged with a process id land on that process; untagged entries attach to
// the agent-wide log. Association is best-effort.
func (s *Server) SendLogs(stream proto.AgentService_SendLogsServer) error {
	var received uint32

	for {
		entry, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.logger.Warn("log stream recv error",
				zap.Error(err),
				zap.Uint32("entries_received", received),
			)
			return status.Errorf(codes.Internal, "recv error: %v", err)
		}
		received++

		agentInfo, known := s.agents.Get(entry.AgentId)
		if entry.ProcessId != "" && known {
			s.processes.AppendLog(agentInfo.SandboxID, entry.ProcessId, entry.Message)
		} else {
			s.processes.AppendAgentLog(entry.AgentId, entry.Message)
		}
	}

	return stream.SendAndClose(&proto.SendLogsResponse{
		Ok:              true,
		EntriesReceived: received,
	})
}

// ─── Conversions ─────────────────────────────────────────────────────────────

func agentStatusFromProto(s proto.AgentStatus) types.AgentStatus {
	switch s {
	case proto.AgentStatus_AGENT_STATUS_STARTING:
		return types.AgentStatusStarting
	case proto.AgentStatus_AGENT_STATUS_READY:
		return types.AgentStatusReady
	case proto.AgentStatus_AGENT_STATUS_BUSY:
		return types.AgentStatusBusy
	case proto.AgentStatus_AGENT_STATUS_UNREACHABLE:
		return types.AgentStatusUnreachable
	default:
		return ""
	}
}

func usageFromProto(u *proto.ResourceUsage) *types.ResourceUsage {
	if u == nil {
		return nil
	}
	return &types.ResourceUsage{
		CPUPercent:   u.CpuPercent,
		MemoryBytes:  u.MemoryBytes,
		DiskBytes:    u.DiskBytes,
		ProcessCount: u.ProcessCount,
	}
}
