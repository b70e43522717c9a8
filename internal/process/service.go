// The Service ties the process registry to the command dispatcher: submit
// creates the record and registers the correlation in one step, and the
// dispatcher's completion callback is the only writer of terminal state.
package process

import (
	"errors"

	"go.uber.org/zap"

	"github.com/habbes/sandstorm/internal/agentmanager"
	"github.com/habbes/sandstorm/internal/dispatch"
	"github.com/habbes/sandstorm/internal/events"
	"github.com/habbes/sandstorm/internal/types"
	proto "github.com/habbes/sandstorm/proto"
)

// Service exposes the process lifecycle operations consumed by the REST API.
type Service struct {
	registry   *Registry
	dispatcher *dispatch.Dispatcher
	agents     *agentmanager.Manager
	hub        *events.Hub // may be nil
	logger     *zap.Logger
}

// NewService creates a Service. hub may be nil to disable event publishing.
func NewService(
	registry *Registry,
	dispatcher *dispatch.Dispatcher,
	agents *agentmanager.Manager,
	hub *events.Hub,
	logger *zap.Logger,
) *Service {
	return &Service{
		registry:   registry,
		dispatcher: dispatcher,
		agents:     agents,
		hub:        hub,
		logger:     logger.Named("process"),
	}
}

// SubmitCommand dispatches command into sandboxID and returns immediately
// with the new process in the running state. The process id is the
// dispatcher's command id. Errors come straight from the dispatcher
// (ErrNoReadyAgent, ErrAgentDisconnected, ErrAgentWriteFailed).
func (s *Service) SubmitCommand(sandboxID, command string) (Info, error) {
	var pid string

	processID, err := s.dispatcher.ExecuteAsync(
		sandboxID, command, 0,
		func(commandID string) {
			// Record exists before the request hits the wire, so a result
			// can never arrive for an unknown process.
			pid = commandID
			s.registry.Add(commandID, sandboxID, command)
		},
		func(result *types.CommandResult, waitErr error) {
			s.finish(sandboxID, pid, result, waitErr)
		},
	)
	if err != nil {
		if processID != "" {
			// The write failed after the record was created — roll it back
			// rather than leaving a process that was never dispatched.
			s.registry.Remove(processID)
		}
		return Info{}, err
	}

	info, _ := s.registry.Get(sandboxID, processID)
	return info, nil
}

// finish is the dispatcher's completion callback: the single terminal
// transition for the process, followed by the completion event.
func (s *Service) finish(sandboxID, processID string, result *types.CommandResult, err error) {
	switch {
	case err == nil && result != nil:
		s.registry.Complete(processID, *result)

	case errors.Is(err, dispatch.ErrTerminated):
		s.registry.MarkTerminated(processID)

	case errors.Is(err, dispatch.ErrTimeout):
		s.registry.Complete(processID, types.CommandResult{
			ExitCode: -1,
			Stderr:   "timeout",
			Duration: s.dispatcher.DefaultTimeout(),
		})

	case errors.Is(err, dispatch.ErrShutdown):
		// Sandbox deletion or orchestrator shutdown: the record is either
		// being purged with its sandbox or lost with the whole process
		// state. Record a terminal result in case status is still queried.
		s.registry.Complete(processID, types.CommandResult{
			ExitCode: -1,
			Stderr:   "shutdown",
		})

	default:
		s.registry.Complete(processID, types.CommandResult{
			ExitCode: -1,
			Stderr:   err.Error(),
		})
	}

	info, ok := s.registry.Get(sandboxID, processID)
	if !ok {
		return
	}
	payload := map[string]any{"processId": processID, "isRunning": false}
	if info.Result != nil {
		payload["exitCode"] = info.Result.ExitCode
	}
	s.hub.Publish("process:"+processID, events.Message{
		Type:    events.MsgProcessCompleted,
		Payload: payload,
	})
}

// GetStatus returns the current state of a process.
func (s *Service) GetStatus(sandboxID, processID string) (Info, bool) {
	return s.registry.Get(sandboxID, processID)
}

// GetLogs returns all accumulated log lines for a process.
func (s *Service) GetLogs(sandboxID, processID string) ([]string, bool) {
	return s.registry.Logs(sandboxID, processID)
}

// Terminate stops a running process: a terminate request is pushed to the
// agent best-effort, and the pending correlation is cancelled immediately on
// the orchestrator side, which records the Terminated terminal state.
// Returns false when the process is unknown.
func (s *Service) Terminate(sandboxID, processID string) (bool, error) {
	info, ok := s.registry.Get(sandboxID, processID)
	if !ok {
		return false, nil
	}
	if !info.Running {
		// Already terminal — accepting again is harmless and idempotent.
		return true, nil
	}

	if agentID := s.agents.FindReadyAgent(sandboxID); agentID != "" {
		err := s.agents.Send(agentID, &proto.CommandRequest{
			CommandId:       processID,
			Kind:            proto.CommandKind_COMMAND_KIND_TERMINATE,
			TargetProcessId: processID,
		})
		if err != nil {
			// The orchestrator-side cancellation below still applies; the
			// agent-side process may linger until its own timeout.
			s.logger.Warn("terminate signal not delivered",
				zap.String("process_id", processID),
				zap.Error(err),
			)
		}
	}

	s.dispatcher.Cancel(processID, dispatch.ErrTerminated)
	return true, nil
}
