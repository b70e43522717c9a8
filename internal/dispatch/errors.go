package dispatch

import "errors"

var (
	// ErrNoReadyAgent means no registered agent for the sandbox is ready,
	// fresh, and streaming.
	ErrNoReadyAgent = errors.New("dispatch: no ready agent for sandbox")

	// ErrAgentDisconnected means the agent's stream vanished between agent
	// resolution and the write.
	ErrAgentDisconnected = errors.New("dispatch: agent disconnected")

	// ErrAgentWriteFailed means writing the CommandRequest to the agent's
	// stream errored.
	ErrAgentWriteFailed = errors.New("dispatch: command write to agent failed")

	// ErrTimeout means the agent did not produce a result before the
	// correlation deadline.
	ErrTimeout = errors.New("dispatch: command timed out")

	// ErrCancelled means the caller abandoned the wait.
	ErrCancelled = errors.New("dispatch: command cancelled")

	// ErrTerminated means the process was terminated on request.
	ErrTerminated = errors.New("dispatch: command terminated")

	// ErrShutdown means the orchestrator is terminating, or the command's
	// sandbox was deleted while the command was in flight.
	ErrShutdown = errors.New("dispatch: orchestrator shutting down")
)
