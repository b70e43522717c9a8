// Package dispatch implements the command dispatcher: it correlates an
// outbound CommandRequest written to an agent's stream with the CommandResult
// the agent eventually sends back, and owns the timeout and cancellation
// behaviour of that rendezvous.
//
// The pending-correlation map plus one-shot result channels is the canonical
// "futures keyed by id" pattern: insert-then-wait on one side,
// complete-or-cancel-then-remove on the other. No entry outlives its waiter,
// and a handle is completed or cancelled exactly once.
package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/habbes/sandstorm/internal/agentmanager"
	"github.com/habbes/sandstorm/internal/metrics"
	"github.com/habbes/sandstorm/internal/types"
	proto "github.com/habbes/sandstorm/proto"
)

// outcome is what a waiter receives: a result or a cancellation reason,
// never both.
type outcome struct {
	result *types.CommandResult
	err    error
}

// pendingCommand is one registered correlation. done is buffered so the
// completing side never blocks on a waiter that has already given up.
type pendingCommand struct {
	sandboxID string
	agentID   string
	startedAt time.Time
	done      chan outcome
}

// Dispatcher routes commands to agents and results back to waiting callers.
// Safe for concurrent use.
type Dispatcher struct {
	agents         *agentmanager.Manager
	defaultTimeout time.Duration
	logger         *zap.Logger

	mu       sync.Mutex
	pending  map[string]*pendingCommand // keyed by command id
	shutdown bool
}

// New creates a Dispatcher. defaultTimeout applies when Execute or
// ExecuteAsync is called with a non-positive timeout; zero means
// types.DefaultCommandTimeout.
func New(agents *agentmanager.Manager, defaultTimeout time.Duration, logger *zap.Logger) *Dispatcher {
	if defaultTimeout <= 0 {
		defaultTimeout = types.DefaultCommandTimeout
	}
	return &Dispatcher{
		agents:         agents,
		defaultTimeout: defaultTimeout,
		pending:        make(map[string]*pendingCommand),
		logger:         logger.Named("dispatch"),
	}
}

// DefaultTimeout returns the timeout used when callers do not specify one.
func (d *Dispatcher) DefaultTimeout() time.Duration {
	return d.defaultTimeout
}

// Execute sends command to a ready agent for sandboxID and blocks until the
// agent returns a result, the timeout elapses, or ctx is cancelled —
// whichever comes first. It always returns within timeout + scheduling
// slack, regardless of agent behaviour.
func (d *Dispatcher) Execute(ctx context.Context, sandboxID, command string, timeout time.Duration) (*types.CommandResult, error) {
	commandID, pc, err := d.submit(sandboxID, command, timeout, nil)
	if err != nil {
		return nil, err
	}
	return d.wait(ctx, commandID, pc, d.effectiveTimeout(timeout))
}

// ExecuteAsync dispatches command like Execute but returns as soon as the
// CommandRequest is on the agent's stream. The returned command id doubles
// as the process id.
//
// onStart, if non-nil, runs with the allocated command id after the
// correlation is registered but before the request is written, so the caller
// can index its own state under the id without racing the agent's result.
// onDone is invoked exactly once from a background goroutine with the
// result, or with ErrTimeout / a cancellation reason.
func (d *Dispatcher) ExecuteAsync(sandboxID, command string, timeout time.Duration, onStart func(commandID string), onDone func(*types.CommandResult, error)) (string, error) {
	commandID, pc, err := d.submit(sandboxID, command, timeout, onStart)
	if err != nil {
		return commandID, err
	}

	go func() {
		result, err := d.wait(context.Background(), commandID, pc, d.effectiveTimeout(timeout))
		onDone(result, err)
	}()

	return commandID, nil
}

// submit performs the synchronous half of a dispatch: resolve an agent,
// register the correlation, write the request. On any failure the pending
// entry is removed before returning; a failure after onStart still reports
// the allocated command id so the caller can roll back its own state.
func (d *Dispatcher) submit(sandboxID, command string, timeout time.Duration, onStart func(string)) (string, *pendingCommand, error) {
	agentID := d.agents.FindReadyAgent(sandboxID)
	if agentID == "" {
		return "", nil, ErrNoReadyAgent
	}

	commandID := uuid.NewString()
	pc := &pendingCommand{
		sandboxID: sandboxID,
		agentID:   agentID,
		startedAt: time.Now(),
		done:      make(chan outcome, 1),
	}

	d.mu.Lock()
	if d.shutdown {
		d.mu.Unlock()
		return "", nil, ErrShutdown
	}
	d.pending[commandID] = pc
	d.mu.Unlock()

	if onStart != nil {
		onStart(commandID)
	}

	req := &proto.CommandRequest{
		CommandId: commandID,
		Kind:      proto.CommandKind_COMMAND_KIND_EXEC,
		Command:   command,
		TimeoutS:  int32(d.effectiveTimeout(timeout) / time.Second),
	}

	if err := d.agents.Send(agentID, req); err != nil {
		d.take(commandID)
		switch {
		case errors.Is(err, agentmanager.ErrNoStream):
			// The stream vanished between FindReadyAgent and the write.
			return commandID, nil, ErrAgentDisconnected
		default:
			d.logger.Warn("command write failed",
				zap.String("command_id", commandID),
				zap.String("agent_id", agentID),
				zap.Error(err),
			)
			return commandID, nil, ErrAgentWriteFailed
		}
	}

	metrics.CommandsDispatched.Inc()
	d.logger.Info("command dispatched",
		zap.String("command_id", commandID),
		zap.String("sandbox_id", sandboxID),
		zap.String("agent_id", agentID),
	)

	return commandID, pc, nil
}

// wait blocks on the correlation's result channel, bounded by timeout and
// ctx. Whichever side loses the race to take the pending entry defers to the
// winner: if take returns nil here, a completion is already in flight on the
// buffered channel.
func (d *Dispatcher) wait(ctx context.Context, commandID string, pc *pendingCommand, timeout time.Duration) (*types.CommandResult, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-pc.done:
		return out.result, out.err

	case <-timer.C:
		if d.take(commandID) == nil {
			// Completed concurrently with the deadline — the result won.
			out := <-pc.done
			return out.result, out.err
		}
		metrics.CommandsTimedOut.Inc()
		d.logger.Warn("command timed out",
			zap.String("command_id", commandID),
			zap.Duration("timeout", timeout),
		)
		return nil, ErrTimeout

	case <-ctx.Done():
		if d.take(commandID) == nil {
			out := <-pc.done
			return out.result, out.err
		}
		d.logger.Info("command cancelled by caller", zap.String("command_id", commandID))
		return nil, ErrCancelled
	}
}

// Complete delivers a result from the agent to the waiter registered under
// commandID. Returns false when no correlation exists — a late result after
// timeout or cancellation, which the caller acknowledges and drops.
func (d *Dispatcher) Complete(commandID string, result *types.CommandResult) bool {
	pc := d.take(commandID)
	if pc == nil {
		d.logger.Debug("late result discarded", zap.String("command_id", commandID))
		return false
	}

	metrics.CommandsCompleted.Inc()
	metrics.CommandDuration.Observe(time.Since(pc.startedAt).Seconds())

	pc.done <- outcome{result: result}
	return true
}

// Cancel cancels the pending correlation for commandID with the given
// reason. Returns false when no correlation exists.
func (d *Dispatcher) Cancel(commandID string, reason error) bool {
	pc := d.take(commandID)
	if pc == nil {
		return false
	}
	pc.done <- outcome{err: reason}
	return true
}

// CancelSandbox cancels every pending correlation targeting sandboxID.
// Used when a sandbox is deleted while commands are in flight.
func (d *Dispatcher) CancelSandbox(sandboxID string, reason error) int {
	d.mu.Lock()
	var victims []*pendingCommand
	for id, pc := range d.pending {
		if pc.sandboxID == sandboxID {
			delete(d.pending, id)
			victims = append(victims, pc)
		}
	}
	d.mu.Unlock()

	for _, pc := range victims {
		pc.done <- outcome{err: reason}
	}
	if len(victims) > 0 {
		d.logger.Info("cancelled in-flight commands for sandbox",
			zap.String("sandbox_id", sandboxID),
			zap.Int("count", len(victims)),
		)
	}
	return len(victims)
}

// Shutdown cancels all outstanding correlations with ErrShutdown and rejects
// new submissions. Called once during orchestrator termination.
func (d *Dispatcher) Shutdown() {
	d.mu.Lock()
	d.shutdown = true
	victims := make([]*pendingCommand, 0, len(d.pending))
	for id, pc := range d.pending {
		delete(d.pending, id)
		victims = append(victims, pc)
	}
	d.mu.Unlock()

	for _, pc := range victims {
		pc.done <- outcome{err: ErrShutdown}
	}
	d.logger.Info("dispatcher shut down", zap.Int("cancelled", len(victims)))
}

// PendingCount returns the number of in-flight correlations.
func (d *Dispatcher) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// take atomically removes and returns the pending entry for commandID, or
// nil if another path already claimed it. Exactly one caller wins.
func (d *Dispatcher) take(commandID string) *pendingCommand {
	d.mu.Lock()
	defer d.mu.Unlock()
	pc := d.pending[commandID]
	if pc != nil {
		delete(d.pending, commandID)
	}
	return pc
}

func (d *Dispatcher) effectiveTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return d.defaultTimeout
	}
	return timeout
}
