// Package process maintains the per-(sandbox, process) registry: what is
// running inside each sandbox, the log lines each process has accumulated,
// and the final result once the process completes.
//
// A process id is the same token as the dispatcher's command id — the record
// here is created in the same step that registers the pending correlation.
// The per-process state machine has exactly one terminal transition:
// Running → Completed(exit code, duration) or Running → Terminated. Once
// is_running is false, the result never changes and no further log lines are
// accepted.
package process

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/habbes/sandstorm/internal/types"
)

// Process is one command execution inside a sandbox. Mutable fields are
// protected by mu; the pointer is stable once inserted.
type Process struct {
	ID        string
	SandboxID string
	Command   string
	StartedAt time.Time

	mu         sync.RWMutex
	running    bool
	terminated bool
	result     *types.CommandResult
	logLines   []string
}

// Info is a read-only snapshot of a process record.
type Info struct {
	ID         string
	SandboxID  string
	Command    string
	StartedAt  time.Time
	Running    bool
	Terminated bool
	// Result is non-nil exactly when Running is false.
	Result *types.CommandResult
}

// Registry is the in-memory process registry. Safe for concurrent use.
// The zero value is not usable — create instances with NewRegistry.
type Registry struct {
	mu        sync.RWMutex
	processes map[string]*Process // keyed by process id

	// agentLogs collects log lines that arrive without a process id.
	// They attach to the agent, not a process, and are kept for debugging.
	agentLogs map[string][]string

	logger *zap.Logger
}

// NewRegistry creates a new Registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		processes: make(map[string]*Process),
		agentLogs: make(map[string][]string),
		logger:    logger.Named("process"),
	}
}

// Add inserts a record for a freshly dispatched command. The process starts
// in the running state.
func (r *Registry) Add(processID, sandboxID, command string) *Process {
	p := &Process{
		ID:        processID,
		SandboxID: sandboxID,
		Command:   command,
		StartedAt: time.Now(),
		running:   true,
	}

	r.mu.Lock()
	r.processes[processID] = p
	r.mu.Unlock()

	r.logger.Info("process registered",
		zap.String("process_id", processID),
		zap.String("sandbox_id", sandboxID),
	)
	return p
}

// Get returns a snapshot of the process, scoped to sandboxID so callers
// cannot read another sandbox's processes through a guessed id.
func (r *Registry) Get(sandboxID, processID string) (Info, bool) {
	p := r.lookup(sandboxID, processID)
	if p == nil {
		return Info{}, false
	}
	return p.snapshot(), true
}

// ListBySandbox returns snapshots of all processes in a sandbox, most
// recently started first.
func (r *Registry) ListBySandbox(sandboxID string) []Info {
	r.mu.RLock()
	var out []Info
	for _, p := range r.processes {
		if p.SandboxID == sandboxID {
			out = append(out, p.snapshot())
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out
}

// Complete records the terminal result for a process. The first terminal
// transition wins; later calls are ignored so a late agent result can never
// overwrite a timeout or termination already recorded.
func (r *Registry) Complete(processID string, result types.CommandResult) {
	r.mu.RLock()
	p := r.processes[processID]
	r.mu.RUnlock()
	if p == nil {
		return
	}

	p.mu.Lock()
	if p.running {
		p.running = false
		p.result = &result
	}
	p.mu.Unlock()
}

// MarkTerminated records that the process was stopped on request.
func (r *Registry) MarkTerminated(processID string) {
	r.mu.RLock()
	p := r.processes[processID]
	r.mu.RUnlock()
	if p == nil {
		return
	}

	p.mu.Lock()
	if p.running {
		p.running = false
		p.terminated = true
		p.result = &types.CommandResult{
			ExitCode: -1,
			Stderr:   "terminated",
			Duration: time.Since(p.StartedAt),
		}
	}
	p.mu.Unlock()
}

// AppendLog attaches a log line to the process. Lines arriving after the
// terminal transition are dropped — log lines may arrive only while the
// process is running.
func (r *Registry) AppendLog(sandboxID, processID, line string) {
	p := r.lookup(sandboxID, processID)
	if p == nil {
		return
	}

	p.mu.Lock()
	if p.running {
		p.logLines = append(p.logLines, line)
	}
	p.mu.Unlock()
}

// Logs returns all accumulated log lines for the process in arrival order.
func (r *Registry) Logs(sandboxID, processID string) ([]string, bool) {
	p := r.lookup(sandboxID, processID)
	if p == nil {
		return nil, false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, len(p.logLines))
	copy(out, p.logLines)
	return out, true
}

// AppendAgentLog records a log line that carries no process id. Such lines
// attach to the agent-wide log, not to a process.
func (r *Registry) AppendAgentLog(agentID, line string) {
	r.mu.Lock()
	r.agentLogs[agentID] = append(r.agentLogs[agentID], line)
	r.mu.Unlock()
}

// Remove deletes a single record. Used to roll back a submission whose
// stream write failed after the record was created.
func (r *Registry) Remove(processID string) {
	r.mu.Lock()
	delete(r.processes, processID)
	r.mu.Unlock()
}

// RemoveBySandbox drops all process records (and their logs) belonging to a
// deleted sandbox. Subsequent status lookups return not-found.
func (r *Registry) RemoveBySandbox(sandboxID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.processes {
		if p.SandboxID == sandboxID {
			delete(r.processes, id)
		}
	}
}

func (r *Registry) lookup(sandboxID, processID string) *Process {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p := r.processes[processID]
	if p == nil || p.SandboxID != sandboxID {
		return nil
	}
	return p
}

func (p *Process) snapshot() Info {
	p.mu.RLock()
	defer p.mu.RUnlock()

	info := Info{
		ID:         p.ID,
		SandboxID:  p.SandboxID,
		Command:    p.Command,
		StartedAt:  p.StartedAt,
		Running:    p.running,
		Terminated: p.terminated,
	}
	if p.result != nil {
		res := *p.result
		info.Result = &res
	}
	return info
}
