// Package agentmanager maintains the in-memory registry of agents running
// inside sandbox VMs.
//
// An agent announces itself with RegisterAgent, then opens a long-lived
// GetCommands stream through which the dispatcher pushes CommandRequest
// messages. The registry tracks each agent's heartbeat recency and holds the
// open stream handle so the dispatcher can write to it.
//
// All state is in-memory and intentionally non-persistent: if the
// orchestrator restarts, agents re-register automatically via their
// reconnection loop. Agent records survive stream drops — a stale agent is
// excluded from dispatch but kept around so a reconnect picks up the same
// record.
package agentmanager

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/habbes/sandstorm/internal/types"
	proto "github.com/habbes/sandstorm/proto"
)

// CommandStream is the server-side half of an open GetCommands stream.
// Declared as an interface so tests can attach fakes without a gRPC server.
type CommandStream interface {
	Send(*proto.CommandRequest) error
}

// Agent is one registered agent. The pointer is stable once inserted into the
// registry; all mutable fields are protected by mu.
type Agent struct {
	// Immutable after registration.
	ID      string
	VMID    string
	Version string

	mu            sync.RWMutex
	sandboxID     string
	status        types.AgentStatus
	lastHeartbeat time.Time
	usage         *types.ResourceUsage

	// stream is the open GetCommands stream, owned by the RPC handler that
	// attached it. The registry merely indexes it — nil when the agent is not
	// currently streaming. replaced is closed when a newer attach or a
	// re-registration displaces this stream, so the old handler can return.
	stream   CommandStream
	replaced chan struct{}

	// sendMu serialises writes to the stream: gRPC disallows concurrent
	// Send calls on the same server stream.
	sendMu sync.Mutex
}

// Info is a read-only snapshot of an agent record.
type Info struct {
	ID            string
	SandboxID     string
	VMID          string
	Version       string
	Status        types.AgentStatus
	LastHeartbeat time.Time
	Usage         *types.ResourceUsage
	Streaming     bool
}

// Manager is the in-memory agent registry. Safe for concurrent use by the
// gRPC server, the dispatcher, the REST handlers, and the sweeper.
//
// The zero value is not usable — create instances with New.
type Manager struct {
	mu     sync.RWMutex
	agents map[string]*Agent // keyed by agent ID; pointers stable once inserted

	clock             clockwork.Clock
	heartbeatInterval time.Duration
	staleThreshold    time.Duration
	logger            *zap.Logger
}

// Config holds the tunables for the agent registry.
type Config struct {
	// HeartbeatInterval is returned to agents on registration.
	// Zero means types.DefaultHeartbeatInterval.
	HeartbeatInterval time.Duration
	// StaleThreshold is how long an agent may go silent before being
	// excluded from dispatch. Zero means types.DefaultStaleThreshold.
	StaleThreshold time.Duration
	// Clock is swapped for a fake in tests. Nil means the real clock.
	Clock clockwork.Clock
}

// New creates a new Manager.
func New(cfg Config, logger *zap.Logger) *Manager {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = types.DefaultHeartbeatInterval
	}
	if cfg.StaleThreshold <= 0 {
		cfg.StaleThreshold = types.DefaultStaleThreshold
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &Manager{
		agents:            make(map[string]*Agent),
		clock:             cfg.Clock,
		heartbeatInterval: cfg.HeartbeatInterval,
		staleThreshold:    cfg.StaleThreshold,
		logger:            logger.Named("agentmanager"),
	}
}

// HeartbeatInterval returns the interval agents are told to heartbeat at.
func (m *Manager) HeartbeatInterval() time.Duration {
	return m.heartbeatInterval
}

// Register creates or updates the record for agentID and returns the
// heartbeat interval the agent must honour. Re-registration (agent restart,
// VM replacement) overwrites the mutable fields and displaces any stream the
// previous incarnation left behind — a command submitted after this point
// only reaches a stream attached after this point.
//
// Register cannot fail: overwrite semantics make it idempotent under retry.
func (m *Manager) Register(agentID, sandboxID, vmID, version string) time.Duration {
	now := m.clock.Now()

	m.mu.Lock()
	agent, exists := m.agents[agentID]
	if !exists {
		agent = &Agent{ID: agentID, VMID: vmID, Version: version}
		m.agents[agentID] = agent
	}
	m.mu.Unlock()

	agent.mu.Lock()
	agent.sandboxID = sandboxID
	agent.status = types.AgentStatusReady
	agent.lastHeartbeat = now
	agent.usage = nil
	if agent.replaced != nil {
		close(agent.replaced)
	}
	agent.stream = nil
	agent.replaced = nil
	agent.mu.Unlock()

	if exists {
		m.logger.Info("agent re-registered",
			zap.String("agent_id", agentID),
			zap.String("sandbox_id", sandboxID),
		)
	} else {
		m.logger.Info("agent registered",
			zap.String("agent_id", agentID),
			zap.String("sandbox_id", sandboxID),
			zap.String("vm_id", vmID),
			zap.String("agent_version", version),
		)
	}

	return m.heartbeatInterval
}

// Heartbeat refreshes the agent's liveness. Returns false when no record
// exists, in which case the agent must re-register.
//
// last_heartbeat never moves backwards, even if the sweeper or a concurrent
// re-registration raced this call.
func (m *Manager) Heartbeat(agentID string, status types.AgentStatus, usage *types.ResourceUsage) bool {
	m.mu.RLock()
	agent, ok := m.agents[agentID]
	m.mu.RUnlock()
	if !ok {
		return false
	}

	now := m.clock.Now()

	agent.mu.Lock()
	if now.After(agent.lastHeartbeat) {
		agent.lastHeartbeat = now
	}
	if status != "" {
		agent.status = status
	}
	if usage != nil {
		agent.usage = usage
	}
	agent.mu.Unlock()

	m.logger.Debug("heartbeat", zap.String("agent_id", agentID), zap.String("status", string(status)))
	return true
}

// AttachDownstream stores stream as the agent's downstream command channel
// and blocks until ctx is cancelled (agent disconnect, server shutdown) or a
// newer stream displaces this one. On every exit path — panics included —
// the stored handle is cleared, but only if it still points at this stream,
// so a racing reconnect is never clobbered.
//
// Returns an error if the agent has not registered.
func (m *Manager) AttachDownstream(ctx context.Context, agentID string, stream CommandStream) error {
	m.mu.RLock()
	agent, ok := m.agents[agentID]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("agentmanager: unknown agent %q — RegisterAgent must be called first", agentID)
	}

	replaced := make(chan struct{})

	agent.mu.Lock()
	if agent.replaced != nil {
		// A previous stream is still attached (e.g. reconnect before the old
		// connection timed out). Displace it.
		close(agent.replaced)
		m.logger.Warn("replacing existing command stream", zap.String("agent_id", agentID))
	}
	agent.stream = stream
	agent.replaced = replaced
	agent.mu.Unlock()

	defer func() {
		agent.mu.Lock()
		if agent.stream == stream {
			agent.stream = nil
			agent.replaced = nil
		}
		agent.mu.Unlock()
		m.logger.Info("command stream detached", zap.String("agent_id", agentID))
	}()

	m.logger.Info("command stream attached", zap.String("agent_id", agentID))

	select {
	case <-ctx.Done():
	case <-replaced:
	}
	return nil
}

// Send writes req to the agent's downstream stream. The stream handle is
// read under a short lock and the write itself is serialised per agent, but
// never performed under the registry lock.
func (m *Manager) Send(agentID string, req *proto.CommandRequest) error {
	m.mu.RLock()
	agent, ok := m.agents[agentID]
	m.mu.RUnlock()
	if !ok {
		return ErrNoStream
	}

	agent.mu.RLock()
	stream := agent.stream
	agent.mu.RUnlock()
	if stream == nil {
		return ErrNoStream
	}

	agent.sendMu.Lock()
	err := stream.Send(req)
	agent.sendMu.Unlock()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStreamWrite, err)
	}
	return nil
}

// FindReadyAgent returns the agent that commands for sandboxID should be
// dispatched to: registered for the sandbox, status Ready, fresh heartbeat,
// stream attached. When several agents qualify (possible during agent
// replacement) the one with the smallest ID wins, deterministically.
// Returns "" when no agent qualifies.
func (m *Manager) FindReadyAgent(sandboxID string) string {
	now := m.clock.Now()

	m.mu.RLock()
	defer m.mu.RUnlock()

	best := ""
	for id, agent := range m.agents {
		agent.mu.RLock()
		ok := agent.sandboxID == sandboxID &&
			agent.status == types.AgentStatusReady &&
			now.Sub(agent.lastHeartbeat) <= m.staleThreshold &&
			agent.stream != nil
		agent.mu.RUnlock()
		if ok && (best == "" || id < best) {
			best = id
		}
	}
	return best
}

// HasReadyAgent reports whether dispatch to sandboxID would currently find
// an agent. Used by the sandbox registry's readiness check.
func (m *Manager) HasReadyAgent(sandboxID string) bool {
	return m.FindReadyAgent(sandboxID) != ""
}

// ListActive returns snapshots of all agents with a fresh heartbeat,
// ordered by agent ID.
func (m *Manager) ListActive() []Info {
	now := m.clock.Now()

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Info
	for _, agent := range m.agents {
		info := snapshot(agent)
		if now.Sub(info.LastHeartbeat) <= m.staleThreshold {
			out = append(out, info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns a snapshot of one agent record.
func (m *Manager) Get(agentID string) (Info, bool) {
	m.mu.RLock()
	agent, ok := m.agents[agentID]
	m.mu.RUnlock()
	if !ok {
		return Info{}, false
	}
	return snapshot(agent), true
}

// RemoveBySandbox deletes all agent records registered for sandboxID and
// displaces their streams. Called by the sandbox registry when a sandbox is
// purged — agent records are never deleted for mere staleness.
func (m *Manager) RemoveBySandbox(sandboxID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, agent := range m.agents {
		agent.mu.Lock()
		match := agent.sandboxID == sandboxID
		if match {
			if agent.replaced != nil {
				close(agent.replaced)
			}
			agent.stream = nil
			agent.replaced = nil
		}
		agent.mu.Unlock()

		if match {
			delete(m.agents, id)
			m.logger.Info("agent removed with sandbox",
				zap.String("agent_id", id),
				zap.String("sandbox_id", sandboxID),
			)
		}
	}
}

func snapshot(agent *Agent) Info {
	agent.mu.RLock()
	defer agent.mu.RUnlock()

	info := Info{
		ID:            agent.ID,
		SandboxID:     agent.sandboxID,
		VMID:          agent.VMID,
		Version:       agent.Version,
		Status:        agent.status,
		LastHeartbeat: agent.lastHeartbeat,
		Streaming:     agent.stream != nil,
	}
	if agent.usage != nil {
		u := *agent.usage
		info.Usage = &u
	}
	return info
}
