// Package sandbox maintains the registry of known sandboxes and drives their
// lifecycle through the CloudProvider: Creating → Starting → Ready →
// Stopping → Deleted, with Error as the failure sink.
//
// A sandbox record persists through agent reconnections; whether a sandbox
// is *ready* is decided dynamically by asking the agent registry for a
// ready-and-fresh agent, not by the stored status alone.
package sandbox

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/habbes/sandstorm/internal/agentmanager"
	"github.com/habbes/sandstorm/internal/dispatch"
	"github.com/habbes/sandstorm/internal/events"
	"github.com/habbes/sandstorm/internal/metrics"
	"github.com/habbes/sandstorm/internal/process"
	"github.com/habbes/sandstorm/internal/types"
)

// Sandbox is one registry record. Mutable fields are protected by mu; the
// pointer is stable once inserted.
type Sandbox struct {
	ID        string
	CreatedAt time.Time

	mu       sync.RWMutex
	status   types.SandboxStatus
	config   types.SandboxConfiguration
	vmHandle string
	publicIP string
}

// Info is a read-only snapshot of a sandbox record.
type Info struct {
	ID        string
	Status    types.SandboxStatus
	Config    types.SandboxConfiguration
	PublicIP  string
	CreatedAt time.Time
}

// Registry owns the sandbox records and coordinates provisioning and
// deletion with the CloudProvider. Safe for concurrent use.
type Registry struct {
	provider  CloudProvider
	endpoint  string // orchestrator endpoint baked into VMs
	agents    *agentmanager.Manager
	disp      *dispatch.Dispatcher
	processes *process.Registry
	hub       *events.Hub // may be nil
	logger    *zap.Logger

	mu        sync.RWMutex
	sandboxes map[string]*Sandbox

	// imageMu serialises the one-time default image build so concurrent
	// first-creates coalesce on a single BuildDefaultImage call.
	imageMu      sync.Mutex
	defaultImage string

	// wg tracks background provisioning/deletion tasks so shutdown can
	// wait for them instead of abandoning in-flight provider calls.
	wg sync.WaitGroup
}

// New creates a Registry. endpoint is the externally reachable orchestrator
// URL that gets baked into every VM.
func New(
	provider CloudProvider,
	endpoint string,
	agents *agentmanager.Manager,
	disp *dispatch.Dispatcher,
	processes *process.Registry,
	hub *events.Hub,
	logger *zap.Logger,
) *Registry {
	return &Registry{
		provider:  provider,
		endpoint:  endpoint,
		agents:    agents,
		disp:      disp,
		processes: processes,
		hub:       hub,
		logger:    logger.Named("sandbox"),
		sandboxes: make(map[string]*Sandbox),
	}
}

// Create provisions a new sandbox and returns its record immediately with
// status Creating; the provider call runs in the background and moves the
// record to Starting (VM created, agent booting) or Error.
//
// A nil cfg, or one without an image, uses the lazily built default image —
// the first such call blocks on BuildDefaultImage, which may take minutes.
func (r *Registry) Create(ctx context.Context, cfg *types.SandboxConfiguration) (Info, error) {
	var config types.SandboxConfiguration
	if cfg != nil {
		config = *cfg
	}

	if config.ImageID == "" {
		imageID, err := r.ensureDefaultImage(ctx)
		if err != nil {
			metrics.ProvisioningErrors.Inc()
			return Info{}, fmt.Errorf("%w: default image build: %v", ErrProvisioningFailed, err)
		}
		config.ImageID = imageID
	}

	sb := &Sandbox{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		status:    types.SandboxStatusCreating,
		config:    config,
	}

	r.mu.Lock()
	r.sandboxes[sb.ID] = sb
	r.mu.Unlock()

	metrics.SandboxesTotal.WithLabelValues(string(types.SandboxStatusCreating)).Inc()
	r.logger.Info("sandbox create accepted",
		zap.String("sandbox_id", sb.ID),
		zap.String("image_id", config.ImageID),
	)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.provision(sb)
	}()

	return sb.snapshot(), nil
}

// provision runs the CloudProvider call for a freshly accepted sandbox.
// Asynchronous failures change status only (they have no caller to reach).
func (r *Registry) provision(sb *Sandbox) {
	sb.mu.RLock()
	config := sb.config
	sb.mu.RUnlock()

	result, err := r.provider.CreateSandbox(context.Background(), sb.ID, config, r.endpoint)
	if err != nil {
		metrics.ProvisioningErrors.Inc()
		r.logger.Error("sandbox provisioning failed",
			zap.String("sandbox_id", sb.ID),
			zap.Error(err),
		)
		r.transition(sb, types.SandboxStatusError)
		return
	}

	sb.mu.Lock()
	sb.vmHandle = result.VMHandle
	sb.publicIP = result.PublicIP
	sb.mu.Unlock()

	// The VM exists and is booting; the record turns Ready when the agent
	// inside it registers. A deletion accepted meanwhile wins — and the VM
	// it never saw a handle for is torn down here instead.
	if !r.transitionIf(sb, types.SandboxStatusCreating, types.SandboxStatusStarting) {
		sb.mu.RLock()
		status := sb.status
		sb.mu.RUnlock()
		if status == types.SandboxStatusStopping || status == types.SandboxStatusDeleted {
			if err := r.provider.DeleteSandbox(context.Background(), result.VMHandle); err != nil {
				r.logger.Warn("failed to delete VM of concurrently removed sandbox",
					zap.String("sandbox_id", sb.ID),
					zap.Error(err),
				)
			}
		}
	}
}

// ensureDefaultImage memoizes the provider's default image build.
// The mutex makes concurrent first-creates wait for the single build.
func (r *Registry) ensureDefaultImage(ctx context.Context) (string, error) {
	r.imageMu.Lock()
	defer r.imageMu.Unlock()

	if r.defaultImage != "" {
		return r.defaultImage, nil
	}

	r.logger.Info("building default sandbox image")
	imageID, err := r.provider.BuildDefaultImage(ctx, r.endpoint)
	if err != nil {
		return "", err
	}

	r.defaultImage = imageID
	r.logger.Info("default sandbox image ready", zap.String("image_id", imageID))
	return imageID, nil
}

// Get returns a snapshot of one sandbox.
func (r *Registry) Get(id string) (Info, bool) {
	r.mu.RLock()
	sb, ok := r.sandboxes[id]
	r.mu.RUnlock()
	if !ok {
		return Info{}, false
	}
	return sb.snapshot(), true
}

// List returns snapshots of all sandboxes, newest first.
func (r *Registry) List() []Info {
	r.mu.RLock()
	out := make([]Info, 0, len(r.sandboxes))
	for _, sb := range r.sandboxes {
		out = append(out, sb.snapshot())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// IsReady reports whether commands can currently be dispatched into the
// sandbox: the record exists, is not being torn down, and a ready-and-fresh
// agent with an attached stream matches it.
func (r *Registry) IsReady(id string) bool {
	info, ok := r.Get(id)
	if !ok {
		return false
	}
	switch info.Status {
	case types.SandboxStatusStopping, types.SandboxStatusStopped, types.SandboxStatusDeleted, types.SandboxStatusError:
		return false
	}
	return r.agents.HasReadyAgent(id)
}

// AgentReady is called by the RPC layer when an agent registers for the
// sandbox and reports Ready. Moves Creating/Starting records to Ready.
func (r *Registry) AgentReady(id string) {
	r.mu.RLock()
	sb, ok := r.sandboxes[id]
	r.mu.RUnlock()
	if !ok {
		return
	}
	if !r.transitionIf(sb, types.SandboxStatusCreating, types.SandboxStatusReady) {
		r.transitionIf(sb, types.SandboxStatusStarting, types.SandboxStatusReady)
	}
}

// Delete schedules sandbox teardown and returns as soon as it is accepted.
// In-flight commands are cancelled immediately, the agent and process
// records are purged, and the provider delete runs in the background:
// Stopping → Deleted on success, Error on failure.
func (r *Registry) Delete(id string) bool {
	r.mu.RLock()
	sb, ok := r.sandboxes[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	sb.mu.Lock()
	switch sb.status {
	case types.SandboxStatusStopping, types.SandboxStatusDeleted:
		sb.mu.Unlock()
		return true // deletion already in progress — idempotent accept
	}
	from := sb.status
	sb.status = types.SandboxStatusStopping
	vmHandle := sb.vmHandle
	sb.mu.Unlock()

	metrics.SandboxesTotal.WithLabelValues(string(from)).Dec()
	metrics.SandboxesTotal.WithLabelValues(string(types.SandboxStatusStopping)).Inc()
	r.publishStatus(id, types.SandboxStatusStopping)
	r.logger.Info("sandbox delete accepted", zap.String("sandbox_id", id))

	// Everything that referenced the sandbox goes now; the caller observes
	// NotFound for its processes from this point on.
	r.disp.CancelSandbox(id, dispatch.ErrShutdown)
	r.agents.RemoveBySandbox(id)
	r.processes.RemoveBySandbox(id)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		if vmHandle != "" {
			if err := r.provider.DeleteSandbox(context.Background(), vmHandle); err != nil {
				metrics.ProvisioningErrors.Inc()
				r.logger.Error("sandbox deletion failed",
					zap.String("sandbox_id", id),
					zap.Error(err),
				)
				r.transition(sb, types.SandboxStatusError)
				return
			}
		}
		r.transition(sb, types.SandboxStatusDeleted)
	}()

	return true
}

// PurgeDeleted removes records that have reached Deleted. Called
// periodically by the reaper so GetSandbox eventually reports NotFound.
// Returns the number of records purged.
func (r *Registry) PurgeDeleted() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, sb := range r.sandboxes {
		sb.mu.RLock()
		deleted := sb.status == types.SandboxStatusDeleted
		sb.mu.RUnlock()
		if deleted {
			delete(r.sandboxes, id)
			metrics.SandboxesTotal.WithLabelValues(string(types.SandboxStatusDeleted)).Dec()
			n++
			r.logger.Info("sandbox record purged", zap.String("sandbox_id", id))
		}
	}
	return n
}

// Shutdown waits for background provisioning and deletion tasks to finish.
func (r *Registry) Shutdown() {
	r.wg.Wait()
}

// transition unconditionally moves sb to status and publishes the event.
func (r *Registry) transition(sb *Sandbox, status types.SandboxStatus) {
	sb.mu.Lock()
	from := sb.status
	sb.status = status
	sb.mu.Unlock()

	if from != status {
		metrics.SandboxesTotal.WithLabelValues(string(from)).Dec()
		metrics.SandboxesTotal.WithLabelValues(string(status)).Inc()
		r.publishStatus(sb.ID, status)
	}
}

// transitionIf moves sb to status only when it is currently in from.
func (r *Registry) transitionIf(sb *Sandbox, from, to types.SandboxStatus) bool {
	sb.mu.Lock()
	if sb.status != from {
		sb.mu.Unlock()
		return false
	}
	sb.status = to
	sb.mu.Unlock()

	metrics.SandboxesTotal.WithLabelValues(string(from)).Dec()
	metrics.SandboxesTotal.WithLabelValues(string(to)).Inc()
	r.publishStatus(sb.ID, to)
	return true
}

func (r *Registry) publishStatus(id string, status types.SandboxStatus) {
	r.hub.Publish("sandbox:"+id, events.Message{
		Type:    events.MsgSandboxStatus,
		Payload: map[string]any{"sandboxId": id, "status": string(status)},
	})
}

func (sb *Sandbox) snapshot() Info {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	return Info{
		ID:        sb.ID,
		Status:    sb.status,
		Config:    sb.config,
		PublicIP:  sb.publicIP,
		CreatedAt: sb.CreatedAt,
	}
}
