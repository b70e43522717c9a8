package agentmanager

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/habbes/sandstorm/internal/types"
)

// Sweeper periodically marks agents whose heartbeat has gone stale as
// Unreachable. It never deletes records: a stale agent may reconnect, and
// deletion happens only when the owning sandbox is deleted.
type Sweeper struct {
	manager *Manager
	cron    gocron.Scheduler
	logger  *zap.Logger
}

// NewSweeper creates a sweeper that runs every interval. An interval of zero
// defaults to the manager's heartbeat interval — one missed beat is noticed
// within roughly one beat.
func NewSweeper(manager *Manager, interval time.Duration, logger *zap.Logger) (*Sweeper, error) {
	if interval <= 0 {
		interval = manager.HeartbeatInterval()
	}

	cron, err := gocron.NewScheduler(gocron.WithClock(manager.clock))
	if err != nil {
		return nil, fmt.Errorf("agentmanager: failed to create sweep scheduler: %w", err)
	}

	s := &Sweeper{
		manager: manager,
		cron:    cron,
		logger:  logger.Named("sweeper"),
	}

	_, err = cron.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.sweep),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("agentmanager: failed to schedule sweep job: %w", err)
	}

	return s, nil
}

// Start begins sweeping. Call Stop to shut down.
func (s *Sweeper) Start(ctx context.Context) {
	s.cron.Start()
	context.AfterFunc(ctx, func() {
		if err := s.cron.Shutdown(); err != nil {
			s.logger.Warn("sweep scheduler shutdown error", zap.Error(err))
		}
	})
}

// Stop shuts the sweep scheduler down, waiting for an in-flight sweep.
func (s *Sweeper) Stop() error {
	return s.cron.Shutdown()
}

// sweep marks every stale agent Unreachable. Internal state change only —
// nothing is reported to the agent, which will flip back to its reported
// status on the next heartbeat.
func (s *Sweeper) sweep() {
	m := s.manager
	now := m.clock.Now()

	m.mu.RLock()
	agents := make([]*Agent, 0, len(m.agents))
	for _, a := range m.agents {
		agents = append(agents, a)
	}
	m.mu.RUnlock()

	for _, agent := range agents {
		agent.mu.Lock()
		stale := now.Sub(agent.lastHeartbeat) > m.staleThreshold
		if stale && agent.status != types.AgentStatusUnreachable {
			agent.status = types.AgentStatusUnreachable
			s.logger.Info("agent marked unreachable",
				zap.String("agent_id", agent.ID),
				zap.Time("last_heartbeat", agent.lastHeartbeat),
			)
		}
		agent.mu.Unlock()
	}
}
