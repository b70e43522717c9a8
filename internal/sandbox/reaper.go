package sandbox

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// defaultReapInterval is how often Deleted records are purged. One cycle of
// retention gives clients a window to observe the Deleted status before the
// record disappears entirely.
const defaultReapInterval = time.Minute

// Reaper periodically purges sandbox records that have reached Deleted.
type Reaper struct {
	registry *Registry
	cron     gocron.Scheduler
	logger   *zap.Logger
}

// NewReaper creates a reaper running every interval (zero = one minute).
func NewReaper(registry *Registry, interval time.Duration, logger *zap.Logger) (*Reaper, error) {
	if interval <= 0 {
		interval = defaultReapInterval
	}

	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("sandbox: failed to create reap scheduler: %w", err)
	}

	r := &Reaper{
		registry: registry,
		cron:     cron,
		logger:   logger.Named("reaper"),
	}

	_, err = cron.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(r.reap),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("sandbox: failed to schedule reap job: %w", err)
	}

	return r, nil
}

// Start begins reaping until ctx is cancelled.
func (r *Reaper) Start(ctx context.Context) {
	r.cron.Start()
	context.AfterFunc(ctx, func() {
		if err := r.cron.Shutdown(); err != nil {
			r.logger.Warn("reap scheduler shutdown error", zap.Error(err))
		}
	})
}

func (r *Reaper) reap() {
	if n := r.registry.PurgeDeleted(); n > 0 {
		r.logger.Info("purged deleted sandboxes", zap.Int("count", n))
	}
}
