package jobs

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"studyroom/internal/ops"
	"studyroom/internal/session"
)

// JanitorConfig controls the periodic room sweep.
type JanitorConfig struct {
	Schedule string // cron expression
}

// Janitor periodically logs room summaries and refreshes the ops status
// cache. Room deletion itself is handled by the registry's grace-period
// timers; the janitor only reports.
type Janitor struct {
	registry *session.Registry
	status   *ops.StatusCache
	config   *JanitorConfig
	log      *zap.Logger
	cron     *cron.Cron
}

func NewJanitor(registry *session.Registry, status *ops.StatusCache, config *JanitorConfig, log *zap.Logger) *Janitor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Janitor{
		registry: registry,
		status:   status,
		config:   config,
		log:      log,
	}
}

func (j *Janitor) Start() error {
	j.cron = cron.New()
	if _, err := j.cron.AddFunc(j.config.Schedule, j.Sweep); err != nil {
		return err
	}
	j.cron.Start()
	return nil
}

func (j *Janitor) Stop() {
	if j.cron != nil {
		j.cron.Stop()
	}
}

// Sweep reports every active room and mirrors its summary into Redis.
func (j *Janitor) Sweep() {
	ctx := context.Background()
	summaries := j.registry.Summaries()
	for _, s := range summaries {
		if j.status != nil {
			j.status.UpdateRoom(ctx, s)
		}
	}
	j.log.Info("room sweep completed", zap.Int("rooms", len(summaries)))
}
