package jobs

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Reaper tears down sessions idle for longer than ttl and returns their ids.
type Reaper interface {
	Reap(idleTTL time.Duration) []string
}

// ReaperConfig contains configuration for the reaper job
type ReaperConfig struct {
	Schedule string        // Cron schedule, e.g. "@every 10m"
	IdleTTL  time.Duration // Sessions untouched for this long are removed
	Enabled  bool
}

// SessionReaperJob periodically removes abandoned and finished sessions so
// their timers stop and their cached analyses are released.
type SessionReaperJob struct {
	sessions Reaper
	config   *ReaperConfig
	cron     *cron.Cron
	logger   *zap.Logger
}

func NewSessionReaperJob(sessions Reaper, config *ReaperConfig, logger *zap.Logger) *SessionReaperJob {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionReaperJob{
		sessions: sessions,
		config:   config,
		cron:     cron.New(),
		logger:   logger,
	}
}

// Start begins the scheduled reaping
func (j *SessionReaperJob) Start() error {
	if !j.config.Enabled {
		j.logger.Info("Session reaper is disabled, skipping scheduler")
		return nil
	}

	if _, err := j.cron.AddFunc(j.config.Schedule, func() { j.RunOnce() }); err != nil {
		return fmt.Errorf("failed to schedule session reaper: %w", err)
	}

	j.cron.Start()
	j.logger.Info("Session reaper started",
		zap.String("schedule", j.config.Schedule),
		zap.Duration("idle_ttl", j.config.IdleTTL))
	return nil
}

// Stop stops the scheduler and waits for a running pass to finish.
func (j *SessionReaperJob) Stop() {
	if j.cron != nil {
		<-j.cron.Stop().Done()
		j.logger.Info("Session reaper stopped")
	}
}

// RunOnce performs a single reaping pass and returns the removed session ids.
func (j *SessionReaperJob) RunOnce() []string {
	removed := j.sessions.Reap(j.config.IdleTTL)
	if len(removed) > 0 {
		j.logger.Info("Reaped idle sessions", zap.Int("count", len(removed)), zap.Strings("session_ids", removed))
	}
	return removed
}
