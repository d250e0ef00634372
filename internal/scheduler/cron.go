package scheduler

import (
	"context"
	"time"

	"realty_portal_backend/internal/leads"
	"realty_portal_backend/platform/logger"

	"github.com/robfig/cron/v3"
)

const cronSweepTimeout = time.Minute

// CronRunner drives the lead sweep in-process when Redis is not configured.
// Overlapping runs are skipped rather than queued.
type CronRunner struct {
	cron    *cron.Cron
	sweeper leads.Sweeper
	maxAge  time.Duration
	log     *logger.Logger
}

func NewCronRunner(schedule string, sweeper leads.Sweeper, maxAge time.Duration, log *logger.Logger) (*CronRunner, error) {
	r := &CronRunner{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		sweeper: sweeper,
		maxAge:  maxAge,
		log:     log,
	}

	if _, err := r.cron.AddFunc(schedule, r.sweep); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *CronRunner) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), cronSweepTimeout)
	defer cancel()

	expired, err := r.sweeper.SweepStaleLeads(ctx, r.maxAge)
	if err != nil {
		r.log.Warn("lead sweep failed", "error", err)
		return
	}
	if expired > 0 {
		r.log.Info("lead sweep expired stale leads", "expired", expired)
	}
}

// Run starts the cron loop and blocks until ctx is cancelled and the
// in-flight sweep has finished.
func (r *CronRunner) Run(ctx context.Context) {
	r.cron.Start()
	<-ctx.Done()
	<-r.cron.Stop().Done()
}
