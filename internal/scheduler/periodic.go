package scheduler

import (
	"context"
	"time"

	"realty_portal_backend/platform/config"
	"realty_portal_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Periodic enqueues the lead sweep on a cron schedule. Only one Periodic
// should run per deployment; every worker may consume the tasks.
type Periodic struct {
	scheduler *asynq.Scheduler
	queue     string
	log       *logger.Logger
}

func NewPeriodic(cfg config.SchedulerConfig, log *logger.Logger) (*Periodic, error) {
	opt, queue, err := connOpt(cfg)
	if err != nil {
		return nil, err
	}

	return newPeriodic(opt, queue, log), nil
}

func newPeriodic(opt asynq.RedisConnOpt, queue string, log *logger.Logger) *Periodic {
	return &Periodic{
		scheduler: asynq.NewScheduler(opt, &asynq.SchedulerOpts{
			Location: time.UTC,
			PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
				if err != nil {
					log.Warn("periodic enqueue failed", "error", err)
				}
			},
		}),
		queue: queue,
		log:   log,
	}
}

// RegisterLeadSweep schedules the sweep. schedule accepts cron expressions and
// descriptors such as "@every 2m".
func (p *Periodic) RegisterLeadSweep(schedule string, maxAge time.Duration) (string, error) {
	task, err := NewLeadExpireSweepTask(LeadExpireSweepPayload{MaxAgeMinutes: minutes(maxAge)})
	if err != nil {
		return "", err
	}

	entryID, err := p.scheduler.Register(schedule, task, asynq.Queue(p.queue), asynq.MaxRetry(1))
	if err != nil {
		return "", err
	}
	p.log.Info("registered periodic lead sweep", "schedule", schedule, "entry", entryID)
	return entryID, nil
}

// Run blocks until ctx is cancelled.
func (p *Periodic) Run(ctx context.Context) error {
	if err := p.scheduler.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	p.scheduler.Shutdown()
	return nil
}
