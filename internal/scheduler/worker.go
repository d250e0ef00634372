package scheduler

import (
	"context"
	"fmt"

	"realty_portal_backend/internal/leads"
	"realty_portal_backend/platform/config"
	"realty_portal_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	sweeper leads.Sweeper
	log     *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, sweeper leads.Sweeper, log *logger.Logger) (*Worker, error) {
	opt, queue, err := connOpt(cfg)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 5
	}

	w := newWorker(sweeper, log)
	w.server = asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})
	return w, nil
}

func newWorker(sweeper leads.Sweeper, log *logger.Logger) *Worker {
	mux := asynq.NewServeMux()
	w := &Worker{
		mux:     mux,
		sweeper: sweeper,
		log:     log,
	}
	mux.HandleFunc(TaskLeadExpireSweep, w.handleLeadSweep)
	return w
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleLeadSweep(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseLeadExpireSweepPayload(task)
	if err != nil {
		return fmt.Errorf("parse sweep payload: %v: %w", err, asynq.SkipRetry)
	}

	expired, err := w.sweeper.SweepStaleLeads(ctx, payload.MaxAge())
	if err != nil {
		return err
	}
	if expired > 0 {
		w.log.Info("lead sweep expired stale leads", "expired", expired, "maxAgeMinutes", payload.MaxAgeMinutes)
	}
	return nil
}
