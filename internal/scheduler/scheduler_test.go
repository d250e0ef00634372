package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"

	"realty_portal_backend/platform/logger"
)

type fakeSweeper struct {
	mu      sync.Mutex
	calls   []time.Duration
	expired int
	err     error
}

func (f *fakeSweeper) SweepStaleLeads(_ context.Context, maxAge time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, maxAge)
	return f.expired, f.err
}

func (f *fakeSweeper) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type schedulerCfg struct {
	redisURL string
}

func (c schedulerCfg) GetRedisURL() string          { return c.redisURL }
func (c schedulerCfg) GetRedisTLSInsecure() bool    { return false }
func (c schedulerCfg) GetAsynqQueueName() string    { return "" }
func (c schedulerCfg) GetAsynqConcurrency() int     { return 0 }
func (c schedulerCfg) GetLeadSweepSchedule() string { return "@every 2m" }

func TestParseLeadExpireSweepPayload(t *testing.T) {
	task, err := NewLeadExpireSweepTask(LeadExpireSweepPayload{MaxAgeMinutes: 30})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Type() != TaskLeadExpireSweep {
		t.Fatalf("unexpected task type %q", task.Type())
	}

	payload, err := ParseLeadExpireSweepPayload(task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.MaxAge() != 30*time.Minute {
		t.Fatalf("expected 30m, got %s", payload.MaxAge())
	}

	empty, err := ParseLeadExpireSweepPayload(asynq.NewTask(TaskLeadExpireSweep, nil))
	if err != nil || empty.MaxAge() != 0 {
		t.Fatalf("expected empty payload to mean default window, got %v %v", empty, err)
	}

	if _, err := ParseLeadExpireSweepPayload(asynq.NewTask(TaskLeadExpireSweep, []byte(`{"maxAgeMinutes":-5}`))); err == nil {
		t.Fatal("expected negative max age to be rejected")
	}
	if _, err := NewLeadExpireSweepTask(LeadExpireSweepPayload{MaxAgeMinutes: -1}); err == nil {
		t.Fatal("expected negative max age to be rejected")
	}
}

func TestWorkerHandlesSweepTask(t *testing.T) {
	sweeper := &fakeSweeper{expired: 3}
	w := newWorker(sweeper, logger.Nop())

	task, _ := NewLeadExpireSweepTask(LeadExpireSweepPayload{MaxAgeMinutes: 15})
	if err := w.mux.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sweeper.calls) != 1 || sweeper.calls[0] != 15*time.Minute {
		t.Fatalf("expected one sweep with 15m window, got %v", sweeper.calls)
	}
}

func TestWorkerSkipsRetryOnBadPayload(t *testing.T) {
	w := newWorker(&fakeSweeper{}, logger.Nop())

	err := w.mux.ProcessTask(context.Background(), asynq.NewTask(TaskLeadExpireSweep, []byte("not json")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}

func TestWorkerPropagatesSweepFailure(t *testing.T) {
	w := newWorker(&fakeSweeper{err: errors.New("db down")}, logger.Nop())

	task, _ := NewLeadExpireSweepTask(LeadExpireSweepPayload{})
	if err := w.mux.ProcessTask(context.Background(), task); err == nil {
		t.Fatal("expected sweep error to be returned for retry")
	}
}

func TestRedisClientOpt(t *testing.T) {
	opt, err := redisClientOpt("redis://:pw@localhost:6380/2", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opt.Addr != "localhost:6380" || opt.Password != "pw" || opt.DB != 2 || opt.TLSConfig != nil {
		t.Fatalf("unexpected options: %+v", opt)
	}

	tlsOpt, err := redisClientOpt("rediss://localhost:6380", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tlsOpt.TLSConfig == nil || !tlsOpt.TLSConfig.InsecureSkipVerify {
		t.Fatal("expected insecure tls config")
	}

	if _, err := NewClient(schedulerCfg{}); err == nil {
		t.Fatal("expected error without redis url")
	}
}

func TestClientEnqueuesLeadSweep(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(schedulerCfg{redisURL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = client.Close() }()

	if err := client.EnqueueLeadSweep(context.Background(), 10*time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Second call lands inside the unique window and is swallowed.
	if err := client.EnqueueLeadSweep(context.Background(), 10*time.Minute); err != nil {
		t.Fatalf("expected duplicate to be ignored, got %v", err)
	}
}

func TestPeriodicRegistersLeadSweep(t *testing.T) {
	mr := miniredis.RunT(t)
	p := newPeriodic(asynq.RedisClientOpt{Addr: mr.Addr()}, "default", logger.Nop())

	id, err := p.RegisterLeadSweep("@every 2m", 15*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Fatal("expected entry id")
	}

	if _, err := p.RegisterLeadSweep("every now and then", 0); err == nil {
		t.Fatal("expected invalid schedule to be rejected")
	}
}

func TestCronRunnerSweeps(t *testing.T) {
	if _, err := NewCronRunner("not a schedule", &fakeSweeper{}, 0, logger.Nop()); err == nil {
		t.Fatal("expected invalid schedule to be rejected")
	}

	sweeper := &fakeSweeper{expired: 1}
	r, err := NewCronRunner("@every 1s", sweeper, 5*time.Minute, logger.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Direct invocation; the loop itself is robfig/cron's concern.
	r.sweep()
	if sweeper.callCount() != 1 || sweeper.calls[0] != 5*time.Minute {
		t.Fatalf("expected one 5m sweep, got %v", sweeper.calls)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.Run(ctx)
}
