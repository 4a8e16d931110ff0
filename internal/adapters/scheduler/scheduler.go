// Package scheduler runs periodic maintenance jobs, such as the cache
// freshness check, on cron specs.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/salesboard/pkg/logger"
	"github.com/okian/salesboard/pkg/metrics"
	"github.com/robfig/cron/v3"
)

// Default job specs.
const (
	DefaultRefreshSpec = "@every 1m"
	DefaultZoneSpec    = "@every 24h"
	jobTimeout         = 5 * time.Minute
)

// Job is one unit of periodic work. It should return once ctx is done.
type Job func(ctx context.Context)

// Scheduler runs named jobs. A job still running when its next tick fires
// is skipped.
type Scheduler struct {
	cron   *cron.Cron
	logger logger.Logger

	mu      sync.Mutex
	names   []string
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
}

// New returns an idle scheduler.
func New(opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		logger: logger.Get().Named("scheduler"),
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cron = cron.New(cron.WithChain(cron.Recover(cronLogger{s.logger}), cron.SkipIfStillRunning(cronLogger{s.logger})))
	return s
}

// Add registers job under name on spec, a standard cron expression or a
// descriptor such as "@every 15m".
func (s *Scheduler) Add(name, spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() { s.run(name, job) })
	if err != nil {
		return fmt.Errorf("%w: %s %q: %w", ErrInvalidSpec, name, spec, err)
	}
	s.mu.Lock()
	s.names = append(s.names, name)
	s.mu.Unlock()
	return nil
}

// Jobs lists registered job names in registration order.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.names...)
}

func (s *Scheduler) run(name string, job Job) {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()
	start := time.Now()
	metrics.RecordSchedulerTick()
	job(ctx)
	s.logger.Debug(ctx, "job finished",
		logger.String("job", name),
		logger.Duration("elapsed", time.Since(start)))
}

// Start begins firing jobs in the background.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.cron.Start()
	s.logger.Info(s.ctx, "scheduler started", logger.Int("jobs", len(s.names)))
}

// Shutdown stops scheduling, cancels running jobs and waits for them to
// return or for ctx to expire.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	stopped := s.cron.Stop()
	s.cancel()
	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		s.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	l logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(context.Background(), msg, fields(keysAndValues)...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(context.Background(), msg, append(fields(keysAndValues), logger.Error(err))...)
}

func fields(kv []any) []logger.Field {
	out := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, logger.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return out
}
