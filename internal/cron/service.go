package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/hopefultail/hopeful-tail-backend/pkg/logger"
	"github.com/hopefultail/hopeful-tail-backend/pkg/metrics"
)

const defaultInterval = 24 * time.Hour

// ErrLockHeld is returned by RunNow when another replica holds the lock.
var ErrLockHeld = fmt.Errorf("cron lock held by another worker")

type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
}

// Service runs registered jobs on a fixed cadence under a distributed lock.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  *metrics.CronJobMetrics
	interval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = &Registry{}
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:     params.Logger,
		registry: registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: interval,
	}, nil
}

// Run executes one cycle immediately and then one per interval until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	s.tick(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron.stopped")
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// RunNow runs the named jobs once, or every job when names is empty.
// Job failures are aggregated into the returned error.
func (s *Service) RunNow(ctx context.Context, names ...string) error {
	jobs := s.registry.Jobs()
	if len(names) > 0 {
		jobs = jobs[:0]
		for _, name := range names {
			job, ok := s.registry.Lookup(name)
			if !ok {
				return fmt.Errorf("unknown job %q", name)
			}
			jobs = append(jobs, job)
		}
	}
	var errs error
	locked, err := s.withLock(ctx, func() {
		for _, job := range jobs {
			errs = multierr.Append(errs, s.runJob(ctx, job))
		}
	})
	if err != nil {
		return err
	}
	if !locked {
		return ErrLockHeld
	}
	return errs
}

func (s *Service) tick(ctx context.Context) {
	_, err := s.withLock(ctx, func() {
		s.logg.Info(ctx, "cron.cycle_start")
		for _, job := range s.registry.Jobs() {
			_ = s.runJob(ctx, job)
		}
		s.logg.Info(ctx, "cron.cycle_complete")
	})
	if err != nil {
		s.logg.Error(ctx, "cron.cycle_failed", err)
	}
}

func (s *Service) withLock(ctx context.Context, fn func()) (bool, error) {
	lease, err := s.lock.TryLock(ctx)
	if err != nil {
		return false, fmt.Errorf("lock acquire: %w", err)
	}
	if lease == nil {
		s.logg.Info(ctx, "cron.lock_busy")
		return false, nil
	}
	defer func() {
		if err := lease.Release(ctx); err != nil {
			s.logg.Error(ctx, "cron.lock_release_failed", err)
		}
	}()
	fn()
	return true, nil
}

func (s *Service) runJob(ctx context.Context, job Job) error {
	jobCtx := s.logg.WithField(ctx, "job", job.Name())
	start := time.Now()
	err := job.Run(jobCtx)
	duration := time.Since(start)
	s.metrics.ObserveRun(job.Name(), duration, err)

	jobCtx = s.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "cron.job_failed", err)
		return fmt.Errorf("%s: %w", job.Name(), err)
	}
	s.logg.Info(jobCtx, "cron.job_complete")
	return nil
}
