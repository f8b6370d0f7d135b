// Package cron runs the periodic subscription sweeps: expiring overdue
// subscriptions and pushing renewal reminders.
package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/smartpos/smartpos-backend/pkg/logger"
)

const defaultInterval = time.Hour

// Job is one unit of periodic work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type leaseHolder interface {
	Hold(ctx context.Context, fn func(context.Context) error) (bool, error)
}

type runObserver interface {
	Observe(job string, took time.Duration, err error)
}

type SchedulerParams struct {
	Logger   *logger.Logger
	Lease    leaseHolder
	Metrics  runObserver
	Interval time.Duration
}

// Scheduler runs its jobs in registration order once per interval.
type Scheduler struct {
	logg     *logger.Logger
	lease    leaseHolder
	metrics  runObserver
	interval time.Duration
	jobs     []Job
}

func NewScheduler(params SchedulerParams, jobs ...Job) (*Scheduler, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.Lease == nil {
		return nil, errors.New("lease required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	s := &Scheduler{
		logg:     params.Logger,
		lease:    params.Lease,
		metrics:  params.Metrics,
		interval: interval,
	}
	for _, job := range jobs {
		s.Add(job)
	}
	return s, nil
}

// Add appends a job. Nil jobs are ignored.
func (s *Scheduler) Add(job Job) {
	if job == nil {
		return
	}
	s.jobs = append(s.jobs, job)
}

// Jobs returns the registered job names.
func (s *Scheduler) Jobs() []string {
	names := make([]string, 0, len(s.jobs))
	for _, job := range s.jobs {
		names = append(names, job.Name())
	}
	return names
}

// RunOnce executes every job under the lease. A failing job does not stop the
// ones after it; failures are combined into the returned error.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	held, err := s.lease.Hold(ctx, s.runJobs)
	if !held && err == nil {
		s.logg.Info(ctx, "cron lease held elsewhere, skipping cycle")
	}
	return err
}

func (s *Scheduler) runJobs(ctx context.Context) error {
	var errs error
	for _, job := range s.jobs {
		if ctx.Err() != nil {
			return multierr.Append(errs, ctx.Err())
		}
		jobCtx := s.logg.WithField(ctx, "job", job.Name())
		start := time.Now()
		err := job.Run(jobCtx)
		if s.metrics != nil {
			s.metrics.Observe(job.Name(), time.Since(start), err)
		}
		if err != nil {
			s.logg.Error(jobCtx, "cron job failed", err)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", job.Name(), err))
		}
	}
	return errs
}

// Run executes a cycle immediately and then once per interval until ctx is
// cancelled. Cycle failures are logged, not returned.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			s.logg.Error(ctx, "cron cycle finished with errors", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
