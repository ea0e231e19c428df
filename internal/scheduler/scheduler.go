package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"gidi_ingest/internal/domain"
)

// Job is one ingestion job, run on its own schedule.
type Job interface {
	Name() string
	Run(ctx context.Context) (*domain.RunSummary, error)
}

type Entry struct {
	Job      Job
	Schedule string
}

type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

type Scheduler struct {
	entries    []Entry
	retry      RetryPolicy
	runTimeout time.Duration
	logger     *slog.Logger
	cron       *cron.Cron
}

func NewScheduler(entries []Entry, retry RetryPolicy, runTimeout time.Duration, logger *slog.Logger) *Scheduler {
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = 1
	}
	return &Scheduler{
		entries:    entries,
		retry:      retry,
		runTimeout: runTimeout,
		logger:     logger,
		cron:       cron.New(cron.WithLogger(cronLogger{logger})),
	}
}

// Start runs every job once, then on its schedule, until ctx is done. A
// job still running when its next tick arrives skips that tick.
func (s *Scheduler) Start(ctx context.Context) error {
	skip := cron.NewChain(cron.SkipIfStillRunning(cronLogger{s.logger}))

	jobs := make([]cron.Job, 0, len(s.entries))
	for _, e := range s.entries {
		job := skip.Then(cron.FuncJob(func() {
			if ctx.Err() != nil {
				return
			}
			if err := s.RunOnce(ctx, e.Job); err != nil {
				s.logger.Error("run failed", "job", e.Job.Name(), "error", err)
			}
		}))
		if _, err := s.cron.AddJob(e.Schedule, job); err != nil {
			return fmt.Errorf("%w: schedule %q for %s: %w", domain.ErrConfiguration, e.Schedule, e.Job.Name(), err)
		}
		s.logger.Info("job scheduled", "job", e.Job.Name(), "schedule", e.Schedule)
		jobs = append(jobs, job)
	}

	var wg sync.WaitGroup
	for _, job := range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			job.Run()
		}()
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.entries))

	<-ctx.Done()
	stopped := s.cron.Stop()
	<-stopped.Done()
	wg.Wait()
	s.logger.Info("scheduler stopped")
	return ctx.Err()
}

// RunOnce runs job under the run timeout, retrying a failed run with
// exponential backoff.
func (s *Scheduler) RunOnce(ctx context.Context, job Job) error {
	var err error
	for attempt := 1; attempt <= s.retry.MaxAttempts; attempt++ {
		err = s.runWithTimeout(ctx, job)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || errors.Is(err, domain.ErrConfiguration) {
			return err
		}
		if attempt == s.retry.MaxAttempts {
			break
		}

		backoff := s.calculateBackoff(attempt)
		s.logger.Warn("run failed, retrying",
			"job", job.Name(),
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("after %d attempts: %w", s.retry.MaxAttempts, err)
}

func (s *Scheduler) runWithTimeout(ctx context.Context, job Job) error {
	runCtx := ctx
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}
	_, err := job.Run(runCtx)
	return err
}

func (s *Scheduler) calculateBackoff(attempt int) time.Duration {
	backoff := s.retry.InitialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if s.retry.MaxBackoff > 0 && backoff > s.retry.MaxBackoff {
		backoff = s.retry.MaxBackoff
	}
	return backoff
}

// cronLogger routes cron's own logging through slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
