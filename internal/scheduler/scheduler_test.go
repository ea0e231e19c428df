package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gidi_ingest/internal/domain"
)

type fakeJob struct {
	name  string
	calls atomic.Int32
	fails int32
	block bool
}

func (j *fakeJob) Name() string { return j.name }

func (j *fakeJob) Run(ctx context.Context) (*domain.RunSummary, error) {
	n := j.calls.Add(1)
	if j.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if n <= j.fails {
		return nil, domain.ErrPersistence
	}
	return &domain.RunSummary{Job: j.name}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestRunOnce_RetriesUntilSuccess(t *testing.T) {
	job := &fakeJob{name: "news", fails: 2}
	s := NewScheduler(nil, RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}, time.Second, testLogger())

	err := s.RunOnce(context.Background(), job)

	assert.NoError(t, err)
	assert.Equal(t, int32(3), job.calls.Load())
}

func TestRunOnce_GivesUp(t *testing.T) {
	job := &fakeJob{name: "venues", fails: 10}
	s := NewScheduler(nil, RetryPolicy{MaxAttempts: 2, InitialBackoff: time.Millisecond}, time.Second, testLogger())

	err := s.RunOnce(context.Background(), job)

	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, int32(2), job.calls.Load())
}

func TestRunOnce_StopsOnCancel(t *testing.T) {
	job := &fakeJob{name: "news", fails: 10}
	s := NewScheduler(nil, RetryPolicy{MaxAttempts: 5, InitialBackoff: time.Hour}, time.Second, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := s.RunOnce(ctx, job)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), job.calls.Load())
}

func TestRunOnce_AppliesRunTimeout(t *testing.T) {
	job := &fakeJob{name: "news", block: true}
	s := NewScheduler(nil, RetryPolicy{MaxAttempts: 1}, 20*time.Millisecond, testLogger())

	err := s.RunOnce(context.Background(), job)

	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestCalculateBackoff(t *testing.T) {
	s := NewScheduler(nil, RetryPolicy{MaxAttempts: 5, InitialBackoff: time.Second, MaxBackoff: 5 * time.Second}, 0, testLogger())

	assert.Equal(t, time.Second, s.calculateBackoff(1))
	assert.Equal(t, 2*time.Second, s.calculateBackoff(2))
	assert.Equal(t, 4*time.Second, s.calculateBackoff(3))
	assert.Equal(t, 5*time.Second, s.calculateBackoff(4))
}

func TestStart_RunsEachJobAtStartup(t *testing.T) {
	news := &fakeJob{name: "news"}
	venues := &fakeJob{name: "venues"}
	s := NewScheduler([]Entry{
		{Job: news, Schedule: "@every 1h"},
		{Job: venues, Schedule: "@every 6h"},
	}, RetryPolicy{MaxAttempts: 1}, time.Second, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool {
		return news.calls.Load() == 1 && venues.calls.Load() == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestStart_BadSchedule(t *testing.T) {
	s := NewScheduler([]Entry{{Job: &fakeJob{name: "news"}, Schedule: "every now and then"}}, RetryPolicy{}, 0, testLogger())

	err := s.Start(context.Background())

	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
