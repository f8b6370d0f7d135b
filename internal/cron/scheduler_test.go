package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartpos/smartpos-backend/pkg/logger"
)

type memoryLeaseStore struct {
	values map[string]string
}

func (m *memoryLeaseStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryLeaseStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memoryLeaseStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

type recordingJob struct {
	name  string
	err   error
	calls int
}

func (j *recordingJob) Name() string { return j.name }

func (j *recordingJob) Run(context.Context) error {
	j.calls++
	return j.err
}

type observation struct {
	job string
	err error
}

type recordingObserver struct {
	seen []observation
}

func (r *recordingObserver) Observe(job string, _ time.Duration, err error) {
	r.seen = append(r.seen, observation{job: job, err: err})
}

func TestLeaseExcludesConcurrentHolder(t *testing.T) {
	store := &memoryLeaseStore{values: map[string]string{}}
	first, err := NewLease(store, "smartpos:lock:cron", 0)
	require.NoError(t, err)
	second, err := NewLease(store, "smartpos:lock:cron", time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	var innerHeld bool
	held, err := first.Hold(ctx, func(ctx context.Context) error {
		var innerErr error
		innerHeld, innerErr = second.Hold(ctx, func(context.Context) error {
			t.Fatal("second holder must not run")
			return nil
		})
		return innerErr
	})
	require.NoError(t, err)
	assert.True(t, held)
	assert.False(t, innerHeld)
	assert.Empty(t, store.values)
}

func TestLeaseKeepsForeignToken(t *testing.T) {
	store := &memoryLeaseStore{values: map[string]string{}}
	lease, err := NewLease(store, "k", time.Minute)
	require.NoError(t, err)

	held, err := lease.Hold(context.Background(), func(context.Context) error {
		store.values["k"] = "someone-else"
		return nil
	})
	require.NoError(t, err)
	assert.True(t, held)
	assert.Equal(t, "someone-else", store.values["k"])
}

func TestNewLeaseValidates(t *testing.T) {
	_, err := NewLease(nil, "k", time.Minute)
	assert.Error(t, err)
	_, err = NewLease(&memoryLeaseStore{}, "", time.Minute)
	assert.Error(t, err)
}

func TestSchedulerRunOnceRunsEveryJob(t *testing.T) {
	store := &memoryLeaseStore{values: map[string]string{}}
	lease, err := NewLease(store, "smartpos:lock:cron", time.Minute)
	require.NoError(t, err)
	observer := &recordingObserver{}
	failing := &recordingJob{name: "subscription-expiry", err: errors.New("db down")}
	healthy := &recordingJob{name: "expiry-reminder"}

	scheduler, err := NewScheduler(SchedulerParams{
		Logger:  logger.New(logger.Options{ServiceName: "test"}),
		Lease:   lease,
		Metrics: observer,
	}, failing, nil)
	require.NoError(t, err)
	scheduler.Add(healthy)
	assert.Equal(t, []string{"subscription-expiry", "expiry-reminder"}, scheduler.Jobs())

	err = scheduler.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subscription-expiry")
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, healthy.calls)
	require.Len(t, observer.seen, 2)
	assert.Error(t, observer.seen[0].err)
	assert.NoError(t, observer.seen[1].err)
	assert.Empty(t, store.values)
}

func TestSchedulerSkipsWhenLeaseTaken(t *testing.T) {
	store := &memoryLeaseStore{values: map[string]string{"smartpos:lock:cron": "other"}}
	lease, err := NewLease(store, "smartpos:lock:cron", time.Minute)
	require.NoError(t, err)
	job := &recordingJob{name: "subscription-expiry"}

	scheduler, err := NewScheduler(SchedulerParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		Lease:  lease,
	}, job)
	require.NoError(t, err)

	require.NoError(t, scheduler.RunOnce(context.Background()))
	assert.Zero(t, job.calls)
}

func TestSchedulerRunStopsOnCancel(t *testing.T) {
	store := &memoryLeaseStore{values: map[string]string{}}
	lease, err := NewLease(store, "k", time.Minute)
	require.NoError(t, err)
	job := &recordingJob{name: "subscription-expiry"}

	scheduler, err := NewScheduler(SchedulerParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Lease:    lease,
		Interval: time.Hour,
	}, job)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- scheduler.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.LessOrEqual(t, job.calls, 1)
	assert.Empty(t, store.values)
}

func TestNewSchedulerValidates(t *testing.T) {
	_, err := NewScheduler(SchedulerParams{})
	assert.Error(t, err)
	_, err = NewScheduler(SchedulerParams{Logger: logger.New(logger.Options{ServiceName: "test"})})
	assert.Error(t, err)
}
