package cron

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecorder struct {
	mu    sync.Mutex
	runs  map[string]int
	errs  map[string]int
	count int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{runs: map[string]int{}, errs: map[string]int{}}
}

func (r *fakeRecorder) RecordJobRun(name string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[name]++
	if err != nil {
		r.errs[name]++
	}
}

func (r *fakeRecorder) UpdateNextRun(string, time.Time) {}

func (r *fakeRecorder) UpdateJobsCount(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count = n
}

func (r *fakeRecorder) snapshot(name string) (runs, errs int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs[name], r.errs[name]
}

func TestCron_AddAndRemove(t *testing.T) {
	rec := newFakeRecorder()
	c := New(WithMetricsRecorder(rec))
	noop := func(context.Context) error { return nil }

	require.NoError(t, c.AddFunc("purge", "0 3 * * *", noop))
	require.NoError(t, c.AddFunc("health", "@every 1m", noop))
	assert.ErrorIs(t, c.AddFunc("purge", "0 4 * * *", noop), ErrDuplicateJob)
	assert.Error(t, c.AddFunc("broken", "not a spec", noop))
	assert.Equal(t, 2, rec.count)

	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "health", entries[0].Name)
	assert.Equal(t, "0 3 * * *", entries[1].Spec)

	require.NoError(t, c.Remove("health"))
	assert.ErrorIs(t, c.Remove("health"), ErrJobNotFound)
	assert.Len(t, c.Entries(), 1)
	assert.Equal(t, 1, rec.count)
}

func TestCron_WithSeconds(t *testing.T) {
	c := New(WithSeconds())
	require.NoError(t, c.AddFunc("fast", "*/5 * * * * *", func(context.Context) error { return nil }))

	c = New()
	assert.Error(t, c.AddFunc("fast", "*/5 * * * * *", func(context.Context) error { return nil }))
}

func TestCron_WrapRecordsRuns(t *testing.T) {
	rec := newFakeRecorder()
	c := New(WithMetricsRecorder(rec))

	c.wrap("ok", func(context.Context) error { return nil }).Run()
	c.wrap("bad", func(context.Context) error { return errors.New("boom") }).Run()

	runs, errs := rec.snapshot("ok")
	assert.Equal(t, 1, runs)
	assert.Zero(t, errs)
	runs, errs = rec.snapshot("bad")
	assert.Equal(t, 1, runs)
	assert.Equal(t, 1, errs)
}

func TestCron_RunsAndStops(t *testing.T) {
	rec := newFakeRecorder()
	c := New(WithMetricsRecorder(rec))

	var cancelled sync.WaitGroup
	cancelled.Add(1)
	var once sync.Once
	require.NoError(t, c.AddFunc("tick", "@every 1s", func(ctx context.Context) error {
		once.Do(func() {
			go func() {
				<-ctx.Done()
				cancelled.Done()
			}()
		})
		return nil
	}))

	c.Start()
	assert.Eventually(t, func() bool {
		runs, _ := rec.snapshot("tick")
		return runs >= 1
	}, 5*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Stop(ctx))
	cancelled.Wait()

	// stopping twice is a no-op
	require.NoError(t, c.Stop(ctx))
}
