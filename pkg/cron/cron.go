// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cron schedules named jobs on top of robfig/cron.
package cron

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-arcade/squadio/pkg/log"
	robfig "github.com/robfig/cron/v3"
)

var (
	ErrDuplicateJob = errors.New("cron job already registered")
	ErrJobNotFound  = errors.New("cron job not found")
)

// Func is the body of a job. ctx is cancelled when the scheduler stops.
type Func func(ctx context.Context) error

// MetricsRecorder observes job runs.
type MetricsRecorder interface {
	RecordJobRun(jobName string, duration time.Duration, err error)
	UpdateNextRun(jobName string, nextRun time.Time)
	UpdateJobsCount(count int)
}

type noopRecorder struct{}

func (noopRecorder) RecordJobRun(string, time.Duration, error) {}
func (noopRecorder) UpdateNextRun(string, time.Time)           {}
func (noopRecorder) UpdateJobsCount(int)                       {}

// Entry describes a registered job.
type Entry struct {
	Name string
	Spec string
	Next time.Time
	Prev time.Time
}

type options struct {
	location *time.Location
	seconds  bool
	recorder MetricsRecorder
}

type OpOption func(*options)

// WithLocation interprets schedules in loc. Defaults to UTC.
func WithLocation(loc *time.Location) OpOption {
	return func(o *options) { o.location = loc }
}

// WithSeconds accepts six-field specs with a leading seconds field.
func WithSeconds() OpOption {
	return func(o *options) { o.seconds = true }
}

func WithMetricsRecorder(r MetricsRecorder) OpOption {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

type job struct {
	id   robfig.EntryID
	spec string
}

// Cron runs each job at most once at a time; a run still in progress when
// the next tick fires causes that tick to be skipped.
type Cron struct {
	c        *robfig.Cron
	location *time.Location
	recorder MetricsRecorder

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	jobs    map[string]job
	running bool
}

func New(opts ...OpOption) *Cron {
	o := &options{location: time.UTC, recorder: noopRecorder{}}
	for _, opt := range opts {
		opt(o)
	}

	logger := cronLogger{}
	cronOpts := []robfig.Option{
		robfig.WithLocation(o.location),
		robfig.WithLogger(logger),
		robfig.WithChain(robfig.Recover(logger), robfig.SkipIfStillRunning(logger)),
	}
	if o.seconds {
		cronOpts = append(cronOpts, robfig.WithSeconds())
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Cron{
		c:        robfig.New(cronOpts...),
		location: o.location,
		recorder: o.recorder,
		ctx:      ctx,
		cancel:   cancel,
		jobs:     make(map[string]job),
	}
}

// AddFunc registers fn under name. Names are unique per scheduler.
func (c *Cron) AddFunc(name, spec string, fn Func) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.jobs[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, name)
	}
	id, err := c.c.AddJob(spec, c.wrap(name, fn))
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	c.jobs[name] = job{id: id, spec: spec}
	c.recorder.UpdateJobsCount(len(c.jobs))
	if c.running {
		c.recorder.UpdateNextRun(name, c.c.Entry(id).Next)
	}
	log.Infow("cron job registered", "job", name, "spec", spec)
	return nil
}

func (c *Cron) Remove(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	j, ok := c.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	c.c.Remove(j.id)
	delete(c.jobs, name)
	c.recorder.UpdateJobsCount(len(c.jobs))
	return nil
}

// Entries lists registered jobs by name.
func (c *Cron) Entries() []*Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*Entry, 0, len(c.jobs))
	for name, j := range c.jobs {
		e := c.c.Entry(j.id)
		out = append(out, &Entry{Name: name, Spec: j.spec, Next: e.Next, Prev: e.Prev})
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Name < out[k].Name })
	return out
}

func (c *Cron) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.running = true
	c.c.Start()
	for name, j := range c.jobs {
		c.recorder.UpdateNextRun(name, c.c.Entry(j.id).Next)
	}
}

// Stop halts scheduling, cancels the context of running jobs and waits for
// them to return or for ctx to expire.
func (c *Cron) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = false
	c.mu.Unlock()

	done := c.c.Stop()
	c.cancel()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Cron) wrap(name string, fn Func) robfig.Job {
	return robfig.FuncJob(func() {
		start := time.Now()
		err := fn(c.ctx)
		elapsed := time.Since(start)

		c.recorder.RecordJobRun(name, elapsed, err)
		if err != nil {
			log.Errorw("cron job failed", "job", name, "duration", elapsed, "error", err)
		} else {
			log.Debugw("cron job finished", "job", name, "duration", elapsed)
		}

		c.mu.Lock()
		if j, ok := c.jobs[name]; ok {
			c.recorder.UpdateNextRun(name, c.c.Entry(j.id).Next)
		}
		c.mu.Unlock()
	})
}

// cronLogger routes robfig/cron logging into pkg/log.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debugw("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
