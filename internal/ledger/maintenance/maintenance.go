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

// Package maintenance keeps the ledger database healthy: health checks,
// retention purges, performance reports, backups and restores. Every
// operation returns a report and never an error.
package maintenance

import (
	"sync"
	"time"

	"github.com/go-arcade/squadio/pkg/database"
	"github.com/go-arcade/squadio/pkg/id"
	"github.com/go-arcade/squadio/pkg/log"
	"github.com/go-arcade/squadio/pkg/runner"
	"github.com/go-arcade/squadio/pkg/storage"
)

// Report statuses.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusSuccess   = "success"
	StatusError     = "error"
)

// Operation names, used in logs and metric labels.
const (
	OpHealth      = "health"
	OpPurge       = "purge"
	OpPerformance = "performance"
	OpBackup      = "backup"
	OpRestore     = "restore"
)

const DefaultRetentionDays = 30

// Config tunes maintenance. Schedules use cron syntax; an empty schedule
// disables that job in the daemon.
type Config struct {
	RetentionDays int    `mapstructure:"retention_days"`
	BackupDir     string `mapstructure:"backup_dir"`
	PgDump        string `mapstructure:"pg_dump"`
	Psql          string `mapstructure:"psql"`
	ToolTimeout   int    `mapstructure:"tool_timeout"` // seconds

	HealthSchedule string `mapstructure:"health_schedule"`
	PurgeSchedule  string `mapstructure:"purge_schedule"`
	BackupSchedule string `mapstructure:"backup_schedule"`
}

func (c Config) SetDefaults() Config {
	if c.RetentionDays <= 0 {
		c.RetentionDays = DefaultRetentionDays
	}
	if c.BackupDir == "" {
		c.BackupDir = "./backups"
	}
	if c.PgDump == "" {
		c.PgDump = "pg_dump"
	}
	if c.Psql == "" {
		c.Psql = "psql"
	}
	if c.ToolTimeout <= 0 {
		c.ToolTimeout = 3600
	}
	return c
}

func (c Config) toolTimeout() time.Duration {
	return time.Duration(c.ToolTimeout) * time.Second
}

// Recorder observes finished runs.
type Recorder interface {
	RecordRun(operation, status string, ok bool, duration time.Duration)
	RecordPurged(table string, rows int64)
	RecordHealth(healthy bool)
}

type nopRecorder struct{}

func (nopRecorder) RecordRun(string, string, bool, time.Duration) {}
func (nopRecorder) RecordPurged(string, int64)                   {}
func (nopRecorder) RecordHealth(bool)                            {}

// Report is the part every maintenance report shares.
type Report struct {
	Operation string        `json:"operation"`
	Status    string        `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	RunID     string        `json:"runId"`
	Duration  time.Duration `json:"duration"`
	Message   string        `json:"message,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// OK reports whether the run succeeded.
func (r *Report) OK() bool {
	return r.Status == StatusSuccess || r.Status == StatusHealthy
}

type Option func(*Service)

func WithRunner(r runner.Runner) Option {
	return func(s *Service) { s.runner = r }
}

func WithStatsSource(src StatsSource) Option {
	return func(s *Service) { s.stats = src }
}

func WithArchive(a storage.Archive) Option {
	return func(s *Service) { s.archive = a }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

type Service struct {
	m        database.Manager
	mu       sync.RWMutex
	cfg      Config
	runner   runner.Runner
	stats    StatsSource
	archive  storage.Archive
	recorder Recorder
	now      func() time.Time
}

func NewService(m database.Manager, cfg Config, opts ...Option) *Service {
	s := &Service{
		m:        m,
		cfg:      cfg.SetDefaults(),
		runner:   runner.NewExecRunner(),
		recorder: nopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

func (s *Service) begin(op string) (Report, time.Time) {
	start := s.now()
	return Report{
		Operation: op,
		Timestamp: start.UTC(),
		RunID:     id.RunID(),
	}, start
}

// finish stamps the outcome onto r, logs it and records metrics.
func (s *Service) finish(r *Report, start time.Time, err error, okStatus, failStatus string) {
	r.Duration = s.now().Sub(start)
	if err != nil {
		r.Status = failStatus
		r.Error = err.Error()
		log.Errorw("maintenance run failed",
			"operation", r.Operation, "run_id", r.RunID, "duration", r.Duration, "error", err)
	} else {
		r.Status = okStatus
		log.Infow("maintenance run finished",
			"operation", r.Operation, "run_id", r.RunID, "duration", r.Duration, "message", r.Message)
	}
	s.recorder.RecordRun(r.Operation, r.Status, err == nil, r.Duration)
}
