package maintenance

import (
	"context"
	"fmt"

	"github.com/go-arcade/squadio/pkg/cron"
)

// Schedule registers the configured periodic jobs on c. A job fails, and is
// counted as failed, when its report is not OK.
func (s *Service) Schedule(c *cron.Cron) error {
	cfg := s.Config()
	jobs := []struct {
		name, spec string
		run        func(ctx context.Context) *Report
	}{
		{OpHealth, cfg.HealthSchedule, func(ctx context.Context) *Report {
			r := s.Health(ctx)
			return &r.Report
		}},
		{OpPurge, cfg.PurgeSchedule, func(ctx context.Context) *Report {
			r := s.Purge(ctx, s.Config().RetentionDays)
			return &r.Report
		}},
		{OpBackup, cfg.BackupSchedule, func(ctx context.Context) *Report {
			r := s.Backup(ctx, s.Config().BackupDir)
			return &r.Report
		}},
	}

	for _, j := range jobs {
		if j.spec == "" {
			continue
		}
		run := j.run
		err := c.AddFunc(j.name, j.spec, func(ctx context.Context) error {
			if r := run(ctx); !r.OK() {
				return fmt.Errorf("%s %s: %s", r.Operation, r.Status, r.Error)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Reschedule replaces the registered jobs after a configuration change.
func (s *Service) Reschedule(c *cron.Cron, cfg Config) error {
	for _, op := range []string{OpHealth, OpPurge, OpBackup} {
		_ = c.Remove(op)
	}
	s.mu.Lock()
	s.cfg = cfg.SetDefaults()
	s.mu.Unlock()
	return s.Schedule(c)
}
