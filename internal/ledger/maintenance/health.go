package maintenance

import (
	"context"

	"github.com/go-arcade/squadio/pkg/database"
)

type HealthReport struct {
	Report
	Pool database.PoolStats `json:"pool"`
}

// Health checks out a pooled connection within the acquisition timeout and
// round-trips SELECT 1.
func (s *Service) Health(ctx context.Context) HealthReport {
	base, start := s.begin(OpHealth)
	report := HealthReport{Report: base}

	err := s.ping(ctx)
	report.Pool = s.m.Stats()
	s.finish(&report.Report, start, err, StatusHealthy, StatusUnhealthy)
	s.recorder.RecordHealth(err == nil)
	return report
}

func (s *Service) ping(ctx context.Context) error {
	conn, err := s.m.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	var one int
	if err := conn.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return database.Classify(err)
	}
	return nil
}
