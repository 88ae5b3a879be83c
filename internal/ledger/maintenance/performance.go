package maintenance

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-arcade/squadio/pkg/database"
	"github.com/go-arcade/squadio/pkg/parallel"
	"gorm.io/gorm"
)

// ErrStatsUnsupported is reported when no statistics source exists for the
// connected engine.
var ErrStatsUnsupported = errors.New("performance statistics are only available on postgres")

type TableSize struct {
	Table      string `json:"table" gorm:"column:table_name"`
	TotalBytes int64  `json:"totalBytes" gorm:"column:total_bytes"`
	TableBytes int64  `json:"tableBytes" gorm:"column:table_bytes"`
	IndexBytes int64  `json:"indexBytes" gorm:"column:index_bytes"`
	TotalSize  string `json:"totalSize" gorm:"column:total_size"`
}

type IndexUsage struct {
	Schema        string `json:"schema" gorm:"column:schemaname"`
	Table         string `json:"table" gorm:"column:table_name"`
	Index         string `json:"index" gorm:"column:index_name"`
	Scans         int64  `json:"scans" gorm:"column:number_of_scans"`
	TuplesRead    int64  `json:"tuplesRead" gorm:"column:tuples_read"`
	TuplesFetched int64  `json:"tuplesFetched" gorm:"column:tuples_fetched"`
}

// StatsSource answers the three performance queries.
type StatsSource interface {
	TableSizes(ctx context.Context) ([]TableSize, error)
	IndexUsage(ctx context.Context) ([]IndexUsage, error)
	ActiveConnections(ctx context.Context) (int64, error)
}

type PerformanceReport struct {
	Report
	TableSizes        []TableSize  `json:"tableSizes"`
	IndexUsage        []IndexUsage `json:"indexUsage"`
	ActiveConnections int64        `json:"activeConnections"`
}

// Performance runs the three statistics queries concurrently. Any failure
// fails the whole report.
func (s *Service) Performance(ctx context.Context) PerformanceReport {
	base, start := s.begin(OpPerformance)
	report := PerformanceReport{Report: base}

	src, err := s.statsSource()
	if err != nil {
		s.finish(&report.Report, start, err, StatusSuccess, StatusError)
		return report
	}

	var (
		sizes  []TableSize
		usage  []IndexUsage
		active int64
	)
	g := parallel.GoGroup(ctx)
	g.Go(func(ctx context.Context) (err error) {
		sizes, err = src.TableSizes(ctx)
		return wrapStat("table sizes", err)
	})
	g.Go(func(ctx context.Context) (err error) {
		usage, err = src.IndexUsage(ctx)
		return wrapStat("index usage", err)
	})
	g.Go(func(ctx context.Context) (err error) {
		active, err = src.ActiveConnections(ctx)
		return wrapStat("active connections", err)
	})
	if err := g.Wait(); err != nil {
		s.finish(&report.Report, start, err, StatusSuccess, StatusError)
		return report
	}

	report.TableSizes = sizes
	report.IndexUsage = usage
	report.ActiveConnections = active
	s.finish(&report.Report, start, nil, StatusSuccess, StatusError)
	return report
}

func (s *Service) statsSource() (StatsSource, error) {
	if s.stats != nil {
		return s.stats, nil
	}
	if s.m.Dialect() == "postgres" {
		return NewPostgresStats(s.m.DB()), nil
	}
	return nil, ErrStatsUnsupported
}

func wrapStat(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", what, database.Classify(err))
}

// PostgresStats reads the pg_stat views of the connected database.
type PostgresStats struct {
	db *gorm.DB
}

func NewPostgresStats(db *gorm.DB) *PostgresStats {
	return &PostgresStats{db: db}
}

const (
	tableSizesSQL = `
SELECT relname AS table_name,
       pg_total_relation_size(relid) AS total_bytes,
       pg_relation_size(relid) AS table_bytes,
       pg_total_relation_size(relid) - pg_relation_size(relid) AS index_bytes,
       pg_size_pretty(pg_total_relation_size(relid)) AS total_size
FROM pg_catalog.pg_statio_user_tables
ORDER BY pg_total_relation_size(relid) DESC`

	indexUsageSQL = `
SELECT schemaname,
       relname AS table_name,
       indexrelname AS index_name,
       idx_scan AS number_of_scans,
       idx_tup_read AS tuples_read,
       idx_tup_fetch AS tuples_fetched
FROM pg_catalog.pg_stat_user_indexes
ORDER BY idx_scan DESC`

	activeConnectionsSQL = `
SELECT count(*) FROM pg_stat_activity
WHERE state = 'active' AND datname = current_database()`
)

func (p *PostgresStats) TableSizes(ctx context.Context) ([]TableSize, error) {
	var out []TableSize
	err := p.db.WithContext(ctx).Raw(tableSizesSQL).Scan(&out).Error
	return out, err
}

func (p *PostgresStats) IndexUsage(ctx context.Context) ([]IndexUsage, error) {
	var out []IndexUsage
	err := p.db.WithContext(ctx).Raw(indexUsageSQL).Scan(&out).Error
	return out, err
}

func (p *PostgresStats) ActiveConnections(ctx context.Context) (int64, error) {
	var n int64
	err := p.db.WithContext(ctx).Raw(activeConnectionsSQL).Scan(&n).Error
	return n, err
}
