package maintenance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-arcade/squadio/internal/ledger/model"
	"github.com/go-arcade/squadio/pkg/database"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// reference is a column of another table pointing at a purge target.
type reference struct {
	table, column string
}

type purgeTarget struct {
	table    string
	newModel func() any
	refs     []reference
}

// purgeTargets are the soft-deletable tables, children first so that a
// squad whose last users were just purged can go in the same run.
var purgeTargets = []purgeTarget{
	{
		table:    "users",
		newModel: func() any { return &model.User{} },
		refs: []reference{
			{"ios", "target_user_id"},
			{"ios", "nominator_id"},
			{"seconds", "user_id"},
			{"notifications", "user_id"},
		},
	},
	{
		table:    "squads",
		newModel: func() any { return &model.Squad{} },
		refs: []reference{
			{"users", "squad_id"},
			{"ios", "squad_id"},
			{"seconds", "squad_id"},
			{"rankings", "squad_id"},
			{"notifications", "squad_id"},
		},
	},
}

// TablePurge is the outcome for one table. Retained counts expired rows
// kept because permanent history still references them.
type TablePurge struct {
	Table    string `json:"table"`
	Deleted  int64  `json:"deleted"`
	Retained int64  `json:"retained"`
}

type PurgeReport struct {
	Report
	RetentionDays int          `json:"retentionDays"`
	Cutoff        time.Time    `json:"cutoff"`
	Tables        []TablePurge `json:"tables"`
	RolledBack    bool         `json:"rolledBack,omitempty"`
	Compacted     bool         `json:"compacted"`
}

// Purge physically deletes soft-deleted rows older than retentionDays
// (DefaultRetentionDays when not positive). All tables are purged in one
// transaction; the first failure rolls every table back. Storage is
// compacted after commit.
func (s *Service) Purge(ctx context.Context, retentionDays int) PurgeReport {
	if retentionDays <= 0 {
		retentionDays = s.Config().RetentionDays
	}
	base, start := s.begin(OpPurge)
	report := PurgeReport{
		Report:        base,
		RetentionDays: retentionDays,
		Cutoff:        start.UTC().AddDate(0, 0, -retentionDays),
	}

	var tables []TablePurge
	err := s.m.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, target := range purgeTargets {
			tp, err := purgeTable(tx, target, report.Cutoff)
			if err != nil {
				return errors.Wrapf(err, "purge %s", target.table)
			}
			tables = append(tables, tp)
		}
		return nil
	})
	if err != nil {
		report.RolledBack = true
		s.finish(&report.Report, start, database.Classify(err), StatusSuccess, StatusError)
		return report
	}

	report.Tables = tables
	var deleted int64
	for _, tp := range tables {
		deleted += tp.Deleted
		s.recorder.RecordPurged(tp.Table, tp.Deleted)
	}

	err = s.compact(ctx)
	report.Compacted = err == nil
	report.Message = fmt.Sprintf("purged %d rows soft-deleted before %s", deleted, report.Cutoff.Format(time.RFC3339))
	if err != nil {
		err = errors.Wrap(err, "purge committed, compaction failed")
	}
	s.finish(&report.Report, start, err, StatusSuccess, StatusError)
	return report
}

func purgeTable(tx *gorm.DB, target purgeTarget, cutoff time.Time) (TablePurge, error) {
	tp := TablePurge{Table: target.table}
	expired := func() *gorm.DB {
		return tx.Unscoped().Model(target.newModel()).
			Where(target.table+".deleted_at IS NOT NULL AND "+target.table+".deleted_at < ?", cutoff)
	}

	var candidates int64
	if err := expired().Count(&candidates).Error; err != nil {
		return tp, err
	}
	if candidates == 0 {
		return tp, nil
	}

	res := expired().Where(unreferenced(target)).Delete(target.newModel())
	if res.Error != nil {
		return tp, res.Error
	}
	tp.Deleted = res.RowsAffected
	tp.Retained = candidates - tp.Deleted
	return tp, nil
}

// unreferenced builds the NOT EXISTS guards for target's referencing columns.
func unreferenced(target purgeTarget) string {
	clauses := make([]string, 0, len(target.refs))
	for _, ref := range target.refs {
		clauses = append(clauses, fmt.Sprintf(
			"NOT EXISTS (SELECT 1 FROM %s r WHERE r.%s = %s.id)", ref.table, ref.column, target.table))
	}
	return strings.Join(clauses, " AND ")
}

// compact reclaims space. VACUUM cannot run inside a transaction.
func (s *Service) compact(ctx context.Context) error {
	db := s.m.DB().WithContext(ctx)
	switch s.m.Dialect() {
	case "postgres":
		for _, target := range purgeTargets {
			if err := db.Exec("VACUUM ANALYZE " + target.table).Error; err != nil {
				return database.Classify(err)
			}
		}
		return nil
	case "sqlite":
		return database.Classify(db.Exec("VACUUM").Error)
	default:
		return nil
	}
}
