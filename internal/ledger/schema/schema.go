// Package schema creates and drops the six ledger tables.
package schema

import (
	"context"

	"github.com/go-arcade/squadio/internal/ledger/model"
	"github.com/go-arcade/squadio/pkg/database"
	"github.com/go-arcade/squadio/pkg/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Index names that struct tags cannot express because one side of the key
// lives in a shared column group.
const (
	IndexUsersSquadUsername = "uq_users_squad_username"
	IndexUsersEmail         = "uq_users_email"
	IndexSecondsIOUser      = "uq_seconds_io_user"
)

var extraDDL = []string{
	"CREATE UNIQUE INDEX IF NOT EXISTS " + IndexUsersSquadUsername + " ON users (squad_id, username)",
	"CREATE UNIQUE INDEX IF NOT EXISTS " + IndexSecondsIOUser + " ON seconds (io_id, user_id)",
}

// Tables lists table names parents first.
func Tables() []string {
	return []string{"squads", "users", "rankings", "ios", "seconds", "notifications"}
}

// Migrate creates or upgrades every table, foreign key, check constraint and
// index. It is idempotent.
func Migrate(ctx context.Context, db *gorm.DB) error {
	tx := db.WithContext(ctx)
	if err := tx.AutoMigrate(model.Models()...); err != nil {
		return errors.Wrap(database.Classify(err), "auto migrate")
	}
	for _, ddl := range extraDDL {
		if err := tx.Exec(ddl).Error; err != nil {
			return errors.Wrapf(database.Classify(err), "exec %q", ddl)
		}
	}
	log.Infow("schema migrated", "tables", len(Tables()))
	return nil
}

// Reset drops every ledger table, children first.
func Reset(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).Migrator().DropTable(model.Models()...); err != nil {
		return errors.Wrap(database.Classify(err), "drop tables")
	}
	log.Warnw("schema reset", "tables", Tables())
	return nil
}
