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

package repo

import (
	"context"
	"fmt"

	"github.com/go-arcade/squadio/internal/ledger/model"
	"github.com/go-arcade/squadio/pkg/database"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveUser       = errors.New("user is not active")
)

// immutableColumns are never written by an update.
var immutableColumns = []string{"id", "squad_id", "created_at"}

// Repositories groups every ledger repository over one *gorm.DB, which is
// either the pool or an open transaction.
type Repositories struct {
	db            *gorm.DB
	Squads        ISquadRepository
	Users         IUserRepository
	IOs           IIORepository
	Seconds       ISecondRepository
	Rankings      IRankingRepository
	Notifications INotificationRepository
}

// NewRepositories binds all repositories to db.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:            db,
		Squads:        NewSquadRepo(db),
		Users:         NewUserRepo(db),
		IOs:           NewIORepo(db),
		Seconds:       NewSecondRepo(db),
		Rankings:      NewRankingRepo(db),
		Notifications: NewNotificationRepo(db),
	}
}

// DB returns the handle the repositories are bound to.
func (r *Repositories) DB() *gorm.DB {
	return r.db
}

// Transaction runs fn with repositories bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
	return database.Classify(err)
}

// Page selects a window of a listing. A zero Page returns the first 100 rows.
type Page struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

func paginate(p Page) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if p.Page > 0 && p.PageSize > 0 {
			return db.Offset((p.Page - 1) * p.PageSize).Limit(p.PageSize)
		}
		return db.Limit(100)
	}
}

// inSquad confines a query to one tenant.
func inSquad(squadID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("squad_id = ?", squadID)
	}
}

// wrap maps storage errors onto the package and database taxonomies.
func wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return database.Classify(err)
}

func Count(tx *gorm.DB) (int64, error) {
	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return 0, wrap(err)
	}
	return count, nil
}

// requireSquad fails with a foreign key violation unless the squad exists
// and is not soft-deleted.
func requireSquad(tx *gorm.DB, table string, squadID uuid.UUID) error {
	n, err := Count(tx.Model(&model.Squad{}).Where("id = ?", squadID))
	if err != nil {
		return err
	}
	if n == 0 {
		return database.NewConstraintError(database.KindForeignKey, table,
			fmt.Sprintf("squad %s does not exist", squadID), "squad_id")
	}
	return nil
}

// lockSquad takes a row lock on the squad so writers that check
// squad-wide rules run one at a time. SQLite serializes writers on its own
// and its dialect drops the locking clause.
func lockSquad(tx *gorm.DB, squadID uuid.UUID) error {
	return tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Where("id = ?", squadID).
		First(&model.Squad{}).Error
}

// requireMember fails with a foreign key violation unless userID is a live
// user of squadID. References across squads are treated as dangling.
func requireMember(tx *gorm.DB, table, column string, squadID, userID uuid.UUID) error {
	n, err := Count(tx.Model(&model.User{}).Scopes(inSquad(squadID)).Where("id = ?", userID))
	if err != nil {
		return err
	}
	if n == 0 {
		return database.NewConstraintError(database.KindForeignKey, table,
			fmt.Sprintf("%s %s is not a member of squad %s", column, userID, squadID), column)
	}
	return nil
}

func rowsOrNotFound(res *gorm.DB) error {
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
