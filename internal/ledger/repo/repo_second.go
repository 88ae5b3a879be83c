package repo

import (
	"context"
	"fmt"

	"github.com/go-arcade/squadio/internal/ledger/model"
	"github.com/go-arcade/squadio/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ISecondRepository interface {
	Create(ctx context.Context, s *model.Second) error
	ListByIO(ctx context.Context, squadID, ioID uuid.UUID) ([]*model.Second, error)
}

type SecondRepo struct {
	db *gorm.DB
}

func NewSecondRepo(db *gorm.DB) ISecondRepository {
	return &SecondRepo{db: db}
}

// Create records a corroboration. The IO and the seconding member must both
// belong to s's squad. The IO status is left alone; callers advance it with
// IOs.UpdateStatus.
func (r *SecondRepo) Create(ctx context.Context, s *model.Second) error {
	return wrap(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.IO{}).Scopes(inSquad(s.SquadID)).Where("id = ?", s.IOID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return database.NewConstraintError(database.KindForeignKey, "seconds",
				fmt.Sprintf("io %s does not exist in squad %s", s.IOID, s.SquadID), "io_id")
		}
		if err := requireMember(tx, "seconds", "user_id", s.SquadID, s.UserID); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(s).Error
	}))
}

func (r *SecondRepo) ListByIO(ctx context.Context, squadID, ioID uuid.UUID) ([]*model.Second, error) {
	var seconds []*model.Second
	err := r.db.WithContext(ctx).Scopes(inSquad(squadID)).
		Where("io_id = ?", ioID).
		Order("created_at ASC, id ASC").
		Find(&seconds).Error
	return seconds, wrap(err)
}
