package repo

import (
	"context"

	"github.com/go-arcade/squadio/internal/ledger/model"
	"github.com/go-arcade/squadio/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ISquadRepository interface {
	Create(ctx context.Context, s *model.Squad) error
	Get(ctx context.Context, id uuid.UUID) (*model.Squad, error)
	List(ctx context.Context, page Page) ([]*model.Squad, int64, error)
	Update(ctx context.Context, id uuid.UUID, req *model.UpdateSquadReq) (*model.Squad, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) error
}

type SquadRepo struct {
	db *gorm.DB
}

func NewSquadRepo(db *gorm.DB) ISquadRepository {
	return &SquadRepo{db: db}
}

// Create inserts s. The id and timestamps are always generated.
func (r *SquadRepo) Create(ctx context.Context, s *model.Squad) error {
	return wrap(r.db.WithContext(ctx).Omit(clause.Associations).Create(s).Error)
}

func (r *SquadRepo) Get(ctx context.Context, id uuid.UUID) (*model.Squad, error) {
	var s model.Squad
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, wrap(err)
	}
	return &s, nil
}

func (r *SquadRepo) List(ctx context.Context, page Page) ([]*model.Squad, int64, error) {
	db := r.db.WithContext(ctx).Model(&model.Squad{}).Session(&gorm.Session{})
	total, err := Count(db)
	if err != nil {
		return nil, 0, err
	}
	var squads []*model.Squad
	err = db.Scopes(paginate(page)).Order("created_at ASC, id ASC").Find(&squads).Error
	return squads, total, wrap(err)
}

func (r *SquadRepo) Update(ctx context.Context, id uuid.UUID, req *model.UpdateSquadReq) (*model.Squad, error) {
	updates := map[string]any{}
	if req.Name != nil {
		if *req.Name == "" {
			return nil, database.NewConstraintError(database.KindNotNull, "squads", "name is required", "name")
		}
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Status != nil {
		if !model.IsLifecycleStatus(*req.Status) {
			return nil, database.NewConstraintError(database.KindCheck, "squads", "unknown squad status "+*req.Status, "status")
		}
		updates["status"] = *req.Status
	}
	if req.Settings != nil {
		var holder model.Squad
		if err := holder.SetSettings(req.Settings); err != nil {
			return nil, database.NewConstraintError(database.KindCheck, "squads", err.Error(), "settings")
		}
		updates["settings"] = holder.Settings
	}

	if len(updates) > 0 {
		res := r.db.WithContext(ctx).Model(&model.Squad{}).
			Omit(immutableColumns...).
			Where("id = ?", id).
			Updates(updates)
		if err := rowsOrNotFound(res); err != nil {
			return nil, err
		}
	}
	return r.Get(ctx, id)
}

func (r *SquadRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return rowsOrNotFound(r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Squad{}))
}

// Restore clears the deletion mark of a squad that has not been purged yet.
func (r *SquadRepo) Restore(ctx context.Context, id uuid.UUID) error {
	return rowsOrNotFound(r.db.WithContext(ctx).Unscoped().Model(&model.Squad{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Update("deleted_at", nil))
}
