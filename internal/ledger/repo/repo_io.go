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

type IIORepository interface {
	Create(ctx context.Context, io *model.IO) error
	Get(ctx context.Context, squadID, id uuid.UUID) (*model.IO, error)
	List(ctx context.Context, squadID uuid.UUID, query *IOQuery) ([]*model.IO, int64, error)
	UpdateStatus(ctx context.Context, squadID, id uuid.UUID, to string) (*model.IO, error)
	PointsFor(ctx context.Context, squadID, userID uuid.UUID) (int, error)
}

// IOQuery filters an IO listing within one squad.
type IOQuery struct {
	TargetUserID uuid.UUID
	NominatorID  uuid.UUID
	Status       string
	Page
}

type IORepo struct {
	db *gorm.DB
}

func NewIORepo(db *gorm.DB) IIORepository {
	return &IORepo{db: db}
}

// Create inserts io after checking that both the target and the nominator
// are live members of io's squad. Zero points take the squad's default, and
// points outside the squad's configured range are rejected.
func (r *IORepo) Create(ctx context.Context, io *model.IO) error {
	return wrap(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var squad model.Squad
		if err := tx.Where("id = ?", io.SquadID).First(&squad).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return database.NewConstraintError(database.KindForeignKey, "ios",
					fmt.Sprintf("squad %s does not exist", io.SquadID), "squad_id")
			}
			return err
		}
		if err := requireMember(tx, "ios", "target_user_id", io.SquadID, io.TargetUserID); err != nil {
			return err
		}
		if err := requireMember(tx, "ios", "nominator_id", io.SquadID, io.NominatorID); err != nil {
			return err
		}
		if err := applyPointDefaults(&squad, io); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(io).Error
	}))
}

func applyPointDefaults(squad *model.Squad, io *model.IO) error {
	settings, err := squad.DecodeSettings()
	if err != nil || settings == nil {
		return err
	}
	p := settings.Points
	if io.Points == 0 {
		io.Points = p.DefaultPoints
	}
	if io.Points < p.MinPoints || io.Points > p.MaxPoints {
		return database.NewConstraintError(database.KindCheck, "ios",
			fmt.Sprintf("points %d outside squad range [%d, %d]", io.Points, p.MinPoints, p.MaxPoints), "points")
	}
	return nil
}

func (r *IORepo) Get(ctx context.Context, squadID, id uuid.UUID) (*model.IO, error) {
	var io model.IO
	if err := r.db.WithContext(ctx).Scopes(inSquad(squadID)).Where("id = ?", id).First(&io).Error; err != nil {
		return nil, wrap(err)
	}
	return &io, nil
}

func (r *IORepo) List(ctx context.Context, squadID uuid.UUID, query *IOQuery) ([]*model.IO, int64, error) {
	if query == nil {
		query = &IOQuery{}
	}
	db := r.db.WithContext(ctx).Model(&model.IO{}).Scopes(inSquad(squadID))
	if query.TargetUserID != uuid.Nil {
		db = db.Where("target_user_id = ?", query.TargetUserID)
	}
	if query.NominatorID != uuid.Nil {
		db = db.Where("nominator_id = ?", query.NominatorID)
	}
	if query.Status != "" {
		db = db.Where("status = ?", query.Status)
	}
	db = db.Session(&gorm.Session{})

	total, err := Count(db)
	if err != nil {
		return nil, 0, err
	}
	var ios []*model.IO
	err = db.Scopes(paginate(query.Page)).Order("created_at DESC, id ASC").Find(&ios).Error
	return ios, total, wrap(err)
}

// UpdateStatus moves an IO along its lifecycle. The write is conditional on
// the status read, so two concurrent transitions cannot both succeed.
func (r *IORepo) UpdateStatus(ctx context.Context, squadID, id uuid.UUID, to string) (*model.IO, error) {
	current, err := r.Get(ctx, squadID, id)
	if err != nil {
		return nil, err
	}
	if !model.CanTransitionIO(current.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, to)
	}
	res := r.db.WithContext(ctx).Model(&model.IO{}).
		Scopes(inSquad(squadID)).
		Where("id = ? AND status = ?", id, current.Status).
		Update("status", to)
	if res.Error != nil {
		return nil, wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: %s changed concurrently", ErrInvalidTransition, id)
	}
	return r.Get(ctx, squadID, id)
}

// PointsFor sums the points of accepted and paid IOs targeting the user.
func (r *IORepo) PointsFor(ctx context.Context, squadID, userID uuid.UUID) (int, error) {
	var total int
	err := r.db.WithContext(ctx).Model(&model.IO{}).
		Scopes(inSquad(squadID)).
		Where("target_user_id = ? AND status IN ?", userID, []string{model.IOStatusAccepted, model.IOStatusPaid}).
		Select("COALESCE(SUM(points), 0)").
		Scan(&total).Error
	return total, wrap(err)
}
