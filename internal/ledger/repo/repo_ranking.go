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

// ConstraintRankingOverlap names the rule that keeps a squad's tiers disjoint.
const ConstraintRankingOverlap = "rankings_no_overlap"

type IRankingRepository interface {
	Create(ctx context.Context, r *model.Ranking) error
	List(ctx context.Context, squadID uuid.UUID) ([]*model.Ranking, error)
	Update(ctx context.Context, squadID, id uuid.UUID, req *UpdateRankingReq) (*model.Ranking, error)
	ResolveTier(ctx context.Context, squadID uuid.UUID, points int) (*model.Ranking, error)
}

// UpdateRankingReq carries the mutable tier columns; nil means unchanged.
type UpdateRankingReq struct {
	Name      *string `json:"name,omitempty"`
	MinPoints *int    `json:"minPoints,omitempty"`
	MaxPoints *int    `json:"maxPoints,omitempty"`
}

type RankingRepo struct {
	db *gorm.DB
}

func NewRankingRepo(db *gorm.DB) IRankingRepository {
	return &RankingRepo{db: db}
}

// Create inserts a tier unless it overlaps another tier of the same squad.
func (r *RankingRepo) Create(ctx context.Context, ranking *model.Ranking) error {
	return wrap(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ranking.Validate(); err != nil {
			return err
		}
		if err := requireSquad(tx, "rankings", ranking.SquadID); err != nil {
			return err
		}
		if err := lockSquad(tx, ranking.SquadID); err != nil {
			return err
		}
		if err := rejectOverlap(tx, ranking, uuid.Nil); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(ranking).Error
	}))
}

func rejectOverlap(tx *gorm.DB, candidate *model.Ranking, self uuid.UUID) error {
	var clash model.Ranking
	q := tx.Scopes(inSquad(candidate.SquadID)).
		Where("min_points <= ? AND max_points >= ?", candidate.MaxPoints, candidate.MinPoints)
	if self != uuid.Nil {
		q = q.Where("id <> ?", self)
	}
	res := q.Limit(1).Find(&clash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return &database.ConstraintError{
			Kind:       database.KindCheck,
			Table:      "rankings",
			Constraint: ConstraintRankingOverlap,
			Columns:    []string{"min_points", "max_points"},
			Detail: fmt.Sprintf("[%d, %d] overlaps tier %q [%d, %d]",
				candidate.MinPoints, candidate.MaxPoints, clash.Name, clash.MinPoints, clash.MaxPoints),
		}
	}
	return nil
}

func (r *RankingRepo) List(ctx context.Context, squadID uuid.UUID) ([]*model.Ranking, error) {
	var rankings []*model.Ranking
	err := r.db.WithContext(ctx).Scopes(inSquad(squadID)).
		Order("min_points ASC, name ASC").
		Find(&rankings).Error
	return rankings, wrap(err)
}

func (r *RankingRepo) Update(ctx context.Context, squadID, id uuid.UUID, req *UpdateRankingReq) (*model.Ranking, error) {
	var out *model.Ranking
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockSquad(tx, squadID); err != nil {
			return err
		}
		var current model.Ranking
		if err := tx.Scopes(inSquad(squadID)).Where("id = ?", id).First(&current).Error; err != nil {
			return err
		}
		if req.Name != nil {
			current.Name = *req.Name
		}
		if req.MinPoints != nil {
			current.MinPoints = *req.MinPoints
		}
		if req.MaxPoints != nil {
			current.MaxPoints = *req.MaxPoints
		}
		if err := current.Validate(); err != nil {
			return err
		}
		if err := rejectOverlap(tx, &current, current.ID); err != nil {
			return err
		}
		err := tx.Model(&model.Ranking{}).
			Omit(immutableColumns...).
			Where("id = ?", current.ID).
			Updates(map[string]any{
				"name":       current.Name,
				"min_points": current.MinPoints,
				"max_points": current.MaxPoints,
			}).Error
		if err != nil {
			return err
		}
		out = &current
		return nil
	})
	if err != nil {
		return nil, wrap(err)
	}
	return r.getByID(ctx, squadID, out.ID)
}

func (r *RankingRepo) getByID(ctx context.Context, squadID, id uuid.UUID) (*model.Ranking, error) {
	var ranking model.Ranking
	if err := r.db.WithContext(ctx).Scopes(inSquad(squadID)).Where("id = ?", id).First(&ranking).Error; err != nil {
		return nil, wrap(err)
	}
	return &ranking, nil
}

// ResolveTier returns the tier whose range holds points. If tiers overlap
// (rows written around the repository) the one with the highest min_points
// wins, then the alphabetically first name. ErrNotFound means no tier
// covers points.
func (r *RankingRepo) ResolveTier(ctx context.Context, squadID uuid.UUID, points int) (*model.Ranking, error) {
	var ranking model.Ranking
	err := r.db.WithContext(ctx).Scopes(inSquad(squadID)).
		Where("min_points <= ? AND max_points >= ?", points, points).
		Order("min_points DESC, name ASC").
		First(&ranking).Error
	if err != nil {
		return nil, wrap(err)
	}
	return &ranking, nil
}
