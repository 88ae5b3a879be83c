package model

import (
	"fmt"

	"gorm.io/gorm"
)

// Ranking is a named tier covering the inclusive point range
// [MinPoints, MaxPoints].
type Ranking struct {
	BaseModel
	TenantScope
	Squad     *Squad `gorm:"foreignKey:SquadID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Name      string `gorm:"column:name;not null" json:"name"`
	MinPoints int    `gorm:"column:min_points;not null;check:chk_rankings_points,min_points <= max_points" json:"minPoints"`
	MaxPoints int    `gorm:"column:max_points;not null" json:"maxPoints"`
}

func (Ranking) TableName() string {
	return "rankings"
}

func (r *Ranking) BeforeCreate(tx *gorm.DB) error {
	r.assignID()
	return r.Validate()
}

func (r *Ranking) Validate() error {
	return newCheck("rankings").
		reference("squad_id", r.SquadID).
		required("name", r.Name).
		that(r.MinPoints <= r.MaxPoints, "min_points",
			fmt.Sprintf("min_points %d exceeds max_points %d", r.MinPoints, r.MaxPoints)).
		result()
}

// Contains reports whether points falls inside the tier.
func (r *Ranking) Contains(points int) bool {
	return points >= r.MinPoints && points <= r.MaxPoints
}

// Overlaps reports whether two tiers share any point value.
func (r *Ranking) Overlaps(other *Ranking) bool {
	return r.MinPoints <= other.MaxPoints && other.MinPoints <= r.MaxPoints
}
