package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IO is an infraction nomination against a squad member.
type IO struct {
	BaseModel
	TenantScope
	Squad        *Squad    `gorm:"foreignKey:SquadID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	TargetUserID uuid.UUID `gorm:"column:target_user_id;type:uuid;not null;index" json:"targetUserId"`
	TargetUser   *User     `gorm:"foreignKey:TargetUserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	NominatorID  uuid.UUID `gorm:"column:nominator_id;type:uuid;not null;index" json:"nominatorId"`
	Nominator    *User     `gorm:"foreignKey:NominatorID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Title        string    `gorm:"column:title;not null" json:"title"`
	Description  string    `gorm:"column:description;not null" json:"description"`
	ProofImage   *string   `gorm:"column:proof_image" json:"proofImage,omitempty"` // base64
	Status       string    `gorm:"column:status;type:varchar(16);not null;default:nominated;check:chk_ios_status,status IN ('nominated','seconded','accepted','paid','voided')" json:"status"`
	Points       int       `gorm:"column:points;not null" json:"points"`
}

func (IO) TableName() string {
	return "ios"
}

func (o *IO) BeforeCreate(tx *gorm.DB) error {
	o.assignID()
	if o.Status == "" {
		o.Status = IOStatusNominated
	}
	return o.Validate()
}

func (o *IO) Validate() error {
	return newCheck("ios").
		reference("squad_id", o.SquadID).
		reference("target_user_id", o.TargetUserID).
		reference("nominator_id", o.NominatorID).
		required("title", o.Title).
		required("description", o.Description).
		that(oneOf(o.Status, ioStatuses), "status", "unknown io status "+o.Status).
		result()
}

// Counts reports whether the IO's points count toward the target's total.
func (o *IO) Counts() bool {
	return o.Status == IOStatusAccepted || o.Status == IOStatusPaid
}
