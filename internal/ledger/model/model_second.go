package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Second is a member's corroboration of an IO. A member seconds an IO at
// most once.
type Second struct {
	BaseModel
	TenantScope
	Squad  *Squad    `gorm:"foreignKey:SquadID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	IOID   uuid.UUID `gorm:"column:io_id;type:uuid;not null;index" json:"ioId"`
	IO     *IO       `gorm:"foreignKey:IOID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	UserID uuid.UUID `gorm:"column:user_id;type:uuid;not null;index" json:"userId"`
	User   *User     `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

func (Second) TableName() string {
	return "seconds"
}

func (s *Second) BeforeCreate(tx *gorm.DB) error {
	s.assignID()
	return newCheck("seconds").
		reference("squad_id", s.SquadID).
		reference("io_id", s.IOID).
		reference("user_id", s.UserID).
		result()
}
