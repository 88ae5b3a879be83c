package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Squad is a tenant. Every other row belongs to exactly one squad.
type Squad struct {
	BaseModel
	SoftDelete
	Name        string         `gorm:"column:name;not null" json:"name"`
	Description *string        `gorm:"column:description" json:"description,omitempty"`
	Settings    datatypes.JSON `gorm:"column:settings" json:"settings,omitempty"`
	Status      string         `gorm:"column:status;type:varchar(16);not null;default:active;check:chk_squads_status,status IN ('active','inactive','suspended')" json:"status"`
}

func (Squad) TableName() string {
	return "squads"
}

func (s *Squad) BeforeCreate(tx *gorm.DB) error {
	s.assignID()
	if s.Status == "" {
		s.Status = StatusActive
	}
	return s.Validate()
}

// Validate checks the columns a caller controls.
func (s *Squad) Validate() error {
	return newCheck("squads").
		required("name", s.Name).
		that(IsLifecycleStatus(s.Status), "status", "unknown squad status "+s.Status).
		result()
}

// DecodeSettings returns nil when no settings are stored.
func (s *Squad) DecodeSettings() (*SquadSettings, error) {
	return decodeSettings[SquadSettings](s.Settings)
}

// SetSettings validates and stores v.
func (s *Squad) SetSettings(v *SquadSettings) error {
	if err := v.Validate(); err != nil {
		return err
	}
	raw, err := encodeSettings(v)
	if err != nil {
		return err
	}
	s.Settings = raw
	return nil
}

// UpdateSquadReq carries the mutable squad columns; nil means unchanged.
type UpdateSquadReq struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Settings    *SquadSettings `json:"settings,omitempty"`
	Status      *string        `json:"status,omitempty"`
}
