package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User is a squad member. Username is unique within the squad, email across
// all squads.
type User struct {
	BaseModel
	SoftDelete
	TenantScope
	Squad          *Squad         `gorm:"foreignKey:SquadID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Username       string         `gorm:"column:username;not null" json:"username"`
	Email          string         `gorm:"column:email;not null;uniqueIndex:uq_users_email" json:"email"`
	HashedPassword string         `gorm:"column:hashed_password;not null" json:"-"`
	FullName       string         `gorm:"column:full_name;not null" json:"fullName"`
	AvatarURL      *string        `gorm:"column:avatar_url" json:"avatarUrl,omitempty"`
	Role           string         `gorm:"column:role;type:varchar(16);not null;default:member;check:chk_users_role,role IN ('super-admin','admin','member')" json:"role"`
	Settings       datatypes.JSON `gorm:"column:settings" json:"settings,omitempty"`
	LastLogin      *time.Time     `gorm:"column:last_login" json:"lastLogin,omitempty"`
	Status         string         `gorm:"column:status;type:varchar(16);not null;default:active;check:chk_users_status,status IN ('active','inactive','suspended')" json:"status"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	u.assignID()
	if u.Role == "" {
		u.Role = RoleMember
	}
	if u.Status == "" {
		u.Status = StatusActive
	}
	return u.Validate()
}

func (u *User) Validate() error {
	return newCheck("users").
		reference("squad_id", u.SquadID).
		required("username", u.Username).
		required("email", u.Email).
		required("hashed_password", u.HashedPassword).
		required("full_name", u.FullName).
		that(IsRole(u.Role), "role", "unknown role "+u.Role).
		that(IsLifecycleStatus(u.Status), "status", "unknown user status "+u.Status).
		result()
}

// IsActive reports whether the user may sign in.
func (u *User) IsActive() bool {
	return u.Status == StatusActive && !u.DeletedAt.Valid
}

func (u *User) DecodeSettings() (*UserSettings, error) {
	return decodeSettings[UserSettings](u.Settings)
}

func (u *User) SetSettings(v *UserSettings) error {
	if err := v.Validate(); err != nil {
		return err
	}
	raw, err := encodeSettings(v)
	if err != nil {
		return err
	}
	u.Settings = raw
	return nil
}

// UpdateUserReq carries the mutable profile columns; nil means unchanged.
// Credentials change through a dedicated call.
type UpdateUserReq struct {
	Username  *string       `json:"username,omitempty"`
	Email     *string       `json:"email,omitempty"`
	FullName  *string       `json:"fullName,omitempty"`
	AvatarURL *string       `json:"avatarUrl,omitempty"`
	Role      *string       `json:"role,omitempty"`
	Settings  *UserSettings `json:"settings,omitempty"`
	Status    *string       `json:"status,omitempty"`
}
