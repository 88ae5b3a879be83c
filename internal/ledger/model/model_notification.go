package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification is an in-app message to one member. Delivery happens outside
// this module.
type Notification struct {
	BaseModel
	TenantScope
	Squad   *Squad     `gorm:"foreignKey:SquadID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	UserID  uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index" json:"userId"`
	User    *User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Type    string     `gorm:"column:type;type:varchar(32);not null;check:chk_notifications_type,type IN ('io_nominated','io_seconded','io_accepted','io_paid','io_voided','rank_changed')" json:"type"`
	Content string     `gorm:"column:content;not null" json:"content"`
	ReadAt  *time.Time `gorm:"column:read_at" json:"readAt,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	n.assignID()
	return newCheck("notifications").
		reference("squad_id", n.SquadID).
		reference("user_id", n.UserID).
		required("type", n.Type).
		that(IsNotificationType(n.Type), "type", "unknown notification type "+n.Type).
		required("content", n.Content).
		result()
}
