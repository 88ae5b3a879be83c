package model

import (
	"time"

	"github.com/go-arcade/squadio/pkg/id"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Column groups. Entities compose them by anonymous embedding; gorm flattens
// embedded structs into the owning table.

// Identity is the generated primary key. Callers never choose it.
type Identity struct {
	ID uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
}

func (i *Identity) assignID() {
	i.ID = id.NewUUID()
}

// Audit holds creation and modification instants, always UTC.
type Audit struct {
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;autoUpdateTime" json:"updatedAt"`
}

// SoftDelete hides a row from normal reads once DeletedAt is set.
type SoftDelete struct {
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"deletedAt,omitempty"`
}

// TenantScope binds a row to its owning squad.
type TenantScope struct {
	SquadID uuid.UUID `gorm:"column:squad_id;type:uuid;not null;index" json:"squadId"`
}

// AuditLog records who did what. It composes like the other groups; no table
// carries it yet.
type AuditLog struct {
	ActorID uuid.UUID      `gorm:"column:actor_id;type:uuid;not null;index" json:"actorId"`
	Action  string         `gorm:"column:action;not null" json:"action"`
	Details datatypes.JSON `gorm:"column:details" json:"details,omitempty"`
}

// BaseModel is Identity plus Audit, shared by every table.
type BaseModel struct {
	Identity
	Audit
}

// assignID runs from every BeforeCreate hook. Clearing the audit stamps lets
// gorm fill them, so caller-supplied values never reach the row.
func (b *BaseModel) assignID() {
	b.Identity.assignID()
	b.CreatedAt, b.UpdatedAt = time.Time{}, time.Time{}
}

// Models lists every persisted entity in dependency order.
func Models() []any {
	return []any{
		&Squad{},
		&User{},
		&Ranking{},
		&IO{},
		&Second{},
		&Notification{},
	}
}

// Promoted-field selectors below fail to compile if two groups composed into
// the same entity ever declare the same field.
var (
	_ = Squad{}.ID
	_ = Squad{}.CreatedAt
	_ = Squad{}.DeletedAt
	_ = User{}.ID
	_ = User{}.UpdatedAt
	_ = User{}.DeletedAt
	_ = User{}.SquadID
	_ = IO{}.ID
	_ = IO{}.CreatedAt
	_ = IO{}.SquadID
	_ = Second{}.ID
	_ = Second{}.SquadID
	_ = Ranking{}.ID
	_ = Ranking{}.SquadID
	_ = Notification{}.ID
	_ = Notification{}.SquadID
)
