package repo

import (
	"context"
	"time"

	"github.com/go-arcade/squadio/internal/ledger/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type INotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListForUser(ctx context.Context, squadID, userID uuid.UUID, unreadOnly bool, page Page) ([]*model.Notification, int64, error)
	MarkRead(ctx context.Context, squadID, id uuid.UUID, at time.Time) error
	MarkAllRead(ctx context.Context, squadID, userID uuid.UUID, at time.Time) (int64, error)
}

type NotificationRepo struct {
	db *gorm.DB
}

func NewNotificationRepo(db *gorm.DB) INotificationRepository {
	return &NotificationRepo{db: db}
}

// Create stores a notification for a live member of n's squad.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	return wrap(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireMember(tx, "notifications", "user_id", n.SquadID, n.UserID); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(n).Error
	}))
}

func (r *NotificationRepo) ListForUser(ctx context.Context, squadID, userID uuid.UUID, unreadOnly bool, page Page) ([]*model.Notification, int64, error) {
	db := r.db.WithContext(ctx).Model(&model.Notification{}).
		Scopes(inSquad(squadID)).
		Where("user_id = ?", userID)
	if unreadOnly {
		db = db.Where("read_at IS NULL")
	}
	db = db.Session(&gorm.Session{})

	total, err := Count(db)
	if err != nil {
		return nil, 0, err
	}
	var out []*model.Notification
	err = db.Scopes(paginate(page)).Order("created_at DESC, id ASC").Find(&out).Error
	return out, total, wrap(err)
}

// MarkRead sets read_at once. Marking an already read notification is a no-op.
func (r *NotificationRepo) MarkRead(ctx context.Context, squadID, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.Notification{}).
		Scopes(inSquad(squadID)).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", at.UTC())
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	n, err := Count(r.db.WithContext(ctx).Model(&model.Notification{}).Scopes(inSquad(squadID)).Where("id = ?", id))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, squadID, userID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Notification{}).
		Scopes(inSquad(squadID)).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", at.UTC())
	return res.RowsAffected, wrap(res.Error)
}
