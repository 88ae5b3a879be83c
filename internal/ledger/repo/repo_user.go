package repo

import (
	"context"
	"strings"
	"time"

	"github.com/go-arcade/squadio/internal/ledger/model"
	"github.com/go-arcade/squadio/pkg/database"
	"github.com/go-arcade/squadio/pkg/log"
	"github.com/go-arcade/squadio/pkg/password"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type IUserRepository interface {
	Create(ctx context.Context, u *model.User) error
	Get(ctx context.Context, squadID, id uuid.UUID) (*model.User, error)
	GetByUsername(ctx context.Context, squadID uuid.UUID, username string) (*model.User, error)
	List(ctx context.Context, squadID uuid.UUID, query *UserQuery) ([]*model.User, int64, error)
	Update(ctx context.Context, squadID, id uuid.UUID, req *model.UpdateUserReq) (*model.User, error)
	SetPassword(ctx context.Context, squadID, id uuid.UUID, plain string) error
	TouchLastLogin(ctx context.Context, squadID, id uuid.UUID, at time.Time) error
	SoftDelete(ctx context.Context, squadID, id uuid.UUID) error
	Restore(ctx context.Context, squadID, id uuid.UUID) error
	Authenticate(ctx context.Context, squadID uuid.UUID, login, plain string) (*model.User, error)
}

// UserQuery filters a user listing within one squad.
type UserQuery struct {
	Role   string
	Status string
	Page
}

type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) IUserRepository {
	return &UserRepo{db: db}
}

// Create inserts u after checking its squad is live. HashedPassword must
// already be an argon2id hash.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	return wrap(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireSquad(tx, "users", u.SquadID); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(u).Error
	}))
}

func (r *UserRepo) Get(ctx context.Context, squadID, id uuid.UUID) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).Scopes(inSquad(squadID)).Where("id = ?", id).First(&u).Error
	if err != nil {
		return nil, wrap(err)
	}
	return &u, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, squadID uuid.UUID, username string) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).Scopes(inSquad(squadID)).Where("username = ?", username).First(&u).Error
	if err != nil {
		return nil, wrap(err)
	}
	return &u, nil
}

func (r *UserRepo) List(ctx context.Context, squadID uuid.UUID, query *UserQuery) ([]*model.User, int64, error) {
	if query == nil {
		query = &UserQuery{}
	}
	db := r.db.WithContext(ctx).Model(&model.User{}).Scopes(inSquad(squadID))
	if query.Role != "" {
		db = db.Where("role = ?", query.Role)
	}
	if query.Status != "" {
		db = db.Where("status = ?", query.Status)
	}
	db = db.Session(&gorm.Session{})

	total, err := Count(db)
	if err != nil {
		return nil, 0, err
	}
	var users []*model.User
	err = db.Scopes(paginate(query.Page)).Order("username ASC").Find(&users).Error
	return users, total, wrap(err)
}

func (r *UserRepo) Update(ctx context.Context, squadID, id uuid.UUID, req *model.UpdateUserReq) (*model.User, error) {
	updates, err := userUpdates(req)
	if err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		res := r.db.WithContext(ctx).Model(&model.User{}).
			Omit(immutableColumns...).
			Scopes(inSquad(squadID)).
			Where("id = ?", id).
			Updates(updates)
		if err := rowsOrNotFound(res); err != nil {
			return nil, err
		}
	}
	return r.Get(ctx, squadID, id)
}

func userUpdates(req *model.UpdateUserReq) (map[string]any, error) {
	updates := map[string]any{}
	required := func(column string, v *string) error {
		if v == nil {
			return nil
		}
		if strings.TrimSpace(*v) == "" {
			return database.NewConstraintError(database.KindNotNull, "users", column+" is required", column)
		}
		updates[column] = *v
		return nil
	}
	if err := required("username", req.Username); err != nil {
		return nil, err
	}
	if err := required("email", req.Email); err != nil {
		return nil, err
	}
	if err := required("full_name", req.FullName); err != nil {
		return nil, err
	}
	if req.AvatarURL != nil {
		updates["avatar_url"] = *req.AvatarURL
	}
	if req.Role != nil {
		if !model.IsRole(*req.Role) {
			return nil, database.NewConstraintError(database.KindCheck, "users", "unknown role "+*req.Role, "role")
		}
		updates["role"] = *req.Role
	}
	if req.Status != nil {
		if !model.IsLifecycleStatus(*req.Status) {
			return nil, database.NewConstraintError(database.KindCheck, "users", "unknown user status "+*req.Status, "status")
		}
		updates["status"] = *req.Status
	}
	if req.Settings != nil {
		var holder model.User
		if err := holder.SetSettings(req.Settings); err != nil {
			return nil, database.NewConstraintError(database.KindCheck, "users", err.Error(), "settings")
		}
		updates["settings"] = holder.Settings
	}
	return updates, nil
}

// SetPassword replaces the stored credential with a fresh hash of plain.
func (r *UserRepo) SetPassword(ctx context.Context, squadID, id uuid.UUID, plain string) error {
	hashed, err := password.Hash(plain)
	if err != nil {
		return err
	}
	return rowsOrNotFound(r.db.WithContext(ctx).Model(&model.User{}).
		Scopes(inSquad(squadID)).
		Where("id = ?", id).
		Update("hashed_password", hashed))
}

func (r *UserRepo) TouchLastLogin(ctx context.Context, squadID, id uuid.UUID, at time.Time) error {
	return rowsOrNotFound(r.db.WithContext(ctx).Model(&model.User{}).
		Scopes(inSquad(squadID)).
		Where("id = ?", id).
		Update("last_login", at.UTC()))
}

func (r *UserRepo) SoftDelete(ctx context.Context, squadID, id uuid.UUID) error {
	return rowsOrNotFound(r.db.WithContext(ctx).
		Scopes(inSquad(squadID)).
		Where("id = ?", id).
		Delete(&model.User{}))
}

func (r *UserRepo) Restore(ctx context.Context, squadID, id uuid.UUID) error {
	return rowsOrNotFound(r.db.WithContext(ctx).Unscoped().Model(&model.User{}).
		Scopes(inSquad(squadID)).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Update("deleted_at", nil))
}

// Authenticate looks login up inside the squad (as an email when it contains
// "@", as a username otherwise), verifies the password and records the login
// time. Unknown logins and wrong passwords both return ErrInvalidCredentials.
func (r *UserRepo) Authenticate(ctx context.Context, squadID uuid.UUID, login, plain string) (*model.User, error) {
	column := "username"
	if strings.Contains(login, "@") {
		column = "email"
	}
	var u model.User
	err := r.db.WithContext(ctx).Scopes(inSquad(squadID)).
		Where(column+" = ?", login).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, wrap(err)
	}

	ok, err := password.Verify(u.HashedPassword, plain)
	if err != nil {
		return nil, errors.Wrapf(err, "verify credential of user %s", u.ID)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive() {
		return nil, ErrInactiveUser
	}
	if stale, _ := password.NeedsRehash(u.HashedPassword); stale {
		if err := r.SetPassword(ctx, squadID, u.ID, plain); err != nil {
			log.Warnw("rehash password", "user_id", u.ID, "error", err)
		}
	}

	now := time.Now().UTC()
	if err := r.TouchLastLogin(ctx, squadID, u.ID, now); err != nil {
		return nil, err
	}
	u.LastLogin = &now
	return &u, nil
}
