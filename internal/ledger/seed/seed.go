// Package seed loads a fixed two-squad demo dataset.
package seed

import (
	"context"

	"github.com/go-arcade/squadio/internal/ledger/model"
	"github.com/go-arcade/squadio/internal/ledger/repo"
	"github.com/go-arcade/squadio/pkg/log"
	"github.com/go-arcade/squadio/pkg/password"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// DefaultPassword is the password of every seeded user.
const DefaultPassword = "password123"

// Result holds the ids created by a run, in creation order.
type Result struct {
	Squads        []uuid.UUID `json:"squads"`
	Users         []uuid.UUID `json:"users"`
	Rankings      []uuid.UUID `json:"rankings"`
	IOs           []uuid.UUID `json:"ios"`
	Seconds       []uuid.UUID `json:"seconds"`
	Notifications []uuid.UUID `json:"notifications"`
}

// Counts reports rows created per table.
func (r *Result) Counts() map[string]int {
	return map[string]int{
		"squads":        len(r.Squads),
		"users":         len(r.Users),
		"rankings":      len(r.Rankings),
		"ios":           len(r.IOs),
		"seconds":       len(r.Seconds),
		"notifications": len(r.Notifications),
	}
}

type Seeder struct {
	repos *repo.Repositories
}

func NewSeeder(repos *repo.Repositories) *Seeder {
	return &Seeder{repos: repos}
}

// Run inserts the dataset in one transaction: squads, users, rankings, IOs,
// seconds, notifications. It is not idempotent; on a populated database the
// first uniqueness violation aborts the run and nothing is kept.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	hashed, err := password.Hash(DefaultPassword)
	if err != nil {
		return nil, errors.Wrap(err, "hash seed password")
	}

	var res *Result
	err = s.repos.Transaction(ctx, func(tx *repo.Repositories) error {
		r, err := run(ctx, tx, hashed)
		res = r
		return err
	})
	if err != nil {
		log.Errorw("seed failed, rolled back", "error", err)
		return nil, err
	}
	log.Infow("seed completed", "counts", res.Counts())
	return res, nil
}

func run(ctx context.Context, tx *repo.Repositories, hashed string) (*Result, error) {
	res := &Result{}

	squads := make([]*model.Squad, 0, len(squadFixtures))
	for _, f := range squadFixtures {
		sq := &model.Squad{Name: f.name, Description: strPtr(f.description)}
		if err := sq.SetSettings(f.settings()); err != nil {
			return nil, errors.Wrapf(err, "seed squad %q settings", f.name)
		}
		if err := tx.Squads.Create(ctx, sq); err != nil {
			return nil, errors.Wrapf(err, "seed squad %q", f.name)
		}
		squads = append(squads, sq)
		res.Squads = append(res.Squads, sq.ID)
	}

	// per squad: admin first, member second
	members := make([][2]*model.User, len(squads))
	for _, f := range userFixtures {
		u := &model.User{
			Username:       f.username,
			Email:          f.email,
			HashedPassword: hashed,
			FullName:       f.fullName,
			Role:           f.role,
			Status:         model.StatusActive,
		}
		u.SquadID = squads[f.squad].ID
		if err := u.SetSettings(&model.UserSettings{
			Theme:         f.theme,
			Notifications: model.UserNotifications{Email: true, Browser: true},
			Language:      "en",
		}); err != nil {
			return nil, errors.Wrapf(err, "seed user %q settings", f.username)
		}
		if err := tx.Users.Create(ctx, u); err != nil {
			return nil, errors.Wrapf(err, "seed user %q", f.username)
		}
		slot := 1
		if f.role == model.RoleAdmin {
			slot = 0
		}
		members[f.squad][slot] = u
		res.Users = append(res.Users, u.ID)
	}

	for i, sq := range squads {
		for _, f := range rankingFixtures[i] {
			r := &model.Ranking{Name: f.name, MinPoints: f.min, MaxPoints: f.max}
			r.SquadID = sq.ID
			if err := tx.Rankings.Create(ctx, r); err != nil {
				return nil, errors.Wrapf(err, "seed ranking %q", f.name)
			}
			res.Rankings = append(res.Rankings, r.ID)
		}
	}

	for i, sq := range squads {
		f := ioFixtures[i]
		admin, member := members[i][0], members[i][1]

		io := &model.IO{
			TargetUserID: member.ID,
			NominatorID:  admin.ID,
			Title:        f.title,
			Description:  f.description,
			Points:       f.points,
			Status:       model.IOStatusNominated,
		}
		io.SquadID = sq.ID
		if err := tx.IOs.Create(ctx, io); err != nil {
			return nil, errors.Wrapf(err, "seed io %q", f.title)
		}
		res.IOs = append(res.IOs, io.ID)

		second := &model.Second{IOID: io.ID, UserID: admin.ID}
		second.SquadID = sq.ID
		if err := tx.Seconds.Create(ctx, second); err != nil {
			return nil, errors.Wrapf(err, "seed second of %q", f.title)
		}
		res.Seconds = append(res.Seconds, second.ID)

		n := &model.Notification{
			UserID:  member.ID,
			Type:    model.NotificationIONominated,
			Content: "You have been nominated for an infraction: " + f.title,
		}
		n.SquadID = sq.ID
		if err := tx.Notifications.Create(ctx, n); err != nil {
			return nil, errors.Wrapf(err, "seed notification for %q", member.Username)
		}
		res.Notifications = append(res.Notifications, n.ID)
	}

	return res, nil
}

func strPtr(s string) *string {
	return &s
}
