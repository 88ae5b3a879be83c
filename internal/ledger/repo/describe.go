package repo

import (
	"github.com/go-arcade/squadio/internal/ledger/schema"
	"github.com/go-arcade/squadio/pkg/database"
	"github.com/pkg/errors"
)

// Describe turns a write error into a message fit for an end user. Errors
// that are not constraint violations get a generic message.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "not found"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid username or password"
	case errors.Is(err, ErrInactiveUser):
		return "account is not active"
	case errors.Is(err, ErrInvalidTransition):
		return "that status change is not allowed"
	}

	var ce *database.ConstraintError
	if !errors.As(err, &ce) {
		return "something went wrong, please try again"
	}

	switch ce.Kind {
	case database.KindUnique:
		switch {
		case ce.Constraint == schema.IndexUsersEmail || ce.HasColumns("email"):
			return "email already registered"
		case ce.Constraint == schema.IndexUsersSquadUsername || ce.HasColumns("squad_id", "username"):
			return "username already in use in this team"
		case ce.Constraint == schema.IndexSecondsIOUser || ce.HasColumns("io_id", "user_id"):
			return "you have already seconded this nomination"
		}
		return "already exists"
	case database.KindForeignKey:
		if len(ce.Columns) == 1 {
			if name, ok := referenceNames[ce.Columns[0]]; ok {
				return "referenced " + name + " does not exist in this team"
			}
		}
		return "referenced record does not exist"
	case database.KindNotNull:
		if len(ce.Columns) == 1 {
			return ce.Columns[0] + " is required"
		}
		return "a required field is missing"
	case database.KindCheck:
		if ce.Constraint == ConstraintRankingOverlap {
			return "ranking range overlaps an existing ranking"
		}
		if ce.Detail != "" {
			return ce.Detail
		}
		return "value is not allowed"
	}
	return "invalid input"
}

var referenceNames = map[string]string{
	"squad_id":       "team",
	"target_user_id": "member",
	"nominator_id":   "member",
	"user_id":        "member",
	"io_id":          "nomination",
}
