// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrInvalidWrite matches every constraint violation. Never retry these.
	ErrInvalidWrite = errors.New("invalid write")

	// ErrInfrastructure matches connectivity and resource failures. Callers
	// may retry these.
	ErrInfrastructure = errors.New("database unavailable")
)

// ConstraintKind names the class of integrity rule that rejected a write.
type ConstraintKind string

const (
	KindUnique     ConstraintKind = "unique"
	KindForeignKey ConstraintKind = "foreign_key"
	KindNotNull    ConstraintKind = "not_null"
	KindCheck      ConstraintKind = "check"
)

// ConstraintError is a write rejected by an integrity rule, whether the
// rule was enforced by the storage engine or by a model hook.
type ConstraintError struct {
	Kind       ConstraintKind
	Table      string
	Constraint string
	Columns    []string
	Detail     string
	Err        error
}

func (e *ConstraintError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(" constraint violated")
	if e.Table != "" {
		b.WriteString(" on ")
		b.WriteString(e.Table)
	}
	if len(e.Columns) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(e.Columns, ", "))
		b.WriteString(")")
	}
	if e.Constraint != "" {
		b.WriteString(" [")
		b.WriteString(e.Constraint)
		b.WriteString("]")
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *ConstraintError) Unwrap() error { return e.Err }

func (e *ConstraintError) Is(target error) bool { return target == ErrInvalidWrite }

// HasColumns reports whether the violation covers exactly the given columns,
// in any order.
func (e *ConstraintError) HasColumns(cols ...string) bool {
	if len(cols) != len(e.Columns) {
		return false
	}
	seen := make(map[string]struct{}, len(e.Columns))
	for _, c := range e.Columns {
		seen[c] = struct{}{}
	}
	for _, c := range cols {
		if _, ok := seen[c]; !ok {
			return false
		}
	}
	return true
}

// NewConstraintError builds a violation raised before the write reaches storage.
func NewConstraintError(kind ConstraintKind, table string, detail string, columns ...string) *ConstraintError {
	return &ConstraintError{Kind: kind, Table: table, Columns: columns, Detail: detail}
}

// InfraError wraps a failure to reach or use the database.
type InfraError struct {
	Err error
}

func (e *InfraError) Error() string { return "database unavailable: " + e.Err.Error() }

func (e *InfraError) Unwrap() error { return e.Err }

func (e *InfraError) Is(target error) bool { return target == ErrInfrastructure }

// IsConstraint reports whether err is a constraint violation of the given kind.
func IsConstraint(err error, kind ConstraintKind) bool {
	var ce *ConstraintError
	return errors.As(err, &ce) && ce.Kind == kind
}

var pgKeyColumns = regexp.MustCompile(`Key \(([^)]+)\)=`)

// Classify maps driver errors onto ConstraintError or InfraError. Errors that
// are already classified, nil, and anything unrecognised pass through.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var ce *ConstraintError
	var ie *InfraError
	if errors.As(err, &ce) || errors.As(err, &ie) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifyPostgres(pgErr, err)
	}

	if c := classifySQLite(err); c != nil {
		return c
	}

	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &ConstraintError{Kind: KindUnique, Err: err}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return &ConstraintError{Kind: KindForeignKey, Err: err}
	}

	if isInfrastructure(err) {
		return &InfraError{Err: err}
	}
	return err
}

func classifyPostgres(pgErr *pgconn.PgError, err error) error {
	ce := &ConstraintError{
		Table:      pgErr.TableName,
		Constraint: pgErr.ConstraintName,
		Detail:     pgErr.Detail,
		Err:        err,
	}
	if m := pgKeyColumns.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		for _, c := range strings.Split(m[1], ",") {
			ce.Columns = append(ce.Columns, strings.TrimSpace(c))
		}
	}
	switch pgErr.Code {
	case "23505":
		ce.Kind = KindUnique
	case "23503":
		ce.Kind = KindForeignKey
	case "23502":
		ce.Kind = KindNotNull
		if pgErr.ColumnName != "" {
			ce.Columns = []string{pgErr.ColumnName}
		}
	case "23514":
		ce.Kind = KindCheck
	default:
		// class 08 connection exception, 53 insufficient resources,
		// 57P0x operator intervention
		if strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "53") || strings.HasPrefix(pgErr.Code, "57P") {
			return &InfraError{Err: err}
		}
		return err
	}
	return ce
}

var sqliteConstraintPrefixes = []struct {
	prefix string
	kind   ConstraintKind
}{
	{"UNIQUE constraint failed", KindUnique},
	{"FOREIGN KEY constraint failed", KindForeignKey},
	{"NOT NULL constraint failed", KindNotNull},
	{"CHECK constraint failed", KindCheck},
}

// classifySQLite reads the embedded engine's message text, e.g.
// "UNIQUE constraint failed: users.squad_id, users.username".
func classifySQLite(err error) *ConstraintError {
	msg := err.Error()
	for _, p := range sqliteConstraintPrefixes {
		idx := strings.Index(msg, p.prefix)
		if idx < 0 {
			continue
		}
		ce := &ConstraintError{Kind: p.kind, Err: err}
		rest := strings.TrimPrefix(msg[idx+len(p.prefix):], ":")
		if cut := strings.Index(rest, " ("); cut >= 0 {
			rest = rest[:cut]
		}
		rest = strings.TrimSpace(rest)
		if rest == "" {
			return ce
		}
		if p.kind == KindCheck {
			ce.Constraint = rest
			return ce
		}
		for _, ref := range strings.Split(rest, ",") {
			ref = strings.TrimSpace(ref)
			table, col, ok := strings.Cut(ref, ".")
			if !ok {
				continue
			}
			ce.Table = table
			ce.Columns = append(ce.Columns, col)
		}
		return ce
	}
	return nil
}

func isInfrastructure(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	return containsAny(err.Error(),
		"database is closed",
		"connection refused",
		"failed to connect",
		"no such host",
		"timeout",
	)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
