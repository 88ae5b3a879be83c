package model

import (
	"strings"

	"github.com/go-arcade/squadio/pkg/database"
	"github.com/google/uuid"
)

// check collects the first rule a row breaks. Hooks report violations as the
// same error type the storage engine's constraints produce.
type check struct {
	table string
	err   error
}

func newCheck(table string) *check {
	return &check{table: table}
}

func (c *check) required(column, value string) *check {
	if c.err == nil && strings.TrimSpace(value) == "" {
		c.err = database.NewConstraintError(database.KindNotNull, c.table, column+" is required", column)
	}
	return c
}

func (c *check) reference(column string, ref uuid.UUID) *check {
	if c.err == nil && ref == uuid.Nil {
		c.err = database.NewConstraintError(database.KindNotNull, c.table, column+" is required", column)
	}
	return c
}

func (c *check) that(ok bool, column, detail string) *check {
	if c.err == nil && !ok {
		c.err = database.NewConstraintError(database.KindCheck, c.table, detail, column)
	}
	return c
}

func (c *check) result() error {
	return c.err
}
