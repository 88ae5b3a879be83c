package schema_test

import (
	"context"
	"testing"

	"github.com/go-arcade/squadio/internal/ledger/dbtest"
	"github.com/go-arcade/squadio/internal/ledger/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_CreatesTablesAndIndexes(t *testing.T) {
	m := dbtest.Open(t)
	migrator := m.DB().Migrator()

	for _, table := range schema.Tables() {
		assert.True(t, migrator.HasTable(table), table)
	}
	assert.True(t, migrator.HasIndex("users", schema.IndexUsersSquadUsername))
	assert.True(t, migrator.HasIndex("users", schema.IndexUsersEmail))
	assert.True(t, migrator.HasIndex("seconds", schema.IndexSecondsIOUser))
}

func TestReset_DropsEverything(t *testing.T) {
	m := dbtest.Open(t)
	require.NoError(t, schema.Reset(context.Background(), m.DB()))

	for _, table := range schema.Tables() {
		assert.False(t, m.DB().Migrator().HasTable(table), table)
	}

	require.NoError(t, schema.Migrate(context.Background(), m.DB()))
	assert.True(t, m.DB().Migrator().HasTable("users"))
}
