// Package dbtest opens migrated throwaway databases for tests.
package dbtest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/go-arcade/squadio/internal/ledger/schema"
	"github.com/go-arcade/squadio/pkg/database"
	"github.com/stretchr/testify/require"
)

// PostgresDSNEnv names the variable that enables postgres integration tests.
const PostgresDSNEnv = "SQUADIO_TEST_DSN"

// Open returns a Manager over a fresh on-disk SQLite file with foreign keys
// enforced and the schema migrated. The database is closed on cleanup.
func Open(t testing.TB) database.Manager {
	t.Helper()
	return OpenConfig(t, database.SetDefaults())
}

// OpenConfig is Open with explicit pool settings.
func OpenConfig(t testing.TB, cfg database.Database) database.Manager {
	t.Helper()

	path := filepath.Join(t.TempDir(), "squadio.db")
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	m, err := database.Open(context.Background(), sqlite.Open(dsn), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	require.NoError(t, schema.Migrate(context.Background(), m.DB()))
	return m
}

// OpenPostgres connects to the database named by SQUADIO_TEST_DSN, resets
// and migrates it, or skips the test when the variable is unset.
func OpenPostgres(t testing.TB) database.Manager {
	t.Helper()

	dsn := os.Getenv(PostgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", PostgresDSNEnv)
	}
	cfg := database.SetDefaults()
	cfg.DSN = dsn

	ctx := context.Background()
	m, err := database.NewManager(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	require.NoError(t, schema.Reset(ctx, m.DB()))
	require.NoError(t, schema.Migrate(ctx, m.DB()))
	return m
}
