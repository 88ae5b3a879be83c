package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-arcade/squadio/pkg/conf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, l, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, l.ConfigFileUsed())
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 30, cfg.Maintenance.RetentionDays)
	assert.False(t, cfg.Archive.Enabled())
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(file, []byte(`
[log]
level = "DEBUG"

[database]
host = "db.internal"
maxOpenConns = 8

[maintenance]
retention_days = 14
purge_schedule = "0 3 * * *"

[archive]
endpoint = "minio:9000"
bucket = "squadio-backups"
`), 0o600))

	t.Setenv("DATABASE_URL", "postgres://app@db/squadio")
	t.Setenv("SQUADIO_MAINTENANCE_RETENTION_DAYS", "7")
	t.Setenv("SQUADIO_METRICS_ENABLE", "true")

	cfg, l, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, file, l.ConfigFileUsed())

	assert.Equal(t, "DEBUG", cfg.Log.Level)
	assert.Equal(t, "stdout", cfg.Log.Output)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 8, cfg.Database.MaxOpenConns)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "postgres://app@db/squadio", cfg.Database.DSN)
	assert.Equal(t, 7, cfg.Maintenance.RetentionDays)
	assert.Equal(t, "0 3 * * *", cfg.Maintenance.PurgeSchedule)
	assert.Equal(t, "pg_dump", cfg.Maintenance.PgDump)
	assert.True(t, cfg.Metrics.Enable)
	assert.Equal(t, 9464, cfg.Metrics.Port)
	assert.True(t, cfg.Archive.Enabled())
	assert.Equal(t, "squadio-backups", cfg.Archive.Bucket)
}

func TestLoad_InvalidLogConfig(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(file, []byte("[log]\noutput = \"file\"\npath = \"\"\n"), 0o600))

	_, _, err := Load(file)
	assert.Error(t, err)
}

func TestDefault_EncodesAsTOML(t *testing.T) {
	out, err := conf.Encode(Default())
	require.NoError(t, err)
	assert.Contains(t, string(out), "[Maintenance]")
}
