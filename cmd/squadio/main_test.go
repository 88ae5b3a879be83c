package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { configFile = "" })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestConfigCmd_Redacts(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(file, []byte(`
[database]
dsn = "postgres://app:hunter2@db/squadio"

[archive]
secret_key = "minio-secret"
`), 0o600))

	out, err := execute(t, "config", "--config", file)
	require.NoError(t, err)
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "minio-secret")
	assert.Contains(t, out, "******")
	assert.Contains(t, out, "[Maintenance]")
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, `"version"`)
}

func TestRestoreCmd_RequiresSource(t *testing.T) {
	_, err := execute(t, "restore")
	assert.Error(t, err)
}

func TestHealthCmd_ReportsUnreachableDatabase(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(file, []byte(`
[database]
dsn = "postgres://app@127.0.0.1:1/squadio?sslmode=disable"
acquireTimeout = 1000
`), 0o600))

	out, err := execute(t, "health", "--config", file)
	require.Error(t, err)
	assert.Contains(t, out, `"status": "unhealthy"`)
	assert.Contains(t, out, `"error"`)
}
