package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Database struct {
		DSN          string `mapstructure:"dsn"`
		MaxOpenConns int    `mapstructure:"max_open_conns"`
	} `mapstructure:"database"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoader_FileEnvAndBind(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.toml", `
[database]
dsn = "postgres://file/db"
max_open_conns = 5

[log]
level = "DEBUG"
`)
	t.Setenv("TESTCONF_DATABASE_MAX_OPEN_CONNS", "7")
	t.Setenv("TESTCONF_URL", "postgres://env/db")

	l, err := New(Options{
		Dir:       dir,
		EnvPrefix: "TESTCONF",
		Bind:      map[string]string{"TESTCONF_URL": "database.dsn"},
	})
	require.NoError(t, err)

	var cfg sample
	require.NoError(t, l.Unmarshal(&cfg))
	assert.Equal(t, "postgres://env/db", cfg.Database.DSN)
	assert.Equal(t, 7, cfg.Database.MaxOpenConns)
	assert.Equal(t, "DEBUG", cfg.Log.Level)
}

func TestLoader_MissingDirIsFine(t *testing.T) {
	l, err := New(Options{
		Dir:      t.TempDir(),
		Defaults: map[string]any{"log.level": "INFO"},
	})
	require.NoError(t, err)
	assert.Empty(t, l.ConfigFileUsed())

	var cfg sample
	require.NoError(t, l.Unmarshal(&cfg))
	assert.Equal(t, "INFO", cfg.Log.Level)
}

func TestLoader_MissingExplicitFileFails(t *testing.T) {
	_, err := New(Options{File: filepath.Join(t.TempDir(), "nope.toml")})
	assert.Error(t, err)
}

func TestLoader_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", "TESTENV_LOG_LEVEL=WARN\n")
	t.Cleanup(func() { _ = os.Unsetenv("TESTENV_LOG_LEVEL") })

	l, err := New(Options{EnvFile: envFile, EnvPrefix: "TESTENV", Defaults: map[string]any{"log.level": "INFO"}})
	require.NoError(t, err)

	var cfg sample
	require.NoError(t, l.Unmarshal(&cfg))
	assert.Equal(t, "WARN", cfg.Log.Level)
}

func TestEncode(t *testing.T) {
	out, err := Encode(map[string]any{"log": map[string]any{"level": "INFO"}})
	require.NoError(t, err)
	assert.Contains(t, string(out), "[log]")
	assert.Contains(t, string(out), "INFO")
}
