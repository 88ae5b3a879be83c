// Package config assembles the process configuration from conf.d/config.toml,
// a .env file and SQUADIO_* environment variables.
package config

import (
	"github.com/go-arcade/squadio/internal/ledger/maintenance"
	"github.com/go-arcade/squadio/pkg/conf"
	"github.com/go-arcade/squadio/pkg/database"
	"github.com/go-arcade/squadio/pkg/log"
	"github.com/go-arcade/squadio/pkg/metrics"
	"github.com/go-arcade/squadio/pkg/storage"
)

const (
	EnvPrefix  = "SQUADIO"
	DefaultDir = "conf.d"
)

type AppConfig struct {
	Log         log.Conf           `mapstructure:"log"`
	Database    database.Database  `mapstructure:"database"`
	Metrics     metrics.Config     `mapstructure:"metrics"`
	Maintenance maintenance.Config `mapstructure:"maintenance"`
	Archive     storage.Config     `mapstructure:"archive"`
}

// Default is the configuration used when nothing overrides it.
func Default() AppConfig {
	return AppConfig{
		Log:         *log.SetDefaults(),
		Database:    database.SetDefaults(),
		Metrics:     metrics.Config{}.SetDefaults(),
		Maintenance: maintenance.Config{}.SetDefaults(),
	}
}

// Options returns the loader options for file. An empty file falls back to
// conf.d/config.toml when it exists.
func Options(file string) conf.Options {
	return conf.Options{
		File:      file,
		Dir:       DefaultDir,
		EnvPrefix: EnvPrefix,
		EnvFile:   ".env",
		Bind: map[string]string{
			"DATABASE_URL": "database.dsn",
		},
		Defaults: defaults(Default()),
	}
}

// Load reads file, environment and defaults into an AppConfig.
func Load(file string) (AppConfig, *conf.Loader, error) {
	l, err := conf.New(Options(file))
	if err != nil {
		return AppConfig{}, nil, err
	}
	cfg, err := Decode(l)
	return cfg, l, err
}

// Decode unmarshals the loader's current state over the defaults.
func Decode(l *conf.Loader) (AppConfig, error) {
	cfg := Default()
	if err := l.Unmarshal(&cfg); err != nil {
		return AppConfig{}, err
	}
	if err := cfg.Log.Validate(); err != nil {
		return AppConfig{}, err
	}
	cfg.Metrics = cfg.Metrics.SetDefaults()
	cfg.Maintenance = cfg.Maintenance.SetDefaults()
	return cfg, nil
}

// defaults lists every key so that environment variables alone can set it.
func defaults(c AppConfig) map[string]any {
	return map[string]any{
		"log.output":     c.Log.Output,
		"log.path":       c.Log.Path,
		"log.filename":   c.Log.Filename,
		"log.level":      c.Log.Level,
		"log.keepDays":   c.Log.KeepDays,
		"log.rotateSize": c.Log.RotateSize,
		"log.rotateNum":  c.Log.RotateNum,

		"database.output":         c.Database.OutPut,
		"database.dsn":            c.Database.DSN,
		"database.host":           c.Database.Host,
		"database.port":           c.Database.Port,
		"database.user":           c.Database.User,
		"database.password":       c.Database.Password,
		"database.dbname":         c.Database.DBName,
		"database.sslmode":        c.Database.SSLMode,
		"database.maxOpenConns":   c.Database.MaxOpenConns,
		"database.maxIdleConns":   c.Database.MaxIdleConns,
		"database.maxLifeTime":    c.Database.MaxLifetime,
		"database.maxIdleTime":    c.Database.MaxIdleTime,
		"database.acquireTimeout": c.Database.AcquireTimeout,
		"database.slowThreshold":  c.Database.SlowThreshold,

		"metrics.enable": c.Metrics.Enable,
		"metrics.host":   c.Metrics.Host,
		"metrics.port":   c.Metrics.Port,
		"metrics.path":   c.Metrics.Path,

		"maintenance.retention_days":  c.Maintenance.RetentionDays,
		"maintenance.backup_dir":      c.Maintenance.BackupDir,
		"maintenance.pg_dump":         c.Maintenance.PgDump,
		"maintenance.psql":            c.Maintenance.Psql,
		"maintenance.tool_timeout":    c.Maintenance.ToolTimeout,
		"maintenance.health_schedule": c.Maintenance.HealthSchedule,
		"maintenance.purge_schedule":  c.Maintenance.PurgeSchedule,
		"maintenance.backup_schedule": c.Maintenance.BackupSchedule,

		"archive.provider":   c.Archive.Provider,
		"archive.endpoint":   c.Archive.Endpoint,
		"archive.access_key": c.Archive.AccessKey,
		"archive.secret_key": c.Archive.SecretKey,
		"archive.bucket":     c.Archive.Bucket,
		"archive.region":     c.Archive.Region,
		"archive.use_tls":    c.Archive.UseTLS,
		"archive.base_path":  c.Archive.BasePath,
	}
}
