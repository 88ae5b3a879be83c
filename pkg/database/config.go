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
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	defaultMaxOpenConns   = 20
	defaultMaxIdleTime    = 30 * time.Second
	defaultMaxLifetime    = 300 * time.Second
	defaultAcquireTimeout = 2 * time.Second
	defaultSlowThreshold  = 200 * time.Millisecond
)

// SourceConfig is a single extra data source, used for read replicas.
type SourceConfig struct {
	DSN string `mapstructure:"dsn"`
}

// Database is the postgres connection and pool configuration.
//
// DSN wins over the discrete host/port fields when both are set. Durations
// are plain integers so they read naturally from TOML and env vars.
type Database struct {
	OutPut bool   `mapstructure:"output"`
	DSN    string `mapstructure:"dsn"`

	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`

	MaxOpenConns   int `mapstructure:"maxOpenConns"`
	MaxIdleConns   int `mapstructure:"maxIdleConns"`
	MaxLifetime    int `mapstructure:"maxLifeTime"`    // seconds
	MaxIdleTime    int `mapstructure:"maxIdleTime"`    // milliseconds
	AcquireTimeout int `mapstructure:"acquireTimeout"` // milliseconds
	SlowThreshold  int `mapstructure:"slowThreshold"`  // milliseconds

	Replicas []SourceConfig `mapstructure:"replicas"`
}

// SetDefaults returns a pool configured for a single service process.
func SetDefaults() Database {
	return Database{
		Host:           "localhost",
		Port:           "5432",
		SSLMode:        "disable",
		MaxOpenConns:   defaultMaxOpenConns,
		MaxIdleConns:   defaultMaxOpenConns / 2,
		MaxLifetime:    int(defaultMaxLifetime / time.Second),
		MaxIdleTime:    int(defaultMaxIdleTime / time.Millisecond),
		AcquireTimeout: int(defaultAcquireTimeout / time.Millisecond),
		SlowThreshold:  int(defaultSlowThreshold / time.Millisecond),
	}
}

// GetConnMaxLifetime returns the max lifetime of a pooled connection.
func (c Database) GetConnMaxLifetime() time.Duration {
	if c.MaxLifetime > 0 {
		return time.Duration(c.MaxLifetime) * time.Second
	}
	return defaultMaxLifetime
}

// GetConnMaxIdleTime returns how long an idle connection is kept before eviction.
func (c Database) GetConnMaxIdleTime() time.Duration {
	if c.MaxIdleTime > 0 {
		return time.Duration(c.MaxIdleTime) * time.Millisecond
	}
	return defaultMaxIdleTime
}

// GetAcquireTimeout returns the bound on waiting for a pooled connection.
func (c Database) GetAcquireTimeout() time.Duration {
	if c.AcquireTimeout > 0 {
		return time.Duration(c.AcquireTimeout) * time.Millisecond
	}
	return defaultAcquireTimeout
}

// GetMaxOpenConns returns the pool ceiling.
func (c Database) GetMaxOpenConns() int {
	if c.MaxOpenConns > 0 {
		return c.MaxOpenConns
	}
	return defaultMaxOpenConns
}

// GetSlowThreshold returns the duration above which a query is logged as slow.
func (c Database) GetSlowThreshold() time.Duration {
	if c.SlowThreshold > 0 {
		return time.Duration(c.SlowThreshold) * time.Millisecond
	}
	return defaultSlowThreshold
}

// ResolveDSN returns the primary DSN with a connect_timeout derived from the
// acquisition timeout, unless the DSN already carries one.
func (c Database) ResolveDSN() (string, error) {
	dsn := strings.TrimSpace(c.DSN)
	if dsn == "" {
		if c.Host == "" || c.User == "" || c.DBName == "" {
			return "", fmt.Errorf("incomplete database config: dsn or host, user and dbname are required")
		}
		dsn = buildPostgresDSN(c)
	}
	return withConnectTimeout(dsn, c.GetAcquireTimeout())
}

func buildPostgresDSN(c Database) string {
	port := c.Port
	if port == "" {
		port = "5432"
	}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	parts := []string{
		"host=" + c.Host,
		"port=" + port,
		"user=" + c.User,
		"dbname=" + c.DBName,
		"sslmode=" + sslMode,
	}
	if c.Password != "" {
		parts = append(parts, "password="+c.Password)
	}
	return strings.Join(parts, " ")
}

// withConnectTimeout handles both URL and keyword/value DSN forms.
func withConnectTimeout(dsn string, timeout time.Duration) (string, error) {
	secs := int(timeout.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse database url: %w", err)
		}
		q := u.Query()
		if q.Get("connect_timeout") == "" {
			q.Set("connect_timeout", strconv.Itoa(secs))
			u.RawQuery = q.Encode()
		}
		return u.String(), nil
	}
	if strings.Contains(dsn, "connect_timeout=") {
		return dsn, nil
	}
	return dsn + " connect_timeout=" + strconv.Itoa(secs), nil
}

func buildReplicaDialectors(sources []SourceConfig) ([]gorm.Dialector, error) {
	if len(sources) == 0 {
		return nil, nil
	}
	dialectors := make([]gorm.Dialector, 0, len(sources))
	for i, s := range sources {
		if strings.TrimSpace(s.DSN) == "" {
			return nil, fmt.Errorf("replica %d: dsn is required", i)
		}
		dialectors = append(dialectors, postgres.Open(s.DSN))
	}
	return dialectors, nil
}
