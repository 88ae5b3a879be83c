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
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-arcade/squadio/pkg/log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"
)

// Manager owns the process-wide connection pool. It is created once at
// startup and passed to every component that touches storage.
type Manager interface {
	// DB returns the gorm handle bound to the pool.
	DB() *gorm.DB

	// SQL returns the underlying database/sql pool.
	SQL() *sql.DB

	// Dialect is the gorm dialector name ("postgres", "sqlite").
	Dialect() string

	// DSN is the primary connection string, used by external tools.
	DSN() string

	// Conn checks a single connection out of the pool, waiting at most the
	// configured acquisition timeout.
	Conn(ctx context.Context) (*sql.Conn, error)

	// Stats reports pool occupancy.
	Stats() PoolStats

	// Close releases every connection. Safe to call more than once.
	Close() error
}

// PoolStats is a snapshot of pool occupancy.
type PoolStats struct {
	Total   int   `json:"total"`
	Idle    int   `json:"idle"`
	InUse   int   `json:"inUse"`
	Waiting int64 `json:"waiting"`
	MaxOpen int   `json:"maxOpen"`
}

type managerImpl struct {
	db             *gorm.DB
	sqlDB          *sql.DB
	dsn            string
	acquireTimeout time.Duration
	closeOnce      sync.Once
	closeErr       error
}

func (m *managerImpl) DB() *gorm.DB    { return m.db }
func (m *managerImpl) SQL() *sql.DB    { return m.sqlDB }
func (m *managerImpl) Dialect() string { return m.db.Dialector.Name() }
func (m *managerImpl) DSN() string     { return m.dsn }

func (m *managerImpl) Conn(ctx context.Context) (*sql.Conn, error) {
	actx, cancel := context.WithTimeout(ctx, m.acquireTimeout)
	defer cancel()
	conn, err := m.sqlDB.Conn(actx)
	if err != nil {
		return nil, Classify(fmt.Errorf("acquire connection: %w", err))
	}
	return conn, nil
}

func (m *managerImpl) Stats() PoolStats {
	s := m.sqlDB.Stats()
	return PoolStats{
		Total:   s.OpenConnections,
		Idle:    s.Idle,
		InUse:   s.InUse,
		Waiting: s.WaitCount,
		MaxOpen: s.MaxOpenConnections,
	}
}

func (m *managerImpl) Close() error {
	m.closeOnce.Do(func() {
		if err := m.sqlDB.Close(); err != nil {
			m.closeErr = fmt.Errorf("failed to close database: %w", err)
		}
	})
	return m.closeErr
}

// NewManager connects to postgres and configures the pool.
func NewManager(ctx context.Context, cfg Database) (Manager, error) {
	dsn, err := cfg.ResolveDSN()
	if err != nil {
		return nil, err
	}
	m, err := open(ctx, postgres.New(postgres.Config{DSN: dsn}), cfg, true)
	if err != nil {
		return nil, err
	}
	m.dsn = dsn

	if len(cfg.Replicas) > 0 {
		replicas, err := buildReplicaDialectors(cfg.Replicas)
		if err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("failed to build replica dialectors: %w", err)
		}
		err = m.DB().Use(dbresolver.Register(dbresolver.Config{
			Replicas:          replicas,
			TraceResolverMode: cfg.OutPut,
		}).
			SetConnMaxIdleTime(cfg.GetConnMaxIdleTime()).
			SetConnMaxLifetime(cfg.GetConnMaxLifetime()).
			SetMaxIdleConns(cfg.MaxIdleConns).
			SetMaxOpenConns(cfg.GetMaxOpenConns()))
		if err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("failed to register DBResolver plugin: %w", err)
		}
		log.Infow("database read replicas registered", "replicas", len(replicas))
	}

	log.Infow("database connected", "dialect", m.Dialect(), "maxOpenConns", cfg.GetMaxOpenConns())
	return m, nil
}

// Dial builds a postgres Manager without contacting the server. The first
// statement opens the first connection, so a down database surfaces as an
// InfraError from that statement. The health check relies on this to
// report an unreachable server instead of failing to start.
func Dial(cfg Database) (Manager, error) {
	dsn, err := cfg.ResolveDSN()
	if err != nil {
		return nil, err
	}
	m, err := open(context.Background(), postgres.New(postgres.Config{DSN: dsn}), cfg, false)
	if err != nil {
		return nil, err
	}
	m.dsn = dsn
	return m, nil
}

// Open wraps any gorm dialector in a Manager with the configured pool.
// Tests use it with an embedded engine.
func Open(ctx context.Context, dialector gorm.Dialector, cfg Database) (Manager, error) {
	m, err := open(ctx, dialector, cfg, true)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func open(ctx context.Context, dialector gorm.Dialector, cfg Database, ping bool) (*managerImpl, error) {
	logConfig := gormlogger.Config{
		SlowThreshold:             cfg.GetSlowThreshold(),
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
		ParameterizedQueries:      true,
	}
	var gormLogger gormlogger.Interface
	if cfg.OutPut {
		logConfig.LogLevel = gormlogger.Info
		gormLogger = NewGormLoggerAdapter(logConfig, gormlogger.Info)
	} else {
		gormLogger = NewGormLoggerAdapter(logConfig, gormlogger.Warn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:               gormLogger,
		NowFunc:              func() time.Time { return time.Now().UTC() },
		DisableAutomaticPing: true,
	})
	if err != nil {
		return nil, Classify(fmt.Errorf("failed to open database: %w", err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.GetMaxOpenConns())
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.GetConnMaxLifetime())
	sqlDB.SetConnMaxIdleTime(cfg.GetConnMaxIdleTime())

	pool := newAcquirePool(sqlDB, cfg.GetAcquireTimeout())
	db.ConnPool = pool
	db.Statement.ConnPool = pool

	m := &managerImpl{
		db:             db,
		sqlDB:          sqlDB,
		acquireTimeout: cfg.GetAcquireTimeout(),
	}

	if !ping {
		return m, nil
	}
	pctx, cancel := context.WithTimeout(ctx, m.acquireTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pctx); err != nil {
		_ = sqlDB.Close()
		return nil, Classify(fmt.Errorf("failed to ping database: %w", err))
	}
	return m, nil
}

// IsClosed reports whether err came from using a pool after Close.
func IsClosed(err error) bool {
	return err != nil && (errors.Is(err, sql.ErrConnDone) || containsAny(err.Error(), "database is closed"))
}
