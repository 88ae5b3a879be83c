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

// Package bootstrap assembles the process and runs the maintenance scheduler.
package bootstrap

import (
	"context"
	"time"

	"github.com/go-arcade/squadio/internal/ledger/config"
	"github.com/go-arcade/squadio/internal/ledger/maintenance"
	"github.com/go-arcade/squadio/internal/ledger/repo"
	"github.com/go-arcade/squadio/internal/ledger/seed"
	"github.com/go-arcade/squadio/pkg/conf"
	"github.com/go-arcade/squadio/pkg/cron"
	"github.com/go-arcade/squadio/pkg/database"
	"github.com/go-arcade/squadio/pkg/log"
	"github.com/go-arcade/squadio/pkg/metrics"
	"github.com/go-arcade/squadio/pkg/shutdown"
)

type App struct {
	Config      config.AppConfig
	Logger      *log.Logger
	DB          database.Manager
	Repos       *repo.Repositories
	Seeder      *seed.Seeder
	Maintenance *maintenance.Service
	Metrics     *metrics.Server
	Cron        *cron.Cron
}

// InitAppFunc is the wire-generated constructor.
type InitAppFunc func(ctx context.Context, cfg config.AppConfig) (*App, func(), error)

func NewApp(
	cfg config.AppConfig,
	logger *log.Logger,
	m database.Manager,
	repos *repo.Repositories,
	seeder *seed.Seeder,
	svc *maintenance.Service,
	metricsServer *metrics.Server,
	c *cron.Cron,
) *App {
	return &App{
		Config:      cfg,
		Logger:      logger,
		DB:          m,
		Repos:       repos,
		Seeder:      seeder,
		Maintenance: svc,
		Metrics:     metricsServer,
		Cron:        c,
	}
}

// Bootstrap loads configuration from file and builds the App.
func Bootstrap(ctx context.Context, file string, initApp InitAppFunc) (*App, *conf.Loader, func(), error) {
	cfg, loader, err := config.Load(file)
	if err != nil {
		return nil, nil, nil, err
	}
	app, cleanup, err := initApp(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return app, loader, cleanup, nil
}

// Run schedules the maintenance jobs, serves metrics and blocks until
// SIGINT or SIGTERM. Schedule changes in the config file apply without a
// restart.
func Run(app *App, loader *conf.Loader) error {
	if err := app.Maintenance.Schedule(app.Cron); err != nil {
		return err
	}
	if err := app.Metrics.Start(); err != nil {
		return err
	}

	if loader != nil {
		loader.Watch(func(l *conf.Loader) {
			cfg, err := config.Decode(l)
			if err != nil {
				log.Errorw("reload configuration", "error", err)
				return
			}
			if err := app.Maintenance.Reschedule(app.Cron, cfg.Maintenance); err != nil {
				log.Errorw("reschedule maintenance", "error", err)
				return
			}
			log.Infow("maintenance rescheduled", "jobs", len(app.Cron.Entries()))
		})
	}

	sm := shutdown.NewManager()
	stop := sm.Notify()
	defer stop()

	app.Cron.Start()
	log.Infow("maintenance scheduler started", "jobs", len(app.Cron.Entries()))

	<-sm.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Metrics.Stop(ctx); err != nil {
		log.Warnw("stop metrics server", "error", err)
	}
	return nil
}
