//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/go-arcade/squadio/internal/ledger/bootstrap"
	"github.com/go-arcade/squadio/internal/ledger/config"
	"github.com/go-arcade/squadio/internal/ledger/maintenance"
	"github.com/go-arcade/squadio/internal/ledger/repo"
	"github.com/go-arcade/squadio/internal/ledger/seed"
	"github.com/go-arcade/squadio/pkg/cron"
	"github.com/go-arcade/squadio/pkg/database"
	"github.com/go-arcade/squadio/pkg/log"
	"github.com/go-arcade/squadio/pkg/metrics"
	"github.com/go-arcade/squadio/pkg/runner"
	"github.com/go-arcade/squadio/pkg/storage"
	"github.com/google/wire"
)

func initApp(ctx context.Context, cfg config.AppConfig) (*bootstrap.App, func(), error) {
	panic(wire.Build(
		config.ProviderSet,
		log.ProviderSet,
		database.ProviderSet,
		repo.ProviderSet,
		seed.ProviderSet,
		storage.ProviderSet,
		runner.ProviderSet,
		metrics.ProviderSet,
		wire.Bind(new(cron.MetricsRecorder), new(*metrics.CronMetricsRecorder)),
		cron.ProviderSet,
		maintenance.ProviderSet,
		bootstrap.NewApp,
	))
}
