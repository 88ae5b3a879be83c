package config

import (
	"github.com/go-arcade/squadio/internal/ledger/maintenance"
	"github.com/go-arcade/squadio/pkg/database"
	"github.com/go-arcade/squadio/pkg/log"
	"github.com/go-arcade/squadio/pkg/metrics"
	"github.com/go-arcade/squadio/pkg/storage"
	"github.com/google/wire"
)

// ProviderSet splits AppConfig into the sections each package consumes.
var ProviderSet = wire.NewSet(
	ProvideLogConf,
	ProvideDatabase,
	ProvideMetrics,
	ProvideMaintenance,
	ProvideArchive,
)

func ProvideLogConf(c AppConfig) *log.Conf {
	return &c.Log
}

func ProvideDatabase(c AppConfig) database.Database {
	return c.Database
}

func ProvideMetrics(c AppConfig) metrics.Config {
	return c.Metrics
}

func ProvideMaintenance(c AppConfig) maintenance.Config {
	return c.Maintenance
}

func ProvideArchive(c AppConfig) storage.Config {
	return c.Archive
}
