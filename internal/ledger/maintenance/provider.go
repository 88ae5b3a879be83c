package maintenance

import (
	"github.com/go-arcade/squadio/pkg/database"
	"github.com/go-arcade/squadio/pkg/metrics"
	"github.com/go-arcade/squadio/pkg/runner"
	"github.com/go-arcade/squadio/pkg/storage"
	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(ProvideService)

func ProvideService(
	m database.Manager,
	cfg Config,
	r runner.Runner,
	archive storage.Archive,
	rec *metrics.MaintenanceRecorder,
) *Service {
	return NewService(m, cfg,
		WithRunner(r),
		WithArchive(archive),
		WithRecorder(rec),
	)
}
