package metrics

import (
	"github.com/go-arcade/squadio/pkg/database"
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// ProviderSet is a Wire provider set for metrics
var ProviderSet = wire.NewSet(
	NewMetricsServer,
	ProvideCronRecorder,
	ProvideMaintenanceRecorder,
)

// NewMetricsServer creates the server and registers the connection pool
// collector for m.
func NewMetricsServer(config Config, m database.Manager) *Server {
	server := NewServer(config)
	server.registry.MustRegister(collectors.NewDBStatsCollector(m.SQL(), m.Dialect()))
	return server
}

func ProvideCronRecorder(s *Server) *CronMetricsRecorder {
	return NewCronMetricsRecorder(s.GetRegistry())
}

func ProvideMaintenanceRecorder(s *Server) *MaintenanceRecorder {
	return NewMaintenanceRecorder(s.GetRegistry())
}
