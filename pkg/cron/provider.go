package cron

import (
	"context"
	"time"

	"github.com/go-arcade/squadio/pkg/log"
	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(ProvideCron)

const stopTimeout = 30 * time.Second

// ProvideCron returns a UTC scheduler reporting to rec. The cleanup stops it
// and waits for running jobs.
func ProvideCron(rec MetricsRecorder) (*Cron, func()) {
	c := New(WithMetricsRecorder(rec))
	return c, func() {
		ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		if err := c.Stop(ctx); err != nil {
			log.Warnw("cron jobs still running at shutdown", "error", err)
		}
	}
}
