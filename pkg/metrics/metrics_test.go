package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_SetDefaults(t *testing.T) {
	c := Config{}.SetDefaults()
	assert.Equal(t, 9464, c.Port)
	assert.Equal(t, "/metrics", c.Path)

	c = Config{Port: 1, Path: "/m"}.SetDefaults()
	assert.Equal(t, 1, c.Port)
	assert.Equal(t, "/m", c.Path)
}

func TestCronMetricsRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewCronMetricsRecorder(reg)

	r.RecordJobRun("purge", 10*time.Millisecond, nil)
	r.RecordJobRun("purge", 10*time.Millisecond, errors.New("boom"))
	r.UpdateJobsCount(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.runs.WithLabelValues("purge")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errors.WithLabelValues("purge")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.jobs))
}

func TestMaintenanceRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewMaintenanceRecorder(reg)

	r.RecordRun("purge", "success", true, time.Second)
	r.RecordRun("purge", "failure", false, time.Second)
	r.RecordPurged("users", 4)
	r.RecordPurged("squads", 0)
	r.RecordHealth(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.runs.WithLabelValues("purge", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runs.WithLabelValues("purge", "failure")))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.purged.WithLabelValues("users")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.healthy))

	// zero purges create no series
	assert.Equal(t, 1, testutil.CollectAndCount(r.purged))
}

func TestServer_Handler(t *testing.T) {
	s := NewServer(Config{})
	r := NewMaintenanceRecorder(s.GetRegistry())
	r.RecordHealth(true)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "squadio_maintenance_database_healthy 1"))

	// disabled server does not listen
	require.NoError(t, s.Start())
	require.NoError(t, s.Stop(t.Context()))
}
