package maintenance_test

import (
	"context"
	"testing"

	"github.com/go-arcade/squadio/internal/ledger/dbtest"
	"github.com/go-arcade/squadio/internal/ledger/maintenance"
	"github.com/go-arcade/squadio/internal/ledger/model"
	"github.com/go-arcade/squadio/internal/ledger/repo"
	"github.com/go-arcade/squadio/internal/ledger/seed"
	"github.com/go-arcade/squadio/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgres_Maintenance(t *testing.T) {
	m := dbtest.OpenPostgres(t)
	ctx := context.Background()
	repos := repo.NewRepositories(m.DB())
	res, err := seed.NewSeeder(repos).Run(ctx)
	require.NoError(t, err)

	svc := maintenance.NewService(m, maintenance.Config{})

	health := svc.Health(ctx)
	assert.Equal(t, maintenance.StatusHealthy, health.Status, health.Error)

	perf := svc.Performance(ctx)
	require.True(t, perf.OK(), perf.Error)
	tables := map[string]bool{}
	for _, ts := range perf.TableSizes {
		tables[ts.Table] = true
	}
	for _, name := range []string{"squads", "users", "ios", "seconds", "rankings", "notifications"} {
		assert.True(t, tables[name], name)
	}
	assert.GreaterOrEqual(t, perf.ActiveConnections, int64(1))

	purge := svc.Purge(ctx, 0)
	require.True(t, purge.OK(), purge.Error)
	assert.True(t, purge.Compacted)

	// duplicate usernames are classified from the driver error
	dup := &model.User{Username: "johndoe", Email: "other@example.com", HashedPassword: "x", FullName: "Dup"}
	dup.SquadID = res.Squads[0]
	err = repos.Users.Create(ctx, dup)
	require.Error(t, err)
	var ce *database.ConstraintError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, database.KindUnique, ce.Kind)
	assert.True(t, ce.HasColumns("squad_id", "username"), ce.Columns)
}
