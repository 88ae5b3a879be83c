package maintenance_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-arcade/squadio/internal/ledger/dbtest"
	"github.com/go-arcade/squadio/internal/ledger/maintenance"
	"github.com/go-arcade/squadio/internal/ledger/model"
	"github.com/go-arcade/squadio/internal/ledger/repo"
	"github.com/go-arcade/squadio/internal/ledger/seed"
	"github.com/go-arcade/squadio/pkg/cron"
	"github.com/go-arcade/squadio/pkg/database"
	"github.com/go-arcade/squadio/pkg/runner"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type run struct {
	operation, status string
	ok                bool
}

type fakeRecorder struct {
	mu      sync.Mutex
	runs    []run
	purged  map[string]int64
	healthy *bool
}

func (r *fakeRecorder) RecordRun(operation, status string, ok bool, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run{operation, status, ok})
}

func (r *fakeRecorder) RecordPurged(table string, rows int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.purged == nil {
		r.purged = map[string]int64{}
	}
	r.purged[table] += rows
}

func (r *fakeRecorder) RecordHealth(healthy bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.healthy = &healthy
}

type fakeRunner struct {
	calls  []runner.Command
	result runner.Result
	err    error
}

func (f *fakeRunner) Run(_ context.Context, cmd runner.Command) (*runner.Result, error) {
	f.calls = append(f.calls, cmd)
	res := f.result
	return &res, f.err
}

type fakeArchive struct {
	uploads   map[string]string
	content   string
	uploadErr error
}

func (a *fakeArchive) Upload(_ context.Context, objectName, localPath string) (string, error) {
	if a.uploadErr != nil {
		return "", a.uploadErr
	}
	if a.uploads == nil {
		a.uploads = map[string]string{}
	}
	a.uploads[objectName] = localPath
	return "backups/" + objectName, nil
}

func (a *fakeArchive) Download(_ context.Context, objectName, localPath string) error {
	if objectName == "missing" {
		return errors.New("object not found")
	}
	return os.WriteFile(localPath, []byte(a.content), 0o600)
}

type env struct {
	ctx   context.Context
	m     database.Manager
	repos *repo.Repositories
	res   *seed.Result
	rec   *fakeRecorder
	svc   *maintenance.Service
}

func newEnv(t *testing.T, opts ...maintenance.Option) *env {
	t.Helper()
	ctx := context.Background()
	m := dbtest.Open(t)
	repos := repo.NewRepositories(m.DB())
	res, err := seed.NewSeeder(repos).Run(ctx)
	require.NoError(t, err)

	rec := &fakeRecorder{}
	opts = append([]maintenance.Option{maintenance.WithRecorder(rec)}, opts...)
	return &env{
		ctx:   ctx,
		m:     m,
		repos: repos,
		res:   res,
		rec:   rec,
		svc:   maintenance.NewService(m, maintenance.Config{BackupDir: t.TempDir()}, opts...),
	}
}

// deletedUser adds a member to the first squad and soft-deletes it age ago.
func (e *env) deletedUser(t *testing.T, name string, age time.Duration) uuid.UUID {
	t.Helper()
	u := &model.User{Username: name, Email: name + "@example.com", HashedPassword: "x", FullName: name}
	u.SquadID = e.res.Squads[0]
	require.NoError(t, e.repos.Users.Create(e.ctx, u))
	require.NoError(t, e.repos.Users.SoftDelete(e.ctx, u.SquadID, u.ID))
	e.backdate(t, "users", u.ID, age)
	return u.ID
}

func (e *env) backdate(t *testing.T, table string, id uuid.UUID, age time.Duration) {
	t.Helper()
	at := time.Now().UTC().Add(-age)
	require.NoError(t, e.m.DB().Exec("UPDATE "+table+" SET deleted_at = ? WHERE id = ?", at, id).Error)
}

func (e *env) count(t *testing.T, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.m.DB().Table(table).Count(&n).Error)
	return n
}

func (e *env) exists(t *testing.T, table string, id uuid.UUID) bool {
	t.Helper()
	var n int64
	require.NoError(t, e.m.DB().Table(table).Where("id = ?", id).Count(&n).Error)
	return n == 1
}

const day = 24 * time.Hour

func TestHealth_Healthy(t *testing.T) {
	e := newEnv(t)

	report := e.svc.Health(e.ctx)
	assert.Equal(t, maintenance.StatusHealthy, report.Status)
	assert.True(t, report.OK())
	assert.Empty(t, report.Error)
	assert.Len(t, report.RunID, 20)
	assert.False(t, report.Timestamp.IsZero())
	assert.Equal(t, 20, report.Pool.MaxOpen)
	assert.GreaterOrEqual(t, report.Pool.Total, 1)
	assert.GreaterOrEqual(t, report.Pool.Idle, 0)
	assert.GreaterOrEqual(t, report.Pool.Waiting, int64(0))

	require.NotNil(t, e.rec.healthy)
	assert.True(t, *e.rec.healthy)
}

func TestHealth_UnhealthyNeverPanics(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.m.Close())

	report := e.svc.Health(e.ctx)
	assert.Equal(t, maintenance.StatusUnhealthy, report.Status)
	assert.NotEmpty(t, report.Error)
	assert.False(t, report.OK())
	assert.Equal(t, run{maintenance.OpHealth, maintenance.StatusUnhealthy, false}, e.rec.runs[0])
	assert.False(t, *e.rec.healthy)
}

func TestPurge_RetentionWindow(t *testing.T) {
	e := newEnv(t)
	old := e.deletedUser(t, "olduser", 31*day)
	young := e.deletedUser(t, "younguser", 10*day)

	before := map[string]int64{}
	for _, table := range []string{"users", "rankings", "ios", "seconds", "notifications"} {
		before[table] = e.count(t, table)
	}

	report := e.svc.Purge(e.ctx, 0)
	require.Equal(t, maintenance.StatusSuccess, report.Status, report.Error)
	assert.Equal(t, maintenance.DefaultRetentionDays, report.RetentionDays)
	assert.True(t, report.Compacted)
	assert.Equal(t, []maintenance.TablePurge{
		{Table: "users", Deleted: 1},
		{Table: "squads"},
	}, report.Tables)

	assert.False(t, e.exists(t, "users", old))
	assert.True(t, e.exists(t, "users", young))
	assert.Equal(t, before["users"]-1, e.count(t, "users"))
	for _, table := range []string{"rankings", "ios", "seconds", "notifications"} {
		assert.Equal(t, before[table], e.count(t, table), table)
	}
	assert.EqualValues(t, 1, e.rec.purged["users"])
}

func TestPurge_CustomRetention(t *testing.T) {
	e := newEnv(t)
	u := e.deletedUser(t, "weekold", 10*day)

	report := e.svc.Purge(e.ctx, 7)
	require.True(t, report.OK(), report.Error)
	assert.Equal(t, 7, report.RetentionDays)
	assert.False(t, e.exists(t, "users", u))
}

func TestPurge_ReferencedRowsRetained(t *testing.T) {
	e := newEnv(t)
	jane, err := e.repos.Users.GetByUsername(e.ctx, e.res.Squads[0], "janedoe")
	require.NoError(t, err)
	require.NoError(t, e.repos.Users.SoftDelete(e.ctx, jane.SquadID, jane.ID))
	e.backdate(t, "users", jane.ID, 45*day)

	report := e.svc.Purge(e.ctx, 0)
	require.True(t, report.OK(), report.Error)
	assert.Equal(t, maintenance.TablePurge{Table: "users", Deleted: 0, Retained: 1}, report.Tables[0])
	assert.True(t, e.exists(t, "users", jane.ID))
}

func TestPurge_SquadAfterItsUsers(t *testing.T) {
	e := newEnv(t)

	sq := &model.Squad{Name: "Disbanded"}
	require.NoError(t, e.repos.Squads.Create(e.ctx, sq))
	u := &model.User{Username: "last", Email: "last@example.com", HashedPassword: "x", FullName: "Last One"}
	u.SquadID = sq.ID
	require.NoError(t, e.repos.Users.Create(e.ctx, u))

	require.NoError(t, e.repos.Users.SoftDelete(e.ctx, sq.ID, u.ID))
	require.NoError(t, e.repos.Squads.SoftDelete(e.ctx, sq.ID))
	e.backdate(t, "users", u.ID, 40*day)
	e.backdate(t, "squads", sq.ID, 40*day)

	report := e.svc.Purge(e.ctx, 0)
	require.True(t, report.OK(), report.Error)
	assert.Equal(t, []maintenance.TablePurge{
		{Table: "users", Deleted: 1},
		{Table: "squads", Deleted: 1},
	}, report.Tables)
	assert.False(t, e.exists(t, "squads", sq.ID))
	assert.EqualValues(t, 2, e.count(t, "squads"))
}

func TestPurge_FailureRollsBackEveryTable(t *testing.T) {
	e := newEnv(t)
	u := e.deletedUser(t, "doomed", 31*day)

	sq := &model.Squad{Name: "Empty"}
	require.NoError(t, e.repos.Squads.Create(e.ctx, sq))
	require.NoError(t, e.repos.Squads.SoftDelete(e.ctx, sq.ID))
	e.backdate(t, "squads", sq.ID, 31*day)

	// the squads step references rankings in its guard
	require.NoError(t, e.m.DB().Exec("DROP TABLE rankings").Error)

	report := e.svc.Purge(e.ctx, 0)
	assert.Equal(t, maintenance.StatusError, report.Status)
	assert.True(t, report.RolledBack)
	assert.Contains(t, report.Error, "purge squads")
	assert.Empty(t, report.Tables)
	assert.True(t, e.exists(t, "users", u), "users purge must be rolled back")
	assert.True(t, e.exists(t, "squads", sq.ID))
	assert.Empty(t, e.rec.purged)
}

type fakeStats struct {
	fail bool
}

func (f fakeStats) TableSizes(context.Context) ([]maintenance.TableSize, error) {
	return []maintenance.TableSize{{Table: "users", TotalBytes: 8192}}, nil
}

func (f fakeStats) IndexUsage(context.Context) ([]maintenance.IndexUsage, error) {
	if f.fail {
		return nil, errors.New("permission denied for pg_stat_user_indexes")
	}
	return []maintenance.IndexUsage{{Table: "users", Index: "uq_users_email", Scans: 3}}, nil
}

func (f fakeStats) ActiveConnections(context.Context) (int64, error) {
	return 2, nil
}

func TestPerformance(t *testing.T) {
	e := newEnv(t, maintenance.WithStatsSource(fakeStats{}))
	report := e.svc.Performance(e.ctx)
	require.True(t, report.OK(), report.Error)
	assert.Len(t, report.TableSizes, 1)
	assert.Equal(t, "uq_users_email", report.IndexUsage[0].Index)
	assert.EqualValues(t, 2, report.ActiveConnections)

	e = newEnv(t, maintenance.WithStatsSource(fakeStats{fail: true}))
	report = e.svc.Performance(e.ctx)
	assert.Equal(t, maintenance.StatusError, report.Status)
	assert.Contains(t, report.Error, "index usage")
	assert.Nil(t, report.TableSizes)
}

func TestPerformance_UnsupportedEngine(t *testing.T) {
	e := newEnv(t)
	report := e.svc.Performance(e.ctx)
	assert.Equal(t, maintenance.StatusError, report.Status)
	assert.Equal(t, maintenance.ErrStatsUnsupported.Error(), report.Error)
}

func TestBackup(t *testing.T) {
	r := &fakeRunner{}
	archive := &fakeArchive{}
	e := newEnv(t, maintenance.WithRunner(r), maintenance.WithArchive(archive))
	dir := filepath.Join(t.TempDir(), "nested")

	report := e.svc.Backup(e.ctx, dir)
	require.True(t, report.OK(), report.Error)
	assert.Equal(t, dir, filepath.Dir(report.Filename))
	name := filepath.Base(report.Filename)
	assert.True(t, strings.HasPrefix(name, "backup-"), name)
	assert.True(t, strings.HasSuffix(name, ".sql"), name)
	assert.NotContains(t, name, ":")
	assert.DirExists(t, dir)

	require.Len(t, r.calls, 1)
	assert.Equal(t, "pg_dump", r.calls[0].Name)
	assert.Equal(t, []string{"--dbname=" + e.m.DSN(), "--file=" + report.Filename}, r.calls[0].Args)

	assert.Equal(t, "backups/"+runner.Hostname+"/"+name, report.Object)
	assert.Equal(t, report.Filename, archive.uploads[runner.Hostname+"/"+name])
}

func TestBackup_ToolFailure(t *testing.T) {
	r := &fakeRunner{
		result: runner.Result{ExitCode: 1, Stderr: "pg_dump: error: connection refused"},
		err:    &runner.ExitError{Command: "pg_dump", Code: 1, Stderr: "pg_dump: error: connection refused"},
	}
	e := newEnv(t, maintenance.WithRunner(r))

	report := e.svc.Backup(e.ctx, "")
	assert.Equal(t, maintenance.StatusError, report.Status)
	assert.Equal(t, 1, report.ExitCode)
	assert.Contains(t, report.Stderr, "connection refused")
	assert.Contains(t, report.Error, "pg_dump")
	assert.Empty(t, report.Filename)
}

func TestBackup_ArchiveFailure(t *testing.T) {
	e := newEnv(t,
		maintenance.WithRunner(&fakeRunner{}),
		maintenance.WithArchive(&fakeArchive{uploadErr: errors.New("bucket unreachable")}))

	report := e.svc.Backup(e.ctx, "")
	assert.Equal(t, maintenance.StatusError, report.Status)
	assert.NotEmpty(t, report.Filename)
	assert.Contains(t, report.Error, "offsite copy failed")
}

func TestRestore(t *testing.T) {
	r := &fakeRunner{}
	e := newEnv(t, maintenance.WithRunner(r))

	report := e.svc.Restore(e.ctx, filepath.Join(t.TempDir(), "nope.sql"))
	assert.Equal(t, maintenance.StatusError, report.Status)
	assert.Empty(t, r.calls)

	file := filepath.Join(t.TempDir(), "backup.sql")
	require.NoError(t, os.WriteFile(file, []byte("SELECT 1;"), 0o600))
	report = e.svc.Restore(e.ctx, file)
	require.True(t, report.OK(), report.Error)
	require.Len(t, r.calls, 1)
	assert.Equal(t, "psql", r.calls[0].Name)
	assert.Contains(t, r.calls[0].Args, "--file="+file)
	assert.Contains(t, r.calls[0].Args, "ON_ERROR_STOP=1")

	r.err = &runner.ExitError{Command: "psql", Code: 3}
	r.result = runner.Result{ExitCode: 3}
	report = e.svc.Restore(e.ctx, file)
	assert.Equal(t, maintenance.StatusError, report.Status)
	assert.Equal(t, 3, report.ExitCode)
}

func TestRestoreObject(t *testing.T) {
	r := &fakeRunner{}
	e := newEnv(t, maintenance.WithRunner(r), maintenance.WithArchive(&fakeArchive{content: "SELECT 1;"}))

	report := e.svc.RestoreObject(e.ctx, "host/backup.sql")
	require.True(t, report.OK(), report.Error)
	assert.Equal(t, "host/backup.sql", report.File)
	require.Len(t, r.calls, 1)

	report = e.svc.RestoreObject(e.ctx, "missing")
	assert.Equal(t, maintenance.StatusError, report.Status)

	e = newEnv(t, maintenance.WithRunner(r))
	report = e.svc.RestoreObject(e.ctx, "host/backup.sql")
	assert.Contains(t, report.Error, "no archive configured")
}

func TestSchedule(t *testing.T) {
	m := dbtest.Open(t)
	svc := maintenance.NewService(m, maintenance.Config{
		HealthSchedule: "@every 1m",
		PurgeSchedule:  "0 3 * * *",
	})
	c := cron.New()
	require.NoError(t, svc.Schedule(c))

	names := func() []string {
		var out []string
		for _, e := range c.Entries() {
			out = append(out, e.Name)
		}
		return out
	}
	assert.Equal(t, []string{maintenance.OpHealth, maintenance.OpPurge}, names())

	require.NoError(t, svc.Reschedule(c, maintenance.Config{BackupSchedule: "0 4 * * *"}))
	assert.Equal(t, []string{maintenance.OpBackup}, names())
	assert.Equal(t, maintenance.DefaultRetentionDays, svc.Config().RetentionDays)

	assert.Error(t, svc.Reschedule(c, maintenance.Config{PurgeSchedule: "nonsense"}))
}
