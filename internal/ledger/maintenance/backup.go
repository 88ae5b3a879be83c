package maintenance

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-arcade/squadio/pkg/log"
	"github.com/go-arcade/squadio/pkg/runner"
	"github.com/pkg/errors"
)

type BackupReport struct {
	Report
	Filename string `json:"filename,omitempty"`
	// Object is the archive key when the dump was copied offsite.
	Object   string `json:"object,omitempty"`
	ExitCode int    `json:"exitCode"`
	Stderr   string `json:"stderr,omitempty"`
}

type RestoreReport struct {
	Report
	File     string `json:"file"`
	ExitCode int    `json:"exitCode"`
	Stderr   string `json:"stderr,omitempty"`
}

var stampReplacer = strings.NewReplacer(":", "-", ".", "-")

// backupName is backup-<UTC timestamp>.sql with ':' and '.' made file-safe.
func backupName(t time.Time) string {
	return "backup-" + stampReplacer.Replace(t.UTC().Format("2006-01-02T15:04:05.000Z")) + ".sql"
}

// Backup dumps the database with pg_dump into dir (the configured backup
// directory when empty). With an archive configured the dump is then
// uploaded under <host>/<filename>.
func (s *Service) Backup(ctx context.Context, dir string) BackupReport {
	if dir == "" {
		dir = s.Config().BackupDir
	}
	base, start := s.begin(OpBackup)
	report := BackupReport{Report: base}

	err := s.backup(ctx, dir, start, &report)
	s.finish(&report.Report, start, err, StatusSuccess, StatusError)
	return report
}

func (s *Service) backup(ctx context.Context, dir string, start time.Time, report *BackupReport) error {
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(runner.Pwd, dir)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errors.Wrap(err, "create backup directory")
	}
	filename := filepath.Join(dir, backupName(start))

	res, err := s.runTool(ctx, runner.Command{
		Name: s.Config().PgDump,
		Args: []string{"--dbname=" + s.m.DSN(), "--file=" + filename},
	})
	if res != nil {
		report.ExitCode = res.ExitCode
		report.Stderr = res.Stderr
	}
	if err != nil {
		if rmErr := os.Remove(filename); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Warnw("remove partial backup", "file", filename, "error", rmErr)
		}
		return errors.Wrap(err, "pg_dump")
	}
	report.Filename = filename
	report.Message = "backup created"

	if s.archive == nil {
		return nil
	}
	object, err := s.archive.Upload(ctx, path.Join(runner.Hostname, filepath.Base(filename)), filename)
	if err != nil {
		return errors.Wrap(err, "backup written locally, offsite copy failed")
	}
	report.Object = object
	report.Message = "backup created and archived"
	return nil
}

// Restore replays file into the database with psql, stopping at the first
// error.
func (s *Service) Restore(ctx context.Context, file string) RestoreReport {
	base, start := s.begin(OpRestore)
	report := RestoreReport{Report: base, File: file}

	err := s.restore(ctx, file, &report)
	s.finish(&report.Report, start, err, StatusSuccess, StatusError)
	return report
}

// RestoreObject downloads an archived dump to a temporary file and restores
// it.
func (s *Service) RestoreObject(ctx context.Context, object string) RestoreReport {
	local, cleanup, err := s.fetch(ctx, object)
	if err != nil {
		base, start := s.begin(OpRestore)
		report := RestoreReport{Report: base, File: object}
		s.finish(&report.Report, start, err, StatusSuccess, StatusError)
		return report
	}
	defer cleanup()

	report := s.Restore(ctx, local)
	report.File = object
	return report
}

func (s *Service) fetch(ctx context.Context, object string) (string, func(), error) {
	if s.archive == nil {
		return "", nil, errors.New("no archive configured")
	}
	tmp, err := os.CreateTemp("", "squadio-restore-*.sql")
	if err != nil {
		return "", nil, errors.Wrap(err, "create temp file")
	}
	local := tmp.Name()
	_ = tmp.Close()
	cleanup := func() { _ = os.Remove(local) }

	if err := s.archive.Download(ctx, object, local); err != nil {
		cleanup()
		return "", nil, err
	}
	return local, cleanup, nil
}

func (s *Service) restore(ctx context.Context, file string, report *RestoreReport) error {
	info, err := os.Stat(file)
	if err != nil {
		return errors.Wrap(err, "backup file")
	}
	if info.IsDir() {
		return fmt.Errorf("backup file %s is a directory", file)
	}

	res, err := s.runTool(ctx, runner.Command{
		Name: s.Config().Psql,
		Args: []string{"--dbname=" + s.m.DSN(), "--file=" + file, "-v", "ON_ERROR_STOP=1"},
	})
	if res != nil {
		report.ExitCode = res.ExitCode
		report.Stderr = res.Stderr
	}
	if err != nil {
		return errors.Wrap(err, "psql")
	}
	report.Message = "database restored"
	return nil
}

func (s *Service) runTool(ctx context.Context, cmd runner.Command) (*runner.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Config().toolTimeout())
	defer cancel()
	log.Debugw("running tool", "tool", cmd.Name)
	return s.runner.Run(ctx, cmd)
}
