package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/squadio/internal/ledger/bootstrap"
	"github.com/go-arcade/squadio/internal/ledger/config"
	"github.com/go-arcade/squadio/internal/ledger/maintenance"
	"github.com/go-arcade/squadio/internal/ledger/schema"
	"github.com/go-arcade/squadio/pkg/conf"
	"github.com/go-arcade/squadio/pkg/database"
	"github.com/go-arcade/squadio/pkg/log"
	"github.com/spf13/cobra"
)

var (
	seedReset   bool
	purgeDays   int
	backupDir   string
	restoreFile string
	restoreObj  string
)

func init() {
	seedCmd.Flags().BoolVar(&seedReset, "reset", false, "drop and recreate every table before seeding")
	purgeCmd.Flags().IntVar(&purgeDays, "days", 0, "retention window in days, defaults to maintenance.retention_days")
	backupCmd.Flags().StringVar(&backupDir, "dir", "", "output directory, defaults to maintenance.backup_dir")
	restoreCmd.Flags().StringVar(&restoreFile, "file", "", "local dump to restore")
	restoreCmd.Flags().StringVar(&restoreObj, "object", "", "archived dump to download and restore")
	restoreCmd.MarkFlagsMutuallyExclusive("file", "object")
	restoreCmd.MarkFlagsOneRequired("file", "object")
}

// withApp builds the App for one command and tears it down afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *bootstrap.App) error) error {
	ctx := cmd.Context()
	app, _, cleanup, err := bootstrap.Bootstrap(ctx, configFile, initApp)
	if err != nil {
		return err
	}
	defer cleanup()
	defer func() { _ = log.Sync() }()
	return fn(ctx, app)
}

func printJSON(w io.Writer, v any) error {
	out, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// report prints r and turns a failed run into a non-zero exit.
func report(cmd *cobra.Command, v any, r *maintenance.Report) error {
	if err := printJSON(cmd.OutOrStdout(), v); err != nil {
		return err
	}
	if !r.OK() {
		return fmt.Errorf("%s %s", r.Operation, r.Status)
	}
	return nil
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
			if err := schema.Migrate(ctx, app.DB.DB()); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"migrated": schema.Tables()})
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
			db := app.DB.DB()
			if seedReset {
				if err := schema.Reset(ctx, db); err != nil {
					return err
				}
			}
			if err := schema.Migrate(ctx, db); err != nil {
				return err
			}
			res, err := app.Seeder.Run(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res.Counts())
		})
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check database connectivity and pool usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := config.Load(configFile)
		if err != nil {
			return err
		}
		if _, err := log.ProvideLogger(config.ProvideLogConf(cfg)); err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		// no startup ping: a down server is reported, not fatal
		m, err := database.Dial(cfg.Database)
		if err != nil {
			return err
		}
		defer m.Close()

		r := maintenance.NewService(m, cfg.Maintenance).Health(cmd.Context())
		return report(cmd, r, &r.Report)
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Hard-delete rows soft-deleted before the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		if purgeDays < 0 {
			return errors.New("--days must not be negative")
		}
		return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
			r := app.Maintenance.Purge(ctx, purgeDays)
			return report(cmd, r, &r.Report)
		})
	},
}

var perfCmd = &cobra.Command{
	Use:     "perf",
	Aliases: []string{"performance"},
	Short:   "Report table sizes, index usage and active connections",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
			r := app.Maintenance.Performance(ctx)
			return report(cmd, r, &r.Report)
		})
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Dump the database with pg_dump",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
			r := app.Maintenance.Backup(ctx, backupDir)
			return report(cmd, r, &r.Report)
		})
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Replay a dump with psql",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
			var r maintenance.RestoreReport
			if restoreObj != "" {
				r = app.Maintenance.RestoreObject(ctx, restoreObj)
			} else {
				r = app.Maintenance.Restore(ctx, restoreFile)
			}
			return report(cmd, r, &r.Report)
		})
	},
}

var maintainCmd = &cobra.Command{
	Use:   "maintain",
	Short: "Run scheduled maintenance until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, loader, cleanup, err := bootstrap.Bootstrap(cmd.Context(), configFile, initApp)
		if err != nil {
			return err
		}
		defer cleanup()
		defer func() { _ = log.Sync() }()
		return bootstrap.Run(app, loader)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as TOML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := config.Load(configFile)
		if err != nil {
			return err
		}
		cfg.Database.Password = redact(cfg.Database.Password)
		cfg.Database.DSN = redact(cfg.Database.DSN)
		cfg.Archive.SecretKey = redact(cfg.Archive.SecretKey)
		out, err := conf.Encode(cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "******"
}
