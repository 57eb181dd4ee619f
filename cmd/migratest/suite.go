package main

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	migrationsdb "github.com/doodlesbykumbi/migratest/db"
	"github.com/doodlesbykumbi/migratest/pkg/checks"
	"github.com/doodlesbykumbi/migratest/pkg/config"
	"github.com/doodlesbykumbi/migratest/pkg/ephemeral"
	"github.com/doodlesbykumbi/migratest/pkg/model"
	"github.com/doodlesbykumbi/migratest/pkg/report"
	"github.com/doodlesbykumbi/migratest/pkg/runner"
)

// suiteFlags are the check-run settings shared by the check, watch and
// serve commands.
type suiteFlags struct {
	migrationsDir string
	databaseURL   string
	ephemeral     bool
	experimental  bool
	include       []string
	exclude       []string
	example       bool
}

func registerSuiteFlags(cmd *cobra.Command, flags *suiteFlags) {
	cmd.Flags().StringVarP(&flags.migrationsDir, "migrations", "m", "", "Migration directory (default from config)")
	cmd.Flags().StringVar(&flags.databaseURL, "database-url", "", "Database URL (default from config or DATABASE_URL)")
	cmd.Flags().BoolVar(&flags.ephemeral, "ephemeral", false, "Run against a disposable postgres container")
	cmd.Flags().BoolVar(&flags.experimental, "experimental", false, "Enable checks that are excluded by default")
	cmd.Flags().StringSliceVar(&flags.include, "include", nil, "Only run the named checks")
	cmd.Flags().StringSliceVar(&flags.exclude, "exclude", nil, "Skip the named checks")
	cmd.Flags().BoolVar(&flags.example, "example", false, "Use the embedded example migrations and models")
}

// executeSuite builds a runner context per the flags and config, runs
// the selected checks, and returns the rendered report.
func executeSuite(ctx context.Context, cfg *config.Config, flags suiteFlags) (*report.Report, error) {
	migrationsDir := cfg.MigrationsDir
	if flags.migrationsDir != "" {
		migrationsDir = flags.migrationsDir
	}
	databaseURL := cfg.DatabaseURL
	if flags.databaseURL != "" {
		databaseURL = flags.databaseURL
	}

	var source fs.FS
	if flags.example {
		sub, err := fs.Sub(migrationsdb.Migrations, "migrations")
		if err != nil {
			return nil, fmt.Errorf("failed to get embedded migrations: %w", err)
		}
		source = sub
		migrationsDir = "<embedded example>"
	}

	if flags.ephemeral {
		pg, err := ephemeral.Start(ctx, nil)
		if err != nil {
			return nil, err
		}
		defer func() { _ = pg.Terminate(ctx) }()
		databaseURL = pg.URL
	}
	if databaseURL == "" {
		return nil, fmt.Errorf("a database URL is required; set DATABASE_URL or pass --ephemeral")
	}

	include := cfg.Include
	if len(flags.include) > 0 {
		include = flags.include
	}
	exclude := cfg.Exclude
	if len(flags.exclude) > 0 {
		exclude = flags.exclude
	}

	selected, err := checks.Select(include, exclude, flags.experimental || cfg.Experimental)
	if err != nil {
		return nil, err
	}

	mc, err := runner.New(runner.Config{
		DatabaseURL:        databaseURL,
		MigrationsDir:      migrationsDir,
		Source:             source,
		MigrationsTable:    cfg.MigrationsTable,
		BeforeRevisionData: cfg.BeforeRevisionData,
		AtRevisionData:     cfg.AtRevisionData,
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = mc.Close() }()

	opts := checks.Options{
		DatabaseURL:             databaseURL,
		Schema:                  cfg.Schema,
		IgnoreTables:            []string{cfg.MigrationsTable},
		MinimumDowngradeVersion: cfg.MinimumDowngradeVersion,
	}
	if flags.example {
		opts.Models = []any{model.User{}, model.Post{}}
	}

	summary := checks.RunSuite(ctx, mc, selected, opts)
	return report.New(summary, migrationsDir, databaseURL), nil
}
