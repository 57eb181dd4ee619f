package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/migratest/pkg/config"
	"github.com/doodlesbykumbi/migratest/pkg/history"
	"github.com/doodlesbykumbi/migratest/pkg/runner"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the currently applied migration version",
	Long: `Show the currently applied migration version and whether the
database is in a dirty state.

Example:
  migratest status`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := showStatus(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to get status: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	mc, err := runner.New(runner.Config{
		DatabaseURL:     cfg.DatabaseURL,
		MigrationsDir:   cfg.MigrationsDir,
		MigrationsTable: cfg.MigrationsTable,
	})
	if err != nil {
		return err
	}
	defer func() { _ = mc.Close() }()

	current, dirty, err := mc.Current()
	if err != nil {
		return err
	}

	if current == history.BaseVersion {
		fmt.Println("No migrations have been applied yet")
	} else {
		fmt.Printf("Current version: %d\n", current)
	}
	if dirty {
		fmt.Println("Warning: Database is in a dirty state")
	}

	if head, err := mc.History().Head(); err == nil && head.Version != current {
		fmt.Printf("Head version: %d (%s)\n", head.Version, head.Name)
	}
	return nil
}
