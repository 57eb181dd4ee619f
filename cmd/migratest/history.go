package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/migratest/pkg/config"
	"github.com/doodlesbykumbi/migratest/pkg/history"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the revision history of a migration directory",
	Long: `Print the revision history of a migration directory.

No database is needed; the history is parsed from the migration
filenames alone.

Example:
  migratest history
  migratest history --migrations db/migrations`,
	Run: func(cmd *cobra.Command, args []string) {
		dir, _ := cmd.Flags().GetString("migrations")
		if err := showHistory(dir); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read history: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringP("migrations", "m", "", "Migration directory (default from config)")
}

func showHistory(dir string) error {
	if dir == "" {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		dir = cfg.MigrationsDir
	}

	hist, err := history.Load(dir)
	if err != nil {
		return err
	}
	if hist.Len() == 0 {
		fmt.Println("No revisions found")
		return nil
	}

	for _, rev := range hist.Revisions() {
		marker := " "
		if !rev.HasDown() {
			marker = "!"
		}
		fmt.Printf("%s %d %s\n", marker, rev.Version, rev.Name)
	}

	if missing := hist.MissingDown(); len(missing) > 0 {
		fmt.Printf("\n%d revision(s) without a down migration (marked !)\n", len(missing))
	}
	return nil
}
