package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/migratest/pkg/config"
	"github.com/doodlesbykumbi/migratest/pkg/history"
	"github.com/doodlesbykumbi/migratest/pkg/runner"
)

// roundtripCmd represents the roundtrip command
var roundtripCmd = &cobra.Command{
	Use:   "roundtrip [revision]",
	Short: "Upgrade, downgrade and re-upgrade the next revision",
	Long: `Upgrade, downgrade and re-upgrade the next pending revision, verifying
it reapplies cleanly after a rollback.

With a revision argument every pending revision up to and including it
is roundtripped in turn; "head" names the latest revision. With --all
every remaining revision is roundtripped.

Example:
  migratest roundtrip
  migratest roundtrip 20240218141500
  migratest roundtrip head
  migratest roundtrip --all`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		all, _ := cmd.Flags().GetBool("all")
		target := ""
		if len(args) > 0 {
			target = args[0]
		}
		if err := runRoundtrip(cmd, all, target); err != nil {
			fmt.Fprintf(os.Stderr, "Roundtrip failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(roundtripCmd)
	roundtripCmd.Flags().Bool("all", false, "Roundtrip every remaining revision")
}

// roundtripLimit resolves the optional revision argument into the last
// version to roundtrip. "head", "base" and decimal versions are
// accepted.
func roundtripLimit(hist *history.History, target string) (uint64, bool, error) {
	if target == "" {
		return 0, false, nil
	}
	version, err := hist.Resolve(target)
	if err != nil {
		return 0, false, err
	}
	return version, true, nil
}

func runRoundtrip(cmd *cobra.Command, all bool, target string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	mc, err := runner.New(runner.Config{
		DatabaseURL:        cfg.DatabaseURL,
		MigrationsDir:      cfg.MigrationsDir,
		MigrationsTable:    cfg.MigrationsTable,
		BeforeRevisionData: cfg.BeforeRevisionData,
		AtRevisionData:     cfg.AtRevisionData,
	})
	if err != nil {
		return err
	}
	defer func() { _ = mc.Close() }()

	limit, bounded, err := roundtripLimit(mc.History(), target)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	for {
		current, _, err := mc.Current()
		if err != nil {
			return err
		}
		next, err := mc.History().Next(current)
		if errors.Is(err, history.ErrNoNextRevision) || errors.Is(err, history.ErrNoRevisions) {
			fmt.Println("No pending revisions")
			return nil
		}
		if err != nil {
			return err
		}
		if bounded && next.Version > limit {
			return nil
		}

		if err := mc.RoundtripNextRevision(ctx); err != nil {
			return fmt.Errorf("revision %d (%s): %w", next.Version, next.Name, err)
		}
		fmt.Printf("✓ %d %s\n", next.Version, next.Name)

		if !all && !bounded {
			return nil
		}
	}
}
