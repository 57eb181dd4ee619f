package checks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/doodlesbykumbi/migratest/pkg/history"
	"github.com/doodlesbykumbi/migratest/pkg/runner"
	"github.com/doodlesbykumbi/migratest/pkg/schema"
)

// experimentalChecks are excluded by default; the experimental config
// flag or an explicit include pulls them in.
var experimentalChecks = []Check{
	{
		Name:         "downgrade_leaves_no_trace",
		Summary:      "Each revision's downgrade removes everything its upgrade created",
		Experimental: true,
		Run:          downgradeLeavesNoTrace,
	},
	{
		Name:         "roundtrip",
		Summary:      "Each revision reapplies cleanly after being rolled back",
		Experimental: true,
		Run:          roundtrip,
	},
	{
		Name:         "downgrade_coverage",
		Summary:      "Every revision above the downgrade floor has a down migration",
		Experimental: true,
		Run:          downgradeCoverage,
	},
}

func upgradeToFloor(ctx context.Context, mc *runner.Context, floor uint64) error {
	if floor == history.BaseVersion {
		return nil
	}
	if err := mc.History().Validate(floor); err != nil {
		return err
	}
	return mc.MigrateUpTo(ctx, floor)
}

func downgradeLeavesNoTrace(ctx context.Context, mc *runner.Context, opts Options) error {
	if err := upgradeToFloor(ctx, mc, opts.MinimumDowngradeVersion); err != nil {
		return err
	}

	for {
		current, _, err := mc.Current()
		if err != nil {
			return err
		}
		next, err := mc.History().Next(current)
		if errors.Is(err, history.ErrNoNextRevision) || errors.Is(err, history.ErrNoRevisions) {
			return nil
		}
		if err != nil {
			return err
		}

		if !next.HasDown() {
			// Nothing to verify without a down script; the
			// downgrade_coverage check reports it.
			if err := mc.MigrateUpTo(ctx, next.Version); err != nil {
				return err
			}
			continue
		}

		before, err := snapshot(ctx, mc, opts)
		if err != nil {
			return err
		}
		if err := mc.MigrateUpTo(ctx, next.Version); err != nil {
			return Failuref("upgrade to %d (%s) did not complete: %v", next.Version, next.Name, err)
		}
		if err := mc.MigrateDownOne(); err != nil {
			return Failuref("downgrade of %d (%s) did not complete: %v", next.Version, next.Name, err)
		}
		after, err := snapshot(ctx, mc, opts)
		if err != nil {
			return err
		}
		if diffs := schema.Diff(before, after); len(diffs) > 0 {
			return failDiffs(fmt.Sprintf("downgrade of %d (%s) leaves traces", next.Version, next.Name), diffs)
		}

		if err := mc.MigrateUpTo(ctx, next.Version); err != nil {
			return err
		}
	}
}

func roundtrip(ctx context.Context, mc *runner.Context, opts Options) error {
	if err := upgradeToFloor(ctx, mc, opts.MinimumDowngradeVersion); err != nil {
		return err
	}

	for {
		current, _, err := mc.Current()
		if err != nil {
			return err
		}
		next, err := mc.History().Next(current)
		if errors.Is(err, history.ErrNoNextRevision) || errors.Is(err, history.ErrNoRevisions) {
			return nil
		}
		if err != nil {
			return err
		}

		if !next.HasDown() {
			if err := mc.MigrateUpTo(ctx, next.Version); err != nil {
				return err
			}
			continue
		}

		if err := mc.RoundtripNextRevision(ctx); err != nil {
			return Failuref("revision %d (%s) does not survive up/down/up: %v", next.Version, next.Name, err)
		}
	}
}

func downgradeCoverage(ctx context.Context, mc *runner.Context, opts Options) error {
	missing := missingDownAboveFloor(mc.History(), opts.MinimumDowngradeVersion)
	if len(missing) > 0 {
		return Failuref("revisions without a down migration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// missingDownAboveFloor lists the revisions above the downgrade floor
// that lack a down script. Revisions at or below the floor are never
// downgraded, so they are exempt.
func missingDownAboveFloor(hist *history.History, floor uint64) []string {
	var missing []string
	for _, rev := range hist.MissingDown() {
		if rev.Version <= floor {
			continue
		}
		missing = append(missing, fmt.Sprintf("%d (%s)", rev.Version, rev.Name))
	}
	return missing
}
