package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/doodlesbykumbi/migratest/pkg/db"
	"github.com/doodlesbykumbi/migratest/pkg/history"
	"github.com/doodlesbykumbi/migratest/pkg/runner"
	"github.com/doodlesbykumbi/migratest/pkg/schema"
)

// defaultChecks is the suite that runs unless include/exclude say
// otherwise.
var defaultChecks = []Check{
	{
		Name:    "single_head",
		Summary: "The revision history is linear with exactly one head",
		Run:     singleHead,
	},
	{
		Name:    "upgrade",
		Summary: "Migrations apply cleanly from the empty database to head",
		Run:     upgrade,
	},
	{
		Name:    "up_down_consistency",
		Summary: "Downgrading from head returns the schema to its starting state",
		Run:     upDownConsistency,
	},
	{
		Name:    "model_definitions_match_ddl",
		Summary: "Registered models agree with the fully migrated schema",
		Run:     modelDefinitionsMatchDDL,
	},
}

func snapshot(ctx context.Context, mc *runner.Context, opts Options) (*schema.Snapshot, error) {
	return schema.Capture(ctx, mc.SQL(), opts.Schema, opts.IgnoreTables...)
}

func failDiffs(msg string, diffs []string) error {
	return Failuref("%s:\n  %s", msg, strings.Join(diffs, "\n  "))
}

func singleHead(ctx context.Context, mc *runner.Context, opts Options) error {
	hist := mc.History()
	if hist.Len() == 0 {
		return Failuref("migration source contains no revisions")
	}
	heads, err := mc.Heads()
	if err != nil {
		return err
	}
	if len(heads) != 1 {
		return Failuref("expected exactly one head revision, found %d: %v", len(heads), heads)
	}
	return nil
}

func upgrade(ctx context.Context, mc *runner.Context, opts Options) error {
	head, err := mc.History().Head()
	if err != nil {
		return Failuref("migration source contains no revisions")
	}
	if err := mc.ManagedUpgrade(ctx, head.Version); err != nil {
		return Failuref("upgrade to head did not complete: %v", err)
	}

	current, dirty, err := mc.Current()
	if err != nil {
		return err
	}
	if dirty {
		return Failuref("database left dirty at version %d", current)
	}
	if current != head.Version {
		return Failuref("expected version %d after upgrade, got %d", head.Version, current)
	}
	return nil
}

func upDownConsistency(ctx context.Context, mc *runner.Context, opts Options) error {
	head, err := mc.History().Head()
	if err != nil {
		return Failuref("migration source contains no revisions")
	}

	floor := opts.MinimumDowngradeVersion
	if floor != history.BaseVersion {
		if err := mc.History().Validate(floor); err != nil {
			return err
		}
		if err := mc.MigrateUpTo(ctx, floor); err != nil {
			return err
		}
	}

	before, err := snapshot(ctx, mc, opts)
	if err != nil {
		return err
	}

	if err := mc.ManagedUpgrade(ctx, head.Version); err != nil {
		return Failuref("upgrade to head did not complete: %v", err)
	}
	if err := mc.MigrateDownTo(floor); err != nil {
		return Failuref("downgrade from head did not complete: %v", err)
	}

	after, err := snapshot(ctx, mc, opts)
	if err != nil {
		return err
	}

	if diffs := schema.Diff(before, after); len(diffs) > 0 {
		return failDiffs("schema does not return to its starting state after up/down", diffs)
	}
	return nil
}

// expectedSchema is the scratch schema the model check builds the
// model-derived DDL in.
const expectedSchema = "migratest_expected"

func modelDefinitionsMatchDDL(ctx context.Context, mc *runner.Context, opts Options) error {
	if len(opts.Models) == 0 {
		return fmt.Errorf("%w: no models registered", ErrSkip)
	}
	if opts.DatabaseURL == "" {
		return fmt.Errorf("model check requires the database URL")
	}

	head, err := mc.History().Head()
	if err != nil {
		return Failuref("migration source contains no revisions")
	}
	if err := mc.ManagedUpgrade(ctx, head.Version); err != nil {
		return Failuref("upgrade to head did not complete: %v", err)
	}

	sqlDB := mc.SQL()
	if _, err := sqlDB.ExecContext(ctx, "DROP SCHEMA IF EXISTS "+expectedSchema+" CASCADE"); err != nil {
		return fmt.Errorf("failed to drop scratch schema: %w", err)
	}
	if _, err := sqlDB.ExecContext(ctx, "CREATE SCHEMA "+expectedSchema); err != nil {
		return fmt.Errorf("failed to create scratch schema: %w", err)
	}
	defer func() {
		_, _ = sqlDB.Exec("DROP SCHEMA IF EXISTS " + expectedSchema + " CASCADE")
	}()

	expDB, err := db.Connect(db.Config{URL: withSearchPath(opts.DatabaseURL, expectedSchema)})
	if err != nil {
		return fmt.Errorf("failed to connect to scratch schema: %w", err)
	}
	defer func() {
		if raw, err := db.Raw(expDB); err == nil {
			_ = raw.Close()
		}
	}()

	if err := expDB.AutoMigrate(opts.Models...); err != nil {
		return fmt.Errorf("failed to build schema from models: %w", err)
	}

	migrated, err := snapshot(ctx, mc, opts)
	if err != nil {
		return err
	}
	expected, err := schema.Capture(ctx, sqlDB, expectedSchema)
	if err != nil {
		return err
	}

	if diffs := schema.Diff(migrated, expected); len(diffs) > 0 {
		return failDiffs("models do not match the migrated schema", diffs)
	}
	return nil
}

// withSearchPath appends a search_path runtime parameter to a
// PostgreSQL connection URL.
func withSearchPath(dbURL, schemaName string) string {
	if strings.Contains(dbURL, "?") {
		return dbURL + "&search_path=" + schemaName
	}
	return dbURL + "?search_path=" + schemaName
}
