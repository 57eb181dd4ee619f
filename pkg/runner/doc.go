// Package runner executes migration commands within one database
// context.
//
// A Context pairs a golang-migrate instance with a live connection and
// the parsed revision history. Upgrades step through revisions one at
// a time (ManagedUpgrade) so that configured seed data can be inserted
// before or after individual revisions, exercising migrations that
// only do interesting work when data is present.
//
// # Basic Usage
//
//	mc, err := runner.New(runner.Config{
//	    DatabaseURL:   cfg.DatabaseURL,
//	    MigrationsDir: cfg.MigrationsDir,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer mc.Close()
//
//	head, _ := mc.History().Head()
//	if err := mc.MigrateUpTo(ctx, head.Version); err != nil {
//	    log.Fatal(err)
//	}
//
// The checks package drives a Context through upgrade, downgrade and
// roundtrip sequences to verify migration consistency.
package runner
