// Package checks defines the migration consistency checks and the
// registry the CLI and host test suites discover them through.
//
// Each check runs against a fresh database state via a runner.Context
// and reports one of four outcomes: passed, failed (an inconsistency
// was found), skipped, or errored (the check could not complete).
//
// # Default Suite
//
//   - single_head: the revision history is linear with one head
//   - upgrade: migrations apply end to end from base to head
//   - up_down_consistency: down migrations fully invert up migrations
//   - model_definitions_match_ddl: registered GORM models agree with
//     the migrated schema
//
// # Experimental Suite
//
// Excluded by default, enabled via configuration or explicit include:
//
//   - downgrade_leaves_no_trace: per-revision up/down leaves the
//     schema untouched
//   - roundtrip: each revision survives up/down/up
//   - downgrade_coverage: every revision has a down migration
//
// # Selection
//
//	selected, err := checks.Select(cfg.Include, cfg.Exclude, cfg.Experimental)
//	summary := checks.RunSuite(ctx, mc, selected, opts)
package checks
