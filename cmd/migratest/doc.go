// Package main implements migratest, a tool that verifies database
// schema migration scripts are internally consistent.
//
// migratest parses a directory of golang-migrate style SQL migrations
// and exercises them against a real PostgreSQL database: upgrading end
// to end, downgrading back, and comparing schema snapshots along the
// way. The individual checks live in pkg/checks.
//
// # Architecture
//
//   - pkg/history: revision history parsing and traversal
//   - pkg/runner: migration execution context (golang-migrate)
//   - pkg/schema: schema snapshots and diffing
//   - pkg/checks: the consistency checks and their registry
//   - pkg/report: Markdown/HTML/JSON rendering of results
//   - pkg/ephemeral: disposable postgres via testcontainers
//   - pkg/config: YAML + environment configuration
//   - pkg/db: database connection utilities
//
// # Quick Start
//
//	# run the default checks against a disposable database
//	migratest check --ephemeral
//
//	# inspect the revision history
//	migratest history
//
//	# keep the checks running while editing migrations
//	migratest watch --ephemeral
//
// # Environment Variables
//
//   - DATABASE_URL / MIGRATEST_DATABASE_URL: PostgreSQL connection string
//   - MIGRATEST_CONFIG_PATH: directory holding migratest.yml
package main
