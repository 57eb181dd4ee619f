// Package db embeds the example migration set that the documentation,
// the integration tests and "migratest check --example" exercise.
package db

import "embed"

// Migrations holds the example migration scripts.
//
//go:embed migrations
var Migrations embed.FS
