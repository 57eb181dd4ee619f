package integration

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/doodlesbykumbi/migratest/pkg/ephemeral"
)

// TestContext holds the resources shared by all integration scenarios.
type TestContext struct {
	Postgres    *ephemeral.Database
	DatabaseURL string
	RawDB       *sql.DB
}

// NewTestContext starts a PostgreSQL testcontainer and opens a raw
// connection for per-scenario cleanup.
func NewTestContext(ctx context.Context) (*TestContext, error) {
	pg, err := ephemeral.Start(ctx, nil)
	if err != nil {
		return nil, err
	}

	rawDB, err := sql.Open("postgres", pg.URL)
	if err != nil {
		_ = pg.Terminate(ctx)
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}
	if err := rawDB.PingContext(ctx); err != nil {
		_ = pg.Terminate(ctx)
		return nil, fmt.Errorf("failed to ping test database: %w", err)
	}

	return &TestContext{
		Postgres:    pg,
		DatabaseURL: pg.URL,
		RawDB:       rawDB,
	}, nil
}

// ResetDatabase drops and recreates the public schema, wiping tables
// and migration bookkeeping alike.
func (tc *TestContext) ResetDatabase(ctx context.Context) error {
	statements := []string{
		"DROP SCHEMA public CASCADE",
		"CREATE SCHEMA public",
		"DROP SCHEMA IF EXISTS migratest_expected CASCADE",
	}
	for _, stmt := range statements {
		if _, err := tc.RawDB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to reset database (%s): %w", stmt, err)
		}
	}
	return nil
}

// Close releases the database connection and the container.
func (tc *TestContext) Close(ctx context.Context) {
	if tc.RawDB != nil {
		_ = tc.RawDB.Close()
	}
	if tc.Postgres != nil {
		_ = tc.Postgres.Terminate(ctx)
	}
}
