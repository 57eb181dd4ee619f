package db

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds database connection configuration
type Config struct {
	// URL is the database connection URL (defaults to DATABASE_URL env var)
	URL string
}

// Connect establishes a database connection.
// If no URL is provided, it reads from the environment.
func Connect(cfg Config) (*gorm.DB, error) {
	dbURL := cfg.URL
	if dbURL == "" {
		dbURL = URL()
	}
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	// Default to silent logging unless MIGRATEST_LOG_LEVEL=debug is set
	logMode := logger.Silent
	if os.Getenv("MIGRATEST_LOG_LEVEL") == "debug" {
		logMode = logger.Info
	}

	db, err := gorm.Open(
		postgres.New(postgres.Config{
			DSN:                  dbURL,
			PreferSimpleProtocol: true, // disables implicit prepared statement usage
		}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logMode),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// Raw returns the underlying *sql.DB of a gorm connection.
func Raw(db *gorm.DB) (*sql.DB, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get raw db: %w", err)
	}
	return sqlDB, nil
}

// URL returns the database URL from environment.
// MIGRATEST_DATABASE_URL takes precedence over DATABASE_URL.
// Returns empty string if neither is set.
func URL() string {
	if url := os.Getenv("MIGRATEST_DATABASE_URL"); url != "" {
		return url
	}
	return os.Getenv("DATABASE_URL")
}

// WithMigrationsTable returns the database URL with the bookkeeping
// table golang-migrate should use, leaving the application's own
// schema_migrations table untouched.
func WithMigrationsTable(dbURL, table string) string {
	if dbURL == "" || table == "" {
		return dbURL
	}
	if strings.Contains(dbURL, "?") {
		return dbURL + "&x-migrations-table=" + table
	}
	return dbURL + "?x-migrations-table=" + table
}
