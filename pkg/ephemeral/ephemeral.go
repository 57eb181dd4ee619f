package ephemeral

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const defaultImage = "postgres:16-alpine"

// Database is a disposable PostgreSQL instance.
type Database struct {
	URL       string
	container testcontainers.Container
}

// Options configures the disposable database.
type Options struct {
	// Image is the postgres container image (default postgres:16-alpine).
	Image string
	// Database, Username, Password override the container credentials.
	Database string
	Username string
	Password string
}

func (o *Options) withDefaults() Options {
	opts := Options{Image: defaultImage, Database: "migratest", Username: "migratest", Password: "migratest"}
	if o == nil {
		return opts
	}
	if o.Image != "" {
		opts.Image = o.Image
	}
	if o.Database != "" {
		opts.Database = o.Database
	}
	if o.Username != "" {
		opts.Username = o.Username
	}
	if o.Password != "" {
		opts.Password = o.Password
	}
	return opts
}

// Start launches a PostgreSQL container and waits until it accepts
// connections.
func Start(ctx context.Context, options *Options) (*Database, error) {
	opts := options.withDefaults()

	pgContainer, err := tcpostgres.Run(ctx,
		opts.Image,
		tcpostgres.WithDatabase(opts.Database),
		tcpostgres.WithUsername(opts.Username),
		tcpostgres.WithPassword(opts.Password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := pgContainer.Host(ctx)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	return &Database{
		URL: fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			opts.Username, opts.Password, host, port.Port(), opts.Database),
		container: pgContainer,
	}, nil
}

// Terminate stops and removes the container.
func (d *Database) Terminate(ctx context.Context) error {
	if d.container == nil {
		return nil
	}
	return d.container.Terminate(ctx)
}
