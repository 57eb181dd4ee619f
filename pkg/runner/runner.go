package runner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/migratest/pkg/config"
	"github.com/doodlesbykumbi/migratest/pkg/db"
	"github.com/doodlesbykumbi/migratest/pkg/history"
)

// Config holds everything needed to build a migration execution context.
type Config struct {
	// DatabaseURL is the PostgreSQL connection string.
	DatabaseURL string

	// MigrationsDir is the directory holding the migration scripts.
	MigrationsDir string

	// Source optionally overrides MigrationsDir with an in-memory or
	// embedded filesystem rooted at the migration scripts.
	Source fs.FS

	// MigrationsTable is the golang-migrate bookkeeping table.
	MigrationsTable string

	// BeforeRevisionData holds rows inserted before upgrading to a revision.
	BeforeRevisionData config.RevisionData

	// AtRevisionData holds rows inserted after upgrading to a revision.
	AtRevisionData config.RevisionData
}

// Context executes migration commands against one database, stepping
// through the revision history one version at a time so that seed data
// can be injected between revisions.
type Context struct {
	migrate *migrate.Migrate
	hist    *history.History
	gormDB  *gorm.DB
	sqlDB   *sql.DB
	before  config.RevisionData
	at      config.RevisionData
}

// New builds a Context. The migration source is parsed before any
// database connection is attempted.
func New(cfg Config) (*Context, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}
	if cfg.MigrationsTable == "" {
		cfg.MigrationsTable = config.DefaultMigrationsTable
	}

	var (
		hist *history.History
		err  error
	)
	if cfg.Source != nil {
		hist, err = history.Parse(cfg.Source, ".")
	} else {
		hist, err = history.Load(cfg.MigrationsDir)
	}
	if err != nil {
		return nil, err
	}

	migrateURL := db.WithMigrationsTable(cfg.DatabaseURL, cfg.MigrationsTable)

	var m *migrate.Migrate
	if cfg.Source != nil {
		d, err := iofs.New(cfg.Source, ".")
		if err != nil {
			return nil, fmt.Errorf("failed to create iofs driver: %w", err)
		}
		m, err = migrate.NewWithSourceInstance("iofs", d, migrateURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create migrate instance: %w", err)
		}
		return newContext(cfg, m, hist)
	}

	m, err = migrate.New("file://"+cfg.MigrationsDir, migrateURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return newContext(cfg, m, hist)
}

func newContext(cfg Config, m *migrate.Migrate, hist *history.History) (*Context, error) {
	gormDB, err := db.Connect(db.Config{URL: cfg.DatabaseURL})
	if err != nil {
		_, _ = m.Close()
		return nil, err
	}
	sqlDB, err := db.Raw(gormDB)
	if err != nil {
		_, _ = m.Close()
		return nil, err
	}

	return &Context{
		migrate: m,
		hist:    hist,
		gormDB:  gormDB,
		sqlDB:   sqlDB,
		before:  cfg.BeforeRevisionData,
		at:      cfg.AtRevisionData,
	}, nil
}

// History returns the parsed revision history.
func (c *Context) History() *history.History {
	return c.hist
}

// DB returns the gorm connection the context inserts seed data through.
func (c *Context) DB() *gorm.DB {
	return c.gormDB
}

// SQL returns the raw database connection, for schema snapshots.
func (c *Context) SQL() *sql.DB {
	return c.sqlDB
}

// Current returns the currently applied version and the dirty flag.
// An unmigrated database reports history.BaseVersion.
func (c *Context) Current() (uint64, bool, error) {
	version, dirty, err := c.migrate.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return history.BaseVersion, false, nil
		}
		return 0, false, fmt.Errorf("failed to read current version: %w", err)
	}
	return uint64(version), dirty, nil
}

// Heads returns the head versions of the history. The history is
// linear, so a well-formed source has exactly one.
func (c *Context) Heads() ([]uint64, error) {
	head, err := c.hist.Head()
	if err != nil {
		return nil, err
	}
	return []uint64{head.Version}, nil
}

// InsertInto inserts rows into table on the live connection.
func (c *Context) InsertInto(ctx context.Context, table string, rows []map[string]any) error {
	if len(rows) == 0 {
		return nil
	}
	if err := c.gormDB.WithContext(ctx).Table(table).Create(rows).Error; err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}

func (c *Context) applyRevisionData(ctx context.Context, data config.RevisionData, version uint64) error {
	for _, insert := range data[version] {
		if err := c.InsertInto(ctx, insert.Table, insert.Rows); err != nil {
			return fmt.Errorf("revision %d seed data: %w", version, err)
		}
	}
	return nil
}

// ManagedUpgrade upgrades to dest one revision at a time, applying any
// configured seed data before and after each revision.
func (c *Context) ManagedUpgrade(ctx context.Context, dest uint64) error {
	current, dirty, err := c.Current()
	if err != nil {
		return err
	}
	if dirty {
		return fmt.Errorf("database is in a dirty state at version %d", current)
	}

	revs, err := c.hist.Range(current, dest)
	if err != nil {
		return err
	}
	for _, rev := range revs {
		if err := c.applyRevisionData(ctx, c.before, rev.Version); err != nil {
			return err
		}
		if err := c.migrate.Migrate(uint(rev.Version)); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("upgrade to %d (%s) failed: %w", rev.Version, rev.Name, err)
		}
		if err := c.applyRevisionData(ctx, c.at, rev.Version); err != nil {
			return err
		}
	}
	return nil
}

// MigrateUpTo upgrades up to, and including, version.
func (c *Context) MigrateUpTo(ctx context.Context, version uint64) error {
	if err := c.hist.Validate(version); err != nil {
		return err
	}
	return c.ManagedUpgrade(ctx, version)
}

// MigrateUpBefore upgrades up to, but not including, version.
func (c *Context) MigrateUpBefore(ctx context.Context, version uint64) error {
	prev, err := c.hist.Previous(version)
	if err != nil {
		return err
	}
	return c.ManagedUpgrade(ctx, prev)
}

// MigrateUpOne upgrades by exactly one revision.
func (c *Context) MigrateUpOne(ctx context.Context) error {
	current, _, err := c.Current()
	if err != nil {
		return err
	}
	next, err := c.hist.Next(current)
	if err != nil {
		return err
	}
	return c.ManagedUpgrade(ctx, next.Version)
}

// MigrateDownTo downgrades until version is the latest applied
// revision. Passing history.BaseVersion reverts everything.
func (c *Context) MigrateDownTo(version uint64) error {
	if err := c.hist.Validate(version); err != nil {
		return err
	}
	if version == history.BaseVersion {
		if err := c.migrate.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("downgrade to base failed: %w", err)
		}
		return nil
	}
	if err := c.migrate.Migrate(uint(version)); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("downgrade to %d failed: %w", version, err)
	}
	return nil
}

// MigrateDownBefore downgrades until version is the latest applied
// revision, reverting everything after it. version itself stays
// applied; it is an error when version has no successor to revert.
func (c *Context) MigrateDownBefore(version uint64) error {
	target, err := downBeforeTarget(c.hist, version)
	if err != nil {
		return err
	}
	return c.MigrateDownTo(target)
}

// downBeforeTarget picks the downgrade target that leaves version
// applied: the revision preceding version's successor.
func downBeforeTarget(hist *history.History, version uint64) (uint64, error) {
	next, err := hist.Next(version)
	if err != nil {
		return 0, err
	}
	return hist.Previous(next.Version)
}

// MigrateDownOne downgrades by exactly one revision.
func (c *Context) MigrateDownOne() error {
	if err := c.migrate.Steps(-1); err != nil {
		return fmt.Errorf("downgrade by one failed: %w", err)
	}
	return nil
}

// Reset reverts every applied revision.
func (c *Context) Reset() error {
	return c.MigrateDownTo(history.BaseVersion)
}

// RoundtripNextRevision upgrades one revision, downgrades it, then
// upgrades it again. A revision that survives this is reapplied
// cleanly after a rollback.
func (c *Context) RoundtripNextRevision(ctx context.Context) error {
	if err := c.MigrateUpOne(ctx); err != nil {
		return err
	}
	if err := c.MigrateDownOne(); err != nil {
		return err
	}
	return c.MigrateUpOne(ctx)
}

// Close releases the migrate instance and the database connection.
func (c *Context) Close() error {
	srcErr, dbErr := c.migrate.Close()
	closeErr := c.sqlDB.Close()
	if srcErr != nil {
		return srcErr
	}
	if dbErr != nil {
		return dbErr
	}
	return closeErr
}
