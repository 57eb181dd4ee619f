package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "."
	ConfigFileName    = "migratest.yml"

	// DefaultMigrationsTable keeps migratest's bookkeeping separate
	// from any table the application's own migration tooling uses.
	DefaultMigrationsTable = "migratest_schema_migrations"
)

// Insert is a set of rows to insert into one table while stepping
// through revisions.
type Insert struct {
	Table string           `yaml:"table" json:"table"`
	Rows  []map[string]any `yaml:"rows" json:"rows"`
}

// RevisionData maps a revision version to the inserts associated with it.
type RevisionData map[uint64][]Insert

// Config holds all migratest settings.
type Config struct {
	// DatabaseURL is the PostgreSQL connection string checks run against.
	DatabaseURL string `yaml:"database_url" json:"database_url"`

	// MigrationsDir is the directory holding the migration scripts.
	MigrationsDir string `yaml:"migrations_dir" json:"migrations_dir"`

	// MigrationsTable is the bookkeeping table migratest records applied
	// versions in.
	MigrationsTable string `yaml:"migrations_table" json:"migrations_table"`

	// Schema is the database schema the migrations populate.
	Schema string `yaml:"schema" json:"schema"`

	// Include restricts the run to the named checks. Empty means all
	// default checks.
	Include []string `yaml:"include" json:"include"`

	// Exclude removes the named checks from the run.
	Exclude []string `yaml:"exclude" json:"exclude"`

	// Experimental enables the checks that are excluded by default.
	Experimental bool `yaml:"experimental" json:"experimental"`

	// MinimumDowngradeVersion is the version downgrade-based checks stop
	// at. Zero means downgrade all the way to the empty database.
	MinimumDowngradeVersion uint64 `yaml:"minimum_downgrade_version" json:"minimum_downgrade_version"`

	// BeforeRevisionData holds rows to insert before upgrading to a
	// revision, for migrations that only behave interestingly with data
	// present.
	BeforeRevisionData RevisionData `yaml:"before_revision_data" json:"before_revision_data"`

	// AtRevisionData holds rows to insert right after upgrading to a
	// revision.
	AtRevisionData RevisionData `yaml:"at_revision_data" json:"at_revision_data"`

	// sources tracks where each value came from
	sources map[string]string

	// configFilePath is the path to the config file
	configFilePath string
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// Global singleton config
var (
	globalConfig *Config
	configMu     sync.RWMutex
)

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	configMu.RLock()
	if globalConfig != nil {
		configMu.RUnlock()
		return globalConfig
	}
	configMu.RUnlock()

	configMu.Lock()
	defer configMu.Unlock()

	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			// Return defaults on error
			globalConfig = newDefault()
		} else {
			globalConfig = cfg
		}
	}
	return globalConfig
}

// Reload reloads the configuration from file and environment
func Reload() error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	configMu.Lock()
	globalConfig = cfg
	configMu.Unlock()
	return nil
}

// newDefault returns a config with default values
func newDefault() *Config {
	return &Config{
		MigrationsDir:      "db/migrations",
		MigrationsTable:    DefaultMigrationsTable,
		Schema:             "public",
		Include:            []string{},
		Exclude:            []string{},
		BeforeRevisionData: RevisionData{},
		AtRevisionData:     RevisionData{},
		sources:            make(map[string]string),
	}
}

// Load loads configuration from file and environment variables.
// Environment variables take precedence over file values.
func Load() (*Config, error) {
	config := newDefault()

	for _, name := range attributeNames() {
		config.sources[name] = "default"
	}

	configPath := os.Getenv("MIGRATEST_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	config.configFilePath = filepath.Join(configPath, ConfigFileName)

	if data, err := os.ReadFile(config.configFilePath); err == nil {
		var fileConfig Config
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", config.configFilePath, err)
		}
		config.applyFileConfig(&fileConfig)
	}

	config.applyEnvConfig()

	return config, nil
}

func attributeNames() []string {
	return []string{
		"database_url", "migrations_dir", "migrations_table", "schema",
		"include", "exclude", "experimental", "minimum_downgrade_version",
		"before_revision_data", "at_revision_data",
	}
}

func (c *Config) applyFileConfig(file *Config) {
	if file.DatabaseURL != "" {
		c.DatabaseURL = file.DatabaseURL
		c.sources["database_url"] = "file"
	}
	if file.MigrationsDir != "" {
		c.MigrationsDir = file.MigrationsDir
		c.sources["migrations_dir"] = "file"
	}
	if file.MigrationsTable != "" {
		c.MigrationsTable = file.MigrationsTable
		c.sources["migrations_table"] = "file"
	}
	if file.Schema != "" {
		c.Schema = file.Schema
		c.sources["schema"] = "file"
	}
	if len(file.Include) > 0 {
		c.Include = file.Include
		c.sources["include"] = "file"
	}
	if len(file.Exclude) > 0 {
		c.Exclude = file.Exclude
		c.sources["exclude"] = "file"
	}
	if file.Experimental {
		c.Experimental = true
		c.sources["experimental"] = "file"
	}
	if file.MinimumDowngradeVersion != 0 {
		c.MinimumDowngradeVersion = file.MinimumDowngradeVersion
		c.sources["minimum_downgrade_version"] = "file"
	}
	if len(file.BeforeRevisionData) > 0 {
		c.BeforeRevisionData = file.BeforeRevisionData
		c.sources["before_revision_data"] = "file"
	}
	if len(file.AtRevisionData) > 0 {
		c.AtRevisionData = file.AtRevisionData
		c.sources["at_revision_data"] = "file"
	}
}

func (c *Config) applyEnvConfig() {
	if val := os.Getenv("MIGRATEST_DATABASE_URL"); val != "" {
		c.DatabaseURL = val
		c.sources["database_url"] = "environment"
	} else if val := os.Getenv("DATABASE_URL"); val != "" {
		c.DatabaseURL = val
		c.sources["database_url"] = "environment"
	}
	if val := os.Getenv("MIGRATEST_MIGRATIONS_DIR"); val != "" {
		c.MigrationsDir = val
		c.sources["migrations_dir"] = "environment"
	}
	if val := os.Getenv("MIGRATEST_MIGRATIONS_TABLE"); val != "" {
		c.MigrationsTable = val
		c.sources["migrations_table"] = "environment"
	}
	if val := os.Getenv("MIGRATEST_SCHEMA"); val != "" {
		c.Schema = val
		c.sources["schema"] = "environment"
	}
	if val := os.Getenv("MIGRATEST_INCLUDE"); val != "" {
		c.Include = splitAndTrim(val)
		c.sources["include"] = "environment"
	}
	if val := os.Getenv("MIGRATEST_EXCLUDE"); val != "" {
		c.Exclude = splitAndTrim(val)
		c.sources["exclude"] = "environment"
	}
	if val := os.Getenv("MIGRATEST_EXPERIMENTAL"); val != "" {
		c.Experimental = val == "true" || val == "1"
		c.sources["experimental"] = "environment"
	}
	if val := os.Getenv("MIGRATEST_MINIMUM_DOWNGRADE_VERSION"); val != "" {
		if v, err := strconv.ParseUint(val, 10, 64); err == nil {
			c.MinimumDowngradeVersion = v
			c.sources["minimum_downgrade_version"] = "environment"
		}
	}
}

// ConfigFilePath returns the path to the config file
func (c *Config) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *Config) Source(name string) string {
	if c.sources == nil {
		return "default"
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// Attributes returns all configuration attributes with their values
// and sources, sorted by name.
func (c *Config) Attributes() []Attribute {
	values := map[string]string{
		"database_url":              RedactURL(c.DatabaseURL),
		"migrations_dir":            c.MigrationsDir,
		"migrations_table":          c.MigrationsTable,
		"schema":                    c.Schema,
		"include":                   strings.Join(c.Include, ","),
		"exclude":                   strings.Join(c.Exclude, ","),
		"experimental":              strconv.FormatBool(c.Experimental),
		"minimum_downgrade_version": strconv.FormatUint(c.MinimumDowngradeVersion, 10),
		"before_revision_data":      fmt.Sprintf("%d revision(s)", len(c.BeforeRevisionData)),
		"at_revision_data":          fmt.Sprintf("%d revision(s)", len(c.AtRevisionData)),
	}

	names := attributeNames()
	sort.Strings(names)

	attrs := make([]Attribute, 0, len(names))
	for _, name := range names {
		attrs = append(attrs, Attribute{
			Name:   name,
			Value:  values[name],
			Source: c.Source(name),
		})
	}
	return attrs
}

func splitAndTrim(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
