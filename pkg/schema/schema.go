package schema

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// Column describes one column of a table.
type Column struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
	Nullable bool   `json:"nullable"`
	Default  string `json:"default,omitempty"`
}

// Index describes one index by its pg_indexes definition.
type Index struct {
	Name       string `json:"name"`
	Definition string `json:"definition"`
}

// ForeignKey describes one foreign key constraint.
type ForeignKey struct {
	Name       string `json:"name"`
	Definition string `json:"definition"`
}

// Table is the snapshot of a single table.
type Table struct {
	Name        string       `json:"name"`
	Columns     []Column     `json:"columns"`
	PrimaryKey  []string     `json:"primary_key,omitempty"`
	Indexes     []Index      `json:"indexes,omitempty"`
	ForeignKeys []ForeignKey `json:"foreign_keys,omitempty"`
}

// Snapshot is a point-in-time description of one database schema.
type Snapshot struct {
	Schema    string           `json:"schema"`
	Tables    map[string]Table `json:"tables"`
	Sequences []string         `json:"sequences,omitempty"`
}

// TableNames returns the snapshot's table names in sorted order.
func (s *Snapshot) TableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for name := range s.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Capture reads the current state of schemaName through db. Tables
// named in ignore (migration bookkeeping tables, usually) are left out
// of the snapshot.
func Capture(ctx context.Context, db *sql.DB, schemaName string, ignore ...string) (*Snapshot, error) {
	ignored := make(map[string]bool, len(ignore))
	for _, name := range ignore {
		ignored[name] = true
	}

	snap := &Snapshot{Schema: schemaName, Tables: map[string]Table{}}

	tables, err := tableNames(ctx, db, schemaName)
	if err != nil {
		return nil, err
	}

	for _, name := range tables {
		if ignored[name] {
			continue
		}
		table, err := captureTable(ctx, db, schemaName, name)
		if err != nil {
			return nil, err
		}
		snap.Tables[name] = table
	}

	snap.Sequences, err = sequenceNames(ctx, db, schemaName, ignored)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func tableNames(ctx context.Context, db *sql.DB, schemaName string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name`, schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func captureTable(ctx context.Context, db *sql.DB, schemaName, tableName string) (Table, error) {
	table := Table{Name: tableName}

	columns, err := tableColumns(ctx, db, schemaName, tableName)
	if err != nil {
		return table, err
	}
	table.Columns = columns

	table.PrimaryKey, err = primaryKey(ctx, db, schemaName, tableName)
	if err != nil {
		return table, err
	}

	table.Indexes, err = tableIndexes(ctx, db, schemaName, tableName)
	if err != nil {
		return table, err
	}

	table.ForeignKeys, err = foreignKeys(ctx, db, schemaName, tableName)
	if err != nil {
		return table, err
	}
	return table, nil
}

func tableColumns(ctx context.Context, db *sql.DB, schemaName, tableName string) ([]Column, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`, schemaName, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns of %s: %w", tableName, err)
	}
	defer func() { _ = rows.Close() }()

	var columns []Column
	for rows.Next() {
		var (
			col        Column
			isNullable string
			colDefault sql.NullString
		)
		if err := rows.Scan(&col.Name, &col.DataType, &isNullable, &colDefault); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", tableName, err)
		}
		col.Nullable = isNullable == "YES"
		col.Default = colDefault.String
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func primaryKey(ctx context.Context, db *sql.DB, schemaName, tableName string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema = kcu.table_schema
		WHERE tc.table_schema = $1 AND tc.table_name = $2
		  AND tc.constraint_type = 'PRIMARY KEY'
		ORDER BY kcu.ordinal_position`, schemaName, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to read primary key of %s: %w", tableName, err)
	}
	defer func() { _ = rows.Close() }()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan primary key of %s: %w", tableName, err)
		}
		columns = append(columns, name)
	}
	return columns, rows.Err()
}

func tableIndexes(ctx context.Context, db *sql.DB, schemaName, tableName string) ([]Index, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT indexname, indexdef FROM pg_indexes
		WHERE schemaname = $1 AND tablename = $2
		ORDER BY indexname`, schemaName, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexes of %s: %w", tableName, err)
	}
	defer func() { _ = rows.Close() }()

	var indexes []Index
	for rows.Next() {
		var idx Index
		if err := rows.Scan(&idx.Name, &idx.Definition); err != nil {
			return nil, fmt.Errorf("failed to scan index of %s: %w", tableName, err)
		}
		indexes = append(indexes, idx)
	}
	return indexes, rows.Err()
}

func foreignKeys(ctx context.Context, db *sql.DB, schemaName, tableName string) ([]ForeignKey, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT con.conname, pg_get_constraintdef(con.oid)
		FROM pg_constraint con
		JOIN pg_class rel ON rel.oid = con.conrelid
		JOIN pg_namespace nsp ON nsp.oid = rel.relnamespace
		WHERE con.contype = 'f' AND nsp.nspname = $1 AND rel.relname = $2
		ORDER BY con.conname`, schemaName, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to list foreign keys of %s: %w", tableName, err)
	}
	defer func() { _ = rows.Close() }()

	var fks []ForeignKey
	for rows.Next() {
		var fk ForeignKey
		if err := rows.Scan(&fk.Name, &fk.Definition); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key of %s: %w", tableName, err)
		}
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

func sequenceNames(ctx context.Context, db *sql.DB, schemaName string, ignored map[string]bool) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT sequence_name FROM information_schema.sequences
		WHERE sequence_schema = $1
		ORDER BY sequence_name`, schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to list sequences: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan sequence name: %w", err)
		}
		// Serial sequences belong to their owning table.
		if owner, ok := sequenceOwner(name); ok && ignored[owner] {
			continue
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// sequenceOwner extracts the table name from a serial sequence name of
// the form <table>_<column>_seq.
func sequenceOwner(name string) (string, bool) {
	if !strings.HasSuffix(name, "_seq") {
		return "", false
	}
	trimmed := strings.TrimSuffix(name, "_seq")
	i := strings.LastIndex(trimmed, "_")
	if i <= 0 {
		return "", false
	}
	return trimmed[:i], true
}
