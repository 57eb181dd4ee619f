package schema

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Diff compares two snapshots and returns a human-readable list of
// differences, one entry per divergent object. An empty result means
// the schemas are structurally identical.
//
// Schema names are stripped from index and constraint definitions
// before comparison so that snapshots of different schemas (the
// migrated schema vs a scratch schema built from models) compare by
// structure alone.
func Diff(a, b *Snapshot) []string {
	var diffs []string

	tableSet := map[string]bool{}
	for name := range a.Tables {
		tableSet[name] = true
	}
	for name := range b.Tables {
		tableSet[name] = true
	}
	names := make([]string, 0, len(tableSet))
	for name := range tableSet {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		at, inA := a.Tables[name]
		bt, inB := b.Tables[name]
		switch {
		case !inA:
			diffs = append(diffs, fmt.Sprintf("table %q only in %s", name, b.Schema))
		case !inB:
			diffs = append(diffs, fmt.Sprintf("table %q only in %s", name, a.Schema))
		default:
			diffs = append(diffs, diffTable(a.Schema, b.Schema, at, bt)...)
		}
	}

	diffs = append(diffs, diffStrings("sequence", a.Schema, b.Schema, a.Sequences, b.Sequences)...)
	return diffs
}

func diffTable(schemaA, schemaB string, a, b Table) []string {
	var diffs []string

	colsA := columnsByName(a.Columns)
	colsB := columnsByName(b.Columns)
	colNames := unionKeys(colsA, colsB)

	for _, name := range colNames {
		ca, inA := colsA[name]
		cb, inB := colsB[name]
		// Serial defaults carry a schema-qualified sequence name.
		ca.Default = stripSchema(ca.Default, schemaA)
		cb.Default = stripSchema(cb.Default, schemaB)
		switch {
		case !inA:
			diffs = append(diffs, fmt.Sprintf("column %s.%s only in %s", a.Name, name, schemaB))
		case !inB:
			diffs = append(diffs, fmt.Sprintf("column %s.%s only in %s", a.Name, name, schemaA))
		case ca != cb:
			diffs = append(diffs, fmt.Sprintf("column %s.%s differs: %s has %s, %s has %s",
				a.Name, name, schemaA, describeColumn(ca), schemaB, describeColumn(cb)))
		}
	}

	if !reflect.DeepEqual(a.PrimaryKey, b.PrimaryKey) {
		diffs = append(diffs, fmt.Sprintf("primary key of %s differs: %v vs %v", a.Name, a.PrimaryKey, b.PrimaryKey))
	}

	diffs = append(diffs, diffDefinitions("index", a.Name, schemaA, schemaB, indexDefs(schemaA, a.Indexes), indexDefs(schemaB, b.Indexes))...)
	diffs = append(diffs, diffDefinitions("foreign key", a.Name, schemaA, schemaB, fkDefs(schemaA, a.ForeignKeys), fkDefs(schemaB, b.ForeignKeys))...)
	return diffs
}

func describeColumn(c Column) string {
	parts := []string{c.DataType}
	if !c.Nullable {
		parts = append(parts, "NOT NULL")
	}
	if c.Default != "" {
		parts = append(parts, "DEFAULT "+c.Default)
	}
	return strings.Join(parts, " ")
}

func columnsByName(columns []Column) map[string]Column {
	out := make(map[string]Column, len(columns))
	for _, col := range columns {
		out[col.Name] = col
	}
	return out
}

func indexDefs(schemaName string, indexes []Index) map[string]string {
	out := make(map[string]string, len(indexes))
	for _, idx := range indexes {
		out[idx.Name] = stripSchema(idx.Definition, schemaName)
	}
	return out
}

func fkDefs(schemaName string, fks []ForeignKey) map[string]string {
	out := make(map[string]string, len(fks))
	for _, fk := range fks {
		out[fk.Name] = stripSchema(fk.Definition, schemaName)
	}
	return out
}

// stripSchema removes schema qualifications so that definitions from
// different schemas compare by structure.
func stripSchema(def, schemaName string) string {
	return strings.ReplaceAll(def, schemaName+".", "")
}

func diffDefinitions(kind, table, schemaA, schemaB string, a, b map[string]string) []string {
	var diffs []string
	for _, name := range unionKeys(a, b) {
		da, inA := a[name]
		db, inB := b[name]
		switch {
		case !inA:
			diffs = append(diffs, fmt.Sprintf("%s %q on %s only in %s", kind, name, table, schemaB))
		case !inB:
			diffs = append(diffs, fmt.Sprintf("%s %q on %s only in %s", kind, name, table, schemaA))
		case da != db:
			diffs = append(diffs, fmt.Sprintf("%s %q on %s differs: %q vs %q", kind, name, table, da, db))
		}
	}
	return diffs
}

func diffStrings(kind, schemaA, schemaB string, a, b []string) []string {
	inA := map[string]bool{}
	for _, name := range a {
		inA[name] = true
	}
	inB := map[string]bool{}
	for _, name := range b {
		inB[name] = true
	}

	var diffs []string
	for _, name := range a {
		if !inB[name] {
			diffs = append(diffs, fmt.Sprintf("%s %q only in %s", kind, name, schemaA))
		}
	}
	for _, name := range b {
		if !inA[name] {
			diffs = append(diffs, fmt.Sprintf("%s %q only in %s", kind, name, schemaB))
		}
	}
	return diffs
}

func unionKeys[V any](a, b map[string]V) []string {
	set := map[string]bool{}
	for k := range a {
		set[k] = true
	}
	for k := range b {
		set[k] = true
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
