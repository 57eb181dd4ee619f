// Package schema captures point-in-time snapshots of a PostgreSQL
// schema and computes structural differences between them.
//
// A Snapshot records tables with their columns, primary keys, indexes
// and foreign keys, plus standalone sequences, read from
// information_schema and pg_catalog. Migration bookkeeping tables are
// excluded by the caller via the ignore list.
//
// Snapshots back the consistency checks: up_down_consistency compares
// the schema before and after a full up/down cycle, and
// model_definitions_match_ddl compares the migrated schema against a
// scratch schema built from the registered models.
package schema
