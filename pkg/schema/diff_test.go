package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usersTable() Table {
	return Table{
		Name: "users",
		Columns: []Column{
			{Name: "id", DataType: "bigint"},
			{Name: "email", DataType: "text"},
		},
		PrimaryKey: []string{"id"},
		Indexes: []Index{
			{Name: "users_pkey", Definition: "CREATE UNIQUE INDEX users_pkey ON public.users USING btree (id)"},
		},
	}
}

func TestDiffIdentical(t *testing.T) {
	a := &Snapshot{Schema: "public", Tables: map[string]Table{"users": usersTable()}}
	b := &Snapshot{Schema: "public", Tables: map[string]Table{"users": usersTable()}}

	assert.Empty(t, Diff(a, b))
}

func TestDiffAcrossSchemasIgnoresQualification(t *testing.T) {
	a := &Snapshot{Schema: "public", Tables: map[string]Table{"users": usersTable()}}

	expected := usersTable()
	expected.Indexes[0].Definition = "CREATE UNIQUE INDEX users_pkey ON expected.users USING btree (id)"
	b := &Snapshot{Schema: "expected", Tables: map[string]Table{"users": expected}}

	assert.Empty(t, Diff(a, b))
}

func TestDiffReportsMissingTable(t *testing.T) {
	a := &Snapshot{Schema: "before", Tables: map[string]Table{"users": usersTable()}}
	b := &Snapshot{Schema: "after", Tables: map[string]Table{}}

	diffs := Diff(a, b)
	require.Len(t, diffs, 1)
	assert.Contains(t, diffs[0], `table "users" only in before`)
}

func TestDiffReportsColumnChanges(t *testing.T) {
	a := &Snapshot{Schema: "before", Tables: map[string]Table{"users": usersTable()}}

	changed := usersTable()
	changed.Columns[1] = Column{Name: "email", DataType: "character varying", Nullable: true}
	changed.Columns = append(changed.Columns, Column{Name: "last_login", DataType: "timestamp with time zone", Nullable: true})
	b := &Snapshot{Schema: "after", Tables: map[string]Table{"users": changed}}

	diffs := Diff(a, b)
	require.Len(t, diffs, 2)
	assert.Contains(t, diffs[0], "column users.email differs")
	assert.Contains(t, diffs[1], "column users.last_login only in after")
}

func TestDiffReportsPrimaryKeyAndIndexChanges(t *testing.T) {
	a := &Snapshot{Schema: "before", Tables: map[string]Table{"users": usersTable()}}

	changed := usersTable()
	changed.PrimaryKey = []string{"email"}
	changed.Indexes = append(changed.Indexes, Index{
		Name:       "users_email_idx",
		Definition: "CREATE INDEX users_email_idx ON after.users USING btree (email)",
	})
	b := &Snapshot{Schema: "after", Tables: map[string]Table{"users": changed}}

	diffs := Diff(a, b)
	require.Len(t, diffs, 2)
	assert.Contains(t, diffs[0], "primary key of users differs")
	assert.Contains(t, diffs[1], `index "users_email_idx" on users only in after`)
}

func TestDiffReportsSequences(t *testing.T) {
	a := &Snapshot{Schema: "before", Tables: map[string]Table{}, Sequences: []string{"counter"}}
	b := &Snapshot{Schema: "after", Tables: map[string]Table{}}

	diffs := Diff(a, b)
	require.Len(t, diffs, 1)
	assert.Contains(t, diffs[0], `sequence "counter" only in before`)
}
