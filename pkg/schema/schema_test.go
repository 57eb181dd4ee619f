package schema

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expectTableQueries(mock sqlmock.Sqlmock, table string, columns *sqlmock.Rows, pk *sqlmock.Rows, indexes *sqlmock.Rows, fks *sqlmock.Rows) {
	mock.ExpectQuery("information_schema.columns").
		WithArgs("public", table).
		WillReturnRows(columns)
	mock.ExpectQuery("PRIMARY KEY").
		WithArgs("public", table).
		WillReturnRows(pk)
	mock.ExpectQuery("pg_indexes").
		WithArgs("public", table).
		WillReturnRows(indexes)
	mock.ExpectQuery("pg_constraint").
		WithArgs("public", table).
		WillReturnRows(fks)
}

func TestCapture(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("information_schema.tables").
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).
			AddRow("schema_migrations").
			AddRow("users"))

	expectTableQueries(mock, "users",
		sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "column_default"}).
			AddRow("id", "bigint", "NO", "nextval('users_id_seq'::regclass)").
			AddRow("email", "text", "NO", nil).
			AddRow("last_login", "timestamp with time zone", "YES", nil),
		sqlmock.NewRows([]string{"column_name"}).AddRow("id"),
		sqlmock.NewRows([]string{"indexname", "indexdef"}).
			AddRow("users_pkey", "CREATE UNIQUE INDEX users_pkey ON public.users USING btree (id)"),
		sqlmock.NewRows([]string{"conname", "def"}))

	mock.ExpectQuery("information_schema.sequences").
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"sequence_name"}).
			AddRow("users_id_seq"))

	snap, err := Capture(context.Background(), db, "public", "schema_migrations")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	want := &Snapshot{
		Schema: "public",
		Tables: map[string]Table{
			"users": {
				Name: "users",
				Columns: []Column{
					{Name: "id", DataType: "bigint", Default: "nextval('users_id_seq'::regclass)"},
					{Name: "email", DataType: "text"},
					{Name: "last_login", DataType: "timestamp with time zone", Nullable: true},
				},
				PrimaryKey: []string{"id"},
				Indexes: []Index{
					{Name: "users_pkey", Definition: "CREATE UNIQUE INDEX users_pkey ON public.users USING btree (id)"},
				},
			},
		},
		Sequences: []string{"users_id_seq"},
	}

	if diff := cmp.Diff(want, snap); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestCaptureSkipsIgnoredTableSequences(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("information_schema.tables").
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("audit_log"))

	mock.ExpectQuery("information_schema.sequences").
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"sequence_name"}).
			AddRow("audit_log_id_seq").
			AddRow("ticket_counter"))

	snap, err := Capture(context.Background(), db, "public", "audit_log")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Empty(t, snap.Tables)
	assert.Equal(t, []string{"ticket_counter"}, snap.Sequences)
}

func TestSequenceOwner(t *testing.T) {
	tests := []struct {
		name      string
		sequence  string
		wantOwner string
		wantOK    bool
	}{
		{name: "serial sequence", sequence: "users_id_seq", wantOwner: "users", wantOK: true},
		{name: "multi underscore table", sequence: "audit_log_id_seq", wantOwner: "audit_log", wantOK: true},
		{name: "standalone sequence", sequence: "counter", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, ok := sequenceOwner(tt.sequence)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantOwner, owner)
			}
		})
	}
}
