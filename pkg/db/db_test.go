package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithMigrationsTable(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		table string
		want  string
	}{
		{
			name:  "bare url",
			url:   "postgres://localhost/app",
			table: "migratest_schema_migrations",
			want:  "postgres://localhost/app?x-migrations-table=migratest_schema_migrations",
		},
		{
			name:  "url with query",
			url:   "postgres://localhost/app?sslmode=disable",
			table: "migratest_schema_migrations",
			want:  "postgres://localhost/app?sslmode=disable&x-migrations-table=migratest_schema_migrations",
		},
		{
			name:  "empty table leaves url alone",
			url:   "postgres://localhost/app",
			table: "",
			want:  "postgres://localhost/app",
		},
		{
			name:  "empty url",
			url:   "",
			table: "t",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WithMigrationsTable(tt.url, tt.table))
		})
	}
}

func TestURLPrecedence(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/app")
	t.Setenv("MIGRATEST_DATABASE_URL", "postgres://localhost/test")
	assert.Equal(t, "postgres://localhost/test", URL())

	t.Setenv("MIGRATEST_DATABASE_URL", "")
	assert.Equal(t, "postgres://localhost/app", URL())
}
