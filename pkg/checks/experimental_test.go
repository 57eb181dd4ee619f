package checks

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/migratest/pkg/history"
)

func TestMissingDownAboveFloor(t *testing.T) {
	fsys := fstest.MapFS{
		"1_widgets.up.sql":   &fstest.MapFile{Data: []byte("CREATE TABLE widgets ();")},
		"1_widgets.down.sql": &fstest.MapFile{Data: []byte("DROP TABLE widgets;")},
		"2_quantity.up.sql":  &fstest.MapFile{Data: []byte("ALTER TABLE widgets ADD quantity int;")},
		"3_sku.up.sql":       &fstest.MapFile{Data: []byte("ALTER TABLE widgets ADD sku text;")},
		"3_sku.down.sql":     &fstest.MapFile{Data: []byte("ALTER TABLE widgets DROP sku;")},
		"4_archived.up.sql":  &fstest.MapFile{Data: []byte("ALTER TABLE widgets ADD archived bool;")},
	}
	hist, err := history.Parse(fsys, ".")
	require.NoError(t, err)

	tests := []struct {
		name  string
		floor uint64
		want  []string
	}{
		{
			name:  "no floor reports every gap",
			floor: history.BaseVersion,
			want:  []string{"2 (quantity)", "4 (archived)"},
		},
		{
			name:  "floor exempts revisions at or below it",
			floor: 2,
			want:  []string{"4 (archived)"},
		},
		{
			name:  "floor at head exempts everything",
			floor: 4,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, missingDownAboveFloor(hist, tt.floor))
		})
	}
}
