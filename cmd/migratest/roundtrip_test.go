package main

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/migratest/pkg/history"
)

func TestRoundtripLimit(t *testing.T) {
	fsys := fstest.MapFS{
		"10_a.up.sql":   &fstest.MapFile{Data: []byte("CREATE TABLE a ();")},
		"10_a.down.sql": &fstest.MapFile{Data: []byte("DROP TABLE a;")},
		"20_b.up.sql":   &fstest.MapFile{Data: []byte("CREATE TABLE b ();")},
		"20_b.down.sql": &fstest.MapFile{Data: []byte("DROP TABLE b;")},
	}
	hist, err := history.Parse(fsys, ".")
	require.NoError(t, err)

	_, bounded, err := roundtripLimit(hist, "")
	require.NoError(t, err)
	assert.False(t, bounded)

	limit, bounded, err := roundtripLimit(hist, "head")
	require.NoError(t, err)
	assert.True(t, bounded)
	assert.Equal(t, uint64(20), limit)

	limit, bounded, err = roundtripLimit(hist, "10")
	require.NoError(t, err)
	assert.True(t, bounded)
	assert.Equal(t, uint64(10), limit)

	_, _, err = roundtripLimit(hist, "15")
	require.Error(t, err)
	assert.ErrorIs(t, err, history.ErrUnknownRevision)
}
