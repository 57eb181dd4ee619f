package runner

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/migratest/pkg/history"
)

func TestNewRequiresDatabaseURL(t *testing.T) {
	_, err := New(Config{MigrationsDir: "testdata"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database URL is required")
}

func TestNewRejectsMissingDirBeforeConnecting(t *testing.T) {
	// An unreadable migration source must fail before any connection
	// attempt; the URL below points nowhere routable.
	_, err := New(Config{
		DatabaseURL:   "postgres://nobody@203.0.113.1:1/void",
		MigrationsDir: "testdata/does-not-exist",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read migration source")
}

func TestNewRejectsMalformedSource(t *testing.T) {
	fsys := fstest.MapFS{
		"1_a.down.sql": &fstest.MapFile{Data: []byte("DROP TABLE a;")},
	}
	_, err := New(Config{
		DatabaseURL: "postgres://nobody@203.0.113.1:1/void",
		Source:      fsys,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no up migration")
}

func TestDownBeforeTargetLeavesRevisionApplied(t *testing.T) {
	fsys := fstest.MapFS{
		"10_a.up.sql":   &fstest.MapFile{Data: []byte("CREATE TABLE a ();")},
		"10_a.down.sql": &fstest.MapFile{Data: []byte("DROP TABLE a;")},
		"20_b.up.sql":   &fstest.MapFile{Data: []byte("CREATE TABLE b ();")},
		"20_b.down.sql": &fstest.MapFile{Data: []byte("DROP TABLE b;")},
		"30_c.up.sql":   &fstest.MapFile{Data: []byte("CREATE TABLE c ();")},
		"30_c.down.sql": &fstest.MapFile{Data: []byte("DROP TABLE c;")},
	}
	hist, err := history.Parse(fsys, ".")
	require.NoError(t, err)

	// Downgrading to before 20 reverts 30 but keeps 20 applied.
	target, err := downBeforeTarget(hist, 20)
	require.NoError(t, err)
	assert.Equal(t, uint64(20), target)

	// The first revision stays applied too.
	target, err = downBeforeTarget(hist, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), target)

	// The head has no successor to revert.
	_, err = downBeforeTarget(hist, 30)
	assert.ErrorIs(t, err, history.ErrNoNextRevision)
}
