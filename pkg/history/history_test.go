package history

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureFS(names ...string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for _, name := range names {
		fsys[name] = &fstest.MapFile{Data: []byte("SELECT 1;")}
	}
	return fsys
}

func TestParse(t *testing.T) {
	fsys := fixtureFS(
		"1_create_users.up.sql",
		"1_create_users.down.sql",
		"2_add_last_login.up.sql",
		"2_add_last_login.down.sql",
		"3_create_posts.up.sql",
	)

	hist, err := Parse(fsys, ".")
	require.NoError(t, err)

	require.Equal(t, 3, hist.Len())

	revs := hist.Revisions()
	assert.Equal(t, uint64(1), revs[0].Version)
	assert.Equal(t, "create_users", revs[0].Name)
	assert.True(t, revs[0].HasDown())
	assert.Equal(t, uint64(3), revs[2].Version)
	assert.False(t, revs[2].HasDown())

	head, err := hist.Head()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), head.Version)

	base, err := hist.Base()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), base.Version)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		files   []string
		wantErr string
	}{
		{
			name:    "conflicting names for one version",
			files:   []string{"1_a.up.sql", "1_b.down.sql"},
			wantErr: "conflicting names",
		},
		{
			name:    "down without up",
			files:   []string{"1_a.down.sql"},
			wantErr: "no up migration",
		},
		{
			name:    "version zero reserved",
			files:   []string{"0_a.up.sql"},
			wantErr: "reserved",
		},
		{
			name:    "malformed sql filename",
			files:   []string{"not-a-migration.sql"},
			wantErr: "malformed migration filename",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(fixtureFS(tt.files...), ".")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseIgnoresUnrelatedFiles(t *testing.T) {
	fsys := fixtureFS("1_a.up.sql", "1_a.down.sql")
	fsys["README.md"] = &fstest.MapFile{Data: []byte("docs")}

	hist, err := Parse(fsys, ".")
	require.NoError(t, err)
	assert.Equal(t, 1, hist.Len())
}

func TestEmptyHistory(t *testing.T) {
	hist, err := Parse(fixtureFS(), ".")
	require.NoError(t, err)

	assert.Equal(t, 0, hist.Len())

	_, err = hist.Head()
	assert.ErrorIs(t, err, ErrNoRevisions)

	_, err = hist.Next(BaseVersion)
	assert.ErrorIs(t, err, ErrNoRevisions)
}

func TestTraversal(t *testing.T) {
	hist, err := Parse(fixtureFS(
		"10_a.up.sql", "10_a.down.sql",
		"20_b.up.sql", "20_b.down.sql",
		"30_c.up.sql", "30_c.down.sql",
	), ".")
	require.NoError(t, err)

	t.Run("next from base", func(t *testing.T) {
		rev, err := hist.Next(BaseVersion)
		require.NoError(t, err)
		assert.Equal(t, uint64(10), rev.Version)
	})

	t.Run("next from middle", func(t *testing.T) {
		rev, err := hist.Next(20)
		require.NoError(t, err)
		assert.Equal(t, uint64(30), rev.Version)
	})

	t.Run("next from head", func(t *testing.T) {
		_, err := hist.Next(30)
		assert.ErrorIs(t, err, ErrNoNextRevision)
	})

	t.Run("next from unknown", func(t *testing.T) {
		_, err := hist.Next(15)
		assert.ErrorIs(t, err, ErrUnknownRevision)
	})

	t.Run("previous of first is base", func(t *testing.T) {
		prev, err := hist.Previous(10)
		require.NoError(t, err)
		assert.Equal(t, BaseVersion, prev)
	})

	t.Run("previous of head", func(t *testing.T) {
		prev, err := hist.Previous(30)
		require.NoError(t, err)
		assert.Equal(t, uint64(20), prev)
	})
}

func TestRange(t *testing.T) {
	hist, err := Parse(fixtureFS(
		"10_a.up.sql", "10_a.down.sql",
		"20_b.up.sql", "20_b.down.sql",
		"30_c.up.sql", "30_c.down.sql",
	), ".")
	require.NoError(t, err)

	tests := []struct {
		name     string
		from, to uint64
		want     []uint64
		wantErr  bool
	}{
		{name: "base to head", from: BaseVersion, to: 30, want: []uint64{10, 20, 30}},
		{name: "middle to head", from: 10, to: 30, want: []uint64{20, 30}},
		{name: "empty range", from: 20, to: 20, want: nil},
		{name: "reversed", from: 30, to: 10, wantErr: true},
		{name: "unknown from", from: 15, to: 30, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			revs, err := hist.Range(tt.from, tt.to)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			var got []uint64
			for _, rev := range revs {
				got = append(got, rev.Version)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMissingDown(t *testing.T) {
	hist, err := Parse(fixtureFS(
		"1_a.up.sql", "1_a.down.sql",
		"2_b.up.sql",
		"3_c.up.sql",
	), ".")
	require.NoError(t, err)

	missing := hist.MissingDown()
	require.Len(t, missing, 2)
	assert.Equal(t, uint64(2), missing[0].Version)
	assert.Equal(t, uint64(3), missing[1].Version)
}

func TestResolve(t *testing.T) {
	hist, err := Parse(fixtureFS("1_a.up.sql", "2_b.up.sql"), ".")
	require.NoError(t, err)

	tests := []struct {
		alias   string
		want    uint64
		wantErr bool
	}{
		{alias: "base", want: BaseVersion},
		{alias: "head", want: 2},
		{alias: "1", want: 1},
		{alias: "7", wantErr: true},
		{alias: "bogus", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.alias, func(t *testing.T) {
			got, err := hist.Resolve(tt.alias)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
