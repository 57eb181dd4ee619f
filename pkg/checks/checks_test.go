package checks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectDefaults(t *testing.T) {
	selected, err := Select(nil, nil, false)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"single_head",
		"upgrade",
		"up_down_consistency",
		"model_definitions_match_ddl",
	}, Names(selected))
}

func TestSelectExperimental(t *testing.T) {
	selected, err := Select(nil, nil, true)
	require.NoError(t, err)

	names := Names(selected)
	assert.Contains(t, names, "downgrade_leaves_no_trace")
	assert.Contains(t, names, "roundtrip")
	assert.Contains(t, names, "downgrade_coverage")
	assert.Len(t, names, 7)
}

func TestSelectInclude(t *testing.T) {
	// An explicit include may name experimental checks without the
	// experimental flag.
	selected, err := Select([]string{"upgrade", "roundtrip"}, nil, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"upgrade", "roundtrip"}, Names(selected))
}

func TestSelectExclude(t *testing.T) {
	selected, err := Select(nil, []string{"model_definitions_match_ddl", "single_head"}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"upgrade", "up_down_consistency"}, Names(selected))
}

func TestSelectUnknownName(t *testing.T) {
	_, err := Select([]string{"no_such_check"}, nil, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown check "no_such_check"`)

	_, err = Select(nil, []string{"no_such_check"}, false)
	require.Error(t, err)
}

func TestSummaryFailed(t *testing.T) {
	tests := []struct {
		name    string
		results []Result
		want    bool
	}{
		{
			name:    "all passed",
			results: []Result{{Status: StatusPassed}, {Status: StatusSkipped}},
			want:    false,
		},
		{
			name:    "one failed",
			results: []Result{{Status: StatusPassed}, {Status: StatusFailed}},
			want:    true,
		},
		{
			name:    "one errored",
			results: []Result{{Status: StatusErrored}},
			want:    true,
		},
		{
			name: "empty",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summary{Results: tt.results}.Failed())
		})
	}
}

func TestSummaryCounts(t *testing.T) {
	s := Summary{Results: []Result{
		{Status: StatusPassed},
		{Status: StatusPassed},
		{Status: StatusFailed},
		{Status: StatusSkipped},
	}}

	counts := s.Counts()
	assert.Equal(t, 2, counts[StatusPassed])
	assert.Equal(t, 1, counts[StatusFailed])
	assert.Equal(t, 1, counts[StatusSkipped])
	assert.Equal(t, 0, counts[StatusErrored])
}

func TestStatusStrings(t *testing.T) {
	assert.Equal(t, "passed", StatusPassed.String())
	assert.Equal(t, "failed", StatusFailed.String())
	assert.Equal(t, "skipped", StatusSkipped.String())
	assert.Equal(t, "errored", StatusErrored.String())

	status, err := StatusString("failed")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, status)
}

func TestFailurefMarksInconsistency(t *testing.T) {
	err := Failuref("found %d heads", 2)
	assert.ErrorIs(t, err, ErrInconsistent)
	assert.Contains(t, err.Error(), "found 2 heads")
}

func TestWithSearchPath(t *testing.T) {
	assert.Equal(t,
		"postgres://localhost/app?search_path=migratest_expected",
		withSearchPath("postgres://localhost/app", "migratest_expected"))
	assert.Equal(t,
		"postgres://localhost/app?sslmode=disable&search_path=migratest_expected",
		withSearchPath("postgres://localhost/app?sslmode=disable", "migratest_expected"))
}
