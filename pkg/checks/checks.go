package checks

import (
	"context"
	"errors"
	"fmt"

	"github.com/doodlesbykumbi/migratest/pkg/runner"
)

var (
	// ErrInconsistent marks a check outcome as a migration
	// inconsistency, as opposed to an execution error.
	ErrInconsistent = errors.New("migration inconsistency")

	// ErrSkip marks a check as not applicable to the current run.
	ErrSkip = errors.New("check skipped")
)

// Failuref builds an inconsistency error. Checks report findings with
// it; any other error counts as an execution error.
func Failuref(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInconsistent, fmt.Sprintf(format, args...))
}

// Options carries per-run settings into the checks.
type Options struct {
	// DatabaseURL is the connection string of the database under test.
	// The model check opens a second connection with a different
	// search_path on it.
	DatabaseURL string

	// Schema is the database schema the migrations populate.
	Schema string

	// IgnoreTables lists bookkeeping tables to leave out of schema
	// snapshots.
	IgnoreTables []string

	// MinimumDowngradeVersion is the floor for downgrade-based checks.
	// Zero means downgrade all the way to the empty database.
	MinimumDowngradeVersion uint64

	// Models are the application's GORM models, for the
	// model_definitions_match_ddl check. With no models registered the
	// check is skipped.
	Models []any
}

// CheckFunc runs one consistency check against a migration context.
type CheckFunc func(ctx context.Context, mc *runner.Context, opts Options) error

// Check is a named consistency check.
type Check struct {
	Name         string
	Summary      string
	Experimental bool
	Run          CheckFunc
}

// Result is the recorded outcome of one check.
type Result struct {
	Check  string `json:"check"`
	Status Status `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Summary aggregates the results of a suite run.
type Summary struct {
	Results []Result `json:"results"`
}

// Failed reports whether any check failed or errored.
func (s Summary) Failed() bool {
	for _, r := range s.Results {
		if r.Status == StatusFailed || r.Status == StatusErrored {
			return true
		}
	}
	return false
}

// Counts returns the number of results per status.
func (s Summary) Counts() map[Status]int {
	counts := map[Status]int{}
	for _, r := range s.Results {
		counts[r.Status]++
	}
	return counts
}

// All returns every known check, default suite first.
func All() []Check {
	checks := make([]Check, 0, len(defaultChecks)+len(experimentalChecks))
	checks = append(checks, defaultChecks...)
	checks = append(checks, experimentalChecks...)
	return checks
}

// Names returns the names of the given checks.
func Names(checks []Check) []string {
	names := make([]string, len(checks))
	for i, c := range checks {
		names[i] = c.Name
	}
	return names
}

// Select resolves include/exclude lists against the registry.
//
// With an empty include list the default suite is selected, plus the
// experimental suite when experimental is set. Exclusions are applied
// last, mirroring the host-runner option that excludes certain check
// names by default. Unknown names in either list are an error.
func Select(include, exclude []string, experimental bool) ([]Check, error) {
	byName := map[string]Check{}
	for _, c := range All() {
		byName[c.Name] = c
	}

	for _, name := range append(append([]string{}, include...), exclude...) {
		if _, ok := byName[name]; !ok {
			return nil, fmt.Errorf("unknown check %q", name)
		}
	}

	var selected []Check
	if len(include) > 0 {
		for _, name := range include {
			selected = append(selected, byName[name])
		}
	} else {
		for _, c := range All() {
			if c.Experimental && !experimental {
				continue
			}
			selected = append(selected, c)
		}
	}

	excluded := map[string]bool{}
	for _, name := range exclude {
		excluded[name] = true
	}

	out := selected[:0]
	for _, c := range selected {
		if !excluded[c.Name] {
			out = append(out, c)
		}
	}
	return out, nil
}

// RunSuite runs the given checks in order, resetting the database to
// the empty state before each one so checks cannot contaminate each
// other.
func RunSuite(ctx context.Context, mc *runner.Context, selected []Check, opts Options) Summary {
	var summary Summary
	for _, check := range selected {
		summary.Results = append(summary.Results, runOne(ctx, mc, check, opts))
	}
	return summary
}

func runOne(ctx context.Context, mc *runner.Context, check Check, opts Options) Result {
	result := Result{Check: check.Name}

	if err := mc.Reset(); err != nil {
		result.Status = StatusErrored
		result.Detail = fmt.Sprintf("failed to reset database before check: %v", err)
		return result
	}

	err := check.Run(ctx, mc, opts)
	switch {
	case err == nil:
		result.Status = StatusPassed
	case errors.Is(err, ErrSkip):
		result.Status = StatusSkipped
		result.Detail = err.Error()
	case errors.Is(err, ErrInconsistent):
		result.Status = StatusFailed
		result.Detail = err.Error()
	default:
		result.Status = StatusErrored
		result.Detail = err.Error()
	}
	return result
}
