package checks

//go:generate go run github.com/dmarkham/enumer -type Status -trimprefix Status -transform lower -json -output status.gen.go

// Status is the outcome of a single check.
type Status int

const (
	// StatusPassed means the check ran and found no inconsistency.
	StatusPassed Status = iota
	// StatusFailed means the check found a migration inconsistency.
	StatusFailed
	// StatusSkipped means the check did not apply to this run.
	StatusSkipped
	// StatusErrored means the check could not complete.
	StatusErrored
)
