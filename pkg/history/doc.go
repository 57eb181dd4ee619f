// Package history parses a migration source directory into an ordered
// revision history.
//
// Migration files follow the golang-migrate naming convention:
//
//	<version>_<name>.up.sql
//	<version>_<name>.down.sql
//
// The history is linear: revisions are ordered by version number and
// there is always exactly one head. The pseudo-version BaseVersion (0)
// represents the empty database.
//
// # Basic Usage
//
//	hist, err := history.Load("db/migrations")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	head, _ := hist.Head()
//	for _, rev := range hist.Revisions() {
//	    fmt.Println(rev.Version, rev.Name, rev.HasDown())
//	}
//
// Traversal helpers (Next, Previous, Range) drive the revision-by-revision
// upgrade logic in the runner package.
package history
