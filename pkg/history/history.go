package history

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrNoRevisions is returned when an operation needs at least one
	// revision but the source directory contains none.
	ErrNoRevisions = errors.New("no revisions in migration source")

	// ErrUnknownRevision is returned when a version is not part of the
	// parsed history.
	ErrUnknownRevision = errors.New("unknown revision")

	// ErrNoNextRevision is returned by Next when the given version is
	// already the head.
	ErrNoNextRevision = errors.New("no next revision")
)

// BaseVersion is the pseudo-version representing the empty database,
// before any migration has been applied.
const BaseVersion uint64 = 0

// migrationFile matches golang-migrate style migration filenames:
// <version>_<name>.<up|down>.sql
var migrationFile = regexp.MustCompile(`^(\d+)_(.+)\.(up|down)\.sql$`)

// Revision is a single versioned migration, pairing an upgrade script
// with its (optional) downgrade script.
type Revision struct {
	Version  uint64
	Name     string
	UpFile   string
	DownFile string
}

// HasDown reports whether the revision has a downgrade script.
func (r Revision) HasDown() bool {
	return r.DownFile != ""
}

// History is the ordered list of revisions parsed from a migration
// source directory. Revisions are ordered by ascending version.
type History struct {
	revisions []Revision
	byVersion map[uint64]int
}

// Load parses the migration directory on the local filesystem.
func Load(dir string) (*History, error) {
	return Parse(os.DirFS(dir), ".")
}

// Parse reads dir within fsys and builds the revision history.
//
// A revision without an up script is an error. A revision without a
// down script is recorded as such; the downgrade_coverage check is
// responsible for reporting it.
func Parse(fsys fs.FS, dir string) (*History, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration source: %w", err)
	}

	byVersion := map[uint64]*Revision{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := migrationFile.FindStringSubmatch(entry.Name())
		if m == nil {
			if strings.HasSuffix(entry.Name(), ".sql") {
				return nil, fmt.Errorf("malformed migration filename: %s", entry.Name())
			}
			continue
		}

		version, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed migration version in %s: %w", entry.Name(), err)
		}
		if version == BaseVersion {
			return nil, fmt.Errorf("migration version 0 is reserved: %s", entry.Name())
		}

		rev, ok := byVersion[version]
		if !ok {
			rev = &Revision{Version: version, Name: m[2]}
			byVersion[version] = rev
		}
		if rev.Name != m[2] {
			return nil, fmt.Errorf("revision %d has conflicting names %q and %q", version, rev.Name, m[2])
		}

		switch m[3] {
		case "up":
			if rev.UpFile != "" {
				return nil, fmt.Errorf("duplicate up migration for version %d: %s", version, entry.Name())
			}
			rev.UpFile = entry.Name()
		case "down":
			if rev.DownFile != "" {
				return nil, fmt.Errorf("duplicate down migration for version %d: %s", version, entry.Name())
			}
			rev.DownFile = entry.Name()
		}
	}

	h := &History{byVersion: make(map[uint64]int, len(byVersion))}
	for _, rev := range byVersion {
		if rev.UpFile == "" {
			return nil, fmt.Errorf("revision %d (%s) has a down migration but no up migration", rev.Version, rev.Name)
		}
		h.revisions = append(h.revisions, *rev)
	}
	sort.Slice(h.revisions, func(i, j int) bool {
		return h.revisions[i].Version < h.revisions[j].Version
	})
	for i, rev := range h.revisions {
		h.byVersion[rev.Version] = i
	}
	return h, nil
}

// Revisions returns all revisions in ascending version order.
func (h *History) Revisions() []Revision {
	out := make([]Revision, len(h.revisions))
	copy(out, h.revisions)
	return out
}

// Len returns the number of revisions.
func (h *History) Len() int {
	return len(h.revisions)
}

// Head returns the latest revision.
func (h *History) Head() (Revision, error) {
	if len(h.revisions) == 0 {
		return Revision{}, ErrNoRevisions
	}
	return h.revisions[len(h.revisions)-1], nil
}

// Base returns the earliest revision.
func (h *History) Base() (Revision, error) {
	if len(h.revisions) == 0 {
		return Revision{}, ErrNoRevisions
	}
	return h.revisions[0], nil
}

// Validate returns an error unless version is part of the history.
// BaseVersion is always valid.
func (h *History) Validate(version uint64) error {
	if version == BaseVersion {
		return nil
	}
	if _, ok := h.byVersion[version]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownRevision, version)
	}
	return nil
}

// Next returns the revision that follows version. Passing BaseVersion
// returns the first revision.
func (h *History) Next(version uint64) (Revision, error) {
	if len(h.revisions) == 0 {
		return Revision{}, ErrNoRevisions
	}
	if version == BaseVersion {
		return h.revisions[0], nil
	}
	i, ok := h.byVersion[version]
	if !ok {
		return Revision{}, fmt.Errorf("%w: %d", ErrUnknownRevision, version)
	}
	if i == len(h.revisions)-1 {
		return Revision{}, fmt.Errorf("%w: %d is the head", ErrNoNextRevision, version)
	}
	return h.revisions[i+1], nil
}

// Previous returns the version that precedes version. The first
// revision's predecessor is BaseVersion.
func (h *History) Previous(version uint64) (uint64, error) {
	i, ok := h.byVersion[version]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownRevision, version)
	}
	if i == 0 {
		return BaseVersion, nil
	}
	return h.revisions[i-1].Version, nil
}

// Range returns the revisions after from, up to and including to.
// from may be BaseVersion to start at the first revision, and to may
// equal from, in which case the range is empty.
func (h *History) Range(from, to uint64) ([]Revision, error) {
	if err := h.Validate(from); err != nil {
		return nil, err
	}
	if err := h.Validate(to); err != nil {
		return nil, err
	}
	if from == to {
		return nil, nil
	}

	var out []Revision
	for _, rev := range h.revisions {
		if rev.Version > from && rev.Version <= to {
			out = append(out, rev)
		}
	}
	if to < from {
		return nil, fmt.Errorf("revision range is reversed: %d..%d", from, to)
	}
	return out, nil
}

// MissingDown returns the revisions that have no downgrade script.
func (h *History) MissingDown() []Revision {
	var out []Revision
	for _, rev := range h.revisions {
		if !rev.HasDown() {
			out = append(out, rev)
		}
	}
	return out
}

// Resolve maps a revision alias to a concrete version. Recognized
// aliases are "base", "head" and decimal version numbers.
func (h *History) Resolve(alias string) (uint64, error) {
	switch alias {
	case "base":
		return BaseVersion, nil
	case "head":
		head, err := h.Head()
		if err != nil {
			return 0, err
		}
		return head.Version, nil
	}

	version, err := strconv.ParseUint(alias, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid revision %q: %w", alias, err)
	}
	if err := h.Validate(version); err != nil {
		return 0, err
	}
	return version, nil
}
