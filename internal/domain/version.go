// Package domain holds the shared types of the Aerial store core:
// schema versions, episode statuses, quality flags, and sentinel errors.
package domain

import "fmt"

// DBVersion is a schema version. Major bumps signal breaking shape changes,
// minor bumps are additive and safe to skip for old forks. Versions compare
// lexicographically: (44,2) < (44,10) < (45,0).
type DBVersion struct {
	Major int
	Minor int
}

// Compare returns -1, 0, or 1.
func (v DBVersion) Compare(other DBVersion) int {
	switch {
	case v.Major != other.Major:
		if v.Major < other.Major {
			return -1
		}
		return 1
	case v.Minor != other.Minor:
		if v.Minor < other.Minor {
			return -1
		}
		return 1
	}
	return 0
}

// Less reports whether v orders before other.
func (v DBVersion) Less(other DBVersion) bool { return v.Compare(other) < 0 }

// IsZero reports an uninitialized version (fresh store, no ledger row).
func (v DBVersion) IsZero() bool { return v.Major == 0 && v.Minor == 0 }

func (v DBVersion) String() string { return fmt.Sprintf("%d.%d", v.Major, v.Minor) }

// FileExists is the filesystem probe used by status repairs. It is consulted
// fresh on every run: whether a media file is still on disk can legitimately
// change between runs.
type FileExists func(path string) bool
