// Copyright 2026 The Schemac Authors

// Package semver implements the Version type and constraint grammar of
// spec.md §3: semantic-version-like (major, minor, patch[, prerelease])
// tuples, ordered per SemVer, with `^`, `=`, and raw `x.y.z` constraints.
// Canonical comparison is delegated to golang.org/x/mod/semver, the
// teacher's own dependency for exactly this purpose (internal/mod/semver
// wraps the same package for CUE module versions).
package semver

import (
	"fmt"
	"strconv"
	"strings"

	xsemver "golang.org/x/mod/semver"
)

// Version is a parsed semantic version.
type Version struct {
	Major, Minor, Patch int
	Prerelease          string
}

func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Prerelease != "" {
		s += "-" + v.Prerelease
	}
	return s
}

// canonical returns the "vX.Y.Z[-pre]" form x/mod/semver expects.
func (v Version) canonical() string { return "v" + v.String() }

// Parse parses a version string such as "1.2.3" or "0.4.0-beta.1".
func Parse(s string) (Version, error) {
	s = strings.TrimPrefix(s, "v")
	pre := ""
	if i := strings.IndexByte(s, '-'); i >= 0 {
		pre = s[i+1:]
		s = s[:i]
	}
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("invalid version %q: want major.minor.patch", s)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("invalid version %q: component %q is not a non-negative integer", s, p)
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2], Prerelease: pre}, nil
}

// Compare returns -1, 0, or +1 as a is less than, equal to, or greater than
// b, following total SemVer order (prereleases sort before their release).
func Compare(a, b Version) int {
	return xsemver.Compare(a.canonical(), b.canonical())
}

// Max returns the greater of a and b per [Compare].
func Max(a, b Version) Version {
	if Compare(a, b) >= 0 {
		return a
	}
	return b
}

// Compatible implements spec.md §3/GLOSSARY's "compatible version" rule:
// two versions are compatible iff they share a major component when major
// >= 1, or share a minor component when major == 0.
func Compatible(a, b Version) bool {
	if a.Major >= 1 || b.Major >= 1 {
		return a.Major == b.Major
	}
	return a.Minor == b.Minor
}

// ConstraintKind distinguishes the three constraint forms of spec.md §3.
type ConstraintKind int

const (
	ConstraintCaret ConstraintKind = iota // ^1.2.3: same-major (or same-minor if major==0)
	ConstraintExact                       // =1.2.3: exact match
	ConstraintRaw                          // 1.2.3: treated the same as Caret (spec.md §3)
)

// Constraint is a parsed dependency version requirement.
type Constraint struct {
	Kind    ConstraintKind
	Version Version
}

// ParseConstraint parses "^1.2.3", "=1.2.3", or a bare "1.2.3".
func ParseConstraint(s string) (Constraint, error) {
	switch {
	case strings.HasPrefix(s, "^"):
		v, err := Parse(s[1:])
		return Constraint{Kind: ConstraintCaret, Version: v}, err
	case strings.HasPrefix(s, "="):
		v, err := Parse(s[1:])
		return Constraint{Kind: ConstraintExact, Version: v}, err
	default:
		v, err := Parse(s)
		return Constraint{Kind: ConstraintRaw, Version: v}, err
	}
}

// Satisfies reports whether v meets the constraint.
func (c Constraint) Satisfies(v Version) bool {
	switch c.Kind {
	case ConstraintExact:
		return Compare(v, c.Version) == 0
	default: // Caret, Raw
		return Compatible(v, c.Version) && Compare(v, c.Version) >= 0
	}
}

func (c Constraint) String() string {
	switch c.Kind {
	case ConstraintCaret:
		return "^" + c.Version.String()
	case ConstraintExact:
		return "=" + c.Version.String()
	default:
		return c.Version.String()
	}
}
