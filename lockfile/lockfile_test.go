// Copyright 2026 The Schemac Authors

package lockfile

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemac/internal/semver"
)

func mustVersion(t *testing.T, s string) semver.Version {
	t.Helper()
	v, err := semver.Parse(s)
	require.NoError(t, err)
	return v
}

// TestDumpParseRoundTrip covers invariant 3: encoding a lockfile and
// re-parsing it must reproduce the identical structure, field for field,
// with no drift introduced by the TOML layer.
func TestDumpParseRoundTrip(t *testing.T) {
	lf := &Lockfile{
		Root: LockedPackage{
			Name: "rootpkg", Version: mustVersion(t, "0.1.0"),
			Checksum: "sha256:deadbeef", Source: "path",
			Dependencies: map[string]DepRef{
				"a": {Version: mustVersion(t, "1.0.0"), Provides: []string{"a::widgets"}, Chain: []string{"rootpkg"}},
			},
		},
		Packages: map[string]LockedPackage{
			"a@1.0.0": {
				Name: "a", Version: mustVersion(t, "1.0.0"),
				Checksum: "sha256:cafef00d", Source: "path",
				Dependencies: map[string]DepRef{
					"c": {Version: mustVersion(t, "1.2.0")},
				},
			},
		},
	}

	data, err := Dump(lf)
	require.NoError(t, err)

	got, err := Parse(data)
	require.NoError(t, err)

	if diff := cmp.Diff(lf, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSortedKeysAreLexical(t *testing.T) {
	lf := &Lockfile{Packages: map[string]LockedPackage{
		"zeta@1.0.0":  {},
		"alpha@1.0.0": {},
		"mid@1.0.0":   {},
	}}
	assert.Equal(t, []string{"alpha@1.0.0", "mid@1.0.0", "zeta@1.0.0"}, lf.SortedKeys())
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	lf, err := Load("/nonexistent/path/schema.lock.toml")
	require.NoError(t, err)
	assert.Nil(t, lf)
}
