// Copyright 2026 The Schemac Authors

package manifest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemac/internal/semver"
)

func mustParseVersion(t *testing.T, s string) semver.Version {
	t.Helper()
	v, err := semver.Parse(s)
	require.NoError(t, err)
	return v
}

func TestParseValidManifest(t *testing.T) {
	data := []byte(`
version = "v1"

[package]
name = "widgets"
version = "1.2.3"
license = "MIT"

[dependencies]
core = { path = "../core" }
remote = { remote = "https://example.com/pkg.tar", headers = { Authorization = "token" } }

[files]
include = ["schema/**/*.ks"]
`)
	m, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "widgets", m.Package.Name)
	assert.Equal(t, "1.2.3", m.Package.Version.String())
	assert.Equal(t, "MIT", m.Package.License)

	core, ok := m.Dependencies["core"]
	require.True(t, ok)
	assert.Equal(t, DepPath, core.Kind)
	assert.Equal(t, "../core", core.Path)

	remote, ok := m.Dependencies["remote"]
	require.True(t, ok)
	assert.Equal(t, DepRemote, remote.Kind)
	assert.Equal(t, "token", remote.Headers["Authorization"])

	assert.Equal(t, []string{"schema/**/*.ks"}, m.Files.Include)
}

func TestParseRejectsInvalidPackageName(t *testing.T) {
	data := []byte(`
[package]
name = "Not_Valid"
version = "1.0.0"
`)
	_, err := Parse(data)
	require.Error(t, err)
}

func TestParseRejectsAmbiguousDependencyKind(t *testing.T) {
	data := []byte(`
[package]
name = "widgets"
version = "1.0.0"

[dependencies]
core = { path = "../core", git = "https://example.com/core.git" }
`)
	_, err := Parse(data)
	require.Error(t, err)
}

func TestLoadMissingManifestReturnsMissingError(t *testing.T) {
	_, err := Load("/nonexistent/dir/schema.toml")
	require.Error(t, err)
	var missing *MissingError
	require.True(t, errors.As(err, &missing))
}

func TestDumpLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/schema.toml"
	m := &Manifest{
		Package: Package{
			Name: "widgets", Version: mustParseVersion(t, "2.0.0"),
			Authors: []string{"Ada Lovelace"}, License: "Apache-2.0",
		},
		Dependencies: map[string]Dependency{
			"core": {Kind: DepPath, Path: "../core"},
		},
	}
	require.NoError(t, Save(path, m))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, m.Package.Name, got.Package.Name)
	assert.Equal(t, m.Package.Version, got.Package.Version)
	assert.Equal(t, m.Dependencies["core"], got.Dependencies["core"])
}
