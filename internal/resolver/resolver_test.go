// Copyright 2026 The Schemac Authors

package resolver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemac/internal/diagbus"
	"schemac/internal/schemacache"
	"schemac/internal/vfs"
	"schemac/ks/errors"
)

// chdir switches the process working directory to dir for the duration of
// the test, restoring the original on cleanup. manifest.Load reads
// schema.toml straight off disk rather than through vfs.FS, so it always
// resolves against the real process CWD; every other stage resolves
// relative paths against the *vfs.OSFS's own CWD field. Tests that use
// relative package directories need both to agree, exactly as the cli
// package's compile() assumes when it passes "." as the resolver's root.
func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

// writePackage materializes a minimal on-disk package at dir: a schema.toml
// (name, version, and optional dependency table) and a schema/lib.ks with
// the given namespace body.
func writePackage(t *testing.T, dir, name, version string, deps map[string]string, libBody string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "schema"), 0o755))

	toml := "[package]\nname = \"" + name + "\"\nversion = \"" + version + "\"\n"
	if len(deps) > 0 {
		toml += "\n[dependencies]\n"
		for depName, relPath := range deps {
			toml += depName + " = { path = \"" + relPath + "\" }\n"
		}
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schema.toml"), []byte(toml), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schema", "lib.ks"), []byte(libBody), 0o644))
}

// TestTrivialCompileResolves covers Scenario A: a root package with no
// dependencies resolves to a single-package build list and a lockfile
// whose root entry matches the manifest.
func TestTrivialCompileResolves(t *testing.T) {
	tmp := t.TempDir()
	writePackage(t, filepath.Join(tmp, "root"), "rootpkg", "0.1.0", nil, "namespace rootpkg;\n")
	chdir(t, tmp)

	ctx := context.Background()
	bus := diagbus.Start(ctx)
	r := New(&vfs.OSFS{CWD: "."}, DirFetcher{}, schemacache.New(), bus)

	graph, loaded, err := r.Resolve(ctx, "root")
	require.NoError(t, err)
	bus.Close()
	bundle := bus.Wait()
	assert.Empty(t, bundle.Errors)

	list := graph.BuildList()
	require.Len(t, list, 1)
	assert.Equal(t, "rootpkg", list[0].Path)

	rootLoaded, ok := loaded["rootpkg@0.1.0"]
	require.True(t, ok)
	assert.Equal(t, StateLoaded, rootLoaded.State)

	lf := ToLockfile(rootLoaded, loaded, list)
	assert.Equal(t, "rootpkg", lf.Root.Name)
	assert.Empty(t, lf.Packages, "no transitive packages besides the root")
}

// TestDiamondDependencyRecordsResolvedVersions covers Scenario D plus
// invariant 3: a diamond (root -> a, b; a,b -> c at differing compatible
// versions) selects the higher version of c, and every recorded
// dependency version in the resulting lockfile reflects the package that
// was actually loaded, not a zero-value placeholder.
func TestDiamondDependencyRecordsResolvedVersions(t *testing.T) {
	tmp := t.TempDir()
	writePackage(t, filepath.Join(tmp, "c"), "c", "1.2.0", nil, "namespace c;\n")
	writePackage(t, filepath.Join(tmp, "a"), "a", "1.0.0", map[string]string{"c": "../c"}, "namespace a;\n")
	writePackage(t, filepath.Join(tmp, "b"), "b", "1.0.0", map[string]string{"c": "../c"}, "namespace b;\n")
	writePackage(t, filepath.Join(tmp, "root"), "rootpkg", "0.1.0", map[string]string{
		"a": "../a",
		"b": "../b",
	}, "namespace rootpkg;\n")
	chdir(t, tmp)

	ctx := context.Background()
	bus := diagbus.Start(ctx)
	r := New(&vfs.OSFS{CWD: "."}, DirFetcher{}, schemacache.New(), bus)

	graph, loaded, err := r.Resolve(ctx, "root")
	require.NoError(t, err)
	bus.Close()
	bundle := bus.Wait()
	assert.Empty(t, bundle.Errors)

	selected, ok := graph.Selected("c")
	require.True(t, ok)
	assert.Equal(t, "1.2.0", selected.String())

	rootLoaded := loaded["rootpkg@0.1.0"]
	require.NotNil(t, rootLoaded)
	lf := ToLockfile(rootLoaded, loaded, graph.BuildList())

	aLocked, ok := lf.Packages["a@1.0.0"]
	require.True(t, ok)
	cDep, ok := aLocked.Dependencies["c"]
	require.True(t, ok)
	assert.Equal(t, "1.2.0", cDep.Version.String(), "dependency version must be the resolved child version, not 0.0.0")
	assert.Equal(t, []string{"c"}, cDep.Provides, "c's own namespace should be recorded as provided")

	rootADep, ok := lf.Root.Dependencies["a"]
	require.True(t, ok)
	assert.Equal(t, "1.0.0", rootADep.Version.String())
	assert.Equal(t, []string{"rootpkg", "a"}, rootADep.Chain, "a was reached directly from the root")
}

// TestCyclicDependencyRejected covers invariant 7: a package that depends
// (directly or transitively) back on one of its own ancestors fails
// resolution with KTR5002 and yields no lockfile.
func TestCyclicDependencyRejected(t *testing.T) {
	tmp := t.TempDir()
	writePackage(t, filepath.Join(tmp, "a"), "a", "1.0.0", map[string]string{"b": "../b"}, "namespace a;\n")
	writePackage(t, filepath.Join(tmp, "b"), "b", "1.0.0", map[string]string{"a": "../a"}, "namespace b;\n")
	chdir(t, tmp)

	ctx := context.Background()
	bus := diagbus.Start(ctx)
	r := New(&vfs.OSFS{CWD: "."}, DirFetcher{}, schemacache.New(), bus)

	_, _, err := r.Resolve(ctx, "a")
	require.Error(t, err)
	bus.Close()
	bundle := bus.Wait()

	require.Len(t, bundle.Errors, 1)
	assert.Equal(t, errors.CodeCircularDep, bundle.Errors[0].Code)
}

// TestMissingLibFileFails covers the "package %q has no schema/lib.ks"
// guard: a package directory with a schema.toml but no schema/lib.ks
// fails to load with KFS4002 rather than proceeding with an empty
// namespace.
func TestMissingLibFileFails(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tmp, "nolib"), 0o755))
	toml := "[package]\nname = \"nolib\"\nversion = \"0.1.0\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "nolib", "schema.toml"), []byte(toml), 0o644))
	chdir(t, tmp)

	ctx := context.Background()
	bus := diagbus.Start(ctx)
	r := New(&vfs.OSFS{CWD: "."}, DirFetcher{}, schemacache.New(), bus)

	_, _, err := r.Resolve(ctx, "nolib")
	require.Error(t, err)
	bus.Close()
	bundle := bus.Wait()
	require.Len(t, bundle.Errors, 1)
	assert.Equal(t, errors.CodeLibMissing, bundle.Errors[0].Code)
}
