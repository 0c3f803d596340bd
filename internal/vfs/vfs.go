// Copyright 2026 The Schemac Authors

// Package vfs provides a uniform read/write/glob surface over on-disk and
// in-memory backings, grounded on the teacher's io/fs-compliant
// internal/filesystem.OSFS but generalized to the two backings spec.md
// §4.B requires: physical disk, and an in-memory store for tests and
// registry package bodies.
package vfs

import (
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// FS is the virtual filesystem surface every loading stage uses instead of
// talking to os directly, so that package bodies can come from disk or
// memory interchangeably.
type FS interface {
	Exists(p string) bool
	Read(p string) ([]byte, error)
	Write(p string, data []byte) error
	// Glob returns every path matching any include pattern and no exclude
	// pattern, sorted lexically. Both backings must agree on this order so
	// that checksums (internal/resolver) are reproducible (spec.md §4.B).
	Glob(include, exclude []string) ([]string, error)
}

// OSFS is a physical-disk backing rooted at CWD; relative paths passed to
// its methods are resolved against CWD.
type OSFS struct {
	CWD string
}

func (f *OSFS) abs(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Clean(filepath.Join(f.CWD, p))
}

func (f *OSFS) Exists(p string) bool {
	_, err := os.Stat(f.abs(p))
	return err == nil
}

func (f *OSFS) Read(p string) ([]byte, error) {
	return os.ReadFile(f.abs(p))
}

func (f *OSFS) Write(p string, data []byte) error {
	full := f.abs(p)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0o644)
}

func (f *OSFS) Glob(include, exclude []string) ([]string, error) {
	fsys := os.DirFS(f.CWD)
	var all []string
	seen := map[string]bool{}
	for _, pat := range include {
		matches, err := doublestar.Glob(fsys, pat)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				all = append(all, m)
			}
		}
	}
	return filterGlob(all, nil, exclude)
}

// MemFS is an in-memory backing used by tests, the formatter's dry-run
// mode, and registry package bodies fetched over the network and staged
// before disk materialization.
type MemFS struct {
	files map[string][]byte
}

func NewMemFS() *MemFS { return &MemFS{files: map[string][]byte{}} }

func (f *MemFS) clean(p string) string { return path.Clean(filepath.ToSlash(p)) }

func (f *MemFS) Exists(p string) bool {
	_, ok := f.files[f.clean(p)]
	return ok
}

func (f *MemFS) Read(p string) ([]byte, error) {
	data, ok := f.files[f.clean(p)]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

func (f *MemFS) Write(p string, data []byte) error {
	f.files[f.clean(p)] = data
	return nil
}

func (f *MemFS) Glob(include, exclude []string) ([]string, error) {
	names := make([]string, 0, len(f.files))
	for name := range f.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return filterGlob(names, include, exclude)
}

func filterGlob(names, include, exclude []string) ([]string, error) {
	var out []string
	for _, name := range names {
		matched := len(include) == 0
		for _, pat := range include {
			if ok, err := doublestar.Match(pat, name); err != nil {
				return nil, err
			} else if ok {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		excluded := false
		for _, pat := range exclude {
			if ok, err := doublestar.Match(pat, name); err != nil {
				return nil, err
			} else if ok {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}
