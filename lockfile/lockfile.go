// Copyright 2026 The Schemac Authors

// Package lockfile loads and stores schema.lock.toml, grounded on
// golang-dep's lock.go (typed raw/domain split, sorted output) adapted
// from JSON to TOML and from dep's single Memo hash to spec.md §3's
// per-package checksum closed world.
package lockfile

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/BurntSushi/toml"

	"schemac/internal/semver"
)

const FileName = "schema.lock.toml"

// DepRef is one entry in a [LockedPackage]'s Dependencies map: the
// resolved version of an import, which namespaces it provides, and the
// chain of package names that pulled it in (for diagnostic attribution).
type DepRef struct {
	Version  semver.Version
	Provides []string
	Chain    []string
}

// LockedPackage is one fully-resolved package: name, version, content
// checksum, source descriptor, and its own direct dependencies.
type LockedPackage struct {
	Name         string
	Version      semver.Version
	Checksum     string
	Source       string
	Dependencies map[string]DepRef
}

// Key returns the lockfile's "name@version" map key for this package.
func (p LockedPackage) Key() string { return fmt.Sprintf("%s@%s", p.Name, p.Version) }

// Lockfile is the full resolved dependency closure: spec.md §3 calls this
// "a complete closed world" — every transitive dependency appears exactly
// once by (name, version).
type Lockfile struct {
	Root     LockedPackage
	Packages map[string]LockedPackage // keyed by Key()
}

// --- raw TOML shape -------------------------------------------------------

type rawDepRef struct {
	Version  string   `toml:"version"`
	Provides []string `toml:"provides,omitempty"`
	Chain    []string `toml:"chain,omitempty"`
}

type rawPackage struct {
	Name         string               `toml:"name"`
	Version      string               `toml:"version"`
	Checksum     string               `toml:"checksum"`
	Source       string               `toml:"source,omitempty"`
	Dependencies map[string]rawDepRef `toml:"dependencies,omitempty"`
}

type rawLockfile struct {
	Root     rawPackage            `toml:"root"`
	Packages map[string]rawPackage `toml:"packages"`
}

// Load reads and parses schema.lock.toml. A missing file is not an error:
// Load then returns a nil Lockfile and a nil error.
func Load(path string) (*Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Lockfile, error) {
	var raw rawLockfile
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, fmt.Errorf("lockfile parse error: %w", err)
	}
	root, err := fromRawPackage(raw.Root)
	if err != nil {
		return nil, err
	}
	lf := &Lockfile{Root: root, Packages: map[string]LockedPackage{}}
	for key, rp := range raw.Packages {
		p, err := fromRawPackage(rp)
		if err != nil {
			return nil, err
		}
		lf.Packages[key] = p
	}
	return lf, nil
}

func fromRawPackage(rp rawPackage) (LockedPackage, error) {
	v, err := semver.Parse(rp.Version)
	if err != nil {
		return LockedPackage{}, fmt.Errorf("package %q: %w", rp.Name, err)
	}
	p := LockedPackage{Name: rp.Name, Version: v, Checksum: rp.Checksum, Source: rp.Source, Dependencies: map[string]DepRef{}}
	for name, d := range rp.Dependencies {
		dv, err := semver.Parse(d.Version)
		if err != nil {
			return LockedPackage{}, fmt.Errorf("package %q dependency %q: %w", rp.Name, name, err)
		}
		p.Dependencies[name] = DepRef{Version: dv, Provides: d.Provides, Chain: d.Chain}
	}
	return p, nil
}

// Save writes lf to path in canonical, byte-stable TOML form: lockfile
// entries in name@version sorted order, per spec.md §5's ordering
// guarantees.
func Save(path string, lf *Lockfile) error {
	data, err := Dump(lf)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func Dump(lf *Lockfile) ([]byte, error) {
	raw := rawLockfile{Root: toRawPackage(lf.Root), Packages: map[string]rawPackage{}}
	for key, p := range lf.Packages {
		raw.Packages[key] = toRawPackage(p)
	}
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toRawPackage(p LockedPackage) rawPackage {
	rp := rawPackage{Name: p.Name, Version: p.Version.String(), Checksum: p.Checksum, Source: p.Source, Dependencies: map[string]rawDepRef{}}
	for name, d := range p.Dependencies {
		rp.Dependencies[name] = rawDepRef{Version: d.Version.String(), Provides: d.Provides, Chain: d.Chain}
	}
	return rp
}

// SortedKeys returns the lockfile's package keys in sorted order, matching
// spec.md §5's "lockfile entries are written in name@version sorted
// order" guarantee (TOML map encoding does not itself guarantee key
// order, so callers that render text by hand — e.g. diagnostics, not the
// TOML encoder above — should use this).
func (lf *Lockfile) SortedKeys() []string {
	keys := make([]string, 0, len(lf.Packages))
	for k := range lf.Packages {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
