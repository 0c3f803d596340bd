// Copyright 2026 The Schemac Authors

// Package manifest loads and validates schema.toml, the package manifest
// spec.md §3/§4.C/§6 describes. The raw-struct load/dump pattern (a
// "possible-props" shape decoded then validated into a stricter domain
// type) is grounded on golang-dep's manifest.go, adapted from JSON to TOML
// via github.com/BurntSushi/toml.
package manifest

import (
	"bytes"
	"fmt"
	"os"
	"regexp"

	"github.com/BurntSushi/toml"

	"schemac/internal/semver"
)

const FileName = "schema.toml"

var namePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// DepKind distinguishes the three dependency-spec shapes of spec.md §3.
type DepKind int

const (
	DepPath DepKind = iota
	DepGit
	DepRemote
)

// Dependency is one entry in [Manifest.Dependencies].
type Dependency struct {
	Kind    DepKind
	Path    string            // DepPath
	GitURL  string            // DepGit
	GitRef  string            // DepGit
	URL     string            // DepRemote
	Headers map[string]string // DepRemote
}

// Package holds the `[package]` table.
type Package struct {
	Name        string
	Version     semver.Version
	Authors     []string
	License     string
	Readme      string
	Repository  string
	Keywords    []string
	Description string
	Homepage    string
}

// Files holds the optional `[files]` include/exclude glob lists.
type Files struct {
	Include []string
	Exclude []string
}

// Manifest is the validated, in-memory form of schema.toml.
type Manifest struct {
	Package      Package
	Dependencies map[string]Dependency
	Files        Files
}

// --- raw TOML shape -------------------------------------------------------

type rawManifest struct {
	Version     string                   `toml:"version"`
	Package     rawPackage               `toml:"package"`
	Dependencies map[string]rawDependency `toml:"dependencies"`
	Files       *rawFiles                `toml:"files"`
}

type rawPackage struct {
	Name        string   `toml:"name"`
	Version     string   `toml:"version"`
	Authors     []string `toml:"authors"`
	License     string   `toml:"license"`
	Readme      string   `toml:"readme"`
	Repository  string   `toml:"repository"`
	Keywords    []string `toml:"keywords"`
	Description string   `toml:"description"`
	Homepage    string   `toml:"homepage"`
}

type rawDependency struct {
	Path    string            `toml:"path"`
	Git     string            `toml:"git"`
	Ref     string            `toml:"ref"`
	Remote  string            `toml:"remote"`
	Headers map[string]string `toml:"headers"`
}

type rawFiles struct {
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
}

// Load reads and validates schema.toml from path. A missing file yields a
// *MissingError and a TOML syntax error a *ParseError; both are plain Go
// errors, with no diagnostic code (KPK4001/KPK0001) attached, and the CLI
// prints them as they are.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &MissingError{Path: path}
		}
		return nil, err
	}
	return Parse(data)
}

// Parse validates and decodes manifest TOML text already read into memory
// (used for in-memory/registry package bodies as well as tests).
func Parse(data []byte) (*Manifest, error) {
	var raw rawManifest
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, &ParseError{Err: err}
	}
	return validate(raw)
}

func validate(raw rawManifest) (*Manifest, error) {
	if !namePattern.MatchString(raw.Package.Name) {
		return nil, fmt.Errorf("invalid package name %q: must match [a-z][a-z0-9-]*", raw.Package.Name)
	}
	v, err := semver.Parse(raw.Package.Version)
	if err != nil {
		return nil, fmt.Errorf("invalid package version: %w", err)
	}
	m := &Manifest{
		Package: Package{
			Name: raw.Package.Name, Version: v, Authors: raw.Package.Authors,
			License: raw.Package.License, Readme: raw.Package.Readme,
			Repository: raw.Package.Repository, Keywords: raw.Package.Keywords,
			Description: raw.Package.Description, Homepage: raw.Package.Homepage,
		},
		Dependencies: map[string]Dependency{},
	}
	for name, d := range raw.Dependencies {
		dep, err := toDependency(name, d)
		if err != nil {
			return nil, err
		}
		if _, dup := m.Dependencies[name]; dup {
			return nil, &DuplicateDepError{Name: name}
		}
		m.Dependencies[name] = dep
	}
	if raw.Files != nil {
		m.Files = Files{Include: raw.Files.Include, Exclude: raw.Files.Exclude}
	}
	return m, nil
}

func toDependency(name string, d rawDependency) (Dependency, error) {
	n := 0
	if d.Path != "" {
		n++
	}
	if d.Git != "" {
		n++
	}
	if d.Remote != "" {
		n++
	}
	if n != 1 {
		return Dependency{}, fmt.Errorf("dependency %q must specify exactly one of path, git, or remote", name)
	}
	switch {
	case d.Path != "":
		return Dependency{Kind: DepPath, Path: d.Path}, nil
	case d.Git != "":
		return Dependency{Kind: DepGit, GitURL: d.Git, GitRef: d.Ref}, nil
	default:
		return Dependency{Kind: DepRemote, URL: d.Remote, Headers: d.Headers}, nil
	}
}

// Save dumps m to path in canonical TOML form.
func Save(path string, m *Manifest) error {
	data, err := Dump(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Dump renders m as canonical TOML text.
func Dump(m *Manifest) ([]byte, error) {
	raw := rawManifest{
		Version: "v1",
		Package: rawPackage{
			Name: m.Package.Name, Version: m.Package.Version.String(),
			Authors: m.Package.Authors, License: m.Package.License,
			Readme: m.Package.Readme, Repository: m.Package.Repository,
			Keywords: m.Package.Keywords, Description: m.Package.Description,
			Homepage: m.Package.Homepage,
		},
		Dependencies: map[string]rawDependency{},
	}
	for name, d := range m.Dependencies {
		switch d.Kind {
		case DepPath:
			raw.Dependencies[name] = rawDependency{Path: d.Path}
		case DepGit:
			raw.Dependencies[name] = rawDependency{Git: d.GitURL, Ref: d.GitRef}
		case DepRemote:
			raw.Dependencies[name] = rawDependency{Remote: d.URL, Headers: d.Headers}
		}
	}
	if len(m.Files.Include) > 0 || len(m.Files.Exclude) > 0 {
		raw.Files = &rawFiles{Include: m.Files.Include, Exclude: m.Files.Exclude}
	}
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MissingError is returned by Load when schema.toml does not exist.
type MissingError struct{ Path string }

func (e *MissingError) Error() string { return fmt.Sprintf("manifest not found: %s", e.Path) }

// ParseError wraps a TOML syntax error.
type ParseError struct{ Err error }

func (e *ParseError) Error() string { return fmt.Sprintf("manifest parse error: %v", e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// DuplicateDepError is returned when the same dependency key appears twice
// (TOML itself forbids this, but Parse also guards it defensively for
// callers that build a rawManifest programmatically in tests).
type DuplicateDepError struct{ Name string }

func (e *DuplicateDepError) Error() string {
	return fmt.Sprintf("duplicate dependency key %q", e.Name)
}
