// Copyright 2026 The Schemac Authors

// Package mvs implements minimal version selection over the package
// dependency graph: for every package name reachable from the root, keep
// the highest version any reachable requirement names, per spec.md §4.H's
// "version selection rule". The incremental [Graph] type is adapted
// directly from the teacher's generic MVS implementation
// (internal/mod/mvs/graph.go), narrowed from an arbitrary comparable V to
// this domain's (name, internal/semver.Version) pair.
package mvs

import (
	"sort"

	"schemac/internal/semver"
)

// Module identifies one node in the graph: a package name at a specific
// version. The zero Version (0.0.0) is never a real requirement; it is
// used internally to mean "no version selected yet".
type Module struct {
	Path    string
	Version semver.Version
}

// none is the sentinel "not selected" version: major/minor/patch all
// zero with no prerelease never collides with a real manifest version
// because spec.md §3 requires package versions to be non-pre-release
// triples starting at 0.0.0 only for unpublished packages, which never
// appear as dependency targets.
var none = semver.Version{}

func isNone(v semver.Version) bool { return v == none }

// Graph is an incremental build list: call [Graph.Require] once per
// package's declared dependencies (in any order, including concurrently
// discovered order, so long as the caller serializes the calls — see
// internal/resolver's single mutex-guarded state), then read the result
// with [Graph.BuildList].
type Graph struct {
	roots    []string
	selected map[string]semver.Version // path -> highest required version, or none
	required map[string]map[string]bool // path -> set of versioned requirers "path@version"
}

// NewGraph creates an empty graph seeded with the given root package
// paths, each selected at rootVersion (the version the root manifest
// itself declares, never superseded — spec.md §4.H treats the root as
// always "in" regardless of what anyone else requires).
func NewGraph(roots []string, rootVersion semver.Version) *Graph {
	g := &Graph{
		roots:    append([]string(nil), roots...),
		selected: map[string]semver.Version{},
		required: map[string]map[string]bool{},
	}
	for _, r := range roots {
		g.selected[r] = rootVersion
	}
	return g
}

func key(m Module) string { return m.Path + "@" + m.Version.String() }

// Require records that module m requires the packages in reqs (already
// resolved to concrete versions by the caller, e.g. by picking the
// manifest-declared constraint's lower bound). Each requirement may
// raise g's current selection for that path; it never lowers it.
func (g *Graph) Require(m Module, reqs []Module) {
	mk := key(m)
	for _, r := range reqs {
		if g.required[r.Path] == nil {
			g.required[r.Path] = map[string]bool{}
		}
		g.required[r.Path][mk] = true

		isRoot := false
		for _, root := range g.roots {
			if root == r.Path {
				isRoot = true
				break
			}
		}
		if isRoot {
			continue // a root keeps the version NewGraph selected for it
		}
		cur, ok := g.selected[r.Path]
		if !ok || isNone(cur) || semver.Compare(r.Version, cur) > 0 {
			g.selected[r.Path] = r.Version
		}
	}
}

// RequiredBy returns every module known to require path, as the
// "path@version" keys recorded by [Graph.Require].
func (g *Graph) RequiredBy(path string) []string {
	reqs := g.required[path]
	out := make([]string, 0, len(reqs))
	for r := range reqs {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// Selected returns the version currently selected for path, or false if
// no requirement (root or transitive) has named it yet.
func (g *Graph) Selected(path string) (semver.Version, bool) {
	v, ok := g.selected[path]
	if !ok || isNone(v) {
		return semver.Version{}, false
	}
	return v, true
}

// BuildList returns the final selected version for every known package
// path: roots first in the order passed to [NewGraph], then the
// remaining paths sorted lexically, matching the lockfile's byte-stable
// ordering requirement (spec.md §5).
func (g *Graph) BuildList() []Module {
	seen := make(map[string]bool, len(g.roots))
	list := make([]Module, 0, len(g.selected))
	for _, r := range g.roots {
		seen[r] = true
		list = append(list, Module{Path: r, Version: g.selected[r]})
	}
	var rest []string
	for p := range g.selected {
		if !seen[p] {
			rest = append(rest, p)
		}
	}
	sort.Strings(rest)
	for _, p := range rest {
		list = append(list, Module{Path: p, Version: g.selected[p]})
	}
	return list
}

// WalkBreadthFirst calls f once for every selected module (root and
// transitive) in [Graph.BuildList] order, stopping early if f returns
// false.
func (g *Graph) WalkBreadthFirst(f func(Module) bool) {
	queue := g.BuildList()
	for _, m := range queue {
		if isNone(m.Version) {
			continue
		}
		if !f(m) {
			return
		}
	}
}

// FindPath returns the shortest chain of modules from a root to the
// first module satisfying f, inclusive of both endpoints, or nil if no
// selected module satisfies f. It is used to render "required by A ->
// B -> C" diagnostic context (spec.md §5's dependency-chain attribution,
// also recorded in lockfile.DepRef.Chain).
func (g *Graph) FindPath(f func(Module) bool) []Module {
	type frame struct {
		path string
		ver  semver.Version
	}
	firstRequires := map[string]frame{}
	var queue []string
	for _, r := range g.roots {
		queue = append(queue, r)
	}

	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]
		ver, ok := g.Selected(path)
		if !ok {
			continue
		}
		m := Module{Path: path, Version: ver}
		if f(m) {
			chain := []Module{m}
			cur := path
			for {
				prev, has := firstRequires[cur]
				if !has {
					break
				}
				pv, _ := g.Selected(prev.path)
				chain = append(chain, Module{Path: prev.path, Version: pv})
				cur = prev.path
			}
			for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
				chain[i], chain[j] = chain[j], chain[i]
			}
			return chain
		}

		// Walk outward to everything path requires (the graph records
		// requirer -> required, so descend by scanning for requirer keys
		// whose path matches the module we just dequeued).
		for reqPath := range g.required {
			for requirerKey := range g.required[reqPath] {
				if pathFromKey(requirerKey) == path {
					if _, seen := firstRequires[reqPath]; !seen {
						firstRequires[reqPath] = frame{path: path}
						queue = append(queue, reqPath)
					}
				}
			}
		}
	}
	return nil
}

func pathFromKey(k string) string {
	for i := len(k) - 1; i >= 0; i-- {
		if k[i] == '@' {
			return k[:i]
		}
	}
	return k
}
