// Copyright 2026 The Schemac Authors

// Package resolver drives the concurrent per-package compilation flow
// spec.md §4.H describes: for the root package and every transitive
// dependency, glob its schema/ sources, parse and namespace-load them,
// select a version via minimal version selection (internal/mvs), and
// assemble a [Loaded] package. Independent dependency subtrees are
// fetched and loaded in parallel with a bounded worker count, grounded
// on the same errgroup + semaphore + mutex-guarded-results shape as
// packagemanager.Manager.ResolveAndFetch: one goroutine per package,
// a channel-free mutex section limited to recording results, and
// context-based cancellation.
package resolver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"schemac/internal/diagbus"
	"schemac/internal/mvs"
	"schemac/internal/nsload"
	"schemac/internal/schemacache"
	"schemac/internal/semver"
	"schemac/internal/vfs"
	"schemac/ks/errors"
	"schemac/ks/parser"
	"schemac/lockfile"
	"schemac/manifest"
)

// State is a package's position in spec.md §4.H's per-package state
// machine: Unloaded -> Parsing -> Loaded -> Resolving -> Resolved, with
// Failed as the terminal state for any parse error along the way.
type State int

const (
	StateUnloaded State = iota
	StateParsing
	StateLoaded
	StateResolving
	StateResolved
	StateFailed
)

// Loaded is one fully-loaded package: its manifest, the namespace tree
// built from its sources, and the direct dependency names it declares.
// loadPackage sets its State to StateLoaded; Resolve fills in Deps and
// Chain afterwards.
type Loaded struct {
	Name      string
	Version   semver.Version
	Manifest  *manifest.Manifest
	Root      *nsload.Namespace
	SrcPaths  []string
	Checksum  string
	Deps      map[string]semver.Version // direct dependency name -> resolved version
	Provides  []string                  // namespace paths this package exports
	Chain     []string                  // package names from the root down to (and including) this one
	State     State
}

// PathResolver locates the on-disk (or in-memory) root for a manifest
// dependency. Only [manifest.DepPath] dependencies are resolvable
// without a network round trip; git/remote dependencies are accepted by
// the manifest parser but this resolver reports them as unsupported,
// since spec.md names no registry transport and this compiler has no
// network access to exercise one against.
type PathResolver interface {
	// Resolve returns the filesystem (or vfs) root directory for dep,
	// relative to fromDir (the package declaring the dependency).
	Resolve(fromDir string, dep manifest.Dependency) (string, error)
}

// DirFetcher is the concrete [PathResolver] used outside tests: it joins
// DepPath dependencies onto the declaring package's directory.
type DirFetcher struct{}

func (DirFetcher) Resolve(fromDir string, dep manifest.Dependency) (string, error) {
	switch dep.Kind {
	case manifest.DepPath:
		return path.Join(fromDir, dep.Path), nil
	default:
		return "", fmt.Errorf("dependency kind %d requires network access, which this build does not provide", dep.Kind)
	}
}

// Resolver coordinates loading the root package and its transitive
// dependency closure.
type Resolver struct {
	fs      vfs.FS
	fetcher PathResolver
	cache   *schemacache.Cache
	bus     *diagbus.Bus

	mu         sync.Mutex
	processing map[string]*sync.WaitGroup // "name@version" currently being loaded, guards re-entrancy
	loaded     map[string]*Loaded
}

// New creates a Resolver over fs, using fetcher to locate dependency
// roots and cache to memoize already-loaded packages across a single
// compilation run.
func New(fs vfs.FS, fetcher PathResolver, cache *schemacache.Cache, bus *diagbus.Bus) *Resolver {
	return &Resolver{
		fs: fs, fetcher: fetcher, cache: cache, bus: bus,
		processing: map[string]*sync.WaitGroup{},
		loaded:     map[string]*Loaded{},
	}
}

// Resolve loads rootDir as the root package, then its full transitive
// dependency closure, and returns the selected [mvs.Graph] build list
// alongside every [Loaded] package keyed by "name@version". ctx is
// checked once per package load, before that package's sources are read;
// a load already past that check runs to completion.
func (r *Resolver) Resolve(ctx context.Context, rootDir string) (*mvs.Graph, map[string]*Loaded, error) {
	root, err := r.loadPackage(ctx, rootDir)
	if err != nil {
		return nil, nil, err
	}

	g := mvs.NewGraph([]string{root.Name}, root.Version)
	root.Chain = []string{root.Name}
	r.record(root)

	g.Require(mvs.Module{Path: root.Name, Version: root.Version}, requirementsOf(root))

	eg, egctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, 8)
	var gmu sync.Mutex

	// chain tracks the ancestor keys ("name@version") on the path from the
	// root down to the package currently being fanned out, independent of
	// r.processing (which only dedupes concurrent loads of the same key).
	// A dependency that reappears in its own ancestor chain is a schema
	// circular dependency (spec.md §4.H step 3, KTR5002), not merely a
	// diamond — a diamond revisits a package from two unrelated branches,
	// never from one branch into itself.
	var fanOut func(dir string, pkg *Loaded, chain []string)
	fanOut = func(dir string, pkg *Loaded, chain []string) {
		for name, dep := range pkg.Manifest.Dependencies {
			name, dep := name, dep
			eg.Go(func() error {
				select {
				case sem <- struct{}{}:
				case <-egctx.Done():
					return egctx.Err()
				}
				defer func() { <-sem }()

				depDir, err := r.fetcher.Resolve(dir, dep)
				if err != nil {
					return fmt.Errorf("dependency %q: %w", name, err)
				}
				child, err := r.loadPackage(egctx, depDir)
				if err != nil {
					return err
				}

				childKey := child.Key()
				for _, ancestor := range chain {
					if ancestor == childKey {
						d := errors.New(errors.CodeCircularDep, errors.Error,
							"schema circular dependency: %s -> %s", chainString(chain), childKey).
							Unlocated().Build()
						r.bus.Emit(d)
						return fmt.Errorf("circular dependency: %s -> %s", chainString(chain), childKey)
					}
				}

				gmu.Lock()
				r.record(child)
				pkg.Deps[name] = child.Version
				if child.Chain == nil {
					// First branch to reach this (name, version) wins the
					// attribution chain; a diamond's other branch reaching
					// the same child later does not overwrite it.
					child.Chain = append(append([]string{}, pkg.Chain...), child.Name)
				}
				g.Require(mvs.Module{Path: pkg.Name, Version: pkg.Version},
					[]mvs.Module{{Path: child.Name, Version: child.Version}})
				g.Require(mvs.Module{Path: child.Name, Version: child.Version}, requirementsOf(child))
				gmu.Unlock()

				childChain := append(append([]string{}, chain...), childKey)
				fanOut(depDir, child, childChain)
				return nil
			})
		}
	}
	fanOut(rootDir, root, []string{root.Key()})

	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	r.mu.Lock()
	result := make(map[string]*Loaded, len(r.loaded))
	for k, v := range r.loaded {
		result[k] = v
	}
	r.mu.Unlock()

	return g, result, nil
}

func chainString(chain []string) string {
	out := ""
	for i, k := range chain {
		if i > 0 {
			out += " -> "
		}
		out += k
	}
	return out
}

func requirementsOf(pkg *Loaded) []mvs.Module {
	names := make([]string, 0, len(pkg.Manifest.Dependencies))
	for name := range pkg.Manifest.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)
	var out []mvs.Module
	for _, name := range names {
		if v, ok := pkg.Deps[name]; ok {
			out = append(out, mvs.Module{Path: name, Version: v})
		}
	}
	return out
}

func (r *Resolver) record(pkg *Loaded) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded[pkg.Key()] = pkg
}

// Key returns the "name@version" identity used to key the resolver's
// loaded-package map and the lockfile.
func (l *Loaded) Key() string { return fmt.Sprintf("%s@%s", l.Name, l.Version) }

// loadPackage runs one package through Unloaded -> Parsing -> Loaded,
// emitting any diagnostics to r.bus. It is safe to call concurrently for
// distinct directories; the cache and processing map guard against
// loading the same (name, version) twice.
func (r *Resolver) loadPackage(ctx context.Context, dir string) (*Loaded, error) {
	mf, err := manifest.Load(path.Join(dir, manifest.FileName))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", dir, err)
	}

	key := fmt.Sprintf("%s@%s", mf.Package.Name, mf.Package.Version)
	if entry, ok := r.cache.Get(key); ok {
		if loaded, ok := entry.Value.(*Loaded); ok {
			return loaded, nil
		}
	}

	// Only one goroutine actually loads a given (name, version); any
	// concurrent caller for the same key waits on that goroutine's
	// WaitGroup and then reads the cache it populated, per spec.md §4.H's
	// "Loaded -> Resolving entered once, atomically" state transition.
	r.mu.Lock()
	if wg, inFlight := r.processing[key]; inFlight {
		r.mu.Unlock()
		wg.Wait()
		if entry, ok := r.cache.Get(key); ok {
			if loaded, ok := entry.Value.(*Loaded); ok {
				return loaded, nil
			}
		}
		return nil, fmt.Errorf("package %q: concurrent load failed", mf.Package.Name)
	}
	wg := &sync.WaitGroup{}
	wg.Add(1)
	r.processing[key] = wg
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.processing, key)
		r.mu.Unlock()
		wg.Done()
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	libPath := path.Join(dir, "schema", "lib.ks")
	if !r.fs.Exists(libPath) {
		d := errors.New(errors.CodeLibMissing, errors.Error, "package %q has no schema/lib.ks", mf.Package.Name).Unlocated().Build()
		r.bus.Emit(d)
		return nil, fmt.Errorf("package %q: missing schema/lib.ks", mf.Package.Name)
	}

	include := mf.Files.Include
	if len(include) == 0 {
		include = []string{path.Join(dir, "schema", "**", "*.ks")}
	}
	srcPaths, err := r.fs.Glob(include, mf.Files.Exclude)
	if err != nil {
		return nil, err
	}
	sort.Strings(srcPaths)

	var fragments []*nsload.Fragment
	sources := map[string]*errors.Source{}
	hash := sha256.New()
	for _, p := range srcPaths {
		data, err := r.fs.Read(p)
		if err != nil {
			return nil, err
		}
		hash.Write([]byte(p))
		hash.Write(data)

		rel := relTo(dir, p)
		src := &errors.Source{Name: rel, Text: string(data)}
		sources[rel] = src

		f, diag := parser.ParseFile(rel, data)
		if diag != nil {
			r.bus.Emit(diag)
			return nil, fmt.Errorf("package %q: parse error in %s", mf.Package.Name, rel)
		}
		if rel == "schema/lib.ks" {
			for _, d := range parser.ValidateLibFile(f, src) {
				r.bus.Emit(d)
			}
		}
		frag, diag := nsload.BuildFragment(f, rel, src)
		if diag != nil {
			r.bus.Emit(diag)
			continue
		}
		fragments = append(fragments, frag)
	}

	root, diags := nsload.Merge(mf.Package.Name, fragments, sources)
	for _, d := range diags {
		r.bus.Emit(d)
	}

	deps := map[string]semver.Version{}
	for name, dep := range mf.Dependencies {
		_ = dep
		deps[name] = semver.Version{} // filled in by the caller once the child is loaded
	}

	var provides []string
	for _, ns := range nsload.Flatten(root) {
		provides = append(provides, ns.QualifiedName(mf.Package.Name))
	}

	loaded := &Loaded{
		Name:     mf.Package.Name,
		Version:  mf.Package.Version,
		Manifest: mf,
		Root:     root,
		SrcPaths: srcPaths,
		Checksum: "sha256:" + hex.EncodeToString(hash.Sum(nil)),
		Deps:     deps,
		Provides: provides,
		State:    StateLoaded,
	}

	r.cache.Put(key, &schemacache.Entry{Checksum: loaded.Checksum, Value: loaded})
	return loaded, nil
}

func relTo(dir, p string) string {
	rel := p
	if len(p) > len(dir) && p[:len(dir)] == dir {
		rel = p[len(dir):]
		for len(rel) > 0 && rel[0] == '/' {
			rel = rel[1:]
		}
	}
	return rel
}

// ToLockfile renders a resolved build list as a [lockfile.Lockfile],
// matching spec.md §5's "packages keyed by name@version, sorted" output
// contract.
func ToLockfile(root *Loaded, loadedByKey map[string]*Loaded, list []mvs.Module) *lockfile.Lockfile {
	lf := &lockfile.Lockfile{
		Root:     toLockedPackage(root, loadedByKey),
		Packages: map[string]lockfile.LockedPackage{},
	}
	for _, m := range list {
		key := fmt.Sprintf("%s@%s", m.Path, m.Version)
		pkg, ok := loadedByKey[key]
		if !ok || pkg == root {
			continue
		}
		lf.Packages[key] = toLockedPackage(pkg, loadedByKey)
	}
	return lf
}

// toLockedPackage renders pkg's own locked entry, attaching each
// dependency's provided namespaces and attribution chain from the child
// package's own Loaded record (available in loadedByKey since every
// dependency is loaded before its parent's fan-out completes).
func toLockedPackage(pkg *Loaded, loadedByKey map[string]*Loaded) lockfile.LockedPackage {
	lp := lockfile.LockedPackage{
		Name: pkg.Name, Version: pkg.Version, Checksum: pkg.Checksum,
		Source: "path", Dependencies: map[string]lockfile.DepRef{},
	}
	for name, v := range pkg.Deps {
		ref := lockfile.DepRef{Version: v}
		if child, ok := loadedByKey[fmt.Sprintf("%s@%s", name, v)]; ok {
			ref.Provides = child.Provides
			ref.Chain = child.Chain
		}
		lp.Dependencies[name] = ref
	}
	return lp
}
