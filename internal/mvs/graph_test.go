// Copyright 2026 The Schemac Authors

package mvs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemac/internal/semver"
)

func v(s string) semver.Version {
	ver, err := semver.Parse(s)
	if err != nil {
		panic(err)
	}
	return ver
}

// TestDiamondDependencySelectsHigherCompatibleVersion covers Scenario D:
// root requires A and B; A requires C@1.0.0, B requires C@1.2.0 — both
// compatible (same major), so C@1.2.0 must be selected.
func TestDiamondDependencySelectsHigherCompatibleVersion(t *testing.T) {
	g := NewGraph([]string{"root"}, v("0.1.0"))
	g.Require(Module{Path: "root", Version: v("0.1.0")}, []Module{
		{Path: "a", Version: v("1.0.0")},
		{Path: "b", Version: v("1.0.0")},
	})
	g.Require(Module{Path: "a", Version: v("1.0.0")}, []Module{
		{Path: "c", Version: v("1.0.0")},
	})
	g.Require(Module{Path: "b", Version: v("1.0.0")}, []Module{
		{Path: "c", Version: v("1.2.0")},
	})

	selected, ok := g.Selected("c")
	require.True(t, ok)
	assert.Equal(t, v("1.2.0"), selected)

	list := g.BuildList()
	require.NotEmpty(t, list)
	assert.Equal(t, "root", list[0].Path, "root must sort first")
}

func TestRootVersionNeverSuperseded(t *testing.T) {
	g := NewGraph([]string{"root"}, v("2.0.0"))
	g.Require(Module{Path: "dep", Version: v("1.0.0")}, []Module{
		{Path: "root", Version: v("5.0.0")},
	})
	selected, ok := g.Selected("root")
	require.True(t, ok)
	assert.Equal(t, v("2.0.0"), selected, "root's own declared version always wins")
}

func TestBuildListSortedLexicallyAfterRoots(t *testing.T) {
	g := NewGraph([]string{"root"}, v("0.1.0"))
	g.Require(Module{Path: "root", Version: v("0.1.0")}, []Module{
		{Path: "zeta", Version: v("1.0.0")},
		{Path: "alpha", Version: v("1.0.0")},
		{Path: "mid", Version: v("1.0.0")},
	})
	list := g.BuildList()
	require.Len(t, list, 4)
	got := make([]string, len(list))
	for i, m := range list {
		got[i] = m.Path
	}
	assert.Equal(t, []string{"root", "alpha", "mid", "zeta"}, got)
}

func TestFindPathReturnsShortestChain(t *testing.T) {
	g := NewGraph([]string{"root"}, v("0.1.0"))
	g.Require(Module{Path: "root", Version: v("0.1.0")}, []Module{
		{Path: "a", Version: v("1.0.0")},
	})
	g.Require(Module{Path: "a", Version: v("1.0.0")}, []Module{
		{Path: "b", Version: v("1.0.0")},
	})
	chain := g.FindPath(func(m Module) bool { return m.Path == "b" })
	require.Len(t, chain, 3)
	assert.Equal(t, []string{"root", "a", "b"}, []string{chain[0].Path, chain[1].Path, chain[2].Path})
}
