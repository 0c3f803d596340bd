// Copyright 2026 The Schemac Authors

package nsload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemac/ks/errors"
	"schemac/ks/parser"
)

func TestDerivePath(t *testing.T) {
	cases := []struct {
		rel  string
		want []string
	}{
		{"schema/lib.ks", nil},
		{"schema/a/b.ks", []string{"a", "b"}},
		{"schema/a/b/lib.ks", []string{"a", "b"}},
		{"schema/widgets.ks", []string{"widgets"}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, DerivePath(c.rel), "DerivePath(%q)", c.rel)
	}
}

func build(t *testing.T, relPath, src string) (*Fragment, *errors.Source) {
	t.Helper()
	f, diag := parser.ParseFile(relPath, []byte(src))
	require.Nil(t, diag)
	source := &errors.Source{Name: relPath, Text: src}
	frag, diag := BuildFragment(f, relPath, source)
	require.Nil(t, diag)
	return frag, source
}

func TestNamespaceMismatchRejected(t *testing.T) {
	src := "namespace wrong;\nstruct S {\n}\n"
	f, diag := parser.ParseFile("schema/a.ks", []byte(src))
	require.Nil(t, diag)
	source := &errors.Source{Name: "schema/a.ks", Text: src}
	_, mismatch := BuildFragment(f, "schema/a.ks", source)
	require.NotNil(t, mismatch)
	assert.Equal(t, errors.CodeNamespaceMismatch, mismatch.Code)
}

// TestRedefinitionWithinNamespace covers a duplicate top-level name
// declared twice within the same namespace: the second occurrence
// conflicts with the first.
func TestRedefinitionWithinNamespace(t *testing.T) {
	frag, src := build(t, "schema/lib.ks", "struct S {\n    a: i32,\n}\nstruct S {\n    b: i32,\n}\n")

	_, diags := Merge("app", []*Fragment{frag}, map[string]*errors.Source{
		"schema/lib.ks": src,
	})
	require.Len(t, diags, 1)
	assert.Equal(t, errors.CodeRedefinition, diags[0].Code)
}

func TestNoRedefinitionForDistinctNames(t *testing.T) {
	frag, src := build(t, "schema/lib.ks", "struct S {\n    a: i32,\n}\nstruct T {\n    b: i32,\n}\n")

	root, diags := Merge("app", []*Fragment{frag}, map[string]*errors.Source{
		"schema/lib.ks": src,
	})
	require.Empty(t, diags)
	assert.Len(t, root.Children, 2)
}

// TestNamespaceDirClash covers KNS3002: a directory-boundary lib.ks and a
// sibling file both contributing to the same namespace path is fatal
// even without a literal name collision.
func TestNamespaceDirClash(t *testing.T) {
	frag1, src1 := build(t, "schema/a/lib.ks", "namespace a;\nstruct FromLib {\n}\n")
	frag2, src2 := build(t, "schema/a.ks", "namespace a;\nstruct FromSibling {\n}\n")

	_, diags := Merge("app", []*Fragment{frag1, frag2}, map[string]*errors.Source{
		"schema/a/lib.ks": src1,
		"schema/a.ks":     src2,
	})
	require.Len(t, diags, 1)
	assert.Equal(t, errors.CodeNamespaceDirClash, diags[0].Code)
}

func TestFlattenSortsByPath(t *testing.T) {
	fragZ, srcZ := build(t, "schema/z.ks", "struct Z {\n}\n")
	fragA, srcA := build(t, "schema/a.ks", "struct A {\n}\n")

	root, diags := Merge("app", []*Fragment{fragZ, fragA}, map[string]*errors.Source{
		"schema/z.ks": srcZ,
		"schema/a.ks": srcA,
	})
	require.Empty(t, diags)

	flat := Flatten(root)
	names := make([]string, len(flat))
	for i, n := range flat {
		names[i] = n.QualifiedName("app")
	}
	assert.Equal(t, []string{"app", "app::a", "app::z"}, names)
}
