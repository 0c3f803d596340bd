// Copyright 2026 The Schemac Authors

package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemac/ks/errors"
)

// TestDuplicateField covers Scenario F: a struct literal declaring the
// same field name twice aborts with KTY3003, spanning the repeated
// occurrence.
func TestDuplicateField(t *testing.T) {
	src := "struct Dup {\n    a: i32,\n    a: str,\n}\n"
	f, diag := ParseFile("dup.ks", []byte(src))
	require.Nil(t, f)
	require.NotNil(t, diag)
	assert.Equal(t, errors.CodeDuplicateField, diag.Code)
	assert.Equal(t, errors.Error, diag.Severity)
}

// TestDuplicateFieldInAnonStruct covers the same rule for an anonymous
// struct type literal nested inside a field's type position.
func TestDuplicateFieldInAnonStruct(t *testing.T) {
	src := "struct Outer {\n    inner: { a: i32, a: str },\n}\n"
	f, diag := ParseFile("dupanon.ks", []byte(src))
	require.Nil(t, f)
	require.NotNil(t, diag)
	assert.Equal(t, errors.CodeDuplicateField, diag.Code)
}

func TestNoDuplicateFieldOnDistinctNames(t *testing.T) {
	src := "struct Ok {\n    a: i32,\n    b: str,\n}\n"
	f, diag := ParseFile("ok.ks", []byte(src))
	require.Nil(t, diag)
	require.NotNil(t, f)
	require.Len(t, f.Items, 1)
}

func TestUnexpectedTokenAborts(t *testing.T) {
	f, diag := ParseFile("bad.ks", []byte("struct 123 {}\n"))
	require.Nil(t, f)
	require.NotNil(t, diag)
	assert.Equal(t, errors.CodeUnexpectedToken, diag.Code)
}

func TestUnknownAttributeAborts(t *testing.T) {
	f, diag := ParseFile("attr.ks", []byte("#[bogus]\nstruct S {}\n"))
	require.Nil(t, f)
	require.NotNil(t, diag)
	assert.Equal(t, errors.CodeUnknownAttribute, diag.Code)
}

func TestValidateLibFileRejectsTypeDecls(t *testing.T) {
	src := "namespace pkg;\nstruct Bad {\n}\n"
	f, diag := ParseFile("lib.ks", []byte(src))
	require.Nil(t, diag)
	src2 := &errors.Source{Name: "lib.ks", Text: src}
	diags := ValidateLibFile(f, src2)
	require.Len(t, diags, 1)
	assert.Equal(t, errors.CodeLibRestricted, diags[0].Code)
}

func TestValidateLibFileRejectsNestedTypeDecls(t *testing.T) {
	src := "namespace pkg {\n    struct Bad {\n    }\n}\n"
	f, diag := ParseFile("lib.ks", []byte(src))
	require.Nil(t, diag)
	src2 := &errors.Source{Name: "lib.ks", Text: src}
	diags := ValidateLibFile(f, src2)
	require.Len(t, diags, 1)
	assert.Equal(t, errors.CodeLibNamespaceOnly, diags[0].Code)
}

func TestValidateLibFileAllowsNamespaceAndUse(t *testing.T) {
	src := "namespace pkg;\nuse other;\n"
	f, diag := ParseFile("lib.ks", []byte(src))
	require.Nil(t, diag)
	src2 := &errors.Source{Name: "lib.ks", Text: src}
	diags := ValidateLibFile(f, src2)
	assert.Empty(t, diags)
}

func TestValidateLibFileRejectsMultiSegmentUse(t *testing.T) {
	src := "use a::b;\n"
	f, diag := ParseFile("lib.ks", []byte(src))
	require.Nil(t, diag)
	src2 := &errors.Source{Name: "lib.ks", Text: src}
	diags := ValidateLibFile(f, src2)
	require.Len(t, diags, 1)
	assert.Equal(t, errors.CodeLibSingleSegment, diags[0].Code)
}
