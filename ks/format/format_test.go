// Copyright 2026 The Schemac Authors

package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemac/ks/parser"
)

// TestRoundTripIdempotence covers invariant 1: formatting a parsed file,
// then parsing and formatting that output again, yields the same text.
func TestRoundTripIdempotence(t *testing.T) {
	testCases := []struct {
		desc string
		src  string
	}{
		{"trivial struct", "struct Empty {\n}\n"},
		{"fields and optional", "struct Point {\n    x: i32,\n    y: i32,\n    label: str?,\n}\n"},
		{"enum with values", "enum Color {\n    Red = 1,\n    Green = 2,\n    Blue = 3,\n}\n"},
		{"oneof tuple variants", "oneof Shape {\n    Circle(f64),\n    Square(f64),\n}\n"},
		{"type alias", "type Id = i64;\n"},
		{"union type", "type Combined = A & B;\n"},
		{"operation", "operation Lookup(id: i64) -> str\n"},
		{"namespace block", "namespace geo {\n    struct Point {\n        x: i32,\n    }\n}\n"},
		{"use declaration", "use other::thing;\n"},
	}

	cfg := DefaultConfig()
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			f1, diag := parser.ParseFile("round1.ks", []byte(tc.src))
			require.Nil(t, diag, "first parse")
			out1 := Node(f1, cfg)

			f2, diag := parser.ParseFile("round2.ks", []byte(out1))
			require.Nil(t, diag, "reparsing formatted output")
			out2 := Node(f2, cfg)

			assert.Equal(t, out1, out2, "formatting is not idempotent")
		})
	}
}

func TestTypeStringRenders(t *testing.T) {
	f, diag := parser.ParseFile("types.ks", []byte(
		"struct S {\n    a: i32[],\n    b: i32[3],\n    c: Map[str, i32],\n    d: i32!,\n    e: i32!NotFound,\n}\n",
	))
	require.Nil(t, diag)
	out := Node(f, DefaultConfig())
	assert.Contains(t, out, "a: i32[],")
	assert.Contains(t, out, "b: i32[3],")
	assert.Contains(t, out, "c: Map[str, i32],")
	assert.Contains(t, out, "d: i32!,")
	assert.Contains(t, out, "e: i32!NotFound,")
}
