// Copyright 2026 The Schemac Authors

package ast

import "schemac/ks/token"

// BuiltinType names one of the scalar builtin types (spec.md §3).
type BuiltinType struct {
	Name string // e.g. "u64", "str", "bool"
	Span token.Span
}

func (t *BuiltinType) Pos() token.Pos { return t.Span.Start }
func (t *BuiltinType) End() token.Pos { return t.Span.End }

// NamedType is a reference to a path-qualified type, ambiguous until the
// namespace/resolution stages decide what it names (spec.md §3's "Named
// reference").
type NamedType struct {
	Path *Path
}

func (t *NamedType) Pos() token.Pos { return t.Path.Pos() }
func (t *NamedType) End() token.Pos { return t.Path.End() }

// ArrayType is `T[]` or `T[n]`: an element type with an optional
// compile-time length.
type ArrayType struct {
	Elem   Type
	Length *int // nil for unsized arrays
	Span   token.Span
}

func (t *ArrayType) Pos() token.Pos { return t.Elem.Pos() }
func (t *ArrayType) End() token.Pos { return t.Span.End }

// OptionalType is the postfix `T?`.
type OptionalType struct {
	Elem Type
	Span token.Span
}

func (t *OptionalType) Pos() token.Pos { return t.Elem.Pos() }
func (t *OptionalType) End() token.Pos { return t.Span.End }

// MapType is `Map[K, V]`.
type MapType struct {
	Key, Value Type
	Span       token.Span
}

func (t *MapType) Pos() token.Pos { return t.Span.Start }
func (t *MapType) End() token.Pos { return t.Span.End }

// ResultType is the postfix `T!` or `T!ErrName`.
type ResultType struct {
	Elem      Type
	ErrorName *Ident // nil if unnamed
	Span      token.Span
}

func (t *ResultType) Pos() token.Pos { return t.Elem.Pos() }
func (t *ResultType) End() token.Pos { return t.Span.End }

// ParenType is `(T)`, preserved so the printer can round-trip user
// parenthesization.
type ParenType struct {
	Elem Type
	Span token.Span
}

func (t *ParenType) Pos() token.Pos { return t.Span.Start }
func (t *ParenType) End() token.Pos { return t.Span.End }

// AnonField is one field of an anonymous struct literal or a named struct
// declaration.
type AnonField struct {
	Comments []*CommentGroup
	Name     *Ident
	Optional bool
	Type     Type
	Span     token.Span
}

func (f *AnonField) Pos() token.Pos { return f.Span.Start }
func (f *AnonField) End() token.Pos { return f.Span.End }

// AnonStructType is an inline `{ field, field, ... }` literal; the resolver
// hoists these into named struct definitions (spec.md §4.I Phase 1).
type AnonStructType struct {
	Fields []*AnonField
	Span   token.Span
}

func (t *AnonStructType) Pos() token.Pos { return t.Span.Start }
func (t *AnonStructType) End() token.Pos { return t.Span.End }

// OneOfInlineType is the inline `oneof A | B | ...` type expression.
type OneOfInlineType struct {
	Variants []Type
	Span     token.Span
}

func (t *OneOfInlineType) Pos() token.Pos { return t.Span.Start }
func (t *OneOfInlineType) End() token.Pos { return t.Span.End }

// UnionType is `A & B & ...`, left-associative. The resolver merges these
// into a synthetic struct (spec.md §4.I Phases 2, 4, 5).
type UnionType struct {
	Operands []Type
	Span     token.Span
}

func (t *UnionType) Pos() token.Pos { return t.Span.Start }
func (t *UnionType) End() token.Pos { return t.Span.End }

// TypeExprOpKind enumerates the Pick/Omit/Partial/Required/Extract/Exclude
// family of type-expression operators (spec.md §4.E grammar,
// §4.I "Type-expression operators").
type TypeExprOpKind int

const (
	OpPick TypeExprOpKind = iota
	OpOmit
	OpPartial
	OpRequired
	OpExtract
	OpExclude
)

func (k TypeExprOpKind) String() string {
	return [...]string{"Pick", "Omit", "Partial", "Required", "Extract", "Exclude"}[k]
}

// TypeExprOp is `Op[T, selector]`.
type TypeExprOp struct {
	Op       TypeExprOpKind
	Input    Type
	Selector []*Ident // field/variant names named by the selector
	Span     token.Span
}

func (t *TypeExprOp) Pos() token.Pos { return t.Span.Start }
func (t *TypeExprOp) End() token.Pos { return t.Span.End }
