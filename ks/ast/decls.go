// Copyright 2026 The Schemac Authors

package ast

import "schemac/ks/token"

// NamespaceDecl is `namespace ident;` or `namespace ident { ... }`.
type NamespaceDecl struct {
	Comments   []*CommentGroup
	Attributes []*Attribute
	Name       *Ident
	Items      []Item // nil for the `;` form
	Span       token.Span
}

func (d *NamespaceDecl) Pos() token.Pos { return d.Span.Start }
func (d *NamespaceDecl) End() token.Pos { return d.Span.End }

// UseDecl is `use path;`.
type UseDecl struct {
	Comments []*CommentGroup
	Path     *Path
	Span     token.Span
}

func (d *UseDecl) Pos() token.Pos { return d.Span.Start }
func (d *UseDecl) End() token.Pos { return d.Span.End }

// StructDecl is `struct Name { field, ... }`.
type StructDecl struct {
	Comments   []*CommentGroup
	Attributes []*Attribute
	Name       *Ident
	Fields     []*AnonField
	Span       token.Span
}

func (d *StructDecl) Pos() token.Pos { return d.Span.Start }
func (d *StructDecl) End() token.Pos { return d.Span.End }

// EnumVariant is one member of an `enum`: a bare name, `= int literal`, or
// `= string literal`.
type EnumVariant struct {
	Comments []*CommentGroup
	Name     *Ident
	IntVal   *int64
	StrVal   *string
	Span     token.Span
}

func (v *EnumVariant) Pos() token.Pos { return v.Span.Start }
func (v *EnumVariant) End() token.Pos { return v.Span.End }

// EnumDecl is `enum Name { variant, ... }`.
type EnumDecl struct {
	Comments   []*CommentGroup
	Attributes []*Attribute
	Name       *Ident
	Variants   []*EnumVariant
	Span       token.Span
}

func (d *EnumDecl) Pos() token.Pos { return d.Span.Start }
func (d *EnumDecl) End() token.Pos { return d.Span.End }

// OneOfVariant is one member of a `oneof`/`error`: `name(Type)`,
// `name { fields }`, or a bare `name`.
type OneOfVariant struct {
	Comments []*CommentGroup
	Name     *Ident
	Type     Type       // nil for a bare/unit variant
	Fields   []*AnonField // non-nil for an inline anonymous-struct variant
	Span     token.Span
}

func (v *OneOfVariant) Pos() token.Pos { return v.Span.Start }
func (v *OneOfVariant) End() token.Pos { return v.Span.End }

// OneOfDecl is `oneof Name { variant, ... }`.
type OneOfDecl struct {
	Comments   []*CommentGroup
	Attributes []*Attribute
	Name       *Ident
	Variants   []*OneOfVariant
	Span       token.Span
}

func (d *OneOfDecl) Pos() token.Pos { return d.Span.Start }
func (d *OneOfDecl) End() token.Pos { return d.Span.End }

// ErrorDecl is `error Name { variant, ... }`: a oneof specialised for
// failure, kept as a distinct item kind per spec.md §3.
type ErrorDecl struct {
	Comments   []*CommentGroup
	Attributes []*Attribute
	Name       *Ident
	Variants   []*OneOfVariant
	Span       token.Span
}

func (d *ErrorDecl) Pos() token.Pos { return d.Span.Start }
func (d *ErrorDecl) End() token.Pos { return d.Span.End }

// OperationDecl is `operation Name(field, ...) -> Type`.
type OperationDecl struct {
	Comments   []*CommentGroup
	Attributes []*Attribute
	Name       *Ident
	Args       []*AnonField
	Return     Type
	Span       token.Span
}

func (d *OperationDecl) Pos() token.Pos { return d.Span.Start }
func (d *OperationDecl) End() token.Pos { return d.Span.End }

// TypeAliasDecl is `type Name = Type;`.
type TypeAliasDecl struct {
	Comments   []*CommentGroup
	Attributes []*Attribute
	Name       *Ident
	Target     Type
	Span       token.Span
}

func (d *TypeAliasDecl) Pos() token.Pos { return d.Span.Start }
func (d *TypeAliasDecl) End() token.Pos { return d.Span.End }
