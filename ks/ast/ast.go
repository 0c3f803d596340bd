// Copyright 2026 The Schemac Authors

// Package ast declares the syntax-tree types produced by the parser and
// consumed by the formatter, namespace loader, and resolution engine.
//
// There are three classes of node: [Type] expressions, [Item] declarations
// (the top-level file items: namespace, use, struct, enum, oneof, error,
// operation, type alias), and the small support types (comments,
// attributes, fields, paths).
package ast

import "schemac/ks/token"

// Node is implemented by every AST node.
type Node interface {
	Pos() token.Pos
	End() token.Pos
}

// Type is implemented by every type-expression node (spec.md §3's Type
// sum).
type Type interface {
	Node
	typeNode()
}

func (*BuiltinType) typeNode()   {}
func (*NamedType) typeNode()     {}
func (*ArrayType) typeNode()     {}
func (*OptionalType) typeNode()  {}
func (*MapType) typeNode()       {}
func (*ResultType) typeNode()    {}
func (*ParenType) typeNode()     {}
func (*AnonStructType) typeNode() {}
func (*OneOfInlineType) typeNode() {}
func (*UnionType) typeNode()     {}
func (*TypeExprOp) typeNode()    {}

// Item is implemented by every top-level (or nested namespace) declaration.
type Item interface {
	Node
	itemNode()
}

func (*NamespaceDecl) itemNode() {}
func (*UseDecl) itemNode()       {}
func (*StructDecl) itemNode()    {}
func (*EnumDecl) itemNode()      {}
func (*OneOfDecl) itemNode()     {}
func (*ErrorDecl) itemNode()     {}
func (*OperationDecl) itemNode() {}
func (*TypeAliasDecl) itemNode() {}

// Ident is a schema-language identifier: letters/digits/underscore,
// beginning with a letter or underscore, per spec.md §3.
type Ident struct {
	Name string
	Span token.Span
}

func (i *Ident) Pos() token.Pos { return i.Span.Start }
func (i *Ident) End() token.Pos { return i.Span.End }

// Path is a sequence of identifier segments joined by `::`. Path.Local
// reports whether the first segment is the reserved word `schema`.
type Path struct {
	Segments []*Ident
	Span     token.Span
}

func (p *Path) Pos() token.Pos { return p.Span.Start }
func (p *Path) End() token.Pos { return p.Span.End }

// Local reports whether the path's first segment is the reserved word
// `schema`, meaning "this package's schema root" (spec.md §3).
func (p *Path) Local() bool {
	return len(p.Segments) > 0 && p.Segments[0].Name == "schema"
}

func (p *Path) String() string {
	s := ""
	for i, seg := range p.Segments {
		if i > 0 {
			s += "::"
		}
		s += seg.Name
	}
	return s
}

// CommentGroup is a run of adjacent `//` or `/* */` comment tokens attached
// to the following declaration.
type CommentGroup struct {
	Lines []string
	Span  token.Span
}

func (c *CommentGroup) Pos() token.Pos { return c.Span.Start }
func (c *CommentGroup) End() token.Pos { return c.Span.End }

// Attribute is a parsed `#[name(args)]` or `#![name(args)]` attribute.
type Attribute struct {
	Inner bool // true for #! (namespace/file-level), false for #
	Name  *Ident
	Args  string // raw argument text between the parens, unparsed here
	Span  token.Span
}

func (a *Attribute) Pos() token.Pos { return a.Span.Start }
func (a *Attribute) End() token.Pos { return a.Span.End }

// File is the root of one parsed `.ks` source file.
type File struct {
	Filename string
	Items    []Item
	Span     token.Span
}

func (f *File) Pos() token.Pos { return f.Span.Start }
func (f *File) End() token.Pos { return f.Span.End }
