// Copyright 2026 The Schemac Authors

package ast

import "fmt"

// Walk traverses an AST in depth-first order: it calls before(node), and if
// before returns true, recurses into node's children before calling
// after(node). Either callback may be nil.
func Walk(node Node, before func(Node) bool, after func(Node)) {
	if node == nil {
		return
	}
	if before != nil && !before(node) {
		return
	}
	switch n := node.(type) {
	case *File:
		for _, it := range n.Items {
			Walk(it, before, after)
		}
	case *NamespaceDecl:
		for _, it := range n.Items {
			Walk(it, before, after)
		}
	case *UseDecl:
		Walk(n.Path, before, after)
	case *StructDecl:
		for _, f := range n.Fields {
			Walk(f, before, after)
		}
	case *EnumDecl:
		// variants carry only literals, nothing to recurse into
	case *OneOfDecl:
		for _, v := range n.Variants {
			Walk(v, before, after)
		}
	case *ErrorDecl:
		for _, v := range n.Variants {
			Walk(v, before, after)
		}
	case *OperationDecl:
		for _, a := range n.Args {
			Walk(a, before, after)
		}
		if n.Return != nil {
			Walk(n.Return, before, after)
		}
	case *TypeAliasDecl:
		Walk(n.Target, before, after)
	case *AnonField:
		Walk(n.Type, before, after)
	case *OneOfVariant:
		if n.Type != nil {
			Walk(n.Type, before, after)
		}
		for _, f := range n.Fields {
			Walk(f, before, after)
		}
	case *Path:
		// leaf
	case *ArrayType:
		Walk(n.Elem, before, after)
	case *OptionalType:
		Walk(n.Elem, before, after)
	case *MapType:
		Walk(n.Key, before, after)
		Walk(n.Value, before, after)
	case *ResultType:
		Walk(n.Elem, before, after)
	case *ParenType:
		Walk(n.Elem, before, after)
	case *AnonStructType:
		for _, f := range n.Fields {
			Walk(f, before, after)
		}
	case *OneOfInlineType:
		for _, v := range n.Variants {
			Walk(v, before, after)
		}
	case *UnionType:
		for _, op := range n.Operands {
			Walk(op, before, after)
		}
	case *TypeExprOp:
		Walk(n.Input, before, after)
	case *NamedType, *BuiltinType, *Ident:
		// leaves
	default:
		panic(fmt.Sprintf("ast.Walk: unexpected node type %T", n))
	}
	if after != nil {
		after(node)
	}
}

// Inspect calls Walk with an `after` of nil, returning early wherever f
// returns false.
func Inspect(node Node, f func(Node) bool) {
	Walk(node, f, nil)
}
