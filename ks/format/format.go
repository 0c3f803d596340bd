// Copyright 2026 The Schemac Authors

// Package format implements the canonical printer for the schema language.
// Package [Node] walks an [ast.File] and produces the canonical source
// text for it; printing twice is a no-op (idempotence), and printing the
// output of parsing any valid source reproduces that source's canonical
// form (the round-trip property of spec.md §4.F / §8).
package format

import (
	"fmt"
	"strings"

	"schemac/ks/ast"
)

// Config controls layout decisions that do not affect the round-trip
// property: maximum line width, indentation, and blank-line preservation.
type Config struct {
	MaxWidth            int
	UseSpaces           bool
	IndentWidth         int
	PreserveBlankLines  bool
}

// DefaultConfig matches spec.md §4.F's stated defaults.
func DefaultConfig() Config {
	return Config{MaxWidth: 120, UseSpaces: true, IndentWidth: 4, PreserveBlankLines: true}
}

type printer struct {
	cfg    Config
	b      strings.Builder
	indent int
}

// Node renders f as canonical source text using cfg. Node performs no I/O
// and holds no state across calls: each call is a pure function of its
// arguments.
func Node(f *ast.File, cfg Config) string {
	p := &printer{cfg: cfg}
	for i, item := range f.Items {
		if i > 0 {
			p.b.WriteString("\n")
		}
		p.printItem(item)
	}
	return p.b.String()
}

func (p *printer) writeIndent() {
	unit := "\t"
	if p.cfg.UseSpaces {
		unit = strings.Repeat(" ", p.cfg.IndentWidth)
	}
	p.b.WriteString(strings.Repeat(unit, p.indent))
}

func (p *printer) printComments(groups []*ast.CommentGroup) {
	for _, c := range groups {
		for _, line := range c.Lines {
			p.writeIndent()
			p.b.WriteString(line)
			p.b.WriteString("\n")
		}
	}
}

func (p *printer) printAttrs(attrs []*ast.Attribute) {
	for _, a := range attrs {
		p.writeIndent()
		if a.Inner {
			p.b.WriteString("#!")
		} else {
			p.b.WriteString("#")
		}
		p.b.WriteString("[")
		p.b.WriteString(a.Name.Name)
		if a.Args != "" {
			p.b.WriteString("(")
			p.b.WriteString(a.Args)
			p.b.WriteString(")")
		}
		p.b.WriteString("]\n")
	}
}

func (p *printer) printItem(item ast.Item) {
	switch it := item.(type) {
	case *ast.NamespaceDecl:
		p.printComments(it.Comments)
		p.printAttrs(it.Attributes)
		p.writeIndent()
		p.b.WriteString("namespace ")
		p.b.WriteString(it.Name.Name)
		if it.Items == nil {
			p.b.WriteString(";\n")
			return
		}
		p.b.WriteString(" {\n")
		p.indent++
		for i, sub := range it.Items {
			if i > 0 {
				p.b.WriteString("\n")
			}
			p.printItem(sub)
		}
		p.indent--
		p.writeIndent()
		p.b.WriteString("}\n")
	case *ast.UseDecl:
		p.printComments(it.Comments)
		p.writeIndent()
		fmt.Fprintf(&p.b, "use %s;\n", it.Path.String())
	case *ast.StructDecl:
		p.printComments(it.Comments)
		p.printAttrs(it.Attributes)
		p.writeIndent()
		fmt.Fprintf(&p.b, "struct %s {\n", it.Name.Name)
		p.indent++
		p.printFields(it.Fields)
		p.indent--
		p.writeIndent()
		p.b.WriteString("}\n")
	case *ast.EnumDecl:
		p.printComments(it.Comments)
		p.printAttrs(it.Attributes)
		p.writeIndent()
		fmt.Fprintf(&p.b, "enum %s {\n", it.Name.Name)
		p.indent++
		for _, v := range it.Variants {
			p.printComments(v.Comments)
			p.writeIndent()
			p.b.WriteString(v.Name.Name)
			switch {
			case v.IntVal != nil:
				fmt.Fprintf(&p.b, " = %d", *v.IntVal)
			case v.StrVal != nil:
				fmt.Fprintf(&p.b, " = %q", *v.StrVal)
			}
			p.b.WriteString(",\n")
		}
		p.indent--
		p.writeIndent()
		p.b.WriteString("}\n")
	case *ast.OneOfDecl:
		p.printOneOfLike("oneof", it.Name.Name, it.Comments, it.Attributes, it.Variants)
	case *ast.ErrorDecl:
		p.printOneOfLike("error", it.Name.Name, it.Comments, it.Attributes, it.Variants)
	case *ast.OperationDecl:
		p.printComments(it.Comments)
		p.printAttrs(it.Attributes)
		p.writeIndent()
		fmt.Fprintf(&p.b, "operation %s(", it.Name.Name)
		for i, a := range it.Args {
			if i > 0 {
				p.b.WriteString(", ")
			}
			p.printFieldInline(a)
		}
		p.b.WriteString(") -> ")
		p.b.WriteString(TypeString(it.Return))
		p.b.WriteString("\n")
	case *ast.TypeAliasDecl:
		p.printComments(it.Comments)
		p.printAttrs(it.Attributes)
		p.writeIndent()
		fmt.Fprintf(&p.b, "type %s = %s;\n", it.Name.Name, TypeString(it.Target))
	}
}

func (p *printer) printOneOfLike(keyword, name string, comments []*ast.CommentGroup, attrs []*ast.Attribute, variants []*ast.OneOfVariant) {
	p.printComments(comments)
	p.printAttrs(attrs)
	p.writeIndent()
	fmt.Fprintf(&p.b, "%s %s {\n", keyword, name)
	p.indent++
	for _, v := range variants {
		p.printComments(v.Comments)
		p.writeIndent()
		p.b.WriteString(v.Name.Name)
		switch {
		case v.Type != nil:
			fmt.Fprintf(&p.b, "(%s)", TypeString(v.Type))
		case v.Fields != nil:
			p.b.WriteString(" {\n")
			p.indent++
			p.printFields(v.Fields)
			p.indent--
			p.writeIndent()
			p.b.WriteString("}")
		}
		p.b.WriteString(",\n")
	}
	p.indent--
	p.writeIndent()
	p.b.WriteString("}\n")
}

func (p *printer) printFields(fields []*ast.AnonField) {
	for _, f := range fields {
		p.printComments(f.Comments)
		p.writeIndent()
		p.printFieldInline(f)
		p.b.WriteString(",\n")
	}
}

func (p *printer) printFieldInline(f *ast.AnonField) {
	p.b.WriteString(f.Name.Name)
	if f.Optional {
		p.b.WriteString("?")
	}
	p.b.WriteString(": ")
	p.b.WriteString(TypeString(f.Type))
}

// TypeString renders a single type expression in canonical form. It is
// exported because the emitter and diagnostics both need to render a type
// outside the context of a full file.
func TypeString(t ast.Type) string {
	switch ty := t.(type) {
	case *ast.BuiltinType:
		return ty.Name
	case *ast.NamedType:
		return ty.Path.String()
	case *ast.ArrayType:
		if ty.Length != nil {
			return fmt.Sprintf("%s[%d]", TypeString(ty.Elem), *ty.Length)
		}
		return TypeString(ty.Elem) + "[]"
	case *ast.OptionalType:
		return TypeString(ty.Elem) + "?"
	case *ast.MapType:
		return fmt.Sprintf("Map[%s, %s]", TypeString(ty.Key), TypeString(ty.Value))
	case *ast.ResultType:
		if ty.ErrorName != nil {
			return TypeString(ty.Elem) + "!" + ty.ErrorName.Name
		}
		return TypeString(ty.Elem) + "!"
	case *ast.ParenType:
		return "(" + TypeString(ty.Elem) + ")"
	case *ast.AnonStructType:
		var parts []string
		for _, f := range ty.Fields {
			opt := ""
			if f.Optional {
				opt = "?"
			}
			parts = append(parts, fmt.Sprintf("%s%s: %s", f.Name.Name, opt, TypeString(f.Type)))
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case *ast.OneOfInlineType:
		var parts []string
		for _, v := range ty.Variants {
			parts = append(parts, TypeString(v))
		}
		return "oneof " + strings.Join(parts, " | ")
	case *ast.UnionType:
		var parts []string
		for _, o := range ty.Operands {
			parts = append(parts, TypeString(o))
		}
		return strings.Join(parts, " & ")
	case *ast.TypeExprOp:
		var sel []string
		for _, s := range ty.Selector {
			sel = append(sel, s.Name)
		}
		return fmt.Sprintf("%s[%s, %s]", ty.Op, TypeString(ty.Input), strings.Join(sel, " | "))
	default:
		return "<?>"
	}
}
