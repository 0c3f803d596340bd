// Copyright 2026 The Schemac Authors

// Package parser implements a recursive-descent parser for the schema
// language. Each grammar production below follows spec.md §4.E: a pure
// `peek` check (implicit in the switch on the lookahead token) plus a
// `parse` step that consumes tokens and returns an AST node or aborts the
// file with a diagnostic (no speculative recovery, per spec.md §1).
package parser

import (
	"schemac/ks/ast"
	"schemac/ks/errors"
	"schemac/ks/scanner"
	"schemac/ks/token"
)

// abort is a sentinel panic value used to unwind to [ParseFile] on the
// first fatal syntax error in a file, per spec.md §1's "no speculative
// parsing recovery — the first error in a file aborts that file."
type abort struct{ diag *errors.Diagnostic }

type parser struct {
	file    *token.File
	src     *errors.Source
	scanner scanner.Scanner

	tok      token.SpannedToken
	comments []*ast.CommentGroup // pending comments, attached to the next item
}

// ParseFile parses one `.ks` source file and returns its AST, or a fatal
// diagnostic describing the first syntax error encountered.
func ParseFile(filename string, src []byte) (*ast.File, *errors.Diagnostic) {
	p := &parser{
		file: token.NewFile(filename, len(src)),
		src:  &errors.Source{Name: filename, Text: string(src)},
	}
	var caught *errors.Diagnostic
	var result *ast.File
	func() {
		defer func() {
			if r := recover(); r != nil {
				if a, ok := r.(abort); ok {
					caught = a.diag
					return
				}
				panic(r)
			}
		}()
		p.scanner.Init(p.file, src, func(d *errors.Diagnostic) {
			d.Source = p.src
			panic(abort{d})
		})
		p.next()
		result = p.parseFile(filename)
	}()
	if caught != nil {
		return nil, caught
	}
	return result, nil
}

func (p *parser) next() {
	for {
		p.tok = p.scanner.Scan()
		if p.tok.Kind != token.COMMENT {
			return
		}
		p.comments = append(p.comments, &ast.CommentGroup{
			Lines: []string{p.tok.Literal},
			Span:  p.tok.Span,
		})
	}
}

// takeComments returns and clears any comments accumulated since the last
// call, to attach to the declaration currently being parsed.
func (p *parser) takeComments() []*ast.CommentGroup {
	c := p.comments
	p.comments = nil
	return c
}

func (p *parser) errorf(span token.Span, code errors.Code, format string, args ...any) {
	d := errors.New(code, errors.Error, format, args...).At(span, p.src).Build()
	panic(abort{d})
}

func (p *parser) expect(k token.Kind) token.SpannedToken {
	if p.tok.Kind != k {
		p.errorf(p.tok.Span, errors.CodeUnexpectedToken,
			"expected %s, found %s", k, p.tok.Kind)
	}
	t := p.tok
	p.next()
	return t
}

func (p *parser) parseIdent() *ast.Ident {
	t := p.expect(token.IDENT)
	return &ast.Ident{Name: t.Literal, Span: t.Span}
}

func (p *parser) parsePath() *ast.Path {
	start := p.tok.Span
	segs := []*ast.Ident{p.parseIdent()}
	for p.tok.Kind == token.COLONCOLON {
		p.next()
		segs = append(segs, p.parseIdent())
	}
	return &ast.Path{Segments: segs, Span: start.Merge(segs[len(segs)-1].Span)}
}

func (p *parser) parseFile(filename string) *ast.File {
	start := p.tok.Span
	f := &ast.File{Filename: filename}
	for p.tok.Kind != token.EOF {
		f.Items = append(f.Items, p.parseItem())
	}
	f.Span = start.Merge(p.tok.Span)
	return f
}

func (p *parser) parseAttributes() []*ast.Attribute {
	var attrs []*ast.Attribute
	for p.tok.Kind == token.HASH || p.tok.Kind == token.HASHBANG {
		inner := p.tok.Kind == token.HASHBANG
		start := p.tok.Span
		p.next()
		p.expect(token.LBRACK)
		name := p.parseIdent()
		args := ""
		if p.tok.Kind == token.LPAREN {
			p.next()
			depth := 1
			for depth > 0 {
				if p.tok.Kind == token.LPAREN {
					depth++
				} else if p.tok.Kind == token.RPAREN {
					depth--
					if depth == 0 {
						break
					}
				} else if p.tok.Kind == token.EOF {
					p.errorf(p.tok.Span, errors.CodeUnexpectedToken, "unterminated attribute arguments")
				}
				args += p.tok.Literal
				p.next()
			}
			p.expect(token.RPAREN)
		}
		end := p.expect(token.RBRACK)
		if !isKnownAttribute(name.Name) {
			p.errorf(name.Span, errors.CodeUnknownAttribute, "unknown attribute %q", name.Name)
		}
		attrs = append(attrs, &ast.Attribute{Inner: inner, Name: name, Args: args, Span: start.Merge(end.Span)})
	}
	return attrs
}

func isKnownAttribute(name string) bool {
	switch name {
	case "version", "err", "tag", "doc":
		return true
	}
	return false
}

func (p *parser) parseItem() ast.Item {
	comments := p.takeComments()
	attrs := p.parseAttributes()
	switch p.tok.Kind {
	case token.NAMESPACE:
		return p.parseNamespace(comments, attrs)
	case token.USE:
		return p.parseUse(comments)
	case token.STRUCT:
		return p.parseStruct(comments, attrs)
	case token.ENUM:
		return p.parseEnum(comments, attrs)
	case token.ONEOF:
		return p.parseOneOf(comments, attrs)
	case token.ERROR:
		return p.parseErrorDecl(comments, attrs)
	case token.OPERATION:
		return p.parseOperation(comments, attrs)
	case token.TYPE:
		return p.parseTypeAlias(comments, attrs)
	default:
		p.errorf(p.tok.Span, errors.CodeUnexpectedToken, "expected a top-level declaration, found %s", p.tok.Kind)
		panic("unreachable")
	}
}

func (p *parser) parseNamespace(comments []*ast.CommentGroup, attrs []*ast.Attribute) *ast.NamespaceDecl {
	start := p.tok.Span
	p.next() // 'namespace'
	name := p.parseIdent()
	d := &ast.NamespaceDecl{Comments: comments, Attributes: attrs, Name: name}
	if p.tok.Kind == token.SEMI {
		end := p.tok.Span
		p.next()
		d.Span = start.Merge(end)
		return d
	}
	p.expect(token.LBRACE)
	for p.tok.Kind != token.RBRACE {
		d.Items = append(d.Items, p.parseItem())
	}
	end := p.expect(token.RBRACE)
	d.Span = start.Merge(end.Span)
	return d
}

func (p *parser) parseUse(comments []*ast.CommentGroup) *ast.UseDecl {
	start := p.tok.Span
	p.next() // 'use'
	path := p.parsePath()
	end := p.expect(token.SEMI)
	return &ast.UseDecl{Comments: comments, Path: path, Span: start.Merge(end.Span)}
}

func (p *parser) parseFieldList(closer token.Kind) []*ast.AnonField {
	var fields []*ast.AnonField
	for p.tok.Kind != closer {
		fields = append(fields, p.parseField())
		if p.tok.Kind == token.COMMA {
			p.next()
			continue
		}
		break
	}
	return fields
}

func (p *parser) parseField() *ast.AnonField {
	comments := p.takeComments()
	start := p.tok.Span
	name := p.parseIdent()
	optional := false
	if p.tok.Kind == token.QUESTION {
		optional = true
		p.next()
	}
	p.expect(token.COLON)
	ty := p.parseType()
	return &ast.AnonField{
		Comments: comments, Name: name, Optional: optional, Type: ty,
		Span: token.Span{Start: start.Start, End: ty.End()},
	}
}

func (p *parser) parseStruct(comments []*ast.CommentGroup, attrs []*ast.Attribute) *ast.StructDecl {
	start := p.tok.Span
	p.next() // 'struct'
	name := p.parseIdent()
	p.expect(token.LBRACE)
	fields := p.parseFieldList(token.RBRACE)
	end := p.expect(token.RBRACE)
	p.checkDuplicateFields(fields)
	return &ast.StructDecl{Comments: comments, Attributes: attrs, Name: name, Fields: fields, Span: start.Merge(end.Span)}
}

// checkDuplicateFields aborts with KTY3003, spanning the second
// occurrence, the first time a field name repeats within one struct
// literal's field list.
func (p *parser) checkDuplicateFields(fields []*ast.AnonField) {
	seen := map[string]bool{}
	for _, f := range fields {
		if seen[f.Name.Name] {
			p.errorf(f.Span, errors.CodeDuplicateField, "duplicate field %q", f.Name.Name)
		}
		seen[f.Name.Name] = true
	}
}

func (p *parser) parseEnum(comments []*ast.CommentGroup, attrs []*ast.Attribute) *ast.EnumDecl {
	start := p.tok.Span
	p.next() // 'enum'
	name := p.parseIdent()
	p.expect(token.LBRACE)
	var variants []*ast.EnumVariant
	for p.tok.Kind != token.RBRACE {
		variants = append(variants, p.parseEnumVariant())
		if p.tok.Kind == token.COMMA {
			p.next()
			continue
		}
		break
	}
	end := p.expect(token.RBRACE)
	return &ast.EnumDecl{Comments: comments, Attributes: attrs, Name: name, Variants: variants, Span: start.Merge(end.Span)}
}

func (p *parser) parseEnumVariant() *ast.EnumVariant {
	comments := p.takeComments()
	start := p.tok.Span
	name := p.parseIdent()
	v := &ast.EnumVariant{Comments: comments, Name: name, Span: start}
	if p.tok.Kind == token.ASSIGN {
		p.next()
		switch p.tok.Kind {
		case token.INT:
			n := parseIntLiteral(p.tok.Literal)
			v.IntVal = &n
			v.Span = start.Merge(p.tok.Span)
			p.next()
		case token.STRING:
			s := unquote(p.tok.Literal)
			v.StrVal = &s
			v.Span = start.Merge(p.tok.Span)
			p.next()
		default:
			p.errorf(p.tok.Span, errors.CodeUnexpectedToken, "expected integer or string literal, found %s", p.tok.Kind)
		}
	}
	return v
}

func (p *parser) parseOneOfVariants(closer token.Kind) []*ast.OneOfVariant {
	var variants []*ast.OneOfVariant
	for p.tok.Kind != closer {
		comments := p.takeComments()
		start := p.tok.Span
		name := p.parseIdent()
		v := &ast.OneOfVariant{Comments: comments, Name: name, Span: start}
		switch p.tok.Kind {
		case token.LPAREN:
			p.next()
			v.Type = p.parseType()
			end := p.expect(token.RPAREN)
			v.Span = start.Merge(end.Span)
		case token.LBRACE:
			p.next()
			v.Fields = p.parseFieldList(token.RBRACE)
			end := p.expect(token.RBRACE)
			v.Span = start.Merge(end.Span)
		}
		variants = append(variants, v)
		if p.tok.Kind == token.COMMA {
			p.next()
			continue
		}
		break
	}
	return variants
}

func (p *parser) parseOneOf(comments []*ast.CommentGroup, attrs []*ast.Attribute) *ast.OneOfDecl {
	start := p.tok.Span
	p.next() // 'oneof'
	name := p.parseIdent()
	p.expect(token.LBRACE)
	variants := p.parseOneOfVariants(token.RBRACE)
	end := p.expect(token.RBRACE)
	return &ast.OneOfDecl{Comments: comments, Attributes: attrs, Name: name, Variants: variants, Span: start.Merge(end.Span)}
}

func (p *parser) parseErrorDecl(comments []*ast.CommentGroup, attrs []*ast.Attribute) *ast.ErrorDecl {
	start := p.tok.Span
	p.next() // 'error'
	name := p.parseIdent()
	p.expect(token.LBRACE)
	variants := p.parseOneOfVariants(token.RBRACE)
	end := p.expect(token.RBRACE)
	return &ast.ErrorDecl{Comments: comments, Attributes: attrs, Name: name, Variants: variants, Span: start.Merge(end.Span)}
}

func (p *parser) parseOperation(comments []*ast.CommentGroup, attrs []*ast.Attribute) *ast.OperationDecl {
	start := p.tok.Span
	p.next() // 'operation'
	name := p.parseIdent()
	p.expect(token.LPAREN)
	args := p.parseFieldList(token.RPAREN)
	p.expect(token.RPAREN)
	p.expect(token.ARROW)
	ret := p.parseType()
	return &ast.OperationDecl{Comments: comments, Attributes: attrs, Name: name, Args: args, Return: ret, Span: token.Span{Start: start.Start, End: ret.End()}}
}

func (p *parser) parseTypeAlias(comments []*ast.CommentGroup, attrs []*ast.Attribute) *ast.TypeAliasDecl {
	start := p.tok.Span
	p.next() // 'type'
	name := p.parseIdent()
	p.expect(token.ASSIGN)
	target := p.parseType()
	end := p.expect(token.SEMI)
	return &ast.TypeAliasDecl{Comments: comments, Attributes: attrs, Name: name, Target: target, Span: start.Merge(end.Span)}
}

func parseIntLiteral(s string) int64 {
	var n int64
	for _, r := range s {
		n = n*10 + int64(r-'0')
	}
	return n
}

func unquote(s string) string {
	if len(s) >= 2 {
		return s[1 : len(s)-1]
	}
	return s
}
