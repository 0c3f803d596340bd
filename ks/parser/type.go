// Copyright 2026 The Schemac Authors

package parser

import (
	"schemac/ks/ast"
	"schemac/ks/errors"
	"schemac/ks/token"
)

var builtinNames = map[token.Kind]string{
	token.I8: "i8", token.I16: "i16", token.I32: "i32", token.I64: "i64",
	token.U8: "u8", token.U16: "u16", token.U32: "u32", token.U64: "u64",
	token.F16: "f16", token.F32: "f32", token.F64: "f64",
	token.BOOL: "bool", token.STR: "str", token.DATETIME: "datetime",
	token.BINARY: "binary", token.BASE64: "base64", token.COMPLEX: "complex",
	token.NEVER: "never", token.USIZE: "usize",
}

var typeExprOps = map[string]ast.TypeExprOpKind{
	"Pick": ast.OpPick, "Omit": ast.OpOmit, "Partial": ast.OpPartial,
	"Required": ast.OpRequired, "Extract": ast.OpExtract, "Exclude": ast.OpExclude,
}

// parseType parses a full type expression, including the left-associative
// `&` union operator at the lowest precedence (spec.md §4.E grammar).
func (p *parser) parseType() ast.Type {
	lhs := p.parsePostfixType()
	if p.tok.Kind != token.AMP {
		return lhs
	}
	operands := []ast.Type{lhs}
	start := lhs.Pos()
	for p.tok.Kind == token.AMP {
		p.next()
		operands = append(operands, p.parsePostfixType())
	}
	last := operands[len(operands)-1]
	return &ast.UnionType{Operands: operands, Span: token.Span{Start: start, End: last.End()}}
}

// parsePostfixType parses a primary type followed by any postfix `?`, `!`,
// or `[...]` operators, which bind tighter than `&`.
func (p *parser) parsePostfixType() ast.Type {
	t := p.parsePrimaryType()
	for {
		switch p.tok.Kind {
		case token.QUESTION:
			end := p.tok.Span
			p.next()
			t = &ast.OptionalType{Elem: t, Span: token.Span{Start: t.Pos(), End: end.End}}
		case token.BANG:
			start := p.tok.Span
			p.next()
			rt := &ast.ResultType{Elem: t, Span: token.Span{Start: t.Pos(), End: start.End}}
			if p.tok.Kind == token.IDENT {
				rt.ErrorName = p.parseIdent()
				rt.Span.End = rt.ErrorName.End()
			}
			t = rt
		case token.LBRACK:
			p.next()
			var length *int
			if p.tok.Kind == token.INT {
				n := int(parseIntLiteral(p.tok.Literal))
				length = &n
				p.next()
			}
			end := p.expect(token.RBRACK)
			t = &ast.ArrayType{Elem: t, Length: length, Span: token.Span{Start: t.Pos(), End: end.Span.End}}
		default:
			return t
		}
	}
}

func (p *parser) parsePrimaryType() ast.Type {
	switch p.tok.Kind {
	case token.LPAREN:
		start := p.tok.Span
		p.next()
		inner := p.parseType()
		end := p.expect(token.RPAREN)
		return &ast.ParenType{Elem: inner, Span: token.Span{Start: start.Start, End: end.Span.End}}
	case token.LBRACE:
		start := p.tok.Span
		p.next()
		fields := p.parseFieldList(token.RBRACE)
		end := p.expect(token.RBRACE)
		p.checkDuplicateFields(fields)
		return &ast.AnonStructType{Fields: fields, Span: token.Span{Start: start.Start, End: end.Span.End}}
	case token.ONEOF:
		start := p.tok.Span
		p.next()
		variants := []ast.Type{p.parsePostfixType()}
		for p.tok.Kind == token.PIPE {
			p.next()
			variants = append(variants, p.parsePostfixType())
		}
		last := variants[len(variants)-1]
		return &ast.OneOfInlineType{Variants: variants, Span: token.Span{Start: start.Start, End: last.End()}}
	case token.IDENT:
		if kind, ok := typeExprOps[p.tok.Literal]; ok {
			return p.parseTypeExprOp(kind)
		}
		if p.tok.Literal == "Map" {
			return p.parseMapType()
		}
		path := p.parsePath()
		return &ast.NamedType{Path: path}
	default:
		if name, ok := builtinNames[p.tok.Kind]; ok {
			sp := p.tok.Span
			p.next()
			return &ast.BuiltinType{Name: name, Span: sp}
		}
		p.errorf(p.tok.Span, errors.CodeUnexpectedToken, "expected a type, found %s", p.tok.Kind)
		panic("unreachable")
	}
}

// parseMapType parses `Map[K, V]`, the only builtin type (spec.md §3) whose
// surface syntax needs its own production rather than a bare builtin name.
func (p *parser) parseMapType() ast.Type {
	start := p.tok.Span
	p.next() // 'Map'
	p.expect(token.LBRACK)
	key := p.parseType()
	p.expect(token.COMMA)
	value := p.parseType()
	end := p.expect(token.RBRACK)
	return &ast.MapType{Key: key, Value: value, Span: token.Span{Start: start.Start, End: end.Span.End}}
}

func (p *parser) parseTypeExprOp(kind ast.TypeExprOpKind) ast.Type {
	start := p.tok.Span
	p.next() // consume the operator name (Pick, Omit, ...)
	p.expect(token.LBRACK)
	input := p.parseType()
	p.expect(token.COMMA)
	var sel []*ast.Ident
	sel = append(sel, p.parseIdent())
	for p.tok.Kind == token.PIPE {
		p.next()
		sel = append(sel, p.parseIdent())
	}
	end := p.expect(token.RBRACK)
	if len(sel) == 0 {
		p.errorf(start, errors.CodeTypeExprEmptySelector, "type-expression operator requires at least one selector")
	}
	return &ast.TypeExprOp{Op: kind, Input: input, Selector: sel, Span: token.Span{Start: start.Start, End: end.Span.End}}
}
