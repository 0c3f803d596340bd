// Copyright 2026 The Schemac Authors

package rules

import (
	"unicode"

	"schemac/internal/resolve"
	"schemac/ks/errors"
)

func init() {
	Register(Rule{
		Group:       GroupForm,
		Name:        "pascal-case-names",
		Level:       LevelWarn,
		Description: "struct, enum, oneof, and error names should be PascalCase",
		Check:       checkPascalCaseNames,
	})
	Register(Rule{
		Group:       GroupForm,
		Name:        "snake-case-fields",
		Level:       LevelWarn,
		Description: "field and operation argument names should be snake_case",
		Check:       checkSnakeCaseFields,
	})
}

func checkPascalCaseNames(d *resolve.Decl, _ map[string]*resolve.Decl) []*errors.Diagnostic {
	switch d.Kind {
	case resolve.KindStruct, resolve.KindEnum, resolve.KindOneOf, resolve.KindError:
	default:
		return nil
	}
	name := lastNameSegment(d.QualifiedName)
	if !isPascalCase(name) {
		diag := errors.New(errors.CodeNamingPascalCase, errors.Warning,
			"%q is not PascalCase", name).At(d.Span, nil).
			Help("rename to start with an uppercase letter and use no underscores").Build()
		return []*errors.Diagnostic{diag}
	}
	return nil
}

func checkSnakeCaseFields(d *resolve.Decl, _ map[string]*resolve.Decl) []*errors.Diagnostic {
	var diags []*errors.Diagnostic
	for _, f := range d.Fields {
		if !isSnakeCase(f.Name) {
			diags = append(diags, errors.New(errors.CodeNamingSnakeCase, errors.Warning,
				"field %q is not snake_case", f.Name).At(f.Span, nil).Build())
		}
	}
	for _, a := range d.OpArgs {
		if !isSnakeCase(a.Name) {
			diags = append(diags, errors.New(errors.CodeNamingSnakeCase, errors.Warning,
				"argument %q is not snake_case", a.Name).At(a.Span, nil).Build())
		}
	}
	return diags
}

func lastNameSegment(qn string) string {
	i := len(qn) - 1
	depth := 0
	for ; i >= 0; i-- {
		if qn[i] == ':' {
			depth++
			if depth == 2 {
				return qn[i+2:]
			}
		}
	}
	return qn
}

func isPascalCase(s string) bool {
	if s == "" || !unicode.IsUpper(rune(s[0])) {
		return false
	}
	for _, r := range s {
		if r == '_' {
			return false
		}
	}
	return true
}

func isSnakeCase(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return false
		}
	}
	return true
}
