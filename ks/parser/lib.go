// Copyright 2026 The Schemac Authors

package parser

import (
	"schemac/ks/ast"
	"schemac/ks/errors"
)

// ValidateLibFile enforces spec.md §4.E's restriction on `lib.ks`: it may
// contain only a namespace declaration and single-segment `use` statements,
// never type definitions. Violations are returned as fatal diagnostics
// (KPR0007/8/9); the caller decides whether to abort the file.
func ValidateLibFile(f *ast.File, src *errors.Source) []*errors.Diagnostic {
	var diags []*errors.Diagnostic
	for _, item := range f.Items {
		switch it := item.(type) {
		case *ast.NamespaceDecl:
			// allowed; recurse into nested items under the same rules
			diags = append(diags, validateLibItems(it.Items, src)...)
		case *ast.UseDecl:
			if len(it.Path.Segments) != 1 {
				diags = append(diags, errors.New(errors.CodeLibSingleSegment, errors.Error,
					"lib.ks use statements must be single-segment, found %q", it.Path.String()).
					At(it.Path.Span, src).
					Help("use a multi-segment path from a regular namespace file instead").
					Build())
			}
		default:
			diags = append(diags, errors.New(errors.CodeLibRestricted, errors.Error,
				"lib.ks may only contain a namespace declaration and use statements").
				At(item.Pos().SpanTo(item.End()), src).
				Build())
		}
	}
	return diags
}

func validateLibItems(items []ast.Item, src *errors.Source) []*errors.Diagnostic {
	var diags []*errors.Diagnostic
	for _, item := range items {
		if use, ok := item.(*ast.UseDecl); ok {
			if len(use.Path.Segments) != 1 {
				diags = append(diags, errors.New(errors.CodeLibSingleSegment, errors.Error,
					"lib.ks use statements must be single-segment, found %q", use.Path.String()).
					At(use.Path.Span, src).
					Build())
			}
			continue
		}
		diags = append(diags, errors.New(errors.CodeLibNamespaceOnly, errors.Error,
			"lib.ks may not define types; move this declaration to a regular namespace file").
			At(item.Pos().SpanTo(item.End()), src).
			Build())
	}
	return diags
}
