// Copyright 2026 The Schemac Authors

// Package errors defines the coded diagnostic record shared by every
// compilation stage (lexer, parser, namespace loader, resolver, resolution
// engine) along with a builder that enforces, at the type level, that every
// located diagnostic carries a span before it can be emitted.
package errors

import (
	"fmt"
	"sort"
	"strings"

	"schemac/ks/token"
)

// Severity classifies how a diagnostic affects compilation outcome.
type Severity int

const (
	Error Severity = iota
	Warning
	Info
	Hint
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	case Hint:
		return "hint"
	default:
		return "unknown"
	}
}

// Label is a secondary annotation attached to a diagnostic, pointing at a
// span related to (but not primary to) the error, such as the other operand
// in a union conflict.
type Label struct {
	Span    token.Span
	Message string
}

// Source identifies the document a diagnostic's span belongs to, carrying
// the raw text so renderers can print a caret-under-span excerpt without
// re-reading the file from disk.
type Source struct {
	Name string
	Text string
}

// Diagnostic is a fully structured compiler message: a stable [Code], a
// [Severity], a formatted message, and optional location/help/label data.
type Diagnostic struct {
	Code     Code
	Severity Severity
	Message  string
	Help     string
	Source   *Source
	Span     token.Span // zero value (token.NoSpan) iff Located is false
	Labels   []Label
	Located  bool
}

func (d *Diagnostic) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]: %s", d.Code, d.Severity, d.Message)
	if d.Located && d.Span.IsValid() {
		fmt.Fprintf(&b, " (%s)", d.Span.Start.Position())
	}
	return b.String()
}

// Builder constructs a Diagnostic incrementally. Calling [Builder.Build]
// without first calling either [Builder.At] or [Builder.Unlocated] panics:
// the spec requires every non-internal diagnostic to either attach a span
// or explicitly opt out, and that choice must be visible at the call site,
// not inferred.
type Builder struct {
	code     Code
	severity Severity
	message  string
	help     string
	source   *Source
	span     token.Span
	labels   []Label
	decided  bool // true once At or Unlocated has been called
	located  bool
}

// New starts building a diagnostic with the given code, severity, and
// formatted message.
func New(code Code, severity Severity, format string, args ...any) *Builder {
	return &Builder{code: code, severity: severity, message: fmt.Sprintf(format, args...)}
}

// At attaches the primary span (and its source, if known) to the
// diagnostic being built.
func (b *Builder) At(span token.Span, src *Source) *Builder {
	b.span = span
	b.source = src
	b.located = true
	b.decided = true
	return b
}

// Unlocated explicitly opts the diagnostic out of carrying a span. Use only
// for diagnostics that are inherently global (e.g. "lockfile could not be
// written").
func (b *Builder) Unlocated() *Builder {
	b.located = false
	b.decided = true
	return b
}

// Help attaches human-readable remediation text.
func (b *Builder) Help(format string, args ...any) *Builder {
	b.help = fmt.Sprintf(format, args...)
	return b
}

// Label appends a secondary span annotation.
func (b *Builder) Label(span token.Span, format string, args ...any) *Builder {
	b.labels = append(b.labels, Label{Span: span, Message: fmt.Sprintf(format, args...)})
	return b
}

// Build finalizes the diagnostic. It panics if neither [Builder.At] nor
// [Builder.Unlocated] was called — that is a bug in the calling stage, not
// a condition to recover from, per spec.md §4.A.
func (b *Builder) Build() *Diagnostic {
	if !b.decided {
		panic(fmt.Sprintf("diagnostic %s built without calling At or Unlocated", b.code))
	}
	return &Diagnostic{
		Code:     b.code,
		Severity: b.severity,
		Message:  b.message,
		Help:     b.help,
		Source:   b.source,
		Span:     b.span,
		Labels:   b.labels,
		Located:  b.located,
	}
}

// Bundle is the terminal collection of diagnostics produced by a
// compilation run, partitioned by severity the way the CLI needs them: an
// empty Errors slice means exit code 0 is warranted.
type Bundle struct {
	Errors   []*Diagnostic
	Warnings []*Diagnostic
	Other    []*Diagnostic // Info and Hint severities
}

// Add files d into the bundle by severity.
func (b *Bundle) Add(d *Diagnostic) {
	switch d.Severity {
	case Error:
		b.Errors = append(b.Errors, d)
	case Warning:
		b.Warnings = append(b.Warnings, d)
	default:
		b.Other = append(b.Other, d)
	}
}

// Merge appends another bundle's diagnostics into b, preserving each
// source bundle's internal order (cross-bundle order is unspecified, per
// spec.md §5).
func (b *Bundle) Merge(o *Bundle) {
	if o == nil {
		return
	}
	b.Errors = append(b.Errors, o.Errors...)
	b.Warnings = append(b.Warnings, o.Warnings...)
	b.Other = append(b.Other, o.Other...)
}

// HasErrors reports whether the bundle contains any fatal diagnostic.
func (b *Bundle) HasErrors() bool { return len(b.Errors) > 0 }

// SortStable orders diagnostics within each severity bucket by filename
// then offset, so that repeated compilations of unchanged input render
// byte-identical output.
func (b *Bundle) SortStable() {
	less := func(s []*Diagnostic) func(i, j int) bool {
		return func(i, j int) bool {
			return s[i].Span.Start.Compare(s[j].Span.Start) < 0
		}
	}
	sort.SliceStable(b.Errors, less(b.Errors))
	sort.SliceStable(b.Warnings, less(b.Warnings))
	sort.SliceStable(b.Other, less(b.Other))
}
