// Copyright 2026 The Schemac Authors

// Package rules implements additional lint checks over a resolved
// declaration map — naming conventions, style warnings, and other checks
// that are not fatal to compilation. The CLI's compile step (shared by
// `schemac check` and `schemac generate`) runs every registered rule;
// [Run] can also select a subset by name. It supplements the 8-phase resolution
// engine (internal/resolve), which only enforces what spec.md §4.I
// calls fatal or structurally required.
//
// The original implementation this compiler is modeled on (kintsu)
// registers these checks through a macro-driven plugin inventory
// (core/src/checks/mod.rs's dyn_inventory! + rule! macros), which
// collects `Check` implementations at program start via linker section
// scanning. Go has no equivalent reflection-free global registration
// mechanism, so this package uses explicit registration instead: each
// [Rule] is a plain value appended to a slice by [Register], called from
// an init() in the file that defines it. The result is the same
// deferred, data-driven evaluation the original gets from its plugin
// inventory, without requiring Go's init-order subtleties to stand in
// for a linker trick.
package rules

import (
	"sort"

	"schemac/internal/resolve"
	"schemac/ks/errors"
)

// Group classifies a rule the way RuleGroup does in the original: today
// only Form (structural/naming style) exists, but the type leaves room
// for e.g. a future Performance or Compatibility group without changing
// the Rule shape.
type Group string

const (
	GroupForm Group = "form"
)

// Level is the severity a rule's finding is reported at when it fires.
type Level int

const (
	LevelWarn Level = iota
	LevelError
)

// Check inspects one resolved declaration and returns the diagnostics it
// finds, or nil if the declaration is clean. Unlike the lexer/parser/
// resolver stages, a Check never aborts the run: findings are always
// collected and returned, never panicked.
type Check func(d *resolve.Decl, allDecls map[string]*resolve.Decl) []*errors.Diagnostic

// Rule is one named, registered lint check.
type Rule struct {
	Group       Group
	Name        string
	Level       Level
	Description string
	Check       Check
}

var registry []Rule

// Register adds r to the global rule registry. Call from an init() in
// the file that defines the rule's Check function, mirroring one
// dyn_inventory::emit! call per rule in the original.
func Register(r Rule) {
	registry = append(registry, r)
}

// All returns every registered rule, sorted by name for deterministic
// run order.
func All() []Rule {
	out := append([]Rule(nil), registry...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Run executes every registered rule (or, if names is non-empty, only
// the named subset) against every declaration in decls, in sorted
// qualified-name order for byte-stable output.
func Run(decls map[string]*resolve.Decl, names map[string]bool) []*errors.Diagnostic {
	var diags []*errors.Diagnostic
	qns := make([]string, 0, len(decls))
	for qn := range decls {
		qns = append(qns, qn)
	}
	sort.Strings(qns)

	for _, rule := range All() {
		if len(names) > 0 && !names[rule.Name] {
			continue
		}
		for _, qn := range qns {
			diags = append(diags, rule.Check(decls[qn], decls)...)
		}
	}
	return diags
}
