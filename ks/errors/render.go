// Copyright 2026 The Schemac Authors

package errors

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"schemac/ks/token"
)

// Print renders a single diagnostic as `code [severity]: message`, followed
// by a filename:line:col header, a caret-under-span pointer, and any help
// text, matching spec.md §7's user-visible rendering contract.
func Print(w io.Writer, d *Diagnostic) {
	fmt.Fprintf(w, "%s [%s]: %s\n", d.Code, d.Severity, d.Message)
	if d.Located && d.Span.IsValid() {
		pos := d.Span.Start.Position()
		fmt.Fprintf(w, "  --> %s\n", pos)
		if d.Source != nil {
			printCaret(w, d.Source.Text, d.Span)
		}
		for _, l := range d.Labels {
			fmt.Fprintf(w, "  note: %s (%s)\n", l.Message, l.Span.Start.Position())
		}
	}
	if d.Help != "" {
		fmt.Fprintf(w, "  help: %s\n", d.Help)
	}
}

// printCaret prints the source line containing span.Start and a caret run
// underneath covering the span's width on that line.
func printCaret(w io.Writer, text string, span token.Span) {
	lines := strings.Split(text, "\n")
	pos := span.Start.Position()
	if pos.Line-1 < 0 || pos.Line-1 >= len(lines) {
		return
	}
	line := lines[pos.Line-1]
	fmt.Fprintf(w, "  %s\n", line)
	width := span.End.Offset() - span.Start.Offset()
	if width < 1 {
		width = 1
	}
	if pos.Column-1 > len(line) {
		return
	}
	fmt.Fprintf(w, "  %s%s\n", strings.Repeat(" ", pos.Column-1), strings.Repeat("^", width))
}

// jsonRecord is the `{code, severity, message, help?, location?, labels?}`
// shape spec.md §7 requires for JSON-lines rendering.
type jsonRecord struct {
	Code     Code         `json:"code"`
	Severity string       `json:"severity"`
	Message  string       `json:"message"`
	Help     string       `json:"help,omitempty"`
	Location *jsonLoc     `json:"location,omitempty"`
	Labels   []jsonLabel  `json:"labels,omitempty"`
}

type jsonLoc struct {
	Path  string `json:"path"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

type jsonLabel struct {
	Message string `json:"message"`
	Path    string `json:"path"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
}

// PrintJSONLine renders d as a single JSON-lines record.
func PrintJSONLine(w io.Writer, d *Diagnostic) error {
	rec := jsonRecord{Code: d.Code, Severity: d.Severity.String(), Message: d.Message, Help: d.Help}
	if d.Located && d.Span.IsValid() {
		rec.Location = &jsonLoc{
			Path:  d.Span.Start.Filename(),
			Start: d.Span.Start.Offset(),
			End:   d.Span.End.Offset(),
		}
	}
	for _, l := range d.Labels {
		rec.Labels = append(rec.Labels, jsonLabel{
			Message: l.Message,
			Path:    l.Span.Start.Filename(),
			Start:   l.Span.Start.Offset(),
			End:     l.Span.End.Offset(),
		})
	}
	enc := json.NewEncoder(w)
	return enc.Encode(rec)
}
