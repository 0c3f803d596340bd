// Copyright 2026 The Schemac Authors

// Package token defines the source position and span types shared by the
// scanner, parser, formatter, and diagnostics packages.
package token

import (
	"cmp"
	"fmt"
	"sort"
	"sync"
)

// Position describes an arbitrary and printable source position, including
// byte offset, line, and column, suitable for rendering in diagnostics.
type Position struct {
	Filename string
	Offset   int // byte offset, starting at 0
	Line     int // line number, starting at 1
	Column   int // column number in bytes, starting at 1
}

// IsValid reports whether the position has a usable line number.
func (pos *Position) IsValid() bool { return pos.Line > 0 }

func (pos Position) String() string {
	s := pos.Filename
	if pos.IsValid() {
		if s != "" {
			s += ":"
		}
		s += fmt.Sprintf("%d:%d", pos.Line, pos.Column)
	}
	if s == "" {
		s = "-"
	}
	return s
}

// Pos is a compact, comparable encoding of a position within a [File]. The
// zero value, [NoPos], carries no file information.
type Pos struct {
	file   *File
	offset int
}

// NoPos is the zero value for Pos: no file, no line information.
var NoPos = Pos{}

// IsValid reports whether p refers to an actual file offset.
func (p Pos) IsValid() bool { return p.file != nil }

// IsCallSite reports whether p was synthesized by the compiler (phase
// hoisting, union merging, type-expression rewriting) rather than copied
// from user source. Synthetic positions still carry a File so they render
// with a name like "<hoist>" instead of being silently blank.
func (p Pos) IsCallSite() bool { return p.file != nil && p.file.synthetic }

// File returns the file containing p, or nil for [NoPos].
func (p Pos) File() *File { return p.file }

// Offset reports the byte offset of p relative to its file.
func (p Pos) Offset() int { return p.offset }

// Position unpacks p into a flat, printable [Position].
func (p Pos) Position() Position {
	if p.file == nil {
		return Position{}
	}
	return p.file.Position(p)
}

func (p Pos) String() string { return p.Position().String() }

// Compare orders positions first by filename, then by offset. NoPos sorts
// after every valid position.
func (p Pos) Compare(q Pos) int {
	if p == q {
		return 0
	}
	if p == NoPos {
		return +1
	}
	if q == NoPos {
		return -1
	}
	if c := cmp.Compare(p.Filename(), q.Filename()); c != 0 {
		return c
	}
	return cmp.Compare(p.offset, q.offset)
}

// Filename returns the name of the file p belongs to, or "" for [NoPos].
func (p Pos) Filename() string {
	if p.file == nil {
		return ""
	}
	return p.file.name
}

// Add returns the position n bytes after p, within the same file.
func (p Pos) Add(n int) Pos {
	if p.file == nil {
		return p
	}
	return Pos{p.file, p.offset + n}
}

// SpanTo returns the Span starting at p and ending at q, a convenience for
// building a span from two already-computed node endpoints.
func (p Pos) SpanTo(q Pos) Span {
	return Span{Start: p, End: q}
}

// -----------------------------------------------------------------------------
// Span

// Span is a half-open byte range [Start, End) within a single source
// document. Spans compose via [Span.Merge]: the union is the smallest span
// covering both. A Span whose File is synthetic is a call-site span: it
// points at compiler-generated output, not user-authored text.
type Span struct {
	Start, End Pos
}

// NoSpan is the zero Span: neither endpoint is valid.
var NoSpan = Span{}

// IsValid reports whether both endpoints of s refer to an actual file.
func (s Span) IsValid() bool { return s.Start.IsValid() && s.End.IsValid() }

// IsCallSite reports whether s was synthesized rather than parsed from
// user source (see [Pos.IsCallSite]).
func (s Span) IsCallSite() bool { return s.Start.IsCallSite() }

// Merge returns the smallest span covering both s and o. If either span is
// invalid, the other is returned unchanged.
func (s Span) Merge(o Span) Span {
	if !s.IsValid() {
		return o
	}
	if !o.IsValid() {
		return s
	}
	start, end := s.Start, s.End
	if o.Start.Compare(start) < 0 {
		start = o.Start
	}
	if o.End.Compare(end) > 0 {
		end = o.End
	}
	return Span{start, end}
}

func (s Span) String() string {
	if !s.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%s-%d", s.Start.Position(), s.End.Offset()-s.Start.Offset()+s.Start.Position().Column)
}

// -----------------------------------------------------------------------------
// File

// File tracks the byte content and line-break table for one source
// document, allowing byte offsets to be translated into line/column
// [Position] values.
type File struct {
	mu        sync.RWMutex
	name      string
	size      int
	lines     []int // byte offset of the first character of each line; lines[0] == 0
	synthetic bool  // true for call-site files used to stamp compiler-generated spans
}

// NewFile registers a new source file of the given name and size. Line
// breaks are discovered lazily via [File.AddLine] as the scanner advances,
// mirroring how a single-pass lexer builds its own line table.
func NewFile(name string, size int) *File {
	return &File{name: name, size: size, lines: []int{0}}
}

// NewCallSiteFile returns a synthetic, zero-length file used to stamp spans
// for compiler-generated AST nodes (hoisted structs, merged unions, and
// type-expression rewrites). Positions within it always render with line 1,
// column 1.
func NewCallSiteFile(name string) *File {
	return &File{name: name, size: 0, lines: []int{0}, synthetic: true}
}

// Name returns the file's name as passed to NewFile.
func (f *File) Name() string { return f.name }

// Size returns the file's byte length.
func (f *File) Size() int { return f.size }

// AddLine records that a new line begins at the given byte offset. Offsets
// must be added in increasing order; out-of-order or out-of-range calls are
// ignored.
func (f *File) AddLine(offset int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n := len(f.lines); (n == 0 || f.lines[n-1] < offset) && offset < f.size {
		f.lines = append(f.lines, offset)
	}
}

// Pos returns the [Pos] value for the given byte offset within f.
func (f *File) Pos(offset int) Pos {
	if offset < 0 {
		offset = 0
	}
	if offset > f.size {
		offset = f.size
	}
	return Pos{f, offset}
}

// Position unpacks p (which must belong to f) into a flat [Position].
func (f *File) Position(p Pos) Position {
	offset := p.offset
	f.mu.RLock()
	defer f.mu.RUnlock()
	i := sort.Search(len(f.lines), func(i int) bool { return f.lines[i] > offset }) - 1
	if i < 0 {
		i = 0
	}
	return Position{
		Filename: f.name,
		Offset:   offset,
		Line:     i + 1,
		Column:   offset - f.lines[i] + 1,
	}
}
