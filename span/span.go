// Package span carries source positions through the pipeline so every
// diagnostic can point back at the surface syntax that produced it.
package span

import "fmt"

// Pos is a byte offset into a source file. NoPos means "no position known",
// used for synthesized nodes (builtins, desugared forms) that never appear
// literally in source.
type Pos int

const NoPos Pos = 0

// Span covers a contiguous range of a single source file.
type Span struct {
	File       string
	Start, End Pos
	Line, Col  int
}

// Valid reports whether s carries a real position.
func (s Span) Valid() bool { return s.Start != NoPos || s.End != NoPos }

func (s Span) String() string {
	if !s.Valid() {
		return "<no position>"
	}
	if s.File == "" {
		return fmt.Sprintf("%d:%d", s.Line, s.Col)
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Col)
}

// Join returns the smallest span covering both a and b. A zero Span on
// either side is ignored, which lets callers accumulate a span across an
// optional sub-node without special-casing nils.
func Join(a, b Span) Span {
	switch {
	case !a.Valid():
		return b
	case !b.Valid():
		return a
	}
	j := a
	if b.End > j.End {
		j.End = b.End
	}
	if b.Start < j.Start {
		j.Start, j.Line, j.Col = b.Start, b.Line, b.Col
	}
	return j
}
