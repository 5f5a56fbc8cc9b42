// Package diag holds the elaborator's user-facing diagnostic kinds
// (spec.md §7), grounded on the teacher pack's report package shape
// (ReportType + Report interface) but deliberately without any
// color/formatting dependency — diagnostic rendering belongs to an outer
// CLI layer, out of this repository's scope per spec.md §1.
package diag

import (
	"fmt"

	"github.com/corelang/elaborator/span"
)

// Kind enumerates the error kinds of spec.md §7, each reportable with a
// source span.
type Kind uint8

const (
	ParseError Kind = iota
	NameResolution
	KindMismatch
	TypeMismatch
	RowMismatch
	Exhaustiveness
	NoInstance
	AmbiguousInstance
	UnresolvedMeta
	StuckPredicate
	CircularDependency
)

func (k Kind) String() string {
	names := [...]string{
		"parse error", "name resolution", "kind mismatch", "type mismatch",
		"row mismatch", "exhaustiveness", "no instance", "ambiguous instance",
		"unresolved meta", "stuck predicate", "circular dependency",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "error"
}

// Error is a single elaboration diagnostic. Definition names the
// definition it was raised against, so the orchestrator can mark that
// definition failed and keep its signature opaque downstream (spec.md
// §7's "failed definition... treated as opaque").
type Error struct {
	Kind       Kind
	Span       span.Span
	Definition string
	Message    string
	Cause      error // wrapped underlying error, if any (see pkg/errors use in dispatch/unify)
}

func (e *Error) Error() string {
	if e.Span.Valid() {
		return fmt.Sprintf("%s: %s: %s", e.Span, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs an Error with no wrapped cause.
func New(kind Kind, sp span.Span, def, message string) *Error {
	return &Error{Kind: kind, Span: sp, Definition: def, Message: message}
}

// Wrap constructs an Error around an existing error, preserving it for
// errors.Is/As traversal via Unwrap.
func Wrap(kind Kind, sp span.Span, def string, cause error) *Error {
	return &Error{Kind: kind, Span: sp, Definition: def, Message: cause.Error(), Cause: cause}
}

// Batch accumulates diagnostics across an Elaborate run, capping how many
// are retained once the cap set by elaborator.WithMaxErrors is reached (spec.md §7:
// "all errors are returned in a batch").
type Batch struct {
	errs    []*Error
	max     int
	dropped int
}

func NewBatch(max int) *Batch { return &Batch{max: max} }

// Add records err, unless the batch has already reached its cap, in which
// case it counts the drop so the caller can report truncation.
func (b *Batch) Add(err *Error) {
	if b.max > 0 && len(b.errs) >= b.max {
		b.dropped++
		return
	}
	b.errs = append(b.errs, err)
}

func (b *Batch) Errors() []*Error { return b.errs }
func (b *Batch) Len() int         { return len(b.errs) }
func (b *Batch) Dropped() int     { return b.dropped }
