package rows

import (
	"sort"

	"github.com/corelang/elaborator/core"
)

// Canon is a row's canonical form: a sorted set of labelled field types plus
// a trailing tail that absorbs "the rest" of the row. Tail is usually one of
// *core.RowEmpty (a fully closed row), *core.RowVar (an abstract, unbound
// row parameter), or an unbound row-kinded *core.Meta (an as-yet-unsolved
// row); when two open rows are flattened together, mergeTails keeps both
// tails as a *core.RowConcat. This mirrors the teacher's FlattenRowType,
// which reduces a chain of RowExtend nodes to a field list plus a terminal
// Var or RowEmptyType.
type Canon struct {
	Labels LabelMap // label -> core.Term (the field's type)
	Tail   core.Term
}

// Flatten walks r (a chain of RowLit/RowConcat/RowVar/RowEmpty/Meta nodes)
// into canonical form. Duplicate labels across concatenated fragments are
// reported via dup, matching the teacher's duplicate-label panic in
// flattenRowType but returned as a bool instead of a panic, since spec.md
// §7 requires elaboration to continue past a single failed definition.
func Flatten(r core.Term) (c Canon, dup bool) {
	b := NewBuilder()
	tail := flattenInto(r, &b, &dup)
	return Canon{Labels: b.Build(), Tail: tail}, dup
}

func flattenInto(r core.Term, b *Builder, dup *bool) core.Term {
	r = core.Deref(r)
	switch r := r.(type) {
	case *core.RowEmpty:
		return r
	case *core.RowVar:
		return r
	case *core.Meta:
		// Unbound row meta: it is the tail. (core.Deref already resolved any
		// link, so reaching here means r is genuinely unbound.)
		return r
	case *core.RowLit:
		for _, f := range r.Fields {
			if _, exists := b.Get(f.Label); exists {
				*dup = true
				continue
			}
			b.Set(f.Label, f.Type)
		}
		return core.Empty()
	case *core.RowConcat:
		leftTail := flattenInto(r.Left, b, dup)
		rightTail := flattenInto(r.Right, b, dup)
		return mergeTails(leftTail, rightTail)
	default:
		// Ill-formed row shape; treat as an opaque tail so the caller's
		// unifier reports the mismatch rather than this package panicking.
		return r
	}
}

// mergeTails combines two tails found on either side of a RowConcat. An
// empty tail contributes nothing. Two independently open tails both survive
// as a nested RowConcat rather than one being dropped — spec.md §4.4's
// canonical form is "sorted literal fragments plus a trailing concatenation
// of variables", plural, which is exactly this shape. object_concat of two
// row-polymorphic parameters (`function f<'r1,'r2>(a:{'r1}, b:{'r2})
// {return a...b}`) is the case that needs this: both 'r1 and 'r2 must stay
// reachable in the result's tail, since they are independent abstract
// parameters that can never be unified with each other.
func mergeTails(left, right core.Term) core.Term {
	_, leftEmpty := left.(*core.RowEmpty)
	_, rightEmpty := right.(*core.RowEmpty)
	switch {
	case leftEmpty:
		return right
	case rightEmpty:
		return left
	default:
		return &core.RowConcat{Left: left, Right: right}
	}
}

// ToTerm rebuilds a core.Term from a canonical form, used when the solver
// needs to materialise a freshly-computed row (e.g. the result of Concat)
// back into the term language.
func ToTerm(c Canon) core.Term {
	labels := c.Labels.Labels()
	if len(labels) == 0 {
		return c.Tail
	}
	fields := make([]core.RowField, len(labels))
	for i, l := range labels {
		v, _ := c.Labels.Get(l)
		fields[i] = core.RowField{Label: l, Type: v.(core.Term)}
	}
	lit := &core.RowLit{Fields: fields}
	if _, empty := c.Tail.(*core.RowEmpty); empty {
		return lit
	}
	return &core.RowConcat{Left: lit, Right: c.Tail}
}

// sortedFields returns c's fields in label order. Nothing in the module
// calls it at present.
func sortedFields(c Canon) []core.RowField {
	labels := c.Labels.Labels()
	sort.Strings(labels)
	out := make([]core.RowField, len(labels))
	for i, l := range labels {
		v, _ := c.Labels.Get(l)
		out[i] = core.RowField{Label: l, Type: v.(core.Term)}
	}
	return out
}
