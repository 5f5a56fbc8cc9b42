package rows

import (
	"fmt"

	"github.com/corelang/elaborator/core"
	"github.com/corelang/elaborator/metas"
)

// MismatchError distinguishes a row-equality/subrow/concat failure (spec.md
// §7's Row mismatch) from the generic errors this package also returns for
// internal invariant violations, so callers can route it to a dedicated
// diagnostic kind instead of the generic fallback.
type MismatchError struct {
	msg string
}

func (e *MismatchError) Error() string { return e.msg }

func mismatchf(format string, args ...interface{}) error {
	return &MismatchError{msg: fmt.Sprintf(format, args...)}
}

// UnifyField unifies the types found at a matching label in two rows being
// compared. Equal/Subrow/Concat take this as a parameter instead of
// importing package unify, so unify can depend on rows without a cycle —
// unify.Engine passes its own Unify method as this callback, exactly as the teacher's
// commonContext.unifyRows calls back into commonContext.unify.
type UnifyField func(a, b core.Term) error

// UnifyTail unifies two row tails (RowEmpty/RowVar/Meta) directly, used for
// the final step of Equal once both sides' extra labels have been
// accounted for. Tails are themselves row values, not field types, so this
// is kept distinct from UnifyField even though in this calculus both end up
// calling the same underlying term unifier.
type UnifyTail func(a, b core.Term) error

// splitLabels walks ca and cb's common labels through unifyField (stopping
// at the first failure) and returns the labels present in one but not the
// other, mirroring the teacher's single interleaved pass in unifyRows.
func splitLabels(ca, cb Canon, unifyField UnifyField) (extraA, extraB Builder, err error) {
	extraA, extraB = NewBuilder(), NewBuilder()
	ca.Labels.Range(func(label string, va interface{}) bool {
		vb, ok := cb.Labels.Get(label)
		if !ok {
			extraB = extraB.Set(label, va)
			return true
		}
		if ferr := unifyField(va.(core.Term), vb.(core.Term)); ferr != nil {
			err = fmt.Errorf("field %q: %w", label, ferr)
			return false
		}
		return true
	})
	if err != nil {
		return extraA, extraB, err
	}
	cb.Labels.Range(func(label string, vb interface{}) bool {
		if _, ok := ca.Labels.Get(label); !ok {
			extraA = extraA.Set(label, vb)
		}
		return true
	})
	return extraA, extraB, nil
}

// Equal solves the row-equality constraint between a and b (spec.md §4.4,
// Row-Equality): every label present in one must be present in the other
// with a unifiable type, and any leftover labels on either side are
// absorbed into a fresh row variable unified with the other side's tail.
// Mirrors the teacher's unifyRows, generalised from TypeList-per-label
// (scoped labels) to a single type per label.
func Equal(store *metas.Store, level int, unifyField UnifyField, unifyTail UnifyTail, a, b core.Term) error {
	ca, dupA := Flatten(a)
	if dupA {
		return mismatchf("duplicate label in row %s", core.String(a))
	}
	cb, dupB := Flatten(b)
	if dupB {
		return mismatchf("duplicate label in row %s", core.String(b))
	}

	extraA, extraB, err := splitLabels(ca, cb, unifyField)
	if err != nil {
		return err
	}

	switch {
	case extraA.Len() == 0 && extraB.Len() == 0:
		return unifyTail(ca.Tail, cb.Tail)

	case extraA.Len() == 0: // labels missing from b
		if _, closed := core.Deref(cb.Tail).(*core.RowEmpty); closed {
			// b is already closed: it has no tail left to absorb a's extra
			// labels into, so the rows can never be made equal. Without this
			// check, unifyTail below would reconstruct the identical
			// (RowEmpty, RowConcat{extraB, ca.Tail}) pair it was just asked
			// to solve, recursing forever instead of failing.
			return mismatchf("row %s is missing labels required by %s", core.String(b), core.String(a))
		}
		return unifyTail(cb.Tail, ToTerm(Canon{Labels: extraB.Build(), Tail: ca.Tail}))

	case extraB.Len() == 0: // labels missing from a
		if _, closed := core.Deref(ca.Tail).(*core.RowEmpty); closed {
			return mismatchf("row %s is missing labels required by %s", core.String(a), core.String(b))
		}
		return unifyTail(ca.Tail, ToTerm(Canon{Labels: extraA.Build(), Tail: cb.Tail}))

	default: // labels missing on both sides
		switch tail := core.Deref(ca.Tail).(type) {
		case *core.RowEmpty:
			// No room left on a's side to absorb b's extra labels: this
			// always fails, same as the teacher's unifyRows RowEmpty case.
			return unifyTail(tail, ToTerm(Canon{Labels: extraA.Build(), Tail: store.NewRow(level)}))
		case *core.RowVar:
			return mismatchf("cannot equate abstract row variable '%s with additional labels", tail.Name)
		case *core.Meta:
			if tail.State != core.MetaUnbound {
				return fmt.Errorf("invalid state while unifying row metavariable %%%d", tail.ID)
			}
			rest := store.NewRow(level)
			if err := unifyTail(cb.Tail, ToTerm(Canon{Labels: extraB.Build(), Tail: rest})); err != nil {
				return err
			}
			return unifyTail(tail, ToTerm(Canon{Labels: extraA.Build(), Tail: rest}))
		case *core.RowConcat:
			// a's tail is itself two merged tails (mergeTails on a prior
			// Concat that kept both sides open, e.g. object_concat of two
			// row-polymorphic parameters). It isn't a single variable to
			// bind, so route the equation through unifyTail instead of
			// binding directly — that delegates back into Equal on tail's
			// own flattened form, which finds whichever meta inside it (if
			// any) can actually absorb extraA.
			rest := store.NewRow(level)
			if err := unifyTail(cb.Tail, ToTerm(Canon{Labels: extraB.Build(), Tail: rest})); err != nil {
				return err
			}
			return unifyTail(tail, ToTerm(Canon{Labels: extraA.Build(), Tail: rest}))
		default:
			return fmt.Errorf("invalid tail %s while unifying rows", core.String(tail))
		}
	}
}

// Subrow solves the containment constraint sub <: super (spec.md §4.4,
// Row-Subrow): every label in sub must appear in super with a unifiable
// type, unless super's tail is an unbound row metavariable (the fresh tail
// a RecCast/VarCast introduces), which then stands for sub's extra labels.
// super's remaining labels are not required to appear in sub — they are
// folded into sub's tail, which must then be an unbound row metavariable.
// This has no
// direct analogue in the teacher (poly has no row subtyping), so it is
// grounded on Equal's shape plus spec.md's description of the rule.
func Subrow(unifyField UnifyField, unifyTail UnifyTail, sub, super core.Term) error {
	csub, dup := Flatten(sub)
	if dup {
		return mismatchf("duplicate label in row %s", core.String(sub))
	}
	csup, dup := Flatten(super)
	if dup {
		return mismatchf("duplicate label in row %s", core.String(super))
	}

	extra := NewBuilder()
	var firstErr error
	csup.Labels.Range(func(label string, vsup interface{}) bool {
		vsub, ok := csub.Labels.Get(label)
		if !ok {
			extra = extra.Set(label, vsup)
			return true
		}
		if err := unifyField(vsub.(core.Term), vsup.(core.Term)); err != nil {
			firstErr = fmt.Errorf("field %q: %w", label, err)
			return false
		}
		return true
	})
	if firstErr != nil {
		return firstErr
	}

	// sub's labels that super lacks are only admissible when super's tail
	// is an unbound meta, which then stands for them and stays unbound.
	absorbed := false
	csub.Labels.Range(func(label string, _ interface{}) bool {
		_, inSup := csup.Labels.Get(label)
		absorbed = absorbed || !inSup
		return true
	})
	if m, open := core.Deref(csup.Tail).(*core.Meta); absorbed && (!open || m.State != core.MetaUnbound) {
		return mismatchf("row %s has labels not present in %s", core.String(sub), core.String(super))
	}

	tail, ok := core.Deref(csub.Tail).(*core.Meta)
	if !ok || tail.State != core.MetaUnbound {
		// sub's row is already closed (RowEmpty) or abstract (RowVar): it
		// can only be a subrow of super if super has no labels beyond
		// sub's, and either their tails unify or super's open tail stands
		// for sub's extra labels.
		if extra.Len() == 0 && absorbed {
			return nil
		}
		if extra.Len() == 0 {
			return unifyTail(csub.Tail, csup.Tail)
		}
		return mismatchf("row %s is missing labels required by %s", core.String(sub), core.String(super))
	}
	return unifyTail(tail, ToTerm(Canon{Labels: extra.Build(), Tail: csup.Tail}))
}

// Concat solves the disjoint-union constraint left + right = result
// (spec.md §4.4, Row-Concat): left and right must share no labels, and
// result's canonical form is their union. Grounded on the teacher's
// RowExtend-as-cons representation (building a concatenation is just
// constructing the RowExtend chain poly already uses internally), adapted
// into an explicit disjointness check since poly never concatenates two
// already-built rows directly.
func Concat(left, right core.Term) (core.Term, error) {
	cl, dup := Flatten(left)
	if dup {
		return nil, mismatchf("duplicate label in row %s", core.String(left))
	}
	cr, dup := Flatten(right)
	if dup {
		return nil, mismatchf("duplicate label in row %s", core.String(right))
	}

	merged := NewBuilder()
	var firstErr error
	cl.Labels.Range(func(label string, v interface{}) bool {
		merged = merged.Set(label, v)
		return true
	})
	cr.Labels.Range(func(label string, v interface{}) bool {
		if _, exists := merged.Get(label); exists {
			firstErr = mismatchf("label %q present in both sides of row concatenation", label)
			return false
		}
		merged = merged.Set(label, v)
		return true
	})
	if firstErr != nil {
		return nil, firstErr
	}

	tail := mergeTails(cl.Tail, cr.Tail)
	return ToTerm(Canon{Labels: merged.Build(), Tail: tail}), nil
}
