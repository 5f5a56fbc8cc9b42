// Package unify implements the unification engine of spec.md §4.3: weak-head
// normalisation, structural recursion, occurs-checked metavariable solving,
// and delegation to package rows for row-shaped subterms. It mirrors the
// teacher's commonContext.unify almost line for line, generalised from
// poly's closed set of type constructors to this repository's core.Term
// grammar (Pi/App/RecTy/VarTy/Primitive/...).
package unify

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/corelang/elaborator/core"
	"github.com/corelang/elaborator/metas"
	"github.com/corelang/elaborator/rows"
)

// Engine owns the meta store used while unifying. One Engine is shared by an
// entire Elaborate run, same lifetime as the teacher's commonContext.
type Engine struct {
	Store *metas.Store
}

func New(store *metas.Store) *Engine { return &Engine{Store: store} }

// isRow reports whether t is one of the four row-shaped term kinds, which
// unify dispatches to package rows instead of comparing structurally here.
func isRow(t core.Term) bool {
	switch t.(type) {
	case *core.RowEmpty, *core.RowVar, *core.RowLit, *core.RowConcat:
		return true
	default:
		return false
	}
}

// Unify solves a = b per spec.md §4.3's algorithm, mutating the meta store
// in place. Returns a wrapped error describing the first mismatch found.
func (e *Engine) Unify(a, b core.Term) error {
	a, b = core.Deref(a), core.Deref(b)
	if a == b {
		return nil
	}

	avar, aIsMeta := a.(*core.Meta)
	bvar, bIsMeta := b.(*core.Meta)
	switch {
	case !aIsMeta && bIsMeta:
		return e.Unify(b, a)
	case aIsMeta:
		return e.unifyMeta(avar, b, bvar, bIsMeta)
	}

	if isRow(a) || isRow(b) {
		return e.unifyRow(a, b)
	}

	if a.Kind() != b.Kind() {
		return fmt.Errorf("cannot unify %s with %s", core.String(a), core.String(b))
	}

	switch a := a.(type) {
	case *core.Var:
		b := b.(*core.Var)
		if a.Name != b.Name {
			return fmt.Errorf("cannot unify variable %s with %s", a.Name, b.Name)
		}
		return nil

	case *core.Ref:
		b := b.(*core.Ref)
		if a.Target != b.Target {
			return fmt.Errorf("cannot unify %s::%s with %s::%s", a.Target.Module, a.Target.Name, b.Target.Module, b.Target.Name)
		}
		return nil

	case *core.Univ:
		return nil

	case *core.Hole:
		return nil

	case *core.Primitive:
		b := b.(*core.Primitive)
		if a.PKind != b.PKind {
			return errors.New("cannot unify primitives of different kind")
		}
		return nil

	case *core.App:
		b := b.(*core.App)
		if a.Implicit != b.Implicit {
			return errors.New("cannot unify implicit application with explicit application")
		}
		if err := e.Unify(a.Fn, b.Fn); err != nil {
			return errors.WithMessage(err, "application head")
		}
		return errors.WithMessage(e.Unify(a.Arg, b.Arg), "application argument")

	case *core.Pi:
		b := b.(*core.Pi)
		if err := e.Unify(a.ParamTy, b.ParamTy); err != nil {
			return errors.WithMessage(err, "parameter type")
		}
		retB := core.Subst(b.RetTy, b.Param.Name, core.NewVar(a.Param.Name))
		return errors.WithMessage(e.Unify(a.RetTy, retB), "return type")

	case *core.Lam:
		b := b.(*core.Lam)
		bodyB := core.Subst(b.Body, b.Param.Name, core.NewVar(a.Param.Name))
		return e.Unify(a.Body, bodyB)

	case *core.RecTy:
		b := b.(*core.RecTy)
		return e.unifyRow(a.Row, b.Row)

	case *core.VarTy:
		b := b.(*core.VarTy)
		return e.unifyRow(a.Row, b.Row)

	case *core.OvRef:
		return errors.New("cannot unify an unresolved overloaded reference; resolve predicates first")

	default:
		return fmt.Errorf("cannot unify terms of kind %s", a.Kind())
	}
}

func (e *Engine) unifyMeta(m *core.Meta, other core.Term, otherMeta *core.Meta, otherIsMeta bool) error {
	if m.State == core.MetaGeneric {
		return errors.New("generic metavariable was not instantiated before unification")
	}
	if otherIsMeta {
		if otherMeta.State == core.MetaUnbound && m.ID == otherMeta.ID {
			return errors.New("implicitly recursive type detected during unification")
		}
		if m.Weak || otherMeta.Weak {
			m.Weak, otherMeta.Weak = true, true
		}
	}
	if err := e.occursAdjustLevels(m.ID, m.Level, other); err != nil {
		return err
	}
	e.Store.Link(m, other)
	return nil
}

// occursAdjustLevels is the occurs check of spec.md §4.3 step 3: walks other
// looking for a reference back to id, failing if found, and otherwise lowers
// every metavariable level it finds to at most level so a solved meta never
// outlives the scope it was introduced in. Mirrors the teacher's
// occursAdjustLevels.
func (e *Engine) occursAdjustLevels(id, level int, t core.Term) error {
	t = core.Deref(t)
	switch t := t.(type) {
	case *core.Meta:
		if t.State == core.MetaGeneric {
			return errors.New("generic metavariable escaped instantiation during occurs check")
		}
		if t.ID == id {
			return errors.New("implicitly recursive type: meta occurs in its own solution")
		}
		if t.Level > level {
			e.Store.AdjustLevel(t, level)
		}
		return nil
	case *core.App:
		if err := e.occursAdjustLevels(id, level, t.Fn); err != nil {
			return err
		}
		return e.occursAdjustLevels(id, level, t.Arg)
	case *core.Pi:
		if err := e.occursAdjustLevels(id, level, t.ParamTy); err != nil {
			return err
		}
		return e.occursAdjustLevels(id, level, t.RetTy)
	case *core.Lam:
		return e.occursAdjustLevels(id, level, t.Body)
	case *core.RecTy:
		return e.occursAdjustLevels(id, level, t.Row)
	case *core.VarTy:
		return e.occursAdjustLevels(id, level, t.Row)
	case *core.RowLit:
		for _, f := range t.Fields {
			if err := e.occursAdjustLevels(id, level, f.Type); err != nil {
				return err
			}
		}
		return nil
	case *core.RowConcat:
		if err := e.occursAdjustLevels(id, level, t.Left); err != nil {
			return err
		}
		return e.occursAdjustLevels(id, level, t.Right)
	default:
		return nil
	}
}

// unifyRow delegates to package rows, passing this Engine's own Unify method
// back in as the field/tail unifier callback. This is the seam that avoids
// an import cycle between unify and rows (see rows.UnifyField's doc).
func (e *Engine) unifyRow(a, b core.Term) error {
	return rows.Equal(e.Store, e.currentLevel(a, b), e.Unify, e.Unify, a, b)
}

// currentLevel picks the binding level a freshly-allocated "rest of the row"
// metavariable should get: a's level when a is a metavariable, else b's
// level when b is one, otherwise metas.TopLevel; the two levels are not
// compared. Mirrors the level the teacher passes
// to varTracker.New inside unifyRows (ra.Level()).
func (e *Engine) currentLevel(a, b core.Term) int {
	if m, ok := core.Deref(a).(*core.Meta); ok {
		return m.Level
	}
	if m, ok := core.Deref(b).(*core.Meta); ok {
		return m.Level
	}
	return metas.TopLevel
}

// CanUnify probes whether a and b unify without leaving any side effect,
// mirroring the teacher's canUnify (used by instance search and method
// dispatch to try candidates speculatively).
func (e *Engine) CanUnify(a, b core.Term) bool {
	return e.Store.Speculate(func() bool { return e.Unify(a, b) == nil })
}

// Subrow solves sub <: super (spec.md §4.4 Row-Subrow), delegating to
// package rows the same way unifyRow does for equality.
func (e *Engine) Subrow(sub, super core.Term) error {
	return rows.Subrow(e.Unify, e.Unify, sub, super)
}

// Concat solves left + right = result (spec.md §4.4 Row-Concat).
func (e *Engine) Concat(left, right core.Term) (core.Term, error) {
	return rows.Concat(left, right)
}
