// Package zonk implements the finalization pass of spec.md §4.7: once a
// definition's body has been elaborated, every metavariable introduced
// while checking it must be resolved to a concrete term (after applying
// whatever the unifier solved) or reported as an error. Grounded on the
// teacher's Generalize/GeneralizeRefs (generalize.go) for the
// walk-every-node shape, and on VarTracker.FlattenLinks (metas.Store) for
// path compression before the walk.
package zonk

import (
	"fmt"

	"github.com/corelang/elaborator/core"
)

// Result collects the finalized term plus every defect found while
// zonking it, so the caller can report all of them for one definition
// rather than stopping at the first (spec.md §7's "continue past a single
// failed definition").
type Result struct {
	Term            core.Term
	UnresolvedMetas []UnresolvedMeta
}

// UnresolvedMeta is one metavariable that reached the end of elaboration
// still unbound, a name resolution/type-checking defect under spec.md
// §4.7 ("every meta introduced during checking of a definition must be
// solved by the time that definition's elaboration completes").
type UnresolvedMeta struct {
	ID      int
	RowKind bool
}

// Zonk walks t, replacing every solved metavariable with its solution and
// recording every metavariable that is still unbound. It does not mutate
// t's unbound metas; those remain live in the Store in case a later
// definition solves them further (spec.md §4.7 only requires that no
// unresolved meta survives within the definition whose elaboration just
// finished, not that the Store itself is cleared).
func Zonk(t core.Term) Result {
	r := &Result{}
	r.Term = zonk(t, r)
	return *r
}

func zonk(t core.Term, r *Result) core.Term {
	if t == nil {
		return nil
	}
	switch t := t.(type) {
	case *core.Meta:
		switch t.State {
		case core.MetaLinked:
			return zonk(t.Link, r)
		case core.MetaUnbound:
			r.UnresolvedMetas = append(r.UnresolvedMetas, UnresolvedMeta{ID: t.ID, RowKind: t.RowKind})
			return t
		default:
			return t
		}

	case *core.Var, *core.Ref, *core.Univ, *core.Hole, *core.Primitive, *core.RowEmpty, *core.RowVar:
		return t

	case *core.Lam:
		return &core.Lam{Param: t.Param, Body: zonk(t.Body, r)}
	case *core.Pi:
		return &core.Pi{Param: t.Param, ParamTy: zonk(t.ParamTy, r), RetTy: zonk(t.RetTy, r)}
	case *core.App:
		return &core.App{Fn: zonk(t.Fn, r), Arg: zonk(t.Arg, r), Implicit: t.Implicit}
	case *core.RecTy:
		return &core.RecTy{Row: zonk(t.Row, r)}
	case *core.VarTy:
		return &core.VarTy{Row: zonk(t.Row, r)}
	case *core.RecLit:
		fields := make([]core.Field, len(t.Fields))
		for i, f := range t.Fields {
			fields[i] = core.Field{Label: f.Label, Value: zonk(f.Value, r)}
		}
		return &core.RecLit{Fields: fields}
	case *core.RecProj:
		return &core.RecProj{Record: zonk(t.Record, r), Label: t.Label}
	case *core.RecConcat:
		return &core.RecConcat{Left: zonk(t.Left, r), Right: zonk(t.Right, r)}
	case *core.RecCast:
		return &core.RecCast{Record: zonk(t.Record, r)}
	case *core.VarIntro:
		var p core.Term
		if t.Payload != nil {
			p = zonk(t.Payload, r)
		}
		return &core.VarIntro{Label: t.Label, Payload: p}
	case *core.VarCast:
		return &core.VarCast{Variant: zonk(t.Variant, r)}
	case *core.Switch:
		cases := make([]core.SwitchCase, len(t.Cases))
		for i, c := range t.Cases {
			cases[i] = core.SwitchCase{Label: c.Label, PayloadName: c.PayloadName, Body: zonk(c.Body, r)}
		}
		return &core.Switch{Scrutinee: zonk(t.Scrutinee, r), Cases: cases}
	case *core.If:
		return &core.If{Cond: zonk(t.Cond, r), Then: zonk(t.Then, r), Else: zonk(t.Else, r)}
	case *core.OvRef:
		kindArgs := make([]core.Term, len(t.KindArgs))
		for i, k := range t.KindArgs {
			kindArgs[i] = zonk(k, r)
		}
		return &core.OvRef{InterfaceID: t.InterfaceID, Method: t.Method, KindArgs: kindArgs, Carrier: zonk(t.Carrier, r)}
	case *core.RowLit:
		fields := make([]core.RowField, len(t.Fields))
		for i, f := range t.Fields {
			fields[i] = core.RowField{Label: f.Label, Type: zonk(f.Type, r)}
		}
		return &core.RowLit{Fields: fields}
	case *core.RowConcat:
		return &core.RowConcat{Left: zonk(t.Left, r), Right: zonk(t.Right, r)}
	}
	return t
}

// CheckComplete converts a Result into an error listing every unresolved
// metavariable's identity, for a caller that wants one combined diagnostic
// per definition rather than per-meta reporting.
func CheckComplete(r Result) error {
	if len(r.UnresolvedMetas) == 0 {
		return nil
	}
	kind := "type"
	if r.UnresolvedMetas[0].RowKind {
		kind = "row"
	}
	return fmt.Errorf("%d unresolved %s metavariable(s) remain after elaboration, starting with ?%d", len(r.UnresolvedMetas), kind, r.UnresolvedMetas[0].ID)
}

// ZonkDefinition finalizes both the type and (if present) the body of a
// definition in place, returning the combined unresolved-meta list.
func ZonkDefinition(d *core.Definition) []UnresolvedMeta {
	typeResult := Zonk(d.Type)
	d.Type = typeResult.Term
	all := typeResult.UnresolvedMetas
	if d.Body != nil {
		bodyResult := Zonk(d.Body)
		d.Body = bodyResult.Term
		all = append(all, bodyResult.UnresolvedMetas...)
	}
	return all
}
