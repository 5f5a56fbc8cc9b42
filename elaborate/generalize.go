package elaborate

import "github.com/corelang/elaborator/core"

// Generalize marks every unbound metavariable in t introduced at a level
// deeper than level as generic, so a later use of the let-bound name gets
// its own fresh copy (spec.md §9's level-based scheme). Grounded on the
// teacher's generalize/generalizeRecursive, adapted to walk core.Term's
// node set instead of types.Type's.
//
// A meta marked Weak (introduced under the value restriction; see
// SPEC_FULL.md Supplemented Features) is never generalized here — it stays
// monomorphic until the defining expression is known to be non-expansive,
// matching forceGeneralize=false in the teacher's visitTypeVars.
func Generalize(level int, t core.Term) {
	generalizeWalk(level, t, map[*core.Meta]bool{})
}

func generalizeWalk(level int, t core.Term, seen map[*core.Meta]bool) {
	switch t := t.(type) {
	case *core.Meta:
		switch t.State {
		case core.MetaUnbound:
			if t.Weak {
				return
			}
			if t.Level > level {
				t.State = core.MetaGeneric
			}
		case core.MetaLinked:
			generalizeWalk(level, t.Link, seen)
		}

	case *core.Pi:
		generalizeWalk(level, t.ParamTy, seen)
		generalizeWalk(level, t.RetTy, seen)
	case *core.Lam:
		generalizeWalk(level, t.Body, seen)
	case *core.App:
		generalizeWalk(level, t.Fn, seen)
		generalizeWalk(level, t.Arg, seen)
	case *core.RecTy:
		generalizeWalk(level, t.Row, seen)
	case *core.VarTy:
		generalizeWalk(level, t.Row, seen)
	case *core.RowLit:
		for _, f := range t.Fields {
			generalizeWalk(level, f.Type, seen)
		}
	case *core.RowConcat:
		generalizeWalk(level, t.Left, seen)
		generalizeWalk(level, t.Right, seen)
	}
}

// instantiate builds a fresh copy of t, replacing every generic metavariable
// with a newly-allocated one at the current level. instLookup ensures two
// occurrences of the same generic meta within one t share the same fresh
// replacement, as the teacher's ti.instLookup does per-instantiation.
func instantiate(ctx *Context, t core.Term, instLookup map[int]*core.Meta) core.Term {
	switch t := t.(type) {
	case *core.Meta:
		switch t.State {
		case core.MetaGeneric:
			if fresh, ok := instLookup[t.ID]; ok {
				return fresh
			}
			fresh := ctx.FreshMeta()
			fresh.RowKind = t.RowKind
			instLookup[t.ID] = fresh
			return fresh
		case core.MetaLinked:
			return instantiate(ctx, t.Link, instLookup)
		default:
			return t
		}

	case *core.Pi:
		return &core.Pi{Param: t.Param, ParamTy: instantiate(ctx, t.ParamTy, instLookup), RetTy: instantiate(ctx, t.RetTy, instLookup)}
	case *core.Lam:
		return &core.Lam{Param: t.Param, Body: instantiate(ctx, t.Body, instLookup)}
	case *core.App:
		return &core.App{Fn: instantiate(ctx, t.Fn, instLookup), Arg: instantiate(ctx, t.Arg, instLookup), Implicit: t.Implicit}
	case *core.RecTy:
		return &core.RecTy{Row: instantiate(ctx, t.Row, instLookup)}
	case *core.VarTy:
		return &core.VarTy{Row: instantiate(ctx, t.Row, instLookup)}
	case *core.RowLit:
		fields := make([]core.RowField, len(t.Fields))
		for i, f := range t.Fields {
			fields[i] = core.RowField{Label: f.Label, Type: instantiate(ctx, f.Type, instLookup)}
		}
		return &core.RowLit{Fields: fields}
	case *core.RowConcat:
		return &core.RowConcat{Left: instantiate(ctx, t.Left, instLookup), Right: instantiate(ctx, t.Right, instLookup)}
	default:
		return t
	}
}

// Instantiate is the exported entry point used whenever a reference to a
// let-generalized binding is elaborated (spec.md §4.1/§4.5: each use site
// gets its own instance of the binding's polymorphic type).
func Instantiate(ctx *Context, t core.Term) core.Term {
	return instantiate(ctx, t, map[int]*core.Meta{})
}
