package elaborate

import (
	"fmt"

	"github.com/corelang/elaborator/core"
	"github.com/corelang/elaborator/dispatch"
)

// ResolveOverloads walks t replacing every OvRef with the concrete Ref its
// interface dispatch resolves to (spec.md §4.6's search), or recording it
// on ctx.Pending as a stuck predicate when its carrier is still abstract
// but constrained by an enclosing `where` clause. When allowDefer is
// false, a carrier that would otherwise defer is instead reported as an
// error immediately, the conservative mode WithDeferredInstanceMatching(false)
// asks for.
func ResolveOverloads(ctx *Context, t core.Term, allowDefer bool) (core.Term, error) {
	resolver := dispatch.NewResolver(ctx.Registry, ctx.Engine, ctx.OpenCarriers())
	return resolveOverloads(ctx, resolver, t, allowDefer)
}

func resolveOverloads(ctx *Context, resolver *dispatch.Resolver, t core.Term, allowDefer bool) (core.Term, error) {
	if t == nil {
		return nil, nil
	}
	switch t := t.(type) {
	case *core.OvRef:
		outcome, err := resolver.Resolve(t)
		if err != nil {
			return nil, err
		}
		if outcome.Resolved != nil {
			return outcome.Resolved, nil
		}
		if !allowDefer {
			return nil, fmt.Errorf("interface %q::%s is stuck on an abstract carrier and deferred instance matching is disabled", t.InterfaceID, t.Method)
		}
		ctx.Defer(outcome.Deferred)
		return t, nil

	case *core.Var, *core.Ref, *core.Univ, *core.Hole, *core.Primitive, *core.Meta,
		*core.RowEmpty, *core.RowVar:
		return t, nil

	case *core.Lam:
		body, err := resolveOverloads(ctx, resolver, t.Body, allowDefer)
		if err != nil {
			return nil, err
		}
		return &core.Lam{Param: t.Param, Body: body}, nil

	case *core.Pi:
		paramTy, err := resolveOverloads(ctx, resolver, t.ParamTy, allowDefer)
		if err != nil {
			return nil, err
		}
		retTy, err := resolveOverloads(ctx, resolver, t.RetTy, allowDefer)
		if err != nil {
			return nil, err
		}
		return &core.Pi{Param: t.Param, ParamTy: paramTy, RetTy: retTy}, nil

	case *core.App:
		fn, err := resolveOverloads(ctx, resolver, t.Fn, allowDefer)
		if err != nil {
			return nil, err
		}
		arg, err := resolveOverloads(ctx, resolver, t.Arg, allowDefer)
		if err != nil {
			return nil, err
		}
		return &core.App{Fn: fn, Arg: arg, Implicit: t.Implicit}, nil

	case *core.RecTy:
		row, err := resolveOverloads(ctx, resolver, t.Row, allowDefer)
		if err != nil {
			return nil, err
		}
		return &core.RecTy{Row: row}, nil

	case *core.VarTy:
		row, err := resolveOverloads(ctx, resolver, t.Row, allowDefer)
		if err != nil {
			return nil, err
		}
		return &core.VarTy{Row: row}, nil

	case *core.RecLit:
		fields := make([]core.Field, len(t.Fields))
		for i, f := range t.Fields {
			v, err := resolveOverloads(ctx, resolver, f.Value, allowDefer)
			if err != nil {
				return nil, err
			}
			fields[i] = core.Field{Label: f.Label, Value: v}
		}
		return &core.RecLit{Fields: fields}, nil

	case *core.RecProj:
		rec, err := resolveOverloads(ctx, resolver, t.Record, allowDefer)
		if err != nil {
			return nil, err
		}
		return &core.RecProj{Record: rec, Label: t.Label}, nil

	case *core.RecConcat:
		left, err := resolveOverloads(ctx, resolver, t.Left, allowDefer)
		if err != nil {
			return nil, err
		}
		right, err := resolveOverloads(ctx, resolver, t.Right, allowDefer)
		if err != nil {
			return nil, err
		}
		return &core.RecConcat{Left: left, Right: right}, nil

	case *core.RecCast:
		rec, err := resolveOverloads(ctx, resolver, t.Record, allowDefer)
		if err != nil {
			return nil, err
		}
		return &core.RecCast{Record: rec}, nil

	case *core.VarIntro:
		var p core.Term
		if t.Payload != nil {
			var err error
			p, err = resolveOverloads(ctx, resolver, t.Payload, allowDefer)
			if err != nil {
				return nil, err
			}
		}
		return &core.VarIntro{Label: t.Label, Payload: p}, nil

	case *core.VarCast:
		v, err := resolveOverloads(ctx, resolver, t.Variant, allowDefer)
		if err != nil {
			return nil, err
		}
		return &core.VarCast{Variant: v}, nil

	case *core.Switch:
		scrut, err := resolveOverloads(ctx, resolver, t.Scrutinee, allowDefer)
		if err != nil {
			return nil, err
		}
		cases := make([]core.SwitchCase, len(t.Cases))
		for i, c := range t.Cases {
			body, err := resolveOverloads(ctx, resolver, c.Body, allowDefer)
			if err != nil {
				return nil, err
			}
			cases[i] = core.SwitchCase{Label: c.Label, PayloadName: c.PayloadName, Body: body}
		}
		return &core.Switch{Scrutinee: scrut, Cases: cases}, nil

	case *core.If:
		cond, err := resolveOverloads(ctx, resolver, t.Cond, allowDefer)
		if err != nil {
			return nil, err
		}
		then, err := resolveOverloads(ctx, resolver, t.Then, allowDefer)
		if err != nil {
			return nil, err
		}
		els, err := resolveOverloads(ctx, resolver, t.Else, allowDefer)
		if err != nil {
			return nil, err
		}
		return &core.If{Cond: cond, Then: then, Else: els}, nil

	case *core.RowLit:
		fields := make([]core.RowField, len(t.Fields))
		for i, f := range t.Fields {
			ty, err := resolveOverloads(ctx, resolver, f.Type, allowDefer)
			if err != nil {
				return nil, err
			}
			fields[i] = core.RowField{Label: f.Label, Type: ty}
		}
		return &core.RowLit{Fields: fields}, nil

	case *core.RowConcat:
		left, err := resolveOverloads(ctx, resolver, t.Left, allowDefer)
		if err != nil {
			return nil, err
		}
		right, err := resolveOverloads(ctx, resolver, t.Right, allowDefer)
		if err != nil {
			return nil, err
		}
		return &core.RowConcat{Left: left, Right: right}, nil
	}
	return t, nil
}
