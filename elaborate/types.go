package elaborate

import (
	"fmt"

	"github.com/corelang/elaborator/ast"
	"github.com/corelang/elaborator/core"
)

// builtinPrims names the primitive types of spec.md §3 that resolve
// directly to a core.Primitive kind rather than a user definition.
var builtinPrims = map[string]core.PrimKind{
	"string":  core.PrimString,
	"number":  core.PrimNumber,
	"bigint":  core.PrimBigint,
	"boolean": core.PrimBool,
	"unit":    core.PrimUnit,
}

// ElabType translates a surface type expression into a core.Term, resolving
// RefType names against env's implicit-parameter scope first and the
// global alias table second, per spec.md §4.2's type-formation rules.
func ElabType(ctx *Context, env *TypeEnv, t ast.Type) (core.Term, error) {
	switch t := t.(type) {
	case *ast.RefType:
		if len(t.Qualifier) == 0 {
			if pk, ok := builtinPrims[t.Name]; ok {
				return &core.Primitive{PKind: pk}, nil
			}
			if bound, ok := env.LookupType(t.Name); ok {
				return bound, nil
			}
			if alias, ok := ctx.Aliases[t.Name]; ok && len(alias.Params) == 0 {
				return alias.Body(nil), nil
			}
		}
		// A qualified or otherwise unbound name is assumed to be an opaque
		// user type postulated or aliased elsewhere; represent it as a Ref so
		// later definitional-equality checks compare by identity.
		return core.NewRef(core.GlobalID{Name: t.Name}), nil

	case *ast.AppType:
		head, ok := t.Head.(*ast.RefType)
		if !ok {
			return nil, fmt.Errorf("type application head must be a named type")
		}
		if alias, ok := ctx.Aliases[head.Name]; ok && len(alias.Params) == len(t.Args) {
			args := make([]core.Term, len(t.Args))
			for i, a := range t.Args {
				at, err := ElabType(ctx, env, a)
				if err != nil {
					return nil, err
				}
				args[i] = at
			}
			return alias.Body(args), nil
		}
		headTy, err := ElabType(ctx, env, t.Head)
		if err != nil {
			return nil, err
		}
		result := headTy
		for _, a := range t.Args {
			at, err := ElabType(ctx, env, a)
			if err != nil {
				return nil, err
			}
			result = &core.App{Fn: result, Arg: at, Implicit: false}
		}
		return result, nil

	case *ast.FuncType:
		ret, err := ElabType(ctx, env, t.Ret)
		if err != nil {
			return nil, err
		}
		result := ret
		for i := len(t.Params) - 1; i >= 0; i-- {
			pty, err := ElabType(ctx, env, t.Params[i].Type)
			if err != nil {
				return nil, err
			}
			name := t.Params[i].Name
			if name == "" {
				name = fmt.Sprintf("_arg%d", i)
			}
			result = &core.Pi{Param: core.ParamInfo{Name: name}, ParamTy: pty, RetTy: result}
		}
		return result, nil

	case *ast.RecordType:
		row, err := elabRow(ctx, env, t.Fields, t.Tail)
		if err != nil {
			return nil, err
		}
		return &core.RecTy{Row: row}, nil

	case *ast.VariantType:
		fields := make([]ast.FieldType, len(t.Cases))
		for i, c := range t.Cases {
			payload := c.Payload
			if payload == nil {
				payload = &ast.RefType{Name: "unit"}
			}
			fields[i] = ast.FieldType{Label: c.Label, Type: payload}
		}
		row, err := elabRow(ctx, env, fields, t.Tail)
		if err != nil {
			return nil, err
		}
		return &core.VarTy{Row: row}, nil

	case *ast.RowVarType:
		if bound, ok := env.LookupType(t.Name); ok {
			return bound, nil
		}
		return &core.RowVar{Name: t.Name}, nil
	}
	return nil, fmt.Errorf("unhandled surface type %T", t)
}

func elabRow(ctx *Context, env *TypeEnv, fields []ast.FieldType, tailName string) (core.Term, error) {
	rowFields := make([]core.RowField, len(fields))
	for i, f := range fields {
		ft, err := ElabType(ctx, env, f.Type)
		if err != nil {
			return nil, err
		}
		rowFields[i] = core.RowField{Label: f.Label, Type: ft}
	}
	var tail core.Term = core.Empty()
	if tailName != "" {
		if bound, ok := env.LookupType(tailName); ok {
			tail = bound
		} else {
			tail = &core.RowVar{Name: tailName}
		}
	}
	if len(rowFields) == 0 {
		return tail, nil
	}
	return &core.RowConcat{Left: &core.RowLit{Fields: rowFields}, Right: tail}, nil
}

// ElabTypeAlias registers a `type Name<Params...> = Body` definition so a
// later ElabType lookup of Name, bare or applied, expands to Body (spec.md
// §3). Body is elaborated once against placeholder Vars standing for its
// own parameters; each later application substitutes those Vars for the
// supplied arguments rather than re-elaborating the surface Body each
// time. A self- or forward-reference to Name inside Body itself resolves
// through ElabType's own opaque-Ref fallback for an unbound name, since
// this alias is not registered until after Body is elaborated — the same
// mechanism recorded for recursive type groups in DESIGN.md.
func ElabTypeAlias(ctx *Context, globalEnv *TypeEnv, d *ast.TypeAlias) error {
	env := globalEnv.Child()
	names := make([]string, len(d.ImplicitParams))
	for i, p := range d.ImplicitParams {
		names[i] = p.Name
		env.BindType(p.Name, core.NewVar(p.Name), false)
	}
	body, err := ElabType(ctx, env, d.Body)
	if err != nil {
		return err
	}
	ctx.Aliases[d.Name] = &AliasDef{
		Params: names,
		Body: func(args []core.Term) core.Term {
			result := body
			for i, name := range names {
				result = core.Subst(result, name, args[i])
			}
			return result
		},
	}
	return nil
}

// ElabImplicitParams binds each implicit parameter of the current
// definition into env: an Arity-0 parameter becomes a bound type Var, an
// Arity>0 parameter becomes a Var standing for a type constructor
// (spec.md §9's restricted kind language), consulted by App-kind checking
// rather than enforced structurally here.
func ElabImplicitParams(env *TypeEnv, params []ast.ImplicitParam) []core.ParamInfo {
	out := make([]core.ParamInfo, len(params))
	for i, p := range params {
		env.BindType(p.Name, core.NewVar(p.Name), false)
		out[i] = core.ParamInfo{Name: p.Name, Implicit: true}
	}
	return out
}
