package elaborate

import (
	"fmt"

	"github.com/corelang/elaborator/ast"
	"github.com/corelang/elaborator/core"
)

// ElabBlock elaborates a statement sequence in infer mode. There is no
// dedicated Let node in the core calculus (SPEC_FULL.md keeps the core
// small), so `let x = e1; rest` lowers to `(\x. rest) e1`, and a bare
// expression statement lowers to `(\_. rest) e1`, matching how the
// teacher's Let/Call nodes are themselves just sugar over application.
func ElabBlock(ctx *Context, env *TypeEnv, b *ast.Block) (core.Term, core.Term, error) {
	return elabStmts(ctx, env, b.Stmts)
}

func elabStmts(ctx *Context, env *TypeEnv, stmts []ast.Stmt) (core.Term, core.Term, error) {
	if len(stmts) == 0 {
		return &core.Primitive{PKind: core.PrimUnit, Value: "unit"}, &core.Primitive{PKind: core.PrimUnit}, nil
	}

	switch s := stmts[0].(type) {
	case *ast.LetStmt:
		ctx.EnterLevel()
		var valueTerm, valueTy core.Term
		var err error
		if s.Type != nil {
			declared, terr := ElabType(ctx, env, s.Type)
			if terr != nil {
				ctx.ExitLevel()
				return nil, nil, terr
			}
			valueTerm, err = Check(ctx, env, s.Value, declared)
			valueTy = declared
		} else {
			valueTerm, valueTy, err = Infer(ctx, env, s.Value)
		}
		ctx.ExitLevel()
		if err != nil {
			return nil, nil, err
		}
		Generalize(ctx.Level, valueTy)

		inner := env.Child()
		inner.BindValue(s.Name, valueTy)
		restTerm, restTy, err := elabStmts(ctx, inner, stmts[1:])
		if err != nil {
			return nil, nil, err
		}
		return &core.App{Fn: &core.Lam{Param: core.ParamInfo{Name: s.Name}, Body: restTerm}, Arg: valueTerm}, restTy, nil

	case *ast.ReturnStmt:
		if s.Value == nil {
			return &core.Primitive{PKind: core.PrimUnit, Value: "unit"}, &core.Primitive{PKind: core.PrimUnit}, nil
		}
		return Infer(ctx, env, s.Value)

	case *ast.ExprStmt:
		valueTerm, _, err := Infer(ctx, env, s.Value)
		if err != nil {
			return nil, nil, err
		}
		if len(stmts) == 1 {
			return valueTerm, &core.Primitive{PKind: core.PrimUnit}, nil
		}
		restTerm, restTy, err := elabStmts(ctx, env, stmts[1:])
		if err != nil {
			return nil, nil, err
		}
		return &core.App{Fn: &core.Lam{Param: core.ParamInfo{Name: "_"}, Body: restTerm}, Arg: valueTerm}, restTy, nil
	}
	return nil, nil, fmt.Errorf("unhandled statement %T", stmts[0])
}

// CheckBlock elaborates a block against an expected result type, needed
// when a block appears where the context already knows its type (a lambda
// body checked against a Pi, an if-arm checked against the other arm's
// type).
func CheckBlock(ctx *Context, env *TypeEnv, b *ast.Block, expected core.Term) (core.Term, error) {
	term, ty, err := ElabBlock(ctx, env, b)
	if err != nil {
		return nil, err
	}
	if err := ctx.Engine.Unify(ty, expected); err != nil {
		return nil, err
	}
	return term, nil
}
