// Package construct offers small builder functions for core.Term and
// ast nodes, used by this repository's own tests to assemble fixtures
// tersely instead of writing out every struct literal field. Grounded on
// the teacher's construct package (TVar/TArrow/TRecord/... helpers for
// types.Type and ast.Expr), adapted to core.Term and this module's ast.
package construct

import (
	"github.com/corelang/elaborator/ast"
	"github.com/corelang/elaborator/core"
)

// Types

func TVar(name string) *core.Var { return core.NewVar(name) }

func TPrim(kind core.PrimKind) *core.Primitive { return &core.Primitive{PKind: kind} }

func TArrow(arg, ret core.Term) *core.Pi {
	return &core.Pi{Param: core.ParamInfo{Name: "_"}, ParamTy: arg, RetTy: ret}
}

func TArrowN(args []core.Term, ret core.Term) core.Term {
	t := ret
	for i := len(args) - 1; i >= 0; i-- {
		t = &core.Pi{Param: core.ParamInfo{Name: "_"}, ParamTy: args[i], RetTy: t}
	}
	return t
}

func TRecord(row core.Term) *core.RecTy { return &core.RecTy{Row: row} }

func TVariant(row core.Term) *core.VarTy { return &core.VarTy{Row: row} }

func TRowEmpty() core.Term { return core.Empty() }

func TRow(fields ...core.RowField) *core.RowLit { return &core.RowLit{Fields: fields} }

func Field(label string, t core.Term) core.RowField { return core.RowField{Label: label, Type: t} }

// Expressions

func Ident(name string) *ast.IdentExpr { return &ast.IdentExpr{Name: name} }

func ResolvedLocal(name string) *ast.IdentExpr {
	return &ast.IdentExpr{Name: name, Resolved: &ast.Resolution{Kind: ast.ResLocal, Name: name}}
}

func Call(fn ast.Expr, args ...ast.Expr) *ast.CallExpr {
	return &ast.CallExpr{Fn: fn, Args: args}
}

func Lambda(params []string, body *ast.Block) *ast.LambdaExpr {
	ps := make([]ast.Param, len(params))
	for i, p := range params {
		ps[i] = ast.Param{Name: p}
	}
	return &ast.LambdaExpr{Params: ps, Body: body}
}

func Block(stmts ...ast.Stmt) *ast.Block { return &ast.Block{Stmts: stmts} }

func Return(e ast.Expr) *ast.ReturnStmt { return &ast.ReturnStmt{Value: e} }

func Let(name string, value ast.Expr) *ast.LetStmt { return &ast.LetStmt{Name: name, Value: value} }
