// Package resolve implements the name resolver of spec.md §4.1: it maps
// every identifier occurrence in the surface parse tree to one of
// {global-ref, local, parameter, builtin, overloaded-method, unknown},
// writing the result onto each ast.IdentExpr in place. Grounded on the
// teacher pack's erizocosmico-tangram resolver (parser/resolve.go), which
// walks the same lexical chain (local -> params -> file-global ->
// imports) and mutates ast nodes with a resolved *Object rather than
// building a side table.
package resolve

import (
	"fmt"

	"github.com/corelang/elaborator/ast"
	"github.com/corelang/elaborator/diag"
)

// Builtins are the reserved names of spec.md §6.3, always resolvable
// regardless of import state.
var Builtins = map[string]bool{
	"unionify":       true,
	"number#__add__": true,
	"number#__sub__": true,
	"string#__add__": true,
}

// Resolver holds the file-global symbol tables built from a Program before
// any identifier is resolved, plus the running diagnostic batch.
type Resolver struct {
	// globals maps every definition name to its kind, used to resolve
	// unqualified names that fall through to file-global scope.
	globals map[string]ast.DefKind
	// methodInterface maps a method name declared inside an InterfaceDef
	// to that interface's name, used to tag interface-method occurrences
	// as overloaded rather than direct global references (spec.md §4.1,
	// §9 "interface method access must be distinguishable from record
	// projection").
	methodInterface map[string]string
	// imported holds names pulled in via `from mod import { a, b }`,
	// keyed by local name; Import records which import introduced it, for
	// diagnostics only.
	imported map[string]ast.Import

	errs *diag.Batch
}

// New builds a Resolver's symbol tables from prog's definitions and
// imports. It does not itself walk expressions; call Resolve for that.
func New(prog *ast.Program, errs *diag.Batch) *Resolver {
	r := &Resolver{
		globals:         map[string]ast.DefKind{},
		methodInterface: map[string]string{},
		imported:        map[string]ast.Import{},
		errs:            errs,
	}
	for _, d := range prog.Defs {
		r.globals[d.DefName()] = d.DefKind()
		if iface, ok := d.(*ast.InterfaceDef); ok {
			for _, m := range iface.Methods {
				r.methodInterface[m.Name] = iface.Name
			}
		}
	}
	for _, imp := range prog.Imports {
		for _, name := range imp.Names {
			r.imported[name] = imp
		}
	}
	return r
}

// Resolve walks every definition in prog, tagging each IdentExpr in place.
func (r *Resolver) Resolve(prog *ast.Program) {
	root := newRootScope()
	for _, d := range prog.Defs {
		r.resolveDef(root, d)
	}
}

func (r *Resolver) resolveDef(root *Scope, d ast.Def) {
	switch d := d.(type) {
	case *ast.FnDef:
		r.resolveFnLike(root, d.ImplicitParams, d.Params, d.Body)
	case *ast.FnPostulate:
		// no body to resolve
	case *ast.ClassDef:
		if d.Init != nil {
			scope := root.ChildParams()
			for _, f := range d.Fields {
				scope.Declare(f.Name)
			}
			r.resolveBlock(scope, d.Init)
		}
		for _, m := range d.Methods {
			r.resolveFnLike(root, m.ImplicitParams, m.Params, m.Body)
		}
	case *ast.ImplementsDef:
		for _, m := range d.Methods {
			r.resolveFnLike(root, m.ImplicitParams, m.Params, m.Body)
		}
	case *ast.ConstDef:
		if d.Value != nil {
			r.resolveExpr(root, d.Value)
		}
	case *ast.TypeAlias, *ast.TypePostulate, *ast.InterfaceDef:
		// no expression body
	}
}

func (r *Resolver) resolveFnLike(root *Scope, implicits []ast.ImplicitParam, params []ast.Param, body *ast.Block) {
	if body == nil {
		return
	}
	scope := root.ChildParams()
	for _, p := range params {
		scope.Declare(p.Name)
	}
	r.resolveBlock(scope, body)
}

func (r *Resolver) resolveBlock(scope *Scope, b *ast.Block) {
	inner := scope.Child()
	for _, stmt := range b.Stmts {
		r.resolveStmt(inner, stmt)
	}
}

func (r *Resolver) resolveStmt(scope *Scope, stmt ast.Stmt) {
	switch stmt := stmt.(type) {
	case *ast.LetStmt:
		r.resolveExpr(scope, stmt.Value)
		scope.Declare(stmt.Name)
	case *ast.ReturnStmt:
		if stmt.Value != nil {
			r.resolveExpr(scope, stmt.Value)
		}
	case *ast.ExprStmt:
		r.resolveExpr(scope, stmt.Value)
	}
}

func (r *Resolver) resolveExpr(scope *Scope, e ast.Expr) {
	switch e := e.(type) {
	case *ast.LitExpr:
		// nothing to resolve

	case *ast.IdentExpr:
		r.resolveIdent(scope, e)

	case *ast.CallExpr:
		r.resolveExpr(scope, e.Fn)
		for _, a := range e.Args {
			r.resolveExpr(scope, a)
		}

	case *ast.MethodCallExpr:
		r.resolveExpr(scope, e.Receiver)
		for _, a := range e.Args {
			r.resolveExpr(scope, a)
		}

	case *ast.LambdaExpr:
		inner := scope.ChildParams()
		for _, p := range e.Params {
			inner.Declare(p.Name)
		}
		r.resolveBlock(inner, e.Body)

	case *ast.Block:
		r.resolveBlock(scope, e)

	case *ast.ObjectLitExpr:
		for _, f := range e.Fields {
			r.resolveExpr(scope, f.Value)
		}

	case *ast.ObjectConcatExpr:
		r.resolveExpr(scope, e.Left)
		r.resolveExpr(scope, e.Right)

	case *ast.ObjectCastExpr:
		r.resolveExpr(scope, e.Value)

	case *ast.RecordSelectExpr:
		r.resolveExpr(scope, e.Record)

	case *ast.VariantExpr:
		if e.Payload != nil {
			r.resolveExpr(scope, e.Payload)
		}

	case *ast.VariantCastExpr:
		r.resolveExpr(scope, e.Value)

	case *ast.SwitchExpr:
		r.resolveExpr(scope, e.Scrutinee)
		for _, c := range e.Cases {
			inner := scope.Child()
			if c.Var != "" {
				inner.Declare(c.Var)
			}
			r.resolveExpr(inner, c.Body)
		}

	case *ast.IfExpr:
		r.resolveExpr(scope, e.Cond)
		r.resolveBlock(scope, e.Then)
		if e.Else != nil {
			r.resolveBlock(scope, e.Else)
		}

	case *ast.PipeExpr:
		r.resolveExpr(scope, e.Left)
		r.resolveExpr(scope, e.Call)

	case *ast.NewExpr:
		for _, a := range e.Args {
			r.resolveExpr(scope, a)
		}

	case *ast.BinaryExpr:
		r.resolveExpr(scope, e.Left)
		r.resolveExpr(scope, e.Right)
	}
}

// resolveIdent implements spec.md §4.1's lookup order for an unqualified
// or qualified occurrence, writing the outcome onto e.Resolved.
func (r *Resolver) resolveIdent(scope *Scope, e *ast.IdentExpr) {
	if len(e.Qualifier) > 0 {
		r.resolveQualified(e)
		return
	}

	if isParam, found := scope.Lookup(e.Name); found {
		kind := ast.ResLocal
		if isParam {
			kind = ast.ResParam
		}
		e.Resolved = &ast.Resolution{Kind: kind, Name: e.Name}
		return
	}

	if iface, ok := r.methodInterface[e.Name]; ok {
		e.Resolved = &ast.Resolution{Kind: ast.ResOverloaded, InterfaceName: iface, Method: e.Name}
		return
	}

	if _, ok := r.globals[e.Name]; ok {
		e.Resolved = &ast.Resolution{Kind: ast.ResGlobal, Name: e.Name}
		return
	}

	if _, ok := r.imported[e.Name]; ok {
		e.Resolved = &ast.Resolution{Kind: ast.ResGlobal, Name: e.Name}
		return
	}

	if Builtins[e.Name] {
		e.Resolved = &ast.Resolution{Kind: ast.ResBuiltin, Name: e.Name}
		return
	}

	e.Resolved = &ast.Resolution{Kind: ast.ResUnresolved, Name: e.Name}
	r.errs.Add(diag.Wrap(diag.NameResolution, e.Sp, "", errUnknownName(e.Name)))
}

func (r *Resolver) resolveQualified(e *ast.IdentExpr) {
	// The module/import loader (spec.md §1, external collaborator) is
	// assumed to have already validated the qualifier chain; here we only
	// need to know that it resolved to some global, since cross-module
	// target identity is opaque to the elaborator itself.
	e.Resolved = &ast.Resolution{Kind: ast.ResGlobal, Module: joinQualifier(e.Qualifier), Name: e.Name}
}

func joinQualifier(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "::"
		}
		out += p
	}
	return out
}

func errUnknownName(name string) error {
	return fmt.Errorf("unknown name %q", name)
}
