package elaborate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/corelang/elaborator/ast"
	"github.com/corelang/elaborator/core"
	"github.com/corelang/elaborator/rows"
	"github.com/corelang/elaborator/zonk"
)

// ExhaustivenessError marks a switch expression whose cases do not exactly
// cover every label of its scrutinee's (now-solved) variant row: either a
// label is missing, or a case names a label the row doesn't have (spec.md
// §7 groups both under the same Exhaustiveness kind). Kept as its own
// type, rather than a plain fmt.Errorf, so elaborator.Elaborate can
// recognize it and report diag.Exhaustiveness instead of the generic
// TypeMismatch kind assigned to other body-checking errors.
type ExhaustivenessError struct {
	Missing []string
	Extra   []string
}

func (e *ExhaustivenessError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing case(s) for %s", strings.Join(e.Missing, ", ")))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, fmt.Sprintf("case(s) for %s not present in the scrutinee's type", strings.Join(e.Extra, ", ")))
	}
	return fmt.Sprintf("switch is not exhaustive: %s", strings.Join(parts, "; "))
}

// Infer elaborates e without a known expected type, synthesizing both the
// core term and its type (spec.md §4.5's "infer" judgement).
func Infer(ctx *Context, env *TypeEnv, e ast.Expr) (core.Term, core.Term, error) {
	switch e := e.(type) {
	case *ast.LitExpr:
		return &core.Primitive{PKind: e.PKind, Value: e.Value}, &core.Primitive{PKind: e.PKind}, nil

	case *ast.IdentExpr:
		return inferIdent(ctx, env, e)

	case *ast.CallExpr:
		return inferCall(ctx, env, e)

	case *ast.MethodCallExpr:
		return inferMethodCall(ctx, env, e)

	case *ast.LambdaExpr:
		return inferLambda(ctx, env, e)

	case *ast.Block:
		return ElabBlock(ctx, env, e)

	case *ast.ObjectLitExpr:
		return inferObjectLit(ctx, env, e)

	case *ast.ObjectConcatExpr:
		return inferObjectConcat(ctx, env, e)

	case *ast.ObjectCastExpr:
		return inferObjectCast(ctx, env, e)

	case *ast.RecordSelectExpr:
		return inferRecordSelect(ctx, env, e)

	case *ast.VariantExpr:
		return inferVariant(ctx, env, e)

	case *ast.VariantCastExpr:
		return inferVariantCast(ctx, env, e)

	case *ast.SwitchExpr:
		return inferSwitch(ctx, env, e)

	case *ast.IfExpr:
		return inferIf(ctx, env, e)

	case *ast.PipeExpr:
		return inferPipe(ctx, env, e)

	case *ast.NewExpr:
		return inferNew(ctx, env, e)

	case *ast.BinaryExpr:
		return inferBinary(ctx, env, e)
	}
	return nil, nil, fmt.Errorf("unhandled expression %T", e)
}

// Check elaborates e against an already-known expected type (spec.md
// §4.5's "check" judgement), falling back to infer+unify when e has no
// type-directed elaboration rule of its own.
func Check(ctx *Context, env *TypeEnv, e ast.Expr, expected core.Term) (core.Term, error) {
	switch e := e.(type) {
	case *ast.LambdaExpr:
		return checkLambda(ctx, env, e, expected)
	case *ast.ObjectLitExpr:
		if rt, ok := core.Deref(expected).(*core.RecTy); ok {
			return checkObjectLitAgainstRow(ctx, env, e, rt.Row)
		}
	case *ast.Block:
		return CheckBlock(ctx, env, e, expected)
	case *ast.IfExpr:
		return checkIf(ctx, env, e, expected)
	case *ast.CallExpr:
		if isUnionifyCall(e) {
			return checkUnionify(ctx, env, e, expected)
		}
	}
	term, ty, err := Infer(ctx, env, e)
	if err != nil {
		return nil, err
	}
	if err := ctx.Engine.Unify(ty, expected); err != nil {
		return nil, err
	}
	return term, nil
}

func inferIdent(ctx *Context, env *TypeEnv, e *ast.IdentExpr) (core.Term, core.Term, error) {
	if e.Resolved == nil {
		return nil, nil, fmt.Errorf("identifier %q was never resolved", e.Name)
	}
	switch e.Resolved.Kind {
	case ast.ResLocal, ast.ResParam:
		ty, ok := env.LookupValue(e.Name)
		if !ok {
			return nil, nil, fmt.Errorf("internal error: resolved local %q has no bound type", e.Name)
		}
		return core.NewVar(e.Name), ty, nil

	case ast.ResGlobal, ast.ResBuiltin:
		name := e.Resolved.Name
		scheme, ok := env.LookupValue(qualifiedKey(e.Resolved.Module, name))
		if !ok {
			scheme, ok = env.LookupValue(name)
		}
		if !ok {
			return nil, nil, fmt.Errorf("internal error: global %q has no registered signature", name)
		}
		ty := Instantiate(ctx, scheme)
		return core.NewRef(core.GlobalID{Module: e.Resolved.Module, Name: name}), ty, nil

	case ast.ResOverloaded:
		iface, ok := ctx.Registry.Interface(e.Resolved.InterfaceName)
		if !ok {
			return nil, nil, fmt.Errorf("interface %q is not registered", e.Resolved.InterfaceName)
		}
		method, ok := iface.Methods[e.Resolved.Method]
		if !ok {
			return nil, nil, fmt.Errorf("interface %q has no method %q", e.Resolved.InterfaceName, e.Resolved.Method)
		}
		carrier := ctx.FreshMeta()
		methodTy := core.Subst(Instantiate(ctx, method.Type), iface.CarrierParam, carrier)
		ov := &core.OvRef{InterfaceID: e.Resolved.InterfaceName, Method: e.Resolved.Method, Carrier: carrier}
		return ov, methodTy, nil
	}
	return nil, nil, fmt.Errorf("unresolved identifier %q", e.Name)
}

func qualifiedKey(module, name string) string {
	if module == "" {
		return name
	}
	return module + "::" + name
}

// inferCall implements application with implicit-argument insertion: every
// leading implicit Pi parameter not explicitly supplied at the call site is
// filled with a fresh meta before the explicit arguments are checked
// (spec.md §4.5).
func inferCall(ctx *Context, env *TypeEnv, e *ast.CallExpr) (core.Term, core.Term, error) {
	if isUnionifyCall(e) {
		// unionify's narrowing is driven entirely by the checked type
		// (spec.md §6.3); reaching Infer means it was used somewhere with
		// no expected type to narrow against (e.g. an unannotated `let`).
		return nil, nil, fmt.Errorf("unionify's result type must be known from context (an annotated let, a call argument, or a return type)")
	}
	if id, ok := e.Fn.(*ast.IdentExpr); ok && id.Resolved != nil && id.Resolved.Kind == ast.ResOverloaded && len(e.ImplicitArgs) > 0 {
		return inferOverloadedCall(ctx, env, id, e)
	}
	fnTerm, fnTy, err := Infer(ctx, env, e.Fn)
	if err != nil {
		return nil, nil, err
	}
	return applyArgs(ctx, env, fnTerm, fnTy, e.ImplicitArgs, e.Args)
}

// inferOverloadedCall handles a call site that names an explicit kind
// argument against an interface method (spec.md §6.1's `f<R,...>(...)`,
// spec.md §8 S4's `map<Foo>(...)`). The first explicit implicit argument
// selects which implementation's carrier to dispatch to, so it is recorded
// on the OvRef's KindArgs for dispatch.Resolver.Resolve to unify against an
// implementation's carrier, rather than being consumed by applyArgs's
// ordinary implicit-parameter loop as the method's own first implicit
// parameter (which would silently discard it, since the carrier is
// substituted into methodTy before any of the method's own implicit Pi
// binders are reached).
func inferOverloadedCall(ctx *Context, env *TypeEnv, id *ast.IdentExpr, e *ast.CallExpr) (core.Term, core.Term, error) {
	iface, ok := ctx.Registry.Interface(id.Resolved.InterfaceName)
	if !ok {
		return nil, nil, fmt.Errorf("interface %q is not registered", id.Resolved.InterfaceName)
	}
	method, ok := iface.Methods[id.Resolved.Method]
	if !ok {
		return nil, nil, fmt.Errorf("interface %q has no method %q", id.Resolved.InterfaceName, id.Resolved.Method)
	}
	kindArg, err := ElabType(ctx, env, e.ImplicitArgs[0].Type)
	if err != nil {
		return nil, nil, err
	}

	carrier := ctx.FreshMeta()
	methodTy := core.Subst(Instantiate(ctx, method.Type), iface.CarrierParam, carrier)
	ov := &core.OvRef{InterfaceID: id.Resolved.InterfaceName, Method: id.Resolved.Method, Carrier: carrier, KindArgs: []core.Term{kindArg}}
	return applyArgs(ctx, env, ov, methodTy, e.ImplicitArgs[1:], e.Args)
}

func applyArgs(ctx *Context, env *TypeEnv, fnTerm, fnTy core.Term, implicitArgs []ast.ImplicitArg, args []ast.Expr) (core.Term, core.Term, error) {
	implicitIdx := 0
	for {
		pi, ok := core.Deref(fnTy).(*core.Pi)
		if !ok || !pi.Param.Implicit {
			break
		}
		var argTy core.Term
		if implicitIdx < len(implicitArgs) && implicitArgs[implicitIdx].Type != nil {
			t, err := ElabType(ctx, env, implicitArgs[implicitIdx].Type)
			if err != nil {
				return nil, nil, err
			}
			argTy = t
			implicitIdx++
		} else if pi.Param.RowKind {
			argTy = ctx.FreshRowMeta()
		} else {
			argTy = ctx.FreshMeta()
		}
		fnTerm = &core.App{Fn: fnTerm, Arg: argTy, Implicit: true}
		fnTy = core.Subst(pi.RetTy, pi.Param.Name, argTy)
	}

	for _, arg := range args {
		pi, ok := core.Deref(fnTy).(*core.Pi)
		if !ok {
			return nil, nil, fmt.Errorf("too many arguments applied to a non-function type")
		}
		argTerm, err := Check(ctx, env, arg, pi.ParamTy)
		if err != nil {
			return nil, nil, err
		}
		fnTerm = &core.App{Fn: fnTerm, Arg: argTerm, Implicit: false}
		fnTy = core.Subst(pi.RetTy, pi.Param.Name, argTerm)
	}
	return fnTerm, fnTy, nil
}

// inferMethodCall implements UFCS: `e.m(args)` first tries a function-typed
// field named m on e's record type, then falls back to treating m as an
// overloaded interface method with e as the first explicit argument
// (spec.md §4.5, §4.6).
func inferMethodCall(ctx *Context, env *TypeEnv, e *ast.MethodCallExpr) (core.Term, core.Term, error) {
	recvTerm, recvTy, err := Infer(ctx, env, e.Receiver)
	if err != nil {
		return nil, nil, err
	}
	if rt, ok := core.Deref(recvTy).(*core.RecTy); ok {
		canon, dup := rows.Flatten(rt.Row)
		if !dup {
			if fieldTy, ok := canon.Labels.Get(e.Method); ok {
				proj := &core.RecProj{Record: recvTerm, Label: e.Method}
				return applyArgs(ctx, env, proj, fieldTy.(core.Term), e.ImplicitArgs, e.Args)
			}
		}
	}
	interfaceName, ok := ctx.Registry.MethodInterface(e.Method)
	if !ok {
		return nil, nil, fmt.Errorf("no field or interface method named %q", e.Method)
	}
	ident := &ast.IdentExpr{Sp: e.Sp, Name: e.Method, Resolved: &ast.Resolution{Kind: ast.ResOverloaded, Method: e.Method, InterfaceName: interfaceName}}
	ovTerm, ovTy, err := inferIdent(ctx, env, ident)
	if err != nil {
		return nil, nil, err
	}
	pi, ok := core.Deref(ovTy).(*core.Pi)
	if !ok {
		return nil, nil, fmt.Errorf("interface method %q has no explicit receiver parameter", e.Method)
	}
	if err := ctx.Engine.Unify(pi.ParamTy, recvTy); err != nil {
		return nil, nil, err
	}
	appliedTerm := &core.App{Fn: ovTerm, Arg: recvTerm, Implicit: false}
	appliedTy := core.Subst(pi.RetTy, pi.Param.Name, recvTerm)
	return applyArgs(ctx, env, appliedTerm, appliedTy, e.ImplicitArgs, e.Args)
}

func inferLambda(ctx *Context, env *TypeEnv, e *ast.LambdaExpr) (core.Term, core.Term, error) {
	inner := env.Child()
	paramTys := make([]core.Term, len(e.Params))
	for i, p := range e.Params {
		var pty core.Term
		if p.Type != nil {
			t, err := ElabType(ctx, inner, p.Type)
			if err != nil {
				return nil, nil, err
			}
			pty = t
		} else {
			pty = ctx.FreshMeta()
		}
		paramTys[i] = pty
		inner.BindValue(p.Name, pty)
	}
	bodyTerm, bodyTy, err := ElabBlock(ctx, inner, e.Body)
	if err != nil {
		return nil, nil, err
	}
	term, ty := bodyTerm, bodyTy
	for i := len(e.Params) - 1; i >= 0; i-- {
		name := e.Params[i].Name
		term = &core.Lam{Param: core.ParamInfo{Name: name}, Body: term}
		ty = &core.Pi{Param: core.ParamInfo{Name: name}, ParamTy: paramTys[i], RetTy: ty}
	}
	return term, ty, nil
}

func checkLambda(ctx *Context, env *TypeEnv, e *ast.LambdaExpr, expected core.Term) (core.Term, error) {
	pi, ok := core.Deref(expected).(*core.Pi)
	if !ok || len(e.Params) == 0 {
		term, ty, err := inferLambda(ctx, env, e)
		if err != nil {
			return nil, err
		}
		if err := ctx.Engine.Unify(ty, expected); err != nil {
			return nil, err
		}
		return term, nil
	}
	inner := env.Child()
	inner.BindValue(e.Params[0].Name, pi.ParamTy)
	var rest ast.Expr = e.Body
	if len(e.Params) > 1 {
		rest = &ast.LambdaExpr{Sp: e.Sp, Params: e.Params[1:], Body: e.Body}
	}
	bodyTerm, err := Check(ctx, inner, rest, core.Subst(pi.RetTy, pi.Param.Name, core.NewVar(e.Params[0].Name)))
	if err != nil {
		return nil, err
	}
	return &core.Lam{Param: core.ParamInfo{Name: e.Params[0].Name}, Body: bodyTerm}, nil
}

func inferObjectLit(ctx *Context, env *TypeEnv, e *ast.ObjectLitExpr) (core.Term, core.Term, error) {
	fields := make([]core.Field, len(e.Fields))
	rowFields := make([]core.RowField, len(e.Fields))
	for i, f := range e.Fields {
		term, ty, err := Infer(ctx, env, f.Value)
		if err != nil {
			return nil, nil, err
		}
		fields[i] = core.Field{Label: f.Label, Value: term}
		rowFields[i] = core.RowField{Label: f.Label, Type: ty}
	}
	return &core.RecLit{Fields: fields}, &core.RecTy{Row: &core.RowLit{Fields: rowFields}}, nil
}

// checkObjectLitAgainstRow elaborates an object literal against a known
// record row: fields whose label the row lists are checked against that
// label's type, and any other fields are inferred and accepted. It does not
// relate those extra fields to expectedRow's tail, and it does not report
// labels of expectedRow that the literal leaves out.
func checkObjectLitAgainstRow(ctx *Context, env *TypeEnv, e *ast.ObjectLitExpr, expectedRow core.Term) (core.Term, error) {
	canon, dup := rows.Flatten(expectedRow)
	if dup {
		return nil, fmt.Errorf("duplicate label in expected record row")
	}
	fields := make([]core.Field, len(e.Fields))
	rowFields := make([]core.RowField, len(e.Fields))
	for i, f := range e.Fields {
		var term core.Term
		var err error
		if fieldTy, ok := canon.Labels.Get(f.Label); ok {
			term, err = Check(ctx, env, f.Value, fieldTy.(core.Term))
		} else {
			var ty core.Term
			term, ty, err = Infer(ctx, env, f.Value)
			rowFields[i] = core.RowField{Label: f.Label, Type: ty}
		}
		if err != nil {
			return nil, err
		}
		fields[i] = core.Field{Label: f.Label, Value: term}
		if rowFields[i].Label == "" {
			rowFields[i] = core.RowField{Label: f.Label, Type: core.Deref(term)}
		}
	}
	return &core.RecLit{Fields: fields}, nil
}

func inferObjectConcat(ctx *Context, env *TypeEnv, e *ast.ObjectConcatExpr) (core.Term, core.Term, error) {
	leftTerm, leftTy, err := Infer(ctx, env, e.Left)
	if err != nil {
		return nil, nil, err
	}
	rightTerm, rightTy, err := Infer(ctx, env, e.Right)
	if err != nil {
		return nil, nil, err
	}
	leftRt, ok := core.Deref(leftTy).(*core.RecTy)
	if !ok {
		return nil, nil, fmt.Errorf("left operand of ... must be a record")
	}
	rightRt, ok := core.Deref(rightTy).(*core.RecTy)
	if !ok {
		return nil, nil, fmt.Errorf("right operand of ... must be a record")
	}
	row, err := ctx.Engine.Concat(leftRt.Row, rightRt.Row)
	if err != nil {
		return nil, nil, err
	}
	return &core.RecConcat{Left: leftTerm, Right: rightTerm}, &core.RecTy{Row: row}, nil
}

// inferObjectCast elaborates `{ ...e }`: e's record type is checked as a
// subrow of a fresh trailing row variable, widening e's type (spec.md
// §4.5's RecCast rule; the <: direction follows §4.4's Subrow).
func inferObjectCast(ctx *Context, env *TypeEnv, e *ast.ObjectCastExpr) (core.Term, core.Term, error) {
	term, ty, err := Infer(ctx, env, e.Value)
	if err != nil {
		return nil, nil, err
	}
	rt, ok := core.Deref(ty).(*core.RecTy)
	if !ok {
		return nil, nil, fmt.Errorf("operand of { ...e } must be a record")
	}
	tail := ctx.FreshRowMeta()
	if err := ctx.Engine.Subrow(rt.Row, &core.RowConcat{Left: core.Empty(), Right: tail}); err != nil {
		return nil, nil, err
	}
	widened := &core.RecTy{Row: &core.RowConcat{Left: rt.Row, Right: tail}}
	return &core.RecCast{Record: term}, widened, nil
}

func inferRecordSelect(ctx *Context, env *TypeEnv, e *ast.RecordSelectExpr) (core.Term, core.Term, error) {
	term, ty, err := Infer(ctx, env, e.Record)
	if err != nil {
		return nil, nil, err
	}
	fieldTy := ctx.FreshMeta()
	tail := ctx.FreshRowMeta()
	expected := &core.RecTy{Row: &core.RowConcat{Left: &core.RowLit{Fields: []core.RowField{{Label: e.Label, Type: fieldTy}}}, Right: tail}}
	if err := ctx.Engine.Unify(ty, expected); err != nil {
		return nil, nil, err
	}
	return &core.RecProj{Record: term, Label: e.Label}, core.Deref(fieldTy), nil
}

func inferVariant(ctx *Context, env *TypeEnv, e *ast.VariantExpr) (core.Term, core.Term, error) {
	var payload core.Term = &core.Primitive{PKind: core.PrimUnit, Value: "unit"}
	payloadTy := core.Term(&core.Primitive{PKind: core.PrimUnit})
	if e.Payload != nil {
		t, ty, err := Infer(ctx, env, e.Payload)
		if err != nil {
			return nil, nil, err
		}
		payload, payloadTy = t, ty
	}
	tail := ctx.FreshRowMeta()
	vt := &core.VarTy{Row: &core.RowConcat{Left: &core.RowLit{Fields: []core.RowField{{Label: e.Label, Type: payloadTy}}}, Right: tail}}
	return &core.VarIntro{Label: e.Label, Payload: payload}, vt, nil
}

func inferVariantCast(ctx *Context, env *TypeEnv, e *ast.VariantCastExpr) (core.Term, core.Term, error) {
	term, ty, err := Infer(ctx, env, e.Value)
	if err != nil {
		return nil, nil, err
	}
	vt, ok := core.Deref(ty).(*core.VarTy)
	if !ok {
		return nil, nil, fmt.Errorf("operand of [ ...e ] must be a variant")
	}
	tail := ctx.FreshRowMeta()
	if err := ctx.Engine.Subrow(vt.Row, &core.RowConcat{Left: core.Empty(), Right: tail}); err != nil {
		return nil, nil, err
	}
	widened := &core.VarTy{Row: &core.RowConcat{Left: vt.Row, Right: tail}}
	return &core.VarCast{Variant: term}, widened, nil
}

// isUnionifyCall reports whether e is a call to the unionify builtin
// (spec.md §6.3), recognized by resolve.Builtins tagging its IdentExpr as
// ast.ResBuiltin rather than any dedicated AST node — unionify is ordinary
// call syntax, just with its own elaboration rule.
func isUnionifyCall(e *ast.CallExpr) bool {
	id, ok := e.Fn.(*ast.IdentExpr)
	return ok && id.Resolved != nil && id.Resolved.Kind == ast.ResBuiltin && id.Resolved.Name == "unionify"
}

// checkUnionify elaborates unionify(e) against a known expected type
// (spec.md §4.5, §6.3): it narrows e's variant row back into the checked
// variant row by discharging a subrow constraint from e's row into the
// checked row, rather than the exact match a bare Check (infer+Unify)
// would require. Reuses core.VarCast, the same node VariantCastExpr's
// widening produces — both are "re-view this variant's row under a
// different, row-compatible type" at the term level, differing only in
// which side of the Subrow constraint is the fresh/wider row.
func checkUnionify(ctx *Context, env *TypeEnv, e *ast.CallExpr, expected core.Term) (core.Term, error) {
	if len(e.Args) != 1 {
		return nil, fmt.Errorf("unionify takes exactly one argument, got %d", len(e.Args))
	}
	argTerm, argTy, err := Infer(ctx, env, e.Args[0])
	if err != nil {
		return nil, err
	}
	argVt, ok := core.Deref(argTy).(*core.VarTy)
	if !ok {
		return nil, fmt.Errorf("unionify requires a variant argument, got %s", core.String(argTy))
	}
	expVt, ok := core.Deref(expected).(*core.VarTy)
	if !ok {
		return nil, fmt.Errorf("unionify requires a variant expected type, got %s", core.String(expected))
	}
	if err := ctx.Engine.Subrow(argVt.Row, expVt.Row); err != nil {
		return nil, err
	}
	return &core.VarCast{Variant: argTerm}, nil
}

// hostOperatorName reports the reserved global name backing `+`/`-` on a
// primitive left operand (spec.md §6.3), if any. string only has __add__;
// `a - b` on strings falls through to the magic-method branch, which will
// fail with "operator - is not defined for ..." unless a user interface
// happens to claim it for string, matching the spec's silence on a
// string#__sub__ builtin.
func hostOperatorName(leftTy core.Term, op ast.BinaryOp) (string, bool) {
	prim, ok := core.Deref(leftTy).(*core.Primitive)
	if !ok {
		return "", false
	}
	switch {
	case prim.PKind == core.PrimNumber && op == ast.BinaryAdd:
		return "number#__add__", true
	case prim.PKind == core.PrimNumber && op == ast.BinarySub:
		return "number#__sub__", true
	case prim.PKind == core.PrimString && op == ast.BinaryAdd:
		return "string#__add__", true
	default:
		return "", false
	}
}

func magicMethodName(op ast.BinaryOp) string {
	if op == ast.BinarySub {
		return "__sub__"
	}
	return "__add__"
}

func binaryOpSymbol(op ast.BinaryOp) string {
	if op == ast.BinarySub {
		return "-"
	}
	return "+"
}

// inferBinary lowers `a + b` / `a - b` (spec.md §6.3): a primitive left
// operand goes straight to its host-operation reference
// (`number#__add__` and friends); anything else dispatches to the
// `__add__`/`__sub__` magic method of whichever interface declares it for
// the left operand's carrier, exactly like an ordinary overloaded method
// call (inferMethodCall) with the operator spelled as the method name.
func inferBinary(ctx *Context, env *TypeEnv, e *ast.BinaryExpr) (core.Term, core.Term, error) {
	leftTerm, leftTy, err := Infer(ctx, env, e.Left)
	if err != nil {
		return nil, nil, err
	}

	var ident *ast.IdentExpr
	if name, ok := hostOperatorName(leftTy, e.Op); ok {
		ident = &ast.IdentExpr{Sp: e.Sp, Name: name, Resolved: &ast.Resolution{Kind: ast.ResBuiltin, Name: name}}
	} else {
		method := magicMethodName(e.Op)
		interfaceName, ok := ctx.Registry.MethodInterface(method)
		if !ok {
			return nil, nil, fmt.Errorf("operator %s is not defined for %s", binaryOpSymbol(e.Op), core.String(leftTy))
		}
		ident = &ast.IdentExpr{Sp: e.Sp, Name: method, Resolved: &ast.Resolution{Kind: ast.ResOverloaded, Method: method, InterfaceName: interfaceName}}
	}

	fnTerm, fnTy, err := inferIdent(ctx, env, ident)
	if err != nil {
		return nil, nil, err
	}
	pi, ok := core.Deref(fnTy).(*core.Pi)
	if !ok {
		return nil, nil, fmt.Errorf("operator %s target %q is not a function", binaryOpSymbol(e.Op), ident.Name)
	}
	if err := ctx.Engine.Unify(pi.ParamTy, leftTy); err != nil {
		return nil, nil, err
	}
	applied := &core.App{Fn: fnTerm, Arg: leftTerm}
	appliedTy := core.Subst(pi.RetTy, pi.Param.Name, leftTerm)

	pi2, ok := core.Deref(appliedTy).(*core.Pi)
	if !ok {
		return nil, nil, fmt.Errorf("operator %s target %q expects only one argument", binaryOpSymbol(e.Op), ident.Name)
	}
	rightTerm, err := Check(ctx, env, e.Right, pi2.ParamTy)
	if err != nil {
		return nil, nil, err
	}
	result := &core.App{Fn: applied, Arg: rightTerm}
	resultTy := core.Subst(pi2.RetTy, pi2.Param.Name, rightTerm)
	return result, resultTy, nil
}

// inferSwitch elaborates the sole variant eliminator, building the
// scrutinee's row from the union of the arms' labels, unifying it against
// the scrutinee's actual type (spec.md §4.5, §9). The switch's own
// synthesized row leaves an open tail so it unifies against a scrutinee
// with extra labels too; checkSwitchExhaustive re-examines the solved
// scrutinee row afterward to catch the case that unification alone lets
// through silently — a closed scrutinee row with a label no case covers
// (spec.md §8 S6).
func inferSwitch(ctx *Context, env *TypeEnv, e *ast.SwitchExpr) (core.Term, core.Term, error) {
	scrutTerm, scrutTy, err := Infer(ctx, env, e.Scrutinee)
	if err != nil {
		return nil, nil, err
	}
	retTy := ctx.FreshMeta()
	cases := make([]core.SwitchCase, len(e.Cases))
	rowFields := make([]core.RowField, len(e.Cases))
	for i, c := range e.Cases {
		payloadTy := ctx.FreshMeta()
		inner := env
		if c.Var != "" {
			inner = env.Child()
			inner.BindValue(c.Var, payloadTy)
		}
		bodyTerm, err := Check(ctx, inner, c.Body, retTy)
		if err != nil {
			return nil, nil, err
		}
		cases[i] = core.SwitchCase{Label: c.Label, PayloadName: c.Var, Body: bodyTerm}
		rowFields[i] = core.RowField{Label: c.Label, Type: payloadTy}
	}
	if err := checkSwitchNoExtraCases(scrutTy, e.Cases); err != nil {
		return nil, nil, err
	}
	tail := ctx.FreshRowMeta()
	expected := &core.VarTy{Row: &core.RowConcat{Left: &core.RowLit{Fields: rowFields}, Right: tail}}
	if err := ctx.Engine.Unify(scrutTy, expected); err != nil {
		return nil, nil, err
	}
	if err := checkSwitchExhaustive(scrutTy, e.Cases); err != nil {
		return nil, nil, err
	}
	return &core.Switch{Scrutinee: scrutTerm, Cases: cases}, retTy, nil
}

// checkSwitchNoExtraCases reports an ExhaustivenessError for any switch
// case whose label the scrutinee's (already-known) closed variant row
// doesn't have, checked before the row unification in inferSwitch so the
// failure surfaces under Exhaustiveness rather than under whatever generic
// kind that Unify call's own row-mismatch would otherwise be reported as.
// A scrutinee type that is still abstract, or whose row is still open,
// can't rule out an extra label belonging to it, so this defers to the
// ordinary unification in that case exactly like checkSwitchExhaustive
// defers on a missing case.
func checkSwitchNoExtraCases(scrutTy core.Term, cases []ast.SwitchCase) error {
	vt, ok := core.Deref(zonk.Zonk(scrutTy).Term).(*core.VarTy)
	if !ok {
		return nil
	}
	canon, dup := rows.Flatten(vt.Row)
	if dup {
		return nil
	}
	if _, closed := canon.Tail.(*core.RowEmpty); !closed {
		return nil
	}
	var extra []string
	for _, c := range cases {
		if _, ok := canon.Labels.Get(c.Label); !ok {
			extra = append(extra, c.Label)
		}
	}
	if len(extra) == 0 {
		return nil
	}
	sort.Strings(extra)
	return &ExhaustivenessError{Extra: extra}
}

// checkSwitchExhaustive reports an ExhaustivenessError once the
// scrutinee's variant row has been solved against the switch's own row:
// a closed row (RowEmpty tail) whose labels are not exactly the union of
// case labels is missing a case. A row that is still abstract or
// unresolved cannot be proven exhaustive either, since it may carry
// further labels no case here accounts for.
func checkSwitchExhaustive(scrutTy core.Term, cases []ast.SwitchCase) error {
	vt, ok := core.Deref(zonk.Zonk(scrutTy).Term).(*core.VarTy)
	if !ok {
		return nil
	}
	canon, dup := rows.Flatten(vt.Row)
	if dup {
		return nil
	}
	covered := make(map[string]bool, len(cases))
	for _, c := range cases {
		covered[c.Label] = true
	}
	var missing []string
	canon.Labels.Range(func(label string, _ interface{}) bool {
		if !covered[label] {
			missing = append(missing, label)
		}
		return true
	})
	if _, closed := canon.Tail.(*core.RowEmpty); !closed {
		missing = append(missing, "...")
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return &ExhaustivenessError{Missing: missing}
}

// inferIf lowers `if cond { then } else { else }` to a Switch over the
// implicit [true|false] variant (core/term.go's documented contract for
// If: "the elaborator always lowers it to a Switch before it reaches the
// zonker", spec.md §4.5, §9), rather than building a core.If node.
func inferIf(ctx *Context, env *TypeEnv, e *ast.IfExpr) (core.Term, core.Term, error) {
	condTerm, condTy, err := Infer(ctx, env, e.Cond)
	if err != nil {
		return nil, nil, err
	}
	if err := ctx.Engine.Unify(condTy, &core.Primitive{PKind: core.PrimBool}); err != nil {
		return nil, nil, err
	}
	thenTerm, thenTy, err := ElabBlock(ctx, env, e.Then)
	if err != nil {
		return nil, nil, err
	}
	var elseTerm core.Term = &core.Primitive{PKind: core.PrimUnit, Value: "unit"}
	if e.Else != nil {
		t, elseTy, err := ElabBlock(ctx, env, e.Else)
		if err != nil {
			return nil, nil, err
		}
		if err := ctx.Engine.Unify(thenTy, elseTy); err != nil {
			return nil, nil, err
		}
		elseTerm = t
	}
	sw := &core.Switch{
		Scrutinee: condTerm,
		Cases: []core.SwitchCase{
			{Label: "true", Body: thenTerm},
			{Label: "false", Body: elseTerm},
		},
	}
	return sw, thenTy, nil
}

func checkIf(ctx *Context, env *TypeEnv, e *ast.IfExpr, expected core.Term) (core.Term, error) {
	term, ty, err := inferIf(ctx, env, e)
	if err != nil {
		return nil, err
	}
	if err := ctx.Engine.Unify(ty, expected); err != nil {
		return nil, err
	}
	return term, nil
}

// inferPipe desugars `e |> f(args)` into `f(e, args)` (spec.md §4.5).
func inferPipe(ctx *Context, env *TypeEnv, e *ast.PipeExpr) (core.Term, core.Term, error) {
	switch call := e.Call.(type) {
	case *ast.CallExpr:
		rewritten := &ast.CallExpr{Sp: call.Sp, Fn: call.Fn, ImplicitArgs: call.ImplicitArgs, Args: append([]ast.Expr{e.Left}, call.Args...)}
		return inferCall(ctx, env, rewritten)
	case *ast.MethodCallExpr:
		rewritten := &ast.MethodCallExpr{Sp: call.Sp, Receiver: e.Left, Method: call.Method, ImplicitArgs: call.ImplicitArgs, Args: call.Args}
		return inferMethodCall(ctx, env, rewritten)
	}
	return nil, nil, fmt.Errorf("pipe target must be a call")
}

func inferNew(ctx *Context, env *TypeEnv, e *ast.NewExpr) (core.Term, core.Term, error) {
	ref, ok := e.Type.(*ast.RefType)
	if !ok {
		return nil, nil, fmt.Errorf("new requires a named class type")
	}
	ctorIdent := &ast.IdentExpr{Sp: e.Sp, Name: "new#" + ref.Name, Resolved: &ast.Resolution{Kind: ast.ResGlobal, Name: "new#" + ref.Name}}
	ctorTerm, ctorTy, err := inferIdent(ctx, env, ctorIdent)
	if err != nil {
		return nil, nil, err
	}
	return applyArgs(ctx, env, ctorTerm, ctorTy, nil, e.Args)
}
