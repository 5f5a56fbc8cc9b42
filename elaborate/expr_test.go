package elaborate

import (
	"testing"

	"github.com/corelang/elaborator/ast"
	"github.com/corelang/elaborator/core"
	"github.com/corelang/elaborator/dispatch"
)

func boolLit(v string) *ast.LitExpr { return &ast.LitExpr{PKind: core.PrimBool, Value: v} }
func numLit(v string) *ast.LitExpr  { return &ast.LitExpr{PKind: core.PrimNumber, Value: v} }

func blockOf(e ast.Expr) *ast.Block {
	return &ast.Block{Stmts: []ast.Stmt{&ast.ReturnStmt{Value: e}}}
}

func TestInferIdent_LocalReadsItsEnvBoundType(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	env.BindValue("x", &core.Primitive{PKind: core.PrimNumber})
	e := &ast.IdentExpr{Name: "x", Resolved: &ast.Resolution{Kind: ast.ResLocal}}

	term, ty, err := inferIdent(ctx, env, e)
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := term.(*core.Var); !ok || v.Name != "x" {
		t.Fatalf("expected Var x, got %#v", term)
	}
	if _, ok := ty.(*core.Primitive); !ok {
		t.Fatalf("expected number primitive, got %#v", ty)
	}
}

func TestInferIdent_GlobalInstantiatesItsScheme(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	g := ctx.Store.New(3)
	Generalize(0, g)
	env.BindValue("id", &core.Pi{Param: core.ParamInfo{Name: "x"}, ParamTy: g, RetTy: g})
	e := &ast.IdentExpr{Name: "id", Resolved: &ast.Resolution{Kind: ast.ResGlobal, Name: "id"}}

	term, ty, err := inferIdent(ctx, env, e)
	if err != nil {
		t.Fatal(err)
	}
	ref, ok := term.(*core.Ref)
	if !ok || ref.Target.Name != "id" {
		t.Fatalf("expected a Ref to id, got %#v", term)
	}
	pi, ok := ty.(*core.Pi)
	if !ok {
		t.Fatalf("expected a Pi, got %#v", ty)
	}
	if pi.ParamTy == g {
		t.Fatal("expected the global's scheme to be freshly instantiated, not reused")
	}
}

func TestInferIdent_OverloadedBuildsAnOvRefWithAFreshCarrier(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	carrierParam := ctx.Store.New(0)
	ctx.Registry.DeclareInterface(&dispatch.Interface{
		Name:         "Show",
		CarrierParam: "T",
		Methods: map[string]dispatch.Method{
			"show": {Name: "show", Type: &core.Pi{Param: core.ParamInfo{Name: "x"}, ParamTy: core.NewVar("T"), RetTy: &core.Primitive{PKind: core.PrimString}}},
		},
	})
	_ = carrierParam
	e := &ast.IdentExpr{Name: "show", Resolved: &ast.Resolution{Kind: ast.ResOverloaded, InterfaceName: "Show", Method: "show"}}

	term, ty, err := inferIdent(ctx, env, e)
	if err != nil {
		t.Fatal(err)
	}
	ov, ok := term.(*core.OvRef)
	if !ok || ov.InterfaceID != "Show" || ov.Method != "show" {
		t.Fatalf("expected an OvRef for Show::show, got %#v", term)
	}
	if _, ok := ty.(*core.Pi); !ok {
		t.Fatalf("expected a Pi-typed method signature, got %#v", ty)
	}
}

func TestInferIdent_UnresolvedIdentIsAnError(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	e := &ast.IdentExpr{Name: "x"}
	if _, _, err := inferIdent(ctx, env, e); err == nil {
		t.Fatal("expected an error for an ident with no Resolved")
	}
}

func TestApplyArgs_InsertsLeadingImplicitsBeforeExplicitArgs(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	fnTy := &core.Pi{
		Param:   core.ParamInfo{Name: "T", Implicit: true},
		ParamTy: &core.Univ{},
		RetTy: &core.Pi{
			Param:   core.ParamInfo{Name: "x"},
			ParamTy: core.NewVar("T"),
			RetTy:   core.NewVar("T"),
		},
	}
	fnTerm := core.NewRef(core.GlobalID{Name: "id"})

	term, ty, err := applyArgs(ctx, env, fnTerm, fnTy, nil, []ast.Expr{numLit("1")})
	if err != nil {
		t.Fatal(err)
	}
	outer, ok := term.(*core.App)
	if !ok || outer.Implicit {
		t.Fatalf("expected the outermost App to be the explicit one, got %#v", term)
	}
	inner, ok := outer.Fn.(*core.App)
	if !ok || !inner.Implicit {
		t.Fatalf("expected the inserted implicit App beneath it, got %#v", outer.Fn)
	}
	if _, ok := ty.(*core.Primitive); !ok {
		t.Fatalf("expected the substituted return type to be number, got %#v", ty)
	}
}

func TestApplyArgs_TooManyArgumentsIsAnError(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	fnTy := &core.Primitive{PKind: core.PrimNumber}
	if _, _, err := applyArgs(ctx, env, core.NewVar("f"), fnTy, nil, []ast.Expr{numLit("1")}); err == nil {
		t.Fatal("expected an error applying an argument to a non-function type")
	}
}

func TestInferCall_ExplicitKindArgumentOnAnOverloadedIdentSelectsTheCarrier(t *testing.T) {
	// map<Foo>(numToStr, mkFoo()) (spec.md §8 S4): the explicit <Foo>
	// must land on the OvRef's KindArgs, not get consumed by map's own
	// leading implicit parameter A.
	ctx := newTestContext()
	env := NewRootEnv()
	ctx.Registry.DeclareInterface(&dispatch.Interface{
		Name:         "Functor",
		CarrierParam: "F",
		CarrierArity: 1,
		Methods: map[string]dispatch.Method{
			"map": {Name: "map", Type: &core.Pi{
				Param:   core.ParamInfo{Name: "A", Implicit: true},
				ParamTy: &core.Univ{},
				RetTy: &core.Pi{
					Param:   core.ParamInfo{Name: "B", Implicit: true},
					ParamTy: &core.Univ{},
					RetTy: &core.Pi{
						Param:   core.ParamInfo{Name: "f"},
						ParamTy: &core.Pi{Param: core.ParamInfo{Name: "_arg0"}, ParamTy: core.NewVar("A"), RetTy: core.NewVar("B")},
						RetTy: &core.Pi{
							Param:   core.ParamInfo{Name: "x"},
							ParamTy: &core.App{Fn: core.NewVar("F"), Arg: core.NewVar("A")},
							RetTy:   &core.App{Fn: core.NewVar("F"), Arg: core.NewVar("B")},
						},
					},
				},
			}},
		},
	})
	env.BindValue("numToStr", &core.Pi{Param: core.ParamInfo{Name: "_arg0"}, ParamTy: &core.Primitive{PKind: core.PrimNumber}, RetTy: &core.Primitive{PKind: core.PrimString}})
	env.BindValue("mkFoo", &core.App{Fn: core.NewRef(core.GlobalID{Name: "Foo"}), Arg: &core.Primitive{PKind: core.PrimNumber}})

	call := &ast.CallExpr{
		Fn:           &ast.IdentExpr{Name: "map", Resolved: &ast.Resolution{Kind: ast.ResOverloaded, InterfaceName: "Functor", Method: "map"}},
		ImplicitArgs: []ast.ImplicitArg{{Type: &ast.RefType{Name: "Foo"}}},
		Args: []ast.Expr{
			&ast.IdentExpr{Name: "numToStr", Resolved: &ast.Resolution{Kind: ast.ResGlobal, Name: "numToStr"}},
			&ast.IdentExpr{Name: "mkFoo", Resolved: &ast.Resolution{Kind: ast.ResGlobal, Name: "mkFoo"}},
		},
	}

	term, _, err := inferCall(ctx, env, call)
	if err != nil {
		t.Fatal(err)
	}
	cur := term
	for i := 0; i < 4; i++ {
		app, ok := cur.(*core.App)
		if !ok {
			t.Fatalf("expected a 4-deep App chain, got %#v at depth %d", cur, i)
		}
		cur = app.Fn
	}
	ov, ok := cur.(*core.OvRef)
	if !ok {
		t.Fatalf("expected an OvRef at the base of the application chain, got %#v", cur)
	}
	if len(ov.KindArgs) != 1 {
		t.Fatalf("expected exactly one kind argument recorded, got %#v", ov.KindArgs)
	}
	ref, ok := ov.KindArgs[0].(*core.Ref)
	if !ok || ref.Target.Name != "Foo" {
		t.Fatalf("expected the kind argument to be Foo, got %#v", ov.KindArgs[0])
	}
	if carrier, ok := core.Deref(ov.Carrier).(*core.Ref); !ok || carrier.Target.Name != "Foo" {
		t.Fatalf("expected checking the Foo argument to solve the carrier to Foo, got %#v", ov.Carrier)
	}
}

func TestInferCall_ChecksEachArgAgainstItsParamType(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	env.BindValue("f", &core.Pi{Param: core.ParamInfo{Name: "x"}, ParamTy: &core.Primitive{PKind: core.PrimNumber}, RetTy: &core.Primitive{PKind: core.PrimBool}})
	call := &ast.CallExpr{
		Fn:   &ast.IdentExpr{Name: "f", Resolved: &ast.Resolution{Kind: ast.ResLocal}},
		Args: []ast.Expr{numLit("1")},
	}
	_, ty, err := inferCall(ctx, env, call)
	if err != nil {
		t.Fatal(err)
	}
	if prim, ok := ty.(*core.Primitive); !ok || prim.PKind != core.PrimBool {
		t.Fatalf("expected boolean result type, got %#v", ty)
	}
}

func TestInferMethodCall_ProjectsAFunctionTypedRecordField(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	env.BindValue("r", &core.RecTy{Row: &core.RowLit{Fields: []core.RowField{
		{Label: "greet", Type: &core.Pi{Param: core.ParamInfo{Name: "x"}, ParamTy: &core.Primitive{PKind: core.PrimString}, RetTy: &core.Primitive{PKind: core.PrimString}}},
	}}})
	e := &ast.MethodCallExpr{
		Receiver: &ast.IdentExpr{Name: "r", Resolved: &ast.Resolution{Kind: ast.ResLocal}},
		Method:   "greet",
		Args:     []ast.Expr{&ast.LitExpr{PKind: core.PrimString, Value: "hi"}},
	}
	term, ty, err := inferMethodCall(ctx, env, e)
	if err != nil {
		t.Fatal(err)
	}
	app, ok := term.(*core.App)
	if !ok {
		t.Fatalf("expected an App, got %#v", term)
	}
	if _, ok := app.Fn.(*core.RecProj); !ok {
		t.Fatalf("expected the applied function to be a RecProj, got %#v", app.Fn)
	}
	if prim, ok := ty.(*core.Primitive); !ok || prim.PKind != core.PrimString {
		t.Fatalf("expected string result, got %#v", ty)
	}
}

func TestInferMethodCall_FallsBackToOverloadedInterfaceMethod(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	ctx.Registry.DeclareInterface(&dispatch.Interface{
		Name:         "Show",
		CarrierParam: "T",
		Methods: map[string]dispatch.Method{
			"show": {Name: "show", Type: &core.Pi{Param: core.ParamInfo{Name: "self"}, ParamTy: core.NewVar("T"), RetTy: &core.Primitive{PKind: core.PrimString}}},
		},
	})
	env.BindValue("n", &core.Primitive{PKind: core.PrimNumber})
	e := &ast.MethodCallExpr{
		Receiver: &ast.IdentExpr{Name: "n", Resolved: &ast.Resolution{Kind: ast.ResLocal}},
		Method:   "show",
	}
	term, ty, err := inferMethodCall(ctx, env, e)
	if err != nil {
		t.Fatal(err)
	}
	app, ok := term.(*core.App)
	if !ok {
		t.Fatalf("expected an App, got %#v", term)
	}
	if _, ok := app.Fn.(*core.OvRef); !ok {
		t.Fatalf("expected the applied function to be an OvRef, got %#v", app.Fn)
	}
	if prim, ok := ty.(*core.Primitive); !ok || prim.PKind != core.PrimString {
		t.Fatalf("expected string result, got %#v", ty)
	}
}

func TestInferMethodCall_UnknownMethodIsAnError(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	env.BindValue("n", &core.Primitive{PKind: core.PrimNumber})
	e := &ast.MethodCallExpr{Receiver: &ast.IdentExpr{Name: "n", Resolved: &ast.Resolution{Kind: ast.ResLocal}}, Method: "bogus"}
	if _, _, err := inferMethodCall(ctx, env, e); err == nil {
		t.Fatal("expected an error for an unknown method with no matching field or interface")
	}
}

func TestInferLambda_BuildsARightAssociatedPiFromFreshParamMetas(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	lam := &ast.LambdaExpr{
		Params: []ast.Param{{Name: "x"}},
		Body:   blockOf(&ast.IdentExpr{Name: "x", Resolved: &ast.Resolution{Kind: ast.ResLocal}}),
	}
	term, ty, err := inferLambda(ctx, env, lam)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := term.(*core.Lam); !ok {
		t.Fatalf("expected a Lam, got %#v", term)
	}
	pi, ok := ty.(*core.Pi)
	if !ok || pi.Param.Name != "x" {
		t.Fatalf("expected a Pi over x, got %#v", ty)
	}
}

func TestCheckLambda_ChecksBodyAgainstTheExpectedPi(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	expected := &core.Pi{Param: core.ParamInfo{Name: "x"}, ParamTy: &core.Primitive{PKind: core.PrimNumber}, RetTy: &core.Primitive{PKind: core.PrimNumber}}
	lam := &ast.LambdaExpr{
		Params: []ast.Param{{Name: "x"}},
		Body:   blockOf(&ast.IdentExpr{Name: "x", Resolved: &ast.Resolution{Kind: ast.ResLocal}}),
	}
	term, err := checkLambda(ctx, env, lam, expected)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := term.(*core.Lam); !ok {
		t.Fatalf("expected a Lam, got %#v", term)
	}
}

func TestCheckLambda_FallsBackToInferUnifyWhenExpectedIsNotAPi(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	meta := ctx.FreshMeta()
	lam := &ast.LambdaExpr{
		Params: []ast.Param{{Name: "x"}},
		Body:   blockOf(&ast.IdentExpr{Name: "x", Resolved: &ast.Resolution{Kind: ast.ResLocal}}),
	}
	if _, err := checkLambda(ctx, env, lam, meta); err != nil {
		t.Fatal(err)
	}
	if _, ok := core.Deref(meta).(*core.Pi); !ok {
		t.Fatalf("expected unifying the meta against the inferred Pi to solve it, got %#v", core.Deref(meta))
	}
}

func TestInferObjectLit_BuildsARowFromEachFieldsInferredType(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	lit := &ast.ObjectLitExpr{Fields: []ast.FieldValue{{Label: "x", Value: numLit("1")}}}
	term, ty, err := inferObjectLit(ctx, env, lit)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := term.(*core.RecLit); !ok {
		t.Fatalf("expected a RecLit, got %#v", term)
	}
	rt, ok := ty.(*core.RecTy)
	if !ok {
		t.Fatalf("expected a RecTy, got %#v", ty)
	}
	row, ok := rt.Row.(*core.RowLit)
	if !ok || len(row.Fields) != 1 || row.Fields[0].Label != "x" {
		t.Fatalf("expected a single-field row labelled x, got %#v", rt.Row)
	}
}

func TestCheckObjectLitAgainstRow_ChecksKnownFieldsAndInfersExtras(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	expectedRow := &core.RowConcat{
		Left:  &core.RowLit{Fields: []core.RowField{{Label: "x", Type: &core.Primitive{PKind: core.PrimNumber}}}},
		Right: core.Empty(),
	}
	lit := &ast.ObjectLitExpr{Fields: []ast.FieldValue{{Label: "x", Value: numLit("1")}, {Label: "y", Value: boolLit("true")}}}
	term, err := checkObjectLitAgainstRow(ctx, env, lit, expectedRow)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := term.(*core.RecLit); !ok {
		t.Fatalf("expected a RecLit, got %#v", term)
	}
}

func TestCheckObjectLitAgainstRow_DuplicateLabelInExpectedRowIsAnError(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	dupRow := &core.RowConcat{
		Left:  &core.RowLit{Fields: []core.RowField{{Label: "x", Type: &core.Primitive{PKind: core.PrimNumber}}}},
		Right: &core.RowLit{Fields: []core.RowField{{Label: "x", Type: &core.Primitive{PKind: core.PrimString}}}},
	}
	lit := &ast.ObjectLitExpr{Fields: []ast.FieldValue{{Label: "x", Value: numLit("1")}}}
	if _, err := checkObjectLitAgainstRow(ctx, env, lit, dupRow); err == nil {
		t.Fatal("expected a duplicate-label error")
	}
}

func TestInferObjectConcat_ConcatenatesTwoRecordRows(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	env.BindValue("a", &core.RecTy{Row: &core.RowLit{Fields: []core.RowField{{Label: "x", Type: &core.Primitive{PKind: core.PrimNumber}}}}})
	env.BindValue("b", &core.RecTy{Row: &core.RowLit{Fields: []core.RowField{{Label: "y", Type: &core.Primitive{PKind: core.PrimString}}}}})
	e := &ast.ObjectConcatExpr{
		Left:  &ast.IdentExpr{Name: "a", Resolved: &ast.Resolution{Kind: ast.ResLocal}},
		Right: &ast.IdentExpr{Name: "b", Resolved: &ast.Resolution{Kind: ast.ResLocal}},
	}
	term, ty, err := inferObjectConcat(ctx, env, e)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := term.(*core.RecConcat); !ok {
		t.Fatalf("expected a RecConcat, got %#v", term)
	}
	if _, ok := ty.(*core.RecTy); !ok {
		t.Fatalf("expected a RecTy, got %#v", ty)
	}
}

func TestInferObjectConcat_LeftOperandNotARecordIsAnError(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	env.BindValue("a", &core.Primitive{PKind: core.PrimNumber})
	env.BindValue("b", &core.RecTy{Row: core.Empty()})
	e := &ast.ObjectConcatExpr{
		Left:  &ast.IdentExpr{Name: "a", Resolved: &ast.Resolution{Kind: ast.ResLocal}},
		Right: &ast.IdentExpr{Name: "b", Resolved: &ast.Resolution{Kind: ast.ResLocal}},
	}
	if _, _, err := inferObjectConcat(ctx, env, e); err == nil {
		t.Fatal("expected a non-record left operand error")
	}
}

func TestInferObjectConcat_RightOperandNotARecordIsAnError(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	env.BindValue("a", &core.RecTy{Row: core.Empty()})
	env.BindValue("b", &core.Primitive{PKind: core.PrimNumber})
	e := &ast.ObjectConcatExpr{
		Left:  &ast.IdentExpr{Name: "a", Resolved: &ast.Resolution{Kind: ast.ResLocal}},
		Right: &ast.IdentExpr{Name: "b", Resolved: &ast.Resolution{Kind: ast.ResLocal}},
	}
	if _, _, err := inferObjectConcat(ctx, env, e); err == nil {
		t.Fatal("expected a non-record right operand error")
	}
}

func TestInferObjectCast_WidensToARowWithAFreshTail(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	env.BindValue("a", &core.RecTy{Row: &core.RowConcat{Left: &core.RowLit{Fields: []core.RowField{{Label: "x", Type: &core.Primitive{PKind: core.PrimNumber}}}}, Right: core.Empty()}})
	e := &ast.ObjectCastExpr{Value: &ast.IdentExpr{Name: "a", Resolved: &ast.Resolution{Kind: ast.ResLocal}}}
	term, ty, err := inferObjectCast(ctx, env, e)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := term.(*core.RecCast); !ok {
		t.Fatalf("expected a RecCast, got %#v", term)
	}
	rt := ty.(*core.RecTy)
	concat := rt.Row.(*core.RowConcat)
	if _, ok := core.Deref(concat.Right).(*core.Meta); !ok {
		t.Fatalf("expected a fresh meta tail, got %#v", concat.Right)
	}
}

func TestInferObjectCast_NonRecordOperandIsAnError(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	e := &ast.ObjectCastExpr{Value: numLit("1")}
	if _, _, err := inferObjectCast(ctx, env, e); err == nil {
		t.Fatal("expected a non-record operand error")
	}
}

func TestInferRecordSelect_ProjectsTheNamedField(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	env.BindValue("r", &core.RecTy{Row: &core.RowLit{Fields: []core.RowField{{Label: "x", Type: &core.Primitive{PKind: core.PrimNumber}}}}})
	e := &ast.RecordSelectExpr{Record: &ast.IdentExpr{Name: "r", Resolved: &ast.Resolution{Kind: ast.ResLocal}}, Label: "x"}
	term, ty, err := inferRecordSelect(ctx, env, e)
	if err != nil {
		t.Fatal(err)
	}
	proj, ok := term.(*core.RecProj)
	if !ok || proj.Label != "x" {
		t.Fatalf("expected RecProj on x, got %#v", term)
	}
	if prim, ok := ty.(*core.Primitive); !ok || prim.PKind != core.PrimNumber {
		t.Fatalf("expected number field type, got %#v", ty)
	}
}

func TestInferVariant_WithPayloadBuildsAOneFieldOpenVariantRow(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	e := &ast.VariantExpr{Label: "Some", Payload: numLit("1")}
	term, ty, err := inferVariant(ctx, env, e)
	if err != nil {
		t.Fatal(err)
	}
	intro, ok := term.(*core.VarIntro)
	if !ok || intro.Label != "Some" {
		t.Fatalf("expected a VarIntro labelled Some, got %#v", term)
	}
	if _, ok := ty.(*core.VarTy); !ok {
		t.Fatalf("expected a VarTy, got %#v", ty)
	}
}

func TestInferVariant_WithoutPayloadDefaultsToUnit(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	e := &ast.VariantExpr{Label: "None"}
	term, _, err := inferVariant(ctx, env, e)
	if err != nil {
		t.Fatal(err)
	}
	intro := term.(*core.VarIntro)
	if prim, ok := intro.Payload.(*core.Primitive); !ok || prim.PKind != core.PrimUnit {
		t.Fatalf("expected a unit payload, got %#v", intro.Payload)
	}
}

func TestInferVariantCast_NonVariantOperandIsAnError(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	e := &ast.VariantCastExpr{Value: numLit("1")}
	if _, _, err := inferVariantCast(ctx, env, e); err == nil {
		t.Fatal("expected a non-variant operand error")
	}
}

func TestInferVariantCast_WidensAnExistingVariant(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	env.BindValue("v", &core.VarTy{Row: &core.RowConcat{Left: &core.RowLit{Fields: []core.RowField{{Label: "A", Type: &core.Primitive{PKind: core.PrimUnit}}}}, Right: core.Empty()}})
	e := &ast.VariantCastExpr{Value: &ast.IdentExpr{Name: "v", Resolved: &ast.Resolution{Kind: ast.ResLocal}}}
	term, ty, err := inferVariantCast(ctx, env, e)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := term.(*core.VarCast); !ok {
		t.Fatalf("expected a VarCast, got %#v", term)
	}
	if _, ok := ty.(*core.VarTy); !ok {
		t.Fatalf("expected a VarTy, got %#v", ty)
	}
}

func TestInferSwitch_BindsPayloadAndUnifiesCaseResultTypes(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	env.BindValue("v", &core.VarTy{Row: &core.RowConcat{
		Left: &core.RowLit{Fields: []core.RowField{
			{Label: "Some", Type: &core.Primitive{PKind: core.PrimNumber}},
			{Label: "None", Type: &core.Primitive{PKind: core.PrimUnit}},
		}},
		Right: core.Empty(),
	}})
	e := &ast.SwitchExpr{
		Scrutinee: &ast.IdentExpr{Name: "v", Resolved: &ast.Resolution{Kind: ast.ResLocal}},
		Cases: []ast.SwitchCase{
			{Label: "Some", Var: "x", Body: &ast.IdentExpr{Name: "x", Resolved: &ast.Resolution{Kind: ast.ResLocal}}},
			{Label: "None", Body: numLit("0")},
		},
	}
	term, ty, err := inferSwitch(ctx, env, e)
	if err != nil {
		t.Fatal(err)
	}
	sw, ok := term.(*core.Switch)
	if !ok || len(sw.Cases) != 2 {
		t.Fatalf("expected a 2-case Switch, got %#v", term)
	}
	if sw.Cases[0].PayloadName != "x" {
		t.Fatalf("expected the Some case to bind payload name x, got %q", sw.Cases[0].PayloadName)
	}
	if prim, ok := core.Deref(ty).(*core.Primitive); !ok || prim.PKind != core.PrimNumber {
		t.Fatalf("expected the case result types to unify to number, got %#v", ty)
	}
}

func TestInferIf_LowersToASwitchOverTrueFalse(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	e := &ast.IfExpr{
		Cond: boolLit("true"),
		Then: blockOf(numLit("1")),
		Else: blockOf(numLit("2")),
	}
	term, ty, err := inferIf(ctx, env, e)
	if err != nil {
		t.Fatal(err)
	}
	sw, ok := term.(*core.Switch)
	if !ok {
		t.Fatalf("expected inferIf to produce a core.Switch, not %#v", term)
	}
	if len(sw.Cases) != 2 || sw.Cases[0].Label != "true" || sw.Cases[1].Label != "false" {
		t.Fatalf("expected true/false cases in that order, got %#v", sw.Cases)
	}
	if prim, ok := ty.(*core.Primitive); !ok || prim.PKind != core.PrimNumber {
		t.Fatalf("expected the branch type (number), got %#v", ty)
	}
}

func TestInferIf_WithoutElseDefaultsToUnit(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	e := &ast.IfExpr{Cond: boolLit("true"), Then: blockOf(&ast.Block{})}
	term, _, err := inferIf(ctx, env, e)
	if err != nil {
		t.Fatal(err)
	}
	sw := term.(*core.Switch)
	if prim, ok := sw.Cases[1].Body.(*core.Primitive); !ok || prim.PKind != core.PrimUnit {
		t.Fatalf("expected the implicit else branch to be unit, got %#v", sw.Cases[1].Body)
	}
}

func TestCheckIf_UnifiesAgainstExpected(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	e := &ast.IfExpr{Cond: boolLit("true"), Then: blockOf(numLit("1")), Else: blockOf(numLit("2"))}
	if _, err := checkIf(ctx, env, e, &core.Primitive{PKind: core.PrimNumber}); err != nil {
		t.Fatal(err)
	}
}

func TestInferPipe_RewritesIntoACallWithTheLeftOperandPrepended(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	env.BindValue("inc", &core.Pi{Param: core.ParamInfo{Name: "x"}, ParamTy: &core.Primitive{PKind: core.PrimNumber}, RetTy: &core.Primitive{PKind: core.PrimNumber}})
	e := &ast.PipeExpr{
		Left: numLit("1"),
		Call: &ast.CallExpr{Fn: &ast.IdentExpr{Name: "inc", Resolved: &ast.Resolution{Kind: ast.ResLocal}}},
	}
	_, ty, err := inferPipe(ctx, env, e)
	if err != nil {
		t.Fatal(err)
	}
	if prim, ok := ty.(*core.Primitive); !ok || prim.PKind != core.PrimNumber {
		t.Fatalf("expected number, got %#v", ty)
	}
}

func TestInferPipe_RewritesIntoAMethodCallWithTheLeftOperandAsReceiver(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	env.BindValue("r", &core.RecTy{Row: &core.RowLit{Fields: []core.RowField{
		{Label: "greet", Type: &core.Pi{Param: core.ParamInfo{Name: "x"}, ParamTy: &core.Primitive{PKind: core.PrimString}, RetTy: &core.Primitive{PKind: core.PrimString}}},
	}}})
	e := &ast.PipeExpr{
		Left: &ast.IdentExpr{Name: "r", Resolved: &ast.Resolution{Kind: ast.ResLocal}},
		Call: &ast.MethodCallExpr{Method: "greet", Args: []ast.Expr{&ast.LitExpr{PKind: core.PrimString, Value: "hi"}}},
	}
	_, _, err := inferPipe(ctx, env, e)
	if err != nil {
		t.Fatal(err)
	}
}

func TestInferPipe_NonCallTargetIsAnError(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	e := &ast.PipeExpr{Left: numLit("1"), Call: numLit("2")}
	if _, _, err := inferPipe(ctx, env, e); err == nil {
		t.Fatal("expected an error for a non-call pipe target")
	}
}

func TestInferNew_DispatchesToTheDesugaredConstructorName(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	env.BindValue("new#Point", &core.Pi{Param: core.ParamInfo{Name: "x"}, ParamTy: &core.Primitive{PKind: core.PrimNumber}, RetTy: &core.Ref{Target: core.GlobalID{Name: "Point"}}})
	e := &ast.NewExpr{Type: &ast.RefType{Name: "Point"}, Args: []ast.Expr{numLit("1")}}
	_, _, err := inferNew(ctx, env, e)
	if err != nil {
		t.Fatal(err)
	}
}

func TestInferNew_NonNamedTypeIsAnError(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	e := &ast.NewExpr{Type: &ast.RecordType{}}
	if _, _, err := inferNew(ctx, env, e); err == nil {
		t.Fatal("expected an error for `new` on a non-named type")
	}
}

func TestInferBinary_NumberAddLowersToTheHostOperator(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	e := &ast.BinaryExpr{Op: ast.BinaryAdd, Left: numLit("1"), Right: numLit("2")}

	term, ty, err := inferBinary(ctx, env, e)
	if err != nil {
		t.Fatal(err)
	}
	if prim, ok := ty.(*core.Primitive); !ok || prim.PKind != core.PrimNumber {
		t.Fatalf("expected a number result, got %#v", ty)
	}
	outer, ok := term.(*core.App)
	if !ok {
		t.Fatalf("expected an App chain, got %#v", term)
	}
	inner, ok := outer.Fn.(*core.App)
	if !ok {
		t.Fatalf("expected a nested App for the curried operator, got %#v", outer.Fn)
	}
	ref, ok := inner.Fn.(*core.Ref)
	if !ok || ref.Target.Name != "number#__add__" {
		t.Fatalf("expected a Ref to number#__add__, got %#v", inner.Fn)
	}
}

func TestInferBinary_NumberSubLowersToTheHostOperator(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	e := &ast.BinaryExpr{Op: ast.BinarySub, Left: numLit("5"), Right: numLit("3")}

	term, ty, err := inferBinary(ctx, env, e)
	if err != nil {
		t.Fatal(err)
	}
	if prim, ok := ty.(*core.Primitive); !ok || prim.PKind != core.PrimNumber {
		t.Fatalf("expected a number result, got %#v", ty)
	}
	inner := term.(*core.App).Fn.(*core.App)
	ref, ok := inner.Fn.(*core.Ref)
	if !ok || ref.Target.Name != "number#__sub__" {
		t.Fatalf("expected a Ref to number#__sub__, got %#v", inner.Fn)
	}
}

func TestInferBinary_StringAddLowersToTheHostOperator(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	left := &ast.LitExpr{PKind: core.PrimString, Value: "a"}
	right := &ast.LitExpr{PKind: core.PrimString, Value: "b"}
	e := &ast.BinaryExpr{Op: ast.BinaryAdd, Left: left, Right: right}

	term, ty, err := inferBinary(ctx, env, e)
	if err != nil {
		t.Fatal(err)
	}
	if prim, ok := ty.(*core.Primitive); !ok || prim.PKind != core.PrimString {
		t.Fatalf("expected a string result, got %#v", ty)
	}
	inner := term.(*core.App).Fn.(*core.App)
	ref, ok := inner.Fn.(*core.Ref)
	if !ok || ref.Target.Name != "string#__add__" {
		t.Fatalf("expected a Ref to string#__add__, got %#v", inner.Fn)
	}
}

func TestInferBinary_NonPrimitiveOperandDispatchesToAnInterfaceMagicMethod(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	ctx.Registry.DeclareInterface(&dispatch.Interface{
		Name:         "Vec",
		CarrierParam: "T",
		Methods: map[string]dispatch.Method{
			"__add__": {Name: "__add__", Type: &core.Pi{
				Param: core.ParamInfo{Name: "a"}, ParamTy: core.NewVar("T"),
				RetTy: &core.Pi{Param: core.ParamInfo{Name: "b"}, ParamTy: core.NewVar("T"), RetTy: core.NewVar("T")},
			}},
		},
	})
	vecTy := &core.RecTy{Row: &core.RowLit{Fields: []core.RowField{{Label: "x", Type: &core.Primitive{PKind: core.PrimNumber}}}}}
	env.BindValue("v", vecTy)
	left := &ast.IdentExpr{Name: "v", Resolved: &ast.Resolution{Kind: ast.ResLocal}}
	right := &ast.IdentExpr{Name: "v", Resolved: &ast.Resolution{Kind: ast.ResLocal}}
	e := &ast.BinaryExpr{Op: ast.BinaryAdd, Left: left, Right: right}

	term, _, err := inferBinary(ctx, env, e)
	if err != nil {
		t.Fatal(err)
	}
	inner, ok := term.(*core.App).Fn.(*core.App)
	if !ok {
		t.Fatalf("expected a nested App, got %#v", term)
	}
	ov, ok := inner.Fn.(*core.OvRef)
	if !ok || ov.InterfaceID != "Vec" || ov.Method != "__add__" {
		t.Fatalf("expected an OvRef for Vec::__add__, got %#v", inner.Fn)
	}
}

func TestInferBinary_NoInterfaceDeclaresTheOperatorIsAnError(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	recTy := &core.RecTy{Row: &core.RowLit{Fields: []core.RowField{{Label: "x", Type: &core.Primitive{PKind: core.PrimNumber}}}}}
	env.BindValue("v", recTy)
	left := &ast.IdentExpr{Name: "v", Resolved: &ast.Resolution{Kind: ast.ResLocal}}
	e := &ast.BinaryExpr{Op: ast.BinaryAdd, Left: left, Right: left}

	if _, _, err := inferBinary(ctx, env, e); err == nil {
		t.Fatal("expected an error when no interface declares __add__")
	}
}

func TestCheckUnionify_NarrowsAnOpenVariantIntoTheExpectedRow(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	openTail := ctx.Store.NewRow(0)
	env.BindValue("v", &core.VarTy{Row: &core.RowConcat{
		Left:  &core.RowLit{Fields: []core.RowField{{Label: "A", Type: &core.Primitive{PKind: core.PrimUnit}}}},
		Right: openTail,
	}})
	expected := &core.VarTy{Row: &core.RowConcat{
		Left: &core.RowLit{Fields: []core.RowField{
			{Label: "A", Type: &core.Primitive{PKind: core.PrimUnit}},
			{Label: "B", Type: &core.Primitive{PKind: core.PrimNumber}},
		}},
		Right: core.Empty(),
	}}
	call := &ast.CallExpr{
		Fn:   &ast.IdentExpr{Name: "unionify", Resolved: &ast.Resolution{Kind: ast.ResBuiltin, Name: "unionify"}},
		Args: []ast.Expr{&ast.IdentExpr{Name: "v", Resolved: &ast.Resolution{Kind: ast.ResLocal}}},
	}

	term, err := checkUnionify(ctx, env, call, expected)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := term.(*core.VarCast); !ok {
		t.Fatalf("expected a VarCast, got %#v", term)
	}
}

func TestCheckUnionify_LabelMissingFromTheExpectedRowIsAnError(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	env.BindValue("v", &core.VarTy{Row: &core.RowConcat{
		Left:  &core.RowLit{Fields: []core.RowField{{Label: "A", Type: &core.Primitive{PKind: core.PrimUnit}}, {Label: "C", Type: &core.Primitive{PKind: core.PrimUnit}}}},
		Right: core.Empty(),
	}})
	expected := &core.VarTy{Row: &core.RowConcat{
		Left:  &core.RowLit{Fields: []core.RowField{{Label: "A", Type: &core.Primitive{PKind: core.PrimUnit}}}},
		Right: core.Empty(),
	}}
	call := &ast.CallExpr{
		Fn:   &ast.IdentExpr{Name: "unionify", Resolved: &ast.Resolution{Kind: ast.ResBuiltin, Name: "unionify"}},
		Args: []ast.Expr{&ast.IdentExpr{Name: "v", Resolved: &ast.Resolution{Kind: ast.ResLocal}}},
	}

	if _, err := checkUnionify(ctx, env, call, expected); err == nil {
		t.Fatal("expected an error for a label absent from the expected row")
	}
}

func TestCheckUnionify_NonVariantArgumentIsAnError(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	expected := &core.VarTy{Row: core.Empty()}
	call := &ast.CallExpr{
		Fn:   &ast.IdentExpr{Name: "unionify", Resolved: &ast.Resolution{Kind: ast.ResBuiltin, Name: "unionify"}},
		Args: []ast.Expr{numLit("1")},
	}

	if _, err := checkUnionify(ctx, env, call, expected); err == nil {
		t.Fatal("expected an error for a non-variant argument")
	}
}

func TestCheckUnionify_NonVariantExpectedTypeIsAnError(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	env.BindValue("v", &core.VarTy{Row: core.Empty()})
	call := &ast.CallExpr{
		Fn:   &ast.IdentExpr{Name: "unionify", Resolved: &ast.Resolution{Kind: ast.ResBuiltin, Name: "unionify"}},
		Args: []ast.Expr{&ast.IdentExpr{Name: "v", Resolved: &ast.Resolution{Kind: ast.ResLocal}}},
	}

	if _, err := checkUnionify(ctx, env, call, &core.Primitive{PKind: core.PrimNumber}); err == nil {
		t.Fatal("expected an error for a non-variant expected type")
	}
}

func TestInferCall_UnionifyWithNoExpectedTypeIsAnError(t *testing.T) {
	ctx := newTestContext()
	env := NewRootEnv()
	env.BindValue("v", &core.VarTy{Row: core.Empty()})
	call := &ast.CallExpr{
		Fn:   &ast.IdentExpr{Name: "unionify", Resolved: &ast.Resolution{Kind: ast.ResBuiltin, Name: "unionify"}},
		Args: []ast.Expr{&ast.IdentExpr{Name: "v", Resolved: &ast.Resolution{Kind: ast.ResLocal}}},
	}

	if _, _, err := inferCall(ctx, env, call); err == nil {
		t.Fatal("expected an error for unionify used with no expected type")
	}
}
