package core

import "testing"

func TestSubst_ReplacesFreeOccurrence(t *testing.T) {
	body := &App{Fn: NewVar("f"), Arg: NewVar("x")}
	got := Subst(body, "x", &Primitive{PKind: PrimNumber, Value: "3"})

	app := got.(*App)
	prim, ok := app.Arg.(*Primitive)
	if !ok || prim.Value != "3" {
		t.Fatalf("expected x replaced by the literal, got %#v", app.Arg)
	}
	if _, ok := app.Fn.(*Var); !ok {
		t.Fatalf("expected f left untouched, got %#v", app.Fn)
	}
}

func TestSubst_DoesNotDescendUnderShadowingBinder(t *testing.T) {
	// (lam x. x)[x := <something>] must leave the body's x bound to the lambda.
	lam := &Lam{Param: ParamInfo{Name: "x"}, Body: NewVar("x")}
	got := Subst(lam, "x", &Primitive{PKind: PrimNumber, Value: "9"}).(*Lam)

	v, ok := got.Body.(*Var)
	if !ok || v.Name != got.Param.Name {
		t.Fatalf("expected the shadowed x to remain bound to the lambda's own parameter, got %#v", got.Body)
	}
}

func TestSubst_RenamesBinderToAvoidCapture(t *testing.T) {
	// (lam y. x)[x := y] must rename the binder so the substituted y stays free.
	lam := &Lam{Param: ParamInfo{Name: "y"}, Body: NewVar("x")}
	got := Subst(lam, "x", NewVar("y")).(*Lam)

	if got.Param.Name == "y" {
		t.Fatalf("expected the binder to be renamed away from y to avoid capture, got %q", got.Param.Name)
	}
	v, ok := got.Body.(*Var)
	if !ok || v.Name != "y" {
		t.Fatalf("expected the substituted occurrence to remain y, got %#v", got.Body)
	}
}
