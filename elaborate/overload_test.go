package elaborate

import (
	"testing"

	"github.com/corelang/elaborator/core"
	"github.com/corelang/elaborator/dispatch"
)

func declareShow(ctx *Context) {
	ctx.Registry.DeclareInterface(&dispatch.Interface{
		Name:         "Show",
		CarrierParam: "T",
		Methods: map[string]dispatch.Method{
			"show": {Name: "show", Type: &core.Pi{Param: core.ParamInfo{Name: "self"}, ParamTy: core.NewVar("T"), RetTy: &core.Primitive{PKind: core.PrimString}}},
		},
	})
}

func TestResolveOverloads_RewritesAUniquelyMatchingOvRefToARef(t *testing.T) {
	ctx := newTestContext()
	declareShow(ctx)
	target := core.GlobalID{Name: "Show#show#number"}
	ctx.Registry.AddImplementation(&dispatch.Implementation{
		Interface: "Show",
		Carrier:   &core.Primitive{PKind: core.PrimNumber},
		Methods:   map[string]core.GlobalID{"show": target},
	})
	ov := &core.OvRef{InterfaceID: "Show", Method: "show", Carrier: &core.Primitive{PKind: core.PrimNumber}}

	got, err := ResolveOverloads(ctx, ov, true)
	if err != nil {
		t.Fatal(err)
	}
	ref, ok := got.(*core.Ref)
	if !ok || ref.Target != target {
		t.Fatalf("expected a Ref to %#v, got %#v", target, got)
	}
}

func TestResolveOverloads_DefersAStuckCarrierConstrainedByWhere(t *testing.T) {
	ctx := newTestContext()
	declareShow(ctx)
	ctx.openCarriersFor("T")["Show"] = true
	ov := &core.OvRef{InterfaceID: "Show", Method: "show", Carrier: core.NewVar("T")}

	got, err := ResolveOverloads(ctx, ov, true)
	if err != nil {
		t.Fatal(err)
	}
	if got != ov {
		t.Fatalf("expected the OvRef to survive unchanged when deferred, got %#v", got)
	}
	if len(ctx.Pending) != 1 || ctx.Pending[0].InterfaceID != "Show" {
		t.Fatalf("expected one pending predicate for Show, got %#v", ctx.Pending)
	}
}

func TestResolveOverloads_DisallowedDeferReportsAnErrorInstead(t *testing.T) {
	ctx := newTestContext()
	declareShow(ctx)
	ctx.openCarriersFor("T")["Show"] = true
	ov := &core.OvRef{InterfaceID: "Show", Method: "show", Carrier: core.NewVar("T")}

	if _, err := ResolveOverloads(ctx, ov, false); err == nil {
		t.Fatal("expected an error when deferral is disallowed")
	}
	if len(ctx.Pending) != 0 {
		t.Fatalf("expected nothing recorded as pending, got %#v", ctx.Pending)
	}
}

func TestResolveOverloads_NoImplementationAtAllIsAnError(t *testing.T) {
	ctx := newTestContext()
	declareShow(ctx)
	ov := &core.OvRef{InterfaceID: "Show", Method: "show", Carrier: &core.Primitive{PKind: core.PrimNumber}}

	if _, err := ResolveOverloads(ctx, ov, true); err == nil {
		t.Fatal("expected an error since no implementation of Show is registered")
	}
}

func TestResolveOverloads_WalksIntoNestedTermsToFindOvRef(t *testing.T) {
	ctx := newTestContext()
	declareShow(ctx)
	target := core.GlobalID{Name: "Show#show#number"}
	ctx.Registry.AddImplementation(&dispatch.Implementation{
		Interface: "Show",
		Carrier:   &core.Primitive{PKind: core.PrimNumber},
		Methods:   map[string]core.GlobalID{"show": target},
	})
	ov := &core.OvRef{InterfaceID: "Show", Method: "show", Carrier: &core.Primitive{PKind: core.PrimNumber}}
	lam := &core.Lam{Param: core.ParamInfo{Name: "x"}, Body: &core.App{Fn: ov, Arg: core.NewVar("x")}}

	got, err := ResolveOverloads(ctx, lam, true)
	if err != nil {
		t.Fatal(err)
	}
	resolvedLam := got.(*core.Lam)
	app := resolvedLam.Body.(*core.App)
	if ref, ok := app.Fn.(*core.Ref); !ok || ref.Target != target {
		t.Fatalf("expected the nested OvRef to resolve to a Ref, got %#v", app.Fn)
	}
}
