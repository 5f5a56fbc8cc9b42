package dispatch

import "testing"

func TestRegistry_ImplementationsPreserveDeclarationOrder(t *testing.T) {
	reg := NewRegistry()
	reg.AddImplementation(&Implementation{Interface: "Show", Carrier: numberTy()})
	reg.AddImplementation(&Implementation{Interface: "Show", Carrier: stringTy()})

	impls := reg.Implementations("Show")
	if len(impls) != 2 {
		t.Fatalf("expected 2 implementations, got %d", len(impls))
	}
	if impls[0].DeclOrder != 0 || impls[1].DeclOrder != 1 {
		t.Fatalf("expected declaration order 0,1, got %d,%d", impls[0].DeclOrder, impls[1].DeclOrder)
	}
}

func TestRegistry_DeclareInterfaceRejectsDuplicate(t *testing.T) {
	reg := NewRegistry()
	if err := reg.DeclareInterface(&Interface{Name: "Show"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := reg.DeclareInterface(&Interface{Name: "Show"}); err == nil {
		t.Fatal("expected duplicate-declaration error")
	}
}
