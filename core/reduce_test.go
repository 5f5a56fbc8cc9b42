package core

import "testing"

func TestWHNF_BetaReducesApplication(t *testing.T) {
	lam := &Lam{Param: ParamInfo{Name: "x"}, Body: NewVar("x")}
	app := &App{Fn: lam, Arg: &Primitive{PKind: PrimNumber, Value: "1"}}

	got := WHNF(app)
	prim, ok := got.(*Primitive)
	if !ok || prim.Value != "1" {
		t.Fatalf("expected the argument literal, got %#v", got)
	}
}

func TestWHNF_ProjectsMatchingRecordField(t *testing.T) {
	rec := &RecLit{Fields: []Field{
		{Label: "a", Value: &Primitive{PKind: PrimString, Value: "hi"}},
		{Label: "b", Value: &Primitive{PKind: PrimNumber, Value: "2"}},
	}}
	proj := &RecProj{Record: rec, Label: "b"}

	got := WHNF(proj)
	prim, ok := got.(*Primitive)
	if !ok || prim.Value != "2" {
		t.Fatalf("expected field b's value, got %#v", got)
	}
}

func TestWHNF_SwitchDispatchesToMatchingCaseAndBindsPayload(t *testing.T) {
	intro := &VarIntro{Label: "some", Payload: &Primitive{PKind: PrimNumber, Value: "5"}}
	sw := &Switch{
		Scrutinee: intro,
		Cases: []SwitchCase{
			{Label: "none", Body: &Primitive{PKind: PrimNumber, Value: "0"}},
			{Label: "some", PayloadName: "x", Body: NewVar("x")},
		},
	}

	got := WHNF(sw)
	prim, ok := got.(*Primitive)
	if !ok || prim.Value != "5" {
		t.Fatalf("expected the bound payload, got %#v", got)
	}
}

func TestWHNF_StopsOnUnboundMeta(t *testing.T) {
	meta := &Meta{ID: 1, State: MetaUnbound}
	app := &App{Fn: meta, Arg: NewVar("y")}

	got := WHNF(app)
	if got != app {
		t.Fatalf("expected reduction to stop unchanged on a stuck meta, got %#v", got)
	}
}

func TestWHNF_ConcatenatesDisjointRecordLiterals(t *testing.T) {
	left := &RecLit{Fields: []Field{{Label: "a", Value: &Primitive{PKind: PrimString, Value: "x"}}}}
	right := &RecLit{Fields: []Field{{Label: "b", Value: &Primitive{PKind: PrimString, Value: "y"}}}}

	got := WHNF(&RecConcat{Left: left, Right: right})
	lit, ok := got.(*RecLit)
	if !ok || len(lit.Fields) != 2 {
		t.Fatalf("expected a 2-field record, got %#v", got)
	}
}

func TestAlphaEqual_IgnoresBoundVariableNames(t *testing.T) {
	a := &Lam{Param: ParamInfo{Name: "x"}, Body: NewVar("x")}
	b := &Lam{Param: ParamInfo{Name: "y"}, Body: NewVar("y")}
	if !AlphaEqual(a, b) {
		t.Fatal("expected identity lambdas with different bound names to be alpha-equal")
	}
}

func TestAlphaEqual_DistinguishesDifferentGlobalRefs(t *testing.T) {
	a := NewRef(GlobalID{Module: "m", Name: "f"})
	b := NewRef(GlobalID{Module: "m", Name: "g"})
	if AlphaEqual(a, b) {
		t.Fatal("expected distinct global references to not be alpha-equal")
	}
}
