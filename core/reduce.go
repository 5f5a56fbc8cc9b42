package core

// Deref follows a chain of linked metavariables and returns the underlying
// term once one is found, same role as the teacher's types.RealType.
func Deref(t Term) Term {
	for {
		m, ok := t.(*Meta)
		if !ok || m.State != MetaLinked {
			return t
		}
		t = m.Link
	}
}

// WHNF reduces t to weak-head normal form using the rules of spec.md §4.2:
//
//	(Lam x. b) a        -> b[a/x]
//	RecProj(RecLit(ls),l)-> the value at l
//	Switch(VarIntro(l,p?), cases) -> the matching case's body, payload bound
//	If(true,t,_) -> t ; If(false,_,e) -> e
//	RecConcat(RecLit(a),RecLit(b)) -> RecLit(a ∪ b), given disjoint labels
//
// Any unbound Meta stops reduction (the term is "stuck" on that meta).
func WHNF(t Term) Term {
	t = Deref(t)
	switch t := t.(type) {
	case *App:
		fn := WHNF(t.Fn)
		lam, ok := fn.(*Lam)
		if !ok {
			if fn == t.Fn {
				return t
			}
			return &App{base: t.base, Fn: fn, Arg: t.Arg, Implicit: t.Implicit}
		}
		return WHNF(Subst(lam.Body, lam.Param.Name, t.Arg))

	case *RecProj:
		rec := WHNF(t.Record)
		lit, ok := rec.(*RecLit)
		if !ok {
			if rec == t.Record {
				return t
			}
			return &RecProj{base: t.base, Record: rec, Label: t.Label}
		}
		for _, f := range lit.Fields {
			if f.Label == t.Label {
				return WHNF(f.Value)
			}
		}
		return t // ill-typed; caller should have rejected this earlier

	case *Switch:
		scrut := WHNF(t.Scrutinee)
		intro, ok := scrut.(*VarIntro)
		if !ok {
			if scrut == t.Scrutinee {
				return t
			}
			return &Switch{base: t.base, Scrutinee: scrut, Cases: t.Cases}
		}
		for _, c := range t.Cases {
			if c.Label != intro.Label {
				continue
			}
			body := c.Body
			if c.PayloadName != "" && intro.Payload != nil {
				body = Subst(body, c.PayloadName, intro.Payload)
			}
			return WHNF(body)
		}
		return t // exhaustiveness is checked during elaboration, not here

	case *If:
		cond := WHNF(t.Cond)
		b, ok := cond.(*Primitive)
		if !ok || b.PKind != PrimBool {
			return t
		}
		if b.Value == "true" {
			return WHNF(t.Then)
		}
		return WHNF(t.Else)

	case *RecConcat:
		left := WHNF(t.Left)
		right := WHNF(t.Right)
		ll, lok := left.(*RecLit)
		rl, rok := right.(*RecLit)
		if !lok || !rok {
			return &RecConcat{base: t.base, Left: left, Right: right}
		}
		seen := make(map[string]bool, len(ll.Fields)+len(rl.Fields))
		fields := make([]Field, 0, len(ll.Fields)+len(rl.Fields))
		for _, f := range ll.Fields {
			seen[f.Label] = true
			fields = append(fields, f)
		}
		for _, f := range rl.Fields {
			if seen[f.Label] {
				return t // overlapping labels; ill-typed, caller rejects earlier
			}
			fields = append(fields, f)
		}
		return &RecLit{base: t.base, Fields: fields}

	default:
		return t
	}
}

// NF fully normalises t (used by definitional-equality checks).
func NF(t Term) Term {
	t = WHNF(t)
	switch t := t.(type) {
	case *Lam:
		return &Lam{base: t.base, Param: t.Param, Body: NF(t.Body)}
	case *App:
		return &App{base: t.base, Fn: NF(t.Fn), Arg: NF(t.Arg), Implicit: t.Implicit}
	case *Pi:
		return &Pi{base: t.base, Param: t.Param, ParamTy: NF(t.ParamTy), RetTy: NF(t.RetTy)}
	case *RecTy:
		return &RecTy{base: t.base, Row: NF(t.Row)}
	case *VarTy:
		return &VarTy{base: t.base, Row: NF(t.Row)}
	case *RecLit:
		fields := make([]Field, len(t.Fields))
		for i, f := range t.Fields {
			fields[i] = Field{Label: f.Label, Value: NF(f.Value)}
		}
		return &RecLit{base: t.base, Fields: fields}
	case *RecProj:
		return &RecProj{base: t.base, Record: NF(t.Record), Label: t.Label}
	case *RecConcat:
		return &RecConcat{base: t.base, Left: NF(t.Left), Right: NF(t.Right)}
	case *RecCast:
		return &RecCast{base: t.base, Record: NF(t.Record)}
	case *VarIntro:
		var p Term
		if t.Payload != nil {
			p = NF(t.Payload)
		}
		return &VarIntro{base: t.base, Label: t.Label, Payload: p}
	case *VarCast:
		return &VarCast{base: t.base, Variant: NF(t.Variant)}
	case *Switch:
		cases := make([]SwitchCase, len(t.Cases))
		for i, c := range t.Cases {
			cases[i] = SwitchCase{Label: c.Label, PayloadName: c.PayloadName, Body: NF(c.Body)}
		}
		return &Switch{base: t.base, Scrutinee: NF(t.Scrutinee), Cases: cases}
	default:
		return t
	}
}

// AlphaEqual reports whether a and b are equal up to normalisation,
// α-renaming, and row canonicalisation of any nested row values (the row
// canonicalisation itself lives in package rows; callers that need it
// should canonicalise Row-shaped sub-terms before calling AlphaEqual, or
// use unify.Engine.Unify, which hands rows to rows.Equal).
func AlphaEqual(a, b Term) bool {
	return alphaEqual(NF(a), NF(b), map[string]string{})
}

func alphaEqual(a, b Term, ren map[string]string) bool {
	a, b = Deref(a), Deref(b)
	if a.Kind() != b.Kind() {
		return false
	}
	switch a := a.(type) {
	case *Var:
		b := b.(*Var)
		if mapped, ok := ren[a.Name]; ok {
			return mapped == b.Name
		}
		return a.Name == b.Name
	case *Ref:
		b := b.(*Ref)
		return a.Target == b.Target
	case *Univ, *RowEmpty, *Hole:
		return true
	case *Primitive:
		b := b.(*Primitive)
		return a.PKind == b.PKind && a.Value == b.Value
	case *Meta:
		b := b.(*Meta)
		return a.ID == b.ID
	case *RowVar:
		b := b.(*RowVar)
		if mapped, ok := ren[a.Name]; ok {
			return mapped == b.Name
		}
		return a.Name == b.Name
	case *Lam:
		b := b.(*Lam)
		inner := cloneRename(ren)
		inner[a.Param.Name] = b.Param.Name
		return alphaEqual(a.Body, b.Body, inner)
	case *Pi:
		b := b.(*Pi)
		if !alphaEqual(a.ParamTy, b.ParamTy, ren) {
			return false
		}
		inner := cloneRename(ren)
		inner[a.Param.Name] = b.Param.Name
		return alphaEqual(a.RetTy, b.RetTy, inner)
	case *App:
		b := b.(*App)
		return alphaEqual(a.Fn, b.Fn, ren) && alphaEqual(a.Arg, b.Arg, ren)
	case *RecTy:
		b := b.(*RecTy)
		return alphaEqual(a.Row, b.Row, ren)
	case *VarTy:
		b := b.(*VarTy)
		return alphaEqual(a.Row, b.Row, ren)
	case *RecLit:
		b := b.(*RecLit)
		if len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			if a.Fields[i].Label != b.Fields[i].Label || !alphaEqual(a.Fields[i].Value, b.Fields[i].Value, ren) {
				return false
			}
		}
		return true
	case *RecProj:
		b := b.(*RecProj)
		return a.Label == b.Label && alphaEqual(a.Record, b.Record, ren)
	case *VarIntro:
		b := b.(*VarIntro)
		if a.Label != b.Label {
			return false
		}
		if (a.Payload == nil) != (b.Payload == nil) {
			return false
		}
		if a.Payload == nil {
			return true
		}
		return alphaEqual(a.Payload, b.Payload, ren)
	case *Switch:
		b := b.(*Switch)
		if !alphaEqual(a.Scrutinee, b.Scrutinee, ren) || len(a.Cases) != len(b.Cases) {
			return false
		}
		for i := range a.Cases {
			ca, cb := a.Cases[i], b.Cases[i]
			if ca.Label != cb.Label {
				return false
			}
			inner := cloneRename(ren)
			if ca.PayloadName != "" {
				inner[ca.PayloadName] = cb.PayloadName
			}
			if !alphaEqual(ca.Body, cb.Body, inner) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func cloneRename(m map[string]string) map[string]string {
	c := make(map[string]string, len(m)+1)
	for k, v := range m {
		c[k] = v
	}
	return c
}
