package core

import "fmt"

var freshCounter int

// freshName produces a name guaranteed not to collide with user identifiers
// (which never contain '#'), used to rename a binder when substitution would
// otherwise let a free variable in the replacement be captured.
func freshName(base string) string {
	freshCounter++
	return fmt.Sprintf("%s#%d", base, freshCounter)
}

// freeVars collects the free variable names of t into out.
func freeVars(t Term, bound map[string]bool, out map[string]bool) {
	if t == nil {
		return
	}
	switch t := t.(type) {
	case *Var:
		if !bound[t.Name] {
			out[t.Name] = true
		}
	case *Ref, *Univ, *RowEmpty, *Hole, *Primitive:
	case *Meta:
		if t.State == MetaLinked {
			freeVars(t.Link, bound, out)
		}
	case *RowVar:
	case *Lam:
		inner := cloneBoundSet(bound)
		inner[t.Param.Name] = true
		freeVars(t.Body, inner, out)
	case *Pi:
		freeVars(t.ParamTy, bound, out)
		inner := cloneBoundSet(bound)
		inner[t.Param.Name] = true
		freeVars(t.RetTy, inner, out)
	case *App:
		freeVars(t.Fn, bound, out)
		freeVars(t.Arg, bound, out)
	case *RecTy:
		freeVars(t.Row, bound, out)
	case *VarTy:
		freeVars(t.Row, bound, out)
	case *RecLit:
		for _, f := range t.Fields {
			freeVars(f.Value, bound, out)
		}
	case *RecProj:
		freeVars(t.Record, bound, out)
	case *RecConcat:
		freeVars(t.Left, bound, out)
		freeVars(t.Right, bound, out)
	case *RecCast:
		freeVars(t.Record, bound, out)
	case *VarIntro:
		freeVars(t.Payload, bound, out)
	case *VarCast:
		freeVars(t.Variant, bound, out)
	case *Switch:
		freeVars(t.Scrutinee, bound, out)
		for _, c := range t.Cases {
			inner := bound
			if c.PayloadName != "" {
				inner = cloneBoundSet(bound)
				inner[c.PayloadName] = true
			}
			freeVars(c.Body, inner, out)
		}
	case *If:
		freeVars(t.Cond, bound, out)
		freeVars(t.Then, bound, out)
		freeVars(t.Else, bound, out)
	case *OvRef:
		freeVars(t.Carrier, bound, out)
		for _, k := range t.KindArgs {
			freeVars(k, bound, out)
		}
	case *RowLit:
		for _, f := range t.Fields {
			freeVars(f.Type, bound, out)
		}
	case *RowConcat:
		freeVars(t.Left, bound, out)
		freeVars(t.Right, bound, out)
	}
}

func cloneBoundSet(b map[string]bool) map[string]bool {
	c := make(map[string]bool, len(b)+1)
	for k := range b {
		c[k] = true
	}
	return c
}

// Subst replaces free occurrences of name with val inside t, renaming
// binders as needed to avoid capturing free variables of val.
func Subst(t Term, name string, val Term) Term {
	return subst(t, name, val)
}

func subst(t Term, name string, val Term) Term {
	if t == nil {
		return nil
	}
	switch t := t.(type) {
	case *Var:
		if t.Name == name {
			return val
		}
		return t
	case *Ref, *Univ, *RowEmpty, *Hole, *Primitive:
		return t
	case *RowVar:
		return t
	case *Meta:
		if t.State == MetaLinked {
			return subst(t.Link, name, val)
		}
		return t
	case *Lam:
		return substBinder(t.Param, t.Body, name, val, func(p ParamInfo, b Term) Term {
			return &Lam{base: t.base, Param: p, Body: b}
		})
	case *Pi:
		pty := subst(t.ParamTy, name, val)
		return substBinder(t.Param, t.RetTy, name, val, func(p ParamInfo, b Term) Term {
			return &Pi{base: t.base, Param: p, ParamTy: pty, RetTy: b}
		})
	case *App:
		return &App{base: t.base, Fn: subst(t.Fn, name, val), Arg: subst(t.Arg, name, val), Implicit: t.Implicit}
	case *RecTy:
		return &RecTy{base: t.base, Row: subst(t.Row, name, val)}
	case *VarTy:
		return &VarTy{base: t.base, Row: subst(t.Row, name, val)}
	case *RecLit:
		fields := make([]Field, len(t.Fields))
		for i, f := range t.Fields {
			fields[i] = Field{Label: f.Label, Value: subst(f.Value, name, val)}
		}
		return &RecLit{base: t.base, Fields: fields}
	case *RecProj:
		return &RecProj{base: t.base, Record: subst(t.Record, name, val), Label: t.Label}
	case *RecConcat:
		return &RecConcat{base: t.base, Left: subst(t.Left, name, val), Right: subst(t.Right, name, val)}
	case *RecCast:
		return &RecCast{base: t.base, Record: subst(t.Record, name, val)}
	case *VarIntro:
		var p Term
		if t.Payload != nil {
			p = subst(t.Payload, name, val)
		}
		return &VarIntro{base: t.base, Label: t.Label, Payload: p}
	case *VarCast:
		return &VarCast{base: t.base, Variant: subst(t.Variant, name, val)}
	case *Switch:
		cases := make([]SwitchCase, len(t.Cases))
		for i, c := range t.Cases {
			if c.PayloadName == "" || c.PayloadName == name {
				cases[i] = c
				if c.PayloadName != name {
					cases[i].Body = subst(c.Body, name, val)
				}
				continue
			}
			if isFree(c.PayloadName, val) {
				fresh := freshName(c.PayloadName)
				body := subst(c.Body, c.PayloadName, &Var{Name: fresh})
				cases[i] = SwitchCase{Label: c.Label, PayloadName: fresh, Body: subst(body, name, val)}
			} else {
				cases[i] = SwitchCase{Label: c.Label, PayloadName: c.PayloadName, Body: subst(c.Body, name, val)}
			}
		}
		return &Switch{base: t.base, Scrutinee: subst(t.Scrutinee, name, val), Cases: cases}
	case *If:
		return &If{base: t.base, Cond: subst(t.Cond, name, val), Then: subst(t.Then, name, val), Else: subst(t.Else, name, val)}
	case *OvRef:
		kindArgs := make([]Term, len(t.KindArgs))
		for i, k := range t.KindArgs {
			kindArgs[i] = subst(k, name, val)
		}
		var carrier Term
		if t.Carrier != nil {
			carrier = subst(t.Carrier, name, val)
		}
		return &OvRef{base: t.base, InterfaceID: t.InterfaceID, Method: t.Method, KindArgs: kindArgs, Carrier: carrier}
	case *RowLit:
		fields := make([]RowField, len(t.Fields))
		for i, f := range t.Fields {
			fields[i] = RowField{Label: f.Label, Type: subst(f.Type, name, val)}
		}
		return &RowLit{base: t.base, Fields: fields}
	case *RowConcat:
		return &RowConcat{base: t.base, Left: subst(t.Left, name, val), Right: subst(t.Right, name, val)}
	}
	return t
}

func substBinder(p ParamInfo, body Term, name string, val Term, rebuild func(ParamInfo, Term) Term) Term {
	if p.Name == name {
		return rebuild(p, body)
	}
	if isFree(p.Name, val) {
		fresh := freshName(p.Name)
		renamed := subst(body, p.Name, &Var{Name: fresh})
		p.Name = fresh
		return rebuild(p, subst(renamed, name, val))
	}
	return rebuild(p, subst(body, name, val))
}

func isFree(name string, t Term) bool {
	out := map[string]bool{}
	freeVars(t, map[string]bool{}, out)
	return out[name]
}
