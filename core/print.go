package core

import (
	"fmt"
	"strings"
)

// String renders t for diagnostics and test failures. It is not round-trip
// surface syntax — just enough structure to tell terms apart at a glance,
// in the same spirit as the teacher's TypeString debug printer.
func String(t Term) string {
	var b strings.Builder
	writeTerm(&b, Deref(t))
	return b.String()
}

func writeTerm(b *strings.Builder, t Term) {
	if t == nil {
		b.WriteString("<nil>")
		return
	}
	switch t := t.(type) {
	case *Var:
		b.WriteString(t.Name)
	case *Ref:
		fmt.Fprintf(b, "%s::%s", t.Target.Module, t.Target.Name)
	case *Lam:
		if t.Param.Implicit {
			fmt.Fprintf(b, "<%s> => ", t.Param.Name)
		} else {
			fmt.Fprintf(b, "(%s) => ", t.Param.Name)
		}
		writeTerm(b, t.Body)
	case *App:
		writeTerm(b, t.Fn)
		if t.Implicit {
			b.WriteString("<")
		} else {
			b.WriteString("(")
		}
		writeTerm(b, t.Arg)
		if t.Implicit {
			b.WriteString(">")
		} else {
			b.WriteString(")")
		}
	case *Pi:
		fmt.Fprintf(b, "(%s: ", t.Param.Name)
		writeTerm(b, t.ParamTy)
		b.WriteString(") -> ")
		writeTerm(b, t.RetTy)
	case *Univ:
		b.WriteString("type")
	case *RecTy:
		b.WriteString("{")
		writeTerm(b, t.Row)
		b.WriteString("}")
	case *VarTy:
		b.WriteString("[")
		writeTerm(b, t.Row)
		b.WriteString("]")
	case *RecLit:
		b.WriteString("{")
		for i, f := range t.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(b, "%s: ", f.Label)
			writeTerm(b, f.Value)
		}
		b.WriteString("}")
	case *RecProj:
		writeTerm(b, t.Record)
		fmt.Fprintf(b, ".%s", t.Label)
	case *RecConcat:
		writeTerm(b, t.Left)
		b.WriteString(" ... ")
		writeTerm(b, t.Right)
	case *RecCast:
		b.WriteString("{...")
		writeTerm(b, t.Record)
		b.WriteString("}")
	case *VarIntro:
		b.WriteString(t.Label)
		if t.Payload != nil {
			b.WriteString("(")
			writeTerm(b, t.Payload)
			b.WriteString(")")
		}
	case *VarCast:
		b.WriteString("[...")
		writeTerm(b, t.Variant)
		b.WriteString("]")
	case *Switch:
		b.WriteString("switch(")
		writeTerm(b, t.Scrutinee)
		b.WriteString("){")
		for _, c := range t.Cases {
			b.WriteString(" case ")
			b.WriteString(c.Label)
			if c.PayloadName != "" {
				fmt.Fprintf(b, "(%s)", c.PayloadName)
			}
			b.WriteString(": ")
			writeTerm(b, c.Body)
			b.WriteString(";")
		}
		b.WriteString(" }")
	case *If:
		b.WriteString("if(")
		writeTerm(b, t.Cond)
		b.WriteString("){")
		writeTerm(b, t.Then)
		b.WriteString("}else{")
		writeTerm(b, t.Else)
		b.WriteString("}")
	case *Meta:
		switch t.State {
		case MetaLinked:
			writeTerm(b, t.Link)
		case MetaGeneric:
			fmt.Fprintf(b, "'t%d", t.ID)
		default:
			fmt.Fprintf(b, "?%d", t.ID)
		}
	case *Hole:
		b.WriteString("?")
	case *OvRef:
		fmt.Fprintf(b, "%s::%s", t.InterfaceID, t.Method)
		if len(t.KindArgs) > 0 {
			b.WriteString("<")
			for i, k := range t.KindArgs {
				if i > 0 {
					b.WriteString(", ")
				}
				writeTerm(b, k)
			}
			b.WriteString(">")
		}
	case *Primitive:
		b.WriteString(t.Value)
	case *RowEmpty:
		b.WriteString("<>")
	case *RowVar:
		fmt.Fprintf(b, "'%s", t.Name)
	case *RowLit:
		for i, f := range t.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(b, "%s: ", f.Label)
			writeTerm(b, f.Type)
		}
	case *RowConcat:
		writeTerm(b, t.Left)
		b.WriteString(" | ")
		writeTerm(b, t.Right)
	default:
		fmt.Fprintf(b, "<%s>", t.Kind())
	}
}
