package elaborate

import (
	"fmt"

	"github.com/corelang/elaborator/ast"
	"github.com/corelang/elaborator/core"
	"github.com/corelang/elaborator/dispatch"
)

// ElabFnDef elaborates a top-level function with a body (spec.md §3, §4.5):
// implicit parameters become leading implicit Pi binders, explicit
// parameters become ordinary Pi binders, and the body is checked against
// the declared return type when given, otherwise inferred.
func ElabFnDef(ctx *Context, globalEnv *TypeEnv, module string, d *ast.FnDef) (*core.Definition, error) {
	env := globalEnv.Child()
	implicit := ElabImplicitParams(env, d.ImplicitParams)
	for _, w := range d.Where {
		if err := bindWherePredicate(ctx, env, w); err != nil {
			return nil, err
		}
	}

	paramTys := make([]core.Term, len(d.Params))
	for i, p := range d.Params {
		pty, err := ElabType(ctx, env, p.Type)
		if err != nil {
			return nil, err
		}
		paramTys[i] = pty
		env.BindValue(p.Name, pty)
	}

	var bodyTerm, retTy core.Term
	var err error
	if d.RetType != nil {
		retTy, err = ElabType(ctx, env, d.RetType)
		if err != nil {
			return nil, err
		}
		bodyTerm, err = CheckBlock(ctx, env, d.Body, retTy)
	} else {
		bodyTerm, retTy, err = ElabBlock(ctx, env, d.Body)
	}
	if err != nil {
		return nil, err
	}

	term, ty := bodyTerm, retTy
	for i := len(d.Params) - 1; i >= 0; i-- {
		term = &core.Lam{Param: core.ParamInfo{Name: d.Params[i].Name}, Body: term}
		ty = &core.Pi{Param: core.ParamInfo{Name: d.Params[i].Name}, ParamTy: paramTys[i], RetTy: ty}
	}
	for i := len(d.ImplicitParams) - 1; i >= 0; i-- {
		p := d.ImplicitParams[i]
		term = &core.Lam{Param: core.ParamInfo{Name: p.Name, Implicit: true}, Body: term}
		ty = &core.Pi{Param: core.ParamInfo{Name: p.Name, Implicit: true}, ParamTy: &core.Univ{}, RetTy: ty}
	}

	return &core.Definition{
		ID:       core.GlobalID{Module: module, Name: d.Name},
		Kind:     core.DefFunction,
		Type:     ty,
		Body:     term,
		Implicit: implicit,
	}, nil
}

// ElabFnSignature builds only the Pi type of a function definition, without
// checking its body: an omitted return type becomes a fresh meta rather
// than being inferred. Used to pre-register a provisional signature for
// every member of a mutually recursive FnDef group before any of their
// bodies are checked, so calls within the group resolve against that
// signature; ElabFnDef's real, body-checked type is unified against it
// afterward (SPEC_FULL.md's grouped function-definition elaboration,
// combining spec.md §5's topological order with "postulates break cycles"
// for recursion that was never explicitly postulated).
func ElabFnSignature(ctx *Context, globalEnv *TypeEnv, d *ast.FnDef) (core.Term, error) {
	env := globalEnv.Child()
	ElabImplicitParams(env, d.ImplicitParams)
	for _, w := range d.Where {
		if err := bindWherePredicate(ctx, env, w); err != nil {
			return nil, err
		}
	}

	paramTys := make([]core.Term, len(d.Params))
	for i, p := range d.Params {
		pty, err := ElabType(ctx, env, p.Type)
		if err != nil {
			return nil, err
		}
		paramTys[i] = pty
	}

	var retTy core.Term
	if d.RetType != nil {
		var err error
		retTy, err = ElabType(ctx, env, d.RetType)
		if err != nil {
			return nil, err
		}
	} else {
		retTy = ctx.FreshMeta()
	}

	ty := retTy
	for i := len(d.Params) - 1; i >= 0; i-- {
		ty = &core.Pi{Param: core.ParamInfo{Name: d.Params[i].Name}, ParamTy: paramTys[i], RetTy: ty}
	}
	for i := len(d.ImplicitParams) - 1; i >= 0; i-- {
		p := d.ImplicitParams[i]
		ty = &core.Pi{Param: core.ParamInfo{Name: p.Name, Implicit: true}, ParamTy: &core.Univ{}, RetTy: ty}
	}
	return ty, nil
}

// ElabFnPostulate elaborates a forward declaration: its signature is
// checked exactly like ElabFnDef's, but it has no body (spec.md §3,
// "opaque reference at code-gen time").
func ElabFnPostulate(ctx *Context, globalEnv *TypeEnv, module string, d *ast.FnPostulate) (*core.Definition, error) {
	env := globalEnv.Child()
	implicit := ElabImplicitParams(env, d.ImplicitParams)
	for _, w := range d.Where {
		if err := bindWherePredicate(ctx, env, w); err != nil {
			return nil, err
		}
	}
	paramTys := make([]core.Term, len(d.Params))
	for i, p := range d.Params {
		pty, err := ElabType(ctx, env, p.Type)
		if err != nil {
			return nil, err
		}
		paramTys[i] = pty
	}
	retTy, err := ElabType(ctx, env, d.RetType)
	if err != nil {
		return nil, err
	}
	ty := retTy
	for i := len(d.Params) - 1; i >= 0; i-- {
		ty = &core.Pi{Param: core.ParamInfo{Name: d.Params[i].Name}, ParamTy: paramTys[i], RetTy: ty}
	}
	for i := len(d.ImplicitParams) - 1; i >= 0; i-- {
		p := d.ImplicitParams[i]
		ty = &core.Pi{Param: core.ParamInfo{Name: p.Name, Implicit: true}, ParamTy: &core.Univ{}, RetTy: ty}
	}
	return &core.Definition{ID: core.GlobalID{Module: module, Name: d.Name}, Kind: core.DefPostulate, Type: ty, Implicit: implicit}, nil
}

// ElabConstDef elaborates a top-level binding (spec.md §3).
func ElabConstDef(ctx *Context, globalEnv *TypeEnv, module string, d *ast.ConstDef) (*core.Definition, error) {
	env := globalEnv.Child()
	var term, ty core.Term
	var err error
	if d.Type != nil {
		ty, err = ElabType(ctx, env, d.Type)
		if err != nil {
			return nil, err
		}
		term, err = Check(ctx, env, d.Value, ty)
	} else {
		term, ty, err = Infer(ctx, env, d.Value)
	}
	if err != nil {
		return nil, err
	}
	return &core.Definition{ID: core.GlobalID{Module: module, Name: d.Name}, Kind: core.DefConstant, Type: ty, Body: term}, nil
}

// bindWherePredicate records that an implicit parameter of the enclosing
// signature is constrained by an interface, consulted by
// dispatch.Resolver.deferrable when an OvRef's carrier is that parameter
// (spec.md §4.6 step 4). It does not itself search for an implementation —
// the predicate stays open until a concrete call site discharges it.
func bindWherePredicate(ctx *Context, env *TypeEnv, w ast.Predicate) error {
	if len(w.Args) != 1 {
		return fmt.Errorf("interface %q: only single-carrier where clauses are supported", w.InterfaceName)
	}
	ref, ok := w.Args[0].(*ast.RefType)
	if !ok {
		return fmt.Errorf("where clause carrier must be a bare type parameter")
	}
	m := ctx.openCarriersFor(ref.Name)
	m[w.InterfaceName] = true
	return nil
}

// KindMismatchError reports a method signature that applies an interface's
// carrier to the wrong number of type arguments for the carrier's declared
// kind (spec.md §3's `type -> type -> ... -> type`, §7's Kind mismatch).
type KindMismatchError struct {
	Carrier string
	Want    int
	Got     int
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("carrier %q has kind arity %d but is applied to %d argument(s) here", e.Carrier, e.Want, e.Got)
}

// checkCarrierArity walks ty for every maximal application spine headed by
// the interface's own carrier parameter and fails if any of them apply a
// different number of arguments than arity (the interface's declared
// carrier arity, passed in by the caller from d.CarrierParam.Arity).
func checkCarrierArity(carrierName string, arity int, ty core.Term) error {
	for _, got := range carrierApplicationArities(ty, carrierName) {
		if got != arity {
			return &KindMismatchError{Carrier: carrierName, Want: arity, Got: got}
		}
	}
	return nil
}

func carrierApplicationArities(t core.Term, carrierName string) []int {
	var arities []int
	var walk func(core.Term)
	walk = func(t core.Term) {
		if t == nil {
			return
		}
		switch t := t.(type) {
		case *core.App:
			cur := core.Term(t)
			n := 0
			for {
				app, ok := cur.(*core.App)
				if !ok {
					break
				}
				n++
				walk(app.Arg)
				cur = app.Fn
			}
			if v, ok := cur.(*core.Var); ok && v.Name == carrierName {
				arities = append(arities, n)
			} else {
				walk(cur)
			}
		case *core.Var:
			if t.Name == carrierName {
				arities = append(arities, 0)
			}
		case *core.Pi:
			walk(t.ParamTy)
			walk(t.RetTy)
		case *core.RecTy:
			walk(t.Row)
		case *core.VarTy:
			walk(t.Row)
		case *core.RowLit:
			for _, f := range t.Fields {
				walk(f.Type)
			}
		case *core.RowConcat:
			walk(t.Left)
			walk(t.Right)
		}
	}
	walk(t)
	return arities
}

// ElabInterfaceDef registers an interface's method signatures into the
// dispatch registry (spec.md §3, §4.6). Method bodies arrive separately
// from each ImplementsDef.
func ElabInterfaceDef(ctx *Context, d *ast.InterfaceDef) error {
	env := NewRootEnv()
	env.BindType(d.CarrierParam.Name, core.NewVar(d.CarrierParam.Name), false)
	for _, p := range d.ImplicitParams {
		env.BindType(p.Name, core.NewVar(p.Name), false)
	}
	methods := make(map[string]dispatch.Method, len(d.Methods))
	for _, m := range d.Methods {
		menv := env.Child()
		implicit := ElabImplicitParams(menv, m.ImplicitParams)
		paramTys := make([]core.Term, len(m.Params))
		for i, p := range m.Params {
			pty, err := ElabType(ctx, menv, p.Type)
			if err != nil {
				return err
			}
			if err := checkCarrierArity(d.CarrierParam.Name, d.CarrierParam.Arity, pty); err != nil {
				return err
			}
			paramTys[i] = pty
		}
		retTy, err := ElabType(ctx, menv, m.RetType)
		if err != nil {
			return err
		}
		if err := checkCarrierArity(d.CarrierParam.Name, d.CarrierParam.Arity, retTy); err != nil {
			return err
		}
		ty := retTy
		for i := len(m.Params) - 1; i >= 0; i-- {
			ty = &core.Pi{Param: core.ParamInfo{Name: m.Params[i].Name}, ParamTy: paramTys[i], RetTy: ty}
		}
		// A method's own implicit params (e.g. Functor.map<A,B>) must be real
		// Pi-implicit binders, the same way ElabFnDef wraps d.ImplicitParams,
		// so an explicit call-site kind argument (spec.md §6.1) has a param
		// to land on instead of being discarded by applyArgs.
		for i := len(m.ImplicitParams) - 1; i >= 0; i-- {
			ty = &core.Pi{Param: implicit[i], ParamTy: &core.Univ{}, RetTy: ty}
		}
		methods[m.Name] = dispatch.Method{Name: m.Name, Type: ty}
	}
	return ctx.Registry.DeclareInterface(&dispatch.Interface{
		Name:         d.Name,
		CarrierParam: d.CarrierParam.Name,
		CarrierArity: d.CarrierParam.Arity,
		Methods:      methods,
	})
}

// ElabImplementsDef elaborates one `implements I for C { ... }` block's
// method bodies and registers the result in the dispatch registry
// (spec.md §3, §4.6). Each method is elaborated as an ordinary function
// definition named "<interface>#<method>#<carrier-head>" so it has a
// stable GlobalID distinct from other implementations of the same method.
// Besides the generated method definitions, it returns the elaborated
// carrier and each method's GlobalID so the caller (package elaborator)
// can also record the implementation in the resulting core.Module
// (spec.md §6.2's "every implementation registered").
func ElabImplementsDef(ctx *Context, globalEnv *TypeEnv, module string, d *ast.ImplementsDef) ([]*core.Definition, core.Term, map[string]core.GlobalID, error) {
	carrier, err := ElabType(ctx, globalEnv, d.Carrier)
	if err != nil {
		return nil, nil, nil, err
	}
	head := CarrierHead(carrier)
	defs := make([]*core.Definition, 0, len(d.Methods))
	methodIDs := make(map[string]core.GlobalID, len(d.Methods))
	for _, m := range d.Methods {
		name := fmt.Sprintf("%s#%s#%s", d.InterfaceName, m.Name, head)
		renamed := *m
		renamed.Name = name
		fnDef, err := ElabFnDef(ctx, globalEnv, module, &renamed)
		if err != nil {
			return nil, nil, nil, err
		}
		defs = append(defs, fnDef)
		methodIDs[m.Name] = fnDef.ID
	}
	ctx.Registry.AddImplementation(&dispatch.Implementation{
		Interface: d.InterfaceName,
		Carrier:   carrier,
		Methods:   methodIDs,
	})
	return defs, carrier, methodIDs, nil
}

// CarrierHead names the head constructor of a carrier type, used to keep
// generated implementation method names readable and distinct, and to key
// a core.Module's Implementations table (package elaborator); dispatch
// itself addresses implementations by unifying the full carrier term, not
// by this string.
func CarrierHead(t core.Term) string {
	switch t := core.Deref(t).(type) {
	case *core.Primitive:
		return [...]string{"string", "number", "bigint", "boolean", "unit"}[t.PKind]
	case *core.Ref:
		return t.Target.Name
	case *core.App:
		return CarrierHead(t.Fn)
	case *core.RecTy:
		return "record"
	case *core.VarTy:
		return "variant"
	default:
		return "anon"
	}
}

// ElabClassType registers a ClassDef's name as a structural alias for its
// instance row, without building the constructor or checking Init/methods.
// Run ahead of dependency order (alongside ElabInterfaceDef) so any
// definition naming the class in a type position — including one
// elaborated before the class's own ElabClassDef runs — resolves it to the
// same core.RecTy that field projection and method dispatch need, rather
// than ElabType's opaque-Ref fallback for an unbound name. A field typed
// with the class's own name (self-referential fields) still falls back to
// that opaque Ref, since the alias is not registered until this function
// returns; that mirrors the recursive-type-group handling of TypeAlias.
func ElabClassType(ctx *Context, globalEnv *TypeEnv, d *ast.ClassDef) (core.Term, error) {
	env := globalEnv.Child()
	ElabImplicitParams(env, d.ImplicitParams)

	rowFields := make([]core.RowField, len(d.Fields))
	for i, f := range d.Fields {
		pty, err := ElabType(ctx, env, f.Type)
		if err != nil {
			return nil, err
		}
		rowFields[i] = core.RowField{Label: f.Name, Type: pty}
	}
	instanceTy := &core.RecTy{Row: &core.RowLit{Fields: rowFields}}

	names := make([]string, len(d.ImplicitParams))
	for i, p := range d.ImplicitParams {
		names[i] = p.Name
	}
	ctx.Aliases[d.Name] = &AliasDef{
		Params: names,
		Body: func(args []core.Term) core.Term {
			result := core.Term(instanceTy)
			for i, name := range names {
				result = core.Subst(result, name, args[i])
			}
			return result
		},
	}
	return instanceTy, nil
}

// ElabClassDef desugars a class into a constructor function plus its
// methods taking an explicit receiver (spec.md §3). The constructor is
// named "new#<ClassName>" so ast.NewExpr's elaboration (inferNew) can find
// it by convention.
func ElabClassDef(ctx *Context, globalEnv *TypeEnv, module string, d *ast.ClassDef) ([]*core.Definition, error) {
	env := globalEnv.Child()
	ElabImplicitParams(env, d.ImplicitParams)

	fieldTys := make([]core.Term, len(d.Fields))
	rowFields := make([]core.RowField, len(d.Fields))
	for i, f := range d.Fields {
		pty, err := ElabType(ctx, env, f.Type)
		if err != nil {
			return nil, err
		}
		fieldTys[i] = pty
		rowFields[i] = core.RowField{Label: f.Name, Type: pty}
		env.BindValue(f.Name, pty)
	}
	instanceTy := &core.RecTy{Row: &core.RowLit{Fields: rowFields}}

	var ctorBody core.Term = &core.RecLit{Fields: fieldsFromParams(d.Fields)}
	if d.Init != nil {
		initTerm, _, err := CheckBlockReturningRecord(ctx, env, d.Init, instanceTy)
		if err != nil {
			return nil, err
		}
		ctorBody = initTerm
	}
	ctorTerm, ctorTy := ctorBody, core.Term(instanceTy)
	for i := len(d.Fields) - 1; i >= 0; i-- {
		ctorTerm = &core.Lam{Param: core.ParamInfo{Name: d.Fields[i].Name}, Body: ctorTerm}
		ctorTy = &core.Pi{Param: core.ParamInfo{Name: d.Fields[i].Name}, ParamTy: fieldTys[i], RetTy: ctorTy}
	}
	for i := len(d.ImplicitParams) - 1; i >= 0; i-- {
		p := d.ImplicitParams[i]
		ctorTerm = &core.Lam{Param: core.ParamInfo{Name: p.Name, Implicit: true}, Body: ctorTerm}
		ctorTy = &core.Pi{Param: core.ParamInfo{Name: p.Name, Implicit: true}, ParamTy: &core.Univ{}, RetTy: ctorTy}
	}

	defs := []*core.Definition{{
		ID:   core.GlobalID{Module: module, Name: "new#" + d.Name},
		Kind: core.DefFunction,
		Type: ctorTy,
		Body: ctorTerm,
	}}
	for _, m := range d.Methods {
		methodDef, err := ElabFnDef(ctx, globalEnv, module, m)
		if err != nil {
			return nil, err
		}
		defs = append(defs, methodDef)
	}
	return defs, nil
}

func fieldsFromParams(params []ast.Param) []core.Field {
	fields := make([]core.Field, len(params))
	for i, p := range params {
		fields[i] = core.Field{Label: p.Name, Value: core.NewVar(p.Name)}
	}
	return fields
}

// CheckBlockReturningRecord is CheckBlock specialised to a class
// constructor body, which must produce the instance record.
func CheckBlockReturningRecord(ctx *Context, env *TypeEnv, b *ast.Block, expected core.Term) (core.Term, core.Term, error) {
	term, err := CheckBlock(ctx, env, b, expected)
	if err != nil {
		return nil, nil, err
	}
	return term, expected, nil
}
