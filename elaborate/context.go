// Package elaborate implements the bidirectional type checker of spec.md
// §4.5: it walks a resolved surface AST and produces core.Term values,
// inserting implicit arguments, elaborating holes into fresh metas, and
// delegating row and overload constraints to packages rows/unify/dispatch.
// Grounded on the teacher's InferenceContext (infer.go), adapted from
// Algorithm-W-style unidirectional inference to check/infer because the
// surface language carries explicit type annotations the teacher's source
// language lacks (record type literals, function return types).
package elaborate

import (
	"github.com/sirupsen/logrus"

	"github.com/corelang/elaborator/core"
	"github.com/corelang/elaborator/dispatch"
	"github.com/corelang/elaborator/metas"
	"github.com/corelang/elaborator/unify"
)

// TypeEnv is the surface-name environment in scope while elaborating one
// definition: value bindings (locals, parameters, globals) plus the type
// aliases and implicit (type/row) parameters visible at this point.
// Grounded on the teacher's TypeEnv, split into layers instead of one
// shared map because surface type names and value names are disjoint
// namespaces here (spec.md §6.1).
type TypeEnv struct {
	parent *TypeEnv
	values map[string]core.Term // value name -> its type
	types  map[string]core.Term // implicit type parameter name -> its Var placeholder, or an alias's expansion
	rows   map[string]bool      // names bound to a row-kinded implicit parameter
}

func NewRootEnv() *TypeEnv {
	env := &TypeEnv{values: map[string]core.Term{}, types: map[string]core.Term{}, rows: map[string]bool{}}
	registerHostOperators(env)
	return env
}

// registerHostOperators binds the three direct host-operation references
// of spec.md §6.3 so they resolve through inferIdent's ordinary
// ResBuiltin lookup both when referenced by name and when inferBinary
// (elaborate/expr.go) synthesizes a reference to one of them for `+`/`-`
// on a primitive operand. unionify has no entry here: it has no ordinary
// function type (its result narrows to whatever the call site checks
// against), so it is handled entirely inside Check (checkUnionify).
func registerHostOperators(env *TypeEnv) {
	number := &core.Primitive{PKind: core.PrimNumber}
	str := &core.Primitive{PKind: core.PrimString}
	binOp := func(operand core.Term) core.Term {
		return core.NewPi(core.ParamInfo{Name: "a"}, operand,
			core.NewPi(core.ParamInfo{Name: "b"}, operand, operand))
	}
	env.BindValue("number#__add__", binOp(number))
	env.BindValue("number#__sub__", binOp(number))
	env.BindValue("string#__add__", binOp(str))
}

func (e *TypeEnv) Child() *TypeEnv {
	return &TypeEnv{parent: e, values: map[string]core.Term{}, types: map[string]core.Term{}, rows: map[string]bool{}}
}

func (e *TypeEnv) BindValue(name string, t core.Term) { e.values[name] = t }

func (e *TypeEnv) LookupValue(name string) (core.Term, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if t, ok := cur.values[name]; ok {
			return t, true
		}
	}
	return nil, false
}

func (e *TypeEnv) BindType(name string, t core.Term, isRow bool) {
	e.types[name] = t
	if isRow {
		e.rows[name] = true
	}
}

func (e *TypeEnv) LookupType(name string) (core.Term, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if t, ok := cur.types[name]; ok {
			return t, true
		}
	}
	return nil, false
}

func (e *TypeEnv) IsRowName(name string) bool {
	for cur := e; cur != nil; cur = cur.parent {
		if cur.rows[name] {
			return true
		}
		if _, ok := cur.types[name]; ok {
			return false
		}
	}
	return false
}

// Context bundles the mutable state shared across one Elaborate run:
// metavariable allocation, the unifier, the interface/implementation
// registry, and the running level used for let-polymorphism generalization
// (spec.md §9's level-based scheme, mirroring the teacher's varTracker +
// level parameter threaded through infer).
type Context struct {
	Store    *metas.Store
	Engine   *unify.Engine
	Registry *dispatch.Registry
	Log      *logrus.Logger

	// Level is the current generalization level; incremented on entry to a
	// let/function body and restored on exit, exactly as ti.infer's level
	// parameter is incremented for nested inference in the teacher.
	Level int

	// Aliases maps a declared type-alias name to its (possibly
	// parameterised) body, consulted by ElabType.
	Aliases map[string]*AliasDef

	// Pending collects predicates deferred during elaboration of the
	// current definition (spec.md §4.6 step 4); the caller (package
	// elaborator) attaches them to the definition's Where clause and tries
	// to discharge them once the signature is finalised.
	Pending []*dispatch.Predicate

	// openCarrierTable holds, for the definition currently being
	// elaborated, which implicit parameter names are constrained by which
	// interfaces via a `where` clause (spec.md §4.6 step 4). Reset by the
	// caller between definitions.
	openCarrierTable map[string]map[string]bool
}

// AliasDef is a registered `type Name<Params...> = Body` definition.
type AliasDef struct {
	Params []string
	Body   func(args []core.Term) core.Term
}

func NewContext(store *metas.Store, engine *unify.Engine, reg *dispatch.Registry, log *logrus.Logger) *Context {
	return &Context{Store: store, Engine: engine, Registry: reg, Log: log, Aliases: map[string]*AliasDef{}}
}

func (c *Context) EnterLevel() { c.Level++ }
func (c *Context) ExitLevel()  { c.Level-- }

func (c *Context) FreshMeta() *core.Meta    { return c.Store.New(c.Level) }
func (c *Context) FreshRowMeta() *core.Meta { return c.Store.NewRow(c.Level) }
func (c *Context) FreshWeakMeta() *core.Meta { return c.Store.NewWeak(c.Level) }

func (c *Context) Defer(p *dispatch.Predicate) {
	if c.Log != nil {
		c.Log.WithFields(logrus.Fields{"interface": p.InterfaceID, "method": p.Method}).
			Debug("deferring predicate until carrier is concrete")
	}
	c.Pending = append(c.Pending, p)
}

// ResetDefinition clears per-definition scratch state before elaborating
// the next one.
func (c *Context) ResetDefinition() {
	c.Pending = nil
	c.openCarrierTable = nil
}

func (c *Context) openCarriersFor(name string) map[string]bool {
	if c.openCarrierTable == nil {
		c.openCarrierTable = map[string]map[string]bool{}
	}
	m, ok := c.openCarrierTable[name]
	if !ok {
		m = map[string]bool{}
		c.openCarrierTable[name] = m
	}
	return m
}

// OpenCarriers exposes the current where-clause table for
// dispatch.NewResolver, built fresh for each definition.
func (c *Context) OpenCarriers() map[string]map[string]bool {
	if c.openCarrierTable == nil {
		return map[string]map[string]bool{}
	}
	return c.openCarrierTable
}
