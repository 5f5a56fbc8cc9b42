// Package core defines the small dependently-typed calculus that surface
// programs elaborate into: variables, applications, a dependent function
// space, the universe, row-indexed records and variants, and the two
// "unsolved" node kinds (Meta and OvRef) that the unifier and the predicate
// resolver progressively eliminate.
//
// Terms are represented as a closed set of structs behind the Term
// interface, named-variable style (no de Bruijn indices): binders carry a
// string name and bodies refer back to it with Var. This mirrors how the
// teacher library represents type variables (a mutable *Var node, linked in
// place once solved) rather than an index-based representation.
package core

import "github.com/corelang/elaborator/span"

// Kind identifies the concrete variant of a Term, for cheap switches
// without a type assertion in hot paths (printing, reduction).
type Kind uint8

const (
	KindVar Kind = iota
	KindRef
	KindLam
	KindApp
	KindPi
	KindUniv
	KindRecTy
	KindVarTy
	KindRecLit
	KindRecProj
	KindRecConcat
	KindRecCast
	KindVarIntro
	KindVarCast
	KindSwitch
	KindMeta
	KindHole
	KindOvRef
	KindPrimitive
	KindIf
	// Row sub-language, embedded in the same Term grammar wherever a row
	// value is expected (inside RecTy/VarTy/RecConcat/...).
	KindRowEmpty
	KindRowVar
	KindRowLit
	KindRowConcat
)

func (k Kind) String() string {
	names := [...]string{
		"Var", "Ref", "Lam", "App", "Pi", "Univ", "RecTy", "VarTy", "RecLit",
		"RecProj", "RecConcat", "RecCast", "VarIntro", "VarCast", "Switch",
		"Meta", "Hole", "OvRef", "Primitive", "If",
		"RowEmpty", "RowVar", "RowLit", "RowConcat",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "Unknown"
}

// Term is the base interface for every node in the core calculus, including
// the row sub-language (rows are ordinary terms used in a row position).
type Term interface {
	Kind() Kind
	Span() span.Span
}

// base is embedded by every concrete term to carry the optional source span.
type base struct {
	sp span.Span
}

func (b base) Span() span.Span { return b.sp }

// ---- variables, references, application, functions ----

// Var is a bound local or parameter reference.
type Var struct {
	base
	Name string
}

func (*Var) Kind() Kind { return KindVar }

// GlobalID identifies a resolved top-level definition.
type GlobalID struct {
	Module string
	Name   string
}

// Ref is a reference to a resolved global definition.
type Ref struct {
	base
	Target GlobalID
}

func (*Ref) Kind() Kind { return KindRef }

// ParamInfo describes a single parameter of a Lam/Pi: its name, whether it
// is passed implicitly (inserted automatically at call sites rather than
// written explicitly), and, for row-kinded implicit parameters, whether the
// parameter ranges over rows instead of types.
type ParamInfo struct {
	Name     string
	Implicit bool
	RowKind  bool
}

// Lam is a lambda abstraction. Explicit and implicit lambdas share this
// node; ParamInfo.Implicit distinguishes them, mirroring how the elaborator
// treats explicit/implicit application uniformly (spec.md §3, App).
type Lam struct {
	base
	Param ParamInfo
	Body  Term
}

func (*Lam) Kind() Kind { return KindLam }

// App is a function application.
type App struct {
	base
	Fn, Arg  Term
	Implicit bool
}

func (*App) Kind() Kind { return KindApp }

// Pi is a dependent function type: (param : ParamTy) -> RetTy, where RetTy
// may mention Param.Name via Var.
type Pi struct {
	base
	Param  ParamInfo
	ParamTy Term
	RetTy   Term
}

func (*Pi) Kind() Kind { return KindPi }

// Univ is the universe `type`.
type Univ struct{ base }

func (*Univ) Kind() Kind { return KindUniv }

// ---- records & variants ----

// RecTy is a record type over a row value.
type RecTy struct {
	base
	Row Term
}

func (*RecTy) Kind() Kind { return KindRecTy }

// VarTy is a variant (sum) type over a row value.
type VarTy struct {
	base
	Row Term
}

func (*VarTy) Kind() Kind { return KindVarTy }

// Field pairs a label with its value, used by RecLit.
type Field struct {
	Label string
	Value Term
}

// RecLit is a record introduction (an object literal).
type RecLit struct {
	base
	Fields []Field
}

func (*RecLit) Kind() Kind { return KindRecLit }

// RecProj is field access: e.label.
type RecProj struct {
	base
	Record Term
	Label  string
}

func (*RecProj) Kind() Kind { return KindRecProj }

// RecConcat is row-level record composition: a ... b.
type RecConcat struct {
	base
	Left, Right Term
}

func (*RecConcat) Kind() Kind { return KindRecConcat }

// RecCast is record widening: { ...e }, introducing a fresh trailing row
// variable constrained by <:.
type RecCast struct {
	base
	Record Term
}

func (*RecCast) Kind() Kind { return KindRecCast }

// VarIntro is variant construction: Label or Label(payload).
type VarIntro struct {
	base
	Label   string
	Payload Term // nil for a payload-less constructor
}

func (*VarIntro) Kind() Kind { return KindVarIntro }

// VarCast is variant widening: [ ...e ].
type VarCast struct {
	base
	Variant Term
}

func (*VarCast) Kind() Kind { return KindVarCast }

// SwitchCase is one arm of a Switch: the matched label, the name the
// payload (if any) is bound to, and the case body.
type SwitchCase struct {
	Label       string
	PayloadName string // "" if the constructor carries no payload
	Body        Term
}

// Switch is the sole variant eliminator. If expression should be desugared
// into a Switch over the implicit [true|false] variant, per spec.md §9.
type Switch struct {
	base
	Scrutinee Term
	Cases     []SwitchCase
}

func (*Switch) Kind() Kind { return KindSwitch }

// If is kept as a surface-adjacent convenience node; the elaborator always
// lowers it to a Switch before it reaches the zonker (spec.md §4.5, §9).
type If struct {
	base
	Cond, Then, Else Term
}

func (*If) Kind() Kind { return KindIf }

// ---- metavariables & holes ----

// VarState is the solved/unsolved/generic state of a Meta, mirroring the
// teacher's VarType (UnboundVar/LinkVar/GenericVar).
type VarState uint8

const (
	MetaUnbound VarState = iota
	MetaLinked
	MetaGeneric
)

// Meta is a unification metavariable. It is a mutable node: Link is set in
// place by the unifier once solved, exactly as the teacher's *types.Var is
// linked in place rather than copied.
type Meta struct {
	base
	ID    int
	Level int
	State VarState
	Link  Term
	// Weak marks a metavariable introduced under the value restriction
	// (see SPEC_FULL.md Supplemented Features): it may not be generalized
	// until it is known to be used only in non-expansive position.
	Weak bool
	// RowKind marks a meta standing in for a row value rather than a type,
	// so the elaborator knows to solve it against rows.Row terms.
	RowKind bool
}

func (*Meta) Kind() Kind { return KindMeta }

// Hole is the user-written `?`; the elaborator replaces every Hole with a
// fresh Meta as soon as it is seen (spec.md §4.5).
type Hole struct{ base }

func (*Hole) Kind() Kind { return KindHole }

// ---- overloaded references ----

// OvRef is an unresolved use of an interface method, carrying enough
// information for the predicate resolver (spec.md §4.6) to search
// implementations: which interface, which method, and any explicit kind
// (type) arguments supplied at the call site (e.g. map<Foo>(...)).
type OvRef struct {
	base
	InterfaceID string
	Method      string
	KindArgs    []Term
	// Carrier is the type (or type-constructor) the interface was
	// parameterised on, as currently known; it starts as a fresh Meta and
	// is refined by unification as surrounding arguments are checked.
	Carrier Term
}

func (*OvRef) Kind() Kind { return KindOvRef }

// ---- primitives ----

type PrimKind uint8

const (
	PrimString PrimKind = iota
	PrimNumber
	PrimBigint
	PrimBool
	PrimUnit
)

// Primitive is a literal string/number/bigint/boolean/unit value.
type Primitive struct {
	base
	PKind PrimKind
	Value string // literal syntax, parsed lazily by consumers that need it
}

func (*Primitive) Kind() Kind { return KindPrimitive }

// ---- constructors (span-less, for desugaring/elaboration-internal use) ----

func NewVar(name string) *Var                   { return &Var{Name: name} }
func NewRef(target GlobalID) *Ref                { return &Ref{Target: target} }
func NewApp(fn, arg Term, implicit bool) *App    { return &App{Fn: fn, Arg: arg, Implicit: implicit} }
func NewLam(p ParamInfo, body Term) *Lam         { return &Lam{Param: p, Body: body} }
func NewPi(p ParamInfo, pty, rty Term) *Pi       { return &Pi{Param: p, ParamTy: pty, RetTy: rty} }
func NewUniv() *Univ                             { return &Univ{} }
func NewHole() *Hole                             { return &Hole{} }
