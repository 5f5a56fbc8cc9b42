// Package ast is the surface parse tree the elaborator consumes: it is
// the contract with the external parser (spec.md §6.1), assumed already
// built and handed to elaborator.Elaborate. Node shapes follow the
// teacher's ast package style — one interface per syntactic category, one
// concrete struct per alternative, each exposing a discriminator method
// instead of relying on type switches alone for debugging/printing.
package ast

import (
	"fmt"

	"github.com/corelang/elaborator/span"
)

// ImportKind classifies the root of a qualifier per spec.md §6.1.
type ImportKind uint8

const (
	ImportStd    ImportKind = iota // stdpkg::mod::...
	ImportVendor                   // @org/pkg::mod::...
	ImportLocal                    // plain local module path
	ImportRoot                     // ::mod::... project-root qualifier
)

// Import is a single `from mod import { a, b };` or `import mod;` form.
// Underscore marks `import mod._`, loaded only for its implementation
// side-effects (registering `implements` blocks), never for names.
type Import struct {
	Sp         span.Span
	Kind       ImportKind
	Org        string // set only for ImportVendor
	Path       []string
	Names      []string
	Underscore bool
}

func (i *Import) Span() span.Span { return i.Sp }

// DefKind discriminates the definition forms of spec.md §3 "Definitions".
type DefKind uint8

const (
	DefFn DefKind = iota
	DefFnPostulate
	DefTypeAlias
	DefTypePostulate
	DefClass
	DefInterface
	DefImplements
	DefConst
)

// Def is the base interface for every top-level definition form.
type Def interface {
	DefKind() DefKind
	DefName() string
	Span() span.Span
}

// ImplicitParam is a name introduced in angle brackets, carrying a kind in
// the restricted kind language `type -> ... -> type` (spec.md §9):
// Arity 0 is an ordinary type parameter, Arity n > 0 is an n-ary type
// constructor parameter (used for higher-kinded interfaces like Functor).
type ImplicitParam struct {
	Name  string
	Arity int
}

// Param is an explicit, typed function parameter.
type Param struct {
	Name string
	Type Type
}

// Predicate is one entry of a `where` clause: `where Interface<Args...>`.
type Predicate struct {
	Sp            span.Span
	InterfaceName string
	Args          []Type
}

// FnDef is a top-level function definition with a body.
type FnDef struct {
	Sp             span.Span
	Name           string
	ImplicitParams []ImplicitParam
	Params         []Param
	RetType        Type // nil if omitted (inferred)
	Where          []Predicate
	Body           *Block
}

func (d *FnDef) DefKind() DefKind  { return DefFn }
func (d *FnDef) DefName() string   { return d.Name }
func (d *FnDef) Span() span.Span   { return d.Sp }

// FnPostulate is a forward declaration with no body, used to break
// dependency cycles (spec.md §3, §5).
type FnPostulate struct {
	Sp             span.Span
	Name           string
	ImplicitParams []ImplicitParam
	Params         []Param
	RetType        Type
	Where          []Predicate
}

func (d *FnPostulate) DefKind() DefKind { return DefFnPostulate }
func (d *FnPostulate) DefName() string  { return d.Name }
func (d *FnPostulate) Span() span.Span  { return d.Sp }

// TypeAlias names a type expression.
type TypeAlias struct {
	Sp             span.Span
	Name           string
	ImplicitParams []ImplicitParam
	Body           Type
}

func (d *TypeAlias) DefKind() DefKind { return DefTypeAlias }
func (d *TypeAlias) DefName() string  { return d.Name }
func (d *TypeAlias) Span() span.Span  { return d.Sp }

// TypePostulate forward-declares a type with no definition.
type TypePostulate struct {
	Sp             span.Span
	Name           string
	ImplicitParams []ImplicitParam
}

func (d *TypePostulate) DefKind() DefKind { return DefTypePostulate }
func (d *TypePostulate) DefName() string  { return d.Name }
func (d *TypePostulate) Span() span.Span  { return d.Sp }

// ClassDef is sugar for a record type, a constructor function, and a set
// of methods taking an explicit receiver (spec.md §3: "desugars into a
// constructor function plus record type plus free-standing methods taking
// an explicit `this`").
type ClassDef struct {
	Sp             span.Span
	Name           string
	ImplicitParams []ImplicitParam
	Fields         []Param
	Init           *Block // constructor body; nil for a field-only class
	Methods        []*FnDef
}

func (d *ClassDef) DefKind() DefKind { return DefClass }
func (d *ClassDef) DefName() string  { return d.Name }
func (d *ClassDef) Span() span.Span  { return d.Sp }

// MethodSig is one signature inside an InterfaceDef.
type MethodSig struct {
	Sp             span.Span
	Name           string
	ImplicitParams []ImplicitParam
	Params         []Param
	RetType        Type
}

// InterfaceDef declares an interface over a single carrier parameter plus
// any additional implicit parameters (spec.md §3, §4.6).
type InterfaceDef struct {
	Sp             span.Span
	Name           string
	CarrierParam   ImplicitParam
	ImplicitParams []ImplicitParam
	Methods        []MethodSig
}

func (d *InterfaceDef) DefKind() DefKind { return DefInterface }
func (d *InterfaceDef) DefName() string  { return d.Name }
func (d *InterfaceDef) Span() span.Span  { return d.Sp }

// ImplementsDef provides concrete method bodies for an interface over a
// specific carrier type (spec.md §3, §4.6).
type ImplementsDef struct {
	Sp            span.Span
	InterfaceName string
	Carrier       Type
	Methods       []*FnDef
}

func (d *ImplementsDef) DefKind() DefKind { return DefImplements }

// DefName distinguishes one `implements I for C` block from another
// implementing the same interface for a different carrier, so
// modgraph.Build's name-keyed index never collides between them.
func (d *ImplementsDef) DefName() string {
	return fmt.Sprintf("%s for %s", d.InterfaceName, typeHeadName(d.Carrier))
}

func (d *ImplementsDef) Span() span.Span { return d.Sp }

// typeHeadName renders a readable head for a surface Type, used only to
// keep DefName unique and debuggable; it is not the carrier-matching logic
// (that is core.Term-based, see elaborate.CarrierHead and dispatch).
func typeHeadName(t Type) string {
	switch t := t.(type) {
	case *RefType:
		if len(t.Qualifier) > 0 {
			return t.Qualifier[len(t.Qualifier)-1] + "." + t.Name
		}
		return t.Name
	case *AppType:
		return typeHeadName(t.Head)
	case *RecordType:
		return "record"
	case *VariantType:
		return "variant"
	default:
		return "anon"
	}
}

// ConstDef is a top-level binding, optionally named.
type ConstDef struct {
	Sp    span.Span
	Name  string
	Type  Type // nil if omitted
	Value Expr
}

func (d *ConstDef) DefKind() DefKind { return DefConst }
func (d *ConstDef) DefName() string  { return d.Name }
func (d *ConstDef) Span() span.Span  { return d.Sp }

// Program is an ordered list of imports followed by definitions, matching
// the file shape fixed by spec.md §6.1 ("imports in order... followed by
// definitions").
type Program struct {
	Imports []Import
	Defs    []Def
}
