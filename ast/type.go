package ast

import "github.com/corelang/elaborator/span"

// TypeKind discriminates the surface type grammar of spec.md §6.1.
type TypeKind uint8

const (
	TypeKindRef TypeKind = iota
	TypeKindFunc
	TypeKindRecord
	TypeKindVariant
	TypeKindRowVar
	TypeKindApp
)

// Type is the base interface for every surface type expression.
type Type interface {
	TypeKind() TypeKind
	Span() span.Span
}

// RefType is a (possibly qualified) named type: a primitive
// (string/number/bigint/boolean/unit), a user type name, or an implicit
// type parameter in scope. Qualifier is empty for an unqualified name.
type RefType struct {
	Sp        span.Span
	Qualifier []string
	Name      string
}

func (*RefType) TypeKind() TypeKind { return TypeKindRef }
func (t *RefType) Span() span.Span  { return t.Sp }

// AppType is type application: `Name<Args...>`, used for user type
// constructors and higher-kinded interface carriers (spec.md §3, §3.9).
type AppType struct {
	Sp   span.Span
	Head Type
	Args []Type
}

func (*AppType) TypeKind() TypeKind { return TypeKindApp }
func (t *AppType) Span() span.Span  { return t.Sp }

// FuncType is a function type `(a: T, ...) -> U`.
type FuncType struct {
	Sp     span.Span
	Params []Param
	Ret    Type
}

func (*FuncType) TypeKind() TypeKind { return TypeKindFunc }
func (t *FuncType) Span() span.Span  { return t.Sp }

// FieldType pairs a label with its type in a record type literal.
type FieldType struct {
	Label string
	Type  Type
}

// RecordType is `{ l: T, ... }` or `{ 'r }` or a mix `{ l: T, ... | 'r }`.
// Tail is "" when the row is fully closed.
type RecordType struct {
	Sp     span.Span
	Fields []FieldType
	Tail   string
}

func (*RecordType) TypeKind() TypeKind { return TypeKindRecord }
func (t *RecordType) Span() span.Span  { return t.Sp }

// VariantCaseType is one alternative of a variant type: a bare label, or a
// label with a payload type.
type VariantCaseType struct {
	Label   string
	Payload Type // nil for a payload-less case
}

// VariantType is `[ L | L: T | ... | 'r ]`. Tail is "" when fully closed.
type VariantType struct {
	Sp    span.Span
	Cases []VariantCaseType
	Tail  string
}

func (*VariantType) TypeKind() TypeKind { return TypeKindVariant }
func (t *VariantType) Span() span.Span  { return t.Sp }

// RowVarType is a bare row variable used directly in type position, e.g.
// an implicit parameter declared with a row kind.
type RowVarType struct {
	Sp   span.Span
	Name string
}

func (*RowVarType) TypeKind() TypeKind { return TypeKindRowVar }
func (t *RowVarType) Span() span.Span  { return t.Sp }
