package ast

import (
	"github.com/corelang/elaborator/core"
	"github.com/corelang/elaborator/span"
)

// ExprKind discriminates the surface expression grammar of spec.md §6.1.
type ExprKind uint8

const (
	ExprLit ExprKind = iota
	ExprIdent
	ExprCall
	ExprMethodCall
	ExprLambda
	ExprBlock
	ExprObjectLit
	ExprObjectConcat
	ExprObjectCast
	ExprRecordSelect
	ExprVariant
	ExprVariantCast
	ExprSwitch
	ExprIf
	ExprPipe
	ExprNew
	ExprBinary
)

// Expr is the base interface for every surface expression.
type Expr interface {
	ExprKind() ExprKind
	Span() span.Span
}

// LitExpr is a literal string/number/bigint/boolean/unit value.
type LitExpr struct {
	Sp    span.Span
	PKind core.PrimKind
	Value string
}

func (*LitExpr) ExprKind() ExprKind { return ExprLit }
func (e *LitExpr) Span() span.Span  { return e.Sp }

// ResKind is the resolution outcome the name resolver (spec.md §4.1)
// assigns to an identifier occurrence.
type ResKind uint8

const (
	ResUnresolved ResKind = iota
	ResGlobal
	ResLocal
	ResParam
	ResBuiltin
	ResOverloaded
)

// Resolution is written onto an IdentExpr in place by package resolve,
// mirroring the teacher's pattern of mutating an ast.Ident's Obj field
// rather than building a side table.
type Resolution struct {
	Kind ResKind
	// Module/Name identify the target for ResGlobal and ResBuiltin.
	Module, Name string
	// InterfaceName/Method identify the target for ResOverloaded.
	InterfaceName, Method string
}

// IdentExpr is a (possibly qualified) identifier occurrence; the name
// resolver (spec.md §4.1) tags it with a resolution kind before
// elaboration sees it.
type IdentExpr struct {
	Sp        span.Span
	Qualifier []string
	Name      string
	Resolved  *Resolution
}

func (*IdentExpr) ExprKind() ExprKind { return ExprIdent }
func (e *IdentExpr) Span() span.Span  { return e.Sp }

// ImplicitArg is one explicit implicit-argument at a call site, e.g. the
// `R`/`T=...` slots of `f<R, T=...>(...)` (spec.md §6.1).
type ImplicitArg struct {
	Name string // "" for a positional implicit argument
	Type Type
}

// CallExpr is function application, with any explicitly-supplied implicit
// arguments kept separate from the explicit argument list so the
// elaborator's implicit-insertion rule (spec.md §4.5) can tell which
// implicit slots were already filled by the surface program.
type CallExpr struct {
	Sp           span.Span
	Fn           Expr
	ImplicitArgs []ImplicitArg
	Args         []Expr
}

func (*CallExpr) ExprKind() ExprKind { return ExprCall }
func (e *CallExpr) Span() span.Span  { return e.Sp }

// MethodCallExpr is `e.m(args)`: the elaborator first tries record
// projection on a function-typed field, then falls back to UFCS-style free
// function application with the receiver prepended (spec.md §4.5).
type MethodCallExpr struct {
	Sp           span.Span
	Receiver     Expr
	Method       string
	ImplicitArgs []ImplicitArg
	Args         []Expr
}

func (*MethodCallExpr) ExprKind() ExprKind { return ExprMethodCall }
func (e *MethodCallExpr) Span() span.Span  { return e.Sp }

// LambdaExpr is `(a, b) => e` or `(a, b) => { ... }`.
type LambdaExpr struct {
	Sp     span.Span
	Params []Param
	Body   *Block
}

func (*LambdaExpr) ExprKind() ExprKind { return ExprLambda }
func (e *LambdaExpr) Span() span.Span  { return e.Sp }

// StmtKind discriminates the statement forms allowed inside a Block.
type StmtKind uint8

const (
	StmtLet StmtKind = iota
	StmtReturn
	StmtExpr
)

// Stmt is the base interface for statements inside a Block.
type Stmt interface {
	StmtKind() StmtKind
	Span() span.Span
}

// LetStmt is a local binding: `let x: T = e;` (T optional).
type LetStmt struct {
	Sp    span.Span
	Name  string
	Type  Type
	Value Expr
}

func (*LetStmt) StmtKind() StmtKind { return StmtLet }
func (s *LetStmt) Span() span.Span  { return s.Sp }

// ReturnStmt is `return e;`.
type ReturnStmt struct {
	Sp    span.Span
	Value Expr // nil for a bare `return;` (unit)
}

func (*ReturnStmt) StmtKind() StmtKind { return StmtReturn }
func (s *ReturnStmt) Span() span.Span  { return s.Sp }

// ExprStmt is an expression evaluated for effect.
type ExprStmt struct {
	Sp    span.Span
	Value Expr
}

func (*ExprStmt) StmtKind() StmtKind { return StmtExpr }
func (s *ExprStmt) Span() span.Span  { return s.Sp }

// Block is a brace-delimited statement sequence, the body of a function,
// lambda, `if` arm, or `switch` case.
type Block struct {
	Sp    span.Span
	Stmts []Stmt
}

func (*Block) ExprKind() ExprKind { return ExprBlock }
func (b *Block) Span() span.Span  { return b.Sp }

// FieldValue pairs a label with its value in an object literal.
type FieldValue struct {
	Label string
	Value Expr
}

// ObjectLitExpr is `{l: e, ...}`.
type ObjectLitExpr struct {
	Sp     span.Span
	Fields []FieldValue
}

func (*ObjectLitExpr) ExprKind() ExprKind { return ExprObjectLit }
func (e *ObjectLitExpr) Span() span.Span  { return e.Sp }

// ObjectConcatExpr is `a ... b`.
type ObjectConcatExpr struct {
	Sp          span.Span
	Left, Right Expr
}

func (*ObjectConcatExpr) ExprKind() ExprKind { return ExprObjectConcat }
func (e *ObjectConcatExpr) Span() span.Span  { return e.Sp }

// ObjectCastExpr is `{ ...e }`, widening to a record type with a fresh
// trailing row variable (spec.md §4.5).
type ObjectCastExpr struct {
	Sp    span.Span
	Value Expr
}

func (*ObjectCastExpr) ExprKind() ExprKind { return ExprObjectCast }
func (e *ObjectCastExpr) Span() span.Span  { return e.Sp }

// RecordSelectExpr is plain field access `e.l` (no call).
type RecordSelectExpr struct {
	Sp     span.Span
	Record Expr
	Label  string
}

func (*RecordSelectExpr) ExprKind() ExprKind { return ExprRecordSelect }
func (e *RecordSelectExpr) Span() span.Span  { return e.Sp }

// VariantExpr is variant construction: `L` or `L(e)`.
type VariantExpr struct {
	Sp      span.Span
	Label   string
	Payload Expr // nil for a payload-less constructor
}

func (*VariantExpr) ExprKind() ExprKind { return ExprVariant }
func (e *VariantExpr) Span() span.Span  { return e.Sp }

// VariantCastExpr is `[ ...e ]`, dual to ObjectCastExpr for variants.
type VariantCastExpr struct {
	Sp    span.Span
	Value Expr
}

func (*VariantCastExpr) ExprKind() ExprKind { return ExprVariantCast }
func (e *VariantCastExpr) Span() span.Span  { return e.Sp }

// SwitchCase is one arm of a SwitchExpr: `case L(x): body` or `case L: body`.
// Var is "" when the constructor carries no bound payload.
type SwitchCase struct {
	Sp    span.Span
	Label string
	Var   string
	Body  Expr
}

// SwitchExpr is the sole variant eliminator (spec.md §4.5, §9).
type SwitchExpr struct {
	Sp        span.Span
	Scrutinee Expr
	Cases     []SwitchCase
}

func (*SwitchExpr) ExprKind() ExprKind { return ExprSwitch }
func (e *SwitchExpr) Span() span.Span  { return e.Sp }

// IfExpr is `if(c){...}else{...}`; the elaborator desugars it into a
// Switch over the implicit [true|false] variant (spec.md §9). Else is nil
// for a bodyless `if` used only for effect.
type IfExpr struct {
	Sp         span.Span
	Cond       Expr
	Then, Else *Block
}

func (*IfExpr) ExprKind() ExprKind { return ExprIf }
func (e *IfExpr) Span() span.Span  { return e.Sp }

// PipeExpr is `e |> f(args)`, sugar for `f(e, args)` (spec.md §4.5). Call
// is restricted to a CallExpr or MethodCallExpr by the grammar.
type PipeExpr struct {
	Sp   span.Span
	Left Expr
	Call Expr
}

func (*PipeExpr) ExprKind() ExprKind { return ExprPipe }
func (e *PipeExpr) Span() span.Span  { return e.Sp }

// NewExpr is `new T<...>(...)`, sugar resolved during elaboration into a
// call to the class's desugared constructor function.
type NewExpr struct {
	Sp   span.Span
	Type Type
	Args []Expr
}

func (*NewExpr) ExprKind() ExprKind { return ExprNew }
func (e *NewExpr) Span() span.Span  { return e.Sp }

// BinaryOp discriminates the two magic-method-backed operators of spec.md
// §6.3. There is no general operator grammar here — only `+` and `-` lower
// through the elaborator's host-operation/interface-dispatch machinery.
type BinaryOp uint8

const (
	BinaryAdd BinaryOp = iota
	BinarySub
)

// BinaryExpr is `a + b` / `a - b`. The elaborator lowers it to a direct
// host-operation reference (`number#__add__` and friends) when the left
// operand is a primitive, or to `I::__add__`/`I::__sub__` dispatch on the
// left operand's carrier type otherwise (spec.md §6.3).
type BinaryExpr struct {
	Sp          span.Span
	Op          BinaryOp
	Left, Right Expr
}

func (*BinaryExpr) ExprKind() ExprKind { return ExprBinary }
func (e *BinaryExpr) Span() span.Span  { return e.Sp }
