package ast

import "github.com/mcclowes/vague/internal/diagnostics"

// Expr is any expression node (spec.md section 4.7).
type Expr interface {
	exprNode()
	Position() diagnostics.Position
}

// NullLiteral is the `null` literal.
type NullLiteral struct{ Pos diagnostics.Position }

func (*NullLiteral) exprNode()                        {}
func (n *NullLiteral) Position() diagnostics.Position { return n.Pos }

// BoolLiteral is a `true`/`false` literal.
type BoolLiteral struct {
	Value bool
	Pos   diagnostics.Position
}

func (*BoolLiteral) exprNode()                        {}
func (n *BoolLiteral) Position() diagnostics.Position { return n.Pos }

// IntLiteral is an integer literal.
type IntLiteral struct {
	Value int64
	Pos   diagnostics.Position
}

func (*IntLiteral) exprNode()                        {}
func (n *IntLiteral) Position() diagnostics.Position { return n.Pos }

// DecimalLiteral is a decimal literal.
type DecimalLiteral struct {
	Value float64
	Pos   diagnostics.Position
}

func (*DecimalLiteral) exprNode()                       {}
func (n *DecimalLiteral) Position() diagnostics.Position { return n.Pos }

// StringLiteral is a double-quoted string literal.
type StringLiteral struct {
	Value string
	Pos   diagnostics.Position
}

func (*StringLiteral) exprNode()                        {}
func (n *StringLiteral) Position() diagnostics.Position { return n.Pos }

// Ident is a bare identifier reference: a field of the current record, a
// let-binding, or (as the base of a Call) a plugin namespace.
type Ident struct {
	Name string
	Pos  diagnostics.Position
}

func (*Ident) exprNode()                        {}
func (n *Ident) Position() diagnostics.Position { return n.Pos }

// ParentAccess is `^field`, reaching into the lexically enclosing parent
// record (spec.md section 3.1, only valid inside a schema embedded via
// `N of S`).
type ParentAccess struct {
	Field string
	Pos   diagnostics.Position
}

func (*ParentAccess) exprNode()                        {}
func (n *ParentAccess) Position() diagnostics.Position { return n.Pos }

// MemberAccess is `expr.field`.
type MemberAccess struct {
	Target Expr
	Field  string
	Pos    diagnostics.Position
}

func (*MemberAccess) exprNode()                        {}
func (n *MemberAccess) Position() diagnostics.Position { return n.Pos }

// Call is a function/generator/aggregate/predicate invocation:
// `ident(...)` or `ns.name(...)`. Namespace is "" for a bare call.
type Call struct {
	Namespace string
	Name      string
	Args      []Expr
	Pos       diagnostics.Position
}

func (*Call) exprNode()                        {}
func (n *Call) Position() diagnostics.Position { return n.Pos }

// BinaryOp identifies a binary operator.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpEq
	OpNotEq
	OpLt
	OpLtEq
	OpGt
	OpGtEq
	OpAnd
	OpOr
)

// Binary is a binary expression.
type Binary struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
	Pos   diagnostics.Position
}

func (*Binary) exprNode()                        {}
func (n *Binary) Position() diagnostics.Position { return n.Pos }

// UnaryOp identifies a unary operator.
type UnaryOp int

const (
	OpNeg UnaryOp = iota
	OpPos
	OpNot
)

// Unary is a unary expression.
type Unary struct {
	Op      UnaryOp
	Operand Expr
	Pos     diagnostics.Position
}

func (*Unary) exprNode()                        {}
func (n *Unary) Position() diagnostics.Position { return n.Pos }

// Ternary is `cond ? then : else`.
type Ternary struct {
	Cond Expr
	Then Expr
	Else Expr
	Pos  diagnostics.Position
}

func (*Ternary) exprNode()                        {}
func (n *Ternary) Position() diagnostics.Position { return n.Pos }

// AnyOf is `any of collection [where .field <op> expr]`
// (spec.md sections 3.1 and 4.7).
type AnyOf struct {
	Collection string
	Where      Expr // nil if no where-clause; evaluated with the candidate as scope
	Pos        diagnostics.Position
}

func (*AnyOf) exprNode()                        {}
func (n *AnyOf) Position() diagnostics.Position { return n.Pos }

// DotPredicate is the inner `.field <op> expr` shorthand used inside
// `where`, `all`, `some`, and `none` — it evaluates its comparison against
// whatever element the enclosing construct currently binds as scope.
type DotPredicate struct {
	Field string
	Op    BinaryOp
	Value Expr
	Pos   diagnostics.Position
}

func (*DotPredicate) exprNode()                        {}
func (n *DotPredicate) Position() diagnostics.Position { return n.Pos }
