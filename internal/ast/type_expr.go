package ast

import "github.com/mcclowes/vague/internal/diagnostics"

// TypeExpr is any type-position expression (spec.md section 3.1 Field spec
// "type expression"). Constructs that only ever occur in type position
// (ranges, superpositions, cardinality, ordered sequences, schema
// references) get their own variant; anything that is equally an ordinary
// value expression (literals, parent access, any-of, generator calls,
// arithmetic over sibling fields) is carried as ExprType wrapping an Expr,
// so the field generator's type-expr evaluator only needs one extra case
// per genuinely type-only construct instead of duplicating every Expr
// variant under a parallel name.
type TypeExpr interface {
	typeExprNode()
}

// PrimitiveKind identifies a primitive scalar type.
type PrimitiveKind int

const (
	PrimInt PrimitiveKind = iota
	PrimDecimal
	PrimString
	PrimBoolean
	PrimDate
)

// PrimitiveType is a bare primitive or a primitive with a range:
// `int`, `int in a..b`, `decimal(n) in a..b`, `date in y1..y2`.
type PrimitiveType struct {
	Kind      PrimitiveKind
	Precision int // decimal(n); 0 if unspecified
	HasRange  bool
	Lo        Expr // nil if !HasRange
	Hi        Expr
}

func (*PrimitiveType) typeExprNode() {}

// RefType references another schema by name (an embedded record).
type RefType struct {
	SchemaName string
	Pos        diagnostics.Position
}

func (*RefType) typeExprNode() {}

// CardinalityOf is `N of S` or `a..b of S`, with optional collection-level
// field overrides (spec.md section 3.1).
type CardinalityOf struct {
	Count     Expr // non-nil for a fixed/dynamic count
	CountLo   Expr // non-nil, together with CountHi, for a range count
	CountHi   Expr
	SchemaRef string
	Overrides []FieldOverride
	Pos       diagnostics.Position
}

func (*CardinalityOf) typeExprNode() {}

// WeightedOption is one alternative of a Superposition. Weight is nil for
// an unweighted option, whose share of the residual probability is computed
// at generation time (spec.md section 4.8 step 3).
type WeightedOption struct {
	Weight *float64
	Type   TypeExpr
}

// Superposition is a weighted or uniform union of alternatives:
// `A | B | C` or `w1:A | w2:B | C` (spec.md GLOSSARY).
type Superposition struct {
	Options []WeightedOption
	Pos     diagnostics.Position
}

func (*Superposition) typeExprNode() {}

// OrderedSequence is `[v1, v2, ...]`, cycled once per record in the
// enclosing collection (spec.md section 3.1, GLOSSARY "ordered sequence").
type OrderedSequence struct {
	Values []Expr
	Pos    diagnostics.Position
}

func (*OrderedSequence) typeExprNode() {}

// ExprType wraps an arbitrary value expression used as a field's type
// expression: literals, arithmetic/ternaries over sibling fields, parent
// access (^field), any-of lookups, and generator-function calls.
type ExprType struct {
	Expr Expr
}

func (*ExprType) typeExprNode() {}
