// Package ast defines the syntax tree produced by internal/parser. Per the
// design notes (spec.md section 9), expression and type-expression nodes are
// variants of algebraic-data-type-shaped interfaces rather than a single
// dynamically-tagged node, so dispatch is a Go type switch instead of a
// runtime tag check.
package ast

import "github.com/mcclowes/vague/internal/diagnostics"

// Item is a top-level program item.
type Item interface {
	itemNode()
}

// Program is the root of the syntax tree: an ordered list of items
// (spec.md section 3.1). Order is irrelevant to name resolution but fixes
// dataset generation order (spec.md section 3.2).
type Program struct {
	Items []Item
}

// LetBinding is a named reusable type expression (spec.md section 3.1).
type LetBinding struct {
	Name  string
	Value TypeExpr
	Pos   diagnostics.Position
}

func (*LetBinding) itemNode() {}

// ImportDirective loads an external schema spec (spec.md section 4.5).
type ImportDirective struct {
	Name string
	Path string
	Pos  diagnostics.Position
}

func (*ImportDirective) itemNode() {}

// Field is one field spec within a schema (spec.md section 3.1).
type Field struct {
	Name     string
	Type     TypeExpr
	Unique   bool
	Private  bool
	Nullable bool
	When     Expr // nil if unguarded
	Pos      diagnostics.Position
}

// AssumeItem is a per-record constraint, optionally guarded
// (spec.md section 3.1, "assume if <cond> { ... }").
type AssumeItem struct {
	Guard      Expr // nil for unconditional assume
	Predicates []Expr
	Pos        diagnostics.Position
}

// FieldOverride replaces a field's type expression within one context
// (a dataset collection's `{ ... }` override, or a refine clause).
type FieldOverride struct {
	Name string
	Type TypeExpr
}

// RefineClause is one `if <cond> { <field overrides> }` of a refine block.
type RefineClause struct {
	Cond      Expr
	Overrides []FieldOverride
}

// RefineBlock is a schema's post-generation rewrite rule set
// (spec.md section 3.1).
type RefineBlock struct {
	Clauses []RefineClause
}

// Assign is one statement of a then-block: `target = expr` or
// `target += expr` (spec.md section 6.1).
type Assign struct {
	Target string
	Op     string // "=" or "+="
	Value  Expr
}

// ThenBlock runs when a record is referenced by another via `any of`
// (spec.md section 3.1).
type ThenBlock struct {
	Assignments []Assign
}

// SchemaDefinition is a named record shape (spec.md section 3.1).
type SchemaDefinition struct {
	Name    string
	Base    string // imported schema name, "" if none
	Fields  []Field
	Assumes []AssumeItem
	Refine  *RefineBlock // nil if absent
	Then    *ThenBlock   // nil if absent
	Pos     diagnostics.Position
}

func (*SchemaDefinition) itemNode() {}

// DatasetCollection is one `cname: <cardinality> of <SchemaRef> { ... }`
// entry of a dataset (spec.md section 3.1).
type DatasetCollection struct {
	Name       string
	Cardinality Expr // for `N of S`; may itself be dynamic
	CardLo     Expr  // for `a..b of S`; nil unless a range cardinality
	CardHi     Expr
	SchemaRef  string
	Overrides  []FieldOverride
	Pos        diagnostics.Position
}

// DatasetDefinition is a named collection of dataset collections
// (spec.md section 3.1).
type DatasetDefinition struct {
	Name        string
	Violating   bool
	Collections []DatasetCollection
	Validate    []Expr
	Pos         diagnostics.Position
}

func (*DatasetDefinition) itemNode() {}
