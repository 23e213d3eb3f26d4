// Package eval implements the expression evaluator and scope chain of
// spec.md section 4.7. The teacher repo has no expression language of its
// own (its "generation" is format-driven lookups, not an AST walk), so this
// package is grounded on the teacher's internal/generator.go dispatch
// style — a type switch over a small closed set of cases, falling through
// to an error for anything unrecognized — applied to ast.Expr instead of an
// OpenAPI schema.
package eval

import (
	"github.com/mcclowes/vague/internal/value"
)

// Collection is a read view onto one already-generated dataset collection,
// used by `any of`, aggregates, and predicates (spec.md section 4.7).
type Collection interface {
	Records() []*value.Record

	// OnReferenced runs the owning schema's then-block (if any) against r,
	// the record an `any of` expression just selected (spec.md section 3.1:
	// "ThenBlock runs when a record is referenced by another via any of").
	// Collections with no then-block implement this as a no-op.
	OnReferenced(r *value.Record) error
}

// Dataset resolves collection names to their generated records. The dataset
// driver (internal/dataset) builds one per compile and grows it as each
// collection finishes generating, so only collections declared earlier than
// the current one are visible (spec.md section 4.5).
type Dataset interface {
	Collection(name string) (Collection, bool)
}

// Scope is the lookup chain described in spec.md section 4.7: the record
// currently under construction, its lexical parent (reachable via `^`), and
// the dataset-wide view used by `any of` and aggregates.
type Scope struct {
	Self    *value.Record
	Parent  *Scope
	Dataset Dataset
}

// NewScope creates a root scope for one top-level record's generation.
func NewScope(self *value.Record, dataset Dataset) *Scope {
	return &Scope{Self: self, Dataset: dataset}
}

// Child creates a nested scope for a record embedded via `N of S`, so
// `^field` inside the child resolves against the parent's fields.
func (s *Scope) Child(self *value.Record) *Scope {
	return &Scope{Self: self, Parent: s, Dataset: s.Dataset}
}
