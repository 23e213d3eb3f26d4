// Package generator implements the per-field value generation pipeline of
// spec.md section 4.8: guard evaluation, superposition draws, ranges,
// uniqueness retries, and cardinality-of sub-record generation. It is
// grounded on the teacher's internal/generator.go, which resolves one
// OpenAPI schema node to example data via a priority-ordered dispatch
// (example > enum > composition > type-specific); this package keeps that
// same priority-dispatch shape but over ast.TypeExpr nodes instead of
// *openapi3.Schema, with "example" and "enum" replaced by "when guard" and
// "superposition".
package generator

import (
	"github.com/mcclowes/vague/internal/ast"
	"github.com/mcclowes/vague/internal/diagnostics"
	"github.com/mcclowes/vague/internal/eval"
	"github.com/mcclowes/vague/internal/prng"
	"github.com/mcclowes/vague/internal/value"
)

// nullProbability is the chance a nullable field draws Null instead of a
// generated value. spec.md section 9's Open Questions leave the exact
// figure unspecified; DESIGN.md records 0.1 as this project's decision,
// matching the teacher's own 10%-ish defaults for optional-field omission.
const nullProbability = 0.1

// SchemaResolver generates a nested record for an embedded schema
// reference (RefType or CardinalityOf). internal/dataset implements this;
// expressing it as an interface here avoids an import cycle, since the
// dataset driver itself calls into this package to generate each field.
type SchemaResolver interface {
	GenerateRecord(schemaName string, parentScope *eval.Scope, overrides []ast.FieldOverride) (*value.Record, error)
}

// Generator produces field values. One Generator is built per compile and
// reused across every record, so its unique-value and sequence-cycling
// state correctly accumulates dataset-wide (spec.md section 4.8 steps 3-5).
type Generator struct {
	RNG       *prng.Source
	Eval      *eval.Evaluator
	Resolver  SchemaResolver
	Warnings  *diagnostics.Collector
	UniqueMax int

	uniqueSeen map[uniqueKey]map[string]bool
	cycleIdx   map[*ast.Field]int
}

type uniqueKey struct {
	schema string
	field  string
}

// New creates a Generator. uniqueMax is the retry budget for `unique`
// fields (spec.md section 4.8 step 5, default constants.DefaultUniqueRetries).
func New(rng *prng.Source, ev *eval.Evaluator, resolver SchemaResolver, warnings *diagnostics.Collector, uniqueMax int) *Generator {
	return &Generator{
		RNG:        rng,
		Eval:       ev,
		Resolver:   resolver,
		Warnings:   warnings,
		UniqueMax:  uniqueMax,
		uniqueSeen: make(map[uniqueKey]map[string]bool),
		cycleIdx:   make(map[*ast.Field]int),
	}
}

// GenerateField produces the value for one field of schemaName within scope
// (spec.md section 4.8, the per-field generation algorithm).
func (g *Generator) GenerateField(schemaName string, field *ast.Field, scope *eval.Scope) (value.Value, error) {
	if field.When != nil {
		guard, err := g.Eval.Eval(field.When, scope)
		if err != nil {
			return value.Null(), err
		}
		if !guard.Truthy() {
			return value.Null(), nil
		}
	}

	if field.Nullable && g.RNG.UniformFloat() < nullProbability {
		return value.Null(), nil
	}

	if !field.Unique {
		return g.generateType(schemaName, field.Name, field.Type, scope, field)
	}
	return g.generateUnique(schemaName, field, scope)
}

func (g *Generator) generateUnique(schemaName string, field *ast.Field, scope *eval.Scope) (value.Value, error) {
	key := uniqueKey{schema: schemaName, field: field.Name}
	seen, ok := g.uniqueSeen[key]
	if !ok {
		seen = make(map[string]bool)
		g.uniqueSeen[key] = seen
	}

	var last value.Value
	for attempt := 0; attempt < g.UniqueMax; attempt++ {
		v, err := g.generateType(schemaName, field.Name, field.Type, scope, field)
		if err != nil {
			return value.Null(), err
		}
		last = v
		if !seen[v.UniqueKey()] {
			seen[v.UniqueKey()] = true
			return v, nil
		}
	}

	g.Warnings.Add(diagnostics.Warning{
		Kind:    diagnostics.UniqueValueExhaustion,
		Schema:  schemaName,
		Field:   field.Name,
		Message: "exhausted retry budget generating a distinct value; returning a duplicate",
	})
	seen[last.UniqueKey()] = true
	return last, nil
}

// generateType dispatches by concrete TypeExpr variant (spec.md section 4.8
// step 2 onward: composition/superposition before type-specific draws).
func (g *Generator) generateType(schemaName, fieldName string, t ast.TypeExpr, scope *eval.Scope, field *ast.Field) (value.Value, error) {
	switch te := t.(type) {
	case *ast.Superposition:
		return g.generateSuperposition(schemaName, fieldName, te, scope, field)
	case *ast.OrderedSequence:
		return g.generateOrderedSequence(te, scope, field)
	case *ast.PrimitiveType:
		return g.generatePrimitive(te, scope)
	case *ast.RefType:
		rec, err := g.Resolver.GenerateRecord(te.SchemaName, scope, nil)
		if err != nil {
			return value.Null(), err
		}
		return value.Rec(rec), nil
	case *ast.CardinalityOf:
		return g.generateCardinalityOf(te, scope)
	case *ast.ExprType:
		return g.Eval.Eval(te.Expr, scope)
	default:
		return value.Null(), diagnostics.NewError(diagnostics.RuntimeError, diagnostics.Position{}, "unsupported type expression for field %q", fieldName)
	}
}

// generateSuperposition implements spec.md section 4.8 step 3: options with
// an explicit weight draw proportionally to it; options without one split
// the residual probability (1 - sum of explicit weights) evenly.
func (g *Generator) generateSuperposition(schemaName, fieldName string, sup *ast.Superposition, scope *eval.Scope, field *ast.Field) (value.Value, error) {
	weights := make([]float64, len(sup.Options))
	explicitTotal := 0.0
	unweightedCount := 0
	for i, opt := range sup.Options {
		if opt.Weight != nil {
			weights[i] = *opt.Weight
			explicitTotal += *opt.Weight
		} else {
			unweightedCount++
		}
	}
	if unweightedCount > 0 {
		residual := 1 - explicitTotal
		if residual < 0 {
			residual = 0
		}
		share := residual / float64(unweightedCount)
		for i, opt := range sup.Options {
			if opt.Weight == nil {
				weights[i] = share
			}
		}
	}
	idx := g.RNG.WeightedChoice(weights)
	return g.generateType(schemaName, fieldName, sup.Options[idx].Type, scope, field)
}

// generateOrderedSequence cycles through Values once per record in the
// enclosing collection (spec.md GLOSSARY "ordered sequence"), tracked per
// field AST node across the whole compile.
func (g *Generator) generateOrderedSequence(seq *ast.OrderedSequence, scope *eval.Scope, field *ast.Field) (value.Value, error) {
	if len(seq.Values) == 0 {
		return value.Null(), diagnostics.NewError(diagnostics.RuntimeError, seq.Pos, "ordered sequence has no values")
	}
	idx := g.cycleIdx[field] % len(seq.Values)
	g.cycleIdx[field] = g.cycleIdx[field] + 1
	return g.Eval.Eval(seq.Values[idx], scope)
}

// generateCardinalityOf generates `N of S` / `a..b of S`, producing a list
// of embedded records with any collection-level overrides applied to each
// (spec.md section 3.1).
func (g *Generator) generateCardinalityOf(card *ast.CardinalityOf, scope *eval.Scope) (value.Value, error) {
	n, err := g.resolveCardinality(card, scope)
	if err != nil {
		return value.Null(), err
	}
	out := make([]value.Value, 0, n)
	for i := 0; i < n; i++ {
		rec, err := g.Resolver.GenerateRecord(card.SchemaRef, scope, card.Overrides)
		if err != nil {
			return value.Null(), err
		}
		out = append(out, value.Rec(rec))
	}
	return value.List(out), nil
}

func (g *Generator) resolveCardinality(card *ast.CardinalityOf, scope *eval.Scope) (int, error) {
	if card.Count != nil {
		v, err := g.Eval.Eval(card.Count, scope)
		if err != nil {
			return 0, err
		}
		f, ok := v.AsFloat()
		if !ok {
			return 0, diagnostics.NewError(diagnostics.RuntimeError, card.Pos, "cardinality must be numeric")
		}
		return int(f), nil
	}
	lo, err := g.Eval.Eval(card.CountLo, scope)
	if err != nil {
		return 0, err
	}
	hi, err := g.Eval.Eval(card.CountHi, scope)
	if err != nil {
		return 0, err
	}
	loF, _ := lo.AsFloat()
	hiF, _ := hi.AsFloat()
	return int(g.RNG.RangeInt(int64(loF), int64(hiF))), nil
}
