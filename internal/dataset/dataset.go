// Package dataset implements the dataset generation driver of spec.md
// section 3.2: it walks a DatasetDefinition's collections in declaration
// order, generates each record through internal/generator, applies refine
// rewrites and assume retries through internal/constraint, runs then-blocks
// when a record is referenced via `any of`, and strips private fields
// before the final result is returned. It is grounded on the teacher's
// internal/server response-building pipeline (handlers.go): resolve one
// named thing, render it, and track everything the rest of the run needs
// to see, generalized from one HTTP response to a whole collection set.
package dataset

import (
	"github.com/mcclowes/vague/internal/ast"
	"github.com/mcclowes/vague/internal/constraint"
	"github.com/mcclowes/vague/internal/diagnostics"
	"github.com/mcclowes/vague/internal/eval"
	"github.com/mcclowes/vague/internal/generator"
	"github.com/mcclowes/vague/internal/value"
)

// collection is the driver's implementation of eval.Collection: a named,
// already-generated set of records plus the schema that produced them, so
// `any of` can run that schema's then-block on the record it selects.
type collection struct {
	schema  *ast.SchemaDefinition
	records []*value.Record
	driver  *Driver
}

func (c *collection) Records() []*value.Record { return c.records }

func (c *collection) OnReferenced(r *value.Record) error {
	if c.schema == nil || c.schema.Then == nil {
		return nil
	}
	return c.driver.runThen(c.schema.Then, r)
}

// Driver generates every collection of one dataset, in order, threading a
// single Generator/Evaluator across every record (a constraint.Engine is
// built per record and per dataset from the shared Evaluator) so
// unique-field tracking and sequence/cycling state span the whole dataset
// (spec.md section 4.8). Driver also implements eval.Dataset and
// generator.SchemaResolver so the evaluator and generator can recurse back
// into it without an import cycle.
type Driver struct {
	Schemas   map[string]*ast.SchemaDefinition
	Gen       *generator.Generator
	Eval      *eval.Evaluator
	Warnings  *diagnostics.Collector
	Retries   Retries

	collections map[string]*collection
	order       []string
	violating   bool
}

// Retries carries the constraint retry budgets read from config
// (spec.md section 4.9).
type Retries struct {
	Constraint int
	Validate   int
}

// New creates a Driver. gen.Resolver must be set to this Driver by the
// caller after construction (generator.New takes the resolver before the
// driver that implements it exists), matching the teacher's pattern of
// wiring mutually-referential collaborators after both are constructed.
func New(schemas map[string]*ast.SchemaDefinition, gen *generator.Generator, ev *eval.Evaluator, warnings *diagnostics.Collector, retries Retries) *Driver {
	return &Driver{
		Schemas:     schemas,
		Gen:         gen,
		Eval:        ev,
		Warnings:    warnings,
		Retries:     retries,
		collections: make(map[string]*collection),
	}
}

// Collection implements eval.Dataset: only collections generated so far are
// visible (spec.md section 4.5 "forward references are a bind error" logic
// extends at runtime to "not-yet-generated collections are invisible").
func (d *Driver) Collection(name string) (eval.Collection, bool) {
	c, ok := d.collections[name]
	if !ok {
		return nil, false
	}
	return c, true
}

// GenerateRecord implements generator.SchemaResolver: produces one record of
// schemaName, applying overrides, refine rewrites, and assume retries.
// Per-record assume checks honor the enclosing dataset's `violating` flag
// (spec.md section 3.2: a violating dataset's records are accepted iff they
// fail at least one assume, so the polarity inversion applies here too, not
// just to the dataset-level validate engine in GenerateDataset).
func (d *Driver) GenerateRecord(schemaName string, parentScope *eval.Scope, overrides []ast.FieldOverride) (*value.Record, error) {
	schema, ok := d.Schemas[schemaName]
	if !ok {
		return nil, diagnostics.NewError(diagnostics.RuntimeError, diagnostics.Position{}, "unknown schema %q", schemaName)
	}

	fields := applyOverrides(schema.Fields, overrides)
	engine := constraint.New(d.Eval, d.Warnings, d.violating)

	generateOnce := func() (*value.Record, error) {
		rec, err := d.generateFields(schemaName, fields, parentScope)
		if err != nil {
			return nil, err
		}
		if schema.Refine != nil {
			if err := d.applyRefine(schema.Refine, rec, parentScope); err != nil {
				return nil, err
			}
		}
		return rec, nil
	}

	buildScope := func(rec *value.Record) *eval.Scope {
		if parentScope != nil {
			return parentScope.Child(rec)
		}
		return eval.NewScope(rec, d)
	}

	rec, err := engine.SatisfyAssumes(schemaName, schema.Assumes, generateOnce, buildScope, d.Retries.Constraint)
	if err != nil {
		return nil, err
	}

	stripPrivateFields(schema, rec)
	return rec, nil
}

// generateFields builds one record by generating each field in declaration
// order, mutating the record in place so later fields can reference earlier
// ones by bare identifier (spec.md section 4.7 scope rules).
func (d *Driver) generateFields(schemaName string, fields []ast.Field, parentScope *eval.Scope) (*value.Record, error) {
	rec := value.NewRecord()
	var scope *eval.Scope
	if parentScope != nil {
		scope = parentScope.Child(rec)
	} else {
		scope = eval.NewScope(rec, d)
	}

	for i := range fields {
		field := &fields[i]
		v, err := d.Gen.GenerateField(schemaName, field, scope)
		if err != nil {
			return nil, err
		}
		rec.Set(field.Name, v)
	}
	return rec, nil
}

// applyOverrides returns fields with any dataset-collection or
// cardinality-of override substituted in by name, leaving the base schema's
// field list untouched (spec.md section 3.1).
func applyOverrides(fields []ast.Field, overrides []ast.FieldOverride) []ast.Field {
	if len(overrides) == 0 {
		return fields
	}
	byName := make(map[string]ast.TypeExpr, len(overrides))
	for _, o := range overrides {
		byName[o.Name] = o.Type
	}
	out := make([]ast.Field, len(fields))
	copy(out, fields)
	for i, f := range out {
		if t, ok := byName[f.Name]; ok {
			out[i].Type = t
		}
	}
	return out
}

// applyRefine runs every `if <cond> { overrides }` clause whose condition
// holds, overwriting the named fields by re-evaluating their replacement
// expression against the already-generated record (spec.md section 3.1).
func (d *Driver) applyRefine(refine *ast.RefineBlock, rec *value.Record, parentScope *eval.Scope) error {
	var scope *eval.Scope
	if parentScope != nil {
		scope = parentScope.Child(rec)
	} else {
		scope = eval.NewScope(rec, d)
	}

	for _, clause := range refine.Clauses {
		condVal, err := d.Eval.Eval(clause.Cond, scope)
		if err != nil {
			return err
		}
		if !condVal.Truthy() {
			continue
		}
		for _, override := range clause.Overrides {
			v, err := d.evalOverrideType(override.Type, scope)
			if err != nil {
				return err
			}
			rec.Set(override.Name, v)
		}
	}
	return nil
}

// evalOverrideType resolves a refine override's replacement type expression
// to a value. Refine overrides in practice are expression-shaped
// (spec.md section 3.1 examples always assign a computed value), so an
// ExprType is evaluated directly and any other TypeExpr is drawn through
// the ordinary field-generation path as a fallback.
func (d *Driver) evalOverrideType(t ast.TypeExpr, scope *eval.Scope) (value.Value, error) {
	if et, ok := t.(*ast.ExprType); ok {
		return d.Eval.Eval(et.Expr, scope)
	}
	field := &ast.Field{Name: "", Type: t}
	return d.Gen.GenerateField("", field, scope)
}

// runThen executes a then-block's assignments against r, the record an
// `any of` expression just selected (spec.md section 3.1).
func (d *Driver) runThen(then *ast.ThenBlock, r *value.Record) error {
	scope := eval.NewScope(r, d)
	for _, assign := range then.Assignments {
		v, err := d.Eval.Eval(assign.Value, scope)
		if err != nil {
			return err
		}
		if assign.Op == "+=" {
			current, ok := r.Get(assign.Target)
			if !ok {
				return diagnostics.NewError(diagnostics.RuntimeError, diagnostics.Position{}, "then block: unknown target field %q", assign.Target)
			}
			combined, err := addValues(current, v)
			if err != nil {
				return err
			}
			v = combined
		}
		r.Set(assign.Target, v)
	}
	return nil
}

func addValues(a, b value.Value) (value.Value, error) {
	if a.Kind == value.KindString && b.Kind == value.KindString {
		return value.Str(a.Str + b.Str), nil
	}
	af, aok := a.AsFloat()
	bf, bok := b.AsFloat()
	if !aok || !bok {
		return value.Null(), diagnostics.NewError(diagnostics.RuntimeError, diagnostics.Position{}, "then block: cannot += %s and %s", a.Kind, b.Kind)
	}
	if a.Kind == value.KindInt && b.Kind == value.KindInt {
		return value.Int(a.Int + b.Int), nil
	}
	return value.Decimal(af + bf), nil
}

// stripPrivateFields removes every field the schema marks `private` from
// rec, run once per record right after its assume-check passes (spec.md
// section 3.1): generation, refine, and assume logic may still read private
// fields, but output never sees them.
func stripPrivateFields(schema *ast.SchemaDefinition, rec *value.Record) {
	for _, f := range schema.Fields {
		if f.Private {
			rec.Delete(f.Name)
		}
	}
}

// GenerateCollection produces coll.Cardinality (or a CardLo..CardHi range)
// records of coll.SchemaRef, registers them under coll.Name so later
// collections and `any of` expressions can see them, and returns the
// records generated.
func (d *Driver) GenerateCollection(coll *ast.DatasetCollection) ([]*value.Record, error) {
	schema, ok := d.Schemas[coll.SchemaRef]
	if !ok {
		return nil, diagnostics.NewError(diagnostics.RuntimeError, coll.Pos, "unknown schema %q", coll.SchemaRef)
	}

	n, err := d.resolveCollectionCardinality(coll)
	if err != nil {
		return nil, err
	}

	records := make([]*value.Record, 0, n)
	for i := 0; i < n; i++ {
		rec, err := d.GenerateRecord(coll.SchemaRef, nil, coll.Overrides)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	d.collections[coll.Name] = &collection{schema: schema, records: records, driver: d}
	if !contains(d.order, coll.Name) {
		d.order = append(d.order, coll.Name)
	}
	return records, nil
}

func (d *Driver) resolveCollectionCardinality(coll *ast.DatasetCollection) (int, error) {
	scope := eval.NewScope(value.NewRecord(), d)
	if coll.Cardinality != nil {
		v, err := d.Eval.Eval(coll.Cardinality, scope)
		if err != nil {
			return 0, err
		}
		f, ok := v.AsFloat()
		if !ok {
			return 0, diagnostics.NewError(diagnostics.RuntimeError, coll.Pos, "dataset collection cardinality must be numeric")
		}
		return int(f), nil
	}
	lo, err := d.Eval.Eval(coll.CardLo, scope)
	if err != nil {
		return 0, err
	}
	hi, err := d.Eval.Eval(coll.CardHi, scope)
	if err != nil {
		return 0, err
	}
	loF, _ := lo.AsFloat()
	hiF, _ := hi.AsFloat()
	return int(d.Gen.RNG.RangeInt(int64(loF), int64(hiF))), nil
}

func contains(list []string, name string) bool {
	for _, n := range list {
		if n == name {
			return true
		}
	}
	return false
}

// GenerateDataset runs every collection of def in declaration order, then
// retries the whole dataset against def's validate predicates (spec.md
// section 4.9, R2) before returning the final named collections.
func (d *Driver) GenerateDataset(def *ast.DatasetDefinition) (map[string][]*value.Record, error) {
	engine := constraint.New(d.Eval, d.Warnings, def.Violating)
	d.violating = def.Violating

	generateAll := func() (map[string][]*value.Record, error) {
		d.collections = make(map[string]*collection)
		d.order = nil
		out := make(map[string][]*value.Record, len(def.Collections))
		for i := range def.Collections {
			records, err := d.GenerateCollection(&def.Collections[i])
			if err != nil {
				return nil, err
			}
			out[def.Collections[i].Name] = records
		}
		return out, nil
	}

	var result map[string][]*value.Record
	for attempt := 0; attempt <= d.Retries.Validate; attempt++ {
		out, err := generateAll()
		if err != nil {
			return nil, err
		}
		result = out
		if len(def.Validate) == 0 {
			return result, nil
		}
		scope := eval.NewScope(value.NewRecord(), d)
		ok, err := engine.CheckPredicates(def.Validate, scope)
		if err != nil {
			return nil, err
		}
		if ok {
			return result, nil
		}
		if attempt == d.Retries.Validate {
			d.Warnings.Add(diagnostics.Warning{
				Kind:    diagnostics.ConstraintRetryLimit,
				Schema:  def.Name,
				Message: "exhausted validate retry budget; emitting the last generated dataset unsatisfied",
			})
		}
	}
	return result, nil
}
