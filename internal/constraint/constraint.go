// Package constraint implements the resample-with-retry engine of spec.md
// section 4.9: per-record `assume`/`assume if` checks (retry budget R1) and
// dataset-level `validate` checks (retry budget R2), including `violating`
// mode's polarity inversion. The teacher repo has no equivalent retry loop,
// so this package is grounded on the teacher's internal/security rate
// limiter's bounded-retry-then-give-up shape (rate_limiter.go), generalized
// from "reject and count" to "regenerate and recount".
package constraint

import (
	"github.com/mcclowes/vague/internal/ast"
	"github.com/mcclowes/vague/internal/diagnostics"
	"github.com/mcclowes/vague/internal/eval"
	"github.com/mcclowes/vague/internal/value"
)

// RecordGenerator regenerates one record from scratch, used to produce a
// fresh candidate each retry attempt (spec.md section 4.9: constraints are
// satisfied by resampling the whole record, not by patching individual
// fields).
type RecordGenerator func() (*value.Record, error)

// Engine runs the per-record and dataset-level constraint retry loops.
type Engine struct {
	Eval      *eval.Evaluator
	Warnings  *diagnostics.Collector
	Violating bool
}

// New creates an Engine. violating inverts acceptance: see CheckAssumes for
// assume items and Satisfied for validate predicates (spec.md section 3.1
// "dataset ... violating").
func New(ev *eval.Evaluator, warnings *diagnostics.Collector, violating bool) *Engine {
	return &Engine{Eval: ev, Warnings: warnings, Violating: violating}
}

// Satisfied applies violating-mode polarity inversion to one predicate
// result (spec.md section 3.1).
func (e *Engine) Satisfied(v value.Value) bool {
	if e.Violating {
		return !v.Truthy()
	}
	return v.Truthy()
}

// SatisfyAssumes regenerates a record via generate until the assume items
// of schema are satisfied (see CheckAssumes), making up to maxRetries
// retries after the first attempt (spec.md section 4.9, R1). The
// final candidate is returned even if the budget is exhausted, since a
// fatal abort on a merely-improbable constraint would make most schemas
// impractical to express.
func (e *Engine) SatisfyAssumes(schemaName string, assumes []ast.AssumeItem, generate RecordGenerator, buildScope func(*value.Record) *eval.Scope, maxRetries int) (*value.Record, error) {
	var record *value.Record
	for attempt := 0; attempt <= maxRetries; attempt++ {
		rec, err := generate()
		if err != nil {
			return nil, err
		}
		record = rec
		scope := buildScope(rec)
		ok, err := e.CheckAssumes(assumes, scope)
		if err != nil {
			return nil, err
		}
		if ok {
			return record, nil
		}
		if attempt == maxRetries {
			e.Warnings.Add(diagnostics.Warning{
				Kind:    diagnostics.ConstraintRetryLimit,
				Schema:  schemaName,
				Message: "exhausted assume retry budget; emitting the last candidate record unsatisfied",
			})
		}
	}
	return record, nil
}

// CheckAssumes reports whether the assume items are satisfied against scope.
// Normally every predicate of every applicable item must hold; in violating
// mode the record is accepted iff at least one applicable predicate fails
// (a record with no applicable predicate is accepted in either mode).
func (e *Engine) CheckAssumes(assumes []ast.AssumeItem, scope *eval.Scope) (bool, error) {
	checked := false
	for _, item := range assumes {
		if item.Guard != nil {
			guardVal, err := e.Eval.Eval(item.Guard, scope)
			if err != nil {
				return false, err
			}
			if !guardVal.Truthy() {
				continue
			}
		}
		for _, pred := range item.Predicates {
			v, err := e.Eval.Eval(pred, scope)
			if err != nil {
				return false, err
			}
			checked = true
			if e.Violating {
				if !v.Truthy() {
					return true, nil
				}
				continue
			}
			if !v.Truthy() {
				return false, nil
			}
		}
	}
	return !e.Violating || !checked, nil
}

// CollectionGenerator regenerates an entire dataset collection (every
// record in it) from scratch, for dataset-level `validate` retries
// (spec.md section 4.9, R2).
type CollectionGenerator func() ([]*value.Record, error)

// SatisfyValidate regenerates a whole collection set via generate until
// every validate predicate holds over the resulting dataset-wide scope,
// making up to maxRetries retries after the first attempt.
func (e *Engine) SatisfyValidate(datasetName string, predicates []ast.Expr, generate CollectionGenerator, buildScope func() *eval.Scope, maxRetries int) ([]*value.Record, error) {
	var records []*value.Record
	for attempt := 0; attempt <= maxRetries; attempt++ {
		recs, err := generate()
		if err != nil {
			return nil, err
		}
		records = recs
		scope := buildScope()
		ok, err := e.CheckPredicates(predicates, scope)
		if err != nil {
			return nil, err
		}
		if ok {
			return records, nil
		}
		if attempt == maxRetries {
			e.Warnings.Add(diagnostics.Warning{
				Kind:    diagnostics.ConstraintRetryLimit,
				Schema:  datasetName,
				Message: "exhausted validate retry budget; emitting the last generated dataset unsatisfied",
			})
		}
	}
	return records, nil
}

// CheckPredicates reports whether every predicate holds (after violating-mode
// polarity inversion) against scope.
func (e *Engine) CheckPredicates(predicates []ast.Expr, scope *eval.Scope) (bool, error) {
	for _, pred := range predicates {
		v, err := e.Eval.Eval(pred, scope)
		if err != nil {
			return false, err
		}
		if !e.Satisfied(v) {
			return false, nil
		}
	}
	return true, nil
}
