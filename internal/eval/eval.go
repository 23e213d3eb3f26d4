package eval

import (
	"github.com/mcclowes/vague/internal/ast"
	"github.com/mcclowes/vague/internal/diagnostics"
	"github.com/mcclowes/vague/internal/prng"
	"github.com/mcclowes/vague/internal/value"
)

// Registry resolves a (possibly namespaced) generator-function call to a
// value. internal/plugin implements this; it is expressed as an interface
// here, rather than imported directly, so internal/eval and internal/plugin
// do not form an import cycle (the plugin registry's call signatures need
// the evaluator's Scope to recurse into argument evaluation).
type Registry interface {
	Call(scope *Scope, ev *Evaluator, namespace, name string, args []ast.Expr) (value.Value, error)
}

// Evaluator threads the shared PRNG, plugin registry, and warning collector
// through one expression evaluation (spec.md section 4.7).
type Evaluator struct {
	RNG       *prng.Source
	Registry  Registry
	Warnings  *diagnostics.Collector
	sequences *sequenceState
}

// New creates an Evaluator.
func New(rng *prng.Source, registry Registry, warnings *diagnostics.Collector) *Evaluator {
	return &Evaluator{RNG: rng, Registry: registry, Warnings: warnings}
}

// Eval evaluates one expression node under scope.
func (ev *Evaluator) Eval(e ast.Expr, scope *Scope) (value.Value, error) {
	switch node := e.(type) {
	case *ast.NullLiteral:
		return value.Null(), nil
	case *ast.BoolLiteral:
		return value.Bool(node.Value), nil
	case *ast.IntLiteral:
		return value.Int(node.Value), nil
	case *ast.DecimalLiteral:
		return value.Decimal(node.Value), nil
	case *ast.StringLiteral:
		return value.Str(node.Value), nil
	case *ast.Ident:
		return ev.evalIdent(node, scope)
	case *ast.ParentAccess:
		return ev.evalParentAccess(node, scope)
	case *ast.MemberAccess:
		return ev.evalMemberAccess(node, scope)
	case *ast.Call:
		return ev.evalCall(node, scope)
	case *ast.Binary:
		return ev.evalBinary(node, scope)
	case *ast.Unary:
		return ev.evalUnary(node, scope)
	case *ast.Ternary:
		return ev.evalTernary(node, scope)
	case *ast.AnyOf:
		return ev.evalAnyOf(node, scope)
	case *ast.DotPredicate:
		return ev.evalDotPredicate(node, scope)
	default:
		return value.Null(), runtimeErrorf(e.Position(), "unsupported expression node")
	}
}

func runtimeErrorf(pos diagnostics.Position, format string, args ...any) *diagnostics.Error {
	return diagnostics.NewError(diagnostics.RuntimeError, pos, format, args...)
}

// evalIdent resolves a bare identifier against the current record only:
// reaching into the parent record requires the explicit `^` sigil
// (spec.md section 3.1), so no implicit walk up the scope chain happens
// here.
func (ev *Evaluator) evalIdent(node *ast.Ident, scope *Scope) (value.Value, error) {
	if v, ok := scope.Self.Get(node.Name); ok {
		return v, nil
	}
	return value.Null(), runtimeErrorf(node.Pos, "unknown field reference %q", node.Name)
}

func (ev *Evaluator) evalParentAccess(node *ast.ParentAccess, scope *Scope) (value.Value, error) {
	if scope.Parent == nil {
		return value.Null(), runtimeErrorf(node.Pos, "^%s used outside an embedded record", node.Field)
	}
	v, ok := scope.Parent.Self.Get(node.Field)
	if !ok {
		return value.Null(), runtimeErrorf(node.Pos, "parent record has no field %q", node.Field)
	}
	return v, nil
}

func (ev *Evaluator) evalMemberAccess(node *ast.MemberAccess, scope *Scope) (value.Value, error) {
	target, err := ev.Eval(node.Target, scope)
	if err != nil {
		return value.Null(), err
	}
	if target.Kind != value.KindRecord {
		return value.Null(), runtimeErrorf(node.Pos, "cannot access field %q of non-record value", node.Field)
	}
	v, ok := target.Record.Get(node.Field)
	if !ok {
		return value.Null(), runtimeErrorf(node.Pos, "record has no field %q", node.Field)
	}
	return v, nil
}

func (ev *Evaluator) evalTernary(node *ast.Ternary, scope *Scope) (value.Value, error) {
	cond, err := ev.Eval(node.Cond, scope)
	if err != nil {
		return value.Null(), err
	}
	if cond.Truthy() {
		return ev.Eval(node.Then, scope)
	}
	return ev.Eval(node.Else, scope)
}

func (ev *Evaluator) evalUnary(node *ast.Unary, scope *Scope) (value.Value, error) {
	operand, err := ev.Eval(node.Operand, scope)
	if err != nil {
		return value.Null(), err
	}
	switch node.Op {
	case ast.OpNot:
		return value.Bool(!operand.Truthy()), nil
	case ast.OpNeg:
		f, ok := operand.AsFloat()
		if !ok {
			return value.Null(), runtimeErrorf(node.Pos, "cannot negate non-numeric value")
		}
		if operand.Kind == value.KindInt {
			return value.Int(-operand.Int), nil
		}
		return value.Decimal(-f), nil
	case ast.OpPos:
		if _, ok := operand.AsFloat(); !ok {
			return value.Null(), runtimeErrorf(node.Pos, "cannot apply unary '+' to non-numeric value")
		}
		return operand, nil
	default:
		return value.Null(), runtimeErrorf(node.Pos, "unsupported unary operator")
	}
}

func (ev *Evaluator) evalBinary(node *ast.Binary, scope *Scope) (value.Value, error) {
	switch node.Op {
	case ast.OpAnd:
		left, err := ev.Eval(node.Left, scope)
		if err != nil {
			return value.Null(), err
		}
		if !left.Truthy() {
			return value.Bool(false), nil
		}
		right, err := ev.Eval(node.Right, scope)
		if err != nil {
			return value.Null(), err
		}
		return value.Bool(right.Truthy()), nil
	case ast.OpOr:
		left, err := ev.Eval(node.Left, scope)
		if err != nil {
			return value.Null(), err
		}
		if left.Truthy() {
			return value.Bool(true), nil
		}
		right, err := ev.Eval(node.Right, scope)
		if err != nil {
			return value.Null(), err
		}
		return value.Bool(right.Truthy()), nil
	}

	left, err := ev.Eval(node.Left, scope)
	if err != nil {
		return value.Null(), err
	}
	right, err := ev.Eval(node.Right, scope)
	if err != nil {
		return value.Null(), err
	}

	switch node.Op {
	case ast.OpEq:
		return value.Bool(left.Equal(right)), nil
	case ast.OpNotEq:
		return value.Bool(!left.Equal(right)), nil
	case ast.OpLt, ast.OpLtEq, ast.OpGt, ast.OpGtEq:
		cmp, ok := left.Compare(right)
		if !ok {
			return value.Null(), runtimeErrorf(node.Pos, "cannot compare %s and %s", left.Kind, right.Kind)
		}
		return value.Bool(compareMatches(node.Op, cmp)), nil
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv:
		return arithmetic(node.Op, left, right, node.Pos)
	default:
		return value.Null(), runtimeErrorf(node.Pos, "unsupported binary operator")
	}
}

func compareMatches(op ast.BinaryOp, cmp int) bool {
	switch op {
	case ast.OpLt:
		return cmp < 0
	case ast.OpLtEq:
		return cmp <= 0
	case ast.OpGt:
		return cmp > 0
	case ast.OpGtEq:
		return cmp >= 0
	default:
		return false
	}
}

func arithmetic(op ast.BinaryOp, left, right value.Value, pos diagnostics.Position) (value.Value, error) {
	if op == ast.OpAdd && left.Kind == value.KindString && right.Kind == value.KindString {
		return value.Str(left.Str + right.Str), nil
	}
	lf, lok := left.AsFloat()
	rf, rok := right.AsFloat()
	if !lok || !rok {
		return value.Null(), runtimeErrorf(pos, "arithmetic requires numeric operands, got %s and %s", left.Kind, right.Kind)
	}
	bothInt := left.Kind == value.KindInt && right.Kind == value.KindInt
	var result float64
	switch op {
	case ast.OpAdd:
		result = lf + rf
	case ast.OpSub:
		result = lf - rf
	case ast.OpMul:
		result = lf * rf
	case ast.OpDiv:
		if rf == 0 {
			return value.Null(), runtimeErrorf(pos, "division by zero")
		}
		result = lf / rf
		bothInt = false
	}
	if bothInt {
		return value.Int(int64(result)), nil
	}
	return value.Decimal(result), nil
}

func (ev *Evaluator) evalAnyOf(node *ast.AnyOf, scope *Scope) (value.Value, error) {
	coll, ok := scope.Dataset.Collection(node.Collection)
	if !ok {
		return value.Null(), runtimeErrorf(node.Pos, "any of %s: collection not yet available", node.Collection)
	}
	records := coll.Records()
	if node.Where != nil {
		var filtered []*value.Record
		for _, r := range records {
			candidate := scope.Child(r)
			matched, err := ev.Eval(node.Where, candidate)
			if err != nil {
				return value.Null(), err
			}
			if matched.Truthy() {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}
	if len(records) == 0 {
		// spec.md section 4.8 step 7: an empty filtered set is Null, not a
		// runtime error — `where` is allowed to match nothing.
		return value.Null(), nil
	}
	idx := ev.RNG.Choice(len(records))
	chosen := records[idx]
	if err := coll.OnReferenced(chosen); err != nil {
		return value.Null(), err
	}
	return value.Rec(chosen), nil
}

func (ev *Evaluator) evalDotPredicate(node *ast.DotPredicate, scope *Scope) (value.Value, error) {
	fieldVal, ok := scope.Self.Get(node.Field)
	if !ok {
		return value.Null(), runtimeErrorf(node.Pos, "predicate references unknown field %q", node.Field)
	}
	rhs, err := ev.Eval(node.Value, scope)
	if err != nil {
		return value.Null(), err
	}
	switch node.Op {
	case ast.OpEq:
		return value.Bool(fieldVal.Equal(rhs)), nil
	case ast.OpNotEq:
		return value.Bool(!fieldVal.Equal(rhs)), nil
	default:
		cmp, ok := fieldVal.Compare(rhs)
		if !ok {
			return value.Null(), runtimeErrorf(node.Pos, "cannot compare %s and %s", fieldVal.Kind, rhs.Kind)
		}
		return value.Bool(compareMatches(node.Op, cmp)), nil
	}
}
