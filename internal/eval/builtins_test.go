package eval

import (
	"testing"

	"github.com/mcclowes/vague/internal/ast"
	"github.com/mcclowes/vague/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalStringHelpersCoverAllDocumentedNames(t *testing.T) {
	ev := newTestEvaluator()
	scope := NewScope(value.NewRecord(), fakeDataset{})

	cases := []struct {
		call ast.Expr
		want string
	}{
		{&ast.Call{Name: "upper", Args: []ast.Expr{&ast.StringLiteral{Value: "hi there"}}}, "HI THERE"},
		{&ast.Call{Name: "lower", Args: []ast.Expr{&ast.StringLiteral{Value: "HI"}}}, "hi"},
		{&ast.Call{Name: "capitalize", Args: []ast.Expr{&ast.StringLiteral{Value: "order item"}}}, "Order item"},
		{&ast.Call{Name: "kebab", Args: []ast.Expr{&ast.StringLiteral{Value: "OrderItem"}}}, "order-item"},
		{&ast.Call{Name: "snake", Args: []ast.Expr{&ast.StringLiteral{Value: "Order Item"}}}, "order_item"},
		{&ast.Call{Name: "camel", Args: []ast.Expr{&ast.StringLiteral{Value: "order_item"}}}, "orderItem"},
		{&ast.Call{Name: "trim", Args: []ast.Expr{&ast.StringLiteral{Value: "  hi  "}}}, "hi"},
		{&ast.Call{Name: "substring", Args: []ast.Expr{&ast.StringLiteral{Value: "hello"}, &ast.IntLiteral{Value: 1}, &ast.IntLiteral{Value: 3}}}, "el"},
		{&ast.Call{Name: "replace", Args: []ast.Expr{&ast.StringLiteral{Value: "a-b-c"}, &ast.StringLiteral{Value: "-"}, &ast.StringLiteral{Value: "_"}}}, "a_b_c"},
		{&ast.Call{Name: "concat", Args: []ast.Expr{&ast.StringLiteral{Value: "a"}, &ast.StringLiteral{Value: "b"}}}, "ab"},
	}
	for _, c := range cases {
		got, err := ev.Eval(c.call, scope)
		require.NoError(t, err)
		assert.Equal(t, c.want, got.Str)
	}
}

func TestEvalLengthIsNullSafe(t *testing.T) {
	ev := newTestEvaluator()
	scope := NewScope(value.NewRecord(), fakeDataset{})
	call := &ast.Call{Name: "length", Args: []ast.Expr{&ast.NullLiteral{}}}
	got, err := ev.Eval(call, scope)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Int)
}

func TestEvalRoundFloorCeil(t *testing.T) {
	ev := newTestEvaluator()
	scope := NewScope(value.NewRecord(), fakeDataset{})

	round := &ast.Call{Name: "round", Args: []ast.Expr{&ast.DecimalLiteral{Value: 1.256}, &ast.IntLiteral{Value: 2}}}
	got, err := ev.Eval(round, scope)
	require.NoError(t, err)
	assert.InDelta(t, 1.26, got.Decimal, 1e-9)

	floor := &ast.Call{Name: "floor", Args: []ast.Expr{&ast.DecimalLiteral{Value: 1.29}, &ast.IntLiteral{Value: 1}}}
	got, err = ev.Eval(floor, scope)
	require.NoError(t, err)
	assert.InDelta(t, 1.2, got.Decimal, 1e-9)

	ceil := &ast.Call{Name: "ceil", Args: []ast.Expr{&ast.DecimalLiteral{Value: 1.21}, &ast.IntLiteral{Value: 1}}}
	got, err = ev.Eval(ceil, scope)
	require.NoError(t, err)
	assert.InDelta(t, 1.3, got.Decimal, 1e-9)
}

func TestEvalTodayAndNowAreDeterministic(t *testing.T) {
	scope := NewScope(value.NewRecord(), fakeDataset{})

	ev1 := newTestEvaluator()
	today1, err := ev1.Eval(&ast.Call{Name: "today"}, scope)
	require.NoError(t, err)

	ev2 := New(nil, nil, nil)
	today2, err := ev2.Eval(&ast.Call{Name: "today"}, scope)
	require.NoError(t, err)

	assert.Equal(t, value.KindDate, today1.Kind)
	assert.Equal(t, today1.Str, today2.Str)

	now, err := ev1.Eval(&ast.Call{Name: "now"}, scope)
	require.NoError(t, err)
	assert.Equal(t, today1.Str, now.Str)
}

func TestEvalDaysAgoAndDaysFromNow(t *testing.T) {
	ev := newTestEvaluator()
	scope := NewScope(value.NewRecord(), fakeDataset{})

	today, err := ev.Eval(&ast.Call{Name: "today"}, scope)
	require.NoError(t, err)

	ago, err := ev.Eval(&ast.Call{Name: "days_ago", Args: []ast.Expr{&ast.IntLiteral{Value: 10}}}, scope)
	require.NoError(t, err)
	assert.NotEqual(t, today.Str, ago.Str)

	ahead, err := ev.Eval(&ast.Call{Name: "days_from_now", Args: []ast.Expr{&ast.IntLiteral{Value: 10}}}, scope)
	require.NoError(t, err)
	assert.NotEqual(t, today.Str, ahead.Str)
	assert.NotEqual(t, ago.Str, ahead.Str)
}

func TestEvalDateBetweenStaysWithinBounds(t *testing.T) {
	ev := newTestEvaluator()
	scope := NewScope(value.NewRecord(), fakeDataset{})

	call := &ast.Call{Name: "date_between", Args: []ast.Expr{
		&ast.StringLiteral{Value: "2020-01-01"},
		&ast.StringLiteral{Value: "2020-01-10"},
	}}
	got, err := ev.Eval(call, scope)
	require.NoError(t, err)
	require.Equal(t, value.KindDate, got.Kind)
	assert.GreaterOrEqual(t, got.Str, "2020-01-01")
	assert.LessOrEqual(t, got.Str, "2020-01-10")
}

func TestEvalDatetimeStaysWithinYearBounds(t *testing.T) {
	ev := newTestEvaluator()
	scope := NewScope(value.NewRecord(), fakeDataset{})

	call := &ast.Call{Name: "datetime", Args: []ast.Expr{&ast.IntLiteral{Value: 2021}, &ast.IntLiteral{Value: 2022}}}
	got, err := ev.Eval(call, scope)
	require.NoError(t, err)
	require.Equal(t, value.KindDate, got.Kind)
	assert.GreaterOrEqual(t, got.Str, "2021-01-01")
	assert.LessOrEqual(t, got.Str, "2022-12-31")
}
