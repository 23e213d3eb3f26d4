package plugin

import (
	"testing"

	"github.com/mcclowes/vague/internal/ast"
	"github.com/mcclowes/vague/internal/diagnostics"
	"github.com/mcclowes/vague/internal/eval"
	"github.com/mcclowes/vague/internal/prng"
	"github.com/mcclowes/vague/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCallInvokesRegisteredFunction(t *testing.T) {
	reg := New()
	reg.Register("demo.upper", func(rng RNG, args []value.Value) (value.Value, error) {
		return value.Str("HELLO"), nil
	}, true)

	warnings := diagnostics.NewCollector()
	ev := eval.New(prng.NewSeeded(1), reg, warnings)
	scope := eval.NewScope(value.NewRecord(), nil)

	got, err := ev.Eval(&ast.Call{Namespace: "demo", Name: "upper"}, scope)
	require.NoError(t, err)
	assert.Equal(t, "HELLO", got.Str)
}

func TestRegistryCallReturnsRuntimeErrorForUnknownName(t *testing.T) {
	reg := New()
	warnings := diagnostics.NewCollector()
	ev := eval.New(prng.NewSeeded(1), reg, warnings)
	scope := eval.NewScope(value.NewRecord(), nil)

	_, err := ev.Eval(&ast.Call{Namespace: "faker", Name: "missing"}, scope)
	require.Error(t, err)
}

func TestRegistryMemoizesPureCalls(t *testing.T) {
	reg := New()
	calls := 0
	reg.Register("demo.count_calls", func(rng RNG, args []value.Value) (value.Value, error) {
		calls++
		return value.Int(int64(calls)), nil
	}, true)

	warnings := diagnostics.NewCollector()
	ev := eval.New(prng.NewSeeded(1), reg, warnings)
	scope := eval.NewScope(value.NewRecord(), nil)

	call := &ast.Call{Namespace: "demo", Name: "count_calls", Args: []ast.Expr{&ast.IntLiteral{Value: 1}}}
	first, err := ev.Eval(call, scope)
	require.NoError(t, err)
	second, err := ev.Eval(call, scope)
	require.NoError(t, err)
	assert.Equal(t, first.Int, second.Int)
	assert.Equal(t, 1, calls)
}

func TestRegistryDoesNotMemoizeImpureCalls(t *testing.T) {
	reg := New()
	calls := 0
	reg.Register("demo.next", func(rng RNG, args []value.Value) (value.Value, error) {
		calls++
		return value.Int(int64(calls)), nil
	}, false)

	warnings := diagnostics.NewCollector()
	ev := eval.New(prng.NewSeeded(1), reg, warnings)
	scope := eval.NewScope(value.NewRecord(), nil)

	call := &ast.Call{Namespace: "demo", Name: "next"}
	first, err := ev.Eval(call, scope)
	require.NoError(t, err)
	second, err := ev.Eval(call, scope)
	require.NoError(t, err)
	assert.NotEqual(t, first.Int, second.Int)
}

func TestMustValidNameRejectsEmpty(t *testing.T) {
	err := MustValidName("  ")
	require.Error(t, err)
}
