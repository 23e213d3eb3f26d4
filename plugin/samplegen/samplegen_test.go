package samplegen

import (
	"testing"

	"github.com/mcclowes/vague/internal/ast"
	"github.com/mcclowes/vague/internal/diagnostics"
	"github.com/mcclowes/vague/internal/eval"
	"github.com/mcclowes/vague/internal/plugin"
	"github.com/mcclowes/vague/internal/prng"
	"github.com/mcclowes/vague/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEvaluator(reg *plugin.Registry) *eval.Evaluator {
	return eval.New(prng.NewSeeded(1), reg, diagnostics.NewCollector())
}

func TestRegisterWiresFakerFunctions(t *testing.T) {
	reg := plugin.New()
	Register(reg)

	for _, name := range []string{"faker.name", "faker.email", "faker.phone", "faker.word"} {
		assert.Contains(t, reg.Names(), name)
	}
}

func TestFakerNameReturnsNonEmptyString(t *testing.T) {
	reg := plugin.New()
	Register(reg)
	ev := newTestEvaluator(reg)
	scope := eval.NewScope(value.NewRecord(), nil)

	call := &ast.Call{Namespace: "faker", Name: "name"}
	got, err := ev.Eval(call, scope)
	require.NoError(t, err)
	assert.Equal(t, value.KindString, got.Kind)
	assert.NotEmpty(t, got.Str)
}

func TestRegexSampleMatchesPattern(t *testing.T) {
	reg := plugin.New()
	Register(reg)
	ev := newTestEvaluator(reg)
	scope := eval.NewScope(value.NewRecord(), nil)

	call := &ast.Call{Namespace: "regex", Name: "sample", Args: []ast.Expr{&ast.StringLiteral{Value: "[a-z]{5}"}}}
	got, err := ev.Eval(call, scope)
	require.NoError(t, err)
	assert.Len(t, got.Str, 5)
}

func TestRegexSampleRejectsNonStringPattern(t *testing.T) {
	reg := plugin.New()
	Register(reg)
	ev := newTestEvaluator(reg)
	scope := eval.NewScope(value.NewRecord(), nil)

	call := &ast.Call{Namespace: "regex", Name: "sample", Args: []ast.Expr{&ast.IntLiteral{Value: 5}}}
	_, err := ev.Eval(call, scope)
	assert.Error(t, err)
}
