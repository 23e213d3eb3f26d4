package generator

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

type stubResolver struct {
	record *value.Record
}

func (s *stubResolver) GenerateRecord(schemaName string, parent *eval.Scope, overrides []ast.FieldOverride) (*value.Record, error) {
	return s.record, nil
}

func newTestGenerator(seed int64) *Generator {
	rng := prng.NewSeeded(seed)
	warnings := diagnostics.NewCollector()
	ev := eval.New(rng, nil, warnings)
	resolver := &stubResolver{record: value.NewRecord()}
	return New(rng, ev, resolver, warnings, 50)
}

func TestGenerateFieldRespectsWhenGuard(t *testing.T) {
	g := newTestGenerator(1)
	scope := eval.NewScope(value.NewRecord(), nil)
	field := &ast.Field{
		Name: "bonus",
		Type: &ast.PrimitiveType{Kind: ast.PrimInt},
		When: &ast.BoolLiteral{Value: false},
	}
	v, err := g.GenerateField("S", field, scope)
	require.NoError(t, err)
	assert.True(t, v.IsNull())
}

func TestGenerateFieldIntRangeStaysInBounds(t *testing.T) {
	g := newTestGenerator(7)
	scope := eval.NewScope(value.NewRecord(), nil)
	field := &ast.Field{
		Name: "age",
		Type: &ast.PrimitiveType{Kind: ast.PrimInt, HasRange: true, Lo: &ast.IntLiteral{Value: 18}, Hi: &ast.IntLiteral{Value: 65}},
	}
	for i := 0; i < 100; i++ {
		v, err := g.GenerateField("S", field, scope)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v.Int, int64(18))
		assert.LessOrEqual(t, v.Int, int64(65))
	}
}

func TestGenerateFieldUniqueAvoidsDuplicates(t *testing.T) {
	g := newTestGenerator(3)
	scope := eval.NewScope(value.NewRecord(), nil)
	field := &ast.Field{
		Name:   "id",
		Unique: true,
		Type:   &ast.PrimitiveType{Kind: ast.PrimInt, HasRange: true, Lo: &ast.IntLiteral{Value: 0}, Hi: &ast.IntLiteral{Value: 3}},
	}
	seen := map[int64]bool{}
	for i := 0; i < 4; i++ {
		v, err := g.GenerateField("S", field, scope)
		require.NoError(t, err)
		assert.False(t, seen[v.Int], "expected distinct values within the retry budget")
		seen[v.Int] = true
	}
}

func TestGenerateFieldSuperpositionRespectsWeights(t *testing.T) {
	g := newTestGenerator(11)
	scope := eval.NewScope(value.NewRecord(), nil)
	w := 1.0
	field := &ast.Field{
		Name: "tier",
		Type: &ast.Superposition{Options: []ast.WeightedOption{
			{Weight: &w, Type: &ast.ExprType{Expr: &ast.StringLiteral{Value: "only"}}},
		}},
	}
	v, err := g.GenerateField("S", field, scope)
	require.NoError(t, err)
	assert.Equal(t, "only", v.Str)
}

func TestGenerateOrderedSequenceCyclesValues(t *testing.T) {
	g := newTestGenerator(5)
	scope := eval.NewScope(value.NewRecord(), nil)
	field := &ast.Field{
		Name: "status",
		Type: &ast.OrderedSequence{Values: []ast.Expr{
			&ast.StringLiteral{Value: "a"},
			&ast.StringLiteral{Value: "b"},
		}},
	}
	first, err := g.GenerateField("S", field, scope)
	require.NoError(t, err)
	second, err := g.GenerateField("S", field, scope)
	require.NoError(t, err)
	third, err := g.GenerateField("S", field, scope)
	require.NoError(t, err)
	assert.Equal(t, "a", first.Str)
	assert.Equal(t, "b", second.Str)
	assert.Equal(t, "a", third.Str)
}

func TestGenerateDecimalRespectsPrecision(t *testing.T) {
	g := newTestGenerator(9)
	scope := eval.NewScope(value.NewRecord(), nil)
	field := &ast.Field{
		Name: "price",
		Type: &ast.PrimitiveType{Kind: ast.PrimDecimal, Precision: 2, HasRange: true, Lo: &ast.IntLiteral{Value: 0}, Hi: &ast.IntLiteral{Value: 100}},
	}
	v, err := g.GenerateField("S", field, scope)
	require.NoError(t, err)
	assert.Equal(t, 2, v.DecimalPrecision)
}

func TestGenerateCardinalityOfProducesList(t *testing.T) {
	g := newTestGenerator(13)
	scope := eval.NewScope(value.NewRecord(), nil)
	field := &ast.Field{
		Name: "items",
		Type: &ast.CardinalityOf{Count: &ast.IntLiteral{Value: 3}, SchemaRef: "Item"},
	}
	v, err := g.GenerateField("S", field, scope)
	require.NoError(t, err)
	require.Equal(t, value.KindList, v.Kind)
	assert.Len(t, v.List, 3)
}

func TestGenerateUnrangedDateIsStableAcrossGeneratorInstances(t *testing.T) {
	field := &ast.Field{
		Name: "signed_up",
		Type: &ast.PrimitiveType{Kind: ast.PrimDate},
	}

	g1 := newTestGenerator(21)
	v1, err := g1.GenerateField("S", field, eval.NewScope(value.NewRecord(), nil))
	require.NoError(t, err)

	g2 := newTestGenerator(21)
	v2, err := g2.GenerateField("S", field, eval.NewScope(value.NewRecord(), nil))
	require.NoError(t, err)

	require.Equal(t, value.KindDate, v1.Kind)
	assert.Equal(t, v1.Str, v2.Str)
}
