package dataset

import (
	"testing"

	"github.com/mcclowes/vague/internal/ast"
	"github.com/mcclowes/vague/internal/diagnostics"
	"github.com/mcclowes/vague/internal/eval"
	"github.com/mcclowes/vague/internal/generator"
	"github.com/mcclowes/vague/internal/prng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDriver(seed int64, schemas map[string]*ast.SchemaDefinition, retries Retries) *Driver {
	rng := prng.NewSeeded(seed)
	warnings := diagnostics.NewCollector()
	ev := eval.New(rng, nil, warnings)
	gen := generator.New(rng, ev, nil, warnings, 50)
	d := New(schemas, gen, ev, warnings, retries)
	gen.Resolver = d
	return d
}

func personSchema() *ast.SchemaDefinition {
	return &ast.SchemaDefinition{
		Name: "Person",
		Fields: []ast.Field{
			{Name: "age", Type: &ast.PrimitiveType{Kind: ast.PrimInt, HasRange: true, Lo: &ast.IntLiteral{Value: 18}, Hi: &ast.IntLiteral{Value: 65}}},
		},
	}
}

func TestGenerateCollectionProducesFixedCardinality(t *testing.T) {
	schemas := map[string]*ast.SchemaDefinition{"Person": personSchema()}
	d := newTestDriver(1, schemas, Retries{Constraint: 10, Validate: 5})

	coll := &ast.DatasetCollection{Name: "people", Cardinality: &ast.IntLiteral{Value: 3}, SchemaRef: "Person"}
	records, err := d.GenerateCollection(coll)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	got, ok := d.Collection("people")
	require.True(t, ok)
	assert.Len(t, got.Records(), 3)
}

func TestGenerateRecordStripsPrivateFields(t *testing.T) {
	schema := &ast.SchemaDefinition{
		Name: "Account",
		Fields: []ast.Field{
			{Name: "id", Type: &ast.PrimitiveType{Kind: ast.PrimInt}},
			{Name: "secret", Private: true, Type: &ast.PrimitiveType{Kind: ast.PrimInt}},
		},
	}
	schemas := map[string]*ast.SchemaDefinition{"Account": schema}
	d := newTestDriver(2, schemas, Retries{Constraint: 5, Validate: 5})

	rec, err := d.GenerateRecord("Account", nil, nil)
	require.NoError(t, err)
	_, hasSecret := rec.Get("secret")
	assert.False(t, hasSecret)
	_, hasID := rec.Get("id")
	assert.True(t, hasID)
}

func TestGenerateRecordAppliesOverrides(t *testing.T) {
	schema := &ast.SchemaDefinition{
		Name: "Widget",
		Fields: []ast.Field{
			{Name: "kind", Type: &ast.PrimitiveType{Kind: ast.PrimString}},
		},
	}
	schemas := map[string]*ast.SchemaDefinition{"Widget": schema}
	d := newTestDriver(3, schemas, Retries{Constraint: 5, Validate: 5})

	overrides := []ast.FieldOverride{
		{Name: "kind", Type: &ast.ExprType{Expr: &ast.StringLiteral{Value: "gadget"}}},
	}
	rec, err := d.GenerateRecord("Widget", nil, overrides)
	require.NoError(t, err)
	kind, ok := rec.Get("kind")
	require.True(t, ok)
	assert.Equal(t, "gadget", kind.Str)
}

func TestGenerateDatasetSatisfiesValidatePredicate(t *testing.T) {
	schemas := map[string]*ast.SchemaDefinition{"Person": personSchema()}
	d := newTestDriver(4, schemas, Retries{Constraint: 5, Validate: 10})

	def := &ast.DatasetDefinition{
		Name: "People",
		Collections: []ast.DatasetCollection{
			{Name: "people", Cardinality: &ast.IntLiteral{Value: 2}, SchemaRef: "Person"},
		},
		Validate: []ast.Expr{&ast.BoolLiteral{Value: true}},
	}
	out, err := d.GenerateDataset(def)
	require.NoError(t, err)
	assert.Len(t, out["people"], 2)
}

func TestGenerateRecordRetriesUntilAssumeHolds(t *testing.T) {
	schema := &ast.SchemaDefinition{
		Name: "Adult",
		Fields: []ast.Field{
			{Name: "age", Type: &ast.PrimitiveType{Kind: ast.PrimInt, HasRange: true, Lo: &ast.IntLiteral{Value: 0}, Hi: &ast.IntLiteral{Value: 100}}},
		},
		Assumes: []ast.AssumeItem{
			{Predicates: []ast.Expr{&ast.DotPredicate{Field: "age", Op: ast.OpGtEq, Value: &ast.IntLiteral{Value: 18}}}},
		},
	}
	schemas := map[string]*ast.SchemaDefinition{"Adult": schema}
	d := newTestDriver(5, schemas, Retries{Constraint: 200, Validate: 5})

	for i := 0; i < 20; i++ {
		rec, err := d.GenerateRecord("Adult", nil, nil)
		require.NoError(t, err)
		age, _ := rec.Get("age")
		assert.GreaterOrEqual(t, age.Int, int64(18))
	}
}

func TestGenerateDatasetViolatingInvertsPerRecordAssumePolarity(t *testing.T) {
	schema := &ast.SchemaDefinition{
		Name: "Adult",
		Fields: []ast.Field{
			{Name: "age", Type: &ast.PrimitiveType{Kind: ast.PrimInt, HasRange: true, Lo: &ast.IntLiteral{Value: 0}, Hi: &ast.IntLiteral{Value: 100}}},
		},
		Assumes: []ast.AssumeItem{
			{Predicates: []ast.Expr{&ast.DotPredicate{Field: "age", Op: ast.OpGtEq, Value: &ast.IntLiteral{Value: 18}}}},
		},
	}
	schemas := map[string]*ast.SchemaDefinition{"Adult": schema}
	d := newTestDriver(6, schemas, Retries{Constraint: 200, Validate: 5})

	def := &ast.DatasetDefinition{
		Name:      "Adults",
		Violating: true,
		Collections: []ast.DatasetCollection{
			{Name: "people", Cardinality: &ast.IntLiteral{Value: 10}, SchemaRef: "Adult"},
		},
	}
	out, err := d.GenerateDataset(def)
	require.NoError(t, err)
	for _, rec := range out["people"] {
		age, _ := rec.Get("age")
		assert.Less(t, age.Int, int64(18))
	}
}
