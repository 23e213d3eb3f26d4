package parser

import (
	"testing"

	"github.com/mcclowes/vague/internal/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLetAndSchema(t *testing.T) {
	src := `
let smallInt = int in 0..10

schema User {
	id: int,
	name: string,
	age: int in 18..65?,
	tier: 0.7:"standard" | 0.3:"premium"
}
`
	prog, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, prog.Items, 2)

	let, ok := prog.Items[0].(*ast.LetBinding)
	require.True(t, ok)
	assert.Equal(t, "smallInt", let.Name)

	schema, ok := prog.Items[1].(*ast.SchemaDefinition)
	require.True(t, ok)
	assert.Equal(t, "User", schema.Name)
	require.Len(t, schema.Fields, 4)
	assert.True(t, schema.Fields[2].Nullable)

	sup, ok := schema.Fields[3].Type.(*ast.Superposition)
	require.True(t, ok)
	require.Len(t, sup.Options, 2)
	require.NotNil(t, sup.Options[0].Weight)
	assert.InDelta(t, 0.7, *sup.Options[0].Weight, 1e-9)
}

func TestParseSchemaWithAssumeRefineThen(t *testing.T) {
	src := `
schema Order {
	id: unique int,
	total: decimal(2) in 0..1000,
	discounted: boolean,

	assume total > 0,
	assume if discounted { total < 1000 }
} refine {
	if discounted { total: decimal(2) in 0..500 }
} then {
	total += 1
}
`
	prog, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, prog.Items, 1)

	schema := prog.Items[0].(*ast.SchemaDefinition)
	require.Len(t, schema.Assumes, 2)
	assert.Nil(t, schema.Assumes[0].Guard)
	assert.NotNil(t, schema.Assumes[1].Guard)

	require.NotNil(t, schema.Refine)
	require.Len(t, schema.Refine.Clauses, 1)

	require.NotNil(t, schema.Then)
	require.Len(t, schema.Then.Assignments, 1)
	assert.Equal(t, "+=", schema.Then.Assignments[0].Op)
}

func TestParseDatasetWithCardinalityRangeAndValidate(t *testing.T) {
	src := `
schema Item { id: int }

dataset Shop {
	items: 5..10 of Item,
	validate { count(items) > 0 }
}
`
	prog, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, prog.Items, 2)

	ds := prog.Items[1].(*ast.DatasetDefinition)
	require.Len(t, ds.Collections, 1)
	coll := ds.Collections[0]
	assert.NotNil(t, coll.CardLo)
	assert.NotNil(t, coll.CardHi)
	assert.Nil(t, coll.Cardinality)
	require.Len(t, ds.Validate, 1)
}

func TestParseAnyOfWithWhere(t *testing.T) {
	src := `
schema Customer { id: int }
schema Order {
	customerId: any of customers where .id == 1
}
`
	prog, err := Parse(src)
	require.NoError(t, err)

	schema := prog.Items[1].(*ast.SchemaDefinition)
	exprType := schema.Fields[0].Type.(*ast.ExprType)
	anyOf := exprType.Expr.(*ast.AnyOf)
	assert.Equal(t, "customers", anyOf.Collection)
	require.NotNil(t, anyOf.Where)
}

func TestParseCardinalityOfWithOverrides(t *testing.T) {
	src := `
schema Item { id: int, tag: string }
schema Bundle {
	items: 3 of Item { tag: "bundled" }
}
`
	prog, err := Parse(src)
	require.NoError(t, err)

	schema := prog.Items[1].(*ast.SchemaDefinition)
	card := schema.Fields[0].Type.(*ast.CardinalityOf)
	assert.Equal(t, "Item", card.SchemaRef)
	require.Len(t, card.Overrides, 1)
	assert.Equal(t, "tag", card.Overrides[0].Name)
}

func TestParseGeneratorCallAndNamespacedCall(t *testing.T) {
	src := `
schema Person {
	email: faker.internet.email(),
	name: fullName()
}
`
	prog, err := Parse(src)
	require.NoError(t, err)

	schema := prog.Items[0].(*ast.SchemaDefinition)
	email := schema.Fields[0].Type.(*ast.ExprType).Expr.(*ast.Call)
	assert.Equal(t, "faker.internet", email.Namespace)
	assert.Equal(t, "email", email.Name)

	name := schema.Fields[1].Type.(*ast.ExprType).Expr.(*ast.Call)
	assert.Equal(t, "", name.Namespace)
	assert.Equal(t, "fullName", name.Name)
}

func TestParseOrderedSequence(t *testing.T) {
	src := `
schema Status {
	state: ["new", "active", "closed"]
}
`
	prog, err := Parse(src)
	require.NoError(t, err)

	schema := prog.Items[0].(*ast.SchemaDefinition)
	seq := schema.Fields[0].Type.(*ast.OrderedSequence)
	require.Len(t, seq.Values, 3)
}

func TestParseImport(t *testing.T) {
	src := `import base from "shared/base.vague"`
	prog, err := Parse(src)
	require.NoError(t, err)
	imp := prog.Items[0].(*ast.ImportDirective)
	assert.Equal(t, "base", imp.Name)
	assert.Equal(t, "shared/base.vague", imp.Path)
}

func TestParseSchemaFromBase(t *testing.T) {
	src := `
import shared from "shared.vague"

schema User from shared.BaseUser {
	id: int
}
`
	prog, err := Parse(src)
	require.NoError(t, err)
	schema := prog.Items[1].(*ast.SchemaDefinition)
	assert.Equal(t, "shared.BaseUser", schema.Base)
}

func TestParseTernaryAndLogical(t *testing.T) {
	src := `
schema Flag {
	active: boolean,
	label: active and not active ? "on" : "off"
}
`
	prog, err := Parse(src)
	require.NoError(t, err)
	schema := prog.Items[0].(*ast.SchemaDefinition)
	tern := schema.Fields[1].Type.(*ast.ExprType).Expr.(*ast.Ternary)
	_, ok := tern.Cond.(*ast.Binary)
	assert.True(t, ok)
}

func TestParseErrorRecoverySkipsToNextItem(t *testing.T) {
	src := `
schema Bad {
	id: +
}

schema Good {
	id: int
}
`
	prog, errs := ParseWithRecovery(src)
	require.NotEmpty(t, errs)
	require.Len(t, prog.Items, 1)
	schema := prog.Items[0].(*ast.SchemaDefinition)
	assert.Equal(t, "Good", schema.Name)
}

func TestParseFailFastReturnsFirstError(t *testing.T) {
	src := `schema Bad { id: }`
	_, err := Parse(src)
	require.Error(t, err)
}

func TestParseDatasetViolating(t *testing.T) {
	src := `
schema Item { id: int }
dataset BrokenShop violating {
	items: 3 of Item
}
`
	prog, err := Parse(src)
	require.NoError(t, err)
	ds := prog.Items[1].(*ast.DatasetDefinition)
	assert.True(t, ds.Violating)
}
