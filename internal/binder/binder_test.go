package binder

import (
	"testing"

	"github.com/mcclowes/vague/internal/ast"
	"github.com/mcclowes/vague/internal/diagnostics"
	"github.com/mcclowes/vague/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	SetParser(func(src string) (*ast.Program, error) {
		return parser.Parse(src)
	})
}

func bindSrc(t *testing.T, src string) *Bound {
	t.Helper()
	prog, err := parser.Parse(src)
	require.NoError(t, err)
	b := New(nil, diagnostics.NewCollector())
	bound, err := b.Bind(prog)
	require.NoError(t, err)
	return bound
}

func TestBindSubstitutesLetIntoFieldType(t *testing.T) {
	bound := bindSrc(t, `
let smallInt = int in 0..10

schema Item {
	qty: smallInt
}
`)
	schema := bound.Schemas["Item"]
	pt, ok := schema.Fields[0].Type.(*ast.PrimitiveType)
	require.True(t, ok)
	assert.Equal(t, ast.PrimInt, pt.Kind)
	assert.True(t, pt.HasRange)
}

func TestBindRejectsUnknownSchemaReference(t *testing.T) {
	prog, err := parser.Parse(`
schema Order {
	customer: Customer
}
`)
	require.NoError(t, err)
	b := New(nil, diagnostics.NewCollector())
	_, err = b.Bind(prog)
	require.Error(t, err)
}

func TestBindMergesBaseSchemaFields(t *testing.T) {
	bound := bindSrc(t, `
schema Base {
	id: int,
	name: string
}

schema Derived from Base {
	name: string,
	extra: boolean
}
`)
	derived := bound.Schemas["Derived"]
	require.Len(t, derived.Fields, 3)
	assert.Equal(t, "id", derived.Fields[0].Name)
	assert.Equal(t, "name", derived.Fields[1].Name)
	assert.Equal(t, "extra", derived.Fields[2].Name)
}

func TestBindAcceptsValidateOverDeclaredCollection(t *testing.T) {
	prog, err := parser.Parse(`
schema Item { id: int }
dataset Shop {
	items: 3 of Item,
	validate { count(items) > 0 }
}
`)
	require.NoError(t, err)
	b := New(nil, diagnostics.NewCollector())
	_, err = b.Bind(prog)
	require.NoError(t, err)
}
