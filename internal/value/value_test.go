package value

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordOrderPreserved(t *testing.T) {
	r := NewRecord()
	r.Set("b", Int(2))
	r.Set("a", Int(1))
	r.Set("c", Int(3))

	assert.Equal(t, []string{"b", "a", "c"}, r.Names())
}

func TestRecordDeleteStripsPrivate(t *testing.T) {
	r := NewRecord()
	r.Set("age", Int(30))
	r.Set("bracket", Str("adult"))
	r.Delete("age")

	assert.Equal(t, []string{"bracket"}, r.Names())
	_, ok := r.Get("age")
	assert.False(t, ok)
}

func TestEqualCrossTagNumeric(t *testing.T) {
	assert.True(t, Int(5).Equal(Decimal(5.0)))
	assert.False(t, Int(5).Equal(Str("5")))
}

func TestCompareDatesLexicographic(t *testing.T) {
	a := Date("2024-01-01")
	b := Date("2024-06-15")
	cmp, ok := a.Compare(b)
	require.True(t, ok)
	assert.Equal(t, -1, cmp)
}

func TestCompareIncompatibleTags(t *testing.T) {
	_, ok := Str("x").Compare(Int(1))
	assert.False(t, ok)
}

func TestRawRecordMarshalsInDeclarationOrder(t *testing.T) {
	r := NewRecord()
	r.Set("z", Int(1))
	r.Set("a", Str("hi"))
	rr := NewRawRecord(r)

	b, err := json.Marshal(rr)
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":"hi"}`, string(b))
}

func TestUniqueKeyDistinguishesTypes(t *testing.T) {
	assert.NotEqual(t, Int(1).UniqueKey(), Str("1").UniqueKey())
}
