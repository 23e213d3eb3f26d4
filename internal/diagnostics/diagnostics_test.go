package diagnostics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorRendersPositionAndCaret(t *testing.T) {
	src := "schema X {\n  id: int in 1..bad\n}"
	err := NewError(ParseError, Position{Line: 2, Column: 13}, "expected number, got identifier")
	err.Source = src

	rendered := err.Render()
	assert.Contains(t, rendered, "ParseError")
	assert.Contains(t, rendered, "line 2, column 13")
	assert.Contains(t, rendered, "id: int in 1..bad")
}

func TestWrapErrorUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := WrapError(RuntimeError, Position{Line: 1, Column: 1}, cause, "generator call failed")
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "boom")
}

func TestCollectorLifecycle(t *testing.T) {
	c := NewCollector()
	assert.False(t, c.HasAny())

	c.Add(Warning{Kind: UniqueValueExhaustion, Schema: "X", Field: "id"})
	c.Add(Warning{Kind: ConstraintRetryLimit, Schema: "X"})

	assert.True(t, c.HasAny())
	assert.Len(t, c.GetAll(), 2)
	assert.Len(t, c.GetByKind(UniqueValueExhaustion), 1)
	assert.Len(t, c.GetByKind(DerivedFieldFailure), 0)

	c.Clear()
	assert.False(t, c.HasAny())
	assert.Empty(t, c.GetAll())
}
