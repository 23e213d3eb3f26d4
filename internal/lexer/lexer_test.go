package lexer

import (
	"testing"

	"github.com/mcclowes/vague/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenize(t *testing.T, src string) []token.Token {
	t.Helper()
	toks, err := New(src).All()
	require.NoError(t, err)
	return toks
}

func TestLexerKeywordsAndIdents(t *testing.T) {
	toks := tokenize(t, "schema Person { id: int }")
	kinds := make([]token.Kind, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.Kind
	}
	assert.Equal(t, []token.Kind{
		token.Keyword, token.Ident, token.LBrace,
		token.Ident, token.Colon, token.Keyword,
		token.RBrace, token.EOF,
	}, kinds)
}

func TestLexerRangeOperator(t *testing.T) {
	toks := tokenize(t, "1..3")
	require.Len(t, toks, 4)
	assert.Equal(t, token.Number, toks[0].Kind)
	assert.Equal(t, "1", toks[0].Literal)
	assert.Equal(t, token.DotDot, toks[1].Kind)
	assert.Equal(t, token.Number, toks[2].Kind)
	assert.Equal(t, "3", toks[2].Literal)
}

func TestLexerStringEscapes(t *testing.T) {
	toks := tokenize(t, `"hi\n\"there\""`)
	require.Len(t, toks, 2)
	assert.Equal(t, token.String, toks[0].Kind)
	assert.Equal(t, "hi\n\"there\"", toks[0].Literal)
}

func TestLexerOperators(t *testing.T) {
	toks := tokenize(t, "== != <= >= < > += .")
	kinds := make([]token.Kind, 0, len(toks)-1)
	for _, tok := range toks[:len(toks)-1] {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []token.Kind{
		token.Eq, token.NotEq, token.LtEq, token.GtEq,
		token.Lt, token.Gt, token.PlusAssign, token.Dot,
	}, kinds)
}

func TestLexerLineComments(t *testing.T) {
	toks := tokenize(t, "a // comment here\nb")
	require.Len(t, toks, 3)
	assert.Equal(t, "a", toks[0].Literal)
	assert.Equal(t, "b", toks[1].Literal)
}

func TestLexerTracksLineAndColumn(t *testing.T) {
	toks := tokenize(t, "a\nb")
	require.Len(t, toks, 3)
	assert.Equal(t, 1, toks[0].Pos.Line)
	assert.Equal(t, 2, toks[1].Pos.Line)
	assert.Equal(t, 1, toks[1].Pos.Column)
}

func TestLexerUnterminatedString(t *testing.T) {
	_, err := New(`"unterminated`).All()
	require.Error(t, err)
}

func TestLexerDecimalNumber(t *testing.T) {
	toks := tokenize(t, "3.14")
	require.Len(t, toks, 2)
	assert.Equal(t, "3.14", toks[0].Literal)
}

func TestLexerEmptyInput(t *testing.T) {
	toks := tokenize(t, "")
	require.Len(t, toks, 1)
	assert.Equal(t, token.EOF, toks[0].Kind)
}
