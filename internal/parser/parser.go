// Package parser implements the recursive-descent parser of spec.md
// section 4.4: tokens to AST, with statement-level error recovery. The
// teacher repo has no DSL parser of its own — its internal/parser instead
// loads and validates an already-parsed OpenAPI document — so this package
// is new, grounded on the teacher's general "load, validate, wrap errors
// with context" shape (internal/parser/parser.go's New/GetExampleResponse)
// rather than on a specific parsing routine.
package parser

import (
	"strconv"
	"strings"

	"github.com/mcclowes/vague/internal/ast"
	"github.com/mcclowes/vague/internal/constants"
	"github.com/mcclowes/vague/internal/diagnostics"
	"github.com/mcclowes/vague/internal/lexer"
	"github.com/mcclowes/vague/internal/token"
)

// Parser holds parsing state over one pre-lexed token stream.
type Parser struct {
	src    string
	tokens []token.Token
	pos    int
}

// New lexes src and returns a ready-to-use Parser. A lex error is always
// fatal (spec.md section 7), so it is returned directly rather than folded
// into recovery.
func New(src string) (*Parser, error) {
	toks, err := lexer.New(src).All()
	if err != nil {
		if lexErr, ok := err.(*diagnostics.Error); ok {
			lexErr.Source = src
			return nil, lexErr
		}
		return nil, err
	}
	return &Parser{src: src, tokens: toks}, nil
}

// Parse parses strictly, returning the first error encountered
// (spec.md section 4.4, entry point `parse()`).
func Parse(src string) (*ast.Program, error) {
	p, err := New(src)
	if err != nil {
		return nil, err
	}
	prog, errs := p.parseProgram(false)
	if len(errs) > 0 {
		return prog, errs[0]
	}
	return prog, nil
}

// ParseWithRecovery parses with statement-level error recovery
// (spec.md section 4.4, entry point `parse_with_recovery()`), returning a
// partial program plus every collected parse error.
func ParseWithRecovery(src string) (*ast.Program, []*diagnostics.Error) {
	p, err := New(src)
	if err != nil {
		if lexErr, ok := err.(*diagnostics.Error); ok {
			return &ast.Program{}, []*diagnostics.Error{lexErr}
		}
		return &ast.Program{}, []*diagnostics.Error{diagnostics.NewError(diagnostics.LexError, diagnostics.Position{Line: 1, Column: 1}, err.Error())}
	}
	return p.parseProgram(true)
}

func (p *Parser) parseProgram(recover bool) (*ast.Program, []*diagnostics.Error) {
	prog := &ast.Program{}
	var errs []*diagnostics.Error

	for !p.at(token.EOF) {
		item, err := p.parseItem()
		if err != nil {
			perr := asParseError(err)
			errs = append(errs, perr)
			if !recover {
				return prog, errs
			}
			p.skipToBoundary()
			continue
		}
		prog.Items = append(prog.Items, item)
	}
	return prog, errs
}

func asParseError(err error) *diagnostics.Error {
	if pe, ok := err.(*diagnostics.Error); ok {
		return pe
	}
	return diagnostics.NewError(diagnostics.ParseError, diagnostics.Position{}, err.Error())
}

// skipToBoundary advances past tokens until the start of the next top-level
// item (let/schema/dataset/import) or end of input (spec.md section 4.2).
func (p *Parser) skipToBoundary() {
	for !p.at(token.EOF) {
		if p.atKeyword(constants.KeywordLet) || p.atKeyword(constants.KeywordSchema) ||
			p.atKeyword(constants.KeywordDataset) || p.atKeyword(constants.KeywordImport) {
			return
		}
		p.advance()
	}
}

func (p *Parser) parseItem() (ast.Item, error) {
	switch {
	case p.atKeyword(constants.KeywordLet):
		return p.parseLet()
	case p.atKeyword(constants.KeywordImport):
		return p.parseImport()
	case p.atKeyword(constants.KeywordSchema):
		return p.parseSchema()
	case p.atKeyword(constants.KeywordDataset):
		return p.parseDataset()
	default:
		tok := p.peek()
		return nil, p.errorf(tok.Pos, "expected 'let', 'import', 'schema', or 'dataset', got %q", tok.Literal)
	}
}

// --- token stream helpers ---

func (p *Parser) peek() token.Token {
	return p.tokens[p.pos]
}

func (p *Parser) peekAt(n int) token.Token {
	i := p.pos + n
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[i]
}

func (p *Parser) at(k token.Kind) bool {
	return p.peek().Kind == k
}

func (p *Parser) atKeyword(kw string) bool {
	return p.peek().Is(kw)
}

func (p *Parser) advance() token.Token {
	tok := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(k token.Kind) (token.Token, error) {
	if !p.at(k) {
		tok := p.peek()
		return tok, p.errorf(tok.Pos, "expected %s, got %q", k, tok.Literal)
	}
	return p.advance(), nil
}

func (p *Parser) expectKeyword(kw string) (token.Token, error) {
	if !p.atKeyword(kw) {
		tok := p.peek()
		return tok, p.errorf(tok.Pos, "expected keyword %q, got %q", kw, tok.Literal)
	}
	return p.advance(), nil
}

func (p *Parser) errorf(pos diagnostics.Position, format string, args ...any) error {
	err := diagnostics.NewError(diagnostics.ParseError, pos, format, args...)
	err.Source = p.src
	return err
}

// parseDottedName reads Ident ("." Ident)* and joins the segments, used for
// `from <dotted_name>` in schema bases.
func (p *Parser) parseDottedName() (string, error) {
	first, err := p.expect(token.Ident)
	if err != nil {
		return "", err
	}
	segs := []string{first.Literal}
	for p.at(token.Dot) {
		p.advance()
		id, err := p.expect(token.Ident)
		if err != nil {
			return "", err
		}
		segs = append(segs, id.Literal)
	}
	return strings.Join(segs, "."), nil
}

// --- top-level items ---

func (p *Parser) parseLet() (*ast.LetBinding, error) {
	kw := p.advance()
	nameTok, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Assign); err != nil {
		return nil, err
	}
	typeExpr, err := p.parseTypeExpr()
	if err != nil {
		return nil, err
	}
	return &ast.LetBinding{Name: nameTok.Literal, Value: typeExpr, Pos: kw.Pos}, nil
}

func (p *Parser) parseImport() (*ast.ImportDirective, error) {
	kw := p.advance()
	nameTok, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword(constants.KeywordFrom); err != nil {
		return nil, err
	}
	pathTok, err := p.expect(token.String)
	if err != nil {
		return nil, err
	}
	return &ast.ImportDirective{Name: nameTok.Literal, Path: pathTok.Literal, Pos: kw.Pos}, nil
}

func (p *Parser) parseSchema() (*ast.SchemaDefinition, error) {
	kw := p.advance()
	nameTok, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}

	def := &ast.SchemaDefinition{Name: nameTok.Literal, Pos: kw.Pos}

	if p.atKeyword(constants.KeywordFrom) {
		p.advance()
		base, err := p.parseDottedName()
		if err != nil {
			return nil, err
		}
		def.Base = base
	}

	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	for !p.at(token.RBrace) {
		if p.atKeyword(constants.KeywordAssume) {
			item, err := p.parseAssumeItem()
			if err != nil {
				return nil, err
			}
			def.Assumes = append(def.Assumes, *item)
		} else {
			field, err := p.parseField()
			if err != nil {
				return nil, err
			}
			def.Fields = append(def.Fields, *field)
		}
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}

	if p.atKeyword(constants.KeywordRefine) {
		refine, err := p.parseRefineBlock()
		if err != nil {
			return nil, err
		}
		def.Refine = refine
	}
	if p.atKeyword(constants.KeywordThen) {
		then, err := p.parseThenBlock()
		if err != nil {
			return nil, err
		}
		def.Then = then
	}

	return def, nil
}

func (p *Parser) parseField() (*ast.Field, error) {
	pos := p.peek().Pos
	nameTok, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Colon); err != nil {
		return nil, err
	}

	field := &ast.Field{Name: nameTok.Literal, Pos: pos}
	for {
		switch {
		case p.atKeyword(constants.KeywordUnique):
			p.advance()
			field.Unique = true
		case p.atKeyword(constants.KeywordPrivate):
			p.advance()
			field.Private = true
		default:
			goto modifiersDone
		}
	}
modifiersDone:

	typeExpr, err := p.parseTypeExpr()
	if err != nil {
		return nil, err
	}
	field.Type = typeExpr

	if p.at(token.Question) {
		p.advance()
		field.Nullable = true
	}
	if p.atKeyword(constants.KeywordWhen) {
		p.advance()
		when, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		field.When = when
	}
	return field, nil
}

func (p *Parser) parseAssumeItem() (*ast.AssumeItem, error) {
	kw, err := p.expectKeyword(constants.KeywordAssume)
	if err != nil {
		return nil, err
	}
	item := &ast.AssumeItem{Pos: kw.Pos}
	if p.atKeyword(constants.KeywordIf) {
		p.advance()
		guard, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		item.Guard = guard
		if _, err := p.expect(token.LBrace); err != nil {
			return nil, err
		}
		preds, err := p.parseExprList(token.RBrace)
		if err != nil {
			return nil, err
		}
		item.Predicates = preds
		if _, err := p.expect(token.RBrace); err != nil {
			return nil, err
		}
		return item, nil
	}
	pred, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	item.Predicates = []ast.Expr{pred}
	return item, nil
}

func (p *Parser) parseExprList(end token.Kind) ([]ast.Expr, error) {
	var out []ast.Expr
	for !p.at(end) {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	return out, nil
}

func (p *Parser) parseFieldOverrideList(end token.Kind) ([]ast.FieldOverride, error) {
	var out []ast.FieldOverride
	for !p.at(end) {
		nameTok, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Colon); err != nil {
			return nil, err
		}
		t, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		out = append(out, ast.FieldOverride{Name: nameTok.Literal, Type: t})
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	return out, nil
}

func (p *Parser) parseRefineBlock() (*ast.RefineBlock, error) {
	if _, err := p.expectKeyword(constants.KeywordRefine); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	block := &ast.RefineBlock{}
	for p.atKeyword(constants.KeywordIf) {
		p.advance()
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.LBrace); err != nil {
			return nil, err
		}
		overrides, err := p.parseFieldOverrideList(token.RBrace)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RBrace); err != nil {
			return nil, err
		}
		block.Clauses = append(block.Clauses, ast.RefineClause{Cond: cond, Overrides: overrides})
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}
	return block, nil
}

func (p *Parser) parseThenBlock() (*ast.ThenBlock, error) {
	if _, err := p.expectKeyword(constants.KeywordThen); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	block := &ast.ThenBlock{}
	for !p.at(token.RBrace) {
		targetTok, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		var op string
		switch {
		case p.at(token.Assign):
			p.advance()
			op = "="
		case p.at(token.PlusAssign):
			p.advance()
			op = "+="
		default:
			tok := p.peek()
			return nil, p.errorf(tok.Pos, "expected '=' or '+=', got %q", tok.Literal)
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		block.Assignments = append(block.Assignments, ast.Assign{Target: targetTok.Literal, Op: op, Value: value})
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}
	return block, nil
}

func (p *Parser) parseDataset() (*ast.DatasetDefinition, error) {
	kw := p.advance()
	nameTok, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	def := &ast.DatasetDefinition{Name: nameTok.Literal, Pos: kw.Pos}
	if p.atKeyword(constants.KeywordViolating) {
		p.advance()
		def.Violating = true
	}
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	for !p.at(token.RBrace) {
		if p.atKeyword(constants.KeywordValidate) {
			p.advance()
			if _, err := p.expect(token.LBrace); err != nil {
				return nil, err
			}
			preds, err := p.parseExprList(token.RBrace)
			if err != nil {
				return nil, err
			}
			def.Validate = preds
			if _, err := p.expect(token.RBrace); err != nil {
				return nil, err
			}
		} else {
			coll, err := p.parseDatasetCollection()
			if err != nil {
				return nil, err
			}
			def.Collections = append(def.Collections, *coll)
		}
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}
	return def, nil
}

func (p *Parser) parseDatasetCollection() (*ast.DatasetCollection, error) {
	pos := p.peek().Pos
	nameTok, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Colon); err != nil {
		return nil, err
	}
	coll := &ast.DatasetCollection{Name: nameTok.Literal, Pos: pos}

	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.at(token.DotDot) {
		p.advance()
		hi, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		coll.CardLo, coll.CardHi = first, hi
	} else {
		coll.Cardinality = first
	}
	if _, err := p.expectKeyword(constants.KeywordOf); err != nil {
		return nil, err
	}
	schemaTok, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	coll.SchemaRef = schemaTok.Literal

	if p.at(token.LBrace) {
		p.advance()
		overrides, err := p.parseFieldOverrideList(token.RBrace)
		if err != nil {
			return nil, err
		}
		coll.Overrides = overrides
		if _, err := p.expect(token.RBrace); err != nil {
			return nil, err
		}
	}
	return coll, nil
}

// --- type expressions ---

func (p *Parser) parseTypeExpr() (ast.TypeExpr, error) {
	first, err := p.parseWeightedOrTerm()
	if err != nil {
		return nil, err
	}
	if !p.at(token.Pipe) {
		if first.Weight != nil {
			tok := p.peek()
			return nil, p.errorf(tok.Pos, "weighted option %v requires a superposition", *first.Weight)
		}
		return first.Type, nil
	}
	sup := &ast.Superposition{Options: []ast.WeightedOption{first}}
	for p.at(token.Pipe) {
		p.advance()
		opt, err := p.parseWeightedOrTerm()
		if err != nil {
			return nil, err
		}
		sup.Options = append(sup.Options, opt)
	}
	return sup, nil
}

func (p *Parser) parseWeightedOrTerm() (ast.WeightedOption, error) {
	if p.at(token.Number) && p.peekAt(1).Kind == token.Colon {
		numTok := p.advance()
		p.advance() // colon
		weight, err := strconv.ParseFloat(numTok.Literal, 64)
		if err != nil {
			return ast.WeightedOption{}, p.errorf(numTok.Pos, "invalid weight %q", numTok.Literal)
		}
		t, err := p.parseTypeTerm()
		if err != nil {
			return ast.WeightedOption{}, err
		}
		return ast.WeightedOption{Weight: &weight, Type: t}, nil
	}
	t, err := p.parseTypeTerm()
	if err != nil {
		return ast.WeightedOption{}, err
	}
	return ast.WeightedOption{Type: t}, nil
}

func isPrimitiveKeyword(lit string) bool {
	switch lit {
	case constants.TypeInt, constants.TypeDecimal, constants.TypeString, constants.TypeBoolean, constants.TypeDate:
		return true
	default:
		return false
	}
}

func (p *Parser) parseTypeTerm() (ast.TypeExpr, error) {
	tok := p.peek()
	switch {
	case tok.Kind == token.Keyword && isPrimitiveKeyword(tok.Literal):
		return p.parsePrimitiveType()
	case tok.Kind == token.LBracket:
		return p.parseOrderedSequence()
	default:
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.at(token.DotDot) {
			p.advance()
			hi, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectKeyword(constants.KeywordOf); err != nil {
				return nil, err
			}
			return p.finishCardinalityOf(nil, expr, hi, tok.Pos)
		}
		if p.atKeyword(constants.KeywordOf) {
			p.advance()
			return p.finishCardinalityOf(expr, nil, nil, tok.Pos)
		}
		if ident, ok := expr.(*ast.Ident); ok {
			return &ast.RefType{SchemaName: ident.Name, Pos: ident.Pos}, nil
		}
		return &ast.ExprType{Expr: expr}, nil
	}
}

func (p *Parser) finishCardinalityOf(count, lo, hi ast.Expr, pos diagnostics.Position) (ast.TypeExpr, error) {
	schemaTok, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	card := &ast.CardinalityOf{Count: count, CountLo: lo, CountHi: hi, SchemaRef: schemaTok.Literal, Pos: pos}
	if p.at(token.LBrace) {
		p.advance()
		overrides, err := p.parseFieldOverrideList(token.RBrace)
		if err != nil {
			return nil, err
		}
		card.Overrides = overrides
		if _, err := p.expect(token.RBrace); err != nil {
			return nil, err
		}
	}
	return card, nil
}

func primitiveKindFromLiteral(lit string) ast.PrimitiveKind {
	switch lit {
	case constants.TypeInt:
		return ast.PrimInt
	case constants.TypeDecimal:
		return ast.PrimDecimal
	case constants.TypeString:
		return ast.PrimString
	case constants.TypeBoolean:
		return ast.PrimBoolean
	case constants.TypeDate:
		return ast.PrimDate
	default:
		return ast.PrimString
	}
}

func (p *Parser) parsePrimitiveType() (*ast.PrimitiveType, error) {
	tok := p.advance()
	pt := &ast.PrimitiveType{Kind: primitiveKindFromLiteral(tok.Literal)}
	if tok.Literal == constants.TypeDecimal && p.at(token.LParen) {
		p.advance()
		numTok, err := p.expect(token.Number)
		if err != nil {
			return nil, err
		}
		precision, err := strconv.Atoi(numTok.Literal)
		if err != nil {
			return nil, p.errorf(numTok.Pos, "invalid decimal precision %q", numTok.Literal)
		}
		pt.Precision = precision
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
	}
	if p.atKeyword(constants.KeywordIn) {
		p.advance()
		lo, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.DotDot); err != nil {
			return nil, err
		}
		hi, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		pt.HasRange = true
		pt.Lo, pt.Hi = lo, hi
	}
	return pt, nil
}

func (p *Parser) parseOrderedSequence() (*ast.OrderedSequence, error) {
	open := p.advance() // [
	values, err := p.parseExprList(token.RBracket)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RBracket); err != nil {
		return nil, err
	}
	return &ast.OrderedSequence{Values: values, Pos: open.Pos}, nil
}
