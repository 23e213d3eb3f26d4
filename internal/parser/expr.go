package parser

import (
	"strconv"
	"strings"

	"github.com/mcclowes/vague/internal/ast"
	"github.com/mcclowes/vague/internal/constants"
	"github.com/mcclowes/vague/internal/token"
)

// parseExpr is the entry point of the expression-precedence chain (spec.md
// section 4.4): ternary > or > and > not > equality > comparison > additive
// > multiplicative > unary > call/member access > primary.
func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseTernary()
}

func (p *Parser) parseTernary() (ast.Expr, error) {
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.at(token.Question) {
		return cond, nil
	}
	// A '?' followed by a field boundary is a nullable suffix, left for
	// parseField to consume, not the start of a ternary.
	if next := p.peekAt(1); next.Kind == token.Comma || next.Kind == token.RBrace || next.Kind == token.EOF || next.Is(constants.KeywordWhen) {
		return cond, nil
	}
	pos := p.advance().Pos
	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Colon); err != nil {
		return nil, err
	}
	els, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.Ternary{Cond: cond, Then: then, Else: els, Pos: pos}, nil
}

func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.atKeyword(constants.KeywordOr) {
		pos := p.advance().Pos
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Op: ast.OpOr, Left: left, Right: right, Pos: pos}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.atKeyword(constants.KeywordAnd) {
		pos := p.advance().Pos
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Op: ast.OpAnd, Left: left, Right: right, Pos: pos}
	}
	return left, nil
}

func (p *Parser) parseNot() (ast.Expr, error) {
	if p.atKeyword(constants.KeywordNot) {
		pos := p.advance().Pos
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: ast.OpNot, Operand: operand, Pos: pos}, nil
	}
	return p.parseEquality()
}

func (p *Parser) parseEquality() (ast.Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.at(token.Eq) || p.at(token.NotEq) {
		op := ast.OpEq
		if p.at(token.NotEq) {
			op = ast.OpNotEq
		}
		pos := p.advance().Pos
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Op: op, Left: left, Right: right, Pos: pos}
	}
	return left, nil
}

func (p *Parser) parseComparison() (ast.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.at(token.Lt) || p.at(token.LtEq) || p.at(token.Gt) || p.at(token.GtEq) {
		op := comparisonOpFromKind(p.peek().Kind)
		pos := p.advance().Pos
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Op: op, Left: left, Right: right, Pos: pos}
	}
	return left, nil
}

func comparisonOpFromKind(k token.Kind) ast.BinaryOp {
	switch k {
	case token.Lt:
		return ast.OpLt
	case token.LtEq:
		return ast.OpLtEq
	case token.Gt:
		return ast.OpGt
	case token.GtEq:
		return ast.OpGtEq
	case token.Eq:
		return ast.OpEq
	case token.NotEq:
		return ast.OpNotEq
	default:
		return ast.OpEq
	}
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		// The lexer folds a sign followed by a digit into the number ("a-1"
		// lexes as a, -1); after an operand that sign is the binary operator.
		if tok := p.peek(); tok.Kind == token.Number && strings.ContainsAny(tok.Literal[:1], "+-") {
			sign := token.Token{Kind: token.Minus, Literal: tok.Literal[:1], Pos: tok.Pos}
			if sign.Literal == "+" {
				sign.Kind = token.Plus
			}
			num := tok
			num.Literal, num.Pos.Column, num.Pos.Offset = tok.Literal[1:], tok.Pos.Column+1, tok.Pos.Offset+1
			p.tokens = append(p.tokens[:p.pos], append([]token.Token{sign, num}, p.tokens[p.pos+1:]...)...)
		}
		if !p.at(token.Plus) && !p.at(token.Minus) {
			break
		}
		op := ast.OpAdd
		if p.at(token.Minus) {
			op = ast.OpSub
		}
		pos := p.advance().Pos
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Op: op, Left: left, Right: right, Pos: pos}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.at(token.Star) || p.at(token.Slash) {
		op := ast.OpMul
		if p.at(token.Slash) {
			op = ast.OpDiv
		}
		pos := p.advance().Pos
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Op: op, Left: left, Right: right, Pos: pos}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.at(token.Minus) || p.at(token.Plus) {
		op := ast.OpPos
		if p.at(token.Minus) {
			op = ast.OpNeg
		}
		pos := p.advance().Pos
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: op, Operand: operand, Pos: pos}, nil
	}
	return p.parsePrimary()
}

// parsePrimary parses a literal, parenthesized group, parent access, any-of
// expression, or an identifier path that resolves to either a member-access
// chain or a (possibly namespaced) call, depending on whether it is
// eventually followed by '('.
func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.peek()
	switch tok.Kind {
	case token.Number:
		p.advance()
		return parseNumberLiteral(tok)
	case token.String:
		p.advance()
		return &ast.StringLiteral{Value: tok.Literal, Pos: tok.Pos}, nil
	case token.LParen:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return inner, nil
	case token.Caret:
		p.advance()
		fieldTok, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		return &ast.ParentAccess{Field: fieldTok.Literal, Pos: tok.Pos}, nil
	case token.Keyword:
		switch tok.Literal {
		case constants.KeywordTrue:
			p.advance()
			return &ast.BoolLiteral{Value: true, Pos: tok.Pos}, nil
		case constants.KeywordFalse:
			p.advance()
			return &ast.BoolLiteral{Value: false, Pos: tok.Pos}, nil
		case constants.KeywordNull:
			p.advance()
			return &ast.NullLiteral{Pos: tok.Pos}, nil
		case constants.KeywordAny:
			return p.parseAnyOf()
		default:
			return nil, p.errorf(tok.Pos, "unexpected keyword %q in expression", tok.Literal)
		}
	case token.Ident:
		p.advance()
		return p.parseIdentPath(tok)
	default:
		return nil, p.errorf(tok.Pos, "unexpected token %q in expression", tok.Literal)
	}
}

func parseNumberLiteral(tok token.Token) (ast.Expr, error) {
	if strings.ContainsAny(tok.Literal, ".eE") && !strings.HasPrefix(tok.Literal, "0x") {
		f, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			return nil, err
		}
		return &ast.DecimalLiteral{Value: f, Pos: tok.Pos}, nil
	}
	i, err := strconv.ParseInt(tok.Literal, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(tok.Literal, 64)
		if ferr != nil {
			return nil, err
		}
		return &ast.DecimalLiteral{Value: f, Pos: tok.Pos}, nil
	}
	return &ast.IntLiteral{Value: i, Pos: tok.Pos}, nil
}

// parseIdentPath consumes a dotted identifier chain starting from an
// already-advanced-past Ident token. If the chain is followed by '(', it is
// a call (namespaced by every segment but the last); otherwise it is a
// member-access chain (or a bare Ident if there is only one segment).
func (p *Parser) parseIdentPath(start token.Token) (ast.Expr, error) {
	segments := []string{start.Literal}
	for p.at(token.Dot) && p.peekAt(1).Kind == token.Ident {
		p.advance()
		idTok := p.advance()
		segments = append(segments, idTok.Literal)
	}
	if p.at(token.LParen) {
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		namespace := strings.Join(segments[:len(segments)-1], ".")
		name := segments[len(segments)-1]
		return &ast.Call{Namespace: namespace, Name: name, Args: args, Pos: start.Pos}, nil
	}
	var expr ast.Expr = &ast.Ident{Name: segments[0], Pos: start.Pos}
	for _, seg := range segments[1:] {
		expr = &ast.MemberAccess{Target: expr, Field: seg, Pos: start.Pos}
	}
	return expr, nil
}

// parseArgs parses a parenthesized, comma-separated argument list. Any
// argument that begins with '.' is parsed as a DotPredicate shorthand
// (`.field <op> expr`), used by the all/some/none/where helpers.
func (p *Parser) parseArgs() ([]ast.Expr, error) {
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	var args []ast.Expr
	for !p.at(token.RParen) {
		var (
			arg ast.Expr
			err error
		)
		if p.at(token.Dot) {
			arg, err = p.parseDotPredicate()
		} else {
			arg, err = p.parseExpr()
		}
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parseDotPredicate() (*ast.DotPredicate, error) {
	pos := p.advance().Pos // consume '.'
	fieldTok, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if !p.isComparisonOp() {
		tok := p.peek()
		return nil, p.errorf(tok.Pos, "expected comparison operator after .%s, got %q", fieldTok.Literal, tok.Literal)
	}
	op := comparisonOpFromKind(p.peek().Kind)
	p.advance()
	value, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return &ast.DotPredicate{Field: fieldTok.Literal, Op: op, Value: value, Pos: pos}, nil
}

func (p *Parser) isComparisonOp() bool {
	switch p.peek().Kind {
	case token.Eq, token.NotEq, token.Lt, token.LtEq, token.Gt, token.GtEq:
		return true
	default:
		return false
	}
}

// parseAnyOf parses `any of Collection` with an optional `where .field op
// expr` filter (spec.md section 3.1, GLOSSARY "any of").
func (p *Parser) parseAnyOf() (*ast.AnyOf, error) {
	kw, err := p.expectKeyword(constants.KeywordAny)
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword(constants.KeywordOf); err != nil {
		return nil, err
	}
	collTok, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	anyOf := &ast.AnyOf{Collection: collTok.Literal, Pos: kw.Pos}
	if p.atKeyword(constants.KeywordWhere) {
		p.advance()
		pred, err := p.parseDotPredicate()
		if err != nil {
			return nil, err
		}
		anyOf.Where = pred
	}
	return anyOf, nil
}
