package compiler

import (
	"fmt"
	"strings"
)

// Parser consumes the flat token slice produced by the Lexer and builds an AST.
//
// Grammar:
//
//	program     = statement*
//	statement   = assignment | conditional
//	assignment  = IDENTIFIER "=" expression
//	conditional = "if" expression "then" statement ("else" statement)?
//	expression  = equality
//	equality    = term (("==" | "!=" | "<" | ">" | "<=" | ">=") term)*
//	term        = factor (("+" | "-") factor)*
//	factor      = primary (("*" | "/") primary)*
//	primary     = NUMBER | IDENTIFIER | "$$" expression "$$" | conditional
//
// Statements have no terminator; the grammar alone decides where one ends.
type Parser struct {
	tokens      []Token
	pos         int
	depth       int // currently open "$$" groups
	sourceLines []string
}

func NewParser(tokens []Token, rawSource string) *Parser {
	return &Parser{tokens: tokens, sourceLines: strings.Split(rawSource, "\n")}
}

// fail builds a ParseError for the current token. At end of input Found is nil.
func (p *Parser) fail(expected ...string) error {
	perr := &ParseError{Expected: expected, Depth: p.depth}
	if p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		perr.Found = &tok
		lineIdx := tok.Line - 1 // Lines are 1-based
		if lineIdx >= 0 && lineIdx < len(p.sourceLines) {
			perr.Snippet = strings.TrimSpace(p.sourceLines[lineIdx])
		}
	}
	return perr
}

// peek returns the current token without consuming it.
func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos]
}

// advance consumes and returns the current token.
func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// atEnd reports whether every token has been consumed.
func (p *Parser) atEnd() bool {
	return p.pos >= len(p.tokens)
}

// expect consumes the current token if it matches tt, otherwise returns an error.
func (p *Parser) expect(tt TokenType) (Token, error) {
	if p.peek().Type != tt {
		return Token{}, p.fail(tt.String())
	}
	return p.advance(), nil
}

// expectLexeme consumes the current token if it has type tt and text lexeme.
func (p *Parser) expectLexeme(tt TokenType, lexeme string) (Token, error) {
	if !p.peek().Is(tt, lexeme) {
		return Token{}, p.fail(fmt.Sprintf("%s %q", tt, lexeme))
	}
	return p.advance(), nil
}

// matchOperator consumes and returns an operator from ops, if present.
func (p *Parser) matchOperator(ops ...string) (string, bool) {
	tok := p.peek()
	if tok.Type != OPERATOR {
		return "", false
	}
	for _, op := range ops {
		if tok.Lexeme == op {
			p.advance()
			return op, true
		}
	}
	return "", false
}

// parseExpression is the entry point for expression parsing.
func (p *Parser) parseExpression() (Expr, error) {
	return p.parseEquality()
}

// parseEquality handles == != < > <= >= (one shared precedence tier).
func (p *Parser) parseEquality() (Expr, error) {
	expr, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.matchOperator("==", "!=", "<", ">", "<=", ">=")
		if !ok {
			return expr, nil
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		expr = &BinaryOp{Op: op, Left: expr, Right: right}
	}
}

// parseTerm handles + and -
func (p *Parser) parseTerm() (Expr, error) {
	expr, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.matchOperator("+", "-")
		if !ok {
			return expr, nil
		}
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		expr = &BinaryOp{Op: op, Left: expr, Right: right}
	}
}

// parseFactor handles * and /
func (p *Parser) parseFactor() (Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.matchOperator("*", "/")
		if !ok {
			return expr, nil
		}
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		expr = &BinaryOp{Op: op, Left: expr, Right: right}
	}
}

// parsePrimary handles literals, variable reads, groups and conditionals.
// A delimiter seen here always opens a group.
func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.peek()
	switch {
	case tok.Type == NUMBER:
		p.advance()
		return &NumberLiteral{Value: tok.Value}, nil

	case tok.Type == IDENTIFIER:
		p.advance()
		return &VarRef{Name: tok.Lexeme}, nil

	case tok.Type == LDELIM || tok.Type == RDELIM:
		p.advance()
		p.depth++
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.closeGroup(); err != nil {
			return nil, err
		}
		return inner, nil

	case tok.Is(KEYWORD, "if"):
		p.advance()
		return p.parseIf()
	}
	return nil, p.fail(NUMBER.String(), IDENTIFIER.String(), LDELIM.String(), fmt.Sprintf("%s %q", KEYWORD, "if"))
}

// closeGroup consumes the delimiter that ends the innermost open group. Both
// delimiter kinds are accepted because "$$" is lexically ambiguous.
func (p *Parser) closeGroup() error {
	if tt := p.peek().Type; tt != LDELIM && tt != RDELIM {
		return p.fail(RDELIM.String())
	}
	p.advance()
	p.depth--
	return nil
}

// parseIf parses cond "then" statement [ "else" statement ].
// The leading "if" token has already been consumed.
func (p *Parser) parseIf() (*Conditional, error) {
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectLexeme(KEYWORD, "then"); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}

	var elseBody Stmt
	if p.peek().Is(KEYWORD, "else") {
		p.advance()
		elseBody, err = p.parseStatement()
		if err != nil {
			return nil, err
		}
	}

	return &Conditional{Condition: cond, Body: body, ElseBody: elseBody}, nil
}

// parseAssignment parses "=" expression after the target name.
func (p *Parser) parseAssignment(name string) (Stmt, error) {
	if _, err := p.expectLexeme(OPERATOR, "="); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &Assignment{Name: name, Value: value}, nil
}

// parseStatement dispatches to the correct sub-parser based on the leading token.
func (p *Parser) parseStatement() (Stmt, error) {
	tok := p.peek()
	switch {
	case tok.Type == IDENTIFIER:
		p.advance()
		return p.parseAssignment(tok.Lexeme)

	case tok.Is(KEYWORD, "if"):
		p.advance()
		return p.parseIf()
	}
	return nil, p.fail(IDENTIFIER.String(), fmt.Sprintf("%s %q", KEYWORD, "if"))
}

// Parse parses statements until the token stream is exhausted. It stops at
// the first malformed construct and returns a *ParseError.
func Parse(tokens []Token, rawSource string) ([]Stmt, error) {
	p := NewParser(tokens, rawSource)
	var stmts []Stmt
	for !p.atEnd() {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	return stmts, nil
}
