package compiler

import (
	"unicode"
)

// Lexer holds all mutable state for a single scanning pass over src.
type Lexer struct {
	src  []rune
	pos  int // index of the next rune to consume
	line int // current 1-based source line
	col  int // current 1-based column
}

func newLexer(src string) *Lexer {
	return &Lexer{src: []rune(src), pos: 0, line: 1, col: 1}
}

// peek returns the rune at the current position without advancing.
func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

// peek2 returns the rune one position ahead of the current position.
func (l *Lexer) peek2() rune {
	if l.pos+1 >= len(l.src) {
		return 0
	}
	return l.src[l.pos+1]
}

// advance consumes one rune and returns it.
func (l *Lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

// Only space, tab and newline separate tokens; a carriage return is an
// unexpected character.
func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentStart(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
}

func isIdentPart(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.src) && isSpace(l.peek()) {
		l.advance()
	}
}

func (l *Lexer) errorAt(r rune, line, col, offset int, reason string) *LexError {
	return &LexError{Char: r, Line: line, Column: col, Offset: offset, Reason: reason}
}

// scanIdent collects an identifier and reclassifies if/then/else as keywords.
// The first character (letter or '_') must still be at l.peek().
func (l *Lexer) scanIdent() Token {
	line, col := l.line, l.col
	start := l.pos
	for l.pos < len(l.src) && isIdentPart(l.peek()) {
		l.advance()
	}
	lexeme := string(l.src[start:l.pos])
	tt := IDENTIFIER
	if keywords[lexeme] {
		tt = KEYWORD
	}
	return Token{Type: tt, Lexeme: lexeme, Line: line, Column: col}
}

// scanNumber collects digits with an optional fractional part. A '.' is only
// consumed when a digit follows it, so "1." leaves the '.' for the caller.
func (l *Lexer) scanNumber() (Token, error) {
	line, col := l.line, l.col
	start := l.pos
	for l.pos < len(l.src) && isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && isDigit(l.peek2()) {
		l.advance() // .
		for l.pos < len(l.src) && isDigit(l.peek()) {
			l.advance()
		}
	}
	lexeme := string(l.src[start:l.pos])
	val, err := ParseNumber(lexeme)
	if err != nil {
		return Token{}, l.errorAt(l.src[start], line, col, start, "number literal "+lexeme+" out of range")
	}
	return Token{Type: NUMBER, Lexeme: lexeme, Value: val, Line: line, Column: col}, nil
}

// nextToken skips whitespace and returns the next Token, or EOF.
func (l *Lexer) nextToken() (Token, error) {
	l.skipWhitespace()
	if l.pos >= len(l.src) {
		return Token{Type: EOF, Line: l.line, Column: l.col}, nil
	}

	ch := l.peek()
	line, col, offset := l.line, l.col, l.pos

	if isDigit(ch) {
		return l.scanNumber()
	}
	if isIdentStart(ch) {
		return l.scanIdent(), nil
	}

	op := func(lexeme string) (Token, error) {
		return Token{Type: OPERATOR, Lexeme: lexeme, Line: line, Column: col}, nil
	}

	l.advance() // consume the character before the switch
	switch ch {
	case '$':
		if l.peek() == '$' {
			l.advance()
			return Token{Type: LDELIM, Lexeme: Delimiter, Line: line, Column: col}, nil
		}
	case '=':
		if l.peek() == '=' { // lookahead: distinguish = vs ==
			l.advance()
			return op("==")
		}
		return op("=")
	case '!':
		if l.peek() == '=' {
			l.advance()
			return op("!=")
		}
		return op("!")
	case '<':
		if l.peek() == '=' {
			l.advance()
			return op("<=")
		}
		return op("<")
	case '>':
		if l.peek() == '=' {
			l.advance()
			return op(">=")
		}
		return op(">")
	case '+', '-', '*', '/':
		return op(string(ch))
	}
	return Token{}, l.errorAt(ch, line, col, offset, "")
}

// Lex tokenises src. The returned slice holds no EOF token; it is empty for
// blank input. Lex stops at the first character no rule accepts and returns
// a *LexError along with the tokens scanned so far.
func Lex(src string) ([]Token, error) {
	l := newLexer(src)
	var tokens []Token
	for {
		tok, err := l.nextToken()
		if err != nil {
			return tokens, err
		}
		if tok.Type == EOF {
			return tokens, nil
		}
		tokens = append(tokens, tok)
	}
}
