package compiler

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF TokenType = iota // parser sentinel: end of input, never produced by Lex

	NUMBER     // 42, 3.14
	IDENTIFIER // variable name
	OPERATOR   // + - * / = ! == != < > <= >=
	KEYWORD    // if then else

	// The group delimiter "$$" opens and closes a group. Lex always emits
	// LDELIM; the parser decides the role from grammatical position.
	LDELIM
	RDELIM
)

// tokenNames is indexed by TokenType.
var tokenNames = [...]string{
	EOF:        "EOF",
	NUMBER:     "Number",
	IDENTIFIER: "Identifier",
	OPERATOR:   "Operator",
	KEYWORD:    "Keyword",
	LDELIM:     "LeftDelimiter",
	RDELIM:     "RightDelimiter",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Delimiter is the literal that both opens and closes a group.
const Delimiter = "$$"

// keywords is the closed keyword set; any other word is an identifier.
var keywords = map[string]bool{
	"if":   true,
	"then": true,
	"else": true,
}

// Number is a numeric literal that remembers whether it was written with a
// fractional part.
type Number struct {
	Int     int64
	Float   float64
	IsFloat bool
}

// IntNumber returns an integral Number.
func IntNumber(v int64) Number { return Number{Int: v} }

// FloatNumber returns a fractional Number.
func FloatNumber(v float64) Number { return Number{Float: v, IsFloat: true} }

// ParseNumber converts the text of a NUMBER token.
func ParseNumber(s string) (Number, error) {
	if strings.Contains(s, ".") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Number{}, err
		}
		return FloatNumber(f), nil
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Number{}, err
	}
	return IntNumber(i), nil
}

// AsFloat returns the value as a float64 regardless of representation.
func (n Number) AsFloat() float64 {
	if n.IsFloat {
		return n.Float
	}
	return float64(n.Int)
}

// IsZero reports whether the value is numerically zero.
func (n Number) IsZero() bool {
	if n.IsFloat {
		return n.Float == 0
	}
	return n.Int == 0
}

// String renders integers in decimal and floats in shortest round-trip form,
// keeping a ".0" on integral floats so 2.0 never prints as an integer.
func (n Number) String() string {
	if !n.IsFloat {
		return strconv.FormatInt(n.Int, 10)
	}
	if math.IsInf(n.Float, 0) || math.IsNaN(n.Float) {
		return strconv.FormatFloat(n.Float, 'g', -1, 64)
	}
	s := strconv.FormatFloat(n.Float, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Type   TokenType
	Lexeme string // the exact source text that was matched
	Value  Number // set for NUMBER tokens only
	Line   int    // 1-based source line
	Column int    // 1-based column, counted in runes
}

// Is reports whether the token has the given type and lexeme.
func (t Token) Is(tt TokenType, lexeme string) bool {
	return t.Type == tt && t.Lexeme == lexeme
}

// Describe renders the token the way parse errors refer to it.
func (t Token) Describe() string {
	if t.Type == EOF {
		return "end of input"
	}
	return fmt.Sprintf("%s %q", t.Type, t.Lexeme)
}

func (t Token) String() string {
	if t.Type == NUMBER {
		return fmt.Sprintf("%-14s %-10s  line %d", t.Type, t.Value, t.Line)
	}
	return fmt.Sprintf("%-14s %-10q  line %d", t.Type, t.Lexeme, t.Line)
}
