package compiler

import (
	"fmt"
)

// Result holds every stage's output for one compilation.
type Result struct {
	Source  string
	Tokens  []Token
	Stmts   []Stmt
	Listing Listing
	Symbols *SymbolTable
}

// Compile runs Lex, Parse and Generate over src with a fresh Generator.
// Lex and parse failures are wrapped with the stage name; use errors.As to
// recover the *LexError or *ParseError. On a parse failure the returned
// Result still carries the tokens.
func Compile(src string) (*Result, error) {
	res := &Result{Source: src}

	tokens, err := Lex(src)
	if err != nil {
		return nil, fmt.Errorf("lex: %w", err)
	}
	res.Tokens = tokens

	stmts, err := Parse(tokens, src)
	if err != nil {
		return res, fmt.Errorf("parse: %w", err)
	}
	res.Stmts = stmts

	res.Symbols = NewSymbolTable()
	res.Listing = Generate(stmts, res.Symbols)
	return res, nil
}
