// Package compiler provides the lexer, parser and code generator for a small
// assignment/if language, lowering it to a register-based three-address
// listing.
//
// Pipeline: source → Lex → Parse → Generate → Listing (+ SymbolTable)
package compiler
