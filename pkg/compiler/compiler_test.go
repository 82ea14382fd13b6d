package compiler

import (
	"errors"
	"strings"
	"testing"
)

func TestCompile(t *testing.T) {
	input := `
	x = 1 + 2
	y = x - 1
	z = x == y
	w = $$ 1 + 2 $$ == 3
	`
	res, err := Compile(input)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if len(res.Tokens) == 0 || len(res.Stmts) != 4 {
		t.Fatalf("unexpected stage output: %d tokens, %d statements", len(res.Tokens), len(res.Stmts))
	}

	code := res.Listing.String()
	for _, op := range []string{"ADD", "SUB", "CMP", "SET", "STORE"} {
		if !strings.Contains(code, op) {
			t.Errorf("Generated code does not contain %s instructions", op)
		}
	}
	if got := res.Symbols.String(); got != "x -> R3\ny -> R6\nz -> R9\nw -> R14\n" {
		t.Errorf("symbols:\n%s", got)
	}
}

func TestCompile_Errors(t *testing.T) {
	_, err := Compile("x = 1 @")
	var lexErr *LexError
	if !errors.As(err, &lexErr) {
		t.Fatalf("expected *LexError, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "lex: ") {
		t.Errorf("lex errors should carry the stage name: %q", err)
	}

	res, err := Compile("if x y = 1")
	if res == nil || len(res.Tokens) != 5 || res.Listing != nil {
		t.Errorf("parse failure should keep tokens only, got %+v", res)
	}
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "parse: ") {
		t.Errorf("parse errors should carry the stage name: %q", err)
	}
	if perr.Expected[0] != `Keyword "then"` {
		t.Errorf("Expected = %v", perr.Expected)
	}
}
