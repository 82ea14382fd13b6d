package compiler

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func num(v int64) *NumberLiteral { return &NumberLiteral{Value: IntNumber(v)} }

func ref(name string) *VarRef { return &VarRef{Name: name} }

func bin(op string, l, r Expr) *BinaryOp { return &BinaryOp{Op: op, Left: l, Right: r} }

func parseSource(t *testing.T, src string) []Stmt {
	t.Helper()
	tokens, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex(%q) failed: %v", src, err)
	}
	stmts, err := Parse(tokens, src)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", src, err)
	}
	return stmts
}

// TestParse verifies that Parse produces the correct AST for valid inputs.
func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Stmt
	}{
		{
			name:     "Empty Program",
			input:    "",
			expected: nil,
		},
		{
			name:  "Assignment",
			input: "x = 10",
			expected: []Stmt{
				&Assignment{Name: "x", Value: num(10)},
			},
		},
		{
			name:  "Float Literal",
			input: "x = 2.5",
			expected: []Stmt{
				&Assignment{Name: "x", Value: &NumberLiteral{Value: FloatNumber(2.5)}},
			},
		},
		{
			name:  "Precedence",
			input: "x = 2 + 3 * 4",
			expected: []Stmt{
				&Assignment{Name: "x", Value: bin("+", num(2), bin("*", num(3), num(4)))},
			},
		},
		{
			name:  "Left Associative Subtraction",
			input: "x = a - b - c",
			expected: []Stmt{
				&Assignment{Name: "x", Value: bin("-", bin("-", ref("a"), ref("b")), ref("c"))},
			},
		},
		{
			name:  "Left Associative Division",
			input: "x = a / b * c",
			expected: []Stmt{
				&Assignment{Name: "x", Value: bin("*", bin("/", ref("a"), ref("b")), ref("c"))},
			},
		},
		{
			name:  "Comparison Binds Loosest",
			input: "x = a + 1 <= b * 2",
			expected: []Stmt{
				&Assignment{Name: "x", Value: bin("<=", bin("+", ref("a"), num(1)), bin("*", ref("b"), num(2)))},
			},
		},
		{
			name:  "Chained Comparison",
			input: "x = a < b == c",
			expected: []Stmt{
				&Assignment{Name: "x", Value: bin("==", bin("<", ref("a"), ref("b")), ref("c"))},
			},
		},
		{
			name:  "Grouping",
			input: "x = $$ 2 + 3 $$ * 4",
			expected: []Stmt{
				&Assignment{Name: "x", Value: bin("*", bin("+", num(2), num(3)), num(4))},
			},
		},
		{
			name:  "Nested Grouping",
			input: "x = $$ $$ a $$ - b $$",
			expected: []Stmt{
				&Assignment{Name: "x", Value: bin("-", ref("a"), ref("b"))},
			},
		},
		{
			name:  "Statements Without Terminator",
			input: "x = 1 y = x z = y + 1",
			expected: []Stmt{
				&Assignment{Name: "x", Value: num(1)},
				&Assignment{Name: "y", Value: ref("x")},
				&Assignment{Name: "z", Value: bin("+", ref("y"), num(1))},
			},
		},
		{
			name:  "If Then",
			input: "if x then y = 1",
			expected: []Stmt{
				&Conditional{Condition: ref("x"), Body: &Assignment{Name: "y", Value: num(1)}},
			},
		},
		{
			name:  "If Then Else",
			input: "if x > 0 then y = 1 else y = 2",
			expected: []Stmt{
				&Conditional{
					Condition: bin(">", ref("x"), num(0)),
					Body:      &Assignment{Name: "y", Value: num(1)},
					ElseBody:  &Assignment{Name: "y", Value: num(2)},
				},
			},
		},
		{
			name:  "Dangling Else Binds Innermost",
			input: "if a then if b then x = 1 else x = 2",
			expected: []Stmt{
				&Conditional{
					Condition: ref("a"),
					Body: &Conditional{
						Condition: ref("b"),
						Body:      &Assignment{Name: "x", Value: num(1)},
						ElseBody:  &Assignment{Name: "x", Value: num(2)},
					},
				},
			},
		},
		{
			name:  "Single Statement Branch",
			input: "if a then x = 1 y = 2",
			expected: []Stmt{
				&Conditional{Condition: ref("a"), Body: &Assignment{Name: "x", Value: num(1)}},
				&Assignment{Name: "y", Value: num(2)},
			},
		},
		{
			name:  "Conditional In Primary Position",
			input: "x = if a then y = 1",
			expected: []Stmt{
				&Assignment{Name: "x", Value: &Conditional{
					Condition: ref("a"),
					Body:      &Assignment{Name: "y", Value: num(1)},
				}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmts := parseSource(t, tt.input)
			if !reflect.DeepEqual(stmts, tt.expected) {
				t.Errorf("Parse(%q)\n got: %v\nwant: %v", tt.input, stmts, tt.expected)
			}
		})
	}
}

// TestParseErrors verifies the first violation is reported with what was
// expected and what was found.
func TestParseErrors(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  string // substring of one Expected entry
		found     string // lexeme of Found, "" for end of input
		wantDepth int
	}{
		{"Missing Then", "if x y = 1", `Keyword "then"`, "y", 0},
		{"Missing Then At End", "if x", `Keyword "then"`, "", 0},
		{"Missing Assign", "x 1", `Operator "="`, "1", 0},
		{"Double Equals Is Not Assign", "x == 1", `Operator "="`, "==", 0},
		{"Statement Starts With Number", "1 = x", "Identifier", "1", 0},
		{"Statement Starts With Else", "else x = 1", `Keyword "if"`, "else", 0},
		{"Missing Operand", "x = 1 +", "Number", "", 0},
		{"Operator As Operand", "x = * 2", "Number", "*", 0},
		{"Bang Is Not An Operand", "x = !y", "Number", "!", 0},
		{"Unclosed Group", "x = $$ 1 + 2", "RightDelimiter", "", 1},
		{"Unclosed Nested Group", "x = $$ $$ 1 $$", "RightDelimiter", "", 1},
		{"Missing Else Body", "if a then x = 1 else", "Identifier", "", 0},
		{"Missing Then Body", "if a then", "Identifier", "", 0},
		{"Then Body Is Expression", "if a then 1", "Identifier", "1", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Lex(tt.input)
			if err != nil {
				t.Fatalf("Lex failed: %v", err)
			}
			_, err = Parse(tokens, tt.input)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded; want error", tt.input)
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("error = %T; want *ParseError", err)
			}
			if !strings.Contains(strings.Join(perr.Expected, "|"), tt.expected) {
				t.Errorf("Expected = %v; want an entry containing %q", perr.Expected, tt.expected)
			}
			if tt.found == "" {
				if !perr.AtEOF() {
					t.Errorf("Found = %v; want end of input", perr.Found)
				}
				if !strings.Contains(perr.Error(), "end of input") {
					t.Errorf("message %q does not mention end of input", perr.Error())
				}
			} else if perr.Found == nil || perr.Found.Lexeme != tt.found {
				t.Errorf("Found = %v; want lexeme %q", perr.Found, tt.found)
			}
			if perr.Depth != tt.wantDepth {
				t.Errorf("Depth = %d; want %d", perr.Depth, tt.wantDepth)
			}
		})
	}
}

func TestParseError_Message(t *testing.T) {
	src := "x = 1\nif x y = 2"
	tokens, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex failed: %v", err)
	}
	_, err = Parse(tokens, src)
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	for _, want := range []string{"line 2", `expected Keyword "then"`, `got Identifier "y"`, "|> if x y = 2"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}
