package compiler

import (
	"fmt"
	"strings"
)

// LexError reports the first character that no lexical rule accepts, or a
// literal that cannot be represented.
type LexError struct {
	Char   rune
	Line   int // 1-based
	Column int // 1-based, in runes
	Offset int // 0-based rune offset into the source
	Reason string
}

func (e *LexError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Reason)
	}
	return fmt.Sprintf("line %d, column %d: unexpected character %q", e.Line, e.Column, e.Char)
}

// ParseError reports what the parser expected and what it found instead.
// Found is nil when the input ended early.
type ParseError struct {
	Expected []string
	Found    *Token
	Depth    int    // open "$$" groups at the point of failure
	Snippet  string // trimmed source line of Found, if known
}

// AtEOF reports whether the parser ran out of tokens.
func (e *ParseError) AtEOF() bool { return e.Found == nil }

func (e *ParseError) Error() string {
	var sb strings.Builder
	if e.Found != nil {
		fmt.Fprintf(&sb, "line %d: ", e.Found.Line)
	}
	fmt.Fprintf(&sb, "expected %s, got ", strings.Join(e.Expected, " or "))
	if e.Found == nil {
		sb.WriteString("end of input")
	} else {
		sb.WriteString(e.Found.Describe())
	}
	if e.Depth > 0 {
		fmt.Fprintf(&sb, " (inside %d unclosed %s group", e.Depth, Delimiter)
		if e.Depth > 1 {
			sb.WriteString("s")
		}
		sb.WriteString(")")
	}
	if e.Snippet != "" {
		fmt.Fprintf(&sb, "\n  |> %s", e.Snippet)
	}
	return sb.String()
}
