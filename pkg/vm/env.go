package vm

import (
	"fmt"
	"sort"
	"strings"

	"tacc/pkg/compiler"
)

// Env is an initial variable environment. It implements flag.Value so a
// binary can accept repeated -set name=value flags.
type Env map[string]compiler.Number

func (e Env) String() string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + e[name].String()
	}
	return strings.Join(parts, ",")
}

// Set parses one name=value binding. Values use source literal syntax with
// an optional leading minus.
func (e Env) Set(s string) error {
	name, text, ok := strings.Cut(s, "=")
	name, text = strings.TrimSpace(name), strings.TrimSpace(text)
	if !ok || name == "" {
		return fmt.Errorf("expected name=value, got %q", s)
	}
	if !isName(name) {
		return fmt.Errorf("invalid variable name %q", name)
	}
	v, err := compiler.ParseNumber(text)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %q", name, text)
	}
	e[name] = v
	return nil
}

func isName(s string) bool {
	toks, err := compiler.Lex(s)
	return err == nil && len(toks) == 1 && toks[0].Type == compiler.IDENTIFIER
}
