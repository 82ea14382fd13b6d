package compiler

import (
	"fmt"
	"strings"
)

// Symbol is the current binding of one variable.
type Symbol struct {
	Name     string
	Register Register
}

// SymbolTable maps variable names to the register that last held the value
// assigned to them. There are no scopes: a later assignment overwrites the
// entry, and only the most recent register is kept.
type SymbolTable struct {
	regs  map[string]Register
	order []string // first-binding order, for deterministic dumps
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{regs: make(map[string]Register)}
}

// Bind records that name now lives in reg.
func (s *SymbolTable) Bind(name string, reg Register) {
	if _, ok := s.regs[name]; !ok {
		s.order = append(s.order, name)
	}
	s.regs[name] = reg
}

// Lookup returns the register last bound to name.
func (s *SymbolTable) Lookup(name string) (Register, bool) {
	reg, ok := s.regs[name]
	return reg, ok
}

// Len returns the number of bound names.
func (s *SymbolTable) Len() int { return len(s.order) }

// Symbols returns every binding in first-binding order.
func (s *SymbolTable) Symbols() []Symbol {
	out := make([]Symbol, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, Symbol{Name: name, Register: s.regs[name]})
	}
	return out
}

// Map returns a copy of the name → register-name mapping.
func (s *SymbolTable) Map() map[string]string {
	out := make(map[string]string, len(s.regs))
	for name, reg := range s.regs {
		out[name] = reg.String()
	}
	return out
}

// String returns one "name -> Rn" line per binding, in first-binding order.
func (s *SymbolTable) String() string {
	var sb strings.Builder
	for _, sym := range s.Symbols() {
		fmt.Fprintf(&sb, "%s -> %s\n", sym.Name, sym.Register)
	}
	return sb.String()
}
