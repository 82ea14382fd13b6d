package asm

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"tacc/pkg/compiler"
)

// Operand shapes, by field count including the mnemonic.
var instructionArity = map[compiler.Opcode]int{
	compiler.LOAD_CONST: 4, // LOAD_CONST v -> Rd
	compiler.LOAD:       4, // LOAD name -> Rd
	compiler.ADD:        5, // ADD Ra Rb -> Rd
	compiler.SUB:        5,
	compiler.MUL:        5,
	compiler.DIV:        5,
	compiler.CMP:        3, // CMP Ra Rb
	compiler.SET:        5, // SET Rd based on op
	compiler.STORE:      4, // STORE Ra -> name
	compiler.JZ:         3, // JZ Ra Lm
	compiler.JMP:        2, // JMP Lm
	compiler.LABEL:      2, // LABEL Lm
}

// Assembler reads a textual listing back into instructions. Pass 1 collects
// label definitions; pass 2 decodes every line and checks that jumps target
// defined labels and that registers are written once, before any read.
type Assembler struct {
	labels map[compiler.Label]int // label -> defining line
}

type parsedLine struct {
	lineNo   int
	mnemonic string
	operands []string
}

func NewAssembler() *Assembler {
	return &Assembler{
		labels: make(map[compiler.Label]int),
	}
}

// Assemble decodes code with a fresh Assembler. The returned map relates each
// instruction index to its 1-based source line.
func Assemble(code string) (compiler.Listing, map[int]int, error) {
	return NewAssembler().Assemble(code)
}

// Parse reads a listing without its source map.
func Parse(code string) (compiler.Listing, error) {
	l, _, err := Assemble(code)
	return l, err
}

func (a *Assembler) Assemble(code string) (compiler.Listing, map[int]int, error) {
	lines := strings.Split(code, "\n")

	if err := a.pass1(lines); err != nil {
		return nil, nil, err
	}

	return a.pass2(lines)
}

func (a *Assembler) pass1(lines []string) error {
	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return err
		}
		if p.mnemonic != compiler.LABEL.String() {
			continue
		}
		if len(p.operands) != 1 {
			return fmt.Errorf("LABEL expects 1 operand on line %d", lineNo)
		}
		lbl, err := parseLabel(p.operands[0], lineNo)
		if err != nil {
			return err
		}
		if prev, exists := a.labels[lbl]; exists {
			return fmt.Errorf("duplicate label '%s' on line %d (first defined on line %d)", lbl, lineNo, prev)
		}
		a.labels[lbl] = lineNo
	}
	return nil
}

func (a *Assembler) pass2(lines []string) (compiler.Listing, map[int]int, error) {
	var program compiler.Listing
	sourceMap := make(map[int]int)
	chk := newChecker()

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return nil, nil, err
		}
		if p.mnemonic == "" {
			continue
		}

		in, err := a.decode(p)
		if err != nil {
			return nil, nil, err
		}
		if err := chk.visit(in, fmt.Sprintf("line %d", lineNo)); err != nil {
			return nil, nil, err
		}
		if in.Op == compiler.JZ || in.Op == compiler.JMP {
			if _, ok := a.labels[in.Target]; !ok {
				return nil, nil, fmt.Errorf("undefined label '%s' on line %d", in.Target, lineNo)
			}
		}

		sourceMap[len(program)] = lineNo
		program = append(program, in)
	}

	return program, sourceMap, nil
}

// decode turns one parsed line into an Instruction, enforcing arity and the
// fixed "->" / "based on" separators.
func (a *Assembler) decode(p parsedLine) (compiler.Instruction, error) {
	lineNo := p.lineNo
	op, ok := compiler.LookupOpcode(p.mnemonic)
	if !ok {
		return compiler.Instruction{}, fmt.Errorf("unknown instruction on line %d: %s", lineNo, p.mnemonic)
	}
	ops := p.operands
	if want := instructionArity[op] - 1; len(ops) != want {
		return compiler.Instruction{}, fmt.Errorf("%s expects %d operands on line %d, got %d", op, want, lineNo, len(ops))
	}

	in := compiler.Instruction{Op: op}
	var err error
	arrow := func(tok string) error {
		if tok != "->" {
			return fmt.Errorf("expected '->' on line %d, got '%s'", lineNo, tok)
		}
		return nil
	}

	switch op {
	case compiler.LOAD_CONST:
		if in.Const, err = compiler.ParseNumber(ops[0]); err != nil {
			return in, fmt.Errorf("invalid constant '%s' on line %d", ops[0], lineNo)
		}
		if err = arrow(ops[1]); err != nil {
			return in, err
		}
		in.Dst, err = parseRegister(ops[2], lineNo)

	case compiler.LOAD:
		if !isIdentifier(ops[0]) {
			return in, fmt.Errorf("invalid variable name '%s' on line %d", ops[0], lineNo)
		}
		in.Name = ops[0]
		if err = arrow(ops[1]); err != nil {
			return in, err
		}
		in.Dst, err = parseRegister(ops[2], lineNo)

	case compiler.ADD, compiler.SUB, compiler.MUL, compiler.DIV:
		if in.A, err = parseRegister(ops[0], lineNo); err != nil {
			return in, err
		}
		if in.B, err = parseRegister(ops[1], lineNo); err != nil {
			return in, err
		}
		if err = arrow(ops[2]); err != nil {
			return in, err
		}
		in.Dst, err = parseRegister(ops[3], lineNo)

	case compiler.CMP:
		if in.A, err = parseRegister(ops[0], lineNo); err != nil {
			return in, err
		}
		in.B, err = parseRegister(ops[1], lineNo)

	case compiler.SET:
		if in.Dst, err = parseRegister(ops[0], lineNo); err != nil {
			return in, err
		}
		if ops[1] != "based" || ops[2] != "on" {
			return in, fmt.Errorf("expected 'based on' on line %d", lineNo)
		}
		if !compiler.IsComparisonOperator(ops[3]) {
			return in, fmt.Errorf("invalid comparison '%s' on line %d", ops[3], lineNo)
		}
		in.Cmp = ops[3]

	case compiler.STORE:
		if in.A, err = parseRegister(ops[0], lineNo); err != nil {
			return in, err
		}
		if err = arrow(ops[1]); err != nil {
			return in, err
		}
		if !isIdentifier(ops[2]) {
			return in, fmt.Errorf("invalid variable name '%s' on line %d", ops[2], lineNo)
		}
		in.Name = ops[2]

	case compiler.JZ:
		if in.A, err = parseRegister(ops[0], lineNo); err != nil {
			return in, err
		}
		in.Target, err = parseLabel(ops[1], lineNo)

	case compiler.JMP, compiler.LABEL:
		in.Target, err = parseLabel(ops[0], lineNo)
	}
	return in, err
}

// Check runs the structural checks of pass 2 over an in-memory listing:
// labels defined once, jumps to defined labels, registers written once and
// before they are read.
func Check(l compiler.Listing) error {
	labels := make(map[compiler.Label]int)
	for i, in := range l {
		if in.Op != compiler.LABEL {
			continue
		}
		if prev, exists := labels[in.Target]; exists {
			return fmt.Errorf("duplicate label '%s' at instruction %d (first defined at %d)", in.Target, i, prev)
		}
		labels[in.Target] = i
	}

	chk := newChecker()
	for i, in := range l {
		if err := chk.visit(in, fmt.Sprintf("instruction %d", i)); err != nil {
			return err
		}
		if in.Op == compiler.JZ || in.Op == compiler.JMP {
			if _, ok := labels[in.Target]; !ok {
				return fmt.Errorf("undefined label '%s' at instruction %d", in.Target, i)
			}
		}
	}
	return nil
}

// checker tracks which registers have been written so far.
type checker struct {
	written map[compiler.Register]string
}

func newChecker() *checker {
	return &checker{written: make(map[compiler.Register]string)}
}

func (c *checker) visit(in compiler.Instruction, where string) error {
	for _, r := range in.Uses() {
		if _, ok := c.written[r]; !ok {
			return fmt.Errorf("register %s read before it is written on %s", r, where)
		}
	}
	if r, ok := in.Defines(); ok {
		if prev, dup := c.written[r]; dup {
			return fmt.Errorf("register %s written twice (%s and %s)", r, prev, where)
		}
		c.written[r] = where
	}
	return nil
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}

	line := stripComments(raw)
	line = normalizeInstructionText(line)
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return p, nil
	}

	p.mnemonic = strings.ToUpper(fields[0])
	if len(fields) > 1 {
		p.operands = fields[1:]
	}
	return p, nil
}

func stripComments(line string) string {
	if cut := strings.Index(line, ";"); cut >= 0 {
		return line[:cut]
	}
	return line
}

func normalizeInstructionText(line string) string {
	return strings.ReplaceAll(line, ",", " ")
}

func parseRegister(token string, lineNo int) (compiler.Register, error) {
	n, ok := parseNumbered(token, 'R')
	if !ok {
		return 0, fmt.Errorf("invalid register '%s' on line %d", token, lineNo)
	}
	return compiler.Register(n), nil
}

func parseLabel(token string, lineNo int) (compiler.Label, error) {
	n, ok := parseNumbered(token, 'L')
	if !ok {
		return 0, fmt.Errorf("invalid label '%s' on line %d", token, lineNo)
	}
	return compiler.Label(n), nil
}

// parseNumbered accepts prefix followed by a positive decimal with no sign or
// leading zeros, e.g. R1, L12.
func parseNumbered(token string, prefix byte) (int, bool) {
	if len(token) < 2 || token[0] != prefix || token[1] == '0' {
		return 0, false
	}
	digits := token[1:]
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// isIdentifier mirrors the lexer's identifier rule: an ASCII letter or '_'
// followed by letters, digits or '_'.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			if !(r >= 'a' && r <= 'z') && !(r >= 'A' && r <= 'Z') && r != '_' {
				return false
			}
			continue
		}

		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}

	return true
}
