package compiler

import (
	"fmt"
	"strings"
)

// Opcode is the closed set of pseudo-assembly operations.
type Opcode int

const (
	LOAD_CONST Opcode = iota // LOAD_CONST <value> -> Rd
	LOAD                     // LOAD <name> -> Rd
	ADD                      // ADD Ra Rb -> Rd
	SUB                      // SUB Ra Rb -> Rd
	MUL                      // MUL Ra Rb -> Rd
	DIV                      // DIV Ra Rb -> Rd
	CMP                      // CMP Ra Rb
	SET                      // SET Rd based on <op>
	STORE                    // STORE Ra -> <name>
	JZ                       // JZ Ra Lm
	JMP                      // JMP Lm
	LABEL                    // LABEL Lm
)

var opcodeNames = [...]string{
	LOAD_CONST: "LOAD_CONST",
	LOAD:       "LOAD",
	ADD:        "ADD",
	SUB:        "SUB",
	MUL:        "MUL",
	DIV:        "DIV",
	CMP:        "CMP",
	SET:        "SET",
	STORE:      "STORE",
	JZ:         "JZ",
	JMP:        "JMP",
	LABEL:      "LABEL",
}

func (op Opcode) String() string {
	if int(op) >= 0 && int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}
	return fmt.Sprintf("Opcode(%d)", int(op))
}

// LookupOpcode maps a mnemonic back to its Opcode.
func LookupOpcode(mnemonic string) (Opcode, bool) {
	for i, name := range opcodeNames {
		if name == mnemonic {
			return Opcode(i), true
		}
	}
	return 0, false
}

// arithmeticOps maps a binary operator to the opcode that computes it.
var arithmeticOps = map[string]Opcode{
	"+": ADD,
	"-": SUB,
	"*": MUL,
	"/": DIV,
}

// IsComparisonOperator reports whether op is valid in a SET instruction.
func IsComparisonOperator(op string) bool {
	return comparisonOps[op]
}

// Register is a virtual register number. Numbering starts at 1; the zero
// value means "no register".
type Register int

func (r Register) String() string { return fmt.Sprintf("R%d", int(r)) }

// Label is a jump target number, starting at 1.
type Label int

func (l Label) String() string { return fmt.Sprintf("L%d", int(l)) }

// Instruction is one line of the listing. Which fields are meaningful
// depends on Op:
//
//	LOAD_CONST  Const, Dst
//	LOAD        Name, Dst
//	ADD..DIV    A, B, Dst
//	CMP         A, B
//	SET         Dst, Cmp
//	STORE       A, Name
//	JZ          A, Target
//	JMP, LABEL  Target
type Instruction struct {
	Op     Opcode
	Dst    Register
	A, B   Register
	Const  Number
	Name   string
	Cmp    string
	Target Label
}

// Defines returns the register this instruction writes, if any.
func (in Instruction) Defines() (Register, bool) {
	switch in.Op {
	case LOAD_CONST, LOAD, ADD, SUB, MUL, DIV, SET:
		return in.Dst, true
	}
	return 0, false
}

// Uses returns the registers this instruction reads, in operand order.
func (in Instruction) Uses() []Register {
	switch in.Op {
	case ADD, SUB, MUL, DIV, CMP:
		return []Register{in.A, in.B}
	case STORE, JZ:
		return []Register{in.A}
	}
	return nil
}

func (in Instruction) String() string {
	switch in.Op {
	case LOAD_CONST:
		return fmt.Sprintf("LOAD_CONST %s -> %s", in.Const, in.Dst)
	case LOAD:
		return fmt.Sprintf("LOAD %s -> %s", in.Name, in.Dst)
	case ADD, SUB, MUL, DIV:
		return fmt.Sprintf("%s %s %s -> %s", in.Op, in.A, in.B, in.Dst)
	case CMP:
		return fmt.Sprintf("CMP %s %s", in.A, in.B)
	case SET:
		return fmt.Sprintf("SET %s based on %s", in.Dst, in.Cmp)
	case STORE:
		return fmt.Sprintf("STORE %s -> %s", in.A, in.Name)
	case JZ:
		return fmt.Sprintf("JZ %s %s", in.A, in.Target)
	case JMP:
		return fmt.Sprintf("JMP %s", in.Target)
	case LABEL:
		return fmt.Sprintf("LABEL %s", in.Target)
	}
	return in.Op.String()
}

// Listing is an ordered instruction sequence.
type Listing []Instruction

// String renders one instruction per line, each terminated by a newline.
func (l Listing) String() string {
	var sb strings.Builder
	for _, in := range l {
		sb.WriteString(in.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Lines renders the listing as a slice of instruction texts.
func (l Listing) Lines() []string {
	out := make([]string, len(l))
	for i, in := range l {
		out[i] = in.String()
	}
	return out
}
