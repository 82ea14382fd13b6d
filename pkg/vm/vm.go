package vm

import (
	"errors"
	"fmt"
	"io"

	"tacc/pkg/asm"
	"tacc/pkg/compiler"
)

// ErrStepLimit is returned by RunUntilDone when the program is still running
// after the allotted number of steps.
var ErrStepLimit = errors.New("step limit reached")

// Machine executes a three-address listing over a variable environment.
// Registers hold numbers; variables are read by LOAD and written by STORE.
type Machine struct {
	Program compiler.Listing
	Regs    map[compiler.Register]compiler.Number
	Vars    map[string]compiler.Number
	PC      int
	Steps   int
	Halted  bool
	Err     error

	// Operands recorded by the last CMP.
	CmpA, CmpB compiler.Number
	cmpValid   bool

	labels map[compiler.Label]int // label -> instruction index

	// Trace, when set, receives one line per executed instruction.
	Trace io.Writer
}

// New validates program and returns a Machine ready to run it. env seeds the
// variable environment and is copied.
func New(program compiler.Listing, env map[string]compiler.Number) (*Machine, error) {
	if err := asm.Check(program); err != nil {
		return nil, err
	}
	m := &Machine{
		Program: program,
		Regs:    make(map[compiler.Register]compiler.Number),
		Vars:    make(map[string]compiler.Number, len(env)),
		labels:  make(map[compiler.Label]int),
	}
	for k, v := range env {
		m.Vars[k] = v
	}
	for i, in := range program {
		if in.Op == compiler.LABEL {
			m.labels[in.Target] = i
		}
	}
	m.Halted = len(program) == 0
	return m, nil
}

// Reset rewinds the program counter and clears registers and comparison
// state. Variables are kept.
func (m *Machine) Reset() {
	m.PC = 0
	m.Steps = 0
	m.Err = nil
	m.Regs = make(map[compiler.Register]compiler.Number)
	m.CmpA, m.CmpB, m.cmpValid = compiler.Number{}, compiler.Number{}, false
	m.Halted = len(m.Program) == 0
}

func (m *Machine) fault(err error) {
	m.Err = fmt.Errorf("pc %d (%s): %w", m.PC, m.Program[m.PC], err)
	m.Halted = true
}

func (m *Machine) reg(r compiler.Register) (compiler.Number, error) {
	v, ok := m.Regs[r]
	if !ok {
		return compiler.Number{}, fmt.Errorf("register %s is not set", r)
	}
	return v, nil
}

func (m *Machine) jump(l compiler.Label) error {
	idx, ok := m.labels[l]
	if !ok {
		return fmt.Errorf("undefined label '%s'", l)
	}
	m.PC = idx
	return nil
}

// Step executes one instruction. A halted machine does nothing; a failing
// instruction halts the machine and records Err.
func (m *Machine) Step() {
	if m.Halted {
		return
	}
	if m.PC < 0 || m.PC >= len(m.Program) {
		m.Halted = true
		return
	}

	in := m.Program[m.PC]
	if m.Trace != nil {
		fmt.Fprintf(m.Trace, "%4d  %s\n", m.PC, in)
	}
	next := m.PC + 1

	switch in.Op {
	case compiler.LOAD_CONST:
		m.Regs[in.Dst] = in.Const

	case compiler.LOAD:
		v, ok := m.Vars[in.Name]
		if !ok {
			m.fault(fmt.Errorf("variable %q is not bound", in.Name))
			return
		}
		m.Regs[in.Dst] = v

	case compiler.ADD, compiler.SUB, compiler.MUL, compiler.DIV:
		a, err := m.reg(in.A)
		if err != nil {
			m.fault(err)
			return
		}
		b, err := m.reg(in.B)
		if err != nil {
			m.fault(err)
			return
		}
		v, err := arith(in.Op, a, b)
		if err != nil {
			m.fault(err)
			return
		}
		m.Regs[in.Dst] = v

	case compiler.CMP:
		a, err := m.reg(in.A)
		if err != nil {
			m.fault(err)
			return
		}
		b, err := m.reg(in.B)
		if err != nil {
			m.fault(err)
			return
		}
		m.CmpA, m.CmpB, m.cmpValid = a, b, true

	case compiler.SET:
		if !m.cmpValid {
			m.fault(errors.New("SET without a preceding CMP"))
			return
		}
		ok, err := compare(in.Cmp, m.CmpA, m.CmpB)
		if err != nil {
			m.fault(err)
			return
		}
		m.Regs[in.Dst] = truth(ok)

	case compiler.STORE:
		v, err := m.reg(in.A)
		if err != nil {
			m.fault(err)
			return
		}
		m.Vars[in.Name] = v

	case compiler.JZ:
		v, err := m.reg(in.A)
		if err != nil {
			m.fault(err)
			return
		}
		if v.IsZero() {
			if err := m.jump(in.Target); err != nil {
				m.fault(err)
				return
			}
			next = m.PC + 1
		}

	case compiler.JMP:
		if err := m.jump(in.Target); err != nil {
			m.fault(err)
			return
		}
		next = m.PC + 1

	case compiler.LABEL:
		// no-op

	default:
		m.fault(fmt.Errorf("unknown opcode %s", in.Op))
		return
	}

	m.Steps++
	m.PC = next
	if m.PC >= len(m.Program) {
		m.Halted = true
	}
}

// Run executes until the program falls off its end or an instruction fails.
func (m *Machine) Run() error {
	for !m.Halted {
		m.Step()
	}
	return m.Err
}

// RunUntilDone is Run bounded by maxSteps. A non-positive maxSteps means no
// bound.
func (m *Machine) RunUntilDone(maxSteps int) error {
	if maxSteps <= 0 {
		return m.Run()
	}
	for i := 0; i < maxSteps && !m.Halted; i++ {
		m.Step()
	}
	if m.Err != nil {
		return m.Err
	}
	if !m.Halted {
		return fmt.Errorf("%w after %d instructions (pc %d)", ErrStepLimit, maxSteps, m.PC)
	}
	return nil
}
