// Package llvmir lowers a three-address listing to an LLVM IR module.
//
// Every value is a double. Variables live in a caller-provided array of
// doubles, one slot per name in first-use order, so the generated function
// has the signature
//
//	void @<name>(double* %vars)
//
// Registers are written exactly once, which maps them directly onto SSA
// values; only variables go through memory, so no phi nodes are needed.
package llvmir

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"tacc/pkg/asm"
	"tacc/pkg/compiler"
)

// DefaultFunc is the function name used when Options.Func is empty.
const DefaultFunc = "tacc_main"

type Options struct {
	Func string
}

// Module is the lowered program and the variable slot each name was given.
type Module struct {
	IR    *ir.Module
	Slots []string // slot index -> variable name
}

func (m *Module) String() string { return m.IR.String() }

// Slot returns the array index assigned to name.
func (m *Module) Slot(name string) (int, bool) {
	for i, n := range m.Slots {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

type lowerer struct {
	fn     *ir.Func
	vars   *ir.Param
	cur    *ir.Block
	regs   map[compiler.Register]value.Value
	blocks map[compiler.Label]*ir.Block
	slots  map[string]int
	order  []string

	cmpA, cmpB value.Value
}

// Lower translates l into a module holding one function. The listing is
// checked first; a listing that fails asm.Check is rejected.
func Lower(l compiler.Listing, opts Options) (*Module, error) {
	if err := asm.Check(l); err != nil {
		return nil, err
	}
	name := opts.Func
	if name == "" {
		name = DefaultFunc
	}

	m := ir.NewModule()
	vars := ir.NewParam("vars", types.NewPointer(types.Double))
	fn := m.NewFunc(name, types.Void, vars)

	lw := &lowerer{
		fn:     fn,
		vars:   vars,
		regs:   make(map[compiler.Register]value.Value),
		blocks: make(map[compiler.Label]*ir.Block),
		slots:  make(map[string]int),
	}
	lw.cur = fn.NewBlock("entry")

	// Blocks for every label up front so forward jumps resolve.
	for _, in := range l {
		if in.Op == compiler.LABEL {
			lw.blocks[in.Target] = fn.NewBlock(in.Target.String())
		}
	}
	// Slots in first-use order.
	for _, in := range l {
		if in.Op == compiler.LOAD || in.Op == compiler.STORE {
			lw.slot(in.Name)
		}
	}

	for i, in := range l {
		if err := lw.lower(in); err != nil {
			return nil, fmt.Errorf("instruction %d (%s): %w", i, in, err)
		}
	}
	if lw.cur.Term == nil {
		lw.cur.NewRet(nil)
	}

	return &Module{IR: m, Slots: lw.order}, nil
}

func (lw *lowerer) slot(name string) int {
	if i, ok := lw.slots[name]; ok {
		return i
	}
	i := len(lw.order)
	lw.slots[name] = i
	lw.order = append(lw.order, name)
	return i
}

func (lw *lowerer) varPtr(name string) value.Value {
	idx := constant.NewInt(types.I64, int64(lw.slot(name)))
	return lw.cur.NewGetElementPtr(types.Double, lw.vars, idx)
}

func (lw *lowerer) reg(r compiler.Register) (value.Value, error) {
	v, ok := lw.regs[r]
	if !ok {
		return nil, fmt.Errorf("register %s is not set", r)
	}
	return v, nil
}

func (lw *lowerer) operands(in compiler.Instruction) (value.Value, value.Value, error) {
	a, err := lw.reg(in.A)
	if err != nil {
		return nil, nil, err
	}
	b, err := lw.reg(in.B)
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

// live returns a block that can take new instructions, opening an
// unreachable one if the current block is already terminated.
func (lw *lowerer) live() *ir.Block {
	if lw.cur.Term != nil {
		lw.cur = lw.fn.NewBlock("")
	}
	return lw.cur
}

var fpreds = map[string]enum.FPred{
	"==": enum.FPredOEQ,
	"!=": enum.FPredUNE,
	"<":  enum.FPredOLT,
	">":  enum.FPredOGT,
	"<=": enum.FPredOLE,
	">=": enum.FPredOGE,
}

func (lw *lowerer) lower(in compiler.Instruction) error {
	if in.Op != compiler.LABEL {
		lw.live()
	}

	switch in.Op {
	case compiler.LOAD_CONST:
		lw.regs[in.Dst] = constant.NewFloat(types.Double, in.Const.AsFloat())

	case compiler.LOAD:
		lw.regs[in.Dst] = lw.cur.NewLoad(types.Double, lw.varPtr(in.Name))

	case compiler.ADD, compiler.SUB, compiler.MUL, compiler.DIV:
		a, b, err := lw.operands(in)
		if err != nil {
			return err
		}
		switch in.Op {
		case compiler.ADD:
			lw.regs[in.Dst] = lw.cur.NewFAdd(a, b)
		case compiler.SUB:
			lw.regs[in.Dst] = lw.cur.NewFSub(a, b)
		case compiler.MUL:
			lw.regs[in.Dst] = lw.cur.NewFMul(a, b)
		case compiler.DIV:
			lw.regs[in.Dst] = lw.cur.NewFDiv(a, b)
		}

	case compiler.CMP:
		a, b, err := lw.operands(in)
		if err != nil {
			return err
		}
		lw.cmpA, lw.cmpB = a, b

	case compiler.SET:
		if lw.cmpA == nil {
			return fmt.Errorf("SET without a preceding CMP")
		}
		pred, ok := fpreds[in.Cmp]
		if !ok {
			return fmt.Errorf("unknown comparison %q", in.Cmp)
		}
		bit := lw.cur.NewFCmp(pred, lw.cmpA, lw.cmpB)
		lw.regs[in.Dst] = lw.cur.NewUIToFP(bit, types.Double)

	case compiler.STORE:
		v, err := lw.reg(in.A)
		if err != nil {
			return err
		}
		lw.cur.NewStore(v, lw.varPtr(in.Name))

	case compiler.JZ:
		v, err := lw.reg(in.A)
		if err != nil {
			return err
		}
		zero := lw.cur.NewFCmp(enum.FPredOEQ, v, constant.NewFloat(types.Double, 0))
		next := lw.fn.NewBlock("")
		lw.cur.NewCondBr(zero, lw.blocks[in.Target], next)
		lw.cur = next

	case compiler.JMP:
		lw.cur.NewBr(lw.blocks[in.Target])

	case compiler.LABEL:
		target := lw.blocks[in.Target]
		if lw.cur.Term == nil {
			lw.cur.NewBr(target)
		}
		lw.cur = target

	default:
		return fmt.Errorf("unknown opcode %s", in.Op)
	}
	return nil
}
