package compiler

import (
	"fmt"
)

// Generator walks an AST and emits a three-address listing. Register and
// label counters belong to one Generator; build a new one per compilation.
type Generator struct {
	syms      *SymbolTable
	out       Listing
	nextReg   int
	nextLabel int
}

// NewGenerator returns a Generator that records variable bindings in syms.
// A nil syms gets a fresh table.
func NewGenerator(syms *SymbolTable) *Generator {
	if syms == nil {
		syms = NewSymbolTable()
	}
	return &Generator{syms: syms}
}

// Symbols returns the table the generator binds variables in.
func (g *Generator) Symbols() *SymbolTable { return g.syms }

// Listing returns the instructions emitted so far.
func (g *Generator) Listing() Listing { return g.out }

func (g *Generator) newReg() Register {
	g.nextReg++
	return Register(g.nextReg)
}

func (g *Generator) newLabel() Label {
	g.nextLabel++
	return Label(g.nextLabel)
}

func (g *Generator) emit(in Instruction) {
	g.out = append(g.out, in)
}

// genExpr lowers e and returns the register holding its value. Operands are
// always lowered left before right, which fixes register numbering.
func (g *Generator) genExpr(e Expr) Register {
	switch n := e.(type) {
	case *NumberLiteral:
		r := g.newReg()
		g.emit(Instruction{Op: LOAD_CONST, Const: n.Value, Dst: r})
		return r

	case *VarRef:
		// Always a fresh load by name; the symbol table is not consulted.
		r := g.newReg()
		g.emit(Instruction{Op: LOAD, Name: n.Name, Dst: r})
		return r

	case *BinaryOp:
		left := g.genExpr(n.Left)
		right := g.genExpr(n.Right)
		dest := g.newReg()
		if op, ok := arithmeticOps[n.Op]; ok {
			g.emit(Instruction{Op: op, A: left, B: right, Dst: dest})
			return dest
		}
		if !n.IsComparison() {
			panic(fmt.Sprintf("codegen: unknown binary operator %q", n.Op))
		}
		g.emit(Instruction{Op: CMP, A: left, B: right})
		g.emit(Instruction{Op: SET, Dst: dest, Cmp: n.Op})
		return dest

	case *Conditional:
		// In value position the conditional runs as a statement and yields
		// its condition register.
		return g.genConditional(n)

	default:
		panic(fmt.Sprintf("codegen: unknown expression node %T", e))
	}
}

// genConditional emits the branch skeleton and returns the condition register.
//
//	JZ   cond Lelse
//	     <then>
//	JMP  Lend
//	LABEL Lelse
//	     <else, possibly empty>
//	LABEL Lend
func (g *Generator) genConditional(c *Conditional) Register {
	cond := g.genExpr(c.Condition)
	elseLabel := g.newLabel()
	endLabel := g.newLabel()

	g.emit(Instruction{Op: JZ, A: cond, Target: elseLabel})
	g.genStmt(c.Body)
	g.emit(Instruction{Op: JMP, Target: endLabel})
	g.emit(Instruction{Op: LABEL, Target: elseLabel})
	if c.ElseBody != nil {
		g.genStmt(c.ElseBody)
	}
	g.emit(Instruction{Op: LABEL, Target: endLabel})
	return cond
}

// genStmt lowers one statement, appending to the listing and updating the
// symbol table.
func (g *Generator) genStmt(s Stmt) {
	switch n := s.(type) {
	case *Assignment:
		reg := g.genExpr(n.Value)
		g.emit(Instruction{Op: STORE, A: reg, Name: n.Name})
		g.syms.Bind(n.Name, reg)

	case *Conditional:
		g.genConditional(n)

	default:
		panic(fmt.Sprintf("codegen: unknown statement node %T", s))
	}
}

// Generate lowers stmts in source order and returns the whole listing.
func (g *Generator) Generate(stmts []Stmt) Listing {
	for _, s := range stmts {
		g.genStmt(s)
	}
	return g.out
}

// Generate lowers stmts with a fresh Generator bound to syms.
// It never fails for ASTs produced by Parse.
func Generate(stmts []Stmt, syms *SymbolTable) Listing {
	return NewGenerator(syms).Generate(stmts)
}
