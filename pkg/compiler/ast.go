package compiler

import "fmt"

//  Expression nodes

// Expr is implemented by every node that produces a value.
// genExpr returns the register holding the result.
type Expr interface {
	exprNode()
	String() string
}

// NumberLiteral is a numeric constant.
//
//	x = 10
//	    ^^  NumberLiteral{Value: IntNumber(10)}
type NumberLiteral struct {
	Value Number
}

func (*NumberLiteral) exprNode()        {}
func (n *NumberLiteral) String() string { return n.Value.String() }

// VarRef is a read of a named variable.
//
//	y = x
//	    ^  VarRef{Name: "x"}
type VarRef struct {
	Name string
}

func (*VarRef) exprNode()        {}
func (v *VarRef) String() string { return v.Name }

// BinaryOp represents Left Op Right, where Op is one of the arithmetic or
// comparison operators.
//
//	x + 1
//	^ ^ ^
//	| | |
//	| | Right
//	| Op
//	Left
type BinaryOp struct {
	Op    string
	Left  Expr
	Right Expr
}

func (*BinaryOp) exprNode() {}
func (b *BinaryOp) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

// IsComparison reports whether Op yields a truth value rather than a number.
func (b *BinaryOp) IsComparison() bool {
	return comparisonOps[b.Op]
}

var comparisonOps = map[string]bool{
	"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true,
}

//  Statement nodes

// Stmt is implemented by every node that does not produce a value.
type Stmt interface {
	stmtNode()
	String() string
}

// Assignment represents  Name = Value
type Assignment struct {
	Name  string
	Value Expr
}

func (*Assignment) stmtNode() {}
func (a *Assignment) String() string {
	return fmt.Sprintf("Assignment(%s = %s)", a.Name, a.Value)
}

// Conditional represents if Condition then Body [else ElseBody].
// Both branches are single statements. A Conditional is also accepted in
// primary position, so it implements Expr as well.
type Conditional struct {
	Condition Expr
	Body      Stmt
	ElseBody  Stmt // may be nil
}

func (*Conditional) stmtNode() {}
func (*Conditional) exprNode() {}
func (c *Conditional) String() string {
	if c.ElseBody != nil {
		return fmt.Sprintf("Conditional(if %s then %s else %s)", c.Condition, c.Body, c.ElseBody)
	}
	return fmt.Sprintf("Conditional(if %s then %s)", c.Condition, c.Body)
}
