package vm

import (
	"cmp"
	"errors"
	"fmt"

	"tacc/pkg/compiler"
)

// ErrDivisionByZero is returned by DIV when the divisor is zero.
var ErrDivisionByZero = errors.New("division by zero")

// arith evaluates an arithmetic opcode. ADD, SUB and MUL stay integral when
// both operands are integers; DIV is true division and always yields a float.
func arith(op compiler.Opcode, a, b compiler.Number) (compiler.Number, error) {
	if op == compiler.DIV {
		if b.IsZero() {
			return compiler.Number{}, ErrDivisionByZero
		}
		return compiler.FloatNumber(a.AsFloat() / b.AsFloat()), nil
	}

	if !a.IsFloat && !b.IsFloat {
		switch op {
		case compiler.ADD:
			return compiler.IntNumber(a.Int + b.Int), nil
		case compiler.SUB:
			return compiler.IntNumber(a.Int - b.Int), nil
		case compiler.MUL:
			return compiler.IntNumber(a.Int * b.Int), nil
		}
	} else {
		x, y := a.AsFloat(), b.AsFloat()
		switch op {
		case compiler.ADD:
			return compiler.FloatNumber(x + y), nil
		case compiler.SUB:
			return compiler.FloatNumber(x - y), nil
		case compiler.MUL:
			return compiler.FloatNumber(x * y), nil
		}
	}
	return compiler.Number{}, fmt.Errorf("%s is not an arithmetic opcode", op)
}

// compare evaluates a comparison operator, as integers when both sides are
// integral and as floats otherwise.
func compare(op string, a, b compiler.Number) (bool, error) {
	var c int
	if !a.IsFloat && !b.IsFloat {
		c = cmp.Compare(a.Int, b.Int)
	} else {
		c = cmp.Compare(a.AsFloat(), b.AsFloat())
	}
	switch op {
	case "==":
		return c == 0, nil
	case "!=":
		return c != 0, nil
	case "<":
		return c < 0, nil
	case ">":
		return c > 0, nil
	case "<=":
		return c <= 0, nil
	case ">=":
		return c >= 0, nil
	}
	return false, fmt.Errorf("unknown comparison %q", op)
}

// truth converts a comparison result to the integer stored by SET.
func truth(b bool) compiler.Number {
	if b {
		return compiler.IntNumber(1)
	}
	return compiler.IntNumber(0)
}
