package gimple

import (
	"fmt"
	"strings"
)

// Ins is a single GIMPLE instruction inside a basic block.
type Ins interface {
	Repr() string
}

// Assign computes `LHS = Op(Operands...)`.
type Assign struct {
	Op       Op
	LHS      Expr
	Operands []Expr
}

func (a *Assign) Repr() string {
	return fmt.Sprintf("%s = %s;", a.LHS.Repr(), opRepr(a.Op, a.Operands))
}

// Conditional branches to one of two basic blocks depending on the result of a
// comparison.
type Conditional struct {
	Op         Op
	Operands   []Expr
	TrueLabel  int
	FalseLabel int
}

func (c *Conditional) Repr() string {
	return fmt.Sprintf("if (%s) goto <bb %d>; else goto <bb %d>;", opRepr(c.Op, c.Operands), c.TrueLabel, c.FalseLabel)
}

// Call invokes a function.  LHS is nil if the result is discarded.  Function is
// either `&fn` for a direct call or a function pointer variable.
type Call struct {
	LHS       Expr
	Function  Expr
	Arguments []Expr
}

func (c *Call) Repr() string {
	call := fmt.Sprintf("%s (%s);", c.Function.Repr(), exprListRepr(c.Arguments))
	if c.LHS != nil {
		return c.LHS.Repr() + " = " + call
	}

	return call
}

// Goto is an unconditional branch.
type Goto struct {
	Target int
}

func (g *Goto) Repr() string {
	return fmt.Sprintf("goto <bb %d>;", g.Target)
}

// Return leaves the function; Value is nil for void functions.
type Return struct {
	Value Expr
}

func (r *Return) Repr() string {
	if r.Value == nil {
		return "return;"
	}

	return "return " + r.Value.Repr() + ";"
}

// Nop does nothing.
type Nop struct{}

func (Nop) Repr() string {
	return "nop;"
}

// -----------------------------------------------------------------------------

// opRepr displays an operator applied to operands in a GIMPLE-like syntax.
func opRepr(op Op, operands []Expr) string {
	if sym, ok := opSymbols[op]; ok && len(operands) == 2 {
		return fmt.Sprintf("%s %s %s", operands[0].Repr(), sym, operands[1].Repr())
	}

	if op.IsCopy() && len(operands) == 1 {
		if op == OpNop || op == OpConvert {
			return "(cast) " + operands[0].Repr()
		}

		return operands[0].Repr()
	}

	switch op {
	case OpIntegerCst, OpRealCst, OpStringCst, OpArrayRef, OpMemRef, OpComponentRef, OpAddrExpr:
		if len(operands) == 1 {
			return operands[0].Repr()
		}
	}

	return strings.ToUpper(string(op)) + " <" + exprListRepr(operands) + ">"
}
