package gimple

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Expr is an operand of a GIMPLE instruction.
type Expr interface {
	Repr() string
}

// VariableRef is a reference to a local variable, a parameter or a global
// variable by its declaration identity.
type VariableRef struct {
	ID   int
	Name string
}

func (vr *VariableRef) Repr() string {
	return declRepr(vr.Name, vr.ID)
}

// FunctionRef names a function declaration.  Direct calls reference their
// callee through `&fn`.
type FunctionRef struct {
	ID   int
	Name string
}

func (fr *FunctionRef) Repr() string {
	return fr.Name
}

// AddressOf takes the address of its value.
type AddressOf struct {
	Value Expr
}

func (ao *AddressOf) Repr() string {
	return "&" + ao.Value.Repr()
}

// IntegerConstant is an integer (or null pointer) literal.
type IntegerConstant struct {
	Value int64
	Type  Type
}

func (ic *IntegerConstant) Repr() string {
	return strconv.FormatInt(ic.Value, 10)
}

// RealConstant is a floating-point literal.
type RealConstant struct {
	Value float64
	Type  Type
}

func (rc *RealConstant) Repr() string {
	switch {
	case math.IsNaN(rc.Value):
		return "NaN"
	case math.IsInf(rc.Value, 1):
		return "Inf"
	case math.IsInf(rc.Value, -1):
		return "-Inf"
	}

	return strconv.FormatFloat(rc.Value, 'g', -1, 64)
}

// StringConstant is a string literal.
type StringConstant struct {
	Value string
}

func (sc *StringConstant) Repr() string {
	return strconv.Quote(sc.Value)
}

// MemRef dereferences a pointer with a constant byte offset: `MEM[p + off]`.
type MemRef struct {
	Pointer Expr
	Offset  int64
}

func (mr *MemRef) Repr() string {
	if mr.Offset == 0 {
		return "*" + mr.Pointer.Repr()
	}

	return fmt.Sprintf("MEM[%s + %dB]", mr.Pointer.Repr(), mr.Offset)
}

// ArrayRef indexes an array.
type ArrayRef struct {
	Array Expr
	Index Expr
}

func (ar *ArrayRef) Repr() string {
	return ar.Array.Repr() + "[" + ar.Index.Repr() + "]"
}

// ComponentRef accesses a member of a record value.  The record value may
// itself be a dereference (`p->x` is `(*p).x`).
type ComponentRef struct {
	Value  Expr
	Member string
}

func (cr *ComponentRef) Repr() string {
	return cr.Value.Repr() + "." + cr.Member
}

// -----------------------------------------------------------------------------

// declRepr returns the display name of a declaration: GIMPLE temporaries have
// no name and are displayed by their identity.
func declRepr(name string, id int) string {
	if name == "" {
		return fmt.Sprintf("D.%d", id)
	}

	return fmt.Sprintf("%s_%d", name, id)
}

// exprListRepr returns a comma separated list of operands.
func exprListRepr(exprs []Expr) string {
	reprs := make([]string, len(exprs))
	for i, e := range exprs {
		reprs[i] = e.Repr()
	}

	return strings.Join(reprs, ", ")
}
