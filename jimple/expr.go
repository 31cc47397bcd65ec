package jimple

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Expr is a Jimple expression.  Jimple is a three address representation:
// operands of compound expressions are always locals or constants.
type Expr interface {
	Repr() string
	Type() Type
}

// Local is a reference to a declared local variable or parameter.
type Local struct {
	Name string
	T    Type
}

func (l *Local) Repr() string { return l.Name }
func (l *Local) Type() Type   { return l.T }

// IntConst is an integral constant of any integral primitive type.
type IntConst struct {
	Value int64
	T     PrimType
}

func (ic *IntConst) Repr() string {
	if ic.T == Long {
		return strconv.FormatInt(ic.Value, 10) + "L"
	}

	return strconv.FormatInt(ic.Value, 10)
}

func (ic *IntConst) Type() Type { return ic.T }

// FloatConst is a float or double constant.
type FloatConst struct {
	Value float64
	T     PrimType
}

func (fc *FloatConst) Repr() string {
	var s string
	switch {
	case math.IsNaN(fc.Value):
		s = "#NaN"
	case math.IsInf(fc.Value, 1):
		s = "#Infinity"
	case math.IsInf(fc.Value, -1):
		s = "#-Infinity"
	default:
		s = strconv.FormatFloat(fc.Value, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
	}

	if fc.T == Float {
		return s + "F"
	}

	return s
}

func (fc *FloatConst) Type() Type { return fc.T }

// StringConst is a string literal.
type StringConst struct {
	Value string
}

func (sc *StringConst) Repr() string { return strconv.Quote(sc.Value) }
func (sc *StringConst) Type() Type   { return StringType }

// NullConst is the null reference.
type NullConst struct{}

func (NullConst) Repr() string { return "null" }
func (NullConst) Type() Type   { return ObjectType }

// -----------------------------------------------------------------------------

// BinOp is a binary arithmetic, bitwise or three-way comparison operation.
// `cmp` compares longs, `cmpl` and `cmpg` compare reals and differ only in the
// result produced when either operand is NaN: -1 for `cmpl`, 1 for `cmpg`.
type BinOp struct {
	Op   string
	X, Y Expr
	T    PrimType
}

func (bo *BinOp) Repr() string {
	return fmt.Sprintf("%s %s %s", bo.X.Repr(), bo.Op, bo.Y.Repr())
}

func (bo *BinOp) Type() Type { return bo.T }

// Neg negates its operand.
type Neg struct {
	X Expr
}

func (n *Neg) Repr() string { return "neg " + n.X.Repr() }
func (n *Neg) Type() Type   { return n.X.Type() }

// Cast converts a primitive value to another primitive type or casts a
// reference to a class type.
type Cast struct {
	X  Expr
	To Type
}

func (c *Cast) Repr() string { return fmt.Sprintf("(%s) %s", c.To.Repr(), c.X.Repr()) }
func (c *Cast) Type() Type   { return c.To }

// ArrayElem is an element of an array: valid as both an operand and an
// assignment target.
type ArrayElem struct {
	Array Expr
	Index Expr
}

func (ae *ArrayElem) Repr() string {
	return fmt.Sprintf("%s[%s]", ae.Array.Repr(), ae.Index.Repr())
}

func (ae *ArrayElem) Type() Type {
	if at, ok := ae.Array.Type().(*ArrayType); ok {
		return at.Elem
	}

	return ObjectType
}

// LengthOf is the length of an array.
type LengthOf struct {
	Array Expr
}

func (lo *LengthOf) Repr() string { return "lengthof " + lo.Array.Repr() }
func (lo *LengthOf) Type() Type   { return Int }

// FieldRef identifies a field of a class.
type FieldRef struct {
	Class string
	Name  string
	T     Type
}

func (fr *FieldRef) Repr() string {
	return fmt.Sprintf("<%s: %s %s>", fr.Class, fr.T.Repr(), fr.Name)
}

// InstanceField is a field of an object.
type InstanceField struct {
	Base  Expr
	Field *FieldRef
}

func (inf *InstanceField) Repr() string { return inf.Base.Repr() + "." + inf.Field.Repr() }
func (inf *InstanceField) Type() Type   { return inf.Field.T }

// StaticField is a static field of a class.
type StaticField struct {
	Field *FieldRef
}

func (sf *StaticField) Repr() string { return sf.Field.Repr() }
func (sf *StaticField) Type() Type   { return sf.Field.T }

// NewArray allocates an array.
type NewArray struct {
	Elem Type
	Size Expr
}

func (na *NewArray) Repr() string {
	return fmt.Sprintf("newarray (%s)[%s]", na.Elem.Repr(), na.Size.Repr())
}

func (na *NewArray) Type() Type { return &ArrayType{Elem: na.Elem} }

// New allocates an object of a class.  Every field of the new object holds its
// zero value.
type New struct {
	Class string
}

func (n *New) Repr() string { return "new " + n.Class }
func (n *New) Type() Type   { return &ClassType{Name: n.Class} }

// -----------------------------------------------------------------------------

// InvokeKind is the dispatch kind of a method invocation.
type InvokeKind int

// Enumeration of invocation kinds.
const (
	InvokeStatic InvokeKind = iota
	InvokeVirtual
	InvokeInterface
	InvokeSpecial
)

var invokeKindNames = [...]string{"staticinvoke", "virtualinvoke", "interfaceinvoke", "specialinvoke"}

// MethodRef identifies a method by class, name and signature.
type MethodRef struct {
	Class  string
	Name   string
	Return Type
	Params []Type
}

func (mr *MethodRef) Repr() string {
	params := make([]string, len(mr.Params))
	for i, p := range mr.Params {
		params[i] = p.Repr()
	}

	return fmt.Sprintf("<%s: %s %s(%s)>", mr.Class, mr.Return.Repr(), mr.Name, strings.Join(params, ","))
}

// Invoke calls a method.  Base is nil for static invocations.
type Invoke struct {
	Kind   InvokeKind
	Base   Expr
	Method *MethodRef
	Args   []Expr
}

func (inv *Invoke) Repr() string {
	args := make([]string, len(inv.Args))
	for i, a := range inv.Args {
		args[i] = a.Repr()
	}

	if inv.Base == nil {
		return fmt.Sprintf("%s %s(%s)", invokeKindNames[inv.Kind], inv.Method.Repr(), strings.Join(args, ", "))
	}

	return fmt.Sprintf("%s %s.%s(%s)", invokeKindNames[inv.Kind], inv.Base.Repr(), inv.Method.Repr(), strings.Join(args, ", "))
}

func (inv *Invoke) Type() Type { return inv.Method.Return }

// -----------------------------------------------------------------------------

// Cond is the condition of an `if` statement: a relational comparison of two
// integral values or two references.
type Cond struct {
	Op   string
	X, Y Expr
}

func (c *Cond) Repr() string {
	return fmt.Sprintf("%s %s %s", c.X.Repr(), c.Op, c.Y.Repr())
}

// Enumeration of relational operators.
const (
	CondEq = "=="
	CondNe = "!="
	CondLt = "<"
	CondLe = "<="
	CondGt = ">"
	CondGe = ">="
)

// -----------------------------------------------------------------------------

// Convenience constructors used throughout the translator.

// IntLit returns an int constant.
func IntLit(v int64) *IntConst { return &IntConst{Value: v, T: Int} }

// Index returns the element expression `arr[idx]`.
func Index(arr, idx Expr) *ArrayElem { return &ArrayElem{Array: arr, Index: idx} }
