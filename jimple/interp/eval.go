package interp

import (
	"math"

	"github.com/LongLingMichael/renjin/jimple"
)

// eval computes the value of an expression.
func (f *frame) eval(e jimple.Expr) Value {
	switch v := e.(type) {
	case *jimple.Local:
		value, ok := f.locals[v.Name]
		if !ok {
			throw("java.lang.VerifyError", "undeclared local `%s`", v.Name)
		}

		return value
	case *jimple.IntConst:
		return coerce(v.Value, v.T)
	case *jimple.FloatConst:
		return coerce(v.Value, v.T)
	case *jimple.StringConst:
		return v.Value
	case jimple.NullConst, *jimple.NullConst:
		return nil
	case *jimple.BinOp:
		return binop(v.Op, f.eval(v.X), f.eval(v.Y))
	case *jimple.Neg:
		return neg(f.eval(v.X))
	case *jimple.Cast:
		return f.cast(f.eval(v.X), v.To)
	case *jimple.ArrayElem:
		arr, i := f.element(v)
		return arr.Data[i]
	case *jimple.LengthOf:
		return int32(len(f.array(v.Array).Data))
	case *jimple.InstanceField:
		obj := f.object(v.Base)
		if value, ok := obj.Fields[v.Field.Name]; ok {
			return value
		}

		return Zero(v.Field.T)
	case *jimple.StaticField:
		return f.m.getStatic(v.Field)
	case *jimple.NewArray:
		size, ok := f.eval(v.Size).(int32)
		if !ok {
			throw("java.lang.VerifyError", "non-int array size `%s`", v.Size.Repr())
		} else if size < 0 {
			throw("java.lang.NegativeArraySizeException", "%d", size)
		}

		arr := &Array{Elem: v.Elem, Data: make([]Value, size)}
		for i := range arr.Data {
			arr.Data[i] = Zero(v.Elem)
		}

		return arr
	case *jimple.New:
		f.m.initClass(v.Class)
		return NewObject(v.Class)
	case *jimple.Invoke:
		return f.invoke(v)
	}

	throw("java.lang.VerifyError", "cannot evaluate `%s`", e.Repr())
	return nil
}

// store writes a value into an assignment target.
func (f *frame) store(lhs jimple.Expr, value Value) {
	switch v := lhs.(type) {
	case *jimple.Local:
		f.locals[v.Name] = coerce(value, v.T)
	case *jimple.ArrayElem:
		arr, i := f.element(v)
		arr.Data[i] = coerce(value, arr.Elem)
	case *jimple.InstanceField:
		f.object(v.Base).Fields[v.Field.Name] = coerce(value, v.Field.T)
	case *jimple.StaticField:
		f.m.setStatic(v.Field, value)
	default:
		throw("java.lang.VerifyError", "cannot assign to `%s`", lhs.Repr())
	}
}

func (f *frame) array(e jimple.Expr) *Array {
	switch v := f.eval(e).(type) {
	case *Array:
		return v
	case nil:
		throw("java.lang.NullPointerException", "`%s` is null", e.Repr())
	}

	throw("java.lang.VerifyError", "`%s` is not an array", e.Repr())
	return nil
}

func (f *frame) element(ae *jimple.ArrayElem) (*Array, int) {
	arr := f.array(ae.Array)

	idx, ok := f.eval(ae.Index).(int32)
	if !ok {
		throw("java.lang.VerifyError", "non-int index `%s`", ae.Index.Repr())
	} else if idx < 0 || int(idx) >= len(arr.Data) {
		throw("java.lang.ArrayIndexOutOfBoundsException", "index %d out of bounds for length %d", idx, len(arr.Data))
	}

	return arr, int(idx)
}

func (f *frame) object(e jimple.Expr) *Object {
	switch v := f.eval(e).(type) {
	case *Object:
		return v
	case nil:
		throw("java.lang.NullPointerException", "`%s` is null", e.Repr())
	}

	throw("java.lang.VerifyError", "`%s` is not an object", e.Repr())
	return nil
}

// -----------------------------------------------------------------------------

// test evaluates the condition of an if statement.
func (f *frame) test(c *jimple.Cond) bool {
	x, y := f.eval(c.X), f.eval(c.Y)

	switch xv := x.(type) {
	case int32:
		yv, ok := y.(int32)
		if !ok {
			throw("java.lang.VerifyError", "mismatched operands in `%s`", c.Repr())
		}

		return compareInts(c.Op, int64(xv), int64(yv))
	case int64, float32, float64:
		throw("java.lang.VerifyError", "`%s` compares non-int values", c.Repr())
	}

	// references are compared by identity
	switch c.Op {
	case jimple.CondEq:
		return x == y
	case jimple.CondNe:
		return x != y
	}

	throw("java.lang.VerifyError", "`%s` orders references", c.Repr())
	return false
}

func compareInts(op string, x, y int64) bool {
	switch op {
	case jimple.CondEq:
		return x == y
	case jimple.CondNe:
		return x != y
	case jimple.CondLt:
		return x < y
	case jimple.CondLe:
		return x <= y
	case jimple.CondGt:
		return x > y
	case jimple.CondGe:
		return x >= y
	}

	throw("java.lang.VerifyError", "unknown condition `%s`", op)
	return false
}

// -----------------------------------------------------------------------------

// binop applies an arithmetic, bitwise or comparison operator.  Both operands
// must share a slot type, except for the shift distance which is always an
// int.
func binop(op string, x, y Value) Value {
	switch op {
	case "cmp":
		xv, yv := x.(int64), y.(int64)
		return threeWay(xv < yv, xv > yv)
	case "cmpl", "cmpg":
		xv, yv := toFloat64(x), toFloat64(y)
		if math.IsNaN(xv) || math.IsNaN(yv) {
			if op == "cmpl" {
				return int32(-1)
			}

			return int32(1)
		}

		return threeWay(xv < yv, xv > yv)
	}

	switch xv := x.(type) {
	case int32:
		if op == "<<" || op == ">>" || op == ">>>" {
			return shift32(op, xv, toInt32(y))
		}

		return int32(intOp(op, int64(xv), int64(toInt32(y)), 32))
	case int64:
		if op == "<<" || op == ">>" || op == ">>>" {
			return shift64(op, xv, toInt32(y))
		}

		yv, ok := y.(int64)
		if !ok {
			throw("java.lang.VerifyError", "long `%s` applied to a non-long", op)
		}

		return intOp(op, xv, yv, 64)
	case float32:
		yv, ok := y.(float32)
		if !ok {
			throw("java.lang.VerifyError", "float `%s` applied to a non-float", op)
		}

		return float32(realOp(op, float64(xv), float64(yv)))
	case float64:
		yv, ok := y.(float64)
		if !ok {
			throw("java.lang.VerifyError", "double `%s` applied to a non-double", op)
		}

		return realOp(op, xv, yv)
	}

	throw("java.lang.VerifyError", "`%s` applied to a reference", op)
	return nil
}

func threeWay(lt, gt bool) int32 {
	switch {
	case lt:
		return -1
	case gt:
		return 1
	}

	return 0
}

func toInt32(v Value) int32 {
	if i, ok := v.(int32); ok {
		return i
	}

	throw("java.lang.VerifyError", "expected an int operand, got %s", Format(v))
	return 0
}

func toFloat64(v Value) float64 {
	switch x := v.(type) {
	case float32:
		return float64(x)
	case float64:
		return x
	}

	throw("java.lang.VerifyError", "expected a real operand, got %s", Format(v))
	return 0
}

// intOp applies an integer operator in the given width: results wrap around.
func intOp(op string, x, y int64, bits int) int64 {
	var r int64
	switch op {
	case "+":
		r = x + y
	case "-":
		r = x - y
	case "*":
		r = x * y
	case "/", "%":
		if y == 0 {
			throw("java.lang.ArithmeticException", "/ by zero")
		}

		// the JVM defines MIN / -1 as MIN
		if y == -1 {
			if op == "/" {
				r = -x
			} else {
				r = 0
			}
		} else if op == "/" {
			r = x / y
		} else {
			r = x % y
		}
	case "&":
		r = x & y
	case "|":
		r = x | y
	case "^":
		r = x ^ y
	default:
		throw("java.lang.VerifyError", "unknown integer operator `%s`", op)
	}

	if bits == 32 {
		return int64(int32(r))
	}

	return r
}

func shift32(op string, x, n int32) int32 {
	n &= 31
	switch op {
	case "<<":
		return x << n
	case ">>":
		return x >> n
	default:
		return int32(uint32(x) >> n)
	}
}

func shift64(op string, x int64, n int32) int64 {
	n &= 63
	switch op {
	case "<<":
		return x << n
	case ">>":
		return x >> n
	default:
		return int64(uint64(x) >> n)
	}
}

func realOp(op string, x, y float64) float64 {
	switch op {
	case "+":
		return x + y
	case "-":
		return x - y
	case "*":
		return x * y
	case "/":
		return x / y
	case "%":
		return math.Mod(x, y)
	}

	throw("java.lang.VerifyError", "unknown real operator `%s`", op)
	return 0
}

func neg(v Value) Value {
	switch x := v.(type) {
	case int32:
		return -x
	case int64:
		return -x
	case float32:
		return -x
	case float64:
		return -x
	}

	throw("java.lang.VerifyError", "neg applied to a reference")
	return nil
}

// -----------------------------------------------------------------------------

// cast applies a primitive conversion or a checked reference cast.
func (f *frame) cast(v Value, to jimple.Type) Value {
	switch t := to.(type) {
	case jimple.PrimType:
		switch v.(type) {
		case int32, int64, float32, float64:
			return coerce(v, t)
		}

		throw("java.lang.VerifyError", "reference cast to %s", t.Repr())
	case *jimple.ClassType:
		switch x := v.(type) {
		case nil:
			return nil
		case *Object:
			if !f.m.instanceOf(x.Class, t.Name) {
				throw("java.lang.ClassCastException", "%s cannot be cast to %s", x.Class, t.Name)
			}

			return x
		case string:
			if t.Name != jimple.StringType.Name && t.Name != jimple.ObjectType.Name {
				throw("java.lang.ClassCastException", "java.lang.String cannot be cast to %s", t.Name)
			}

			return x
		case *Array:
			if t.Name != jimple.ObjectType.Name {
				throw("java.lang.ClassCastException", "%s[] cannot be cast to %s", x.Elem.Repr(), t.Name)
			}

			return x
		}

		throw("java.lang.VerifyError", "primitive cast to %s", t.Name)
	case *jimple.ArrayType:
		switch x := v.(type) {
		case nil:
			return nil
		case *Array:
			if !jimple.SameType(x.Elem, t.Elem) {
				throw("java.lang.ClassCastException", "%s[] cannot be cast to %s", x.Elem.Repr(), t.Repr())
			}

			return x
		}

		throw("java.lang.ClassCastException", "%s cannot be cast to %s", Format(v), t.Repr())
	}

	return v
}

// instanceOf returns whether instances of class are assignable to target.
func (m *Machine) instanceOf(class, target string) bool {
	if class == target || target == jimple.ObjectType.Name {
		return true
	}

	cb, ok := m.out.Class(class)
	if !ok {
		return false
	}

	for _, iface := range cb.Interfaces {
		if m.instanceOf(iface, target) {
			return true
		}
	}

	return cb.Super != "" && cb.Super != class && m.instanceOf(cb.Super, target)
}

// -----------------------------------------------------------------------------

// invoke evaluates the arguments of a call and dispatches it.  Natives are
// consulted before the methods of the output.
func (f *frame) invoke(inv *jimple.Invoke) Value {
	var this Value
	class := inv.Method.Class

	if inv.Kind != jimple.InvokeStatic {
		this = f.eval(inv.Base)
		if this == nil {
			throw("java.lang.NullPointerException", "%s invoked on null", inv.Method.Name)
		}

		// dynamic dispatch on the receiver's class
		if inv.Kind == jimple.InvokeVirtual || inv.Kind == jimple.InvokeInterface {
			if obj, ok := this.(*Object); ok {
				class = obj.Class
			}
		}
	}

	args := make([]Value, len(inv.Args))
	for i, a := range inv.Args {
		args[i] = coerce(f.eval(a), inv.Method.Params[i])
	}

	if fn, ok := f.m.natives[class+"::"+inv.Method.Name]; ok {
		return fn(f.m, this, args)
	}

	mb, ok := f.m.method(class, inv.Method.Name)
	if !ok {
		throw("java.lang.NoSuchMethodError", "%s.%s", class, inv.Method.Name)
	} else if len(mb.Params) != len(args) {
		throw("java.lang.NoSuchMethodError", "%s.%s with %d arguments", class, inv.Method.Name, len(args))
	}

	if inv.Kind == jimple.InvokeStatic {
		f.m.initClass(class)
	}

	return f.m.call(mb, this, args)
}
