package interp

import (
	"math"

	"github.com/LongLingMichael/renjin/common"
	"github.com/LongLingMichael/renjin/jimple"
)

// wrapperClasses maps the simple names of the runtime pointer wrappers to the
// element types of their arrays.
var wrapperClasses = map[string]jimple.PrimType{
	"DoublePtr":  jimple.Double,
	"FloatPtr":   jimple.Float,
	"LongPtr":    jimple.Long,
	"IntPtr":     jimple.Int,
	"ShortPtr":   jimple.Short,
	"CharPtr":    jimple.Byte,
	"BooleanPtr": jimple.Boolean,
}

// WrapperClass returns the runtime wrapper class of pointers to elements of a
// primitive type.
func WrapperClass(elem jimple.PrimType) string {
	for name, pt := range wrapperClasses {
		if pt == elem {
			return common.RuntimePackage + "." + name
		}
	}

	return ""
}

// NewPointer creates a runtime wrapper pointing at an element of an array.
func NewPointer(arr *Array, offset int32) *Object {
	obj := NewObject(WrapperClass(arr.Elem.(jimple.PrimType)))
	obj.Fields["array"] = arr
	obj.Fields["offset"] = offset
	return obj
}

// registerRuntime registers the natives every translated program may call:
// the root constructor, the wrapper constructors and java.lang.Math.
func (m *Machine) registerRuntime() {
	noop := func(*Machine, Value, []Value) Value { return nil }
	m.RegisterNative(jimple.ObjectType.Name, "<init>", noop)

	for name := range wrapperClasses {
		m.RegisterNative(common.RuntimePackage+"."+name, "<init>", func(_ *Machine, this Value, args []Value) Value {
			obj := this.(*Object)
			obj.Fields["array"] = args[0]
			obj.Fields["offset"] = args[1]
			return nil
		})
	}

	unary := map[string]func(float64) float64{
		"sqrt":  math.Sqrt,
		"sin":   math.Sin,
		"cos":   math.Cos,
		"tan":   math.Tan,
		"asin":  math.Asin,
		"acos":  math.Acos,
		"atan":  math.Atan,
		"exp":   math.Exp,
		"log":   math.Log,
		"log10": math.Log10,
		"floor": math.Floor,
		"ceil":  math.Ceil,
	}

	for name, fn := range unary {
		fn := fn
		m.RegisterNative("java.lang.Math", name, func(_ *Machine, _ Value, args []Value) Value {
			return fn(toFloat64(args[0]))
		})
	}

	binary := map[string]func(float64, float64) float64{
		"atan2": math.Atan2,
		"pow":   math.Pow,
	}

	for name, fn := range binary {
		fn := fn
		m.RegisterNative("java.lang.Math", name, func(_ *Machine, _ Value, args []Value) Value {
			return fn(toFloat64(args[0]), toFloat64(args[1]))
		})
	}

	m.RegisterNative("java.lang.Math", "abs", mathAbs)
	m.RegisterNative("java.lang.Math", "max", func(_ *Machine, _ Value, args []Value) Value {
		return mathMinMax(args[0], args[1], false)
	})
	m.RegisterNative("java.lang.Math", "min", func(_ *Machine, _ Value, args []Value) Value {
		return mathMinMax(args[0], args[1], true)
	})
}

func mathAbs(_ *Machine, _ Value, args []Value) Value {
	switch x := args[0].(type) {
	case int32:
		if x < 0 {
			return -x
		}

		return x
	case int64:
		if x < 0 {
			return -x
		}

		return x
	case float32:
		return float32(math.Abs(float64(x)))
	case float64:
		return math.Abs(x)
	}

	throw("java.lang.VerifyError", "abs of a reference")
	return nil
}

// mathMinMax follows java.lang.Math: a NaN operand yields NaN.
func mathMinMax(x, y Value, wantMin bool) Value {
	switch xv := x.(type) {
	case int32:
		yv := toInt32(y)
		if (xv < yv) == wantMin {
			return xv
		}

		return yv
	case int64:
		yv := y.(int64)
		if (xv < yv) == wantMin {
			return xv
		}

		return yv
	}

	xv, yv := toFloat64(x), toFloat64(y)
	var r float64
	switch {
	case math.IsNaN(xv) || math.IsNaN(yv):
		r = math.NaN()
	case wantMin:
		r = math.Min(xv, yv)
	default:
		r = math.Max(xv, yv)
	}

	if _, ok := x.(float32); ok {
		return float32(r)
	}

	return r
}
