package interp

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/LongLingMichael/renjin/jimple"
)

// Value is a runtime value.  Primitives are held in the Go type of their
// stack slot: int32 for every int-like type, int64, float32 and float64.
// References are *Array, *Object, string or nil for null.
type Value interface{}

// Array is a runtime array.
type Array struct {
	Elem jimple.Type
	Data []Value
}

// NewArray creates an array holding the given values coerced to the element
// type.
func NewArray(elem jimple.Type, values ...Value) *Array {
	arr := &Array{Elem: elem, Data: make([]Value, len(values))}
	for i, v := range values {
		arr.Data[i] = coerce(v, elem)
	}

	return arr
}

// Object is a runtime object.  Fields not yet written hold the zero value of
// their type.
type Object struct {
	Class  string
	Fields map[string]Value
}

// NewObject creates an object with no fields set.
func NewObject(class string) *Object {
	return &Object{Class: class, Fields: make(map[string]Value)}
}

// -----------------------------------------------------------------------------

// Zero returns the default value of a type.
func Zero(t jimple.Type) Value {
	pt, ok := t.(jimple.PrimType)
	if !ok {
		return nil
	}

	switch pt {
	case jimple.Long:
		return int64(0)
	case jimple.Float:
		return float32(0)
	case jimple.Double:
		return float64(0)
	case jimple.Void:
		return nil
	default:
		return int32(0)
	}
}

// coerce converts a value to the representation of a primitive type with Java
// conversion semantics.  References are returned unchanged.
func coerce(v Value, t jimple.Type) Value {
	pt, ok := t.(jimple.PrimType)
	if !ok || pt == jimple.Void {
		return v
	}

	switch x := v.(type) {
	case int32:
		return fromInt64(int64(x), pt)
	case int64:
		return fromInt64(x, pt)
	case float32:
		return fromFloat64(float64(x), pt)
	case float64:
		return fromFloat64(x, pt)
	case bool:
		if x {
			return fromInt64(1, pt)
		}

		return fromInt64(0, pt)
	case int:
		return fromInt64(int64(x), pt)
	}

	return v
}

func fromInt64(x int64, pt jimple.PrimType) Value {
	switch pt {
	case jimple.Long:
		return x
	case jimple.Float:
		return float32(x)
	case jimple.Double:
		return float64(x)
	case jimple.Byte:
		return int32(int8(x))
	case jimple.Short:
		return int32(int16(x))
	case jimple.Char:
		return int32(uint16(x))
	case jimple.Boolean:
		return int32(x & 1)
	default:
		return int32(x)
	}
}

// fromFloat64 converts a real with the JVM's saturating semantics: NaN becomes
// zero and out of range values clamp to the extremes of the target.
func fromFloat64(x float64, pt jimple.PrimType) Value {
	switch pt {
	case jimple.Float:
		return float32(x)
	case jimple.Double:
		return x
	case jimple.Long:
		switch {
		case math.IsNaN(x):
			return int64(0)
		case x >= math.MaxInt64:
			return int64(math.MaxInt64)
		case x <= math.MinInt64:
			return int64(math.MinInt64)
		}

		return int64(x)
	}

	var i int32
	switch {
	case math.IsNaN(x):
		i = 0
	case x >= math.MaxInt32:
		i = math.MaxInt32
	case x <= math.MinInt32:
		i = math.MinInt32
	default:
		i = int32(x)
	}

	return fromInt64(int64(i), pt)
}

// -----------------------------------------------------------------------------

// ParseValue parses the textual form of a primitive argument.
func ParseValue(s string, t jimple.Type) (Value, error) {
	pt, ok := t.(jimple.PrimType)
	if !ok {
		return nil, fmt.Errorf("cannot parse a value of type %s", t.Repr())
	}

	s = strings.TrimSpace(s)
	if pt.IsReal() {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s `%s`", pt.Repr(), s)
		}

		return coerce(f, pt), nil
	}

	if pt == jimple.Boolean {
		switch s {
		case "true":
			return int32(1), nil
		case "false":
			return int32(0), nil
		}
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s `%s`", pt.Repr(), s)
	}

	return coerce(n, pt), nil
}

// Format returns a printable form of a value.
func Format(v Value) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case *Array:
		items := make([]string, len(x.Data))
		for i, item := range x.Data {
			items[i] = Format(item)
		}

		return x.Elem.Repr() + "[" + strings.Join(items, ", ") + "]"
	case *Object:
		return x.Class + "@object"
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return strconv.Quote(x)
	}

	return fmt.Sprint(v)
}
