package translate

import (
	"github.com/LongLingMichael/renjin/common"
	"github.com/LongLingMichael/renjin/gimple"
	"github.com/LongLingMichael/renjin/jimple"
)

// PrimKind is a primitive kind of the type model: the target representation
// of a native scalar together with its native storage size.
type PrimKind int

// Enumeration of primitive kinds.
const (
	PrimDouble PrimKind = iota
	PrimFloat
	PrimLong
	PrimInt
	PrimShort
	PrimChar // 8-bit integer
	PrimBoolean
)

// Size returns the native size of the kind in bytes.  Native pointer
// arithmetic is expressed in bytes while the target indexes arrays by element,
// so every byte offset is divided by the size of the pointee kind.
func (pk PrimKind) Size() int64 {
	switch pk {
	case PrimDouble, PrimLong:
		return 8
	case PrimFloat, PrimInt:
		return 4
	case PrimShort:
		return 2
	default: // PrimChar, PrimBoolean
		return 1
	}
}

// JimpleType returns the target primitive type of the kind.
func (pk PrimKind) JimpleType() jimple.PrimType {
	switch pk {
	case PrimDouble:
		return jimple.Double
	case PrimFloat:
		return jimple.Float
	case PrimLong:
		return jimple.Long
	case PrimInt:
		return jimple.Int
	case PrimShort:
		return jimple.Short
	case PrimChar:
		return jimple.Byte
	default: // PrimBoolean
		return jimple.Boolean
	}
}

// IsReal returns whether the kind is a floating-point kind.
func (pk PrimKind) IsReal() bool {
	return pk == PrimDouble || pk == PrimFloat
}

func (pk PrimKind) String() string {
	return pk.JimpleType().Repr()
}

// WrapperClass returns the name of the runtime class that wraps an (array,
// offset) pointer to values of this kind.
func (pk PrimKind) WrapperClass() string {
	switch pk {
	case PrimDouble:
		return common.RuntimePackage + ".DoublePtr"
	case PrimFloat:
		return common.RuntimePackage + ".FloatPtr"
	case PrimLong:
		return common.RuntimePackage + ".LongPtr"
	case PrimInt:
		return common.RuntimePackage + ".IntPtr"
	case PrimShort:
		return common.RuntimePackage + ".ShortPtr"
	case PrimChar:
		return common.RuntimePackage + ".CharPtr"
	default: // PrimBoolean
		return common.RuntimePackage + ".BooleanPtr"
	}
}

// ArrayType returns the target array type holding values of this kind.
func (pk PrimKind) ArrayType() *jimple.ArrayType {
	return &jimple.ArrayType{Elem: pk.JimpleType()}
}

// primKinds lists every kind in enumeration order.
var primKinds = []PrimKind{PrimDouble, PrimFloat, PrimLong, PrimInt, PrimShort, PrimChar, PrimBoolean}

// -----------------------------------------------------------------------------

// PrimKindOf returns the primitive kind of a native scalar type.
func PrimKindOf(t gimple.Type) (PrimKind, bool) {
	switch v := t.(type) {
	case *gimple.RealType:
		switch v.Precision {
		case 32:
			return PrimFloat, true
		case 64:
			return PrimDouble, true
		}
	case *gimple.IntegerType:
		switch v.Precision {
		case 8:
			return PrimChar, true
		case 16:
			return PrimShort, true
		case 32:
			return PrimInt, true
		case 64:
			return PrimLong, true
		}
	case gimple.BooleanType:
		return PrimBoolean, true
	}

	return 0, false
}

// primKindOfJimple returns the primitive kind represented by a target
// primitive type.
func primKindOfJimple(t jimple.Type) (PrimKind, bool) {
	pt, ok := t.(jimple.PrimType)
	if !ok {
		return 0, false
	}

	for _, pk := range primKinds {
		if pk.JimpleType() == pt {
			return pk, true
		}
	}

	return 0, false
}

// wrapperKind returns the element kind of a pointer wrapper class.
func wrapperKind(t jimple.Type) (PrimKind, bool) {
	ct, ok := t.(*jimple.ClassType)
	if !ok {
		return 0, false
	}

	for _, pk := range primKinds {
		if pk.WrapperClass() == ct.Name {
			return pk, true
		}
	}

	return 0, false
}

// wrapperArrayField returns the `array` field of the wrapper class for kind.
func wrapperArrayField(pk PrimKind) *jimple.FieldRef {
	return &jimple.FieldRef{Class: pk.WrapperClass(), Name: "array", T: pk.ArrayType()}
}

// wrapperOffsetField returns the `offset` field of the wrapper class for kind.
func wrapperOffsetField(pk PrimKind) *jimple.FieldRef {
	return &jimple.FieldRef{Class: pk.WrapperClass(), Name: "offset", T: jimple.Int}
}

// wrapperConstructor returns the `(array, offset)` constructor of the wrapper
// class for kind.
func wrapperConstructor(pk PrimKind) *jimple.MethodRef {
	return &jimple.MethodRef{
		Class:  pk.WrapperClass(),
		Name:   "<init>",
		Return: jimple.Void,
		Params: []jimple.Type{pk.ArrayType(), jimple.Int},
	}
}

// constant returns a literal of the given kind.
func constant(pk PrimKind, value float64) jimple.Expr {
	if pk.IsReal() {
		return &jimple.FloatConst{Value: value, T: pk.JimpleType()}
	}

	return &jimple.IntConst{Value: int64(value), T: pk.JimpleType()}
}

// intConstant returns an integral literal of the given kind.  Large 64-bit
// constants must not round trip through float64.
func intConstant(pk PrimKind, value int64) jimple.Expr {
	if pk.IsReal() {
		return &jimple.FloatConst{Value: float64(value), T: pk.JimpleType()}
	}

	return &jimple.IntConst{Value: value, T: pk.JimpleType()}
}
