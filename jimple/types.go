package jimple

import (
	"fmt"
	"strings"

	"github.com/LongLingMichael/renjin/common"
)

// Type is a target (JVM) type.
type Type interface {
	// Repr returns the Jimple spelling of the type.
	Repr() string

	// Descriptor returns a short mangled spelling of the type used to derive
	// synthetic class names.
	Descriptor() string
}

// PrimType is a JVM primitive type.
type PrimType int

// Enumeration of primitive types.
const (
	Void PrimType = iota
	Boolean
	Byte
	Char
	Short
	Int
	Long
	Float
	Double
)

func (pt PrimType) Repr() string {
	switch pt {
	case Void:
		return "void"
	case Boolean:
		return "boolean"
	case Byte:
		return "byte"
	case Char:
		return "char"
	case Short:
		return "short"
	case Int:
		return "int"
	case Long:
		return "long"
	case Float:
		return "float"
	default: // Double
		return "double"
	}
}

func (pt PrimType) Descriptor() string {
	switch pt {
	case Void:
		return "V"
	case Boolean:
		return "Z"
	case Byte:
		return "B"
	case Char:
		return "C"
	case Short:
		return "S"
	case Int:
		return "I"
	case Long:
		return "J"
	case Float:
		return "F"
	default: // Double
		return "D"
	}
}

// IsIntegral returns whether values of this type are held in an int or long
// slot and compared directly.
func (pt PrimType) IsIntegral() bool {
	switch pt {
	case Boolean, Byte, Char, Short, Int, Long:
		return true
	}

	return false
}

// IsReal returns whether the type is float or double.
func (pt PrimType) IsReal() bool {
	return pt == Float || pt == Double
}

// -----------------------------------------------------------------------------

// ArrayType is a JVM array of some element type.
type ArrayType struct {
	Elem Type
}

func (at *ArrayType) Repr() string {
	return at.Elem.Repr() + "[]"
}

func (at *ArrayType) Descriptor() string {
	return "A" + at.Elem.Descriptor()
}

// ClassType is a reference to a class or interface by its fully qualified
// name.
type ClassType struct {
	Name string
}

func (ct *ClassType) Repr() string {
	return ct.Name
}

func (ct *ClassType) Descriptor() string {
	return "L" + SimpleName(ct.Name)
}

// ObjectType is `java.lang.Object`.
var ObjectType = &ClassType{Name: "java.lang.Object"}

// StringType is `java.lang.String`.
var StringType = &ClassType{Name: "java.lang.String"}

// -----------------------------------------------------------------------------

// SameType returns whether two target types are equal.
func SameType(a, b Type) bool {
	return a.Repr() == b.Repr()
}

// SimpleName returns the last component of a fully qualified class name.
func SimpleName(fqcn string) string {
	if i := strings.LastIndexAny(fqcn, ".$"); i >= 0 {
		return fqcn[i+1:]
	}

	return fqcn
}

// ID converts a native identifier into a valid Jimple identifier.
func ID(name string) string {
	return strings.ReplaceAll(name, ".", "$")
}

// ParseType parses the Jimple spelling of a type: a primitive name, a fully
// qualified class name or either followed by `[]`.  Simple names ending in
// `Ptr` refer to the runtime pointer wrappers.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)

	if strings.HasSuffix(s, "[]") {
		elem, err := ParseType(strings.TrimSuffix(s, "[]"))
		if err != nil {
			return nil, err
		}

		if elem == Void {
			return nil, fmt.Errorf("invalid array of void `%s`", s)
		}

		return &ArrayType{Elem: elem}, nil
	}

	for pt := Void; pt <= Double; pt++ {
		if pt.Repr() == s {
			return pt, nil
		}
	}

	if s == "" || strings.ContainsAny(s, " \t[]()<>;,") {
		return nil, fmt.Errorf("invalid type `%s`", s)
	}

	if !strings.Contains(s, ".") && strings.HasSuffix(s, "Ptr") {
		return &ClassType{Name: common.RuntimePackage + "." + s}, nil
	}

	return &ClassType{Name: s}, nil
}
