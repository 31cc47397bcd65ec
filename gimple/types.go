package gimple

import (
	"fmt"
	"strings"
)

// Type represents a GIMPLE type as it is dumped by the bridge plugin.  The set
// of types is closed: every type produced by the reader is one of the types
// defined in this file.
type Type interface {
	// Repr returns the canonical string representation of the type.  Two
	// types are structurally equal iff their representations are equal.
	Repr() string
}

// IntegerType is a fixed-width integral type.
type IntegerType struct {
	Precision int
	Unsigned  bool
}

func (it *IntegerType) Repr() string {
	if it.Unsigned {
		return fmt.Sprintf("uint%d", it.Precision)
	}

	return fmt.Sprintf("int%d", it.Precision)
}

// RealType is a floating-point type: precision is either 32 or 64.
type RealType struct {
	Precision int
}

func (rt *RealType) Repr() string {
	return fmt.Sprintf("real%d", rt.Precision)
}

// BooleanType is the C99 `_Bool` / Fortran `logical` type.
type BooleanType struct{}

func (BooleanType) Repr() string {
	return "bool"
}

// VoidType is the absence of a value.  It only appears as a return type or as
// the base type of an untyped pointer.
type VoidType struct{}

func (VoidType) Repr() string {
	return "void"
}

// -----------------------------------------------------------------------------

// PointerType is a pointer to a value of the base type.
type PointerType struct {
	Base Type
}

func (pt *PointerType) Repr() string {
	return "*" + pt.Base.Repr()
}

// ReferenceType is a C++/Fortran style reference.  It is represented exactly
// like a pointer.
type ReferenceType struct {
	Base Type
}

func (rt *ReferenceType) Repr() string {
	return "&" + rt.Base.Repr()
}

// ArrayType is a fixed-size array.  Fortran arrays may have a lower bound
// other than zero.  The upper bound is nil for arrays of unknown extent.
type ArrayType struct {
	Elem       Type
	LowerBound int64
	UpperBound *int64
}

func (at *ArrayType) Repr() string {
	if at.UpperBound == nil {
		return fmt.Sprintf("%s[%d..]", at.Elem.Repr(), at.LowerBound)
	}

	return fmt.Sprintf("%s[%d..%d]", at.Elem.Repr(), at.LowerBound, *at.UpperBound)
}

// Length returns the number of elements in the array.  It returns false if the
// array has no known extent.
func (at *ArrayType) Length() (int64, bool) {
	if at.UpperBound == nil {
		return 0, false
	}

	return *at.UpperBound - at.LowerBound + 1, true
}

// FunctionType is the signature of a function.  Function pointers are pointer
// types whose base type is a function type.
type FunctionType struct {
	ReturnType Type
	ArgTypes   []Type
}

func (ft *FunctionType) Repr() string {
	sb := strings.Builder{}
	sb.WriteString("fn(")

	for i, arg := range ft.ArgTypes {
		if i > 0 {
			sb.WriteString(", ")
		}

		sb.WriteString(arg.Repr())
	}

	sb.WriteString(") ")
	sb.WriteString(ft.ReturnType.Repr())
	return sb.String()
}

// RecordType is a reference to a struct definition in the enclosing unit.
type RecordType struct {
	ID   int
	Name string
}

func (rt *RecordType) Repr() string {
	if rt.Name == "" {
		return fmt.Sprintf("struct#%d", rt.ID)
	}

	return "struct " + rt.Name
}

// -----------------------------------------------------------------------------

// BaseType returns the base type of a pointer or reference or the element type
// of an array.  All other types have no base type.
func BaseType(t Type) (Type, error) {
	switch v := t.(type) {
	case *PointerType:
		return v.Base, nil
	case *ReferenceType:
		return v.Base, nil
	case *ArrayType:
		return v.Elem, nil
	}

	return nil, fmt.Errorf("type `%s` has no base type", t.Repr())
}

// IsPointer returns whether the type is a pointer or a reference.
func IsPointer(t Type) bool {
	switch t.(type) {
	case *PointerType, *ReferenceType:
		return true
	}

	return false
}

// IsVoidPointer returns whether t is an untyped pointer.
func IsVoidPointer(t Type) bool {
	if !IsPointer(t) {
		return false
	}

	base, _ := BaseType(t)
	_, ok := base.(VoidType)
	return ok
}

// IsFunctionPointer returns whether t is a pointer to a function.  If it is,
// the pointed-to signature is also returned.
func IsFunctionPointer(t Type) (*FunctionType, bool) {
	if !IsPointer(t) {
		return nil, false
	}

	base, _ := BaseType(t)
	ft, ok := base.(*FunctionType)
	return ft, ok
}

// SameType returns whether two types are structurally equal.
func SameType(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}

	return a.Repr() == b.Repr()
}
