package translate

import (
	"github.com/LongLingMichael/renjin/gimple"
)

// VarUsage records how a declaration is used within a function.
type VarUsage struct {
	// AddressTaken is true if any instruction computes the address of the
	// declaration rather than reading or writing its value.
	AddressTaken bool
}

// UsageFacts maps declaration identity to usage for one function.
type UsageFacts map[int]VarUsage

// Of returns the usage of a declaration: declarations never mentioned are not
// address-taken.
func (uf UsageFacts) Of(id int) VarUsage {
	return uf[id]
}

// AnalyzeUsage computes the address-taken facts for every declaration
// referenced by a function.
func AnalyzeUsage(fn *gimple.Function) UsageFacts {
	facts := make(UsageFacts)

	fn.ForEachIns(func(_ *gimple.BasicBlock, ins gimple.Ins) {
		for _, e := range insOperands(ins) {
			visitAddresses(e, facts)
		}
	})

	for _, decl := range fn.VarDecls {
		if decl.Value != nil {
			visitAddresses(decl.Value, facts)
		}
	}

	return facts
}

// insOperands returns every expression directly referenced by an instruction.
func insOperands(ins gimple.Ins) []gimple.Expr {
	switch v := ins.(type) {
	case *gimple.Assign:
		return append([]gimple.Expr{v.LHS}, v.Operands...)
	case *gimple.Conditional:
		return v.Operands
	case *gimple.Call:
		exprs := append([]gimple.Expr{v.Function}, v.Arguments...)
		if v.LHS != nil {
			exprs = append(exprs, v.LHS)
		}

		return exprs
	case *gimple.Return:
		if v.Value != nil {
			return []gimple.Expr{v.Value}
		}
	}

	return nil
}

// visitAddresses walks an expression marking the root declaration of every
// `addr_expr` as address-taken.
func visitAddresses(e gimple.Expr, facts UsageFacts) {
	switch v := e.(type) {
	case *gimple.AddressOf:
		if ref := rootVariable(v.Value); ref != nil {
			facts[ref.ID] = VarUsage{AddressTaken: true}
		}

		visitAddresses(v.Value, facts)
	case *gimple.ArrayRef:
		visitAddresses(v.Array, facts)
		visitAddresses(v.Index, facts)
	case *gimple.MemRef:
		visitAddresses(v.Pointer, facts)
	case *gimple.ComponentRef:
		visitAddresses(v.Value, facts)
	}
}

// rootVariable returns the variable whose storage an lvalue expression lives
// in, or nil if the storage is reached through a pointer.
func rootVariable(e gimple.Expr) *gimple.VariableRef {
	switch v := e.(type) {
	case *gimple.VariableRef:
		return v
	case *gimple.ArrayRef:
		return rootVariable(v.Array)
	case *gimple.ComponentRef:
		return rootVariable(v.Value)
	}

	return nil
}

// -----------------------------------------------------------------------------

// VarKind is the storage representation chosen for a declaration.
type VarKind int

// Enumeration of variable kinds.
const (
	KindStackScalar      VarKind = iota // scalar held in a local slot
	KindHeapScalar                      // scalar boxed in a single-element array
	KindPrimitiveArray                  // array of primitives
	KindPrimitivePointer                // (array, offset) pair
	KindRecord                          // record value: an object allocated at entry
	KindRecordPointer                   // object reference to a record
	KindFunctionPointer                 // reference to a synthesized interface instance
	KindOpaquePointer                   // unresolved void pointer held as an Object
)

var varKindNames = [...]string{
	"stack scalar",
	"heap scalar",
	"primitive array",
	"primitive pointer",
	"record",
	"record pointer",
	"function pointer",
	"opaque pointer",
}

func (vk VarKind) String() string {
	return varKindNames[vk]
}

// Classify decides the storage representation of a declaration of type t with
// the given usage.
func Classify(t gimple.Type, usage VarUsage) (VarKind, bool) {
	if _, ok := PrimKindOf(t); ok {
		if usage.AddressTaken {
			return KindHeapScalar, true
		}

		return KindStackScalar, true
	}

	switch v := t.(type) {
	case *gimple.ArrayType:
		if _, ok := PrimKindOf(v.Elem); ok {
			return KindPrimitiveArray, true
		}
	case *gimple.RecordType:
		return KindRecord, true
	case *gimple.PointerType, *gimple.ReferenceType:
		base, _ := gimple.BaseType(t)

		switch bv := base.(type) {
		case gimple.VoidType:
			return KindOpaquePointer, true
		case *gimple.FunctionType:
			return KindFunctionPointer, true
		case *gimple.RecordType:
			return KindRecordPointer, true
		case *gimple.ArrayType:
			if _, ok := PrimKindOf(bv.Elem); ok {
				return KindPrimitivePointer, true
			}
		default:
			if _, ok := PrimKindOf(base); ok {
				return KindPrimitivePointer, true
			}
		}
	}

	return 0, false
}
