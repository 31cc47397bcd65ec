package translate

import (
	"github.com/LongLingMichael/renjin/gimple"
	"github.com/LongLingMichael/renjin/jimple"
)

// Variable is the target storage of a single native declaration.  Each
// implementation corresponds to one variable kind.
type Variable interface {
	// Decl returns the declaration the variable stores.
	Decl() *gimple.VarDecl

	// Kind returns the storage representation of the variable.
	Kind() VarKind
}

// -----------------------------------------------------------------------------

// scalarVar is a primitive scalar.  It is held in a local slot unless its
// address is taken in which case it is boxed in a single-element array.  Global
// scalars live in a static field which always holds a box.  External fields
// are static fields holding the value directly.
type scalarVar struct {
	decl  *gimple.VarDecl
	kind  PrimKind
	boxed bool

	// exactly one of local and field is set
	local *jimple.Local
	field *jimple.FieldRef
}

func (sv *scalarVar) Decl() *gimple.VarDecl { return sv.decl }

func (sv *scalarVar) Kind() VarKind {
	if sv.boxed {
		return KindHeapScalar
	}

	return KindStackScalar
}

// box returns the single-element array holding a boxed scalar.
func (sv *scalarVar) box(fc *FunctionContext) jimple.Expr {
	if sv.local != nil {
		return sv.local
	}

	return fc.materialize(&jimple.StaticField{Field: sv.field})
}

// ref returns an expression usable both as an operand and as an assignment
// target.
func (sv *scalarVar) ref(fc *FunctionContext) jimple.Expr {
	switch {
	case sv.boxed:
		return jimple.Index(sv.box(fc), jimple.IntLit(0))
	case sv.local != nil:
		return sv.local
	default:
		return &jimple.StaticField{Field: sv.field}
	}
}

// arrayVar is a fixed-size array of primitives.
type arrayVar struct {
	decl  *gimple.VarDecl
	elem  PrimKind
	lower int64

	local *jimple.Local
	field *jimple.FieldRef
}

func (av *arrayVar) Decl() *gimple.VarDecl { return av.decl }
func (av *arrayVar) Kind() VarKind         { return KindPrimitiveArray }

// array returns the target array holding the elements.
func (av *arrayVar) array(fc *FunctionContext) jimple.Expr {
	if av.local != nil {
		return av.local
	}

	return fc.materialize(&jimple.StaticField{Field: av.field})
}

// pointerVar is a pointer to primitives held as an (array, offset) pair.  The
// offset is in elements, not bytes.
type pointerVar struct {
	decl  *gimple.VarDecl
	elem  PrimKind
	lower int64

	array  *jimple.Local
	offset *jimple.Local
}

func (pv *pointerVar) Decl() *gimple.VarDecl { return pv.decl }
func (pv *pointerVar) Kind() VarKind         { return KindPrimitivePointer }

// recordVar is a record value: an instance of the record class allocated on
// entry to the function.
type recordVar struct {
	decl  *gimple.VarDecl
	rec   *recordClass
	local *jimple.Local
}

func (rv *recordVar) Decl() *gimple.VarDecl { return rv.decl }
func (rv *recordVar) Kind() VarKind         { return KindRecord }

// recordPtrVar is a pointer to a record.
type recordPtrVar struct {
	decl  *gimple.VarDecl
	rec   *recordClass
	local *jimple.Local
}

func (rv *recordPtrVar) Decl() *gimple.VarDecl { return rv.decl }
func (rv *recordPtrVar) Kind() VarKind         { return KindRecordPointer }

// funPtrVar is a function pointer: a reference to an instance of the
// signature's interface.
type funPtrVar struct {
	decl  *gimple.VarDecl
	iface *funPtrInterface
	local *jimple.Local
}

func (fv *funPtrVar) Decl() *gimple.VarDecl { return fv.decl }
func (fv *funPtrVar) Kind() VarKind         { return KindFunctionPointer }

// opaqueVar is an untyped pointer whose pointee could not be deduced.
type opaqueVar struct {
	decl  *gimple.VarDecl
	local *jimple.Local
}

func (ov *opaqueVar) Decl() *gimple.VarDecl { return ov.decl }
func (ov *opaqueVar) Kind() VarKind         { return KindOpaquePointer }
