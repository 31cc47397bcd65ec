package translate

import (
	"github.com/LongLingMichael/renjin/gimple"
	"github.com/LongLingMichael/renjin/jimple"
	"github.com/LongLingMichael/renjin/report"
)

// TypeDescriptor describes the target representation of a native type: the
// target types used when a value of the type crosses a function boundary or is
// stored in a field, and a factory for variables of the type.
type TypeDescriptor interface {
	ParamType() jimple.Type
	ReturnType() jimple.Type
	FieldType() jimple.Type

	// CreateVariable declares the storage of a variable of this type in the
	// function context and returns it.
	CreateVariable(fc *FunctionContext, decl *gimple.VarDecl, usage VarUsage) Variable
}

// ResolveType returns the descriptor of a native type.  It is total over the
// closed set of native types: a combination with no representation raises an
// unsupported construct failure.
func (tc *TranslationContext) ResolveType(t gimple.Type) TypeDescriptor {
	if pk, ok := PrimKindOf(t); ok {
		return primitiveDescriptor{kind: pk}
	}

	switch v := t.(type) {
	case gimple.VoidType:
		return voidDescriptor{}
	case *gimple.IntegerType, *gimple.RealType:
		panic(report.Unsupported("%s has no primitive representation", t.Repr()))
	case *gimple.ArrayType:
		pk, ok := PrimKindOf(v.Elem)
		if !ok {
			panic(report.Unsupported("arrays of %s are not supported", v.Elem.Repr()))
		}

		return arrayDescriptor{elem: pk, at: v}
	case *gimple.RecordType:
		return recordDescriptor{rec: tc.recordClass(v)}
	case *gimple.PointerType, *gimple.ReferenceType:
		return tc.resolvePointerType(t)
	case *gimple.FunctionType:
		panic(report.Unsupported("function type %s used as a value type", t.Repr()))
	case gimple.BooleanType:
		// handled by PrimKindOf
	}

	panic(report.Unresolved("unknown type %s", t.Repr()))
}

func (tc *TranslationContext) resolvePointerType(t gimple.Type) TypeDescriptor {
	base, _ := gimple.BaseType(t)

	if pk, ok := PrimKindOf(base); ok {
		return pointerDescriptor{elem: pk}
	}

	switch bv := base.(type) {
	case gimple.VoidType:
		return opaqueDescriptor{}
	case *gimple.FunctionType:
		return funPtrDescriptor{sig: bv, iface: tc.funPtrs.Resolve(bv)}
	case *gimple.RecordType:
		return recordPtrDescriptor{rec: tc.recordClass(bv)}
	case *gimple.ArrayType:
		if pk, ok := PrimKindOf(bv.Elem); ok {
			return pointerDescriptor{elem: pk, lower: bv.LowerBound}
		}
	case *gimple.PointerType, *gimple.ReferenceType:
		panic(report.Unsupported("pointers to pointers (%s) are not supported", t.Repr()))
	}

	panic(report.Unsupported("pointers to %s are not supported", base.Repr()))
}

// -----------------------------------------------------------------------------

// primitiveDescriptor describes a scalar.
type primitiveDescriptor struct {
	kind PrimKind
}

func (pd primitiveDescriptor) ParamType() jimple.Type  { return pd.kind.JimpleType() }
func (pd primitiveDescriptor) ReturnType() jimple.Type { return pd.kind.JimpleType() }
func (pd primitiveDescriptor) FieldType() jimple.Type  { return pd.kind.JimpleType() }

func (pd primitiveDescriptor) CreateVariable(fc *FunctionContext, decl *gimple.VarDecl, usage VarUsage) Variable {
	kind, _ := Classify(decl.Type, usage)

	v := &scalarVar{decl: decl, kind: pd.kind, boxed: kind == KindHeapScalar}
	if v.boxed {
		v.local = fc.builder.AddLocal(pd.kind.ArrayType(), localName(decl))
		fc.builder.AddAssignment(v.local, &jimple.NewArray{Elem: pd.kind.JimpleType(), Size: jimple.IntLit(1)})
	} else {
		v.local = fc.builder.AddLocal(pd.kind.JimpleType(), localName(decl))
		fc.builder.AddAssignment(v.local, constant(pd.kind, 0))
	}

	return v
}

// voidDescriptor describes the absence of a return value.
type voidDescriptor struct{}

func (voidDescriptor) ParamType() jimple.Type {
	panic(report.Unsupported("void parameter"))
}

func (voidDescriptor) ReturnType() jimple.Type { return jimple.Void }

func (voidDescriptor) FieldType() jimple.Type {
	panic(report.Unsupported("void field"))
}

func (voidDescriptor) CreateVariable(_ *FunctionContext, decl *gimple.VarDecl, _ VarUsage) Variable {
	panic(report.Unsupported("variable of type void").WithDecl(decl.Repr()))
}

// arrayDescriptor describes a fixed-size array of primitives.
type arrayDescriptor struct {
	elem PrimKind
	at   *gimple.ArrayType
}

func (ad arrayDescriptor) ParamType() jimple.Type {
	panic(report.Unsupported("arrays cannot be passed by value (%s)", ad.at.Repr()))
}

func (ad arrayDescriptor) ReturnType() jimple.Type {
	panic(report.Unsupported("arrays cannot be returned by value (%s)", ad.at.Repr()))
}

func (ad arrayDescriptor) FieldType() jimple.Type { return ad.elem.ArrayType() }

func (ad arrayDescriptor) CreateVariable(fc *FunctionContext, decl *gimple.VarDecl, _ VarUsage) Variable {
	length, ok := ad.at.Length()
	if !ok {
		panic(report.Unsupported("array of unknown extent %s", ad.at.Repr()).WithDecl(decl.Repr()))
	}

	v := &arrayVar{decl: decl, elem: ad.elem, lower: ad.at.LowerBound}
	v.local = fc.builder.AddLocal(ad.elem.ArrayType(), localName(decl))
	fc.builder.AddAssignment(v.local, &jimple.NewArray{Elem: ad.elem.JimpleType(), Size: jimple.IntLit(length)})
	return v
}

// pointerDescriptor describes a pointer to primitives, represented as an
// (array, offset) pair and crossing function boundaries as a wrapper object.
type pointerDescriptor struct {
	elem PrimKind

	// lower is the lower bound of the pointee when it is an array.
	lower int64
}

func (pd pointerDescriptor) wrapper() jimple.Type { return &jimple.ClassType{Name: pd.elem.WrapperClass()} }

func (pd pointerDescriptor) ParamType() jimple.Type  { return pd.wrapper() }
func (pd pointerDescriptor) ReturnType() jimple.Type { return pd.wrapper() }
func (pd pointerDescriptor) FieldType() jimple.Type  { return pd.wrapper() }

func (pd pointerDescriptor) CreateVariable(fc *FunctionContext, decl *gimple.VarDecl, _ VarUsage) Variable {
	name := localName(decl)
	v := &pointerVar{
		decl:   decl,
		elem:   pd.elem,
		lower:  pd.lower,
		array:  fc.builder.AddLocal(pd.elem.ArrayType(), name+"$array"),
		offset: fc.builder.AddLocal(jimple.Int, name+"$offset"),
	}

	fc.builder.AddAssignment(v.array, jimple.NullConst{})
	fc.builder.AddAssignment(v.offset, jimple.IntLit(0))
	return v
}

// recordDescriptor describes a record held by value.
type recordDescriptor struct {
	rec *recordClass
}

func (rd recordDescriptor) ParamType() jimple.Type {
	panic(report.Unsupported("records cannot be passed by value (%s)", rd.rec.def.Name))
}

func (rd recordDescriptor) ReturnType() jimple.Type {
	panic(report.Unsupported("records cannot be returned by value (%s)", rd.rec.def.Name))
}

func (rd recordDescriptor) FieldType() jimple.Type {
	panic(report.Unsupported("nested record values are not supported (%s)", rd.rec.def.Name))
}

func (rd recordDescriptor) CreateVariable(fc *FunctionContext, decl *gimple.VarDecl, _ VarUsage) Variable {
	v := &recordVar{decl: decl, rec: rd.rec}
	v.local = fc.builder.AddLocal(rd.rec.class.Type(), localName(decl))
	fc.builder.AddAssignment(v.local, &jimple.New{Class: rd.rec.class.Name})
	fc.builder.AddInvoke(&jimple.Invoke{Kind: jimple.InvokeSpecial, Base: v.local, Method: rd.rec.constructor()})
	return v
}

// recordPtrDescriptor describes a pointer to a record: a plain object
// reference since records already have reference identity.
type recordPtrDescriptor struct {
	rec *recordClass
}

func (rd recordPtrDescriptor) ParamType() jimple.Type  { return rd.rec.class.Type() }
func (rd recordPtrDescriptor) ReturnType() jimple.Type { return rd.rec.class.Type() }
func (rd recordPtrDescriptor) FieldType() jimple.Type  { return rd.rec.class.Type() }

func (rd recordPtrDescriptor) CreateVariable(fc *FunctionContext, decl *gimple.VarDecl, _ VarUsage) Variable {
	v := &recordPtrVar{decl: decl, rec: rd.rec}
	v.local = fc.builder.AddLocal(rd.rec.class.Type(), localName(decl))
	fc.builder.AddAssignment(v.local, jimple.NullConst{})
	return v
}

// funPtrDescriptor describes a function pointer.
type funPtrDescriptor struct {
	sig   *gimple.FunctionType
	iface *funPtrInterface
}

func (fd funPtrDescriptor) ParamType() jimple.Type  { return fd.iface.class.Type() }
func (fd funPtrDescriptor) ReturnType() jimple.Type { return fd.iface.class.Type() }
func (fd funPtrDescriptor) FieldType() jimple.Type  { return fd.iface.class.Type() }

func (fd funPtrDescriptor) CreateVariable(fc *FunctionContext, decl *gimple.VarDecl, _ VarUsage) Variable {
	v := &funPtrVar{decl: decl, iface: fd.iface}
	v.local = fc.builder.AddLocal(fd.iface.class.Type(), localName(decl))
	fc.builder.AddAssignment(v.local, jimple.NullConst{})
	return v
}

// opaqueDescriptor describes a void pointer that could not be resolved.  Its
// value can be passed around as an Object but never dereferenced.
type opaqueDescriptor struct{}

func (opaqueDescriptor) ParamType() jimple.Type  { return jimple.ObjectType }
func (opaqueDescriptor) ReturnType() jimple.Type { return jimple.ObjectType }
func (opaqueDescriptor) FieldType() jimple.Type  { return jimple.ObjectType }

func (opaqueDescriptor) CreateVariable(fc *FunctionContext, decl *gimple.VarDecl, _ VarUsage) Variable {
	v := &opaqueVar{decl: decl}
	v.local = fc.builder.AddLocal(jimple.ObjectType, localName(decl))
	fc.builder.AddAssignment(v.local, jimple.NullConst{})
	return v
}

// -----------------------------------------------------------------------------

// localName returns the target local name of a declaration.
func localName(decl *gimple.VarDecl) string {
	return jimple.ID(decl.Repr())
}
