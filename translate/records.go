package translate

import (
	"fmt"

	"github.com/LongLingMichael/renjin/gimple"
	"github.com/LongLingMichael/renjin/jimple"
	"github.com/LongLingMichael/renjin/report"
)

// recordClass is the class synthesized for a native record definition.
type recordClass struct {
	def   *gimple.RecordTypeDef
	class *jimple.ClassBuilder

	fields map[string]*recordField
	init   *jimple.MethodBuilder
}

// recordField is the storage of a single record member.  Members whose type has
// no field representation are kept with the reason so that any access to them
// can report it.
type recordField struct {
	name string
	desc TypeDescriptor

	// value is the field holding the member.  Primitive pointer members are
	// held in two fields: value holds the array, offset holds the offset.
	value  *jimple.FieldRef
	offset *jimple.FieldRef

	unsupported *report.TranslationError
}

// recordClass returns the synthesized class of a record type, creating it the
// first time the record is used.
func (tc *TranslationContext) recordClass(rt *gimple.RecordType) *recordClass {
	def, ok := tc.unit.LookupRecord(rt)
	if !ok {
		panic(report.Unresolved("record type %s is not defined in the unit", rt.Repr()))
	}

	if rc, ok := tc.records[def]; ok {
		return rc
	}

	name := def.Name
	if name == "" {
		name = fmt.Sprintf("record%d", def.ID)
	}

	rc := &recordClass{
		def:    def,
		class:  tc.out.NewClass(tc.mainClass.Name + "$" + jimple.ID(name)),
		fields: make(map[string]*recordField),
	}

	// registered before the members are resolved: records may point to
	// themselves
	tc.records[def] = rc

	rc.init = rc.class.NewMethod("<init>", jimple.Void, false)
	this := rc.init.This()
	rc.init.AddInvoke(&jimple.Invoke{
		Kind:   jimple.InvokeSpecial,
		Base:   this,
		Method: &jimple.MethodRef{Class: jimple.ObjectType.Name, Name: "<init>", Return: jimple.Void},
	})

	for _, f := range def.Fields {
		rc.fields[f.Name] = tc.declareRecordField(rc, f)
	}

	rc.init.AddReturn(nil)
	return rc
}

// declareRecordField declares the storage of a single member.
func (tc *TranslationContext) declareRecordField(rc *recordClass, f *gimple.RecordField) (rf *recordField) {
	rf = &recordField{name: f.Name}

	defer func() {
		if x := recover(); x != nil {
			if terr, ok := x.(*report.TranslationError); ok {
				rf.unsupported = terr
				return
			}

			panic(x)
		}
	}()

	rf.desc = tc.ResolveType(f.Type)
	fieldName := jimple.ID(f.Name)

	switch v := rf.desc.(type) {
	case pointerDescriptor:
		rf.value = rc.class.AddField(fieldName+"$array", v.elem.ArrayType(), false)
		rf.offset = rc.class.AddField(fieldName+"$offset", jimple.Int, false)
	case arrayDescriptor:
		length, ok := v.at.Length()
		if !ok {
			panic(report.Unsupported("record member `%s` has unknown extent", f.Name))
		}

		rf.value = rc.class.AddField(fieldName, v.elem.ArrayType(), false)

		// allocated by the constructor
		tmp := rc.init.AddLocal(v.elem.ArrayType(), "$"+fieldName)
		rc.init.AddAssignment(tmp, &jimple.NewArray{Elem: v.elem.JimpleType(), Size: jimple.IntLit(length)})
		rc.init.AddAssignment(&jimple.InstanceField{Base: rc.init.This(), Field: rf.value}, tmp)
	default:
		rf.value = rc.class.AddField(fieldName, rf.desc.FieldType(), false)
	}

	return rf
}

// constructor returns the no-argument constructor of the record class.
func (rc *recordClass) constructor() *jimple.MethodRef {
	return rc.init.Ref()
}

// member returns a member by name, raising a lookup failure for an unknown
// member and an unsupported construct failure for a skipped one.
func (rc *recordClass) member(name string) *recordField {
	rf, ok := rc.fields[name]
	if !ok {
		panic(report.Lookup("record `%s` has no member named `%s`", rc.def.Name, name))
	}

	if rf.unsupported != nil {
		panic(report.Unsupported("member `%s` of record `%s`: %s", name, rc.def.Name, rf.unsupported.Message))
	}

	return rf
}

// copyInto emits a field by field copy of the record held in src into dst.
// Records have reference identity in the target so a native struct assignment
// cannot be a reference copy.
func (rc *recordClass) copyInto(fc *FunctionContext, dst, src jimple.Expr) {
	for _, f := range rc.def.Fields {
		rf := rc.fields[f.Name]
		if rf.unsupported != nil {
			continue
		}

		if ad, ok := rf.desc.(arrayDescriptor); ok {
			length, _ := ad.at.Length()
			srcArr := fc.materialize(&jimple.InstanceField{Base: src, Field: rf.value})
			dstArr := fc.materialize(&jimple.InstanceField{Base: dst, Field: rf.value})
			for i := int64(0); i < length; i++ {
				elem := fc.materialize(jimple.Index(srcArr, jimple.IntLit(i)))
				fc.builder.AddAssignment(jimple.Index(dstArr, jimple.IntLit(i)), elem)
			}

			continue
		}

		for _, ref := range []*jimple.FieldRef{rf.value, rf.offset} {
			if ref == nil {
				continue
			}

			tmp := fc.materialize(&jimple.InstanceField{Base: src, Field: ref})
			fc.builder.AddAssignment(&jimple.InstanceField{Base: dst, Field: ref}, tmp)
		}
	}
}
