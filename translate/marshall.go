package translate

import (
	"github.com/LongLingMichael/renjin/gimple"
	"github.com/LongLingMichael/renjin/jimple"
	"github.com/LongLingMichael/renjin/report"
)

// wrap creates the runtime wrapper object of a primitive pointer.
func (fc *FunctionContext) wrap(ptr ptrValue, pk PrimKind) jimple.Expr {
	if ptr.null {
		return jimple.NullConst{}
	}

	w := fc.NewTemp(&jimple.ClassType{Name: pk.WrapperClass()})
	fc.builder.AddAssignment(w, &jimple.New{Class: pk.WrapperClass()})
	fc.builder.AddInvoke(&jimple.Invoke{
		Kind:   jimple.InvokeSpecial,
		Base:   w,
		Method: wrapperConstructor(pk),
		Args:   []jimple.Expr{ptr.array, ptr.offset},
	})

	return w
}

// unwrap reads the array and offset out of a wrapper object.  A null wrapper
// yields the null pointer.
func (fc *FunctionContext) unwrap(w jimple.Expr, pk PrimKind) ptrValue {
	arr := fc.NewTemp(pk.ArrayType())
	off := fc.NewTemp(jimple.Int)
	nullLabel, doneLabel := fc.NewLabel(), fc.NewLabel()

	fc.builder.AddIf(&jimple.Cond{Op: jimple.CondEq, X: w, Y: jimple.NullConst{}}, nullLabel)
	fc.builder.AddAssignment(arr, &jimple.InstanceField{Base: w, Field: wrapperArrayField(pk)})
	fc.builder.AddAssignment(off, &jimple.InstanceField{Base: w, Field: wrapperOffsetField(pk)})
	fc.builder.AddGoto(doneLabel)
	fc.builder.AddLabel(nullLabel)
	fc.builder.AddAssignment(arr, jimple.NullConst{})
	fc.builder.AddAssignment(off, jimple.IntLit(0))
	fc.builder.AddLabel(doneLabel)

	return ptrValue{array: arr, offset: off, elem: pk}
}

// -----------------------------------------------------------------------------

// marshallValue converts a value to the target type of a parameter, return
// value or field.
func (fc *FunctionContext) marshallValue(e gimple.Expr, t jimple.Type) jimple.Expr {
	value, _ := fc.marshallArgument(e, t, false)
	return value
}

// marshallArgument converts an argument to the type of the parameter it is
// passed to.  Scalars passed to a by-reference callee expecting a pointer are
// boxed in a fresh single-element array: the returned function copies the
// callee's modification back into the argument after the call.
func (fc *FunctionContext) marshallArgument(arg gimple.Expr, pt jimple.Type, byRef bool) (jimple.Expr, func()) {
	switch t := pt.(type) {
	case jimple.PrimType:
		pk, ok := primKindOfJimple(t)
		if !ok {
			panic(report.Unsupported("parameter of type %s", t.Repr()))
		}

		return fc.readNumeric(arg, pk), nil
	case *jimple.ClassType:
		if pk, ok := wrapperKind(t); ok {
			return fc.marshallPointer(arg, pk, byRef)
		}

		if isNullConstant(arg) {
			return jimple.NullConst{}, nil
		}

		switch {
		case t.Name == jimple.ObjectType.Name:
			return fc.opaqueValue(arg), nil
		case t.Name == jimple.StringType.Name:
			if s, ok := stringLiteral(arg); ok {
				return &jimple.StringConst{Value: s}, nil
			}
		default:
			if iface, ok := fc.tc.funPtrs.byClass(t.Name); ok {
				return fc.funPtrValue(arg, iface), nil
			}

			value, rc := fc.recordPointer(arg)
			if rc.class.Name != t.Name {
				panic(report.Unsupported("`%s` pointer passed as %s", rc.def.Name, t.Name))
			}

			return value, nil
		}
	}

	panic(report.Unsupported("`%s` passed as %s", arg.Repr(), pt.Repr()))
}

// marshallPointer converts an argument to a pointer wrapper.
func (fc *FunctionContext) marshallPointer(arg gimple.Expr, pk PrimKind, byRef bool) (jimple.Expr, func()) {
	if _, isPrim := fc.exprDesc(arg).(primitiveDescriptor); !isPrim {
		return fc.wrap(fc.pointerValue(arg, pk), pk), nil
	}

	if !byRef {
		if isNullConstant(arg) {
			return jimple.NullConst{}, nil
		}

		panic(report.Unsupported("scalar `%s` passed as a %s pointer", arg.Repr(), pk))
	}

	value := fc.readNumeric(arg, pk)
	box := fc.NewTemp(pk.ArrayType())
	fc.builder.AddAssignment(box, &jimple.NewArray{Elem: pk.JimpleType(), Size: jimple.IntLit(1)})
	fc.builder.AddAssignment(jimple.Index(box, jimple.IntLit(0)), value)
	w := fc.wrap(ptrValue{array: box, offset: jimple.IntLit(0), elem: pk}, pk)

	if !isLvalue(arg) {
		return w, nil
	}

	return w, func() {
		target, to := fc.primLvalue(arg)
		modified := fc.materialize(jimple.Index(box, jimple.IntLit(0)))
		fc.store(target, fc.convert(modified, pk, to))
	}
}

// isLvalue returns whether an expression designates storage.
func isLvalue(e gimple.Expr) bool {
	switch e.(type) {
	case *gimple.VariableRef, *gimple.ArrayRef, *gimple.MemRef, *gimple.ComponentRef:
		return true
	}

	return false
}

// stringLiteral returns the string literal an argument designates, either
// directly or through the address of its first character.
func stringLiteral(e gimple.Expr) (string, bool) {
	switch v := e.(type) {
	case *gimple.StringConstant:
		return v.Value, true
	case *gimple.AddressOf:
		return stringLiteral(v.Value)
	case *gimple.ArrayRef:
		if c, ok := v.Index.(*gimple.IntegerConstant); ok && c.Value == 0 {
			return stringLiteral(v.Array)
		}
	}

	return "", false
}

// -----------------------------------------------------------------------------

// unmarshallResult stores the result of a call into its left hand side.
func (fc *FunctionContext) unmarshallResult(lhs gimple.Expr, result *jimple.Local) {
	switch desc := fc.exprDesc(lhs).(type) {
	case primitiveDescriptor:
		from, ok := primKindOfJimple(result.T)
		if !ok {
			panic(report.Unsupported("%s result assigned to a scalar", result.T.Repr()))
		}

		target, _ := fc.primLvalue(lhs)
		fc.store(target, fc.convert(result, from, desc.kind))
	case pointerDescriptor:
		var w jimple.Expr = result
		if pk, ok := wrapperKind(result.T); ok && pk != desc.elem {
			panic(report.Unsupported("%s pointer result assigned to a %s pointer", pk, desc.elem))
		} else if !ok {
			w = fc.materialize(&jimple.Cast{X: result, To: &jimple.ClassType{Name: desc.elem.WrapperClass()}})
		}

		ptr := fc.unwrap(w, desc.elem)
		arrTarget, offTarget := fc.pointerTarget(lhs)
		fc.builder.AddAssignment(arrTarget, ptr.array)
		fc.builder.AddAssignment(offTarget, ptr.offset)
	case recordPtrDescriptor, funPtrDescriptor, opaqueDescriptor:
		var value jimple.Expr = result
		if want := desc.FieldType(); !jimple.SameType(want, result.T) {
			value = fc.materialize(&jimple.Cast{X: result, To: want})
		}

		fc.store(fc.refTarget(lhs), value)
	default:
		panic(report.Unsupported("call result assigned to `%s`", lhs.Repr()))
	}
}

// unmarshallParameter copies an incoming argument into the storage of its
// parameter.
func (fc *FunctionContext) unmarshallParameter(v Variable, param *jimple.Local) {
	switch pv := v.(type) {
	case *scalarVar:
		fc.builder.AddAssignment(pv.ref(fc), param)
	case *pointerVar:
		ptr := fc.unwrap(param, pv.elem)
		fc.builder.AddAssignment(pv.array, ptr.array)
		fc.builder.AddAssignment(pv.offset, ptr.offset)
	case *recordPtrVar:
		fc.builder.AddAssignment(pv.local, param)
	case *funPtrVar:
		fc.builder.AddAssignment(pv.local, param)
	case *opaqueVar:
		fc.builder.AddAssignment(pv.local, param)
	default:
		panic(report.Unsupported("parameter of kind %s", v.Kind()).WithDecl(v.Decl().Repr()))
	}
}
