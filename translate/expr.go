package translate

import (
	"github.com/LongLingMichael/renjin/gimple"
	"github.com/LongLingMichael/renjin/jimple"
	"github.com/LongLingMichael/renjin/report"
)

// ptrValue is a primitive pointer value: an array together with an element
// offset into it.  Both parts are immediates.
type ptrValue struct {
	array  jimple.Expr
	offset jimple.Expr
	elem   PrimKind

	// lower is the lower bound of the pointee array, if any.
	lower int64

	// null is true for the null pointer constant whose element kind is not
	// known.
	null bool
}

var nullPtr = ptrValue{array: jimple.NullConst{}, offset: jimple.IntLit(0), null: true}

// readPrim returns the value of a primitive operand along with its kind.
func (fc *FunctionContext) readPrim(e gimple.Expr) (jimple.Expr, PrimKind) {
	switch v := e.(type) {
	case *gimple.IntegerConstant:
		pk := PrimInt
		if v.Type != nil {
			if k, ok := PrimKindOf(v.Type); ok {
				pk = k
			} else if gimple.IsPointer(v.Type) {
				panic(report.Unsupported("pointer constant `%s` used as a scalar", v.Repr()))
			}
		}

		return intConstant(pk, truncate(v.Value, pk)), pk
	case *gimple.RealConstant:
		pk := PrimDouble
		if v.Type != nil {
			if k, ok := PrimKindOf(v.Type); ok {
				pk = k
			}
		}

		return constant(pk, v.Value), pk
	case *gimple.VariableRef, *gimple.ArrayRef, *gimple.MemRef, *gimple.ComponentRef:
		return fc.primLvalue(e)
	}

	panic(report.Unsupported("`%s` used as a scalar value", e.Repr()))
}

// readNumeric reads a primitive operand converted to the wanted kind and
// returns it as an immediate.
func (fc *FunctionContext) readNumeric(e gimple.Expr, want PrimKind) jimple.Expr {
	value, from := fc.readPrim(e)
	return fc.immediate(fc.convert(value, from, want))
}

// primLvalue returns a reference to primitive storage usable both as an
// operand and as an assignment target.
func (fc *FunctionContext) primLvalue(e gimple.Expr) (jimple.Expr, PrimKind) {
	switch v := e.(type) {
	case *gimple.VariableRef:
		variable := fc.lookupVar(v)
		sv, ok := variable.(*scalarVar)
		if !ok {
			panic(report.Unsupported("%s used as a scalar value", variable.Kind()).WithDecl(v.Repr()))
		}

		return sv.ref(fc), sv.kind
	case *gimple.ArrayRef:
		arr, start, lower, pk := fc.arrayOperand(v.Array)
		return jimple.Index(arr, fc.index(v.Index, lower, start)), pk
	case *gimple.MemRef:
		arr, idx, pk := fc.deref(v)
		return jimple.Index(arr, idx), pk
	case *gimple.ComponentRef:
		base, rc := fc.recordBase(v.Value)
		rf := rc.member(v.Member)

		pd, ok := rf.desc.(primitiveDescriptor)
		if !ok {
			panic(report.Unsupported("member `%s` used as a scalar value", v.Member))
		}

		return &jimple.InstanceField{Base: base, Field: rf.value}, pd.kind
	}

	panic(report.Unsupported("`%s` is not assignable", e.Repr()))
}

// convert converts a primitive value between kinds.
func (fc *FunctionContext) convert(e jimple.Expr, from, to PrimKind) jimple.Expr {
	if from.JimpleType() == to.JimpleType() {
		return e
	}

	if to == PrimBoolean {
		// any non-zero value is true
		x := fc.immediate(e)
		if from.IsReal() {
			x = fc.materialize(&jimple.BinOp{Op: "cmpl", X: x, Y: constant(from, 0), T: jimple.Int})
		} else if from == PrimLong {
			x = fc.materialize(&jimple.BinOp{Op: "cmp", X: x, Y: intConstant(PrimLong, 0), T: jimple.Int})
		}

		result := fc.NewTemp(jimple.Boolean)
		falseLabel, doneLabel := fc.NewLabel(), fc.NewLabel()
		fc.builder.AddIf(&jimple.Cond{Op: jimple.CondEq, X: x, Y: jimple.IntLit(0)}, falseLabel)
		fc.builder.AddAssignment(result, intConstant(PrimBoolean, 1))
		fc.builder.AddGoto(doneLabel)
		fc.builder.AddLabel(falseLabel)
		fc.builder.AddAssignment(result, intConstant(PrimBoolean, 0))
		fc.builder.AddLabel(doneLabel)
		return result
	}

	// constants are folded
	switch c := e.(type) {
	case *jimple.IntConst:
		if to.IsReal() {
			return constant(to, float64(c.Value))
		}

		return intConstant(to, truncate(c.Value, to))
	case *jimple.FloatConst:
		if to.IsReal() {
			return constant(to, c.Value)
		}
	}

	return &jimple.Cast{X: fc.immediate(e), To: to.JimpleType()}
}

// truncate wraps an integer constant to the width of an integral kind.
func truncate(v int64, pk PrimKind) int64 {
	switch pk {
	case PrimInt:
		return int64(int32(v))
	case PrimShort:
		return int64(int16(v))
	case PrimChar:
		return int64(int8(v))
	case PrimBoolean:
		if v != 0 {
			return 1
		}

		return 0
	}

	return v
}

// -----------------------------------------------------------------------------

// addInt returns `x + y` for int operands, folding constants.
func (fc *FunctionContext) addInt(x, y jimple.Expr) jimple.Expr {
	xc, xok := x.(*jimple.IntConst)
	yc, yok := y.(*jimple.IntConst)

	switch {
	case xok && yok:
		return jimple.IntLit(xc.Value + yc.Value)
	case yok && yc.Value == 0:
		return x
	case xok && xc.Value == 0:
		return y
	}

	return fc.materialize(&jimple.BinOp{Op: "+", X: fc.immediate(x), Y: fc.immediate(y), T: jimple.Int})
}

// index computes the element index of `array[idx]` where the array has the
// given lower bound and starts at element start of its target array.
func (fc *FunctionContext) index(idx gimple.Expr, lower int64, start jimple.Expr) jimple.Expr {
	i := fc.readNumeric(idx, PrimInt)
	if lower != 0 {
		i = fc.addInt(i, jimple.IntLit(-lower))
	}

	return fc.immediate(fc.addInt(start, i))
}

// byteOffset converts a constant byte offset into an element offset.
func byteOffset(offset int64, pk PrimKind) jimple.Expr {
	if offset%pk.Size() != 0 {
		panic(report.Unsupported("byte offset %d is not a multiple of the size of %s", offset, pk))
	}

	return jimple.IntLit(offset / pk.Size())
}

// arrayOperand returns the target array of an array valued expression along
// with the element the native array starts at, its lower bound and element
// kind.
func (fc *FunctionContext) arrayOperand(e gimple.Expr) (jimple.Expr, jimple.Expr, int64, PrimKind) {
	switch v := e.(type) {
	case *gimple.VariableRef:
		variable := fc.lookupVar(v)
		av, ok := variable.(*arrayVar)
		if !ok {
			panic(report.Unsupported("%s indexed as an array", variable.Kind()).WithDecl(v.Repr()))
		}

		return av.array(fc), jimple.IntLit(0), av.lower, av.elem
	case *gimple.ComponentRef:
		base, rc := fc.recordBase(v.Value)
		rf := rc.member(v.Member)

		ad, ok := rf.desc.(arrayDescriptor)
		if !ok {
			panic(report.Unsupported("member `%s` indexed as an array", v.Member))
		}

		return fc.materialize(&jimple.InstanceField{Base: base, Field: rf.value}), jimple.IntLit(0), ad.at.LowerBound, ad.elem
	case *gimple.MemRef:
		ptr := fc.pointerOperand(v.Pointer)
		if ptr.null {
			panic(report.Unsupported("dereference of a null pointer constant"))
		}

		return ptr.array, fc.addInt(ptr.offset, byteOffset(v.Offset, ptr.elem)), ptr.lower, ptr.elem
	case *gimple.StringConstant:
		return fc.stringArray(v.Value), jimple.IntLit(0), 0, PrimChar
	}

	panic(report.Unsupported("`%s` indexed as an array", e.Repr()))
}

// deref returns the array and element index a memory reference designates.
func (fc *FunctionContext) deref(mr *gimple.MemRef) (jimple.Expr, jimple.Expr, PrimKind) {
	ptr := fc.pointerOperand(mr.Pointer)
	if ptr.null {
		panic(report.Unsupported("dereference of a null pointer constant"))
	}

	return ptr.array, fc.immediate(fc.addInt(ptr.offset, byteOffset(mr.Offset, ptr.elem))), ptr.elem
}

// stringArray allocates a NUL terminated byte array holding a string literal.
func (fc *FunctionContext) stringArray(s string) jimple.Expr {
	arr := fc.NewTemp(PrimChar.ArrayType())
	fc.builder.AddAssignment(arr, &jimple.NewArray{Elem: jimple.Byte, Size: jimple.IntLit(int64(len(s) + 1))})

	for i := 0; i < len(s); i++ {
		fc.builder.AddAssignment(jimple.Index(arr, jimple.IntLit(int64(i))), intConstant(PrimChar, int64(int8(s[i]))))
	}

	return arr
}

// -----------------------------------------------------------------------------

// pointerOperand returns the value of a primitive pointer operand.
func (fc *FunctionContext) pointerOperand(e gimple.Expr) ptrValue {
	switch v := e.(type) {
	case *gimple.VariableRef:
		switch pv := fc.lookupVar(v).(type) {
		case *pointerVar:
			return ptrValue{array: pv.array, offset: pv.offset, elem: pv.elem, lower: pv.lower}
		case *opaqueVar:
			panic(report.Unsupported("dereference of an untyped pointer").WithDecl(v.Repr()))
		default:
			panic(report.Unsupported("%s used as a pointer", pv.Kind()).WithDecl(v.Repr()))
		}
	case *gimple.AddressOf:
		return fc.addressOf(v.Value)
	case *gimple.ComponentRef:
		base, rc := fc.recordBase(v.Value)
		rf := rc.member(v.Member)

		pd, ok := rf.desc.(pointerDescriptor)
		if !ok {
			panic(report.Unsupported("member `%s` used as a pointer", v.Member))
		}

		return ptrValue{
			array:  fc.materialize(&jimple.InstanceField{Base: base, Field: rf.value}),
			offset: fc.materialize(&jimple.InstanceField{Base: base, Field: rf.offset}),
			elem:   pd.elem,
			lower:  pd.lower,
		}
	case *gimple.IntegerConstant:
		if v.Value == 0 {
			return nullPtr
		}

		panic(report.Unsupported("integer %d used as a pointer", v.Value))
	}

	panic(report.Unsupported("`%s` used as a pointer", e.Repr()))
}

// addressOf returns the pointer to an lvalue.
func (fc *FunctionContext) addressOf(e gimple.Expr) ptrValue {
	switch v := e.(type) {
	case *gimple.VariableRef:
		switch av := fc.lookupVar(v).(type) {
		case *scalarVar:
			if !av.boxed {
				panic(report.Unsupported("address of external field").WithDecl(v.Repr()))
			}

			return ptrValue{array: av.box(fc), offset: jimple.IntLit(0), elem: av.kind}
		case *arrayVar:
			return ptrValue{array: av.array(fc), offset: jimple.IntLit(0), elem: av.elem, lower: av.lower}
		default:
			panic(report.Unsupported("address of %s", av.Kind()).WithDecl(v.Repr()))
		}
	case *gimple.ArrayRef:
		arr, start, lower, pk := fc.arrayOperand(v.Array)
		return ptrValue{array: arr, offset: fc.index(v.Index, lower, start), elem: pk}
	case *gimple.MemRef:
		arr, idx, pk := fc.deref(v)
		return ptrValue{array: arr, offset: idx, elem: pk}
	case *gimple.ComponentRef:
		base, rc := fc.recordBase(v.Value)
		rf := rc.member(v.Member)

		if ad, ok := rf.desc.(arrayDescriptor); ok {
			arr := fc.materialize(&jimple.InstanceField{Base: base, Field: rf.value})
			return ptrValue{array: arr, offset: jimple.IntLit(0), elem: ad.elem, lower: ad.at.LowerBound}
		}

		panic(report.Unsupported("address of record member `%s`", v.Member))
	case *gimple.StringConstant:
		return ptrValue{array: fc.stringArray(v.Value), offset: jimple.IntLit(0), elem: PrimChar}
	}

	panic(report.Unsupported("address of `%s`", e.Repr()))
}

// -----------------------------------------------------------------------------

// recordBase returns the object holding a record valued expression.
func (fc *FunctionContext) recordBase(e gimple.Expr) (jimple.Expr, *recordClass) {
	switch v := e.(type) {
	case *gimple.VariableRef:
		variable := fc.lookupVar(v)
		if rv, ok := variable.(*recordVar); ok {
			return rv.local, rv.rec
		}

		panic(report.Unsupported("%s used as a record", variable.Kind()).WithDecl(v.Repr()))
	case *gimple.MemRef:
		if v.Offset != 0 {
			panic(report.Unsupported("record access at byte offset %d", v.Offset))
		}

		return fc.recordPointer(v.Pointer)
	}

	panic(report.Unsupported("`%s` used as a record", e.Repr()))
}

// recordPointer returns the object a record pointer valued expression points
// to.
func (fc *FunctionContext) recordPointer(e gimple.Expr) (jimple.Expr, *recordClass) {
	switch v := e.(type) {
	case *gimple.VariableRef:
		variable := fc.lookupVar(v)
		if rv, ok := variable.(*recordPtrVar); ok {
			return rv.local, rv.rec
		}

		if _, ok := variable.(*opaqueVar); ok {
			panic(report.Unsupported("dereference of an untyped pointer").WithDecl(v.Repr()))
		}

		panic(report.Unsupported("%s used as a record pointer", variable.Kind()).WithDecl(v.Repr()))
	case *gimple.AddressOf:
		return fc.recordBase(v.Value)
	case *gimple.ComponentRef:
		base, rc := fc.recordBase(v.Value)
		rf := rc.member(v.Member)

		rpd, ok := rf.desc.(recordPtrDescriptor)
		if !ok {
			panic(report.Unsupported("member `%s` used as a record pointer", v.Member))
		}

		return fc.materialize(&jimple.InstanceField{Base: base, Field: rf.value}), rpd.rec
	}

	panic(report.Unsupported("`%s` used as a record pointer", e.Repr()))
}
