package translate

import (
	"github.com/LongLingMichael/renjin/gimple"
	"github.com/LongLingMichael/renjin/jimple"
	"github.com/LongLingMichael/renjin/report"
)

// translateAssign translates an assignment.  The representation of the left
// hand side decides how the right hand side is computed.
func (fc *FunctionContext) translateAssign(a *gimple.Assign) {
	if len(a.Operands) == 0 {
		panic(report.Unsupported("assignment without operands"))
	}

	switch desc := fc.exprDesc(a.LHS).(type) {
	case primitiveDescriptor:
		target, _ := fc.primLvalue(a.LHS)
		fc.store(target, fc.primitiveRHS(a.Op, a.Operands, desc.kind))
	case pointerDescriptor:
		fc.assignPointer(a.LHS, desc, a.Op, a.Operands)
	case recordDescriptor:
		if !isLoad(a.Op) {
			panic(report.Unsupported("operator `%s` applied to records", a.Op))
		}

		dst, rc := fc.recordBase(a.LHS)
		src, srcRec := fc.recordBase(a.Operands[0])
		if rc != srcRec {
			panic(report.Unsupported("assignment between records `%s` and `%s`", rc.def.Name, srcRec.def.Name))
		}

		rc.copyInto(fc, dst, src)
	case recordPtrDescriptor, funPtrDescriptor, opaqueDescriptor:
		if a.Op == gimple.OpPointerPlus {
			panic(report.Unsupported("pointer arithmetic on %s", a.LHS.Repr()))
		}

		fc.store(fc.refTarget(a.LHS), fc.refValue(a.Operands[0], desc))
	default:
		panic(report.Unsupported("assignment to `%s`", a.LHS.Repr()))
	}
}

// assignValue assigns a single value to an lvalue: used for initializers.
func (fc *FunctionContext) assignValue(lhs, value gimple.Expr) {
	op := gimple.OpNop
	switch value.(type) {
	case *gimple.AddressOf:
		op = gimple.OpAddrExpr
	case *gimple.IntegerConstant:
		op = gimple.OpIntegerCst
	case *gimple.RealConstant:
		op = gimple.OpRealCst
	}

	fc.translateAssign(&gimple.Assign{Op: op, LHS: lhs, Operands: []gimple.Expr{value}})
}

// store assigns a value to a target.  Only locals may receive compound
// expressions.
func (fc *FunctionContext) store(target, value jimple.Expr) {
	if _, ok := target.(*jimple.Local); ok {
		fc.builder.AddAssignment(target, value)
	} else {
		fc.builder.AddAssignment(target, fc.immediate(value))
	}
}

// isLoad returns whether an assignment with this operator copies (and possibly
// converts) its single operand.
func isLoad(op gimple.Op) bool {
	if op.IsCopy() {
		return true
	}

	switch op {
	case gimple.OpIntegerCst, gimple.OpRealCst, gimple.OpStringCst,
		gimple.OpArrayRef, gimple.OpMemRef, gimple.OpIndirectRef, gimple.OpComponentRef,
		gimple.OpAddrExpr, gimple.OpFloat, gimple.OpFixTrunc:
		return true
	}

	return false
}

// -----------------------------------------------------------------------------

// primitiveRHS computes the value of a primitive assignment.
func (fc *FunctionContext) primitiveRHS(op gimple.Op, operands []gimple.Expr, pk PrimKind) jimple.Expr {
	if isLoad(op) {
		value, from := fc.readPrim(operands[0])
		return fc.convert(value, from, pk)
	}

	if op.IsComparison() {
		return fc.convert(fc.compareValue(op, operands), PrimBoolean, pk)
	}

	switch op {
	case gimple.OpNegate:
		x := fc.readNumeric(operands[0], pk)
		if isSubInt(pk) {
			return fc.narrow(&jimple.Neg{X: fc.widen(x, pk)}, pk)
		}

		return &jimple.Neg{X: x}
	case gimple.OpBitNot:
		x := fc.readNumeric(operands[0], pk)
		return fc.arith("^", x, intConstant(pk, -1), pk)
	case gimple.OpAbs:
		return fc.abs(fc.readNumeric(operands[0], pk), pk)
	case gimple.OpMax, gimple.OpMin:
		return fc.minMax(op, fc.readNumeric(operands[0], pk), fc.readNumeric(operands[1], pk), pk)
	case gimple.OpTruthNot:
		return fc.convert(fc.truthNot(operands[0]), PrimBoolean, pk)
	case gimple.OpLShift, gimple.OpRShift:
		x := fc.readNumeric(operands[0], pk)
		y := fc.readNumeric(operands[1], PrimInt)
		return fc.arith(arithSymbols[op], x, y, pk)
	case gimple.OpPointerPlus:
		panic(report.Unsupported("pointer arithmetic assigned to a scalar"))
	}

	sym, ok := arithSymbols[op]
	if !ok {
		panic(report.Unsupported("operator `%s`", op))
	}

	if len(operands) != 2 {
		panic(report.Unsupported("operator `%s` expects 2 operands, got %d", op, len(operands)))
	}

	x := fc.readNumeric(operands[0], pk)
	y := fc.readNumeric(operands[1], pk)
	return fc.arith(sym, x, y, pk)
}

// arithSymbols maps binary operators to their target spelling.
var arithSymbols = map[gimple.Op]string{
	gimple.OpPlus:     "+",
	gimple.OpMinus:    "-",
	gimple.OpMult:     "*",
	gimple.OpRDiv:     "/",
	gimple.OpTruncDiv: "/",
	gimple.OpExactDiv: "/",
	gimple.OpTruncMod: "%",
	gimple.OpBitAnd:   "&",
	gimple.OpBitIor:   "|",
	gimple.OpBitXor:   "^",
	gimple.OpLShift:   "<<",
	gimple.OpRShift:   ">>",
}

// isSubInt returns whether values of the kind are computed in int precision
// and narrowed afterwards.
func isSubInt(pk PrimKind) bool {
	switch pk {
	case PrimShort, PrimChar, PrimBoolean:
		return true
	}

	return false
}

// widen casts an immediate of a sub-int kind to int.
func (fc *FunctionContext) widen(x jimple.Expr, pk PrimKind) jimple.Expr {
	return fc.immediate(fc.convert(x, pk, PrimInt))
}

// narrow computes an int valued expression and casts the result back to a
// sub-int kind.
func (fc *FunctionContext) narrow(e jimple.Expr, pk PrimKind) jimple.Expr {
	return &jimple.Cast{X: fc.materialize(e), To: pk.JimpleType()}
}

// arith builds a binary operation on two immediates of kind pk.
func (fc *FunctionContext) arith(sym string, x, y jimple.Expr, pk PrimKind) jimple.Expr {
	if isSubInt(pk) {
		return fc.narrow(&jimple.BinOp{Op: sym, X: fc.widen(x, pk), Y: fc.widen(y, pk), T: jimple.Int}, pk)
	}

	return &jimple.BinOp{Op: sym, X: x, Y: y, T: pk.JimpleType()}
}

// abs computes the absolute value through the runtime library.
func (fc *FunctionContext) abs(x jimple.Expr, pk PrimKind) jimple.Expr {
	t := pk.JimpleType()
	if isSubInt(pk) {
		t = jimple.Int
		x = fc.widen(x, pk)
	}

	call := &jimple.Invoke{
		Kind:   jimple.InvokeStatic,
		Method: &jimple.MethodRef{Class: "java.lang.Math", Name: "abs", Return: t, Params: []jimple.Type{t}},
		Args:   []jimple.Expr{x},
	}

	if isSubInt(pk) {
		return fc.narrow(call, pk)
	}

	return call
}

// minMax selects the larger or smaller of two immediates by branching.
func (fc *FunctionContext) minMax(op gimple.Op, x, y jimple.Expr, pk PrimKind) jimple.Expr {
	result := fc.NewTemp(pk.JimpleType())
	keepLabel := fc.NewLabel()

	cmp := gimple.OpGe
	if op == gimple.OpMin {
		cmp = gimple.OpLe
	}

	fc.builder.AddAssignment(result, x)
	fc.branchPrim(predicates[cmp], x, y, pk, keepLabel)
	fc.builder.AddAssignment(result, y)
	fc.builder.AddLabel(keepLabel)
	return result
}

// truthNot computes the logical negation of an operand: 1 if it is zero and 0
// otherwise.
func (fc *FunctionContext) truthNot(operand gimple.Expr) jimple.Expr {
	x, pk := fc.readPrim(operand)
	zero := intConstant(pk, 0)
	if pk.IsReal() {
		zero = constant(pk, 0)
	}

	result := fc.NewTemp(jimple.Boolean)
	nonZeroLabel, doneLabel := fc.NewLabel(), fc.NewLabel()

	fc.branchPrim(predicates[gimple.OpNe], fc.immediate(x), zero, pk, nonZeroLabel)
	fc.builder.AddAssignment(result, intConstant(PrimBoolean, 1))
	fc.builder.AddGoto(doneLabel)
	fc.builder.AddLabel(nonZeroLabel)
	fc.builder.AddAssignment(result, intConstant(PrimBoolean, 0))
	fc.builder.AddLabel(doneLabel)
	return result
}

// -----------------------------------------------------------------------------

// assignPointer translates an assignment to a primitive pointer.
func (fc *FunctionContext) assignPointer(lhs gimple.Expr, pd pointerDescriptor, op gimple.Op, operands []gimple.Expr) {
	var value ptrValue

	switch {
	case op == gimple.OpPointerPlus:
		if len(operands) != 2 {
			panic(report.Unsupported("pointer arithmetic expects 2 operands"))
		}

		base := fc.pointerValue(operands[0], pd.elem)
		if base.null {
			panic(report.Unsupported("arithmetic on a null pointer constant"))
		}

		var delta jimple.Expr
		if c, ok := operands[1].(*gimple.IntegerConstant); ok {
			delta = byteOffset(c.Value, pd.elem)
		} else {
			delta = fc.readNumeric(operands[1], PrimInt)
			if pd.elem.Size() > 1 {
				delta = fc.materialize(&jimple.BinOp{Op: "/", X: delta, Y: jimple.IntLit(pd.elem.Size()), T: jimple.Int})
			}
		}

		value = ptrValue{array: base.array, offset: fc.immediate(fc.addInt(base.offset, delta)), elem: pd.elem}
	case isLoad(op):
		value = fc.pointerValue(operands[0], pd.elem)
	default:
		panic(report.Unsupported("operator `%s` applied to pointers", op))
	}

	arrTarget, offTarget := fc.pointerTarget(lhs)
	if value.null {
		fc.builder.AddAssignment(arrTarget, jimple.NullConst{})
		fc.builder.AddAssignment(offTarget, jimple.IntLit(0))
		return
	}

	fc.builder.AddAssignment(arrTarget, value.array)
	fc.builder.AddAssignment(offTarget, value.offset)
}

// pointerValue reads a pointer operand expected to point to elements of the
// given kind.  Untyped pointers are converted by unwrapping the pointer object
// they hold.
func (fc *FunctionContext) pointerValue(e gimple.Expr, elem PrimKind) ptrValue {
	if ref, ok := e.(*gimple.VariableRef); ok {
		if ov, ok := fc.lookupVar(ref).(*opaqueVar); ok {
			wrapper := &jimple.ClassType{Name: elem.WrapperClass()}
			w := fc.materialize(&jimple.Cast{X: ov.local, To: wrapper})
			return fc.unwrap(w, elem)
		}
	}

	value := fc.pointerOperand(e)
	if !value.null && value.elem != elem {
		panic(report.Unsupported("conversion of %s pointer to %s pointer", value.elem, elem))
	}

	value.elem = elem
	return value
}

// pointerTarget returns the targets receiving the array and offset of an
// assigned pointer.
func (fc *FunctionContext) pointerTarget(lhs gimple.Expr) (jimple.Expr, jimple.Expr) {
	switch v := lhs.(type) {
	case *gimple.VariableRef:
		if pv, ok := fc.lookupVar(v).(*pointerVar); ok {
			return pv.array, pv.offset
		}
	case *gimple.ComponentRef:
		base, rc := fc.recordBase(v.Value)
		rf := rc.member(v.Member)
		return &jimple.InstanceField{Base: base, Field: rf.value}, &jimple.InstanceField{Base: base, Field: rf.offset}
	}

	panic(report.Unsupported("pointer stored into `%s`", lhs.Repr()))
}

// -----------------------------------------------------------------------------

// refTarget returns the target of an assignment to a reference valued lvalue.
func (fc *FunctionContext) refTarget(lhs gimple.Expr) jimple.Expr {
	switch v := lhs.(type) {
	case *gimple.VariableRef:
		switch rv := fc.lookupVar(v).(type) {
		case *recordPtrVar:
			return rv.local
		case *funPtrVar:
			return rv.local
		case *opaqueVar:
			return rv.local
		}
	case *gimple.ComponentRef:
		base, rc := fc.recordBase(v.Value)
		rf := rc.member(v.Member)
		return &jimple.InstanceField{Base: base, Field: rf.value}
	}

	panic(report.Unsupported("reference stored into `%s`", lhs.Repr()))
}

// refValue computes the value of a reference assigned to storage of the given
// descriptor.
func (fc *FunctionContext) refValue(e gimple.Expr, desc TypeDescriptor) jimple.Expr {
	if c, ok := e.(*gimple.IntegerConstant); ok {
		if c.Value == 0 {
			return jimple.NullConst{}
		}

		panic(report.Unsupported("integer %d used as a pointer", c.Value))
	}

	switch d := desc.(type) {
	case recordPtrDescriptor:
		value, rc := fc.recordPointer(e)
		if rc != d.rec {
			panic(report.Unsupported("conversion of `%s` pointer to `%s` pointer", rc.def.Name, d.rec.def.Name))
		}

		return value
	case funPtrDescriptor:
		return fc.funPtrValue(e, d.iface)
	case opaqueDescriptor:
		return fc.opaqueValue(e)
	}

	panic(report.Unsupported("`%s` assigned to a reference", e.Repr()))
}

// opaqueValue converts any pointer valued expression to an untyped pointer.
func (fc *FunctionContext) opaqueValue(e gimple.Expr) jimple.Expr {
	switch desc := fc.exprDesc(e).(type) {
	case opaqueDescriptor:
		if ref, ok := e.(*gimple.VariableRef); ok {
			return fc.lookupVar(ref).(*opaqueVar).local
		}

		if cr, ok := e.(*gimple.ComponentRef); ok {
			base, rc := fc.recordBase(cr.Value)
			return fc.materialize(&jimple.InstanceField{Base: base, Field: rc.member(cr.Member).value})
		}
	case pointerDescriptor:
		return fc.wrap(fc.pointerValue(e, desc.elem), desc.elem)
	case recordPtrDescriptor:
		value, _ := fc.recordPointer(e)
		return value
	case funPtrDescriptor:
		return fc.funPtrValue(e, desc.iface)
	}

	panic(report.Unsupported("`%s` converted to an untyped pointer", e.Repr()))
}

// -----------------------------------------------------------------------------

// exprDesc returns the descriptor of the value an expression designates
// without emitting any code.  It returns nil for expressions with no single
// representation such as the address of a function.
func (fc *FunctionContext) exprDesc(e gimple.Expr) TypeDescriptor {
	switch v := e.(type) {
	case *gimple.VariableRef:
		return varDesc(fc.lookupVar(v))
	case *gimple.IntegerConstant:
		if v.Type != nil {
			if gimple.IsPointer(v.Type) {
				return fc.tc.ResolveType(v.Type)
			}

			if pk, ok := PrimKindOf(v.Type); ok {
				return primitiveDescriptor{kind: pk}
			}
		}

		return primitiveDescriptor{kind: PrimInt}
	case *gimple.RealConstant:
		if v.Type != nil {
			if pk, ok := PrimKindOf(v.Type); ok {
				return primitiveDescriptor{kind: pk}
			}
		}

		return primitiveDescriptor{kind: PrimDouble}
	case *gimple.ComponentRef:
		rd, ok := fc.exprDesc(v.Value).(recordDescriptor)
		if !ok {
			panic(report.Unsupported("member access `%s` on a non-record", v.Repr()))
		}

		return rd.rec.member(v.Member).desc
	case *gimple.MemRef:
		switch pd := fc.exprDesc(v.Pointer).(type) {
		case pointerDescriptor:
			return primitiveDescriptor{kind: pd.elem}
		case recordPtrDescriptor:
			return recordDescriptor{rec: pd.rec}
		case opaqueDescriptor:
			panic(report.Unsupported("dereference of an untyped pointer `%s`", v.Pointer.Repr()))
		}
	case *gimple.ArrayRef:
		switch ad := fc.exprDesc(v.Array).(type) {
		case arrayDescriptor:
			return primitiveDescriptor{kind: ad.elem}
		case primitiveDescriptor:
			// pointer to array dereferenced through a memory reference
			return ad
		}
	case *gimple.StringConstant:
		return arrayDescriptor{elem: PrimChar, at: &gimple.ArrayType{Elem: &gimple.IntegerType{Precision: 8}}}
	case *gimple.AddressOf:
		switch inner := fc.exprDesc(v.Value).(type) {
		case primitiveDescriptor:
			return pointerDescriptor{elem: inner.kind}
		case arrayDescriptor:
			return pointerDescriptor{elem: inner.elem, lower: inner.at.LowerBound}
		case recordDescriptor:
			return recordPtrDescriptor{rec: inner.rec}
		case nil:
			return nil
		}
	case *gimple.FunctionRef:
		return nil
	}

	panic(report.Unsupported("`%s` has no supported representation", e.Repr()))
}

// varDesc returns the descriptor a variable was created from.
func varDesc(v Variable) TypeDescriptor {
	switch vv := v.(type) {
	case *scalarVar:
		return primitiveDescriptor{kind: vv.kind}
	case *arrayVar:
		return arrayDescriptor{elem: vv.elem, at: vv.decl.Type.(*gimple.ArrayType)}
	case *pointerVar:
		return pointerDescriptor{elem: vv.elem, lower: vv.lower}
	case *recordVar:
		return recordDescriptor{rec: vv.rec}
	case *recordPtrVar:
		return recordPtrDescriptor{rec: vv.rec}
	case *funPtrVar:
		return funPtrDescriptor{sig: vv.iface.sig, iface: vv.iface}
	default: // *opaqueVar
		return opaqueDescriptor{}
	}
}
