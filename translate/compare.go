package translate

import (
	"math"

	"github.com/LongLingMichael/renjin/gimple"
	"github.com/LongLingMichael/renjin/jimple"
	"github.com/LongLingMichael/renjin/report"
	"github.com/llir/llvm/ir/enum"
)

// predicate is the meaning of a relational operator: the integer predicate
// used for integral operands and the floating-point predicate that fixes its
// outcome when either operand is NaN.
type predicate struct {
	ipred enum.IPred
	fpred enum.FPred
}

// cond returns the relational operator of the integer predicate.  Unsigned
// predicates map to the signed operator: their operands are biased first.
func (p predicate) cond() string {
	switch p.ipred {
	case enum.IPredEQ:
		return jimple.CondEq
	case enum.IPredNE:
		return jimple.CondNe
	case enum.IPredSLT, enum.IPredULT:
		return jimple.CondLt
	case enum.IPredSLE, enum.IPredULE:
		return jimple.CondLe
	case enum.IPredSGT, enum.IPredUGT:
		return jimple.CondGt
	default: // IPredSGE, IPredUGE
		return jimple.CondGe
	}
}

// isUnsigned returns whether the integer predicate orders unsigned values.
func (p predicate) isUnsigned() bool {
	switch p.ipred {
	case enum.IPredULT, enum.IPredULE, enum.IPredUGT, enum.IPredUGE:
		return true
	}

	return false
}

// unsigned returns the predicate ordering its operands as unsigned integers.
// Equality is the same either way.
func (p predicate) unsigned() predicate {
	switch p.ipred {
	case enum.IPredSLT:
		p.ipred = enum.IPredULT
	case enum.IPredSLE:
		p.ipred = enum.IPredULE
	case enum.IPredSGT:
		p.ipred = enum.IPredUGT
	case enum.IPredSGE:
		p.ipred = enum.IPredUGE
	}

	return p
}

// predicates gives the meaning of each relational operator.  Every comparison
// is ordered except `!=` which holds when the operands are unordered.
var predicates = map[gimple.Op]predicate{
	gimple.OpEq: {enum.IPredEQ, enum.FPredOEQ},
	gimple.OpNe: {enum.IPredNE, enum.FPredUNE},
	gimple.OpLt: {enum.IPredSLT, enum.FPredOLT},
	gimple.OpLe: {enum.IPredSLE, enum.FPredOLE},
	gimple.OpGt: {enum.IPredSGT, enum.FPredOGT},
	gimple.OpGe: {enum.IPredSGE, enum.FPredOGE},
}

// unordered returns whether a floating-point predicate holds when either
// operand is NaN.
func unordered(fp enum.FPred) bool {
	switch fp {
	case enum.FPredUEQ, enum.FPredUGT, enum.FPredUGE, enum.FPredULT,
		enum.FPredULE, enum.FPredUNE, enum.FPredUNO, enum.FPredTrue:
		return true
	}

	return false
}

// holds evaluates `x cond y` on integers.
func holds(cond string, x, y int) bool {
	switch cond {
	case jimple.CondEq:
		return x == y
	case jimple.CondNe:
		return x != y
	case jimple.CondLt:
		return x < y
	case jimple.CondLe:
		return x <= y
	case jimple.CondGt:
		return x > y
	default: // CondGe
		return x >= y
	}
}

// realComparison returns the three-way comparison to use for real operands.
// The comparison is followed by `t cond 0` so the instruction is chosen such
// that its NaN result makes that test agree with the predicate's unordered
// outcome: `cmpl` yields -1 on NaN and `cmpg` yields 1.
func realComparison(p predicate) string {
	if holds(p.cond(), -1, 0) == unordered(p.fpred) {
		return "cmpl"
	}

	return "cmpg"
}

// comparisonKind returns the kind both operands of a comparison are
// converted to: the widest of the two.
func comparisonKind(a, b PrimKind) PrimKind {
	switch {
	case a == PrimDouble || b == PrimDouble:
		return PrimDouble
	case a == PrimFloat || b == PrimFloat:
		return PrimFloat
	case a == PrimLong || b == PrimLong:
		return PrimLong
	}

	return PrimInt
}

// -----------------------------------------------------------------------------

// emitBranch emits a two way branch on a comparison.
func (fc *FunctionContext) emitBranch(op gimple.Op, operands []gimple.Expr, trueLabel, falseLabel string) {
	fc.branch(op, operands, trueLabel)
	fc.builder.AddGoto(falseLabel)
}

// compareValue computes the result of a comparison as a boolean.
func (fc *FunctionContext) compareValue(op gimple.Op, operands []gimple.Expr) jimple.Expr {
	result := fc.NewTemp(jimple.Boolean)
	trueLabel, doneLabel := fc.NewLabel(), fc.NewLabel()

	fc.branch(op, operands, trueLabel)
	fc.builder.AddAssignment(result, intConstant(PrimBoolean, 0))
	fc.builder.AddGoto(doneLabel)
	fc.builder.AddLabel(trueLabel)
	fc.builder.AddAssignment(result, intConstant(PrimBoolean, 1))
	fc.builder.AddLabel(doneLabel)
	return result
}

// branch emits a jump to trueLabel taken when the comparison holds.  Control
// falls through otherwise.
func (fc *FunctionContext) branch(op gimple.Op, operands []gimple.Expr, trueLabel string) {
	if !op.IsComparison() {
		panic(report.Unsupported("`%s` is not a comparison", op))
	}

	if len(operands) != 2 {
		panic(report.Unsupported("comparison expects 2 operands, got %d", len(operands)))
	}

	x, y := operands[0], operands[1]
	xd, yd := fc.exprDesc(x), fc.exprDesc(y)

	xp, xPrim := xd.(primitiveDescriptor)
	yp, yPrim := yd.(primitiveDescriptor)

	if xPrim && yPrim {
		pk := comparisonKind(xp.kind, yp.kind)
		p := predicates[op]
		xv, yv := fc.readNumeric(x, pk), fc.readNumeric(y, pk)

		if !pk.IsReal() {
			xu, yu := fc.isUnsigned(x), fc.isUnsigned(y)
			xv, yv = fc.zeroExtend(xv, xp.kind, pk, xu), fc.zeroExtend(yv, yp.kind, pk, yu)

			// operands narrower than the comparison are non-negative once
			// zero extended
			if (xu && xp.kind.Size() == pk.Size()) || (yu && yp.kind.Size() == pk.Size()) {
				p = p.unsigned()
			}
		}

		fc.branchPrim(p, xv, yv, pk, trueLabel)
		return
	}

	// a null pointer constant compared to a pointer has a primitive
	// descriptor when its type is missing
	if !xPrim && isNullConstant(y) {
		yd = xd
	} else if !yPrim && isNullConstant(x) {
		xd = yd
	}

	fc.branchPointer(op, x, y, xd, trueLabel)
}

// branchPrim emits a jump to trueLabel taken when `x p y` holds for two
// immediates of kind pk.  Unsigned predicates flip the sign bit of both
// operands which maps unsigned order onto signed order.
func (fc *FunctionContext) branchPrim(p predicate, x, y jimple.Expr, pk PrimKind, trueLabel string) {
	if p.isUnsigned() {
		x, y = fc.biasSign(x, pk), fc.biasSign(y, pk)
	}

	switch {
	case pk.IsReal():
		t := fc.materialize(&jimple.BinOp{Op: realComparison(p), X: x, Y: y, T: jimple.Int})
		fc.builder.AddIf(&jimple.Cond{Op: p.cond(), X: t, Y: jimple.IntLit(0)}, trueLabel)
	case pk == PrimLong:
		t := fc.materialize(&jimple.BinOp{Op: "cmp", X: x, Y: y, T: jimple.Int})
		fc.builder.AddIf(&jimple.Cond{Op: p.cond(), X: t, Y: jimple.IntLit(0)}, trueLabel)
	default:
		fc.builder.AddIf(&jimple.Cond{Op: p.cond(), X: x, Y: y}, trueLabel)
	}
}

// biasSign flips the sign bit of an integer immediate of kind pk.
func (fc *FunctionContext) biasSign(x jimple.Expr, pk PrimKind) jimple.Expr {
	bias := int64(math.MinInt32)
	if pk == PrimLong {
		bias = math.MinInt64
	}

	return fc.materialize(&jimple.BinOp{Op: "^", X: x, Y: intConstant(pk, bias), T: pk.JimpleType()})
}

// zeroExtend reinterprets an unsigned operand of kind from that was widened to
// kind to by sign extension.
func (fc *FunctionContext) zeroExtend(x jimple.Expr, from, to PrimKind, unsigned bool) jimple.Expr {
	if !unsigned || from.Size() >= to.Size() || from == PrimBoolean {
		return x
	}

	mask := int64(1)<<(8*from.Size()) - 1
	return fc.materialize(&jimple.BinOp{Op: "&", X: x, Y: intConstant(to, mask), T: to.JimpleType()})
}

// isUnsigned returns whether an operand is a native unsigned integer.
func (fc *FunctionContext) isUnsigned(e gimple.Expr) bool {
	t := fc.exprType(e)
	if at, ok := t.(*gimple.ArrayType); ok {
		t = at.Elem
	}

	it, ok := t.(*gimple.IntegerType)
	return ok && it.Unsigned
}

// exprType returns the native type of an operand or nil if it has none
// recorded.
func (fc *FunctionContext) exprType(e gimple.Expr) gimple.Type {
	var inner gimple.Expr

	switch v := e.(type) {
	case *gimple.VariableRef:
		return fc.lookupVar(v).Decl().Type
	case *gimple.IntegerConstant:
		if v.Type != nil {
			return v.Type
		}

		return nil
	case *gimple.MemRef:
		inner = v.Pointer
	case *gimple.ArrayRef:
		inner = v.Array
	default:
		return nil
	}

	t := fc.exprType(inner)
	if t == nil {
		return nil
	}

	base, err := gimple.BaseType(t)
	if err != nil {
		return nil
	}

	return base
}

// branchPointer compares two pointers.  Primitive pointers are equal if they
// share both array and offset; any two pointers into the same array are
// ordered by offset.  Reference pointers only support equality.
func (fc *FunctionContext) branchPointer(op gimple.Op, x, y gimple.Expr, desc TypeDescriptor, trueLabel string) {
	p := predicates[op]

	pd, isPrimPtr := desc.(pointerDescriptor)
	if !isPrimPtr {
		if op != gimple.OpEq && op != gimple.OpNe {
			panic(report.Unsupported("ordering comparison of %s and %s", x.Repr(), y.Repr()))
		}

		var xv, yv jimple.Expr = jimple.NullConst{}, jimple.NullConst{}
		if !isNullConstant(x) {
			xv = fc.immediate(fc.refValue(x, desc))
		}
		if !isNullConstant(y) {
			yv = fc.immediate(fc.refValue(y, desc))
		}

		fc.builder.AddIf(&jimple.Cond{Op: p.cond(), X: xv, Y: yv}, trueLabel)
		return
	}

	xv, yv := fc.pointerValue(x, pd.elem), fc.pointerValue(y, pd.elem)

	// comparison against null only inspects the array
	if xv.null || yv.null {
		if op != gimple.OpEq && op != gimple.OpNe {
			panic(report.Unsupported("ordering comparison against a null pointer"))
		}

		fc.builder.AddIf(&jimple.Cond{Op: p.cond(), X: xv.array, Y: yv.array}, trueLabel)
		return
	}

	switch op {
	case gimple.OpEq:
		differLabel := fc.NewLabel()
		fc.builder.AddIf(&jimple.Cond{Op: jimple.CondNe, X: xv.array, Y: yv.array}, differLabel)
		fc.builder.AddIf(&jimple.Cond{Op: jimple.CondEq, X: xv.offset, Y: yv.offset}, trueLabel)
		fc.builder.AddLabel(differLabel)
	case gimple.OpNe:
		fc.builder.AddIf(&jimple.Cond{Op: jimple.CondNe, X: xv.array, Y: yv.array}, trueLabel)
		fc.builder.AddIf(&jimple.Cond{Op: jimple.CondNe, X: xv.offset, Y: yv.offset}, trueLabel)
	default:
		fc.builder.AddIf(&jimple.Cond{Op: p.cond(), X: xv.offset, Y: yv.offset}, trueLabel)
	}
}

// isNullConstant returns whether an operand is the integer constant zero.
func isNullConstant(e gimple.Expr) bool {
	c, ok := e.(*gimple.IntegerConstant)
	return ok && c.Value == 0
}
