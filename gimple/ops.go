package gimple

// Op is a GIMPLE tree code used as the operator of an assignment or a
// conditional.  The values are the lower-case tree code names written by the
// plugin.
type Op string

// Enumeration of the tree codes understood by the translator.
const (
	OpVarDecl  Op = "var_decl"
	OpParmDecl Op = "parm_decl"
	OpSSAName  Op = "ssa_name"

	OpNop     Op = "nop_expr"
	OpConvert Op = "convert_expr"
	OpParen   Op = "paren_expr"

	OpIntegerCst Op = "integer_cst"
	OpRealCst    Op = "real_cst"
	OpStringCst  Op = "string_cst"

	OpArrayRef     Op = "array_ref"
	OpMemRef       Op = "mem_ref"
	OpIndirectRef  Op = "indirect_ref"
	OpComponentRef Op = "component_ref"
	OpAddrExpr     Op = "addr_expr"

	OpFloat    Op = "float_expr"
	OpFixTrunc Op = "fix_trunc_expr"

	OpPlus     Op = "plus_expr"
	OpMinus    Op = "minus_expr"
	OpMult     Op = "mult_expr"
	OpRDiv     Op = "rdiv_expr"
	OpTruncDiv Op = "trunc_div_expr"
	OpExactDiv Op = "exact_div_expr"
	OpTruncMod Op = "trunc_mod_expr"
	OpNegate   Op = "negate_expr"
	OpAbs      Op = "abs_expr"
	OpMax      Op = "max_expr"
	OpMin      Op = "min_expr"

	OpBitNot Op = "bit_not_expr"
	OpBitAnd Op = "bit_and_expr"
	OpBitIor Op = "bit_ior_expr"
	OpBitXor Op = "bit_xor_expr"
	OpLShift Op = "lshift_expr"
	OpRShift Op = "rshift_expr"

	OpPointerPlus Op = "pointer_plus_expr"

	OpEq Op = "eq_expr"
	OpNe Op = "ne_expr"
	OpLe Op = "le_expr"
	OpLt Op = "lt_expr"
	OpGt Op = "gt_expr"
	OpGe Op = "ge_expr"

	OpTruthNot Op = "truth_not_expr"
)

// opSymbols gives the infix spelling of binary operators for printing.
var opSymbols = map[Op]string{
	OpPlus:        "+",
	OpMinus:       "-",
	OpMult:        "*",
	OpRDiv:        "/",
	OpTruncDiv:    "/",
	OpExactDiv:    "/",
	OpTruncMod:    "%",
	OpBitAnd:      "&",
	OpBitIor:      "|",
	OpBitXor:      "^",
	OpLShift:      "<<",
	OpRShift:      ">>",
	OpPointerPlus: "p+",
	OpEq:          "==",
	OpNe:          "!=",
	OpLe:          "<=",
	OpLt:          "<",
	OpGt:          ">",
	OpGe:          ">=",
}

// IsComparison returns whether the operator is one of the six relational
// operators.
func (op Op) IsComparison() bool {
	switch op {
	case OpEq, OpNe, OpLe, OpLt, OpGt, OpGe:
		return true
	}

	return false
}

// IsCopy returns whether an assignment with this operator simply copies its
// single operand into the left hand side.
func (op Op) IsCopy() bool {
	switch op {
	case OpVarDecl, OpParmDecl, OpSSAName, OpNop, OpConvert, OpParen:
		return true
	}

	return false
}
