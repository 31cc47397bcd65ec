package translate

import (
	"fmt"

	"github.com/LongLingMichael/renjin/gimple"
	"github.com/LongLingMichael/renjin/jimple"
	"github.com/LongLingMichael/renjin/report"
)

// FunctionContext holds the state of the translation of a single function
// body: the method being built, the storage of every declaration and the
// counters used to name temporaries and labels.
type FunctionContext struct {
	tc      *TranslationContext
	fn      *gimple.Function
	builder *jimple.MethodBuilder
	conv    CallingConvention
	usage   UsageFacts

	// vars maps declaration identity to storage.
	vars map[int]Variable

	tempCount  int
	labelCount int
}

// labelBase is the number of the first synthesized label.  Block labels are
// derived from block indices so synthesized labels are numbered well clear of
// them.
const labelBase = 1000

func newFunctionContext(tc *TranslationContext, builder *jimple.MethodBuilder, conv CallingConvention) *FunctionContext {
	return &FunctionContext{
		tc:         tc,
		builder:    builder,
		conv:       conv,
		usage:      make(UsageFacts),
		vars:       make(map[int]Variable),
		labelCount: labelBase,
	}
}

// NewTemp declares a fresh temporary local.
func (fc *FunctionContext) NewTemp(t jimple.Type) *jimple.Local {
	for {
		name := fmt.Sprintf("_tmp%d", fc.tempCount)
		fc.tempCount++

		if !fc.builder.HasLocal(name) {
			return fc.builder.AddLocal(t, name)
		}
	}
}

// NewLabel returns a fresh label name.
func (fc *FunctionContext) NewLabel() string {
	label := fmt.Sprintf("trlabel%d__", fc.labelCount)
	fc.labelCount++
	return label
}

// blockLabel returns the label of the basic block with the given index.
func blockLabel(index int) string {
	return fmt.Sprintf("BB%d", index)
}

// materialize stores a compound expression in a fresh temporary and returns
// the temporary.
func (fc *FunctionContext) materialize(e jimple.Expr) *jimple.Local {
	if l, ok := e.(*jimple.Local); ok {
		return l
	}

	t := fc.NewTemp(e.Type())
	fc.builder.AddAssignment(t, e)
	return t
}

// immediate returns an expression usable as the operand of a compound
// expression: a local or a constant.
func (fc *FunctionContext) immediate(e jimple.Expr) jimple.Expr {
	switch e.(type) {
	case *jimple.Local, *jimple.IntConst, *jimple.FloatConst, *jimple.StringConst, jimple.NullConst:
		return e
	}

	return fc.materialize(e)
}

// -----------------------------------------------------------------------------

// lookupVar returns the storage of a referenced variable: locals and parameters
// first, then unit globals, then external fields.
func (fc *FunctionContext) lookupVar(ref *gimple.VariableRef) Variable {
	if v, ok := fc.vars[ref.ID]; ok {
		return v
	}

	if ref.Name != "" {
		if v, ok := fc.tc.globals[ref.Name]; ok {
			return v
		}

		if terr, ok := fc.tc.globalErrs[ref.Name]; ok {
			panic(terr)
		}

		if ef, ok := fc.tc.methods.LookupField(ref.Name); ok {
			pk, ok := primKindOfJimple(ef.Ref.T)
			if !ok {
				panic(report.Unsupported("external field %s is not a primitive", ef.Ref.Repr()))
			}

			v := &scalarVar{decl: &gimple.VarDecl{ID: ref.ID, Name: ref.Name}, kind: pk, field: ef.Ref}
			fc.vars[ref.ID] = v
			return v
		}
	}

	panic(report.Lookup("unable to resolve variable `%s`", ref.Repr()))
}

// createVariable creates and records the storage of a local or parameter.  The
// storage created by the descriptor must be the kind Classify assigns to the
// declaration.
func (fc *FunctionContext) createVariable(desc TypeDescriptor, decl *gimple.VarDecl) Variable {
	usage := fc.usage.Of(decl.ID)
	v := desc.CreateVariable(fc, decl, usage)

	if kind, ok := Classify(decl.Type, usage); ok && v.Kind() != kind {
		panic(report.Unsupported("%s stored as a %s", kind, v.Kind()).WithDecl(decl.Repr()))
	}

	fc.vars[decl.ID] = v
	return v
}

// declareVar creates the storage of a local declaration and applies its
// initializer.
func (fc *FunctionContext) declareVar(decl *gimple.VarDecl) Variable {
	v := fc.createVariable(fc.tc.ResolveType(decl.Type), decl)

	if decl.Value != nil {
		fc.assignValue(&gimple.VariableRef{ID: decl.ID, Name: decl.Name}, decl.Value)
	}

	return v
}

// -----------------------------------------------------------------------------

// translateBody translates the parameters, declarations and blocks of a unit
// function.
func (fc *FunctionContext) translateBody(uf *unitFunction) {
	for i, p := range uf.fn.Params {
		v := fc.createVariable(uf.params[i], p)
		fc.unmarshallParameter(v, fc.builder.Params[i])
	}

	for _, decl := range uf.fn.VarDecls {
		fc.declareVar(decl)
	}

	for _, bb := range uf.fn.BasicBlocks {
		fc.builder.AddLabel(blockLabel(bb.Index))

		for _, ins := range bb.Instructions {
			fc.translateIns(ins)
		}
	}

	if !fc.builder.EndsWithTerminator() {
		if _, isVoid := uf.ret.(voidDescriptor); !isVoid {
			panic(report.Unsupported("control reaches the end of non-void function"))
		}

		fc.builder.AddReturn(nil)
	}
}

// translateIns translates a single instruction.  Any failure raised while
// translating it is annotated with the instruction.
func (fc *FunctionContext) translateIns(ins gimple.Ins) {
	defer report.AnnotateInstruction(ins.Repr())

	switch v := ins.(type) {
	case *gimple.Assign:
		fc.translateAssign(v)
	case *gimple.Conditional:
		fc.emitBranch(v.Op, v.Operands, blockLabel(v.TrueLabel), blockLabel(v.FalseLabel))
	case *gimple.Call:
		fc.translateCall(v)
	case *gimple.Goto:
		fc.builder.AddGoto(blockLabel(v.Target))
	case *gimple.Return:
		fc.translateReturn(v)
	case gimple.Nop:
		// nothing to do
	default:
		panic(report.Unsupported("unknown instruction"))
	}
}

// translateReturn translates a return instruction.
func (fc *FunctionContext) translateReturn(ret *gimple.Return) {
	if ret.Value == nil {
		if fc.builder.ReturnType != jimple.Void {
			panic(report.Unsupported("missing return value"))
		}

		fc.builder.AddReturn(nil)
		return
	}

	if fc.builder.ReturnType == jimple.Void {
		// GIMPLE may return a value from a void function: discard it
		fc.builder.AddReturn(nil)
		return
	}

	fc.builder.AddReturn(fc.marshallValue(ret.Value, fc.builder.ReturnType))
}
