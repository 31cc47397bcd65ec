package xform

import (
	"github.com/LongLingMichael/renjin/gimple"
	"github.com/samber/lo"
)

// VoidPointerTypeDeducer attempts to determine the pointee type of a single
// `void*` declaration from the typed declarations it is copied into.  It is
// the only thing allowed to change the type of a declaration after the unit is
// read.
type VoidPointerTypeDeducer struct {
	unit *gimple.Unit

	// fn is the function declaring decl: nil if decl is a global variable in
	// which case every function of the unit is searched.
	fn   *gimple.Function
	decl *gimple.VarDecl
}

// NewVoidPointerTypeDeducer creates a new deducer for decl.  fn should be nil
// for global declarations.
func NewVoidPointerTypeDeducer(unit *gimple.Unit, fn *gimple.Function, decl *gimple.VarDecl) *VoidPointerTypeDeducer {
	return &VoidPointerTypeDeducer{unit: unit, fn: fn, decl: decl}
}

// Deduce updates the type of the declaration if exactly one candidate type
// can be found for it.  It returns whether the declaration was updated.
func (vd *VoidPointerTypeDeducer) Deduce() bool {
	if t, ok := vd.deduceType(); ok {
		vd.decl.Type = t
		return true
	}

	return false
}

// deduceType computes the deduced type without applying it.
func (vd *VoidPointerTypeDeducer) deduceType() (gimple.Type, bool) {
	if !gimple.IsVoidPointer(vd.decl.Type) {
		return nil, false
	}

	candidates := lo.UniqBy(vd.candidates(), func(t gimple.Type) string {
		return t.Repr()
	})

	// untyped left hand sides are candidates too but never a deduction
	if len(candidates) == 1 && !gimple.IsVoidPointer(candidates[0]) {
		return candidates[0], true
	}

	return nil, false
}

// candidates collects the current type of the left hand side of every plain
// copy of the declaration.
func (vd *VoidPointerTypeDeducer) candidates() []gimple.Type {
	var types []gimple.Type

	for _, fn := range vd.searchScope() {
		fn.ForEachIns(func(_ *gimple.BasicBlock, ins gimple.Ins) {
			assign, ok := ins.(*gimple.Assign)
			if !ok || !assign.Op.IsCopy() || len(assign.Operands) != 1 {
				return
			}

			if !vd.isReference(fn, assign.Operands[0]) {
				return
			}

			if t, ok := inferTypeFromLHS(vd.unit, fn, assign.LHS); ok {
				types = append(types, t)
			}
		})
	}

	return types
}

func (vd *VoidPointerTypeDeducer) searchScope() []*gimple.Function {
	if vd.fn == nil {
		return vd.unit.Functions
	}

	return []*gimple.Function{vd.fn}
}

// isReference returns whether expr refers to the declaration being deduced.
// Locals are referenced by identity, globals by name.
func (vd *VoidPointerTypeDeducer) isReference(fn *gimple.Function, expr gimple.Expr) bool {
	ref, ok := expr.(*gimple.VariableRef)
	if !ok {
		return false
	}

	if vd.fn != nil {
		return ref.ID == vd.decl.ID
	}

	// a local shadowing the global is not a reference to it
	if _, isLocal := fn.LookupVar(ref.ID); isLocal {
		return false
	}

	return ref.Name != "" && ref.Name == vd.decl.Name
}

// inferTypeFromLHS returns the current type of the declaration assigned to.
func inferTypeFromLHS(unit *gimple.Unit, fn *gimple.Function, lhs gimple.Expr) (gimple.Type, bool) {
	ref, ok := lhs.(*gimple.VariableRef)
	if !ok {
		return nil, false
	}

	if decl, ok := fn.LookupVar(ref.ID); ok {
		return decl.Type, true
	}

	if ref.Name == "" {
		return nil, false
	}

	if decl, ok := unit.LookupGlobal(ref.Name); ok {
		return decl.Type, true
	}

	return nil, false
}
