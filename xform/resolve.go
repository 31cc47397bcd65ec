package xform

import (
	"github.com/LongLingMichael/renjin/gimple"
)

// Unresolved is an untyped pointer declaration whose pointee type could not be
// deduced.  It is translated as an opaque pointer.
type Unresolved struct {
	// Function is the name of the declaring function: empty for globals.
	Function string
	Decl     *gimple.VarDecl
}

// Result is the outcome of void pointer resolution over a unit.
type Result struct {
	// Passes is the number of passes run including the final pass in which
	// nothing changed.
	Passes int

	Unresolved []Unresolved
}

// ResolveVoidPointers refines the types of the untyped pointer declarations of
// a unit until a full pass makes no further change.  Every deduction within a
// pass is computed against the types as they stood at the start of the pass so
// the result does not depend on the order of functions or declarations.
func ResolveVoidPointers(unit *gimple.Unit) Result {
	var result Result

	for {
		result.Passes++

		type update struct {
			decl *gimple.VarDecl
			t    gimple.Type
		}

		var updates []update
		for _, d := range deducers(unit) {
			if t, ok := d.deduceType(); ok {
				updates = append(updates, update{d.decl, t})
			}
		}

		if len(updates) == 0 {
			break
		}

		for _, u := range updates {
			u.decl.Type = u.t
		}
	}

	for _, d := range deducers(unit) {
		u := Unresolved{Decl: d.decl}
		if d.fn != nil {
			u.Function = d.fn.Name
		}

		result.Unresolved = append(result.Unresolved, u)
	}

	return result
}

// deducers creates a deducer for every untyped pointer declaration remaining
// in the unit: globals first, then the locals of each function.
func deducers(unit *gimple.Unit) []*VoidPointerTypeDeducer {
	var ds []*VoidPointerTypeDeducer

	for _, decl := range unit.Globals {
		if gimple.IsVoidPointer(decl.Type) {
			ds = append(ds, NewVoidPointerTypeDeducer(unit, nil, decl))
		}
	}

	for _, fn := range unit.Functions {
		for _, decl := range fn.VarDecls {
			if gimple.IsVoidPointer(decl.Type) {
				ds = append(ds, NewVoidPointerTypeDeducer(unit, fn, decl))
			}
		}
	}

	return ds
}
