package xform

import (
	"testing"

	"github.com/LongLingMichael/renjin/gimple"
	"github.com/kr/pretty"
)

func voidPtr() gimple.Type {
	return &gimple.PointerType{Base: gimple.VoidType{}}
}

func ptrTo(base gimple.Type) gimple.Type {
	return &gimple.PointerType{Base: base}
}

var (
	int32T  = &gimple.IntegerType{Precision: 32}
	real64T = &gimple.RealType{Precision: 64}
	intArr  = &gimple.ArrayType{Elem: int32T, UpperBound: bound(9)}
)

func bound(n int64) *int64 {
	return &n
}

func ref(decl *gimple.VarDecl) *gimple.VariableRef {
	return &gimple.VariableRef{ID: decl.ID, Name: decl.Name}
}

// copyTo builds `lhs = rhs` with a plain copy operator.
func copyTo(op gimple.Op, lhs, rhs *gimple.VarDecl) gimple.Ins {
	return &gimple.Assign{Op: op, LHS: ref(lhs), Operands: []gimple.Expr{ref(rhs)}}
}

func function(name string, decls []*gimple.VarDecl, ins ...gimple.Ins) *gimple.Function {
	return &gimple.Function{
		Name:        name,
		VarDecls:    decls,
		BasicBlocks: []*gimple.BasicBlock{{Index: 2, Instructions: ins}},
	}
}

// typesOf returns the printed type of every declaration of the unit.
func typesOf(unit *gimple.Unit) map[string]string {
	types := make(map[string]string)
	for _, decl := range unit.Globals {
		types[decl.Repr()] = decl.Type.Repr()
	}

	for _, fn := range unit.Functions {
		for _, decl := range fn.VarDecls {
			types[fn.Name+"."+decl.Repr()] = decl.Type.Repr()
		}
	}

	return types
}

// -----------------------------------------------------------------------------

func TestDeduceLocal(t *testing.T) {
	p := &gimple.VarDecl{ID: 1, Name: "p", Type: voidPtr()}
	q := &gimple.VarDecl{ID: 2, Name: "q", Type: ptrTo(int32T)}
	r := &gimple.VarDecl{ID: 3, Name: "r", Type: ptrTo(real64T)}

	tests := []struct {
		name    string
		ins     []gimple.Ins
		updated bool
		want    string
	}{
		{"single candidate", []gimple.Ins{copyTo(gimple.OpNop, q, p)}, true, "*int32"},
		{"repeated candidate", []gimple.Ins{copyTo(gimple.OpNop, q, p), copyTo(gimple.OpVarDecl, q, p)}, true, "*int32"},
		{"two candidates", []gimple.Ins{copyTo(gimple.OpNop, q, p), copyTo(gimple.OpSSAName, r, p)}, false, "*void"},
		{"no copies", []gimple.Ins{copyTo(gimple.OpNop, q, r)}, false, "*void"},
		{"not a copy", []gimple.Ins{&gimple.Assign{Op: gimple.OpPointerPlus, LHS: ref(q), Operands: []gimple.Expr{ref(p), &gimple.IntegerConstant{Value: 4}}}}, false, "*void"},
		{"copy into itself", []gimple.Ins{copyTo(gimple.OpNop, p, p)}, false, "*void"},
		{"typed and untyped candidates", []gimple.Ins{copyTo(gimple.OpNop, p, p), copyTo(gimple.OpConvert, r, p)}, false, "*void"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			p.Type = voidPtr()
			unit := &gimple.Unit{Functions: []*gimple.Function{function("f", []*gimple.VarDecl{p, q, r}, test.ins...)}}

			if got := NewVoidPointerTypeDeducer(unit, unit.Functions[0], p).Deduce(); got != test.updated {
				t.Errorf("Deduce: got %v, want %v", got, test.updated)
			}

			if got := p.Type.Repr(); got != test.want {
				t.Errorf("type: got %s, want %s", got, test.want)
			}
		})
	}
}

func TestResolveArrayPointer(t *testing.T) {
	p := &gimple.VarDecl{ID: 1, Name: "p", Type: voidPtr()}
	a := &gimple.VarDecl{ID: 2, Name: "a", Type: ptrTo(intArr)}

	v := &gimple.VarDecl{ID: 3, Name: "v", Type: voidPtr()}
	b := &gimple.VarDecl{ID: 4, Name: "b", Type: ptrTo(intArr)}
	d := &gimple.VarDecl{ID: 5, Name: "d", Type: ptrTo(real64T)}

	unit := &gimple.Unit{Functions: []*gimple.Function{
		function("f", []*gimple.VarDecl{p, a}, copyTo(gimple.OpNop, a, p)),
		function("g", []*gimple.VarDecl{v, b, d}, copyTo(gimple.OpNop, b, v), copyTo(gimple.OpNop, d, v)),
	}}

	result := ResolveVoidPointers(unit)

	if got := p.Type.Repr(); got != "*int32[0..9]" {
		t.Errorf("p: got %s", got)
	}

	if !gimple.IsVoidPointer(v.Type) {
		t.Errorf("v should remain untyped, got %s", v.Type.Repr())
	}

	if len(result.Unresolved) != 1 || result.Unresolved[0].Decl != v || result.Unresolved[0].Function != "g" {
		t.Errorf("unresolved: got %# v", pretty.Formatter(result.Unresolved))
	}
}

func TestResolveUntypedCandidate(t *testing.T) {
	// q is copied into a typed pointer and into v which never becomes typed:
	// two distinct candidates so q stays untyped
	q := &gimple.VarDecl{ID: 1, Name: "q", Type: voidPtr()}
	a := &gimple.VarDecl{ID: 2, Name: "a", Type: ptrTo(int32T)}
	v := &gimple.VarDecl{ID: 3, Name: "v", Type: voidPtr()}

	unit := &gimple.Unit{Functions: []*gimple.Function{
		function("f", []*gimple.VarDecl{q, a, v},
			copyTo(gimple.OpNop, a, q),
			copyTo(gimple.OpNop, v, q),
		),
	}}

	result := ResolveVoidPointers(unit)

	want := map[string]string{"f.q_1": "*void", "f.a_2": "*int32", "f.v_3": "*void"}
	if diff := pretty.Diff(typesOf(unit), want); len(diff) > 0 {
		t.Errorf("types differ: %v", diff)
	}

	if result.Passes != 1 || len(result.Unresolved) != 2 {
		t.Errorf("got %d passes and %d unresolved declarations", result.Passes, len(result.Unresolved))
	}
}

func TestResolveFixedPoint(t *testing.T) {
	// p flows into p2 which flows into q: p2 is only typed in the first pass
	// and p in the second
	p := &gimple.VarDecl{ID: 1, Name: "p", Type: voidPtr()}
	p2 := &gimple.VarDecl{ID: 2, Name: "p2", Type: voidPtr()}
	q := &gimple.VarDecl{ID: 3, Name: "q", Type: ptrTo(real64T)}

	unit := &gimple.Unit{Functions: []*gimple.Function{
		function("f", []*gimple.VarDecl{p, p2, q},
			copyTo(gimple.OpVarDecl, p2, p),
			copyTo(gimple.OpNop, q, p2),
		),
	}}

	result := ResolveVoidPointers(unit)
	if result.Passes != 3 {
		t.Errorf("passes: got %d, want 3", result.Passes)
	}

	if len(result.Unresolved) != 0 {
		t.Errorf("unresolved: got %d declarations", len(result.Unresolved))
	}

	for _, decl := range []*gimple.VarDecl{p, p2} {
		if got := decl.Type.Repr(); got != "*real64" {
			t.Errorf("%s: got %s", decl.Repr(), got)
		}
	}

	// convergence is stable
	before := typesOf(unit)
	if again := ResolveVoidPointers(unit); again.Passes != 1 {
		t.Errorf("second run: got %d passes", again.Passes)
	}

	if diff := pretty.Diff(before, typesOf(unit)); len(diff) > 0 {
		t.Errorf("second run changed types: %v", diff)
	}
}

func TestResolveGlobals(t *testing.T) {
	// other precedes the target global so a lookup that ignores the assigned
	// name picks the wrong type
	other := &gimple.VarDecl{ID: 40, Name: "other", Type: ptrTo(real64T)}
	buffer := &gimple.VarDecl{ID: 41, Name: "buffer", Type: ptrTo(int32T)}
	handle := &gimple.VarDecl{ID: 42, Name: "handle", Type: voidPtr()}

	p := &gimple.VarDecl{ID: 1, Name: "p", Type: voidPtr()}
	q := &gimple.VarDecl{ID: 2, Name: "q", Type: ptrTo(int32T)}

	unit := &gimple.Unit{
		Globals: []*gimple.VarDecl{other, buffer, handle},
		Functions: []*gimple.Function{
			// a local stored into a global
			function("store", []*gimple.VarDecl{p}, copyTo(gimple.OpNop, buffer, p)),

			// a global loaded into a local, in another function
			function("load", []*gimple.VarDecl{q}, copyTo(gimple.OpVarDecl, q, handle)),
		},
	}

	result := ResolveVoidPointers(unit)

	if got := p.Type.Repr(); got != "*int32" {
		t.Errorf("local stored into a global: got %s, want *int32", got)
	}

	if got := handle.Type.Repr(); got != "*int32" {
		t.Errorf("global loaded into a local: got %s, want *int32", got)
	}

	if len(result.Unresolved) != 0 {
		t.Errorf("unresolved: %# v", pretty.Formatter(result.Unresolved))
	}
}

func TestResolveGlobalShadowedByLocal(t *testing.T) {
	handle := &gimple.VarDecl{ID: 42, Name: "handle", Type: voidPtr()}
	local := &gimple.VarDecl{ID: 7, Name: "handle", Type: voidPtr()}
	q := &gimple.VarDecl{ID: 2, Name: "q", Type: ptrTo(int32T)}

	unit := &gimple.Unit{
		Globals:   []*gimple.VarDecl{handle},
		Functions: []*gimple.Function{function("f", []*gimple.VarDecl{local, q}, copyTo(gimple.OpNop, q, local))},
	}

	ResolveVoidPointers(unit)

	if got := local.Type.Repr(); got != "*int32" {
		t.Errorf("local: got %s", got)
	}

	if !gimple.IsVoidPointer(handle.Type) {
		t.Errorf("global should not see copies of the local, got %s", handle.Type.Repr())
	}
}

func TestResolveOrderIndependent(t *testing.T) {
	build := func(reversed bool) *gimple.Unit {
		p := &gimple.VarDecl{ID: 1, Name: "p", Type: voidPtr()}
		v := &gimple.VarDecl{ID: 2, Name: "v", Type: voidPtr()}
		q := &gimple.VarDecl{ID: 3, Name: "q", Type: ptrTo(int32T)}
		r := &gimple.VarDecl{ID: 4, Name: "r", Type: ptrTo(real64T)}

		// v has a typed candidate from the start and gains p as a second
		// candidate once p is resolved
		f := function("f", []*gimple.VarDecl{p, v, q, r},
			copyTo(gimple.OpNop, q, p),
			copyTo(gimple.OpNop, r, v),
			copyTo(gimple.OpNop, p, v),
		)

		if reversed {
			f.VarDecls = []*gimple.VarDecl{r, q, v, p}
		}

		return &gimple.Unit{Functions: []*gimple.Function{f}}
	}

	forward, backward := build(false), build(true)
	ResolveVoidPointers(forward)
	ResolveVoidPointers(backward)

	if diff := pretty.Diff(typesOf(forward), typesOf(backward)); len(diff) > 0 {
		t.Errorf("declaration order changed the result: %v", diff)
	}
}
