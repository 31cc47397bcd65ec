package translate

import (
	"math"
	"strings"
	"testing"

	"github.com/LongLingMichael/renjin/gimple"
	"github.com/LongLingMichael/renjin/jimple"
	"github.com/LongLingMichael/renjin/jimple/interp"
	"github.com/LongLingMichael/renjin/report"
)

func TestIntegerArithmetic(t *testing.T) {
	binary := func(name, op, typ string) fnDef {
		return fnDef{
			name:   name,
			ret:    typ,
			params: []string{decl(1, "a", typ), decl(2, "b", typ)},
			vars:   []string{decl(3, "", typ)},
			blocks: []string{block(2,
				assign(op, ref(3, ""), ref(1, "a"), ref(2, "b")),
				ret(ref(3, "")),
			)},
		}
	}

	unary := func(name, op, typ string) fnDef {
		return fnDef{
			name:   name,
			ret:    typ,
			params: []string{decl(1, "a", typ)},
			vars:   []string{decl(2, "", typ)},
			blocks: []string{block(2,
				assign(op, ref(2, ""), ref(1, "a")),
				ret(ref(2, "")),
			)},
		}
	}

	out := translateFixture(t, unitDef{functions: []fnDef{
		binary("add", "plus_expr", intT),
		binary("sub", "minus_expr", intT),
		binary("div", "trunc_div_expr", intT),
		binary("mod", "trunc_mod_expr", intT),
		binary("ladd", "plus_expr", longT),
		binary("sadd", "plus_expr", shortT),
		binary("max", "max_expr", intT),
		binary("min", "min_expr", intT),
		binary("shl", "lshift_expr", intT),
		binary("and", "bit_and_expr", intT),
		unary("neg", "negate_expr", intT),
		unary("inv", "bit_not_expr", intT),
		unary("abs", "abs_expr", intT),
		unary("not", "truth_not_expr", intT),
		unary("sneg", "negate_expr", shortT),
	}}, nil)

	m := interp.New(out)

	tests := []struct {
		fn   string
		args []interp.Value
		want interp.Value
	}{
		{"add", []interp.Value{int32(2), int32(3)}, int32(5)},
		{"add", []interp.Value{int32(math.MaxInt32), int32(1)}, int32(math.MinInt32)},
		{"sub", []interp.Value{int32(2), int32(3)}, int32(-1)},
		{"div", []interp.Value{int32(-7), int32(2)}, int32(-3)},
		{"mod", []interp.Value{int32(-7), int32(2)}, int32(-1)},
		{"ladd", []interp.Value{int64(math.MaxInt32), int64(1)}, int64(math.MaxInt32) + 1},
		{"sadd", []interp.Value{int32(32767), int32(1)}, int32(-32768)},
		{"max", []interp.Value{int32(4), int32(9)}, int32(9)},
		{"max", []interp.Value{int32(9), int32(4)}, int32(9)},
		{"min", []interp.Value{int32(4), int32(9)}, int32(4)},
		{"shl", []interp.Value{int32(3), int32(4)}, int32(48)},
		{"and", []interp.Value{int32(12), int32(10)}, int32(8)},
		{"neg", []interp.Value{int32(5)}, int32(-5)},
		{"inv", []interp.Value{int32(5)}, int32(-6)},
		{"abs", []interp.Value{int32(-3)}, int32(3)},
		{"not", []interp.Value{int32(0)}, int32(1)},
		{"not", []interp.Value{int32(7)}, int32(0)},
		{"sneg", []interp.Value{int32(-32768)}, int32(-32768)},
	}

	for _, test := range tests {
		if got := run(t, m, test.fn, test.args...); got != test.want {
			t.Errorf("%s%v: got %v (%T), want %v", test.fn, test.args, got, got, test.want)
		}
	}
}

func TestRealComparisons(t *testing.T) {
	ops := map[string]func(x, y float64) bool{
		"lt_expr": func(x, y float64) bool { return x < y },
		"le_expr": func(x, y float64) bool { return x <= y },
		"gt_expr": func(x, y float64) bool { return x > y },
		"ge_expr": func(x, y float64) bool { return x >= y },
		"eq_expr": func(x, y float64) bool { return x == y },
		"ne_expr": func(x, y float64) bool { return x != y },
	}

	var fns []fnDef
	for op := range ops {
		// as a branch condition
		fns = append(fns, fnDef{
			name:   "branch_" + op,
			ret:    intT,
			params: []string{decl(1, "x", doubleT), decl(2, "y", doubleT)},
			blocks: []string{
				block(2, cond(op, ref(1, "x"), ref(2, "y"), 3, 4)),
				block(3, ret(icst(1, intT))),
				block(4, ret(icst(0, intT))),
			},
		})

		// as a value
		fns = append(fns, fnDef{
			name:   "value_" + op,
			ret:    intT,
			params: []string{decl(1, "x", doubleT), decl(2, "y", doubleT)},
			vars:   []string{decl(3, "", intT)},
			blocks: []string{block(2,
				assign(op, ref(3, ""), ref(1, "x"), ref(2, "y")),
				ret(ref(3, "")),
			)},
		})
	}

	m := interp.New(translateFixture(t, unitDef{functions: fns}, nil))

	nan := math.NaN()
	pairs := [][2]float64{{1, 2}, {2, 1}, {2, 2}, {nan, 1}, {1, nan}, {nan, nan}, {math.Inf(-1), 0}}

	for op, holds := range ops {
		for _, p := range pairs {
			want := int32(0)
			if holds(p[0], p[1]) {
				want = 1
			}

			for _, prefix := range []string{"branch_", "value_"} {
				if got := run(t, m, prefix+op, p[0], p[1]); got != want {
					t.Errorf("%s%s(%v, %v): got %v, want %v", prefix, op, p[0], p[1], got, want)
				}
			}
		}
	}
}

func TestUnsignedComparisons(t *testing.T) {
	compare := func(name, op, typ string) fnDef {
		return fnDef{
			name:   name,
			ret:    intT,
			params: []string{decl(1, "x", typ), decl(2, "y", typ)},
			blocks: []string{
				block(2, cond(op, ref(1, "x"), ref(2, "y"), 3, 4)),
				block(3, ret(icst(1, intT))),
				block(4, ret(icst(0, intT))),
			},
		}
	}

	// 200 held in a byte is negative once sign extended
	byteConst := fnDef{
		name: "byte_gt",
		ret:  intT,
		vars: []string{decl(1, "c", ucharT), decl(2, "", intT)},
		blocks: []string{block(2,
			assign("integer_cst", ref(1, "c"), icst(200, ucharT)),
			assign("gt_expr", ref(2, ""), ref(1, "c"), icst(100, intT)),
			ret(ref(2, "")),
		)},
	}

	out := translateFixture(t, unitDef{functions: []fnDef{
		compare("ugt", "gt_expr", uintT),
		compare("ult", "lt_expr", uintT),
		compare("ule", "le_expr", uintT),
		compare("ueq", "eq_expr", uintT),
		compare("sgt", "gt_expr", intT),
		byteConst,
	}}, nil)

	m := interp.New(out)

	tests := []struct {
		fn   string
		args []interp.Value
		want interp.Value
	}{
		{"ugt", []interp.Value{int32(-1), int32(1)}, int32(1)},
		{"ugt", []interp.Value{int32(1), int32(-1)}, int32(0)},
		{"ugt", []interp.Value{int32(math.MinInt32), int32(math.MaxInt32)}, int32(1)},
		{"ult", []interp.Value{int32(2), int32(3)}, int32(1)},
		{"ult", []interp.Value{int32(-2), int32(3)}, int32(0)},
		{"ule", []interp.Value{int32(-1), int32(-1)}, int32(1)},
		{"ueq", []interp.Value{int32(-1), int32(-1)}, int32(1)},
		{"sgt", []interp.Value{int32(-1), int32(1)}, int32(0)},
		{"byte_gt", nil, int32(1)},
	}

	for _, test := range tests {
		if got := run(t, m, test.fn, test.args...); got != test.want {
			t.Errorf("%s%v: got %v (%T), want %v", test.fn, test.args, got, got, test.want)
		}
	}
}

func TestRealComparisonInstruction(t *testing.T) {
	want := map[string]string{
		"lt_expr": "cmpg",
		"le_expr": "cmpg",
		"gt_expr": "cmpl",
		"ge_expr": "cmpl",
		"eq_expr": "cmpl",
		"ne_expr": "cmpl",
	}

	for op, p := range predicates {
		if got := realComparison(p); got != want[string(op)] {
			t.Errorf("%s: got %s, want %s", op, got, want[string(op)])
		}
	}
}

func TestTruthNotOfReal(t *testing.T) {
	out := translateFixture(t, unitDef{functions: []fnDef{{
		name:   "not",
		ret:    intT,
		params: []string{decl(1, "x", doubleT)},
		vars:   []string{decl(2, "", intT)},
		blocks: []string{block(2,
			assign("truth_not_expr", ref(2, ""), ref(1, "x")),
			ret(ref(2, "")),
		)},
	}}}, nil)

	m := interp.New(out)
	for x, want := range map[float64]int32{0: 1, 2.5: 0, math.Inf(1): 0} {
		if got := run(t, m, "not", x); got != want {
			t.Errorf("not(%v): got %v, want %v", x, got, want)
		}
	}

	if got := run(t, m, "not", math.NaN()); got != int32(0) {
		t.Errorf("not(NaN): got %v, want 0", got)
	}
}

func TestLoopAndConversions(t *testing.T) {
	// double mean(int n) { double s = 0; int i = 1; while (i <= n) { s += (double) i; i++; } return s / n; }
	out := translateFixture(t, unitDef{functions: []fnDef{{
		name:   "mean",
		ret:    doubleT,
		params: []string{decl(1, "n", intT)},
		vars: []string{
			initDecl(2, "s", doubleT, rcst("0.0")),
			initDecl(3, "i", intT, icst(1, intT)),
			decl(4, "", doubleT),
			decl(5, "", doubleT),
		},
		blocks: []string{
			block(2, goTo(4)),
			block(3,
				assign("float_expr", ref(4, ""), ref(3, "i")),
				assign("plus_expr", ref(2, "s"), ref(2, "s"), ref(4, "")),
				assign("plus_expr", ref(3, "i"), ref(3, "i"), icst(1, intT)),
			),
			block(4, cond("le_expr", ref(3, "i"), ref(1, "n"), 3, 5)),
			block(5,
				assign("float_expr", ref(5, ""), ref(1, "n")),
				assign("rdiv_expr", ref(4, ""), ref(2, "s"), ref(5, "")),
				ret(ref(4, "")),
			),
		},
	}, {
		name:   "trunc",
		ret:    intT,
		params: []string{decl(1, "x", doubleT)},
		vars:   []string{decl(2, "", intT)},
		blocks: []string{block(2,
			assign("fix_trunc_expr", ref(2, ""), ref(1, "x")),
			ret(ref(2, "")),
		)},
	}}}, nil)

	m := interp.New(out)

	if got := run(t, m, "mean", int32(4)); got != 2.5 {
		t.Errorf("mean(4): got %v, want 2.5", got)
	}

	for x, want := range map[float64]int32{2.9: 2, -2.9: -2, 1e12: math.MaxInt32} {
		if got := run(t, m, "trunc", x); got != want {
			t.Errorf("trunc(%v): got %v, want %v", x, got, want)
		}
	}
}

func TestArrays(t *testing.T) {
	store := func(arr string, idx, v int64) string {
		return assign("integer_cst", arrayRef(arr, icst(idx, intT)), icst(v, intT))
	}

	arr := ref(3, "arr")
	out := translateFixture(t, unitDef{functions: []fnDef{{
		name: "sum3",
		ret:  intT,
		vars: []string{decl(3, "arr", arrayT(intT, 0, 2)), decl(4, "", intT), decl(5, "", intT)},
		blocks: []string{block(2,
			store(arr, 0, 10),
			store(arr, 1, 20),
			store(arr, 2, 30),
			assign("array_ref", ref(4, ""), arrayRef(arr, icst(1, intT))),
			assign("plus_expr", ref(5, ""), ref(4, ""), arrayRef(arr, icst(2, intT))),
			assign("plus_expr", ref(5, ""), ref(5, ""), arrayRef(arr, icst(0, intT))),
			ret(ref(5, "")),
		)},
	}, {
		// Fortran style array indexed from one
		name: "fsum",
		ret:  intT,
		vars: []string{decl(3, "arr", arrayT(intT, 1, 3)), decl(4, "", intT)},
		blocks: []string{block(2,
			store(arr, 1, 5),
			store(arr, 3, 7),
			assign("plus_expr", ref(4, ""), arrayRef(arr, icst(1, intT)), arrayRef(arr, icst(3, intT))),
			ret(ref(4, "")),
		)},
	}}}, nil)

	m := interp.New(out)

	if got := run(t, m, "sum3"); got != int32(60) {
		t.Errorf("sum3: got %v, want 60", got)
	}

	if got := run(t, m, "fsum"); got != int32(12) {
		t.Errorf("fsum: got %v, want 12", got)
	}
}

func TestPointerArithmetic(t *testing.T) {
	p := ref(1, "p")
	out := translateFixture(t, unitDef{functions: []fnDef{{
		name:   "second",
		ret:    doubleT,
		params: []string{decl(1, "p", ptrT(doubleT))},
		vars:   []string{decl(2, "", ptrT(doubleT))},
		blocks: []string{block(2,
			assign("pointer_plus_expr", ref(2, ""), p, icst(8, longT)),
			ret(memRef(ref(2, ""), 0)),
		)},
	}, {
		name:   "third",
		ret:    doubleT,
		params: []string{decl(1, "p", ptrT(doubleT))},
		blocks: []string{block(2, ret(memRef(p, 16)))},
	}, {
		name:   "advance",
		ret:    ptrT(doubleT),
		params: []string{decl(1, "p", ptrT(doubleT)), decl(2, "n", longT)},
		vars:   []string{decl(3, "", ptrT(doubleT))},
		blocks: []string{block(2,
			assign("pointer_plus_expr", ref(3, ""), p, ref(2, "n")),
			ret(ref(3, "")),
		)},
	}, {
		name:   "same",
		ret:    intT,
		params: []string{decl(1, "p", ptrT(doubleT)), decl(2, "q", ptrT(doubleT))},
		blocks: []string{
			block(2, cond("eq_expr", p, ref(2, "q"), 3, 4)),
			block(3, ret(icst(1, intT))),
			block(4, ret(icst(0, intT))),
		},
	}}}, nil)

	m := interp.New(out)
	data := interp.NewArray(jimple.Double, 1.0, 2.0, 3.0, 4.0)

	if got := run(t, m, "second", interp.NewPointer(data, 0)); got != 2.0 {
		t.Errorf("second: got %v", got)
	}

	if got := run(t, m, "second", interp.NewPointer(data, 2)); got != 4.0 {
		t.Errorf("second at offset 2: got %v", got)
	}

	if got := run(t, m, "third", interp.NewPointer(data, 1)); got != 4.0 {
		t.Errorf("third: got %v", got)
	}

	moved, ok := run(t, m, "advance", interp.NewPointer(data, 1), int64(16)).(*interp.Object)
	if !ok {
		t.Fatal("advance should return a pointer wrapper")
	}

	if moved.Fields["array"] != data || moved.Fields["offset"] != int32(3) {
		t.Errorf("advance: got offset %v", moved.Fields["offset"])
	}

	if got := run(t, m, "same", interp.NewPointer(data, 1), interp.NewPointer(data, 1)); got != int32(1) {
		t.Error("pointers to the same element should be equal")
	}

	other := interp.NewArray(jimple.Double, 1.0, 2.0)
	if got := run(t, m, "same", interp.NewPointer(data, 1), interp.NewPointer(other, 1)); got != int32(0) {
		t.Error("pointers into different arrays should differ")
	}

	_, err := m.Invoke("Test", "second", nil)
	if err == nil || !strings.Contains(err.Error(), "NullPointerException") {
		t.Errorf("dereferencing a null pointer: got %v", err)
	}
}

func TestAddressTakenLocal(t *testing.T) {
	// void set(int *p) { *p = 7; }  int get(void) { int x = 1; set(&x); return x; }
	out := translateFixture(t, unitDef{functions: []fnDef{{
		name:   "set",
		params: []string{decl(1, "p", ptrT(intT))},
		blocks: []string{block(2,
			assign("integer_cst", memRef(ref(1, "p"), 0), icst(7, intT)),
			ret(""),
		)},
	}, {
		name: "get",
		ret:  intT,
		vars: []string{decl(5, "x", intT)},
		blocks: []string{block(2,
			assign("integer_cst", ref(5, "x"), icst(1, intT)),
			call("", addr(fnRef("set")), addr(ref(5, "x"))),
			ret(ref(5, "x")),
		)},
	}}}, nil)

	get, ok := findMethod(out, "Test", "get")
	if !ok || len(get.Locals) == 0 {
		t.Fatal("get was not translated")
	}

	if x := get.Locals[0]; x.Name != "x_5" || !jimple.SameType(x.T, PrimInt.ArrayType()) {
		t.Errorf("address-taken local should be boxed, got %s %s", x.T.Repr(), x.Name)
	}

	if got := run(t, interp.New(out), "get"); got != int32(7) {
		t.Errorf("get: got %v, want 7", got)
	}
}

func findMethod(out *jimple.Output, class, name string) (*jimple.MethodBuilder, bool) {
	cb, ok := out.Class(class)
	if !ok {
		return nil, false
	}

	return cb.LookupMethod(name)
}

func TestByReferenceCopyBack(t *testing.T) {
	inc := fnDef{
		name:   "inc_",
		conv:   "fortran",
		params: []string{decl(1, "x", ptrT(intT))},
		vars:   []string{decl(2, "", intT)},
		blocks: []string{block(2,
			assign("mem_ref", ref(2, ""), memRef(ref(1, "x"), 0)),
			assign("plus_expr", ref(2, ""), ref(2, ""), icst(1, intT)),
			assign("var_decl", memRef(ref(1, "x"), 0), ref(2, "")),
			ret(""),
		)},
	}

	caller := fnDef{
		name:   "caller",
		ret:    intT,
		params: []string{decl(1, "n", intT)},
		blocks: []string{block(2,
			call("", addr(fnRef("inc_")), ref(1, "n")),
			ret(ref(1, "n")),
		)},
	}

	out := translateFixture(t, unitDef{functions: []fnDef{inc, caller}}, nil)
	if got := run(t, interp.New(out), "caller", int32(41)); got != int32(42) {
		t.Errorf("caller(41): got %v, want 42", got)
	}

	// every scalar argument is copied back, whatever its kind
	update := fnDef{
		name:   "update_",
		conv:   "fortran",
		params: []string{decl(1, "i", ptrT(intT)), decl(2, "j", ptrT(intT)), decl(3, "x", ptrT(doubleT))},
		vars:   []string{decl(4, "", intT), decl(5, "", intT), decl(6, "", doubleT)},
		blocks: []string{block(2,
			assign("mem_ref", ref(4, ""), memRef(ref(1, "i"), 0)),
			assign("plus_expr", ref(4, ""), ref(4, ""), icst(1, intT)),
			assign("var_decl", memRef(ref(1, "i"), 0), ref(4, "")),
			assign("mem_ref", ref(5, ""), memRef(ref(2, "j"), 0)),
			assign("mult_expr", ref(5, ""), ref(5, ""), icst(2, intT)),
			assign("var_decl", memRef(ref(2, "j"), 0), ref(5, "")),
			assign("mem_ref", ref(6, ""), memRef(ref(3, "x"), 0)),
			assign("plus_expr", ref(6, ""), ref(6, ""), rcst("0.5")),
			assign("var_decl", memRef(ref(3, "x"), 0), ref(6, "")),
			ret(""),
		)},
	}

	sum := fnDef{
		name:   "sum",
		ret:    doubleT,
		params: []string{decl(1, "a", intT), decl(2, "b", intT), decl(3, "c", doubleT)},
		vars:   []string{decl(4, "", intT), decl(5, "", doubleT)},
		blocks: []string{block(2,
			call("", addr(fnRef("update_")), ref(1, "a"), ref(2, "b"), ref(3, "c")),
			assign("mult_expr", ref(4, ""), ref(1, "a"), ref(2, "b")),
			assign("float_expr", ref(5, ""), ref(4, "")),
			assign("plus_expr", ref(5, ""), ref(5, ""), ref(3, "c")),
			ret(ref(5, "")),
		)},
	}

	out = translateFixture(t, unitDef{functions: []fnDef{update, sum}}, nil)
	if got := run(t, interp.New(out), "sum", int32(4), int32(5), float64(10)); got != 60.5 {
		t.Errorf("sum(4, 5, 10): got %v, want 60.5", got)
	}

	// under the C convention a scalar cannot stand in for a pointer
	inc.conv = "c"
	terr := translateFailure(t, unitDef{functions: []fnDef{inc, caller}}, nil)
	if terr.Kind != report.KindUnsupported || terr.Function != "caller" {
		t.Errorf("unexpected failure: %s", terr)
	}
}

func TestFunctionPointers(t *testing.T) {
	sig := fnT(intT, intT)

	out := translateFixture(t, unitDef{functions: []fnDef{{
		name:   "twice",
		ret:    intT,
		params: []string{decl(1, "v", intT)},
		vars:   []string{decl(2, "", intT)},
		blocks: []string{block(2,
			assign("mult_expr", ref(2, ""), ref(1, "v"), icst(2, intT)),
			ret(ref(2, "")),
		)},
	}, {
		name:   "apply",
		ret:    intT,
		params: []string{decl(1, "f", ptrT(sig)), decl(2, "v", intT)},
		vars:   []string{decl(3, "", intT)},
		blocks: []string{block(2,
			call(ref(3, ""), ref(1, "f"), ref(2, "v")),
			ret(ref(3, "")),
		)},
	}, {
		name:   "quadruple",
		ret:    intT,
		params: []string{decl(1, "v", intT)},
		vars:   []string{decl(2, "", intT), decl(3, "", intT), decl(4, "g", ptrT(sig))},
		blocks: []string{block(2,
			call(ref(2, ""), addr(fnRef("apply")), addr(fnRef("twice")), ref(1, "v")),
			assign("addr_expr", ref(4, "g"), addr(fnRef("twice"))),
			call(ref(3, ""), addr(fnRef("apply")), ref(4, "g"), ref(2, "")),
			ret(ref(3, "")),
		)},
	}}}, nil)

	if got := run(t, interp.New(out), "quadruple", int32(5)); got != int32(20) {
		t.Errorf("quadruple(5): got %v, want 20", got)
	}

	iface, ok := out.Class("Test$FunPtr$I$I")
	if !ok || !iface.IsInterface {
		t.Fatal("function pointer interface was not synthesized")
	}

	if _, ok := out.Class("Test$twice$invoker"); !ok {
		t.Fatal("invoker was not synthesized")
	}

	if _, ok := out.Class("Test$twice$invoker1"); ok {
		t.Error("invoker should be created once per target and interface")
	}
}

func TestFunPtrInterfaceMemoized(t *testing.T) {
	tc := NewTranslationContext(readFixture(t, unitDef{}), "Test", nil)

	sig := func(ret gimple.Type, args ...gimple.Type) *gimple.FunctionType {
		return &gimple.FunctionType{ReturnType: ret, ArgTypes: args}
	}

	real64 := &gimple.RealType{Precision: 64}
	int32T := &gimple.IntegerType{Precision: 32}

	a := tc.funPtrs.Resolve(sig(real64, &gimple.PointerType{Base: real64}, int32T))
	b := tc.funPtrs.Resolve(sig(&gimple.RealType{Precision: 64}, &gimple.PointerType{Base: real64}, int32T))
	c := tc.funPtrs.Resolve(sig(gimple.VoidType{}, int32T))

	if a != b {
		t.Error("structurally equal signatures should share an interface")
	}

	if a == c {
		t.Error("different signatures should not share an interface")
	}

	if c.class.Name != "Test$FunPtr$V$I" {
		t.Errorf("interface name: got %s", c.class.Name)
	}

	if a.class.Name != "Test$FunPtr$D$LDoublePtr$I" {
		t.Errorf("interface name: got %s", a.class.Name)
	}
}

func TestGlobals(t *testing.T) {
	total := ref(30, "total")
	out := translateFixture(t, unitDef{
		globals: []string{initDecl(30, "total", doubleT, rcst("1.5"))},
		functions: []fnDef{{
			name:   "add",
			params: []string{decl(1, "d", doubleT)},
			blocks: []string{block(2,
				assign("plus_expr", total, total, ref(1, "d")),
				ret(""),
			)},
		}, {
			name:   "get",
			ret:    doubleT,
			blocks: []string{block(2, ret(total))},
		}},
	}, nil)

	m := interp.New(out)
	if got := run(t, m, "get"); got != 1.5 {
		t.Errorf("initial value: got %v", got)
	}

	run(t, m, "add", 2.0)
	if got := run(t, m, "get"); got != 3.5 {
		t.Errorf("after add: got %v", got)
	}

	box, err := m.GetStatic("Test", "total")
	if err != nil {
		t.Fatal(err)
	}

	if got := box.(*interp.Array).Data[0]; got != 3.5 {
		t.Errorf("static field: got %v", got)
	}
}

func TestRecords(t *testing.T) {
	point := recordT(40, "point")
	records := []string{`{"id": 40, "name": "point", "fields": [
		{"name": "x", "type": ` + doubleT + `, "offset": 0},
		{"name": "y", "type": ` + doubleT + `, "offset": 64},
		{"name": "next", "type": ` + ptrT(point) + `, "offset": 128}]}`}

	p, q := ref(2, "p"), ref(6, "q")
	out := translateFixture(t, unitDef{records: records, functions: []fnDef{{
		name: "norm2",
		ret:  doubleT,
		vars: []string{decl(2, "p", point), decl(3, "", doubleT), decl(4, "", doubleT), decl(5, "", doubleT)},
		blocks: []string{block(2,
			assign("real_cst", compRef(p, "x"), rcst("3.0")),
			assign("real_cst", compRef(p, "y"), rcst("4.0")),
			assign("mult_expr", ref(3, ""), compRef(p, "x"), compRef(p, "x")),
			assign("mult_expr", ref(4, ""), compRef(p, "y"), compRef(p, "y")),
			assign("plus_expr", ref(5, ""), ref(3, ""), ref(4, "")),
			ret(ref(5, "")),
		)},
	}, {
		// struct assignment copies
		name: "copyx",
		ret:  doubleT,
		vars: []string{decl(2, "p", point), decl(6, "q", point)},
		blocks: []string{block(2,
			assign("real_cst", compRef(p, "x"), rcst("3.0")),
			assign("var_decl", q, p),
			assign("real_cst", compRef(p, "x"), rcst("0.0")),
			ret(compRef(q, "x")),
		)},
	}, {
		name:   "getx",
		ret:    doubleT,
		params: []string{decl(1, "pp", ptrT(point))},
		blocks: []string{block(2, ret(compRef(memRef(ref(1, "pp"), 0), "x")))},
	}, {
		name: "viaPointer",
		ret:  doubleT,
		vars: []string{decl(2, "p", point), decl(3, "", doubleT)},
		blocks: []string{block(2,
			assign("real_cst", compRef(p, "x"), rcst("6.0")),
			assign("addr_expr", compRef(p, "next"), addr(p)),
			call(ref(3, ""), addr(fnRef("getx")), compRef(p, "next")),
			ret(ref(3, "")),
		)},
	}}}, nil)

	m := interp.New(out)

	for fn, want := range map[string]float64{"norm2": 25, "copyx": 3, "viaPointer": 6} {
		if got := run(t, m, fn); got != want {
			t.Errorf("%s: got %v, want %v", fn, got, want)
		}
	}

	rc, ok := out.Class("Test$point")
	if !ok {
		t.Fatal("record class was not synthesized")
	}

	if _, ok := rc.LookupField("next"); !ok {
		t.Error("record pointer member should be a field")
	}
}

func TestMathBuiltins(t *testing.T) {
	mt := NewMethodTable()
	mt.AddMathBuiltins()

	out := translateFixture(t, unitDef{functions: []fnDef{{
		name:   "root",
		ret:    doubleT,
		params: []string{decl(1, "x", doubleT)},
		vars:   []string{decl(2, "", doubleT)},
		blocks: []string{block(2,
			call(ref(2, ""), addr(fnRef("__builtin_sqrt")), ref(1, "x")),
			ret(ref(2, "")),
		)},
	}}}, mt)

	if got := run(t, interp.New(out), "root", 16.0); got != 4.0 {
		t.Errorf("root(16): got %v", got)
	}
}

func TestExternalField(t *testing.T) {
	mt := NewMethodTable()
	mt.AddField("R_NaInt", &jimple.FieldRef{Class: "Test", Name: "R_NaInt", T: jimple.Int})

	out := translateFixture(t, unitDef{functions: []fnDef{{
		name:   "na",
		ret:    intT,
		blocks: []string{block(2, ret(ref(99, "R_NaInt")))},
	}}}, mt)

	// the field is not declared by the output so it reads as zero
	if got := run(t, interp.New(out), "na"); got != int32(0) {
		t.Errorf("na: got %v", got)
	}
}

func TestTranslationFailures(t *testing.T) {
	tests := []struct {
		name string
		fn   fnDef
		kind report.ErrorKind
		want string
	}{
		{
			name: "unresolved function",
			fn: fnDef{
				name:   "caller",
				blocks: []string{block(2, call("", addr(fnRef("missing"))), ret(""))},
			},
			kind: report.KindLookup,
			want: "unable to resolve function `missing` under the c calling convention",
		},
		{
			name: "opaque dereference",
			fn: fnDef{
				name:   "peek",
				ret:    intT,
				params: []string{decl(1, "p", ptrT(voidT))},
				blocks: []string{block(2, ret(memRef(ref(1, "p"), 0)))},
			},
			kind: report.KindUnsupported,
			want: "dereference of an untyped pointer",
		},
		{
			name: "misaligned pointer arithmetic",
			fn: fnDef{
				name:   "skew",
				params: []string{decl(1, "p", ptrT(doubleT))},
				vars:   []string{decl(2, "", ptrT(doubleT))},
				blocks: []string{block(2,
					assign("pointer_plus_expr", ref(2, ""), ref(1, "p"), icst(4, longT)),
					ret(""),
				)},
			},
			kind: report.KindUnsupported,
			want: "byte offset 4 is not a multiple of the size of double",
		},
		{
			name: "unknown variable",
			fn: fnDef{
				name:   "ghost",
				ret:    intT,
				blocks: []string{block(2, ret(ref(77, "nowhere")))},
			},
			kind: report.KindLookup,
			want: "unable to resolve variable `nowhere_77`",
		},
		{
			name: "missing return",
			fn: fnDef{
				name:   "noreturn",
				ret:    intT,
				blocks: []string{block(2)},
			},
			kind: report.KindUnsupported,
			want: "control reaches the end of non-void function",
		},
		{
			name: "unknown convention",
			fn: fnDef{
				name:   "pascal",
				conv:   "pascal",
				blocks: []string{block(2, ret(""))},
			},
			kind: report.KindUnsupported,
			want: "unknown calling convention `pascal`",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			terr := translateFailure(t, unitDef{functions: []fnDef{test.fn}}, nil)

			if terr.Kind != test.kind {
				t.Errorf("kind: got %s, want %s", terr.Kind, test.kind)
			}

			if terr.Function != test.fn.name {
				t.Errorf("function: got %q, want %q", terr.Function, test.fn.name)
			}

			if !strings.Contains(terr.Message, test.want) {
				t.Errorf("message %q does not mention %q", terr.Message, test.want)
			}

			if !strings.HasPrefix(terr.Error(), test.kind.String()) {
				t.Errorf("error should start with its kind: %s", terr)
			}
		})
	}
}

func TestUnusedBadGlobalIsIgnored(t *testing.T) {
	badGlobal := decl(30, "handlers", arrayT(ptrT(voidT), 0, 3))

	// a global with no representation is only an error once it is used
	out := translateFixture(t, unitDef{
		globals:   []string{badGlobal},
		functions: []fnDef{{name: "noop", blocks: []string{block(2, ret(""))}}},
	}, nil)

	if _, ok := findMethod(out, "Test", "noop"); !ok {
		t.Fatal("noop should be translated")
	}

	terr := translateFailure(t, unitDef{
		globals: []string{badGlobal},
		functions: []fnDef{{
			name:   "use",
			ret:    intT,
			blocks: []string{block(2, ret(arrayRef(ref(30, "handlers"), icst(0, intT))))},
		}},
	}, nil)

	if terr.Kind != report.KindUnsupported || terr.Decl != "handlers_30" {
		t.Errorf("unexpected failure: %s", terr)
	}
}

func TestResolveMethod(t *testing.T) {
	mangled := &jimple.MethodRef{Class: "org.netlib.blas.Dnrm2", Name: "dnrm2", Return: jimple.Double}
	exact := &jimple.MethodRef{Class: "org.renjin.stats.Util", Name: "dnrm2", Return: jimple.Double}
	shadowed := &jimple.MethodRef{Class: "org.renjin.stats.Util", Name: "local", Return: jimple.Void}

	mt := NewMethodTable()
	mt.AddMethod("dnrm2_", mangled, FortranConvention{})
	mt.AddMethod("dnrm2", exact, nil)
	mt.AddMethod("local", shadowed, nil)

	tc := NewTranslationContext(readFixture(t, unitDef{functions: []fnDef{
		{name: "local", blocks: []string{block(2, ret(""))}},
	}}), "Test", mt)

	if _, err := tc.Translate(); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		conv      CallingConvention
		wantClass string
		wantConv  string
	}{
		{"local", CConvention{}, "Test", "c"},
		{"dnrm2", FortranConvention{}, "org.netlib.blas.Dnrm2", "fortran"},
		{"dnrm2", CConvention{}, "org.renjin.stats.Util", "c"},
	}

	for _, test := range tests {
		ref, conv := tc.ResolveMethod(test.name, test.conv)
		if ref.Class != test.wantClass || conv.Name() != test.wantConv {
			t.Errorf("%s under %s: got %s (%s)", test.name, test.conv.Name(), ref.Repr(), conv.Name())
		}
	}

	var err error
	func() {
		defer report.CatchTranslationError("caller", &err)
		tc.ResolveMethod("dgemm", FortranConvention{})
	}()

	terr, ok := err.(*report.TranslationError)
	if !ok || terr.Kind != report.KindLookup || terr.Function != "caller" {
		t.Errorf("unresolved function: got %v", err)
	}
}

func TestClassify(t *testing.T) {
	int32T := &gimple.IntegerType{Precision: 32}
	upper := int64(9)

	tests := []struct {
		t     gimple.Type
		usage VarUsage
		want  VarKind
		ok    bool
	}{
		{int32T, VarUsage{}, KindStackScalar, true},
		{int32T, VarUsage{AddressTaken: true}, KindHeapScalar, true},
		{&gimple.ArrayType{Elem: int32T, UpperBound: &upper}, VarUsage{}, KindPrimitiveArray, true},
		{&gimple.PointerType{Base: &gimple.RealType{Precision: 64}}, VarUsage{}, KindPrimitivePointer, true},
		{&gimple.ReferenceType{Base: &gimple.ArrayType{Elem: int32T}}, VarUsage{}, KindPrimitivePointer, true},
		{&gimple.RecordType{ID: 1}, VarUsage{}, KindRecord, true},
		{&gimple.PointerType{Base: &gimple.RecordType{ID: 1}}, VarUsage{}, KindRecordPointer, true},
		{&gimple.PointerType{Base: &gimple.FunctionType{ReturnType: gimple.VoidType{}}}, VarUsage{}, KindFunctionPointer, true},
		{&gimple.PointerType{Base: gimple.VoidType{}}, VarUsage{}, KindOpaquePointer, true},
		{&gimple.PointerType{Base: &gimple.PointerType{Base: int32T}}, VarUsage{}, 0, false},
		{&gimple.IntegerType{Precision: 128}, VarUsage{}, 0, false},
	}

	for _, test := range tests {
		got, ok := Classify(test.t, test.usage)
		if ok != test.ok || (ok && got != test.want) {
			t.Errorf("%s: got %s (%v), want %s (%v)", test.t.Repr(), got, ok, test.want, test.ok)
		}
	}
}

func TestAnalyzeUsage(t *testing.T) {
	unit := readFixture(t, unitDef{functions: []fnDef{{
		name: "f",
		vars: []string{decl(1, "a", intT), decl(2, "b", arrayT(intT, 0, 3)), decl(3, "c", intT), initDecl(4, "p", ptrT(intT), addr(ref(3, "c")))},
		blocks: []string{block(2,
			call("", addr(fnRef("g")), addr(arrayRef(ref(2, "b"), icst(1, intT)))),
			assign("var_decl", ref(1, "a"), ref(3, "c")),
			ret(""),
		)},
	}}})

	facts := AnalyzeUsage(unit.Functions[0])

	for id, want := range map[int]bool{1: false, 2: true, 3: true, 4: false} {
		if got := facts.Of(id).AddressTaken; got != want {
			t.Errorf("declaration %d: got address taken %v, want %v", id, got, want)
		}
	}
}

func TestStorageFollowsClassify(t *testing.T) {
	unit := readFixture(t, unitDef{functions: []fnDef{{
		name:   "f",
		params: []string{decl(1, "n", intT), decl(2, "x", ptrT(doubleT))},
		vars: []string{
			decl(3, "a", intT),
			decl(4, "b", arrayT(intT, 0, 3)),
			decl(5, "c", doubleT),
			initDecl(6, "p", ptrT(doubleT), addr(ref(5, "c"))),
			decl(7, "v", ptrT(voidT)),
		},
		blocks: []string{block(2, call("", addr(fnRef("g")), addr(ref(1, "n"))), ret(""))},
	}}})

	fn := unit.Functions[0]
	tc := NewTranslationContext(unit, "Storage", NewMethodTable())
	fc := newFunctionContext(tc, tc.mainClass.NewMethod("f", jimple.Void, true), CConvention{})
	fc.fn = fn
	fc.usage = AnalyzeUsage(fn)

	want := map[string]VarKind{
		"n": KindHeapScalar,
		"x": KindPrimitivePointer,
		"a": KindStackScalar,
		"b": KindPrimitiveArray,
		"c": KindHeapScalar,
		"p": KindPrimitivePointer,
		"v": KindOpaquePointer,
	}

	check := func(decl *gimple.VarDecl, v Variable) {
		kind, ok := Classify(decl.Type, fc.usage.Of(decl.ID))
		if !ok || v.Kind() != kind || kind != want[decl.Name] {
			t.Errorf("%s: stored as %s, classified as %s (%v), want %s", decl.Name, v.Kind(), kind, ok, want[decl.Name])
		}
	}

	for _, p := range fn.Params {
		check(p, fc.createVariable(tc.ResolveType(p.Type), p))
	}

	for _, decl := range fn.VarDecls {
		check(decl, fc.declareVar(decl))
	}

	// a descriptor disagreeing with the classification is rejected
	err := func() (err error) {
		defer report.CatchTranslationError("f", &err)
		fc.createVariable(primitiveDescriptor{kind: PrimInt}, fn.VarDecls[1])
		return nil
	}()

	terr, ok := err.(*report.TranslationError)
	if !ok || terr.Kind != report.KindUnsupported || terr.Message != "primitive array stored as a stack scalar" || terr.Decl != "b_4" {
		t.Errorf("got %v", err)
	}
}
