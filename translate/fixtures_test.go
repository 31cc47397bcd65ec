package translate

import (
	"fmt"
	"strings"
	"testing"

	"github.com/LongLingMichael/renjin/gimple"
	"github.com/LongLingMichael/renjin/jimple"
	"github.com/LongLingMichael/renjin/jimple/interp"
	"github.com/LongLingMichael/renjin/report"
)

// JSON fragments of the bridge plugin's dump format.
const (
	intT    = `{"type": "integer_type", "precision": 32}`
	shortT  = `{"type": "integer_type", "precision": 16}`
	longT   = `{"type": "integer_type", "precision": 64}`
	uintT   = `{"type": "integer_type", "precision": 32, "unsigned": true}`
	ucharT  = `{"type": "integer_type", "precision": 8, "unsigned": true}`
	doubleT = `{"type": "real_type", "precision": 64}`
	voidT   = `{"type": "void_type"}`
)

func ptrT(base string) string {
	return fmt.Sprintf(`{"type": "pointer_type", "baseType": %s}`, base)
}

func arrayT(elem string, lower, upper int) string {
	return fmt.Sprintf(`{"type": "array_type", "componentType": %s, "domain": [%d, %d]}`, elem, lower, upper)
}

func fnT(ret string, args ...string) string {
	return fmt.Sprintf(`{"type": "function_type", "returnType": %s, "argumentTypes": [%s]}`, ret, strings.Join(args, ", "))
}

func recordT(id int, name string) string {
	return fmt.Sprintf(`{"type": "record_type", "id": %d, "name": %q}`, id, name)
}

func decl(id int, name, t string) string {
	return fmt.Sprintf(`{"id": %d, "name": %q, "type": %s}`, id, name, t)
}

func initDecl(id int, name, t, value string) string {
	return fmt.Sprintf(`{"id": %d, "name": %q, "type": %s, "value": %s}`, id, name, t, value)
}

func ref(id int, name string) string {
	return fmt.Sprintf(`{"type": "var_decl", "id": %d, "name": %q}`, id, name)
}

func icst(v int64, t string) string {
	return fmt.Sprintf(`{"type": "integer_cst", "value": %d, "type": %s}`, v, t)
}

func rcst(v string) string {
	return fmt.Sprintf(`{"type": "real_cst", "value": %s, "type": %s}`, v, doubleT)
}

func addr(e string) string {
	return fmt.Sprintf(`{"type": "addr_expr", "value": %s}`, e)
}

func fnRef(name string) string {
	return fmt.Sprintf(`{"type": "function_decl", "name": %q}`, name)
}

func memRef(ptr string, offset int) string {
	return fmt.Sprintf(`{"type": "mem_ref", "pointer": %s, "offset": %d}`, ptr, offset)
}

func arrayRef(arr, idx string) string {
	return fmt.Sprintf(`{"type": "array_ref", "array": %s, "index": %s}`, arr, idx)
}

func compRef(value, member string) string {
	return fmt.Sprintf(`{"type": "component_ref", "value": %s, "member": %q}`, value, member)
}

func assign(op, lhs string, operands ...string) string {
	return fmt.Sprintf(`{"type": "assign", "operator": %q, "lhs": %s, "operands": [%s]}`, op, lhs, strings.Join(operands, ", "))
}

func cond(op, x, y string, trueLabel, falseLabel int) string {
	return fmt.Sprintf(`{"type": "conditional", "operator": %q, "operands": [%s, %s], "trueLabel": %d, "falseLabel": %d}`,
		op, x, y, trueLabel, falseLabel)
}

func call(lhs, fn string, args ...string) string {
	if lhs == "" {
		return fmt.Sprintf(`{"type": "call", "function": %s, "arguments": [%s]}`, fn, strings.Join(args, ", "))
	}

	return fmt.Sprintf(`{"type": "call", "lhs": %s, "function": %s, "arguments": [%s]}`, lhs, fn, strings.Join(args, ", "))
}

func ret(value string) string {
	if value == "" {
		return `{"type": "return"}`
	}

	return fmt.Sprintf(`{"type": "return", "value": %s}`, value)
}

func goTo(target int) string {
	return fmt.Sprintf(`{"type": "goto", "target": %d}`, target)
}

func block(index int, ins ...string) string {
	return fmt.Sprintf(`{"index": %d, "instructions": [%s]}`, index, strings.Join(ins, ", "))
}

// fnDef describes a function of a fixture unit.  An empty ret is void and an
// empty conv is the C convention.
type fnDef struct {
	name   string
	conv   string
	ret    string
	params []string
	vars   []string
	blocks []string
}

func (fd fnDef) json() string {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf(`{"name": %q`, fd.name))

	if fd.conv != "" {
		sb.WriteString(fmt.Sprintf(`, "callingConvention": %q`, fd.conv))
	}

	if fd.ret != "" {
		sb.WriteString(`, "returnType": ` + fd.ret)
	}

	sb.WriteString(`, "parameters": [` + strings.Join(fd.params, ", ") + `]`)
	sb.WriteString(`, "variableDeclarations": [` + strings.Join(fd.vars, ", ") + `]`)
	sb.WriteString(`, "basicBlocks": [` + strings.Join(fd.blocks, ", ") + `]}`)
	return sb.String()
}

// unitDef describes a fixture unit.
type unitDef struct {
	records   []string
	globals   []string
	functions []fnDef
}

func (ud unitDef) json() string {
	fns := make([]string, len(ud.functions))
	for i, fd := range ud.functions {
		fns[i] = fd.json()
	}

	return fmt.Sprintf(`{"recordTypes": [%s], "globalVariables": [%s], "functions": [%s]}`,
		strings.Join(ud.records, ", "), strings.Join(ud.globals, ", "), strings.Join(fns, ", "))
}

// -----------------------------------------------------------------------------

func readFixture(t *testing.T, ud unitDef) *gimple.Unit {
	t.Helper()

	unit, err := gimple.ReadUnit(strings.NewReader(ud.json()))
	if err != nil {
		t.Fatalf("fixture does not parse: %s", err)
	}

	return unit
}

// translateFixture translates a fixture unit into the class `Test`.
func translateFixture(t *testing.T, ud unitDef, methods *MethodTable) *jimple.Output {
	t.Helper()

	out, err := TranslateUnit(readFixture(t, ud), "Test", methods)
	if err != nil {
		t.Fatalf("translation failed: %s", err)
	}

	return out
}

// translateFailure translates a fixture unit that is expected to fail.
func translateFailure(t *testing.T, ud unitDef, methods *MethodTable) *report.TranslationError {
	t.Helper()

	_, err := TranslateUnit(readFixture(t, ud), "Test", methods)
	if err == nil {
		t.Fatal("translation should have failed")
	}

	terr, ok := err.(*report.TranslationError)
	if !ok {
		t.Fatalf("expected a translation error, got %T: %s", err, err)
	}

	return terr
}

// run invokes a translated function.
func run(t *testing.T, m *interp.Machine, fn string, args ...interp.Value) interp.Value {
	t.Helper()

	result, err := m.Invoke("Test", fn, args...)
	if err != nil {
		t.Fatalf("%s: %s", fn, err)
	}

	return result
}
