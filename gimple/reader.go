package gimple

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
)

// ReadError is an error reading a GIMPLE dump: malformed JSON or a node the
// reader does not recognize.
type ReadError struct {
	Path    string
	Message string
}

func (re *ReadError) Error() string {
	if re.Path == "" {
		return "gimple: " + re.Message
	}

	return fmt.Sprintf("gimple: %s: %s", re.Path, re.Message)
}

// ReadUnitFile reads a compilation unit from a JSON dump written by the bridge
// plugin.
func ReadUnitFile(path string) (*Unit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	u, err := readUnit(f, path)
	if err != nil {
		return nil, err
	}

	return u, nil
}

// ReadUnit reads a compilation unit from a JSON dump.
func ReadUnit(r io.Reader) (*Unit, error) {
	return readUnit(r, "")
}

func readUnit(r io.Reader, path string) (u *Unit, err error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	root, err := parseNode(dec)
	if err != nil {
		return nil, &ReadError{Path: path, Message: err.Error()}
	}

	rd := &reader{path: path}
	defer func() {
		if x := recover(); x != nil {
			if rerr, ok := x.(*ReadError); ok {
				u, err = nil, rerr
			} else {
				panic(x)
			}
		}
	}()

	return rd.readUnit(root), nil
}

// -----------------------------------------------------------------------------

// reader converts the generic JSON tree into the unit object model.  Errors are
// raised as panics and caught in readUnit.
type reader struct {
	path string
}

func (r *reader) fail(msg string, args ...interface{}) {
	panic(&ReadError{Path: r.path, Message: fmt.Sprintf(msg, args...)})
}

func (r *reader) readUnit(root *jsonNode) *Unit {
	if root.kind != jsonObject {
		r.fail("top level value must be an object")
	}

	u := &Unit{SourceFile: root.string("sourceFile")}

	for _, rec := range root.array("recordTypes") {
		u.RecordTypes = append(u.RecordTypes, r.readRecordDef(rec))
	}

	for _, g := range root.array("globalVariables") {
		u.Globals = append(u.Globals, r.readDecl(g))
	}

	for _, fn := range root.array("functions") {
		u.Functions = append(u.Functions, r.readFunction(fn))
	}

	return u
}

func (r *reader) readRecordDef(n *jsonNode) *RecordTypeDef {
	def := &RecordTypeDef{
		ID:   n.int("id"),
		Name: n.string("name"),
	}

	for _, fn := range n.array("fields") {
		def.Fields = append(def.Fields, &RecordField{
			Name:   fn.string("name"),
			Type:   r.readType(fn.object("type")),
			Offset: int64(fn.int("offset")),
		})
	}

	return def
}

func (r *reader) readFunction(n *jsonNode) *Function {
	fn := &Function{
		ID:                n.int("id"),
		Name:              n.string("name"),
		CallingConvention: n.string("callingConvention"),
	}

	if n.string("name") == "" {
		r.fail("function %d has no name", fn.ID)
	}

	if rt := n.object("returnType"); rt != nil {
		fn.ReturnType = r.readType(rt)
	} else {
		fn.ReturnType = VoidType{}
	}

	for _, p := range n.array("parameters") {
		fn.Params = append(fn.Params, r.readDecl(p))
	}

	for _, d := range n.array("variableDeclarations") {
		fn.VarDecls = append(fn.VarDecls, r.readDecl(d))
	}

	for _, b := range n.array("basicBlocks") {
		bb := &BasicBlock{Index: b.int("index")}

		for _, ins := range b.array("instructions") {
			bb.Instructions = append(bb.Instructions, r.readIns(ins))
		}

		fn.BasicBlocks = append(fn.BasicBlocks, bb)
	}

	return fn
}

func (r *reader) readDecl(n *jsonNode) *VarDecl {
	tn := n.object("type")
	if tn == nil {
		r.fail("declaration `%s` has no type", n.string("name"))
	}

	decl := &VarDecl{
		ID:   n.int("id"),
		Name: n.string("name"),
		Type: r.readType(tn),
	}

	if v := n.object("value"); v != nil {
		decl.Value = r.readExpr(v)
	}

	return decl
}

// -----------------------------------------------------------------------------

func (r *reader) readType(n *jsonNode) Type {
	switch code := n.string("type"); code {
	case "integer_type", "enumeral_type":
		return &IntegerType{Precision: n.int("precision"), Unsigned: n.bool("unsigned")}
	case "real_type":
		return &RealType{Precision: n.int("precision")}
	case "boolean_type":
		return BooleanType{}
	case "void_type":
		return VoidType{}
	case "pointer_type":
		return &PointerType{Base: r.readType(r.required(n, "baseType"))}
	case "reference_type":
		return &ReferenceType{Base: r.readType(r.required(n, "baseType"))}
	case "array_type":
		at := &ArrayType{Elem: r.readType(r.required(n, "componentType"))}

		domain := n.array("domain")
		if len(domain) > 0 {
			at.LowerBound = domain[0].asInt64()
		}

		if len(domain) > 1 && domain[1].kind == jsonNumber {
			upper := domain[1].asInt64()
			at.UpperBound = &upper
		}

		return at
	case "function_type":
		ft := &FunctionType{ReturnType: VoidType{}}
		if rt := n.object("returnType"); rt != nil {
			ft.ReturnType = r.readType(rt)
		}

		for _, arg := range n.array("argumentTypes") {
			ft.ArgTypes = append(ft.ArgTypes, r.readType(arg))
		}

		return ft
	case "record_type":
		return &RecordType{ID: n.int("id"), Name: n.string("name")}
	default:
		r.fail("unknown type `%s`", code)
		return nil
	}
}

func (r *reader) readExpr(n *jsonNode) Expr {
	switch code := n.string("type"); code {
	case "var_decl", "parm_decl", "ssa_name", "result_decl":
		return &VariableRef{ID: n.int("id"), Name: n.string("name")}
	case "function_decl":
		return &FunctionRef{ID: n.int("id"), Name: n.string("name")}
	case "addr_expr":
		return &AddressOf{Value: r.readExpr(r.required(n, "value"))}
	case "integer_cst":
		ic := &IntegerConstant{Value: n.field("value").asInt64()}
		if tn := n.object("type"); tn != nil {
			ic.Type = r.readType(tn)
		}

		return ic
	case "real_cst":
		rc := &RealConstant{Value: r.readReal(n.field("value"))}
		if tn := n.object("type"); tn != nil {
			rc.Type = r.readType(tn)
		}

		return rc
	case "string_cst":
		return &StringConstant{Value: n.string("value")}
	case "mem_ref":
		mr := &MemRef{Pointer: r.readExpr(r.required(n, "pointer"))}
		if off := n.field("offset"); off != nil {
			mr.Offset = off.asInt64()
		}

		return mr
	case "indirect_ref":
		return &MemRef{Pointer: r.readExpr(r.required(n, "pointer"))}
	case "array_ref":
		return &ArrayRef{
			Array: r.readExpr(r.required(n, "array")),
			Index: r.readExpr(r.required(n, "index")),
		}
	case "component_ref":
		return &ComponentRef{
			Value:  r.readExpr(r.required(n, "value")),
			Member: n.string("member"),
		}
	default:
		r.fail("unknown operand `%s`", code)
		return nil
	}
}

func (r *reader) readReal(n *jsonNode) float64 {
	if n == nil {
		r.fail("real constant without a value")
	}

	switch n.kind {
	case jsonString:
		switch n.str {
		case "Inf":
			return math.Inf(1)
		case "-Inf":
			return math.Inf(-1)
		case "NaN":
			return math.NaN()
		}

		r.fail("invalid real constant `%s`", n.str)
	case jsonNumber:
		f, err := strconv.ParseFloat(n.num.String(), 64)
		if err != nil {
			r.fail("invalid real constant `%s`", n.num)
		}

		return f
	}

	r.fail("invalid real constant")
	return 0
}

func (r *reader) readIns(n *jsonNode) Ins {
	switch code := n.string("type"); code {
	case "assign":
		return &Assign{
			Op:       Op(n.string("operator")),
			LHS:      r.readExpr(r.required(n, "lhs")),
			Operands: r.readExprs(n.array("operands")),
		}
	case "conditional":
		return &Conditional{
			Op:         Op(n.string("operator")),
			Operands:   r.readExprs(n.array("operands")),
			TrueLabel:  n.int("trueLabel"),
			FalseLabel: n.int("falseLabel"),
		}
	case "call":
		call := &Call{
			Function:  r.readExpr(r.required(n, "function")),
			Arguments: r.readExprs(n.array("arguments")),
		}

		if lhs := n.object("lhs"); lhs != nil {
			call.LHS = r.readExpr(lhs)
		}

		return call
	case "goto":
		return &Goto{Target: n.int("target")}
	case "return":
		ret := &Return{}
		if v := n.object("value"); v != nil {
			ret.Value = r.readExpr(v)
		}

		return ret
	case "nop":
		return Nop{}
	default:
		r.fail("unknown instruction `%s`", code)
		return nil
	}
}

func (r *reader) readExprs(nodes []*jsonNode) []Expr {
	exprs := make([]Expr, len(nodes))
	for i, n := range nodes {
		exprs[i] = r.readExpr(n)
	}

	return exprs
}

func (r *reader) required(n *jsonNode, key string) *jsonNode {
	child := n.object(key)
	if child == nil {
		r.fail("`%s` node is missing `%s`", n.string("type"), key)
	}

	return child
}
