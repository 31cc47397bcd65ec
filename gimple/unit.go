package gimple

import (
	"fmt"
	"strings"
)

// Unit is a compilation unit: the contents of one (or several merged) GIMPLE
// dumps.  Once read, the only mutation performed on a unit is the refinement of
// untyped pointer declarations.
type Unit struct {
	// SourceFile is the native source file the unit was produced from.  It is
	// empty for merged units and for dumps read without a known source.
	SourceFile string

	Functions   []*Function
	RecordTypes []*RecordTypeDef
	Globals     []*VarDecl
}

// Function is a single GIMPLE function body.
type Function struct {
	ID   int
	Name string

	// CallingConvention is the name of the native calling convention the
	// function was compiled under: "c" or "fortran".
	CallingConvention string

	Params      []*VarDecl
	VarDecls    []*VarDecl
	BasicBlocks []*BasicBlock
	ReturnType  Type
}

// BasicBlock is a straight line sequence of instructions ending in a branch,
// goto or return.
type BasicBlock struct {
	Index        int
	Instructions []Ins
}

// VarDecl declares a parameter, local variable or global variable.  The ID is
// the declaration identity: names may collide between scopes, IDs do not.
type VarDecl struct {
	ID   int
	Name string
	Type Type

	// Value is the constant initializer if one exists.
	Value Expr
}

func (vd *VarDecl) Repr() string {
	return declRepr(vd.Name, vd.ID)
}

// RecordTypeDef is the definition of a struct type.
type RecordTypeDef struct {
	ID     int
	Name   string
	Fields []*RecordField
}

// RecordField is a single field of a record definition.
type RecordField struct {
	Name string
	Type Type

	// Offset is the byte offset of the field within the record.
	Offset int64
}

// -----------------------------------------------------------------------------

// LookupFunction finds a function in the unit by name.
func (u *Unit) LookupFunction(name string) (*Function, bool) {
	for _, fn := range u.Functions {
		if fn.Name == name {
			return fn, true
		}
	}

	return nil, false
}

// LookupGlobal finds a global variable declaration by name.
func (u *Unit) LookupGlobal(name string) (*VarDecl, bool) {
	for _, decl := range u.Globals {
		if decl.Name == name {
			return decl, true
		}
	}

	return nil, false
}

// LookupRecord finds the definition referenced by a record type.
func (u *Unit) LookupRecord(rt *RecordType) (*RecordTypeDef, bool) {
	for _, def := range u.RecordTypes {
		if def.ID == rt.ID && (rt.Name == "" || def.Name == rt.Name) {
			return def, true
		}
	}

	for _, def := range u.RecordTypes {
		if rt.Name != "" && def.Name == rt.Name {
			return def, true
		}
	}

	return nil, false
}

// Merge combines several units into one.  Functions, records and globals keep
// their relative order.  Globals and records with the same name are only kept
// once.
func Merge(units ...*Unit) *Unit {
	if len(units) == 1 {
		return units[0]
	}

	merged := &Unit{}
	for _, u := range units {
		merged.Functions = append(merged.Functions, u.Functions...)

		for _, decl := range u.Globals {
			if _, exists := merged.LookupGlobal(decl.Name); !exists || decl.Name == "" {
				merged.Globals = append(merged.Globals, decl)
			}
		}

		for _, rec := range u.RecordTypes {
			if rec.Name != "" {
				if _, exists := merged.LookupRecord(&RecordType{ID: -1, Name: rec.Name}); exists {
					continue
				}
			}

			merged.RecordTypes = append(merged.RecordTypes, rec)
		}
	}

	return merged
}

// -----------------------------------------------------------------------------

// LookupVar finds a local variable or parameter declaration by identity.
func (fn *Function) LookupVar(id int) (*VarDecl, bool) {
	for _, decl := range fn.VarDecls {
		if decl.ID == id {
			return decl, true
		}
	}

	for _, decl := range fn.Params {
		if decl.ID == id {
			return decl, true
		}
	}

	return nil, false
}

// ForEachIns calls f for every instruction of the function in block order.
func (fn *Function) ForEachIns(f func(bb *BasicBlock, ins Ins)) {
	for _, bb := range fn.BasicBlocks {
		for _, ins := range bb.Instructions {
			f(bb, ins)
		}
	}
}

// Repr prints the function in a form close to GCC's `-fdump-tree` output.
func (fn *Function) Repr() string {
	sb := strings.Builder{}

	sb.WriteString(fn.ReturnTypeRepr())
	sb.WriteRune(' ')
	sb.WriteString(fn.Name)
	sb.WriteRune('(')
	for i, p := range fn.Params {
		if i > 0 {
			sb.WriteString(", ")
		}

		sb.WriteString(p.Type.Repr())
		sb.WriteRune(' ')
		sb.WriteString(p.Repr())
	}
	sb.WriteString(")\n{\n")

	for _, decl := range fn.VarDecls {
		sb.WriteString(fmt.Sprintf("  %s %s;\n", decl.Type.Repr(), decl.Repr()))
	}

	for _, bb := range fn.BasicBlocks {
		sb.WriteString(fmt.Sprintf("\n<bb %d>:\n", bb.Index))

		for _, ins := range bb.Instructions {
			sb.WriteString("  ")
			sb.WriteString(ins.Repr())
			sb.WriteRune('\n')
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}

// ReturnTypeRepr returns the printed return type of the function.
func (fn *Function) ReturnTypeRepr() string {
	if fn.ReturnType == nil {
		return "void"
	}

	return fn.ReturnType.Repr()
}
