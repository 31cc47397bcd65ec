package translate

import (
	"sort"

	"github.com/LongLingMichael/renjin/jimple"
	"github.com/samber/lo"
)

// ExternalMethod is a method outside the compilation unit that translated
// code may call: runtime stubs, BLAS routines and the like.
type ExternalMethod struct {
	// Symbol is the native symbol name the method implements.
	Symbol string

	Ref *jimple.MethodRef

	// Convention is the calling convention the method expects its arguments
	// in.
	Convention CallingConvention
}

// ExternalField is a static field outside the unit that stands in for a
// native global variable.
type ExternalField struct {
	Symbol string
	Ref    *jimple.FieldRef
}

// MethodTable is the external method table: native symbols resolvable outside
// the compilation unit.
type MethodTable struct {
	methods map[string]*ExternalMethod
	fields  map[string]*ExternalField
}

// NewMethodTable creates a new, empty method table.
func NewMethodTable() *MethodTable {
	return &MethodTable{
		methods: make(map[string]*ExternalMethod),
		fields:  make(map[string]*ExternalField),
	}
}

// AddMethod registers an external method under its native symbol name.  A
// later registration of the same symbol replaces the earlier one.
func (mt *MethodTable) AddMethod(symbol string, ref *jimple.MethodRef, conv CallingConvention) {
	if conv == nil {
		conv = CConvention{}
	}

	mt.methods[symbol] = &ExternalMethod{Symbol: symbol, Ref: ref, Convention: conv}
}

// AddField registers an external static field under its native symbol name.
func (mt *MethodTable) AddField(symbol string, ref *jimple.FieldRef) {
	mt.fields[symbol] = &ExternalField{Symbol: symbol, Ref: ref}
}

// Lookup finds an external method by symbol name.
func (mt *MethodTable) Lookup(symbol string) (*ExternalMethod, bool) {
	if mt == nil {
		return nil, false
	}

	m, ok := mt.methods[symbol]
	return m, ok
}

// LookupField finds an external field by symbol name.
func (mt *MethodTable) LookupField(symbol string) (*ExternalField, bool) {
	if mt == nil {
		return nil, false
	}

	f, ok := mt.fields[symbol]
	return f, ok
}

// Merge adds every method and field of other to the table.  Entries of other
// replace existing entries with the same symbol.  other may be nil.
func (mt *MethodTable) Merge(other *MethodTable) {
	if other == nil {
		return
	}

	for symbol, em := range other.methods {
		mt.methods[symbol] = em
	}

	for symbol, ef := range other.fields {
		mt.fields[symbol] = ef
	}
}

// Symbols returns the sorted symbol names of all registered methods.
func (mt *MethodTable) Symbols() []string {
	symbols := lo.Keys(mt.methods)
	sort.Strings(symbols)
	return symbols
}

// -----------------------------------------------------------------------------

// mathBuiltins maps libm functions to their `java.lang.Math` equivalents along
// with their arity.
var mathBuiltins = map[string]struct {
	name  string
	arity int
}{
	"sqrt":  {"sqrt", 1},
	"sin":   {"sin", 1},
	"cos":   {"cos", 1},
	"tan":   {"tan", 1},
	"asin":  {"asin", 1},
	"acos":  {"acos", 1},
	"atan":  {"atan", 1},
	"atan2": {"atan2", 2},
	"exp":   {"exp", 1},
	"log":   {"log", 1},
	"log10": {"log10", 1},
	"pow":   {"pow", 2},
	"floor": {"floor", 1},
	"ceil":  {"ceil", 1},
	"fabs":  {"abs", 1},
}

// AddMathBuiltins registers the double precision libm functions, along with
// their `__builtin_` aliases, as calls into `java.lang.Math`.
func (mt *MethodTable) AddMathBuiltins() {
	for symbol, builtin := range mathBuiltins {
		ref := &jimple.MethodRef{
			Class:  "java.lang.Math",
			Name:   builtin.name,
			Return: jimple.Double,
			Params: lo.Times(builtin.arity, func(int) jimple.Type { return jimple.Double }),
		}

		mt.AddMethod(symbol, ref, CConvention{})
		mt.AddMethod("__builtin_"+symbol, ref, CConvention{})
	}
}
