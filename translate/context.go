package translate

import (
	"github.com/LongLingMichael/renjin/gimple"
	"github.com/LongLingMichael/renjin/jimple"
	"github.com/LongLingMichael/renjin/report"
)

// TranslationContext holds the state shared by the translation of every
// function in a compilation unit.
type TranslationContext struct {
	unit *gimple.Unit
	out  *jimple.Output

	// mainClass is the class holding one static method per native function
	// and one static field per native global.
	mainClass *jimple.ClassBuilder

	// methods is the external method table consulted for call targets that are
	// not defined in the unit.
	methods *MethodTable

	// defaultConv is the calling convention of functions that do not declare
	// one.
	defaultConv CallingConvention

	funPtrs *funPtrTable
	records map[*gimple.RecordTypeDef]*recordClass

	// globals maps global names to their storage.  globalErrs holds the
	// failure of each global that has no representation: it is only reported
	// if the global is actually used.
	globals    map[string]Variable
	globalErrs map[string]*report.TranslationError

	// functions maps native function names to their declared methods.
	functions map[string]*unitFunction

	// clinit is the static initializer of the main class: created on demand.
	clinit *FunctionContext
}

// unitFunction is a function defined in the unit along with its declared
// target method.
type unitFunction struct {
	fn     *gimple.Function
	method *jimple.MethodBuilder
	conv   CallingConvention

	// params and ret are the descriptors of the parameter and return types.
	params []TypeDescriptor
	ret    TypeDescriptor
}

// NewTranslationContext creates a new translation context for a unit whose
// functions are emitted into the class className.  methods may be nil.
func NewTranslationContext(unit *gimple.Unit, className string, methods *MethodTable) *TranslationContext {
	tc := &TranslationContext{
		unit:        unit,
		out:         jimple.NewOutput(),
		methods:     methods,
		defaultConv: ConventionFor(unit.SourceFile),
		records:     make(map[*gimple.RecordTypeDef]*recordClass),
		globals:     make(map[string]Variable),
		globalErrs:  make(map[string]*report.TranslationError),
		functions:   make(map[string]*unitFunction),
	}

	tc.mainClass = tc.out.NewClass(className)
	tc.funPtrs = newFunPtrTable(tc)
	return tc
}

// SetDefaultConvention overrides the calling convention used for functions
// that do not declare one.
func (tc *TranslationContext) SetDefaultConvention(conv CallingConvention) {
	tc.defaultConv = conv
}

// TranslateUnit is a convenience wrapper that translates a whole unit into the
// class className.
func TranslateUnit(unit *gimple.Unit, className string, methods *MethodTable) (*jimple.Output, error) {
	return NewTranslationContext(unit, className, methods).Translate()
}

// Translate translates the whole unit.  Translation stops at the first failure:
// no partial output is returned.
func (tc *TranslationContext) Translate() (*jimple.Output, error) {
	if err := tc.declareGlobals(); err != nil {
		return nil, err
	}

	// every signature is declared before any body is translated so that
	// functions can call each other regardless of order
	var order []*unitFunction
	for _, fn := range tc.unit.Functions {
		uf, err := tc.declareFunction(fn)
		if err != nil {
			return nil, err
		}

		order = append(order, uf)
	}

	for _, uf := range order {
		if err := tc.translateFunction(uf); err != nil {
			return nil, err
		}
	}

	if tc.clinit != nil {
		tc.clinit.builder.AddReturn(nil)
	}

	return tc.out, nil
}

// -----------------------------------------------------------------------------

// staticInit returns the function context of the static initializer.
func (tc *TranslationContext) staticInit() *FunctionContext {
	if tc.clinit == nil {
		tc.clinit = newFunctionContext(tc, tc.mainClass.NewMethod("<clinit>", jimple.Void, true), tc.defaultConv)
	}

	return tc.clinit
}

// declareGlobals declares a static field for each global variable and
// initializes it in the static initializer.
func (tc *TranslationContext) declareGlobals() (err error) {
	defer report.CatchTranslationError("", &err)

	for _, decl := range tc.unit.Globals {
		if _, exists := tc.globals[decl.Name]; exists {
			continue
		}

		if v := tc.declareGlobal(decl); v != nil {
			tc.globals[decl.Name] = v
		}
	}

	return nil
}

func (tc *TranslationContext) declareGlobal(decl *gimple.VarDecl) Variable {
	name := jimple.ID(decl.Name)

	if pk, ok := PrimKindOf(decl.Type); ok {
		field := tc.mainClass.AddField(name, pk.ArrayType(), true)
		v := &scalarVar{decl: decl, kind: pk, boxed: true, field: field}

		si := tc.staticInit()
		box := si.NewTemp(pk.ArrayType())
		si.builder.AddAssignment(box, &jimple.NewArray{Elem: pk.JimpleType(), Size: jimple.IntLit(1)})
		si.builder.AddAssignment(&jimple.StaticField{Field: field}, box)

		if decl.Value != nil {
			value, from := si.readPrim(decl.Value)
			si.builder.AddAssignment(jimple.Index(box, jimple.IntLit(0)), si.immediate(si.convert(value, from, pk)))
		}

		return v
	}

	if at, ok := decl.Type.(*gimple.ArrayType); ok {
		pk, ok := PrimKindOf(at.Elem)
		length, bounded := at.Length()
		if ok && bounded {
			field := tc.mainClass.AddField(name, pk.ArrayType(), true)

			si := tc.staticInit()
			arr := si.NewTemp(pk.ArrayType())
			si.builder.AddAssignment(arr, &jimple.NewArray{Elem: pk.JimpleType(), Size: jimple.IntLit(length)})
			si.builder.AddAssignment(&jimple.StaticField{Field: field}, arr)

			return &arrayVar{decl: decl, elem: pk, lower: at.LowerBound, field: field}
		}
	}

	tc.globalErrs[decl.Name] = report.Unsupported("global variables of type %s are not supported", decl.Type.Repr()).WithDecl(decl.Repr())
	return nil
}

// declareFunction declares the target method of a unit function.
func (tc *TranslationContext) declareFunction(fn *gimple.Function) (uf *unitFunction, err error) {
	defer report.CatchTranslationError(fn.Name, &err)

	if _, exists := tc.functions[fn.Name]; exists {
		panic(report.Lookup("function `%s` is defined multiple times", fn.Name))
	}

	uf = &unitFunction{fn: fn, conv: tc.defaultConv}
	if fn.CallingConvention != "" {
		conv, ok := ConventionNamed(fn.CallingConvention)
		if !ok {
			panic(report.Unsupported("unknown calling convention `%s`", fn.CallingConvention))
		}

		uf.conv = conv
	}

	if fn.ReturnType == nil {
		uf.ret = voidDescriptor{}
	} else {
		uf.ret = tc.ResolveType(fn.ReturnType)
	}

	uf.method = tc.mainClass.NewMethod(jimple.ID(fn.Name), uf.ret.ReturnType(), true)

	for _, p := range fn.Params {
		desc := tc.ResolveType(p.Type)
		uf.params = append(uf.params, desc)
		uf.method.AddParameter(desc.ParamType(), localName(p)+"$param")
	}

	tc.functions[fn.Name] = uf
	return uf, nil
}

// translateFunction translates the body of a unit function.
func (tc *TranslationContext) translateFunction(uf *unitFunction) (err error) {
	defer report.CatchTranslationError(uf.fn.Name, &err)

	fc := newFunctionContext(tc, uf.method, uf.conv)
	fc.fn = uf.fn
	fc.usage = AnalyzeUsage(uf.fn)
	fc.translateBody(uf)
	return nil
}
