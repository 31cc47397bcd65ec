package translate

import (
	"github.com/LongLingMichael/renjin/gimple"
	"github.com/LongLingMichael/renjin/jimple"
	"github.com/LongLingMichael/renjin/report"
)

// ResolveMethod finds the target of a call to a native function.  Functions
// defined in the unit take precedence, then the external method table is
// searched under the caller's mangled name and finally under the exact name.
// The calling convention of the resolved method is returned with it.
func (tc *TranslationContext) ResolveMethod(name string, conv CallingConvention) (*jimple.MethodRef, CallingConvention) {
	if uf, ok := tc.functions[name]; ok {
		return uf.method.Ref(), uf.conv
	}

	if m, ok := tc.methods.Lookup(conv.MangleFunctionName(name)); ok {
		return m.Ref, m.Convention
	}

	if m, ok := tc.methods.Lookup(name); ok {
		return m.Ref, m.Convention
	}

	panic(report.Lookup("unable to resolve function `%s` under the %s calling convention", name, conv.Name()))
}

// translateCall translates a call instruction.
func (fc *FunctionContext) translateCall(call *gimple.Call) {
	invoke := &jimple.Invoke{Kind: jimple.InvokeStatic}
	calleeConv := fc.conv

	switch fn := call.Function.(type) {
	case *gimple.AddressOf:
		fr, ok := fn.Value.(*gimple.FunctionRef)
		if !ok {
			panic(report.Unsupported("call through `%s`", fn.Repr()))
		}

		invoke.Method, calleeConv = fc.tc.ResolveMethod(fr.Name, fc.conv)
	case *gimple.FunctionRef:
		invoke.Method, calleeConv = fc.tc.ResolveMethod(fn.Name, fc.conv)
	case *gimple.VariableRef:
		variable := fc.lookupVar(fn)
		fv, ok := variable.(*funPtrVar)
		if !ok {
			panic(report.Unsupported("call through %s", variable.Kind()).WithDecl(fn.Repr()))
		}

		invoke.Kind = jimple.InvokeInterface
		invoke.Base = fv.local
		invoke.Method = fv.iface.applyRef()
	default:
		panic(report.Unsupported("call through `%s`", call.Function.Repr()))
	}

	if len(call.Arguments) != len(invoke.Method.Params) {
		panic(report.Lookup("%s expects %d arguments, got %d", invoke.Method.Repr(), len(invoke.Method.Params), len(call.Arguments)))
	}

	var copyBacks []func()
	for i, arg := range call.Arguments {
		value, copyBack := fc.marshallArgument(arg, invoke.Method.Params[i], calleeConv.ByReference())
		invoke.Args = append(invoke.Args, value)

		if copyBack != nil {
			copyBacks = append(copyBacks, copyBack)
		}
	}

	var result *jimple.Local
	switch {
	case invoke.Method.Return == jimple.Void:
		if call.LHS != nil {
			panic(report.Unsupported("result of void function `%s` is used", invoke.Method.Name))
		}

		fc.builder.AddInvoke(invoke)
	case call.LHS == nil:
		fc.builder.AddInvoke(invoke)
	default:
		result = fc.materialize(invoke)
	}

	// arguments are written back before the result is stored so that a result
	// assigned to one of the arguments wins
	for _, copyBack := range copyBacks {
		copyBack()
	}

	if result != nil {
		fc.unmarshallResult(call.LHS, result)
	}
}
