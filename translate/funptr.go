package translate

import (
	"strconv"
	"strings"

	"github.com/LongLingMichael/renjin/gimple"
	"github.com/LongLingMichael/renjin/jimple"
	"github.com/LongLingMichael/renjin/report"
)

// funPtrInterface is the interface synthesized for a function signature.
// Every function pointer of the signature is an instance of a class
// implementing it.
type funPtrInterface struct {
	sig   *gimple.FunctionType
	class *jimple.ClassBuilder
	apply *jimple.MethodBuilder

	params []TypeDescriptor
	ret    TypeDescriptor
}

// funPtrTable memoizes interfaces by signature and invoker classes by target
// method and interface.
type funPtrTable struct {
	tc *TranslationContext

	interfaces map[string]*funPtrInterface
	invokers   map[string]*jimple.ClassBuilder

	// invokerNames counts the invokers created per function name.
	invokerNames map[string]int
}

func newFunPtrTable(tc *TranslationContext) *funPtrTable {
	return &funPtrTable{
		tc:           tc,
		interfaces:   make(map[string]*funPtrInterface),
		invokers:     make(map[string]*jimple.ClassBuilder),
		invokerNames: make(map[string]int),
	}
}

// Resolve returns the interface of a function signature, creating it the first
// time the signature is seen.  Signatures with the same target types share an
// interface.
func (ft *funPtrTable) Resolve(sig *gimple.FunctionType) *funPtrInterface {
	iface := &funPtrInterface{sig: sig}

	if sig.ReturnType == nil {
		iface.ret = voidDescriptor{}
	} else {
		iface.ret = ft.tc.ResolveType(sig.ReturnType)
	}

	for _, at := range sig.ArgTypes {
		iface.params = append(iface.params, ft.tc.ResolveType(at))
	}

	desc := iface.descriptor()
	if existing, ok := ft.interfaces[desc]; ok {
		return existing
	}

	iface.class = ft.tc.out.NewInterface(ft.tc.mainClass.Name + "$FunPtr$" + desc)
	iface.apply = iface.class.NewMethod("apply", iface.ret.ReturnType(), false)
	for i, p := range iface.params {
		iface.apply.AddParameter(p.ParamType(), "p"+strconv.Itoa(i))
	}

	ft.interfaces[desc] = iface
	return iface
}

// byClass finds an interface by its class name.
func (ft *funPtrTable) byClass(name string) (*funPtrInterface, bool) {
	for _, iface := range ft.interfaces {
		if iface.class.Name == name {
			return iface, true
		}
	}

	return nil, false
}

// descriptor spells the target signature of the interface: the return type
// descriptor followed by the parameter type descriptors.
func (iface *funPtrInterface) descriptor() string {
	sb := strings.Builder{}
	sb.WriteString(iface.ret.ReturnType().Descriptor())

	for _, p := range iface.params {
		sb.WriteRune('$')
		sb.WriteString(p.ParamType().Descriptor())
	}

	return sb.String()
}

// applyRef returns the method invoked through a pointer.
func (iface *funPtrInterface) applyRef() *jimple.MethodRef {
	return iface.apply.Ref()
}

// Invoker returns the class implementing an interface by delegating to a
// static method.  Invokers are created once per target and interface.
func (ft *funPtrTable) Invoker(fnName string, target *jimple.MethodRef, iface *funPtrInterface) *jimple.ClassBuilder {
	key := target.Repr() + "|" + iface.class.Name
	if cb, ok := ft.invokers[key]; ok {
		return cb
	}

	applyRef := iface.applyRef()
	if len(target.Params) != len(applyRef.Params) || !jimple.SameType(target.Return, applyRef.Return) {
		panic(report.Unsupported("function `%s` does not match pointer signature %s", fnName, iface.sig.Repr()))
	}

	for i, pt := range target.Params {
		if !jimple.SameType(pt, applyRef.Params[i]) {
			panic(report.Unsupported("function `%s` does not match pointer signature %s", fnName, iface.sig.Repr()))
		}
	}

	name := ft.tc.mainClass.Name + "$" + jimple.ID(fnName) + "$invoker"
	if n := ft.invokerNames[fnName]; n > 0 {
		name += strconv.Itoa(n)
	}
	ft.invokerNames[fnName]++

	cb := ft.tc.out.NewClass(name)
	cb.Interfaces = append(cb.Interfaces, iface.class.Name)

	ctor := cb.NewMethod("<init>", jimple.Void, false)
	ctor.AddInvoke(&jimple.Invoke{
		Kind:   jimple.InvokeSpecial,
		Base:   ctor.This(),
		Method: &jimple.MethodRef{Class: jimple.ObjectType.Name, Name: "<init>", Return: jimple.Void},
	})
	ctor.AddReturn(nil)

	apply := cb.NewMethod("apply", applyRef.Return, false)
	args := make([]jimple.Expr, len(applyRef.Params))
	for i, pt := range applyRef.Params {
		args[i] = apply.AddParameter(pt, "p"+strconv.Itoa(i))
	}

	call := &jimple.Invoke{Kind: jimple.InvokeStatic, Method: target, Args: args}
	if applyRef.Return == jimple.Void {
		apply.AddInvoke(call)
		apply.AddReturn(nil)
	} else {
		result := apply.AddLocal(applyRef.Return, "result")
		apply.AddAssignment(result, call)
		apply.AddReturn(result)
	}

	ft.invokers[key] = cb
	return cb
}

// -----------------------------------------------------------------------------

// functionPointer instantiates the invoker of a named function for an
// interface.
func (fc *FunctionContext) functionPointer(fnName string, iface *funPtrInterface) jimple.Expr {
	target, _ := fc.tc.ResolveMethod(fnName, fc.conv)
	invoker := fc.tc.funPtrs.Invoker(fnName, target, iface)

	ptr := fc.NewTemp(invoker.Type())
	fc.builder.AddAssignment(ptr, &jimple.New{Class: invoker.Name})
	fc.builder.AddInvoke(&jimple.Invoke{
		Kind:   jimple.InvokeSpecial,
		Base:   ptr,
		Method: &jimple.MethodRef{Class: invoker.Name, Name: "<init>", Return: jimple.Void},
	})
	return ptr
}

// funPtrValue computes the value of a function pointer of an interface.
func (fc *FunctionContext) funPtrValue(e gimple.Expr, iface *funPtrInterface) jimple.Expr {
	switch v := e.(type) {
	case *gimple.IntegerConstant:
		if v.Value == 0 {
			return jimple.NullConst{}
		}
	case *gimple.AddressOf:
		if fr, ok := v.Value.(*gimple.FunctionRef); ok {
			return fc.functionPointer(fr.Name, iface)
		}
	case *gimple.FunctionRef:
		return fc.functionPointer(v.Name, iface)
	case *gimple.VariableRef:
		if fv, ok := fc.lookupVar(v).(*funPtrVar); ok {
			if fv.iface != iface {
				panic(report.Unsupported("conversion of function pointer %s to %s", fv.iface.sig.Repr(), iface.sig.Repr()))
			}

			return fv.local
		}
	case *gimple.ComponentRef:
		base, rc := fc.recordBase(v.Value)
		rf := rc.member(v.Member)
		if fd, ok := rf.desc.(funPtrDescriptor); ok && fd.iface == iface {
			return fc.materialize(&jimple.InstanceField{Base: base, Field: rf.value})
		}
	}

	panic(report.Unsupported("`%s` used as a function pointer", e.Repr()))
}
