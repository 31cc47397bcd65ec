// Package interp executes translated Jimple directly.  It is a reference
// evaluator of the target semantics: it is used to check translations end to
// end and to run translated functions from the command line without a JVM.
package interp

import (
	"fmt"

	"github.com/LongLingMichael/renjin/jimple"
)

// NativeFunc implements a method outside of the translated output.  this is
// nil for static methods.
type NativeFunc func(m *Machine, this Value, args []Value) Value

// RuntimeError is an exception raised by the executed code.
type RuntimeError struct {
	Exception string
	Message   string

	// Method is the method executing when the exception was raised.
	Method string
}

func (re *RuntimeError) Error() string {
	if re.Method == "" {
		return fmt.Sprintf("%s: %s", re.Exception, re.Message)
	}

	return fmt.Sprintf("%s: %s (in %s)", re.Exception, re.Message, re.Method)
}

func throw(exception, msg string, args ...interface{}) {
	panic(&RuntimeError{Exception: exception, Message: fmt.Sprintf(msg, args...)})
}

// DefaultStepLimit is the number of statements a single invocation may execute
// before it is aborted.
const DefaultStepLimit = 10_000_000

// Machine executes the classes of one translation output.
type Machine struct {
	out *jimple.Output

	natives map[string]NativeFunc
	statics map[string]Value

	// initialized records the classes whose static initializer has run or is
	// running.
	initialized map[string]bool

	// labels caches the statement index of each label per method.
	labels map[*jimple.MethodBuilder]map[string]int

	// StepLimit bounds the statements executed per call to Invoke.
	StepLimit int
	steps     int
}

// New creates a machine for an output with the runtime natives registered.
func New(out *jimple.Output) *Machine {
	m := &Machine{
		out:         out,
		natives:     make(map[string]NativeFunc),
		statics:     make(map[string]Value),
		initialized: make(map[string]bool),
		labels:      make(map[*jimple.MethodBuilder]map[string]int),
		StepLimit:   DefaultStepLimit,
	}

	m.registerRuntime()
	return m
}

// RegisterNative provides the implementation of a method not defined in the
// output.  Natives registered for a class take precedence over its methods.
func (m *Machine) RegisterNative(class, name string, fn NativeFunc) {
	m.natives[class+"::"+name] = fn
}

// Invoke calls a static method of the output.  Arguments are coerced to the
// parameter types.
func (m *Machine) Invoke(class, method string, args ...Value) (result Value, err error) {
	defer func() {
		if x := recover(); x != nil {
			if re, ok := x.(*RuntimeError); ok {
				err = re
				return
			}

			panic(x)
		}
	}()

	m.steps = 0

	mb, ok := m.method(class, method)
	if !ok {
		return nil, fmt.Errorf("no method `%s` in class `%s`", method, class)
	} else if !mb.Static {
		return nil, fmt.Errorf("method `%s.%s` is not static", class, method)
	} else if len(args) != len(mb.Params) {
		return nil, fmt.Errorf("method `%s.%s` expects %d arguments, got %d", class, method, len(mb.Params), len(args))
	}

	m.initClass(class)
	return m.call(mb, nil, args), nil
}

// GetStatic reads a static field, running the static initializer of its class
// if necessary.
func (m *Machine) GetStatic(class, field string) (value Value, err error) {
	defer func() {
		if x := recover(); x != nil {
			if re, ok := x.(*RuntimeError); ok {
				err = re
				return
			}

			panic(x)
		}
	}()

	cb, ok := m.out.Class(class)
	if !ok {
		return nil, fmt.Errorf("no class `%s`", class)
	}

	f, ok := cb.LookupField(field)
	if !ok || !f.Static {
		return nil, fmt.Errorf("no static field `%s` in class `%s`", field, class)
	}

	return m.getStatic(&jimple.FieldRef{Class: class, Name: field, T: f.T}), nil
}

// -----------------------------------------------------------------------------

func (m *Machine) method(class, name string) (*jimple.MethodBuilder, bool) {
	cb, ok := m.out.Class(class)
	if !ok {
		return nil, false
	}

	return cb.LookupMethod(name)
}

// initClass runs the static initializer of an output class the first time it
// is used.
func (m *Machine) initClass(class string) {
	if m.initialized[class] {
		return
	}

	m.initialized[class] = true
	if clinit, ok := m.method(class, "<clinit>"); ok {
		m.call(clinit, nil, nil)
	}
}

func (m *Machine) getStatic(field *jimple.FieldRef) Value {
	m.initClass(field.Class)

	if v, ok := m.statics[field.Class+"::"+field.Name]; ok {
		return v
	}

	return Zero(field.T)
}

func (m *Machine) setStatic(field *jimple.FieldRef, v Value) {
	m.initClass(field.Class)
	m.statics[field.Class+"::"+field.Name] = coerce(v, field.T)
}

func (m *Machine) labelIndex(mb *jimple.MethodBuilder) map[string]int {
	if idx, ok := m.labels[mb]; ok {
		return idx
	}

	idx := make(map[string]int)
	for i, stmt := range mb.Body {
		if ls, ok := stmt.(*jimple.LabelStmt); ok {
			idx[ls.Name] = i
		}
	}

	m.labels[mb] = idx
	return idx
}

// -----------------------------------------------------------------------------

// frame is the activation of a single method.
type frame struct {
	m      *Machine
	method *jimple.MethodBuilder
	locals map[string]Value
}

// call executes a method body.  Locals start out holding the zero value of
// their type.
func (m *Machine) call(mb *jimple.MethodBuilder, this Value, args []Value) (result Value) {
	name := mb.Class.Name + "." + mb.Name
	if mb.Abstract {
		throw("java.lang.AbstractMethodError", "%s", name)
	}

	defer func() {
		if x := recover(); x != nil {
			if re, ok := x.(*RuntimeError); ok && re.Method == "" {
				re.Method = name
			}

			panic(x)
		}
	}()

	f := &frame{m: m, method: mb, locals: make(map[string]Value, len(mb.Params)+len(mb.Locals)+1)}
	for _, l := range mb.Locals {
		f.locals[l.Name] = Zero(l.T)
	}

	for i, p := range mb.Params {
		f.locals[p.Name] = coerce(args[i], p.T)
	}

	if !mb.Static {
		f.locals["this"] = this
	}

	labels := m.labelIndex(mb)
	jump := func(target string) int {
		pc, ok := labels[target]
		if !ok {
			throw("java.lang.VerifyError", "undefined label `%s`", target)
		}

		return pc
	}

	for pc := 0; pc < len(mb.Body); pc++ {
		m.steps++
		if m.StepLimit > 0 && m.steps > m.StepLimit {
			throw("java.lang.Error", "step limit of %d exceeded", m.StepLimit)
		}

		switch s := mb.Body[pc].(type) {
		case *jimple.AssignStmt:
			f.store(s.LHS, f.eval(s.RHS))
		case *jimple.LabelStmt:
		case *jimple.GotoStmt:
			pc = jump(s.Target)
		case *jimple.IfStmt:
			if f.test(s.Cond) {
				pc = jump(s.Target)
			}
		case *jimple.InvokeStmt:
			f.invoke(s.Call)
		case *jimple.ReturnStmt:
			if s.Value == nil {
				return nil
			}

			return coerce(f.eval(s.Value), mb.ReturnType)
		default:
			throw("java.lang.VerifyError", "unknown statement `%s`", s.Repr())
		}
	}

	if mb.ReturnType != jimple.Void {
		throw("java.lang.VerifyError", "control falls off the end of `%s`", name)
	}

	return nil
}
