package jimple

import "fmt"

// Output is the collection of classes produced from one compilation unit: the
// main class holding the translated functions plus any synthesized helper
// classes (records, function pointer interfaces and their invokers).
type Output struct {
	classes []*ClassBuilder
	byName  map[string]*ClassBuilder
}

// NewOutput creates a new, empty output.
func NewOutput() *Output {
	return &Output{byName: make(map[string]*ClassBuilder)}
}

// NewClass adds a new class to the output.  It panics if the class already
// exists: class names are derived deterministically so a collision is always a
// translator bug.
func (o *Output) NewClass(name string) *ClassBuilder {
	if _, exists := o.byName[name]; exists {
		panic(fmt.Sprintf("class `%s` defined multiple times", name))
	}

	cb := &ClassBuilder{Name: name, Super: ObjectType.Name}
	o.classes = append(o.classes, cb)
	o.byName[name] = cb
	return cb
}

// NewInterface adds a new interface to the output.
func (o *Output) NewInterface(name string) *ClassBuilder {
	cb := o.NewClass(name)
	cb.IsInterface = true
	return cb
}

// Class returns the class with the given name.
func (o *Output) Class(name string) (*ClassBuilder, bool) {
	cb, ok := o.byName[name]
	return cb, ok
}

// Classes returns all classes in the order they were created.
func (o *Output) Classes() []*ClassBuilder {
	return o.classes
}

// -----------------------------------------------------------------------------

// ClassBuilder accumulates the fields and methods of a single class.
type ClassBuilder struct {
	Name        string
	Super       string
	Interfaces  []string
	IsInterface bool

	Fields  []*Field
	Methods []*MethodBuilder
}

// Field is a field declaration.
type Field struct {
	Name   string
	T      Type
	Static bool
}

// AddField declares a new field on the class and returns a reference to it.
func (cb *ClassBuilder) AddField(name string, t Type, static bool) *FieldRef {
	cb.Fields = append(cb.Fields, &Field{Name: name, T: t, Static: static})
	return &FieldRef{Class: cb.Name, Name: name, T: t}
}

// LookupField finds a field declared on the class.
func (cb *ClassBuilder) LookupField(name string) (*Field, bool) {
	for _, f := range cb.Fields {
		if f.Name == name {
			return f, true
		}
	}

	return nil, false
}

// NewMethod adds a method to the class.
func (cb *ClassBuilder) NewMethod(name string, returnType Type, static bool) *MethodBuilder {
	mb := &MethodBuilder{
		Class:      cb,
		Name:       name,
		ReturnType: returnType,
		Static:     static,
		Abstract:   cb.IsInterface,
		localNames: make(map[string]*Local),
	}

	cb.Methods = append(cb.Methods, mb)
	return mb
}

// LookupMethod finds a method declared on the class by name.
func (cb *ClassBuilder) LookupMethod(name string) (*MethodBuilder, bool) {
	for _, mb := range cb.Methods {
		if mb.Name == name {
			return mb, true
		}
	}

	return nil, false
}

// Type returns the class type of the class.
func (cb *ClassBuilder) Type() *ClassType {
	return &ClassType{Name: cb.Name}
}

// -----------------------------------------------------------------------------

// MethodBuilder accumulates the signature, local declarations and body of a
// single method.
type MethodBuilder struct {
	Class      *ClassBuilder
	Name       string
	ReturnType Type
	Static     bool
	Abstract   bool

	Params []*Local
	Locals []*Local
	Body   []Stmt

	localNames map[string]*Local
}

// Ref returns a reference to the method usable in invocations.
func (mb *MethodBuilder) Ref() *MethodRef {
	params := make([]Type, len(mb.Params))
	for i, p := range mb.Params {
		params[i] = p.T
	}

	return &MethodRef{Class: mb.Class.Name, Name: mb.Name, Return: mb.ReturnType, Params: params}
}

// This returns the receiver of an instance method.
func (mb *MethodBuilder) This() *Local {
	return &Local{Name: "this", T: mb.Class.Type()}
}

// AddParameter appends a parameter to the method signature.  The returned
// local holds the incoming argument.
func (mb *MethodBuilder) AddParameter(t Type, name string) *Local {
	l := mb.declare(t, name)
	mb.Params = append(mb.Params, l)
	return l
}

// AddLocal declares a new local variable.
func (mb *MethodBuilder) AddLocal(t Type, name string) *Local {
	l := mb.declare(t, name)
	mb.Locals = append(mb.Locals, l)
	return l
}

// HasLocal returns whether a local or parameter with the name is declared.
func (mb *MethodBuilder) HasLocal(name string) bool {
	_, ok := mb.localNames[name]
	return ok
}

func (mb *MethodBuilder) declare(t Type, name string) *Local {
	if _, exists := mb.localNames[name]; exists {
		panic(fmt.Sprintf("local `%s` declared multiple times in `%s`", name, mb.Name))
	}

	l := &Local{Name: name, T: t}
	mb.localNames[name] = l
	return l
}

// Add appends a statement to the method body.
func (mb *MethodBuilder) Add(stmt Stmt) {
	mb.Body = append(mb.Body, stmt)
}

// AddAssignment appends `lhs = rhs`.
func (mb *MethodBuilder) AddAssignment(lhs, rhs Expr) {
	mb.Add(&AssignStmt{LHS: lhs, RHS: rhs})
}

// AddLabel appends a label.
func (mb *MethodBuilder) AddLabel(name string) {
	mb.Add(&LabelStmt{Name: name})
}

// AddGoto appends an unconditional branch.
func (mb *MethodBuilder) AddGoto(target string) {
	mb.Add(&GotoStmt{Target: target})
}

// AddIf appends a conditional branch.
func (mb *MethodBuilder) AddIf(cond *Cond, target string) {
	mb.Add(&IfStmt{Cond: cond, Target: target})
}

// AddInvoke appends a call whose result is discarded.
func (mb *MethodBuilder) AddInvoke(call *Invoke) {
	mb.Add(&InvokeStmt{Call: call})
}

// AddReturn appends a return; value may be nil.
func (mb *MethodBuilder) AddReturn(value Expr) {
	mb.Add(&ReturnStmt{Value: value})
}

// EndsWithTerminator returns whether the last statement of the body leaves the
// current block unconditionally.
func (mb *MethodBuilder) EndsWithTerminator() bool {
	if len(mb.Body) == 0 {
		return false
	}

	switch mb.Body[len(mb.Body)-1].(type) {
	case *ReturnStmt, *GotoStmt:
		return true
	}

	return false
}
