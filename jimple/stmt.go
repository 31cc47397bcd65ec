package jimple

// Stmt is a single Jimple statement.
type Stmt interface {
	Repr() string
}

// AssignStmt stores a value into a local, an array element or a field.
type AssignStmt struct {
	LHS Expr
	RHS Expr
}

func (as *AssignStmt) Repr() string {
	return as.LHS.Repr() + " = " + as.RHS.Repr()
}

// LabelStmt marks a branch target.
type LabelStmt struct {
	Name string
}

func (ls *LabelStmt) Repr() string {
	return ls.Name + ":"
}

// GotoStmt is an unconditional branch.
type GotoStmt struct {
	Target string
}

func (gs *GotoStmt) Repr() string {
	return "goto " + gs.Target
}

// IfStmt branches to Target if the condition holds and falls through
// otherwise.
type IfStmt struct {
	Cond   *Cond
	Target string
}

func (is *IfStmt) Repr() string {
	return "if " + is.Cond.Repr() + " goto " + is.Target
}

// InvokeStmt calls a method and discards the result.
type InvokeStmt struct {
	Call *Invoke
}

func (is *InvokeStmt) Repr() string {
	return is.Call.Repr()
}

// ReturnStmt leaves the method.  Value is nil in void methods.
type ReturnStmt struct {
	Value Expr
}

func (rs *ReturnStmt) Repr() string {
	if rs.Value == nil {
		return "return"
	}

	return "return " + rs.Value.Repr()
}
