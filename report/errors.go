package report

import (
	"fmt"
	"strings"
)

// ErrorKind classifies a translation failure by the subsystem that detected
// it.  Every kind is fatal: nothing is retried and no partial output is kept.
type ErrorKind int

// Enumeration of error kinds.
const (
	KindToolchain   ErrorKind = iota // native front-end missing, unsupported host or non-zero exit
	KindType                         // a type that could not be resolved to a representation
	KindUnsupported                  // operator, type or variable kind outside the supported subset
	KindLookup                       // unresolved call target, field or member
)

// String returns the subsystem keyword of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindToolchain:
		return "toolchain"
	case KindType:
		return "type"
	case KindUnsupported:
		return "unsupported"
	default: // KindLookup
		return "lookup"
	}
}

// TranslationError is an error raised while producing or translating a unit.
type TranslationError struct {
	Kind ErrorKind

	// Function is the native function being translated, if any.
	Function string

	// Decl is the display name of the offending declaration, if any.
	Decl string

	// Instruction is the printed form of the offending instruction, if any.
	Instruction string

	// Message describes the failure.
	Message string
}

func (te *TranslationError) Error() string {
	sb := strings.Builder{}
	sb.WriteString(te.Kind.String())
	sb.WriteString(": ")

	if te.Function != "" {
		sb.WriteString("in function `")
		sb.WriteString(te.Function)
		sb.WriteString("`: ")
	}

	sb.WriteString(te.Message)

	if te.Decl != "" {
		sb.WriteString(" (declaration `")
		sb.WriteString(te.Decl)
		sb.WriteString("`)")
	}

	if te.Instruction != "" {
		sb.WriteString("\n    at: ")
		sb.WriteString(te.Instruction)
	}

	return sb.String()
}

// WithDecl attaches the offending declaration to the error.
func (te *TranslationError) WithDecl(decl string) *TranslationError {
	te.Decl = decl
	return te
}

// -----------------------------------------------------------------------------

// Toolchain creates a new toolchain failure.
func Toolchain(msg string, args ...interface{}) *TranslationError {
	return &TranslationError{Kind: KindToolchain, Message: fmt.Sprintf(msg, args...)}
}

// Unresolved creates a new type resolution failure.
func Unresolved(msg string, args ...interface{}) *TranslationError {
	return &TranslationError{Kind: KindType, Message: fmt.Sprintf(msg, args...)}
}

// Unsupported creates a new unsupported construct failure.
func Unsupported(msg string, args ...interface{}) *TranslationError {
	return &TranslationError{Kind: KindUnsupported, Message: fmt.Sprintf(msg, args...)}
}

// Lookup creates a new lookup failure.
func Lookup(msg string, args ...interface{}) *TranslationError {
	return &TranslationError{Kind: KindLookup, Message: fmt.Sprintf(msg, args...)}
}

// -----------------------------------------------------------------------------

// CatchTranslationError catches a translation error raised by a `panic` and
// stores it in err.  The function name is attached if the error does not
// already name one.  Any other panic continues to unwind.
// NB: This function must ALWAYS be deferred.
func CatchTranslationError(fnName string, err *error) {
	if x := recover(); x != nil {
		if terr, ok := x.(*TranslationError); ok {
			if terr.Function == "" {
				terr.Function = fnName
			}

			*err = terr
		} else {
			panic(x)
		}
	}
}

// AnnotateInstruction attaches the printed instruction to a translation error
// unwinding through it and lets the panic continue.
// NB: This function must ALWAYS be deferred.
func AnnotateInstruction(ins string) {
	if x := recover(); x != nil {
		if terr, ok := x.(*TranslationError); ok && terr.Instruction == "" {
			terr.Instruction = ins
		}

		panic(x)
	}
}
