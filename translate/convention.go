package translate

import (
	"path/filepath"
	"strings"
)

// CallingConvention is the combination of symbol name transformation and
// argument passing discipline of a native source dialect.
type CallingConvention interface {
	// Name returns the configuration name of the convention.
	Name() string

	// MangleFunctionName transforms a source-level function name into the
	// symbol name the native compiler emits for it.
	MangleFunctionName(name string) string

	// ByReference returns whether scalar arguments are passed by reference:
	// the callee may modify them in place and the caller observes the
	// modification.
	ByReference() bool
}

// CConvention is the native C calling convention: names are unchanged and
// arguments are passed by value.
type CConvention struct{}

func (CConvention) Name() string                          { return "c" }
func (CConvention) MangleFunctionName(name string) string { return name }
func (CConvention) ByReference() bool                     { return false }

// FortranConvention is the gfortran calling convention: symbols are lower-case
// with a trailing underscore and every argument is passed by reference.
type FortranConvention struct{}

func (FortranConvention) Name() string { return "fortran" }

func (FortranConvention) MangleFunctionName(name string) string {
	return strings.ToLower(name) + "_"
}

func (FortranConvention) ByReference() bool { return true }

// ConventionNamed returns the calling convention with the given configuration
// name.
func ConventionNamed(name string) (CallingConvention, bool) {
	switch strings.ToLower(name) {
	case "c", "":
		return CConvention{}, true
	case "fortran", "f77", "gfortran":
		return FortranConvention{}, true
	}

	return nil, false
}

// ConventionFor returns the calling convention of a native source file based
// on its extension.
func ConventionFor(sourceFile string) CallingConvention {
	switch strings.ToLower(filepath.Ext(sourceFile)) {
	case ".f", ".for", ".f77", ".f90", ".f95", ".f03":
		return FortranConvention{}
	default:
		return CConvention{}
	}
}
