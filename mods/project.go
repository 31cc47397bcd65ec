package mods

import (
	"path/filepath"
	"strings"

	"github.com/LongLingMichael/renjin/translate"
)

// Project represents a gccbridge project: a set of native sources compiled into
// one output class.
type Project struct {
	// Name is the name of the project.
	Name string

	// Root is the absolute path to the directory containing the project file.
	Root string

	// ClassName is the fully qualified name of the class the sources are
	// translated into.
	ClassName string

	// Sources are the absolute paths of the native sources.  Sources ending in
	// `.json` are GIMPLE dumps and skip the front-end.
	Sources []string

	// OutputDir is the absolute path of the directory the classes are written
	// to.
	OutputDir string

	// DefaultConvention overrides the calling convention derived from each
	// source's extension.  It is nil if the project does not set one.
	DefaultConvention translate.CallingConvention

	// Profile is the selected build profile.
	Profile *Profile

	// Methods is the external method table built from the project's externals
	// and fields.
	Methods *translate.MethodTable
}

// Profile is a build profile: how the native front-end is invoked.
type Profile struct {
	Name string

	// Debug indicates whether the parsed units and translated classes should be
	// dumped during compilation.
	Debug bool

	// IncludeDirs are absolute paths passed to gcc with `-I`.
	IncludeDirs []string

	// Flags are extra flags passed to gcc.
	Flags []string

	// PluginLibrary is the absolute path of the bridge plugin.
	PluginLibrary string

	// GccPath is the gcc executable: empty for `gcc` on the PATH.
	GccPath string
}

// sourceExts lists the source file extensions a project may contain.
var sourceExts = []string{".c", ".f", ".f77", ".f90", ".f95", ".json"}

// IsDumpSource returns whether a source is a pre-dumped GIMPLE unit.
func IsDumpSource(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// IsValidIdentifier returns whether or not a given string would be a valid
// identifier (project name, class name component, etc.)
func IsValidIdentifier(idstr string) bool {
	if idstr == "" {
		return false
	}

	if idstr[0] == '_' || ('a' <= idstr[0] && idstr[0] <= 'z') || ('A' <= idstr[0] && idstr[0] <= 'Z') {
		for _, c := range idstr[1:] {
			if c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') {
				continue
			}

			return false
		}

		return true
	}

	return false
}

// IsValidClassName returns whether a string is a valid fully qualified class
// name: dot separated identifiers.
func IsValidClassName(name string) bool {
	for _, part := range strings.Split(name, ".") {
		if !IsValidIdentifier(part) {
			return false
		}
	}

	return true
}
