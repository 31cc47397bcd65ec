package gcc

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/LongLingMichael/renjin/common"
	"github.com/LongLingMichael/renjin/gimple"
	"github.com/LongLingMichael/renjin/report"
)

// missingF951 is printed by the gcc driver when it is asked to compile Fortran
// but the Fortran front-end is not installed.
const missingF951 = "error trying to exec 'f951': execvp: No such file or directory"

// Gcc invokes the native compiler with the bridge plugin loaded to produce the
// GIMPLE dump of a source file.
type Gcc struct {
	// Path is the gcc executable.  It defaults to `gcc` on the PATH.
	Path string

	// PluginLibrary is the path to the compiled bridge plugin.
	PluginLibrary string

	IncludeDirs []string

	// Flags are passed to gcc before the source file.
	Flags []string
}

// New creates a new front-end using the given plugin library.
func New(pluginLibrary string) *Gcc {
	return &Gcc{PluginLibrary: pluginLibrary}
}

// AddIncludeDirectory adds a directory to the include search path.
func (g *Gcc) AddIncludeDirectory(dir string) {
	g.IncludeDirs = append(g.IncludeDirs, dir)
}

// CompileToGimple compiles a C or Fortran source file and reads the GIMPLE
// dump written by the plugin.  The compiler runs in a temporary working
// directory which is removed afterwards.
func (g *Gcc) CompileToGimple(ctx context.Context, source string) (*gimple.Unit, error) {
	if err := CheckPlatform(); err != nil {
		return nil, err
	}

	if g.PluginLibrary == "" {
		return nil, report.Toolchain("no bridge plugin library was specified")
	}

	plugin, err := filepath.Abs(g.PluginLibrary)
	if err != nil {
		return nil, report.Toolchain("invalid plugin path `%s`: %s", g.PluginLibrary, err)
	}

	if _, err := os.Stat(plugin); err != nil {
		return nil, report.Toolchain("unable to find the bridge plugin: %s", err)
	}

	absSource, err := filepath.Abs(source)
	if err != nil {
		return nil, report.Toolchain("invalid source path `%s`: %s", source, err)
	}

	workDir, err := os.MkdirTemp("", "gccbridge")
	if err != nil {
		return nil, report.Toolchain("failed to create working directory: %s", err)
	}
	defer os.RemoveAll(workDir)

	dumpPath := filepath.Join(workDir, common.GimpleDumpFileName)
	if _, err := g.call(ctx, workDir, g.arguments(absSource, plugin, dumpPath, Is64Bit())...); err != nil {
		return nil, err
	}

	unit, err := gimple.ReadUnitFile(dumpPath)
	if err != nil {
		return nil, report.Toolchain("failed to read the GIMPLE dump of `%s`: %s", source, err)
	}

	if unit.SourceFile == "" {
		unit.SourceFile = filepath.Base(source)
	}

	return unit, nil
}

// arguments builds the gcc command line.  Pointers are backed by arrays which
// are indexed with 32 bit integers so 64 bit hosts cross compile with `-m32`.
func (g *Gcc) arguments(source, plugin, dumpPath string, host64 bool) []string {
	var args []string
	if host64 {
		args = append(args, "-m32")
	}

	args = append(args,
		"-c", // compile only
		"-S", // stop at assembly generation
		"-fplugin="+plugin,
		"-fplugin-arg-bridge-json-output-file="+dumpPath,
	)

	for _, dir := range g.IncludeDirs {
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}

		args = append(args, "-I", dir)
	}

	args = append(args, g.Flags...)
	return append(args, source)
}

// call runs gcc in workDir and returns its combined output.
func (g *Gcc) call(ctx context.Context, workDir string, args ...string) (string, error) {
	path := g.Path
	if path == "" {
		path = "gcc"
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = workDir

	out, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// gcc ran but the compilation failed: the output says why
			if strings.Contains(string(out), missingF951) {
				return "", report.Toolchain("Compilation failed: Fortran compiler is missing:\n%s", out)
			}

			return "", report.Toolchain("Compilation failed:\n%s", out)
		}

		return "", report.Toolchain("failed to start gcc: %s", err)
	}

	return string(out), nil
}
