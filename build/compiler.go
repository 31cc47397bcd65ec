package build

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"github.com/LongLingMichael/renjin/common"
	"github.com/LongLingMichael/renjin/gcc"
	"github.com/LongLingMichael/renjin/gimple"
	"github.com/LongLingMichael/renjin/jimple"
	"github.com/LongLingMichael/renjin/mods"
	"github.com/LongLingMichael/renjin/report"
	"github.com/LongLingMichael/renjin/translate"
	"github.com/LongLingMichael/renjin/xform"
	"github.com/kr/pretty"
)

// Compiler represents the state of a single gccbridge compilation: the sources
// of one project translated into one output class.
type Compiler struct {
	// proj is the project being compiled.
	proj *mods.Project

	// methods is the external method table: the math builtins plus the
	// project's externals.
	methods *translate.MethodTable

	// units holds the unit of each source in source order.
	units []*gimple.Unit

	// unit is the merged unit all sources are translated from.
	unit *gimple.Unit

	// output is the translated output.
	output *jimple.Output

	// err is the error compilation stopped on.
	err error
}

// NewCompiler creates a new compiler for a project.
func NewCompiler(proj *mods.Project) *Compiler {
	methods := translate.NewMethodTable()
	methods.AddMathBuiltins()
	methods.Merge(proj.Methods)

	return &Compiler{
		proj:    proj,
		methods: methods,
	}
}

// Compile runs every phase of compilation and writes the output classes.  It
// returns the paths of the written files and whether compilation succeeded.
// Errors are reported as they occur.
func (c *Compiler) Compile(ctx context.Context) ([]string, bool) {
	report.ReportCompileHeader(c.proj.Name, c.proj.ClassName)

	if !c.Analyze(ctx) {
		return nil, false
	}

	return c.Emit()
}

// Analyze runs all phases of compilation prior to emission: the front-end,
// the transformation passes and translation.  This is exported for the `run`
// command which evaluates the output without writing it.
func (c *Compiler) Analyze(ctx context.Context) bool {
	return c.FrontEnd(ctx) && c.Transform() && c.Translate()
}

// Output returns the translated output.  It is nil until translation has
// succeeded.
func (c *Compiler) Output() *jimple.Output {
	return c.output
}

// Err returns the error that stopped compilation, if any.
func (c *Compiler) Err() error {
	return c.err
}

// fail reports the error compilation stops on.
func (c *Compiler) fail(err error) bool {
	c.err = err
	report.ReportError(err)
	return false
}

// -----------------------------------------------------------------------------

// FrontEnd produces the GIMPLE unit of every source.  Native sources are
// compiled concurrently.  GIMPLE dumps are read directly.
func (c *Compiler) FrontEnd(ctx context.Context) bool {
	report.ReportBeginPhase("Front-end")

	var g *gcc.Gcc
	for _, src := range c.proj.Sources {
		if !mods.IsDumpSource(src) {
			var err error
			if g, err = c.newGcc(ctx); err != nil {
				return c.fail(err)
			}

			break
		}
	}

	c.units = make([]*gimple.Unit, len(c.proj.Sources))
	errs := make([]error, len(c.proj.Sources))

	wg := &sync.WaitGroup{}
	for i, src := range c.proj.Sources {
		wg.Add(1)

		go func(i int, src string) {
			defer wg.Done()

			if mods.IsDumpSource(src) {
				c.units[i], errs[i] = readDump(src)
			} else {
				c.units[i], errs[i] = g.CompileToGimple(ctx, src)
			}
		}(i, src)
	}

	wg.Wait()

	// errors are reported in source order regardless of which compilation
	// finished first
	for _, err := range errs {
		if err != nil {
			return c.fail(err)
		}
	}

	for i, unit := range c.units {
		c.assignConventions(unit)

		if c.proj.Profile.Debug {
			report.ReportDebug(filepath.Base(c.proj.Sources[i]), pretty.Sprint(unit))
		}
	}

	report.ReportEndPhase()
	return true
}

// newGcc creates the native front-end of the selected profile and checks its
// version.
func (c *Compiler) newGcc(ctx context.Context) (*gcc.Gcc, error) {
	if err := gcc.CheckPlatform(); err != nil {
		return nil, err
	}

	prof := c.proj.Profile

	g := gcc.New(prof.PluginLibrary)
	g.Path = prof.GccPath
	g.Flags = prof.Flags
	for _, dir := range prof.IncludeDirs {
		g.AddIncludeDirectory(dir)
	}

	version, supported, err := g.CheckVersion(ctx)
	if err != nil {
		return nil, err
	}

	if !supported {
		report.ReportWarning("toolchain", "gccbridge has been tested against gcc %s (found %s): other versions may not work correctly",
			common.SupportedGccVersion, version)
	}

	return g, nil
}

// readDump reads a pre-dumped GIMPLE unit.  A dump without a recorded source
// file is named after its own file with the `.json` extension removed so that
// `dnrm2.f.json` is treated as Fortran.
func readDump(path string) (*gimple.Unit, error) {
	unit, err := gimple.ReadUnitFile(path)
	if err != nil {
		return nil, report.Toolchain("%s", err)
	}

	if unit.SourceFile == "" {
		base := filepath.Base(path)
		unit.SourceFile = strings.TrimSuffix(base, filepath.Ext(base))
	}

	return unit, nil
}

// assignConventions records the calling convention of every function of a
// unit that does not declare one: the project default or else the convention
// of the unit's source language.  This must happen before units are merged
// since merged units no longer know their source.
func (c *Compiler) assignConventions(unit *gimple.Unit) {
	conv := c.proj.DefaultConvention
	if conv == nil {
		conv = translate.ConventionFor(unit.SourceFile)
	}

	for _, fn := range unit.Functions {
		if fn.CallingConvention == "" {
			fn.CallingConvention = conv.Name()
		}
	}
}

// -----------------------------------------------------------------------------

// Transform merges the units of all sources and resolves untyped pointers.
// Pointers that remain untyped are reported as warnings: they only become
// errors if they are dereferenced.
func (c *Compiler) Transform() bool {
	report.ReportBeginPhase("Transform")

	c.unit = gimple.Merge(c.units...)

	result := xform.ResolveVoidPointers(c.unit)
	for _, u := range result.Unresolved {
		if u.Function == "" {
			report.ReportWarning("void pointer", "unable to deduce the type of global `%s`: it is translated as an opaque pointer", u.Decl.Repr())
		} else {
			report.ReportWarning("void pointer", "unable to deduce the type of `%s` in function `%s`: it is translated as an opaque pointer",
				u.Decl.Repr(), u.Function)
		}
	}

	report.ReportEndPhase()
	return true
}

// Translate translates the merged unit into the project's class.
func (c *Compiler) Translate() bool {
	report.ReportBeginPhase("Translate")

	tc := translate.NewTranslationContext(c.unit, c.proj.ClassName, c.methods)
	if c.proj.DefaultConvention != nil {
		tc.SetDefaultConvention(c.proj.DefaultConvention)
	}

	out, err := tc.Translate()
	if err != nil {
		return c.fail(err)
	}

	c.output = out

	if c.proj.Profile.Debug {
		for _, cb := range out.Classes() {
			report.ReportDebug(cb.Name, cb.Repr())
		}
	}

	report.ReportEndPhase()
	return true
}

// Emit writes every class of the output to the project's output directory.
func (c *Compiler) Emit() ([]string, bool) {
	report.ReportBeginPhase("Emit")

	paths, err := c.output.WriteFiles(c.proj.OutputDir)
	if err != nil {
		return nil, c.fail(report.Toolchain("failed to write output: %s", err))
	}

	report.ReportEndPhase()
	return paths, true
}
