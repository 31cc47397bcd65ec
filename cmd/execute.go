package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/ComedicChimera/olive"
	"github.com/LongLingMichael/renjin/build"
	"github.com/LongLingMichael/renjin/common"
	"github.com/LongLingMichael/renjin/mods"
	"github.com/LongLingMichael/renjin/report"
	"github.com/LongLingMichael/renjin/translate"
	"github.com/samber/lo"
)

// Execute is the main entry point for the `gccbridge` CLI utility
func Execute() {
	// set up the argument parser and all its extended commands and arguments
	cli := olive.NewCLI("gccbridge", "gccbridge translates C and Fortran sources into JVM classes", true)
	logLvlArg := cli.AddSelectorArg("loglevel", "ll", "the compiler log level", false, []string{"silent", "error", "warn", "verbose"})
	logLvlArg.SetDefaultValue("verbose")

	buildCmd := cli.AddSubcommand("build", "build a project", true)
	buildCmd.AddPrimaryArg("project-path", "the path to the project directory", true)
	buildCmd.AddStringArg("profile", "p", "the name of the profile to build", false)

	translateCmd := cli.AddSubcommand("translate", "translate GIMPLE dumps without a project", true)
	translateCmd.AddPrimaryArg("dumps", "comma separated paths of the GIMPLE dumps to translate", true)
	translateCmd.AddStringArg("class", "c", "the name of the output class", false)
	translateCmd.AddStringArg("output", "o", "the output directory", false)
	translateCmd.AddStringArg("convention", "cc", "the calling convention of every function", false)
	translateCmd.AddFlag("debug", "d", "dump the parsed units and the translated classes")

	runCmd := cli.AddSubcommand("run", "translate GIMPLE dumps and evaluate one function", true)
	runCmd.AddPrimaryArg("dumps", "comma separated paths of the GIMPLE dumps to translate", true)
	runCmd.AddStringArg("function", "f", "the name of the function to call", true)
	runCmd.AddStringArg("args", "a", "comma separated arguments: numbers or bracketed arrays such as `[1 2 3]`", false)

	initCmd := cli.AddSubcommand("init", "initialize a project in the working directory", true)
	initCmd.AddPrimaryArg("project-name", "the name of the new project", true)
	initCmd.AddStringArg("plugin", "pl", "the path to the bridge plugin library", false)

	cli.AddSubcommand("version", "print the gccbridge version", false)

	// run the argument parser
	result, err := olive.ParseArgs(cli, os.Args)
	if err != nil {
		report.ReportFatal("%s", err)
	}

	report.InitReporter(report.LogLevelFromName(result.Arguments["loglevel"].(string)))

	// process the inputed command line
	subcmdName, subResult, _ := result.Subcommand()
	switch subcmdName {
	case "build":
		execBuildCommand(subResult)
	case "translate":
		execTranslateCommand(subResult)
	case "run":
		execRunCommand(subResult)
	case "init":
		execInitCommand(subResult)
	case "version":
		report.DisplayInfoMessage("gccbridge Version", common.BridgeVersion)
	}
}

// execBuildCommand executes the build subcommand and handles all errors
func execBuildCommand(result *olive.ArgParseResult) {
	rootPath, _ := result.PrimaryArg()

	proj, err := mods.LoadProject(rootPath, stringArg(result, "profile"))
	if err != nil {
		report.ReportFatal("failed to load project: %s", err)
	}

	compile(proj)
}

// execTranslateCommand executes the translate subcommand: the dumps are
// compiled as if they were the sources of a project.
func execTranslateCommand(result *olive.ArgParseResult) {
	dumps, _ := result.PrimaryArg()

	proj, err := dumpProject(dumps, stringArg(result, "class"), stringArg(result, "convention"))
	if err != nil {
		report.ReportFatal("%s", err)
	}

	if output := stringArg(result, "output"); output != "" {
		if proj.OutputDir, err = filepath.Abs(output); err != nil {
			report.ReportFatal("invalid output directory: %s", err)
		}
	}

	proj.Profile.Debug = result.HasFlag("debug")

	compile(proj)
}

// execInitCommand executes the init subcommand
func execInitCommand(result *olive.ArgParseResult) {
	name, _ := result.PrimaryArg()

	workDir, err := os.Getwd()
	if err != nil {
		report.ReportFatal("failed to determine working directory: %s", err)
	}

	if err := mods.InitProject(name, workDir, stringArg(result, "plugin")); err != nil {
		report.ReportFatal("failed to initialize project: %s", err)
	}

	report.DisplayInfoMessage("Project", "initialized `"+name+"` in "+workDir)
}

// -----------------------------------------------------------------------------

// compile builds a project and exits with a non-zero status if compilation
// fails.
func compile(proj *mods.Project) {
	c := build.NewCompiler(proj)
	_, ok := c.Compile(context.Background())

	report.ReportCompilationFinished(proj.OutputDir)

	if !ok {
		os.Exit(1)
	}
}

// dumpProject creates a project compiling a comma separated list of GIMPLE
// dumps.  The class is named after the first dump unless a name is given.
func dumpProject(dumps, class, convention string) (*mods.Project, error) {
	paths := lo.Filter(lo.Map(strings.Split(dumps, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	}), func(s string, _ int) bool {
		return s != ""
	})

	if len(paths) == 0 {
		return nil, report.Toolchain("no GIMPLE dumps were given")
	}

	proj := &mods.Project{
		Name:    "translate",
		Profile: &mods.Profile{Name: "default"},
	}

	for _, path := range paths {
		if !mods.IsDumpSource(path) {
			return nil, report.Toolchain("`%s` is not a GIMPLE dump: native sources must be built with a project", path)
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}

		proj.Sources = append(proj.Sources, abs)
	}

	proj.Root = filepath.Dir(proj.Sources[0])
	proj.OutputDir = filepath.Join(proj.Root, "out")

	if class == "" {
		// `dnrm2.f.json` is named `dnrm2`
		class = strings.SplitN(filepath.Base(proj.Sources[0]), ".", 2)[0]
	}

	if !mods.IsValidClassName(class) {
		return nil, report.Toolchain("`%s` is not a valid class name", class)
	}

	proj.ClassName = class

	if convention != "" {
		conv, ok := translate.ConventionNamed(convention)
		if !ok {
			return nil, report.Toolchain("unknown calling convention `%s`", convention)
		}

		proj.DefaultConvention = conv
	}

	return proj, nil
}

// stringArg returns the value of an optional string argument.
func stringArg(result *olive.ArgParseResult, name string) string {
	if v, ok := result.Arguments[name]; ok {
		return v.(string)
	}

	return ""
}
