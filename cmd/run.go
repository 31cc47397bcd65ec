package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ComedicChimera/olive"
	"github.com/LongLingMichael/renjin/build"
	"github.com/LongLingMichael/renjin/common"
	"github.com/LongLingMichael/renjin/jimple"
	"github.com/LongLingMichael/renjin/jimple/interp"
	"github.com/LongLingMichael/renjin/report"
)

// execRunCommand executes the run subcommand: the dumps are translated and the
// named function is evaluated without writing any output.
func execRunCommand(result *olive.ArgParseResult) {
	dumps, _ := result.PrimaryArg()

	proj, err := dumpProject(dumps, "", "")
	if err != nil {
		report.ReportFatal("%s", err)
	}

	c := build.NewCompiler(proj)
	if !c.Analyze(context.Background()) {
		report.ReportCompilationFinished("")
		os.Exit(1)
	}

	fnName := stringArg(result, "function")

	cb, _ := c.Output().Class(proj.ClassName)
	mb, ok := cb.LookupMethod(fnName)
	if !ok {
		report.ReportFatal("no function named `%s`", fnName)
	}

	args, arrays, err := parseArguments(mb, stringArg(result, "args"))
	if err != nil {
		report.ReportFatal("invalid arguments to `%s`: %s", fnName, err)
	}

	ret, err := interp.New(c.Output()).Invoke(proj.ClassName, fnName, args...)
	if err != nil {
		report.ReportFatal("%s", err)
	}

	if mb.ReturnType != jimple.Void {
		report.DisplayInfoMessage("Result", interp.Format(ret))
	}

	// arrays passed by pointer are printed since the function may write them
	for i, arr := range arrays {
		if arr != nil {
			report.DisplayInfoMessage(fmt.Sprintf("Argument %d", i), interp.Format(arr))
		}
	}
}

// parseArguments converts the textual arguments of a method call.  A pointer
// parameter takes a bracketed, space separated array which is passed as a
// pointer to its first element.  The arrays created for pointer parameters are
// returned by parameter index.
func parseArguments(mb *jimple.MethodBuilder, raw string) ([]interp.Value, []*interp.Array, error) {
	texts := splitArguments(raw)
	if len(texts) != len(mb.Params) {
		return nil, nil, fmt.Errorf("expected %d arguments but got %d", len(mb.Params), len(texts))
	}

	args := make([]interp.Value, len(texts))
	arrays := make([]*interp.Array, len(texts))

	for i, text := range texts {
		switch pt := mb.Params[i].T.(type) {
		case jimple.PrimType:
			v, err := interp.ParseValue(text, pt)
			if err != nil {
				return nil, nil, err
			}

			args[i] = v
		case *jimple.ClassType:
			elem, ok := wrapperElem(pt.Name)
			if !ok {
				return nil, nil, fmt.Errorf("parameter %d of type %s cannot be given on the command line", i, pt.Repr())
			}

			if !strings.HasPrefix(text, "[") || !strings.HasSuffix(text, "]") {
				return nil, nil, fmt.Errorf("parameter %d is a pointer and must be given as an array: `[1 2 3]`", i)
			}

			arr := interp.NewArray(elem)
			for _, item := range strings.Fields(text[1 : len(text)-1]) {
				v, err := interp.ParseValue(item, elem)
				if err != nil {
					return nil, nil, err
				}

				arr.Data = append(arr.Data, v)
			}

			args[i] = interp.NewPointer(arr, 0)
			arrays[i] = arr
		default:
			return nil, nil, fmt.Errorf("parameter %d of type %s cannot be given on the command line", i, pt.Repr())
		}
	}

	return args, arrays, nil
}

// splitArguments splits a comma separated argument list.  Commas inside
// brackets do not separate arguments.
func splitArguments(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var (
		texts []string
		depth int
		start int
	)

	for i, c := range raw {
		switch c {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				texts = append(texts, strings.TrimSpace(raw[start:i]))
				start = i + 1
			}
		}
	}

	return append(texts, strings.TrimSpace(raw[start:]))
}

// wrapperElem returns the element type of a runtime pointer wrapper class.
func wrapperElem(class string) (jimple.PrimType, bool) {
	if !strings.HasPrefix(class, common.RuntimePackage+".") {
		return jimple.Void, false
	}

	for _, pt := range []jimple.PrimType{jimple.Boolean, jimple.Byte, jimple.Char, jimple.Short, jimple.Int, jimple.Long, jimple.Float, jimple.Double} {
		if interp.WrapperClass(pt) == class {
			return pt, true
		}
	}

	return jimple.Void, false
}
