package report

import (
	"errors"
	"fmt"
	"os"
)

// -----------------------------------------------------------------------------
// NOTE: All report functions will only display if the appropriate log level is
// set.  Most report functions will simply fail silently if below their
// appropriate log level.

// ReportError reports a fatal error from a compilation phase.  Translation
// errors are displayed with their subsystem keyword as the tag.
func ReportError(err error) {
	if rep == nil {
		return
	}

	rep.m.Lock()
	defer rep.m.Unlock()

	rep.errorCount++

	if rep.logLevel > LogLevelSilent {
		displayEndPhase(false)

		var terr *TranslationError
		if errors.As(err, &terr) {
			displayTranslationError(terr)
		} else {
			DisplayErrorMessage("Error", err)
		}
	}
}

// ReportWarning buffers a warning to be displayed at the end of compilation.
func ReportWarning(tag, msg string, args ...interface{}) {
	if rep == nil {
		return
	}

	rep.m.Lock()
	defer rep.m.Unlock()

	rep.warnings = append(rep.warnings, warning{tag: tag, message: fmt.Sprintf(msg, args...)})
}

// ReportFatal reports a fatal error and exits the program.  These are errors
// that should cause all compilation to stop immediately: a missing project
// file, an invalid command line, etc.
func ReportFatal(message string, args ...interface{}) {
	if level() > LogLevelSilent {
		displayEndPhase(false)
		displayFatal(fmt.Sprintf(message, args...))
	}

	os.Exit(1)
}

// ReportICE reports an internal compiler error: a bug in the translator rather
// than a problem with its input.  These are always displayed.
func ReportICE(message string, args ...interface{}) {
	displayEndPhase(false)
	displayICE(fmt.Sprintf(message, args...))

	os.Exit(-1)
}

// AnyErrors returns whether or not any errors were reported.
func AnyErrors() bool {
	return rep != nil && rep.errorCount > 0
}

// -----------------------------------------------------------------------------
// Below are all the "aesthetic" reporting functions that will only run if the
// log level is to verbose.

// ReportCompileHeader reports the pre-compilation header.
func ReportCompileHeader(project, class string) {
	if level() == LogLevelVerbose {
		displayCompileHeader(project, class)
	}
}

// ReportBeginPhase reports the beginning of a compilation phase.
func ReportBeginPhase(phase string) {
	if level() == LogLevelVerbose {
		displayBeginPhase(phase)
	}
}

// ReportEndPhase reports the successful end of the current phase.
func ReportEndPhase() {
	if level() == LogLevelVerbose {
		displayEndPhase(true)
	}
}

// ReportCompilationFinished displays buffered warnings and the concluding
// message of compilation.
func ReportCompilationFinished(outputPath string) {
	if rep == nil {
		return
	}

	if rep.logLevel >= LogLevelWarn {
		for _, w := range rep.warnings {
			DisplayWarningMessage(w.tag, w.message)
		}
	}

	if rep.logLevel == LogLevelVerbose {
		displayCompilationFinished(!AnyErrors(), rep.errorCount, len(rep.warnings), outputPath)
	}
}

// ReportDebug prints a debug dump when verbose output is enabled.
func ReportDebug(title, text string) {
	if level() == LogLevelVerbose {
		displayDebug(title, text)
	}
}
