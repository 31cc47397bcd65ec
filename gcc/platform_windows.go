//go:build windows

package gcc

import (
	"runtime"
	"strings"

	"github.com/LongLingMichael/renjin/report"
	"golang.org/x/sys/windows/registry"
)

// CheckPlatform rejects Windows: the plugin cannot be built and linked against
// gcc there, not even under Cygwin.
func CheckPlatform() error {
	msg := "gccbridge does not work on Windows because the gcc plugin cannot be built and linked there.  " +
		"Compile on a *NIX platform instead: the generated classes run anywhere."

	if root, ok := cygwinRoot(); ok {
		msg += "\n(a Cygwin installation was found at `" + root + "` but it is not supported either)"
	}

	return report.Toolchain("%s", msg)
}

// Is64Bit returns whether the host machine is a 64 bit machine.
func Is64Bit() bool {
	return strings.Contains(runtime.GOARCH, "64")
}

// cygwinRoot finds the root directory of a Cygwin installation in the registry.
func cygwinRoot() (string, bool) {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, `SOFTWARE\Cygwin\setup`, registry.QUERY_VALUE)
	if err != nil {
		return "", false
	}
	defer k.Close()

	root, _, err := k.GetStringValue("rootdir")
	if err != nil {
		return "", false
	}

	return root, true
}
