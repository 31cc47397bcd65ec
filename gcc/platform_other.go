//go:build !unix && !windows

package gcc

import (
	"runtime"
	"strings"

	"github.com/LongLingMichael/renjin/report"
)

// CheckPlatform rejects hosts gcc plugins are not available on.
func CheckPlatform() error {
	return report.Toolchain("gccbridge is not supported on %s", runtime.GOOS)
}

// Is64Bit returns whether the host machine is a 64 bit machine.
func Is64Bit() bool {
	return strings.Contains(runtime.GOARCH, "64")
}
