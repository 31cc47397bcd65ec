//go:build unix

package gcc

import (
	"strings"

	"github.com/LongLingMichael/renjin/report"
	"golang.org/x/sys/unix"
)

// CheckPlatform checks that the host can run gcc with the bridge plugin.
func CheckPlatform() error {
	if _, err := uname(); err != nil {
		return report.Toolchain("unable to identify the host platform: %s", err)
	}

	return nil
}

// Is64Bit returns whether the host machine is a 64 bit machine.
func Is64Bit() bool {
	u, err := uname()
	if err != nil {
		return false
	}

	return strings.Contains(unix.ByteSliceToString(u.Machine[:]), "64")
}

func uname() (*unix.Utsname, error) {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return nil, err
	}

	return &u, nil
}
