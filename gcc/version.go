package gcc

import (
	"context"
	"os"
	"strings"

	"github.com/LongLingMichael/renjin/common"
	"github.com/LongLingMichael/renjin/report"
	"golang.org/x/mod/semver"
)

// Version returns the version of the gcc executable as reported by
// `gcc -dumpversion`.
func (g *Gcc) Version(ctx context.Context) (string, error) {
	out, err := g.call(ctx, os.TempDir(), "-dumpversion")
	if err != nil {
		return "", report.Toolchain("failed to determine the gcc version (make sure gcc %s is installed): %s",
			common.SupportedGccVersion, err)
	}

	return strings.TrimSpace(out), nil
}

// CheckVersion determines the gcc version and whether it is the release the
// plugin is built against.  A different version may still work.
func (g *Gcc) CheckVersion(ctx context.Context) (string, bool, error) {
	version, err := g.Version(ctx)
	if err != nil {
		return "", false, err
	}

	return version, IsSupportedVersion(version), nil
}

// IsSupportedVersion returns whether a gcc version string denotes the
// supported release.  Versions are compared semantically so `4.6.3` and
// `v4.6.3` are equivalent.
func IsSupportedVersion(version string) bool {
	v := canonicalVersion(version)
	if !semver.IsValid(v) {
		return false
	}

	return semver.Compare(v, canonicalVersion(common.SupportedGccVersion)) == 0
}

// canonicalVersion converts a version to the `vX.Y.Z` form semver expects.
func canonicalVersion(version string) string {
	version = strings.TrimSpace(version)
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}

	return version
}
