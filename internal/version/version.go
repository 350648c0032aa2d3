package version

import (
	"fmt"
	"runtime"
)

// Set at build time with -ldflags "-X .../internal/version.Version=v0.1.0 ...".
var (
	Version   = "dev"             // ex: v0.1.0
	Commit    = "none"            // ex: abcd123
	BuildDate = "unknown"         // ex: 2025-08-11T18:42:00Z
	GoVersion = runtime.Version() // go version
)

// String renders the build information on one line.
func String() string {
	return fmt.Sprintf("%s (commit=%s, built=%s, go=%s)", Version, Commit, BuildDate, GoVersion)
}
