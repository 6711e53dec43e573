package version

import (
	"fmt"
	"runtime"
	"time"
)

// Set at build time with -ldflags "-X github.com/MrSnakeDoc/gieok/internal/version.Version=...".
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = time.Now().Format(time.RFC3339)
	GoVersion = runtime.Version()
)

// String renders a one-line build banner.
func String() string {
	return fmt.Sprintf("gieok %s (commit=%s, built=%s, go=%s)", Version, Commit, BuildDate, GoVersion)
}
