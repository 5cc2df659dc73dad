// Package version holds build information injected via -ldflags.
package version

import (
	"fmt"
	"runtime"

	"github.com/aatumaykin/idlebot/internal/constants"
)

var (
	Version   = constants.DefaultVersion
	BuildTime = constants.DefaultBuildTime
	GitCommit = constants.DefaultGitCommit
	GoVersion = runtime.Version()
)

func SetInfo(v, bt, gc, gv string) {
	if v != "" {
		Version = v
	}
	if bt != "" {
		BuildTime = bt
	}
	if gc != "" {
		GitCommit = gc
	}
	if gv != "" {
		GoVersion = gv
	}
}

// String renders the full build line printed by the version command.
func String() string {
	return fmt.Sprintf("idlebot %s (commit %s, built %s, %s)", Version, GitCommit, BuildTime, GoVersion)
}

func FormatStartupMessage() string {
	return fmt.Sprintf("🤖 Idle User Bot started\nVersion: %s\nBuild: %s", Version, BuildTime)
}
