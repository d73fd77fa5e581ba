// Package version holds the build identity of symdex.
package version

import (
	"fmt"
	"runtime"
)

// Name is the tool name reported in exported indexes and the CLI.
const Name = "symdex"

// Set at build time:
// go build -ldflags "-X symdex/internal/version.Version=1.0.0 -X symdex/internal/version.Commit=abc123"
var (
	Version   = "0.4.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// shortCommit is how many hash characters Info shows.
const shortCommit = 7

// Info returns the version with an abbreviated commit when one was set.
func Info() string {
	if Commit != "unknown" && len(Commit) > shortCommit {
		return Version + " (" + Commit[:shortCommit] + ")"
	}
	return Version
}

// Full returns the multi-line report printed by --version.
func Full() string {
	return fmt.Sprintf("%s %s\ncommit: %s\nbuilt: %s\ngo: %s %s/%s",
		Name, Version, Commit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
