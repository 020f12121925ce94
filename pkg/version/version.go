// Package version exposes build metadata set via -ldflags.
package version

import (
	"fmt"
	"runtime"
)

// Set at build time with
//
//	-ldflags "-X github.com/NERVsystems/routemodel/pkg/version.BuildVersion=..."
var (
	BuildVersion = "dev"
	BuildCommit  = "unknown"
	BuildDate    = "unknown"
)

// Info returns the build metadata as a map
func Info() map[string]string {
	return map[string]string{
		"version":    BuildVersion,
		"commit":     BuildCommit,
		"build_date": BuildDate,
		"go_version": runtime.Version(),
	}
}

// String formats the build metadata for -version output
func String() string {
	return fmt.Sprintf("routemodel %s (commit %s, built %s, %s)",
		BuildVersion, BuildCommit, BuildDate, runtime.Version())
}
