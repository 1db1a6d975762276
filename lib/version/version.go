// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/bureau-foundation/bstream/lib/version.GitCommit=...".
var (
	GitCommit = ""
	BuildTime = "unknown"
	Version   = "0.1.0-dev"
)

// Commit returns the git commit of the build, or "unknown".
func Commit() string {
	if GitCommit != "" {
		return GitCommit
	}
	return buildSetting("vcs.revision", "unknown")
}

func buildSetting(key, fallback string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return fallback
	}
	for _, setting := range info.Settings {
		if setting.Key == key && setting.Value != "" {
			if key == "vcs.revision" && len(setting.Value) > 12 {
				return setting.Value[:12]
			}
			return setting.Value
		}
	}
	return fallback
}

// Info is the one-line version string: "0.1.0-dev (abc123def456, 2026-10-17T...)".
func Info() string {
	dirty := ""
	if buildSetting("vcs.modified", "false") == "true" {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", Version, Commit(), dirty, BuildTime)
}

// Full adds the Go version and platform to Info.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
