// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Build stamps, set with -ldflags -X. Empty stamps fall back to the
// VCS settings the Go toolchain embeds (vcs.revision, vcs.modified,
// vcs.time).
var (
	// Version is the release version.
	Version = "0.1.0-dev"

	// GitCommit is the commit the binary was built from.
	GitCommit = ""

	// GitDirty is "true" when the tree had uncommitted changes.
	GitDirty = ""

	// BuildTime is the UTC build or commit time.
	BuildTime = ""
)

// shortCommitLength is how much of a full VCS revision Info shows.
const shortCommitLength = 12

// build is the resolved build description.
type build struct {
	Version string
	Commit  string
	Dirty   bool
	Time    string
}

// current resolves the build stamps, filling gaps from the embedded
// build info.
func current() build {
	resolved := build{
		Version: Version,
		Commit:  GitCommit,
		Dirty:   GitDirty == "true",
		Time:    BuildTime,
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return resolved
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if resolved.Commit == "" {
				resolved.Commit = setting.Value
			}
		case "vcs.modified":
			if GitDirty == "" {
				resolved.Dirty = setting.Value == "true"
			}
		case "vcs.time":
			if resolved.Time == "" {
				resolved.Time = setting.Value
			}
		}
	}
	return resolved
}

// Info formats the build for --version output:
// "1.2.3 (abc1234-dirty, 2026-02-10T00:00:00Z)".
func Info() string {
	return current().String()
}

func (b build) String() string {
	commit := b.Commit
	if commit == "" {
		commit = "unknown"
	} else if len(commit) > shortCommitLength {
		commit = commit[:shortCommitLength]
	}
	if b.Dirty {
		commit += "-dirty"
	}
	buildTime := b.Time
	if buildTime == "" {
		buildTime = "unknown"
	}
	return fmt.Sprintf("%s (%s, %s)", b.Version, commit, buildTime)
}

// Full adds the Go toolchain and platform to Info.
func Full() string {
	var builder strings.Builder
	builder.WriteString(Info())
	fmt.Fprintf(&builder, "\n  Go: %s\n  Platform: %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return builder.String()
}

// Module returns the main module version recorded by the toolchain,
// or Version for development builds ("(devel)"). Producers report it as
// their own version when none is configured.
func Module() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return Version
	}
	return info.Main.Version
}
