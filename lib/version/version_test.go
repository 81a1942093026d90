// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"strings"
	"testing"
)

func setStamps(t *testing.T, version, commit, dirty, buildTime string) {
	t.Helper()
	savedVersion, savedCommit, savedDirty, savedTime := Version, GitCommit, GitDirty, BuildTime
	t.Cleanup(func() {
		Version, GitCommit, GitDirty, BuildTime = savedVersion, savedCommit, savedDirty, savedTime
	})
	Version, GitCommit, GitDirty, BuildTime = version, commit, dirty, buildTime
}

func TestInfoUsesLinkerStamps(t *testing.T) {
	setStamps(t, "1.2.3", "abc1234", "true", "2026-02-10T00:00:00Z")

	if got, want := Info(), "1.2.3 (abc1234-dirty, 2026-02-10T00:00:00Z)"; got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}

	GitDirty = "false"
	if got, want := Info(), "1.2.3 (abc1234, 2026-02-10T00:00:00Z)"; got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}
	if full := Full(); !strings.HasPrefix(full, Info()) || !strings.Contains(full, "Go: ") {
		t.Errorf("Full() = %q", full)
	}
}

func TestBuildString(t *testing.T) {
	tests := []struct {
		input build
		want  string
	}{
		{build{Version: "0.1.0-dev"}, "0.1.0-dev (unknown, unknown)"},
		{build{Version: "2.0.0", Commit: "0123456789abcdef0123", Time: "2026-03-01T10:00:00Z"}, "2.0.0 (0123456789ab, 2026-03-01T10:00:00Z)"},
		{build{Version: "2.0.0", Commit: "feed", Dirty: true}, "2.0.0 (feed-dirty, unknown)"},
	}
	for _, test := range tests {
		if got := test.input.String(); got != test.want {
			t.Errorf("%+v.String() = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestLinkerStampsWinOverBuildInfo(t *testing.T) {
	setStamps(t, "3.0.0", "stamped", "false", "then")

	resolved := current()
	if resolved.Commit != "stamped" || resolved.Time != "then" || resolved.Dirty {
		t.Errorf("current() = %+v, want the linker stamps", resolved)
	}
}

func TestModuleNeverEmpty(t *testing.T) {
	if Module() == "" {
		t.Error("Module() returned an empty version")
	}
}
