// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version describes the build of the heimdall binaries.
//
// Release builds stamp the package variables with -ldflags:
//
//	go build -ldflags "-X github.com/bureau-foundation/heimdall/lib/version.Version=1.0.0"
//
// Anything left unstamped comes from the VCS information the Go
// toolchain records in the binary. [Info] is the --version line;
// [Module] is what producers report as their own version.
package version
