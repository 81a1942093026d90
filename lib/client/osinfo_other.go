// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !unix

package client

import "runtime"

// OSDescription returns the operating system name. The kernel release
// is only available on unix systems.
func OSDescription() string {
	return runtime.GOOS + " unknown"
}
