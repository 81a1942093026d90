// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package client

import (
	"runtime"
	"sync"

	"golang.org/x/sys/unix"
)

var osDescription = sync.OnceValue(func() string {
	var name unix.Utsname
	if err := unix.Uname(&name); err != nil {
		return runtime.GOOS + " unknown"
	}
	return unix.ByteSliceToString(name.Sysname[:]) + " " + unix.ByteSliceToString(name.Release[:])
})

// OSDescription returns "sysname release" for the running kernel, for
// example "Linux 6.8.0-45-generic".
func OSDescription() string {
	return osDescription()
}
