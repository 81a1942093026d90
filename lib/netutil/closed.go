// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"errors"
	"io"
	"net"
	"os"
	"syscall"
)

// IsExpectedCloseError reports whether err is a normal end of a socket:
// EOF, use of a closed connection, broken pipe, or connection reset.
// Loops that own a socket return quietly on these instead of logging.
func IsExpectedCloseError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EPIPE || errno == syscall.ECONNRESET
	}
	return false
}

// IsTimeout reports whether err is an expired read or write deadline.
// Poll loops treat it as "nothing arrived" and go round again.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netError net.Error
	return errors.As(err, &netError) && netError.Timeout()
}

// IsRefused reports whether err is ECONNREFUSED. On a connected UDP
// socket this surfaces on the send after an ICMP port-unreachable, and
// only means nobody was listening at that moment.
func IsRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}
