// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"context"
	"fmt"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// ListenUDP binds a UDP socket on address. When receiveBuffer is
// positive the kernel receive buffer (SO_RCVBUF) is set before bind, so
// bursts from many producers queue in the kernel instead of being
// dropped while the reader is busy appending.
func ListenUDP(ctx context.Context, address string, receiveBuffer int) (*net.UDPConn, error) {
	config := net.ListenConfig{
		Control: func(network, _ string, raw syscall.RawConn) error {
			if receiveBuffer <= 0 {
				return nil
			}
			var sockoptErr error
			err := raw.Control(func(fd uintptr) {
				sockoptErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, receiveBuffer)
			})
			if err != nil {
				return err
			}
			if sockoptErr != nil {
				return fmt.Errorf("setting SO_RCVBUF=%d on %s socket: %w", receiveBuffer, network, sockoptErr)
			}
			return nil
		},
	}

	packetConn, err := config.ListenPacket(ctx, "udp", address)
	if err != nil {
		return nil, err
	}
	udpConn, ok := packetConn.(*net.UDPConn)
	if !ok {
		packetConn.Close()
		return nil, fmt.Errorf("listening on %s: unexpected connection type %T", address, packetConn)
	}
	return udpConn, nil
}

// ReceiveBufferSize returns the kernel receive buffer size of conn.
// Linux reports double the requested value to account for bookkeeping
// overhead.
func ReceiveBufferSize(conn *net.UDPConn) (int, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return 0, err
	}
	var size int
	var sockoptErr error
	err = raw.Control(func(fd uintptr) {
		size, sockoptErr = unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF)
	})
	if err != nil {
		return 0, err
	}
	return size, sockoptErr
}
