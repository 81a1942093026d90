// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/bureau-foundation/heimdall/lib/clock"
	"github.com/bureau-foundation/heimdall/lib/logrecord"
	"github.com/bureau-foundation/heimdall/lib/netutil"
	"github.com/bureau-foundation/heimdall/lib/version"
)

// DefaultAddress is where a collector listens unless configured
// otherwise.
const DefaultAddress = "127.0.0.1:62000"

var (
	// ErrClosed is returned by a Logger after Close.
	ErrClosed = errors.New("client: logger closed")

	// ErrNoCollector wraps a send refused because nothing was
	// listening at the collector address at that moment.
	ErrNoCollector = errors.New("client: no collector listening")
)

// RecordTooLargeError is returned when an encoded record does not fit
// in one datagram. Nothing is sent.
type RecordTooLargeError struct {
	Size int
}

func (e *RecordTooLargeError) Error() string {
	return fmt.Sprintf("client: encoded record is %d bytes, limit is %d", e.Size, logrecord.MaxEncodedSize)
}

// Config configures Dial.
type Config struct {
	// Address is the collector's host:port. Defaults to DefaultAddress.
	Address string

	// AppName identifies the producer. Defaults to the executable name.
	AppName string

	// Version is the producer's version. Defaults to version.Module().
	Version string

	// Clock stamps records. Defaults to clock.Real().
	Clock clock.Clock

	// Logger receives local diagnostics (send failures are also
	// returned to the caller). Nil discards them.
	Logger *slog.Logger
}

// Logger sends records to one collector. It is safe for concurrent
// use; independent Loggers in the same process do not interact.
type Logger struct {
	conn    net.Conn
	context logrecord.Context
	clock   clock.Clock
	logger  *slog.Logger
	closed  atomic.Bool
}

// Dial opens a datagram socket to the collector and builds the
// producer context sent with every record. Datagram sockets do not
// handshake, so Dial succeeds whether or not a collector is listening.
func Dial(ctx context.Context, cfg Config) (*Logger, error) {
	address := cfg.Address
	if address == "" {
		address = DefaultAddress
	}
	appName := cfg.AppName
	if appName == "" {
		appName = filepath.Base(os.Args[0])
	}
	producerVersion := cfg.Version
	if producerVersion == "" {
		producerVersion = version.Module()
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "udp", address)
	if err != nil {
		return nil, fmt.Errorf("client: dialing %s: %w", address, err)
	}

	return &Logger{
		conn: conn,
		context: logrecord.Context{
			AppName:       appName,
			ProcessID:     uint32(os.Getpid()),
			OSDescription: OSDescription(),
			Version:       producerVersion,
		},
		clock:  clk,
		logger: logger.With("collector", address),
	}, nil
}

// Context returns the producer context attached to every record.
func (l *Logger) Context() logrecord.Context {
	return l.context
}

// Var builds a record variable, formatting value with fmt.Sprint.
func Var(key string, value any) logrecord.Var {
	if text, ok := value.(string); ok {
		return logrecord.Var{Key: key, Value: text}
	}
	return logrecord.Var{Key: key, Value: fmt.Sprint(value)}
}

// Log stamps message with the current time and sends it with vars.
func (l *Logger) Log(ctx context.Context, message string, vars ...logrecord.Var) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.LogRecord(logrecord.Record{
		Timestamp: l.clock.Now(),
		Message:   message,
		Context:   l.context,
		Vars:      vars,
	})
}

// LogRecord sends a prebuilt record. A record with a zero Context is
// sent with the Logger's own context; a zero Timestamp is replaced
// with the current time.
func (l *Logger) LogRecord(record logrecord.Record) error {
	if l.closed.Load() {
		return ErrClosed
	}
	if record.Context == (logrecord.Context{}) {
		record.Context = l.context
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = l.clock.Now()
	}

	data, err := logrecord.Encode(record)
	if err != nil {
		return fmt.Errorf("client: %w", err)
	}
	if len(data) > logrecord.MaxEncodedSize {
		return &RecordTooLargeError{Size: len(data)}
	}

	if _, err := l.conn.Write(data); err != nil {
		if l.closed.Load() {
			return ErrClosed
		}
		l.logger.Debug("send failed", "error", err)
		// The next record may still get through.
		if netutil.IsRefused(err) {
			return fmt.Errorf("%w: %w", ErrNoCollector, err)
		}
		return fmt.Errorf("client: sending record: %w", err)
	}
	return nil
}

// Close releases the socket. Later calls to Log return ErrClosed.
// Closing twice is harmless.
func (l *Logger) Close() error {
	if l.closed.Swap(true) {
		return nil
	}
	return l.conn.Close()
}
