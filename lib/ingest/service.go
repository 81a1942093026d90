// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/heimdall/lib/codec"
	"github.com/bureau-foundation/heimdall/lib/logrecord"
	"github.com/bureau-foundation/heimdall/lib/netutil"
	"github.com/bureau-foundation/heimdall/lib/status"
	"github.com/bureau-foundation/heimdall/lib/storage"
)

// DefaultPollInterval bounds how long a receive waits before the loop
// checks the registry again.
const DefaultPollInterval = 100 * time.Millisecond

// datagramBufferSize holds the largest possible UDP payload.
const datagramBufferSize = 64 * 1024

// Config configures one listener.
type Config struct {
	// Address is the host:port to bind, e.g. "0.0.0.0:62000".
	Address string

	// Role is the status role this listener owns.
	Role status.Role

	// ReadBufferBytes sets SO_RCVBUF. Zero keeps the kernel default.
	ReadBufferBytes int

	// PollInterval is the receive timeout. Zero means
	// DefaultPollInterval.
	PollInterval time.Duration

	// Logger receives listener messages. Nil discards them.
	Logger *slog.Logger

	// OnStored, if set, is called after each successful append, on the
	// listener goroutine.
	OnStored func(storage.StoredRecord)
}

// BindError reports a listener that could not bind its address.
type BindError struct {
	Role    status.Role
	Address string
	Err     error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("ingest: %s: binding %s: %v", e.Role, e.Address, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// Stats counts datagrams handled by a Service.
type Stats struct {
	Received       uint64
	DecodeFailures uint64
	Stored         uint64
}

// Service is one bound listener. Create it with Listen, then call Run
// on its own goroutine.
type Service struct {
	conn     *net.UDPConn
	store    storage.Storage
	registry *status.Registry
	role     status.Role
	poll     time.Duration
	logger   *slog.Logger
	onStored func(storage.StoredRecord)

	received       atomic.Uint64
	decodeFailures atomic.Uint64
	stored         atomic.Uint64
}

// Listen binds cfg.Address. It does not register the role or start
// receiving; the caller registers the role and starts Run.
func Listen(ctx context.Context, cfg Config, store storage.Storage, registry *status.Registry) (*Service, error) {
	if cfg.Role == "" {
		return nil, fmt.Errorf("ingest: Role is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = DefaultPollInterval
	}

	conn, err := netutil.ListenUDP(ctx, cfg.Address, cfg.ReadBufferBytes)
	if err != nil {
		return nil, &BindError{Role: cfg.Role, Address: cfg.Address, Err: err}
	}

	logger = logger.With("role", string(cfg.Role))
	bound := []any{"address", conn.LocalAddr().String()}
	if size, err := netutil.ReceiveBufferSize(conn); err == nil {
		bound = append(bound, "receive_buffer", size)
	}
	logger.Info("listener bound", bound...)

	return &Service{
		conn:     conn,
		store:    store,
		registry: registry,
		role:     cfg.Role,
		poll:     poll,
		logger:   logger,
		onStored: cfg.OnStored,
	}, nil
}

// Addr returns the bound local address.
func (s *Service) Addr() net.Addr {
	return s.conn.LocalAddr()
}

// Role returns the status role this listener owns.
func (s *Service) Role() status.Role {
	return s.role
}

// Close releases the socket of a Service whose Run was never started.
func (s *Service) Close() error {
	return s.conn.Close()
}

// Stats returns the current counters.
func (s *Service) Stats() Stats {
	return Stats{
		Received:       s.received.Load(),
		DecodeFailures: s.decodeFailures.Load(),
		Stored:         s.stored.Load(),
	}
}

// Run receives and stores records until the registry asks the role to
// stop or ctx is done, then records Stopped and returns nil. A storage
// failure or a broken socket records Failed and returns the error. Run
// closes the socket before returning.
func (s *Service) Run(ctx context.Context) error {
	defer s.conn.Close()

	// Appends in flight when ctx ends still complete; the loop exits at
	// the next check.
	appendContext := context.WithoutCancel(ctx)

	buffer := make([]byte, datagramBufferSize)
	for {
		if s.registry.ShouldStop(s.role) || ctx.Err() != nil {
			s.finish(status.StoppedStatus)
			return nil
		}

		if err := s.conn.SetReadDeadline(time.Now().Add(s.poll)); err != nil {
			return s.fail(fmt.Errorf("setting read deadline: %w", err))
		}
		length, peer, err := s.conn.ReadFrom(buffer)
		if err != nil {
			if netutil.IsTimeout(err) {
				continue
			}
			if netutil.IsExpectedCloseError(err) {
				return s.fail(fmt.Errorf("socket closed: %w", err))
			}
			s.logger.Warn("receive failed", "error", err)
			continue
		}
		s.received.Add(1)

		if err := s.handle(appendContext, buffer[:length], peer); err != nil {
			return s.fail(err)
		}
	}
}

// handle decodes one datagram and appends it. Only storage failures
// are returned; undecodable datagrams are dropped.
func (s *Service) handle(ctx context.Context, datagram []byte, peer net.Addr) error {
	sender := ""
	if peer != nil {
		sender = peer.String()
	}

	record, err := logrecord.Decode(datagram)
	if err != nil {
		s.decodeFailures.Add(1)
		s.logger.Warn("dropping undecodable datagram",
			"sender", sender,
			"bytes", len(datagram),
			"error", err,
		)
		if s.logger.Enabled(ctx, slog.LevelDebug) {
			if diagnostic, diagErr := codec.Diagnose(datagram); diagErr == nil {
				s.logger.Debug("undecodable datagram contents", "sender", sender, "diagnostic", diagnostic)
			}
		}
		return nil
	}
	record = record.WithSender(sender)

	sequenceID, err := s.store.Append(ctx, record)
	if err != nil {
		return fmt.Errorf("appending record from %s: %w", sender, err)
	}
	s.stored.Add(1)

	if s.onStored != nil {
		s.onStored(storage.StoredRecord{SequenceID: sequenceID, Record: record})
	}
	return nil
}

func (s *Service) fail(err error) error {
	s.logger.Error("listener failed", "error", err)
	s.finish(status.FailedStatus(err.Error()))
	return err
}

func (s *Service) finish(final status.Status) {
	if err := s.registry.Set(s.role, final); err != nil {
		s.logger.Warn("recording final status", "status", final.String(), "error", err)
	}
	stats := s.Stats()
	s.logger.Info("listener exited",
		"status", final.String(),
		"received", stats.Received,
		"stored", stats.Stored,
		"decode_failures", stats.DecodeFailures,
	)
}
