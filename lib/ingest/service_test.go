// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/heimdall/lib/logrecord"
	"github.com/bureau-foundation/heimdall/lib/status"
	"github.com/bureau-foundation/heimdall/lib/storage"
	"github.com/bureau-foundation/heimdall/lib/testutil"
)

const testPoll = 20 * time.Millisecond

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.Default()
}

// startService binds a listener on an ephemeral loopback port, registers
// its role, and runs it. The returned channel receives Run's result.
func startService(t *testing.T, store storage.Storage, registry *status.Registry, onStored func(storage.StoredRecord)) (*Service, <-chan error) {
	t.Helper()
	service, err := Listen(context.Background(), Config{
		Address:      "127.0.0.1:0",
		Role:         status.Listener,
		PollInterval: testPoll,
		Logger:       testLogger(t),
		OnStored:     onStored,
	}, store, registry)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	registry.Register(status.Listener)

	result := make(chan error, 1)
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		result <- service.Run(context.Background())
	}()
	t.Cleanup(func() {
		registry.RequestShutdown()
		testutil.RequireClosed(t, exited, 5*time.Second, "listener exit during cleanup")
	})
	return service, result
}

func dialService(t *testing.T, service *Service) *net.UDPConn {
	t.Helper()
	conn, err := net.DialUDP("udp", nil, service.Addr().(*net.UDPAddr))
	if err != nil {
		t.Fatalf("DialUDP: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *net.UDPConn, message string) {
	t.Helper()
	data, err := logrecord.Encode(logrecord.Record{
		Timestamp: time.Now(),
		Message:   message,
		Context:   logrecord.Context{AppName: "ingest-test", ProcessID: 7},
		Vars:      []logrecord.Var{{Key: "k", Value: "v"}},
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := conn.Write(data); err != nil {
		t.Fatalf("Write: %v", err)
	}
}

func waitForCount(t *testing.T, store storage.Storage, want int) {
	t.Helper()
	testutil.Eventually(t, func() bool {
		count, _ := store.Count(context.Background())
		return count >= want
	}, 5*time.Second, 5*time.Millisecond, "waiting for %d records", want)
}

func TestReceivesAndStoresRecords(t *testing.T) {
	store := storage.NewMemory()
	registry := status.NewRegistry(nil)
	observed := make(chan storage.StoredRecord, 8)
	service, _ := startService(t, store, registry, func(stored storage.StoredRecord) { observed <- stored })
	conn := dialService(t, service)

	first := testutil.UniqueID("probe")
	send(t, conn, first)
	stored := testutil.RequireReceive(t, observed, 5*time.Second, "first record")
	if stored.Record.Message != first {
		t.Errorf("observed message %q, want %q", stored.Record.Message, first)
	}
	if stored.Record.Context.SenderAddress != conn.LocalAddr().String() {
		t.Errorf("SenderAddress = %q, want %q", stored.Record.Context.SenderAddress, conn.LocalAddr().String())
	}
	if stored.Record.Context.AppName != "ingest-test" {
		t.Errorf("AppName = %q", stored.Record.Context.AppName)
	}

	send(t, conn, "second")
	waitForCount(t, store, 2)

	newest, ok, err := store.Get(context.Background(), 0)
	if err != nil || !ok || newest.Record.Message != "second" {
		t.Errorf("Get(0) = %+v, %v, %v", newest, ok, err)
	}
	if stats := service.Stats(); stats.Stored != 2 || stats.Received != 2 {
		t.Errorf("Stats = %+v", stats)
	}
}

func TestMalformedDatagramsAreDropped(t *testing.T) {
	store := storage.NewMemory()
	registry := status.NewRegistry(nil)
	service, _ := startService(t, store, registry, nil)
	conn := dialService(t, service)

	if _, err := conn.Write([]byte("garbage")); err != nil {
		t.Fatal(err)
	}
	if _, err := conn.Write([]byte{0xd9, 0xd9, 0xf7, 0xa1}); err != nil {
		t.Fatal(err)
	}
	send(t, conn, "after garbage")
	waitForCount(t, store, 1)

	testutil.Eventually(t, func() bool { return service.Stats().DecodeFailures == 2 },
		5*time.Second, 5*time.Millisecond, "decode failures counted")

	if got, _ := registry.Get(status.Listener); got != status.RunningStatus {
		t.Errorf("listener status = %v after bad datagrams, want running", got)
	}
}

func TestStopsOnShutdownRequest(t *testing.T) {
	registry := status.NewRegistry(nil)
	_, result := startService(t, storage.NewMemory(), registry, nil)

	registry.RequestShutdown()
	err := testutil.RequireReceive(t, result, 5*time.Second, "listener exit")
	if err != nil {
		t.Errorf("Run returned %v, want nil", err)
	}
	if got, _ := registry.Get(status.Listener); got != status.StoppedStatus {
		t.Errorf("status = %v, want stopped", got)
	}
}

func TestShutdownObservedWithinPollInterval(t *testing.T) {
	registry := status.NewRegistry(nil)
	_, result := startService(t, storage.NewMemory(), registry, nil)

	// Dashboard stand-in: polls the registry like the refresh tick does
	// and exits once it is the last role standing.
	registry.Register(status.Dashboard)
	dashboardDone := make(chan struct{})
	go func() {
		defer close(dashboardDone)
		for {
			if registry.ShouldStop(status.Dashboard) && registry.AllStoppedExcept(status.Dashboard) {
				registry.Set(status.Dashboard, status.StoppedStatus)
				return
			}
			time.Sleep(testPoll)
		}
	}()

	start := time.Now()
	registry.RequestShutdown()
	testutil.RequireReceive(t, result, 5*time.Second, "listener exit")
	testutil.RequireClosed(t, dashboardDone, 5*time.Second, "dashboard exit")
	elapsed := time.Since(start)

	if !registry.AllStoppedExcept(status.Dashboard) {
		t.Error("AllStoppedExcept(dashboard) = false after shutdown")
	}
	for _, entry := range registry.Snapshot() {
		if !entry.Status.Terminal() {
			t.Errorf("%s = %v, want terminal", entry.Role, entry.Status)
		}
	}
	// One poll for the listener plus one tick for the dashboard, with
	// generous slack for a loaded machine.
	if elapsed > 2*time.Second {
		t.Errorf("shutdown took %v", elapsed)
	}
}

// failingStore accepts nothing.
type failingStore struct {
	storage.Storage
}

func (failingStore) Append(context.Context, logrecord.Record) (int64, error) {
	return 0, &storage.Error{Op: "append", Err: errors.New("disk full")}
}

func TestAppendFailureMarksRoleFailed(t *testing.T) {
	registry := status.NewRegistry(nil)
	service, result := startService(t, failingStore{}, registry, nil)
	conn := dialService(t, service)
	send(t, conn, "doomed")

	err := testutil.RequireReceive(t, result, 5*time.Second, "listener exit")
	var storageError *storage.Error
	if !errors.As(err, &storageError) {
		t.Fatalf("Run returned %v, want wrapped *storage.Error", err)
	}
	got, _ := registry.Get(status.Listener)
	if got.State != status.Failed || !strings.Contains(got.Reason, "disk full") {
		t.Errorf("status = %v, want failed with reason", got)
	}
}

func TestBindError(t *testing.T) {
	occupied, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer occupied.Close()

	_, err = Listen(context.Background(), Config{
		Address: occupied.LocalAddr().String(),
		Role:    status.AltListener,
	}, storage.NewMemory(), status.NewRegistry(nil))

	var bindError *BindError
	if !errors.As(err, &bindError) {
		t.Fatalf("Listen on occupied port: %v, want *BindError", err)
	}
	if bindError.Role != status.AltListener {
		t.Errorf("BindError.Role = %s", bindError.Role)
	}
}

func TestListenRequiresRole(t *testing.T) {
	if _, err := Listen(context.Background(), Config{Address: "127.0.0.1:0"}, storage.NewMemory(), status.NewRegistry(nil)); err == nil {
		t.Fatal("Listen without a role succeeded")
	}
}

func TestContextCancellationStops(t *testing.T) {
	registry := status.NewRegistry(nil)
	service, err := Listen(context.Background(), Config{
		Address:      "127.0.0.1:0",
		Role:         status.Listener,
		PollInterval: testPoll,
	}, storage.NewMemory(), registry)
	if err != nil {
		t.Fatal(err)
	}
	registry.Register(status.Listener)

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() { result <- service.Run(ctx) }()
	cancel()

	if err := testutil.RequireReceive(t, result, 5*time.Second, "listener exit"); err != nil {
		t.Errorf("Run = %v", err)
	}
	if got, _ := registry.Get(status.Listener); got != status.StoppedStatus {
		t.Errorf("status = %v, want stopped", got)
	}
}
