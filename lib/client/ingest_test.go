// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client_test

import (
	"context"
	"testing"
	"time"

	"github.com/bureau-foundation/heimdall/lib/client"
	"github.com/bureau-foundation/heimdall/lib/ingest"
	"github.com/bureau-foundation/heimdall/lib/status"
	"github.com/bureau-foundation/heimdall/lib/storage"
	"github.com/bureau-foundation/heimdall/lib/testutil"
)

// TestRecordsReachStorage drives a Logger against a real ingestion
// service and checks that the collector attaches the sender address.
func TestRecordsReachStorage(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	registry := status.NewRegistry(nil)

	service, err := ingest.Listen(ctx, ingest.Config{
		Address:      "127.0.0.1:0",
		Role:         status.Listener,
		PollInterval: 20 * time.Millisecond,
	}, store, registry)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	registry.Register(status.Listener)

	exited := make(chan struct{})
	go func() {
		defer close(exited)
		service.Run(ctx)
	}()
	t.Cleanup(func() {
		registry.RequestShutdown()
		testutil.RequireClosed(t, exited, 5*time.Second, "listener exit")
	})

	logger, err := client.Dial(ctx, client.Config{
		Address: service.Addr().String(),
		AppName: "e2e",
		Version: "0.0.1",
	})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer logger.Close()

	for _, message := range []string{"first", "second", "third"} {
		if err := logger.Log(ctx, message, client.Var("step", message)); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	testutil.Eventually(t, func() bool {
		count, err := store.Count(ctx)
		return err == nil && count == 3
	}, 5*time.Second, 10*time.Millisecond, "three records stored")

	newest, found, err := store.Get(ctx, 0)
	if err != nil || !found {
		t.Fatalf("Get(0) = %v, %v", found, err)
	}
	if newest.Record.Message != "third" {
		t.Errorf("newest message = %q, want third", newest.Record.Message)
	}
	if newest.Record.Context.AppName != "e2e" {
		t.Errorf("AppName = %q", newest.Record.Context.AppName)
	}
	if newest.Record.Context.SenderAddress == "" {
		t.Error("collector did not record the sender address")
	}
	if value, ok := newest.Record.Lookup("step"); !ok || value != "third" {
		t.Errorf("step var = %q, %v", value, ok)
	}
}
