// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package client sends log records to a heimdall collector.
//
// A [Logger] holds one connected datagram socket and the producer
// context (application name, version, process id, OS description) that
// is attached to every record:
//
//	logger, err := client.Dial(ctx, client.Config{
//	    Address: "127.0.0.1:62000",
//	    AppName: "indexer",
//	    Version: "1.4.0",
//	})
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//	logger.Log(ctx, "batch done", client.Var("items", 120))
//
// Delivery is fire-and-forget: a record sent while no collector is
// listening is lost. Records larger than one datagram are rejected
// before sending with [RecordTooLargeError].
//
// [NewHandler] adapts a Logger into a slog.Handler so an application
// can route its structured logs to the collector unchanged.
package client
