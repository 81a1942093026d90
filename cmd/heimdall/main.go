// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/heimdall/lib/config"
	"github.com/bureau-foundation/heimdall/lib/dashboard"
	"github.com/bureau-foundation/heimdall/lib/process"
	"github.com/bureau-foundation/heimdall/lib/status"
	"github.com/bureau-foundation/heimdall/lib/version"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("heimdall", pflag.ContinueOnError)
	config.RegisterFlags(flags)
	showVersion := flags.Bool("version", false, "print version information and exit")
	flags.Usage = func() { printUsage(flags) }

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return process.WithCode(process.ExitConfig, err)
	}
	if *showVersion {
		fmt.Println("heimdall " + version.Full())
		return nil
	}
	if flags.NArg() > 0 {
		return process.WithCode(process.ExitConfig, fmt.Errorf("unexpected argument: %s", flags.Arg(0)))
	}

	cfg, err := config.FromFlags(flags)
	if err != nil {
		return process.WithCode(process.ExitConfig, err)
	}

	logs, err := newCollectorLog(cfg, os.Stderr)
	if err != nil {
		return process.WithCode(process.ExitConfig, err)
	}
	defer logs.Close()
	logger := logs.logger

	storageLabel := cfg.StoragePath
	if storageLabel == "" {
		storageLabel = "(memory)"
	}
	logger.Info("heimdall starting",
		"version", version.Info(),
		"address", cfg.ListenAddress(),
		"storage", storageLabel,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := openCollector(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return err
	}

	interactive := cfg.Dashboard &&
		term.IsTerminal(int(os.Stdin.Fd())) &&
		term.IsTerminal(int(os.Stdout.Fd()))
	if interactive {
		c.registry.Register(status.Dashboard)
	} else {
		c.echo.Store(true)
		if cfg.Dashboard {
			logger.Info("no terminal, running headless")
		}
	}
	c.start(ctx)
	go forwardSignals(ctx, c.registry, cancel, logger)

	if interactive {
		runDashboard(ctx, c, logs)
	}

	waitErr := c.wait(ctx)
	// A forced shutdown still writes the export.
	closeErr := c.close(context.WithoutCancel(ctx))

	count, _ := c.store.Count(context.WithoutCancel(ctx))
	logger.Info("heimdall stopped", "records", count)

	if waitErr != nil {
		return fmt.Errorf("listener failed: %w", waitErr)
	}
	return closeErr
}

// runDashboard gives the terminal to the dashboard until it finishes.
// A detached or failed dashboard leaves the collector running headless.
func runDashboard(ctx context.Context, c *collector, logs *collectorLog) {
	listeners := make([]dashboard.Listener, len(c.services))
	for index, service := range c.services {
		listeners[index] = service
	}

	logs.stderr.SetOpen(false)
	outcome, err := dashboard.Run(ctx, dashboard.Config{
		Source:          c.store,
		Registry:        c.registry,
		RefreshInterval: c.cfg.RefreshInterval.Std(),
		ChunkSize:       c.cfg.ChunkSize,
		Listeners:       listeners,
	}, logs.dashboard)
	logs.stderr.SetOpen(true)

	switch {
	case err != nil:
		c.echo.Store(true)
		logs.logger.Error("dashboard failed, continuing headless", "error", err)
	case outcome == dashboard.OutcomeDetached:
		c.echo.Store(true)
		logs.logger.Info("dashboard detached, listeners still running")
	}
}

// forwardSignals turns SIGINT and SIGTERM into a registry shutdown
// request. A second signal cancels ctx, abandoning work in flight.
func forwardSignals(ctx context.Context, registry *status.Registry, cancel context.CancelFunc, logger *slog.Logger) {
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	select {
	case received := <-signals:
		logger.Info("signal received, shutting down", "signal", received.String())
		registry.RequestShutdown()
	case <-ctx.Done():
		return
	}

	select {
	case received := <-signals:
		logger.Warn("second signal received, cancelling", "signal", received.String())
		cancel()
	case <-ctx.Done():
	}
}

func printUsage(flags *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `heimdall collects log records sent over UDP and shows them in a terminal dashboard.

Usage:
  heimdall [flags]

Every flag can also be set in a config file (--config) or through a
HEIMDALL_* environment variable: --storage is HEIMDALL_STORAGE_PATH,
--alt-port is HEIMDALL_ALT_PORT. Flags win over the environment, which
wins over the file.

Examples:
  # Keep records in memory, dashboard on the terminal
  heimdall

  # Persist to SQLite and listen on a second port
  heimdall --storage logs.db --alt-port 62001

  # Run unattended and archive everything at shutdown
  heimdall --headless --export logs.hda --export-compression zstd

Flags:
`)
	flags.SetOutput(os.Stderr)
	flags.PrintDefaults()
}
