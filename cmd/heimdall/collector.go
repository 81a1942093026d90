// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/bureau-foundation/heimdall/lib/archive"
	"github.com/bureau-foundation/heimdall/lib/config"
	"github.com/bureau-foundation/heimdall/lib/ingest"
	"github.com/bureau-foundation/heimdall/lib/process"
	"github.com/bureau-foundation/heimdall/lib/status"
	"github.com/bureau-foundation/heimdall/lib/storage"
)

// collector owns the storage, the registry and the bound listeners.
type collector struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    storage.Storage
	registry *status.Registry
	services []*ingest.Service

	// echo logs every stored record. It is on while no dashboard is
	// showing them.
	echo atomic.Bool

	wg       sync.WaitGroup
	mu       sync.Mutex
	failures []error
}

// openCollector opens storage, imports --import, and binds every
// configured listener. Nothing is running when it returns. Errors carry
// the exit code of the step that failed.
func openCollector(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*collector, error) {
	store, err := storage.Open(ctx, storage.Config{
		Path:     cfg.StoragePath,
		PoolSize: cfg.PoolSize,
		Logger:   logger.With("component", "storage"),
	})
	if err != nil {
		return nil, process.WithCode(process.ExitStorageOpen, err)
	}

	c := &collector{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		registry: status.NewRegistry(logger.With("component", "status")),
	}

	if cfg.ImportPath != "" {
		if err := c.importArchive(ctx, cfg.ImportPath); err != nil {
			store.Close()
			return nil, err
		}
	}

	if err := c.bind(ctx); err != nil {
		for _, service := range c.services {
			service.Close()
		}
		store.Close()
		return nil, process.WithCode(process.ExitBind, err)
	}
	return c, nil
}

func (c *collector) bind(ctx context.Context) error {
	type target struct {
		role    status.Role
		address string
	}
	targets := []target{{status.Listener, c.cfg.ListenAddress()}}
	if address, ok := c.cfg.AltListenAddress(); ok {
		targets = append(targets, target{status.AltListener, address})
	}

	for _, target := range targets {
		service, err := ingest.Listen(ctx, ingest.Config{
			Address:         target.address,
			Role:            target.role,
			ReadBufferBytes: c.cfg.ReadBufferBytes,
			PollInterval:    c.cfg.PollInterval.Std(),
			Logger:          c.logger.With("component", "ingest"),
			OnStored:        c.stored,
		}, c.store, c.registry)
		if err != nil {
			return err
		}
		c.services = append(c.services, service)
	}
	return nil
}

// stored is the listeners' OnStored observer.
func (c *collector) stored(record storage.StoredRecord) {
	if !c.echo.Load() {
		return
	}
	c.logger.Info("record received",
		"sequence_id", record.SequenceID,
		"app", record.Record.Context.AppName,
		"sender", record.Record.Context.SenderAddress,
		"message", record.Record.Message,
	)
}

// start registers every listener role and starts its goroutine.
func (c *collector) start(ctx context.Context) {
	for _, service := range c.services {
		c.registry.Register(service.Role())
	}
	for _, service := range c.services {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			if err := service.Run(ctx); err != nil {
				c.mu.Lock()
				c.failures = append(c.failures, fmt.Errorf("%s: %w", service.Role(), err))
				c.mu.Unlock()
			}
		}()
	}
}

// wait blocks until every registered role is terminal, or ctx is done
// and the listeners have exited. It returns the listener failures.
func (c *collector) wait(ctx context.Context) error {
	select {
	case <-c.registry.Done():
	case <-ctx.Done():
	}
	c.wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	return errors.Join(c.failures...)
}

// close writes --export, if configured, and closes the storage.
func (c *collector) close(ctx context.Context) error {
	var errs []error
	if c.cfg.ExportPath != "" {
		if err := c.exportArchive(ctx, c.cfg.ExportPath); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing storage: %w", err))
	}
	return errors.Join(errs...)
}

func (c *collector) importArchive(ctx context.Context, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening import archive: %w", err)
	}
	defer file.Close()

	manifest, err := archive.Import(ctx, file, c.store)
	if err != nil {
		return fmt.Errorf("importing %s: %w", path, err)
	}
	c.logger.Info("archive imported",
		"path", path,
		"session", manifest.SessionID.String(),
		"created_at", manifest.CreatedAt,
		"records", manifest.Count,
	)
	return nil
}

// exportArchive writes the archive to a temporary file next to path
// and renames it into place, so an interrupted export never leaves a
// truncated archive under the requested name.
func (c *collector) exportArchive(ctx context.Context, path string) error {
	compression, err := archive.ParseCompressionTag(c.cfg.ExportCompression)
	if err != nil {
		return err
	}

	temporary, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer os.Remove(temporary.Name())

	manifest, err := archive.Export(ctx, temporary, c.store, archive.Options{Compression: compression})
	if err != nil {
		temporary.Close()
		return fmt.Errorf("exporting to %s: %w", path, err)
	}
	if err := temporary.Close(); err != nil {
		return fmt.Errorf("closing export file: %w", err)
	}
	if err := os.Rename(temporary.Name(), path); err != nil {
		return fmt.Errorf("moving export into place: %w", err)
	}

	c.logger.Info("archive exported",
		"path", path,
		"session", manifest.SessionID.String(),
		"records", manifest.Count,
		"compression", compression.String(),
	)
	return nil
}
