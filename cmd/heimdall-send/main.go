// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// heimdall-send sends log records to a heimdall collector from the
// command line. The message is the positional arguments joined with
// spaces; with --stdin every input line is sent as its own record.
//
//	heimdall-send --var attempt=3 "backup finished"
//	journalctl -f | heimdall-send --stdin --app journal
//
// --level routes the record through the slog adapter, which adds a
// "level" variable ahead of the --var values.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/heimdall/lib/client"
	"github.com/bureau-foundation/heimdall/lib/logrecord"
	"github.com/bureau-foundation/heimdall/lib/process"
	"github.com/bureau-foundation/heimdall/lib/version"
)

// envAddress overrides the default collector address.
const envAddress = "HEIMDALL_ADDRESS"

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin); err != nil {
		process.Fatal(err)
	}
}

type options struct {
	address    string
	appName    string
	appVersion string
	vars       []string
	level      string
	stdin      bool
	count      int
	interval   time.Duration
}

func run(ctx context.Context, args []string, stdin io.Reader) error {
	var opts options
	defaultAddress := os.Getenv(envAddress)
	if defaultAddress == "" {
		defaultAddress = client.DefaultAddress
	}

	flags := pflag.NewFlagSet("heimdall-send", pflag.ContinueOnError)
	flags.StringVarP(&opts.address, "address", "a", defaultAddress, "collector host:port (also "+envAddress+")")
	flags.StringVar(&opts.appName, "app", "heimdall-send", "application name sent with the record")
	flags.StringVar(&opts.appVersion, "app-version", "", "application version sent with the record (default: this binary's module version)")
	flags.StringArrayVarP(&opts.vars, "var", "v", nil, "record variable as key=value (repeatable, order kept)")
	flags.StringVarP(&opts.level, "level", "l", "", "send through the slog adapter at this level: debug, info, warn, error")
	flags.BoolVar(&opts.stdin, "stdin", false, "send each line of standard input as a record")
	flags.IntVarP(&opts.count, "count", "n", 1, "send the message this many times")
	flags.DurationVar(&opts.interval, "interval", 0, "pause between repeated sends")
	showVersion := flags.Bool("version", false, "print version information and exit")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  heimdall-send [flags] MESSAGE...\n  heimdall-send [flags] --stdin\n\nFlags:\n")
		flags.SetOutput(os.Stderr)
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return process.WithCode(process.ExitConfig, err)
	}
	if *showVersion {
		fmt.Println("heimdall-send " + version.Info())
		return nil
	}

	message := strings.Join(flags.Args(), " ")
	switch {
	case opts.stdin && message != "":
		return process.WithCode(process.ExitConfig, errors.New("give a message or --stdin, not both"))
	case !opts.stdin && message == "":
		return process.WithCode(process.ExitConfig, errors.New("no message given (see --help)"))
	case opts.count < 1:
		return process.WithCode(process.ExitConfig, fmt.Errorf("--count must be at least 1, got %d", opts.count))
	}

	vars, err := parseVars(opts.vars)
	if err != nil {
		return process.WithCode(process.ExitConfig, err)
	}
	send, err := newSender(opts, vars)
	if err != nil {
		return process.WithCode(process.ExitConfig, err)
	}

	logger, err := client.Dial(ctx, client.Config{
		Address: opts.address,
		AppName: opts.appName,
		Version: opts.appVersion,
	})
	if err != nil {
		return err
	}
	defer logger.Close()

	if opts.stdin {
		return sendLines(ctx, logger, send, stdin)
	}
	for index := range opts.count {
		if index > 0 && opts.interval > 0 {
			select {
			case <-time.After(opts.interval):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := send(ctx, logger, message); err != nil {
			if errors.Is(err, client.ErrNoCollector) {
				return fmt.Errorf("nothing listening at %s (is heimdall running?): %w", opts.address, err)
			}
			return err
		}
	}
	return nil
}

// sendFunc sends one message through logger.
type sendFunc func(ctx context.Context, logger *client.Logger, message string) error

// newSender picks the plain Log path, or the slog adapter when a level
// was requested.
func newSender(opts options, vars []logrecord.Var) (sendFunc, error) {
	if opts.level == "" {
		return func(ctx context.Context, logger *client.Logger, message string) error {
			return logger.Log(ctx, message, vars...)
		}, nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(opts.level)); err != nil {
		return nil, fmt.Errorf("invalid --level %q", opts.level)
	}
	attrs := make([]any, 0, len(vars))
	for _, variable := range vars {
		attrs = append(attrs, slog.String(variable.Key, variable.Value))
	}
	return func(ctx context.Context, logger *client.Logger, message string) error {
		// slog.Logger swallows handler errors, so call the handler
		// directly.
		handler := client.NewHandler(logger, slog.LevelDebug)
		record := slog.NewRecord(time.Now(), level, message, 0)
		record.Add(attrs...)
		return handler.Handle(ctx, record)
	}, nil
}

// sendLines sends each non-empty line of input. It stops at the first
// send error.
func sendLines(ctx context.Context, logger *client.Logger, send sendFunc, input io.Reader) error {
	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 0, 64*1024), logrecord.MaxEncodedSize)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		if err := send(ctx, logger, line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading standard input: %w", err)
	}
	return nil
}

// parseVars turns key=value arguments into record variables, keeping
// their order and any duplicates.
func parseVars(values []string) ([]logrecord.Var, error) {
	vars := make([]logrecord.Var, 0, len(values))
	for _, value := range values {
		key, content, ok := strings.Cut(value, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --var %q (want key=value)", value)
		}
		vars = append(vars, logrecord.Var{Key: key, Value: content})
	}
	return vars, nil
}
