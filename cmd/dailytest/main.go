// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package main implements the dailytest executable, which runs the nightly
// netedit GUI tests through texttest.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/google/subcommands"
	"golang.org/x/term"

	"go.chromium.org/dailytest/internal/config"
	"go.chromium.org/dailytest/internal/logging"
)

const (
	signalChannelSize = 3 // capacity of channel used to intercept signals
)

// Version is the version info of this command. It is filled in at build time.
var Version = "<unknown>"

// closeList holds cleanup functions that must run even if the process is
// terminated by a signal.
type closeList struct {
	mu sync.Mutex
	fs []func() error
}

func (c *closeList) add(f func() error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fs = append(c.fs, f)
}

// close runs and forgets all registered functions, most recent first.
func (c *closeList) close() {
	c.mu.Lock()
	fs := c.fs
	c.fs = nil
	c.mu.Unlock()
	for i := len(fs) - 1; i >= 0; i-- {
		fs[i]()
	}
}

// newLogger creates a console logger based on the supplied command-line flags.
func newLogger(verbose, logTime bool) logging.Logger {
	return newLoggerTo(os.Stdout, verbose, logTime)
}

func newLoggerTo(w io.Writer, verbose, logTime bool) logging.Logger {
	level := logging.LevelInfo
	if verbose {
		level = logging.LevelDebug
	}
	return logging.NewSinkLogger(level, logTime, logging.NewWriterSink(w))
}

// installSignalHandler starts a goroutine that attempts to do some minimal
// cleanup when the process is being terminated by a signal (which prevents
// deferred functions from running).
func installSignalHandler(ctx context.Context, closers *closeList) {
	var st *term.State
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		var err error
		if st, err = term.GetState(fd); err != nil {
			logging.Info(ctx, "Failed to get terminal state: ", err)
		}
	}

	sc := make(chan os.Signal, signalChannelSize)
	go func() {
		for sig := range sc {
			closers.close()
			if st != nil {
				term.Restore(fd, st)
			}
			fmt.Fprintf(os.Stdout, "\nCaught %v signal; exiting\n", sig)
			os.Exit(1)
		}
	}()
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM)
}

// loadConfig finalizes mc after flag parsing. Errors are logged, with the
// stack trace at debug level.
func loadConfig(ctx context.Context, mc *config.MutableConfig, f *flag.FlagSet) (*config.Config, error) {
	if err := mc.Finalize(f); err != nil {
		reportError(ctx, "Bad configuration", err)
		return nil, err
	}
	return mc.Freeze(), nil
}

// stderrContext returns a context whose logs go to stderr only, leaving
// stdout to the command's output.
func stderrContext(ctx context.Context) context.Context {
	return logging.AttachLoggerNoPropagation(ctx, newLoggerTo(os.Stderr, false, false))
}

// reportError logs err, with its stack trace at debug level.
func reportError(ctx context.Context, msg string, err error) {
	logging.Info(ctx, msg, ": ", err)
	logging.Debugf(ctx, "%+v", err)
}

// doMain implements the main body of the program. It's a separate function so
// that its deferred functions will run before os.Exit makes the program exit
// immediately.
func doMain() int {
	closers := &closeList{}
	defer closers.close()

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(newRunCmd(closers), "")
	subcommands.Register(newSelectCmd(os.Stdout), "")
	subcommands.Register(newEnvCmd(os.Stdout), "")
	subcommands.Register(newKillCmd(), "")

	version := flag.Bool("version", false, "print version and exit")
	verbose := flag.Bool("verbose", false, "use verbose logging")
	logTime := flag.Bool("logtime", true, "include date/time headers in logs")
	flag.Parse()

	if *version {
		fmt.Printf("dailytest version %s\n", Version)
		return 0
	}

	ctx := logging.AttachLogger(context.Background(), newLogger(*verbose, *logTime))
	installSignalHandler(ctx, closers)

	return int(subcommands.Execute(ctx))
}

func main() {
	os.Exit(doMain())
}
