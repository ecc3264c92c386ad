// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package texttest invokes the external texttest runner and collector.
//
// Child output (stdout and stderr merged) is forwarded line by line to the
// log. The exit status is captured in an Outcome and never judged here.
package texttest

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"code.cloudfoundry.org/clock"
	"golang.org/x/sys/execabs"

	"go.chromium.org/dailytest/errors"
	"go.chromium.org/dailytest/internal/config"
	"go.chromium.org/dailytest/internal/logging"
	"go.chromium.org/dailytest/shutil"
)

const maxLineBytes = 1 << 20

// Outcome describes one finished child process.
type Outcome struct {
	// Args is the command line.
	Args []string
	// Start is when the process was started.
	Start time.Time
	// Duration is the wall time until the process was reaped.
	Duration time.Duration
	// ExitCode is the exit status, or -1 if the process could not be
	// started or was killed by a signal.
	ExitCode int
	// Lines is the number of output lines forwarded to the log.
	Lines int
	// Err is non-nil if the process could not be started, timed out or
	// exited unsuccessfully.
	Err error
}

// Success reports whether the process ran and exited with status 0.
func (o *Outcome) Success() bool {
	return o.Err == nil && o.ExitCode == 0
}

// Runner runs commands with an injected environment.
type Runner struct {
	// Timeout limits each command; zero means no limit.
	Timeout time.Duration
	// Clock measures durations.
	Clock clock.Clock
}

// NewRunner returns a Runner using the real clock.
func NewRunner(timeout time.Duration) *Runner {
	return &Runner{Timeout: timeout, Clock: clock.NewClock()}
}

// Run runs args with env and waits for it to exit. It always returns an
// Outcome.
func (r *Runner) Run(ctx context.Context, args []string, env config.Env) *Outcome {
	clk := r.Clock
	if clk == nil {
		clk = clock.NewClock()
	}
	o := &Outcome{Args: append([]string(nil), args...), ExitCode: -1, Start: clk.Now()}
	defer func() { o.Duration = clk.Since(o.Start) }()

	if len(args) == 0 {
		o.Err = errors.New("empty command line")
		return o
	}
	cmdLine := shutil.CommandLine("", args)
	logging.Info(ctx, "Running ", cmdLine)

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		o.Err = errors.Wrap(err, "failed to create output pipe")
		return o
	}
	defer pr.Close()

	cmd := execabs.CommandContext(ctx, args[0], args[1:]...)
	cmd.Env = env.Environ()
	cmd.Stdout = pw
	cmd.Stderr = pw
	err = cmd.Start()
	pw.Close() // the child holds its own copy
	if err != nil {
		o.Err = errors.Wrapf(err, "failed to start %s", cmdLine)
		return o
	}

	// Grandchildren may keep the pipe open after the child is killed.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			pr.Close()
		case <-stop:
		}
	}()

	o.Lines = forwardLines(logging.WithPrefix(ctx, "["+filepath.Base(args[0])+"] "), pr)

	err = cmd.Wait()
	if cmd.ProcessState != nil {
		o.ExitCode = cmd.ProcessState.ExitCode()
	}
	switch {
	case ctx.Err() == context.DeadlineExceeded:
		o.Err = errors.Errorf("%s timed out after %v", cmdLine, r.Timeout)
	case err != nil:
		o.Err = errors.Wrapf(err, "%s failed", cmdLine)
	}
	logging.Infof(ctx, "%s finished with exit code %d in %v", filepath.Base(args[0]), o.ExitCode, clk.Since(o.Start).Round(time.Millisecond))
	return o
}

// forwardLines logs each line read from r and returns the number of lines.
// A read error or a line longer than maxLineBytes ends forwarding; the rest
// of the output is drained so the child never blocks on a full pipe.
func forwardLines(ctx context.Context, r io.Reader) int {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	n := 0
	for sc.Scan() {
		logging.Info(ctx, sc.Text())
		n++
	}
	if err := sc.Err(); err != nil {
		logging.Infof(ctx, "Output forwarding stopped: %v", err)
		io.Copy(io.Discard, r)
	}
	return n
}
