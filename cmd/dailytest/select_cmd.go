// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/google/subcommands"

	"go.chromium.org/dailytest/internal/config"
	"go.chromium.org/dailytest/internal/logging"
	"go.chromium.org/dailytest/internal/schedule"
)

const dateLayout = "2006-01-02"

// selectCmd implements subcommands.Command to print the suite a day runs.
type selectCmd struct {
	cfg    *config.MutableConfig
	date   string      // day to select for; today if empty
	json   bool        // print the full task as JSON
	clock  clock.Clock // source of "today"
	stdout io.Writer
}

var _ = subcommands.Command(&selectCmd{})

func newSelectCmd(stdout io.Writer) *selectCmd {
	return &selectCmd{
		cfg:    config.NewMutableConfig(),
		clock:  clock.NewClock(),
		stdout: stdout,
	}
}

func (*selectCmd) Name() string     { return "select" }
func (*selectCmd) Synopsis() string { return "print the daily suite for a day" }
func (*selectCmd) Usage() string {
	return `Usage: select [flag]...

Description:
    Prints the texttest application id of the daily suite selected for today,
    or for the day given by -date. Suites rotate by calendar day through the
    sorted testsuite.netedit.daily.* entries of <tests-dir>/netedit.

Flag:
`
}

func (sc *selectCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&sc.date, "date", "", "day to select for, as YYYY-MM-DD (default today)")
	f.BoolVar(&sc.json, "json", false, "print the selected task as JSON")
	sc.cfg.SetFlags(f)
}

func (sc *selectCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx = stderrContext(ctx)
	cfg, err := loadConfig(ctx, sc.cfg, f)
	if err != nil {
		return subcommands.ExitUsageError
	}
	sel := &schedule.Selector{Home: cfg.TexttestHome(), Clock: sc.clock}
	var task *schedule.Task
	if sc.date == "" {
		task, err = sel.Today(ctx)
	} else {
		day, perr := time.ParseInLocation(dateLayout, sc.date, time.Local)
		if perr != nil {
			logging.Infof(ctx, "Bad -date %q: %v", sc.date, perr)
			return subcommands.ExitUsageError
		}
		task, err = sel.For(ctx, day)
	}
	if err != nil {
		reportError(ctx, "Failed to select suite", err)
		return subcommands.ExitFailure
	}
	if err := sc.print(task); err != nil {
		logging.Info(ctx, "Failed to write task: ", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (sc *selectCmd) print(task *schedule.Task) error {
	if sc.json {
		return writeJSON(sc.stdout, task)
	}
	_, err := fmt.Fprintln(sc.stdout, task.ID)
	return err
}
