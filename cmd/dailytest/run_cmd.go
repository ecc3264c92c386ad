// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"os"

	"code.cloudfoundry.org/clock"
	"github.com/google/subcommands"

	"go.chromium.org/dailytest/internal/config"
	"go.chromium.org/dailytest/internal/daily"
	"go.chromium.org/dailytest/internal/logging"
)

// runCmd implements subcommands.Command to support the nightly run.
type runCmd struct {
	cfg     *config.MutableConfig // shared config for the run
	closers *closeList            // receives the persistent log's closer
	clock   clock.Clock           // drives log rotation

	// newDeps can be replaced by tests to stub out collaborators.
	newDeps func(cfg *config.Config, base config.Env, st logging.Status) *daily.Deps
}

var _ = subcommands.Command(&runCmd{})

func newRunCmd(closers *closeList) *runCmd {
	return &runCmd{
		cfg:     config.NewMutableConfig(),
		closers: closers,
		clock:   clock.NewClock(),
		newDeps: daily.NewDeps,
	}
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "run the nightly tests" }
func (*runCmd) Usage() string {
	return `Usage: run [flag]...

Description:
    Cleans up stale netedit processes, runs today's daily texttest suite,
    collects the batch results into the report directory and cleans up again.
    The log is appended to <remote-dir>/<fileprefix>NeteditTest.log and rotated
    daily. A JSON summary of the run is written to the report directory.

    Exits with 0 if the tests were run, even if texttest reported failures.
    -strict makes such failures exit with 1.

Flag:
`
}

func (rc *runCmd) SetFlags(f *flag.FlagSet) {
	rc.cfg.SetFlags(f)
}

func (rc *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		logging.Info(ctx, "Unexpected arguments.\n\n"+rc.Usage())
		return subcommands.ExitUsageError
	}
	cfg, err := loadConfig(ctx, rc.cfg, f)
	if err != nil {
		return subcommands.ExitUsageError
	}

	ctx, st, closeLog := logging.AttachPersistent(ctx, cfg.LogPath(), logging.LevelInfo, rc.clock)
	rc.closers.add(closeLog)
	defer rc.closers.close()
	if st.Persistent {
		logging.Debug(ctx, "Persistent log: ", st)
	} else {
		logging.Info(ctx, "Degraded: ", st)
	}

	s, err := daily.Run(ctx, cfg, rc.newDeps(cfg, config.EnvFromList(os.Environ()), st))
	if err != nil {
		reportError(ctx, "Run failed", err)
		return subcommands.ExitFailure
	}
	if s.Failed() {
		if cfg.Strict() {
			logging.Info(ctx, "Tests failed")
			return subcommands.ExitFailure
		}
		logging.Info(ctx, "Tests failed; see the summary in ", cfg.ReportDir())
	}
	return subcommands.ExitSuccess
}
