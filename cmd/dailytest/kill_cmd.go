// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"strings"

	"github.com/google/subcommands"

	"go.chromium.org/dailytest/internal/cleanup"
	"go.chromium.org/dailytest/internal/config"
	"go.chromium.org/dailytest/internal/daily"
	"go.chromium.org/dailytest/internal/logging"
)

// killCmd implements subcommands.Command to run the process cleanup alone.
type killCmd struct {
	cfg    *config.MutableConfig
	killer daily.Killer // can be set by tests
}

var _ = subcommands.Command(&killCmd{})

func newKillCmd() *killCmd {
	return &killCmd{cfg: config.NewMutableConfig(), killer: cleanup.NewKiller()}
}

func (*killCmd) Name() string     { return "kill" }
func (*killCmd) Synopsis() string { return "kill stale instances of the binaries under test" }
func (*killCmd) Usage() string {
	return `Usage: kill [flag]...

Description:
    Kills running processes named after the binaries (plus -debug-suffix),
    as run does before and after testing. Failures are logged but do not
    change the exit status.

Flag:
`
}

func (kc *killCmd) SetFlags(f *flag.FlagSet) {
	kc.cfg.SetFlags(f)
}

func (kc *killCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig(ctx, kc.cfg, f)
	if err != nil {
		return subcommands.ExitUsageError
	}
	rep := kc.killer.KillAll(ctx, cfg.DebugSuffix(), cfg.Binaries())
	logging.Infof(ctx, "Killed %d of %d matching processes (%s)",
		rep.Killed, len(rep.Matched), strings.Join(cleanup.Targets(cfg.DebugSuffix(), cfg.Binaries()), ", "))
	return subcommands.ExitSuccess
}
