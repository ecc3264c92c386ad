// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"go.chromium.org/dailytest/internal/config"
	"go.chromium.org/dailytest/internal/logging"
)

// envCmd implements subcommands.Command to print the texttest environment.
type envCmd struct {
	cfg    *config.MutableConfig
	all    bool // include the inherited process environment
	json   bool // print as a JSON object
	stdout io.Writer
}

var _ = subcommands.Command(&envCmd{})

func newEnvCmd(stdout io.Writer) *envCmd {
	return &envCmd{cfg: config.NewMutableConfig(), stdout: stdout}
}

func (*envCmd) Name() string     { return "env" }
func (*envCmd) Synopsis() string { return "print the environment passed to texttest" }
func (*envCmd) Usage() string {
	return `Usage: env [flag]...

Description:
    Prints the variables that run passes to texttest, one KEY=VALUE per line,
    sorted by name. Without -all only the derived and configured variables
    and an inherited SUMO_HOME are printed. Nothing is created or modified.

Flag:
`
}

func (ec *envCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&ec.all, "all", false, "include the inherited process environment")
	f.BoolVar(&ec.json, "json", false, "print as a JSON object")
	ec.cfg.SetFlags(f)
}

func (ec *envCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx = stderrContext(ctx)
	cfg, err := loadConfig(ctx, ec.cfg, f)
	if err != nil {
		return subcommands.ExitUsageError
	}
	base := config.Env{}
	if ec.all {
		base = config.EnvFromList(os.Environ())
	} else if v, ok := os.LookupEnv(config.EnvSumoHome); ok {
		// run keeps an inherited SUMO_HOME.
		base[config.EnvSumoHome] = v
	}
	env := config.BuildEnv(ctx, cfg, base)

	if ec.json {
		err = writeJSON(ec.stdout, env)
	} else {
		for _, kv := range env.Environ() {
			if _, err = fmt.Fprintln(ec.stdout, kv); err != nil {
				break
			}
		}
	}
	if err != nil {
		logging.Info(ctx, "Failed to write environment: ", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
