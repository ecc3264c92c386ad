// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package cleanup terminates stale instances of the binaries under test.
//
// A GUI binary left running by an earlier run holds locks on its executable
// and output files, so every run kills leftovers before and after testing.
// Cleanup is best effort: failures are reported, never retried.
package cleanup

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"go.chromium.org/dailytest/errors"
	"go.chromium.org/dailytest/internal/logging"
)

// maxParallelKills bounds the number of concurrent kill calls.
const maxParallelKills = 8

// Process is the subset of a running process used by Killer.
type Process interface {
	Pid() int32
	Name(ctx context.Context) (string, error)
	Kill(ctx context.Context) error
}

// Lister lists running processes.
type Lister interface {
	Processes(ctx context.Context) ([]Process, error)
}

// Report summarizes one cleanup pass.
type Report struct {
	// Matched lists "name[pid]" of the processes that matched.
	Matched []string `json:"matched"`
	// Killed is the number of matched processes that were killed.
	Killed int `json:"killed"`
	// Errors lists failures to list or kill processes.
	Errors []string `json:"errors,omitempty"`
}

// Killer terminates processes by executable name.
type Killer struct {
	lister Lister
	self   int32
}

// NewKiller returns a Killer over the processes of the local host.
func NewKiller() *Killer {
	return NewKillerWithLister(systemLister{})
}

// NewKillerWithLister returns a Killer using l to enumerate processes.
func NewKillerWithLister(l Lister) *Killer {
	return &Killer{lister: l, self: int32(os.Getpid())}
}

// Targets returns the process names matched for binaries with debugSuffix,
// e.g. "neteditD" for binary "netedit" and suffix "D".
func Targets(debugSuffix string, binaries []string) []string {
	targets := make([]string, len(binaries))
	for i, b := range binaries {
		targets[i] = b + debugSuffix
	}
	return targets
}

// matches reports whether a process name refers to target. Names are
// compared case-insensitively and a trailing ".exe" is ignored, as on
// Windows.
func matches(name, target string) bool {
	name = strings.ToLower(name)
	target = strings.ToLower(target)
	return name == target || name == target+".exe"
}

// KillAll kills every process named after one of binaries plus debugSuffix.
// It never returns an error; problems are logged and recorded in the Report.
func (k *Killer) KillAll(ctx context.Context, debugSuffix string, binaries []string) *Report {
	rep := &Report{}
	targets := Targets(debugSuffix, binaries)

	procs, err := k.lister.Processes(ctx)
	if err != nil {
		logging.Infof(ctx, "Failed to list processes: %v", err)
		rep.Errors = append(rep.Errors, err.Error())
		return rep
	}

	var victims []Process
	for _, p := range procs {
		if p.Pid() == k.self {
			continue
		}
		name, err := p.Name(ctx)
		if err != nil {
			// Processes exit while we are looking; not worth reporting.
			continue
		}
		for _, t := range targets {
			if matches(name, t) {
				victims = append(victims, p)
				rep.Matched = append(rep.Matched, procLabel(name, p.Pid()))
				break
			}
		}
	}
	if len(victims) == 0 {
		logging.Debugf(ctx, "No stale %s processes", strings.Join(targets, ", "))
		return rep
	}

	errs := make([]error, len(victims))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelKills)
	for i, p := range victims {
		i, p := i, p
		g.Go(func() error {
			if err := p.Kill(gctx); err != nil {
				errs[i] = errors.Wrapf(err, "failed to kill %s", rep.Matched[i])
			}
			return nil
		})
	}
	g.Wait()

	for i, err := range errs {
		if err != nil {
			logging.Info(ctx, err)
			rep.Errors = append(rep.Errors, err.Error())
			continue
		}
		logging.Infof(ctx, "Killed stale process %s", rep.Matched[i])
		rep.Killed++
	}
	return rep
}

func procLabel(name string, pid int32) string {
	return fmt.Sprintf("%s[%d]", name, pid)
}
