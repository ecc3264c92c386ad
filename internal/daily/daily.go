// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package daily runs the nightly netedit test pipeline.
//
// A run is strictly sequential:
//
//	configure -> kill stale -> select -> texttest -> collect -> kill stale
//
// The second cleanup pass runs whenever the first one did, even if no suite
// could be selected or texttest failed.
package daily

import (
	"context"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/google/uuid"

	"go.chromium.org/dailytest/internal/cleanup"
	"go.chromium.org/dailytest/internal/config"
	"go.chromium.org/dailytest/internal/logging"
	"go.chromium.org/dailytest/internal/revision"
	"go.chromium.org/dailytest/internal/schedule"
	"go.chromium.org/dailytest/internal/texttest"
	"go.chromium.org/dailytest/internal/timing"
)

// Killer terminates stale instances of the binaries under test.
type Killer interface {
	KillAll(ctx context.Context, debugSuffix string, binaries []string) *cleanup.Report
}

// Selector picks the suite to run on a day.
type Selector interface {
	For(ctx context.Context, day time.Time) (*schedule.Task, error)
}

// Runner runs a child process.
type Runner interface {
	Run(ctx context.Context, args []string, env config.Env) *texttest.Outcome
}

// Repo identifies and updates the source checkout.
type Repo interface {
	Describe(ctx context.Context) (string, error)
	Pull(ctx context.Context) error
}

// Deps holds the collaborators of Run.
type Deps struct {
	Killer   Killer
	Selector Selector
	Runner   Runner
	Repo     Repo
	Clock    clock.Clock

	// BaseEnv is the environment the derived variables are added to.
	BaseEnv config.Env
	// LogStatus is copied into the summary.
	LogStatus logging.Status
}

// NewDeps returns the production collaborators for cfg. base is normally
// the process environment.
func NewDeps(cfg *config.Config, base config.Env, st logging.Status) *Deps {
	clk := clock.NewClock()
	return &Deps{
		Killer:    cleanup.NewKiller(),
		Selector:  schedule.NewSelector(cfg.TexttestHome()),
		Runner:    &texttest.Runner{Timeout: cfg.Timeout(), Clock: clk},
		Repo:      &revision.Git{Dir: cfg.CheckoutDir()},
		Clock:     clk,
		BaseEnv:   base,
		LogStatus: st,
	}
}

// Run executes one nightly run and returns its summary. The summary is
// also written to the report directory. The returned error reports a run
// that could not test anything; failures of the child processes are only
// recorded in the summary.
func Run(ctx context.Context, cfg *config.Config, d *Deps) (*Summary, error) {
	day := d.Clock.Now()
	tl := timing.NewLog(d.Clock)
	ctx = timing.NewContext(ctx, tl)
	ctx, st := timing.Start(ctx, "run")

	s := &Summary{
		RunID:     uuid.New().String(),
		Date:      day.Format(dateLayout),
		Revision:  revision.Unknown,
		LogStatus: d.LogStatus,
		Timing:    tl,
	}
	logging.Info(ctx, "Running tests.")
	logging.Debugf(ctx, "Run %s for %s", s.RunID, cfg.Prefix())

	if cfg.Pull() {
		pull(ctx, d.Repo)
	}
	s.Revision = describe(ctx, d.Repo)

	env, err := configure(ctx, cfg, d.BaseEnv)
	if err != nil {
		st.End()
		return s, err
	}

	s.Cleanups = append(s.Cleanups, killStale(ctx, cfg, d.Killer))
	err = s.test(ctx, cfg, d, env, day)
	s.Cleanups = append(s.Cleanups, killStale(ctx, cfg, d.Killer))
	st.End()

	if werr := s.Write(cfg.ReportDir(), s.fileName(day)); werr != nil {
		logging.Info(ctx, "Failed to write summary: ", werr)
	}
	logTiming(ctx, tl)
	return s, err
}

func pull(ctx context.Context, repo Repo) {
	ctx, st := timing.Start(ctx, "pull")
	defer st.End()
	if err := repo.Pull(ctx); err != nil {
		logging.Info(ctx, "Pull failed; testing the current checkout: ", err)
	}
}

func describe(ctx context.Context, repo Repo) string {
	rev, err := repo.Describe(ctx)
	if err != nil {
		logging.Infof(ctx, "Cannot describe checkout, using %s: %v", rev, err)
	}
	if rev == "" {
		rev = revision.Unknown
	}
	logging.Info(ctx, "Revision ", rev)
	return rev
}

func configure(ctx context.Context, cfg *config.Config, base config.Env) (config.Env, error) {
	ctx, st := timing.Start(ctx, "configure")
	defer st.End()
	if err := config.EnsureReportDir(cfg); err != nil {
		return nil, err
	}
	return config.BuildEnv(ctx, cfg, base), nil
}

func killStale(ctx context.Context, cfg *config.Config, k Killer) *cleanup.Report {
	ctx, st := timing.Start(ctx, "kill_stale")
	defer st.End()
	return k.KillAll(ctx, cfg.DebugSuffix(), cfg.Binaries())
}

// test selects the suite for day, runs it and collects the report.
func (s *Summary) test(ctx context.Context, cfg *config.Config, d *Deps, env config.Env, day time.Time) error {
	sctx, st := timing.Start(ctx, "select")
	task, err := d.Selector.For(sctx, day)
	st.End()
	if err != nil {
		return err
	}
	s.Task = task
	logging.Infof(ctx, "Selected %s", task.ID)

	s.Steps = append(s.Steps, runStep(ctx, d.Runner, "texttest", texttest.RunArgs(cfg, task, s.Revision, day), env))
	s.Steps = append(s.Steps, runStep(ctx, d.Runner, "collect", texttest.CollectArgs(cfg), env))
	return nil
}

func runStep(ctx context.Context, r Runner, name string, args []string, env config.Env) *Step {
	ctx, st := timing.Start(ctx, name)
	defer st.End()
	o := r.Run(ctx, args, env)
	if o.Err != nil {
		logging.Info(ctx, o.Err)
	}
	return newStep(name, o)
}
