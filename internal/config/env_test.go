// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"go.chromium.org/dailytest/internal/logging"
	"go.chromium.org/dailytest/internal/logging/loggingtest"
	"go.chromium.org/dailytest/testutil"
)

func testConfig(root, remote string, vars map[string]string) *Config {
	c := NewMutableConfig()
	c.RootDir = root
	c.RemoteDir = remote
	c.BinDir = "bin"
	c.TestsDir = "git/tests"
	c.Binaries = []string{"netedit", "sumo-gui"}
	for k, v := range vars {
		c.Vars[k] = v
	}
	return c.Freeze()
}

func TestEnvFromList(t *testing.T) {
	env := EnvFromList([]string{"A=1", "B=x=y", "junk", "=bad", "A=2"})
	if diff := cmp.Diff(env, Env{"A": "2", "B": "x=y"}); diff != "" {
		t.Errorf("EnvFromList mismatch (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff(env.Environ(), []string{"A=2", "B=x=y"}); diff != "" {
		t.Errorf("Environ mismatch (-got +want):\n%s", diff)
	}
}

func TestBuildEnv(t *testing.T) {
	td := testutil.TempDir(t)
	if err := testutil.WriteFiles(td, map[string]string{"bin/netedit.exe": ""}); err != nil {
		t.Fatal(err)
	}
	cfg := testConfig(td, filepath.Join(td, "out"), map[string]string{
		"EXTRA":       "1",
		EnvFilePrefix: "ignored",
	})
	logger := loggingtest.NewLogger(t, logging.LevelInfo)
	ctx := logging.AttachLogger(context.Background(), logger)

	base := Env{"PATH": "/bin", EnvPython: "python3"}
	env := BuildEnv(ctx, cfg, base)

	want := Env{
		"PATH":           "/bin",
		"EXTRA":          "1",
		EnvSumoHome:      filepath.Join(td, "git"),
		EnvPython:        "python",
		EnvSMTPServer:    DefaultSMTPServer,
		EnvFilePrefix:    "msvc16x64",
		EnvBatchResult:   filepath.Join(td, "msvc16x64batch_result"),
		EnvReport:        filepath.Join(td, "out", "msvc16x64report"),
		EnvTexttestTmp:   filepath.Join(td, "msvc16x64texttesttmp"),
		EnvTexttestHome:  filepath.Join(td, "git", "tests"),
		"NETEDIT_BINARY": filepath.Join(td, "bin", "netedit.exe"),
	}
	if diff := cmp.Diff(env, want); diff != "" {
		t.Errorf("BuildEnv mismatch (-got +want):\n%s", diff)
	}
	if base[EnvPython] != "python3" || len(base) != 2 {
		t.Errorf("BuildEnv modified its base: %v", base)
	}

	wantLogs := []string{
		"Ignoring configured FILEPREFIX; it is derived from the options",
		"Binary " + cfg.BinaryPath("sumo-gui") + " not found",
	}
	if diff := cmp.Diff(logger.Logs(), wantLogs); diff != "" {
		t.Errorf("Logs mismatch (-got +want):\n%s", diff)
	}
}

func TestBuildEnvKeepsSumoHome(t *testing.T) {
	cfg := testConfig("/x", "/out", nil)
	env := BuildEnv(context.Background(), cfg, Env{EnvSumoHome: "/opt/sumo"})
	if got := env[EnvSumoHome]; got != "/opt/sumo" {
		t.Errorf("SUMO_HOME = %q; want the inherited value", got)
	}
}

func TestBuildEnvPathKeysAlwaysPresent(t *testing.T) {
	for _, c := range []struct{ root, remote string }{
		{"/x", "/out"},
		{"relative", "also/relative"},
		{"/", "/"},
	} {
		cfg := testConfig(c.root, c.remote, nil)
		env := BuildEnv(context.Background(), cfg, nil)
		prefix := cfg.Prefix()
		for key, want := range map[string]string{
			EnvBatchResult: filepath.Join(c.root, prefix+"batch_result"),
			EnvReport:      filepath.Join(c.remote, prefix+"report"),
			EnvTexttestTmp: filepath.Join(c.root, prefix+"texttesttmp"),
		} {
			if got := env[key]; got != want {
				t.Errorf("root=%q remote=%q: %s = %q; want %q", c.root, c.remote, key, got, want)
			}
		}
	}
}

func TestEnsureReportDir(t *testing.T) {
	td := testutil.TempDir(t)
	cfg := testConfig(td, filepath.Join(td, "remote", "daily"), nil)

	for i := 0; i < 2; i++ {
		if err := EnsureReportDir(cfg); err != nil {
			t.Fatalf("EnsureReportDir call #%d: %v", i+1, err)
		}
	}
	if fi, err := os.Stat(cfg.ReportDir()); err != nil || !fi.IsDir() {
		t.Errorf("Report dir %s not created: %v", cfg.ReportDir(), err)
	}
}

func TestEnsureReportDirNotADirectory(t *testing.T) {
	td := testutil.TempDir(t)
	cfg := testConfig(td, td, nil)
	if err := testutil.WriteFiles(td, map[string]string{filepath.Base(cfg.ReportDir()): "x"}); err != nil {
		t.Fatal(err)
	}
	if err := EnsureReportDir(cfg); err == nil {
		t.Error("EnsureReportDir succeeded on a regular file")
	}
}

func TestMergeVars(t *testing.T) {
	vars := map[string]string{"A": "1", "B": "2"}
	dups := mergeVars(vars, map[string]string{"A": "x", "B": "2", "C": "3"}, skipOnDuplicate)
	if diff := cmp.Diff(vars, map[string]string{"A": "1", "B": "2", "C": "3"}); diff != "" {
		t.Errorf("skipOnDuplicate mismatch (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff(dups, []string{"A"}); diff != "" {
		t.Errorf("dups mismatch (-got +want):\n%s", diff)
	}
	mergeVars(vars, map[string]string{"A": "x"}, overwriteOnDuplicate)
	if vars["A"] != "x" {
		t.Errorf("overwriteOnDuplicate kept A=%q", vars["A"])
	}
}
