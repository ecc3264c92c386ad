// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package config

import (
	"context"
	"os"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"go.chromium.org/dailytest/errors"
	"go.chromium.org/dailytest/internal/logging"
)

// Names of the environment variables consumed by texttest and the test
// scripts.
const (
	EnvSumoHome     = "SUMO_HOME"
	EnvPython       = "PYTHON"
	EnvSMTPServer   = "SMTP_SERVER"
	EnvFilePrefix   = "FILEPREFIX"
	EnvBatchResult  = "SUMO_BATCH_RESULT"
	EnvReport       = "SUMO_REPORT"
	EnvTexttestTmp  = "TEXTTEST_TMP"
	EnvTexttestHome = "TEXTTEST_HOME"

	binarySuffix = "_BINARY"
)

// BinaryEnvName returns the variable naming the path of a binary, e.g.
// NETEDIT_BINARY.
func BinaryEnvName(binary string) string {
	return strings.ToUpper(binary) + binarySuffix
}

// Env is the environment passed to child processes. The process environment
// is never modified.
type Env map[string]string

// EnvFromList parses KEY=VALUE pairs as returned by os.Environ. Later
// entries win.
func EnvFromList(list []string) Env {
	env := make(Env, len(list))
	for _, kv := range list {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			env[k] = v
		}
	}
	return env
}

// Clone returns a copy of e.
func (e Env) Clone() Env {
	return Env(maps.Clone(map[string]string(e)))
}

// Keys returns the variable names in sorted order.
func (e Env) Keys() []string {
	keys := maps.Keys(e)
	slices.Sort(keys)
	return keys
}

// Environ returns sorted KEY=VALUE pairs suitable for exec.Cmd.Env.
func (e Env) Environ() []string {
	list := make([]string, 0, len(e))
	for _, k := range e.Keys() {
		list = append(list, k+"="+e[k])
	}
	return list
}

// mergeVarsMode specifies the behavior of mergeVars when it finds duplicated
// entries.
type mergeVarsMode int

const (
	skipOnDuplicate      mergeVarsMode = iota // keep the existing entry
	overwriteOnDuplicate                      // replace the existing entry
)

// mergeVars merges newVars into vars and returns the duplicated keys in
// sorted order. vars must not be nil.
func mergeVars(vars, newVars map[string]string, mode mergeVarsMode) (dups []string) {
	for k, v := range newVars {
		if old, ok := vars[k]; ok {
			if old != v {
				dups = append(dups, k)
			}
			if mode == skipOnDuplicate {
				continue
			}
		}
		vars[k] = v
	}
	slices.Sort(dups)
	return dups
}

// Derived returns the variables computed from cfg alone. Binary paths are
// included only for binaries that exist.
func Derived(cfg *Config) Env {
	env := Env{
		EnvPython:       cfg.Python(),
		EnvSMTPServer:   cfg.SMTPServer(),
		EnvFilePrefix:   cfg.FilePrefix(),
		EnvBatchResult:  cfg.BatchResultDir(),
		EnvReport:       cfg.ReportDir(),
		EnvTexttestTmp:  cfg.TmpDir(),
		EnvTexttestHome: cfg.TexttestHome(),
	}
	for _, name := range cfg.binaries {
		if p := cfg.BinaryPath(name); fileExists(p) {
			env[BinaryEnvName(name)] = p
		}
	}
	return env
}

// BuildEnv returns the environment for texttest: base (normally the process
// environment), then the configured extra vars, then the derived variables.
// SUMO_HOME defaults to the checkout directory if base lacks it.
func BuildEnv(ctx context.Context, cfg *Config, base Env) Env {
	env := base.Clone()
	if env == nil {
		env = make(Env)
	}
	if _, ok := env[EnvSumoHome]; !ok {
		env[EnvSumoHome] = cfg.CheckoutDir()
	}
	mergeVars(env, cfg.vars, overwriteOnDuplicate)
	for _, k := range mergeVars(env, Derived(cfg), overwriteOnDuplicate) {
		if _, ok := cfg.vars[k]; ok {
			logging.Infof(ctx, "Ignoring configured %s; it is derived from the options", k)
		}
	}
	for _, name := range cfg.binaries {
		if _, ok := env[BinaryEnvName(name)]; !ok {
			logging.Infof(ctx, "Binary %s not found", cfg.BinaryPath(name))
		}
	}
	return env
}

// EnsureReportDir creates the report directory if it does not exist yet.
// Calling it again, or concurrently with another creator, is not an error.
func EnsureReportDir(cfg *Config) error {
	dir := cfg.ReportDir()
	if fi, err := os.Stat(dir); err == nil {
		if !fi.IsDir() {
			return errors.Errorf("report path %s is not a directory", dir)
		}
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "failed to create report directory %s", dir)
	}
	return nil
}

func fileExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}
