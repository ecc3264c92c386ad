// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package config resolves the nightly run configuration from flags and an
// optional YAML file, and derives the environment for the test tool.
package config

import (
	"flag"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.chromium.org/dailytest/errors"
)

// Default values of the configuration. They describe the layout of the
// Windows build host.
const (
	DefaultRootDir         = `D:\Sumo`
	DefaultBinDir          = `git\bin`
	DefaultTestsDir        = `git\tests`
	DefaultRemoteDir       = `S:\daily`
	DefaultTexttest        = "texttest"
	DefaultPython          = "python"
	DefaultPlatform        = "x64"
	DefaultCompilerVersion = "msvc16"
	DefaultSMTPServer      = "smtprelay.dlr.de"
)

// DefaultBinaries lists the binaries exercised by the GUI test suite.
var DefaultBinaries = []string{"netedit"}

// MutableConfig holds configuration while flags and the config file are
// being processed. Call Freeze to obtain an immutable Config.
type MutableConfig struct {
	ConfigFile string

	RootDir         string
	Suffix          string
	BinDir          string
	TestsDir        string
	RemoteDir       string
	Python          string
	Texttest        string
	Platform        string
	CompilerVersion string
	SMTPServer      string
	DebugSuffix     string
	Binaries        []string

	Pull    bool
	Timeout time.Duration
	Strict  bool

	Vars map[string]string
}

// NewMutableConfig returns a MutableConfig filled with default values.
func NewMutableConfig() *MutableConfig {
	return &MutableConfig{
		RootDir:         DefaultRootDir,
		BinDir:          DefaultBinDir,
		TestsDir:        DefaultTestsDir,
		RemoteDir:       DefaultRemoteDir,
		Texttest:        DefaultTexttest,
		Platform:        DefaultPlatform,
		CompilerVersion: DefaultCompilerVersion,
		SMTPServer:      DefaultSMTPServer,
		Binaries:        append([]string(nil), DefaultBinaries...),
		Vars:            make(map[string]string),
	}
}

// listFlag is a flag.Value holding a comma-separated list.
type listFlag struct{ dst *[]string }

func (l listFlag) String() string {
	if l.dst == nil {
		return ""
	}
	return strings.Join(*l.dst, ",")
}

func (l listFlag) Set(s string) error {
	var items []string
	for _, it := range strings.Split(s, ",") {
		if it = strings.TrimSpace(it); it != "" {
			items = append(items, it)
		}
	}
	*l.dst = items
	return nil
}

// varFlag is a flag.Value adding KEY=VALUE pairs to a map.
type varFlag struct{ vars map[string]string }

func (v varFlag) String() string { return "" }

func (v varFlag) Set(s string) error {
	k, val, ok := strings.Cut(s, "=")
	if !ok || k == "" {
		return errors.Errorf("want KEY=VALUE, got %q", s)
	}
	v.vars[k] = val
	return nil
}

// SetFlags adds common run-related flags to f that store values in c.
// Short and long spellings of the same option share a destination.
func (c *MutableConfig) SetFlags(f *flag.FlagSet) {
	alias := func(dst *string, short, long, def, usage string) {
		f.StringVar(dst, short, def, usage)
		f.StringVar(dst, long, def, usage)
	}
	alias(&c.RootDir, "r", "root-dir", c.RootDir, "root for the checkout and the batch output")
	alias(&c.Suffix, "s", "suffix", c.Suffix, "suffix to the file prefix")
	alias(&c.BinDir, "b", "bin-dir", c.BinDir, "directory containing the binaries, relative to the root dir")
	alias(&c.TestsDir, "t", "tests-dir", c.TestsDir, "directory containing the tests, relative to the root dir")
	alias(&c.RemoteDir, "m", "remote-dir", c.RemoteDir, "directory to write reports and the log to")
	alias(&c.Python, "p", "python", c.Python, "path to the python interpreter exported as PYTHON")

	f.StringVar(&c.ConfigFile, "config", "", "YAML file with defaults; explicit flags take precedence")
	f.StringVar(&c.Texttest, "texttest", c.Texttest, "texttest executable")
	f.StringVar(&c.Platform, "platform", c.Platform, "build platform in the file prefix")
	f.StringVar(&c.CompilerVersion, "msvc", c.CompilerVersion, "compiler version in the file prefix")
	f.StringVar(&c.SMTPServer, "smtp", c.SMTPServer, "mail relay host exported as SMTP_SERVER")
	f.StringVar(&c.DebugSuffix, "debug-suffix", c.DebugSuffix, `binary name suffix of the variant under test, e.g. "D"`)
	f.Var(listFlag{&c.Binaries}, "binaries", "comma-separated binaries to clean up and export")
	f.BoolVar(&c.Pull, "pull", false, "run git pull in the checkout before testing")
	f.DurationVar(&c.Timeout, "timeout", 0, "limit for each texttest invocation (0 for none)")
	f.BoolVar(&c.Strict, "strict", false, "exit non-zero if texttest fails")
	f.Var(varFlag{c.Vars}, "var", "extra environment variable as KEY=VALUE (repeatable)")
}

// Finalize applies the config file, if any, to every option not given
// explicitly in f, and validates the result. f must already be parsed.
func (c *MutableConfig) Finalize(f *flag.FlagSet) error {
	if c.ConfigFile != "" {
		explicit := make(map[string]bool)
		f.Visit(func(fl *flag.Flag) { explicit[fl.Name] = true })
		fc, err := readFile(c.ConfigFile)
		if err != nil {
			return err
		}
		if err := fc.apply(c, explicit); err != nil {
			return errors.Wrapf(err, "bad config file %s", c.ConfigFile)
		}
	}
	return c.validate()
}

func (c *MutableConfig) validate() error {
	for name, v := range map[string]string{
		"root-dir":   c.RootDir,
		"remote-dir": c.RemoteDir,
		"texttest":   c.Texttest,
	} {
		if v == "" {
			return errors.Errorf("-%s must not be empty", name)
		}
	}
	if c.Timeout < 0 {
		return errors.Errorf("-timeout must not be negative: %v", c.Timeout)
	}
	return nil
}

// Freeze returns an immutable copy of c.
func (c *MutableConfig) Freeze() *Config {
	vars := make(map[string]string, len(c.Vars))
	for k, v := range c.Vars {
		vars[k] = v
	}
	return &Config{
		rootDir:         nativePath(c.RootDir),
		suffix:          c.Suffix,
		binDir:          nativePath(c.BinDir),
		testsDir:        nativePath(c.TestsDir),
		remoteDir:       nativePath(c.RemoteDir),
		python:          c.Python,
		texttest:        c.Texttest,
		platform:        c.Platform,
		compilerVersion: c.CompilerVersion,
		smtpServer:      c.SMTPServer,
		debugSuffix:     c.DebugSuffix,
		binaries:        append([]string(nil), c.Binaries...),
		pull:            c.Pull,
		timeout:         c.Timeout,
		strict:          c.Strict,
		vars:            vars,
	}
}

// nativePath converts Windows separators in p on other platforms, so the
// Windows-oriented defaults and config files stay usable elsewhere.
func nativePath(p string) string {
	if runtime.GOOS == "windows" {
		return p
	}
	return strings.ReplaceAll(p, `\`, "/")
}

// Config is the immutable configuration of a run.
type Config struct {
	rootDir         string
	suffix          string
	binDir          string
	testsDir        string
	remoteDir       string
	python          string
	texttest        string
	platform        string
	compilerVersion string
	smtpServer      string
	debugSuffix     string
	binaries        []string
	pull            bool
	timeout         time.Duration
	strict          bool
	vars            map[string]string
}

// RootDir is the root of the checkout and the batch output.
func (c *Config) RootDir() string { return c.rootDir }

// RemoteDir receives the report and the log.
func (c *Config) RemoteDir() string { return c.remoteDir }

// Texttest is the test runner executable.
func (c *Config) Texttest() string { return c.texttest }

// DebugSuffix distinguishes the binary variant under test.
func (c *Config) DebugSuffix() string { return c.debugSuffix }

// Pull reports whether the checkout is updated before testing.
func (c *Config) Pull() bool { return c.pull }

// Strict reports whether a texttest failure fails the run.
func (c *Config) Strict() bool { return c.strict }

// SMTPServer is the mail relay used by texttest to send reports.
func (c *Config) SMTPServer() string { return c.smtpServer }

// Vars returns a copy of the extra environment variables.
func (c *Config) Vars() map[string]string {
	vars := make(map[string]string, len(c.vars))
	for k, v := range c.vars {
		vars[k] = v
	}
	return vars
}

// Timeout is the limit for each texttest invocation; zero means none.
func (c *Config) Timeout() time.Duration { return c.timeout }

// Binaries returns a copy of the binary names.
func (c *Config) Binaries() []string { return append([]string(nil), c.binaries...) }

// Python returns the interpreter exported as PYTHON.
func (c *Config) Python() string {
	if c.python == "" {
		return DefaultPython
	}
	return c.python
}

// FilePrefix namespaces the output of this build variant, e.g. "msvc16x64".
func (c *Config) FilePrefix() string {
	return c.compilerVersion + c.suffix + c.platform
}

// Prefix is FilePrefix followed by the debug suffix.
func (c *Config) Prefix() string {
	return c.FilePrefix() + c.debugSuffix
}

// BatchResultDir is where texttest writes the batch result.
func (c *Config) BatchResultDir() string {
	return filepath.Join(c.rootDir, c.Prefix()+"batch_result")
}

// ReportDir is where the collected report is written.
func (c *Config) ReportDir() string {
	return filepath.Join(c.remoteDir, c.Prefix()+"report")
}

// TmpDir is the texttest scratch directory.
func (c *Config) TmpDir() string {
	return filepath.Join(c.rootDir, c.Prefix()+"texttesttmp")
}

// TexttestHome is the root of the test tree.
func (c *Config) TexttestHome() string {
	return filepath.Join(c.rootDir, c.testsDir)
}

// CheckoutDir is the source checkout containing the test tree.
func (c *Config) CheckoutDir() string {
	return filepath.Dir(c.TexttestHome())
}

// BinaryPath is the expected location of the named binary.
func (c *Config) BinaryPath(name string) string {
	return filepath.Join(c.rootDir, c.binDir, name+c.debugSuffix+".exe")
}

// LogPath is the rotating log of the nightly run.
func (c *Config) LogPath() string {
	return filepath.Join(c.remoteDir, c.FilePrefix()) + "NeteditTest.log"
}
