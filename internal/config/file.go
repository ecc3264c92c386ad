// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"go.chromium.org/dailytest/errors"
)

// fileConfig is the schema of the YAML config file. Empty fields keep the
// value from the flags.
type fileConfig struct {
	RootDir     string            `yaml:"root_dir"`
	Suffix      string            `yaml:"suffix"`
	BinDir      string            `yaml:"bin_dir"`
	TestsDir    string            `yaml:"tests_dir"`
	RemoteDir   string            `yaml:"remote_dir"`
	Python      string            `yaml:"python"`
	Texttest    string            `yaml:"texttest"`
	Platform    string            `yaml:"platform"`
	Msvc        string            `yaml:"msvc"`
	SMTPServer  string            `yaml:"smtp_server"`
	DebugSuffix string            `yaml:"debug_suffix"`
	Binaries    []string          `yaml:"binaries"`
	Pull        *bool             `yaml:"pull"`
	Timeout     string            `yaml:"timeout"`
	Strict      *bool             `yaml:"strict"`
	Vars        map[string]string `yaml:"vars"`
}

// readFile reads and strictly parses a YAML config file at path.
func readFile(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	var fc fileConfig
	if err := yaml.UnmarshalStrict(b, &fc); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	return &fc, nil
}

// apply copies values from fc into c, except for options whose flag (either
// spelling) is in explicit.
func (fc *fileConfig) apply(c *MutableConfig, explicit map[string]bool) error {
	set := func(dst *string, v string, names ...string) {
		if v == "" {
			return
		}
		for _, n := range names {
			if explicit[n] {
				return
			}
		}
		*dst = v
	}
	set(&c.RootDir, fc.RootDir, "r", "root-dir")
	set(&c.Suffix, fc.Suffix, "s", "suffix")
	set(&c.BinDir, fc.BinDir, "b", "bin-dir")
	set(&c.TestsDir, fc.TestsDir, "t", "tests-dir")
	set(&c.RemoteDir, fc.RemoteDir, "m", "remote-dir")
	set(&c.Python, fc.Python, "p", "python")
	set(&c.Texttest, fc.Texttest, "texttest")
	set(&c.Platform, fc.Platform, "platform")
	set(&c.CompilerVersion, fc.Msvc, "msvc")
	set(&c.SMTPServer, fc.SMTPServer, "smtp")
	set(&c.DebugSuffix, fc.DebugSuffix, "debug-suffix")

	if len(fc.Binaries) > 0 && !explicit["binaries"] {
		c.Binaries = append([]string(nil), fc.Binaries...)
	}
	if fc.Pull != nil && !explicit["pull"] {
		c.Pull = *fc.Pull
	}
	if fc.Strict != nil && !explicit["strict"] {
		c.Strict = *fc.Strict
	}
	if fc.Timeout != "" && !explicit["timeout"] {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return errors.Wrap(err, "bad timeout")
		}
		c.Timeout = d
	}
	if c.Vars == nil {
		c.Vars = make(map[string]string)
	}
	mergeVars(c.Vars, fc.Vars, skipOnDuplicate)
	return nil
}
