// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package revision identifies and updates the source checkout under test.
package revision

import (
	"bytes"
	"context"
	"strings"

	"golang.org/x/sys/execabs"

	"go.chromium.org/dailytest/errors"
	"go.chromium.org/dailytest/internal/logging"
	"go.chromium.org/dailytest/shutil"
)

// Unknown is the revision reported when git cannot describe the checkout.
const Unknown = "UNKNOWN"

// countWidth is the minimum number of digits of the commit count.
const countWidth = 4

// Git runs git commands in a checkout directory.
type Git struct {
	// Dir is the checkout directory.
	Dir string
	// Path is the git executable; "git" if empty.
	Path string
}

func (g *Git) command(ctx context.Context, args ...string) *execabs.Cmd {
	path := g.Path
	if path == "" {
		path = "git"
	}
	cmd := execabs.CommandContext(ctx, path, args...)
	cmd.Dir = g.Dir
	return cmd
}

// Describe returns the normalized "git describe" of HEAD, e.g.
// "v1_20_0+0123-abcdef0123", or Unknown if git fails. The error is returned
// alongside Unknown for logging; callers are expected to carry on.
func (g *Git) Describe(ctx context.Context) (string, error) {
	args := []string{"describe", "--long", "--always", "HEAD"}
	cmd := g.command(ctx, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return Unknown, errors.Wrapf(err, "%s failed: %s",
			shutil.EscapeSlice(append([]string{"git"}, args...)), strings.TrimSpace(stderr.String()))
	}
	d := strings.TrimSpace(string(out))
	if d == "" {
		return Unknown, errors.New("git describe printed nothing")
	}
	return Normalize(d), nil
}

// Normalize rewrites "git describe --long" output TAG-COUNT-gHASH as
// TAG+COUNT-HASH with COUNT zero-padded to four digits, so revisions sort
// by commit count. Output without a dash (a bare hash) is returned as is.
func Normalize(d string) string {
	if !strings.Contains(d, "-") {
		return d
	}
	d = strings.Replace(d, "-g", "-", -1)
	m1 := strings.Index(d, "-") + 1
	m2 := strings.Index(d[m1:], "-")
	if m2 < 0 {
		m2 = len(d) - m1
	}
	pad := countWidth - m2
	if pad < 0 {
		pad = 0
	}
	return d[:m1-1] + "+" + strings.Repeat("0", pad) + d[m1:]
}

// Pull updates the checkout. Output is forwarded to the log.
func (g *Git) Pull(ctx context.Context) error {
	args := []string{"pull", "--ff-only"}
	cmd := g.command(ctx, args...)
	out, err := cmd.CombinedOutput()
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line != "" {
			logging.Info(ctx, "[git] ", line)
		}
	}
	if err != nil {
		return errors.Wrapf(err, "%s failed in %s", shutil.EscapeSlice(append([]string{"git"}, args...)), g.Dir)
	}
	return nil
}
