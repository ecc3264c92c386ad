// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package shutil renders argument vectors as shell command lines for logs.
//
// Commands are never executed through a shell; these helpers only make the
// logged command line copy-pasteable on the host that ran it.
package shutil

import (
	"fmt"
	"regexp"
	"runtime"
	"strings"
)

const (
	// The character class \w is equivalent to [0-9A-Za-z_]. Leading equals sign is unsafe in zsh.
	leadingSafeChars  = `-\w@%+:,./`
	trailingSafeChars = leadingSafeChars + "="
)

// safeRE matches an argument that can be literally included in a POSIX shell
// command line without requiring escaping.
var safeRE = regexp.MustCompile(fmt.Sprintf("^[%s][%s]*$", leadingSafeChars, trailingSafeChars))

// Escape escapes s for a POSIX shell. s is returned unmodified if it is
// already safe.
func Escape(s string) string {
	if safeRE.MatchString(s) {
		return s
	}
	return "'" + strings.Replace(s, "'", `'"'"'`, -1) + "'"
}

// EscapeWindows escapes s following the CommandLineToArgvW rules used by
// Windows programs to split their command line.
func EscapeWindows(s string) string {
	if s == "" {
		return `""`
	}
	if !strings.ContainsAny(s, " \t\"") {
		return s
	}
	var b strings.Builder
	b.WriteByte('"')
	slashes := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			slashes++
			b.WriteByte(c)
		case '"':
			b.WriteString(strings.Repeat(`\`, slashes+1))
			b.WriteByte(c)
			slashes = 0
		default:
			slashes = 0
			b.WriteByte(c)
		}
	}
	// Backslashes before the closing quote must be doubled.
	b.WriteString(strings.Repeat(`\`, slashes))
	b.WriteByte('"')
	return b.String()
}

// EscapeSlice escapes args for a POSIX shell and joins them with spaces.
func EscapeSlice(args []string) string {
	return join(args, Escape)
}

// CommandLine renders args for the shell of the given GOOS. An empty goos
// means the current platform.
func CommandLine(goos string, args []string) string {
	if goos == "" {
		goos = runtime.GOOS
	}
	if goos == "windows" {
		return join(args, EscapeWindows)
	}
	return join(args, Escape)
}

func join(args []string, esc func(string) string) string {
	escaped := make([]string, len(args))
	for i, arg := range args {
		escaped[i] = esc(arg)
	}
	return strings.Join(escaped, " ")
}
