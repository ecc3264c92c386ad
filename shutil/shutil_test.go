// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package shutil_test

import (
	"testing"

	"go.chromium.org/dailytest/shutil"
)

func TestEscape(t *testing.T) {
	for _, c := range []struct {
		in, exp string
	}{
		{``, `''`},
		{` `, `' '`},
		{`ab`, `ab`},
		{`a b`, `'a b'`},
		{`AZaz09@%_+=:,./-`, `AZaz09@%_+=:,./-`},
		{`a!b`, `'a!b'`},
		{`'`, `''"'"''`},
		{`=foo`, `'=foo'`},
		{`18Oct26rv1_20_0+0123-abcdef`, `18Oct26rv1_20_0+0123-abcdef`},
	} {
		if s := shutil.Escape(c.in); s != c.exp {
			t.Errorf("Escape(%q) = %q; want %q", c.in, s, c.exp)
		}
	}
}

func TestEscapeWindows(t *testing.T) {
	for _, c := range []struct {
		in, exp string
	}{
		{``, `""`},
		{`texttest`, `texttest`},
		{`D:\Sumo\git\bin`, `D:\Sumo\git\bin`},
		{`C:\Program Files\x`, `"C:\Program Files\x"`},
		{`C:\dir with space\`, `"C:\dir with space\\"`},
		{`say "hi"`, `"say \"hi\""`},
		{`a\"b`, `"a\\\"b"`},
	} {
		if s := shutil.EscapeWindows(c.in); s != c.exp {
			t.Errorf("EscapeWindows(%q) = %q; want %q", c.in, s, c.exp)
		}
	}
}

func TestCommandLine(t *testing.T) {
	args := []string{"texttest", "-b", "msvc16x64", "-name", "a b"}
	if s, exp := shutil.CommandLine("linux", args), `texttest -b msvc16x64 -name 'a b'`; s != exp {
		t.Errorf("CommandLine(linux) = %q; want %q", s, exp)
	}
	if s, exp := shutil.CommandLine("windows", args), `texttest -b msvc16x64 -name "a b"`; s != exp {
		t.Errorf("CommandLine(windows) = %q; want %q", s, exp)
	}
	if s, exp := shutil.EscapeSlice(args), `texttest -b msvc16x64 -name 'a b'`; s != exp {
		t.Errorf("EscapeSlice = %q; want %q", s, exp)
	}
}
