// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package errors

import (
	stderrors "errors"
	"fmt"
	"os"
	"regexp"
	"testing"
)

func check(t *testing.T, err error, msg string, traceRegexp *regexp.Regexp) {
	t.Helper()
	if s := err.Error(); s != msg {
		t.Errorf("Wrong error message %q; want %q", s, msg)
	}
	if s := fmt.Sprintf("%v", err); s != msg {
		t.Errorf("Wrong default value %q; want %q", s, msg)
	}
	if tr := fmt.Sprintf("%+v", err); !traceRegexp.MatchString(tr) {
		t.Errorf("Wrong trace %q; should match %q", tr, traceRegexp)
	}
}

func TestNew(t *testing.T) {
	traceRegexp := regexp.MustCompile(`^no tasks
	at go\.chromium\.org/dailytest/errors\.TestNew \(errors_test.go:\d+\)`)

	check(t, New("no tasks"), "no tasks", traceRegexp)
}

func TestErrorf(t *testing.T) {
	traceRegexp := regexp.MustCompile(`^3 tasks
	at go\.chromium\.org/dailytest/errors\.TestErrorf \(errors_test.go:\d+\)`)

	check(t, Errorf("%d tasks", 3), "3 tasks", traceRegexp)
}

func TestWrap(t *testing.T) {
	traceRegexp := regexp.MustCompile(`(?s)^select failed
	at go\.chromium\.org/dailytest/errors\.TestWrap \(errors_test.go:\d+\)
.*
no tasks
	at go\.chromium\.org/dailytest/errors\.TestWrap \(errors_test.go:\d+\)`)

	check(t, Wrap(New("no tasks"), "select failed"), "select failed: no tasks", traceRegexp)
}

func TestWrapForeignError(t *testing.T) {
	traceRegexp := regexp.MustCompile(`(?s)^select failed
	at go\.chromium\.org/dailytest/errors\.TestWrapForeignError \(errors_test.go:\d+\)
.*
no tasks
	at \?\?\?$`)

	check(t, Wrap(stderrors.New("no tasks"), "select failed"), "select failed: no tasks", traceRegexp)
}

func TestWrapNil(t *testing.T) {
	traceRegexp := regexp.MustCompile(`^select failed
	at go\.chromium\.org/dailytest/errors\.TestWrapNil \(errors_test.go:\d+\)`)

	check(t, Wrap(nil, "select failed"), "select failed", traceRegexp)
}

func TestWrapf(t *testing.T) {
	err := Wrapf(New("inner"), "outer %d", 2)
	if s := err.Error(); s != "outer 2: inner" {
		t.Errorf("Error() = %q; want %q", s, "outer 2: inner")
	}
}

func TestIs(t *testing.T) {
	sentinel := New("sentinel")
	err := Wrap(Wrapf(sentinel, "level %d", 1), "level 2")
	if !Is(err, sentinel) {
		t.Errorf("Is(%v, sentinel) = false; want true", err)
	}
	if Is(err, New("sentinel")) {
		t.Error("Is matched a different error with the same message")
	}
}

func TestAs(t *testing.T) {
	_, statErr := os.Stat("/nonexistent/dailytest")
	err := Wrap(statErr, "stat failed")
	var pe *os.PathError
	if !As(err, &pe) {
		t.Fatalf("As(%v, *os.PathError) = false; want true", err)
	}
	if pe.Path != "/nonexistent/dailytest" {
		t.Errorf("PathError.Path = %q; want %q", pe.Path, "/nonexistent/dailytest")
	}
}
