// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package schedule picks the daily test subset by calendar rotation.
//
// The subsets are the entries named "testsuite.netedit.daily.*" in the
// netedit application directory of the texttest home. They are sorted by
// name and the one at ordinal(today) mod count is run. No state is kept
// between runs.
package schedule

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"code.cloudfoundry.org/clock"

	"go.chromium.org/dailytest/errors"
	"go.chromium.org/dailytest/internal/logging"
)

const (
	// AppDir is the texttest application directory holding the daily suites.
	AppDir = "netedit"

	// Pattern matches the daily suite files or directories within AppDir.
	Pattern = "testsuite.netedit.daily.*"

	// idPrefix is stripped from a suite name to form the texttest app id.
	idPrefix = "testsuite."

	secondsPerDay    = 24 * 60 * 60
	unixEpochOrdinal = 719163 // ordinal of 1970-01-01
)

// ErrNoTasks is returned when no daily suite is available.
var ErrNoTasks = errors.New("no daily test suites found")

// ErrDateOutOfRange is returned for days before 0001-01-01, which have no
// ordinal.
var ErrDateOutOfRange = errors.New("date before 0001-01-01")

// Task is the suite selected for a day.
type Task struct {
	// Index is the position of Name in the sorted listing.
	Index int `json:"index"`
	// Name is the suite's base name, e.g. "testsuite.netedit.daily.2".
	Name string `json:"name"`
	// ID is the texttest application id, e.g. "netedit.daily.2".
	ID string `json:"id"`
}

// Ordinal returns the proleptic Gregorian ordinal of t's calendar date in
// t's location, where 0001-01-01 is day 1.
func Ordinal(t time.Time) int {
	y, m, d := t.Date()
	// Midnight UTC of the same calendar date is an exact multiple of a day.
	days := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay
	return int(days) + unixEpochOrdinal
}

// List returns the names of the daily suites under the texttest home
// directory, sorted lexicographically. A missing directory yields an empty
// list.
func List(home string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(home, AppDir, Pattern))
	if err != nil {
		return nil, errors.Wrap(err, "bad suite pattern")
	}
	names := make([]string, 0, len(paths))
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	sort.Strings(names)
	return names, nil
}

// Select returns the task for day among names, which must already be
// sorted. ErrNoTasks is returned for an empty list and ErrDateOutOfRange for
// a day before 0001-01-01.
func Select(names []string, day time.Time) (*Task, error) {
	if len(names) == 0 {
		return nil, ErrNoTasks
	}
	ord := Ordinal(day)
	if ord < 1 {
		return nil, errors.Wrapf(ErrDateOutOfRange, "%s", day.Format("2006-01-02"))
	}
	idx := ord % len(names)
	name := names[idx]
	id := name
	if len(id) > len(idPrefix) {
		id = id[len(idPrefix):]
	}
	return &Task{Index: idx, Name: name, ID: id}, nil
}

// Selector selects the task for the current day using a replaceable clock.
type Selector struct {
	Home  string      // texttest home, i.e. TEXTTEST_HOME
	Clock clock.Clock // source of "today"
}

// NewSelector returns a Selector for home using the real clock.
func NewSelector(home string) *Selector {
	return &Selector{Home: home, Clock: clock.NewClock()}
}

// Today lists the suites and selects the one for the current local date.
func (s *Selector) Today(ctx context.Context) (*Task, error) {
	return s.For(ctx, s.Clock.Now())
}

// For lists the suites and selects the one for day.
func (s *Selector) For(ctx context.Context, day time.Time) (*Task, error) {
	names, err := List(s.Home)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		if _, err := os.Stat(filepath.Join(s.Home, AppDir)); err != nil {
			logging.Debugf(ctx, "Suite directory unavailable: %v", err)
		}
		return nil, errors.Wrapf(ErrNoTasks, "in %s", filepath.Join(s.Home, AppDir))
	}
	t, err := Select(names, day)
	if err != nil {
		return nil, err
	}
	logging.Debugf(ctx, "Day %d: %d suites available, picked #%d %s", Ordinal(day), len(names), t.Index, t.Name)
	return t, nil
}
