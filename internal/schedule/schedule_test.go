// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package schedule_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"code.cloudfoundry.org/clock/fakeclock"
	"github.com/google/go-cmp/cmp"

	"go.chromium.org/dailytest/errors"
	"go.chromium.org/dailytest/internal/schedule"
	"go.chromium.org/dailytest/testutil"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 30, 0, 0, time.Local)
}

func TestOrdinal(t *testing.T) {
	for _, tc := range []struct {
		day  time.Time
		want int
	}{
		{time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC), 1},
		{time.Date(1970, 1, 1, 23, 59, 59, 0, time.UTC), 719163},
		{date(2000, 2, 29), 730179},
		{date(2026, 10, 18), 739907},
		{time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC), 3652059},
	} {
		if got := schedule.Ordinal(tc.day); got != tc.want {
			t.Errorf("Ordinal(%v) = %d; want %d", tc.day, got, tc.want)
		}
	}
}

func TestSelect(t *testing.T) {
	names := []string{
		"testsuite.netedit.daily.1",
		"testsuite.netedit.daily.2",
		"testsuite.netedit.daily.3",
	}
	// 739906 % 3 == 1
	got, err := schedule.Select(names, date(2026, 10, 17))
	if err != nil {
		t.Fatal("Select: ", err)
	}
	want := &schedule.Task{Index: 1, Name: "testsuite.netedit.daily.2", ID: "netedit.daily.2"}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Select mismatch (-got +want):\n%s", diff)
	}
}

func TestSelectEmpty(t *testing.T) {
	if _, err := schedule.Select(nil, date(2026, 10, 18)); !errors.Is(err, schedule.ErrNoTasks) {
		t.Errorf("Select(nil) = %v; want ErrNoTasks", err)
	}
}

func TestList(t *testing.T) {
	td := testutil.TempDir(t)
	if err := testutil.MakeDirs(td,
		"netedit/testsuite.netedit.daily.3",
		"netedit/testsuite.netedit.daily.10",
		"netedit/other"); err != nil {
		t.Fatal(err)
	}
	if err := testutil.WriteFiles(td, map[string]string{
		"netedit/testsuite.netedit.daily.1": "tests\n",
		"netedit/testsuite.netedit":         "all\n",
	}); err != nil {
		t.Fatal(err)
	}

	got, err := schedule.List(td)
	if err != nil {
		t.Fatal("List: ", err)
	}
	want := []string{
		"testsuite.netedit.daily.1",
		"testsuite.netedit.daily.10",
		"testsuite.netedit.daily.3",
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("List mismatch (-got +want):\n%s", diff)
	}
}

func TestSelectBeforeYearOne(t *testing.T) {
	names := []string{"testsuite.netedit.daily.a", "testsuite.netedit.daily.b", "testsuite.netedit.daily.c"}
	for _, day := range []time.Time{
		time.Date(0, 6, 2, 0, 0, 0, 0, time.Local),
		time.Date(0, 12, 31, 23, 0, 0, 0, time.UTC),
		time.Date(-44, 3, 15, 0, 0, 0, 0, time.UTC),
	} {
		if task, err := schedule.Select(names, day); !errors.Is(err, schedule.ErrDateOutOfRange) {
			t.Errorf("Select(%v) = %+v, %v; want ErrDateOutOfRange", day, task, err)
		}
	}
	if task, err := schedule.Select(names, time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)); err != nil || task.Index != 1 {
		t.Errorf("Select(0001-01-01) = %+v, %v; want index 1", task, err)
	}
}

func TestSelectorToday(t *testing.T) {
	td := testutil.TempDir(t)
	if err := testutil.MakeDirs(td,
		"netedit/testsuite.netedit.daily.a",
		"netedit/testsuite.netedit.daily.b",
		"netedit/testsuite.netedit.daily.c"); err != nil {
		t.Fatal(err)
	}
	clk := fakeclock.NewFakeClock(date(2026, 10, 18)) // 739907 % 3 == 2
	sel := &schedule.Selector{Home: td, Clock: clk}

	task, err := sel.Today(context.Background())
	if err != nil {
		t.Fatal("Today: ", err)
	}
	if task.ID != "netedit.daily.c" {
		t.Errorf("Today() = %+v; want netedit.daily.c", task)
	}

	clk.Increment(24 * time.Hour)
	task, err = sel.Today(context.Background())
	if err != nil {
		t.Fatal("Today: ", err)
	}
	if task.ID != "netedit.daily.a" {
		t.Errorf("Today() on next day = %+v; want netedit.daily.a", task)
	}
}

func TestSelectorNoSuites(t *testing.T) {
	td := testutil.TempDir(t)
	sel := &schedule.Selector{Home: filepath.Join(td, "missing"), Clock: fakeclock.NewFakeClock(date(2026, 10, 18))}
	if _, err := sel.Today(context.Background()); !errors.Is(err, schedule.ErrNoTasks) {
		t.Errorf("Today() = %v; want ErrNoTasks", err)
	}
}
