// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
	"gopkg.in/natefinch/lumberjack.v2"

	"go.chromium.org/dailytest/errors"
)

const (
	// DefaultBackups is the number of rotated log files kept next to the
	// active one.
	DefaultBackups = 5

	maxSizeMB = 100 // size cap per file; rotation is normally by day
)

// RotatingFileSink is a Sink writing to a file that is rotated when the
// local calendar day changes. At most a fixed number of old files is kept.
type RotatingFileSink struct {
	clk clock.Clock

	mu  sync.Mutex
	lj  *lumberjack.Logger
	day time.Time // local midnight of the day the active file belongs to
}

// NewRotatingFileSink opens path for appending. The parent directory is
// created if needed. If the existing file was last written on an earlier day
// it is rotated on the first Log call.
func NewRotatingFileSink(path string, backups int, clk clock.Clock) (*RotatingFileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create log directory")
	}
	// lumberjack opens lazily; open once here so errors surface now.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open log file %s", path)
	}
	fi, err := f.Stat()
	f.Close()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat log file %s", path)
	}

	day := midnight(clk.Now())
	if fi.Size() > 0 {
		day = midnight(fi.ModTime())
	}
	return &RotatingFileSink{
		clk: clk,
		lj: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSizeMB,
			MaxBackups: backups,
			LocalTime:  true,
		},
		day: day,
	}, nil
}

// Log appends msg as a line, rotating first if the day has changed.
// Write errors are dropped.
func (s *RotatingFileSink) Log(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if today := midnight(s.clk.Now()); today.After(s.day) {
		s.lj.Rotate()
		s.day = today
	}
	fmt.Fprintln(s.lj, msg)
}

// Close closes the active file.
func (s *RotatingFileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lj.Close()
}

func midnight(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}
