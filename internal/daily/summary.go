// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package daily

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"go.chromium.org/dailytest/errors"
	"go.chromium.org/dailytest/internal/cleanup"
	"go.chromium.org/dailytest/internal/logging"
	"go.chromium.org/dailytest/internal/schedule"
	"go.chromium.org/dailytest/internal/texttest"
	"go.chromium.org/dailytest/internal/timing"
)

const (
	dateLayout    = "2006-01-02"
	summarySuffix = ".summary.json"
)

// Step is the record of one child process in the summary.
type Step struct {
	Name     string    `json:"name"`
	Args     []string  `json:"args"`
	Start    time.Time `json:"start"`
	Seconds  float64   `json:"seconds"`
	ExitCode int       `json:"exitCode"`
	Lines    int       `json:"lines"`
	Error    string    `json:"error,omitempty"`
}

func newStep(name string, o *texttest.Outcome) *Step {
	st := &Step{
		Name:     name,
		Args:     o.Args,
		Start:    o.Start,
		Seconds:  o.Duration.Seconds(),
		ExitCode: o.ExitCode,
		Lines:    o.Lines,
	}
	if o.Err != nil {
		st.Error = o.Err.Error()
	}
	return st
}

// Failed reports whether the process failed to run or exited non-zero.
func (st *Step) Failed() bool {
	return st.Error != "" || st.ExitCode != 0
}

// Summary records one nightly run.
type Summary struct {
	RunID     string            `json:"runId"`
	Date      string            `json:"date"`
	Revision  string            `json:"revision"`
	Task      *schedule.Task    `json:"task,omitempty"`
	Steps     []*Step           `json:"steps"`
	Cleanups  []*cleanup.Report `json:"cleanups"`
	LogStatus logging.Status    `json:"log"`
	Timing    *timing.Log       `json:"timing"`
}

// Failed reports whether a suite was selected and any of its steps failed,
// or whether no suite could be selected at all.
func (s *Summary) Failed() bool {
	if s.Task == nil {
		return true
	}
	for _, st := range s.Steps {
		if st.Failed() {
			return true
		}
	}
	return false
}

func (s *Summary) fileName(day time.Time) string {
	return texttest.BatchName(day, s.Revision) + summarySuffix
}

// Write writes s as indented JSON to name in dir.
func (s *Summary) Write(dir, name string) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal summary")
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, append(b, '\n'), 0644); err != nil {
		return errors.Wrap(err, "failed to write summary")
	}
	return nil
}

func logTiming(ctx context.Context, tl *timing.Log) {
	var b bytes.Buffer
	if err := tl.WritePretty(&b); err != nil {
		return
	}
	logging.Debug(ctx, "Timing: ", b.String())
}
