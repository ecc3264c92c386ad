// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package logging

import (
	"context"
	"fmt"

	"code.cloudfoundry.org/clock"
)

// Status describes the outcome of attaching the persistent log.
type Status struct {
	// Path is the log file that was requested.
	Path string `json:"path"`
	// Persistent is true if logs are written to Path.
	Persistent bool `json:"persistent"`
	// Err is the reason the file could not be used. It is nil if Persistent.
	Err error `json:"-"`
	// Error is Err as text, for the run summary.
	Error string `json:"error,omitempty"`
}

// String returns a one-line description suitable for logs.
func (s Status) String() string {
	if s.Persistent {
		return fmt.Sprintf("logging to %s", s.Path)
	}
	return fmt.Sprintf("logging to console only; %s unavailable: %v", s.Path, s.Err)
}

// AttachPersistent is the second stage of log initialization. It tries to
// open a rotating log file at path and attach a logger writing to it on top
// of whatever is already attached to ctx (normally the console).
//
// On failure ctx is returned unchanged and the returned Status carries the
// error, so the caller can report the degradation. The returned function
// closes the file and is safe to call in both cases.
func AttachPersistent(ctx context.Context, path string, level Level, clk clock.Clock) (context.Context, Status, func() error) {
	st := Status{Path: path}
	sink, err := NewRotatingFileSink(path, DefaultBackups, clk)
	if err != nil {
		st.Err = err
		st.Error = err.Error()
		return ctx, st, func() error { return nil }
	}
	st.Persistent = true
	return AttachLogger(ctx, NewSinkLogger(level, true, sink)), st, sink.Close
}
