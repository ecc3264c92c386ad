// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package logging_test

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"go.chromium.org/dailytest/internal/logging"
)

// memorySink is a Sink that accumulates logs to an in-memory buffer.
type memorySink struct {
	mu   sync.Mutex
	msgs []string
}

func (ms *memorySink) Log(msg string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.msgs = append(ms.msgs, msg)
}

func (ms *memorySink) Get() []string {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return append([]string(nil), ms.msgs...)
}

func TestSinkLogger(t *testing.T) {
	var sink memorySink
	logger := logging.NewSinkLogger(logging.LevelInfo, false, &sink)
	logger.Log(logging.LevelInfo, time.Time{}, "Running tests.")
	logger.Log(logging.LevelDebug, time.Time{}, "hidden")
	logger.Log(logging.LevelInfo, time.Time{}, "bar\nbaz")

	want := []string{"Running tests.", "bar\nbaz"}
	if diff := cmp.Diff(sink.Get(), want); diff != "" {
		t.Errorf("Messages mismatch (-got +want):\n%s", diff)
	}
}

func TestSinkLogger_Timestamp(t *testing.T) {
	var sink memorySink
	logger := logging.NewSinkLogger(logging.LevelInfo, true, &sink)
	logger.Log(logging.LevelInfo, time.Date(2026, 10, 18, 3, 4, 5, 6e6, time.Local), "foo")

	msgs := sink.Get()
	if len(msgs) != 1 {
		t.Fatalf("Unexpected number of messages: got %d, want 1", len(msgs))
	}
	if want := "2026-10-18 03:04:05.006 foo"; msgs[0] != want {
		t.Errorf("Message = %q; want %q", msgs[0], want)
	}
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := logging.NewWriterSink(&buf)
	sink.Log("a")
	sink.Log("b")
	if got, want := buf.String(), "a\nb\n"; got != want {
		t.Errorf("Written %q; want %q", got, want)
	}
}

func TestContextLogging(t *testing.T) {
	var sink memorySink
	ctx := logging.AttachLogger(context(), logging.NewSinkLogger(logging.LevelDebug, false, &sink))
	logging.Info(ctx, "a", 1)
	logging.Infof(ctx, "b%d", 2)
	logging.Debug(ctx, "c")
	logging.Debugf(ctx, "d%s", "!")
	logging.Info(logging.WithPrefix(ctx, "[texttest] "), "line")

	want := []string{"a1", "b2", "c", "d!", "[texttest] line"}
	if diff := cmp.Diff(sink.Get(), want); diff != "" {
		t.Errorf("Messages mismatch (-got +want):\n%s", diff)
	}
}

func TestAttachLoggerPropagation(t *testing.T) {
	var parent, child memorySink
	ctx := logging.AttachLogger(context(), logging.NewSinkLogger(logging.LevelInfo, false, &parent))
	logging.Info(logging.AttachLogger(ctx, logging.NewSinkLogger(logging.LevelInfo, false, &child)), "both")
	logging.Info(logging.AttachLoggerNoPropagation(ctx, logging.NewSinkLogger(logging.LevelInfo, false, &child)), "child only")

	if diff := cmp.Diff(parent.Get(), []string{"both"}); diff != "" {
		t.Errorf("Parent messages mismatch (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff(child.Get(), []string{"both", "child only"}); diff != "" {
		t.Errorf("Child messages mismatch (-got +want):\n%s", diff)
	}
}

func TestInvalidUTF8Replaced(t *testing.T) {
	var sink memorySink
	ctx := logging.AttachLogger(context(), logging.NewSinkLogger(logging.LevelInfo, false, &sink))
	// cp1252 "café" as emitted by a Windows child process.
	logging.Info(ctx, "caf\xe9 ok\xff\xfeok")
	if diff := cmp.Diff(sink.Get(), []string{"caf\uFFFD ok\uFFFDok"}); diff != "" {
		t.Errorf("Messages mismatch (-got +want):\n%s", diff)
	}
}
