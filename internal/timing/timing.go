// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package timing records how long the stages of a nightly run take.
package timing

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
)

// Log contains nested timing information.
type Log struct {
	// Root is a special root stage containing all stages as its descendants.
	// Its End should not be called, and its timestamps should be ignored.
	Root *Stage
}

// NewLog returns a new Log whose stages are timed by clk.
func NewLog(clk clock.Clock) *Log {
	return &Log{Root: &Stage{clk: clk}}
}

// StartTop starts and returns a new top-level stage named name.
func (l *Log) StartTop(name string) *Stage {
	return l.Root.StartChild(name)
}

// Empty returns true if l doesn't contain any stages.
func (l *Log) Empty() bool {
	l.Root.mu.Lock()
	defer l.Root.mu.Unlock()
	return len(l.Root.Children) == 0
}

// WritePretty writes l to w as nested JSON arrays of [seconds, name,
// children], one stage per line:
//
//	[[4.000, "run", [
//	         [1.000, "kill_stale"],
//	         [3.000, "texttest"]]]]
func (l *Log) WritePretty(w io.Writer) error {
	l.Root.mu.Lock()
	defer l.Root.mu.Unlock()

	// bufio.Writer drops further writes after an error.
	bw := bufio.NewWriter(w)
	io.WriteString(bw, "[")
	for i, s := range l.Root.Children {
		// Later top-level stages line up with the first one after '['.
		var indent string
		if i > 0 {
			indent = " "
		}
		s.writePretty(bw, indent, " ", i == len(l.Root.Children)-1)
	}
	io.WriteString(bw, "]\n")
	return bw.Flush()
}

// MarshalJSON marshals Log as {"stages": [...]}.
func (l *Log) MarshalJSON() ([]byte, error) {
	l.Root.mu.Lock()
	defer l.Root.mu.Unlock()
	return json.Marshal(struct {
		Stages []*Stage `json:"stages"`
	}{l.Root.Children})
}

// Stage represents a discrete unit of work that is being timed.
type Stage struct {
	Name      string    `json:"name"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Children  []*Stage  `json:"children,omitempty"`

	clk clock.Clock
	mu  sync.Mutex // protects EndTime and Children
}

// StartChild creates and returns a new named timing stage as a child of s.
// It returns nil if s has already ended.
func (s *Stage) StartChild(name string) *Stage {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.EndTime.IsZero() {
		return nil
	}
	c := &Stage{Name: name, StartTime: s.clk.Now(), clk: s.clk}
	s.Children = append(s.Children, c)
	return c
}

// End ends the stage and any child stage still running. It is safe to call
// on a nil stage and more than once.
func (s *Stage) End() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.EndTime.IsZero() {
		return
	}
	for _, c := range s.Children {
		c.End()
	}
	s.EndTime = s.clk.Now()
}

// Duration returns the time spent in s so far.
func (s *Stage) Duration() time.Duration {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed()
}

// elapsed must be called with s.mu held.
func (s *Stage) elapsed() time.Duration {
	if s.EndTime.IsZero() {
		return s.clk.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// writePretty writes s and its children to w as a JSON array. The first
// line is indented by initialIndent and later ones by followIndent. Unless
// last, a comma and newline follow. Errors are left in w.
func (s *Stage) writePretty(w *bufio.Writer, initialIndent, followIndent string, last bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, _ := json.Marshal(s.Name)
	fmt.Fprintf(w, "%s[%0.3f, %s", initialIndent, s.elapsed().Seconds(), name)
	if len(s.Children) > 0 {
		io.WriteString(w, ", [\n")
		ci := followIndent + strings.Repeat(" ", 8)
		for i, c := range s.Children {
			c.writePretty(w, ci, ci, i == len(s.Children)-1)
		}
		io.WriteString(w, "]")
	}
	io.WriteString(w, "]")
	if !last {
		io.WriteString(w, ",\n")
	}
}
