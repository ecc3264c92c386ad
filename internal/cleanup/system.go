// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package cleanup

import (
	"context"

	"github.com/shirou/gopsutil/v3/process"
)

// systemLister lists the processes of the local host via gopsutil.
type systemLister struct{}

func (systemLister) Processes(ctx context.Context) ([]Process, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]Process, len(procs))
	for i, p := range procs {
		res[i] = &systemProcess{p}
	}
	return res, nil
}

// systemProcess adapts *process.Process to Process.
type systemProcess struct {
	p *process.Process
}

func (s *systemProcess) Pid() int32 { return s.p.Pid }

func (s *systemProcess) Name(ctx context.Context) (string, error) {
	return s.p.NameWithContext(ctx)
}

func (s *systemProcess) Kill(ctx context.Context) error {
	return s.p.KillWithContext(ctx)
}
