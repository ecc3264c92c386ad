// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package texttest

import (
	"time"

	"go.chromium.org/dailytest/internal/config"
	"go.chromium.org/dailytest/internal/schedule"
)

// batchDateLayout formats the run date in batch names, e.g. "18Oct26".
const batchDateLayout = "02Jan06"

// BatchName names the batch of a run on day at revision rev, e.g.
// "18Oct26rv1_20_0+0123-abcdef0".
func BatchName(day time.Time, rev string) string {
	return day.Format(batchDateLayout) + "r" + rev
}

// RunArgs returns the command line running task as a batch session.
func RunArgs(cfg *config.Config, task *schedule.Task, rev string, day time.Time) []string {
	return []string{cfg.Texttest(), "-b", cfg.Prefix(), "-a", task.ID, "-name", BatchName(day, rev)}
}

// CollectArgs returns the command line collecting the batch results of all
// variants sharing the file prefix into the report.
func CollectArgs(cfg *config.Config) []string {
	return []string{cfg.Texttest(), "-b", cfg.FilePrefix(), "-coll"}
}
