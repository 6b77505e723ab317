// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package launcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/matt-FFFFFF/fanout/internal/jobs"
)

// DryRun prints each command instead of running it.
type DryRun struct {
	w io.Writer
}

// NewDryRun returns a DryRun printing to w, or stdout when w is nil.
func NewDryRun(w io.Writer) *DryRun {
	if w == nil {
		w = os.Stdout
	}

	return &DryRun{w: shareWriter(w)}
}

// Launch writes the command on its own line and records a dry-run outcome.
func (d *DryRun) Launch(_ context.Context, job jobs.Job) jobs.Outcome {
	out := jobs.Outcome{
		Job:    job,
		Status: jobs.StatusDryRun,
		Start:  time.Now(),
	}

	if _, err := fmt.Fprintln(d.w, job.Command); err != nil {
		out.Err = err
	}

	return out
}
