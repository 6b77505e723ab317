// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package result

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/fanout/internal/jobs"
)

// ErrJobFailed wraps the error reported for each failed job by RunResult.Err.
var ErrJobFailed = errors.New("job failed")

// RunResult is the aggregate of all outcomes of one run.
// It is read-only once returned by Aggregator.Finalize.
type RunResult struct {
	RunID     string
	Total     int
	Completed int
	Failed    int
	Outcomes  map[int]jobs.Outcome
}

// Success reports whether no job failed.
func (r *RunResult) Success() bool {
	return r.Failed == 0
}

// ExitCode returns the process exit code for the run: 0 on success, 1 otherwise.
func (r *RunResult) ExitCode() int {
	if r.Success() {
		return 0
	}

	return 1
}

// Ordered returns the outcomes sorted by ascending index.
func (r *RunResult) Ordered() []jobs.Outcome {
	out := make([]jobs.Outcome, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		out = append(out, o)
	}

	slices.SortFunc(out, func(a, b jobs.Outcome) int {
		return a.Index - b.Index
	})

	return out
}

// Count returns how many outcomes have the given status.
func (r *RunResult) Count(s jobs.Status) int {
	n := 0

	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}

	return n
}

// Err returns a *multierror.Error with one entry per failed job, in index order,
// or nil when the run succeeded.
func (r *RunResult) Err() error {
	var errs *multierror.Error

	for _, o := range r.Ordered() {
		if !o.Status.IsFailure() {
			continue
		}

		err := fmt.Errorf("%w: %s: %s", ErrJobFailed, o.Job, o.Describe())
		if o.Err != nil && o.Status != jobs.StatusLaunchError {
			err = errors.Join(err, o.Err)
		}

		errs = multierror.Append(errs, err)
	}

	return errs.ErrorOrNil()
}
