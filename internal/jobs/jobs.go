// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package jobs

import (
	"fmt"
	"time"
)

// Job is one instantiated command. It is never mutated after creation.
type Job struct {
	Index    int    // Position in the argument sequence, starting at 0.
	Argument string // The argument substituted into the template.
	Command  string // The template with every placeholder replaced.
}

// New creates a Job.
func New(index int, argument, command string) Job {
	return Job{
		Index:    index,
		Argument: argument,
		Command:  command,
	}
}

// String implements fmt.Stringer.
func (j Job) String() string {
	return fmt.Sprintf("#%d %q", j.Index, j.Command)
}

// Status is the classification of a finished job.
type Status int

const (
	// StatusUnknown is the zero value and is never recorded.
	StatusUnknown Status = iota
	// StatusSuccess means the child exited with code 0.
	StatusSuccess
	// StatusFailure means the child exited with a nonzero code.
	StatusFailure
	// StatusSignaled means the child was terminated by a signal.
	StatusSignaled
	// StatusLaunchError means the interpreter could not be started for this job.
	StatusLaunchError
	// StatusCancelled means the job was never dispatched because the run stopped early.
	StatusCancelled
	// StatusSkipped means the user declined the job in interactive mode.
	StatusSkipped
	// StatusDryRun means the command was printed instead of executed.
	StatusDryRun
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusSignaled:
		return "signaled"
	case StatusLaunchError:
		return "launch-error"
	case StatusCancelled:
		return "cancelled"
	case StatusSkipped:
		return "skipped"
	case StatusDryRun:
		return "dry-run"
	default:
		return "unknown"
	}
}

// IsFailure reports whether the status counts towards the failed total of a run.
// Skipped and dry-run jobs were not meant to run, so they are not failures.
func (s Status) IsFailure() bool {
	switch s {
	case StatusSuccess, StatusSkipped, StatusDryRun:
		return false
	default:
		return true
	}
}

// Outcome is the terminal result of a single Job.
type Outcome struct {
	Job
	Status   Status
	ExitCode int           // Child exit code, -1 when there is none.
	Signal   string        // Signal name when Status is StatusSignaled.
	Err      error         // Launch or IO error, nil for a clean exit of any code.
	Stdout   []byte        // Captured stdout, empty when output is inherited.
	Stderr   []byte        // Captured stderr, empty when output is inherited.
	Start    time.Time     // When the child was started.
	Duration time.Duration // Wall time of the child.
}

// NewCancelled returns the outcome recorded for a job that never ran.
func NewCancelled(j Job) Outcome {
	return Outcome{
		Job:      j,
		Status:   StatusCancelled,
		ExitCode: -1,
	}
}

// NewSkipped returns the outcome recorded for a job the user declined.
func NewSkipped(j Job) Outcome {
	return Outcome{
		Job:    j,
		Status: StatusSkipped,
	}
}

// Describe returns a short human readable description of the outcome, e.g. "exit code 2".
func (o Outcome) Describe() string {
	switch o.Status {
	case StatusFailure:
		return fmt.Sprintf("exit code %d", o.ExitCode)
	case StatusSignaled:
		return "terminated by signal " + o.Signal
	case StatusLaunchError:
		if o.Err != nil {
			return "launch error: " + o.Err.Error()
		}

		return "launch error"
	default:
		return o.Status.String()
	}
}
