// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package result

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/matt-FFFFFF/fanout/internal/jobs"
	"github.com/matt-FFFFFF/fanout/internal/progress"
)

var (
	// ErrInternal is the parent of every scheduling invariant violation.
	ErrInternal = errors.New("internal error")
	// ErrDuplicateOutcome is returned when an index is recorded more than once.
	ErrDuplicateOutcome = fmt.Errorf("%w: duplicate outcome", ErrInternal)
	// ErrIndexOutOfRange is returned when an outcome refers to an index outside the run.
	ErrIndexOutOfRange = fmt.Errorf("%w: index out of range", ErrInternal)
	// ErrNotComplete is returned by Finalize while outcomes are still missing.
	ErrNotComplete = errors.New("run is not complete")
)

// Aggregator collects outcomes for one run.
type Aggregator struct {
	mu       sync.Mutex
	res      *RunResult
	jobs     []jobs.Job
	reporter progress.Reporter
	final    bool
	now      func() time.Time
}

// NewAggregator creates an Aggregator for the given jobs.
// The jobs are only used to fill in outcomes for work that is cancelled before it is
// dispatched. An empty runID generates a new one and a nil reporter means progress.NullReporter.
func NewAggregator(runID string, all []jobs.Job, reporter progress.Reporter) *Aggregator {
	if reporter == nil {
		reporter = progress.NewNullReporter()
	}

	if runID == "" {
		runID = uuid.NewString()
	}

	return &Aggregator{
		res: &RunResult{
			RunID:    runID,
			Total:    len(all),
			Outcomes: make(map[int]jobs.Outcome, len(all)),
		},
		jobs:     all,
		reporter: reporter,
		now:      time.Now,
	}
}

// RunID returns the identifier of the run being aggregated.
func (a *Aggregator) RunID() string {
	return a.res.RunID
}

// Record stores one outcome and emits a progress event.
// It returns an error wrapping ErrInternal if the index is unknown or already recorded.
func (a *Aggregator) Record(o jobs.Outcome) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.record(o)
}

// record must be called with the lock held.
func (a *Aggregator) record(o jobs.Outcome) error {
	if o.Index < 0 || o.Index >= a.res.Total {
		return fmt.Errorf("%w: index %d, total %d", ErrIndexOutOfRange, o.Index, a.res.Total)
	}

	if _, ok := a.res.Outcomes[o.Index]; ok {
		return fmt.Errorf("%w: index %d", ErrDuplicateOutcome, o.Index)
	}

	a.res.Outcomes[o.Index] = o
	a.res.Completed++

	if o.Status.IsFailure() {
		a.res.Failed++
	}

	// Reported under the lock so that listeners see Completed strictly increasing.
	a.reporter.Report(progress.Event{
		Completed: a.res.Completed,
		Failed:    a.res.Failed,
		Total:     a.res.Total,
		Outcome:   o,
		Timestamp: a.now(),
	})

	return nil
}

// CancelRemaining records a cancelled outcome for every index without one.
// It returns the number of indices it marked.
func (a *Aggregator) CancelRemaining() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := 0

	for _, j := range a.jobs {
		if _, ok := a.res.Outcomes[j.Index]; ok {
			continue
		}

		if err := a.record(jobs.NewCancelled(j)); err == nil {
			n++
		}
	}

	return n
}

// Completed returns the number of outcomes recorded so far.
func (a *Aggregator) Completed() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.res.Completed
}

// Finalize returns the frozen RunResult once every job has reported.
// Later calls return the same value.
func (a *Aggregator) Finalize() (*RunResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.final {
		return a.res, nil
	}

	if a.res.Completed != a.res.Total {
		return nil, fmt.Errorf("%w: %d of %d outcomes recorded", ErrNotComplete, a.res.Completed, a.res.Total)
	}

	a.final = true

	return a.res, nil
}
