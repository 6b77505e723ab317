// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"time"

	"github.com/matt-FFFFFF/fanout/internal/jobs"
)

// Event is emitted every time a job outcome is recorded.
type Event struct {
	Completed int          // Outcomes recorded so far, including this one.
	Failed    int          // Failed outcomes recorded so far.
	Total     int          // Number of jobs in the run.
	Outcome   jobs.Outcome // The outcome that triggered the event.
	Timestamp time.Time    // When the outcome was recorded.
}

// Fraction returns Completed/Total in the range [0, 1]. An empty run is complete.
func (e Event) Fraction() float64 {
	if e.Total <= 0 {
		return 1
	}

	return float64(e.Completed) / float64(e.Total)
}

// Done reports whether this is the last event of the run.
func (e Event) Done() bool {
	return e.Completed >= e.Total
}

// Reporter is the producer side of progress reporting.
type Reporter interface {
	// Report sends an event. Implementations must not block.
	Report(event Event)
	// Close signals that no more events will be sent.
	Close()
}

// Listener is the consumer side of progress reporting.
type Listener interface {
	// OnEvent is called once per delivered event, from a single goroutine.
	OnEvent(event Event)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(Event)

// OnEvent implements Listener.
func (f ListenerFunc) OnEvent(event Event) {
	f(event)
}

// Listeners delivers each event to every listener in order.
type Listeners []Listener

// OnEvent implements Listener.
func (ls Listeners) OnEvent(event Event) {
	for _, l := range ls {
		if l != nil {
			l.OnEvent(event)
		}
	}
}

// NullReporter is a no-op Reporter, used when nothing consumes progress.
type NullReporter struct{}

// Report implements Reporter by doing nothing.
func (NullReporter) Report(Event) {}

// Close implements Reporter by doing nothing.
func (NullReporter) Close() {}

// NewNullReporter creates a new NullReporter.
func NewNullReporter() Reporter {
	return NullReporter{}
}
