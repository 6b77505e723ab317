// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"sync"
)

// ChannelReporter implements Reporter using a buffered channel.
// Events are delivered in the order they were reported.
type ChannelReporter struct {
	ch     chan Event
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	once   sync.Once
}

// NewChannelReporter creates a new ChannelReporter with the specified buffer size.
// Sizing the buffer to the number of jobs guarantees no event is dropped.
func NewChannelReporter(bufferSize int) *ChannelReporter {
	return &ChannelReporter{
		ch: make(chan Event, bufferSize),
	}
}

// Report implements Reporter.
// The event is dropped if the reporter is closed or its buffer is full.
func (cr *ChannelReporter) Report(event Event) {
	cr.mu.RLock()
	defer cr.mu.RUnlock()

	if cr.closed {
		return
	}

	select {
	case cr.ch <- event:
	default:
	}
}

// Close implements Reporter.
// It waits for listeners to drain the events already buffered.
func (cr *ChannelReporter) Close() {
	cr.once.Do(func() {
		cr.mu.Lock()
		cr.closed = true
		close(cr.ch)
		cr.mu.Unlock()

		cr.wg.Wait()
	})
}

// Listen forwards events to listener on a new goroutine until the reporter is closed.
// Only one listener should be attached; use Listeners to fan out.
func (cr *ChannelReporter) Listen(listener Listener) {
	cr.wg.Add(1)

	go func() {
		defer cr.wg.Done()

		for event := range cr.ch {
			listener.OnEvent(event)
		}
	}()
}

// Events returns the event channel, for callers that prefer to range over it.
func (cr *ChannelReporter) Events() <-chan Event {
	return cr.ch
}
