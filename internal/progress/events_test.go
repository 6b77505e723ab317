// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestEvent_Fraction(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  float64
		done  bool
	}{
		{name: "empty run", event: Event{}, want: 1, done: true},
		{name: "half way", event: Event{Completed: 2, Total: 4}, want: 0.5},
		{name: "complete", event: Event{Completed: 3, Total: 3}, want: 1, done: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.event.Fraction(), 0.0001)
			assert.Equal(t, tt.done, tt.event.Done())
		})
	}
}

func TestNullReporter(t *testing.T) {
	reporter := NewNullReporter()
	require.NotNil(t, reporter)

	reporter.Report(Event{Completed: 1, Total: 1})
	reporter.Close()
}

func TestListeners(t *testing.T) {
	var got []int

	ls := Listeners{
		ListenerFunc(func(e Event) { got = append(got, e.Completed) }),
		nil,
		ListenerFunc(func(e Event) { got = append(got, e.Completed*10) }),
	}

	ls.OnEvent(Event{Completed: 2, Total: 2})

	assert.Equal(t, []int{2, 20}, got)
}

type recordingListener struct {
	mu     sync.Mutex
	events []Event
}

func (rl *recordingListener) OnEvent(event Event) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.events = append(rl.events, event)
}

func TestChannelReporter_Listen(t *testing.T) {
	defer goleak.VerifyNone(t)

	reporter := NewChannelReporter(10)
	listener := &recordingListener{}
	reporter.Listen(listener)

	for i := 1; i <= 5; i++ {
		reporter.Report(Event{Completed: i, Total: 5, Timestamp: time.Now()})
	}

	reporter.Close()

	require.Len(t, listener.events, 5, "Close must drain buffered events")

	for i, e := range listener.events {
		assert.Equal(t, i+1, e.Completed, "events must arrive in report order")
	}
}

func TestChannelReporter_DropsWhenFull(t *testing.T) {
	defer goleak.VerifyNone(t)

	reporter := NewChannelReporter(1)

	reporter.Report(Event{Completed: 1})
	reporter.Report(Event{Completed: 2}) // must not block

	listener := &recordingListener{}
	reporter.Listen(listener)
	reporter.Close()

	require.Len(t, listener.events, 1)
	assert.Equal(t, 1, listener.events[0].Completed)
}

func TestChannelReporter_ReportAfterClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	reporter := NewChannelReporter(1)
	reporter.Close()
	reporter.Close()

	assert.NotPanics(t, func() {
		reporter.Report(Event{Completed: 1})
	})

	_, ok := <-reporter.Events()
	assert.False(t, ok, "events channel should be closed")
}

func TestChannelReporter_ConcurrentReport(t *testing.T) {
	defer goleak.VerifyNone(t)

	reporter := NewChannelReporter(100)
	listener := &recordingListener{}
	reporter.Listen(listener)

	var wg sync.WaitGroup

	for i := range 100 {
		wg.Add(1)

		go func() {
			defer wg.Done()
			reporter.Report(Event{Completed: i})
		}()
	}

	wg.Wait()
	reporter.Close()

	assert.Len(t, listener.events, 100)
}
