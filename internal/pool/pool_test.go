// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matt-FFFFFF/fanout/internal/cmdtemplate"
	"github.com/matt-FFFFFF/fanout/internal/jobs"
	"github.com/matt-FFFFFF/fanout/internal/progress"
	"github.com/matt-FFFFFF/fanout/internal/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// fakeLauncher records the order of launches and how many ran at once.
type fakeLauncher struct {
	delay     time.Duration
	fail      map[string]bool
	inFlight  atomic.Int32
	maxFlight atomic.Int32
	mu        sync.Mutex
	order     []int
	preflight error
	block     bool
}

func (f *fakeLauncher) Preflight() error {
	return f.preflight
}

func (f *fakeLauncher) Launch(ctx context.Context, job jobs.Job) jobs.Outcome {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)

	for {
		m := f.maxFlight.Load()
		if n <= m || f.maxFlight.CompareAndSwap(m, n) {
			break
		}
	}

	f.mu.Lock()
	f.order = append(f.order, job.Index)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return jobs.Outcome{Job: job, Status: jobs.StatusSignaled, Signal: "interrupt", ExitCode: -1}
	}

	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
	}

	if f.fail[job.Argument] {
		return jobs.Outcome{Job: job, Status: jobs.StatusFailure, ExitCode: 1}
	}

	return jobs.Outcome{Job: job, Status: jobs.StatusSuccess}
}

func (f *fakeLauncher) launched() []int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]int(nil), f.order...)
}

func mustTemplate(t *testing.T, text string) *cmdtemplate.Template {
	t.Helper()

	tmpl, err := cmdtemplate.New(text, "")
	require.NoError(t, err)

	return tmpl
}

func argsN(n int) []string {
	args := make([]string, n)
	for i := range args {
		args[i] = fmt.Sprintf("arg%d", i)
	}

	return args
}

func TestNew_Validation(t *testing.T) {
	tmpl := mustTemplate(t, "echo {}")

	_, err := New(nil, &fakeLauncher{})
	require.ErrorIs(t, err, ErrNilTemplate)

	_, err = New(tmpl, nil)
	require.ErrorIs(t, err, ErrNilLauncher)

	_, err = New(tmpl, &fakeLauncher{}, WithWorkers(-1))
	require.ErrorIs(t, err, ErrInvalidWorkers)
}

func TestPool_Workers(t *testing.T) {
	tmpl := mustTemplate(t, "echo {}")

	tests := []struct {
		name       string
		configured int
		jobs       int
		want       int
	}{
		{"fewer jobs than workers", 8, 3, 3},
		{"more jobs than workers", 2, 10, 2},
		{"zero means one per job", 0, 5, 5},
		{"no jobs still one worker", 4, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tmpl, &fakeLauncher{}, WithWorkers(tt.configured))
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Workers(tt.jobs))
		})
	}
}

func TestRun_AllSucceed(t *testing.T) {
	defer goleak.VerifyNone(t)

	fl := &fakeLauncher{}
	p, err := New(mustTemplate(t, "echo {}"), fl, WithWorkers(2))
	require.NoError(t, err)

	res, err := p.Run(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 3, res.Completed)
	assert.True(t, res.Success())
	assert.Equal(t, 0, res.ExitCode())

	for i, o := range res.Ordered() {
		assert.Equal(t, i, o.Index)
		assert.Equal(t, "echo "+o.Argument, o.Command)
	}
}

func TestRun_BoundedConcurrency(t *testing.T) {
	defer goleak.VerifyNone(t)

	fl := &fakeLauncher{delay: 20 * time.Millisecond}
	p, err := New(mustTemplate(t, "run {}"), fl, WithWorkers(3))
	require.NoError(t, err)

	res, err := p.Run(context.Background(), argsN(20))
	require.NoError(t, err)
	assert.Equal(t, 20, res.Completed)
	assert.LessOrEqual(t, fl.maxFlight.Load(), int32(3))
	assert.Equal(t, int32(3), fl.maxFlight.Load())
}

func TestRun_SingleWorkerIsSequential(t *testing.T) {
	defer goleak.VerifyNone(t)

	fl := &fakeLauncher{}
	p, err := New(mustTemplate(t, "run {}"), fl, WithWorkers(1))
	require.NoError(t, err)

	_, err = p.Run(context.Background(), argsN(10))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, fl.launched())
	assert.Equal(t, int32(1), fl.maxFlight.Load())
}

func TestRun_FailureDoesNotStopOthers(t *testing.T) {
	defer goleak.VerifyNone(t)

	fl := &fakeLauncher{fail: map[string]bool{"b": true}}
	p, err := New(mustTemplate(t, "run {}"), fl, WithWorkers(1))
	require.NoError(t, err)

	res, err := p.Run(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Completed)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.ExitCode())
	assert.Equal(t, jobs.StatusSuccess, res.Outcomes[2].Status)
	require.ErrorIs(t, res.Err(), result.ErrJobFailed)
}

func TestRun_HaltOnError(t *testing.T) {
	defer goleak.VerifyNone(t)

	fl := &fakeLauncher{fail: map[string]bool{"b": true}}
	p, err := New(mustTemplate(t, "run {}"), fl, WithWorkers(1), WithHaltOnError(true))
	require.NoError(t, err)

	res, err := p.Run(context.Background(), []string{"a", "b", "c", "d"})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Completed)
	assert.Equal(t, []int{0, 1}, fl.launched())
	assert.Equal(t, jobs.StatusFailure, res.Outcomes[1].Status)
	assert.Equal(t, jobs.StatusCancelled, res.Outcomes[2].Status)
	assert.Equal(t, jobs.StatusCancelled, res.Outcomes[3].Status)
	assert.Equal(t, 3, res.Failed)
}

func TestRun_Empty(t *testing.T) {
	defer goleak.VerifyNone(t)

	fl := &fakeLauncher{}
	p, err := New(mustTemplate(t, "echo {}"), fl)
	require.NoError(t, err)

	res, err := p.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)
	assert.True(t, res.Success())
	assert.Empty(t, fl.launched())
}

func TestRun_PreflightFailure(t *testing.T) {
	errNoShell := errors.New("no shell")
	fl := &fakeLauncher{preflight: errNoShell}
	p, err := New(mustTemplate(t, "echo {}"), fl)
	require.NoError(t, err)

	res, err := p.Run(context.Background(), []string{"a"})
	require.ErrorIs(t, err, errNoShell)
	assert.Nil(t, res)
	assert.Empty(t, fl.launched())
}

func TestRun_Cancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	fl := &fakeLauncher{block: true}
	p, err := New(mustTemplate(t, "sleep {}"), fl, WithWorkers(2))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	res, err := p.Run(ctx, argsN(5))
	require.ErrorIs(t, err, ErrCancelled)
	require.NotNil(t, res)
	assert.Equal(t, 5, res.Completed)
	assert.Equal(t, 5, res.Failed)
	assert.Equal(t, 2, res.Count(jobs.StatusSignaled))
	assert.Equal(t, 3, res.Count(jobs.StatusCancelled))
}

func TestRun_Confirmer(t *testing.T) {
	defer goleak.VerifyNone(t)

	var asked []int

	confirm := ConfirmerFunc(func(_ context.Context, job jobs.Job) (bool, error) {
		asked = append(asked, job.Index)
		return job.Index != 1, nil
	})

	fl := &fakeLauncher{}
	p, err := New(mustTemplate(t, "echo {}"), fl, WithWorkers(3), WithConfirmer(confirm))
	require.NoError(t, err)

	res, err := p.Run(context.Background(), argsN(4))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, asked)
	assert.Equal(t, jobs.StatusSkipped, res.Outcomes[1].Status)
	assert.True(t, res.Success())
	assert.NotContains(t, fl.launched(), 1)
}

func TestRun_ConfirmerError(t *testing.T) {
	defer goleak.VerifyNone(t)

	errEOF := errors.New("eof")
	confirm := ConfirmerFunc(func(_ context.Context, job jobs.Job) (bool, error) {
		if job.Index == 2 {
			return false, errEOF
		}

		return true, nil
	})

	p, err := New(mustTemplate(t, "echo {}"), &fakeLauncher{}, WithWorkers(1), WithConfirmer(confirm))
	require.NoError(t, err)

	res, err := p.Run(context.Background(), argsN(4))
	require.ErrorIs(t, err, ErrConfirmation)
	require.ErrorIs(t, err, errEOF)
	require.NotNil(t, res)
	assert.Equal(t, jobs.StatusCancelled, res.Outcomes[2].Status)
	assert.Equal(t, jobs.StatusCancelled, res.Outcomes[3].Status)
}

// badLauncher reports every outcome against index 0.
type badLauncher struct{}

func (badLauncher) Launch(_ context.Context, job jobs.Job) jobs.Outcome {
	job.Index = 0
	return jobs.Outcome{Job: job, Status: jobs.StatusSuccess}
}

func TestRun_InternalError(t *testing.T) {
	defer goleak.VerifyNone(t)

	p, err := New(mustTemplate(t, "echo {}"), badLauncher{}, WithWorkers(1))
	require.NoError(t, err)

	res, err := p.Run(context.Background(), argsN(3))
	require.ErrorIs(t, err, result.ErrInternal)
	require.ErrorIs(t, err, result.ErrDuplicateOutcome)
	require.NotNil(t, res)
}

func TestRun_ProgressMonotonic(t *testing.T) {
	defer goleak.VerifyNone(t)

	rep := progress.NewChannelReporter(100)

	var (
		mu     sync.Mutex
		events []progress.Event
	)

	rep.Listen(progress.ListenerFunc(func(e progress.Event) {
		mu.Lock()
		defer mu.Unlock()

		events = append(events, e)
	}))

	fl := &fakeLauncher{delay: time.Millisecond}
	p, err := New(mustTemplate(t, "echo {}"), fl, WithWorkers(4), WithReporter(rep), WithRunID("run"))
	require.NoError(t, err)

	res, err := p.Run(context.Background(), argsN(25))
	require.NoError(t, err)
	assert.Equal(t, "run", res.RunID)

	rep.Close()

	mu.Lock()
	defer mu.Unlock()

	require.Len(t, events, 25)

	for i, e := range events {
		assert.Equal(t, i+1, e.Completed)
		assert.Equal(t, 25, e.Total)
	}
}

func TestRun_EveryIndexExactlyOnce(t *testing.T) {
	defer goleak.VerifyNone(t)

	fl := &fakeLauncher{}
	p, err := New(mustTemplate(t, "echo {}"), fl, WithWorkers(8))
	require.NoError(t, err)

	res, err := p.Run(context.Background(), argsN(200))
	require.NoError(t, err)
	assert.Len(t, res.Outcomes, 200)
	assert.ElementsMatch(t, fl.launched(), func() []int {
		s := make([]int, 200)
		for i := range s {
			s[i] = i
		}

		return s
	}())
}
