// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package pool

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/matt-FFFFFF/fanout/internal/cmdtemplate"
	"github.com/matt-FFFFFF/fanout/internal/ctxlog"
	"github.com/matt-FFFFFF/fanout/internal/jobs"
	"github.com/matt-FFFFFF/fanout/internal/progress"
	"github.com/matt-FFFFFF/fanout/internal/result"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrCancelled is returned by Run when the context was cancelled before every job ran.
	// The partial result is returned alongside it.
	ErrCancelled = errors.New("run cancelled")
	// ErrInvalidWorkers is returned when the worker count is negative.
	ErrInvalidWorkers = errors.New("worker count must not be negative")
	// ErrNilTemplate is returned when the pool has no command template.
	ErrNilTemplate = errors.New("command template is nil")
	// ErrNilLauncher is returned when the pool has no launcher.
	ErrNilLauncher = errors.New("launcher is nil")
	// ErrConfirmation is returned when asking the user about a job failed.
	ErrConfirmation = errors.New("confirmation failed")
)

// Launcher runs a single job to completion.
type Launcher interface {
	Launch(ctx context.Context, job jobs.Job) jobs.Outcome
}

// Preflighter is implemented by launchers that can check their environment before the run.
type Preflighter interface {
	Preflight() error
}

// Confirmer decides whether a job should be launched.
// It is called with the dispatch lock held, so calls are serial and in index order.
type Confirmer interface {
	Confirm(ctx context.Context, job jobs.Job) (bool, error)
}

// ConfirmerFunc adapts a function to the Confirmer interface.
type ConfirmerFunc func(ctx context.Context, job jobs.Job) (bool, error)

// Confirm implements Confirmer.
func (f ConfirmerFunc) Confirm(ctx context.Context, job jobs.Job) (bool, error) {
	return f(ctx, job)
}

// Pool runs jobs with bounded concurrency.
type Pool struct {
	template    *cmdtemplate.Template
	launcher    Launcher
	workers     int
	haltOnError bool
	confirmer   Confirmer
	reporter    progress.Reporter
	runID       string
}

// Option configures a Pool.
type Option func(*Pool)

// WithWorkers sets the maximum number of jobs in flight. Zero means one worker per argument.
func WithWorkers(n int) Option {
	return func(p *Pool) {
		p.workers = n
	}
}

// WithHaltOnError stops dispatching new jobs after the first failure.
func WithHaltOnError(halt bool) Option {
	return func(p *Pool) {
		p.haltOnError = halt
	}
}

// WithConfirmer asks c before launching each job.
func WithConfirmer(c Confirmer) Option {
	return func(p *Pool) {
		p.confirmer = c
	}
}

// WithReporter sends a progress event to r for every recorded outcome.
// The pool does not close r.
func WithReporter(r progress.Reporter) Option {
	return func(p *Pool) {
		p.reporter = r
	}
}

// WithRunID sets the identifier of the run. An empty id is generated.
func WithRunID(id string) Option {
	return func(p *Pool) {
		p.runID = id
	}
}

// New creates a Pool. It defaults to one worker per CPU.
func New(tmpl *cmdtemplate.Template, l Launcher, opts ...Option) (*Pool, error) {
	p := &Pool{
		template: tmpl,
		launcher: l,
		workers:  runtime.NumCPU(),
	}

	for _, opt := range opts {
		opt(p)
	}

	switch {
	case p.template == nil:
		return nil, ErrNilTemplate
	case p.launcher == nil:
		return nil, ErrNilLauncher
	case p.workers < 0:
		return nil, fmt.Errorf("%w: %d", ErrInvalidWorkers, p.workers)
	}

	return p, nil
}

// Workers returns the number of workers used for a run of n jobs.
func (p *Pool) Workers(n int) int {
	w := p.workers
	if w == 0 || w > n {
		w = n
	}

	return max(w, 1)
}

// Run instantiates one job per argument and runs them all.
//
// It returns once every index has an outcome. A cancelled context stops dispatch,
// interrupts running children and returns the partial result with ErrCancelled.
// A launcher that fails its preflight check returns an error before any job starts.
func (p *Pool) Run(ctx context.Context, args []string) (*result.RunResult, error) {
	if pf, ok := p.launcher.(Preflighter); ok {
		if err := pf.Preflight(); err != nil {
			return nil, err
		}
	}

	all := make([]jobs.Job, len(args))
	for i, arg := range args {
		all[i] = jobs.New(i, arg, p.template.Instantiate(arg))
	}

	agg := result.NewAggregator(p.runID, all, p.reporter)
	logger := ctxlog.Logger(ctx).With("runID", agg.RunID())

	if len(all) == 0 {
		logger.Debug("no arguments, nothing to run")
		return agg.Finalize()
	}

	workers := p.Workers(len(all))
	logger.Debug("starting run", "jobs", len(all), "workers", workers)

	cur := newCursor(all, p.confirmer)
	g, gctx := errgroup.WithContext(ctx)

	for w := range workers {
		g.Go(func() error {
			return p.work(ctxlog.New(gctx, logger.With("worker", w)), cur, agg)
		})
	}

	runErr := g.Wait()

	if n := agg.CancelRemaining(); n > 0 {
		logger.Debug("marked undispatched jobs as cancelled", "count", n)
	}

	res, err := agg.Finalize()
	if err != nil {
		return nil, errors.Join(runErr, err)
	}

	if runErr != nil {
		return res, runErr
	}

	if ctx.Err() != nil {
		return res, fmt.Errorf("%w: %w", ErrCancelled, context.Cause(ctx))
	}

	logger.Debug("run complete", "completed", res.Completed, "failed", res.Failed)

	return res, nil
}

// work claims and runs jobs until the cursor is exhausted or stopped.
func (p *Pool) work(ctx context.Context, cur *cursor, agg *result.Aggregator) error {
	for {
		job, launch, ok, err := cur.claim(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrConfirmation, err)
		}

		if !ok {
			return nil
		}

		o := jobs.NewSkipped(job)
		if launch {
			ctxlog.Debug(ctx, "launching job", "index", job.Index, "command", job.Command)
			o = p.launcher.Launch(ctx, job)
		}

		if err := agg.Record(o); err != nil {
			cur.stop()
			return err
		}

		if p.haltOnError && o.Status.IsFailure() {
			if cur.stop() {
				ctxlog.Warn(ctx, "job failed, halting dispatch", "index", job.Index, "status", o.Status)
			}
		}
	}
}
