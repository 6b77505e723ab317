// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/fanout/internal/progress"
	"github.com/matt-FFFFFF/fanout/internal/result"
)

// ErrTUI is returned when the terminal UI fails.
var ErrTUI = errors.New("terminal UI failed")

// RunFunc performs the run the TUI displays.
type RunFunc func(ctx context.Context) (*result.RunResult, error)

// Runner manages the TUI program for one run.
type Runner struct {
	model   *Model
	program *tea.Program
}

// NewRunner creates a Runner for a run of total jobs.
func NewRunner(title string, total int, opts ...tea.ProgramOption) *Runner {
	model := NewModel(title, total)

	return &Runner{
		model:   model,
		program: tea.NewProgram(model, append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)...),
	}
}

// Listener returns a progress.Listener forwarding events to the TUI.
// Sends block until the TUI reads them, so it must sit behind a progress.ChannelReporter.
func (r *Runner) Listener() progress.Listener {
	return progress.ListenerFunc(func(e progress.Event) {
		r.program.Send(ProgressEventMsg{Event: e})
	})
}

// Run starts the TUI and calls run. When the run finishes the TUI stays open until the
// user quits, unless ctx was cancelled. Quitting the TUI early calls cancel and waits for
// the run to stop.
func (r *Runner) Run(ctx context.Context, cancel context.CancelFunc, run RunFunc) (*result.RunResult, error) {
	type runResult struct {
		res *result.RunResult
		err error
	}

	resultCh := make(chan runResult, 1)

	go func() {
		res, err := run(ctx)
		resultCh <- runResult{res: res, err: err}
	}()

	tuiDone := make(chan error, 1)

	go func() {
		_, err := r.program.Run()
		tuiDone <- err
	}()

	var (
		rr     runResult
		tuiErr error
	)

	select {
	case rr = <-resultCh:
		r.program.Send(RunCompletedMsg{Result: rr.res, Err: rr.err})

		if ctx.Err() != nil {
			r.program.Quit()
		}

		tuiErr = <-tuiDone

	case tuiErr = <-tuiDone:
		cancel()

		rr = <-resultCh
	}

	if tuiErr != nil {
		return rr.res, errors.Join(rr.err, ErrTUI, tuiErr)
	}

	return rr.res, rr.err
}

// ProgramOptions returns the options for a TUI drawing to out. Input is read from the
// terminal so that standard input stays free for arguments.
func ProgramOptions(out io.Writer) []tea.ProgramOption {
	return []tea.ProgramOption{
		tea.WithOutput(out),
		tea.WithInputTTY(),
	}
}
