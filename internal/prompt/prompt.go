// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package prompt asks the user to confirm each job before it is launched.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/matt-FFFFFF/fanout/internal/jobs"
	"github.com/peterh/liner"
)

// ErrAborted is returned when the user quits or aborts the prompt.
var ErrAborted = errors.New("aborted by user")

// LinePrompter reads one line of input after printing a prompt.
type LinePrompter interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// PrompterFactory creates the line reader used by New. It is replaced in tests.
var PrompterFactory = func() LinePrompter {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	return line
}

// Confirmer asks "run CMD? [Y/n/a/q]" for each job.
// Answering "a" runs this and every later job without asking again.
type Confirmer struct {
	mu     sync.Mutex
	line   LinePrompter
	out    io.Writer
	always bool
}

// New creates a Confirmer reading from the terminal. Close must be called to restore it.
func New() *Confirmer {
	return &Confirmer{
		line: PrompterFactory(),
		out:  os.Stderr,
	}
}

// Confirm reports whether job should run.
func (c *Confirmer) Confirm(ctx context.Context, job jobs.Job) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.always {
		return true, nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		answer, err := c.line.Prompt(fmt.Sprintf("run %s? [Y/n/a/q] ", job.Command))
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return false, ErrAborted
		}

		if err != nil {
			return false, err
		}

		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "", "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		case "a", "all":
			c.always = true
			return true, nil
		case "q", "quit":
			return false, ErrAborted
		default:
			_, _ = fmt.Fprintln(c.out, "please answer y, n, a or q")
		}
	}
}

// Close restores the terminal.
func (c *Confirmer) Close() error {
	return c.line.Close()
}
