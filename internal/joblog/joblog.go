// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package joblog writes one JSON record per finished job.
//
// Each line holds the job index, argument, command, status, exit code, start time and
// duration, so a completed run can be inspected or post-processed with standard tools.
package joblog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/matt-FFFFFF/fanout/internal/jobs"
	"github.com/matt-FFFFFF/fanout/internal/progress"
	"github.com/spf13/afero"
)

// FsFactory returns the filesystem the job log is written to. It is replaced in tests.
var FsFactory = func() afero.Fs {
	return afero.NewOsFs()
}

// ErrOpen is returned when the log file cannot be created.
var ErrOpen = errors.New("could not open job log")

const msgJobFinished = "job finished"

var _ progress.Listener = (*Log)(nil)

// Log is a progress.Listener that appends a JSON line per outcome.
type Log struct {
	closer io.Closer
	logger *slog.Logger
	runID  string
}

// Open creates or truncates the file at path.
func Open(path, runID string) (*Log, error) {
	f, err := FsFactory().OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, errors.Join(ErrOpen, err)
	}

	l := New(f, runID)
	l.closer = f

	return l, nil
}

// New writes records to w.
func New(w io.Writer, runID string) *Log {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}

			switch a.Key {
			case slog.LevelKey:
				return slog.Attr{}
			case slog.MessageKey:
				return slog.Attr{}
			}

			return a
		},
	})

	return &Log{
		logger: slog.New(h),
		runID:  runID,
	}
}

// OnEvent implements progress.Listener.
func (l *Log) OnEvent(e progress.Event) {
	o := e.Outcome
	attrs := []slog.Attr{
		slog.Int("seq", o.Index),
		slog.String("run_id", l.runID),
		slog.String("arg", o.Argument),
		slog.String("cmd", o.Command),
		slog.String("status", o.Status.String()),
		slog.Int("exit_code", o.ExitCode),
	}

	if !o.Start.IsZero() {
		attrs = append(attrs,
			slog.Time("start", o.Start),
			slog.Float64("duration", o.Duration.Seconds()),
		)
	}

	if o.Status == jobs.StatusSignaled {
		attrs = append(attrs, slog.String("signal", o.Signal))
	}

	if o.Err != nil {
		attrs = append(attrs, slog.String("error", o.Err.Error()))
	}

	l.logger.LogAttrs(context.Background(), slog.LevelInfo, msgJobFinished, attrs...)
}

// Close closes the underlying file, if Open created one.
func (l *Log) Close() error {
	if l.closer == nil {
		return nil
	}

	return l.closer.Close()
}
