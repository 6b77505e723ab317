// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package launcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/matt-FFFFFF/fanout/internal/ctxlog"
	"github.com/matt-FFFFFF/fanout/internal/jobs"
)

const (
	maxBufferSize      = 8 * 1024 * 1024 // 8MB per stream
	defaultGracePeriod = 10 * time.Second

	// EnvIndex holds the job index in the child environment.
	EnvIndex = "FANOUT_INDEX"
	// EnvArgument holds the job argument in the child environment.
	EnvArgument = "FANOUT_ARG"
	// EnvRunID holds the run identifier in the child environment.
	EnvRunID = "FANOUT_RUN_ID"
)

var (
	// ErrCouldNotStartProcess is returned when the process could not be started.
	ErrCouldNotStartProcess = errors.New("could not start process")
	// ErrFailedToCreatePipe is returned when the operating system pipe could not be created.
	ErrFailedToCreatePipe = errors.New("failed to create pipe")
	// ErrFailedToReadBuffer is returned when the output pipe of the child could not be read.
	ErrFailedToReadBuffer = errors.New("failed to read buffer")
	// ErrBufferOverflow is returned when captured output exceeds the max size.
	ErrBufferOverflow = fmt.Errorf("output exceeds max size of %d bytes", maxBufferSize)
	// ErrInterrupted is returned when the run was cancelled while the child was running.
	ErrInterrupted = errors.New("interrupted by cancellation")
	// ErrKilled is returned when the child was killed, either forced or after the grace period.
	ErrKilled = errors.New("process killed")
)

// Launcher starts job commands through the command interpreter.
// It is safe for concurrent use by many workers.
type Launcher struct {
	shell       string
	capture     bool
	stdout      io.Writer
	stderr      io.Writer
	env         map[string]string
	dir         string
	runID       string
	gracePeriod time.Duration
	force       context.Context
	maxBuffer   int64

	resolveOnce sync.Once
	path        string
	resolveErr  error
}

// Option configures a Launcher.
type Option func(*Launcher)

// WithShell sets the interpreter. A bare name is looked up on PATH.
func WithShell(shell string) Option {
	return func(l *Launcher) {
		if shell != "" {
			l.shell = shell
		}
	}
}

// WithCapture buffers the child's output into the outcome instead of streaming it.
func WithCapture(capture bool) Option {
	return func(l *Launcher) {
		l.capture = capture
	}
}

// WithOutput sets where inherited output goes. Writers that are *os.File are handed
// to the child directly, others are fed through a pipe.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(l *Launcher) {
		if stdout != nil {
			l.stdout = stdout
		}

		if stderr != nil {
			l.stderr = stderr
		}
	}
}

// WithEnv adds environment variables on top of the parent's environment.
func WithEnv(env map[string]string) Option {
	return func(l *Launcher) {
		for k, v := range env {
			l.env[k] = v
		}
	}
}

// WithDir sets the working directory of every child.
func WithDir(dir string) Option {
	return func(l *Launcher) {
		l.dir = dir
	}
}

// WithRunID exports the run identifier to every child as FANOUT_RUN_ID.
func WithRunID(id string) Option {
	return func(l *Launcher) {
		l.runID = id
	}
}

// WithGracePeriod sets how long an interrupted child may take to exit before it is killed.
func WithGracePeriod(d time.Duration) Option {
	return func(l *Launcher) {
		if d >= 0 {
			l.gracePeriod = d
		}
	}
}

// WithForce sets a context whose cancellation kills running children immediately.
func WithForce(ctx context.Context) Option {
	return func(l *Launcher) {
		if ctx != nil {
			l.force = ctx
		}
	}
}

// New creates a Launcher. Without options it runs the default shell and inherits
// the parent's stdout and stderr.
func New(ctx context.Context, opts ...Option) *Launcher {
	l := &Launcher{
		shell:       DefaultShell(ctx),
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		env:         make(map[string]string),
		gracePeriod: defaultGracePeriod,
		force:       context.Background(),
		maxBuffer:   maxBufferSize,
	}

	for _, opt := range opts {
		opt(l)
	}

	same := l.stderr == l.stdout
	l.stdout = shareWriter(l.stdout)

	if same {
		l.stderr = l.stdout
		return l
	}

	l.stderr = shareWriter(l.stderr)

	return l
}

// Shell returns the configured interpreter.
func (l *Launcher) Shell() string {
	return l.shell
}

// Preflight checks that the interpreter can be executed.
// A failure here is fatal for the whole run and should be checked before any job starts.
func (l *Launcher) Preflight() error {
	l.resolveOnce.Do(func() {
		l.path, l.resolveErr = resolveShell(l.shell)
	})

	return l.resolveErr
}

// Launch runs job.Command to completion and classifies how it ended.
// It never returns an error: every failure is described by the outcome.
func (l *Launcher) Launch(ctx context.Context, job jobs.Job) jobs.Outcome {
	logger := ctxlog.Logger(ctx).With("index", job.Index)
	out := jobs.Outcome{Job: job, ExitCode: -1}

	if err := l.Preflight(); err != nil {
		out.Status = jobs.StatusLaunchError
		out.Err = err

		return out
	}

	s, err := l.openStreams()
	if err != nil {
		out.Status = jobs.StatusLaunchError
		out.Err = err

		return out
	}

	logger.Debug("starting process", "shell", l.path, "command", job.Command)

	out.Start = time.Now()
	ps, err := os.StartProcess(l.path, shellArgs(l.path, job.Command), &os.ProcAttr{
		Dir:   l.dir,
		Env:   l.environ(job),
		Files: s.childFiles(),
		Sys:   sysProcAttr(),
	})
	s.closeChildEnds()

	if err != nil {
		_ = s.wait()

		out.Status = jobs.StatusLaunchError
		out.Err = errors.Join(ErrCouldNotStartProcess, err)
		logger.Debug("process failed to start", "error", err)

		return out
	}

	logger.Debug("process started", "pid", ps.Pid)

	done := make(chan struct{})
	stopped := make(chan error, 1)
	watchWg := &sync.WaitGroup{}
	watchWg.Add(1)

	go func() {
		defer watchWg.Done()
		l.watch(ctx, ps, done, stopped)
	}()

	state, waitErr := ps.Wait()
	out.Duration = time.Since(out.Start)

	// Background processes left by the shell can hold the pipes open after it exits.
	// The watchdog stays up until they are drained so cancellation still reaches the group.
	ioErr := s.wait()
	close(done)
	watchWg.Wait()

	classify(&out, state, waitErr)

	if ioErr != nil {
		out.Err = errors.Join(out.Err, ioErr)
	}

	out.Stdout, out.Stderr = s.captured()

	select {
	case e := <-stopped:
		out.Err = errors.Join(out.Err, e)
	default:
	}

	logger.Debug("process finished", "status", out.Status, "exitCode", out.ExitCode, "duration", out.Duration)

	return out
}

// watch interrupts the child when ctx is cancelled and kills it after the grace period
// or as soon as the force context is cancelled. It reports what it did on stopped.
func (l *Launcher) watch(ctx context.Context, ps *os.Process, done <-chan struct{}, stopped chan<- error) {
	select {
	case <-done:
		return
	case <-l.force.Done():
		killPs(ctx, ps)
		stopped <- errors.Join(ErrInterrupted, ErrKilled)

		return
	case <-ctx.Done():
	}

	ctxlog.Info(ctx, "context done, interrupting process", "pid", ps.Pid)
	interruptPs(ctx, ps)

	grace := time.NewTimer(l.gracePeriod)
	defer grace.Stop()

	select {
	case <-done:
		stopped <- ErrInterrupted
	case <-grace.C:
		ctxlog.Info(ctx, "grace period exceeded, killing process", "pid", ps.Pid)
		killPs(ctx, ps)
		stopped <- errors.Join(ErrInterrupted, ErrKilled)
	case <-l.force.Done():
		killPs(ctx, ps)
		stopped <- errors.Join(ErrInterrupted, ErrKilled)
	}
}

func (l *Launcher) environ(job jobs.Job) []string {
	env := os.Environ()

	for k, v := range l.env {
		env = append(env, k+"="+v)
	}

	env = append(env,
		EnvIndex+"="+strconv.Itoa(job.Index),
		EnvArgument+"="+job.Argument,
	)

	if l.runID != "" {
		env = append(env, EnvRunID+"="+l.runID)
	}

	return env
}

// classify maps how the child ended onto an outcome status.
func classify(out *jobs.Outcome, state *os.ProcessState, waitErr error) {
	if state == nil {
		out.Status = jobs.StatusFailure
		out.Err = errors.Join(out.Err, waitErr)

		return
	}

	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		out.Status = jobs.StatusSignaled
		out.Signal = ws.Signal().String()
		out.ExitCode = -1

		return
	}

	out.ExitCode = state.ExitCode()

	switch out.ExitCode {
	case 0:
		out.Status = jobs.StatusSuccess
	default:
		out.Status = jobs.StatusFailure
	}

	if waitErr != nil {
		out.Err = errors.Join(out.Err, waitErr)
	}
}

// interruptPs asks the child and its process group to stop.
func interruptPs(ctx context.Context, ps *os.Process) {
	if err := interruptGroup(ps); err != nil && !errors.Is(err, os.ErrProcessDone) {
		ctxlog.Info(ctx, "failed to send interrupt", "pid", ps.Pid, "error", err)
	}
}

// killPs kills the process group, tolerating one that already exited.
func killPs(ctx context.Context, ps *os.Process) {
	if err := killGroup(ps); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			ctxlog.Debug(ctx, "process already done", "pid", ps.Pid)
			return
		}

		ctxlog.Error(ctx, "process kill error", "pid", ps.Pid, "error", err)

		return
	}

	ctxlog.Info(ctx, "process killed", "pid", ps.Pid)
}

// readAllUpToMax reads r to EOF, keeping at most maxBufferSize bytes.
// The rest is discarded so the child never blocks on a full pipe.
func readAllUpToMax(r io.Reader, maxBufferSize int64) ([]byte, error) {
	var buf bytes.Buffer

	n, err := io.CopyN(&buf, r, maxBufferSize+1)
	if err != nil && !errors.Is(err, io.EOF) {
		return buf.Bytes(), errors.Join(ErrFailedToReadBuffer, err)
	}

	if n > maxBufferSize {
		if _, err := io.Copy(io.Discard, r); err != nil {
			return buf.Bytes()[:maxBufferSize], errors.Join(ErrBufferOverflow, ErrFailedToReadBuffer, err)
		}

		return buf.Bytes()[:maxBufferSize], ErrBufferOverflow
	}

	return buf.Bytes(), nil
}
