// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package launcher

import (
	"errors"
	"io"
	"os"
	"sync"
)

// streams owns the file descriptors handed to one child and the goroutines
// draining them.
type streams struct {
	stdin      *os.File
	stdout     *os.File
	stderr     *os.File
	childEnds  []*os.File
	wg         sync.WaitGroup
	mu         sync.Mutex
	errs       []error
	outBuf     []byte
	errBuf     []byte
	maxCapture int64
}

func (l *Launcher) openStreams() (*streams, error) {
	s := &streams{maxCapture: l.maxBuffer}

	devNull, err := os.Open(os.DevNull)
	if err != nil {
		return nil, errors.Join(ErrCouldNotStartProcess, err)
	}

	s.stdin = devNull
	s.childEnds = append(s.childEnds, devNull)

	if l.capture {
		if s.stdout, err = s.capturePipe(&s.outBuf); err != nil {
			s.closeChildEnds()
			return nil, err
		}

		if s.stderr, err = s.capturePipe(&s.errBuf); err != nil {
			s.closeChildEnds()
			_ = s.wait()

			return nil, err
		}

		return s, nil
	}

	if s.stdout, err = s.inherit(l.stdout); err != nil {
		s.closeChildEnds()
		return nil, err
	}

	if l.stderr == l.stdout {
		s.stderr = s.stdout
		return s, nil
	}

	if s.stderr, err = s.inherit(l.stderr); err != nil {
		s.closeChildEnds()
		_ = s.wait()

		return nil, err
	}

	return s, nil
}

// capturePipe returns the write end of a pipe whose contents are collected into dst.
func (s *streams) capturePipe(dst *[]byte) (*os.File, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, errors.Join(ErrFailedToCreatePipe, err)
	}

	s.childEnds = append(s.childEnds, w)
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		defer r.Close() //nolint:errcheck

		buf, err := readAllUpToMax(r, s.maxCapture)
		s.mu.Lock()
		*dst = buf
		s.mu.Unlock()
		s.addErr(err)
	}()

	return w, nil
}

// inherit returns a file the child can write to directly.
// Writers that are not files are fed through a pipe.
func (s *streams) inherit(w io.Writer) (*os.File, error) {
	if f, ok := w.(*os.File); ok {
		return f, nil
	}

	r, pw, err := os.Pipe()
	if err != nil {
		return nil, errors.Join(ErrFailedToCreatePipe, err)
	}

	s.childEnds = append(s.childEnds, pw)
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		defer r.Close() //nolint:errcheck

		if _, err := io.Copy(w, r); err != nil {
			s.addErr(errors.Join(ErrFailedToReadBuffer, err))
		}
	}()

	return pw, nil
}

func (s *streams) childFiles() []*os.File {
	return []*os.File{s.stdin, s.stdout, s.stderr}
}

// closeChildEnds closes the parent's copies of the descriptors given to the child,
// so the readers see EOF once the child exits.
func (s *streams) closeChildEnds() {
	for _, f := range s.childEnds {
		_ = f.Close()
	}

	s.childEnds = nil
}

func (s *streams) addErr(err error) {
	if err == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.errs = append(s.errs, err)
}

// wait blocks until every reader has drained its pipe.
func (s *streams) wait() error {
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()

	return errors.Join(s.errs...)
}

func (s *streams) captured() ([]byte, []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.outBuf, s.errBuf
}

// syncWriter serialises writes from many children onto one destination.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.w.Write(p)
}

func shareWriter(w io.Writer) io.Writer {
	switch w.(type) {
	case *os.File, *syncWriter:
		return w
	}

	return &syncWriter{w: w}
}
