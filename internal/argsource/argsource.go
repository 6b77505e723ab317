// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package argsource builds the ordered list of arguments a run fans out over.
package argsource

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"slices"

	"github.com/matt-FFFFFF/fanout/internal/ctxlog"
	"github.com/matt-FFFFFF/fanout/internal/fetch"
)

// ErrRead is returned when arguments cannot be read from a file or stream.
var ErrRead = errors.New("could not read arguments")

const maxLineSize = 1024 * 1024

// Sources lists where arguments may come from, in order of precedence.
type Sources struct {
	Positional []string  // Arguments given on the command line.
	File       string    // Path or go-getter URL of a file with one argument per line.
	Stdin      io.Reader // Read one argument per line when nothing else is given.
}

// FromArgs returns a copy of args.
func FromArgs(args []string) []string {
	return slices.Clone(args)
}

// FromReader returns one argument per line of r. Line endings, including "\r\n",
// are removed; empty lines are kept as empty arguments.
func FromReader(r io.Reader) ([]string, error) {
	var args []string

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineSize)

	for sc.Scan() {
		args = append(args, string(bytes.TrimSuffix(sc.Bytes(), []byte("\r"))))
	}

	if err := sc.Err(); err != nil {
		return nil, errors.Join(ErrRead, err)
	}

	return args, nil
}

// FromFile reads one argument per line from a local file or go-getter source.
func FromFile(ctx context.Context, src string) ([]string, error) {
	b, err := fetch.Get(ctx, src)
	if err != nil {
		return nil, errors.Join(ErrRead, err)
	}

	return FromReader(bytes.NewReader(b))
}

// Load returns the positional arguments if there are any, else the lines of File,
// else the lines of Stdin. With no source at all the result is empty.
func Load(ctx context.Context, s Sources) ([]string, error) {
	switch {
	case len(s.Positional) > 0:
		ctxlog.Debug(ctx, "using positional arguments", "count", len(s.Positional))
		return FromArgs(s.Positional), nil
	case s.File != "":
		ctxlog.Debug(ctx, "reading arguments from file", "source", s.File)
		return FromFile(ctx, s.File)
	case s.Stdin != nil:
		ctxlog.Debug(ctx, "reading arguments from stdin")
		return FromReader(s.Stdin)
	}

	return nil, nil
}
