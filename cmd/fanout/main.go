// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main contains the fanout command-line interface (CLI).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/fanout"
	"github.com/matt-FFFFFF/fanout/cmd/fanout/config"
	"github.com/matt-FFFFFF/fanout/cmd/fanout/run"
	"github.com/matt-FFFFFF/fanout/internal/ctxlog"
	"github.com/matt-FFFFFF/fanout/internal/signalbroker"
	"github.com/urfave/cli/v3"
)

func newRootCmd() *cli.Command {
	return &cli.Command{
		Commands: []*cli.Command{
			config.NewConfigCmd(),
			run.NewRunCmd(),
		},
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
		Reader:    os.Stdin,
		Name:      "fanout",
		Description: `fanout runs one command per argument, in parallel.
The command template contains a placeholder, {} by default, which is replaced by each
argument in turn. Arguments come from the command line, a file or standard input.`,
		Usage:     "fanout run 'gzip {}' *.log",
		Version:   fmt.Sprintf("%s (commit: %s)", fanout.Version, fanout.Commit),
		Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
		Authors: []any{
			"Matt White (matt-FFFFFF)",
		},
		EnableShellCompletion: true,
	}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)
	defer cancel()

	force, kill := context.WithCancel(context.Background())
	defer kill()

	ctx = signalbroker.WithForce(ctx, force)

	sigCh := signalbroker.New(ctx)

	go signalbroker.Watch(ctx, sigCh, cancel, kill)

	err := newRootCmd().Run(ctx, os.Args) // Err is handled by cli framework

	if ctx.Err() != nil {
		ctxlog.Error(ctx, "command terminated due to cancellation", "error", ctx.Err())
		os.Exit(1)
	}

	if err != nil {
		ctxlog.Error(ctx, "command execution failed", "error", err)
		os.Exit(1)
	}
}
