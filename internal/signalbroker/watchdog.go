// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"
	"os/signal"

	"github.com/matt-FFFFFF/fanout/internal/ctxlog"
)

// Watch monitors the signal channel until it is closed.
// The first signal calls cancel. A second signal of the same type calls force,
// stops signal delivery to sigCh and returns.
func Watch(ctx context.Context, sigCh chan os.Signal, cancel, force context.CancelFunc) {
	seen := make(map[os.Signal]struct{})

	for sig := range sigCh {
		if _, ok := seen[sig]; ok {
			ctxlog.Warn(ctx, "received second signal, killing running jobs", "signal", sig.String())
			signal.Stop(sigCh)
			force()

			return
		}

		seen[sig] = struct{}{}

		ctxlog.Warn(ctx, "received signal, stopping after running jobs exit; repeat to force", "signal", sig.String())
		cancel()
	}
}
