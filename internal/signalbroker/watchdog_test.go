// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/matt-FFFFFF/fanout/internal/ctxlog"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func startWatch(t *testing.T, sigCh chan os.Signal) (context.Context, context.Context, *sync.WaitGroup) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	force, kill := context.WithCancel(context.Background())

	t.Cleanup(cancel)
	t.Cleanup(kill)

	lctx := ctxlog.New(context.Background(), ctxlog.DefaultLogger)

	wg := &sync.WaitGroup{}
	wg.Add(1)

	go func() {
		defer wg.Done()
		Watch(lctx, sigCh, cancel, kill)
	}()

	return ctx, force, wg
}

func TestWatch_FirstSignalCancels(t *testing.T) {
	defer goleak.VerifyNone(t)

	sigCh := make(chan os.Signal, 1)
	ctx, force, wg := startWatch(t, sigCh)

	sigCh <- os.Interrupt

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context should be cancelled after first signal")
	}

	assert.NoError(t, force.Err(), "force should not be cancelled after first signal")

	close(sigCh)
	wg.Wait()
}

func TestWatch_SecondSignalForces(t *testing.T) {
	defer goleak.VerifyNone(t)

	sigCh := make(chan os.Signal, 2)
	ctx, force, wg := startWatch(t, sigCh)

	sigCh <- os.Interrupt
	sigCh <- os.Interrupt

	wg.Wait()
	assert.Error(t, ctx.Err())
	assert.Error(t, force.Err())
}

func TestWatch_DifferentSignalsDoNotForce(t *testing.T) {
	defer goleak.VerifyNone(t)

	sigCh := make(chan os.Signal, 2)
	ctx, force, wg := startWatch(t, sigCh)

	sigCh <- os.Interrupt
	sigCh <- os.Kill

	time.Sleep(50 * time.Millisecond)
	assert.Error(t, ctx.Err())
	assert.NoError(t, force.Err(), "force should not be cancelled for different signals")

	close(sigCh)
	wg.Wait()
}
