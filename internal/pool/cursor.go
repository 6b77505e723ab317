// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package pool

import (
	"context"
	"sync"

	"github.com/matt-FFFFFF/fanout/internal/jobs"
)

// cursor hands out jobs in ascending index order.
type cursor struct {
	mu        sync.Mutex
	all       []jobs.Job
	next      int
	stopped   bool
	confirmer Confirmer
}

func newCursor(all []jobs.Job, c Confirmer) *cursor {
	return &cursor{
		all:       all,
		confirmer: c,
	}
}

// claim returns the next job. ok is false once the cursor is exhausted or stopped,
// or ctx is done. launch is false when the confirmer declined the job.
func (c *cursor) claim(ctx context.Context) (job jobs.Job, launch, ok bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped || c.next >= len(c.all) || ctx.Err() != nil {
		return jobs.Job{}, false, false, nil
	}

	job = c.all[c.next]

	if c.confirmer != nil {
		launch, err = c.confirmer.Confirm(ctx, job)
		if err != nil {
			c.stopped = true
			return jobs.Job{}, false, false, err
		}
	} else {
		launch = true
	}

	c.next++

	return job, launch, true, nil
}

// stop prevents further claims. It reports whether this call stopped the cursor.
func (c *cursor) stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return false
	}

	c.stopped = true

	return true
}
