// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package result

import (
	"bytes"
	"errors"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/fanout/internal/color"
	"github.com/matt-FFFFFF/fanout/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func finalized(t *testing.T, outcomes ...jobs.Outcome) *RunResult {
	t.Helper()

	all := make([]jobs.Job, len(outcomes))
	for i, o := range outcomes {
		all[i] = o.Job
	}

	agg := NewAggregator("", all, nil)
	for _, o := range outcomes {
		require.NoError(t, agg.Record(o))
	}

	res, err := agg.Finalize()
	require.NoError(t, err)

	return res
}

func TestRunResult_Ordered(t *testing.T) {
	all := makeJobs("a", "b", "c")
	res := finalized(t,
		outcome(all[2], jobs.StatusSuccess),
		outcome(all[0], jobs.StatusSuccess),
		outcome(all[1], jobs.StatusSuccess),
	)

	ordered := res.Ordered()
	require.Len(t, ordered, 3)

	for i, o := range ordered {
		assert.Equal(t, i, o.Index)
	}
}

func TestRunResult_Err(t *testing.T) {
	all := makeJobs("a", "b", "c")

	ok := finalized(t, outcome(all[0], jobs.StatusSuccess))
	require.NoError(t, ok.Err())
	assert.Equal(t, 0, ok.ExitCode())

	res := finalized(t,
		jobs.Outcome{Job: all[0], Status: jobs.StatusFailure, ExitCode: 2},
		outcome(all[1], jobs.StatusSuccess),
		jobs.Outcome{Job: all[2], Status: jobs.StatusSignaled, Signal: "killed", Err: errors.New("interrupted")},
	)

	err := res.Err()
	require.Error(t, err)
	require.ErrorIs(t, err, ErrJobFailed)
	assert.Equal(t, 1, res.ExitCode())

	var merr *multierror.Error

	require.ErrorAs(t, err, &merr)
	require.Len(t, merr.Errors, 2)
	assert.Contains(t, merr.Errors[0].Error(), "exit code 2")
	assert.Contains(t, merr.Errors[1].Error(), "terminated by signal killed")
	assert.Contains(t, merr.Errors[1].Error(), "interrupted")
}

func TestRunResult_Replay(t *testing.T) {
	all := makeJobs("a", "b")
	res := finalized(t,
		jobs.Outcome{Job: all[1], Status: jobs.StatusSuccess, Stdout: []byte("second\n")},
		jobs.Outcome{Job: all[0], Status: jobs.StatusFailure, Stdout: []byte("first\n"), Stderr: []byte("oops\n")},
	)

	var stdout, stderr bytes.Buffer

	require.NoError(t, res.Replay(&stdout, &stderr))
	assert.Equal(t, "first\nsecond\n", stdout.String(), "replay must follow index order")
	assert.Equal(t, "oops\n", stderr.String())
}

func TestRunResult_WriteSummary(t *testing.T) {
	orig := color.Enabled()
	t.Cleanup(func() { color.SetEnabled(orig) })
	color.SetEnabled(false)

	all := makeJobs("a", "b", "c", "d")
	res := finalized(t,
		outcome(all[0], jobs.StatusSuccess),
		jobs.Outcome{Job: all[1], Status: jobs.StatusFailure, ExitCode: 1, Stderr: []byte("bad input\n")},
		outcome(all[2], jobs.StatusSkipped),
		jobs.NewCancelled(all[3]),
	)

	tests := []struct {
		name       string
		options    *OutputOptions
		contains   []string
		notContain []string
	}{
		{
			name:       "defaults",
			options:    nil,
			contains:   []string{"✗ #1 echo b (exit code 1)", "~ #3 echo d (cancelled)", "4 jobs: 1 succeeded, 2 failed (1 cancelled), 1 skipped"},
			notContain: []string{"#0", "bad input", "#2"},
		},
		{
			name:     "stderr and successes",
			options:  &OutputOptions{IncludeStdErr: true, ShowSuccessDetails: true},
			contains: []string{"✓ #0 echo a", "~ #2 echo c (skipped)", "➜ Error Output:", "     bad input"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			require.NoError(t, res.WriteSummary(&buf, tt.options))

			for _, s := range tt.contains {
				assert.Contains(t, buf.String(), s)
			}

			for _, s := range tt.notContain {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}
