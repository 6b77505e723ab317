// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package result

import (
	"fmt"
	"io"
	"strings"

	"github.com/matt-FFFFFF/fanout/internal/color"
	"github.com/matt-FFFFFF/fanout/internal/jobs"
)

// OutputOptions controls what WriteSummary prints.
type OutputOptions struct {
	IncludeStdErr      bool // Show captured stderr of failed jobs.
	ShowSuccessDetails bool // List successful jobs as well as failed ones.
}

// DefaultOutputOptions returns a default set of output options.
func DefaultOutputOptions() *OutputOptions {
	return &OutputOptions{
		IncludeStdErr:      false,
		ShowSuccessDetails: false,
	}
}

// Replay writes the captured output of every job to stdout and stderr, in index order.
// It must only be called on a finalized result.
func (r *RunResult) Replay(stdout, stderr io.Writer) error {
	for _, o := range r.Ordered() {
		if len(o.Stdout) > 0 {
			if _, err := stdout.Write(o.Stdout); err != nil {
				return fmt.Errorf("replaying stdout of job %d: %w", o.Index, err)
			}
		}

		if len(o.Stderr) > 0 {
			if _, err := stderr.Write(o.Stderr); err != nil {
				return fmt.Errorf("replaying stderr of job %d: %w", o.Index, err)
			}
		}
	}

	return nil
}

// WriteSummary writes the totals line followed by one line per failed job.
func (r *RunResult) WriteSummary(w io.Writer, options *OutputOptions) error {
	if options == nil {
		options = DefaultOutputOptions()
	}

	sb := strings.Builder{}

	for _, o := range r.Ordered() {
		if !o.Status.IsFailure() && !options.ShowSuccessDetails {
			continue
		}

		writeOutcome(&sb, o, options)
	}

	succeeded := r.Count(jobs.StatusSuccess) + r.Count(jobs.StatusDryRun)
	totals := fmt.Sprintf("%d jobs: %d succeeded, %d failed", r.Total, succeeded, r.Failed)
	if n := r.Count(jobs.StatusCancelled); n > 0 {
		totals += fmt.Sprintf(" (%d cancelled)", n)
	}

	if n := r.Count(jobs.StatusSkipped); n > 0 {
		totals += fmt.Sprintf(", %d skipped", n)
	}

	switch r.Success() {
	case true:
		sb.WriteString(color.Colorize(totals, color.Bold, color.FgGreen))
	default:
		sb.WriteString(color.Colorize(totals, color.Bold, color.FgRed))
	}

	sb.WriteString("\n")

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}

	return nil
}

func writeOutcome(sb *strings.Builder, o jobs.Outcome, options *OutputOptions) {
	var mark string

	switch o.Status {
	case jobs.StatusSuccess, jobs.StatusDryRun:
		mark = color.Colorize("✓", color.FgGreen)
	case jobs.StatusSkipped, jobs.StatusCancelled:
		mark = color.Colorize("~", color.FgYellow)
	default:
		mark = color.Colorize("✗", color.FgRed)
	}

	fmt.Fprintf(sb, "%s #%d %s", mark, o.Index, o.Command)

	if o.Status != jobs.StatusSuccess {
		fmt.Fprintf(sb, " (%s)", o.Describe())
	}

	sb.WriteString("\n")

	if o.Err != nil && o.Status != jobs.StatusLaunchError {
		fmt.Fprintf(sb, "  %s %s\n", color.Colorize("➜ Error:", color.FgRed), o.Err.Error())
	}

	if options.IncludeStdErr && o.Status.IsFailure() && len(o.Stderr) > 0 {
		fmt.Fprintf(sb, "  %s\n", color.Colorize("➜ Error Output:", color.FgHiRed))
		sb.WriteString(indent(o.Stderr, "     "))
	}
}

// indent prefixes every non-empty line of output.
func indent(output []byte, prefix string) string {
	sb := strings.Builder{}
	lines := strings.Split(strings.TrimRight(string(output), "\n"), "\n")
	sb.Grow(len(output) + len(lines)*len(prefix))

	for _, line := range lines {
		if line != "" {
			sb.WriteString(prefix)
			sb.WriteString(line)
		}

		sb.WriteString("\n")
	}

	return sb.String()
}
