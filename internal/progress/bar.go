// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	bprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const (
	barWidth    = 40
	etaRounding = time.Second
)

// Bar is a Listener that renders "Progress: [elapsed] [bar] completed/total (eta)".
// On a terminal it redraws one line in place; otherwise it prints one line per event.
type Bar struct {
	w       io.Writer
	start   time.Time
	inline  bool
	bar     bprogress.Model
	prefix  lipgloss.Style
	failed  lipgloss.Style
	mu      sync.Mutex
	printed bool
	now     func() time.Time
}

// NewBar creates a Bar writing to w. The elapsed time is measured from start.
func NewBar(w io.Writer, start time.Time) *Bar {
	inline := false
	if f, ok := w.(*os.File); ok {
		inline = term.IsTerminal(int(f.Fd()))
	}

	return &Bar{
		w:      w,
		start:  start,
		inline: inline,
		bar: bprogress.New(
			bprogress.WithDefaultGradient(),
			bprogress.WithWidth(barWidth),
			bprogress.WithoutPercentage(),
		),
		prefix: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		failed: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		now:    time.Now,
	}
}

// OnEvent implements Listener.
func (b *Bar) OnEvent(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	line := b.render(event)

	if b.inline {
		fmt.Fprintf(b.w, "\r%s", line) //nolint:errcheck
	} else {
		fmt.Fprintln(b.w, line) //nolint:errcheck
	}

	b.printed = true
}

// Finish terminates the redrawn line. It is safe to call more than once.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.inline && b.printed {
		fmt.Fprintln(b.w) //nolint:errcheck
	}

	b.printed = false
}

func (b *Bar) render(event Event) string {
	elapsed := b.now().Sub(b.start)

	line := fmt.Sprintf("%s: [%s] [%s] %7d/%-7d (%s)",
		b.prefix.Render("Progress"),
		formatElapsed(elapsed),
		b.bar.ViewAs(event.Fraction()),
		event.Completed,
		event.Total,
		eta(elapsed, event.Completed, event.Total),
	)

	if event.Failed > 0 {
		line += " " + b.failed.Render(fmt.Sprintf("%d failed", event.Failed))
	}

	return line
}

// formatElapsed renders d as HH:MM:SS.
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// eta extrapolates the mean time per completed job over the remaining ones.
func eta(elapsed time.Duration, completed, total int) string {
	if completed >= total {
		return "done"
	}

	if completed == 0 {
		return "eta unknown"
	}

	perJob := elapsed / time.Duration(completed)
	remaining := perJob * time.Duration(total-completed)

	return "eta " + remaining.Round(etaRounding).String()
}
