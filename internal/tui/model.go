// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"time"

	bprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/fanout/internal/jobs"
	"github.com/matt-FFFFFF/fanout/internal/result"
)

const (
	defaultWidth   = 80
	defaultHeight  = 24
	reservedLines  = 7
	maxFinished    = 1000
	minBarWidth    = 10
	barSidePadding = 4
)

// Styles contains all the styling for the TUI.
type Styles struct {
	Title   lipgloss.Style
	Success lipgloss.Style
	Failed  lipgloss.Style
	Skipped lipgloss.Style
	Faint   lipgloss.Style
	Border  lipgloss.Style
	Help    lipgloss.Style
}

// NewStyles creates the default styling for the TUI.
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")),
		Failed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")),
		Skipped: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")),
		Faint: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
	}
}

// Model is the bubbletea model of a run.
type Model struct {
	title     string
	total     int
	completed int
	failed    int
	lastSeen  int
	finished  []jobs.Outcome
	start     time.Time
	elapsed   time.Duration
	done      bool
	res       *result.RunResult
	err       error
	quitting  bool
	width     int
	height    int
	bar       bprogress.Model
	spinner   spinner.Model
	viewport  viewport.Model
	styles    *Styles
	now       func() time.Time
}

// NewModel creates a model for a run of total jobs.
func NewModel(title string, total int) *Model {
	m := &Model{
		title:   title,
		total:   total,
		width:   defaultWidth,
		height:  defaultHeight,
		bar:     bprogress.New(bprogress.WithDefaultGradient()),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		styles:  NewStyles(),
		now:     time.Now,
	}

	m.start = m.now()
	m.viewport = viewport.New(defaultWidth, defaultHeight-reservedLines)
	m.resize()

	return m
}

// Done reports whether the run has finished.
func (m *Model) Done() bool {
	return m.done
}

// Quitting reports whether the user asked to leave the TUI.
func (m *Model) Quitting() bool {
	return m.quitting
}

func (m *Model) resize() {
	m.viewport.Width = m.width - 2 //nolint:mnd // border
	m.viewport.Height = max(m.height-reservedLines, 1)
	m.bar.Width = max(m.width-barSidePadding-len("100%"), minBarWidth)
}

func (m *Model) fraction() float64 {
	if m.total == 0 {
		return 1
	}

	return float64(m.completed) / float64(m.total)
}
