// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/fanout/internal/jobs"
	"github.com/matt-FFFFFF/fanout/internal/progress"
	"github.com/matt-FFFFFF/fanout/internal/result"
)

const durationRounding = 100 * time.Millisecond

// ProgressEventMsg wraps a progress event for the tea framework.
type ProgressEventMsg struct {
	Event progress.Event
}

// RunCompletedMsg indicates that every job has an outcome.
type RunCompletedMsg struct {
	Result *result.RunResult
	Err    error
}

// Init implements bubbletea.Model.Init.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements bubbletea.Model.Update.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)

		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

		return m, nil

	case ProgressEventMsg:
		m.record(msg.Event)
		return m, nil

	case RunCompletedMsg:
		m.done = true
		m.res = msg.Result
		m.err = msg.Err
		m.elapsed = m.now().Sub(m.start)

		if msg.Result != nil {
			m.total = msg.Result.Total
			m.completed = max(m.completed, msg.Result.Completed)
			m.failed = max(m.failed, msg.Result.Failed)
		}

		return m, nil

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	return m, nil
}

// record applies an event. Events may still arrive after RunCompletedMsg,
// so counts only move forward.
func (m *Model) record(e progress.Event) {
	if e.Completed <= m.lastSeen {
		return
	}

	m.lastSeen = e.Completed
	m.completed = max(m.completed, e.Completed)
	m.failed = max(m.failed, e.Failed)
	m.total = e.Total

	m.finished = append(m.finished, e.Outcome)
	if len(m.finished) > maxFinished {
		m.finished = m.finished[len(m.finished)-maxFinished:]
	}

	m.viewport.SetContent(m.renderFinished())
	m.viewport.GotoBottom()
}

// View implements bubbletea.Model.View.
func (m *Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var b strings.Builder

	b.WriteString(m.styles.Title.Render(m.title))
	b.WriteString("\n\n")
	b.WriteString(m.bar.ViewAs(m.fraction()))
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.styles.Border.Render(m.viewport.View()))
	b.WriteString("\n")

	help := "↑/↓ to scroll, 'q' to stop the run and quit"
	if m.done {
		help = "↑/↓ to scroll, 'q' to quit and return to terminal"
	}

	b.WriteString(m.styles.Help.Render(help))

	return b.String()
}

func (m *Model) renderStatus() string {
	elapsed := m.elapsed
	if !m.done {
		elapsed = m.now().Sub(m.start)
	}

	counts := fmt.Sprintf("%d/%d done, %d failed", m.completed, m.total, m.failed)
	if m.failed > 0 {
		counts = m.styles.Failed.Render(counts)
	}

	timing := m.styles.Faint.Render(fmt.Sprintf("(%v)", elapsed.Round(durationRounding)))

	if !m.done {
		return fmt.Sprintf("%s Running %s %s", m.spinner.View(), counts, timing)
	}

	switch {
	case m.err != nil:
		return fmt.Sprintf("%s %s %s", m.styles.Failed.Render("Stopped: "+m.err.Error()), counts, timing)
	case m.failed > 0:
		return fmt.Sprintf("%s %s %s", m.styles.Failed.Render("Completed with failures"), counts, timing)
	default:
		return fmt.Sprintf("%s %s %s", m.styles.Success.Render("Completed successfully"), counts, timing)
	}
}

func (m *Model) renderFinished() string {
	var b strings.Builder

	for _, o := range m.finished {
		b.WriteString(m.renderOutcome(o))
		b.WriteString("\n")
	}

	return b.String()
}

func (m *Model) renderOutcome(o jobs.Outcome) string {
	var mark string

	switch {
	case o.Status == jobs.StatusSkipped || o.Status == jobs.StatusDryRun:
		mark = m.styles.Skipped.Render("~")
	case o.Status.IsFailure():
		mark = m.styles.Failed.Render("✗")
	default:
		mark = m.styles.Success.Render("✓")
	}

	line := fmt.Sprintf("%s #%d %s", mark, o.Index, o.Command)

	if o.Status.IsFailure() {
		line += m.styles.Failed.Render(" (" + o.Describe() + ")")
	}

	if o.Duration > 0 {
		line += m.styles.Faint.Render(fmt.Sprintf(" %v", o.Duration.Round(durationRounding)))
	}

	return line
}
