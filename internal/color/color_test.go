// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package color

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsColorCapable(t *testing.T) {
	t.Setenv(NoColor, "1")
	assert.False(t, isColorCapable(nil), "NO_COLOR should disable colour")

	t.Setenv(ForceColor, "1")
	assert.False(t, isColorCapable(nil), "NO_COLOR should win over FORCE_COLOR")

	t.Setenv(NoColor, "")
	assert.True(t, isColorCapable(nil), "FORCE_COLOR should enable colour")

	t.Setenv(ForceColor, "")
	assert.False(t, isColorCapable(nil), "nil file is never a terminal")
}

func TestColorize(t *testing.T) {
	orig := Enabled()
	t.Cleanup(func() { SetEnabled(orig) })

	tests := []struct {
		name    string
		enabled bool
		codes   []Code
		want    string
	}{
		{name: "disabled", enabled: false, codes: []Code{FgRed}, want: "text"},
		{name: "no codes", enabled: true, codes: nil, want: "text"},
		{name: "single code", enabled: true, codes: []Code{FgRed}, want: "\033[31mtext\033[0m"},
		{name: "multiple codes", enabled: true, codes: []Code{Bold, FgGreen}, want: "\033[1;32mtext\033[0m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetEnabled(tt.enabled)
			assert.Equal(t, tt.want, Colorize("text", tt.codes...))
		})
	}
}

func TestColorizeNoReset(t *testing.T) {
	orig := Enabled()
	t.Cleanup(func() { SetEnabled(orig) })

	SetEnabled(true)
	assert.Equal(t, "\033[91mtext", ColorizeNoReset("text", FgHiRed))

	SetEnabled(false)
	assert.Equal(t, "text", ColorizeNoReset("text", FgHiRed))
}

func TestControlString(t *testing.T) {
	assert.Equal(t, "\033[0m", ControlString(Reset))
	assert.Equal(t, "\033[1;33m", ControlString(Bold, FgYellow))
}
