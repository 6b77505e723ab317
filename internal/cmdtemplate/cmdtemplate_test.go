// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package cmdtemplate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name            string
		text            string
		placeholder     string
		wantErr         error
		wantPlaceholder string
	}{
		{name: "empty template", text: "", wantErr: ErrTemplate},
		{name: "whitespace template", text: "  \t", wantErr: ErrTemplate},
		{name: "default placeholder", text: "echo {}", wantPlaceholder: DefaultPlaceholder},
		{name: "custom placeholder", text: "echo %%", placeholder: "%%", wantPlaceholder: "%%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := New(tt.text, tt.placeholder)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, tmpl)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantPlaceholder, tmpl.Placeholder())
			assert.Equal(t, tt.text, tmpl.String())
		})
	}
}

func TestTemplate_Instantiate(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		placeholder string
		arg         string
		want        string
	}{
		{name: "single occurrence", text: "echo {}", arg: "1", want: "echo 1"},
		{name: "every occurrence", text: "cp {} {}.bak", arg: "f.txt", want: "cp f.txt f.txt.bak"},
		{name: "adjacent occurrences", text: "{}{}", arg: "ab", want: "abab"},
		{name: "no placeholder", text: "false", arg: "a", want: "false"},
		{name: "argument contains placeholder", text: "echo {}", arg: "x{}y", want: "echo x{}y"},
		{name: "empty argument", text: "echo [{}]", arg: "", want: "echo []"},
		{name: "shell metacharacters are literal", text: "echo {}", arg: "$(rm -rf /); `x`", want: "echo $(rm -rf /); `x`"},
		{name: "custom placeholder", text: "touch @@.log", placeholder: "@@", arg: "run", want: "touch run.log"},
		{name: "default token ignored with custom placeholder", text: "echo {} @", placeholder: "@", arg: "z", want: "echo {} z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := New(tt.text, tt.placeholder)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tmpl.Instantiate(tt.arg))
		})
	}
}

func TestTemplate_HasPlaceholder(t *testing.T) {
	with, err := New("echo {}", "")
	require.NoError(t, err)
	assert.True(t, with.HasPlaceholder())

	without, err := New("false", "")
	require.NoError(t, err)
	assert.False(t, without.HasPlaceholder())
}
