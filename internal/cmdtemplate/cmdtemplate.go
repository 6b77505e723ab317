// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cmdtemplate turns a command template and an argument into a command string.
//
// Substitution is purely textual. Every occurrence of the placeholder is replaced by the
// argument, left to right, and the result is never scanned again, so a placeholder that
// appears inside the argument is inserted verbatim. No shell escaping is performed.
package cmdtemplate

import (
	"errors"
	"strings"
)

// DefaultPlaceholder is the token replaced when no other placeholder is configured.
const DefaultPlaceholder = "{}"

// ErrTemplate is returned when the command template is empty.
var ErrTemplate = errors.New("invalid command template")

// Template is an immutable command template.
type Template struct {
	text        string
	placeholder string
}

// New validates text and returns a Template. An empty placeholder means DefaultPlaceholder.
func New(text, placeholder string) (*Template, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.Join(ErrTemplate, errors.New("template is empty"))
	}

	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}

	return &Template{
		text:        text,
		placeholder: placeholder,
	}, nil
}

// Instantiate returns the template with every placeholder replaced by argument.
func (t *Template) Instantiate(argument string) string {
	return strings.ReplaceAll(t.text, t.placeholder, argument)
}

// HasPlaceholder reports whether the template contains the placeholder at all.
// A template without one produces the same command for every argument.
func (t *Template) HasPlaceholder() bool {
	return strings.Contains(t.text, t.placeholder)
}

// Placeholder returns the token being replaced.
func (t *Template) Placeholder() string {
	return t.placeholder
}

// String returns the raw template text.
func (t *Template) String() string {
	return t.text
}
