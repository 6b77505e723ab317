// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	tests := []struct {
		name          string
		setupContext  func() context.Context
		expectDefault bool
	}{
		{
			name: "context with logger",
			setupContext: func() context.Context {
				return New(context.Background(), slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
			},
		},
		{
			name:          "context without logger",
			setupContext:  context.Background,
			expectDefault: true,
		},
		{
			name: "context with nil logger",
			setupContext: func() context.Context {
				return New(context.Background(), nil)
			},
			expectDefault: true,
		},
		{
			name: "context with wrong type value",
			setupContext: func() context.Context {
				return context.WithValue(context.Background(), loggerKey{}, "not a logger")
			},
			expectDefault: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := Logger(tt.setupContext())
			require.NotNil(t, logger)

			if tt.expectDefault {
				assert.Same(t, DefaultLogger, logger)
			} else {
				assert.NotSame(t, DefaultLogger, logger)
			}
		})
	}
}

func TestLoggingFunctions(t *testing.T) {
	var buf bytes.Buffer

	ctx := New(context.Background(), slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))

	tests := []struct {
		name     string
		logFunc  func(context.Context, string, ...any)
		expected string
	}{
		{name: "info", logFunc: Info, expected: "INFO"},
		{name: "debug", logFunc: Debug, expected: "DEBUG"},
		{name: "warn", logFunc: Warn, expected: "WARN"},
		{name: "error", logFunc: Error, expected: "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc(ctx, "test message", "key", "value")
			assert.Contains(t, buf.String(), tt.expected)
			assert.Contains(t, buf.String(), "test message")
			assert.Contains(t, buf.String(), "key=value")
		})
	}
}

func TestLogLevelFromEnv(t *testing.T) {
	tests := []struct {
		envValue string
		want     slog.Level
	}{
		{envValue: "TRACE", want: LevelTrace},
		{envValue: "DEBUG", want: slog.LevelDebug},
		{envValue: "debug", want: slog.LevelDebug},
		{envValue: "INFO", want: slog.LevelInfo},
		{envValue: "WARN", want: slog.LevelWarn},
		{envValue: "ERROR", want: slog.LevelError},
		{envValue: "INVALID", want: slog.LevelWarn},
		{envValue: "", want: slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run("env "+tt.envValue, func(t *testing.T) {
			t.Setenv(LogLevelEnvVar, tt.envValue)
			assert.Equal(t, tt.want, logLevelFromEnv())
		})
	}
}

func TestSetVerbosity(t *testing.T) {
	orig := LevelVar.Level()
	t.Cleanup(func() { LevelVar.Set(orig) })

	tests := []struct {
		name    string
		quiet   bool
		verbose int
		want    slog.Level
	}{
		{name: "quiet beats verbose", quiet: true, verbose: 3, want: slog.LevelError},
		{name: "zero keeps level", verbose: 0, want: slog.LevelWarn},
		{name: "one is info", verbose: 1, want: slog.LevelInfo},
		{name: "two is debug", verbose: 2, want: slog.LevelDebug},
		{name: "three is trace", verbose: 3, want: LevelTrace},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			LevelVar.Set(slog.LevelWarn)
			SetVerbosity(tt.quiet, tt.verbose)
			assert.Equal(t, tt.want, LevelVar.Level())
		})
	}
}

func TestNewForWriter(t *testing.T) {
	orig := LevelVar.Level()
	t.Cleanup(func() { LevelVar.Set(orig) })
	LevelVar.Set(slog.LevelInfo)

	var buf bytes.Buffer

	ctx := NewForWriter(context.Background(), &buf)
	Info(ctx, "buffered", "jobs", 3)

	assert.Contains(t, buf.String(), "INFO: buffered")
	assert.Contains(t, buf.String(), `"jobs"`)
	assert.NotContains(t, buf.String(), "\033[", "writer logger must not colour")
}
