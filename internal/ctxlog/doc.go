// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctxlog carries a *slog.Logger in a context.Context.
//
// The default logger writes to stderr through a pretty console handler, so that the
// stdout of the jobs fanout runs is never mixed with its own diagnostics.
// The level is read from the FANOUT_LOG_LEVEL environment variable
// ("DEBUG", "INFO", "WARN" or "ERROR", anything else means "WARN") and can be
// overridden from the command line with SetVerbosity.
package ctxlog
