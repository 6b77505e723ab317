// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package color wraps strings in ANSI escape codes.
// Colour output is decided once at start up: NO_COLOR disables it, FORCE_COLOR enables it,
// otherwise it is enabled when stderr is a terminal. Stderr is used because that is where
// fanout writes its logs, progress and failure summary; job output on stdout is never coloured.
package color
