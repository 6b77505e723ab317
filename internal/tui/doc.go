// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tui provides a live terminal view of a fanout run. It shows an overall
// progress bar, running totals and a scrollable list of finished jobs, and stays open
// after the run so the results can be read before returning to the terminal.
package tui
