// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package pool fans a command template out over a list of arguments.
//
// A fixed set of workers pull the next argument index from a shared cursor, so work
// is dispatched in index order and never more than the configured number of children
// run at once. Every index ends up with exactly one outcome in the result, including
// those that were never started because the run was cancelled or halted.
package pool
