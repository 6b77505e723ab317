// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package jobs defines the unit of work fanout schedules and the outcome each one produces.
//
// A Job pairs a position in the argument sequence with the argument and the command built
// from it. An Outcome is the terminal state of exactly one Job.
package jobs
