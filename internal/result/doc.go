// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package result aggregates job outcomes into the result of a run.
//
// The Aggregator is the single writer of a RunResult. Workers call Record concurrently,
// once per job; Finalize hands out the frozen aggregate once every job has reported.
// Recording the same index twice is a scheduling defect and is reported, never ignored.
package result
