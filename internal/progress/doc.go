// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package progress carries completion events from the result aggregator to whatever renders them.
//
// Producers call Reporter.Report, consumers implement Listener. The ChannelReporter sits in
// between so that a slow consumer, such as a terminal, can never hold up the workers that
// record outcomes. Reporting is best effort: a full buffer drops the event.
package progress
