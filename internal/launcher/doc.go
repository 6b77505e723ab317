// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package launcher runs one job's command as a child of the host command interpreter.
//
// The command string is handed to the interpreter unchanged ("/bin/sh -c CMD", or
// "cmd.exe /C CMD" on Windows), so shell syntax inside the template keeps working.
// Output is either inherited by the child or captured for ordered replay. A cancelled
// context interrupts the child and kills it after a grace period.
package launcher
