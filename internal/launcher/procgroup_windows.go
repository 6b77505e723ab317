// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build windows

package launcher

import (
	"os"
	"syscall"
)

func sysProcAttr() *syscall.SysProcAttr {
	return nil
}

// interruptGroup kills the child; Windows cannot deliver an interrupt to another console process.
func interruptGroup(ps *os.Process) error {
	return ps.Kill()
}

func killGroup(ps *os.Process) error {
	return ps.Kill()
}
