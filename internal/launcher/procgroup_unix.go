// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build !windows

package launcher

import (
	"os"
	"syscall"
)

// sysProcAttr puts each child in its own process group so that signals
// reach everything the command line started.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

func interruptGroup(ps *os.Process) error {
	return signalGroup(ps, syscall.SIGINT)
}

func killGroup(ps *os.Process) error {
	return signalGroup(ps, syscall.SIGKILL)
}

func signalGroup(ps *os.Process, sig syscall.Signal) error {
	err := syscall.Kill(-ps.Pid, sig)
	if err == syscall.ESRCH {
		return os.ErrProcessDone
	}

	return err
}
