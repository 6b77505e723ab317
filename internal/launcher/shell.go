// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/matt-FFFFFF/fanout/internal/ctxlog"
)

const (
	// GOOSWindows is the string constant for Windows OS from the runtime package.
	GOOSWindows          = "windows"
	commandSwitchWindows = "/C"
	commandSwitchUnix    = "-c"
	winSystem32          = "System32"
	cmdExe               = "cmd.exe"
	binSh                = "/bin/sh"
	winSystemRootEnv     = "SystemRoot"
	shellEnv             = "SHELL"
)

// ErrInterpreterNotFound is returned when the command interpreter cannot be found or executed.
var ErrInterpreterNotFound = errors.New("command interpreter not found")

// DefaultShell returns the interpreter used when none is configured:
// cmd.exe on Windows, otherwise $SHELL, falling back to /bin/sh.
func DefaultShell(ctx context.Context) string {
	if runtime.GOOS == GOOSWindows {
		systemRoot := os.Getenv(winSystemRootEnv)
		if systemRoot == "" {
			systemRoot = `C:\Windows`
		}

		return fmt.Sprintf(`%s\%s\%s`, systemRoot, winSystem32, cmdExe)
	}

	if shell := os.Getenv(shellEnv); shell != "" {
		ctxlog.Debug(ctx, "using SHELL environment variable", "shell", shell)
		return shell
	}

	return binSh
}

// shellArgs returns argv for running command through the interpreter at path.
func shellArgs(path, command string) []string {
	if runtime.GOOS == GOOSWindows {
		return []string{path, commandSwitchWindows, command}
	}

	return []string{path, commandSwitchUnix, command}
}

// resolveShell finds the interpreter on PATH when it is not an absolute path
// and checks that it is executable.
func resolveShell(shell string) (string, error) {
	if shell == "" {
		return "", fmt.Errorf("%w: no interpreter configured", ErrInterpreterNotFound)
	}

	path, err := exec.LookPath(shell)
	if err != nil {
		return "", errors.Join(ErrInterpreterNotFound, err)
	}

	return path, nil
}
