// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config holds the settings of a run and loads them from a YAML or HCL file.
//
// HCL files may use expressions. Two variables are available: cpus, the number of
// logical CPUs, and env, a map of the environment. For example:
//
//	workers = cpus * 2
//	shell   = env.SHELL
package config
