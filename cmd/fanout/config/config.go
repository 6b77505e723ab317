// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config contains the fanout config command.
package config

import (
	"context"
	"fmt"

	fanoutcfg "github.com/matt-FFFFFF/fanout/internal/config"
	"github.com/matt-FFFFFF/fanout/internal/ctxlog"
	"github.com/urfave/cli/v3"
)

const (
	configFlag = "config"
	forceFlag  = "force"
	pathArg    = "path"
	cliExitStr = ""
)

// NewConfigCmd returns the command that shows and creates config files.
func NewConfigCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Show or create the fanout configuration file",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the effective configuration as YAML",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:      configFlag,
						Usage:     "Read settings from a YAML or HCL file, or go-getter URL",
						TakesFile: true,
						OnlyOnce:  true,
					},
				},
				Action: showAction,
			},
			{
				Name:      "init",
				Usage:     "Write the default configuration to a file",
				ArgsUsage: "[PATH]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    forceFlag,
						Aliases: []string{"f"},
						Usage:   "Replace the file if it already exists",
					},
				},
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: pathArg,
					},
				},
				Action: initAction,
			},
		},
	}
}

func showAction(ctx context.Context, cmd *cli.Command) error {
	cfg := fanoutcfg.Default()

	path := cmd.String(configFlag)
	if path == "" {
		path = fanoutcfg.FindDefault()
	}

	if path != "" {
		var err error

		if cfg, err = fanoutcfg.Load(ctx, path); err != nil {
			ctxlog.Error(ctx, err.Error())
			return cli.Exit(cliExitStr, 1)
		}
	}

	b, err := cfg.Marshal()
	if err != nil {
		ctxlog.Error(ctx, fmt.Sprintf("failed to render config: %s", err))
		return cli.Exit(cliExitStr, 1)
	}

	if _, err := cmd.Root().Writer.Write(b); err != nil {
		return cli.Exit(cliExitStr, 1)
	}

	return nil
}

func initAction(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg(pathArg)
	if path == "" {
		path = fanoutcfg.DefaultFileName
	}

	if err := fanoutcfg.WriteDefault(path, cmd.Bool(forceFlag)); err != nil {
		ctxlog.Error(ctx, err.Error())
		return cli.Exit(cliExitStr, 1)
	}

	ctxlog.Info(ctx, "wrote config file", "path", path)

	return nil
}
