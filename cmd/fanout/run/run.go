// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package run contains the fanout run command.
package run

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/matt-FFFFFF/fanout/internal/argsource"
	"github.com/matt-FFFFFF/fanout/internal/cmdtemplate"
	"github.com/matt-FFFFFF/fanout/internal/config"
	"github.com/matt-FFFFFF/fanout/internal/ctxlog"
	"github.com/matt-FFFFFF/fanout/internal/joblog"
	"github.com/matt-FFFFFF/fanout/internal/launcher"
	"github.com/matt-FFFFFF/fanout/internal/pool"
	"github.com/matt-FFFFFF/fanout/internal/progress"
	"github.com/matt-FFFFFF/fanout/internal/prompt"
	"github.com/matt-FFFFFF/fanout/internal/result"
	"github.com/matt-FFFFFF/fanout/internal/signalbroker"
	"github.com/matt-FFFFFF/fanout/internal/tui"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

const (
	jobsFlag          = "jobs"
	placeholderFlag   = "placeholder"
	captureFlag       = "capture"
	progressFlag      = "progress"
	tuiFlag           = "tui"
	haltOnErrorFlag   = "halt-on-error"
	dryRunFlag        = "dry-run"
	interactiveFlag   = "interactive"
	argFileFlag       = "arg-file"
	logFlag           = "log"
	shellFlag         = "shell"
	gracePeriodFlag   = "grace-period"
	configFlag        = "config"
	verboseFlag       = "verbose"
	quietFlag         = "quiet"
	successFlag       = "output-success-details"
	summaryStderrFlag = "summary-stderr"
	cliExitStr        = ""
	defaultGraceText  = "10s"
	templateArgsUsage = "COMMAND [ARG...]"
)

var (
	// ErrMissingCommand is returned when no command template is given.
	ErrMissingCommand = errors.New("missing command template")
	// ErrInteractiveStdin is returned when interactive mode would read both prompts and arguments from stdin.
	ErrInteractiveStdin = errors.New("interactive mode needs arguments on the command line or from --arg-file")
	// ErrInteractiveOutput is returned when interactive mode is used with stdout redirected.
	// The prompts are written to stdout and would end up in the job output.
	ErrInteractiveOutput = errors.New("interactive mode needs stdout to be a terminal")
)

// NewRunCmd returns the command that fans a command template out over a list of arguments.
func NewRunCmd() *cli.Command {
	var verbosity int

	return &cli.Command{
		Name:      "run",
		Usage:     "Run a command once per argument, in parallel",
		ArgsUsage: templateArgsUsage,
		Description: `Run COMMAND once for every ARG, replacing each placeholder ({} by default) with the argument.
The command is run by the shell, so pipes, redirects and quoting all work.

Arguments are taken from the command line. Without any, they are read one per line from
--arg-file, or from standard input. The arg file may be a local path or a URL in
Hashicorp's go-getter syntax. See https://github.com/hashicorp/go-getter.
A plain URL fetches the file itself, e.g. https://example.com/args.txt. Use "//" to pick a
file inside a fetched directory, e.g. git::https://example.com/repo.git//lists/args.txt?ref=main.

Settings are read from --config, or .fanout.yaml in the working directory if present.
Flags always take precedence over the config file.

The exit code is 0 when every job succeeded and 1 otherwise.

Use -- before COMMAND when the command or arguments start with a dash.`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    jobsFlag,
				Aliases: []string{"j"},
				Usage: "Set the maximum number of jobs to run at once. " +
					"0 runs every job at once. Defaults to the number of CPU cores available.",
				OnlyOnce: true,
			},
			&cli.StringFlag{
				Name:     placeholderFlag,
				Usage:    "Set the token replaced by each argument",
				Value:    cmdtemplate.DefaultPlaceholder,
				OnlyOnce: true,
			},
			&cli.BoolFlag{
				Name:        captureFlag,
				Aliases:     []string{"c"},
				Usage:       "Buffer each job's output and print it in argument order once all jobs are done",
				DefaultText: "false",
				OnlyOnce:    true,
			},
			&cli.BoolFlag{
				Name:        progressFlag,
				Aliases:     []string{"p"},
				Usage:       "Show a progress bar on stderr",
				DefaultText: "false",
				OnlyOnce:    true,
			},
			&cli.BoolFlag{
				Name:        tuiFlag,
				Aliases:     []string{"t"},
				Usage:       "Run with a Terminal User Interface (TUI) showing real-time progress. Implies --capture",
				DefaultText: "false",
				OnlyOnce:    true,
			},
			&cli.BoolFlag{
				Name:        haltOnErrorFlag,
				Usage:       "Stop starting new jobs after the first failure",
				DefaultText: "false",
				OnlyOnce:    true,
			},
			&cli.BoolFlag{
				Name:        dryRunFlag,
				Usage:       "Print each command instead of running it",
				DefaultText: "false",
				OnlyOnce:    true,
			},
			&cli.BoolFlag{
				Name:        interactiveFlag,
				Aliases:     []string{"i"},
				Usage:       "Ask for confirmation before running each job",
				DefaultText: "false",
				OnlyOnce:    true,
			},
			&cli.StringFlag{
				Name:      argFileFlag,
				Aliases:   []string{"a"},
				Usage:     "Read arguments, one per line, from a file or go-getter URL",
				TakesFile: true,
				OnlyOnce:  true,
			},
			&cli.StringFlag{
				Name:      logFlag,
				Aliases:   []string{"l"},
				Usage:     "Write a JSON record for each finished job to this file",
				TakesFile: true,
				OnlyOnce:  true,
			},
			&cli.StringFlag{
				Name:     shellFlag,
				Usage:    "Set the command interpreter. Defaults to $SHELL, or /bin/sh",
				OnlyOnce: true,
			},
			&cli.DurationFlag{
				Name:        gracePeriodFlag,
				Usage:       "Set how long interrupted jobs may take to exit before they are killed",
				DefaultText: defaultGraceText,
				OnlyOnce:    true,
			},
			&cli.StringFlag{
				Name:      configFlag,
				Usage:     "Read settings from a YAML or HCL file, or go-getter URL",
				TakesFile: true,
				OnlyOnce:  true,
			},
			&cli.BoolFlag{
				Name:        successFlag,
				Aliases:     []string{"success"},
				Usage:       "List successful jobs in the summary",
				DefaultText: "false",
				OnlyOnce:    true,
			},
			&cli.BoolFlag{
				Name:        summaryStderrFlag,
				Usage:       "Repeat the captured stderr of failed jobs in the summary",
				DefaultText: "false",
				OnlyOnce:    true,
			},
			&cli.BoolFlag{
				Name:    verboseFlag,
				Aliases: []string{"v"},
				Usage:   "Increase log verbosity, repeat for more",
				Config:  cli.BoolConfig{Count: &verbosity},
			},
			&cli.BoolFlag{
				Name:    quietFlag,
				Aliases: []string{"q"},
				Usage:   "Only log errors",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctxlog.SetVerbosity(cmd.Bool(quietFlag), verbosity)
			return actionFunc(ctx, cmd)
		},
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)
	logger.Debug("running run command")

	stdout, stderr := cmd.Root().Writer, cmd.Root().ErrWriter

	cfg, err := loadConfig(ctx, cmd)
	if err != nil {
		logger.Error(err.Error())
		return cli.Exit(cliExitStr, 1)
	}

	if cmd.Args().Len() == 0 {
		logger.Error(fmt.Sprintf("%s. Usage: fanout run [flags] %s", ErrMissingCommand, templateArgsUsage))
		return cli.Exit(cliExitStr, 1)
	}

	tmpl, err := cmdtemplate.New(cmd.Args().First(), cfg.Placeholder)
	if err != nil {
		logger.Error(err.Error())
		return cli.Exit(cliExitStr, 1)
	}

	if cfg.Interactive && !isTerminal(stdout) {
		logger.Error(ErrInteractiveOutput.Error())
		return cli.Exit(cliExitStr, 1)
	}

	if !tmpl.HasPlaceholder() {
		logger.Warn("command does not contain the placeholder, every job runs the same command", "placeholder", tmpl.Placeholder())
	}

	sources := argsource.Sources{
		Positional: cmd.Args().Tail(),
		File:       cmd.String(argFileFlag),
	}

	if len(sources.Positional) == 0 && sources.File == "" {
		if cfg.Interactive {
			logger.Error(ErrInteractiveStdin.Error())
			return cli.Exit(cliExitStr, 1)
		}

		sources.Stdin = cmd.Root().Reader
		if sources.Stdin == nil {
			sources.Stdin = os.Stdin
		}
	}

	args, err := argsource.Load(ctx, sources)
	if err != nil {
		logger.Error(err.Error())
		return cli.Exit(cliExitStr, 1)
	}

	runID := uuid.NewString()
	logger = logger.With("runID", runID)

	l, err := newLauncher(ctx, cfg, runID, stdout, stderr)
	if err != nil {
		logger.Error(err.Error())
		return cli.Exit(cliExitStr, 1)
	}

	var listeners progress.Listeners

	var bar *progress.Bar
	if cfg.Progress && !cfg.TUI {
		bar = progress.NewBar(stderr, time.Now())
		listeners = append(listeners, bar)
	}

	if cfg.LogFile != "" {
		jl, err := joblog.Open(cfg.LogFile, runID)
		if err != nil {
			logger.Error(err.Error())
			return cli.Exit(cliExitStr, 1)
		}

		defer jl.Close() //nolint:errcheck

		listeners = append(listeners, jl)
	}

	var runner *tui.Runner
	if cfg.TUI {
		runner = tui.NewRunner("fanout: "+tmpl.String(), len(args), tui.ProgramOptions(stdout)...)
		listeners = append(listeners, runner.Listener())
	}

	var reporter progress.Reporter = progress.NewNullReporter()

	if len(listeners) > 0 {
		// One slot per job so that no event is ever dropped.
		cr := progress.NewChannelReporter(max(len(args), 1))
		cr.Listen(listeners)
		reporter = cr
	}

	opts := []pool.Option{
		pool.WithWorkers(cfg.Workers),
		pool.WithHaltOnError(cfg.HaltOnError),
		pool.WithReporter(reporter),
		pool.WithRunID(runID),
	}

	if cfg.Interactive {
		confirmer := prompt.New()
		defer confirmer.Close() //nolint:errcheck

		opts = append(opts, pool.WithConfirmer(confirmer))
	}

	p, err := pool.New(tmpl, l, opts...)
	if err != nil {
		logger.Error(err.Error())
		return cli.Exit(cliExitStr, 1)
	}

	logger.Debug("starting jobs", "jobs", len(args), "workers", p.Workers(len(args)))

	var (
		res    *result.RunResult
		runErr error
	)

	switch cfg.TUI {
	case true:
		// Logs would corrupt the TUI, so they are buffered and written afterwards.
		buf := new(bytes.Buffer)
		tuiCtx, cancel := context.WithCancel(ctxlog.NewForWriter(ctx, buf))

		res, runErr = runner.Run(tuiCtx, cancel, func(ctx context.Context) (*result.RunResult, error) {
			return p.Run(ctx, args)
		})

		cancel()
		buf.WriteTo(stderr) //nolint:errcheck
	default:
		res, runErr = p.Run(ctx, args)
	}

	reporter.Close()

	if bar != nil {
		bar.Finish()
	}

	if res == nil {
		logger.Error(fmt.Sprintf("run failed: %s", runErr))
		return cli.Exit(cliExitStr, 1)
	}

	if cfg.CaptureOutput || cfg.TUI {
		if err := res.Replay(stdout, stderr); err != nil {
			logger.Error(fmt.Sprintf("failed to write job output: %s", err))
		}
	}

	outOpts := result.DefaultOutputOptions()
	outOpts.IncludeStdErr = cmd.Bool(summaryStderrFlag)
	outOpts.ShowSuccessDetails = cmd.Bool(successFlag)

	if !res.Success() || outOpts.ShowSuccessDetails {
		if err := res.WriteSummary(stderr, outOpts); err != nil {
			logger.Error(fmt.Sprintf("failed to write summary: %s", err))
		}
	}

	if runErr != nil {
		logger.Error(runErr.Error())
		return cli.Exit(cliExitStr, 1)
	}

	if !res.Success() {
		logger.Debug("some jobs failed", "failed", res.Failed, "error", res.Err())
		return cli.Exit(cliExitStr, res.ExitCode())
	}

	logger.Debug("all jobs succeeded", "jobs", res.Total)

	return nil
}

// loadConfig reads the config file, if any, and applies the flags that were set.
func loadConfig(ctx context.Context, cmd *cli.Command) (*config.Config, error) {
	cfg := config.Default()

	path := cmd.String(configFlag)
	if path == "" {
		path = config.FindDefault()
	}

	if path != "" {
		ctxlog.Debug(ctx, "loading config file", "path", path)

		var err error

		if cfg, err = config.Load(ctx, path); err != nil {
			return nil, err
		}
	}

	if cmd.IsSet(jobsFlag) {
		cfg.Workers = cmd.Int(jobsFlag)
	}

	if cmd.IsSet(placeholderFlag) {
		cfg.Placeholder = cmd.String(placeholderFlag)
	}

	if cmd.IsSet(shellFlag) {
		cfg.Shell = cmd.String(shellFlag)
	}

	if cmd.IsSet(gracePeriodFlag) {
		cfg.GracePeriod = cmd.Duration(gracePeriodFlag).String()
	}

	if cmd.IsSet(logFlag) {
		cfg.LogFile = cmd.String(logFlag)
	}

	for flag, field := range map[string]*bool{
		captureFlag:     &cfg.CaptureOutput,
		progressFlag:    &cfg.Progress,
		tuiFlag:         &cfg.TUI,
		haltOnErrorFlag: &cfg.HaltOnError,
		dryRunFlag:      &cfg.DryRun,
		interactiveFlag: &cfg.Interactive,
	} {
		if cmd.IsSet(flag) {
			*field = cmd.Bool(flag)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func newLauncher(ctx context.Context, cfg *config.Config, runID string, stdout, stderr io.Writer) (pool.Launcher, error) {
	if cfg.DryRun {
		return launcher.NewDryRun(stdout), nil
	}

	grace, err := cfg.Grace()
	if err != nil {
		return nil, err
	}

	shell := strings.TrimSpace(cfg.Shell)
	if shell == "" {
		shell = launcher.DefaultShell(ctx)
	}

	return launcher.New(ctx,
		launcher.WithShell(shell),
		launcher.WithCapture(cfg.CaptureOutput || cfg.TUI),
		launcher.WithOutput(stdout, stderr),
		launcher.WithEnv(cfg.Env),
		launcher.WithRunID(runID),
		launcher.WithGracePeriod(grace),
		launcher.WithForce(signalbroker.Force(ctx)),
	), nil
}

// isTerminal reports whether w is a file attached to a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
