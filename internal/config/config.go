// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/matt-FFFFFF/fanout/internal/cmdtemplate"
	"github.com/matt-FFFFFF/fanout/internal/fetch"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
)

// DefaultFileName is loaded from the working directory when no config file is given.
const DefaultFileName = ".fanout.yaml"

const defaultGracePeriod = "10s"

var (
	// ErrInvalidConfig is returned when a setting is out of range.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrReadConfig is returned when the config file cannot be read.
	ErrReadConfig = errors.New("could not read config file")
	// ErrDecodeConfig is returned when the config file cannot be decoded.
	ErrDecodeConfig = errors.New("could not decode config file")
	// ErrUnknownFormat is returned for config files that are neither YAML nor HCL.
	ErrUnknownFormat = errors.New("unknown config file format, expected .yaml, .yml or .hcl")
	// ErrFileExists is returned by WriteDefault when the file is already present.
	ErrFileExists = errors.New("config file already exists")
)

// FsFactory returns the filesystem used to find and write the default config file.
// It is replaced in tests.
var FsFactory = func() afero.Fs {
	return afero.NewOsFs()
}

// Config is the effective configuration of a run.
type Config struct {
	Workers       int               `yaml:"workers" hcl:"workers,optional"`
	Placeholder   string            `yaml:"placeholder" hcl:"placeholder,optional"`
	Shell         string            `yaml:"shell,omitempty" hcl:"shell,optional"`
	GracePeriod   string            `yaml:"grace_period" hcl:"grace_period,optional"`
	CaptureOutput bool              `yaml:"capture_output" hcl:"capture_output,optional"`
	Progress      bool              `yaml:"progress" hcl:"progress,optional"`
	TUI           bool              `yaml:"tui" hcl:"tui,optional"`
	HaltOnError   bool              `yaml:"halt_on_error" hcl:"halt_on_error,optional"`
	DryRun        bool              `yaml:"dry_run" hcl:"dry_run,optional"`
	Interactive   bool              `yaml:"interactive" hcl:"interactive,optional"`
	LogFile       string            `yaml:"log_file,omitempty" hcl:"log_file,optional"`
	Env           map[string]string `yaml:"env,omitempty" hcl:"env,optional"`
}

// Default returns the built in configuration.
func Default() *Config {
	return &Config{
		Workers:     runtime.NumCPU(),
		Placeholder: cmdtemplate.DefaultPlaceholder,
		GracePeriod: defaultGracePeriod,
	}
}

// Grace returns the parsed grace period.
func (c *Config) Grace() (time.Duration, error) {
	if c.GracePeriod == "" {
		return time.ParseDuration(defaultGracePeriod)
	}

	d, err := time.ParseDuration(c.GracePeriod)
	if err != nil {
		return 0, fmt.Errorf("%w: grace_period: %w", ErrInvalidConfig, err)
	}

	return d, nil
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	var errs []error

	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidConfig, c.Workers))
	}

	if c.Placeholder == "" {
		errs = append(errs, fmt.Errorf("%w: placeholder must not be empty", ErrInvalidConfig))
	}

	if d, err := c.Grace(); err != nil {
		errs = append(errs, err)
	} else if d < 0 {
		errs = append(errs, fmt.Errorf("%w: grace_period must not be negative, got %s", ErrInvalidConfig, d))
	}

	if c.TUI && c.Interactive {
		errs = append(errs, fmt.Errorf("%w: tui and interactive cannot be used together", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// Load reads src, a local path or go-getter URL, over the defaults and validates the result.
// The format is chosen by the file extension.
func Load(ctx context.Context, src string) (*Config, error) {
	b, err := fetch.Get(ctx, src)
	if err != nil {
		return nil, errors.Join(ErrReadConfig, err)
	}

	return Decode(src, b)
}

// Decode parses src over the defaults. The name is used to choose the format
// and in error messages.
func Decode(name string, src []byte) (*Config, error) {
	c := Default()

	path, _, _ := strings.Cut(name, "?")

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.UnmarshalWithOptions(src, c, yaml.DisallowUnknownField()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrDecodeConfig, name, err)
		}
	case ".hcl":
		if err := hclsimple.Decode(name, src, evalContext(), c); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrDecodeConfig, name, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, name)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// FindDefault returns DefaultFileName when it exists in the working directory, otherwise "".
func FindDefault() string {
	if ok, _ := afero.Exists(FsFactory(), DefaultFileName); ok {
		return DefaultFileName
	}

	return ""
}

// Marshal renders the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// WriteDefault writes the default configuration to path as YAML. Workers is left out.
// It refuses to replace an existing file unless force is set.
func WriteDefault(path string, force bool) error {
	fs := FsFactory()

	if ok, _ := afero.Exists(fs, path); ok && !force {
		return fmt.Errorf("%w: %s", ErrFileExists, path)
	}

	b, err := Default().Marshal()
	if err != nil {
		return err
	}

	return afero.WriteFile(fs, path, withoutWorkers(b), 0o644)
}

// withoutWorkers drops the workers line so that the file follows the CPU count of
// whichever host loads it.
func withoutWorkers(b []byte) []byte {
	sb := strings.Builder{}
	sb.WriteString("# workers defaults to the number of CPUs of the host running fanout.\n")
	sb.WriteString("# 0 runs every job at once.\n")
	sb.WriteString("# workers: 4\n")

	for _, line := range strings.SplitAfter(string(b), "\n") {
		if strings.HasPrefix(line, "workers:") {
			continue
		}

		sb.WriteString(line)
	}

	return []byte(sb.String())
}

// evalContext exposes cpus and env to HCL expressions.
func evalContext() *hcl.EvalContext {
	env := make(map[string]cty.Value)

	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}

		env[k] = cty.StringVal(v)
	}

	envVal := cty.MapValEmpty(cty.String)
	if len(env) > 0 {
		envVal = cty.MapVal(env)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"cpus": cty.NumberIntVal(int64(runtime.NumCPU())),
			"env":  envVal,
		},
	}
}
