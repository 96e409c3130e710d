// Copyright (c) 2021 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/retry"
	"go.uber.org/retry/retryconfig"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// Exit codes from sysexits.h.
	_exitUsage    = 64
	_exitTempFail = 75

	// Exit code of a command that could not be started, as reported by
	// shells.
	_exitCannotRun = 127
)

type options struct {
	command     string
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	configPath  string
	policy      string
	retryOn     []int
	verbose     bool
}

// exitError ends the program with code after printing err, if any.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func exitCode(stderr io.Writer, err error) int {
	if err == nil {
		return 0
	}
	var exit *exitError
	if errors.As(err, &exit) {
		if exit.err != nil {
			fmt.Fprintf(stderr, "retry: %v\n", exit.err)
		}
		return exit.code
	}
	fmt.Fprintf(stderr, "retry: %v\n", err)
	return _exitUsage
}

func newRootCmd(stdout, stderr io.Writer, wait func(time.Duration)) *cobra.Command {
	defaults := retry.DefaultConfig()
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "retry [flags] [--] command [args...]",
		Short: "Run a command until it succeeds",
		Long: `Run a command until it exits with status 0, waiting between attempts.

Exit statuses listed in --retry-on are retried; any other non-zero status
stops immediately and becomes the exit status of retry. Without --retry-on,
every non-zero status is retried.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			argv, err := commandArgs(opts.command, args)
			if err != nil {
				return err
			}

			cfg, err := opts.config(cmd)
			if err != nil {
				return err
			}

			logger := newLogger(stderr, opts.verbose)
			defer func() { _ = logger.Sync() }()

			observer, stop := retry.NewObserver(retry.ObserverConfig{
				Name:   argv[0],
				Logger: logger,
			})
			defer stop()

			c := &command{
				argv:   argv,
				stdout: stdout,
				stderr: stderr,
				logger: logger,
			}
			return c.retry(opts.classifier(), retry.WithConfig(cfg), retry.WaitFunc(wait), retry.WithObserver(observer))
		},
	}

	flags := cmd.Flags()
	// Everything after the command name belongs to the command.
	flags.SetInterspersed(false)
	flags.StringVarP(&opts.command, "command", "c", "", "command line to run, split like a shell would")
	flags.IntVarP(&opts.maxAttempts, "max-attempts", "n", defaults.MaxAttempts, "maximum number of attempts")
	flags.DurationVar(&opts.baseDelay, "base-delay", defaults.BaseDelay, "minimum delay between attempts")
	flags.DurationVar(&opts.maxDelay, "max-delay", defaults.MaxDelay, "maximum delay between attempts")
	flags.StringVar(&opts.configPath, "config", "", "YAML file of named retry policies")
	flags.StringVar(&opts.policy, "policy", "", "policy to use from --config, defaults to its default policy")
	flags.IntSliceVar(&opts.retryOn, "retry-on", nil, "exit statuses to retry, defaults to any non-zero status")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log every attempt")
	return cmd
}

// config starts from the selected policy, or the defaults, and applies the
// delay and attempt flags given on the command line.
func (o *options) config(cmd *cobra.Command) (retry.Config, error) {
	cfg := retry.DefaultConfig()
	switch {
	case o.configPath != "":
		registry, err := loadRegistry(o.configPath)
		if err != nil {
			return cfg, err
		}
		if o.policy == "" {
			cfg = registry.Default()
			break
		}
		var ok bool
		if cfg, ok = registry.Config(o.policy); !ok {
			return cfg, fmt.Errorf("unknown policy %q in %s, possibilities are: %v", o.policy, o.configPath, registry.Names())
		}
	case o.policy != "":
		return cfg, errors.New("--policy requires --config")
	}

	flags := cmd.Flags()
	if flags.Changed("max-attempts") {
		cfg.MaxAttempts = o.maxAttempts
	}
	if flags.Changed("base-delay") {
		cfg.BaseDelay = o.baseDelay
	}
	if flags.Changed("max-delay") {
		cfg.MaxDelay = o.maxDelay
	}
	return cfg, nil
}

func loadRegistry(path string) (*retryconfig.Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	registry, err := retryconfig.LoadFromYAML(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %v", path, err)
	}
	return registry, nil
}

// classifier decides which exit statuses are retried.
func (o *options) classifier() func(status int) bool {
	if len(o.retryOn) == 0 {
		return func(status int) bool { return status != 0 }
	}
	retryable := make(map[int]struct{}, len(o.retryOn))
	for _, status := range o.retryOn {
		retryable[status] = struct{}{}
	}
	return func(status int) bool {
		_, ok := retryable[status]
		return ok
	}
}

func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.TimeKey = ""
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(w),
		level,
	)
	return zap.New(core)
}
