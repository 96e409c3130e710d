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
	"os/exec"
	"strings"
	"syscall"

	"github.com/mattn/go-shellwords"
	"go.uber.org/retry"
	"go.uber.org/zap"
)

// commandArgs returns the command to run, from either the --command line or
// the positional arguments.
func commandArgs(line string, args []string) ([]string, error) {
	if line == "" {
		if len(args) == 0 {
			return nil, errors.New("no command given, use --command or pass it after --")
		}
		return args, nil
	}
	if len(args) > 0 {
		return nil, fmt.Errorf("--command cannot be combined with a command after --: %v", args)
	}

	parser := shellwords.NewParser()
	parser.ParseEnv = true
	argv, err := parser.Parse(line)
	if err != nil {
		return nil, fmt.Errorf("failed to parse --command %q: %v", line, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("command evaluated to empty: %q", line)
	}
	return argv, nil
}

type command struct {
	argv   []string
	stdout io.Writer
	stderr io.Writer
	logger *zap.Logger
}

// retry runs the command until it exits with 0, with a status that is not
// retryable, or until the attempts run out.
func (c *command) retry(retryable func(status int) bool, opts ...retry.Option) error {
	var startErr error
	out, err := retry.Run(func() retry.Outcome[int, int] {
		status, err := c.runOnce()
		switch {
		case err != nil:
			startErr = err
			return retry.Err[int, int](_exitCannotRun)
		case status == 0:
			return retry.Ok[int, int](0)
		case retryable(status):
			c.logger.Debug("Command failed with a retryable status.", zap.Int("status", status))
			return retry.Retry[int, int](status)
		default:
			return retry.Err[int, int](status)
		}
	}, opts...)

	switch {
	case errors.Is(err, retry.ErrExceededRetries):
		return &exitError{code: _exitTempFail}
	case err != nil:
		return &exitError{code: _exitUsage, err: err}
	case out.IsErr():
		return &exitError{code: out.Failure(), err: startErr}
	default:
		return nil
	}
}

// runOnce runs the command to completion. The error reports a command that
// could not be started; a command that ran reports through its status.
func (c *command) runOnce() (int, error) {
	cmd := exec.Command(c.argv[0], c.argv[1:]...)
	cmd.Stdout = c.stdout
	cmd.Stderr = c.stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return 0, fmt.Errorf("%v: %v", c, err)
	}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal()), nil
	}
	return exitErr.ExitCode(), nil
}

func (c *command) String() string {
	return strings.Join(c.argv, " ")
}
