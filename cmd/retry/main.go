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

// retry runs a command until it exits successfully, waiting a randomized,
// growing delay between attempts.
//
//  retry --max-attempts 5 -- curl -sf http://localhost:8080/health
//  retry --command 'pg_isready -h "$DB_HOST"' --retry-on 1,2
//  retry --config retry.yaml --policy slow -- ./migrate.sh
//
// retry exits with the status of the last attempt, or with 75 (EX_TEMPFAIL)
// when the command still asked to be retried after the last attempt.
package main

import (
	"io"
	"os"
	"time"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, time.Sleep))
}

func run(args []string, stdout, stderr io.Writer, wait func(time.Duration)) int {
	cmd := newRootCmd(stdout, stderr, wait)
	cmd.SetArgs(args)
	return exitCode(stderr, cmd.Execute())
}
