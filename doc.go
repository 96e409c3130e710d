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

// Package retry runs an operation until it succeeds, fails for good or runs
// out of attempts, waiting a randomized, growing delay between attempts.
//
// The operation decides what happens next by returning one of three
// outcomes:
//
//  out, err := retry.Run(func() retry.Outcome[*Response, error] {
//  	resp, err := fetch()
//  	switch {
//  	case err == nil:
//  		return retry.Ok[*Response, error](resp)
//  	case isThrottled(err):
//  		return retry.Retry[*Response, error](nil)
//  	default:
//  		return retry.Err[*Response, error](err)
//  	}
//  }, retry.MaxAttempts(5))
//
// Run never decides on its own which failures are worth retrying: only
// Retry outcomes are retried. Err outcomes are handed back unchanged, and the
// error result of Run only reports failures of the retry loop itself, such as
// ErrExceededRetries.
//
// Delays
//
// Delays use decorrelated jitter. After attempt n asked to be retried, the
// delay is drawn from a window that grows as BaseDelay * 2^n, is capped at
// MaxDelay and is then spread randomly so that independent callers drift
// apart. Every delay lies in [BaseDelay, MaxDelay]. See Delay.
//
// Configuration
//
// Calls start from DefaultConfig: at most 10 attempts, delays between 100ms
// and 5 minutes, waiting with time.Sleep. Options and WithConfig override
// individual fields. Configurations are validated before the first attempt.
//
// The retryconfig package loads named configurations from YAML.
//
// Testing
//
// Replace the wait with WaitFunc. The retrytest package provides a Waiter
// that records delays without sleeping.
//
// Observability
//
// NewObserver builds an Observer that logs with zap, counts calls, successes,
// waits and failures with go.uber.org/net/metrics (optionally pushed to
// Tally) and records an OpenTracing span per call.
package retry
