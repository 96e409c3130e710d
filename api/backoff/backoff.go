// Copyright (c) 2020 Uber Technologies, Inc.
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

// Package backoff defines the interfaces the retry driver uses to decide how
// long to wait between attempts.
package backoff

//go:generate mockgen -destination=backofftest/backoff.go -package=backofftest go.uber.org/retry/api/backoff Strategy,Backoff

import "time"

// Strategy is a factory for backoff algorithms.
// Each backoff instance may capture some state, typically a random number
// generator.
// The strategy guarantees that these backoff instances are referentially
// independent, so every retry loop can own one without locking.
//
// Backoff strategies are useful for configuring retry loops, balancing the
// need to recover quickly against denial of service as a failure mode.
type Strategy interface {
	Backoff() Backoff
}

// Backoff is an algorithm for determining how long to wait after a number of
// attempts to perform some action.
// Attempts are counted from zero: Duration(0) is the wait after the first
// attempt asked to be retried.
// Instances of backoff are intended to be used in the stack of a single
// goroutine and are not required to be safe for concurrent use.
type Backoff interface {
	Duration(attempts uint) time.Duration
}
