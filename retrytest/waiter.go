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

// Package retrytest provides wait functions for testing code that retries.
package retrytest

import (
	"sync"
	"time"

	"go.uber.org/atomic"
)

// NoWait returns immediately. Use it with retry.WaitFunc when a test does
// not care about delays.
func NoWait(time.Duration) {}

// Waiter records the delays it is asked to wait without sleeping. It is safe
// for concurrent use.
//
//  w := retrytest.NewWaiter()
//  retry.Run(op, retry.WaitFunc(w.Wait))
//  assert.Equal(t, 2, w.Calls())
type Waiter struct {
	calls atomic.Int64
	total atomic.Int64

	mu     sync.Mutex
	delays []time.Duration
}

// NewWaiter returns a Waiter that has not waited yet.
func NewWaiter() *Waiter {
	return &Waiter{}
}

// Wait records d and returns immediately.
func (w *Waiter) Wait(d time.Duration) {
	w.calls.Inc()
	w.total.Add(int64(d))

	w.mu.Lock()
	w.delays = append(w.delays, d)
	w.mu.Unlock()
}

// Calls returns how many times Wait was called.
func (w *Waiter) Calls() int {
	return int(w.calls.Load())
}

// Total returns the sum of every delay recorded.
func (w *Waiter) Total() time.Duration {
	return time.Duration(w.total.Load())
}

// Delays returns a copy of the recorded delays in call order.
func (w *Waiter) Delays() []time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()

	delays := make([]time.Duration, len(w.delays))
	copy(delays, w.delays)
	return delays
}
