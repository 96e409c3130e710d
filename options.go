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

package retry

import (
	"time"

	"go.uber.org/retry/api/backoff"
)

// Option customizes a single call to Run or Do.
type Option interface {
	apply(*runOptions)
}

type optionFunc func(*runOptions)

func (f optionFunc) apply(opts *runOptions) { f(opts) }

type runOptions struct {
	config Config

	// strategy replaces the decorrelated jitter strategy built from config
	// when set.
	strategy backoff.Strategy

	observer *Observer
}

func newRunOptions(opts []Option) runOptions {
	options := runOptions{config: DefaultConfig()}
	for _, opt := range opts {
		opt.apply(&options)
	}
	return options
}

// WithConfig merges the set fields of overrides over the configuration built
// so far. Unset fields keep their current values.
//
//  retry.Run(op, retry.WithConfig(retry.Config{MaxAttempts: 3}))
func WithConfig(overrides Config) Option {
	return optionFunc(func(opts *runOptions) {
		opts.config = opts.config.Merge(overrides)
	})
}

// MaxDelay sets the upper bound of every delay.
//
// Defaults to 5 minutes.
func MaxDelay(d time.Duration) Option {
	return optionFunc(func(opts *runOptions) {
		opts.config.MaxDelay = d
	})
}

// BaseDelay sets the lower bound of every delay and the exponential base.
// It must be a whole number of milliseconds.
//
// Defaults to 100 milliseconds.
func BaseDelay(d time.Duration) Option {
	return optionFunc(func(opts *runOptions) {
		opts.config.BaseDelay = d
	})
}

// MaxAttempts sets how many times the operation may be invoked.
//
// Defaults to 10.
func MaxAttempts(n int) Option {
	return optionFunc(func(opts *runOptions) {
		opts.config.MaxAttempts = n
	})
}

// WaitFunc replaces the function used to wait between attempts.
//
// Defaults to time.Sleep.
func WaitFunc(wait func(time.Duration)) Option {
	return optionFunc(func(opts *runOptions) {
		opts.config.Wait = wait
	})
}

// LenientOutcomes treats an untagged Outcome as Ok instead of failing with
// ErrMalformedOutcome.
func LenientOutcomes() Option {
	return optionFunc(func(opts *runOptions) {
		opts.config.LenientOutcomes = true
	})
}

// BackoffStrategy replaces the decorrelated jitter delays. A nil strategy is
// ignored.
func BackoffStrategy(strategy backoff.Strategy) Option {
	return optionFunc(func(opts *runOptions) {
		if strategy != nil {
			opts.strategy = strategy
		}
	})
}

// WithObserver records logs, metrics and traces for the call on o.
func WithObserver(o *Observer) Option {
	return optionFunc(func(opts *runOptions) {
		opts.observer = o
	})
}
