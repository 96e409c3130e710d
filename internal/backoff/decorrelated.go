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

package backoff

import (
	"errors"
	"math"
	"math/rand"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/retry/api/backoff"
)

// MaxExponent is the largest attempt number used as an exponent. Larger
// attempt numbers produce the same delays as MaxExponent.
const MaxExponent = 1000

var (
	errInvalidBase = errors.New("invalid base for decorrelated backoff, need at least one millisecond")
	errInvalidMax  = errors.New("invalid max for decorrelated backoff, need at least one millisecond")
	errMaxLessBase = errors.New("decorrelated max value must be greater than or equal to base value")

	errFractionalBase = errors.New("invalid base for decorrelated backoff, need a whole number of milliseconds")
	errFractionalMax  = errors.New("invalid max for decorrelated backoff, need a whole number of milliseconds")
)

// DecorrelatedOption defines options that can be applied to a decorrelated
// jitter backoff strategy.
type DecorrelatedOption func(*decorrelatedOptions)

type decorrelatedOptions struct {
	base, max time.Duration
	newRand   func() *rand.Rand
}

func (o decorrelatedOptions) validate() (err error) {
	if o.base < time.Millisecond {
		err = multierr.Append(err, errInvalidBase)
	} else if o.base%time.Millisecond != 0 {
		err = multierr.Append(err, errFractionalBase)
	}
	if o.max < time.Millisecond {
		err = multierr.Append(err, errInvalidMax)
	} else if o.max%time.Millisecond != 0 {
		err = multierr.Append(err, errFractionalMax)
	}
	if o.max < o.base {
		err = multierr.Append(err, errMaxLessBase)
	}
	return err
}

// newRand seeds every generator from the global source, which is safe for
// concurrent use.
func newRand() *rand.Rand {
	return rand.New(rand.NewSource(rand.Int63()))
}

var defaultDecorrelatedOpts = decorrelatedOptions{
	base:    100 * time.Millisecond,
	max:     5 * time.Minute,
	newRand: newRand,
}

// BaseDelay sets the floor of every delay and the base of the exponential
// term. It must be a whole number of milliseconds.
func BaseDelay(t time.Duration) DecorrelatedOption {
	return func(options *decorrelatedOptions) {
		options.base = t
	}
}

// MaxDelay sets the absolute max time that will ever be returned for a
// backoff.
func MaxDelay(t time.Duration) DecorrelatedOption {
	return func(options *decorrelatedOptions) {
		options.max = t
	}
}

// randGenerator is an internal option for overriding the random number
// generator.
func randGenerator(newRand func() *rand.Rand) DecorrelatedOption {
	return func(options *decorrelatedOptions) {
		options.newRand = newRand
	}
}

// Decorrelated is a backoff strategy with decorrelated jitter: every delay is
// derived from an exponentially growing, capped window and then spread
// randomly over up to three times that window, so independent retriers drift
// apart instead of retrying in lockstep.
//
// Durations are whole milliseconds in the closed interval [Base, Max].
//
// The strategy itself is immutable and safe for concurrent use. Each Backoff
// returned by it owns a random number generator and is not.
type Decorrelated struct {
	opts decorrelatedOptions
}

var _ backoff.Strategy = (*Decorrelated)(nil)

// NewDecorrelated returns a new decorrelated jitter backoff strategy.
func NewDecorrelated(opts ...DecorrelatedOption) (*Decorrelated, error) {
	options := defaultDecorrelatedOpts
	for _, opt := range opts {
		opt(&options)
	}

	if err := options.validate(); err != nil {
		return nil, err
	}

	return &Decorrelated{opts: options}, nil
}

// Base returns the minimum delay of the strategy.
func (d *Decorrelated) Base() time.Duration { return d.opts.base }

// Max returns the maximum delay of the strategy.
func (d *Decorrelated) Max() time.Duration { return d.opts.max }

// Backoff returns an instance of the strategy with its own random number
// generator.
func (d *Decorrelated) Backoff() backoff.Backoff {
	return &decorrelatedBackoff{
		base: d.opts.base.Milliseconds(),
		max:  d.opts.max.Milliseconds(),
		rand: d.opts.newRand(),
	}
}

// decorrelatedBackoff works in milliseconds.
type decorrelatedBackoff struct {
	base int64
	max  int64
	rand *rand.Rand
}

// Duration takes an attempt number and returns the duration the caller should
// wait.
func (b *decorrelatedBackoff) Duration(attempts uint) time.Duration {
	if attempts > MaxExponent {
		attempts = MaxExponent
	}

	// The exponential term overflows to +Inf long before MaxExponent; the
	// clamp to max brings it back.
	exp := float64(b.base) * math.Pow(2, float64(attempts))
	window := math.Min(float64(b.max), exp)

	// half is at least 1 because base is at least 1ms.
	half := int64(math.Round(window / 2))
	sleepA := half + b.between(1, half)
	sleepB := b.between(1, sleepA*3) + b.base
	if sleepB > b.max {
		sleepB = b.max
	}
	return time.Duration(sleepB) * time.Millisecond
}

// between draws an integer uniformly from the closed interval [lo, hi].
func (b *decorrelatedBackoff) between(lo, hi int64) int64 {
	return lo + b.rand.Int63n(hi-lo+1)
}
