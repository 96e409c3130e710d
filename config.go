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
	"errors"
	"time"

	"go.uber.org/multierr"
)

var (
	errInvalidMaxAttempts = errors.New("max attempts must be greater than zero")
	errInvalidBaseDelay   = errors.New("base delay must be at least one millisecond")
	errInvalidMaxDelay    = errors.New("max delay must be at least one millisecond")
	errMaxDelayBelowBase  = errors.New("max delay must be greater than or equal to base delay")
	errFractionalBase     = errors.New("base delay must be a whole number of milliseconds")
	errFractionalMax      = errors.New("max delay must be a whole number of milliseconds")
	errNilWait            = errors.New("wait function must not be nil")
)

// Config describes how the driver retries an operation. A Config is a plain
// value: Merge and the options return new values and never modify the
// defaults.
//
// Delays must be whole numbers of milliseconds.
type Config struct {
	// MaxDelay is the upper bound of every delay.
	//
	// Defaults to 5 minutes.
	MaxDelay time.Duration

	// BaseDelay is the lower bound of every delay and the base of the
	// exponential backoff.
	//
	// Defaults to 100 milliseconds.
	BaseDelay time.Duration

	// MaxAttempts is the number of times the operation may be invoked before
	// the driver gives up with ErrExceededRetries.
	//
	// Defaults to 10.
	MaxAttempts int

	// Wait blocks for the given delay between attempts. Tests substitute a
	// recording or no-op function.
	//
	// Defaults to time.Sleep.
	Wait func(time.Duration)

	// LenientOutcomes makes the driver treat the zero Outcome as Ok with its
	// zero payload instead of failing with ErrMalformedOutcome. It exists
	// for operations ported from code that treated any untagged result as
	// success and should not be used by new code.
	LenientOutcomes bool
}

var _defaultConfig = Config{
	MaxDelay:    5 * time.Minute,
	BaseDelay:   100 * time.Millisecond,
	MaxAttempts: 10,
	Wait:        time.Sleep,
}

// DefaultConfig returns the configuration used when no overrides are given.
func DefaultConfig() Config {
	return _defaultConfig
}

// Merge returns a copy of c where every field set in overrides replaces the
// corresponding field of c. A field is set when it is not its zero value.
func (c Config) Merge(overrides Config) Config {
	if overrides.MaxDelay != 0 {
		c.MaxDelay = overrides.MaxDelay
	}
	if overrides.BaseDelay != 0 {
		c.BaseDelay = overrides.BaseDelay
	}
	if overrides.MaxAttempts != 0 {
		c.MaxAttempts = overrides.MaxAttempts
	}
	if overrides.Wait != nil {
		c.Wait = overrides.Wait
	}
	if overrides.LenientOutcomes {
		c.LenientOutcomes = true
	}
	return c
}

// Validate reports every reason the configuration cannot drive a retry loop.
// The returned error, if any, is an *InvalidConfigError.
func (c Config) Validate() error {
	var err error
	if c.MaxAttempts <= 0 {
		err = multierr.Append(err, errInvalidMaxAttempts)
	}
	if c.BaseDelay < time.Millisecond {
		err = multierr.Append(err, errInvalidBaseDelay)
	} else if c.BaseDelay%time.Millisecond != 0 {
		err = multierr.Append(err, errFractionalBase)
	}
	if c.MaxDelay < time.Millisecond {
		err = multierr.Append(err, errInvalidMaxDelay)
	} else if c.MaxDelay%time.Millisecond != 0 {
		err = multierr.Append(err, errFractionalMax)
	}
	if c.MaxDelay < c.BaseDelay {
		err = multierr.Append(err, errMaxDelayBelowBase)
	}
	if c.Wait == nil {
		err = multierr.Append(err, errNilWait)
	}
	if err != nil {
		return &InvalidConfigError{Err: err}
	}
	return nil
}
