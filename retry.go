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

// Run invokes op until it reports Ok or Err, or until the attempt ceiling is
// reached, waiting between attempts that asked to be retried.
//
// Outcomes reported by op are returned unchanged with a nil error: a caller
// failure arrives as an Err outcome, never as the error result. The error
// result is reserved for failures of the driver itself:
//
//  - *ExceededRetriesError when op asked to be retried MaxAttempts times,
//  - ErrMalformedOutcome when op returned the zero Outcome,
//  - *InvalidConfigError when the options do not validate.
//
// The returned Outcome is the zero value whenever the error is non-nil.
//
// Run blocks the calling goroutine while waiting. Separate calls share no
// state and may run concurrently.
func Run[T, E any](op func() Outcome[T, E], opts ...Option) (Outcome[T, E], error) {
	options := newRunOptions(opts)
	cfg := options.config
	call := options.observer.begin()

	if err := cfg.Validate(); err != nil {
		call.invalidConfig(err)
		return Outcome[T, E]{}, err
	}

	strategy := options.strategy
	if strategy == nil {
		var err error
		if strategy, err = newStrategy(cfg); err != nil {
			call.invalidConfig(err)
			return Outcome[T, E]{}, err
		}
	}
	boff := strategy.Backoff()

	for attempt := 0; ; attempt++ {
		if attempt >= cfg.MaxAttempts {
			err := &ExceededRetriesError{Attempts: attempt}
			call.exceededRetries(err)
			return Outcome[T, E]{}, err
		}

		call.attempt()
		out := op()

		switch out.Kind() {
		case KindOk:
			call.success(attempt + 1)
			return out, nil
		case KindErr:
			call.callerFailure(attempt + 1)
			return out, nil
		case KindRetry:
		default:
			if cfg.LenientOutcomes {
				call.success(attempt + 1)
				return Ok[T, E](out.Value()), nil
			}
			call.malformed(attempt + 1)
			return Outcome[T, E]{}, ErrMalformedOutcome
		}

		// The last allowed attempt gets no wait; the ceiling check above
		// ends the loop.
		if attempt+1 >= cfg.MaxAttempts {
			continue
		}

		d := boff.Duration(uint(attempt))
		call.wait(attempt, d)
		cfg.Wait(d)
	}
}
