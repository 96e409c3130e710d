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
	"fmt"
)

var (
	// ErrExceededRetries matches, through errors.Is, the error returned when
	// the operation kept asking to be retried until the attempt ceiling.
	ErrExceededRetries = errors.New("exceeded retries")

	// ErrMalformedOutcome is returned when an operation reports the zero
	// Outcome and lenient outcomes are not enabled.
	ErrMalformedOutcome = errors.New("operation returned an outcome that is neither Ok, Err nor Retry")

	// ErrInvalidConfig matches, through errors.Is, every configuration
	// validation failure.
	ErrInvalidConfig = errors.New("invalid retry configuration")
)

// ExceededRetriesError is returned by the driver itself when the attempt
// ceiling is reached. It is never produced by the wrapped operation, so
// callers can tell "never succeeded" apart from their own failures.
type ExceededRetriesError struct {
	// Attempts is the number of times the operation was invoked.
	Attempts int

	// Last is the last error an operation marked as Retryable, if the
	// attempts were driven by Do. It is nil for Run.
	Last error
}

func (e *ExceededRetriesError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("exceeded retries after %d attempts", e.Attempts)
	}
	return fmt.Sprintf("exceeded retries after %d attempts: %v", e.Attempts, e.Last)
}

// Is supports errors.Is(err, ErrExceededRetries).
func (e *ExceededRetriesError) Is(target error) bool {
	return target == ErrExceededRetries
}

// Unwrap returns the last retryable error, if any.
func (e *ExceededRetriesError) Unwrap() error {
	return e.Last
}

// InvalidConfigError reports every problem found while validating a Config.
// Use multierr.Errors to list them individually.
type InvalidConfigError struct {
	Err error
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("%v: %v", ErrInvalidConfig, e.Err)
}

// Is supports errors.Is(err, ErrInvalidConfig).
func (e *InvalidConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

func (e *InvalidConfigError) Unwrap() error {
	return e.Err
}

// retryableError marks an error returned to Do as worth another attempt.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }

func (e *retryableError) Unwrap() error { return e.err }

// Retryable marks err so that Do retries the operation instead of returning
// err. Retryable(nil) is nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

// IsRetryable reports whether err, or any error it wraps, was marked with
// Retryable.
func IsRetryable(err error) bool {
	var r *retryableError
	return errors.As(err, &r)
}
