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

import "errors"

// Do runs op with the same loop as Run for operations that report through an
// error. A nil error is a success. An error marked with Retryable asks for
// another attempt. Any other error is final and returned as is.
//
// When the attempts run out, Do returns an *ExceededRetriesError whose Last
// field holds the last retryable error with its marker removed.
//
//  err := retry.Do(func() error {
//  	resp, err := client.Get(url)
//  	if err != nil {
//  		return retry.Retryable(err)
//  	}
//  	return handle(resp)
//  }, retry.MaxAttempts(5))
func Do(op func() error, opts ...Option) error {
	var last error
	out, err := Run(func() Outcome[struct{}, error] {
		err := op()
		switch {
		case err == nil:
			return Ok[struct{}, error](struct{}{})
		case IsRetryable(err):
			last = err
			return Retry[struct{}, error](struct{}{})
		default:
			return Err[struct{}, error](err)
		}
	}, opts...)

	if err != nil {
		var exceeded *ExceededRetriesError
		if errors.As(err, &exceeded) {
			return &ExceededRetriesError{
				Attempts: exceeded.Attempts,
				Last:     unmarked(last),
			}
		}
		return err
	}
	if out.IsErr() {
		return out.Failure()
	}
	return nil
}

// unmarked strips a Retryable marker wrapping err directly so that the
// exhausted error is not retried again by an enclosing Do.
func unmarked(err error) error {
	if r, ok := err.(*retryableError); ok {
		return r.err
	}
	return err
}
