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

import "fmt"

// Kind identifies which of the three outcomes an attempt reported.
type Kind int

const (
	// KindUnknown is the kind of the zero Outcome. It is not a valid result
	// for an operation; see LenientOutcomes.
	KindUnknown Kind = iota
	// KindOk marks a final success.
	KindOk
	// KindErr marks a final failure that must not be retried.
	KindErr
	// KindRetry asks the driver to try the operation again.
	KindRetry
)

func (k Kind) String() string {
	switch k {
	case KindOk:
		return "ok"
	case KindErr:
		return "err"
	case KindRetry:
		return "retry"
	default:
		return "unknown"
	}
}

// Outcome is the result of a single attempt of an operation. Exactly one of
// Ok, Err or Retry describes it; build one with the constructor of the same
// name.
//
// T is the success payload and E the caller's error payload. E is commonly
// error but may be any type.
type Outcome[T, E any] struct {
	kind    Kind
	value   T
	failure E
}

// Ok reports a final success carrying v.
func Ok[T, E any](v T) Outcome[T, E] {
	return Outcome[T, E]{kind: KindOk, value: v}
}

// Err reports a final failure carrying e. The driver returns it to the caller
// as is and never retries it.
func Err[T, E any](e E) Outcome[T, E] {
	return Outcome[T, E]{kind: KindErr, failure: e}
}

// Retry asks the driver to run the operation again. The payload is kept
// only for the attempt that produced it.
func Retry[T, E any](v T) Outcome[T, E] {
	return Outcome[T, E]{kind: KindRetry, value: v}
}

// Kind returns which outcome this is.
func (o Outcome[T, E]) Kind() Kind { return o.kind }

// IsOk reports whether the outcome is a success.
func (o Outcome[T, E]) IsOk() bool { return o.kind == KindOk }

// IsErr reports whether the outcome is a final failure.
func (o Outcome[T, E]) IsErr() bool { return o.kind == KindErr }

// IsRetry reports whether the outcome asks for another attempt.
func (o Outcome[T, E]) IsRetry() bool { return o.kind == KindRetry }

// Value returns the payload of an Ok or Retry outcome, or the zero value of
// T for an Err.
func (o Outcome[T, E]) Value() T { return o.value }

// Failure returns the payload of an Err outcome, or the zero value of E.
func (o Outcome[T, E]) Failure() E { return o.failure }

func (o Outcome[T, E]) String() string {
	switch o.kind {
	case KindOk:
		return fmt.Sprintf("Ok(%v)", o.value)
	case KindErr:
		return fmt.Sprintf("Err(%v)", o.failure)
	case KindRetry:
		return fmt.Sprintf("Retry(%v)", o.value)
	default:
		return fmt.Sprintf("Unknown(%v)", o.value)
	}
}
