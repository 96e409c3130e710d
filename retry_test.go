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
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/retry/api/backoff/backofftest"
	"go.uber.org/retry/retrytest"
)

// scriptedOp returns the outcomes in order and counts its invocations. The
// last outcome repeats once the script runs out.
type scriptedOp[T, E any] struct {
	outcomes []Outcome[T, E]
	calls    int
}

func (s *scriptedOp[T, E]) run() Outcome[T, E] {
	i := s.calls
	if i >= len(s.outcomes) {
		i = len(s.outcomes) - 1
	}
	s.calls++
	return s.outcomes[i]
}

func TestRunTerminalOutcomes(t *testing.T) {
	t.Run("err on first attempt", func(t *testing.T) {
		op := &scriptedOp[int, string]{outcomes: []Outcome[int, string]{Err[int, string]("boom")}}
		w := retrytest.NewWaiter()

		out, err := Run(op.run, WaitFunc(w.Wait))
		require.NoError(t, err)
		assert.True(t, out.IsErr())
		assert.Equal(t, "boom", out.Failure())
		assert.Equal(t, 1, op.calls)
		assert.Equal(t, 0, w.Calls())
	})

	t.Run("ok on first attempt", func(t *testing.T) {
		op := &scriptedOp[int, string]{outcomes: []Outcome[int, string]{Ok[int, string](42)}}
		w := retrytest.NewWaiter()

		out, err := Run(op.run, WaitFunc(w.Wait))
		require.NoError(t, err)
		assert.True(t, out.IsOk())
		assert.Equal(t, 42, out.Value())
		assert.Equal(t, 1, op.calls)
		assert.Equal(t, 0, w.Calls())
	})

	t.Run("caller error is returned verbatim", func(t *testing.T) {
		sentinel := errors.New("domain failure")
		op := &scriptedOp[int, error]{outcomes: []Outcome[int, error]{Err[int, error](sentinel)}}

		out, err := Run(op.run, WaitFunc(retrytest.NoWait))
		require.NoError(t, err)
		assert.True(t, out.Failure() == sentinel, "caller error must not be wrapped")
		assert.False(t, errors.Is(out.Failure(), ErrExceededRetries))
	})
}

func TestRunRetries(t *testing.T) {
	tests := []struct {
		msg             string
		giveOutcomes    []Outcome[string, error]
		giveMaxAttempts int
		wantOutcome     Outcome[string, error]
		wantExceeded    bool
		wantCalls       int
		wantWaits       int
	}{
		{
			msg: "success after two retries",
			giveOutcomes: []Outcome[string, error]{
				Retry[string, error]("0"),
				Retry[string, error]("1"),
				Ok[string, error]("done"),
			},
			giveMaxAttempts: 5,
			wantOutcome:     Ok[string, error]("done"),
			wantCalls:       3,
			wantWaits:       2,
		},
		{
			msg:             "always retry exceeds",
			giveOutcomes:    []Outcome[string, error]{Retry[string, error]("0")},
			giveMaxAttempts: 3,
			wantExceeded:    true,
			wantCalls:       3,
			wantWaits:       2,
		},
		{
			msg:             "single attempt never waits",
			giveOutcomes:    []Outcome[string, error]{Retry[string, error]("0")},
			giveMaxAttempts: 1,
			wantExceeded:    true,
			wantCalls:       1,
			wantWaits:       0,
		},
		{
			msg: "success on the last allowed attempt",
			giveOutcomes: []Outcome[string, error]{
				Retry[string, error]("0"),
				Retry[string, error]("1"),
				Ok[string, error]("late"),
			},
			giveMaxAttempts: 3,
			wantOutcome:     Ok[string, error]("late"),
			wantCalls:       3,
			wantWaits:       2,
		},
		{
			msg: "error after a retry",
			giveOutcomes: []Outcome[string, error]{
				Retry[string, error]("0"),
				Err[string, error](errors.New("great sadness")),
			},
			giveMaxAttempts: 5,
			wantOutcome:     Err[string, error](errors.New("great sadness")),
			wantCalls:       2,
			wantWaits:       1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			op := &scriptedOp[string, error]{outcomes: tt.giveOutcomes}
			w := retrytest.NewWaiter()

			out, err := Run(op.run,
				MaxAttempts(tt.giveMaxAttempts),
				BaseDelay(time.Millisecond),
				MaxDelay(10*time.Millisecond),
				WaitFunc(w.Wait),
			)

			assert.Equal(t, tt.wantCalls, op.calls, "operation invocations")
			assert.Equal(t, tt.wantWaits, w.Calls(), "waits")
			if tt.wantExceeded {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrExceededRetries))
				var exceeded *ExceededRetriesError
				require.True(t, errors.As(err, &exceeded))
				assert.Equal(t, tt.giveMaxAttempts, exceeded.Attempts)
				assert.Equal(t, KindUnknown, out.Kind())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOutcome, out)
		})
	}
}

func TestRunWaitsWithComputedDelays(t *testing.T) {
	op := &scriptedOp[int, error]{outcomes: []Outcome[int, error]{Retry[int, error](0)}}
	w := retrytest.NewWaiter()

	_, err := Run(op.run,
		MaxAttempts(20),
		BaseDelay(10*time.Millisecond),
		MaxDelay(200*time.Millisecond),
		WaitFunc(w.Wait),
	)
	require.Error(t, err)

	delays := w.Delays()
	require.Len(t, delays, 19)
	for i, d := range delays {
		assert.True(t, d >= 10*time.Millisecond && d <= 200*time.Millisecond, "delay %d out of bounds: %v", i, d)
	}
}

func TestRunUsesBackoffStrategy(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	boff := backofftest.NewMockBackoff(mockCtrl)
	strategy := backofftest.NewMockStrategy(mockCtrl)
	strategy.EXPECT().Backoff().Return(boff).Times(1)
	gomock.InOrder(
		boff.EXPECT().Duration(uint(0)).Return(7*time.Millisecond),
		boff.EXPECT().Duration(uint(1)).Return(11*time.Millisecond),
	)

	op := &scriptedOp[int, error]{outcomes: []Outcome[int, error]{
		Retry[int, error](0),
		Retry[int, error](1),
		Ok[int, error](2),
	}}
	w := retrytest.NewWaiter()

	out, err := Run(op.run, BackoffStrategy(strategy), WaitFunc(w.Wait))
	require.NoError(t, err)
	assert.Equal(t, Ok[int, error](2), out)
	assert.Equal(t, []time.Duration{7 * time.Millisecond, 11 * time.Millisecond}, w.Delays())
}

func TestRunMalformedOutcome(t *testing.T) {
	t.Run("strict", func(t *testing.T) {
		op := &scriptedOp[int, error]{outcomes: []Outcome[int, error]{{}}}

		out, err := Run(op.run, WaitFunc(retrytest.NoWait))
		assert.Equal(t, ErrMalformedOutcome, err)
		assert.Equal(t, KindUnknown, out.Kind())
		assert.Equal(t, 1, op.calls)
	})

	t.Run("lenient", func(t *testing.T) {
		op := &scriptedOp[int, error]{outcomes: []Outcome[int, error]{{}}}

		out, err := Run(op.run, WaitFunc(retrytest.NoWait), LenientOutcomes())
		require.NoError(t, err)
		assert.True(t, out.IsOk())
		assert.Equal(t, 0, out.Value())
		assert.Equal(t, 1, op.calls)
	})

	t.Run("lenient through config", func(t *testing.T) {
		op := &scriptedOp[int, error]{outcomes: []Outcome[int, error]{{}}}

		out, err := Run(op.run, WithConfig(Config{Wait: retrytest.NoWait, LenientOutcomes: true}))
		require.NoError(t, err)
		assert.True(t, out.IsOk())
	})
}

func TestRunInvalidConfig(t *testing.T) {
	tests := []struct {
		msg        string
		giveOpts   []Option
		wantErrors []error
	}{
		{
			msg:        "zero attempts",
			giveOpts:   []Option{MaxAttempts(0)},
			wantErrors: []error{errInvalidMaxAttempts},
		},
		{
			msg:        "negative delays",
			giveOpts:   []Option{BaseDelay(-time.Second), MaxDelay(-time.Second)},
			wantErrors: []error{errInvalidBaseDelay, errInvalidMaxDelay},
		},
		{
			msg:        "max below base",
			giveOpts:   []Option{BaseDelay(time.Second), MaxDelay(time.Millisecond)},
			wantErrors: []error{errMaxDelayBelowBase},
		},
		{
			msg:        "fractional base",
			giveOpts:   []Option{BaseDelay(1500 * time.Microsecond), MaxDelay(time.Second)},
			wantErrors: []error{errFractionalBase},
		},
		{
			msg:        "nil wait",
			giveOpts:   []Option{WaitFunc(nil)},
			wantErrors: []error{errNilWait},
		},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			op := &scriptedOp[int, error]{outcomes: []Outcome[int, error]{Ok[int, error](1)}}

			_, err := Run(op.run, tt.giveOpts...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
			assert.Equal(t, 0, op.calls, "operation must not run with an invalid config")

			var cfgErr *InvalidConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.wantErrors, multierr.Errors(cfgErr.Err))
		})
	}
}

func TestRunDefaultWaitSleeps(t *testing.T) {
	op := &scriptedOp[int, error]{outcomes: []Outcome[int, error]{
		Retry[int, error](0),
		Ok[int, error](1),
	}}

	start := time.Now()
	_, err := Run(op.run, BaseDelay(5*time.Millisecond), MaxDelay(5*time.Millisecond))
	require.NoError(t, err)
	assert.True(t, time.Since(start) >= 5*time.Millisecond, "expected the default wait to sleep")
}

func TestRunConcurrentCallsAreIndependent(t *testing.T) {
	var wg sync.WaitGroup
	errs := make([]error, 20)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			op := &scriptedOp[int, error]{outcomes: []Outcome[int, error]{Retry[int, error](0)}}
			_, err := Run(op.run, MaxAttempts(i+1), WaitFunc(retrytest.NoWait))
			if op.calls != i+1 {
				err = fmt.Errorf("call %d invoked %d times", i, op.calls)
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		var exceeded *ExceededRetriesError
		require.True(t, errors.As(err, &exceeded), "call %d: %v", i, err)
		assert.Equal(t, i+1, exceeded.Attempts)
	}
}

func TestRunLongRetrySequence(t *testing.T) {
	op := &scriptedOp[int, error]{outcomes: []Outcome[int, error]{Retry[int, error](0)}}
	w := retrytest.NewWaiter()

	_, err := Run(op.run, MaxAttempts(100000), BaseDelay(time.Millisecond), MaxDelay(time.Millisecond), WaitFunc(w.Wait))
	assert.True(t, errors.Is(err, ErrExceededRetries))
	assert.Equal(t, 100000, op.calls)
	assert.Equal(t, 99999, w.Calls())
	assert.Equal(t, 99999*time.Millisecond, w.Total())
}
