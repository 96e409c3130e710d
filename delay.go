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
	ibackoff "go.uber.org/retry/internal/backoff"
)

// Delay returns how long to wait after the given attempt asked to be
// retried. Attempts count from zero; negative attempts are treated as zero.
//
// The result is a whole number of milliseconds in
// [cfg.BaseDelay, cfg.MaxDelay], drawn with decorrelated jitter.
func Delay(attempt int, cfg Config) (time.Duration, error) {
	strategy, err := newStrategy(cfg)
	if err != nil {
		return 0, err
	}
	if attempt < 0 {
		attempt = 0
	}
	return strategy.Backoff().Duration(uint(attempt)), nil
}

func newStrategy(cfg Config) (backoff.Strategy, error) {
	strategy, err := ibackoff.NewDecorrelated(
		ibackoff.BaseDelay(cfg.BaseDelay),
		ibackoff.MaxDelay(cfg.MaxDelay),
	)
	if err != nil {
		return nil, &InvalidConfigError{Err: err}
	}
	return strategy, nil
}
