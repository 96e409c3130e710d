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
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/retry/retrytest"
)

func funcPointer(f func(time.Duration)) uintptr {
	return reflect.ValueOf(f).Pointer()
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 5*time.Minute, cfg.MaxDelay)
	assert.Equal(t, 100*time.Millisecond, cfg.BaseDelay)
	assert.Equal(t, 10, cfg.MaxAttempts)
	assert.Equal(t, funcPointer(time.Sleep), funcPointer(cfg.Wait))
	assert.False(t, cfg.LenientOutcomes)
	assert.NoError(t, cfg.Validate())
}

func TestDefaultConfigIsACopy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxAttempts = 1
	assert.Equal(t, 10, DefaultConfig().MaxAttempts)
}

func TestConfigMerge(t *testing.T) {
	tests := []struct {
		msg             string
		give            Config
		wantMaxDelay    time.Duration
		wantBaseDelay   time.Duration
		wantMaxAttempts int
		wantWait        func(time.Duration)
		wantLenient     bool
	}{
		{
			msg:             "no overrides",
			wantMaxDelay:    5 * time.Minute,
			wantBaseDelay:   100 * time.Millisecond,
			wantMaxAttempts: 10,
			wantWait:        time.Sleep,
		},
		{
			msg:             "attempts only",
			give:            Config{MaxAttempts: 2},
			wantMaxDelay:    5 * time.Minute,
			wantBaseDelay:   100 * time.Millisecond,
			wantMaxAttempts: 2,
			wantWait:        time.Sleep,
		},
		{
			msg: "everything",
			give: Config{
				MaxDelay:        time.Second,
				BaseDelay:       time.Millisecond,
				MaxAttempts:     3,
				Wait:            retrytest.NoWait,
				LenientOutcomes: true,
			},
			wantMaxDelay:    time.Second,
			wantBaseDelay:   time.Millisecond,
			wantMaxAttempts: 3,
			wantWait:        retrytest.NoWait,
			wantLenient:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			cfg := DefaultConfig().Merge(tt.give)
			assert.Equal(t, tt.wantMaxDelay, cfg.MaxDelay)
			assert.Equal(t, tt.wantBaseDelay, cfg.BaseDelay)
			assert.Equal(t, tt.wantMaxAttempts, cfg.MaxAttempts)
			assert.Equal(t, funcPointer(tt.wantWait), funcPointer(cfg.Wait))
			assert.Equal(t, tt.wantLenient, cfg.LenientOutcomes)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		msg        string
		give       Config
		wantErrors []error
	}{
		{
			msg:  "valid",
			give: Config{MaxDelay: time.Second, BaseDelay: time.Second, MaxAttempts: 1, Wait: retrytest.NoWait},
		},
		{
			msg:        "zero value",
			give:       Config{},
			wantErrors: []error{errInvalidMaxAttempts, errInvalidBaseDelay, errInvalidMaxDelay, errNilWait},
		},
		{
			msg:        "sub-millisecond base",
			give:       Config{MaxDelay: time.Second, BaseDelay: time.Microsecond, MaxAttempts: 1, Wait: retrytest.NoWait},
			wantErrors: []error{errInvalidBaseDelay},
		},
		{
			msg:        "fractional millisecond delays",
			give:       Config{MaxDelay: 1999 * time.Microsecond, BaseDelay: 1500 * time.Microsecond, MaxAttempts: 1, Wait: retrytest.NoWait},
			wantErrors: []error{errFractionalBase, errFractionalMax},
		},
		{
			msg:        "max below base",
			give:       Config{MaxDelay: time.Millisecond, BaseDelay: time.Second, MaxAttempts: 1, Wait: retrytest.NoWait},
			wantErrors: []error{errMaxDelayBelowBase},
		},
		{
			msg:        "negative attempts",
			give:       Config{MaxDelay: time.Second, BaseDelay: time.Second, MaxAttempts: -3, Wait: retrytest.NoWait},
			wantErrors: []error{errInvalidMaxAttempts},
		},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			err := tt.give.Validate()
			if len(tt.wantErrors) == 0 {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
			assert.Contains(t, err.Error(), "invalid retry configuration: ")

			var cfgErr *InvalidConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.wantErrors, multierr.Errors(cfgErr.Err))
		})
	}
}
