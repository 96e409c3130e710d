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

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/retry/internal/interpolate"
)

type policy struct {
	MaxAttempts int           `config:"maxAttempts,interpolate"`
	BaseDelay   time.Duration `config:"baseDelay,interpolate"`
	Lenient     bool          `config:"lenient"`
	Name        string        `config:"name"`
}

func TestDecodeInto(t *testing.T) {
	var got policy
	err := DecodeInto(&got, map[string]interface{}{
		"maxAttempts": 3,
		"baseDelay":   "250ms",
		"lenient":     true,
		"name":        "${NOT_INTERPOLATED}",
	})
	require.NoError(t, err)
	assert.Equal(t, policy{
		MaxAttempts: 3,
		BaseDelay:   250 * time.Millisecond,
		Lenient:     true,
		Name:        "${NOT_INTERPOLATED}",
	}, got)
}

func TestInterpolateWith(t *testing.T) {
	tests := []struct {
		desc       string
		give       map[string]interface{}
		env        map[string]string
		want       policy
		wantErrors []string
	}{
		{
			desc: "variables",
			give: map[string]interface{}{
				"maxAttempts": "${ATTEMPTS}",
				"baseDelay":   "${BASE}",
			},
			env:  map[string]string{"ATTEMPTS": "4", "BASE": "1s"},
			want: policy{MaxAttempts: 4, BaseDelay: time.Second},
		},
		{
			desc: "defaults",
			give: map[string]interface{}{
				"maxAttempts": "${ATTEMPTS:7}",
				"baseDelay":   "${BASE:10ms}",
			},
			want: policy{MaxAttempts: 7, BaseDelay: 10 * time.Millisecond},
		},
		{
			desc: "non-string values pass through",
			give: map[string]interface{}{"maxAttempts": 2},
			want: policy{MaxAttempts: 2},
		},
		{
			desc:       "bad string",
			give:       map[string]interface{}{"maxAttempts": "${ATTEMPTS"},
			wantErrors: []string{`failed to parse "${ATTEMPTS" for interpolation`},
		},
		{
			desc:       "missing variable",
			give:       map[string]interface{}{"baseDelay": "${BASE}"},
			wantErrors: []string{`failed to render "${BASE}" with environment variables`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			var got policy
			err := DecodeInto(&got, tt.give, InterpolateWith(interpolate.MapResolver(tt.env)))
			if len(tt.wantErrors) > 0 {
				require.Error(t, err)
				for _, msg := range tt.wantErrors {
					assert.Contains(t, err.Error(), msg)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
