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

package testutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/net/metrics"
)

// CounterAssertion holds expected counter metric
type CounterAssertion struct {
	Name  string
	Tags  map[string]string
	Value int
}

// HistogramAssertion holds expected histogram metric
type HistogramAssertion struct {
	Name string
	Tags map[string]string

	// Values are not compared because they are bucket upper bounds; the
	// number of observations is.
	Observations int
}

// AssertCounters asserts expected counters with metrics snapshot. Each
// assertion matches the counter with the same name whose tags include the
// asserted tags, in any order.
func AssertCounters(t *testing.T, counterAssertions []CounterAssertion, snapshot []metrics.Snapshot) {
	t.Helper()
	require.Len(t, snapshot, len(counterAssertions), "unexpected number of counters: %v", snapshot)

	for _, wantCounter := range counterAssertions {
		value, ok := CounterValue(snapshot, wantCounter.Name, wantCounter.Tags)
		if !assert.True(t, ok, "missing counter %s %v", wantCounter.Name, wantCounter.Tags) {
			continue
		}
		assert.EqualValues(t, wantCounter.Value, value, "unexpected counter value for %s %v", wantCounter.Name, wantCounter.Tags)
	}
}

// AssertHistograms asserts expected histograms with histogram snapshot
func AssertHistograms(t *testing.T, histogramAssertions []HistogramAssertion, snapshot []metrics.HistogramSnapshot) {
	t.Helper()
	require.Len(t, snapshot, len(histogramAssertions), "unexpected number of histograms")

	for i, wantHistogram := range histogramAssertions {
		require.Equal(t, wantHistogram.Name, snapshot[i].Name, "unexpected histogram %s", wantHistogram.Name)
		assert.Len(t, snapshot[i].Values, wantHistogram.Observations,
			"unexpected number of observations for %s", wantHistogram.Name)
		for wantTagKey, wantTagVal := range wantHistogram.Tags {
			assert.Equal(t, wantTagVal, snapshot[i].Tags[wantTagKey], "unexpected value for %q", wantTagKey)
		}
	}
}

// CounterValue finds the counter with the given name whose tags include
// every given tag. It returns false if there is no such counter.
func CounterValue(snapshot []metrics.Snapshot, name string, tags map[string]string) (int64, bool) {
	for _, s := range snapshot {
		if s.Name != name || !hasTags(s.Tags, tags) {
			continue
		}
		return s.Value, true
	}
	return 0, false
}

func hasTags(got, want map[string]string) bool {
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}
