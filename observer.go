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
	"context"
	"strings"
	"time"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/opentracing/opentracing-go/log"
	"github.com/uber-go/tally"
	"go.uber.org/net/metrics"
	"go.uber.org/net/metrics/bucket"
	"go.uber.org/net/metrics/tallypush"
	"go.uber.org/zap"
)

const (
	// Sleep between pushes to Tally metrics.
	_tallyPushInterval = 500 * time.Millisecond
	_packageName       = "retry"
	_defaultName       = "default"
	_spanName          = "retry.run"

	_errorTag = "error"

	_callerFailure = "caller"
	_maxAttempts   = "max_attempts"
	_malformed     = "malformed"
	_invalidConfig = "invalid_config"
)

// ObserverConfig configures the logs, metrics and traces recorded for calls
// to Run and Do.
type ObserverConfig struct {
	// Name identifies the observed operations in logs and in the "observer"
	// metrics tag. Defaults to "default".
	Name string

	// Logger receives the logs. By default, no logs are emitted.
	Logger *zap.Logger

	// Metrics is the scope the observer registers its metrics on. By
	// default, the observer owns a new metrics root.
	Metrics *metrics.Scope

	// Tally receives the metrics of the root owned by the observer every
	// 500ms. It is ignored when Metrics is set: the owner of that scope
	// decides where its metrics go.
	Tally tally.Scope

	// Tracer records one span per call. By default, no spans are recorded.
	Tracer opentracing.Tracer
}

func (c ObserverConfig) name() string {
	if c.Name == "" {
		return _defaultName
	}
	return c.Name
}

func (c ObserverConfig) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger.Named(_packageName).With(
		// Use a namespace to prevent key collisions with other libraries.
		zap.Namespace(_packageName),
		zap.String("observer", c.name()),
	)
}

func (c ObserverConfig) tracer() opentracing.Tracer {
	if c.Tracer == nil {
		return opentracing.NoopTracer{}
	}
	return c.Tracer
}

// Observer records what happens inside the retry loops it is given to with
// WithObserver. It is safe for concurrent use by any number of calls.
type Observer struct {
	logger *zap.Logger
	tracer opentracing.Tracer
	root   *metrics.Root

	calls     *metrics.Counter
	successes *metrics.Counter
	waits     *metrics.Counter
	failures  *metrics.CounterVector
	backoffs  *metrics.Histogram
}

// NewObserver builds an Observer. The returned function stops pushing
// metrics to Tally and must be called once the observer is no longer used.
func NewObserver(cfg ObserverConfig) (*Observer, context.CancelFunc) {
	logger := cfg.logger()
	o := &Observer{
		logger: logger,
		tracer: cfg.tracer(),
	}

	scope := cfg.Metrics
	if scope == nil {
		o.root = metrics.New()
		scope = o.root.Scope()
	}
	o.register(scope, scrubTagValue(cfg.name()))

	if o.root == nil || cfg.Tally == nil {
		return o, func() {}
	}
	stop, err := o.root.Push(tallypush.New(cfg.Tally), _tallyPushInterval)
	if err != nil {
		logger.Error("Failed to start pushing metrics to Tally.", zap.Error(err))
		return o, func() {}
	}
	return o, stop
}

// Root returns the metrics root owned by the observer, or nil when the
// observer was built on a caller-supplied scope. The root serves its metrics
// in the Prometheus text format as an http.Handler.
func (o *Observer) Root() *metrics.Root {
	return o.root
}

func (o *Observer) register(scope *metrics.Scope, name string) {
	tags := metrics.Tags{"observer": name}

	// Registration fails when another observer with the same name shares the
	// scope. Fall back to metrics nobody reads rather than failing calls.
	fallback := func() *metrics.Scope { return metrics.New().Scope() }

	var err error
	spec := metrics.Spec{Name: "retry_calls", Help: "Number of operation invocations.", ConstTags: tags}
	if o.calls, err = scope.Counter(spec); err != nil {
		o.logger.Error("Failed to create calls counter.", zap.Error(err))
		o.calls, _ = fallback().Counter(spec)
	}

	spec = metrics.Spec{Name: "retry_successes", Help: "Number of calls that ended in success.", ConstTags: tags}
	if o.successes, err = scope.Counter(spec); err != nil {
		o.logger.Error("Failed to create successes counter.", zap.Error(err))
		o.successes, _ = fallback().Counter(spec)
	}

	spec = metrics.Spec{Name: "retry_waits", Help: "Number of waits between attempts.", ConstTags: tags}
	if o.waits, err = scope.Counter(spec); err != nil {
		o.logger.Error("Failed to create waits counter.", zap.Error(err))
		o.waits, _ = fallback().Counter(spec)
	}

	spec = metrics.Spec{
		Name:      "retry_failures",
		Help:      "Number of calls that ended in failure.",
		ConstTags: tags,
		VarTags:   []string{_errorTag},
	}
	if o.failures, err = scope.CounterVector(spec); err != nil {
		o.logger.Error("Failed to create failures counter.", zap.Error(err))
		o.failures, _ = fallback().CounterVector(spec)
	}

	hspec := metrics.HistogramSpec{
		Spec: metrics.Spec{
			Name:      "retry_backoff_ms",
			Help:      "Delays waited between attempts.",
			ConstTags: tags,
		},
		Unit:    time.Millisecond,
		Buckets: bucket.NewRPCLatency(),
	}
	if o.backoffs, err = scope.Histogram(hspec); err != nil {
		o.logger.Error("Failed to create backoff histogram.", zap.Error(err))
		o.backoffs, _ = fallback().Histogram(hspec)
	}
}

// begin starts observing one call. A nil observer observes nothing.
func (o *Observer) begin() *call {
	if o == nil {
		return nil
	}
	return &call{
		o:    o,
		span: o.tracer.StartSpan(_spanName),
	}
}

// call is the observation of a single Run. All methods are no-ops on a nil
// call.
type call struct {
	o        *Observer
	span     opentracing.Span
	attempts int
}

func (c *call) attempt() {
	if c == nil {
		return
	}
	c.attempts++
	c.o.calls.Inc()
}

func (c *call) wait(attempt int, d time.Duration) {
	if c == nil {
		return
	}
	c.o.waits.Inc()
	c.o.backoffs.Observe(d)
	c.span.LogFields(
		log.String("event", "retry"),
		log.Int("attempt", attempt),
		log.Int64("delay_ms", d.Milliseconds()),
	)
	c.o.logger.Debug("Operation requested retry.",
		zap.Int("attempt", attempt),
		zap.Duration("delay", d),
	)
}

func (c *call) success(attempts int) {
	if c == nil {
		return
	}
	c.o.successes.Inc()
	c.o.logger.Debug("Operation succeeded.", zap.Int("attempts", attempts))
	c.finish("ok", nil)
}

func (c *call) callerFailure(attempts int) {
	if c == nil {
		return
	}
	c.o.failures.MustGet(_errorTag, _callerFailure).Inc()
	c.o.logger.Info("Operation failed.", zap.Int("attempts", attempts))
	c.finish("err", nil)
}

func (c *call) exceededRetries(err error) {
	if c == nil {
		return
	}
	c.o.failures.MustGet(_errorTag, _maxAttempts).Inc()
	c.o.logger.Warn("Operation exceeded retries.", zap.Int("attempts", c.attempts), zap.Error(err))
	c.finish("exceeded_retries", err)
}

func (c *call) malformed(attempts int) {
	if c == nil {
		return
	}
	c.o.failures.MustGet(_errorTag, _malformed).Inc()
	c.o.logger.Error("Operation returned a malformed outcome.", zap.Int("attempts", attempts))
	c.finish("malformed", ErrMalformedOutcome)
}

func (c *call) invalidConfig(err error) {
	if c == nil {
		return
	}
	c.o.failures.MustGet(_errorTag, _invalidConfig).Inc()
	c.o.logger.Error("Invalid retry configuration.", zap.Error(err))
	c.finish("invalid_config", err)
}

func (c *call) finish(result string, err error) {
	c.span.SetTag("retry.attempts", c.attempts)
	c.span.SetTag("retry.result", result)
	if err != nil {
		ext.Error.Set(c.span, true)
		c.span.LogFields(log.Error(err))
	}
	c.span.Finish()
}

// scrubTagValue replaces every character that is not a letter, digit or
// underscore.
func scrubTagValue(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
