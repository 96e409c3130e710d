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

// Package retryfx provides retry observability and named configurations to
// fx applications.
//
//  fx.New(
//  	fx.Provide(newLogger, newMetricsScope),
//  	fx.Supply(retryconfig.Config{...}),
//  	retryfx.Module,
//  	fx.Invoke(func(o *retry.Observer, r *retryconfig.Registry) { ... }),
//  )
package retryfx

import (
	"context"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/uber-go/tally"
	"go.uber.org/fx"
	"go.uber.org/net/metrics"
	"go.uber.org/retry"
	"go.uber.org/retry/retryconfig"
	"go.uber.org/zap"
)

// Module provides a *retry.Observer and a *retryconfig.Registry.
var Module = fx.Provide(New)

// Params are the input params for the retry module. Every dependency is
// optional.
type Params struct {
	fx.In

	Lifecycle fx.Lifecycle

	// Service names the observer in logs and metrics.
	Service string             `name:"service" optional:"true"`
	Logger  *zap.Logger        `optional:"true"`
	Scope   *metrics.Scope     `optional:"true"`
	Tally   tally.Scope        `optional:"true"`
	Tracer  opentracing.Tracer `optional:"true"`

	// Config holds the named retry policies. Without it the registry is
	// empty and Default returns retry.DefaultConfig.
	Config retryconfig.Config `optional:"true"`
}

// Results are the values provided by the retry module.
type Results struct {
	fx.Out

	Observer *retry.Observer
	Registry *retryconfig.Registry
}

// New builds the observer and the registry. The observer stops pushing
// metrics when the application stops.
func New(p Params) (Results, error) {
	registry, err := p.Config.Registry()
	if err != nil {
		return Results{}, err
	}

	observer, stop := retry.NewObserver(retry.ObserverConfig{
		Name:    p.Service,
		Logger:  p.Logger,
		Metrics: p.Scope,
		Tally:   p.Tally,
		Tracer:  p.Tracer,
	})
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			stop()
			return nil
		},
	})

	return Results{
		Observer: observer,
		Registry: registry,
	}, nil
}
