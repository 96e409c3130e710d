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

package retryconfig

import (
	"fmt"
	"sort"

	"go.uber.org/retry"
)

// Registry holds validated retry configurations by name. It is immutable
// and safe for concurrent use.
type Registry struct {
	policies    map[string]retry.Config
	defaultName string
}

// Config returns the named configuration.
func (r *Registry) Config(name string) (retry.Config, bool) {
	cfg, ok := r.policies[name]
	return cfg, ok
}

// Default returns the configuration named by the "default" key, or
// retry.DefaultConfig if there is none.
func (r *Registry) Default() retry.Config {
	if cfg, ok := r.policies[r.defaultName]; ok {
		return cfg
	}
	return retry.DefaultConfig()
}

// Options returns the options that run an operation with the named
// configuration. An empty name selects Default.
func (r *Registry) Options(name string) ([]retry.Option, error) {
	if name == "" {
		return []retry.Option{retry.WithConfig(r.Default())}, nil
	}
	cfg, ok := r.Config(name)
	if !ok {
		return nil, fmt.Errorf("unknown retry policy: %q, possibilities are: %v", name, r.Names())
	}
	return []retry.Option{retry.WithConfig(cfg)}, nil
}

// Names returns the names of every configuration in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.policies))
	for name := range r.policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
