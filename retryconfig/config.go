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
	"io"
	"io/ioutil"
	"os"
	"sort"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/retry"
	"go.uber.org/retry/internal/config"
	"gopkg.in/yaml.v2"
)

// PolicyConfig is the configuration of a single named policy. Zero fields
// are left at their defaults.
type PolicyConfig struct {
	MaxAttempts     int           `config:"maxAttempts,interpolate"`
	BaseDelay       time.Duration `config:"baseDelay,interpolate"`
	MaxDelay        time.Duration `config:"maxDelay,interpolate"`
	LenientOutcomes bool          `config:"lenientOutcomes,interpolate"`
}

// Config is the top-level shape of a retry configuration.
type Config struct {
	Policies map[string]PolicyConfig `config:"policies"`

	// Default names the policy returned by Registry.Default.
	Default string `config:"default,interpolate"`
}

func (p PolicyConfig) config() retry.Config {
	return retry.DefaultConfig().Merge(retry.Config{
		MaxAttempts:     p.MaxAttempts,
		BaseDelay:       p.BaseDelay,
		MaxDelay:        p.MaxDelay,
		LenientOutcomes: p.LenientOutcomes,
	})
}

// Option customizes how configurations are loaded.
type Option func(*loadOptions)

type loadOptions struct {
	resolver func(name string) (string, bool)
}

// Resolver replaces the lookup used to expand ${NAME} references. Defaults
// to os.LookupEnv.
func Resolver(resolve func(name string) (value string, ok bool)) Option {
	return func(o *loadOptions) {
		o.resolver = resolve
	}
}

// LoadFromYAML reads and loads a YAML configuration.
func LoadFromYAML(r io.Reader, opts ...Option) (*Registry, error) {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var data map[string]interface{}
	if err := yaml.Unmarshal(b, &data); err != nil {
		return nil, err
	}
	return Load(data, opts...)
}

// Load loads a configuration from a map[string]interface{} or
// map[interface{}]interface{}.
func Load(src interface{}, opts ...Option) (*Registry, error) {
	options := loadOptions{resolver: os.LookupEnv}
	for _, opt := range opts {
		opt(&options)
	}

	var cfg Config
	if err := config.DecodeInto(&cfg, src, config.InterpolateWith(options.resolver)); err != nil {
		return nil, fmt.Errorf("failed to decode retry configuration: %v", err)
	}
	return cfg.Registry()
}

// Registry validates every policy and builds a Registry. The returned error
// lists every invalid policy.
func (c Config) Registry() (*Registry, error) {
	var errs error
	r := &Registry{policies: make(map[string]retry.Config, len(c.Policies))}
	for _, name := range sortedKeys(c.Policies) {
		cfg := c.Policies[name].config()
		if err := cfg.Validate(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("invalid retry policy %q: %v", name, err))
			continue
		}
		r.policies[name] = cfg
	}

	if c.Default != "" {
		if _, ok := c.Policies[c.Default]; ok {
			r.defaultName = c.Default
		} else {
			errs = multierr.Append(errs, fmt.Errorf(
				"invalid default retry policy: %q, possibilities are: %v", c.Default, sortedKeys(c.Policies)))
		}
	}

	if errs != nil {
		return nil, errs
	}
	return r, nil
}

func sortedKeys(m map[string]PolicyConfig) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
