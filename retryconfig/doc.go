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

// Package retryconfig loads named retry configurations from YAML or from
// already parsed maps.
//
//  policies:
//    fast:
//      maxAttempts: 5
//      baseDelay: 10ms
//      maxDelay: 1s
//    slow:
//      maxAttempts: ${SLOW_ATTEMPTS:3}
//      baseDelay: 1s
//      maxDelay: 30s
//  default: fast
//
// Fields left out of a policy keep the values of retry.DefaultConfig. String
// values may reference environment variables as ${NAME} or
// ${NAME:default}.
//
//  registry, err := retryconfig.LoadFromYAML(f)
//  if err != nil {
//  	return err
//  }
//  opts, err := registry.Options("slow")
//  if err != nil {
//  	return err
//  }
//  out, err := retry.Run(op, opts...)
package retryconfig
