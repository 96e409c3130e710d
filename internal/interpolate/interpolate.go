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

// Package interpolate expands ${NAME} and ${NAME:default} references in
// configuration strings.
package interpolate

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var errUnterminated = errors.New("variable is missing its closing brace")

// A String is a parsed string made of literals and variable references.
type String []term

type (
	term interface {
		term()
	}

	literal string

	variable struct {
		Name       string
		Default    string
		HasDefault bool
	}
)

func (literal) term()  {}
func (variable) term() {}

// VariableResolver looks up the value of a variable. The boolean reports
// whether the variable is set; rendering an unset variable without a default
// fails.
type VariableResolver func(name string) (value string, ok bool)

// EnvResolver resolves variables from the process environment.
func EnvResolver(name string) (string, bool) {
	return os.LookupEnv(name)
}

// MapResolver resolves variables from m.
func MapResolver(m map[string]string) VariableResolver {
	return func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	}
}

// Parse parses s. A "$" preceded by a backslash is kept as a literal "$",
// and a "$" that does not open a brace is kept as is.
func Parse(s string) (String, error) {
	var (
		out String
		lit strings.Builder
	)
	flush := func() {
		if lit.Len() > 0 {
			out = append(out, literal(lit.String()))
			lit.Reset()
		}
	}

	for i := 0; i < len(s); {
		switch {
		case s[i] == '\\' && i+1 < len(s) && s[i+1] == '$':
			lit.WriteByte('$')
			i += 2
		case s[i] == '$' && i+1 < len(s) && s[i+1] == '{':
			v, n, err := parseVariable(s[i+2:])
			if err != nil {
				return nil, fmt.Errorf("offset %d: %v", i, err)
			}
			flush()
			out = append(out, v)
			i += 2 + n
		default:
			lit.WriteByte(s[i])
			i++
		}
	}
	flush()
	return out, nil
}

// parseVariable parses what follows "${" and returns the number of bytes
// consumed, closing brace included.
func parseVariable(s string) (variable, int, error) {
	end := strings.IndexByte(s, '}')
	if end < 0 {
		return variable{}, 0, errUnterminated
	}

	v := variable{Name: s[:end]}
	if i := strings.IndexByte(v.Name, ':'); i >= 0 {
		v.Name, v.Default, v.HasDefault = v.Name[:i], v.Name[i+1:], true
	}
	if !validName(v.Name) {
		return variable{}, 0, fmt.Errorf("invalid variable name %q", v.Name)
	}
	return v, end + 1, nil
}

// validName accepts identifiers optionally joined by single dashes, such as
// RETRY_MAX or max-attempts.
func validName(name string) bool {
	for i, part := range strings.Split(name, "-") {
		if part == "" {
			return false
		}
		for j, r := range part {
			switch {
			case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			case r >= '0' && r <= '9' && (i > 0 || j > 0):
			default:
				return false
			}
		}
	}
	return true
}

// Render renders the string, resolving variables with resolve.
func (s String) Render(resolve VariableResolver) (string, error) {
	var sb strings.Builder
	if err := s.RenderTo(&sb, resolve); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// RenderTo renders the string into w, resolving variables with resolve.
func (s String) RenderTo(w io.Writer, resolve VariableResolver) error {
	for _, t := range s {
		var value string
		switch t := t.(type) {
		case literal:
			value = string(t)
		case variable:
			val, ok := resolve(t.Name)
			switch {
			case ok:
				value = val
			case t.HasDefault:
				value = t.Default
			default:
				return errUnknownVariable{Name: t.Name}
			}
		}
		if _, err := io.WriteString(w, value); err != nil {
			return err
		}
	}
	return nil
}

type errUnknownVariable struct{ Name string }

func (e errUnknownVariable) Error() string {
	return fmt.Sprintf("variable %q does not have a value or a default", e.Name)
}
