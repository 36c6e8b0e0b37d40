/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// walkTemplate copies template to the output, replacing each {{name}} with
// the result of resolve.
func walkTemplate(template string, resolve func(name string) (string, error)) (string, error) {
	var out strings.Builder
	for {
		start := strings.Index(template, "{{")
		if start < 0 {
			out.WriteString(template)
			return out.String(), nil
		}
		out.WriteString(template[:start])

		rest := template[start+2:]
		end := strings.Index(rest, "}}")
		if end < 0 {
			return "", errors.New("unclosed binding: missing '}}'")
		}
		name := strings.TrimSpace(rest[:end])
		if !isIdentifier(name) {
			return "", fmt.Errorf("invalid binding identifier %q", name)
		}
		v, err := resolve(name)
		if err != nil {
			return "", err
		}
		out.WriteString(v)
		template = rest[end+2:]
	}
}

// isIdentifier reports whether s is a letter followed by letters, digits or underscores.
func isIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case unicode.IsLetter(r):
		case i > 0 && (unicode.IsDigit(r) || r == '_'):
		default:
			return false
		}
	}
	return s != ""
}
