/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package result

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrMalformedResponse is wrapped by every Parse failure. The completion
// service returned something that is not JSON or does not match the
// requested shape.
var ErrMalformedResponse = errors.New("malformed completion response")

// validate is safe for concurrent use and caches struct metadata.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks v against its `validate` struct tags.
func Validate(v any) error {
	return validate.Struct(v)
}

// Parse extracts, decodes and validates a model response.
func Parse[T any](responseText string) (T, error) {
	out, err := Extract[T](responseText)
	if err != nil {
		return out, fmt.Errorf("%w: decoding JSON: %w", ErrMalformedResponse, err)
	}
	if err := Validate(out); err != nil {
		return out, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return out, nil
}
