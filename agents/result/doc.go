/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package result turns raw model output into validated Go values.
//
// Parse is the single boundary between untyped completion text and the typed
// records the pipeline works with: it strips markdown fences, decodes JSON and
// enforces `validate` struct tags. Any failure wraps ErrMalformedResponse.
package result
