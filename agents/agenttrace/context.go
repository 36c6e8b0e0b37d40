/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

// ExecutionContext identifies the pipeline run and stage a remote call belongs to.
type ExecutionContext struct {
	RunID string `json:"run_id,omitempty"`
	Stage string `json:"stage,omitempty"`
}

// EnrichAttributes appends the bounded attributes of e to baseAttrs. The run
// ID is unbounded and is only put on spans, never on metrics.
func (e ExecutionContext) EnrichAttributes(baseAttrs []attribute.KeyValue) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, len(baseAttrs), len(baseAttrs)+1)
	copy(attrs, baseAttrs)
	if e.Stage != "" {
		attrs = append(attrs, attribute.String("stage", e.Stage))
	}
	return attrs
}

type executionContextKey struct{}

// WithExecutionContext attaches e to ctx.
func WithExecutionContext(ctx context.Context, e ExecutionContext) context.Context {
	return context.WithValue(ctx, executionContextKey{}, e)
}

// GetExecutionContext returns the ExecutionContext of ctx, or the zero value.
func GetExecutionContext(ctx context.Context) ExecutionContext {
	e, _ := ctx.Value(executionContextKey{}).(ExecutionContext)
	return e
}

// EnrichFromContext is a metrics.AttributeEnricher reading the stage from ctx.
func EnrichFromContext(ctx context.Context, baseAttrs []attribute.KeyValue) []attribute.KeyValue {
	return GetExecutionContext(ctx).EnrichAttributes(baseAttrs)
}
