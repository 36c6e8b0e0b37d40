/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Completion outcomes recorded by RecordCompletion.
const (
	OutcomeOK        = "ok"
	OutcomeMalformed = "malformed"
	OutcomeError     = "error"
)

// GenAI records token usage and completion outcomes for hosted model calls.
// Counters that fail to register fall back to no-ops so that metrics never
// break a pipeline run.
type GenAI struct {
	promptTokens     metric.Int64Counter
	completionTokens metric.Int64Counter
	completions      metric.Int64Counter
	attrEnricher     AttributeEnricher
}

// NewGenAI creates the counters on the named meter. The model is recorded as
// an attribute, so every executor should share one meter name.
func NewGenAI(meterName string) *GenAI {
	meter := otel.Meter(meterName, metric.WithInstrumentationVersion("1.0.0"))

	counter := func(name, description, unit string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
		if err != nil {
			slog.Warn("Failed to create counter, metric will be disabled", "error", err, "meter", meterName, "counter", name)
			return noop.Int64Counter{}
		}
		return c
	}

	return &GenAI{
		promptTokens:     counter("genai.token.prompt", "The number of prompt tokens used", "{tokens}"),
		completionTokens: counter("genai.token.completion", "The number of completion tokens used", "{tokens}"),
		completions:      counter("genai.completions", "The number of completion requests by outcome", "{requests}"),
	}
}

// SetAttributeEnricher installs an enricher called before every recording.
func (m *GenAI) SetAttributeEnricher(enricher AttributeEnricher) {
	m.attrEnricher = enricher
}

// RecordTokens records prompt and completion token usage for model.
func (m *GenAI) RecordTokens(ctx context.Context, model string, promptTokens, completionTokens int64, attrs ...attribute.KeyValue) {
	opt := metric.WithAttributes(m.attributes(ctx, model, attrs)...)
	m.promptTokens.Add(ctx, promptTokens, opt)
	m.completionTokens.Add(ctx, completionTokens, opt)
}

// RecordCompletion counts one completion request with its outcome.
func (m *GenAI) RecordCompletion(ctx context.Context, model, outcome string, attrs ...attribute.KeyValue) {
	attrs = append(attrs, attribute.String("outcome", outcome))
	m.completions.Add(ctx, 1, metric.WithAttributes(m.attributes(ctx, model, attrs)...))
}

func (m *GenAI) attributes(ctx context.Context, model string, extra []attribute.KeyValue) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String("model", model)}
	if m.attrEnricher != nil {
		attrs = m.attrEnricher(ctx, attrs)
	}
	return append(attrs, extra...)
}
