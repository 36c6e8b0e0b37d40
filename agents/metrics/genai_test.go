/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel/attribute"
)

func TestAttributes(t *testing.T) {
	ctx := context.Background()
	m := NewGenAI("clinicalmcp.agents.test")

	got := m.attributes(ctx, "llama", []attribute.KeyValue{attribute.String("outcome", OutcomeOK)})
	want := []attribute.KeyValue{attribute.String("model", "llama"), attribute.String("outcome", OutcomeOK)}
	if diff := cmp.Diff(want, got, cmpKeyValue); diff != "" {
		t.Errorf("attributes() without enricher (-want +got):\n%s", diff)
	}

	m.SetAttributeEnricher(func(_ context.Context, base []attribute.KeyValue) []attribute.KeyValue {
		return append(base, attribute.String("stage", "extract"))
	})
	got = m.attributes(ctx, "llama", nil)
	want = []attribute.KeyValue{attribute.String("model", "llama"), attribute.String("stage", "extract")}
	if diff := cmp.Diff(want, got, cmpKeyValue); diff != "" {
		t.Errorf("attributes() with enricher (-want +got):\n%s", diff)
	}

	// Recording against the global no-op provider must not panic.
	m.RecordTokens(ctx, "llama", 10, 5)
	m.RecordCompletion(ctx, "llama", OutcomeMalformed)
}

var cmpKeyValue = cmp.Comparer(func(a, b attribute.KeyValue) bool {
	return a.Key == b.Key && a.Value.Emit() == b.Value.Emit()
})
