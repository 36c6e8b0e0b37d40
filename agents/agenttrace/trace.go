/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const instrumentationName = "chainguard.dev/clinicalmcp/agents/agenttrace"

// Trace is one remote interaction, from its input to its result.
type Trace[T any] struct {
	ID          string           `json:"id"`
	Input       string           `json:"input"`
	ExecContext ExecutionContext `json:"exec_context,omitempty"`
	Result      T                `json:"result"`
	Error       error            `json:"error,omitempty"`
	StartTime   time.Time        `json:"start_time"`
	EndTime     time.Time        `json:"end_time"`
	Metadata    map[string]any   `json:"metadata,omitempty"`

	tracer Tracer[T]
	mu     sync.Mutex
	ctx    context.Context
	span   oteltrace.Span
}

func newTrace[T any](ctx context.Context, tracer Tracer[T], input string) *Trace[T] {
	execCtx := GetExecutionContext(ctx)

	attrs := []attribute.KeyValue{attribute.Int("agent.input_length", len(input))}
	if execCtx.RunID != "" {
		attrs = append(attrs, attribute.String("run_id", execCtx.RunID))
	}
	if execCtx.Stage != "" {
		attrs = append(attrs, attribute.String("stage", execCtx.Stage))
	}
	ctx, span := otel.Tracer(instrumentationName, oteltrace.WithInstrumentationVersion("1.0.0")).
		Start(ctx, "agent.execution", oteltrace.WithAttributes(attrs...))

	return &Trace[T]{
		ID:          newTraceID(),
		Input:       input,
		ExecContext: execCtx,
		StartTime:   time.Now(),
		Metadata:    make(map[string]any),
		tracer:      tracer,
		ctx:         ctx,
		span:        span,
	}
}

// Context carries the trace's span. Remote calls made on behalf of the trace
// use it so their spans nest under it.
func (t *Trace[T]) Context() context.Context {
	return t.ctx
}

// RecordTokenUsage puts the model and its token usage on the span.
func (t *Trace[T]) RecordTokenUsage(model string, inputTokens, outputTokens int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Metadata["model"] = model
	t.span.SetAttributes(
		attribute.String("model", model),
		attribute.Int64("tokens.input", inputTokens),
		attribute.Int64("tokens.output", outputTokens),
		attribute.Int64("tokens.total", inputTokens+outputTokens),
	)
}

// SetMetadata records a key on the trace and as a span attribute.
func (t *Trace[T]) SetMetadata(key, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Metadata[key] = value
	t.span.SetAttributes(attribute.String(key, value))
}

// Complete ends the span and hands the trace to its tracer.
func (t *Trace[T]) Complete(result T, err error) {
	t.mu.Lock()
	t.Result = result
	t.Error = err
	t.EndTime = time.Now()
	t.mu.Unlock()

	if err != nil {
		t.span.RecordError(err)
		t.span.SetStatus(codes.Error, err.Error())
	} else {
		t.span.SetStatus(codes.Ok, "")
	}
	t.span.End()

	t.tracer.RecordTrace(t)
}

// Duration is the elapsed time so far, or the total once completed.
func (t *Trace[T]) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.EndTime.IsZero() {
		return time.Since(t.StartTime)
	}
	return t.EndTime.Sub(t.StartTime)
}

// String renders the trace for logs, truncating long values.
func (t *Trace[T]) String() string {
	d := t.Duration()

	t.mu.Lock()
	defer t.mu.Unlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, "=== Trace %s ===\n", t.ID)
	if t.ExecContext.Stage != "" {
		fmt.Fprintf(&sb, "Stage: %s (run %s)\n", t.ExecContext.Stage, t.ExecContext.RunID)
	}
	fmt.Fprintf(&sb, "Input: %q\n", truncate(t.Input, 200))
	fmt.Fprintf(&sb, "Duration: %v\n", d)
	if t.Error != nil {
		fmt.Fprintf(&sb, "Error: %v\n", t.Error)
	} else {
		fmt.Fprintf(&sb, "Result: %s\n", truncate(fmt.Sprintf("%+v", t.Result), 500))
	}
	for k, v := range t.Metadata {
		fmt.Fprintf(&sb, "  %s: %v\n", k, v)
	}
	return sb.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// newTraceID returns YYYYMMDD-HHMMSS-xxxxxxxx.
func newTraceID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return time.Now().Format("20060102-150405.000000")
	}
	return time.Now().Format("20060102-150405") + "-" + hex.EncodeToString(b)
}
