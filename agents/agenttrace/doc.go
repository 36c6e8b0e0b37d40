/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package agenttrace records what each remote step of a pipeline run did.

A Trace[T] covers one remote interaction (a completion request or a sandbox
lookup) from its input to its typed result. Every trace is backed by an
OpenTelemetry span and, when completed, handed to the Tracer[T] found in the
context. Without an explicit tracer the default one logs the trace with clog.

ExecutionContext carries the run ID and pipeline stage so traces, logs and
metrics of one run can be correlated:

	ctx = agenttrace.WithExecutionContext(ctx, agenttrace.ExecutionContext{
		RunID: runID,
		Stage: "extract",
	})

	trace := agenttrace.StartTrace[Recommendation](ctx, prompt)
	defer func() { trace.Complete(rec, err) }()
*/
package agenttrace
