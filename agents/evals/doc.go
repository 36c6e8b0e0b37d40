/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package evals grades completed agent traces with code-based checks.
//
// A check is an ObservableTraceCallback. Inject binds it to an Observer,
// producing an agenttrace.TraceCallback that can be handed to
// agenttrace.ByCode:
//
//	obs := evals.NewNamespacedObserver(evals.NewMetricsObserver)
//	tracer := evals.BuildTracer(obs.Child("validate"), map[string]evals.ObservableTraceCallback[Reply]{
//		"no_errors": evals.NoErrors[Reply](),
//		"latency":   evals.MaxDuration[Reply](30 * time.Second),
//	})
//	ctx = agenttrace.WithTracer(ctx, tracer)
//
// Each named check reports to its own child namespace, so failures and grades
// are tracked per stage and per check.
package evals
