/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package evals

import (
	"fmt"
	"time"

	"chainguard.dev/clinicalmcp/agents/agenttrace"
)

// NoErrors fails traces that completed with an error.
func NoErrors[T any]() ObservableTraceCallback[T] {
	return func(o Observer, trace *agenttrace.Trace[T]) {
		if trace.Error != nil {
			o.Fail(fmt.Sprintf("trace error: got = %v, wanted = nil", trace.Error))
		}
	}
}

// MaxDuration fails traces that took longer than limit.
func MaxDuration[T any](limit time.Duration) ObservableTraceCallback[T] {
	return func(o Observer, trace *agenttrace.Trace[T]) {
		if got := trace.Duration(); got > limit {
			o.Fail(fmt.Sprintf("duration: got = %v, wanted <= %v", got, limit))
		}
	}
}

// ResultValidator checks the result of successful traces. Failed traces are
// skipped; NoErrors covers them.
func ResultValidator[T any](validator func(result T) error) ObservableTraceCallback[T] {
	return func(o Observer, trace *agenttrace.Trace[T]) {
		if trace.Error != nil {
			return
		}
		if err := validator(trace.Result); err != nil {
			o.Fail(err.Error())
		}
	}
}

// BuildCallbacks injects each check with the child of observer named after it.
func BuildCallbacks[T any, O Observer](observer *NamespacedObserver[O], checks map[string]ObservableTraceCallback[T]) []agenttrace.TraceCallback[T] {
	callbacks := make([]agenttrace.TraceCallback[T], 0, len(checks))
	for name, check := range checks {
		callbacks = append(callbacks, Inject(Observer(observer.Child(name)), check))
	}
	return callbacks
}

// BuildTracer is agenttrace.ByCode over BuildCallbacks.
func BuildTracer[T any, O Observer](observer *NamespacedObserver[O], checks map[string]ObservableTraceCallback[T]) agenttrace.Tracer[T] {
	return agenttrace.ByCode[T](BuildCallbacks(observer, checks)...)
}
