/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package evals

import "sync"

// Grade is a score with its reasoning.
type Grade struct {
	Score     float64
	Reasoning string
}

// ResultCollector records failures and grades, forwarding everything to an
// optional inner observer. Failures reach the inner observer as Log.
type ResultCollector struct {
	inner Observer

	mu       sync.Mutex
	total    int
	failures []string
	grades   []Grade
}

var _ Observer = (*ResultCollector)(nil)

// NewResultCollector wraps inner, which may be nil.
func NewResultCollector(inner Observer) *ResultCollector {
	return &ResultCollector{inner: inner}
}

func (r *ResultCollector) Fail(msg string) {
	if r.inner != nil {
		r.inner.Log(msg)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, msg)
}

func (r *ResultCollector) Log(msg string) {
	if r.inner != nil {
		r.inner.Log(msg)
	}
}

func (r *ResultCollector) Grade(score float64, reasoning string) {
	if r.inner != nil {
		r.inner.Grade(score, reasoning)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grades = append(r.grades, Grade{Score: score, Reasoning: reasoning})
}

func (r *ResultCollector) Increment() {
	if r.inner != nil {
		r.inner.Increment()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total++
}

// Total is the number of traces evaluated.
func (r *ResultCollector) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}

// Failures returns a copy of the failure messages.
func (r *ResultCollector) Failures() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.failures...)
}

// Grades returns a copy of the grades.
func (r *ResultCollector) Grades() []Grade {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Grade(nil), r.grades...)
}
