/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package evals

import (
	"path"
	"sync"

	"chainguard.dev/clinicalmcp/agents/agenttrace"
)

// Observer receives the outcome of evaluating one trace.
type Observer interface {
	// Fail marks the evaluation as failed. Called at most once per trace.
	Fail(string)
	// Log records a message without failing.
	Log(string)
	// Grade assigns a score between 0.0 and 1.0. Called at most once per trace.
	Grade(score float64, reasoning string)
	// Increment is called once for every trace evaluated.
	Increment()
}

// ObservableTraceCallback evaluates a completed trace.
type ObservableTraceCallback[T any] func(Observer, *agenttrace.Trace[T])

// Inject binds callback to obs.
func Inject[T any](obs Observer, callback ObservableTraceCallback[T]) agenttrace.TraceCallback[T] {
	return func(trace *agenttrace.Trace[T]) {
		obs.Increment()
		callback(obs, trace)
	}
}

// NamespacedObserver is a tree of observers keyed by slash-separated paths.
type NamespacedObserver[T Observer] struct {
	name    string
	inner   T
	factory func(string) T

	mu       sync.Mutex
	children map[string]*NamespacedObserver[T]
}

// NewNamespacedObserver creates the root ("/") of a tree whose nodes are
// built by factory.
func NewNamespacedObserver[T Observer](factory func(string) T) *NamespacedObserver[T] {
	return &NamespacedObserver[T]{
		name:     "/",
		inner:    factory("/"),
		factory:  factory,
		children: make(map[string]*NamespacedObserver[T]),
	}
}

func (n *NamespacedObserver[T]) Fail(msg string) { n.inner.Fail(msg) }
func (n *NamespacedObserver[T]) Log(msg string) { n.inner.Log(msg) }
func (n *NamespacedObserver[T]) Grade(score float64, reasoning string) { n.inner.Grade(score, reasoning) }
func (n *NamespacedObserver[T]) Increment() { n.inner.Increment() }

// Name is the full path of this node.
func (n *NamespacedObserver[T]) Name() string { return n.name }

// Inner is the observer of this node.
func (n *NamespacedObserver[T]) Inner() T { return n.inner }

// Child returns the named child, creating it on first use.
func (n *NamespacedObserver[T]) Child(name string) *NamespacedObserver[T] {
	n.mu.Lock()
	defer n.mu.Unlock()

	if child, ok := n.children[name]; ok {
		return child
	}
	childPath := path.Join(n.name, name)
	child := &NamespacedObserver[T]{
		name:     childPath,
		inner:    n.factory(childPath),
		factory:  n.factory,
		children: make(map[string]*NamespacedObserver[T]),
	}
	n.children[name] = child
	return child
}
