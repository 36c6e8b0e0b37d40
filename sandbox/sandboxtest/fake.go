/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package sandboxtest provides an in-memory sandbox.Provider for tests.
package sandboxtest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"chainguard.dev/clinicalmcp/sandbox"
)

// RunFunc answers a snippet execution.
type RunFunc func(ctx context.Context, code sandbox.Code) (*sandbox.Execution, error)

// Provider hands out sessions whose Run is answered by Handlers keyed on the
// snippet name. Snippets without a handler fail.
type Provider struct {
	Handlers   map[string]RunFunc
	AcquireErr error
	ReleaseErr error

	mu       sync.Mutex
	acquired int
	released int
	timeouts []time.Duration
	runs     []sandbox.Code
}

var _ sandbox.Provider = (*Provider)(nil)

// Stdout is a RunFunc that succeeds with the given stdout chunks.
func Stdout(chunks ...string) RunFunc {
	return func(context.Context, sandbox.Code) (*sandbox.Execution, error) {
		return &sandbox.Execution{Stdout: chunks}, nil
	}
}

// Fail is a RunFunc that fails with err.
func Fail(err error) RunFunc {
	return func(context.Context, sandbox.Code) (*sandbox.Execution, error) {
		return nil, err
	}
}

// Raise is a RunFunc whose snippet raises a Python exception.
func Raise(name, value string) RunFunc {
	return func(context.Context, sandbox.Code) (*sandbox.Execution, error) {
		return &sandbox.Execution{Error: &sandbox.ExecutionError{Name: name, Value: value}}, nil
	}
}

// Acquire implements sandbox.Provider.
func (p *Provider) Acquire(_ context.Context, timeout time.Duration) (sandbox.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.AcquireErr != nil {
		return nil, p.AcquireErr
	}
	p.acquired++
	p.timeouts = append(p.timeouts, timeout)
	return &session{p: p, id: fmt.Sprintf("sbx-%d", p.acquired)}, nil
}

// Acquired is the number of sessions handed out.
func (p *Provider) Acquired() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.acquired
}

// Released is the number of Release calls, successful or not.
func (p *Provider) Released() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.released
}

// Timeouts are the timeouts passed to Acquire, in order.
func (p *Provider) Timeouts() []time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]time.Duration(nil), p.timeouts...)
}

// Runs are the snippets executed, in order.
func (p *Provider) Runs() []sandbox.Code {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]sandbox.Code(nil), p.runs...)
}

type session struct {
	p  *Provider
	id string
}

func (s *session) ID() string { return s.id }

func (s *session) Run(ctx context.Context, code sandbox.Code) (*sandbox.Execution, error) {
	s.p.mu.Lock()
	s.p.runs = append(s.p.runs, code)
	h := s.p.Handlers[code.Name]
	s.p.mu.Unlock()
	if h == nil {
		return nil, fmt.Errorf("no handler for snippet %q", code.Name)
	}
	return h(ctx, code)
}

func (s *session) Release(context.Context) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	s.p.released++
	return s.p.ReleaseErr
}
