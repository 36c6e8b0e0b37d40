/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package sandbox defines remote code-execution sessions used for
// best-effort enrichment lookups, and their scoped lifetime.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrExecution is wrapped when a snippet ran but raised inside the sandbox.
var ErrExecution = errors.New("sandbox execution failed")

// Provider allocates sessions.
type Provider interface {
	// Acquire allocates a session that the remote side terminates after timeout.
	Acquire(ctx context.Context, timeout time.Duration) (Session, error)
}

// Session is a live remote environment. Release must be called exactly once.
type Session interface {
	ID() string
	Run(ctx context.Context, code Code) (*Execution, error)
	Release(ctx context.Context) error
}

// Code is a snippet plus the environment it runs with. Parameters are passed
// through Env and never spliced into Source.
type Code struct {
	// Name identifies the snippet in logs, traces and metrics.
	Name   string
	Source string
	Env    map[string]string
}

// Execution is the captured output of a run.
type Execution struct {
	Stdout []string
	Stderr []string
	Error  *ExecutionError
}

// Text joins the stdout chunks exactly as they were produced.
func (e *Execution) Text() string {
	return strings.Join(e.Stdout, "")
}

// ExecutionError is an exception raised by the snippet.
type ExecutionError struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Traceback string `json:"traceback"`
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Value)
}
