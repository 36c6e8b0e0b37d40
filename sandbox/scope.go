/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package sandbox

import (
	"context"
	"fmt"
	"time"

	"github.com/chainguard-dev/clog"
)

// releaseTimeout bounds Release so an unresponsive provider cannot hold a
// finished run.
var releaseTimeout = 30 * time.Second

// WithSession acquires a session, calls fn with it and releases it on every
// exit from fn, including panics. Release gets at most releaseTimeout. A
// failed or timed-out release is logged and dropped; the result of fn is
// returned unchanged.
func WithSession[T any](ctx context.Context, p Provider, timeout time.Duration, fn func(context.Context, Session) (T, error)) (T, error) {
	session, err := p.Acquire(ctx, timeout)
	if err != nil {
		sessionsTotal.WithLabelValues("acquire_failed").Inc()
		var zero T
		return zero, fmt.Errorf("acquiring sandbox: %w", err)
	}
	sessionsTotal.WithLabelValues("acquired").Inc()

	log := clog.FromContext(ctx).With("sandbox_id", session.ID())
	log.Info("Sandbox acquired")

	defer func() {
		// The run's context may already be done; release still has to reach the remote side.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if rerr := session.Release(releaseCtx); rerr != nil {
			sessionsTotal.WithLabelValues("release_failed").Inc()
			log.Warn("Failed to release sandbox", "error", rerr)
			return
		}
		sessionsTotal.WithLabelValues("released").Inc()
		log.Info("Sandbox released")
	}()

	return fn(clog.WithLogger(ctx, log), session)
}

// Run executes code in s, recording the outcome. A snippet that raised is
// returned as an error wrapping ErrExecution.
func Run(ctx context.Context, s Session, code Code) (*Execution, error) {
	start := time.Now()
	exec, err := s.Run(ctx, code)
	runDuration.WithLabelValues(code.Name).Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		runsTotal.WithLabelValues(code.Name, "error").Inc()
		return nil, fmt.Errorf("running %s: %w", code.Name, err)
	case exec.Error != nil:
		runsTotal.WithLabelValues(code.Name, "raised").Inc()
		return exec, fmt.Errorf("running %s: %w: %w", code.Name, ErrExecution, exec.Error)
	default:
		runsTotal.WithLabelValues(code.Name, "ok").Inc()
		return exec, nil
	}
}
