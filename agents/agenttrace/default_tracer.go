/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"

	"github.com/chainguard-dev/clog"
)

// NewDefaultTracer returns a tracer that logs completed traces to the clog
// logger of ctx.
func NewDefaultTracer[T any](ctx context.Context) Tracer[T] {
	logger := clog.FromContext(ctx)
	return ByCode[T](func(trace *Trace[T]) {
		log := logger.With(
			"trace_id", trace.ID,
			"run_id", trace.ExecContext.RunID,
			"stage", trace.ExecContext.Stage,
			"duration_ms", trace.Duration().Milliseconds(),
		)
		if trace.Error != nil {
			log.Warn("Agent trace failed", "error", trace.Error)
			return
		}
		log.Debug("Agent trace completed", "trace", trace.String())
	})
}
