/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import (
	"context"
	"fmt"
	"time"

	"chainguard.dev/clinicalmcp/agents/agenttrace"
	"chainguard.dev/clinicalmcp/agents/evals"
	"chainguard.dev/clinicalmcp/clinical"
)

const (
	completionLatency = 30 * time.Second
	// Snippets install their packages on every run.
	lookupLatency = 2 * time.Minute
)

// EnrichmentNamespace groups the evaluations of sandbox lookups.
const EnrichmentNamespace = "enrichment"

// WithEvaluation grades every stage and lookup trace of a run, reporting to
// obs under one child per stage.
func WithEvaluation[O evals.Observer](obs *evals.NamespacedObserver[O]) Option {
	extract := evals.BuildTracer(obs.Child(StageExtract), map[string]evals.ObservableTraceCallback[SymptomReport]{
		"no_errors": evals.NoErrors[SymptomReport](),
		"latency":   evals.MaxDuration[SymptomReport](completionLatency),
	})
	validate := evals.BuildTracer(obs.Child(StageValidate), map[string]evals.ObservableTraceCallback[RiskReply]{
		"no_errors":        evals.NoErrors[RiskReply](),
		"latency":          evals.MaxDuration[RiskReply](completionLatency),
		"risk_calibration": evals.ResultValidator(riskCalibrated),
	})
	publish := evals.BuildTracer(obs.Child(StagePublish), map[string]evals.ObservableTraceCallback[clinical.Recommendation]{
		"no_errors": evals.NoErrors[clinical.Recommendation](),
		"latency":   evals.MaxDuration[clinical.Recommendation](completionLatency),
	})
	lookups := evals.BuildTracer(obs.Child(EnrichmentNamespace), map[string]evals.ObservableTraceCallback[string]{
		"no_errors": evals.NoErrors[string](),
		"latency":   evals.MaxDuration[string](lookupLatency),
	})

	return func(p *Pipeline) {
		p.tracing = func(ctx context.Context) context.Context {
			ctx = agenttrace.WithTracer(ctx, extract)
			ctx = agenttrace.WithTracer(ctx, validate)
			ctx = agenttrace.WithTracer(ctx, publish)
			return agenttrace.WithTracer(ctx, lookups)
		}
	}
}

// riskCalibrated rejects a level that contradicts its score.
func riskCalibrated(r RiskReply) error {
	if r.RiskScore == nil {
		return nil
	}
	switch score := *r.RiskScore; {
	case r.RiskLevel == clinical.RiskHigh && score < 0.5:
		return fmt.Errorf("risk level %s with score %.2f, wanted >= 0.50", r.RiskLevel, score)
	case r.RiskLevel == clinical.RiskLow && score > 0.5:
		return fmt.Errorf("risk level %s with score %.2f, wanted <= 0.50", r.RiskLevel, score)
	}
	return nil
}
