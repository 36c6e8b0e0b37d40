/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package pipeline turns a free-text adverse event report into a clinical
// alert. A run holds one sandbox for its whole duration and passes through
// three completion stages:
//
//   - extract: symptoms and severity, enriched with literature titles for
//     the first symptom.
//   - validate: a risk assessment informed by trial protocol repositories.
//   - publish: the recommended action.
//
// Enrichment is best effort. A failed lookup is logged and replaced by a
// fixed fallback value; a failed completion fails the run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chainguard.dev/clinicalmcp/agents/agenttrace"
	"chainguard.dev/clinicalmcp/clinical"
	"chainguard.dev/clinicalmcp/sandbox"
	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"
)

// SandboxTimeout bounds the lifetime of the sandbox a run acquires. The
// remote side enforces it.
const SandboxTimeout = 600 * time.Second

// DefaultLiteratureAPIKey is the literature search key used when none is
// configured.
const DefaultLiteratureAPIKey = "demo"

// Pipeline runs reports through the three stages. It is safe for concurrent
// use when its agents and provider are.
type Pipeline struct {
	agents           Agents
	provider         sandbox.Provider
	metadata         clinical.MetadataExtractor
	literatureAPIKey string
	tracing          func(context.Context) context.Context
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLiteratureAPIKey sets the key passed to the literature snippet.
func WithLiteratureAPIKey(key string) Option {
	return func(p *Pipeline) {
		if key != "" {
			p.literatureAPIKey = key
		}
	}
}

// WithMetadataExtractor replaces the default extractor, typically to seed
// its randomness. A seeded extractor is not safe for concurrent runs.
func WithMetadataExtractor(m clinical.MetadataExtractor) Option {
	return func(p *Pipeline) {
		p.metadata = m
	}
}

// New creates a Pipeline.
func New(agents Agents, provider sandbox.Provider, opts ...Option) (*Pipeline, error) {
	if agents.Extract == nil || agents.Validate == nil || agents.Publish == nil {
		return nil, errors.New("all three stage agents are required")
	}
	if provider == nil {
		return nil, errors.New("sandbox provider is required")
	}
	p := &Pipeline{
		agents:           agents,
		provider:         provider,
		literatureAPIKey: DefaultLiteratureAPIKey,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run processes one report. The sandbox is released before Run returns,
// whatever the outcome. On error no partial result is returned.
func (p *Pipeline) Run(ctx context.Context, reportText string) (*clinical.PipelineResult, error) {
	if p.tracing != nil {
		ctx = p.tracing(ctx)
	}
	runID := uuid.NewString()
	ctx = agenttrace.WithExecutionContext(ctx, agenttrace.ExecutionContext{RunID: runID})
	ctx = clog.WithLogger(ctx, clog.FromContext(ctx).With("run_id", runID))
	log := clog.FromContext(ctx)

	metadata := p.metadata.Extract(reportText)
	log.With("trial", metadata.TrialName, "patient_id", metadata.PatientID).Info("Processing adverse event report")

	res, err := sandbox.WithSession(ctx, p.provider, SandboxTimeout, func(ctx context.Context, s sandbox.Session) (*clinical.PipelineResult, error) {
		extraction, err := p.extract(stageContext(ctx, runID, StageExtract), s, reportText)
		if err != nil {
			return nil, err
		}
		risk, err := p.validate(stageContext(ctx, runID, StageValidate), s, extraction.Symptoms)
		if err != nil {
			return nil, err
		}
		recommendation, err := p.publish(stageContext(ctx, runID, StagePublish), extraction, risk)
		if err != nil {
			return nil, err
		}
		return &clinical.PipelineResult{
			TrialMetadata:  metadata,
			PatientData:    extraction,
			RiskAnalysis:   risk,
			Recommendation: recommendation,
			SandboxID:      s.ID(),
		}, nil
	})
	if err != nil {
		log.With("error", err).Error("Pipeline run failed")
		return nil, err
	}
	log.With("action", res.Recommendation.Action, "risk_level", res.RiskAnalysis.RiskLevel).Info("Pipeline run complete")
	return res, nil
}

func stageContext(ctx context.Context, runID, stage string) context.Context {
	ctx = agenttrace.WithExecutionContext(ctx, agenttrace.ExecutionContext{RunID: runID, Stage: stage})
	return clog.WithLogger(ctx, clog.FromContext(ctx).With("stage", stage))
}

func (p *Pipeline) extract(ctx context.Context, s sandbox.Session, reportText string) (clinical.ExtractionResult, error) {
	reply, err := p.agents.Extract.Execute(ctx, &ExtractRequest{Report: reportText})
	if err != nil {
		return clinical.ExtractionResult{}, fmt.Errorf("extracting symptoms: %w", err)
	}

	res := clinical.ExtractionResult{
		Symptoms:   reply.Symptoms,
		Severity:   reply.Severity,
		Literature: clinical.LiteratureUnavailable,
	}
	if len(reply.Symptoms) == 0 {
		clog.InfoContextf(ctx, "No symptoms extracted, skipping literature search")
		return res, nil
	}

	text, err := lookup(ctx, s, literatureCode(reply.Symptoms[0], p.literatureAPIKey))
	if err != nil {
		clog.FromContext(ctx).With("error", err).Warn("Literature search failed")
		return res, nil
	}
	res.Literature = text
	return res, nil
}

func (p *Pipeline) validate(ctx context.Context, s sandbox.Session, symptoms []string) (clinical.RiskAssessment, error) {
	protocols := []string{clinical.ProtocolUnavailable}
	if text, err := lookup(ctx, s, protocolsCode()); err != nil {
		clog.FromContext(ctx).With("error", err).Warn("Protocol search failed")
	} else if names := parseProtocols(text); len(names) > 0 {
		protocols = names
	} else {
		clog.WarnContextf(ctx, "Protocol search returned no repositories")
	}

	reply, err := p.agents.Validate.Execute(ctx, &RiskRequest{Symptoms: symptoms, Protocols: protocols})
	if err != nil {
		return clinical.RiskAssessment{}, fmt.Errorf("assessing risk: %w", err)
	}
	return clinical.RiskAssessment{
		RiskScore: *reply.RiskScore,
		RiskLevel: reply.RiskLevel,
		Reasoning: reply.Reasoning,
		Protocols: protocols,
	}, nil
}

func (p *Pipeline) publish(ctx context.Context, extraction clinical.ExtractionResult, risk clinical.RiskAssessment) (clinical.Recommendation, error) {
	rec, err := p.agents.Publish.Execute(ctx, &PublishRequest{
		Symptoms:  extraction.Symptoms,
		RiskLevel: risk.RiskLevel,
		RiskScore: risk.RiskScore,
	})
	if err != nil {
		return clinical.Recommendation{}, fmt.Errorf("generating recommendation: %w", err)
	}
	return rec, nil
}

// lookup runs an enrichment snippet under its own trace and returns its
// stdout.
func lookup(ctx context.Context, s sandbox.Session, code sandbox.Code) (text string, err error) {
	trace := agenttrace.StartTrace[string](ctx, code.Name)
	trace.SetMetadata("sandbox_id", s.ID())
	defer func() {
		trace.Complete(text, err)
	}()

	exec, err := sandbox.Run(trace.Context(), s, code)
	if err != nil {
		return "", err
	}
	return exec.Text(), nil
}
