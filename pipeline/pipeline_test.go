/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"chainguard.dev/clinicalmcp/agents/agenttrace"
	"chainguard.dev/clinicalmcp/agents/evals"
	"chainguard.dev/clinicalmcp/agents/executor/openaiexecutor"
	"chainguard.dev/clinicalmcp/agents/promptbuilder"
	"chainguard.dev/clinicalmcp/agents/result"
	"chainguard.dev/clinicalmcp/clinical"
	"chainguard.dev/clinicalmcp/pipeline"
	"chainguard.dev/clinicalmcp/sandbox"
	"chainguard.dev/clinicalmcp/sandbox/sandboxtest"
	"github.com/google/go-cmp/cmp"
)

// agentFunc stands in for a completion client, tracing each call the way
// the real executor does.
type agentFunc[Request promptbuilder.Bindable, Response any] func(context.Context, Request) (Response, error)

func (f agentFunc[Request, Response]) Execute(ctx context.Context, r Request) (Response, error) {
	trace := agenttrace.StartTrace[Response](ctx, fmt.Sprintf("%T", r))
	resp, err := f(ctx, r)
	trace.Complete(resp, err)
	return resp, err
}

var _ openaiexecutor.Interface[*pipeline.ExtractRequest, pipeline.SymptomReport] = agentFunc[*pipeline.ExtractRequest, pipeline.SymptomReport](nil)

func score(f float64) *float64 { return &f }

// stubAgents answers every stage successfully and records what each received.
type stubAgents struct {
	symptoms []string

	reports   []string
	risks     []*pipeline.RiskRequest
	publishes []*pipeline.PublishRequest
	stages    []agenttrace.ExecutionContext
}

func (s *stubAgents) agents() pipeline.Agents {
	return pipeline.Agents{
		Extract: agentFunc[*pipeline.ExtractRequest, pipeline.SymptomReport](func(ctx context.Context, r *pipeline.ExtractRequest) (pipeline.SymptomReport, error) {
			s.stages = append(s.stages, agenttrace.GetExecutionContext(ctx))
			s.reports = append(s.reports, r.Report)
			return pipeline.SymptomReport{Symptoms: s.symptoms, Severity: clinical.SeverityHigh}, nil
		}),
		Validate: agentFunc[*pipeline.RiskRequest, pipeline.RiskReply](func(ctx context.Context, r *pipeline.RiskRequest) (pipeline.RiskReply, error) {
			s.stages = append(s.stages, agenttrace.GetExecutionContext(ctx))
			s.risks = append(s.risks, r)
			return pipeline.RiskReply{RiskScore: score(0.85), RiskLevel: clinical.RiskHigh, Reasoning: "neurological symptoms"}, nil
		}),
		Publish: agentFunc[*pipeline.PublishRequest, clinical.Recommendation](func(ctx context.Context, r *pipeline.PublishRequest) (clinical.Recommendation, error) {
			s.stages = append(s.stages, agenttrace.GetExecutionContext(ctx))
			s.publishes = append(s.publishes, r)
			return clinical.Recommendation{Action: clinical.ActionEscalate, NextSteps: "Notify the investigator", Summary: "Severe neurological event"}, nil
		}),
	}
}

func newPipeline(t *testing.T, agents pipeline.Agents, provider sandbox.Provider) *pipeline.Pipeline {
	t.Helper()
	p, err := pipeline.New(agents, provider, pipeline.WithLiteratureAPIKey("exa-test"))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	return p
}

const report = "Trial: ONC-42, Phase: 2, Patient: P-001\nSevere headache and confusion after dosing."

func TestRun(t *testing.T) {
	stub := &stubAgents{symptoms: []string{"severe headache", "confusion"}}
	provider := &sandboxtest.Provider{
		Handlers: map[string]sandboxtest.RunFunc{
			"literature": sandboxtest.Stdout("['Headache in phase II trials', ", "'Neurotoxicity review']\n"),
			"protocols":  sandboxtest.Stdout("org/ae-protocols\norg/trial-safety\n", "org/oncology-sop\n"),
		},
	}

	got, err := newPipeline(t, stub.agents(), provider).Run(context.Background(), report)
	if err != nil {
		t.Fatalf("Run() = %v", err)
	}

	want := &clinical.PipelineResult{
		TrialMetadata: clinical.TrialMetadata{TrialName: "ONC-42", Phase: "2", PatientID: "P-001"},
		PatientData: clinical.ExtractionResult{
			Symptoms:   []string{"severe headache", "confusion"},
			Severity:   clinical.SeverityHigh,
			Literature: "['Headache in phase II trials', 'Neurotoxicity review']\n",
		},
		RiskAnalysis: clinical.RiskAssessment{
			RiskScore: 0.85,
			RiskLevel: clinical.RiskHigh,
			Reasoning: "neurological symptoms",
			Protocols: []string{"org/ae-protocols", "org/trial-safety", "org/oncology-sop"},
		},
		Recommendation: clinical.Recommendation{
			Action:    clinical.ActionEscalate,
			NextSteps: "Notify the investigator",
			Summary:   "Severe neurological event",
		},
		SandboxID: "sbx-1",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Run() (-want +got):\n%s", diff)
	}

	if got, want := provider.Acquired(), 1; got != want {
		t.Errorf("acquired: got = %d, wanted = %d", got, want)
	}
	if got, want := provider.Released(), 1; got != want {
		t.Errorf("released: got = %d, wanted = %d", got, want)
	}
	if diff := cmp.Diff([]string{pipeline.SandboxTimeout.String()}, durations(provider)); diff != "" {
		t.Errorf("timeouts (-want +got):\n%s", diff)
	}

	runs := provider.Runs()
	if len(runs) != 2 {
		t.Fatalf("runs: got = %d, wanted = 2", len(runs))
	}
	wantEnv := map[string]string{
		"QUERY":       "severe headache adverse events clinical trials",
		"EXA_API_KEY": "exa-test",
		"NUM_RESULTS": "2",
	}
	if diff := cmp.Diff(wantEnv, runs[0].Env); diff != "" {
		t.Errorf("literature env (-want +got):\n%s", diff)
	}
	if got, want := runs[1].Env["QUERY"], "clinical trial protocol adverse events"; got != want {
		t.Errorf("protocol query: got = %q, wanted = %q", got, want)
	}

	if diff := cmp.Diff([]string{report}, stub.reports); diff != "" {
		t.Errorf("extract input (-want +got):\n%s", diff)
	}
	wantRisk := []*pipeline.RiskRequest{{
		Symptoms:  []string{"severe headache", "confusion"},
		Protocols: []string{"org/ae-protocols", "org/trial-safety", "org/oncology-sop"},
	}}
	if diff := cmp.Diff(wantRisk, stub.risks); diff != "" {
		t.Errorf("validate input (-want +got):\n%s", diff)
	}
	wantPublish := []*pipeline.PublishRequest{{
		Symptoms:  []string{"severe headache", "confusion"},
		RiskLevel: clinical.RiskHigh,
		RiskScore: 0.85,
	}}
	if diff := cmp.Diff(wantPublish, stub.publishes); diff != "" {
		t.Errorf("publish input (-want +got):\n%s", diff)
	}

	if len(stub.stages) != 3 {
		t.Fatalf("stage contexts: got = %d, wanted = 3", len(stub.stages))
	}
	runID := stub.stages[0].RunID
	if runID == "" {
		t.Error("run ID: got empty, wanted a value")
	}
	for i, stage := range []string{pipeline.StageExtract, pipeline.StageValidate, pipeline.StagePublish} {
		want := agenttrace.ExecutionContext{RunID: runID, Stage: stage}
		if got := stub.stages[i]; got != want {
			t.Errorf("stage %d context: got = %+v, wanted = %+v", i, got, want)
		}
	}
}

func durations(p *sandboxtest.Provider) []string {
	var out []string
	for _, d := range p.Timeouts() {
		out = append(out, d.String())
	}
	return out
}

func TestRunEnrichmentFallbacks(t *testing.T) {
	tests := []struct {
		name           string
		handlers       map[string]sandboxtest.RunFunc
		wantLiterature string
		wantProtocols  []string
	}{{
		name: "literature transport failure",
		handlers: map[string]sandboxtest.RunFunc{
			"literature": sandboxtest.Fail(errors.New("connection reset")),
			"protocols":  sandboxtest.Stdout("org/a\n"),
		},
		wantLiterature: clinical.LiteratureUnavailable,
		wantProtocols:  []string{"org/a"},
	}, {
		name: "literature snippet raised",
		handlers: map[string]sandboxtest.RunFunc{
			"literature": sandboxtest.Raise("ValueError", "invalid API key"),
			"protocols":  sandboxtest.Stdout("org/a\n"),
		},
		wantLiterature: clinical.LiteratureUnavailable,
		wantProtocols:  []string{"org/a"},
	}, {
		name: "protocol search raised",
		handlers: map[string]sandboxtest.RunFunc{
			"literature": sandboxtest.Stdout("['A']\n"),
			"protocols":  sandboxtest.Raise("RateLimitExceededException", "403"),
		},
		wantLiterature: "['A']\n",
		wantProtocols:  []string{clinical.ProtocolUnavailable},
	}, {
		name: "protocol search found nothing",
		handlers: map[string]sandboxtest.RunFunc{
			"literature": sandboxtest.Stdout("['A']\n"),
			"protocols":  sandboxtest.Stdout("\n"),
		},
		wantLiterature: "['A']\n",
		wantProtocols:  []string{clinical.ProtocolUnavailable},
	}, {
		name:           "both unavailable",
		handlers:       map[string]sandboxtest.RunFunc{},
		wantLiterature: clinical.LiteratureUnavailable,
		wantProtocols:  []string{clinical.ProtocolUnavailable},
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubAgents{symptoms: []string{"nausea"}}
			provider := &sandboxtest.Provider{Handlers: tt.handlers}

			got, err := newPipeline(t, stub.agents(), provider).Run(context.Background(), "nausea")
			if err != nil {
				t.Fatalf("Run() = %v", err)
			}
			if got.PatientData.Literature != tt.wantLiterature {
				t.Errorf("literature: got = %q, wanted = %q", got.PatientData.Literature, tt.wantLiterature)
			}
			if diff := cmp.Diff(tt.wantProtocols, got.RiskAnalysis.Protocols); diff != "" {
				t.Errorf("protocols (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantProtocols, stub.risks[0].Protocols); diff != "" {
				t.Errorf("protocols sent to validate (-want +got):\n%s", diff)
			}
			if got, want := provider.Released(), 1; got != want {
				t.Errorf("released: got = %d, wanted = %d", got, want)
			}
		})
	}
}

func TestRunEmptySymptoms(t *testing.T) {
	stub := &stubAgents{symptoms: []string{}}
	provider := &sandboxtest.Provider{
		Handlers: map[string]sandboxtest.RunFunc{
			"literature": sandboxtest.Stdout("should not run"),
			"protocols":  sandboxtest.Stdout("org/a\n"),
		},
	}

	got, err := newPipeline(t, stub.agents(), provider).Run(context.Background(), "routine visit, no complaints")
	if err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if got.PatientData.Literature != clinical.LiteratureUnavailable {
		t.Errorf("literature: got = %q, wanted = %q", got.PatientData.Literature, clinical.LiteratureUnavailable)
	}
	var names []string
	for _, r := range provider.Runs() {
		names = append(names, r.Name)
	}
	if diff := cmp.Diff([]string{"protocols"}, names); diff != "" {
		t.Errorf("snippets run (-want +got):\n%s", diff)
	}
}

func TestRunStageFailure(t *testing.T) {
	malformed := fmt.Errorf("%w: decoding: unexpected end of JSON input", result.ErrMalformedResponse)

	tests := []struct {
		name        string
		breakAgents func(*pipeline.Agents)
		wantCalls   int
	}{{
		name: "extract",
		breakAgents: func(a *pipeline.Agents) {
			a.Extract = agentFunc[*pipeline.ExtractRequest, pipeline.SymptomReport](func(context.Context, *pipeline.ExtractRequest) (pipeline.SymptomReport, error) {
				return pipeline.SymptomReport{}, malformed
			})
		},
		wantCalls: 0,
	}, {
		name: "validate",
		breakAgents: func(a *pipeline.Agents) {
			a.Validate = agentFunc[*pipeline.RiskRequest, pipeline.RiskReply](func(context.Context, *pipeline.RiskRequest) (pipeline.RiskReply, error) {
				return pipeline.RiskReply{}, malformed
			})
		},
		wantCalls: 1,
	}, {
		name: "publish",
		breakAgents: func(a *pipeline.Agents) {
			a.Publish = agentFunc[*pipeline.PublishRequest, clinical.Recommendation](func(context.Context, *pipeline.PublishRequest) (clinical.Recommendation, error) {
				return clinical.Recommendation{}, malformed
			})
		},
		wantCalls: 2,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubAgents{symptoms: []string{"rash"}}
			agents := stub.agents()
			tt.breakAgents(&agents)
			provider := &sandboxtest.Provider{
				Handlers: map[string]sandboxtest.RunFunc{
					"literature": sandboxtest.Stdout("['A']\n"),
					"protocols":  sandboxtest.Stdout("org/a\n"),
				},
			}

			got, err := newPipeline(t, agents, provider).Run(context.Background(), "rash on both arms")
			if !errors.Is(err, result.ErrMalformedResponse) {
				t.Fatalf("Run() error: got = %v, wanted %v", err, result.ErrMalformedResponse)
			}
			if got != nil {
				t.Errorf("Run() result: got = %+v, wanted nil", got)
			}
			if got, want := len(stub.stages), tt.wantCalls; got != want {
				t.Errorf("stages reached: got = %d, wanted = %d", got, want)
			}
			if got, want := provider.Released(), 1; got != want {
				t.Errorf("released: got = %d, wanted = %d", got, want)
			}
		})
	}
}

func TestRunSandboxLifecycleErrors(t *testing.T) {
	t.Run("acquire failure", func(t *testing.T) {
		stub := &stubAgents{symptoms: []string{"rash"}}
		provider := &sandboxtest.Provider{AcquireErr: errors.New("401 unauthorized")}

		if _, err := newPipeline(t, stub.agents(), provider).Run(context.Background(), "rash"); err == nil {
			t.Fatal("Run() error: got nil, wanted error")
		}
		if len(stub.stages) != 0 {
			t.Errorf("stages reached: got = %d, wanted = 0", len(stub.stages))
		}
	})

	t.Run("release failure is not reported", func(t *testing.T) {
		stub := &stubAgents{symptoms: []string{"rash"}}
		provider := &sandboxtest.Provider{
			ReleaseErr: errors.New("sandbox already gone"),
			Handlers: map[string]sandboxtest.RunFunc{
				"literature": sandboxtest.Stdout("['A']\n"),
				"protocols":  sandboxtest.Stdout("org/a\n"),
			},
		}

		got, err := newPipeline(t, stub.agents(), provider).Run(context.Background(), "rash")
		if err != nil {
			t.Fatalf("Run() = %v", err)
		}
		if got.Recommendation.Action != clinical.ActionEscalate {
			t.Errorf("action: got = %q, wanted = %q", got.Recommendation.Action, clinical.ActionEscalate)
		}
		if got, want := provider.Released(), 1; got != want {
			t.Errorf("released: got = %d, wanted = %d", got, want)
		}
	})
}

func TestNew(t *testing.T) {
	stub := &stubAgents{}
	provider := &sandboxtest.Provider{}

	if _, err := pipeline.New(pipeline.Agents{}, provider); err == nil {
		t.Error("New() with no agents: got nil, wanted error")
	}
	if _, err := pipeline.New(stub.agents(), nil); err == nil {
		t.Error("New() with no provider: got nil, wanted error")
	}
	if _, err := pipeline.New(stub.agents(), provider); err != nil {
		t.Errorf("New() = %v", err)
	}
}

func TestNewAgents(t *testing.T) {
	client := openaiexecutor.NewClient("test-key", "http://127.0.0.1:0/")
	agents, err := pipeline.NewAgents(client, "")
	if err != nil {
		t.Fatalf("NewAgents() = %v", err)
	}
	if agents.Extract == nil || agents.Validate == nil || agents.Publish == nil {
		t.Errorf("NewAgents() = %+v, wanted all stages", agents)
	}
}

func TestRunEvaluation(t *testing.T) {
	tests := []struct {
		name       string
		riskLevel  clinical.RiskLevel
		riskScore  float64
		literature sandboxtest.RunFunc
		want       map[string]int
	}{{
		name:       "clean run",
		riskLevel:  clinical.RiskHigh,
		riskScore:  0.85,
		literature: sandboxtest.Stdout("['A']\n"),
		want:       map[string]int{},
	}, {
		name:       "miscalibrated risk",
		riskLevel:  clinical.RiskHigh,
		riskScore:  0.2,
		literature: sandboxtest.Stdout("['A']\n"),
		want:       map[string]int{"/validate/risk_calibration": 1},
	}, {
		name:       "failed lookup",
		riskLevel:  clinical.RiskLow,
		riskScore:  0.1,
		literature: sandboxtest.Raise("ValueError", "bad key"),
		want:       map[string]int{"/enrichment/no_errors": 1},
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collectors := map[string]*evals.ResultCollector{}
			obs := evals.NewNamespacedObserver(func(name string) *evals.ResultCollector {
				c := evals.NewResultCollector(nil)
				collectors[name] = c
				return c
			})

			stub := &stubAgents{symptoms: []string{"rash"}}
			agents := stub.agents()
			agents.Validate = agentFunc[*pipeline.RiskRequest, pipeline.RiskReply](func(context.Context, *pipeline.RiskRequest) (pipeline.RiskReply, error) {
				return pipeline.RiskReply{RiskScore: score(tt.riskScore), RiskLevel: tt.riskLevel, Reasoning: "r"}, nil
			})
			provider := &sandboxtest.Provider{
				Handlers: map[string]sandboxtest.RunFunc{
					"literature": tt.literature,
					"protocols":  sandboxtest.Stdout("org/a\n"),
				},
			}
			p, err := pipeline.New(agents, provider, pipeline.WithEvaluation(obs))
			if err != nil {
				t.Fatalf("New() = %v", err)
			}
			if _, err := p.Run(context.Background(), "rash"); err != nil {
				t.Fatalf("Run() = %v", err)
			}

			failures := map[string]int{}
			for name, c := range collectors {
				if n := len(c.Failures()); n > 0 {
					failures[name] = n
				}
			}
			if diff := cmp.Diff(tt.want, failures); diff != "" {
				t.Errorf("failures (-want +got):\n%s", diff)
			}
			if got, want := collectors["/enrichment/no_errors"].Total(), 2; got != want {
				t.Errorf("lookups evaluated: got = %d, wanted = %d", got, want)
			}
			if got, want := collectors["/publish/latency"].Total(), 1; got != want {
				t.Errorf("publish evaluated: got = %d, wanted = %d", got, want)
			}
		})
	}
}
