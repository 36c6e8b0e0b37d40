/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import (
	"encoding/xml"
	"fmt"

	"chainguard.dev/clinicalmcp/agents/executor/openaiexecutor"
	"chainguard.dev/clinicalmcp/agents/promptbuilder"
	"chainguard.dev/clinicalmcp/clinical"
	"github.com/openai/openai-go"
)

// Stage names carried in the execution context of each stage.
const (
	StageExtract  = "extract"
	StageValidate = "validate"
	StagePublish  = "publish"
)

var (
	extractSystem = promptbuilder.MustNewPrompt(`You are a clinical data specialist working on a drug trial.
Extract every symptom the patient reports in the medical report and rate their overall severity.
Use an empty list when the report describes no symptoms.

Respond with a single JSON object that matches this JSON schema:
{{schema}}`)

	extractUser = promptbuilder.MustNewPrompt(`Extract symptoms from this medical report:

{{report}}`)

	validateSystem = promptbuilder.MustNewPrompt(`You are a clinical safety reviewer.
Assess the risk the reported symptoms pose to the trial participant, taking the available safety protocols into account.
risk_score is a probability between 0 and 1.

Respond with a single JSON object that matches this JSON schema:
{{schema}}`)

	validateUser = promptbuilder.MustNewPrompt(`Analyze clinical risk.

Symptoms:
{{symptoms}}

Protocols:
{{protocols}}`)

	publishSystem = promptbuilder.MustNewPrompt(`You are a clinical trial coordinator.
Recommend how the care team should handle this adverse event alert.
ESCALATE for events needing immediate medical review, MONITOR for events to watch, DOCUMENT for events that only need recording.

Respond with a single JSON object that matches this JSON schema:
{{schema}}`)

	publishUser = promptbuilder.MustNewPrompt(`Generate a clinical recommendation for this assessment:

{{assessment}}`)
)

// ExtractRequest is the input of the extract stage.
type ExtractRequest struct {
	Report string
}

// Bind implements promptbuilder.Bindable.
func (r *ExtractRequest) Bind(p *promptbuilder.Prompt) (*promptbuilder.Prompt, error) {
	return p.BindXML("report", struct {
		XMLName xml.Name `xml:"report"`
		Text    string   `xml:",chardata"`
	}{Text: r.Report})
}

// SymptomReport is the model's answer to the extract stage.
type SymptomReport struct {
	Symptoms []string          `json:"symptoms" jsonschema:"description=Symptoms reported by the patient" validate:"required,dive,required"`
	Severity clinical.Severity `json:"severity" jsonschema:"enum=high,enum=medium,enum=low" validate:"required,oneof=high medium low"`
}

// RiskRequest is the input of the validate stage.
type RiskRequest struct {
	Symptoms  []string
	Protocols []string
}

// Bind implements promptbuilder.Bindable.
func (r *RiskRequest) Bind(p *promptbuilder.Prompt) (*promptbuilder.Prompt, error) {
	p, err := p.BindJSON("symptoms", r.Symptoms)
	if err != nil {
		return nil, err
	}
	return p.BindYAML("protocols", r.Protocols)
}

// RiskReply is the model's answer to the validate stage.
type RiskReply struct {
	RiskScore *float64          `json:"risk_score" jsonschema:"minimum=0,maximum=1" validate:"required,gte=0,lte=1"`
	RiskLevel clinical.RiskLevel `json:"risk_level" jsonschema:"enum=HIGH,enum=MEDIUM,enum=LOW" validate:"required,oneof=HIGH MEDIUM LOW"`
	Reasoning string            `json:"reasoning" jsonschema:"description=Why the risk was rated this way" validate:"required"`
}

// PublishRequest is the input of the publish stage.
type PublishRequest struct {
	Symptoms  []string
	RiskLevel clinical.RiskLevel
	RiskScore float64
}

// Bind implements promptbuilder.Bindable.
func (r *PublishRequest) Bind(p *promptbuilder.Prompt) (*promptbuilder.Prompt, error) {
	return p.BindXML("assessment", struct {
		XMLName   xml.Name `xml:"assessment"`
		Symptoms  []string `xml:"symptoms>symptom"`
		RiskLevel string   `xml:"risk_level"`
		RiskScore float64  `xml:"risk_score"`
	}{
		Symptoms:  r.Symptoms,
		RiskLevel: string(r.RiskLevel),
		RiskScore: r.RiskScore,
	})
}

// Agents are the completion clients of the three stages.
type Agents struct {
	Extract  openaiexecutor.Interface[*ExtractRequest, SymptomReport]
	Validate openaiexecutor.Interface[*RiskRequest, RiskReply]
	Publish  openaiexecutor.Interface[*PublishRequest, clinical.Recommendation]
}

// NewAgents builds the stage clients on a shared OpenAI-compatible client.
// An empty model selects openaiexecutor.DefaultModel.
func NewAgents(client openai.Client, model string) (Agents, error) {
	if model == "" {
		model = openaiexecutor.DefaultModel
	}

	extract, err := openaiexecutor.New[*ExtractRequest, SymptomReport](client, extractUser,
		openaiexecutor.WithModel[*ExtractRequest, SymptomReport](model),
		openaiexecutor.WithSystemInstructions[*ExtractRequest, SymptomReport](extractSystem),
	)
	if err != nil {
		return Agents{}, fmt.Errorf("creating %s agent: %w", StageExtract, err)
	}

	validate, err := openaiexecutor.New[*RiskRequest, RiskReply](client, validateUser,
		openaiexecutor.WithModel[*RiskRequest, RiskReply](model),
		openaiexecutor.WithSystemInstructions[*RiskRequest, RiskReply](validateSystem),
	)
	if err != nil {
		return Agents{}, fmt.Errorf("creating %s agent: %w", StageValidate, err)
	}

	publish, err := openaiexecutor.New[*PublishRequest, clinical.Recommendation](client, publishUser,
		openaiexecutor.WithModel[*PublishRequest, clinical.Recommendation](model),
		openaiexecutor.WithSystemInstructions[*PublishRequest, clinical.Recommendation](publishSystem),
	)
	if err != nil {
		return Agents{}, fmt.Errorf("creating %s agent: %w", StagePublish, err)
	}

	return Agents{Extract: extract, Validate: validate, Publish: publish}, nil
}
