/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package clinical holds the records produced by a clinical alert pipeline
// run and the local extraction of trial metadata from report text.
package clinical

// Severity of the extracted symptoms.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// RiskLevel of a risk assessment.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "HIGH"
	RiskMedium RiskLevel = "MEDIUM"
	RiskLow    RiskLevel = "LOW"
)

// Action recommended for an alert.
type Action string

const (
	ActionEscalate Action = "ESCALATE"
	ActionMonitor  Action = "MONITOR"
	ActionDocument Action = "DOCUMENT"
)

// Fallback values used when an enrichment lookup fails.
const (
	LiteratureUnavailable = "Literature search unavailable"
	ProtocolUnavailable   = "Protocol search unavailable"
)

// ExtractionResult is the output of the extract stage.
type ExtractionResult struct {
	Symptoms   []string `json:"symptoms"`
	Severity   Severity `json:"severity"`
	Literature string   `json:"literature"`
}

// RiskAssessment is the output of the validate stage.
type RiskAssessment struct {
	RiskScore float64   `json:"risk_score"`
	RiskLevel RiskLevel `json:"risk_level"`
	Reasoning string    `json:"reasoning"`
	Protocols []string  `json:"protocols"`
}

// Recommendation is the output of the publish stage.
type Recommendation struct {
	Action    Action `json:"action" jsonschema:"enum=ESCALATE,enum=MONITOR,enum=DOCUMENT" validate:"required,oneof=ESCALATE MONITOR DOCUMENT"`
	NextSteps string `json:"next_steps" jsonschema:"description=What the care team should do next" validate:"required"`
	Summary   string `json:"summary" jsonschema:"description=One or two sentence summary of the alert" validate:"required"`
}

// TrialMetadata is derived from the report text alone.
type TrialMetadata struct {
	TrialName string `json:"trial_name"`
	Phase     string `json:"phase"`
	PatientID string `json:"patient_id"`
}

// PipelineResult is the complete output of one run.
type PipelineResult struct {
	TrialMetadata  TrialMetadata    `json:"trial_metadata"`
	PatientData    ExtractionResult `json:"patient_data"`
	RiskAnalysis   RiskAssessment   `json:"risk_analysis"`
	Recommendation Recommendation   `json:"recommendation"`
	SandboxID      string           `json:"sandbox_id"`
}
