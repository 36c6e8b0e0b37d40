/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package schema_test

import (
	"encoding/json"
	"testing"

	"chainguard.dev/clinicalmcp/agents/schema"
	"github.com/google/go-cmp/cmp"
)

type sample struct {
	Symptoms []string `json:"symptoms" jsonschema:"description=Symptoms in order of appearance"`
	Severity string   `json:"severity" jsonschema:"enum=high,enum=medium,enum=low"`
	Score    float64  `json:"score" jsonschema:"minimum=0,maximum=1"`
	Note     string   `json:"note,omitempty"`
}

func TestReflectType(t *testing.T) {
	s := schema.ReflectType[sample]()

	if diff := cmp.Diff([]string{"symptoms", "severity", "score"}, s.Required); diff != "" {
		t.Errorf("Required (-want +got):\n%s", diff)
	}
	if s.Version != "" {
		t.Errorf("Version: got = %q, wanted empty", s.Version)
	}

	severity, ok := s.Properties.Get("severity")
	if !ok {
		t.Fatal("missing severity property")
	}
	if diff := cmp.Diff([]any{"high", "medium", "low"}, severity.Enum); diff != "" {
		t.Errorf("severity enum (-want +got):\n%s", diff)
	}

	symptoms, ok := s.Properties.Get("symptoms")
	if !ok {
		t.Fatal("missing symptoms property")
	}
	if symptoms.Type != "array" || symptoms.Items == nil || symptoms.Items.Type != "string" {
		t.Errorf("symptoms: got = %s/%v, wanted array of string", symptoms.Type, symptoms.Items)
	}

	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("json.Marshal() = %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("json.Unmarshal() = %v", err)
	}
	if _, ok := decoded["$ref"]; ok {
		t.Errorf("schema contains a $ref, wanted inlined definitions: %s", b)
	}
}
