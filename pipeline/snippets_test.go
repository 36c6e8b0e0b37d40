/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseProtocols(t *testing.T) {
	tests := []struct {
		name   string
		stdout string
		want   []string
	}{{
		name:   "three names",
		stdout: "a/one\nb/two\nc/three\n",
		want:   []string{"a/one", "b/two", "c/three"},
	}, {
		name:   "blank lines and padding",
		stdout: "\n  a/one  \r\n\nb/two",
		want:   []string{"a/one", "b/two"},
	}, {
		name:   "more than the limit",
		stdout: "a\nb\nc\nd\ne\n",
		want:   []string{"a", "b", "c"},
	}, {
		name:   "empty",
		stdout: "",
		want:   nil,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, parseProtocols(tt.stdout)); diff != "" {
				t.Errorf("parseProtocols() (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLiteratureCodeKeepsSymptomOutOfSource(t *testing.T) {
	symptom := `x"); import os; os.system("id") #`
	code := literatureCode(symptom, "key")

	if code.Source != literatureSource {
		t.Error("Source: got modified, wanted the embedded snippet")
	}
	if strings.Contains(code.Source, symptom) {
		t.Error("Source contains the symptom text")
	}
	if got, want := code.Env["QUERY"], symptom+" adverse events clinical trials"; got != want {
		t.Errorf("QUERY: got = %q, wanted = %q", got, want)
	}
}

func TestSnippetsEmbedded(t *testing.T) {
	for name, src := range map[string]string{"literature": literatureSource, "protocols": protocolsSource} {
		if !strings.Contains(src, "os.environ") {
			t.Errorf("%s snippet does not read its parameters from the environment", name)
		}
	}
}
