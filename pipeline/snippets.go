/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import (
	_ "embed"
	"strconv"
	"strings"

	"chainguard.dev/clinicalmcp/sandbox"
)

var (
	//go:embed snippets/literature.py
	literatureSource string

	//go:embed snippets/protocols.py
	protocolsSource string
)

const (
	literatureResults = 2
	protocolLimit     = 3
	protocolQuery     = "clinical trial protocol adverse events"
)

// literatureCode searches adverse-event literature for symptom. The symptom
// comes from model output and only reaches the snippet as an environment
// variable.
func literatureCode(symptom, apiKey string) sandbox.Code {
	return sandbox.Code{
		Name:   "literature",
		Source: literatureSource,
		Env: map[string]string{
			"QUERY":       symptom + " adverse events clinical trials",
			"EXA_API_KEY": apiKey,
			"NUM_RESULTS": strconv.Itoa(literatureResults),
		},
	}
}

func protocolsCode() sandbox.Code {
	return sandbox.Code{
		Name:   "protocols",
		Source: protocolsSource,
		Env: map[string]string{
			"QUERY": protocolQuery,
			"LIMIT": strconv.Itoa(protocolLimit),
		},
	}
}

// parseProtocols reads one repository name per line, keeping at most
// protocolLimit non-empty names.
func parseProtocols(stdout string) []string {
	var names []string
	for _, line := range strings.Split(stdout, "\n") {
		if name := strings.TrimSpace(line); name != "" && len(names) < protocolLimit {
			names = append(names, name)
		}
	}
	return names
}
