/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package clinical

import (
	"math/rand/v2"
	"regexp"
	"strings"
)

// Defaults for metadata the report does not mention.
const (
	DefaultTrialName = "TRIAL-2025-001"
	DefaultPhase     = "Phase II"
	patientIDPrefix  = "P-"
	patientIDLength  = 9
)

// Trial names need an explicit "Trial:" label so that prose such as "after
// trial medication" is not taken for a name, and end at a comma, a newline or
// a sentence break. Roman numeral phases must be uppercase so that "the phase
// in which" does not yield "i". Patient IDs need a ":", "#" or "ID" label and
// must contain a digit ("Patient reports ...", "Patient 45-year-old").
var (
	trialPattern   = regexp.MustCompile(`(?i)\btrial(?:\s+name)?\s*:\s*([^\n,;]+?)\s*(?:[.;](?:\s|$)|[,\n]|$)`)
	phasePattern   = regexp.MustCompile(`(?i)\bphase[:\s]+(\d+|(?-i:[IVX]+))\b`)
	patientPattern = regexp.MustCompile(`(?i)\bpatient(?:\s*[:#]|\s+id\b\s*[:#]?)\s*([A-Z]{0,4}-?\d[A-Z0-9-]*)`)
)

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// MetadataExtractor pulls trial metadata out of free text. It is safe for
// concurrent use only if Rand is.
type MetadataExtractor struct {
	// Rand generates fallback patient IDs. Nil uses the global source.
	Rand *rand.Rand
}

// Extract always returns a fully populated record. Trial name and phase are
// deterministic; the patient ID is random when the text has none.
func (m MetadataExtractor) Extract(text string) TrialMetadata {
	md := TrialMetadata{
		TrialName: firstGroup(trialPattern, text),
		Phase:     firstGroup(phasePattern, text),
		PatientID: firstGroup(patientPattern, text),
	}
	if md.TrialName == "" {
		md.TrialName = DefaultTrialName
	}
	if md.Phase == "" {
		md.Phase = DefaultPhase
	}
	if md.PatientID == "" {
		md.PatientID = m.randomPatientID()
	}
	return md
}

func firstGroup(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimRight(strings.TrimSpace(m[1]), ".;")
}

func (m MetadataExtractor) randomPatientID() string {
	intN := rand.IntN
	if m.Rand != nil {
		intN = m.Rand.IntN
	}
	b := make([]byte, patientIDLength)
	for i := range b {
		b[i] = base36[intN(len(base36))]
	}
	return patientIDPrefix + string(b)
}
