/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package result

import (
	"encoding/json"
	"strings"
)

// ExtractJSON returns the JSON payload of a model response. Models asked for
// a JSON object sometimes still wrap it in a ```json fence or surround it
// with prose; the first fenced block wins, otherwise the trimmed text is
// returned with any bare fences removed.
func ExtractJSON(responseText string) string {
	var block []string
	inBlock, found := false, false
	for _, line := range strings.Split(responseText, "\n") {
		switch {
		case !inBlock && strings.TrimSpace(line) == "```json":
			inBlock, found = true, true
		case inBlock && strings.TrimSpace(line) == "```":
			inBlock = false
		case inBlock:
			block = append(block, line)
		}
		if found && !inBlock {
			break
		}
	}
	if found {
		return strings.TrimSpace(strings.Join(block, "\n"))
	}

	text := strings.TrimSpace(responseText)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// Extract decodes the JSON payload of responseText into T.
func Extract[T any](responseText string) (T, error) {
	var out T
	err := json.Unmarshal([]byte(ExtractJSON(responseText)), &out)
	return out, err
}
