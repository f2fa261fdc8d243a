// Package agents holds the AI analysis adapters. Each adapter turns
// structured profile data into a JSON-shaped result or a captured error;
// none of them know anything about the event queue that invokes them.
package agents

import (
	"encoding/json"
	"fmt"
	"strings"

	"career-compass/internal/llm"
)

// decodeObject parses an LLM response into a JSON object, tolerating stray
// markdown fences. A malformed response comes back as an error value, never
// as a panic or a partially filled map.
func decodeObject(text string) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(text)), &out); err != nil {
		return nil, fmt.Errorf("malformed JSON from model: %w", err)
	}
	return out, nil
}

func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}

func bulletList(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	var b strings.Builder
	for _, it := range items {
		b.WriteString("- ")
		b.WriteString(it)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
