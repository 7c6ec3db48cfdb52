package translator

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// ============================================================================
// RESPONSE PARSER — model text → Draft
// ============================================================================

// parseDraft extracts the JSON object from a model response.
// Markdown code fences and prose around the object are tolerated.
func parseDraft(response string) (Draft, error) {
	text := stripCodeFence(response)
	if i := strings.Index(text, "{"); i > 0 {
		text = text[i:]
	}
	if j := strings.LastIndex(text, "}"); j >= 0 && j < len(text)-1 {
		text = text[:j+1]
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var draft Draft
	if err := dec.Decode(&draft); err != nil {
		return nil, fmt.Errorf("failed to parse draft: %w (response: %.200s)", err, response)
	}
	if draft == nil {
		return nil, fmt.Errorf("model returned an empty draft")
	}
	return draft, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimPrefix(s, "JSON")
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
