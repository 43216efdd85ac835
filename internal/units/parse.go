package units

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/marketlens/go-foresight/internal/domain"
)

// ParsePayload decodes a model response into a structured payload. Models
// frequently wrap JSON in markdown code fences despite being asked for raw
// JSON, so fences are stripped before decoding. A response that still does
// not decode into a JSON object is a parse failure the caller folds into a
// failed result envelope.
func ParsePayload(content string) (domain.Payload, error) {
	cleaned := stripCodeFences(content)

	var payload domain.Payload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("decode unit output: %w", err)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("decode unit output: empty object")
	}
	return payload, nil
}

// stripCodeFences removes a surrounding markdown code fence, with or without
// a language tag, and trims whitespace. Content without fences passes through
// unchanged.
func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	// Drop the language tag on the opening fence line, e.g. "json".
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		firstLine := strings.TrimSpace(trimmed[:idx])
		if len(firstLine) <= 10 && !strings.ContainsAny(firstLine, "{[") {
			trimmed = trimmed[idx+1:]
		}
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
