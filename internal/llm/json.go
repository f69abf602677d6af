package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var fencePattern = regexp.MustCompile("```(?:json)?\\n?")

// StripCodeFences removes markdown code fences around a model's JSON output
func StripCodeFences(text string) string {
	return strings.TrimSpace(fencePattern.ReplaceAllString(text, ""))
}

// DecodeJSON parses a model's JSON answer into v. When the text carries prose
// around the object, the outermost {...} span is tried as a fallback.
func DecodeJSON(text string, v any) error {
	text = StripCodeFences(text)
	if text == "" {
		return ErrEmptyResponse
	}

	err := json.Unmarshal([]byte(text), v)
	if err == nil {
		return nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if err2 := json.Unmarshal([]byte(text[start:end+1]), v); err2 == nil {
			return nil
		}
	}
	return fmt.Errorf("parse model JSON: %w", err)
}
