package utils

import (
	"encoding/json"
	"fmt"
	"strings"
)

// UnmarshalLLMJSON parses a model response into v. Models sometimes wrap
// the JSON object in prose or code fences, so a failed direct parse falls
// back to extracting the outermost brace-delimited span.
func UnmarshalLLMJSON(responseText string, v interface{}) error {
	if err := json.Unmarshal([]byte(responseText), v); err == nil {
		return nil
	}

	start := strings.Index(responseText, "{")
	end := strings.LastIndex(responseText, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON object found in model response")
	}

	if err := json.Unmarshal([]byte(responseText[start:end+1]), v); err != nil {
		return fmt.Errorf("failed to parse model response as JSON: %w", err)
	}
	return nil
}
