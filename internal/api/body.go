package api

import (
	"encoding/json"
	"strings"
)

// errorBody pulls {"error": "..."} or {"message": "..."} out of a
// response body, falling back to the trimmed text.
func errorBody(body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return ""
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(body), &parsed); err == nil {
		for _, k := range []string{"error", "message", "detail"} {
			if s, ok := parsed[k].(string); ok && s != "" {
				return s
			}
		}
	}

	if len(body) > 300 {
		return body[:300] + "…"
	}
	return body
}
